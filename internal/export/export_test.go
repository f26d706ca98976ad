package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finview/internal/core"
	"finview/internal/format"
	"finview/internal/memory"
	"finview/internal/session"
)

var fixedNow = time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)

func loggedInStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	sess := session.New(nil, "")
	st := memory.New(memory.WithSession(sess), memory.WithNow(func() time.Time { return fixedNow }))
	st.Load(memory.DemoSeed(fixedNow))

	res, err := st.Login(ctx, core.Credentials{Email: "demo@finview.local", Password: "demo"})
	require.NoError(t, err)
	require.NoError(t, sess.SetToken(ctx, res.Token))
	envs, err := st.ListEnvironments(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.SetEnvironment(ctx, envs[0].ID.String()))
	return st
}

type brokenWriter struct{}

func (brokenWriter) WriteTable(context.Context, Table) error { return errors.New("quota exceeded") }

type brokenSource struct{ *memory.Store }

func (brokenSource) ListTransactions(context.Context, core.TransactionKind) ([]core.Transaction, error) {
	return nil, errors.New("unauthorized")
}

func TestNewExporterRequiresCollaborators(t *testing.T) {
	_, err := NewExporter(nil, NewMemoryWriter(), "", nil, nil, nil)
	assert.Error(t, err)
	_, err = NewExporter(loggedInStore(t), nil, "", nil, nil, nil)
	assert.Error(t, err)
}

func TestExportWritesBothPartitions(t *testing.T) {
	w := NewMemoryWriter()
	e, err := NewExporter(loggedInStore(t), w, "", format.Default(), format.FixedClock(fixedNow), nil)
	require.NoError(t, err)

	res, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSheet, res.Table)
	assert.Equal(t, 5, res.Rows)

	table, ok := w.Table(DefaultSheet)
	require.True(t, ok)
	assert.Equal(t, Header, table.Header)
	require.Len(t, table.Rows, 5)

	kinds := make([]string, len(table.Rows))
	for i, r := range table.Rows {
		kinds[i] = r[0]
	}
	assert.Equal(t, []string{"planned", "planned", "planned", "unplanned", "unplanned"}, kinds)

	first := table.Rows[0]
	assert.Equal(t, "1", first[1])
	assert.Equal(t, "Salary", first[3])
	assert.Equal(t, "6500.00", first[6])
	assert.Equal(t, "R$ 6.500,00", first[7])

	unplanned := table.Rows[3]
	assert.Equal(t, "1", unplanned[1])
	assert.Equal(t, "Freelance", unplanned[3])
	assert.Equal(t, "2025-10-07", unplanned[2])
}

func TestExportErrors(t *testing.T) {
	e, err := NewExporter(loggedInStore(t), brokenWriter{}, "Sheet1", nil, nil, nil)
	require.NoError(t, err)
	_, err = e.Export(context.Background())
	assert.ErrorContains(t, err, "write table Sheet1")

	w := NewMemoryWriter()
	e, err = NewExporter(brokenSource{}, w, "", nil, nil, nil)
	require.NoError(t, err)
	_, err = e.Export(context.Background())
	assert.ErrorContains(t, err, "unauthorized")
	assert.Zero(t, w.Writes())
}
