package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finview/internal/amqp"
	"finview/internal/export"
	"finview/internal/session"
	"finview/internal/storage"
)

var fixedNow = time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)

type fakeExporter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeExporter) Export(context.Context) (export.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return export.Result{}, f.err
	}
	return export.Result{Table: export.DefaultSheet, Rows: 5, ExportedAt: fixedNow}, nil
}

func (f *fakeExporter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memoryLog struct {
	mu   sync.Mutex
	runs []storage.ExportRun
	err  error
}

func (m *memoryLog) RecordExport(_ context.Context, run storage.ExportRun) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.runs = append(m.runs, run)
	return int64(len(m.runs)), nil
}

func (m *memoryLog) LastExport(_ context.Context, key string) (storage.ExportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].SessionKey == key {
			return m.runs[i], nil
		}
	}
	return storage.ExportRun{}, storage.ErrNoExport
}

func (m *memoryLog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

func activeSession(t *testing.T) *session.Session {
	t.Helper()
	ctx := context.Background()
	sess := session.New(session.NewMemoryStore(), "")
	require.NoError(t, sess.SetToken(ctx, "token"))
	require.NoError(t, sess.SetEnvironment(ctx, "7"))
	return sess
}

func newWorker(t *testing.T, sess *session.Session, exp *fakeExporter, runs *memoryLog, interval time.Duration) *ExportWorker {
	t.Helper()
	w := NewExportWorker(exp, runs, sess, Config{Interval: interval}, nil)
	w.now = func() time.Time { return fixedNow }
	return w
}

func TestExportNowRecordsRun(t *testing.T) {
	exp, runs := &fakeExporter{}, &memoryLog{}
	w := newWorker(t, activeSession(t), exp, runs, time.Hour)

	require.NoError(t, w.ExportNow(context.Background(), "manual"))
	require.Equal(t, 1, runs.Len())
	run := runs.runs[0]
	assert.Equal(t, session.DefaultKey, run.SessionKey)
	assert.Equal(t, "7", run.EnvironmentID)
	assert.Equal(t, export.DefaultSheet, run.TargetRange)
	assert.Equal(t, int64(5), run.RowCount)
	assert.Equal(t, fixedNow, run.ExportedAt)
}

func TestExportNowWithoutSession(t *testing.T) {
	tests := []struct {
		name  string
		setup func(context.Context, *session.Session) error
	}{
		{"logged out", func(context.Context, *session.Session) error { return nil }},
		{"no environment", func(ctx context.Context, s *session.Session) error { return s.SetToken(ctx, "token") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sess := session.New(session.NewMemoryStore(), "")
			require.NoError(t, tt.setup(ctx, sess))
			exp := &fakeExporter{}
			w := newWorker(t, sess, exp, &memoryLog{}, time.Hour)

			err := w.ExportNow(ctx, "manual")
			assert.ErrorIs(t, err, ErrNoSession)
			assert.Zero(t, exp.Calls())
		})
	}
}

func TestExportNowPropagatesExportFailure(t *testing.T) {
	exp, runs := &fakeExporter{err: errors.New("quota exceeded")}, &memoryLog{}
	w := newWorker(t, activeSession(t), exp, runs, time.Hour)

	err := w.ExportNow(context.Background(), "manual")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Zero(t, runs.Len())
}

func TestExportNowIgnoresRecordFailure(t *testing.T) {
	exp, runs := &fakeExporter{}, &memoryLog{err: errors.New("disk full")}
	w := newWorker(t, activeSession(t), exp, runs, time.Hour)

	assert.NoError(t, w.ExportNow(context.Background(), "manual"))
	assert.Equal(t, 1, exp.Calls())
}

func TestStartupCheck(t *testing.T) {
	tests := []struct {
		name       string
		previous   []storage.ExportRun
		wantExport bool
	}{
		{"no previous export", nil, true},
		{"fresh export", []storage.ExportRun{{SessionKey: session.DefaultKey, ExportedAt: fixedNow.Add(-10 * time.Minute)}}, false},
		{"stale export", []storage.ExportRun{{SessionKey: session.DefaultKey, ExportedAt: fixedNow.Add(-2 * time.Hour)}}, true},
		{"other session only", []storage.ExportRun{{SessionKey: "other", ExportedAt: fixedNow}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, runs := &fakeExporter{}, &memoryLog{runs: tt.previous}
			w := newWorker(t, activeSession(t), exp, runs, time.Hour)

			require.NoError(t, w.StartupCheck(context.Background()))
			if tt.wantExport {
				assert.Equal(t, 1, exp.Calls())
			} else {
				assert.Zero(t, exp.Calls())
			}
		})
	}
}

func TestHandleMutationSchedulesExport(t *testing.T) {
	tests := []struct {
		name    string
		event   *amqp.MutationEvent
		pending bool
	}{
		{"transaction in active environment", amqp.NewMutationEvent(amqp.EntityTransaction, amqp.ActionCreated, "1", "7"), true},
		{"balance edit", amqp.NewMutationEvent(amqp.EntityBalance, amqp.ActionUpdated, "", "7"), true},
		{"goal change", amqp.NewMutationEvent(amqp.EntityGoal, amqp.ActionCreated, "3", "7"), false},
		{"other environment", amqp.NewMutationEvent(amqp.EntityTransaction, amqp.ActionDeleted, "1", "8"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorker(t, activeSession(t), &fakeExporter{}, &memoryLog{}, time.Hour)

			require.NoError(t, w.HandleMutation(context.Background(), tt.event))
			assert.Equal(t, tt.pending, len(w.trigger) == 1)
		})
	}
}

func TestHandleMutationCoalesces(t *testing.T) {
	w := newWorker(t, activeSession(t), &fakeExporter{}, &memoryLog{}, time.Hour)
	ev := amqp.NewMutationEvent(amqp.EntityTransaction, amqp.ActionUpdated, "1", "7")

	for range 3 {
		require.NoError(t, w.HandleMutation(context.Background(), ev))
	}
	assert.Len(t, w.trigger, 1)
}

func TestWorkerLifecycle(t *testing.T) {
	exp, runs := &fakeExporter{}, &memoryLog{}
	w := newWorker(t, activeSession(t), exp, runs, time.Hour)
	ctx := context.Background()

	require.NoError(t, w.Start(ctx))
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(ctx))

	// startup export runs first, then an event-driven one
	require.Eventually(t, func() bool { return exp.Calls() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, w.HandleMutation(ctx, amqp.NewMutationEvent(amqp.EntityTransaction, amqp.ActionCreated, "1", "7")))
	require.Eventually(t, func() bool { return exp.Calls() == 2 }, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	assert.False(t, w.IsRunning())
	assert.Equal(t, 2, runs.Len())
}

type blockingExporter struct {
	fakeExporter
	release chan struct{}
}

func (b *blockingExporter) Export(ctx context.Context) (export.Result, error) {
	<-b.release
	return b.fakeExporter.Export(ctx)
}

func TestStopAfterTimeoutCanBeRetried(t *testing.T) {
	exp := &blockingExporter{release: make(chan struct{})}
	w := NewExportWorker(exp, &memoryLog{}, activeSession(t), Config{Interval: time.Hour}, nil)
	ctx := context.Background()
	require.NoError(t, w.Start(ctx))

	for range 2 {
		stopCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		err := w.Stop(stopCtx)
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, w.IsRunning(), "the blocked export is still in flight")
	}

	close(exp.release)
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	assert.False(t, w.IsRunning())
}

func TestRestartAfterContextCancel(t *testing.T) {
	exp := &fakeExporter{}
	w := newWorker(t, activeSession(t), exp, &memoryLog{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()
	require.Eventually(t, func() bool { return !w.IsRunning() }, time.Second, 10*time.Millisecond)

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())
	stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, w.Stop(stopCtx))
}
