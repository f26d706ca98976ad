package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := New(store, "")

	require.NoError(t, s.SetToken(ctx, "tok"))
	require.NoError(t, s.SetEnvironment(ctx, "42"))
	assert.True(t, s.Authenticated())
	assert.Equal(t, "42", s.EnvironmentID())

	restored := New(store, DefaultKey)
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, "tok", restored.Token())
	assert.Equal(t, "42", restored.EnvironmentID())

	require.NoError(t, s.LeaveEnvironment(ctx))
	assert.Equal(t, "", s.EnvironmentID())
	assert.Equal(t, "tok", s.Token(), "leaving an environment keeps the login")

	require.NoError(t, s.Clear(ctx))
	assert.False(t, s.Authenticated())
	_, err := store.LoadSession(ctx, DefaultKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestoreWithoutStoredSession(t *testing.T) {
	s := New(NewMemoryStore(), "missing")
	require.NoError(t, s.Restore(context.Background()))
	assert.False(t, s.Authenticated())
	require.NoError(t, New(nil, "").Restore(context.Background()))
}

func TestTransportAttachesHeaders(t *testing.T) {
	var gotAuth, gotEnv string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotEnv = r.Header.Get(EnvironmentHeader)
	}))
	defer srv.Close()

	s := New(nil, "")
	client := &http.Client{Transport: NewTransport(s, nil)}

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, gotAuth)
	assert.Empty(t, gotEnv)

	ctx := context.Background()
	require.NoError(t, s.SetToken(ctx, "abc"))
	require.NoError(t, s.SetEnvironment(ctx, "7"))

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Equal(t, "7", gotEnv)
	assert.Empty(t, req.Header.Get("Authorization"), "caller request must not be modified")
}
