package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/airbrb/booking-client/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the behaviour every domain.StateStore must share.
func exerciseStore(t *testing.T, store domain.StateStore) {
	t.Helper()
	ctx := context.Background()
	key := "airbrb_notifications_guest@example.com"

	_, err := store.Get(ctx, key)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Set(ctx, key, []byte(`[1]`)))
	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	require.NoError(t, store.Set(ctx, key, []byte(`[2,1]`)))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[2,1]`, string(got), "last writer wins")

	require.NoError(t, store.Set(ctx, "airbrb_auth", []byte(`{}`)))
	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Delete(ctx, key), "deleting a missing key is not an error")

	got, err = store.Get(ctx, "airbrb_auth")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Set(context.Background(), "k", buf))
	buf[0] = 'z'

	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func newTestSQLiteStore(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, newTestSQLiteStore(t, filepath.Join(t.TempDir(), "state", StateDBFile)))
}

func TestSQLiteStore_KeysWithSeparators(t *testing.T) {
	s := newTestSQLiteStore(t, filepath.Join(t.TempDir(), StateDBFile))
	ctx := context.Background()
	key := "airbrb_notifications_a/b@example.com"

	require.NoError(t, s.Set(ctx, key, []byte("x")))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestSQLiteStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), StateDBFile)
	first, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Set(context.Background(), "airbrb_auth", []byte(`{"token":"t"}`)))
	require.NoError(t, first.Close())

	second := newTestSQLiteStore(t, path)
	got, err := second.Get(context.Background(), "airbrb_auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"t"}`, string(got))
}
