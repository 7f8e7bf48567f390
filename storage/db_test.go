package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func openAll(t *testing.T) map[string]Database {
	t.Helper()
	out := make(map[string]Database)
	for _, backend := range []string{BackendMemory, BackendLevelDB, BackendBolt, BackendSQLite} {
		db, err := Open(backend, t.TempDir())
		require.NoError(t, err, backend)
		t.Cleanup(db.Close)
		out[backend] = db
	}
	return out
}

func TestBackendsPutGetDelete(t *testing.T) {
	for name, db := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			_, err := db.Get([]byte("missing"))
			require.True(t, errors.Is(err, ErrNotFound), "got %v", err)

			require.NoError(t, db.Put([]byte("k"), []byte("v1")))
			require.NoError(t, db.Put([]byte("k"), []byte("v2")))
			value, err := db.Get([]byte("k"))
			require.NoError(t, err)
			require.Equal(t, []byte("v2"), value)

			require.NoError(t, db.Delete([]byte("k")))
			_, err = db.Get([]byte("k"))
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackendsBatchIsAtomicUnit(t *testing.T) {
	for name, db := range openAll(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, db.Put([]byte("stale"), []byte("x")))

			batch := db.NewBatch()
			batch.Put([]byte("a"), []byte("1"))
			batch.Put([]byte("b"), []byte("2"))
			batch.Delete([]byte("stale"))
			require.Equal(t, 3, batch.Len())

			_, err := db.Get([]byte("a"))
			require.ErrorIs(t, err, ErrNotFound, "batch must not apply before Write")

			require.NoError(t, batch.Write())
			a, err := db.Get([]byte("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("1"), a)
			b, err := db.Get([]byte("b"))
			require.NoError(t, err)
			require.Equal(t, []byte("2"), b)
			_, err = db.Get([]byte("stale"))
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLevelDBReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(BackendLevelDB, dir)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("issued"), []byte("3")))
	db.Close()

	reopened, err := Open(BackendLevelDB, dir)
	require.NoError(t, err)
	defer reopened.Close()
	value, err := reopened.Get([]byte("issued"))
	require.NoError(t, err)
	require.Equal(t, []byte("3"), value)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open("rocksdb", t.TempDir())
	require.Error(t, err)
}
