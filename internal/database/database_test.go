package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btreedb/internal/dberrors"
	"btreedb/internal/row"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "database-test-*.db")
	require.NoError(t, err)
	path := f.Name()
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(path) })
	return path
}

func TestInsertSelectRoundTrip(t *testing.T) {
	db, err := Open(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Insert(1, row.Row{ID: 1, Username: "user1", Email: "person1@example.com"}))
	require.NoError(t, db.Insert(2, row.Row{ID: 2, Username: "user2", Email: "person2@example.com"}))

	var got []row.Row
	require.NoError(t, db.Select(func(r row.Row) error {
		got = append(got, r)
		return nil
	}))

	require.Len(t, got, 2)
	assert.Equal(t, row.Row{ID: 1, Username: "user1", Email: "person1@example.com"}, got[0])
	assert.Equal(t, row.Row{ID: 2, Username: "user2", Email: "person2@example.com"}, got[1])
}

func TestDuplicateKeyRejected(t *testing.T) {
	db, err := Open(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Insert(1, row.Row{ID: 1, Username: "a", Email: "a@b"}))
	err = db.Insert(1, row.Row{ID: 1, Username: "c", Email: "c@d"})
	require.Error(t, err)
	assert.Equal(t, dberrors.Execution, dberrors.CategoryOf(err))
}

func TestDurabilityAcrossReopen(t *testing.T) {
	path := tempDBPath(t)

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Insert(1, row.Row{ID: 1, Username: "x", Email: "x@y"}))
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	var got []row.Row
	require.NoError(t, reopened.Select(func(r row.Row) error {
		got = append(got, r)
		return nil
	}))
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].ID)
}

func TestFileLengthIsAlwaysPageMultiple(t *testing.T) {
	path := tempDBPath(t)

	db, err := Open(path)
	require.NoError(t, err)
	for k := uint32(1); k <= 20; k++ {
		require.NoError(t, db.Insert(k, row.Row{ID: k}))
	}
	require.NoError(t, db.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, fi.Size()%4096)
}
