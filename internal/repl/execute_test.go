package repl

import (
	"bytes"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btreedb/internal/database"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp("", "repl-test-*.db")
	require.NoError(t, err)
	path := f.Name()
	require.NoError(t, f.Close())
	t.Cleanup(func() { os.Remove(path) })
	return path
}

// TestInsertSelectScenario mirrors spec scenario 1: insert two rows, then
// select and see exactly their formatted output followed by "executed.".
func TestInsertSelectScenario(t *testing.T) {
	db, err := database.Open(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer

	stmt, err := PrepareStatement("insert 1 user1 person1@example.com")
	require.NoError(t, err)
	require.NoError(t, Execute(&out, db, stmt))

	stmt, err = PrepareStatement("insert 2 user2 person2@example.com")
	require.NoError(t, err)
	require.NoError(t, Execute(&out, db, stmt))

	out.Reset()
	stmt, err = PrepareStatement("select")
	require.NoError(t, err)
	require.NoError(t, Execute(&out, db, stmt))

	assert.Equal(t,
		"(1, user1, person1@example.com)\n(2, user2, person2@example.com)\nexecuted.\n",
		out.String())
}

// TestDuplicateKeyScenario mirrors spec scenario 2.
func TestDuplicateKeyScenario(t *testing.T) {
	db, err := database.Open(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	stmt, err := PrepareStatement("insert 1 user1 person1@example.com")
	require.NoError(t, err)
	require.NoError(t, Execute(&out, db, stmt))

	out.Reset()
	stmt, err = PrepareStatement("insert 1 user1 person1@example.com")
	require.NoError(t, err)
	require.NoError(t, Execute(&out, db, stmt))
	assert.Equal(t, "error: duplicate key.\n", out.String())
}

// TestFourteenthInsertExecutesSuccessfully confirms that inserts 1..14,
// including the fourteenth one that splits the root leaf, each report
// "executed.".
func TestFourteenthInsertExecutesSuccessfully(t *testing.T) {
	db, err := database.Open(tempDBPath(t))
	require.NoError(t, err)
	defer db.Close()

	var out bytes.Buffer
	for k := 1; k <= 14; k++ {
		stmt, err := PrepareStatement("insert " + strconv.Itoa(k) + " user user@example.com")
		require.NoError(t, err)
		out.Reset()
		require.NoError(t, Execute(&out, db, stmt))
		assert.Equal(t, "executed.\n", out.String())
	}
}
