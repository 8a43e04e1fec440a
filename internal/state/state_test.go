package state_test

import (
	"testing"

	"playground-ai/internal/database"
	"playground-ai/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	return db
}

func testStore(t *testing.T, store state.Store) {
	_, err := store.Load("missing")
	assert.ErrorIs(t, err, state.ErrNotFound)

	require.NoError(t, store.Save("a", []byte(`{"v":1}`)))
	require.NoError(t, store.Save("a", []byte(`{"v":2}`)))

	data, err := store.Load("a")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), data)

	require.NoError(t, store.Remove("a"))
	_, err = store.Load("a")
	assert.ErrorIs(t, err, state.ErrNotFound)

	require.NoError(t, store.Remove("a"))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, state.NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	store, err := state.NewFileStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, store)
}

func TestDBStore(t *testing.T) {
	testStore(t, state.Scoped(state.NewDBStore(createDB(t)), "user-1"))
}

func TestScopedStoresAreIsolated(t *testing.T) {
	base := state.NewDBStore(createDB(t))
	alice := state.Scoped(base, "alice")
	bob := state.Scoped(base, "bob")

	require.NoError(t, alice.Save("assistantConversations", []byte("alice")))
	require.NoError(t, bob.Save("assistantConversations", []byte("bob")))

	data, err := alice.Load("assistantConversations")
	require.NoError(t, err)
	assert.Equal(t, "alice", string(data))

	require.NoError(t, bob.Remove("assistantConversations"))
	_, err = bob.Load("assistantConversations")
	assert.ErrorIs(t, err, state.ErrNotFound)

	data, err = alice.Load("assistantConversations")
	require.NoError(t, err)
	assert.Equal(t, "alice", string(data))
}

func TestScopeWithSeparatorStaysIntact(t *testing.T) {
	db := createDB(t)
	base := state.NewDBStore(db)

	require.NoError(t, state.Scoped(base, "team/alice").Save("dailyQuote", []byte("alice")))

	data, err := state.Scoped(base, "team/alice").Load("dailyQuote")
	require.NoError(t, err)
	assert.Equal(t, "alice", string(data))

	_, err = state.Scoped(base, "team").Load("dailyQuote")
	assert.ErrorIs(t, err, state.ErrNotFound)

	var entry database.StateEntry
	require.NoError(t, db.Where("user_id = ?", "team/alice").First(&entry).Error)
	assert.Equal(t, "dailyQuote", entry.Key)
}
