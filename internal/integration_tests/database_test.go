//go:build integration

package integrationtests

import (
	"context"
	"testing"
	"time"

	"playground-ai/internal/database"
	"playground-ai/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresVoiceNotes(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)

	recordedAt := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	note, created, err := database.CreateVoiceNote(ctx, db, "user-1", "rec-1", "call the dentist", "users/user-1/voice/rec-1.webm", recordedAt)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := database.CreateVoiceNote(ctx, db, "user-1", "rec-1", "call the dentist", "", recordedAt)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, note.Id, again.Id)

	notes, err := database.ListNotes(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestPostgresUserDataDeletion(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)

	require.NoError(t, database.CreateUserProfile(ctx, db, database.UserProfile{ClerkId: "user-1", Email: "a@example.com"}))
	_, err := database.CreateNote(ctx, db, "user-1", "groceries", "milk", []string{"home"})
	require.NoError(t, err)
	_, err = database.CreateTodo(ctx, db, "user-1", "write report", "", database.PriorityHigh, nil)
	require.NoError(t, err)

	require.NoError(t, database.RefreshUserStats(ctx, db, "user-1"))
	profile, err := database.GetUserProfile(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.TotalDataItems)

	require.NoError(t, database.DeleteUserData(ctx, db, "user-1"))

	_, err = database.GetUserProfile(ctx, db, "user-1")
	assert.True(t, database.IsNotFound(err))
	todos, err := database.ListTodos(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestPostgresStateStore(t *testing.T) {
	db := createDB(t)

	store := state.NewDBStore(db)
	user1 := state.Scoped(store, "user-1")
	user2 := state.Scoped(store, "user-2")

	require.NoError(t, user1.Save("quotes", []byte(`{"a":1}`)))
	require.NoError(t, user1.Save("quotes", []byte(`{"a":2}`)))

	data, err := user1.Load("quotes")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))

	_, err = user2.Load("quotes")
	assert.ErrorIs(t, err, state.ErrNotFound)
}
