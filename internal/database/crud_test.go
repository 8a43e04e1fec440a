package database_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"playground-ai/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)

	first, err := database.CreateNote(ctx, db, "user-1", "groceries", "milk", []string{"home"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := database.CreateNote(ctx, db, "user-1", "ideas", "", nil)
	require.NoError(t, err)
	_, err = database.CreateNote(ctx, db, "user-2", "other", "", nil)
	require.NoError(t, err)

	notes, err := database.ListNotes(ctx, db, "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.Id, notes[0].Id)
	assert.Equal(t, first.Id, notes[1].Id)
	assert.Equal(t, []string{"home"}, database.DecodeTags(notes[1].Tags))
	assert.Equal(t, []string{}, database.DecodeTags(notes[0].Tags))

	updated, err := database.UpdateNote(ctx, db, "user-1", first.Id, "groceries", "milk, eggs", []string{"home", "shop"})
	require.NoError(t, err)
	assert.Equal(t, "milk, eggs", updated.Content)

	_, err = database.UpdateNote(ctx, db, "user-2", first.Id, "x", "y", nil)
	assert.True(t, database.IsNotFound(err))

	require.NoError(t, database.DeleteNote(ctx, db, "user-1", first.Id))
	assert.True(t, database.IsNotFound(database.DeleteNote(ctx, db, "user-1", first.Id)))
}

func TestCreateVoiceNoteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)

	recordedAt := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	note, created, err := database.CreateVoiceNote(ctx, db, "user-1", "rec-1", "buy milk", "users/user-1/voice/rec-1.webm", recordedAt)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, note.IsVoiceNote)
	assert.Equal(t, "Voice Note - Mar 5, 2024 2:30 PM", note.Title)
	assert.Equal(t, []string{database.VoiceNoteTag}, database.DecodeTags(note.Tags))

	again, created, err := database.CreateVoiceNote(ctx, db, "user-1", "rec-1", "buy milk", "", recordedAt)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, note.Id, again.Id)

	notes, err := database.ListNotes(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestTodos(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)

	due := time.Now().Add(24 * time.Hour).UTC()
	todo, err := database.CreateTodo(ctx, db, "user-1", "write report", "", "", &due)
	require.NoError(t, err)
	assert.Equal(t, database.PriorityMedium, todo.Priority)
	assert.True(t, todo.DueDate.Valid)

	toggled, err := database.ToggleTodo(ctx, db, "user-1", todo.Id)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = database.ToggleTodo(ctx, db, "user-1", todo.Id)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	_, err = database.ToggleTodo(ctx, db, "user-1", uuid.New())
	assert.True(t, database.IsNotFound(err))

	require.NoError(t, database.DeleteTodo(ctx, db, "user-1", todo.Id))
	todos, err := database.ListTodos(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestUserProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)

	require.NoError(t, database.CreateUserProfile(ctx, db, database.UserProfile{ClerkId: "user-1", Email: "a@example.com"}))

	profile, err := database.GetUserProfile(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", profile.Email)
	var prefs database.Preferences
	require.NoError(t, json.Unmarshal(profile.Preferences, &prefs))
	assert.Equal(t, database.DefaultPreferences(), prefs)

	require.NoError(t, database.UpdateUserProfile(ctx, db, database.UserProfile{ClerkId: "user-1", Email: "b@example.com", FirstName: "Sam"}))
	profile, err = database.GetUserProfile(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", profile.Email)
	assert.Equal(t, "Sam", profile.FirstName)

	_, err = database.CreateNote(ctx, db, "user-1", "a", "", nil)
	require.NoError(t, err)
	_, err = database.CreateTodo(ctx, db, "user-1", "b", "", database.PriorityHigh, nil)
	require.NoError(t, err)
	require.NoError(t, database.CreateFileItem(ctx, db, &database.FileItem{
		Id: uuid.New(), UserId: "user-1", Name: "a.txt", Size: 42, StorageKey: "users/user-1/1_a.txt", UploadedAt: time.Now(),
	}))

	require.NoError(t, database.RefreshUserStats(ctx, db, "user-1"))
	profile, err = database.GetUserProfile(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.TotalDataItems)
	assert.Equal(t, 1, profile.TotalFilesUploaded)
	assert.Equal(t, int64(42), profile.StorageUsed)

	require.NoError(t, database.DeleteUserData(ctx, db, "user-1"))
	_, err = database.GetUserProfile(ctx, db, "user-1")
	assert.True(t, database.IsNotFound(err))
	notes, err := database.ListNotes(ctx, db, "user-1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestStateEntries(t *testing.T) {
	ctx := context.Background()
	db := createDB(t)

	require.NoError(t, database.PutStateEntry(ctx, db, "user-1", "k", []byte("v1")))
	require.NoError(t, database.PutStateEntry(ctx, db, "user-1", "k", []byte("v2")))

	entry, err := database.GetStateEntry(ctx, db, "user-1", "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), entry.Value)

	_, err = database.GetStateEntry(ctx, db, "user-2", "k")
	assert.True(t, database.IsNotFound(err))

	require.NoError(t, database.DeleteStateEntry(ctx, db, "user-1", "k"))
	_, err = database.GetStateEntry(ctx, db, "user-1", "k")
	assert.True(t, database.IsNotFound(err))
}
