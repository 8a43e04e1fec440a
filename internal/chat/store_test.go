package chat

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"playground-ai/internal/gateway"
	"playground-ai/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func conversation(id string, updated time.Time) Conversation {
	return Conversation{
		ID:    id,
		Title: "title " + id,
		Messages: []ChatMessage{
			{ID: id + "-u", Role: gateway.RoleUser, Content: "hi " + id, Timestamp: updated},
		},
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestStoreUpsertMovesToFront(t *testing.T) {
	store := LoadConversationStore(state.NewMemoryStore(), testLogger())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	store.Upsert(conversation("a", base))
	store.Upsert(conversation("b", base.Add(time.Minute)))
	store.Upsert(conversation("a", base.Add(2*time.Minute)))

	list := store.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestStoreEviction(t *testing.T) {
	backing := state.NewMemoryStore()
	store := LoadConversationStore(backing, testLogger())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= MaxConversations+1; i++ {
		store.Upsert(conversation(fmt.Sprintf("c%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	list := store.List()
	require.Len(t, list, MaxConversations)
	assert.Equal(t, "c21", list[0].ID)
	for _, c := range list {
		assert.NotEqual(t, "c1", c.ID)
	}

	reloaded := LoadConversationStore(backing, testLogger()).List()
	assert.Equal(t, list, reloaded)
}

func TestStoreIdempotentLoad(t *testing.T) {
	backing := state.NewMemoryStore()
	store := LoadConversationStore(backing, testLogger())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.Upsert(conversation("a", base))
	store.Upsert(conversation("b", base.Add(time.Minute)))

	reloaded := LoadConversationStore(backing, testLogger())
	first := reloaded.List()
	second := reloaded.List()
	assert.Equal(t, first, second)
	assert.Equal(t, store.List(), first)
}

func TestStoreListIsACopy(t *testing.T) {
	store := LoadConversationStore(state.NewMemoryStore(), testLogger())
	store.Upsert(conversation("a", time.Now()))

	list := store.List()
	list[0].Messages[0].Content = "changed"
	list[0].Title = "changed"

	again := store.List()
	assert.Equal(t, "hi a", again[0].Messages[0].Content)
	assert.Equal(t, "title a", again[0].Title)
}

func TestStoreRemoveAndClear(t *testing.T) {
	backing := state.NewMemoryStore()
	store := LoadConversationStore(backing, testLogger())
	store.Upsert(conversation("a", time.Now()))
	store.Upsert(conversation("b", time.Now()))

	store.Remove("a")
	_, ok := store.Get("a")
	assert.False(t, ok)
	assert.Len(t, LoadConversationStore(backing, testLogger()).List(), 1)

	store.Remove("missing")
	assert.Len(t, store.List(), 1)

	store.Clear()
	assert.Empty(t, store.List())
	_, err := backing.Load(conversationsKey)
	assert.ErrorIs(t, err, state.ErrNotFound)
}

func TestStoreToleratesCorruptData(t *testing.T) {
	backing := state.NewMemoryStore()
	require.NoError(t, backing.Save(conversationsKey, []byte("{not json")))

	store := LoadConversationStore(backing, testLogger())
	assert.Empty(t, store.List())

	store.Upsert(conversation("a", time.Now()))
	assert.Len(t, LoadConversationStore(backing, testLogger()).List(), 1)
}

func TestDeriveTitle(t *testing.T) {
	long := ""
	for i := 0; i < 80; i++ {
		long += string(rune('a' + i%26))
	}

	title := DeriveTitle([]ChatMessage{{Role: gateway.RoleUser, Content: long}})
	assert.Equal(t, long[:50]+"...", title)

	assert.Equal(t, "hello", DeriveTitle([]ChatMessage{{Role: gateway.RoleUser, Content: "hello"}}))
	assert.Equal(t, 50, len([]rune(DeriveTitle([]ChatMessage{{Role: gateway.RoleUser, Content: long[:50]}}))))
}
