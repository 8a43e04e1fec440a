package state

import (
	"context"
	"playground-ai/internal/database"
	"time"

	"gorm.io/gorm"
)

const dbTimeout = 10 * time.Second

// DBStore keeps state in the state_entries table. Keys written through a
// Scoped store are split into the user id column and the key column.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Load(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userId, k := splitScope(key)
	entry, err := database.GetStateEntry(ctx, s.db, userId, k)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry.Value, nil
}

func (s *DBStore) Save(key string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userId, k := splitScope(key)
	return database.PutStateEntry(ctx, s.db, userId, k, data)
}

func (s *DBStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	userId, k := splitScope(key)
	return database.DeleteStateEntry(ctx, s.db, userId, k)
}
