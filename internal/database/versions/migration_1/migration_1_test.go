package migration_1

import (
	"database/sql"
	"testing"
	"time"

	"playground-ai/internal/database/versions/migration_0"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type NoteWithSource struct {
	Id                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId            string
	Title             string
	SourceRecordingId sql.NullString
	CreatedAt         time.Time
}

func (NoteWithSource) TableName() string {
	return "notes"
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, migration_0.Migration(db))

	return db
}

func TestMigration_AddsSourceRecording(t *testing.T) {
	db := setupTestDB(t)

	existing := migration_0.Note{Id: uuid.New(), UserId: "user-1", Title: "old note", CreatedAt: time.Now()}
	require.NoError(t, db.Create(&existing).Error)

	require.NoError(t, Migration(db))
	assert.True(t, db.Migrator().HasColumn(&Note{}, "SourceRecordingId"))

	var migrated NoteWithSource
	require.NoError(t, db.First(&migrated, "id = ?", existing.Id).Error)
	assert.False(t, migrated.SourceRecordingId.Valid)

	withSource := NoteWithSource{Id: uuid.New(), UserId: "user-1", Title: "voice", SourceRecordingId: sql.NullString{String: "rec-1", Valid: true}}
	require.NoError(t, db.Create(&withSource).Error)

	duplicate := NoteWithSource{Id: uuid.New(), UserId: "user-1", Title: "voice", SourceRecordingId: sql.NullString{String: "rec-1", Valid: true}}
	assert.Error(t, db.Create(&duplicate).Error)
}

func TestRollback(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Migration(db))
	require.NoError(t, Rollback(db))

	assert.False(t, db.Migrator().HasColumn(&Note{}, "SourceRecordingId"))
}
