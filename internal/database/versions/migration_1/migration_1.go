package migration_1

import (
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

type Note struct {
	SourceRecordingId sql.NullString `gorm:"uniqueIndex"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&Note{}, "SourceRecordingId"); err != nil {
		return fmt.Errorf("error adding SourceRecordingId column: %w", err)
	}

	if err := db.Migrator().CreateIndex(&Note{}, "SourceRecordingId"); err != nil {
		return fmt.Errorf("error creating SourceRecordingId index: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&Note{}, "SourceRecordingId"); err != nil {
		return fmt.Errorf("error dropping SourceRecordingId index: %w", err)
	}

	if err := db.Migrator().DropColumn(&Note{}, "SourceRecordingId"); err != nil {
		return fmt.Errorf("error dropping SourceRecordingId column: %w", err)
	}

	return nil
}
