package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Note struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId string    `gorm:"index;not null"`

	Title   string `gorm:"not null"`
	Content string
	Tags    datatypes.JSON

	IsVoiceNote bool `gorm:"default:false"`
	AudioKey    sql.NullString

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Todo struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId string    `gorm:"index;not null"`

	Title       string `gorm:"not null"`
	Description string
	Completed   bool   `gorm:"default:false"`
	Priority    string `gorm:"size:10;not null;default:medium"`
	DueDate     sql.NullTime

	CreatedAt time.Time
	UpdatedAt time.Time
}

type FileItem struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId string    `gorm:"index;not null"`

	Name        string `gorm:"not null"`
	Size        int64
	ContentType string
	StorageKey  string `gorm:"not null"`

	UploadedAt time.Time
}

type UserProfile struct {
	ClerkId string `gorm:"primaryKey"`

	Email         string
	FirstName     string
	LastName      string
	ImageUrl      string
	EmailVerified bool

	TotalDataItems     int   `gorm:"default:0"`
	TotalFilesUploaded int   `gorm:"default:0"`
	StorageUsed        int64 `gorm:"default:0"`

	Preferences datatypes.JSON

	LastLoginAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type StateEntry struct {
	UserId string `gorm:"primaryKey"`
	Key    string `gorm:"primaryKey"`
	Value  []byte

	UpdatedAt time.Time
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&Note{}, &Todo{}, &FileItem{}, &UserProfile{}, &StateEntry{})
}
