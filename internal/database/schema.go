package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PriorityLow    string = "low"
	PriorityMedium string = "medium"
	PriorityHigh   string = "high"
)

type Note struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId string    `gorm:"index;not null"`

	Title   string `gorm:"not null"`
	Content string
	Tags    datatypes.JSON

	IsVoiceNote bool `gorm:"default:false"`
	AudioKey    sql.NullString
	// Set for notes created from a voice recording. The unique index makes
	// conversion of a recording idempotent across worker processes.
	SourceRecordingId sql.NullString `gorm:"uniqueIndex"`

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

// StateEntry holds opaque client state blobs (conversation history, image
// history, cached quotes) keyed per user.
type StateEntry struct {
	UserId string `gorm:"primaryKey"`
	Key    string `gorm:"primaryKey"`
	Value  []byte

	UpdatedAt time.Time
}

type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: "light", Notifications: true, Language: "en"}
}
