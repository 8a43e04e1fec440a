package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const VoiceNoteTag = "voice-note"

func encodeTags(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("could not marshal tags: %w", err)
	}
	return datatypes.JSON(b), nil
}

func DecodeTags(raw datatypes.JSON) []string {
	tags := []string{}
	if len(raw) == 0 {
		return tags
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		slog.Warn("invalid note tags", "error", err)
		return []string{}
	}
	return tags
}

func ListNotes(ctx context.Context, db *gorm.DB, userId string) ([]Note, error) {
	var notes []Note
	if err := db.WithContext(ctx).Where("user_id = ?", userId).Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("error listing notes: %w", err)
	}
	return notes, nil
}

func GetNote(ctx context.Context, db *gorm.DB, userId string, noteId uuid.UUID) (Note, error) {
	var note Note
	err := db.WithContext(ctx).Where("user_id = ? AND id = ?", userId, noteId).First(&note).Error
	return note, err
}

func CreateNote(ctx context.Context, db *gorm.DB, userId, title, content string, tags []string) (Note, error) {
	encoded, err := encodeTags(tags)
	if err != nil {
		return Note{}, err
	}

	now := time.Now().UTC()
	note := Note{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		Content:   content,
		Tags:      encoded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(&note).Error; err != nil {
		return Note{}, fmt.Errorf("error creating note: %w", err)
	}
	return note, nil
}

// CreateVoiceNote stores the transcript of a recording as a note. A second
// call for the same recording returns the existing note with created=false.
func CreateVoiceNote(ctx context.Context, db *gorm.DB, userId, recordingId, transcript, audioKey string, recordedAt time.Time) (Note, bool, error) {
	tags, err := encodeTags([]string{VoiceNoteTag})
	if err != nil {
		return Note{}, false, err
	}

	now := time.Now().UTC()
	note := Note{
		Id:                uuid.New(),
		UserId:            userId,
		Title:             "Voice Note - " + recordedAt.Format("Jan 2, 2006 3:04 PM"),
		Content:           transcript,
		Tags:              tags,
		IsVoiceNote:       true,
		AudioKey:          sql.NullString{String: audioKey, Valid: audioKey != ""},
		SourceRecordingId: sql.NullString{String: recordingId, Valid: true},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&note)
	if res.Error != nil {
		return Note{}, false, fmt.Errorf("error creating voice note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing Note
		if err := db.WithContext(ctx).Where("source_recording_id = ?", recordingId).First(&existing).Error; err != nil {
			return Note{}, false, fmt.Errorf("error loading existing voice note: %w", err)
		}
		return existing, false, nil
	}
	return note, true, nil
}

func UpdateNote(ctx context.Context, db *gorm.DB, userId string, noteId uuid.UUID, title, content string, tags []string) (Note, error) {
	encoded, err := encodeTags(tags)
	if err != nil {
		return Note{}, err
	}

	res := db.WithContext(ctx).Model(&Note{}).
		Where("user_id = ? AND id = ?", userId, noteId).
		Updates(map[string]any{"title": title, "content": content, "tags": encoded, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return Note{}, fmt.Errorf("error updating note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Note{}, gorm.ErrRecordNotFound
	}
	return GetNote(ctx, db, userId, noteId)
}

func DeleteNote(ctx context.Context, db *gorm.DB, userId string, noteId uuid.UUID) error {
	res := db.WithContext(ctx).Where("user_id = ? AND id = ?", userId, noteId).Delete(&Note{})
	if res.Error != nil {
		return fmt.Errorf("error deleting note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func ListTodos(ctx context.Context, db *gorm.DB, userId string) ([]Todo, error) {
	var todos []Todo
	if err := db.WithContext(ctx).Where("user_id = ?", userId).Order("created_at DESC").Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("error listing todos: %w", err)
	}
	return todos, nil
}

func CreateTodo(ctx context.Context, db *gorm.DB, userId, title, description, priority string, dueDate *time.Time) (Todo, error) {
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	todo := Todo{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       title,
		Description: description,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if dueDate != nil {
		todo.DueDate = sql.NullTime{Time: *dueDate, Valid: true}
	}

	if err := db.WithContext(ctx).Create(&todo).Error; err != nil {
		return Todo{}, fmt.Errorf("error creating todo: %w", err)
	}
	return todo, nil
}

func ToggleTodo(ctx context.Context, db *gorm.DB, userId string, todoId uuid.UUID) (Todo, error) {
	var todo Todo
	err := db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("user_id = ? AND id = ?", userId, todoId).First(&todo).Error; err != nil {
			return err
		}
		todo.Completed = !todo.Completed
		todo.UpdatedAt = time.Now().UTC()
		return txn.Model(&todo).Updates(map[string]any{"completed": todo.Completed, "updated_at": todo.UpdatedAt}).Error
	})
	return todo, err
}

func DeleteTodo(ctx context.Context, db *gorm.DB, userId string, todoId uuid.UUID) error {
	res := db.WithContext(ctx).Where("user_id = ? AND id = ?", userId, todoId).Delete(&Todo{})
	if res.Error != nil {
		return fmt.Errorf("error deleting todo: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func ListFiles(ctx context.Context, db *gorm.DB, userId string) ([]FileItem, error) {
	var files []FileItem
	if err := db.WithContext(ctx).Where("user_id = ?", userId).Order("uploaded_at DESC").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return files, nil
}

func CreateFileItem(ctx context.Context, db *gorm.DB, file *FileItem) error {
	if err := db.WithContext(ctx).Create(file).Error; err != nil {
		return fmt.Errorf("error creating file record: %w", err)
	}
	return nil
}

func GetFileItem(ctx context.Context, db *gorm.DB, userId string, fileId uuid.UUID) (FileItem, error) {
	var file FileItem
	err := db.WithContext(ctx).Where("user_id = ? AND id = ?", userId, fileId).First(&file).Error
	return file, err
}

func DeleteFileItem(ctx context.Context, db *gorm.DB, userId string, fileId uuid.UUID) error {
	res := db.WithContext(ctx).Where("user_id = ? AND id = ?", userId, fileId).Delete(&FileItem{})
	if res.Error != nil {
		return fmt.Errorf("error deleting file record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func GetUserProfile(ctx context.Context, db *gorm.DB, userId string) (UserProfile, error) {
	var profile UserProfile
	err := db.WithContext(ctx).Where("clerk_id = ?", userId).First(&profile).Error
	return profile, err
}

// CreateUserProfile inserts a profile with zeroed stats and default
// preferences. An existing profile is left untouched.
func CreateUserProfile(ctx context.Context, db *gorm.DB, profile UserProfile) error {
	prefs, err := json.Marshal(DefaultPreferences())
	if err != nil {
		return fmt.Errorf("could not marshal preferences: %w", err)
	}

	now := time.Now().UTC()
	profile.TotalDataItems = 0
	profile.TotalFilesUploaded = 0
	profile.StorageUsed = 0
	profile.Preferences = datatypes.JSON(prefs)
	profile.CreatedAt = now
	profile.UpdatedAt = now

	if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&profile).Error; err != nil {
		return fmt.Errorf("error creating user profile: %w", err)
	}
	return nil
}

// UpdateUserProfile copies identity fields onto the stored profile, creating
// it first if the created event was never received.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, profile UserProfile) error {
	if err := CreateUserProfile(ctx, db, profile); err != nil {
		return err
	}

	updates := map[string]any{
		"email":          profile.Email,
		"first_name":     profile.FirstName,
		"last_name":      profile.LastName,
		"image_url":      profile.ImageUrl,
		"email_verified": profile.EmailVerified,
		"updated_at":     time.Now().UTC(),
	}
	if profile.LastLoginAt.Valid {
		updates["last_login_at"] = profile.LastLoginAt
	}

	if err := db.WithContext(ctx).Model(&UserProfile{}).Where("clerk_id = ?", profile.ClerkId).Updates(updates).Error; err != nil {
		return fmt.Errorf("error updating user profile: %w", err)
	}
	return nil
}

func DeleteUserData(ctx context.Context, db *gorm.DB, userId string) error {
	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		for _, model := range []any{&Note{}, &Todo{}, &FileItem{}, &StateEntry{}} {
			if err := txn.Where("user_id = ?", userId).Delete(model).Error; err != nil {
				return fmt.Errorf("error deleting user data: %w", err)
			}
		}
		if err := txn.Where("clerk_id = ?", userId).Delete(&UserProfile{}).Error; err != nil {
			return fmt.Errorf("error deleting user profile: %w", err)
		}
		return nil
	})
}

func RefreshUserStats(ctx context.Context, db *gorm.DB, userId string) error {
	var notes, todos, files int64
	var storage sql.NullInt64

	txn := db.WithContext(ctx)
	if err := txn.Model(&Note{}).Where("user_id = ?", userId).Count(&notes).Error; err != nil {
		return fmt.Errorf("error counting notes: %w", err)
	}
	if err := txn.Model(&Todo{}).Where("user_id = ?", userId).Count(&todos).Error; err != nil {
		return fmt.Errorf("error counting todos: %w", err)
	}
	if err := txn.Model(&FileItem{}).Where("user_id = ?", userId).Count(&files).Error; err != nil {
		return fmt.Errorf("error counting files: %w", err)
	}
	if err := txn.Model(&FileItem{}).Where("user_id = ?", userId).Select("SUM(size)").Scan(&storage).Error; err != nil {
		return fmt.Errorf("error summing file sizes: %w", err)
	}

	if err := txn.Model(&UserProfile{}).Where("clerk_id = ?", userId).Updates(map[string]any{
		"total_data_items":     notes + todos,
		"total_files_uploaded": files,
		"storage_used":         storage.Int64,
		"updated_at":           time.Now().UTC(),
	}).Error; err != nil {
		return fmt.Errorf("error updating user stats: %w", err)
	}
	return nil
}

func GetStateEntry(ctx context.Context, db *gorm.DB, userId, key string) (StateEntry, error) {
	var entry StateEntry
	err := db.WithContext(ctx).Where("user_id = ? AND key = ?", userId, key).First(&entry).Error
	return entry, err
}

func PutStateEntry(ctx context.Context, db *gorm.DB, userId, key string, value []byte) error {
	entry := StateEntry{UserId: userId, Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("error saving state entry: %w", err)
	}
	return nil
}

func DeleteStateEntry(ctx context.Context, db *gorm.DB, userId, key string) error {
	if err := db.WithContext(ctx).Where("user_id = ? AND key = ?", userId, key).Delete(&StateEntry{}).Error; err != nil {
		return fmt.Errorf("error deleting state entry: %w", err)
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
