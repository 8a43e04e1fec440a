package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"playground-ai/internal/database"
	"playground-ai/internal/storage"
	"playground-ai/pkg/api"

	"github.com/google/uuid"
)

func notFoundOr(err error, what string) error {
	if database.IsNotFound(err) {
		return CodedErrorf(http.StatusNotFound, "%s not found", what)
	}
	slog.Error("database error", "resource", what, "error", err)
	return CodedErrorf(http.StatusInternalServerError, "error accessing %s", what)
}

// refreshStats keeps the profile counters current. A failure only leaves
// the counters stale, so it is logged and not returned.
func (s *PlaygroundService) refreshStats(ctx context.Context, userId string) {
	if err := database.RefreshUserStats(ctx, s.db, userId); err != nil {
		slog.Error("error refreshing user stats", "user_id", userId, "error", err)
	}
}

func (s *PlaygroundService) ListNotes(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	notes, err := database.ListNotes(r.Context(), s.db, userId)
	if err != nil {
		return nil, notFoundOr(err, "notes")
	}
	return convertNotes(notes), nil
}

func (s *PlaygroundService) CreateNote(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	req, err := ParseRequest[api.NoteRequest](r)
	if err != nil {
		return nil, err
	}

	note, err := database.CreateNote(r.Context(), s.db, userId, req.Title, req.Content, req.Tags)
	if err != nil {
		return nil, notFoundOr(err, "note")
	}
	s.refreshStats(r.Context(), userId)
	return convertNote(note), nil
}

func (s *PlaygroundService) UpdateNote(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	noteId, err := URLParamUUID(r, "note_id")
	if err != nil {
		return nil, err
	}
	req, err := ParseRequest[api.NoteRequest](r)
	if err != nil {
		return nil, err
	}

	note, err := database.UpdateNote(r.Context(), s.db, userId, noteId, req.Title, req.Content, req.Tags)
	if err != nil {
		return nil, notFoundOr(err, "note")
	}
	return convertNote(note), nil
}

func (s *PlaygroundService) DeleteNote(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	noteId, err := URLParamUUID(r, "note_id")
	if err != nil {
		return nil, err
	}

	if err := database.DeleteNote(r.Context(), s.db, userId, noteId); err != nil {
		return nil, notFoundOr(err, "note")
	}
	s.refreshStats(r.Context(), userId)
	return nil, nil
}

func (s *PlaygroundService) ListTodos(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	todos, err := database.ListTodos(r.Context(), s.db, userId)
	if err != nil {
		return nil, notFoundOr(err, "todos")
	}
	return convertTodos(todos), nil
}

func (s *PlaygroundService) CreateTodo(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	req, err := ParseRequest[api.TodoRequest](r)
	if err != nil {
		return nil, err
	}

	todo, err := database.CreateTodo(r.Context(), s.db, userId, req.Title, req.Description, req.Priority, req.DueDate)
	if err != nil {
		return nil, notFoundOr(err, "todo")
	}
	s.refreshStats(r.Context(), userId)
	return convertTodo(todo), nil
}

func (s *PlaygroundService) ToggleTodo(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	todoId, err := URLParamUUID(r, "todo_id")
	if err != nil {
		return nil, err
	}

	todo, err := database.ToggleTodo(r.Context(), s.db, userId, todoId)
	if err != nil {
		return nil, notFoundOr(err, "todo")
	}
	return convertTodo(todo), nil
}

func (s *PlaygroundService) DeleteTodo(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	todoId, err := URLParamUUID(r, "todo_id")
	if err != nil {
		return nil, err
	}

	if err := database.DeleteTodo(r.Context(), s.db, userId, todoId); err != nil {
		return nil, notFoundOr(err, "todo")
	}
	s.refreshStats(r.Context(), userId)
	return nil, nil
}

func (s *PlaygroundService) ListFiles(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	files, err := database.ListFiles(r.Context(), s.db, userId)
	if err != nil {
		return nil, notFoundOr(err, "files")
	}
	return convertFiles(files), nil
}

func (s *PlaygroundService) UploadFile(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}

	r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "file too large, maximum size is %d bytes", MaxUploadBytes)
		}
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "missing 'file' form field")
	}
	defer file.Close()

	if header.Size > MaxUploadBytes {
		return nil, CodedErrorf(http.StatusRequestEntityTooLarge, "file too large, maximum size is %d bytes", MaxUploadBytes)
	}

	now := s.now().UTC()
	key := storage.UploadKey(userId, header.Filename, now)
	if err := s.blobs.PutObject(r.Context(), s.bucket, key, file); err != nil {
		slog.Error("error uploading file", "user_id", userId, "key", key, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error uploading file")
	}

	item := database.FileItem{
		Id:          uuid.New(),
		UserId:      userId,
		Name:        filepath.Base(header.Filename),
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		StorageKey:  key,
		UploadedAt:  now,
	}
	if err := database.CreateFileItem(r.Context(), s.db, &item); err != nil {
		if delErr := s.blobs.DeleteObject(r.Context(), s.bucket, key); delErr != nil {
			slog.Error("error removing orphaned upload", "key", key, "error", delErr)
		}
		return nil, notFoundOr(err, "file")
	}

	s.refreshStats(r.Context(), userId)
	return convertFile(item), nil
}

func (s *PlaygroundService) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userId, err := currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	fileId, err := URLParamUUID(r, "file_id")
	if err != nil {
		writeError(w, err)
		return
	}

	item, err := database.GetFileItem(r.Context(), s.db, userId, fileId)
	if err != nil {
		writeError(w, notFoundOr(err, "file"))
		return
	}

	data, err := s.blobs.GetObject(r.Context(), s.bucket, item.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(w, CodedErrorf(http.StatusNotFound, "file contents not found"))
			return
		}
		slog.Error("error downloading file", "file_id", fileId, "error", err)
		writeError(w, CodedErrorf(http.StatusInternalServerError, "error downloading file"))
		return
	}

	contentType := item.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, item.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		slog.Error("error writing file download", "file_id", fileId, "error", err)
	}
}

func (s *PlaygroundService) DeleteFile(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	fileId, err := URLParamUUID(r, "file_id")
	if err != nil {
		return nil, err
	}

	item, err := database.GetFileItem(r.Context(), s.db, userId, fileId)
	if err != nil {
		return nil, notFoundOr(err, "file")
	}

	if err := s.blobs.DeleteObject(r.Context(), s.bucket, item.StorageKey); err != nil {
		slog.Error("error deleting file object", "file_id", fileId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error deleting file")
	}
	if err := database.DeleteFileItem(r.Context(), s.db, userId, fileId); err != nil {
		return nil, notFoundOr(err, "file")
	}

	s.refreshStats(r.Context(), userId)
	return nil, nil
}

func (s *PlaygroundService) GetProfile(r *http.Request) (any, error) {
	userId, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	profile, err := database.GetUserProfile(r.Context(), s.db, userId)
	if err != nil {
		return nil, notFoundOr(err, "profile")
	}
	return convertProfile(profile), nil
}
