package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	Name string
	Size int64
}

type Provider interface {
	CreateBucket(ctx context.Context, bucket string) error

	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	DeleteObject(ctx context.Context, bucket, key string) error

	// DeleteObjects removes every object whose key starts with prefix.
	DeleteObjects(ctx context.Context, bucket, prefix string) error

	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)
}

func UserPrefix(userId string) string {
	return fmt.Sprintf("users/%s/", userId)
}

// UploadKey is the key of a file uploaded by a user. The millisecond
// timestamp keeps repeated uploads of the same file name apart.
func UploadKey(userId, filename string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s%d_%s", UserPrefix(userId), now.UnixMilli(), name)
}

func VoiceKey(userId, recordingId string) string {
	return fmt.Sprintf("%svoice/%s.webm", UserPrefix(userId), recordingId)
}
