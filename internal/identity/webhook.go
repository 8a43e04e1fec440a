package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"playground-ai/internal/database"
	"playground-ai/internal/storage"

	svix "github.com/svix/svix-webhooks/go"
	"gorm.io/gorm"
)

const maxWebhookBytes = 1 << 20

type emailAddress struct {
	EmailAddress string `json:"email_address"`
	Verification *struct {
		Status string `json:"status"`
	} `json:"verification"`
}

type clerkUser struct {
	Id             string         `json:"id"`
	FirstName      *string        `json:"first_name"`
	LastName       *string        `json:"last_name"`
	EmailAddresses []emailAddress `json:"email_addresses"`
	ImageUrl       string         `json:"image_url"`
	CreatedAt      int64          `json:"created_at"`
	UpdatedAt      int64          `json:"updated_at"`
}

type webhookEvent struct {
	Type string    `json:"type"`
	Data clerkUser `json:"data"`
}

func (u clerkUser) profile() database.UserProfile {
	profile := database.UserProfile{ClerkId: u.Id, ImageUrl: u.ImageUrl}
	if u.FirstName != nil {
		profile.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		profile.LastName = *u.LastName
	}
	if len(u.EmailAddresses) > 0 {
		primary := u.EmailAddresses[0]
		profile.Email = primary.EmailAddress
		profile.EmailVerified = primary.Verification != nil && primary.Verification.Status == "verified"
	}
	return profile
}

// WebhookHandler mirrors identity provider user events into the profile
// table. Deleting a user removes all of their data and uploaded files.
type WebhookHandler struct {
	wh       *svix.Webhook
	db       *gorm.DB
	blobs    storage.Provider
	bucket   string
	onDelete func(userId string)
	logger   *slog.Logger
}

type WebhookOption func(*WebhookHandler)

// WithBlobStore removes a deleted user's files from bucket.
func WithBlobStore(blobs storage.Provider, bucket string) WebhookOption {
	return func(h *WebhookHandler) {
		h.blobs = blobs
		h.bucket = bucket
	}
}

// OnUserDeleted registers a callback run after a user's data is removed.
func OnUserDeleted(fn func(userId string)) WebhookOption {
	return func(h *WebhookHandler) { h.onDelete = fn }
}

func WithWebhookLogger(logger *slog.Logger) WebhookOption {
	return func(h *WebhookHandler) { h.logger = logger }
}

func NewWebhookHandler(secret string, db *gorm.DB, opts ...WebhookOption) (*WebhookHandler, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook secret: %w", err)
	}

	h := &WebhookHandler{wh: wh, db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "identity_webhook")
	return h, nil
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("svix-id") == "" || r.Header.Get("svix-timestamp") == "" || r.Header.Get("svix-signature") == "" {
		http.Error(w, "Error occurred -- no svix headers", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "Error occurred", http.StatusBadRequest)
		return
	}

	if err := h.wh.Verify(payload, r.Header); err != nil {
		h.logger.Warn("error verifying webhook", "error", err)
		http.Error(w, "Error occurred", http.StatusBadRequest)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Warn("error decoding webhook", "error", err)
		http.Error(w, "Error occurred", http.StatusBadRequest)
		return
	}

	h.logger.Info("webhook received", "type", event.Type, "user_id", event.Data.Id)

	if err := h.handle(r.Context(), event); err != nil {
		h.logger.Error("error processing webhook", "type", event.Type, "user_id", event.Data.Id, "error", err)
		http.Error(w, "Error processing webhook", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Webhook processed successfully"))
}

func (h *WebhookHandler) handle(ctx context.Context, event webhookEvent) error {
	switch event.Type {
	case "user.created", "user.updated", "user.deleted":
		if event.Data.Id == "" {
			return fmt.Errorf("%s event has no user id", event.Type)
		}
	}

	switch event.Type {
	case "user.created":
		profile := event.Data.profile()
		profile.LastLoginAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		return database.CreateUserProfile(ctx, h.db, profile)

	case "user.updated":
		return database.UpdateUserProfile(ctx, h.db, event.Data.profile())

	case "user.deleted":
		if err := database.DeleteUserData(ctx, h.db, event.Data.Id); err != nil {
			return err
		}
		if h.blobs != nil {
			if err := h.blobs.DeleteObjects(ctx, h.bucket, storage.UserPrefix(event.Data.Id)); err != nil {
				return fmt.Errorf("error deleting user files: %w", err)
			}
		}
		if h.onDelete != nil {
			h.onDelete(event.Data.Id)
		}
		return nil

	default:
		h.logger.Info("unhandled webhook type", "type", event.Type)
		return nil
	}
}
