package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"clientdesk/backend/chat/models"
	"clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/shared/observability"

	"github.com/google/uuid"
)

// DefaultBucket is the well-known container for chat attachments
const DefaultBucket = "chat-attachments"

// Role-based key prefixes
const (
	adminPrefix  = "admin-attachments"
	clientPrefix = "client-attachments"
)

// Attachment describes a successfully uploaded object
type Attachment struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

// Uploader stores chat attachments in object storage
type Uploader struct {
	store   ObjectStore
	bucket  string
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewUploader(store ObjectStore, bucket string, log *logger.Logger, metrics *observability.Metrics) *Uploader {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Uploader{store: store, bucket: bucket, log: log, metrics: metrics}
}

// Upload stores the file and returns its public URL and coarse media type.
// Any storage failure yields an UploadError; the caller must not persist a
// message referencing a URL that failed to upload.
func (u *Uploader) Upload(ctx context.Context, file io.Reader, filename, contentType, clientID string, isAdmin bool) (*Attachment, error) {
	if err := u.store.EnsureBucket(ctx, u.bucket); err != nil {
		return nil, errors.NewUploadError("attachment bucket unavailable", err)
	}

	key := objectKey(clientID, filename, isAdmin)
	if err := u.store.Upload(ctx, u.bucket, key, file, contentType); err != nil {
		return nil, errors.NewUploadError("failed to upload attachment", err)
	}

	u.metrics.RecordAttachmentUploaded(ctx)
	u.log.Info("attachment uploaded", "key", key, "content_type", contentType)

	return &Attachment{
		URL:  u.store.PublicURL(u.bucket, key),
		Type: classify(contentType),
		Key:  key,
	}, nil
}

// objectKey builds a role-prefixed key with a random filename preserving
// the original extension. The uuid gives a far larger namespace than the
// required 36^8, so collisions are negligible.
func objectKey(clientID, filename string, isAdmin bool) string {
	prefix := clientPrefix
	if isAdmin {
		prefix = adminPrefix
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", prefix, clientID, uuid.NewString(), ext)
}

// classify maps a declared media type to the coarse attachment kind
func classify(contentType string) string {
	if strings.HasPrefix(contentType, "image/") {
		return models.AttachmentImage
	}
	return models.AttachmentFile
}
