package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment kinds. Anything that is not an image is a generic file.
const (
	AttachmentImage = "image"
	AttachmentFile  = "file"
)

// ChatMessage is one entry in a client conversation. Messages are
// append-only; the only mutation after insert is the is_read flag.
type ChatMessage struct {
	ID string `gorm:"primaryKey" json:"id"`
	// ClientID is the conversation partition key
	ClientID string `gorm:"index" json:"client_id"`
	SenderID string `gorm:"index" json:"sender_id"`
	// IsFromClient is the direction flag driving read-marking and notification routing
	IsFromClient   bool   `json:"is_from_client"`
	Message        string `json:"message"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
	IsRead         bool   `gorm:"default:false" json:"is_read"`
	// CreatedAt defines conversation order; consumers must sort by it,
	// never by arrival order
	CreatedAt time.Time `json:"created_at"`
	// SenderName is a volatile projection resolved at read/subscribe time,
	// never persisted
	SenderName string `gorm:"-" json:"sender_name,omitempty"`
}

// BeforeCreate assigns the server-side id
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// HasAttachment reports whether the message carries an uploaded object
func (m *ChatMessage) HasAttachment() bool {
	return m.AttachmentURL != ""
}
