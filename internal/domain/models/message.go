// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachment is file metadata embedded on a message. The blob itself lives
// in external storage; URL is the retrievable location.
type Attachment struct {
	Filename     string `bson:"filename" json:"filename"`
	OriginalName string `bson:"original_name" json:"original_name"`
	MimeType     string `bson:"mime_type" json:"mime_type"`
	Size         int64  `bson:"size" json:"size"`
	URL          string `bson:"url" json:"url"`
}

// ReadReceipt records that a user has seen a message.
type ReadReceipt struct {
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	ReadAt time.Time          `bson:"read_at" json:"read_at"`
}

// Reaction groups the users who reacted with one emoji.
type Reaction struct {
	Emoji   string               `bson:"emoji" json:"emoji"`
	UserIDs []primitive.ObjectID `bson:"user_ids" json:"user_ids"`
}

// Message is a company chat message. RecipientID nil means a group message
// visible to the whole company; otherwise it is a direct message.
// Messages are soft-deleted only: IsDeleted flips, the document stays.
type Message struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SenderID    primitive.ObjectID  `bson:"sender_id" json:"sender_id"`
	RecipientID *primitive.ObjectID `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
	Body        string              `bson:"body" json:"body"`
	CompanyID   primitive.ObjectID  `bson:"company_id" json:"company_id"`

	ReadBy      []ReadReceipt `bson:"read_by,omitempty" json:"read_by,omitempty"`
	Attachments []Attachment  `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Reactions   []Reaction    `bson:"reactions,omitempty" json:"reactions,omitempty"`

	IsEdited     bool       `bson:"is_edited" json:"is_edited"`
	EditedAt     *time.Time `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	OriginalBody string     `bson:"original_body,omitempty" json:"original_body,omitempty"`

	ReplyTo *primitive.ObjectID `bson:"reply_to,omitempty" json:"reply_to,omitempty"`

	IsPinned bool                `bson:"is_pinned" json:"is_pinned"`
	PinnedAt *time.Time          `bson:"pinned_at,omitempty" json:"pinned_at,omitempty"`
	PinnedBy *primitive.ObjectID `bson:"pinned_by,omitempty" json:"pinned_by,omitempty"`

	IsDeleted bool                `bson:"is_deleted" json:"is_deleted"`
	DeletedAt *time.Time          `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	DeletedBy *primitive.ObjectID `bson:"deleted_by,omitempty" json:"deleted_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsReadBy reports whether the given user appears in the read receipts.
func (m *Message) IsReadBy(userID primitive.ObjectID) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
