package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a messaging thread owned by the messaging layer. The
// resolution engine only rewrites peer linkage and display fields on it,
// never creates or deletes one.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	PeerID        string    `json:"peer_id"`
	DisplayName   string    `json:"display_name,omitempty"`
	DisplayAvatar string    `json:"display_avatar,omitempty"`
	IsGroup       bool      `json:"is_group"`
	Open          bool      `json:"open"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ConversationUpdate carries the fields a propagation pass may rewrite.
// Nil fields are left untouched.
type ConversationUpdate struct {
	PeerID        *string
	DisplayName   *string
	DisplayAvatar *string
}

// Empty reports whether the update would change nothing.
func (u ConversationUpdate) Empty() bool {
	return u.PeerID == nil && u.DisplayName == nil && u.DisplayAvatar == nil
}
