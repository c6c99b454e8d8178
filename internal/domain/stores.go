package domain

import (
	"context"

	"github.com/google/uuid"
)

type ContactStore interface {
	GetByInboxID(ctx context.Context, inboxID string) (*Contact, error)
	GetByAddress(ctx context.Context, address string) (*Contact, error)
	Upsert(ctx context.Context, c *Contact) error
	Remove(ctx context.Context, inboxID string) error
	ListAll(ctx context.Context) ([]Contact, error)
}

type ConversationStore interface {
	ListByPeerCandidates(ctx context.Context, peerIDs []string) ([]Conversation, error)
	Update(ctx context.Context, id uuid.UUID, fields ConversationUpdate) error
}

// NameServiceClient resolves human-readable names bound to addresses.
// Both methods return an empty string when no binding exists; errors mean
// the source itself was unreachable.
type NameServiceClient interface {
	ForwardResolve(ctx context.Context, name string) (string, error)
	ReverseResolve(ctx context.Context, address string) (string, error)
}

// SocialGraphClient looks up social-graph profiles. A nil profile with a nil
// error means the subject is unknown to the graph.
type SocialGraphClient interface {
	ProfileByHandleOrID(ctx context.Context, handleOrID string) (*SocialProfile, error)
	ProfileByVerifiedAddress(ctx context.Context, address string) (*SocialProfile, error)
}

// InboxDirectoryClient maps addresses to inbox identifiers and reports the
// identifiers currently linked to each inbox. ResolveInboxID returns an
// empty string when the address has no inbox yet.
type InboxDirectoryClient interface {
	ResolveInboxID(ctx context.Context, address string) (string, error)
	InboxStates(ctx context.Context, inboxIDs []string) ([]InboxState, error)
}

// InboxProfileClient fetches the directory-held profile for an inbox id or
// address. A nil profile with a nil error means none is published.
type InboxProfileClient interface {
	FetchProfile(ctx context.Context, inboxIDOrAddress string) (*InboxProfile, error)
}
