package domain

import (
	"strings"
	"time"
)

type IdentityKind string

const (
	IdentityKindEthereum  IdentityKind = "Ethereum"
	IdentityKindENS       IdentityKind = "ENS"
	IdentityKindFarcaster IdentityKind = "Farcaster"
	IdentityKindPasskey   IdentityKind = "Passkey"
)

// Identity is one identifier linked to a contact, such as a wallet address,
// an ENS name, or a social handle.
type Identity struct {
	Identifier string       `json:"identifier"`
	Kind       IdentityKind `json:"kind"`
	IsPrimary  bool         `json:"is_primary"`
}

// Key returns the deduplication key for an identity. Two identities with the
// same key describe the same underlying identifier.
func (i Identity) Key() string {
	return strings.ToLower(string(i.Kind)) + "::" + strings.ToLower(i.Identifier)
}

// Contact is the canonical local record for a counterparty. InboxID is the
// primary key; it is stable once assigned but may be rewritten by a
// resolution pass when a better canonical inbox is found.
type Contact struct {
	InboxID        string     `json:"inbox_id"`
	PrimaryAddress string     `json:"primary_address,omitempty"`
	Addresses      []string   `json:"addresses"`
	Identities     []Identity `json:"identities"`

	// System-derived vs. user-overridden display fields. The preferred
	// fields always win during display and are never touched by resolution.
	Name            string `json:"name,omitempty"`
	PreferredName   string `json:"preferred_name,omitempty"`
	Avatar          string `json:"avatar,omitempty"`
	PreferredAvatar string `json:"preferred_avatar,omitempty"`

	// Social-graph enrichment, overwritten wholesale by the latest
	// successful social-graph lookup.
	Username       string  `json:"username,omitempty"`
	FarcasterID    int64   `json:"farcaster_id,omitempty"`
	Score          float32 `json:"score,omitempty"`
	FollowerCount  int     `json:"follower_count,omitempty"`
	FollowingCount int     `json:"following_count,omitempty"`
	ActiveStatus   string  `json:"active_status,omitempty"`
	PowerBadge     bool    `json:"power_badge"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the name to render, with the user override winning.
func (c *Contact) DisplayName() string {
	if c.PreferredName != "" {
		return c.PreferredName
	}
	return c.Name
}

// DisplayAvatar returns the avatar to render, with the user override winning.
func (c *Contact) DisplayAvatar() string {
	if c.PreferredAvatar != "" {
		return c.PreferredAvatar
	}
	return c.Avatar
}

// ENSIdentity returns the contact's ENS identity, or nil if none is known.
func (c *Contact) ENSIdentity() *Identity {
	for i := range c.Identities {
		if c.Identities[i].Kind == IdentityKindENS {
			return &c.Identities[i]
		}
	}
	return nil
}

// HasAddress reports whether addr is already a member of the contact's
// address set, case-insensitively.
func (c *Contact) HasAddress(addr string) bool {
	for _, a := range c.Addresses {
		if strings.EqualFold(a, addr) {
			return true
		}
	}
	return false
}
