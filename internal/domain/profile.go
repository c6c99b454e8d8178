package domain

// SocialProfile is the reputation/identity record returned by the
// social-graph source for a handle, numeric id, or verified address.
type SocialProfile struct {
	Username          string   `json:"username"`
	DisplayName       string   `json:"display_name,omitempty"`
	AvatarURL         string   `json:"avatar_url,omitempty"`
	FID               int64    `json:"fid"`
	Score             float32  `json:"score"`
	FollowerCount     int      `json:"follower_count"`
	FollowingCount    int      `json:"following_count"`
	ActiveStatus      string   `json:"active_status,omitempty"`
	PowerBadge        bool     `json:"power_badge"`
	VerifiedAddresses []string `json:"verified_addresses,omitempty"`
}

// InboxProfile is the directory-held profile for an inbox or address:
// message-history display fields plus any linked identities.
type InboxProfile struct {
	DisplayName    string     `json:"display_name,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	PrimaryAddress string     `json:"primary_address,omitempty"`
	Addresses      []string   `json:"addresses,omitempty"`
	Identities     []Identity `json:"identities,omitempty"`
}

// InboxState is the directory's current view of the identifiers linked to
// one inbox.
type InboxState struct {
	InboxID     string     `json:"inbox_id"`
	Identifiers []Identity `json:"identifiers"`
}
