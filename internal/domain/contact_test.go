package domain

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		want    string
	}{
		{"preferred wins", Contact{Name: "system", PreferredName: "override"}, "override"},
		{"falls back to system name", Contact{Name: "system"}, "system"},
		{"both empty", Contact{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.contact.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayAvatar(t *testing.T) {
	c := Contact{Avatar: "system.png", PreferredAvatar: "mine.png"}
	if got := c.DisplayAvatar(); got != "mine.png" {
		t.Errorf("DisplayAvatar() = %q, want the override", got)
	}

	c.PreferredAvatar = ""
	if got := c.DisplayAvatar(); got != "system.png" {
		t.Errorf("DisplayAvatar() = %q, want the system avatar", got)
	}
}

func TestIdentityKey(t *testing.T) {
	a := Identity{Identifier: "alice_fc", Kind: IdentityKindFarcaster}
	b := Identity{Identifier: "Alice_FC", Kind: IdentityKindFarcaster, IsPrimary: true}
	c := Identity{Identifier: "alice_fc", Kind: IdentityKindPasskey}

	if a.Key() != b.Key() {
		t.Error("case-differing spellings should share a key")
	}
	if a.Key() == c.Key() {
		t.Error("different kinds must not share a key")
	}
}

func TestENSIdentity(t *testing.T) {
	c := Contact{
		Identities: []Identity{
			{Identifier: "0xabc", Kind: IdentityKindEthereum},
			{Identifier: "alice.eth", Kind: IdentityKindENS},
		},
	}
	ens := c.ENSIdentity()
	if ens == nil || ens.Identifier != "alice.eth" {
		t.Fatalf("ENSIdentity() = %+v, want alice.eth", ens)
	}

	none := Contact{}
	if none.ENSIdentity() != nil {
		t.Error("contact without ENS should return nil")
	}
}

func TestHasAddress(t *testing.T) {
	c := Contact{Addresses: []string{"0xAbCd", "passkey-1"}}

	if !c.HasAddress("0xabcd") {
		t.Error("address match should be case-insensitive")
	}
	if !c.HasAddress("passkey-1") {
		t.Error("non-ethereum identifier should match")
	}
	if c.HasAddress("0xother") {
		t.Error("unknown address should not match")
	}
}

func TestConversationUpdateEmpty(t *testing.T) {
	if !(ConversationUpdate{}).Empty() {
		t.Error("zero update should be empty")
	}
	name := "x"
	if (ConversationUpdate{DisplayName: &name}).Empty() {
		t.Error("update with a field should not be empty")
	}
}
