package service

import (
	"strings"

	"github.com/nametag-labs/nametag/internal/domain"
)

// workingIdentity accumulates one pass's view of a counterparty: the union
// of all discovered addresses and identities plus the current best display
// fields. It is a scratch value; nothing is persisted until the pass
// finishes.
type workingIdentity struct {
	eth   *addressSet
	other *addressSet

	// Non-Ethereum, non-ENS identities keyed by kind::identifier,
	// insertion-ordered. The ENS identity is a singleton tracked apart.
	identities map[string]domain.Identity
	identOrder []string
	ens        *domain.Identity

	name   rankedValue
	avatar rankedValue

	social          *domain.SocialProfile
	forwardResolved string
}

func newWorkingIdentity(contact *domain.Contact, conv *domain.Conversation) *workingIdentity {
	w := &workingIdentity{
		eth:        newAddressSet(),
		other:      newAddressSet(),
		identities: make(map[string]domain.Identity),
	}

	if contact != nil {
		for _, addr := range contact.Addresses {
			w.addIdentifier(addr)
		}
		if contact.PrimaryAddress != "" {
			w.addIdentifier(contact.PrimaryAddress)
		}
		for _, id := range contact.Identities {
			w.ingestIdentity(id)
		}
	}

	// Seed the display accumulators from what is already known, at the
	// rank its attribution implies, so a pass with no new data cannot
	// downgrade the display fields.
	seed := seedRank(contact)
	if contact != nil && contact.Name != "" {
		w.name = rankedValue{value: contact.Name, rank: seed}
	} else if conv != nil && conv.DisplayName != "" {
		w.name = rankedValue{value: conv.DisplayName, rank: RankMessageHistory}
	}
	if contact != nil && contact.Avatar != "" {
		w.avatar = rankedValue{value: contact.Avatar, rank: seed}
	} else if conv != nil && conv.DisplayAvatar != "" {
		w.avatar = rankedValue{value: conv.DisplayAvatar, rank: RankMessageHistory}
	}

	return w
}

// seedRank infers the rank of a contact's current display fields from its
// identity context: social enrichment implies the social-graph tier, an ENS
// identity the name-service tier, anything else the lowest tier.
func seedRank(contact *domain.Contact) SourceRank {
	switch {
	case contact == nil:
		return RankMessageHistory
	case contact.Username != "":
		return RankSocialGraph
	case contact.ENSIdentity() != nil:
		return RankNameService
	default:
		return RankMessageHistory
	}
}

// addIdentifier classifies and files one raw identifier into the Ethereum
// or non-Ethereum set.
func (w *workingIdentity) addIdentifier(value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if IsEthereumAddress(value) {
		w.eth.Add(value)
		return
	}
	w.other.Add(value)
}

// ingestIdentity merges one identity into the working record. Ethereum
// identities feed the address set, the ENS identity is a last-write-wins
// singleton, and everything else dedups by kind::identifier with a shallow
// merge so a newer entry cannot erase a primary flag it omitted.
func (w *workingIdentity) ingestIdentity(id domain.Identity) {
	if id.Identifier == "" {
		return
	}
	switch id.Kind {
	case domain.IdentityKindEthereum:
		w.eth.Add(id.Identifier)
	case domain.IdentityKindENS:
		w.ens = &id
	default:
		key := id.Key()
		if existing, ok := w.identities[key]; ok {
			id.IsPrimary = id.IsPrimary || existing.IsPrimary
		} else {
			w.identOrder = append(w.identOrder, key)
		}
		w.identities[key] = id
	}
}

// ingestENSName records a freshly resolved ENS name as the singleton ENS
// identity and offers it as a display-name candidate.
func (w *workingIdentity) ingestENSName(name string) {
	if name == "" {
		return
	}
	w.ens = &domain.Identity{Identifier: name, Kind: domain.IdentityKindENS}
	w.name = w.name.apply(name, RankNameService)
}

// ingestSocialProfile applies a social-graph lookup: enrichment fields are
// taken wholesale, display fields compete at the social-graph rank, and
// verified addresses join the address set.
func (w *workingIdentity) ingestSocialProfile(p *domain.SocialProfile) {
	if p == nil {
		return
	}
	w.social = p

	w.name = w.name.apply(firstNonEmpty(
		func() string { return p.DisplayName },
		func() string { return p.Username },
	), RankSocialGraph)
	w.avatar = w.avatar.apply(p.AvatarURL, RankSocialGraph)

	for _, addr := range p.VerifiedAddresses {
		w.addIdentifier(addr)
	}
	if p.Username != "" {
		w.ingestIdentity(domain.Identity{
			Identifier: p.Username,
			Kind:       domain.IdentityKindFarcaster,
		})
	}
}

// adoptContact folds a previously stored record into the working identity
// after the canonical inbox turned out to already hold one. Addresses and
// identities union in; display fields only fill gaps, so nothing this pass
// discovered is displaced and nothing previously persisted is lost.
func (w *workingIdentity) adoptContact(c *domain.Contact) {
	if c == nil {
		return
	}

	for _, addr := range c.Addresses {
		w.addIdentifier(addr)
	}
	if c.PrimaryAddress != "" {
		w.addIdentifier(c.PrimaryAddress)
	}
	for _, id := range c.Identities {
		// A freshly resolved ENS name outranks the stored one.
		if id.Kind == domain.IdentityKindENS && w.ens != nil {
			continue
		}
		w.ingestIdentity(id)
	}

	if w.name.value == "" && c.Name != "" {
		w.name = rankedValue{value: c.Name, rank: seedRank(c)}
	}
	if w.avatar.value == "" && c.Avatar != "" {
		w.avatar = rankedValue{value: c.Avatar, rank: seedRank(c)}
	}
}

// ingestInboxProfile applies a directory profile at the given rank. The
// caller ingests the canonical inbox's profile after the pre-resolution one
// so equal-rank ties resolve in the canonical profile's favor.
func (w *workingIdentity) ingestInboxProfile(p *domain.InboxProfile, rank SourceRank) {
	if p == nil {
		return
	}

	w.name = w.name.apply(p.DisplayName, rank)
	w.avatar = w.avatar.apply(p.AvatarURL, rank)

	if p.PrimaryAddress != "" {
		w.addIdentifier(p.PrimaryAddress)
	}
	for _, addr := range p.Addresses {
		w.addIdentifier(addr)
	}
	for _, id := range p.Identities {
		w.ingestIdentity(id)
	}
}

// finalAddresses returns the pass's ordered address list: Ethereum
// addresses with the primary sorted first, then non-Ethereum identifiers in
// discovery order.
func (w *workingIdentity) finalAddresses(primary string) []string {
	out := append([]string{}, w.eth.ValuesPrimaryFirst(primary)...)
	return append(out, w.other.Values()...)
}

// finalIdentities returns one Ethereum entry per address (primary flagged),
// the ENS singleton if any, then the remaining identities in insertion
// order.
func (w *workingIdentity) finalIdentities(primary string) []domain.Identity {
	primary = NormalizeIdentifier(primary)

	var out []domain.Identity
	for _, addr := range w.eth.ValuesPrimaryFirst(primary) {
		out = append(out, domain.Identity{
			Identifier: addr,
			Kind:       domain.IdentityKindEthereum,
			IsPrimary:  addr == primary,
		})
	}
	if w.ens != nil {
		out = append(out, *w.ens)
	}
	for _, key := range w.identOrder {
		out = append(out, w.identities[key])
	}
	return out
}
