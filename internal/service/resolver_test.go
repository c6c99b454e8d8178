package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nametag-labs/nametag/internal/directory"
	"github.com/nametag-labs/nametag/internal/domain"
	"github.com/nametag-labs/nametag/internal/nameservice"
	"github.com/nametag-labs/nametag/internal/socialgraph"
	"github.com/nametag-labs/nametag/internal/store"
)

type mockContactStore struct {
	contacts map[string]*domain.Contact
	upserts  int
	removes  []string
}

func newMockContactStore(seed ...*domain.Contact) *mockContactStore {
	s := &mockContactStore{contacts: make(map[string]*domain.Contact)}
	for _, c := range seed {
		cp := *c
		s.contacts[strings.ToLower(c.InboxID)] = &cp
	}
	return s
}

func (s *mockContactStore) GetByInboxID(ctx context.Context, inboxID string) (*domain.Contact, error) {
	c, ok := s.contacts[strings.ToLower(inboxID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *mockContactStore) GetByAddress(ctx context.Context, address string) (*domain.Contact, error) {
	for _, c := range s.contacts {
		if c.HasAddress(address) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockContactStore) Upsert(ctx context.Context, c *domain.Contact) error {
	s.upserts++
	cp := *c
	s.contacts[strings.ToLower(c.InboxID)] = &cp
	return nil
}

func (s *mockContactStore) Remove(ctx context.Context, inboxID string) error {
	key := strings.ToLower(inboxID)
	if _, ok := s.contacts[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.contacts, key)
	s.removes = append(s.removes, key)
	return nil
}

func (s *mockContactStore) ListAll(ctx context.Context) ([]domain.Contact, error) {
	out := make([]domain.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, *c)
	}
	return out, nil
}

type mockConversationStore struct {
	convs   map[uuid.UUID]*domain.Conversation
	updates int
}

func newMockConversationStore(seed ...*domain.Conversation) *mockConversationStore {
	s := &mockConversationStore{convs: make(map[uuid.UUID]*domain.Conversation)}
	for _, c := range seed {
		cp := *c
		s.convs[c.ID] = &cp
	}
	return s
}

func (s *mockConversationStore) ListByPeerCandidates(ctx context.Context, peerIDs []string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for _, c := range s.convs {
		for _, p := range peerIDs {
			if strings.EqualFold(c.PeerID, p) {
				out = append(out, *c)
				break
			}
		}
	}
	return out, nil
}

func (s *mockConversationStore) Update(ctx context.Context, id uuid.UUID, fields domain.ConversationUpdate) error {
	c, ok := s.convs[id]
	if !ok {
		return store.ErrNotFound
	}
	if fields.PeerID != nil {
		c.PeerID = *fields.PeerID
	}
	if fields.DisplayName != nil {
		c.DisplayName = *fields.DisplayName
	}
	if fields.DisplayAvatar != nil {
		c.DisplayAvatar = *fields.DisplayAvatar
	}
	s.updates++
	return nil
}

type resolverFixture struct {
	contacts      *mockContactStore
	conversations *mockConversationStore
	names         *nameservice.MockClient
	social        *socialgraph.MockClient
	directory     *directory.MockClient
	resolver      *Resolver
}

func newResolverFixture(contacts *mockContactStore, conversations *mockConversationStore) *resolverFixture {
	f := &resolverFixture{
		contacts:      contacts,
		conversations: conversations,
		names:         nameservice.NewMockClient(),
		social:        socialgraph.NewMockClient(),
		directory:     directory.NewMockClient(),
	}
	f.resolver = NewResolver(
		f.contacts,
		f.conversations,
		f.names,
		f.social,
		f.directory,
		f.directory,
		NewMetrics(prometheus.NewRegistry()),
		zap.NewNop(),
	)
	return f
}

func TestResolveSocialEnrichment(t *testing.T) {
	addr := "0x" + strings.Repeat("a", 39) + "1"
	convID := uuid.New()

	f := newResolverFixture(
		newMockContactStore(&domain.Contact{
			InboxID:   "alice123456",
			Addresses: []string{addr},
		}),
		newMockConversationStore(&domain.Conversation{
			ID:          convID,
			PeerID:      "alice123456",
			DisplayName: "0xaaa...aa1",
			Open:        true,
		}),
	)
	f.social.ByAddress[addr] = &domain.SocialProfile{
		Username:      "alice_fc",
		FID:           4242,
		Score:         0.91,
		FollowerCount: 120,
	}
	f.directory.InboxByAddress[addr] = "alice123456"

	got, err := f.resolver.Resolve(context.Background(), "alice123456")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.InboxID != "alice123456" {
		t.Errorf("inbox id = %q, want unchanged", got.InboxID)
	}
	if got.Name != "alice_fc" {
		t.Errorf("name = %q, want %q", got.Name, "alice_fc")
	}
	if got.PreferredName != "" {
		t.Errorf("preferred name = %q, want untouched", got.PreferredName)
	}
	if got.Username != "alice_fc" || got.FarcasterID != 4242 {
		t.Errorf("social enrichment missing: %+v", got)
	}
	if got.PrimaryAddress != addr {
		t.Errorf("primary address = %q, want %q", got.PrimaryAddress, addr)
	}

	var eth, fc int
	for _, id := range got.Identities {
		switch id.Kind {
		case domain.IdentityKindEthereum:
			eth++
			if !id.IsPrimary {
				t.Error("ethereum identity should be primary")
			}
		case domain.IdentityKindFarcaster:
			fc++
		case domain.IdentityKindENS:
			t.Error("unexpected ENS identity")
		}
	}
	if eth != 1 || fc != 1 {
		t.Errorf("identities = %+v, want 1 ethereum and 1 farcaster", got.Identities)
	}

	conv := f.conversations.convs[convID]
	if conv.DisplayName != "alice_fc" {
		t.Errorf("conversation display name = %q, want %q", conv.DisplayName, "alice_fc")
	}
	if conv.PeerID != "alice123456" {
		t.Errorf("conversation peer id = %q, want unchanged", conv.PeerID)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	addr := "0x" + strings.Repeat("b", 40)

	f := newResolverFixture(
		newMockContactStore(&domain.Contact{
			InboxID:   "bobinbox12345",
			Addresses: []string{addr},
		}),
		newMockConversationStore(),
	)
	f.social.ByAddress[addr] = &domain.SocialProfile{Username: "bob_fc", DisplayName: "Bob"}
	f.names.Reverse[addr] = "bob.eth"
	f.names.Forward["bob.eth"] = addr
	f.directory.InboxByAddress[addr] = "bobinbox12345"

	first, err := f.resolver.Resolve(context.Background(), "bobinbox12345")
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := f.resolver.Resolve(context.Background(), "bobinbox12345")
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestResolveRetiresConflictingContact(t *testing.T) {
	addrA := "0x" + strings.Repeat("a", 40)
	addrB := "0x" + strings.Repeat("b", 40)

	f := newResolverFixture(
		newMockContactStore(
			&domain.Contact{InboxID: "contactaaaa1111", Addresses: []string{addrA}},
			&domain.Contact{InboxID: "contactbbbb2222", Addresses: []string{addrB}, Name: "Bob"},
		),
		newMockConversationStore(),
	)
	// The directory says addrA really belongs to the inbox the second
	// contact is squatting on.
	f.directory.InboxByAddress[addrA] = "contactbbbb2222"

	got, err := f.resolver.Resolve(context.Background(), "contactaaaa1111")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.InboxID != "contactbbbb2222" {
		t.Errorf("inbox id = %q, want canonical", got.InboxID)
	}
	if len(f.contacts.contacts) != 1 {
		t.Fatalf("expected 1 contact after retirement, got %d", len(f.contacts.contacts))
	}
	final := f.contacts.contacts["contactbbbb2222"]
	if final == nil {
		t.Fatal("canonical contact missing")
	}
	if final.Name == "Bob" {
		t.Error("retired contact's data should not survive")
	}
	if !final.HasAddress(addrA) {
		t.Error("canonical contact should carry the resolving contact's address")
	}
}

func TestResolveNoAddressLeavesStoreUntouched(t *testing.T) {
	f := newResolverFixture(
		newMockContactStore(&domain.Contact{InboxID: "noaddresshere1"}),
		newMockConversationStore(),
	)

	_, err := f.resolver.Resolve(context.Background(), "noaddresshere1")
	if !errors.Is(err, ErrNoUsableAddress) {
		t.Fatalf("expected ErrNoUsableAddress, got %v", err)
	}

	if f.contacts.upserts != 0 {
		t.Errorf("expected no upserts, got %d", f.contacts.upserts)
	}
	if len(f.contacts.removes) != 0 {
		t.Errorf("expected no removes, got %v", f.contacts.removes)
	}
	if f.conversations.updates != 0 {
		t.Errorf("expected no conversation updates, got %d", f.conversations.updates)
	}
}

func TestResolveDirectoryDownFallsBackToKnownInbox(t *testing.T) {
	addr := "0x" + strings.Repeat("c", 40)

	f := newResolverFixture(
		newMockContactStore(&domain.Contact{
			InboxID:   "carolinbox999",
			Addresses: []string{addr},
		}),
		newMockConversationStore(),
	)
	f.directory.ResolveError = errors.New("directory unreachable")
	f.directory.StatesError = errors.New("directory unreachable")

	got, err := f.resolver.Resolve(context.Background(), "carolinbox999")
	if err != nil {
		t.Fatalf("pass should degrade, not fail: %v", err)
	}
	if got.InboxID != "carolinbox999" {
		t.Errorf("inbox id = %q, want prior id kept", got.InboxID)
	}
	if len(f.directory.ProfileCalls) != 0 {
		t.Errorf("no profile fetches expected while the directory is down, got %v", f.directory.ProfileCalls)
	}
	if f.contacts.upserts == 0 {
		t.Error("degraded pass should still persist the contact")
	}
}

func TestResolveUnknownAddressNoCanonicalInbox(t *testing.T) {
	f := newResolverFixture(newMockContactStore(), newMockConversationStore())

	_, err := f.resolver.ResolveIdentifier(context.Background(), "0x"+strings.Repeat("d", 40))
	if !errors.Is(err, ErrNoCanonicalInbox) {
		t.Fatalf("expected ErrNoCanonicalInbox, got %v", err)
	}
	if f.contacts.upserts != 0 {
		t.Errorf("expected no upserts, got %d", f.contacts.upserts)
	}
}

func TestResolveIdentifierName(t *testing.T) {
	addr := "0x" + strings.Repeat("e", 40)

	f := newResolverFixture(newMockContactStore(), newMockConversationStore())
	f.names.Forward["vitalik.eth"] = addr
	f.directory.InboxByAddress[addr] = "vitalikinbox99"

	got, err := f.resolver.ResolveIdentifier(context.Background(), "Vitalik.ETH")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.InboxID != "vitalikinbox99" {
		t.Errorf("inbox id = %q", got.InboxID)
	}
	if got.PrimaryAddress != addr {
		t.Errorf("primary address = %q, want %q", got.PrimaryAddress, addr)
	}
	if got.Name != "vitalik.eth" {
		t.Errorf("name = %q, want the resolved ens name", got.Name)
	}
	ens := got.ENSIdentity()
	if ens == nil || ens.Identifier != "vitalik.eth" {
		t.Errorf("ens identity = %+v", ens)
	}

	// The name already round-tripped; one forward call, no reverse.
	if len(f.names.ForwardCalls) != 1 {
		t.Errorf("forward calls = %v, want exactly one", f.names.ForwardCalls)
	}
	if len(f.names.ReverseCalls) != 0 {
		t.Errorf("reverse calls = %v, want none", f.names.ReverseCalls)
	}
}

func TestResolveSkipsReverseWhenENSKnown(t *testing.T) {
	addr := "0x" + strings.Repeat("f", 40)

	f := newResolverFixture(
		newMockContactStore(&domain.Contact{
			InboxID:   "knowninbox1234",
			Addresses: []string{addr},
			Identities: []domain.Identity{
				{Identifier: "known.eth", Kind: domain.IdentityKindENS},
			},
		}),
		newMockConversationStore(),
	)
	f.names.Forward["known.eth"] = addr
	f.directory.InboxByAddress[addr] = "knowninbox1234"

	if _, err := f.resolver.Resolve(context.Background(), "knowninbox1234"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(f.names.ReverseCalls) != 0 {
		t.Errorf("reverse calls = %v, want none when ens is already known", f.names.ReverseCalls)
	}
	if len(f.names.ForwardCalls) != 1 || f.names.ForwardCalls[0] != "known.eth" {
		t.Errorf("forward calls = %v, want one for the known name", f.names.ForwardCalls)
	}
}

func TestResolveIdentifierUnresolvable(t *testing.T) {
	f := newResolverFixture(newMockContactStore(), newMockConversationStore())

	_, err := f.resolver.ResolveIdentifier(context.Background(), "not a usable id")
	if !errors.Is(err, ErrUnresolvableIdentifier) {
		t.Fatalf("expected ErrUnresolvableIdentifier, got %v", err)
	}
}

func TestResolveCanonicalProfileWinsTie(t *testing.T) {
	addr := "0x" + strings.Repeat("9", 40)

	f := newResolverFixture(
		newMockContactStore(&domain.Contact{
			InboxID:   "preinbox11111",
			Addresses: []string{addr},
		}),
		newMockConversationStore(),
	)
	f.directory.InboxByAddress[addr] = "caninbox22222"
	f.directory.Profiles["preinbox11111"] = &domain.InboxProfile{DisplayName: "Old Display"}
	f.directory.Profiles["caninbox22222"] = &domain.InboxProfile{DisplayName: "New Display"}

	got, err := f.resolver.Resolve(context.Background(), "preinbox11111")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.InboxID != "caninbox22222" {
		t.Errorf("inbox id = %q, want canonical", got.InboxID)
	}
	if got.Name != "New Display" {
		t.Errorf("name = %q, the canonical profile should win the tie", got.Name)
	}
	if _, ok := f.contacts.contacts["preinbox11111"]; ok {
		t.Error("stale row under the old inbox id should be removed")
	}
}

func TestResolveSeedsFromDirectoryStates(t *testing.T) {
	addr := "0x" + strings.Repeat("7", 40)

	// A bare inbox id with no contact row: the directory's linked
	// identifiers are the only address source.
	f := newResolverFixture(newMockContactStore(), newMockConversationStore())
	f.directory.States["freshinbox777"] = domain.InboxState{
		InboxID: "freshinbox777",
		Identifiers: []domain.Identity{
			{Identifier: addr, Kind: domain.IdentityKindEthereum},
		},
	}
	f.directory.InboxByAddress[addr] = "freshinbox777"

	got, err := f.resolver.Resolve(context.Background(), "freshinbox777")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.PrimaryAddress != addr {
		t.Errorf("primary address = %q, want %q", got.PrimaryAddress, addr)
	}
	if got.InboxID != "freshinbox777" {
		t.Errorf("inbox id = %q", got.InboxID)
	}
}

func TestResolveByAddressMergesExistingCanonicalContact(t *testing.T) {
	addrA := "0x" + strings.Repeat("a", 40)
	addrB := "0x" + strings.Repeat("b", 40)

	// The contact is stored under the inbox the new address resolves to,
	// but the new address itself is not on the record yet.
	f := newResolverFixture(
		newMockContactStore(&domain.Contact{
			InboxID:        "targetinbox123",
			PrimaryAddress: addrA,
			Addresses:      []string{addrA},
			Name:           "Old Name",
			PreferredName:  "My Friend",
			Username:       "old_handle",
			FarcasterID:    77,
		}),
		newMockConversationStore(),
	)
	f.directory.InboxByAddress[addrB] = "targetinbox123"

	got, err := f.resolver.ResolveIdentifier(context.Background(), addrB)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got.InboxID != "targetinbox123" {
		t.Errorf("inbox id = %q", got.InboxID)
	}
	if got.PreferredName != "My Friend" {
		t.Errorf("preferred name = %q, want the stored override kept", got.PreferredName)
	}
	if !got.HasAddress(addrA) || !got.HasAddress(addrB) {
		t.Errorf("addresses = %v, want the union of stored and new", got.Addresses)
	}
	if got.Username != "old_handle" || got.FarcasterID != 77 {
		t.Errorf("social enrichment lost: %+v", got)
	}
	if got.Name != "Old Name" {
		t.Errorf("name = %q, want the stored name kept when the pass found none", got.Name)
	}
	if len(f.contacts.contacts) != 1 {
		t.Errorf("expected 1 contact, got %d", len(f.contacts.contacts))
	}
}

func TestResolvePreservesUserOverrides(t *testing.T) {
	addr := "0x" + strings.Repeat("8", 40)

	f := newResolverFixture(
		newMockContactStore(&domain.Contact{
			InboxID:         "overrideinbox1",
			Addresses:       []string{addr},
			PreferredName:   "My Friend",
			PreferredAvatar: "https://img.example/friend.png",
		}),
		newMockConversationStore(),
	)
	f.social.ByAddress[addr] = &domain.SocialProfile{Username: "friend_fc", DisplayName: "Friendo"}
	f.directory.InboxByAddress[addr] = "overrideinbox1"

	got, err := f.resolver.Resolve(context.Background(), "overrideinbox1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.PreferredName != "My Friend" || got.PreferredAvatar != "https://img.example/friend.png" {
		t.Errorf("user overrides must survive resolution: %+v", got)
	}
	if got.Name != "Friendo" {
		t.Errorf("system name = %q, want %q", got.Name, "Friendo")
	}
	if got.DisplayName() != "My Friend" {
		t.Errorf("display name = %q, the override should win", got.DisplayName())
	}
}
