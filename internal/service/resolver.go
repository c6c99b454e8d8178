package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/nametag-labs/nametag/internal/domain"
	"github.com/nametag-labs/nametag/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrNoUsableAddress is fatal: no Ethereum address could be found
	// after merging every source. Nothing is persisted.
	ErrNoUsableAddress = errors.New("unable to determine a valid address for this contact")
	// ErrNoCanonicalInbox is fatal only when there is no prior inbox id
	// to fall back to.
	ErrNoCanonicalInbox = errors.New("unable to determine a canonical inbox for this contact")
	// ErrUnresolvableIdentifier is returned when the input string is
	// neither an address, an inbox id, nor a resolvable name.
	ErrUnresolvableIdentifier = errors.New("identifier cannot be resolved to a contact")
)

// Resolver runs resolution passes: it gathers signals from the social
// graph, the name service, and the inbox directory, merges them into one
// canonical contact record, retires duplicates, and propagates the result
// to open conversations.
type Resolver struct {
	contacts      domain.ContactStore
	conversations domain.ConversationStore
	names         domain.NameServiceClient
	social        domain.SocialGraphClient
	directory     domain.InboxDirectoryClient
	profiles      domain.InboxProfileClient
	metrics       *Metrics
	logger        *zap.Logger
}

func NewResolver(
	cs domain.ContactStore,
	vs domain.ConversationStore,
	ns domain.NameServiceClient,
	sg domain.SocialGraphClient,
	dir domain.InboxDirectoryClient,
	prof domain.InboxProfileClient,
	metrics *Metrics,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		contacts:      cs,
		conversations: vs,
		names:         ns,
		social:        sg,
		directory:     dir,
		profiles:      prof,
		metrics:       metrics,
		logger:        logger,
	}
}

// passInput carries everything a pass starts from. Every field except one
// of preInboxID/seedAddrs may be empty.
type passInput struct {
	contact    *domain.Contact
	conv       *domain.Conversation
	preInboxID string
	seedAddrs  []string
	ensName    string
	ensAddress string
}

// Resolve runs one resolution pass for the contact currently known under
// inboxID. The contact may not exist yet; the pass will then try to build
// it from the directory's view of that inbox.
func (r *Resolver) Resolve(ctx context.Context, inboxID string) (*domain.Contact, error) {
	inboxID = strings.ToLower(strings.TrimSpace(inboxID))

	contact, err := r.lookupContact(ctx, inboxID)
	if err != nil {
		return nil, err
	}

	return r.run(ctx, passInput{
		contact:    contact,
		conv:       r.matchingConversation(ctx, inboxID),
		preInboxID: inboxID,
	})
}

// ResolveIdentifier runs a pass starting from a raw identifier: an Ethereum
// address (with or without prefix), an inbox id, or a resolvable name.
func (r *Resolver) ResolveIdentifier(ctx context.Context, raw string) (*domain.Contact, error) {
	raw = strings.TrimSpace(raw)

	switch Classify(raw) {
	case ClassEthereumAddress, ClassRawHex40:
		return r.resolveFromAddress(ctx, NormalizeIdentifier(raw), "")

	case ClassInboxIDLike:
		return r.Resolve(ctx, raw)

	default:
		// Dotted strings are name-shaped: try a forward resolution.
		// Everything else has no usable signal.
		if !strings.Contains(raw, ".") {
			return nil, ErrUnresolvableIdentifier
		}
		name := strings.ToLower(raw)
		addr, err := r.names.ForwardResolve(ctx, name)
		if err != nil {
			r.sourceFailed("nameservice", "forward resolve", err)
			return nil, ErrNoUsableAddress
		}
		if addr == "" || !IsEthereumAddress(addr) {
			return nil, ErrNoUsableAddress
		}
		return r.resolveFromAddress(ctx, NormalizeIdentifier(addr), name)
	}
}

func (r *Resolver) resolveFromAddress(ctx context.Context, addr, ensName string) (*domain.Contact, error) {
	in := passInput{seedAddrs: []string{addr}, ensName: ensName}
	if ensName != "" {
		in.ensAddress = addr
	}

	contact, err := r.contacts.GetByAddress(ctx, addr)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if contact != nil {
		in.contact = contact
		in.preInboxID = contact.InboxID
		in.conv = r.matchingConversation(ctx, contact.InboxID)
	}
	return r.run(ctx, in)
}

// run is one resolution pass: raw signals → normalized sets → merged
// identity → canonical inbox → conflict check → persisted contact →
// propagated conversation updates. Per-source failures degrade the pass;
// only the canonical-address and canonical-inbox determinations are fatal.
func (r *Resolver) run(ctx context.Context, in passInput) (*domain.Contact, error) {
	updated, err := r.runPass(ctx, in)
	if r.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		r.metrics.Passes.WithLabelValues(result).Inc()
	}
	return updated, err
}

func (r *Resolver) runPass(ctx context.Context, in passInput) (*domain.Contact, error) {
	w := newWorkingIdentity(in.contact, in.conv)
	for _, s := range in.seedAddrs {
		w.addIdentifier(s)
	}
	if in.ensName != "" {
		w.ingestENSName(in.ensName)
		w.forwardResolved = NormalizeIdentifier(in.ensAddress)
	}

	// A bare inbox id brings no addresses of its own; ask the directory
	// which identifiers it has linked before the source cascade runs.
	if w.eth.First() == "" && in.preInboxID != "" {
		states, err := r.directory.InboxStates(ctx, []string{in.preInboxID})
		if err != nil {
			r.sourceFailed("directory", "inbox state", err)
		} else {
			for _, s := range states {
				for _, id := range s.Identifiers {
					w.ingestIdentity(id)
				}
			}
		}
	}

	// Sources are evaluated in priority order so higher-ranked results
	// are merged before lower-ranked ones.
	r.applySocialGraph(ctx, in.contact, w)
	r.applyNameService(ctx, w)

	primary := r.primaryAddress(in.contact, w)
	if primary == "" {
		return nil, ErrNoUsableAddress
	}

	canonical, directoryUp := r.canonicalInbox(ctx, primary)
	if canonical == "" {
		if in.preInboxID == "" {
			return nil, ErrNoCanonicalInbox
		}
		canonical = in.preInboxID
	}

	// A pass entered by bare address has no prior identity to supersede;
	// a row already stored under the canonical inbox is this same contact
	// seen earlier, not a duplicate, so merge it instead of replacing it.
	existing := in.contact
	if existing == nil && (in.preInboxID == "" || strings.EqualFold(in.preInboxID, canonical)) {
		prior, err := r.lookupContact(ctx, canonical)
		if err == nil && prior != nil {
			w.adoptContact(prior)
			existing = prior
		}
	}

	// Profile fetches: the pre-resolution inbox first for message-history
	// fields, then the canonical inbox so equal-rank ties favor the
	// identity the contact is converging on.
	if directoryUp {
		if in.preInboxID != "" {
			w.ingestInboxProfile(r.fetchProfile(ctx, in.preInboxID), RankInboxDirectory)
		}
		if canonical != in.preInboxID {
			w.ingestInboxProfile(r.fetchProfile(ctx, canonical), RankInboxDirectory)
		}
	}

	updated := buildContact(existing, canonical, primary, w)

	r.retireConflict(ctx, in.preInboxID, canonical)

	if err := r.contacts.Upsert(ctx, updated); err != nil {
		return nil, fmt.Errorf("persist contact: %w", err)
	}

	// The record moved to a new canonical inbox; the row under the old
	// id is now stale.
	if in.preInboxID != "" && in.preInboxID != canonical {
		if err := r.contacts.Remove(ctx, in.preInboxID); err != nil && !errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("failed to remove stale contact row",
				zap.String("inbox_id", in.preInboxID), zap.Error(err))
		}
	}

	r.propagate(ctx, existing, in.preInboxID, updated)
	r.refreshIdentities(ctx, updated)

	return updated, nil
}

func (r *Resolver) applySocialGraph(ctx context.Context, contact *domain.Contact, w *workingIdentity) {
	addr := firstNonEmpty(
		func() string {
			if contact != nil {
				return NormalizeIdentifier(contact.PrimaryAddress)
			}
			return ""
		},
		w.eth.First,
	)

	var (
		profile *domain.SocialProfile
		err     error
	)
	switch {
	case addr != "":
		profile, err = r.social.ProfileByVerifiedAddress(ctx, addr)
	case contact != nil && contact.Username != "":
		profile, err = r.social.ProfileByHandleOrID(ctx, contact.Username)
	default:
		return
	}
	if err != nil {
		r.sourceFailed("socialgraph", "profile lookup", err)
		return
	}
	w.ingestSocialProfile(profile)
}

func (r *Resolver) applyNameService(ctx context.Context, w *workingIdentity) {
	// Skip the reverse lookup when an ENS identity is already known;
	// only a profile source updates it then.
	if w.ens == nil {
		addr := w.eth.First()
		if addr == "" {
			return
		}
		name, err := r.names.ReverseResolve(ctx, addr)
		if err != nil {
			r.sourceFailed("nameservice", "reverse resolve", err)
		} else {
			w.ingestENSName(name)
		}
	}

	if w.ens == nil || w.forwardResolved != "" {
		return
	}
	addr, err := r.names.ForwardResolve(ctx, w.ens.Identifier)
	if err != nil {
		r.sourceFailed("nameservice", "forward resolve", err)
		return
	}
	if addr != "" && IsEthereumAddress(addr) {
		w.forwardResolved = NormalizeIdentifier(addr)
		w.addIdentifier(addr)
	}
}

// primaryAddress applies the canonical cascade: forward-resolved address,
// then the contact's existing primary, then the first Ethereum address it
// already knew, then the first discovered this pass.
func (r *Resolver) primaryAddress(contact *domain.Contact, w *workingIdentity) string {
	return firstNonEmpty(
		func() string { return w.forwardResolved },
		func() string {
			if contact != nil {
				return NormalizeIdentifier(contact.PrimaryAddress)
			}
			return ""
		},
		func() string {
			if contact == nil {
				return ""
			}
			for _, a := range contact.Addresses {
				if IsEthereumAddress(a) {
					return NormalizeIdentifier(a)
				}
			}
			return ""
		},
		w.eth.First,
	)
}

// canonicalInbox resolves the inbox id for the primary address. A lookup
// failure is "no canonical inbox found yet", not fatal; the second return
// reports whether the directory answered at all.
func (r *Resolver) canonicalInbox(ctx context.Context, primary string) (string, bool) {
	inboxID, err := r.directory.ResolveInboxID(ctx, primary)
	if err != nil {
		r.sourceFailed("directory", "inbox lookup", err)
		return "", false
	}
	return strings.ToLower(inboxID), true
}

func (r *Resolver) fetchProfile(ctx context.Context, inboxID string) *domain.InboxProfile {
	profile, err := r.profiles.FetchProfile(ctx, inboxID)
	if err != nil {
		r.sourceFailed("directory", "profile fetch", err)
		return nil
	}
	return profile
}

// retireConflict removes any other contact already holding the canonical
// inbox id. Best effort: failure is logged, never fatal.
func (r *Resolver) retireConflict(ctx context.Context, preInboxID, canonical string) {
	if preInboxID == "" || strings.EqualFold(preInboxID, canonical) {
		return
	}
	other, err := r.contacts.GetByInboxID(ctx, canonical)
	if err != nil || other == nil {
		return
	}

	r.logger.Info("retiring duplicate contact",
		zap.String("inbox_id", canonical),
		zap.String("superseded_by", preInboxID))
	if err := r.contacts.Remove(ctx, canonical); err != nil {
		r.logger.Warn("conflict retirement failed",
			zap.String("inbox_id", canonical), zap.Error(err))
		return
	}
	if r.metrics != nil {
		r.metrics.ConflictsRetired.Inc()
	}
}

// refreshIdentities is the post-resolution refresh stage: one more
// directory state fetch for the canonical inbox, persisting only when it
// surfaced identifiers the primary pass missed.
func (r *Resolver) refreshIdentities(ctx context.Context, contact *domain.Contact) {
	states, err := r.directory.InboxStates(ctx, []string{contact.InboxID})
	if err != nil {
		r.sourceFailed("directory", "identity refresh", err)
		return
	}

	w := newWorkingIdentity(contact, nil)
	for _, s := range states {
		if !strings.EqualFold(s.InboxID, contact.InboxID) {
			continue
		}
		for _, id := range s.Identifiers {
			w.ingestIdentity(id)
		}
	}

	addresses := w.finalAddresses(contact.PrimaryAddress)
	identities := w.finalIdentities(contact.PrimaryAddress)
	if reflect.DeepEqual(addresses, contact.Addresses) && reflect.DeepEqual(identities, contact.Identities) {
		return
	}

	contact.Addresses = addresses
	contact.Identities = identities
	if err := r.contacts.Upsert(ctx, contact); err != nil {
		r.logger.Warn("identity refresh persist failed",
			zap.String("inbox_id", contact.InboxID), zap.Error(err))
	}
}

func buildContact(existing *domain.Contact, canonical, primary string, w *workingIdentity) *domain.Contact {
	c := &domain.Contact{
		InboxID:        strings.ToLower(canonical),
		PrimaryAddress: primary,
		Addresses:      w.finalAddresses(primary),
		Identities:     w.finalIdentities(primary),
		Name:           w.name.value,
		Avatar:         w.avatar.value,
	}

	// Merge, not replace: user overrides and prior enrichment survive
	// when this pass learned nothing new for them.
	if existing != nil {
		c.PreferredName = existing.PreferredName
		c.PreferredAvatar = existing.PreferredAvatar
		c.CreatedAt = existing.CreatedAt
	}

	if w.social != nil {
		c.Username = w.social.Username
		c.FarcasterID = w.social.FID
		c.Score = w.social.Score
		c.FollowerCount = w.social.FollowerCount
		c.FollowingCount = w.social.FollowingCount
		c.ActiveStatus = w.social.ActiveStatus
		c.PowerBadge = w.social.PowerBadge
	} else if existing != nil {
		c.Username = existing.Username
		c.FarcasterID = existing.FarcasterID
		c.Score = existing.Score
		c.FollowerCount = existing.FollowerCount
		c.FollowingCount = existing.FollowingCount
		c.ActiveStatus = existing.ActiveStatus
		c.PowerBadge = existing.PowerBadge
	}

	return c
}

func (r *Resolver) lookupContact(ctx context.Context, inboxID string) (*domain.Contact, error) {
	contact, err := r.contacts.GetByInboxID(ctx, inboxID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return contact, nil
}

// matchingConversation returns the most recent open, non-group thread whose
// peer id matches, or nil.
func (r *Resolver) matchingConversation(ctx context.Context, peerID string) *domain.Conversation {
	if peerID == "" {
		return nil
	}
	convs, err := r.conversations.ListByPeerCandidates(ctx, []string{peerID})
	if err != nil {
		r.logger.Warn("conversation lookup failed", zap.String("peer_id", peerID), zap.Error(err))
		return nil
	}
	for i := range convs {
		if !convs[i].IsGroup && convs[i].Open {
			return &convs[i]
		}
	}
	return nil
}

func (r *Resolver) sourceFailed(source, op string, err error) {
	r.logger.Warn("source lookup failed, continuing with degraded data",
		zap.String("source", source),
		zap.String("op", op),
		zap.Error(err))
	if r.metrics != nil {
		r.metrics.SourceFailures.WithLabelValues(source).Inc()
	}
}
