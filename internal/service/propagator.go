package service

import (
	"context"
	"strings"

	"github.com/nametag-labs/nametag/internal/domain"
	"go.uber.org/zap"
)

// propagate rewrites peer linkage and display fields on open, non-group
// conversations that pointed at the pre-resolution identity. Only
// conversations that actually changed are persisted.
func (r *Resolver) propagate(ctx context.Context, prior *domain.Contact, preInboxID string, updated *domain.Contact) {
	candidates := peerCandidates(prior, preInboxID, updated)
	if len(candidates) == 0 {
		return
	}

	convs, err := r.conversations.ListByPeerCandidates(ctx, candidates)
	if err != nil {
		r.logger.Warn("conversation propagation failed",
			zap.String("inbox_id", updated.InboxID), zap.Error(err))
		return
	}

	name := updated.DisplayName()
	avatar := updated.DisplayAvatar()

	for _, conv := range convs {
		if conv.IsGroup || !conv.Open {
			continue
		}

		var fields domain.ConversationUpdate
		if !strings.EqualFold(conv.PeerID, updated.InboxID) {
			peerID := updated.InboxID
			fields.PeerID = &peerID
		}
		if name != "" && name != conv.DisplayName {
			n := name
			fields.DisplayName = &n
		}
		if avatar != "" && avatar != conv.DisplayAvatar {
			a := avatar
			fields.DisplayAvatar = &a
		}
		if fields.Empty() {
			continue
		}

		if err := r.conversations.Update(ctx, conv.ID, fields); err != nil {
			r.logger.Warn("conversation update failed",
				zap.String("conversation_id", conv.ID.String()), zap.Error(err))
			continue
		}
		if r.metrics != nil {
			r.metrics.ConversationsRewritten.Inc()
		}
	}
}

// peerCandidates is the set of lookup keys that could have referred to the
// pre-resolution identity, lower-cased and deduplicated.
func peerCandidates(prior *domain.Contact, preInboxID string, updated *domain.Contact) []string {
	keys := []string{preInboxID, updated.InboxID, updated.PrimaryAddress}
	if prior != nil {
		keys = append(keys, prior.PrimaryAddress)
		keys = append(keys, prior.Addresses...)
	}

	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
