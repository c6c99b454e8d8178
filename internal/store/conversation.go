package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nametag-labs/nametag/internal/domain"
)

type ConversationStore struct {
	db *pgxpool.Pool
}

func NewConversationStore(db *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{db: db}
}

func (s *ConversationStore) ListByPeerCandidates(ctx context.Context, peerIDs []string) ([]domain.Conversation, error) {
	if len(peerIDs) == 0 {
		return nil, nil
	}

	lowered := make([]string, 0, len(peerIDs))
	for _, id := range peerIDs {
		lowered = append(lowered, strings.ToLower(id))
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, peer_id, display_name, display_avatar, is_group, open, created_at, updated_at
		 FROM conversations
		 WHERE LOWER(peer_id) = ANY($1)
		 ORDER BY updated_at DESC`,
		lowered,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.PeerID, &c.DisplayName, &c.DisplayAvatar, &c.IsGroup, &c.Open, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *ConversationStore) Update(ctx context.Context, id uuid.UUID, fields domain.ConversationUpdate) error {
	if fields.Empty() {
		return nil
	}

	var sets []string
	var args []any

	if fields.PeerID != nil {
		sets = append(sets, fmt.Sprintf("peer_id = $%d", len(args)+1))
		args = append(args, *fields.PeerID)
	}
	if fields.DisplayName != nil {
		sets = append(sets, fmt.Sprintf("display_name = $%d", len(args)+1))
		args = append(args, *fields.DisplayName)
	}
	if fields.DisplayAvatar != nil {
		sets = append(sets, fmt.Sprintf("display_avatar = $%d", len(args)+1))
		args = append(args, *fields.DisplayAvatar)
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE conversations SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
