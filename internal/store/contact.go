package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nametag-labs/nametag/internal/domain"
)

type ContactStore struct {
	db *pgxpool.Pool
}

func NewContactStore(db *pgxpool.Pool) *ContactStore {
	return &ContactStore{db: db}
}

const contactColumns = `inbox_id, primary_address, addresses, identities,
	name, preferred_name, avatar, preferred_avatar,
	username, farcaster_id, score, follower_count, following_count,
	active_status, power_badge, created_at, updated_at`

func (s *ContactStore) GetByInboxID(ctx context.Context, inboxID string) (*domain.Contact, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE inbox_id = $1`,
		strings.ToLower(inboxID),
	)
	return scanContact(row)
}

func (s *ContactStore) GetByAddress(ctx context.Context, address string) (*domain.Contact, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE $1 = ANY(addresses)`,
		strings.ToLower(address),
	)
	return scanContact(row)
}

func (s *ContactStore) Upsert(ctx context.Context, c *domain.Contact) error {
	c.InboxID = strings.ToLower(c.InboxID)

	identities, err := json.Marshal(c.Identities)
	if err != nil {
		return fmt.Errorf("marshal identities: %w", err)
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO contacts (inbox_id, primary_address, addresses, identities,
			name, preferred_name, avatar, preferred_avatar,
			username, farcaster_id, score, follower_count, following_count,
			active_status, power_badge)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (inbox_id) DO UPDATE SET
			primary_address = EXCLUDED.primary_address,
			addresses = EXCLUDED.addresses,
			identities = EXCLUDED.identities,
			name = EXCLUDED.name,
			preferred_name = EXCLUDED.preferred_name,
			avatar = EXCLUDED.avatar,
			preferred_avatar = EXCLUDED.preferred_avatar,
			username = EXCLUDED.username,
			farcaster_id = EXCLUDED.farcaster_id,
			score = EXCLUDED.score,
			follower_count = EXCLUDED.follower_count,
			following_count = EXCLUDED.following_count,
			active_status = EXCLUDED.active_status,
			power_badge = EXCLUDED.power_badge,
			updated_at = NOW()
		 RETURNING created_at, updated_at`,
		c.InboxID, c.PrimaryAddress, c.Addresses, identities,
		c.Name, c.PreferredName, c.Avatar, c.PreferredAvatar,
		c.Username, c.FarcasterID, c.Score, c.FollowerCount, c.FollowingCount,
		c.ActiveStatus, c.PowerBadge,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (s *ContactStore) Remove(ctx context.Context, inboxID string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM contacts WHERE inbox_id = $1`,
		strings.ToLower(inboxID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ContactStore) ListAll(ctx context.Context) ([]domain.Contact, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	c := &domain.Contact{}
	var identities []byte
	err := row.Scan(
		&c.InboxID, &c.PrimaryAddress, &c.Addresses, &identities,
		&c.Name, &c.PreferredName, &c.Avatar, &c.PreferredAvatar,
		&c.Username, &c.FarcasterID, &c.Score, &c.FollowerCount, &c.FollowingCount,
		&c.ActiveStatus, &c.PowerBadge, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(identities) > 0 {
		if err := json.Unmarshal(identities, &c.Identities); err != nil {
			return nil, fmt.Errorf("unmarshal identities: %w", err)
		}
	}
	return c, nil
}
