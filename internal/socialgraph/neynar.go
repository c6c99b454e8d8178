package socialgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nametag-labs/nametag/internal/breaker"
	"github.com/nametag-labs/nametag/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const neynarBaseURL = "https://api.neynar.com/v2/farcaster"

// NeynarClient looks up Farcaster profiles via the Neynar REST API.
// Outbound calls are rate limited to stay inside the plan's request budget.
type NeynarClient struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	guard      *breaker.Guard
}

func NewNeynarClient(apiKey string, rps float64, logger *zap.Logger) *NeynarClient {
	if rps <= 0 {
		rps = 5
	}
	return &NeynarClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		guard:      breaker.New("socialgraph", logger),
	}
}

type neynarUser struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	PfpURL         string `json:"pfp_url"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	ActiveStatus   string `json:"active_status"`
	PowerBadge     bool   `json:"power_badge"`
	Score          struct {
		Score float32 `json:"score"`
	} `json:"experimental"`
	VerifiedAddresses struct {
		EthAddresses []string `json:"eth_addresses"`
	} `json:"verified_addresses"`
}

func (u *neynarUser) toProfile() *domain.SocialProfile {
	return &domain.SocialProfile{
		Username:          u.Username,
		DisplayName:       u.DisplayName,
		AvatarURL:         u.PfpURL,
		FID:               u.FID,
		Score:             u.Score.Score,
		FollowerCount:     u.FollowerCount,
		FollowingCount:    u.FollowingCount,
		ActiveStatus:      u.ActiveStatus,
		PowerBadge:        u.PowerBadge,
		VerifiedAddresses: u.VerifiedAddresses.EthAddresses,
	}
}

func (c *NeynarClient) get(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	// A 404 is a missing profile, not a source failure; it must not count
	// against the breaker.
	var notFound bool
	_, err := breaker.Do(c.guard, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return struct{}{}, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			notFound = true
			return struct{}{}, nil
		}
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, fmt.Errorf("neynar API returned status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return struct{}{}, fmt.Errorf("unmarshal response: %w", err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}
	if notFound {
		return errProfileNotFound
	}
	return nil
}

var errProfileNotFound = errors.New("profile not found")

// ProfileByHandleOrID looks up a profile by username or numeric id.
func (c *NeynarClient) ProfileByHandleOrID(ctx context.Context, handleOrID string) (*domain.SocialProfile, error) {
	endpoint := fmt.Sprintf("%s/user/by_username?username=%s", neynarBaseURL, url.QueryEscape(handleOrID))

	var result struct {
		User neynarUser `json:"user"`
	}
	if err := c.get(ctx, endpoint, &result); err != nil {
		if errors.Is(err, errProfileNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if result.User.Username == "" {
		return nil, nil
	}
	return result.User.toProfile(), nil
}

// ProfileByVerifiedAddress looks up the profile that has verified the given
// Ethereum address.
func (c *NeynarClient) ProfileByVerifiedAddress(ctx context.Context, address string) (*domain.SocialProfile, error) {
	endpoint := fmt.Sprintf("%s/user/bulk-by-address?addresses=%s", neynarBaseURL, url.QueryEscape(strings.ToLower(address)))

	var result map[string][]neynarUser
	if err := c.get(ctx, endpoint, &result); err != nil {
		if errors.Is(err, errProfileNotFound) {
			return nil, nil
		}
		return nil, err
	}

	users := result[strings.ToLower(address)]
	if len(users) == 0 {
		return nil, nil
	}
	return users[0].toProfile(), nil
}
