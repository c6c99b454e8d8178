package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nametag-labs/nametag/internal/breaker"
	"github.com/nametag-labs/nametag/internal/domain"
	"go.uber.org/zap"
)

// Client is the combined inbox-directory and inbox-profile contract. The
// directory owns both concerns upstream, so one client serves both.
type Client interface {
	domain.InboxDirectoryClient
	domain.InboxProfileClient
}

// XMTPClient talks to an XMTP identity gateway over its JSON endpoints.
type XMTPClient struct {
	baseURL    string
	httpClient *http.Client
	guard      *breaker.Guard
}

func NewXMTPClient(baseURL string, logger *zap.Logger) *XMTPClient {
	return &XMTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		guard:      breaker.New("directory", logger),
	}
}

func (c *XMTPClient) post(ctx context.Context, path string, payload, out any) error {
	_, err := breaker.Do(c.guard, func() (struct{}, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return struct{}{}, fmt.Errorf("marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return struct{}{}, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return struct{}{}, fmt.Errorf("directory API returned status %d: %s", resp.StatusCode, string(respBody))
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return struct{}{}, fmt.Errorf("unmarshal response: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

type inboxIDRequest struct {
	Requests []identifierRequest `json:"requests"`
}

type identifierRequest struct {
	Identifier     string `json:"identifier"`
	IdentifierKind string `json:"identifier_kind"`
}

type inboxIDResponse struct {
	Responses []struct {
		Identifier string `json:"identifier"`
		InboxID    string `json:"inbox_id"`
	} `json:"responses"`
}

// ResolveInboxID maps an Ethereum address to its inbox id, or "" when the
// address has no inbox registered yet.
func (c *XMTPClient) ResolveInboxID(ctx context.Context, address string) (string, error) {
	payload := inboxIDRequest{
		Requests: []identifierRequest{{
			Identifier:     strings.ToLower(address),
			IdentifierKind: "IDENTIFIER_KIND_ETHEREUM",
		}},
	}

	var result inboxIDResponse
	if err := c.post(ctx, "/identity/v1/get-inbox-ids", payload, &result); err != nil {
		return "", err
	}

	for _, r := range result.Responses {
		if strings.EqualFold(r.Identifier, address) {
			return strings.ToLower(r.InboxID), nil
		}
	}
	return "", nil
}

type inboxStateRequest struct {
	InboxIDs []string `json:"inbox_ids"`
}

type inboxStateResponse struct {
	States []struct {
		InboxID     string `json:"inbox_id"`
		Identifiers []struct {
			Identifier string `json:"identifier"`
			Kind       string `json:"kind"`
			IsPrimary  bool   `json:"is_primary"`
		} `json:"identifiers"`
	} `json:"states"`
}

// InboxStates returns the identifiers currently linked to each inbox.
func (c *XMTPClient) InboxStates(ctx context.Context, inboxIDs []string) ([]domain.InboxState, error) {
	if len(inboxIDs) == 0 {
		return nil, nil
	}

	var result inboxStateResponse
	if err := c.post(ctx, "/identity/v1/get-inbox-states", inboxStateRequest{InboxIDs: inboxIDs}, &result); err != nil {
		return nil, err
	}

	states := make([]domain.InboxState, 0, len(result.States))
	for _, s := range result.States {
		state := domain.InboxState{InboxID: strings.ToLower(s.InboxID)}
		for _, id := range s.Identifiers {
			state.Identifiers = append(state.Identifiers, domain.Identity{
				Identifier: id.Identifier,
				Kind:       kindFromWire(id.Kind),
				IsPrimary:  id.IsPrimary,
			})
		}
		states = append(states, state)
	}
	return states, nil
}

// FetchProfile returns the directory-held profile for an inbox id or
// address, or nil when none is published.
func (c *XMTPClient) FetchProfile(ctx context.Context, inboxIDOrAddress string) (*domain.InboxProfile, error) {
	var result *domain.InboxProfile
	_, err := breaker.Do(c.guard, func() (struct{}, error) {
		endpoint := fmt.Sprintf("%s/profiles/v1/%s", c.baseURL, url.PathEscape(strings.ToLower(inboxIDOrAddress)))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("create profile request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("profile request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return struct{}{}, fmt.Errorf("read profile response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return struct{}{}, nil
		}
		if resp.StatusCode != http.StatusOK {
			return struct{}{}, fmt.Errorf("profile API returned status %d: %s", resp.StatusCode, string(body))
		}

		var profile domain.InboxProfile
		if err := json.Unmarshal(body, &profile); err != nil {
			return struct{}{}, fmt.Errorf("unmarshal profile response: %w", err)
		}
		result = &profile
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func kindFromWire(kind string) domain.IdentityKind {
	switch kind {
	case "IDENTIFIER_KIND_ETHEREUM":
		return domain.IdentityKindEthereum
	case "IDENTIFIER_KIND_PASSKEY":
		return domain.IdentityKindPasskey
	default:
		return domain.IdentityKind(kind)
	}
}
