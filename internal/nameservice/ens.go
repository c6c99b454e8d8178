package nameservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nametag-labs/nametag/internal/breaker"
	"go.uber.org/zap"
)

const defaultENSURL = "https://api.ensideas.com"

// ENSClient resolves ENS names through a public resolution REST endpoint.
// The same endpoint handles both directions: given a name it returns the
// bound address, given an address it returns the primary name.
type ENSClient struct {
	baseURL    string
	httpClient *http.Client
	guard      *breaker.Guard
}

func NewENSClient(baseURL string, logger *zap.Logger) *ENSClient {
	if baseURL == "" {
		baseURL = defaultENSURL
	}
	return &ENSClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		guard:      breaker.New("nameservice", logger),
	}
}

type resolveResponse struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

func (c *ENSClient) resolve(ctx context.Context, nameOrAddress string) (*resolveResponse, error) {
	return breaker.Do(c.guard, func() (*resolveResponse, error) {
		endpoint := fmt.Sprintf("%s/ens/resolve/%s", c.baseURL, url.PathEscape(nameOrAddress))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create resolve request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("resolve request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read resolve response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("resolve API returned status %d: %s", resp.StatusCode, string(body))
		}

		var result resolveResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("unmarshal resolve response: %w", err)
		}
		return &result, nil
	})
}

// ForwardResolve returns the address bound to name, or "" when unbound.
func (c *ENSClient) ForwardResolve(ctx context.Context, name string) (string, error) {
	result, err := c.resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return result.Address, nil
}

// ReverseResolve returns the primary name bound to address, or "" when none.
func (c *ENSClient) ReverseResolve(ctx context.Context, address string) (string, error) {
	result, err := c.resolve(ctx, address)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return result.Name, nil
}
