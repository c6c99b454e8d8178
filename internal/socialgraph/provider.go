package socialgraph

import (
	"fmt"

	"github.com/nametag-labs/nametag/internal/domain"
	"go.uber.org/zap"
)

// Provider constants
const (
	ProviderNeynar = "neynar"
	ProviderMock   = "mock"
)

// NewClient creates a social-graph client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty
// (except for mock).
func NewClient(provider, apiKey string, rps float64, logger *zap.Logger) (domain.SocialGraphClient, error) {
	switch provider {
	case ProviderNeynar:
		if apiKey == "" {
			return nil, fmt.Errorf("NEYNAR_API_KEY is required for Neynar provider")
		}
		return NewNeynarClient(apiKey, rps, logger), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown social-graph provider: %s (valid options: neynar, mock)", provider)
	}
}
