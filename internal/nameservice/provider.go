package nameservice

import (
	"fmt"

	"github.com/nametag-labs/nametag/internal/domain"
	"go.uber.org/zap"
)

// Provider constants
const (
	ProviderENS  = "ens"
	ProviderMock = "mock"
)

// NewClient creates a name-service client based on the provider name.
func NewClient(provider, baseURL string, logger *zap.Logger) (domain.NameServiceClient, error) {
	switch provider {
	case ProviderENS:
		return NewENSClient(baseURL, logger), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown name-service provider: %s (valid options: ens, mock)", provider)
	}
}
