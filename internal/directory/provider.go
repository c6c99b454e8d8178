package directory

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider constants
const (
	ProviderXMTP = "xmtp"
	ProviderMock = "mock"
)

// NewClient creates an inbox-directory client based on the provider name.
// The XMTP client serves both the directory and profile contracts.
func NewClient(provider, baseURL string, logger *zap.Logger) (Client, error) {
	switch provider {
	case ProviderXMTP:
		if baseURL == "" {
			return nil, fmt.Errorf("DIRECTORY_URL is required for XMTP provider")
		}
		return NewXMTPClient(baseURL, logger), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown directory provider: %s (valid options: xmtp, mock)", provider)
	}
}
