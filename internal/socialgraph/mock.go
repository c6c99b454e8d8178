package socialgraph

import (
	"context"
	"strings"

	"github.com/nametag-labs/nametag/internal/domain"
)

// MockClient is a configurable social-graph client for testing.
// Profiles are keyed by lower-cased handle or address.
type MockClient struct {
	ByHandle  map[string]*domain.SocialProfile
	ByAddress map[string]*domain.SocialProfile
	Err       error

	// Call tracking for assertions
	HandleCalls  []string
	AddressCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		ByHandle:  make(map[string]*domain.SocialProfile),
		ByAddress: make(map[string]*domain.SocialProfile),
	}
}

func (m *MockClient) ProfileByHandleOrID(ctx context.Context, handleOrID string) (*domain.SocialProfile, error) {
	m.HandleCalls = append(m.HandleCalls, handleOrID)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByHandle[strings.ToLower(handleOrID)], nil
}

func (m *MockClient) ProfileByVerifiedAddress(ctx context.Context, address string) (*domain.SocialProfile, error) {
	m.AddressCalls = append(m.AddressCalls, address)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByAddress[strings.ToLower(address)], nil
}
