package directory

import (
	"context"
	"strings"

	"github.com/nametag-labs/nametag/internal/domain"
)

// MockClient is a configurable directory client for testing. Maps are keyed
// by lower-cased address or inbox id.
type MockClient struct {
	InboxByAddress map[string]string
	States         map[string]domain.InboxState
	Profiles       map[string]*domain.InboxProfile

	ResolveError error
	StatesError  error
	ProfileError error

	// Call tracking for assertions
	ResolveCalls []string
	StatesCalls  [][]string
	ProfileCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		InboxByAddress: make(map[string]string),
		States:         make(map[string]domain.InboxState),
		Profiles:       make(map[string]*domain.InboxProfile),
	}
}

func (m *MockClient) ResolveInboxID(ctx context.Context, address string) (string, error) {
	m.ResolveCalls = append(m.ResolveCalls, address)
	if m.ResolveError != nil {
		return "", m.ResolveError
	}
	return m.InboxByAddress[strings.ToLower(address)], nil
}

func (m *MockClient) InboxStates(ctx context.Context, inboxIDs []string) ([]domain.InboxState, error) {
	m.StatesCalls = append(m.StatesCalls, inboxIDs)
	if m.StatesError != nil {
		return nil, m.StatesError
	}
	var states []domain.InboxState
	for _, id := range inboxIDs {
		if s, ok := m.States[strings.ToLower(id)]; ok {
			states = append(states, s)
		}
	}
	return states, nil
}

func (m *MockClient) FetchProfile(ctx context.Context, inboxIDOrAddress string) (*domain.InboxProfile, error) {
	m.ProfileCalls = append(m.ProfileCalls, inboxIDOrAddress)
	if m.ProfileError != nil {
		return nil, m.ProfileError
	}
	return m.Profiles[strings.ToLower(inboxIDOrAddress)], nil
}
