package nameservice

import (
	"context"
	"strings"
)

// MockClient is a configurable name-service client for testing.
// Forward and Reverse map names to addresses and back; keys are matched
// case-insensitively.
type MockClient struct {
	Forward      map[string]string
	Reverse      map[string]string
	ForwardError error
	ReverseError error

	// Call tracking for assertions
	ForwardCalls []string
	ReverseCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		Forward: make(map[string]string),
		Reverse: make(map[string]string),
	}
}

func (m *MockClient) ForwardResolve(ctx context.Context, name string) (string, error) {
	m.ForwardCalls = append(m.ForwardCalls, name)
	if m.ForwardError != nil {
		return "", m.ForwardError
	}
	return m.Forward[strings.ToLower(name)], nil
}

func (m *MockClient) ReverseResolve(ctx context.Context, address string) (string, error) {
	m.ReverseCalls = append(m.ReverseCalls, address)
	if m.ReverseError != nil {
		return "", m.ReverseError
	}
	return m.Reverse[strings.ToLower(address)], nil
}
