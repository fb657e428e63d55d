package mocks

import (
	"context"
	"sync"
)

// MockExecutor records shell commands and answers with a fixed result
type MockExecutor struct {
	mu       sync.Mutex
	commands []string
	stdout   string
	stderr   string
	err      error
}

// NewMockExecutor creates a MockExecutor that prints stdout for every command
func NewMockExecutor(stdout string) *MockExecutor {
	return &MockExecutor{stdout: stdout}
}

// Run records command and returns the configured result
func (m *MockExecutor) Run(_ context.Context, command string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, command)
	return m.stdout, m.stderr, m.err
}

// SetResult changes what subsequent commands return
func (m *MockExecutor) SetResult(stdout, stderr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stdout, m.stderr, m.err = stdout, stderr, err
}

// Commands returns every command run so far
func (m *MockExecutor) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}
