package mocks

import (
	"context"
	"sync"
)

// MockAction counts invocations of a restart step
type MockAction struct {
	mu    sync.Mutex
	calls int
	err   error
}

// NewMockAction creates a MockAction that succeeds
func NewMockAction() *MockAction {
	return &MockAction{}
}

// Run records the call
func (m *MockAction) Run(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

// Fail makes subsequent calls return err; nil restores success
func (m *MockAction) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Run was called
func (m *MockAction) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
