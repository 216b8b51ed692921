package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/finsight/internal/service"
)

// MockWriter is a mock implementation of service.ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, report *service.ChurnReport) error
	LastReport     *service.ChurnReport
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error  error
	Report *service.ChurnReport
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{WriteCalls: make([]WriteCall, 0)}
}

// Write records the call and delegates to WriteFunc when set.
func (m *MockWriter) Write(ctx context.Context, report *service.ChurnReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastReport = report

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, report)
	}
	m.WriteCalls = append(m.WriteCalls, WriteCall{Report: report, Error: err})
	return err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError makes every following Write return err.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, *service.ChurnReport) error {
		return err
	}
}
