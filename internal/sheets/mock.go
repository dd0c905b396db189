package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/fraudwatch/internal/history"
)

// MockWriter is a mock implementation of HistoryWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, username string, table history.Table) (*Result, error)
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error    error
	Username string
	Table    history.Table
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// Write implements the HistoryWriter interface.
func (m *MockWriter) Write(ctx context.Context, username string, table history.Table) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++

	result := &Result{SpreadsheetID: "mock-spreadsheet", SheetTitle: SheetTitle(username), Rows: table.Len()}
	var err error
	if m.WriteFunc != nil {
		result, err = m.WriteFunc(ctx, username, table)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{
		Username: username,
		Table:    table,
		Error:    err,
	})

	return result, err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to return an error on every Write call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, string, history.Table) (*Result, error) {
		return nil, err
	}
}
