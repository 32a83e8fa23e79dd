package pos

import (
	"context"
	"sync"

	"github.com/nakanohidekatsu/pos-terminal/internal/catalog"
	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
	"github.com/nakanohidekatsu/pos-terminal/internal/register"
	"github.com/nakanohidekatsu/pos-terminal/internal/scanner"
)

// MockCatalog implements Catalog for testing
type MockCatalog struct {
	mu       sync.Mutex
	Products map[string]domain.Product
	Err      error
	Calls    []string
	BlockOn  map[string]chan struct{} // Lookup waits on the channel for that code
}

func (m *MockCatalog) Lookup(_ context.Context, code string) (domain.Product, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, code)
	block := m.BlockOn[code]
	err := m.Err
	p, ok := m.Products[code]
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return domain.Product{}, err
	}
	if !ok {
		return domain.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (m *MockCatalog) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockRecorder implements Recorder for testing
type MockRecorder struct {
	mu      sync.Mutex
	TrdID   string
	Err     error
	Headers []register.Header
	Lines   [][]domain.CartLine
	Block   chan struct{} // Record waits on it when set
}

func (m *MockRecorder) Record(_ context.Context, header register.Header, lines []domain.CartLine) (string, error) {
	m.mu.Lock()
	m.Headers = append(m.Headers, header)
	copied := make([]domain.CartLine, len(lines))
	copy(copied, lines)
	m.Lines = append(m.Lines, copied)
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.TrdID, nil
}

func (m *MockRecorder) RecordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Headers)
}

// MockScanner implements scanner.Scanner for testing
type MockScanner struct {
	mu       sync.Mutex
	cb       scanner.Callbacks
	active   bool
	StartErr error
	Stopped  int
}

func (m *MockScanner) Start(_ context.Context, cb scanner.Callbacks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.active = true
	m.cb = cb
	return nil
}

func (m *MockScanner) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.Stopped++
	return nil
}

// Decode fires the decode callback as the hardware would.
func (m *MockScanner) Decode(code string) {
	m.mu.Lock()
	cb := m.cb
	m.active = false
	m.mu.Unlock()
	cb.OnDecode(code)
}
