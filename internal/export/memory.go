package export

import (
	"context"
	"slices"
	"sync"
)

// MemoryWriter keeps the last table written under each name. It backs the
// worker when no spreadsheet is configured, and tests.
type MemoryWriter struct {
	mu     sync.Mutex
	tables map[string]Table
	writes int
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{tables: make(map[string]Table)}
}

func (m *MemoryWriter) WriteTable(_ context.Context, t Table) error {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = slices.Clone(r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.Name] = Table{Name: t.Name, Header: slices.Clone(t.Header), Rows: rows}
	m.writes++
	return nil
}

// Table returns the last table written under name.
func (m *MemoryWriter) Table(name string) (Table, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	return t, ok
}

// Writes counts WriteTable calls.
func (m *MemoryWriter) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
