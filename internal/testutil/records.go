// Package testutil provides in-memory doubles for the storage and
// profile dependencies, so player and monitor tests run without SQLite
// or a network.
package testutil

import (
	"sync"

	"github.com/tfwatch/tfwatch/internal/store"
)

// MemoryRecords is an in-memory store.Records.
//
// Thread-safe. Put stores a shallow copy so later mutation of the
// caller's record does not leak into the store, matching the
// round-trip behavior of the SQLite implementation.
type MemoryRecords struct {
	mu      sync.Mutex
	players map[string]store.Player

	// FailGet and FailPut, when set, are returned from the respective
	// method to exercise error paths.
	FailGet error
	FailPut error

	puts int
}

// NewMemoryRecords creates an empty in-memory record store.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{players: make(map[string]store.Player)}
}

// Get returns the record for steamid, or (nil, nil) when absent.
func (m *MemoryRecords) Get(steamid string) (*store.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet != nil {
		return nil, m.FailGet
	}
	p, ok := m.players[steamid]
	if !ok {
		return nil, nil
	}
	cp := p
	cp.Attrs = append([]store.Attr(nil), p.Attrs...)
	cp.Names = append([]string(nil), p.Names...)
	return &cp, nil
}

// Put stores a copy of the record.
func (m *MemoryRecords) Put(p *store.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != nil {
		return m.FailPut
	}
	cp := *p
	cp.Attrs = append([]store.Attr(nil), p.Attrs...)
	cp.Names = append([]string(nil), p.Names...)
	m.players[p.SteamID] = cp
	m.puts++
	return nil
}

// Puts returns how many times Put has been called.
func (m *MemoryRecords) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Len returns the number of stored records.
func (m *MemoryRecords) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}
