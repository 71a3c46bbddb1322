// Package routing implements the hostname-to-backend lookup table:
// loaded once from a JSON file, queried on every connection, and
// mutated only through the administrative operations below.
package routing

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// ServerEntry is one routable backend: an opaque id used when calling
// the control plane, the set of virtual hostnames that route to it,
// its backend address, and a live player counter mutated by the
// connection handler's hot path.
type ServerEntry struct {
	ID            string   `json:"id"`
	Hostnames     []string `json:"hostnames"`
	BackendServer string   `json:"backend_server"`

	playerCount atomic.Int64
}

// PlayerCount returns the entry's current player count.
func (e *ServerEntry) PlayerCount() int64 {
	return e.playerCount.Load()
}

type serversFile struct {
	Servers []*ServerEntry `json:"servers"`
}

// Table is the ordered collection of ServerEntry, looked up by
// hostname with a linear scan. It is read-only for routing; administrative
// mutations swap the entries slice under a coarse lock.
type Table struct {
	mu      sync.RWMutex
	path    string
	entries []*ServerEntry
}

// Load reads the routing table from the JSON file at path. Player
// counts always initialize to zero on load, per spec.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing table %s: %w", path, err)
	}

	var sf serversFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse routing table %s: %w", path, err)
	}

	for _, e := range sf.Servers {
		if len(e.Hostnames) == 0 {
			return nil, fmt.Errorf("routing table %s: entry %q has no hostnames", path, e.ID)
		}
	}

	return &Table{path: path, entries: sf.Servers}, nil
}

// find returns the first entry whose Hostnames contains host, or nil.
// Callers must hold t.mu for at least reading.
func (t *Table) find(host string) *ServerEntry {
	for _, e := range t.entries {
		for _, h := range e.Hostnames {
			if h == host {
				return e
			}
		}
	}
	return nil
}

// Lookup returns the first entry whose hostnames contain host.
func (t *Table) Lookup(host string) *ServerEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.find(host)
}

// Increment adjusts the matched entry's player count up by one and
// returns the post-adjustment value. Returns (0, false) if host
// matches no entry.
func (t *Table) Increment(host string) (int64, bool) {
	t.mu.RLock()
	e := t.find(host)
	t.mu.RUnlock()
	if e == nil {
		return 0, false
	}
	return e.playerCount.Add(1), true
}

// Decrement adjusts the matched entry's player count down by one,
// clamped at zero, and returns the post-adjustment value. Returns
// (0, false) if host matches no entry.
func (t *Table) Decrement(host string) (int64, bool) {
	t.mu.RLock()
	e := t.find(host)
	t.mu.RUnlock()
	if e == nil {
		return 0, false
	}

	for {
		cur := e.playerCount.Load()
		if cur <= 0 {
			return 0, true
		}
		if e.playerCount.CompareAndSwap(cur, cur-1) {
			return cur - 1, true
		}
	}
}

// GetPlayerCount returns the matched entry's player count, or
// (0, false) if host matches no entry.
func (t *Table) GetPlayerCount(host string) (int64, bool) {
	t.mu.RLock()
	e := t.find(host)
	t.mu.RUnlock()
	if e == nil {
		return 0, false
	}
	return e.playerCount.Load(), true
}

// ListServers returns a snapshot of the current entries.
func (t *Table) ListServers() []*ServerEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*ServerEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// AddServer appends a new entry and persists the mutated table.
func (t *Table) AddServer(entry *ServerEntry) error {
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	snapshot := t.snapshotLocked()
	t.mu.Unlock()
	return t.save(snapshot)
}

// RemoveServer removes every entry whose hostnames contain host and
// persists the mutated table. Returns whether anything was removed.
//
// This is containment-as-removal: an entry is removed if host appears
// anywhere in its Hostnames, matching the semantics spec.md defines as
// correct (the reference source this was ported from kept entries
// that matched rather than removing them).
func (t *Table) RemoveServer(host string) (bool, error) {
	t.mu.Lock()
	kept := t.entries[:0:0]
	removed := false
	for _, e := range t.entries {
		if containsHostname(e, host) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		t.mu.Unlock()
		return false, nil
	}
	t.entries = kept
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	if err := t.save(snapshot); err != nil {
		return true, err
	}
	return true, nil
}

// UpdateServer replaces the entry matching host with newEntry and
// persists the mutated table. Returns whether a match was found.
func (t *Table) UpdateServer(host string, newEntry *ServerEntry) (bool, error) {
	t.mu.Lock()
	found := false
	for i, e := range t.entries {
		if containsHostname(e, host) {
			t.entries[i] = newEntry
			found = true
			break
		}
	}
	if !found {
		t.mu.Unlock()
		return false, nil
	}
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	if err := t.save(snapshot); err != nil {
		return true, err
	}
	return true, nil
}

func containsHostname(e *ServerEntry, host string) bool {
	for _, h := range e.Hostnames {
		if h == host {
			return true
		}
	}
	return false
}

// snapshotLocked copies the current entries for writing to disk
// outside the lock. Callers must hold t.mu.
func (t *Table) snapshotLocked() []*ServerEntry {
	out := make([]*ServerEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// save writes the given entries back to the table's JSON file. It
// always serializes the mutated state passed in, never a
// pre-mutation copy.
func (t *Table) save(entries []*ServerEntry) error {
	data, err := json.MarshalIndent(serversFile{Servers: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal routing table: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("write routing table %s: %w", t.path, err)
	}
	return nil
}
