// Package nameregistry implements the per-world persistent-id table
// spec.md §3/§9 describes: "A separate interner persisted to disk that
// maps runtime IDs to stable per-world PersistentIds so saved data
// survives runtime id reassignment across sessions." Unlike the
// process-wide intern.Interner, a Registry's IDs are stable across
// restarts because they are assigned once, written to disk, and loaded
// back rather than recomputed from registration order.
//
// Grounded on original_source/include/finevox/core/name_registry.hpp,
// fully specified here since spec.md only gestures at the mechanism.
package nameregistry

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/pelletier/go-toml"
)

// PersistentID is a stable, on-disk-only identifier: unlike
// intern.ID, the same name always maps to the same PersistentID across
// process restarts for a given world, because IDs are assigned once and
// saved rather than derived from intern order.
type PersistentID uint32

// Registry is a bidirectional name<->PersistentID table, one per world.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]PersistentID
	byID   map[PersistentID]string
	next   PersistentID
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]PersistentID),
		byID:   make(map[PersistentID]string),
	}
}

// IDFor returns name's PersistentID, assigning the next free one and
// recording the mapping if name has never been seen by this Registry.
func (r *Registry) IDFor(name string) PersistentID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byName[name]; ok {
		return id
	}
	id := r.next
	r.next++
	r.byName[name] = id
	r.byID[id] = name
	return id
}

// NameFor resolves a PersistentID back to its registered name.
func (r *Registry) NameFor(id PersistentID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byID[id]
	return name, ok
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// entry is one row of the on-disk table: a name and the PersistentID
// it was assigned. Exported field names are chosen to read cleanly in
// both the CBOR column record and the TOML audit dump.
type entry struct {
	Name string       `cbor:"name" toml:"name"`
	ID   PersistentID `cbor:"id" toml:"id"`
}

// Snapshot returns every (name, id) pair, ordered by ID, for
// serialization into a column record or an audit dump.
func (r *Registry) Snapshot() []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entry, 0, len(r.byID))
	for id, name := range r.byID {
		out = append(out, entry{Name: name, ID: id})
	}
	// Simple insertion sort by ID: the table is small (hundreds to low
	// thousands of names per world) and this runs once per save, not
	// per-tick, so an O(n^2) worst case here is not a concern.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Load replaces the Registry's contents with entries read from disk,
// restoring next so subsequently-assigned IDs don't collide with the
// loaded table.
func (r *Registry) Load(entries []entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]PersistentID, len(entries))
	r.byID = make(map[PersistentID]string, len(entries))
	r.next = 0
	for _, e := range entries {
		r.byName[e.Name] = e.ID
		r.byID[e.ID] = e.Name
		if e.ID >= r.next {
			r.next = e.ID + 1
		}
	}
}

// MarshalCBOR implements cbor.Marshaler, encoding the registry's
// Snapshot as CBOR.
func (r *Registry) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(r.Snapshot())
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (r *Registry) UnmarshalCBOR(data []byte) error {
	var entries []entry
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("nameregistry: decode cbor: %w", err)
	}
	r.Load(entries)
	return nil
}

// DumpTOML renders the registry as a human-readable TOML audit dump, the
// format voxelcore-inspect prints for "what persistent IDs does this
// world have" troubleshooting, reusing the teacher's go-toml dependency
// rather than hand-rolling a text format for this secondary use.
func (r *Registry) DumpTOML() ([]byte, error) {
	type doc struct {
		Entries []entry `toml:"entries"`
	}
	return toml.Marshal(doc{Entries: r.Snapshot()})
}
