// Package intern implements the process-wide string interner described in
// the core's data model: every unique string used to name a block type,
// item type, tag, biome or sound set is assigned a compact, monotonically
// increasing 32-bit ID the first time it is seen. Lookups by ID are O(1)
// slice indexing; lookups by string go through a hashed map.
package intern

import "sync"

// ID is the 32-bit identifier assigned to an interned string. The zero
// value, Air, and the next two values are reserved: Air is always 0, so
// that a freshly zeroed ID (e.g. an unset palette slot) resolves to air
// rather than triggering a bounds check.
type ID uint32

const (
	// Air is the identifier of the air pseudo-block and is always 0.
	Air ID = 0
	// Invalid marks an ID that was never assigned by an Interner.
	Invalid ID = 1
	// Unknown marks a name that could not be resolved, e.g. after a
	// block type was removed from a game module between sessions.
	Unknown ID = 2

	firstFreeID = 3
)

// Interner assigns IDs to strings and back. The zero value is not usable;
// use New. Interner is safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	byName  map[string]ID
	byID    []string // index 0..2 are reserved placeholders
}

// New returns an Interner with the reserved IDs pre-populated.
func New() *Interner {
	in := &Interner{
		byName: make(map[string]ID, 64),
		byID:   make([]string, firstFreeID, 256),
	}
	in.byID[Air] = "air"
	in.byID[Invalid] = ""
	in.byID[Unknown] = "unknown"
	in.byName["air"] = Air
	return in
}

// Intern returns the ID for name, assigning a new one if name has not been
// seen by this Interner before. The empty string is never interned to a
// fresh ID; it resolves to Invalid.
func (in *Interner) Intern(name string) ID {
	if name == "" {
		return Invalid
	}
	in.mu.RLock()
	if id, ok := in.byName[name]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byName[name]; ok {
		// Lost the race against another writer; reuse its result.
		return id
	}
	id := ID(len(in.byID))
	in.byID = append(in.byID, name)
	in.byName[name] = id
	return id
}

// Lookup returns the string a previously interned ID maps to. The second
// return value is false if id was never assigned (out of range).
func (in *Interner) Lookup(id ID) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.byID) {
		return "", false
	}
	return in.byID[id], true
}

// MustLookup is like Lookup but returns "" for an unassigned ID instead of
// reporting failure, for call sites that only use the name for logging.
func (in *Interner) MustLookup(id ID) string {
	name, _ := in.Lookup(id)
	return name
}

// Len reports the number of IDs assigned so far, including the reserved
// ones.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byID)
}

// global is the single process-wide string interner (spec §9: "three
// process-wide singletons: the string interner, the block-type registry,
// and the item-type registry"). Game-module initialisation populates it
// before the game thread starts; later registrations are allowed but must
// happen-before any mutation referencing the new name.
var global = New()

// Global returns the process-wide Interner.
func Global() *Interner { return global }
