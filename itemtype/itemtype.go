// Package itemtype is the process-wide item-type registry, the second
// of the core's three singletons (alongside intern and blocktype). Items
// are far simpler than blocks: they carry no lighting or mesh properties
// and no capability-interface dispatch, only a stack size and an opaque
// Handler for game-module behavior (use, consume, durability).
package itemtype

import (
	"sync"

	"github.com/finevox/voxelcore/intern"
)

// Handler is a marker interface for item behavior, dispatched by game
// modules the same way blocktype.Handler is: type-assert against a
// capability interface the module itself defines.
type Handler interface{}

// Type is a registered item type.
type Type struct {
	ID          intern.ItemTypeID
	Name        string
	MaxStack    uint16
	Handler     Handler
}

// Registry is the table of registered item types.
type Registry struct {
	mu   sync.RWMutex
	byID map[intern.ItemTypeID]*Type
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[intern.ItemTypeID]*Type, 256)}
}

// Register interns name and stores a Type for it, overwriting any prior
// registration under the same name.
func (r *Registry) Register(name string, maxStack uint16, handler Handler) *Type {
	id := intern.ItemType(name)
	t := &Type{ID: id, Name: name, MaxStack: maxStack, Handler: handler}
	r.mu.Lock()
	r.byID[id] = t
	r.mu.Unlock()
	return t
}

// Get looks up a registered type by ID.
func (r *Registry) Get(id intern.ItemTypeID) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

var global = NewRegistry()

// Global returns the process-wide item-type registry.
func Global() *Registry { return global }
