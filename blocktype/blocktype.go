// Package blocktype defines the block-type registry singleton (spec §9:
// "three process-wide singletons: the string interner, the block-type
// registry, and the item-type registry") along with the capability-based
// BlockHandler contract game modules implement to give blocks behavior.
//
// The registry intentionally does not know about game logic: it only
// stores the properties the core itself needs (lighting, mesh opacity)
// plus an opaque Handler value dispatched through small capability
// interfaces, mirroring how dragonfly's world package type-asserts a
// placed block against NeighbourUpdateTicker and friends rather than
// using an inheritance hierarchy.
package blocktype

import (
	"sync"

	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
)

// TickKind distinguishes the three ways a block tick can be scheduled.
type TickKind uint8

const (
	TickScheduled TickKind = iota
	TickRepeating
	TickRandom
)

// Properties are the core-relevant attributes of a block type: whatever
// the lighting engine and mesh builder need to treat it correctly. Game
// modules are free to attach arbitrary additional behavior through a
// Handler; Properties holds only what this core consumes directly.
type Properties struct {
	// Opaque blocks are not drawn across their shared face with another
	// opaque block, and are impassable to light propagation tests for
	// neighbour visibility in the mesh builder.
	Opaque bool
	// BlocksSkyLight determines heightmap membership: a block with this
	// set stops sky light from propagating further down.
	BlocksSkyLight bool
	// LightEmission is the block-light level (0-15) this block emits.
	LightEmission uint8
	// LightAttenuation is how much light decreases per step through this
	// block (at least 1 is always applied regardless of this value, per
	// spec: "BFS decrements by max(1, attenuation) per step").
	LightAttenuation uint8
}

// Type is a registered block type: its identity plus the Properties and
// optional Handler that give it behavior.
type Type struct {
	ID   intern.BlockTypeID
	Name string
	Properties
	Handler Handler
}

// Handler is a marker interface for block behavior. Concrete handlers
// implement any subset of the capability interfaces below; BlockContext
// dispatch (in the game package) type-asserts against each in turn.
type Handler interface{}

// BlockContext is passed to every capability method a Handler implements.
// It carries everything a handler needs to inspect or react to the
// change: position, old/new type, orientation, the light levels observed
// at dispatch time, and a mutable per-block data sidecar.
type BlockContext struct {
	Pos                cube.BlockPos
	Current, Previous  intern.BlockTypeID
	Rotation           cube.Rotation
	SkyLight, BlockLight uint8
	Data               *container.DataContainer
}

// PlaceHandler reacts to a block of its type being placed.
type PlaceHandler interface{ OnPlace(ctx *BlockContext) }

// BreakHandler reacts to a block of its type being broken.
type BreakHandler interface{ OnBreak(ctx *BlockContext) }

// TickHandler reacts to a scheduled/repeating/random tick.
type TickHandler interface{ OnTick(ctx *BlockContext, kind TickKind) }

// NeighborChangedHandler reacts to an adjacent block changing.
type NeighborChangedHandler interface {
	OnNeighborChanged(ctx *BlockContext, face cube.Face)
}

// BlockUpdateHandler reacts to a generic block-update notification.
type BlockUpdateHandler interface{ OnBlockUpdate(ctx *BlockContext) }

// UseHandler reacts to a player-use interaction; returning true consumes
// the interaction (no further default handling occurs).
type UseHandler interface{ OnUse(ctx *BlockContext, face cube.Face) bool }

// HitHandler reacts to a player-hit interaction; return value semantics
// match UseHandler.
type HitHandler interface{ OnHit(ctx *BlockContext, face cube.Face) bool }

// RepaintHandler reacts to a repaint-requested event (e.g. a neighbouring
// light source changed enough to warrant a visual refresh without a
// block-type change).
type RepaintHandler interface{ OnRepaint(ctx *BlockContext) }

// Registry is the process-wide (or, in tests, per-instance) table of
// registered block types.
type Registry struct {
	mu   sync.RWMutex
	byID map[intern.BlockTypeID]*Type
}

// NewRegistry returns a Registry with air pre-registered at ID 0.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[intern.BlockTypeID]*Type, 256)}
	r.Register("air", Properties{}, nil)
	return r
}

// Register interns name, stores its Properties/Handler and returns the
// resulting Type. Re-registering an existing name updates it in place
// (module reload/hot-swap during development).
func (r *Registry) Register(name string, props Properties, handler Handler) *Type {
	id := intern.BlockType(name)
	t := &Type{ID: id, Name: name, Properties: props, Handler: handler}
	r.mu.Lock()
	r.byID[id] = t
	r.mu.Unlock()
	return t
}

// Get looks up a registered type by ID.
func (r *Registry) Get(id intern.BlockTypeID) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// MustGet looks up a registered type, falling back to air's Type if id is
// unknown. Per the core's InvariantViolated policy (spec §7), an
// out-of-range or unregistered ID never panics in a release build; the
// caller proceeds as if the slot held air.
func (r *Registry) MustGet(id intern.BlockTypeID) *Type {
	if t, ok := r.Get(id); ok {
		return t
	}
	air, _ := r.Get(intern.AirBlockType)
	return air
}

var global = NewRegistry()

// Global returns the process-wide block-type registry.
func Global() *Registry { return global }
