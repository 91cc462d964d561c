// Package event implements the block-change event pipeline described in
// spec.md §4.5/§9: a producer-side coalescing Outbox and a consumer-side
// Inbox the game thread drains once per tick, plus the Command type the
// World's external block API enqueues for the game thread to apply.
package event

import (
	"time"

	"github.com/finevox/voxelcore/blocktype"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
)

// Kind enumerates the event kinds the core distinguishes.
type Kind uint8

const (
	Placed Kind = iota
	Broken
	Changed
	NeighborChanged
	TickScheduled
	TickRepeating
	TickRandom
	PlayerUse
	PlayerHit
	BlockUpdate
	ChunkLoaded
	ChunkUnloaded
	RepaintRequested
)

// String names a Kind for log output.
func (k Kind) String() string {
	switch k {
	case Placed:
		return "Placed"
	case Broken:
		return "Broken"
	case Changed:
		return "Changed"
	case NeighborChanged:
		return "NeighborChanged"
	case TickScheduled:
		return "TickScheduled"
	case TickRepeating:
		return "TickRepeating"
	case TickRandom:
		return "TickRandom"
	case PlayerUse:
		return "PlayerUse"
	case PlayerHit:
		return "PlayerHit"
	case BlockUpdate:
		return "BlockUpdate"
	case ChunkLoaded:
		return "ChunkLoaded"
	case ChunkUnloaded:
		return "ChunkUnloaded"
	case RepaintRequested:
		return "RepaintRequested"
	default:
		return "Kind(?)"
	}
}

// BlockEvent is the unit the outbox coalesces and the game thread
// dispatches, matching the field list in spec.md §3.
type BlockEvent struct {
	Kind          Kind
	Pos           cube.BlockPos
	ChunkPos      cube.ChunkPos
	BlockType     intern.BlockTypeID
	PreviousType  intern.BlockTypeID
	Face          cube.Face
	FaceMask      cube.FaceMask
	Rotation      cube.Rotation
	TickKind      blocktype.TickKind
	Timestamp     time.Time
}

// CommandKind enumerates the actions the World's external block API can
// submit to the bound UpdateScheduler.
type CommandKind uint8

const (
	CmdPlace CommandKind = iota
	CmdBreak
	CmdUse
	CmdHit
	CmdBulkPlace
)

// Command is what World's external API methods enqueue; the game thread
// drains these each tick, applies the mutation through World's internal
// API, and raises the resulting BlockEvent(s) onto the Outbox.
type Command struct {
	Kind      CommandKind
	Pos       cube.BlockPos
	BlockType intern.BlockTypeID
	Rotation  cube.Rotation
	Face      cube.Face

	// Positions/Types back CmdBulkPlace: parallel slices of equal length.
	Positions []cube.BlockPos
	Types     []intern.BlockTypeID
}
