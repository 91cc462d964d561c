package game

import (
	"github.com/brentp/intintmap"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/lod"
	"github.com/finevox/voxelcore/mesh"
)

// ZoneTracker maintains which loaded chunks fall within a viewpoint's
// concentric simulation/rendering/loading radii (spec.md §4.10),
// driving the mesh pool's staleness-scan tracking and the session's
// random-tick rotation as chunks cross zone boundaries when the
// viewpoint moves.
//
// Each Update call reclassifies the full candidate set into a freshly
// allocated intintmap.Map keyed by the chunk's packed position rather
// than patching the previous classification in place: intintmap offers
// no delete, and a viewpoint move typically reclassifies most of the
// loaded set anyway, so discard-and-rebuild costs about the same as an
// incremental patch while staying simple.
type ZoneTracker struct {
	distances lod.Distances
	session   *Session
	meshPool  *mesh.Pool
	current   *intintmap.Map
}

// NewZoneTracker returns a ZoneTracker classifying against distances,
// pushing simulation-zone membership to session and rendering-zone
// membership to meshPool.
func NewZoneTracker(distances lod.Distances, session *Session, meshPool *mesh.Pool) *ZoneTracker {
	return &ZoneTracker{
		distances: distances,
		session:   session,
		meshPool:  meshPool,
		current:   intintmap.New(1, 0.75),
	}
}

// Update reclassifies every chunk in candidates against viewpoint.
// candidates should cover every chunk previously passed to Update plus
// any newly loaded ones, so a chunk that dropped out of every zone is
// still visited once more and untracked.
func (z *ZoneTracker) Update(viewpoint cube.ColumnPos, candidates []cube.ChunkPos) {
	next := intintmap.New(len(candidates)+1, 0.75)
	for _, cp := range candidates {
		dist := lod.ChunkDistance(viewpoint, cp)
		zone := z.distances.ZoneFor(dist)
		key := int64(cp.Pack())
		next.Put(key, int64(zone))

		if wasZone, had := z.current.Get(key); had && lod.Zone(wasZone) == zone {
			continue
		}
		z.applyZone(cp, zone)
	}
	z.current = next
}

func (z *ZoneTracker) applyZone(cp cube.ChunkPos, zone lod.Zone) {
	if z.meshPool != nil {
		if zone >= lod.ZoneRendering {
			z.meshPool.Track(cp)
		} else {
			z.meshPool.Untrack(cp)
		}
	}
	if z.session != nil {
		if zone >= lod.ZoneSimulation {
			z.session.TrackSimulated(cp)
		} else {
			z.session.UntrackSimulated(cp)
		}
	}
}
