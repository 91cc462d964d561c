// Package cube provides the packed spatial primitives shared by every
// other package in voxelcore: block/chunk/column positions, faces and
// the 24-element cube rotation group.
package cube

// BlockPos is an absolute block position in world space.
type BlockPos struct {
	X, Y, Z int32
}

// Add returns p translated by d.
func (p BlockPos) Add(d BlockPos) BlockPos {
	return BlockPos{p.X + d.X, p.Y + d.Y, p.Z + d.Z}
}

// Neighbour returns the block adjacent to p across face.
func (p BlockPos) Neighbour(face Face) BlockPos {
	n := face.Normal()
	return BlockPos{p.X + n[0], p.Y + n[1], p.Z + n[2]}
}

// Chunk returns the ChunkPos of the 16^3 subchunk containing p.
func (p BlockPos) Chunk() ChunkPos {
	return ChunkPos{X: p.X >> 4, Y: p.Y >> 4, Z: p.Z >> 4}
}

// Column returns the ColumnPos of the column containing p.
func (p BlockPos) Column() ColumnPos {
	return ColumnPos{X: p.X >> 4, Z: p.Z >> 4}
}

// Local returns p's coordinates local to its containing subchunk, each in
// [0,16).
func (p BlockPos) Local() (x, y, z int) {
	return int(p.X & 0xF), int(p.Y & 0xF), int(p.Z & 0xF)
}

// LocalIndex returns the volume-ordered index (y*256 + z*16 + x) of p
// within its subchunk, used to index Subchunk's flat block array.
func (p BlockPos) LocalIndex() int {
	x, y, z := p.Local()
	return y*256 + z*16 + x
}

// ChunkPos addresses a 16^3 subchunk.
type ChunkPos struct {
	X, Y, Z int32
}

// Column returns the ColumnPos that owns the subchunk at cp.
func (cp ChunkPos) Column() ColumnPos {
	return ColumnPos{X: cp.X, Z: cp.Z}
}

// Chebyshev returns the Chebyshev (maximum-coordinate) distance between cp
// and other, used by force-loader radius checks (spec: "scans the registry
// for any force-loader whose chunk ... is within Chebyshev radius").
func (cp ChunkPos) Chebyshev(other ChunkPos) int32 {
	return max3(abs32(cp.X-other.X), abs32(cp.Y-other.Y), abs32(cp.Z-other.Z))
}

// ColumnPos addresses a vertical stack of subchunks at one (x,z).
type ColumnPos struct {
	X, Z int32
}

// Chebyshev returns the planar Chebyshev distance in columns/chunks between
// cp and other.
func (cp ColumnPos) Chebyshev(other ColumnPos) int32 {
	return max2(abs32(cp.X-other.X), abs32(cp.Z-other.Z))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func max2(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func max3(a, b, c int32) int32 {
	return max2(max2(a, b), c)
}

// Packing constants implementing the [x:26][y:12][z:26] offset-binary
// layout described for both BlockPos (block-space) and ChunkPos
// (subchunk-space, same bit widths as the spec specifies "in the same
// scheme"). Offset-binary biases each signed field by half its range so
// the packed value is representable unsigned.
const (
	xBits = 26
	yBits = 12
	zBits = 26

	xBias uint64 = 1 << (xBits - 1)
	yBias uint64 = 1 << (yBits - 1)
	zBias uint64 = 1 << (zBits - 1)

	xMask uint64 = (1 << xBits) - 1
	yMask uint64 = (1 << yBits) - 1
	zMask uint64 = (1 << zBits) - 1
)

func packXYZ(x, y, z int32) uint64 {
	ux := (uint64(int64(x)) + xBias) & xMask
	uy := (uint64(int64(y)) + yBias) & yMask
	uz := (uint64(int64(z)) + zBias) & zMask
	return (ux << (yBits + zBits)) | (uy << zBits) | uz
}

func unpackXYZ(v uint64) (x, y, z int32) {
	uz := v & zMask
	uy := (v >> zBits) & yMask
	ux := (v >> (zBits + yBits)) & xMask
	x = int32(int64(ux) - int64(xBias))
	y = int32(int64(uy) - int64(yBias))
	z = int32(int64(uz) - int64(zBias))
	return
}

// Pack encodes p into 64 bits. Round-trips exactly for X,Z in
// [-33,554,432, 33,554,431] and Y in [-2,048, 2,047].
func (p BlockPos) Pack() uint64 { return packXYZ(p.X, p.Y, p.Z) }

// UnpackBlockPos is the inverse of BlockPos.Pack.
func UnpackBlockPos(v uint64) BlockPos {
	x, y, z := unpackXYZ(v)
	return BlockPos{x, y, z}
}

// Pack encodes cp into 64 bits using the same layout as BlockPos.Pack.
func (cp ChunkPos) Pack() uint64 { return packXYZ(cp.X, cp.Y, cp.Z) }

// UnpackChunkPos is the inverse of ChunkPos.Pack.
func UnpackChunkPos(v uint64) ChunkPos {
	x, y, z := unpackXYZ(v)
	return ChunkPos{x, y, z}
}

// Pack encodes cp (two independent i32s) into 64 bits.
func (cp ColumnPos) Pack() uint64 {
	return uint64(uint32(cp.X))<<32 | uint64(uint32(cp.Z))
}

// UnpackColumnPos is the inverse of ColumnPos.Pack.
func UnpackColumnPos(v uint64) ColumnPos {
	return ColumnPos{X: int32(uint32(v >> 32)), Z: int32(uint32(v))}
}
