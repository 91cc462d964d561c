package cube

// Face enumerates the six axis-aligned neighbours of a block.
type Face uint8

const (
	NegX Face = iota // West
	PosX              // East
	NegY              // Down
	PosY              // Up
	NegZ              // North
	PosZ              // South
)

// FaceCount is the number of distinct faces.
const FaceCount = 6

// Faces lists all six faces in declaration order, for range loops that
// need to iterate every neighbour.
var Faces = [FaceCount]Face{NegX, PosX, NegY, PosY, NegZ, PosZ}

// Opposite returns the face pointing the opposite direction. Opposite
// pairs differ only in their low bit (West/East, Down/Up, North/South
// are consecutive), so XOR 1 suffices.
func (f Face) Opposite() Face { return f ^ 1 }

var faceNormals = [FaceCount][3]int32{
	{-1, 0, 0}, // NegX
	{1, 0, 0},  // PosX
	{0, -1, 0}, // NegY
	{0, 1, 0},  // PosY
	{0, 0, -1}, // NegZ
	{0, 0, 1},  // PosZ
}

// Normal returns the integer unit vector f points along.
func (f Face) Normal() [3]int32 { return faceNormals[f] }

// Axis identifies one of the three coordinate axes.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axis returns the axis f lies along.
func (f Face) Axis() Axis {
	switch f {
	case NegX, PosX:
		return AxisX
	case NegY, PosY:
		return AxisY
	default:
		return AxisZ
	}
}

// String implements fmt.Stringer for debug logging.
func (f Face) String() string {
	switch f {
	case NegX:
		return "NegX"
	case PosX:
		return "PosX"
	case NegY:
		return "NegY"
	case PosY:
		return "PosY"
	case NegZ:
		return "NegZ"
	case PosZ:
		return "PosZ"
	default:
		return "Face(?)"
	}
}

// FaceMask is a bitmask over the six faces, used by BlockEvent's
// face_mask field to describe which neighbours triggered a notification.
type FaceMask uint8

// Set returns mask with f set.
func (mask FaceMask) Set(f Face) FaceMask { return mask | (1 << f) }

// Has reports whether f is present in mask.
func (mask FaceMask) Has(f Face) bool { return mask&(1<<f) != 0 }

// AxisRotation is a simpler 4-way rotation around the Y axis, useful for
// blocks (stairs, logs, signs) that only care about horizontal facing
// rather than the full 24-element cube rotation group.
type AxisRotation uint8

const (
	RotateNone AxisRotation = iota
	RotateCW90
	RotateCW180
	RotateCCW90
)

// FromQuarterTurns normalises an arbitrary (possibly negative) number of
// quarter turns into an AxisRotation.
func FromQuarterTurns(turns int) AxisRotation {
	return AxisRotation(((turns % 4) + 4) % 4)
}

// Compose returns the rotation equivalent to applying a then b.
func (a AxisRotation) Compose(b AxisRotation) AxisRotation {
	return AxisRotation((int(a) + int(b)) % 4)
}

// Inverse returns the rotation that undoes a.
func (a AxisRotation) Inverse() AxisRotation {
	return AxisRotation((4 - int(a)) % 4)
}

// ApplyXZ rotates the (x,z) pair around the Y axis by a.
func (a AxisRotation) ApplyXZ(x, z int32) (int32, int32) {
	switch a {
	case RotateCW90:
		return -z, x
	case RotateCW180:
		return -x, -z
	case RotateCCW90:
		return z, -x
	default:
		return x, z
	}
}

var horizontalFaces = [4]Face{NegX, NegZ, PosX, PosZ}

// ApplyFace rotates a horizontal face by a; PosY/NegY are unaffected.
func (a AxisRotation) ApplyFace(f Face) Face {
	idx := -1
	for i, hf := range horizontalFaces {
		if hf == f {
			idx = i
			break
		}
	}
	if idx == -1 {
		return f
	}
	return horizontalFaces[(idx+int(a))%4]
}
