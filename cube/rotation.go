package cube

// Rotation is one of the 24 proper rotations of a cube, represented as an
// integer 3x3 matrix with entries in {-1,0,1}. The identity rotation is
// canonical index 0.
type Rotation struct {
	m [3][3]int8
}

// Identity is the canonical, index-0 rotation.
var Identity = Rotation{m: [3][3]int8{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}

var (
	rotations    [24]Rotation
	rotationByM  map[[3][3]int8]uint8
)

func init() {
	perms := [6][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	rotationByM = make(map[[3][3]int8]uint8, 24)

	list := make([]Rotation, 0, 24)
	add := func(m [3][3]int8) {
		if _, ok := rotationByM[m]; ok {
			return
		}
		idx := uint8(len(list))
		rotationByM[m] = idx
		list = append(list, Rotation{m: m})
	}
	add(Identity.m)

	for _, perm := range perms {
		for _, sx := range [2]int{-1, 1} {
			for _, sy := range [2]int{-1, 1} {
				for _, sz := range [2]int{-1, 1} {
					var m [3][3]int8
					signs := [3]int{sx, sy, sz}
					for row := 0; row < 3; row++ {
						m[row][perm[row]] = int8(signs[row])
					}
					if determinant3(m) != 1 {
						continue
					}
					add(m)
				}
			}
		}
	}
	if len(list) != 24 {
		panic("cube: generated rotation group does not have 24 elements")
	}
	copy(rotations[:], list)
}

func determinant3(m [3][3]int8) int {
	a, b, c := int(m[0][0]), int(m[0][1]), int(m[0][2])
	d, e, f := int(m[1][0]), int(m[1][1]), int(m[1][2])
	g, h, i := int(m[2][0]), int(m[2][1]), int(m[2][2])
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// Count returns the number of distinct rotations (always 24).
func Count() int { return len(rotations) }

// ByIndex returns the rotation at the given canonical index (0-23).
func ByIndex(index uint8) Rotation { return rotations[index%24] }

// Index returns this rotation's canonical index (0-23).
func (r Rotation) Index() uint8 { return rotationByM[r.m] }

// IsIdentity reports whether r is the identity rotation.
func (r Rotation) IsIdentity() bool { return r.m == Identity.m }

// Apply rotates p around the origin.
func (r Rotation) Apply(p BlockPos) BlockPos {
	x, y, z := int32(p.X), int32(p.Y), int32(p.Z)
	return BlockPos{
		X: int32(r.m[0][0])*x + int32(r.m[0][1])*y + int32(r.m[0][2])*z,
		Y: int32(r.m[1][0])*x + int32(r.m[1][1])*y + int32(r.m[1][2])*z,
		Z: int32(r.m[2][0])*x + int32(r.m[2][1])*y + int32(r.m[2][2])*z,
	}
}

// Compose returns the rotation equivalent to applying other, then r
// (r.Compose(other).Apply(v) == r.Apply(other.Apply(v))).
func (r Rotation) Compose(other Rotation) Rotation {
	var out [3][3]int8
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum int8
			for k := 0; k < 3; k++ {
				sum += r.m[row][k] * other.m[k][col]
			}
			out[row][col] = sum
		}
	}
	return Rotation{m: out}
}

// Inverse returns the rotation that undoes r. Cube rotation matrices are
// orthogonal with determinant 1, so the inverse is the transpose.
func (r Rotation) Inverse() Rotation {
	var out [3][3]int8
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out[row][col] = r.m[col][row]
		}
	}
	return Rotation{m: out}
}

// ApplyFace rotates a Face by r.
func (r Rotation) ApplyFace(f Face) Face {
	n := f.Normal()
	rotated := r.Apply(BlockPos{X: n[0], Y: n[1], Z: n[2]})
	for _, nf := range Faces {
		rn := nf.Normal()
		if rotated.X == rn[0] && rotated.Y == rn[1] && rotated.Z == rn[2] {
			return nf
		}
	}
	// Unreachable for a valid rotation matrix: rotating a face normal
	// always lands on another face normal.
	return f
}

// Matrix returns the raw 3x3 rotation matrix.
func (r Rotation) Matrix() [3][3]int8 { return r.m }
