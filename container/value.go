// Package container implements DataContainer, the typed recursive
// key/value store used for per-block and per-column metadata, and its
// CBOR wire format.
package container

// Kind discriminates the variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBlob
	KindContainer
	KindIntArray
	KindFloatArray
	KindStringArray
)

// Value is one entry of a DataContainer: exactly one of {null, i64, f64,
// string, blob, nested container, i64-array, f64-array, string-array}.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    []byte
	c    *DataContainer
	ia   []int64
	fa   []float64
	sa   []string
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Int wraps an int64.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float64.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Blob wraps a byte slice.
func Blob(b []byte) Value { return Value{kind: KindBlob, b: b} }

// Container wraps a nested DataContainer.
func Container(c *DataContainer) Value { return Value{kind: KindContainer, c: c} }

// IntArray wraps a slice of int64.
func IntArray(a []int64) Value { return Value{kind: KindIntArray, ia: a} }

// FloatArray wraps a slice of float64.
func FloatArray(a []float64) Value { return Value{kind: KindFloatArray, fa: a} }

// StringArray wraps a slice of string.
func StringArray(a []string) Value { return Value{kind: KindStringArray, sa: a} }

// Int returns v's int64 payload and whether v holds KindInt.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Float returns v's float64 payload and whether v holds KindFloat.
func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// String returns v's string payload and whether v holds KindString.
func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Blob returns v's byte-slice payload and whether v holds KindBlob.
func (v Value) Blob() ([]byte, bool) {
	if v.kind != KindBlob {
		return nil, false
	}
	return v.b, true
}

// Container returns v's nested DataContainer and whether v holds
// KindContainer.
func (v Value) Container() (*DataContainer, bool) {
	if v.kind != KindContainer {
		return nil, false
	}
	return v.c, true
}

// IntArray returns v's []int64 payload and whether v holds KindIntArray.
func (v Value) IntArray() ([]int64, bool) {
	if v.kind != KindIntArray {
		return nil, false
	}
	return v.ia, true
}

// FloatArray returns v's []float64 payload and whether v holds
// KindFloatArray.
func (v Value) FloatArray() ([]float64, bool) {
	if v.kind != KindFloatArray {
		return nil, false
	}
	return v.fa, true
}

// StringArray returns v's []string payload and whether v holds
// KindStringArray.
func (v Value) StringArray() ([]string, bool) {
	if v.kind != KindStringArray {
		return nil, false
	}
	return v.sa, true
}

// clone deep-copies v, recursing into nested containers so that cloning a
// DataContainer never aliases mutable state with the original.
func (v Value) clone() Value {
	switch v.kind {
	case KindBlob:
		return Blob(append([]byte(nil), v.b...))
	case KindContainer:
		if v.c == nil {
			return Container(nil)
		}
		return Container(v.c.Clone())
	case KindIntArray:
		return IntArray(append([]int64(nil), v.ia...))
	case KindFloatArray:
		return FloatArray(append([]float64(nil), v.fa...))
	case KindStringArray:
		return StringArray(append([]string(nil), v.sa...))
	default:
		return v
	}
}

// Equal reports whether v and other hold the same variant and value. Used
// by the round-trip tests; nested containers compare key-for-key
// (order-independent).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindBlob:
		return bytesEqual(v.b, other.b)
	case KindContainer:
		return v.c.Equal(other.c)
	case KindIntArray:
		return int64sEqual(v.ia, other.ia)
	case KindFloatArray:
		return float64sEqual(v.fa, other.fa)
	case KindStringArray:
		return stringsEqual(v.sa, other.sa)
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func int64sEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func float64sEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
