package container

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/finevox/voxelcore/intern"
)

var decMode = func() cbor.DecMode {
	opts := cbor.DecOptions{
		// Force map[string]interface{} rather than the default
		// map[interface{}]interface{} so decoded container keys come back
		// as plain strings without an extra type switch.
		MapType: reflect.TypeOf(map[string]interface{}{}),
	}
	mode, err := opts.DecMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// ToCBOR encodes c as a CBOR map with text-string keys, suitable for
// embedding inside a region file entry or a standalone blob.
func (c *DataContainer) ToCBOR() ([]byte, error) {
	return cbor.Marshal(c.toAny())
}

// FromCBOR decodes data produced by ToCBOR into a fresh DataContainer.
// String keys are re-interned against the process's global interner.
func FromCBOR(data []byte) (*DataContainer, error) {
	var raw map[string]interface{}
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("container: decode cbor: %w", err)
	}
	return fromAny(raw)
}

// MarshalCBOR implements cbor.Marshaler so a DataContainer can be
// embedded as a field of a larger CBOR-encoded struct (e.g. a column's
// persisted record).
func (c *DataContainer) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(c.toAny())
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (c *DataContainer) UnmarshalCBOR(data []byte) error {
	var raw map[string]interface{}
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("container: decode cbor: %w", err)
	}
	decoded, err := fromAny(raw)
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}

func (c *DataContainer) toAny() map[string]interface{} {
	out := make(map[string]interface{}, c.Len())
	c.ForEach(func(key intern.ID, v Value) {
		name, ok := intern.Global().Lookup(key)
		if !ok {
			// An unresolvable key would silently lose data on disk; skip
			// rather than write a key nothing can read back.
			return
		}
		out[name] = valueToAny(v)
	})
	return out
}

func valueToAny(v Value) interface{} {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindInt:
		i, _ := v.Int()
		return i
	case KindFloat:
		f, _ := v.Float()
		return f
	case KindString:
		s, _ := v.String()
		return s
	case KindBlob:
		b, _ := v.Blob()
		return b
	case KindContainer:
		nested, _ := v.Container()
		if nested == nil {
			return map[string]interface{}{}
		}
		return nested.toAny()
	case KindIntArray:
		a, _ := v.IntArray()
		return a
	case KindFloatArray:
		a, _ := v.FloatArray()
		return a
	case KindStringArray:
		a, _ := v.StringArray()
		return a
	default:
		return nil
	}
}

func fromAny(raw map[string]interface{}) (*DataContainer, error) {
	c := New()
	for name, a := range raw {
		v, err := anyToValue(a)
		if err != nil {
			return nil, fmt.Errorf("container: key %q: %w", name, err)
		}
		c.SetByName(name, v)
	}
	return c, nil
}

func anyToValue(a interface{}) (Value, error) {
	switch x := a.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Int(x), nil
	case uint64:
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []byte:
		return Blob(x), nil
	case map[string]interface{}:
		nested, err := fromAny(x)
		if err != nil {
			return Value{}, err
		}
		return Container(nested), nil
	case []interface{}:
		return arrayToValue(x)
	default:
		return Value{}, fmt.Errorf("unsupported cbor value of type %T", a)
	}
}

// arrayToValue classifies a decoded CBOR array by its first element's
// type; the wire format only ever produces homogeneous arrays, so the
// first element fully determines the target Kind. An empty array decodes
// to an empty string array, an arbitrary but harmless default.
func arrayToValue(items []interface{}) (Value, error) {
	if len(items) == 0 {
		return StringArray(nil), nil
	}
	switch items[0].(type) {
	case int64, uint64:
		out := make([]int64, len(items))
		for i, it := range items {
			switch v := it.(type) {
			case int64:
				out[i] = v
			case uint64:
				out[i] = int64(v)
			default:
				return Value{}, fmt.Errorf("mixed-type array: element %d is %T, want integer", i, it)
			}
		}
		return IntArray(out), nil
	case float32, float64:
		out := make([]float64, len(items))
		for i, it := range items {
			switch v := it.(type) {
			case float32:
				out[i] = float64(v)
			case float64:
				out[i] = v
			default:
				return Value{}, fmt.Errorf("mixed-type array: element %d is %T, want float", i, it)
			}
		}
		return FloatArray(out), nil
	case string:
		out := make([]string, len(items))
		for i, it := range items {
			s, ok := it.(string)
			if !ok {
				return Value{}, fmt.Errorf("mixed-type array: element %d is %T, want string", i, it)
			}
			out[i] = s
		}
		return StringArray(out), nil
	default:
		return Value{}, fmt.Errorf("unsupported array element type %T", items[0])
	}
}
