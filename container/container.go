package container

import "github.com/finevox/voxelcore/intern"

// DataContainer is a flat, interned-key map used to attach arbitrary
// metadata to a block or column: sign text, container inventories,
// furnace burn progress, and similar state that the core itself never
// interprets. Keys share the global string interner's namespace so the
// same key name always maps to the same ID within a process, but the
// wire format stores names rather than IDs (spec: "string keys are
// preserved on disk and re-interned on load"), since interned IDs are
// not stable across process restarts.
type DataContainer struct {
	data map[intern.ID]Value
}

// New returns an empty DataContainer.
func New() *DataContainer {
	return &DataContainer{data: make(map[intern.ID]Value)}
}

// Get looks up key by its interned ID.
func (c *DataContainer) Get(key intern.ID) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	v, ok := c.data[key]
	return v, ok
}

// GetByName looks up key by name, interning it first.
func (c *DataContainer) GetByName(name string) (Value, bool) {
	return c.Get(intern.Global().Intern(name))
}

// Set stores v under key's interned ID.
func (c *DataContainer) Set(key intern.ID, v Value) {
	if c.data == nil {
		c.data = make(map[intern.ID]Value)
	}
	c.data[key] = v
}

// SetByName interns name and stores v under it.
func (c *DataContainer) SetByName(name string, v Value) {
	c.Set(intern.Global().Intern(name), v)
}

// Has reports whether key is present.
func (c *DataContainer) Has(key intern.ID) bool {
	if c == nil {
		return false
	}
	_, ok := c.data[key]
	return ok
}

// Remove deletes key if present.
func (c *DataContainer) Remove(key intern.ID) {
	if c == nil {
		return
	}
	delete(c.data, key)
}

// Len returns the number of entries in c.
func (c *DataContainer) Len() int {
	if c == nil {
		return 0
	}
	return len(c.data)
}

// ForEach calls fn once per entry. Iteration order is unspecified.
func (c *DataContainer) ForEach(fn func(key intern.ID, v Value)) {
	if c == nil {
		return
	}
	for k, v := range c.data {
		fn(k, v)
	}
}

// Clone deep-copies c, including nested containers, so mutating the copy
// never affects the original.
func (c *DataContainer) Clone() *DataContainer {
	if c == nil {
		return nil
	}
	out := &DataContainer{data: make(map[intern.ID]Value, len(c.data))}
	for k, v := range c.data {
		out.data[k] = v.clone()
	}
	return out
}

// Equal reports whether c and other hold the same set of keys mapped to
// equal values. Both nil and empty containers compare equal.
func (c *DataContainer) Equal(other *DataContainer) bool {
	if c.Len() != other.Len() {
		return false
	}
	if c.Len() == 0 {
		return true
	}
	for k, v := range c.data {
		ov, ok := other.data[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
