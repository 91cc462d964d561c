package intern_test

import (
	"testing"

	"github.com/finevox/voxelcore/intern"
)

func TestInternReservedAirIsZero(t *testing.T) {
	in := intern.New()
	if got := in.Intern("air"); got != intern.Air {
		t.Fatalf("air interned to %d, want %d", got, intern.Air)
	}
}

func TestInternIdempotent(t *testing.T) {
	in := intern.New()
	a := in.Intern("stone")
	b := in.Intern("stone")
	if a != b {
		t.Fatalf("interning the same string twice produced different IDs: %d != %d", a, b)
	}
	name, ok := in.Lookup(a)
	if !ok || name != "stone" {
		t.Fatalf("Lookup(%d) = (%q, %v), want (\"stone\", true)", a, name, ok)
	}
}

func TestInternDistinctStrings(t *testing.T) {
	in := intern.New()
	a := in.Intern("stone")
	b := in.Intern("dirt")
	if a == b {
		t.Fatalf("distinct strings interned to the same ID %d", a)
	}
}

func TestLookupOutOfRange(t *testing.T) {
	in := intern.New()
	if _, ok := in.Lookup(intern.ID(9999)); ok {
		t.Fatalf("Lookup of an unassigned ID should report false")
	}
}

func TestTypedNewtypesDisambiguate(t *testing.T) {
	bt := intern.BlockType("chest")
	it := intern.ItemType("chest")
	// Both resolve to the same underlying name but are distinct Go types,
	// which is the point: this line would not compile if BlockTypeID and
	// ItemTypeID were the same type and callers mixed them up.
	if bt.Name() != it.Name() {
		t.Fatalf("expected same underlying name, got %q vs %q", bt.Name(), it.Name())
	}
}
