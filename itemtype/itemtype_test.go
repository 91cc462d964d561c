package itemtype_test

import (
	"testing"

	"github.com/finevox/voxelcore/itemtype"
)

func TestRegisterAndGet(t *testing.T) {
	r := itemtype.NewRegistry()
	stone := r.Register("stone_pickaxe", 1, nil)

	got, ok := r.Get(stone.ID)
	if !ok {
		t.Fatalf("expected stone_pickaxe to be registered")
	}
	if got.MaxStack != 1 || got.Name != "stone_pickaxe" {
		t.Fatalf("got %+v", got)
	}
}

func TestReRegisterOverwrites(t *testing.T) {
	r := itemtype.NewRegistry()
	first := r.Register("torch", 64, nil)
	second := r.Register("torch", 16, "relit")

	if first.ID != second.ID {
		t.Fatalf("re-registering the same name should reuse its interned ID")
	}
	got, _ := r.Get(first.ID)
	if got.MaxStack != 16 || got.Handler != "relit" {
		t.Fatalf("re-registration did not update in place: %+v", got)
	}
}
