package regionfile_test

import (
	"testing"

	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/nameregistry"
	"github.com/finevox/voxelcore/regionfile"
	"github.com/finevox/voxelcore/world"
)

func TestEncodeDecodeColumnRoundTrip(t *testing.T) {
	pos := cube.ColumnPos{X: 1, Z: -2}
	col := world.NewColumn(pos)

	stone := intern.BlockType("roundtrip_test_stone")
	dirt := intern.BlockType("roundtrip_test_dirt")
	col.SetBlock(0, 0, 0, stone)
	col.SetBlock(1, 0, 0, dirt)
	col.SetBlock(5, 20, 5, stone)

	registry := nameregistry.New()
	encoded, err := regionfile.EncodeColumn(col, registry)
	if err != nil {
		t.Fatalf("EncodeColumn: %v", err)
	}

	decoded, err := regionfile.DecodeColumn(pos, encoded, registry)
	if err != nil {
		t.Fatalf("DecodeColumn: %v", err)
	}

	if decoded.Position() != pos {
		t.Fatalf("Position = %+v, want %+v", decoded.Position(), pos)
	}
	if got := decoded.Block(0, 0, 0); got != stone {
		t.Fatalf("Block(0,0,0) = %v, want %v", got, stone)
	}
	if got := decoded.Block(1, 0, 0); got != dirt {
		t.Fatalf("Block(1,0,0) = %v, want %v", got, dirt)
	}
	if got := decoded.Block(5, 20, 5); got != stone {
		t.Fatalf("Block(5,20,5) = %v, want %v", got, stone)
	}
	if got := decoded.Block(2, 0, 0); got != intern.AirBlockType {
		t.Fatalf("Block(2,0,0) = %v, want air", got)
	}
}

func TestEncodeDecodePreservesColumnData(t *testing.T) {
	pos := cube.ColumnPos{X: 0, Z: 0}
	col := world.NewColumn(pos)
	col.SetBlock(0, 0, 0, intern.BlockType("roundtrip_test_marker"))
	col.GetOrCreateData().SetByName("biome", container.String("plains"))

	registry := nameregistry.New()
	encoded, err := regionfile.EncodeColumn(col, registry)
	if err != nil {
		t.Fatalf("EncodeColumn: %v", err)
	}
	decoded, err := regionfile.DecodeColumn(pos, encoded, registry)
	if err != nil {
		t.Fatalf("DecodeColumn: %v", err)
	}
	if !decoded.HasData() {
		t.Fatalf("expected column data to survive round trip")
	}
	v, ok := decoded.Data().GetByName("biome")
	if !ok {
		t.Fatalf("expected biome key to survive round trip")
	}
	s, _ := v.String()
	if s != "plains" {
		t.Fatalf("biome = %q, want plains", s)
	}
}
