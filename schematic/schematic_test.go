package schematic_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/schematic"
	"github.com/finevox/voxelcore/world"
)

func buildTestWorld(t *testing.T) (*world.World, intern.BlockTypeID, intern.BlockTypeID) {
	t.Helper()
	w := world.New()
	stone := intern.BlockType("schematic_test:stone")
	dirt := intern.BlockType("schematic_test:dirt")

	col := w.GetOrCreateColumn(cube.ColumnPos{X: 0, Z: 0})
	sc := col.GetOrCreateSubChunk(0)
	sc.SetBlock(0, 0, 0, stone)
	sc.SetBlock(1, 0, 0, dirt)
	dc := container.New()
	dc.SetByName("label", container.String("chest-0"))
	sc.SetBlockData(int32(cube.BlockPos{X: 1, Y: 0, Z: 0}.LocalIndex()), dc)

	return w, stone, dirt
}

func TestCapturePasteRoundTripsBlocksAndData(t *testing.T) {
	w, stone, dirt := buildTestWorld(t)

	min := cube.BlockPos{X: 0, Y: 0, Z: 0}
	max := cube.BlockPos{X: 1, Y: 0, Z: 0}
	s, err := schematic.Capture(w, min, max)
	require.NoError(t, err)
	assert.Equal(t, cube.BlockPos{X: 2, Y: 1, Z: 1}, s.Size)

	dst := world.New()
	s.Paste(dst, cube.BlockPos{X: 10, Y: 20, Z: 30})

	assert.Equal(t, stone, dst.Block(cube.BlockPos{X: 10, Y: 20, Z: 30}))
	assert.Equal(t, dirt, dst.Block(cube.BlockPos{X: 11, Y: 20, Z: 30}))

	col, ok := dst.Column(cube.ColumnPos{X: 0, Z: 1}) // x=11 -> 0, z=30 -> 1
	require.True(t, ok)
	sc, ok := col.SubChunk(1) // y=20 -> chunkY 1
	require.True(t, ok)
	dc, ok := sc.BlockData(int32(cube.BlockPos{X: 11, Y: 20, Z: 30}.LocalIndex()))
	require.True(t, ok)
	v, ok := dc.GetByName("label")
	require.True(t, ok)
	str, _ := v.String()
	assert.Equal(t, "chest-0", str)
}

func TestCaptureSkipsAirPositions(t *testing.T) {
	w, _, _ := buildTestWorld(t)
	s, err := schematic.Capture(w, cube.BlockPos{X: 0, Y: 0, Z: 0}, cube.BlockPos{X: 3, Y: 0, Z: 0})
	require.NoError(t, err)

	_, ok := s.At(cube.BlockPos{X: 2, Y: 0, Z: 0})
	assert.False(t, ok, "position 2 was never placed and should read back as air/absent")
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	w, stone, dirt := buildTestWorld(t)
	s, err := schematic.Capture(w, cube.BlockPos{X: 0, Y: 0, Z: 0}, cube.BlockPos{X: 1, Y: 0, Z: 0})
	require.NoError(t, err)

	raw, err := schematic.Serialize(s)
	require.NoError(t, err)

	got, err := schematic.Deserialize(raw)
	require.NoError(t, err)
	assert.Equal(t, s.Size, got.Size)

	snap0, ok := got.At(cube.BlockPos{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	assert.Equal(t, stone.Name(), snap0.TypeName)

	snap1, ok := got.At(cube.BlockPos{X: 1, Y: 0, Z: 0})
	require.True(t, ok)
	assert.Equal(t, dirt.Name(), snap1.TypeName)
	require.NotNil(t, snap1.ExtraData)
	v, ok := snap1.ExtraData.GetByName("label")
	require.True(t, ok)
	str, _ := v.String()
	assert.Equal(t, "chest-0", str)
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	_, err := schematic.Deserialize([]byte{0, 1, 2, 3, 0, 0, 0, 0})
	assert.Error(t, err)
}

func TestSaveLoadRoundTripsThroughDisk(t *testing.T) {
	w, stone, _ := buildTestWorld(t)
	s, err := schematic.Capture(w, cube.BlockPos{X: 0, Y: 0, Z: 0}, cube.BlockPos{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixture.vxsc")
	require.NoError(t, schematic.Save(s, path))

	got, err := schematic.Load(path)
	require.NoError(t, err)
	snap, ok := got.At(cube.BlockPos{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	assert.Equal(t, stone.Name(), snap.TypeName)
}
