// Command voxelcore-inspect is a small world-directory diagnostic tool,
// in the spirit of the teacher's cmd/inspect_palette: point it at a
// world directory and it prints what's there (config, the persistent
// name table, and, given a column coordinate, that column's region-file
// entry and decoded contents) rather than driving any part of the
// running game.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/nameregistry"
	"github.com/finevox/voxelcore/regionfile"
	"github.com/finevox/voxelcore/voxelconfig"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: voxelcore-inspect <world-dir> [columnX columnZ]")
		os.Exit(2)
	}
	worldDir := os.Args[1]

	inspectConfig(worldDir)
	registry := inspectNameRegistry(worldDir)

	if len(os.Args) >= 4 {
		x, err := strconv.Atoi(os.Args[2])
		if err != nil {
			panic(err)
		}
		z, err := strconv.Atoi(os.Args[3])
		if err != nil {
			panic(err)
		}
		inspectColumn(worldDir, registry, cube.ColumnPos{X: int32(x), Z: int32(z)})
	}
}

func inspectConfig(worldDir string) {
	f, err := os.Open(worldDir + "/config.yaml")
	if err != nil {
		fmt.Printf("config.yaml: %v\n", err)
		return
	}
	defer f.Close()

	doc, err := voxelconfig.Parse(f)
	if err != nil {
		panic(err)
	}
	fmt.Printf("config.yaml: %d entries\n", len(doc.Nodes))
	for _, key := range []string{"tick_rate", "random_ticks_per_chunk", "activity_timeout_ms"} {
		if v, ok := doc.Get(key); ok {
			fmt.Printf("  %s = %s\n", key, v)
		}
	}
}

// inspectNameRegistry loads worldDir/names.cbor, if present, and prints
// its contents as a TOML audit dump, reusing Registry.DumpTOML rather
// than hand-rolling a print format. It returns the loaded registry (empty
// if no file was found) so a subsequent column inspection can resolve
// saved PersistentIDs back to names.
func inspectNameRegistry(worldDir string) *nameregistry.Registry {
	registry := nameregistry.New()

	raw, err := os.ReadFile(worldDir + "/names.cbor")
	if err != nil {
		fmt.Printf("names.cbor: %v\n", err)
		return registry
	}
	if err := registry.UnmarshalCBOR(raw); err != nil {
		panic(err)
	}
	fmt.Printf("names.cbor: %d registered names\n", registry.Len())

	dump, err := registry.DumpTOML()
	if err != nil {
		panic(err)
	}
	os.Stdout.Write(dump)
	return registry
}

// inspectColumn opens the region file owning pos under worldDir/regions
// and prints its TOC entry plus a decoded summary, without going through
// colmgr or a game.Session: this is an offline read, the same way
// schematic.Capture reads a live World directly.
func inspectColumn(worldDir string, registry *nameregistry.Registry, pos cube.ColumnPos) {
	root := worldDir + "/regions"
	rc := regionfile.RegionCoordOf(pos)
	dataPath, tocPath := regionfile.FileNames(root, rc)

	region, err := regionfile.Open(dataPath, tocPath)
	if err != nil {
		panic(err)
	}
	defer region.Close()

	if !region.Has(pos) {
		fmt.Printf("column %+v: not present in region %+v\n", pos, rc)
		return
	}

	raw, ok, err := region.Read(pos)
	if err != nil {
		panic(err)
	}
	if !ok {
		fmt.Printf("column %+v: present in TOC but unreadable\n", pos)
		return
	}

	col, err := regionfile.DecodeColumn(pos, raw, registry)
	if err != nil {
		panic(err)
	}
	fmt.Printf("column %+v: %d subchunks, %d non-air blocks\n", pos, col.SubChunkCount(), col.NonAirCount())
	fmt.Printf("  region %+v holds %d occupied cells total\n", rc, len(region.Entries()))
}
