package schematic

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/pierrec/lz4/v4"

	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/cube"
)

// magic is the 4-byte file signature original_source calls SCHEMATIC_MAGIC
// ("VXSC" read big-endian; written little-endian, the file's first four
// bytes are "CSXV"), and formatVersion is its FORMAT_VERSION.
const (
	magic         uint32 = 0x56585343 // "VXSC"
	formatVersion int32  = 1
)

// blockRecord is one non-air position's on-disk form: a local position,
// its type by name, rotation packed to the 24-entry cube-rotation index,
// a displacement, and an optional CBOR-encoded data sidecar.
type blockRecord struct {
	X         int32  `cbor:"x"`
	Y         int32  `cbor:"y"`
	Z         int32  `cbor:"z"`
	TypeName  string `cbor:"type"`
	Rotation  uint8  `cbor:"rot"`
	DX        int32  `cbor:"dx"`
	DY        int32  `cbor:"dy"`
	DZ        int32  `cbor:"dz"`
	ExtraData []byte `cbor:"data,omitempty"`
}

// schematicRecord is the full CBOR payload the VXSC header wraps.
type schematicRecord struct {
	Version int32         `cbor:"version"`
	SizeX   int32         `cbor:"sx"`
	SizeY   int32         `cbor:"sy"`
	SizeZ   int32         `cbor:"sz"`
	Blocks  []blockRecord `cbor:"blocks"`
}

// Serialize encodes s into the VXSC wire format: a 4-byte magic, a 4-byte
// little-endian compressed-payload size, then an LZ4 block holding the
// CBOR-encoded schematicRecord.
func Serialize(s *Schematic) ([]byte, error) {
	rec := schematicRecord{
		Version: formatVersion,
		SizeX:   s.Size.X, SizeY: s.Size.Y, SizeZ: s.Size.Z,
	}
	var err error
	s.ForEach(func(local cube.BlockPos, snap BlockSnapshot) {
		if err != nil {
			return
		}
		br := blockRecord{
			X: local.X, Y: local.Y, Z: local.Z,
			TypeName: snap.TypeName,
			Rotation: snap.Rotation.Index(),
			DX:       snap.Displacement.X, DY: snap.Displacement.Y, DZ: snap.Displacement.Z,
		}
		if snap.ExtraData != nil {
			var raw []byte
			raw, err = snap.ExtraData.ToCBOR()
			if err != nil {
				err = fmt.Errorf("schematic: encode block data: %w", err)
				return
			}
			br.ExtraData = raw
		}
		rec.Blocks = append(rec.Blocks, br)
	})
	if err != nil {
		return nil, err
	}

	body, err := cbor.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("schematic: encode cbor: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(body)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(body, compressed)
	if err != nil {
		return nil, fmt.Errorf("schematic: lz4 compress: %w", err)
	}
	if n == 0 {
		// lz4 reports n==0 when body didn't compress (e.g. too small);
		// store it as its own "compressed" block by copying it raw.
		n = copy(compressed, body)
	}

	out := make([]byte, 8+n)
	binary.LittleEndian.PutUint32(out[0:4], magic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(n))
	copy(out[8:], compressed[:n])
	return out, nil
}

// Deserialize reverses Serialize.
func Deserialize(raw []byte) (*Schematic, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("schematic: truncated header")
	}
	if binary.LittleEndian.Uint32(raw[0:4]) != magic {
		return nil, fmt.Errorf("schematic: bad magic")
	}
	compressedSize := binary.LittleEndian.Uint32(raw[4:8])
	payload := raw[8:]
	if uint32(len(payload)) != compressedSize {
		return nil, fmt.Errorf("schematic: compressed size mismatch")
	}

	// The decompressed size isn't stored: schematics are small clipboard
	// payloads, not region-file-sized data, so growing a scratch buffer
	// is cheap enough that the extra on-disk header regionfile.codec.go
	// needs isn't worth carrying here too.
	body, err := decompressGrowing(payload)
	if err != nil {
		return nil, fmt.Errorf("schematic: lz4 decompress: %w", err)
	}

	var rec schematicRecord
	if err := cbor.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("schematic: decode cbor: %w", err)
	}
	if rec.Version != formatVersion {
		return nil, fmt.Errorf("schematic: unknown format version %d", rec.Version)
	}

	s := New(cube.BlockPos{X: rec.SizeX, Y: rec.SizeY, Z: rec.SizeZ})
	for _, br := range rec.Blocks {
		snap := BlockSnapshot{
			TypeName:     br.TypeName,
			Rotation:     cube.ByIndex(br.Rotation),
			Displacement: cube.BlockPos{X: br.DX, Y: br.DY, Z: br.DZ},
		}
		if len(br.ExtraData) > 0 {
			dc, err := container.FromCBOR(br.ExtraData)
			if err != nil {
				return nil, fmt.Errorf("schematic: decode block data: %w", err)
			}
			snap.ExtraData = dc
		}
		s.blocks[cube.BlockPos{X: br.X, Y: br.Y, Z: br.Z}] = snap
	}
	return s, nil
}

func decompressGrowing(payload []byte) ([]byte, error) {
	size := len(payload) * 4
	if size < 4096 {
		size = 4096
	}
	for {
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, dst)
		if err == nil {
			return dst[:n], nil
		}
		if size > 1<<28 {
			return nil, err
		}
		size *= 2
	}
}

// Save writes s to path in the VXSC format.
func Save(s *Schematic, path string) error {
	raw, err := Serialize(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("schematic: save %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes the VXSC file at path.
func Load(path string) (*Schematic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schematic: load %s: %w", path, err)
	}
	return Deserialize(raw)
}
