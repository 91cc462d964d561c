package regionfile

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/pierrec/lz4/v4"

	"github.com/finevox/voxelcore/chunk"
	"github.com/finevox/voxelcore/container"
	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/intern"
	"github.com/finevox/voxelcore/nameregistry"
	"github.com/finevox/voxelcore/world"
)

// subchunkRecord is one subchunk's on-disk CBOR representation (spec.md
// §4.4): its Y index, a palette of per-world persistent IDs (so saved
// data survives runtime ID reassignment across sessions, per
// nameregistry), the bit width the block array was packed at, and the
// packed block array itself.
type subchunkRecord struct {
	Y       int32                        `cbor:"y"`
	Palette []nameregistry.PersistentID `cbor:"palette"`
	Bits    uint8                        `cbor:"bits"`
	Data    []byte                       `cbor:"data"`
}

// columnRecord is the full per-column CBOR schema spec.md §4.4 describes:
// a version tag, the 256-entry heightmap, every non-empty subchunk, and
// optional column-level metadata.
type columnRecord struct {
	Version    uint32           `cbor:"version"`
	Heightmap  [256]int32       `cbor:"heightmap"`
	Subchunks  []subchunkRecord `cbor:"subchunks"`
	ColumnData []byte           `cbor:"column_data,omitempty"`
}

// columnRecordVersion is bumped whenever the on-disk schema changes
// incompatibly; DecodeColumn rejects anything else.
const columnRecordVersion = 1

// EncodeColumn serializes col into the chunk-payload byte slice Region.
// Write stores (magic, flags, LZ4-compressed CBOR body). Block types are
// translated through registry so the palette is save-stable independent
// of process-local intern.BlockTypeID assignment order.
func EncodeColumn(col *world.Column, registry *nameregistry.Registry) ([]byte, error) {
	col.CompactAll()

	rec := columnRecord{Version: columnRecordVersion, Heightmap: col.HeightmapData()}
	if col.HasData() {
		raw, err := col.Data().ToCBOR()
		if err != nil {
			return nil, fmt.Errorf("regionfile: encode column data: %w", err)
		}
		rec.ColumnData = raw
	}

	col.ForEachSubChunk(func(y int32, s *chunk.SubChunk) {
		entries := s.Palette().Entries()
		persistent := make([]nameregistry.PersistentID, len(entries))
		for i, id := range entries {
			persistent[i] = registry.IDFor(id.Name())
		}

		bits := s.Palette().BitsForSerialization()
		if bits == 0 {
			bits = 1 // a single-entry palette still needs 1 bit per spec's packing scheme
		}
		packed := packBits(s.Blocks()[:], bits)

		rec.Subchunks = append(rec.Subchunks, subchunkRecord{
			Y:       y,
			Palette: persistent,
			Bits:    uint8(bits),
			Data:    packed,
		})
	})

	body, err := cbor.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("regionfile: encode cbor: %w", err)
	}
	return wrapChunk(body), nil
}

// DecodeColumn reverses EncodeColumn, reconstructing Column's subchunks
// via chunk.LoadSubChunk and resolving persistent IDs back to runtime
// BlockTypeIDs through registry.
func DecodeColumn(pos cube.ColumnPos, raw []byte, registry *nameregistry.Registry) (*world.Column, error) {
	body, err := unwrapChunk(raw)
	if err != nil {
		return nil, err
	}

	var rec columnRecord
	if err := cbor.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("regionfile: decode cbor: %w", err)
	}
	if rec.Version != columnRecordVersion {
		return nil, fmt.Errorf("regionfile: %w: unknown column record version %d", ErrCorrupt, rec.Version)
	}

	col := world.NewColumn(pos)
	col.SetHeightmapData(rec.Heightmap)
	if len(rec.ColumnData) > 0 {
		dc, err := container.FromCBOR(rec.ColumnData)
		if err != nil {
			return nil, fmt.Errorf("regionfile: decode column data: %w", err)
		}
		*col.GetOrCreateData() = *dc
	}

	for _, sr := range rec.Subchunks {
		paletteIDs := make([]intern.BlockTypeID, len(sr.Palette))
		for i, pid := range sr.Palette {
			name, ok := registry.NameFor(pid)
			if !ok {
				return nil, fmt.Errorf("regionfile: %w: unresolved persistent id %d", ErrCorrupt, pid)
			}
			paletteIDs[i] = intern.BlockType(name)
		}

		var blocks [chunk.Volume]chunk.LocalIndex
		unpackBits(sr.Data, int(sr.Bits), blocks[:])

		s := chunk.LoadSubChunk(paletteIDs, blocks)
		*col.GetOrCreateSubChunk(sr.Y) = *s
	}
	col.ResetLightInitialized() // light data is not persisted; game re-propagates on first touch
	return col, nil
}

// wrapChunk prepends the [u32 decompressed size] header LZ4 block
// decompression needs (lz4.UncompressBlock requires a pre-sized
// destination) and compresses body, producing the full chunk payload
// Region.Write stores.
func wrapChunk(body []byte) []byte {
	compressed := make([]byte, lz4.CompressBlockBound(len(body)))
	var compressor lz4.Compressor
	n, err := compressor.CompressBlock(body, compressed)
	if err != nil || n == 0 || n >= len(body) {
		// Incompressible or too small to benefit: store raw rather than
		// pay LZ4's worst-case expansion.
		out := make([]byte, chunkHeaderSize+4+len(body))
		binary.LittleEndian.PutUint32(out[0:4], dataMagic)
		binary.LittleEndian.PutUint32(out[4:8], 0)
		binary.LittleEndian.PutUint32(out[8:12], uint32(len(body)))
		copy(out[12:], body)
		return out
	}

	out := make([]byte, chunkHeaderSize+4+n)
	binary.LittleEndian.PutUint32(out[0:4], dataMagic)
	binary.LittleEndian.PutUint32(out[4:8], FlagCompressedLZ4)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(body)))
	copy(out[12:], compressed[:n])
	return out
}

// unwrapChunk reverses wrapChunk.
func unwrapChunk(raw []byte) ([]byte, error) {
	if len(raw) < chunkHeaderSize+4 {
		return nil, fmt.Errorf("regionfile: %w: truncated chunk header", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(raw[0:4]) != dataMagic {
		return nil, fmt.Errorf("regionfile: %w: bad chunk magic", ErrCorrupt)
	}
	flags := binary.LittleEndian.Uint32(raw[4:8])
	decompressedSize := binary.LittleEndian.Uint32(raw[8:12])
	payload := raw[12:]

	if flags&FlagCompressedLZ4 == 0 {
		if uint32(len(payload)) != decompressedSize {
			return nil, fmt.Errorf("regionfile: %w: raw payload size mismatch", ErrCorrupt)
		}
		return payload, nil
	}

	body := make([]byte, decompressedSize)
	n, err := lz4.UncompressBlock(payload, body)
	if err != nil {
		return nil, fmt.Errorf("regionfile: %w: lz4 decompress: %v", ErrCorrupt, err)
	}
	return body[:n], nil
}

// packBits bit-packs indices (each < 2^bits) into a byte slice, least
// -significant bit first, matching the layout original_source's block
// -array writer uses so a region file produced by one is readable by the
// other in spirit (no real cross-format compatibility is required, but
// the packing scheme is the same one described for in-memory palettes).
func packBits(indices []chunk.LocalIndex, bits int) []byte {
	totalBits := len(indices) * bits
	out := make([]byte, (totalBits+7)/8)

	bitPos := 0
	for _, idx := range indices {
		v := uint32(idx)
		for b := 0; b < bits; b++ {
			if v&(1<<uint(b)) != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return out
}

// unpackBits is the inverse of packBits, filling out (which must already
// be sized chunk.Volume) from data.
func unpackBits(data []byte, bits int, out []chunk.LocalIndex) {
	if bits == 0 {
		return
	}
	bitPos := 0
	for i := range out {
		var v uint32
		for b := 0; b < bits; b++ {
			byteIdx := bitPos / 8
			if byteIdx < len(data) && data[byteIdx]&(1<<uint(bitPos%8)) != 0 {
				v |= 1 << uint(b)
			}
			bitPos++
		}
		out[i] = chunk.LocalIndex(v)
	}
}
