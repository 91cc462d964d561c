// Package regionfile implements the 32x32-column on-disk persistence
// unit described in spec.md §4.4/§6: a ".dat" data file, a
// journal-style ".toc" table of contents recording every write (the
// highest-timestamped entry per cell is authoritative), a best-fit free
// -span allocator over the data file's reclaimed extents, and the
// IOManager that drives region access from two dedicated worker
// threads.
//
// Grounded on original_source/include/finevox/core/region_file.hpp for
// the free-span allocator's tie-breaking (ties broken by lowest offset)
// and merge-on-free coalescing behaviour, which spec.md §4.4 only
// gestures at ("a sorted multiset of (offset,size) spans ordered by
// size (for best-fit)").
package regionfile

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/finevox/voxelcore/cube"
)

// RegionSize is the number of columns along one edge of a region.
const RegionSize = 32

const (
	dataMagic = 0x56584348 // "VXCH"
	tocMagic  = 0x56585443 // "VXTC"
	tocVersion = 1

	// FlagCompressedLZ4 marks a data chunk's payload as LZ4-compressed.
	FlagCompressedLZ4 uint32 = 1 << 0

	chunkHeaderSize = 8  // magic + flags
	tocEntrySize    = 24 // localX(2) + localZ(2) + offset(8) + size(4) + timestamp(8)
	tocHeaderSize   = 8  // magic + version
)

// RegionCoord identifies a region by its (rx, rz) coordinate.
type RegionCoord struct {
	X, Z int32
}

// floorDiv is integer division that rounds toward negative infinity,
// needed because Go's / truncates toward zero and column coordinates
// are signed.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// RegionCoordOf returns the region that owns col.
func RegionCoordOf(col cube.ColumnPos) RegionCoord {
	return RegionCoord{X: floorDiv(col.X, RegionSize), Z: floorDiv(col.Z, RegionSize)}
}

// localCoordOf returns col's position within its region, each in [0,32).
func localCoordOf(col cube.ColumnPos) (lx, lz uint16) {
	return uint16(floorMod(col.X, RegionSize)), uint16(floorMod(col.Z, RegionSize))
}

func cellKey(lx, lz uint16) uint16 { return lx<<6 | lz }

// FileNames returns the data and TOC file names for rc under root,
// matching spec.md §6's layout ("regions/<dim>/r.<rx>.<rz>.dat/.toc").
func FileNames(root string, rc RegionCoord) (dataPath, tocPath string) {
	base := fmt.Sprintf("%s/r.%d.%d", root, rc.X, rc.Z)
	return base + ".dat", base + ".toc"
}

// TocEntry is one journal row: the authoritative location of one column
// cell's most recent write. The highest Timestamp among entries sharing
// (LocalX, LocalZ) wins (spec.md §4.4).
type TocEntry struct {
	LocalX, LocalZ uint16
	Offset         uint64
	Size           uint32
	Timestamp      uint64
}

func (e TocEntry) encode() []byte {
	buf := make([]byte, tocEntrySize)
	binary.LittleEndian.PutUint16(buf[0:2], e.LocalX)
	binary.LittleEndian.PutUint16(buf[2:4], e.LocalZ)
	binary.LittleEndian.PutUint64(buf[4:12], e.Offset)
	binary.LittleEndian.PutUint32(buf[12:16], e.Size)
	binary.LittleEndian.PutUint64(buf[16:24], e.Timestamp)
	return buf
}

func decodeTocEntry(buf []byte) TocEntry {
	return TocEntry{
		LocalX:    binary.LittleEndian.Uint16(buf[0:2]),
		LocalZ:    binary.LittleEndian.Uint16(buf[2:4]),
		Offset:    binary.LittleEndian.Uint64(buf[4:12]),
		Size:      binary.LittleEndian.Uint32(buf[12:16]),
		Timestamp: binary.LittleEndian.Uint64(buf[16:24]),
	}
}

// FreeSpan is a reclaimed, reusable extent of the data file.
type FreeSpan struct {
	Offset uint64
	Size   uint32
}

// Region is one open region file pair (.dat + .toc), with an in-memory
// index rebuilt at Open time and a free-span allocator tracking
// reclaimed extents.
type Region struct {
	mu sync.Mutex

	dataFile *os.File
	tocFile  *os.File

	dataEnd   uint64
	index     map[uint16]TocEntry
	freeSpans []FreeSpan
}

// Open opens (creating if necessary) the region file pair at dataPath/
// tocPath and rebuilds its in-memory index and free-span list by
// replaying the TOC in order: each entry superseded by a later one for
// the same cell contributes its extent to the free list, since that
// physical space is now garbage (spec.md §4.4: "the authoritative entry
// for a cell is the one with the highest timestamp").
func Open(dataPath, tocPath string) (*Region, error) {
	dataFile, err := os.OpenFile(dataPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("regionfile: open data file: %w", err)
	}
	tocFile, err := os.OpenFile(tocPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		dataFile.Close()
		return nil, fmt.Errorf("regionfile: open toc file: %w", err)
	}

	r := &Region{dataFile: dataFile, tocFile: tocFile, index: make(map[uint16]TocEntry)}
	if err := r.loadTOC(); err != nil {
		dataFile.Close()
		tocFile.Close()
		return nil, err
	}
	info, err := dataFile.Stat()
	if err != nil {
		dataFile.Close()
		tocFile.Close()
		return nil, fmt.Errorf("regionfile: stat data file: %w", err)
	}
	r.dataEnd = uint64(info.Size())
	return r, nil
}

// loadTOC reads every TOC entry in file order, building the latest-per
// -cell index and reclaiming superseded extents as free spans.
func (r *Region) loadTOC() error {
	info, err := r.tocFile.Stat()
	if err != nil {
		return fmt.Errorf("regionfile: stat toc file: %w", err)
	}
	if info.Size() == 0 {
		header := make([]byte, tocHeaderSize)
		binary.LittleEndian.PutUint32(header[0:4], tocMagic)
		binary.LittleEndian.PutUint32(header[4:8], tocVersion)
		if _, err := r.tocFile.WriteAt(header, 0); err != nil {
			return fmt.Errorf("regionfile: write toc header: %w", err)
		}
		return nil
	}

	buf := make([]byte, info.Size())
	if _, err := r.tocFile.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("regionfile: read toc file: %w", err)
	}
	if len(buf) < tocHeaderSize || binary.LittleEndian.Uint32(buf[0:4]) != tocMagic {
		return fmt.Errorf("regionfile: %w: bad toc magic", ErrCorrupt)
	}
	if version := binary.LittleEndian.Uint32(buf[4:8]); version != tocVersion {
		return fmt.Errorf("regionfile: %w: unknown toc version %d", ErrCorrupt, version)
	}

	body := buf[tocHeaderSize:]
	for off := 0; off+tocEntrySize <= len(body); off += tocEntrySize {
		entry := decodeTocEntry(body[off : off+tocEntrySize])
		key := cellKey(entry.LocalX, entry.LocalZ)
		if prev, ok := r.index[key]; ok {
			if entry.Timestamp >= prev.Timestamp {
				r.addFreeSpanLocked(prev.Offset, prev.Size)
				r.index[key] = entry
			} else {
				r.addFreeSpanLocked(entry.Offset, entry.Size)
			}
			continue
		}
		r.index[key] = entry
	}
	return nil
}

// Write compresses/encodes nothing itself; it stores the already-built
// chunk payload (magic+flags+body, see EncodeColumn) for col, freeing the
// previous extent (if any) and allocating the new one via best-fit.
func (r *Region) Write(col cube.ColumnPos, chunk []byte, timestamp uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lx, lz := localCoordOf(col)
	key := cellKey(lx, lz)
	if old, ok := r.index[key]; ok {
		r.addFreeSpanLocked(old.Offset, old.Size)
	}

	size := uint32(len(chunk))
	offset := r.allocateLocked(size)
	if _, err := r.dataFile.WriteAt(chunk, int64(offset)); err != nil {
		return fmt.Errorf("regionfile: write chunk: %w", err)
	}

	entry := TocEntry{LocalX: lx, LocalZ: lz, Offset: offset, Size: size, Timestamp: timestamp}
	if err := r.appendTOCLocked(entry); err != nil {
		return err
	}
	r.index[key] = entry
	return nil
}

// Read returns the raw chunk bytes (magic+flags+body) stored for col, or
// ok=false if nothing is stored there.
func (r *Region) Read(col cube.ColumnPos) (chunk []byte, ok bool, err error) {
	lx, lz := localCoordOf(col)
	r.mu.Lock()
	entry, present := r.index[cellKey(lx, lz)]
	r.mu.Unlock()
	if !present {
		return nil, false, nil
	}

	buf := make([]byte, entry.Size)
	if _, err := r.dataFile.ReadAt(buf, int64(entry.Offset)); err != nil {
		return nil, false, fmt.Errorf("regionfile: read chunk at %+v: %w", col, err)
	}
	return buf, true, nil
}

// Has reports whether col has any stored entry, without reading it.
func (r *Region) Has(col cube.ColumnPos) bool {
	lx, lz := localCoordOf(col)
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.index[cellKey(lx, lz)]
	return ok
}

// Entries returns every occupied cell's TOC entry, for diagnostic tools
// (voxelcore-inspect) that need to list a region's contents without
// reading every column's payload.
func (r *Region) Entries() []TocEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TocEntry, 0, len(r.index))
	for _, e := range r.index {
		out = append(out, e)
	}
	return out
}

// allocateLocked finds the smallest free span that fits size (best
// -fit), breaking ties by the lowest offset, or appends at the current
// end of the data file if none fits. Callers hold r.mu.
func (r *Region) allocateLocked(size uint32) uint64 {
	best := -1
	for i, sp := range r.freeSpans {
		if sp.Size < size {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		cur := r.freeSpans[best]
		if sp.Size < cur.Size || (sp.Size == cur.Size && sp.Offset < cur.Offset) {
			best = i
		}
	}
	if best == -1 {
		offset := r.dataEnd
		r.dataEnd += uint64(size)
		return offset
	}

	sp := r.freeSpans[best]
	r.freeSpans = append(r.freeSpans[:best], r.freeSpans[best+1:]...)
	if sp.Size > size {
		r.addFreeSpanLocked(sp.Offset+uint64(size), sp.Size-size)
	}
	return sp.Offset
}

// addFreeSpanLocked inserts a reclaimed extent, coalescing it with any
// free span it is directly adjacent to so fragmentation doesn't
// accumulate across repeated overwrites. Callers hold r.mu.
func (r *Region) addFreeSpanLocked(offset uint64, size uint32) {
	if size == 0 {
		return
	}
	merged := FreeSpan{Offset: offset, Size: size}
	for changed := true; changed; {
		changed = false
		kept := r.freeSpans[:0]
		for _, sp := range r.freeSpans {
			switch {
			case sp.Offset+uint64(sp.Size) == merged.Offset:
				merged.Offset = sp.Offset
				merged.Size += sp.Size
				changed = true
			case merged.Offset+uint64(merged.Size) == sp.Offset:
				merged.Size += sp.Size
				changed = true
			default:
				kept = append(kept, sp)
			}
		}
		r.freeSpans = kept
	}
	r.freeSpans = append(r.freeSpans, merged)
}

// appendTOCLocked writes entry to the end of the TOC file. Callers hold
// r.mu.
func (r *Region) appendTOCLocked(entry TocEntry) error {
	info, err := r.tocFile.Stat()
	if err != nil {
		return fmt.Errorf("regionfile: stat toc file: %w", err)
	}
	if _, err := r.tocFile.WriteAt(entry.encode(), info.Size()); err != nil {
		return fmt.Errorf("regionfile: append toc entry: %w", err)
	}
	return nil
}

// CompactTOC rewrites the TOC file keeping only the latest entry per
// cell, discarding superseded history (spec.md §4.4: "compact_toc()
// rewrites the TOC retaining only latest per cell").
func (r *Region) CompactTOC() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	header := make([]byte, tocHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], tocMagic)
	binary.LittleEndian.PutUint32(header[4:8], tocVersion)

	body := make([]byte, 0, len(r.index)*tocEntrySize)
	for _, entry := range r.index {
		body = append(body, entry.encode()...)
	}

	if err := r.tocFile.Truncate(int64(len(header) + len(body))); err != nil {
		return fmt.Errorf("regionfile: truncate toc file: %w", err)
	}
	if _, err := r.tocFile.WriteAt(append(header, body...), 0); err != nil {
		return fmt.Errorf("regionfile: rewrite toc file: %w", err)
	}
	return nil
}

// Close closes both underlying files.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dataErr := r.dataFile.Close()
	tocErr := r.tocFile.Close()
	if dataErr != nil {
		return dataErr
	}
	return tocErr
}

// ErrCorrupt marks a region file whose on-disk structure failed a basic
// sanity check (bad magic, unknown version) per spec.md §7's CorruptData
// error kind. Callers should treat the owning column as absent rather
// than propagate the error further up.
var ErrCorrupt = fmt.Errorf("regionfile: corrupt data")
