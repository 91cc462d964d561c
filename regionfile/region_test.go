package regionfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/finevox/voxelcore/cube"
	"github.com/finevox/voxelcore/regionfile"
)

func openTestRegion(t *testing.T) (*regionfile.Region, string) {
	t.Helper()
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "r.0.0.dat")
	tocPath := filepath.Join(dir, "r.0.0.toc")
	r, err := regionfile.Open(dataPath, tocPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r, dir
}

func TestWriteReadRoundTrip(t *testing.T) {
	r, _ := openTestRegion(t)
	defer r.Close()

	col := cube.ColumnPos{X: 3, Z: 5}
	payload := []byte("some chunk payload")
	if err := r.Write(col, payload, 1); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := r.Read(col)
	if err != nil || !ok {
		t.Fatalf("Read: (%v, %v, %v)", got, ok, err)
	}
	if string(got) != string(payload) {
		t.Fatalf("Read = %q, want %q", got, payload)
	}
}

func TestOverwriteRetainsNewest(t *testing.T) {
	r, _ := openTestRegion(t)
	defer r.Close()

	col := cube.ColumnPos{X: 1, Z: 1}
	if err := r.Write(col, []byte("version one"), 1); err != nil {
		t.Fatalf("Write v1: %v", err)
	}
	if err := r.Write(col, []byte("version two, a longer payload"), 2); err != nil {
		t.Fatalf("Write v2: %v", err)
	}

	got, ok, err := r.Read(col)
	if err != nil || !ok {
		t.Fatalf("Read: (%v, %v, %v)", got, ok, err)
	}
	if string(got) != "version two, a longer payload" {
		t.Fatalf("Read = %q, want the newest write", got)
	}
}

func TestOverwriteReclaimsFreedSpanForReuse(t *testing.T) {
	r, _ := openTestRegion(t)
	defer r.Close()

	colA := cube.ColumnPos{X: 0, Z: 0}
	colB := cube.ColumnPos{X: 0, Z: 1}

	if err := r.Write(colA, []byte("0123456789"), 1); err != nil {
		t.Fatalf("Write colA: %v", err)
	}
	if err := r.Write(colA, []byte("xy"), 2); err != nil {
		t.Fatalf("Write colA v2: %v", err)
	}
	// colA's v2 reused the start of its freed 10-byte span, leaving an
	// 8-byte free span; colB's 9-byte payload does not fit there and is
	// appended, and neither write may clobber the other.
	if err := r.Write(colB, []byte("123456789"), 3); err != nil {
		t.Fatalf("Write colB: %v", err)
	}

	gotA, _, _ := r.Read(colA)
	gotB, _, _ := r.Read(colB)
	if string(gotA) != "xy" || string(gotB) != "123456789" {
		t.Fatalf("got colA=%q colB=%q", gotA, gotB)
	}
}

func TestMissingColumnReadsNotOK(t *testing.T) {
	r, _ := openTestRegion(t)
	defer r.Close()

	_, ok, err := r.Read(cube.ColumnPos{X: 9, Z: 9})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ok {
		t.Fatalf("expected no entry for an unwritten column")
	}
}

func TestReopenRebuildsIndexFromTOC(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "r.0.0.dat")
	tocPath := filepath.Join(dir, "r.0.0.toc")

	r1, err := regionfile.Open(dataPath, tocPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	col := cube.ColumnPos{X: 2, Z: 2}
	if err := r1.Write(col, []byte("persisted"), 1); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := r1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r2, err := regionfile.Open(dataPath, tocPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	got, ok, err := r2.Read(col)
	if err != nil || !ok || string(got) != "persisted" {
		t.Fatalf("Read after reopen = (%q, %v, %v)", got, ok, err)
	}
}

func TestCompactTOCPreservesLatestEntries(t *testing.T) {
	r, dir := openTestRegion(t)

	col := cube.ColumnPos{X: 4, Z: 4}
	if err := r.Write(col, []byte("v1"), 1); err != nil {
		t.Fatalf("Write v1: %v", err)
	}
	if err := r.Write(col, []byte("v2 longer"), 2); err != nil {
		t.Fatalf("Write v2: %v", err)
	}
	if err := r.CompactTOC(); err != nil {
		t.Fatalf("CompactTOC: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dataPath := filepath.Join(dir, "r.0.0.dat")
	tocPath := filepath.Join(dir, "r.0.0.toc")
	r2, err := regionfile.Open(dataPath, tocPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()

	got, ok, err := r2.Read(col)
	if err != nil || !ok || string(got) != "v2 longer" {
		t.Fatalf("Read after compact+reopen = (%q, %v, %v)", got, ok, err)
	}
}

func TestRegionCoordOfHandlesNegativeColumns(t *testing.T) {
	cases := []struct {
		col  cube.ColumnPos
		want regionfile.RegionCoord
	}{
		{cube.ColumnPos{X: 0, Z: 0}, regionfile.RegionCoord{X: 0, Z: 0}},
		{cube.ColumnPos{X: 31, Z: 31}, regionfile.RegionCoord{X: 0, Z: 0}},
		{cube.ColumnPos{X: 32, Z: 0}, regionfile.RegionCoord{X: 1, Z: 0}},
		{cube.ColumnPos{X: -1, Z: -1}, regionfile.RegionCoord{X: -1, Z: -1}},
		{cube.ColumnPos{X: -32, Z: -33}, regionfile.RegionCoord{X: -1, Z: -2}},
	}
	for _, c := range cases {
		if got := regionfile.RegionCoordOf(c.col); got != c.want {
			t.Errorf("RegionCoordOf(%+v) = %+v, want %+v", c.col, got, c.want)
		}
	}
}

func TestFileNamesLayout(t *testing.T) {
	data, toc := regionfile.FileNames("/worlds/overworld/regions", regionfile.RegionCoord{X: -2, Z: 7})
	if data != "/worlds/overworld/regions/r.-2.7.dat" {
		t.Fatalf("dataPath = %q", data)
	}
	if toc != "/worlds/overworld/regions/r.-2.7.toc" {
		t.Fatalf("tocPath = %q", toc)
	}
}

func TestOpenIsIdempotentAcrossEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "empty.dat")
	tocPath := filepath.Join(dir, "empty.toc")
	// Pre-create empty files, as os.Create would, to exercise the
	// zero-length TOC header-write path.
	if f, err := os.Create(dataPath); err == nil {
		f.Close()
	}
	if f, err := os.Create(tocPath); err == nil {
		f.Close()
	}

	r, err := regionfile.Open(dataPath, tocPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if r.Has(cube.ColumnPos{X: 0, Z: 0}) {
		t.Fatalf("expected fresh region to have no entries")
	}
}
