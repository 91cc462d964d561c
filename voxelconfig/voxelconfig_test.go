package voxelconfig_test

import (
	"strings"
	"testing"

	"github.com/finevox/voxelcore/voxelconfig"
)

const sample = `# world config
name: My World
seed: 0x1a2b3c
view-distance: 12

allowed-ops:list:
    alice
    bob
`

func TestParseScalarAndHexInt(t *testing.T) {
	d, err := voxelconfig.Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := d.Get("name"); !ok || v != "My World" {
		t.Fatalf("Get(name) = (%q, %v), want (My World, true)", v, ok)
	}
	seed, ok, err := d.GetInt("seed")
	if err != nil || !ok {
		t.Fatalf("GetInt(seed) = (%d, %v, %v)", seed, ok, err)
	}
	if seed != 0x1a2b3c {
		t.Fatalf("seed = %#x, want 0x1a2b3c", seed)
	}
}

func TestParseMultiValueEntry(t *testing.T) {
	d, err := voxelconfig.Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	suffix, lines, ok := d.GetMulti("allowed-ops")
	if !ok {
		t.Fatalf("expected allowed-ops to parse as a multi-value entry")
	}
	if suffix != "list" {
		t.Fatalf("suffix = %q, want list", suffix)
	}
	if len(lines) != 2 || lines[0] != "alice" || lines[1] != "bob" {
		t.Fatalf("lines = %v, want [alice bob]", lines)
	}
}

func TestRoundTripPreservesCommentsAndOrder(t *testing.T) {
	d, err := voxelconfig.Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := d.String(); got != sample {
		t.Fatalf("round trip mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, sample)
	}
}

func TestSetUpdatesInPlaceAndAppendsNewKeys(t *testing.T) {
	d, err := voxelconfig.Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d.Set("name", "Renamed World")
	if v, _ := d.Get("name"); v != "Renamed World" {
		t.Fatalf("Get(name) after Set = %q, want Renamed World", v)
	}
	d.Set("new-key", "new-value")
	if v, ok := d.Get("new-key"); !ok || v != "new-value" {
		t.Fatalf("Get(new-key) = (%q, %v), want (new-value, true)", v, ok)
	}
	if !strings.Contains(d.String(), "new-key: new-value") {
		t.Fatalf("expected rendered output to contain the new entry")
	}
}
