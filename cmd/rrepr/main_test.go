package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/qri-io/rrepr"
	"github.com/qri-io/rrepr/zarr"
)

func TestCommand(t *testing.T) {
	cfg := rrepr.DefaultConfig()

	if command(&cfg, ":size 4"); cfg.Size != 4 {
		t.Errorf("size: got %d", cfg.Size)
	}
	if command(&cfg, ":size 0"); cfg.Size != 4 {
		t.Errorf("invalid size applied: %d", cfg.Size)
	}
	if command(&cfg, ":seed 42"); cfg.Seed == nil || *cfg.Seed != 42 {
		t.Errorf("seed: got %v", cfg.Seed)
	}
	if command(&cfg, ":seed -"); cfg.Seed != nil {
		t.Errorf("seed not cleared: %v", *cfg.Seed)
	}
	if !command(&cfg, ":quit") {
		t.Error(":quit should exit")
	}
	if command(&cfg, ":bogus") {
		t.Error("unknown commands should not exit")
	}
}

func TestRunUsage(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Errorf("no arguments: got exit code %d", code)
	}
	if code := run([]string{"-seed", "x", "dir"}); code != 2 {
		t.Errorf("bad seed: got exit code %d", code)
	}
}

// writeStore lays out a consolidated zarr group holding a 2x3 int64 array v
// on dims (x, y) and a coordinate x
func writeStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	s, err := zarr.NewLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	put := func(key string, val []byte) {
		if err := s.Put(key, bytes.NewReader(val)); err != nil {
			t.Fatal(err)
		}
	}
	chunk := func(vals ...int64) []byte {
		buf := &bytes.Buffer{}
		if err := binary.Write(buf, binary.LittleEndian, vals); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	put(".zmetadata", []byte(`{
  "zarr_consolidated_format": 1,
  "metadata": {
    ".zgroup": {"zarr_format": 2},
    "v/.zarray": {"zarr_format": 2, "shape": [2, 3], "chunks": [2, 3], "dtype": "<i8", "compressor": null, "fill_value": 0, "order": "C", "filters": null},
    "v/.zattrs": {"_ARRAY_DIMENSIONS": ["x", "y"], "units": "K"},
    "x/.zarray": {"zarr_format": 2, "shape": [2], "chunks": [2], "dtype": "<i8", "compressor": null, "fill_value": 0, "order": "C", "filters": null},
    "x/.zattrs": {"_ARRAY_DIMENSIONS": ["x"]}
  }
}`))
	put("v/0.0", chunk(1, 2, 3, 4, 5, 6))
	put("x/0", chunk(10, 20))
	return dir
}

func TestRun(t *testing.T) {
	dir := writeStore(t)
	for _, args := range [][]string{
		{"-seed", "1", "-no-clipboard", dir},
		{"-seed", "1", "-no-clipboard", "-drop-attrs", "-size", "1", dir, "v"},
	} {
		if code := run(args); code != 0 {
			t.Errorf("%v: got exit code %d", args, code)
		}
	}

	if code := run([]string{"-no-clipboard", "-size", "3", dir, "v"}); code != 1 {
		t.Errorf("oversized sample: got exit code %d", code)
	}
	if code := run([]string{"-no-clipboard", dir, "missing"}); code != 1 {
		t.Errorf("missing variable: got exit code %d", code)
	}
}

func TestRunMissingStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "typo-store")
	if code := run([]string{"-no-clipboard", dir}); code != 1 {
		t.Errorf("got exit code %d", code)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("store directory created by a read: %v", err)
	}
}
