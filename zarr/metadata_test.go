package zarr

import (
	"encoding/json"
	"reflect"
	"testing"
)

// https://zarr.readthedocs.io/en/stable/spec/v2.html#metadata
const specExample = `{
  "chunks": [
    1000,
    1000
  ],
	"compressor": {
			"id": "blosc",
			"cname": "lz4",
			"clevel": 5,
			"shuffle": 1
	},
	"dtype": "<f8",
	"fill_value": "NaN",
	"filters": [
			{"id": "delta", "dtype": "<f8", "astype": "<f4"}
	],
	"order": "C",
	"shape": [
			10000,
			10000
	],
	"zarr_format": 2
}`

func TestMetadataSerialization(t *testing.T) {
	m := &ArrayMeta{}
	if err := json.Unmarshal([]byte(specExample), m); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m.Shape, []int{10000, 10000}) {
		t.Errorf("shape: got %v", m.Shape)
	}
	if m.Compressor == nil || m.Compressor.Cname != "lz4" {
		t.Errorf("compressor: got %#v", m.Compressor)
	}
	if !m.Dtype.IsFloat() {
		t.Errorf("dtype: got %s", m.Dtype)
	}
	if len(m.Filters) != 1 || m.Filters[0].AsType != "<f4" {
		t.Errorf("filters: got %#v", m.Filters)
	}
	// filters are parsed but cannot be decoded
	if err := m.Validate(); err == nil {
		t.Error("expected filters to fail validation")
	}
}

const consolidatedExample = `{
	"zarr_consolidated_format": 1,
	"metadata": {
		".zgroup": {"zarr_format": 2},
		".zattrs": {"title": "example"},
		"air/.zarray": {"chunks": [2], "compressor": null, "dtype": "<f4", "fill_value": null, "filters": null, "order": "C", "shape": [4], "zarr_format": 2},
		"air/.zattrs": {"_ARRAY_DIMENSIONS": ["time"], "units": "degK"},
		"time/.zarray": {"chunks": [4], "compressor": null, "dtype": "<i8", "fill_value": null, "filters": null, "order": "C", "shape": [4], "zarr_format": 2},
		"nested/deeper/.zarray": {"chunks": [1], "compressor": null, "dtype": "<i8", "fill_value": null, "filters": null, "order": "C", "shape": [1], "zarr_format": 2}
	}
}`

func TestConsolidatedMetadata(t *testing.T) {
	cm := &ConsolidatedMetadata{}
	if err := json.Unmarshal([]byte(consolidatedExample), cm); err != nil {
		t.Fatal(err)
	}
	if cm.ConsolidatedFormat != 1 {
		t.Errorf("format: got %d", cm.ConsolidatedFormat)
	}

	root := Path{}
	if got := cm.Arrays(root); !reflect.DeepEqual(got, []string{"air", "time"}) {
		t.Errorf("arrays: got %v", got)
	}
	if got := cm.Arrays(Path{"nested"}); !reflect.DeepEqual(got, []string{"deeper"}) {
		t.Errorf("nested arrays: got %v", got)
	}
	if got := cm.Attributes(root)["title"]; got != "example" {
		t.Errorf("group attrs: got %v", got)
	}

	attrs := cm.Attributes(Path{"air"})
	dims, ok := attrs.Dims()
	if !ok || !reflect.DeepEqual(dims, []string{"time"}) {
		t.Errorf("dims: got %v %t", dims, ok)
	}
	if am, ok := cm.ArrayMeta(Path{"air"}); !ok || am.Compressor != nil {
		t.Errorf("air meta: got %#v", am)
	}
}

func TestConsolidatedMetadataBadKey(t *testing.T) {
	cm := &ConsolidatedMetadata{}
	err := json.Unmarshal([]byte(`{"metadata": {"air/zarray": {}}}`), cm)
	if err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestKeyMetaType(t *testing.T) {
	cases := map[string]bool{
		"air/.zarray": true,
		".zattrs":     true,
		".zgroup":     true,
		"air/0.0":     false,
		"x":           false,
	}
	for key, want := range cases {
		if _, ok := KeyMetaType(key); ok != want {
			t.Errorf("%q: got %t, want %t", key, ok, want)
		}
	}
}
