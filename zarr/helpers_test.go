package zarr

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"reflect"
	"testing"
)

func putJSON(t *testing.T, s Store, key string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(key, bytes.NewReader(data)); err != nil {
		t.Fatal(err)
	}
}

// writeArray stores flat (a row-major slice of the on-disk element type) as
// an uncompressed little-endian zarr array. Chunks whose key is listed in
// skip are left out of the store.
func writeArray(t *testing.T, s Store, path string, meta *ArrayMeta, attrs Attributes, flat interface{}, skip ...string) {
	t.Helper()
	p, err := NewPath(path)
	if err != nil {
		t.Fatal(err)
	}
	putJSON(t, s, p.Join(string(MTArray)).String(), meta)
	if attrs != nil {
		putJSON(t, s, p.Join(string(MTAttributes)).String(), attrs)
	}

	src := reflect.ValueOf(flat)
	chunkLen := numElements(meta.Chunks)
	skipped := map[string]bool{}
	for _, k := range skip {
		skipped[k] = true
	}

	for _, ch := range chunkGrid(meta.Shape, meta.Chunks) {
		key := ChunkKey(ch, meta.separator())
		if skipped[key] {
			continue
		}
		chunk := reflect.MakeSlice(src.Type(), chunkLen, chunkLen)
		for _, pr := range projectChunk(meta.Shape, meta.Chunks, ch) {
			chunk.Index(pr.ChunkSelection).Set(src.Index(pr.OutSelection))
		}
		buf := &bytes.Buffer{}
		if err := binary.Write(buf, binary.LittleEndian, chunk.Interface()); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(p.Join(key).String(), buf); err != nil {
			t.Fatal(err)
		}
	}
}

func mustDtype(t *testing.T, s string) Dtype {
	t.Helper()
	dt, err := ParseDtype(s)
	if err != nil {
		t.Fatal(err)
	}
	return dt
}

// xarrayAttrs builds the attributes xarray writes alongside an array
func xarrayAttrs(dims ...string) Attributes {
	ds := make([]interface{}, len(dims))
	for i, d := range dims {
		ds[i] = d
	}
	return Attributes{ArrayDimensionsKey: ds}
}
