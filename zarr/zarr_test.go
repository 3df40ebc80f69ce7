package zarr

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestReadAll(t *testing.T) {
	s := NewMemoryStore()
	meta := &ArrayMeta{
		ZarrFormat: Version,
		Shape:      []int{5, 4},
		Chunks:     []int{2, 3},
		Dtype:      mustDtype(t, "<i4"),
		FillValue:  float64(-1),
		Order:      "C",
	}
	flat := make([]int32, 20)
	for i := range flat {
		flat[i] = int32(i)
	}
	// chunk 2.1 covers rows 4 and columns 3
	writeArray(t, s, "foo/bar", meta, nil, flat, "2.1")

	a, err := Open(s, "foo/bar")
	if err != nil {
		t.Fatal(err)
	}
	if info := a.Info(); info != "<zarr.Array /foo/bar [5 4] <i4>" {
		t.Errorf("info: got %q", info)
	}
	if a.Meta().FillValue != -1.0 {
		t.Errorf("fill value: got %v", a.Meta().FillValue)
	}
	got, err := a.ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	want := make([]int64, 20)
	for i := range want {
		want[i] = int64(i)
	}
	want[19] = -1
	if !reflect.DeepEqual(got.Flat(), want) {
		t.Errorf("got %v, want %v", got.Flat(), want)
	}
	if !reflect.DeepEqual(got.Shape(), []int{5, 4}) {
		t.Errorf("shape: got %v", got.Shape())
	}
	if got.Dtype() != DtypeInt64 {
		t.Errorf("dtype: got %s", got.Dtype())
	}
}

func TestReadAllFloatFill(t *testing.T) {
	s := NewMemoryStore()
	meta := &ArrayMeta{
		ZarrFormat: Version,
		Shape:      []int{4},
		Chunks:     []int{2},
		Dtype:      mustDtype(t, "<f4"),
		FillValue:  FillValueNaN,
	}
	writeArray(t, s, "x", meta, nil, []float32{1.5, 2.5, 0, 0}, "1")

	a, err := Open(s, "x")
	if err != nil {
		t.Fatal(err)
	}
	got, err := a.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	f, _ := got.Float64s()
	if f[0] != 1.5 || f[1] != 2.5 || !math.IsNaN(f[2]) || !math.IsNaN(f[3]) {
		t.Errorf("got %v", f)
	}
}

func TestReadAllDatetime(t *testing.T) {
	s := NewMemoryStore()
	meta := &ArrayMeta{
		ZarrFormat: Version,
		Shape:      []int{3},
		Chunks:     []int{3},
		Dtype:      mustDtype(t, "<M8[s]"),
	}
	first := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []int64{first.Unix(), first.Add(6 * time.Hour).Unix(), math.MinInt64}
	writeArray(t, s, "time", meta, xarrayAttrs("time"), ticks)

	a, err := Open(s, "time")
	if err != nil {
		t.Fatal(err)
	}
	got, err := a.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want, err := NewValues([]int{3}, []time.Time{first, first.Add(6 * time.Hour), {}})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got.Flat(), want.Flat())
	}
	if !got.Dtype().IsDatetime() {
		t.Errorf("dtype: got %s", got.Dtype())
	}
}

func TestReadAllUnsupportedType(t *testing.T) {
	s := NewMemoryStore()
	putJSON(t, s, "c/.zarray", &ArrayMeta{ZarrFormat: Version, Shape: []int{2}, Chunks: []int{2}, Dtype: mustDtype(t, "<c16")})

	a, err := Open(s, "c")
	if err != nil {
		t.Fatal(err)
	}
	_, err = a.ReadAll()
	if err == nil {
		t.Fatal("expected complex dtype to be rejected")
	}
	if want := "unsupported decoding type <c16 (16 byte complex)"; err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestReadAllMissingArray(t *testing.T) {
	if _, err := Open(NewMemoryStore(), "nope"); err == nil {
		t.Fatal("expected error opening missing array")
	}
}

func TestOpenLocalStore(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	if _, err := OpenLocalStore(missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("missing store was created: %v", err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenLocalStore(file); err == nil {
		t.Error("expected error opening a file as a store")
	}

	dir := t.TempDir()
	w, err := NewLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	putJSON(t, w, ".zgroup", Group{ZarrFormat: Version})
	r, err := OpenLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := getBytes(r, ".zgroup"); err != nil {
		t.Error(err)
	}
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	meta := &ArrayMeta{
		ZarrFormat:         Version,
		Shape:              []int{2, 2},
		Chunks:             []int{1, 2},
		Dtype:              mustDtype(t, "<u2"),
		DimensionSeparator: "/",
	}
	writeArray(t, s, "grid", meta, xarrayAttrs("y", "x"), []uint16{1, 2, 3, 4})

	a, err := Open(s, "grid")
	if err != nil {
		t.Fatal(err)
	}
	v, err := a.Variable("grid")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v.Dims, []string{"y", "x"}) {
		t.Errorf("dims: got %v", v.Dims)
	}
	if !reflect.DeepEqual(v.Data.Flat(), []uint64{1, 2, 3, 4}) {
		t.Errorf("data: got %v", v.Data.Flat())
	}
	if v.Meta != nil {
		t.Errorf("meta: expected dimension attribute to be consumed, got %v", v.Meta)
	}
}

func TestNewPath(t *testing.T) {
	cases := map[string]Path{
		"":            {},
		"foo/bar":     {"foo", "bar"},
		"/foo//bar/":  {"foo", "bar"},
		`foo\bar\baz`: {"foo", "bar", "baz"},
	}
	for in, want := range cases {
		got, err := NewPath(in)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%q: got %#v, want %#v", in, got, want)
		}
	}

	if _, err := NewPath("foo/../bar"); err == nil {
		t.Error("expected error for parent path element")
	}

	base := Path{"a", "b"}
	x := base[:1].Join("x")
	if base[1] != "b" || x.String() != "a/x" {
		t.Errorf("join aliased its receiver: %v %v", base, x)
	}
}

func TestChunkKey(t *testing.T) {
	if got := ChunkKey(nil, "."); got != "0" {
		t.Errorf("got %q", got)
	}
	if got := ChunkKey([]int{1, 4}, "."); got != "1.4" {
		t.Errorf("got %q", got)
	}
	if got := ChunkKey([]int{1, 4, 0}, "/"); got != "1/4/0" {
		t.Errorf("got %q", got)
	}
}
