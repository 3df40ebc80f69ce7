// Package zarr reads labeled multi-dimensional arrays out of zarr v2 stores
// and models them in memory the way xarray does: named dimensions, variables,
// coordinates, and index-based selection along any dimension.
package zarr

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// Version is the zarr storage specification version this package reads
	Version = 2
)

// Array is a single zarr array within a store
type Array struct {
	path  Path
	store Store
	meta  *ArrayMeta
	attrs Attributes
}

// Open reads the metadata of the array stored at path. Attributes are
// optional, array metadata is not.
func Open(store Store, path string) (*Array, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	data, err := getBytes(store, p.Join(string(MTArray)).String())
	if err != nil {
		return nil, errors.Wrapf(err, "opening array %q", path)
	}
	meta := &ArrayMeta{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, errors.Wrapf(err, "reading %q metadata", path)
	}

	var attrs Attributes
	data, err = getBytes(store, p.Join(string(MTAttributes)).String())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &attrs); err != nil {
			return nil, errors.Wrapf(err, "reading %q attributes", path)
		}
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	return newArray(store, p, meta, attrs)
}

func newArray(store Store, p Path, meta *ArrayMeta, attrs Attributes) (*Array, error) {
	if err := meta.Validate(); err != nil {
		return nil, errors.Wrapf(err, "array %q", p)
	}
	return &Array{
		path:  p,
		store: store,
		meta:  meta,
		attrs: attrs,
	}, nil
}

// Info summarizes the array's path, shape and dtype
func (a *Array) Info() string {
	return fmt.Sprintf("<zarr.Array /%s %v %s>", a.path, a.meta.Shape, a.meta.Dtype)
}

func (a *Array) Path() string { return a.path.String() }

func (a *Array) Meta() *ArrayMeta { return a.meta }

func (a *Array) Attrs() Attributes { return a.attrs }

// ReadAll decodes every chunk of the array into memory. Chunks missing from
// the store are filled with the array's fill_value.
func (a *Array) ReadAll() (*Values, error) {
	dt := a.meta.Dtype
	total := numElements(a.meta.Shape)
	flat, err := newStorage(dt, total)
	if err != nil {
		return nil, err
	}
	out := reflect.ValueOf(flat)

	fill, err := a.fillChunk()
	if err != nil {
		return nil, err
	}

	chunkLen := numElements(a.meta.Chunks)
	for _, ch := range chunkGrid(a.meta.Shape, a.meta.Chunks) {
		rc, err := a.openChunk(ch)
		var chunk reflect.Value
		switch {
		case errors.Is(err, ErrNotFound):
			chunk = fill
		case err != nil:
			return nil, err
		default:
			raw, err := readChunk(rc)
			if err != nil {
				return nil, errors.Wrapf(err, "reading chunk %v of %q", ch, a.path)
			}
			decoded, err := a.decode(raw, chunkLen)
			if err != nil {
				return nil, errors.Wrapf(err, "decoding chunk %v of %q", ch, a.path)
			}
			chunk = reflect.ValueOf(decoded)
		}

		for _, p := range projectChunk(a.meta.Shape, a.meta.Chunks, ch) {
			out.Index(p.OutSelection).Set(chunk.Index(p.ChunkSelection))
		}
	}

	return NewValues(a.meta.Shape, flat)
}

func readChunk(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}

// decode reads n elements out of a raw chunk into the in-memory storage kind
// for the array's dtype
func (a *Array) decode(raw []byte, n int) (interface{}, error) {
	dt := a.meta.Dtype
	switch dt.BasicType {
	case BTString:
		return decodeFixedStrings(raw, n, dt.ByteSize, false, nil)
	case BTUnicode:
		return decodeFixedStrings(raw, n, dt.ByteSize*4, true, a.byteOrder())
	}

	v, err := a.newValue(n)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(bytes.NewReader(raw), a.byteOrder(), v); err != nil {
		return nil, err
	}
	return widen(dt, v)
}

func (a *Array) byteOrder() binary.ByteOrder {
	if a.meta.Dtype.ByteOrder == BOLittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// newValue allocates a slice binary.Read can decode n stored elements into
func (a *Array) newValue(n int) (interface{}, error) {
	dt := a.meta.Dtype
	switch dt.BasicType {
	case BTBoolean:
		return make([]bool, n), nil
	case BTInteger, BTDatetime:
		switch dt.ByteSize {
		case 1:
			return make([]int8, n), nil
		case 2:
			return make([]int16, n), nil
		case 4:
			return make([]int32, n), nil
		case 8:
			return make([]int64, n), nil
		}
	case BTUnsigned:
		switch dt.ByteSize {
		case 1:
			return make([]uint8, n), nil
		case 2:
			return make([]uint16, n), nil
		case 4:
			return make([]uint32, n), nil
		case 8:
			return make([]uint64, n), nil
		}
	case BTFloatingPoint:
		switch dt.ByteSize {
		case 4:
			return make([]float32, n), nil
		case 8:
			return make([]float64, n), nil
		}
	}
	return nil, unsupportedType(dt)
}

func unsupportedType(dt Dtype) error {
	return errors.Errorf("unsupported decoding type %s (%d byte %s)", dt, dt.ByteSize, dt.BasicType.Human())
}

// newStorage allocates the in-memory backing slice for n elements of dt
func newStorage(dt Dtype, n int) (interface{}, error) {
	switch dt.BasicType {
	case BTBoolean:
		return make([]bool, n), nil
	case BTInteger:
		return make([]int64, n), nil
	case BTUnsigned:
		return make([]uint64, n), nil
	case BTFloatingPoint:
		return make([]float64, n), nil
	case BTDatetime:
		return make([]time.Time, n), nil
	case BTString, BTUnicode, BTObject:
		return make([]string, n), nil
	}
	return nil, unsupportedType(dt)
}

// widen converts a decoded slice to the storage kind of its dtype
func widen(dt Dtype, v interface{}) (interface{}, error) {
	src := reflect.ValueOf(v)
	n := src.Len()
	switch dt.BasicType {
	case BTBoolean:
		return v, nil
	case BTInteger:
		out := make([]int64, n)
		for i := range out {
			out[i] = src.Index(i).Int()
		}
		return out, nil
	case BTUnsigned:
		out := make([]uint64, n)
		for i := range out {
			out[i] = src.Index(i).Uint()
		}
		return out, nil
	case BTFloatingPoint:
		out := make([]float64, n)
		for i := range out {
			out[i] = src.Index(i).Float()
		}
		return out, nil
	case BTDatetime:
		unit, err := dt.TimeUnit()
		if err != nil {
			return nil, err
		}
		out := make([]time.Time, n)
		for i := range out {
			out[i] = datetime(src.Index(i).Int(), unit)
		}
		return out, nil
	}
	return nil, unsupportedType(dt)
}

// natTicks is numpy's "not a time" marker, the smallest int64
const natTicks = math.MinInt64

// datetime converts ticks since the unix epoch. NaT becomes the zero time.
func datetime(ticks int64, unit time.Duration) time.Time {
	if ticks == natTicks {
		return time.Time{}
	}
	if unit == time.Nanosecond {
		return time.Unix(0, ticks).UTC()
	}
	perSecond := int64(time.Second / unit)
	if perSecond == 0 {
		return time.Unix(ticks*int64(unit/time.Second), 0).UTC()
	}
	sec, rem := ticks/perSecond, ticks%perSecond
	return time.Unix(sec, rem*int64(unit)).UTC()
}

func decodeFixedStrings(raw []byte, n, width int, utf32 bool, order binary.ByteOrder) ([]string, error) {
	if len(raw) < n*width {
		return nil, errors.Errorf("chunk holds %d bytes, want %d", len(raw), n*width)
	}
	out := make([]string, n)
	for i := range out {
		b := raw[i*width : (i+1)*width]
		if !utf32 {
			out[i] = strings.TrimRight(string(b), "\x00")
			continue
		}
		var sb strings.Builder
		for j := 0; j+4 <= len(b); j += 4 {
			r := order.Uint32(b[j:])
			if r == 0 {
				break
			}
			sb.WriteRune(rune(r))
		}
		out[i] = sb.String()
	}
	return out, nil
}

// fillChunk builds a chunk-sized slice holding the fill value
func (a *Array) fillChunk() (reflect.Value, error) {
	n := numElements(a.meta.Chunks)
	flat, err := newStorage(a.meta.Dtype, n)
	if err != nil {
		return reflect.Value{}, err
	}
	v := reflect.ValueOf(flat)
	if a.meta.FillValue == nil {
		return v, nil
	}

	var fv reflect.Value
	switch s := flat.(type) {
	case []string:
		str, _ := a.meta.FillValue.(string)
		fv = reflect.ValueOf(str)
	case []time.Time:
		f, err := fillFloat(a.meta.FillValue)
		if err != nil {
			return reflect.Value{}, err
		}
		unit, err := a.meta.Dtype.TimeUnit()
		if err != nil {
			return reflect.Value{}, err
		}
		if math.IsNaN(f) {
			fv = reflect.ValueOf(time.Time{})
		} else {
			fv = reflect.ValueOf(datetime(int64(f), unit))
		}
	case []bool:
		f, err := fillFloat(a.meta.FillValue)
		if err != nil {
			return reflect.Value{}, err
		}
		fv = reflect.ValueOf(f != 0)
	default:
		f, err := fillFloat(a.meta.FillValue)
		if err != nil {
			return reflect.Value{}, err
		}
		fv = reflect.ValueOf(f).Convert(reflect.TypeOf(s).Elem())
	}
	for i := 0; i < n; i++ {
		v.Index(i).Set(fv)
	}
	return v, nil
}

func (a *Array) openChunk(ch []int) (io.ReadCloser, error) {
	f, err := a.store.Get(a.chunkPath(ch).String())
	if err != nil {
		return nil, err
	}
	return a.meta.Compressor.Decompressor(f)
}

func (a *Array) chunkPath(ch []int) Path {
	return a.path.Join(ChunkKey(ch, a.meta.separator()))
}

// Path is a normalized logical path within a store
type Path []string

// NewPath normalizes a posix-style logical path: backslashes become forward
// slashes, and leading, trailing and repeated slashes are dropped.
func NewPath(posix string) (Path, error) {
	posix = strings.ReplaceAll(posix, "\\", "/")
	p := Path{}
	for _, el := range strings.Split(posix, "/") {
		switch el {
		case "":
			continue
		case ".", "..":
			return nil, errors.Errorf("invalid path element %q in %q", el, posix)
		}
		p = append(p, el)
	}
	return p, nil
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Join returns a new path with elems appended. p is not modified.
func (p Path) Join(elems ...string) Path {
	joined := make(Path, 0, len(p)+len(elems))
	return append(append(joined, p...), elems...)
}

// HasPrefix reports whether every element of prefix leads p
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, el := range prefix {
		if p[i] != el {
			return false
		}
	}
	return true
}
