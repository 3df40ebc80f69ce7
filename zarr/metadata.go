package zarr

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type MetaType string

const (
	// MTAttributes stores userland metadata keyed by array name
	MTAttributes MetaType = ".zattrs"
	// MTArray is the key for storing metadata on an array store
	MTArray MetaType = ".zarray"
	// MTGroup is the key for storing group definitions on an array store
	MTGroup MetaType = ".zgroup"
	// MTMetadata is the key for composite metadata
	MTMetadata MetaType = ".zmetadata"
)

const (
	// ArrayDimensionsKey is the attribute xarray uses to name the dimensions
	// of an array stored in zarr
	ArrayDimensionsKey = "_ARRAY_DIMENSIONS"
	// CoordinatesKey lists non-dimension coordinates, space separated
	CoordinatesKey = "coordinates"
)

type MetaTyper interface {
	MetaType() MetaType
}

var metaTypes = map[MetaType]struct{}{
	MTAttributes: {},
	MTArray:      {},
	MTGroup:      {},
}

// relies on the fact that all keynames are 7 characters long
func KeyMetaType(s string) (mt MetaType, ok bool) {
	if len(s) < 7 {
		return mt, false
	}
	mt = MetaType(s[len(s)-7:])
	_, ok = metaTypes[mt]
	return mt, ok
}

type Attributes map[string]interface{}

func (Attributes) MetaType() MetaType { return MTAttributes }

// Copy returns a shallow copy of the attribute map. Copying nil gives nil.
func (a Attributes) Copy() Attributes {
	if a == nil {
		return nil
	}
	cp := make(Attributes, len(a))
	for k, v := range a {
		cp[k] = v
	}
	return cp
}

// Keys lists attribute names in sorted order
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dims reads the dimension names xarray records on a stored array
func (a Attributes) Dims() ([]string, bool) {
	raw, ok := a[ArrayDimensionsKey].([]interface{})
	if !ok {
		return nil, false
	}
	dims := make([]string, 0, len(raw))
	for _, d := range raw {
		s, ok := d.(string)
		if !ok {
			return nil, false
		}
		dims = append(dims, s)
	}
	return dims, true
}

// Coordinates splits the space separated coordinates attribute
func (a Attributes) Coordinates() []string {
	s, _ := a[CoordinatesKey].(string)
	return strings.Fields(s)
}

// Arrays can be organized into groups which can also contain other groups.
// A group is created by storing group ArrayMeta under the ".zgroup" key under
// some logical path.
type Group struct {
	ZarrFormat int `json:"zarr_format"`
}

func (Group) MetaType() MetaType { return MTGroup }

// ConsolidatedMetadata is the contents of a ".zmetadata" key: every metadata
// document of a hierarchy gathered into a single JSON object.
type ConsolidatedMetadata struct {
	ConsolidatedFormat int                  `json:"zarr_consolidated_format"`
	Metadata           map[string]MetaTyper `json:"metadata"`
}

type consolidatedMetaDecoder struct {
	ConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata           map[string]json.RawMessage `json:"metadata"`
}

func (m *ConsolidatedMetadata) UnmarshalJSON(d []byte) error {
	cd := consolidatedMetaDecoder{}
	if err := json.Unmarshal(d, &cd); err != nil {
		return err
	}
	cm := ConsolidatedMetadata{
		ConsolidatedFormat: cd.ConsolidatedFormat,
		Metadata:           map[string]MetaTyper{},
	}

	for key, data := range cd.Metadata {
		kt, ok := KeyMetaType(key)
		if !ok {
			return errors.Errorf("invalid consolidated metadata key: %q", key)
		}

		switch kt {
		case MTArray:
			arr := &ArrayMeta{}
			if err := json.Unmarshal(data, arr); err != nil {
				return errors.Wrapf(err, "reading %q metadata", key)
			}
			cm.Metadata[key] = arr
		case MTAttributes:
			attr := Attributes{}
			if err := json.Unmarshal(data, &attr); err != nil {
				return errors.Wrapf(err, "reading %q attributes", key)
			}
			cm.Metadata[key] = attr
		case MTGroup:
			grp := Group{}
			if err := json.Unmarshal(data, &grp); err != nil {
				return errors.Wrapf(err, "reading %q group", key)
			}
			cm.Metadata[key] = grp
		}
	}

	*m = cm
	return nil
}

// Arrays lists the names of the arrays directly below path, sorted
func (m *ConsolidatedMetadata) Arrays(path Path) []string {
	var names []string
	for key, mt := range m.Metadata {
		if mt.MetaType() != MTArray {
			continue
		}
		p, _ := NewPath(key)
		if len(p) != len(path)+2 || !p.HasPrefix(path) {
			continue
		}
		names = append(names, p[len(path)])
	}
	sort.Strings(names)
	return names
}

// ArrayMeta returns array metadata stored at path
func (m *ConsolidatedMetadata) ArrayMeta(path Path) (*ArrayMeta, bool) {
	am, ok := m.Metadata[path.Join(string(MTArray)).String()].(*ArrayMeta)
	return am, ok
}

// Attributes returns attributes stored at path, nil if there are none
func (m *ConsolidatedMetadata) Attributes(path Path) Attributes {
	attrs, _ := m.Metadata[path.Join(string(MTAttributes)).String()].(Attributes)
	return attrs
}

// Each array requires essential configuration metadata to be stored,
// enabling correct interpretation of the stored data.
// This metadata is encoded using JSON and stored as the value of the
// ".zarray" key within an array store.
type ArrayMeta struct {
	// An integer defining the version of the storage specification to which
	// the array store adheres.
	ZarrFormat int `json:"zarr_format"`
	// A list of integers defining the length of each dimension of the array.
	Shape []int `json:"shape"`
	// A list of integers defining the length of each dimension of a chunk of the
	// array. Note that all chunks within a Zarr array have the same shape.
	Chunks []int `json:"chunks"`
	// A string defining a valid data type for the array.
	Dtype Dtype `json:"dtype"`
	// A JSON object identifying the primary compression codec and providing
	// configuration parameters, or null if no compressor is to be used.
	Compressor *CompressionMeta `json:"compressor"`
	// A scalar value providing the default value to use for uninitialized
	// portions of the array, or null if no fill_value is to be used.
	FillValue interface{} `json:"fill_value"`
	// Either "C" or "F", defining the layout of bytes within each chunk of the
	// array. "C" means row-major order, i.e., the last dimension varies fastest;
	// "F" means column-major order, i.e., the first dimension varies fastest.
	Order string `json:"order"`
	// A list of JSON objects providing codec configurations, or null if no
	// filters are to be applied.
	Filters []Filter `json:"filters"`
	// If present, either the string "." or "/" definining the separator placed
	// between the dimensions of a chunk. Defaults to ".".
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

func (a ArrayMeta) MetaType() MetaType { return MTArray }

// Validate checks the metadata describes an array this package can decode
func (a *ArrayMeta) Validate() error {
	if len(a.Chunks) != len(a.Shape) {
		return errors.Errorf("chunks %v do not match shape %v", a.Chunks, a.Shape)
	}
	for i, n := range a.Shape {
		if n < 0 || a.Chunks[i] < 1 {
			return errors.Errorf("invalid shape %v with chunks %v", a.Shape, a.Chunks)
		}
	}
	if a.Order != "" && a.Order != "C" {
		return errors.Errorf("unsupported chunk order %q", a.Order)
	}
	if len(a.Filters) > 0 {
		return errors.Errorf("filters are not supported, got %d", len(a.Filters))
	}
	return nil
}

func (a *ArrayMeta) separator() string {
	if a.DimensionSeparator == "" {
		return "."
	}
	return a.DimensionSeparator
}

type Filter struct {
	ID     string `json:"id"`
	Delta  string `json:"delta"`
	Dtype  string `json:"dtype"`
	AsType string `json:"astype"`
}

const (
	// Not a Number
	FillValueNaN = "NaN"
	// Infinity
	FillValueInfinity = "Infinity"
	// -Infinity
	FillValueNegativeInfinity = "-Infinity"
)

// fillFloat interprets a fill_value as a float. null fills with zero.
func fillFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		switch x {
		case FillValueNaN:
			return math.NaN(), nil
		case FillValueInfinity:
			return math.Inf(1), nil
		case FillValueNegativeInfinity:
			return math.Inf(-1), nil
		}
	}
	return 0, errors.Errorf("unsupported fill_value %v", v)
}
