package zarr

import (
	"github.com/pkg/errors"
)

// Dim is a named axis and its extent
type Dim struct {
	Name string
	Size int
}

// Sizes lists the dimensions of an object in their natural order
type Sizes []Dim

// Get returns the extent of a named dimension
func (s Sizes) Get(name string) (int, bool) {
	for _, d := range s {
		if d.Name == name {
			return d.Size, true
		}
	}
	return 0, false
}

// Names lists dimension names in order
func (s Sizes) Names() []string {
	names := make([]string, len(s))
	for i, d := range s {
		names[i] = d.Name
	}
	return names
}

// Indexers maps dimension names to the positions to select along them
type Indexers map[string][]int

// Object is a labeled array or collection of labeled arrays
type Object interface {
	// Sizes lists dimensions with their extents
	Sizes() Sizes
	// Isel selects positions along dimensions, returning a new object of the
	// same kind that shares no mutable state with the receiver
	Isel(Indexers) (Object, error)
	// ToDict exports the object's structure
	ToDict() *Dict
}

// Dict is the structural export of an Object. DataArrays fill Name, Dims,
// Data and Attrs; Datasets fill DataVars and Attrs. Both fill Coords.
type Dict struct {
	Name     string
	Dims     []string
	Data     *Values
	DataVars Variables
	Coords   Variables
	Attrs    Attributes
}

// Variable is a named array with one dimension name per axis. Meta holds the
// variable's descriptive attributes.
type Variable struct {
	Name string
	Dims []string
	Data *Values
	Meta Attributes
}

// Validate checks every axis of the data has a unique dimension name
func (v Variable) Validate() error {
	if v.Data == nil {
		return errors.Errorf("variable %q has no data", v.Name)
	}
	if len(v.Dims) != v.Data.Ndim() {
		return errors.Errorf("variable %q has %d dims for %d-d data", v.Name, len(v.Dims), v.Data.Ndim())
	}
	seen := map[string]bool{}
	for _, d := range v.Dims {
		if seen[d] {
			return errors.Errorf("variable %q repeats dimension %q", v.Name, d)
		}
		seen[d] = true
	}
	return nil
}

// Sizes lists the variable's dimensions with their extents
func (v Variable) Sizes() Sizes {
	shape := v.Data.Shape()
	s := make(Sizes, len(v.Dims))
	for i, d := range v.Dims {
		s[i] = Dim{Name: d, Size: shape[i]}
	}
	return s
}

// Isel selects positions along every indexed dimension the variable has.
// Indexers for other dimensions are ignored. The result never shares data
// with v.
func (v Variable) Isel(ix Indexers) (Variable, error) {
	out := Variable{
		Name: v.Name,
		Dims: append([]string{}, v.Dims...),
		Data: v.Data.Copy(),
		Meta: v.Meta.Copy(),
	}
	for axis, d := range v.Dims {
		idx, ok := ix[d]
		if !ok {
			continue
		}
		data, err := out.Data.Take(axis, idx)
		if err != nil {
			return Variable{}, errors.Wrapf(err, "selecting %q along %q", v.Name, d)
		}
		out.Data = data
	}
	return out, nil
}

// Variables is an ordered collection of variables
type Variables []Variable

// Get finds a variable by name
func (vs Variables) Get(name string) (Variable, bool) {
	for _, v := range vs {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Names lists variable names in order
func (vs Variables) Names() []string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	return names
}

func (vs Variables) isel(ix Indexers) (Variables, error) {
	if vs == nil {
		return nil, nil
	}
	out := make(Variables, len(vs))
	for i, v := range vs {
		sel, err := v.Isel(ix)
		if err != nil {
			return nil, err
		}
		out[i] = sel
	}
	return out, nil
}

// sizes collects dimension extents in first-appearance order, failing when
// two variables disagree on the extent of a dimension
func sizes(groups ...Variables) (Sizes, error) {
	var s Sizes
	for _, vs := range groups {
		for _, v := range vs {
			for _, d := range v.Sizes() {
				n, ok := s.Get(d.Name)
				if !ok {
					s = append(s, d)
					continue
				}
				if n != d.Size {
					return nil, errors.Errorf("dimension %q has conflicting sizes %d and %d", d.Name, n, d.Size)
				}
			}
		}
	}
	return s, nil
}

func validateNames(kind string, vs Variables) error {
	seen := map[string]bool{}
	for _, v := range vs {
		if v.Name == "" {
			return errors.Errorf("%s variables must be named", kind)
		}
		if seen[v.Name] {
			return errors.Errorf("duplicate %s variable %q", kind, v.Name)
		}
		seen[v.Name] = true
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func checkIndexers(s Sizes, ix Indexers) error {
	for d := range ix {
		if _, ok := s.Get(d); !ok {
			return errors.Errorf("dimension %q not found", d)
		}
	}
	return nil
}

// DataArray is a single labeled array with coordinates
type DataArray struct {
	data   Variable
	coords Variables
}

var _ Object = (*DataArray)(nil)

// NewDataArray labels data with coordinates. Every coordinate dimension must
// be a dimension of data with a matching extent.
func NewDataArray(data Variable, coords Variables) (*DataArray, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if err := validateNames("coordinate", coords); err != nil {
		return nil, err
	}
	own := data.Sizes()
	all, err := sizes(Variables{data}, coords)
	if err != nil {
		return nil, err
	}
	if len(all) != len(own) {
		return nil, errors.Errorf("coordinates use dimensions %v not on data dimensions %v", all.Names(), own.Names())
	}
	return &DataArray{data: data, coords: coords}, nil
}

// Name is the array's variable name, empty for unnamed arrays
func (a *DataArray) Name() string { return a.data.Name }

// Dims returns a copy of the dimension names, one per axis
func (a *DataArray) Dims() []string { return append([]string{}, a.data.Dims...) }

// Values is the array payload
func (a *DataArray) Values() *Values { return a.data.Data }

// Coords lists the coordinates on the array's dimensions
func (a *DataArray) Coords() Variables { return append(Variables{}, a.coords...) }

// Attrs holds the array's descriptive attributes
func (a *DataArray) Attrs() Attributes { return a.data.Meta }

// Variable returns the array as an unlabeled variable
func (a *DataArray) Variable() Variable { return a.data }

// Sizes lists the array's dimensions in axis order
func (a *DataArray) Sizes() Sizes { return a.data.Sizes() }

// Isel selects positions along the array's dimensions, coordinates included
func (a *DataArray) Isel(ix Indexers) (Object, error) {
	if err := checkIndexers(a.Sizes(), ix); err != nil {
		return nil, err
	}
	data, err := a.data.Isel(ix)
	if err != nil {
		return nil, err
	}
	coords, err := a.coords.isel(ix)
	if err != nil {
		return nil, err
	}
	return &DataArray{data: data, coords: coords}, nil
}

// ToDict exports the array with its name, dims, payload and coordinates
func (a *DataArray) ToDict() *Dict {
	return &Dict{
		Name:   a.data.Name,
		Dims:   append([]string{}, a.data.Dims...),
		Data:   a.data.Data,
		Coords: append(Variables{}, a.coords...),
		Attrs:  a.data.Meta,
	}
}

// Dataset is a collection of labeled arrays sharing dimensions and coordinates
type Dataset struct {
	dataVars Variables
	coords   Variables
	attrs    Attributes
	sizes    Sizes
}

var _ Object = (*Dataset)(nil)

// NewDataset collects data variables and coordinates. Variables sharing a
// dimension must agree on its extent, and names must be unique across both.
func NewDataset(dataVars, coords Variables) (*Dataset, error) {
	if err := validateNames("data", dataVars); err != nil {
		return nil, err
	}
	if err := validateNames("coordinate", coords); err != nil {
		return nil, err
	}
	for _, c := range coords {
		if _, ok := dataVars.Get(c.Name); ok {
			return nil, errors.Errorf("%q is both a data variable and a coordinate", c.Name)
		}
	}
	s, err := sizes(dataVars, coords)
	if err != nil {
		return nil, err
	}
	return &Dataset{dataVars: dataVars, coords: coords, sizes: s}, nil
}

// WithAttrs returns a copy of the dataset carrying dataset-level attributes
func (ds *Dataset) WithAttrs(attrs Attributes) *Dataset {
	cp := *ds
	cp.attrs = attrs.Copy()
	return &cp
}

// DataVars lists the data variables in order
func (ds *Dataset) DataVars() Variables { return append(Variables{}, ds.dataVars...) }

// Coords lists the coordinates in order
func (ds *Dataset) Coords() Variables { return append(Variables{}, ds.coords...) }

// Attrs holds dataset-level attributes
func (ds *Dataset) Attrs() Attributes { return ds.attrs }

// Sizes lists dimensions in the order they first appear, scanning data
// variables before coordinates
func (ds *Dataset) Sizes() Sizes { return append(Sizes{}, ds.sizes...) }

// DataArray picks out one data variable along with every coordinate that
// lies on its dimensions
func (ds *Dataset) DataArray(name string) (*DataArray, error) {
	v, ok := ds.dataVars.Get(name)
	if !ok {
		if _, ok := ds.coords.Get(name); !ok {
			return nil, errors.Wrapf(ErrNotFound, "variable %q", name)
		}
		v, _ = ds.coords.Get(name)
	}
	dims := map[string]bool{}
	for _, d := range v.Dims {
		dims[d] = true
	}
	var coords Variables
	for _, c := range ds.coords {
		inside := true
		for _, d := range c.Dims {
			inside = inside && dims[d]
		}
		if inside {
			coords = append(coords, c)
		}
	}
	return NewDataArray(v, coords)
}

// Isel selects positions along any of the dataset's dimensions. Attributes
// carry over.
func (ds *Dataset) Isel(ix Indexers) (Object, error) {
	if err := checkIndexers(ds.sizes, ix); err != nil {
		return nil, err
	}
	dataVars, err := ds.dataVars.isel(ix)
	if err != nil {
		return nil, err
	}
	coords, err := ds.coords.isel(ix)
	if err != nil {
		return nil, err
	}
	out, err := NewDataset(dataVars, coords)
	if err != nil {
		return nil, err
	}
	out.attrs = ds.attrs.Copy()
	return out, nil
}

// ToDict exports the data variables, coordinates and attributes
func (ds *Dataset) ToDict() *Dict {
	return &Dict{
		DataVars: append(Variables{}, ds.dataVars...),
		Coords:   append(Variables{}, ds.coords...),
		Attrs:    ds.attrs,
	}
}
