package zarr

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// OpenDataset reads every array in the group at path into a Dataset, using
// the group's consolidated metadata to discover arrays. Dimension names come
// from each array's _ARRAY_DIMENSIONS attribute. One dimensional arrays named
// after their dimension, and arrays listed in a coordinates attribute, become
// coordinates; everything else is a data variable. Variables are ordered by
// name.
func OpenDataset(ctx context.Context, store Store, path string) (*Dataset, error) {
	p, err := NewPath(path)
	if err != nil {
		return nil, err
	}

	data, err := getBytes(store, p.Join(string(MTMetadata)).String())
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q needs consolidated metadata", path)
	}
	cm := &ConsolidatedMetadata{}
	if err := json.Unmarshal(data, cm); err != nil {
		return nil, errors.Wrapf(err, "reading %q consolidated metadata", path)
	}

	names := cm.Arrays(p)
	vars := make(Variables, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ap := p.Join(name)
			meta, _ := cm.ArrayMeta(ap)
			arr, err := newArray(store, ap, meta, cm.Attributes(ap))
			if err != nil {
				return err
			}
			v, err := arr.Variable(name)
			if err != nil {
				return err
			}
			vars[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groupAttrs := cm.Attributes(p).Copy()
	coordNames := map[string]bool{}
	for _, c := range groupAttrs.Coordinates() {
		coordNames[c] = true
	}
	delete(groupAttrs, CoordinatesKey)
	for i, v := range vars {
		for _, c := range v.Meta.Coordinates() {
			coordNames[c] = true
		}
		if _, ok := v.Meta[CoordinatesKey]; ok {
			meta := v.Meta.Copy()
			delete(meta, CoordinatesKey)
			if len(meta) == 0 {
				meta = nil
			}
			vars[i].Meta = meta
		}
	}

	var dataVars, coords Variables
	for _, v := range vars {
		if coordNames[v.Name] || (len(v.Dims) == 1 && v.Dims[0] == v.Name) {
			coords = append(coords, v)
		} else {
			dataVars = append(dataVars, v)
		}
	}

	ds, err := NewDataset(dataVars, coords)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", path)
	}
	if len(groupAttrs) > 0 {
		ds = ds.WithAttrs(groupAttrs)
	}
	return ds, nil
}

// OpenDataArray reads the group at path and selects the variable called name
// together with the coordinates on its dimensions
func OpenDataArray(ctx context.Context, store Store, path, name string) (*DataArray, error) {
	ds, err := OpenDataset(ctx, store, path)
	if err != nil {
		return nil, err
	}
	return ds.DataArray(name)
}

// Variable reads the whole array into a named variable. Arrays written
// without xarray's _ARRAY_DIMENSIONS attribute get dims dim_0, dim_1, ...
func (a *Array) Variable(name string) (Variable, error) {
	values, err := a.ReadAll()
	if err != nil {
		return Variable{}, err
	}

	dims, ok := a.attrs.Dims()
	if !ok {
		dims = make([]string, len(a.meta.Shape))
		for i := range dims {
			dims[i] = "dim_" + strconv.Itoa(i)
		}
	}

	meta := a.attrs.Copy()
	delete(meta, ArrayDimensionsKey)
	if len(meta) == 0 {
		meta = nil
	}

	v := Variable{Name: name, Dims: dims, Data: values, Meta: meta}
	if err := v.Validate(); err != nil {
		return Variable{}, err
	}
	return v, nil
}
