package zarr

import (
	"math"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

var timeType = reflect.TypeOf(time.Time{})

// Values is an n-dimensional block of elements stored in row-major order.
// The flat backing slice is one of []bool, []int64, []uint64, []float64,
// []time.Time or []string. Values are immutable once constructed; every
// operation that changes elements or shape returns a new Values.
type Values struct {
	dtype Dtype
	shape []int
	flat  interface{}
}

// NewValues wraps a flat slice as an array of the given shape. NewValues takes
// ownership of flat.
func NewValues(shape []int, flat interface{}) (*Values, error) {
	dt, err := dtypeOf(flat)
	if err != nil {
		return nil, err
	}
	n := reflect.ValueOf(flat).Len()
	if size := numElements(shape); size != n {
		return nil, errors.Errorf("shape %v holds %d elements, got %d", shape, size, n)
	}
	if dt.IsDatetime() {
		ts := flat.([]time.Time)
		for i, t := range ts {
			if !t.IsZero() {
				ts[i] = t.UTC()
			}
		}
	}
	return &Values{
		dtype: dt,
		shape: append([]int{}, shape...),
		flat:  flat,
	}, nil
}

// NewArray builds Values from a scalar or a rectangular nested slice of
// scalars. Integers widen to int64, unsigned integers to uint64 and floats to
// float64.
func NewArray(nested interface{}) (*Values, error) {
	rv := reflect.ValueOf(nested)
	if !rv.IsValid() {
		return nil, errors.New("cannot build an array from nil")
	}

	depth, elem := 0, rv.Type()
	for elem.Kind() == reflect.Slice || elem.Kind() == reflect.Array {
		depth++
		elem = elem.Elem()
	}
	flat, err := makeFlat(elem, 0)
	if err != nil {
		return nil, err
	}

	shape := make([]int, depth)
	for v, d := rv, 0; d < depth; d++ {
		shape[d] = v.Len()
		if v.Len() == 0 {
			break
		}
		v = v.Index(0)
	}

	fv := reflect.ValueOf(flat)
	var walk func(v reflect.Value, d int) error
	walk = func(v reflect.Value, d int) error {
		if d == depth {
			fv = reflect.Append(fv, convertScalar(v, fv.Type().Elem()))
			return nil
		}
		if v.Len() != shape[d] {
			return errors.Errorf("ragged nested slice: axis %d has lengths %d and %d", d, shape[d], v.Len())
		}
		for i := 0; i < v.Len(); i++ {
			if err := walk(v.Index(i), d+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(rv, 0); err != nil {
		return nil, err
	}

	return NewValues(shape, fv.Interface())
}

// MustArray is like NewArray but panics if nested is not a rectangular
// slice of supported scalars. It is the constructor used in rendered samples.
func MustArray(nested interface{}) *Values {
	v, err := NewArray(nested)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Values) Dtype() Dtype { return v.dtype }

// Shape returns a copy of the array's extent along each axis
func (v *Values) Shape() []int { return append([]int{}, v.shape...) }

// Ndim is the number of axes
func (v *Values) Ndim() int { return len(v.shape) }

// Len is the total number of elements
func (v *Values) Len() int { return reflect.ValueOf(v.flat).Len() }

// Flat exposes the row-major backing slice. Callers must not modify it.
func (v *Values) Flat() interface{} { return v.flat }

// Float64s returns the backing slice of a float array
func (v *Values) Float64s() ([]float64, bool) {
	f, ok := v.flat.([]float64)
	return f, ok
}

// MapFloat64 returns a new float array with fn applied to every element. Arrays
// of any other element kind are returned as-is.
func (v *Values) MapFloat64(fn func(float64) float64) *Values {
	src, ok := v.Float64s()
	if !ok {
		return v
	}
	dst := make([]float64, len(src))
	for i, x := range src {
		dst[i] = fn(x)
	}
	return &Values{dtype: v.dtype, shape: v.Shape(), flat: dst}
}

// Take selects idx positions along axis into a new array. Positions may
// repeat and appear in any order.
func (v *Values) Take(axis int, idx []int) (*Values, error) {
	if axis < 0 || axis >= len(v.shape) {
		return nil, errors.Errorf("axis %d out of range for %d-d array", axis, len(v.shape))
	}
	extent := v.shape[axis]
	for _, i := range idx {
		if i < 0 || i >= extent {
			return nil, errors.Errorf("index %d out of range for axis %d with extent %d", i, axis, extent)
		}
	}

	outer := numElements(v.shape[:axis])
	inner := numElements(v.shape[axis+1:])
	shape := v.Shape()
	shape[axis] = len(idx)

	src := reflect.ValueOf(v.flat)
	dst := reflect.MakeSlice(src.Type(), outer*len(idx)*inner, outer*len(idx)*inner)
	for o := 0; o < outer; o++ {
		for j, i := range idx {
			from := (o*extent + i) * inner
			to := (o*len(idx) + j) * inner
			reflect.Copy(dst.Slice(to, to+inner), src.Slice(from, from+inner))
		}
	}

	return &Values{dtype: v.dtype, shape: shape, flat: dst.Interface()}, nil
}

// Copy returns a deep copy
func (v *Values) Copy() *Values {
	src := reflect.ValueOf(v.flat)
	dst := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
	reflect.Copy(dst, src)
	return &Values{dtype: v.dtype, shape: v.Shape(), flat: dst.Interface()}
}

// Equal reports whether two arrays hold the same elements in the same shape.
// NaN elements compare equal to each other.
func (v *Values) Equal(o *Values) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.dtype != o.dtype || !reflect.DeepEqual(v.shape, o.shape) {
		return false
	}
	a, aok := v.Float64s()
	b, bok := o.Float64s()
	if aok && bok {
		for i := range a {
			if a[i] != b[i] && !(math.IsNaN(a[i]) && math.IsNaN(b[i])) {
				return false
			}
		}
		return true
	}
	if at, ok := v.flat.([]time.Time); ok {
		bt := o.flat.([]time.Time)
		for i := range at {
			if !at[i].Equal(bt[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(v.flat, o.flat)
}

func numElements(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func dtypeOf(flat interface{}) (Dtype, error) {
	switch flat.(type) {
	case []bool:
		return DtypeBool, nil
	case []int64:
		return DtypeInt64, nil
	case []uint64:
		return DtypeUint64, nil
	case []float64:
		return DtypeFloat64, nil
	case []time.Time:
		return DtypeDatetime, nil
	case []string:
		return DtypeObject, nil
	default:
		return Dtype{}, errors.Errorf("unsupported element storage %T", flat)
	}
}

// makeFlat allocates the backing slice used to store elements of type t
func makeFlat(t reflect.Type, n int) (interface{}, error) {
	if t == timeType {
		return make([]time.Time, n), nil
	}
	switch t.Kind() {
	case reflect.Bool:
		return make([]bool, n), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return make([]int64, n), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return make([]uint64, n), nil
	case reflect.Float32, reflect.Float64:
		return make([]float64, n), nil
	case reflect.String:
		return make([]string, n), nil
	default:
		return nil, errors.Errorf("unsupported element type %s", t)
	}
}

func convertScalar(v reflect.Value, to reflect.Type) reflect.Value {
	if v.Type() == to {
		return v
	}
	return v.Convert(to)
}
