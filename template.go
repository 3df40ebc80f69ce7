package rrepr

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/qri-io/rrepr/zarr"
)

// MaxInlineWidth is the longest variable literal kept on a single line
var MaxInlineWidth = 100

// RenderTemplate writes the Go expression that rebuilds a sampled object.
// For KindArray data holds exactly one variable, the array itself; for
// KindCollection it holds the data variables. The text is tab indented the
// way gofmt lays it out and ends in a newline.
func RenderTemplate(kind Kind, data, coords zarr.Variables) (string, error) {
	p := &printer{b: &strings.Builder{}}
	switch kind {
	case KindArray:
		if len(data) != 1 {
			return "", errors.Errorf("array template takes one data variable, got %d", len(data))
		}
		p.write(kind.constructor() + "(")
		p.withIndent(func() {
			p.nl()
			p.variable("zarr.Variable", data[0])
			p.write(",")
			p.nl()
			p.variables(coords)
			p.write(",")
		})
	case KindCollection:
		p.write(kind.constructor() + "(")
		p.withIndent(func() {
			p.nl()
			p.variables(data)
			p.write(",")
			p.nl()
			p.variables(coords)
			p.write(",")
		})
	default:
		return "", errors.Wrapf(ErrUnsupportedKind, "kind %d", kind)
	}
	p.nl()
	p.write(")\n")
	return p.b.String(), nil
}

type printer struct {
	b     *strings.Builder
	depth int
}

func (p *printer) write(s string) { p.b.WriteString(s) }
func (p *printer) nl() {
	p.b.WriteByte('\n')
	for i := 0; i < p.depth; i++ {
		p.b.WriteByte('\t')
	}
}
func (p *printer) withIndent(fn func()) { p.depth++; fn(); p.depth-- }

func (p *printer) variables(vs zarr.Variables) {
	if len(vs) == 0 {
		p.write("zarr.Variables{}")
		return
	}
	p.write("zarr.Variables{")
	p.withIndent(func() {
		for _, v := range vs {
			p.nl()
			p.variable("", v)
			p.write(",")
		}
	})
	p.nl()
	p.write("}")
}

// variable writes a Variable literal. typ is empty inside a Variables literal
// where the element type is implied.
func (p *printer) variable(typ string, v zarr.Variable) {
	if line, ok := variableOneLine(typ, v); ok {
		p.write(line)
		return
	}

	p.write(typ + "{")
	p.withIndent(func() {
		if v.Name != "" {
			p.nl()
			p.write("Name: " + strconv.Quote(v.Name) + ",")
		}
		p.nl()
		p.write("Dims: " + dimsLiteral(v.Dims) + ",")
		p.nl()
		p.write("Data: ")
		p.payload(v.Data)
		p.write(",")
		if len(v.Meta) > 0 {
			p.nl()
			p.write("Meta: " + attrsLiteral(v.Meta) + ",")
		}
	})
	p.nl()
	p.write("}")
}

func variableOneLine(typ string, v zarr.Variable) (string, bool) {
	if v.Data == nil || v.Data.Ndim() > 1 || len(v.Meta) > 0 {
		return "", false
	}
	var fields []string
	if v.Name != "" {
		fields = append(fields, "Name: "+strconv.Quote(v.Name))
	}
	fields = append(fields, "Dims: "+dimsLiteral(v.Dims))

	sub := &printer{b: &strings.Builder{}}
	sub.payload(v.Data)
	fields = append(fields, "Data: "+sub.b.String())

	line := typ + "{" + strings.Join(fields, ", ") + "}"
	return line, len(line) <= MaxInlineWidth
}

// payload writes an array wrapped in the zarr.MustArray constructor. Every
// axis but the innermost puts one element per line.
func (p *printer) payload(v *zarr.Values) {
	if v == nil {
		p.write("nil")
		return
	}
	elems, typ := elements(v)
	p.write("zarr.MustArray(")
	if v.Ndim() == 0 {
		p.write(scalarLiteral(typ, elems[0]))
		p.write(")")
		return
	}
	p.write(strings.Repeat("[]", v.Ndim()) + typ)
	p.nested(v.Shape(), 0, elems)
	p.write(")")
}

func (p *printer) nested(shape []int, axis int, elems []string) {
	if axis == len(shape)-1 {
		p.write("{" + strings.Join(elems, ", ") + "}")
		return
	}
	if shape[axis] == 0 {
		p.write("{}")
		return
	}
	stride := len(elems) / shape[axis]
	p.write("{")
	p.withIndent(func() {
		for i := 0; i < shape[axis]; i++ {
			p.nl()
			p.nested(shape, axis+1, elems[i*stride:(i+1)*stride])
			p.write(",")
		}
	})
	p.nl()
	p.write("}")
}

// elements formats every element of v as a Go literal, and names the Go
// element type of the slice literal that holds them
func elements(v *zarr.Values) ([]string, string) {
	switch flat := v.Flat().(type) {
	case []bool:
		out := make([]string, len(flat))
		for i, x := range flat {
			out[i] = strconv.FormatBool(x)
		}
		return out, "bool"
	case []int64:
		out := make([]string, len(flat))
		for i, x := range flat {
			out[i] = strconv.FormatInt(x, 10)
		}
		return out, "int64"
	case []uint64:
		out := make([]string, len(flat))
		for i, x := range flat {
			out[i] = strconv.FormatUint(x, 10)
		}
		return out, "uint64"
	case []float64:
		out := make([]string, len(flat))
		for i, x := range flat {
			out[i] = floatLiteral(x)
		}
		return out, "float64"
	case []time.Time:
		out := make([]string, len(flat))
		for i, x := range flat {
			out[i] = timeLiteral(x)
		}
		return out, "time.Time"
	case []string:
		out := make([]string, len(flat))
		for i, x := range flat {
			out[i] = strconv.Quote(x)
		}
		return out, "string"
	}
	panic(fmt.Sprintf("unsupported element storage %T", v.Flat()))
}

// scalarLiteral gives a zero-dimensional element a Go type NewArray keeps
func scalarLiteral(typ, lit string) string {
	switch typ {
	case "int64", "uint64", "float64":
		return typ + "(" + lit + ")"
	}
	return lit
}

func floatLiteral(x float64) string {
	switch {
	case math.IsNaN(x):
		return "math.NaN()"
	case math.IsInf(x, 1):
		return "math.Inf(1)"
	case math.IsInf(x, -1):
		return "math.Inf(-1)"
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func timeLiteral(t time.Time) string {
	if t.IsZero() {
		return "time.Time{}"
	}
	t = t.UTC()
	return fmt.Sprintf("time.Date(%d, %d, %d, %d, %d, %d, %d, time.UTC)",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
}

func dimsLiteral(dims []string) string {
	quoted := make([]string, len(dims))
	for i, d := range dims {
		quoted[i] = strconv.Quote(d)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}

func attrsLiteral(attrs zarr.Attributes) string {
	keys := attrs.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.Quote(k) + ": " + anyLiteral(attrs[k])
	}
	return "zarr.Attributes{" + strings.Join(parts, ", ") + "}"
}

// anyLiteral formats an attribute value decoded from JSON. Whole floats keep
// their type with an explicit conversion.
func anyLiteral(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		lit := floatLiteral(x)
		if !strings.ContainsAny(lit, ".e(") {
			return "float64(" + lit + ")"
		}
		return lit
	case []interface{}:
		parts := make([]string, len(x))
		for i, el := range x {
			parts[i] = anyLiteral(el)
		}
		return "[]interface{}{" + strings.Join(parts, ", ") + "}"
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + anyLiteral(x[k])
		}
		return "map[string]interface{}{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("%#v", v)
}
