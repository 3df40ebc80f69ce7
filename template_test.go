package rrepr

import (
	"errors"
	"go/parser"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/qri-io/rrepr/zarr"
)

func TestRenderTemplateRounded(t *testing.T) {
	data := DeparseVariables(zarr.Variables{{Dims: []string{"x"}, Data: zarr.MustArray([]float64{279.79, 286.7})}}, 1)
	got, err := RenderTemplate(KindArray, data, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := `zarr.NewDataArray(
	zarr.Variable{Dims: []string{"x"}, Data: zarr.MustArray([]float64{279.8, 286.7})},
	zarr.Variables{},
)
`
	if got != want {
		t.Errorf("output mismatch.\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestRenderTemplateLiterals(t *testing.T) {
	cases := []struct {
		data *zarr.Values
		want string
	}{
		{zarr.MustArray([]bool{true, false}), "zarr.MustArray([]bool{true, false})"},
		{zarr.MustArray([]uint64{7}), "zarr.MustArray([]uint64{7})"},
		{zarr.MustArray([]string{`a"b`, ""}), `zarr.MustArray([]string{"a\"b", ""})`},
		{zarr.MustArray([]float64{math.NaN(), math.Inf(-1), 1e21, 294}), "zarr.MustArray([]float64{math.NaN(), math.Inf(-1), 1e+21, 294})"},
		{zarr.MustArray([]time.Time{{}}), "zarr.MustArray([]time.Time{time.Time{}})"},
		{zarr.MustArray(int64(3)), "zarr.MustArray(int64(3))"},
		{zarr.MustArray(2.5), "zarr.MustArray(float64(2.5))"},
	}

	for i, c := range cases {
		got, err := RenderTemplate(KindCollection, zarr.Variables{{Name: "v", Dims: make([]string, c.data.Ndim()), Data: c.data}}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(got, c.want) {
			t.Errorf("case %d: %q not found in\n%s", i, c.want, got)
		}
	}
}

func TestRenderTemplateThreeDimensions(t *testing.T) {
	data := zarr.Variables{{
		Name: "cube",
		Dims: []string{"x", "y", "z"},
		Data: zarr.MustArray([][][]int64{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}}),
		Meta: zarr.Attributes{"scale": 2.0, "flags": []interface{}{"a", 1.5}, "note": nil},
	}}
	got, err := RenderTemplate(KindCollection, data, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := `zarr.NewDataset(
	zarr.Variables{
		{
			Name: "cube",
			Dims: []string{"x", "y", "z"},
			Data: zarr.MustArray([][][]int64{
				{
					{1, 2},
					{3, 4},
				},
				{
					{5, 6},
					{7, 8},
				},
			}),
			Meta: zarr.Attributes{"flags": []interface{}{"a", 1.5}, "note": nil, "scale": float64(2)},
		},
	},
	zarr.Variables{},
)
`
	if got != want {
		t.Errorf("output mismatch.\nwant:\n%s\ngot:\n%s", want, got)
	}
	if _, err := parser.ParseExpr(got); err != nil {
		t.Errorf("not a Go expression: %s", err)
	}
}

func TestRenderTemplateLongVariable(t *testing.T) {
	long := make([]int64, 40)
	data := zarr.Variables{{Name: "x", Dims: []string{"x"}, Data: zarr.MustArray(long)}}
	got, err := RenderTemplate(KindCollection, data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "\t\t{\n\t\t\tName: \"x\",\n") {
		t.Errorf("expected a multiline variable past %d columns:\n%s", MaxInlineWidth, got)
	}
}

func TestRenderTemplateErrors(t *testing.T) {
	if _, err := RenderTemplate(Kind(0), nil, nil); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("expected ErrUnsupportedKind, got %v", err)
	}
	if _, err := RenderTemplate(KindArray, nil, nil); err == nil {
		t.Error("expected error rendering an array without data")
	}
}
