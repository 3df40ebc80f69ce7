// Package rrepr renders a small random sample of a labeled array or dataset as
// the Go expression that rebuilds it. The output is meant for pasting into
// tests, bug reports and logs where the full object would be too large to
// show.
package rrepr

import (
	"context"

	"github.com/qri-io/rrepr/zarr"
	"github.com/sirupsen/logrus"
)

// Kind tags the two shapes of object a render can start from
type Kind int

const (
	// KindArray is a single labeled array
	KindArray Kind = iota + 1
	// KindCollection is a set of labeled arrays sharing coordinates
	KindCollection
)

// String implements the fmt.Stringer interface for Kind
func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindCollection:
		return "collection"
	}
	return "unknown"
}

func (k Kind) constructor() string {
	if k == KindArray {
		return "zarr.NewDataArray"
	}
	return "zarr.NewDataset"
}

// KindOf reports the kind of obj
func KindOf(obj zarr.Object) (Kind, error) {
	switch obj.(type) {
	case *zarr.DataArray:
		return KindArray, nil
	case *zarr.Dataset:
		return KindCollection, nil
	}
	return 0, ErrUnsupportedKind
}

// Config holds render settings
type Config struct {
	// Size is the number of positions drawn along every dimension
	Size int
	// Seed fixes the draw when non-nil
	Seed *int64
	// Digits is the number of decimal places float payloads keep
	Digits int
	// DropAttrs leaves descriptive attributes out of the rendered text
	DropAttrs bool

	Formatter Formatter
	Clipboard Clipboard
	Logger    logrus.FieldLogger
}

// DefaultConfig draws two unseeded positions per dimension, rounds to one
// decimal, formats in-process and copies the result to the system clipboard
func DefaultConfig() Config {
	return Config{
		Size:      2,
		Digits:    DefaultDigits,
		Formatter: GoFormatter{},
		Clipboard: SystemClipboard{},
		Logger:    logrus.StandardLogger(),
	}
}

// Seed returns a pointer to n for use as Config.Seed
func Seed(n int64) *int64 { return &n }

// Render samples obj with the default configuration
func Render(obj zarr.Object, size int, seed *int64) (string, error) {
	cfg := DefaultConfig()
	cfg.Size = size
	cfg.Seed = seed
	return cfg.Render(obj)
}

// Render samples obj and renders the sample as Go source
func (c Config) Render(obj zarr.Object) (string, error) {
	return c.RenderContext(context.Background(), obj)
}

// RenderContext samples obj, renders the sample, formats the text and copies
// it to the clipboard. ctx bounds the formatter call.
func (c Config) RenderContext(ctx context.Context, obj zarr.Object) (string, error) {
	c = c.withDefaults()

	kind, err := KindOf(obj)
	if err != nil {
		return "", err
	}
	log := c.Logger.WithFields(logrus.Fields{
		"kind": kind.String(),
		"size": c.Size,
		"seed": seedField(c.Seed),
	})

	sampled, err := Sample(obj, c.Size, c.Seed)
	if err != nil {
		return "", err
	}
	d := sampled.ToDict()
	log.WithField("sizes", sampled.Sizes()).Debug("sampled")

	coords := DeparseVariables(d.Coords, c.Digits)
	var data zarr.Variables
	if kind == KindArray {
		data = zarr.Variables{DeparseVariable(zarr.Variable{Name: d.Name, Dims: d.Dims, Data: d.Data, Meta: d.Attrs}, c.Digits)}
	} else {
		data = DeparseVariables(d.DataVars, c.Digits)
	}
	if c.DropAttrs {
		data, coords = dropMeta(data), dropMeta(coords)
	}

	text, err := RenderTemplate(kind, data, coords)
	if err != nil {
		return "", err
	}
	log.WithField("bytes", len(text)).Debug("rendered")

	text, err = c.Formatter.Format(ctx, text)
	if err != nil {
		return "", err
	}

	if err := c.Clipboard.WriteAll(text); err != nil {
		log.WithError(err).Warn("copying render to clipboard")
	}
	return text, nil
}

func (c Config) withDefaults() Config {
	if c.Formatter == nil {
		c.Formatter = GoFormatter{}
	}
	if c.Clipboard == nil {
		c.Clipboard = NopClipboard{}
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}

func seedField(seed *int64) interface{} {
	if seed == nil {
		return "random"
	}
	return *seed
}
