package rrepr

import (
	"fmt"

	"github.com/qri-io/rrepr/zarr"
)

// Wrap gives obj a String method that prints a fresh sample, so it can be
// passed straight to fmt or a logger. The clipboard is never written.
func Wrap(obj zarr.Object, cfg Config) fmt.Stringer {
	cfg.Clipboard = NopClipboard{}
	return sampler{obj: obj, cfg: cfg}
}

type sampler struct {
	obj zarr.Object
	cfg Config
}

func (s sampler) String() string {
	text, err := s.cfg.Render(s.obj)
	if err != nil {
		return fmt.Sprintf("<rrepr: %s>", err)
	}
	return text
}
