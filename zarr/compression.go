package zarr

import (
	"io"

	"github.com/qri-io/dataset/compression"
)

// CompressionMeta defines compression settings this package understands
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// Decompressor wraps a raw chunk reader. A nil compressor means chunks are
// stored uncompressed.
func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	if m == nil || m.ID == "" {
		return r, nil
	}
	return compression.Decompressor(m.ID, r)
}
