package zarr

import (
	"strconv"
	"strings"
)

// A mapping of one item from a chunk to the output array. Chunks at the
// trailing edge of an array are stored full-size, so only items that fall
// inside the array shape get a projection.
type chunkProjection struct {
	// Flat index into the chunk array
	ChunkSelection int
	// Flat index into the target (output) array
	OutSelection int
}

// ChunkKey generates the store key of a chunk from its grid coordinates. A
// zero-dimensional array has a single chunk keyed "0".
func ChunkKey(coords []int, separator string) string {
	if len(coords) == 0 {
		return "0"
	}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, separator)
}

// chunkGrid lists the grid coordinates of every chunk covering shape, in
// row-major order
func chunkGrid(shape, chunks []int) [][]int {
	counts := make([]int, len(shape))
	for i := range shape {
		if shape[i] == 0 {
			return nil
		}
		counts[i] = (shape[i] + chunks[i] - 1) / chunks[i]
	}

	grid := [][]int{}
	each(counts, func(coord []int) {
		grid = append(grid, append([]int{}, coord...))
	})
	return grid
}

// projectChunk maps the items of the chunk at coords onto the output array
func projectChunk(shape, chunks, coords []int) []chunkProjection {
	var projections []chunkProjection
	outStrides := strides(shape)
	each(chunks, func(inner []int) {
		out := 0
		for d := range inner {
			pos := coords[d]*chunks[d] + inner[d]
			if pos >= shape[d] {
				return
			}
			out += pos * outStrides[d]
		}
		projections = append(projections, chunkProjection{
			ChunkSelection: chunkOffset(inner, chunks),
			OutSelection:   out,
		})
	})
	return projections
}

// chunkOffset is the flat row-major index of inner within a chunk
func chunkOffset(inner, chunks []int) int {
	off := 0
	for d, s := range strides(chunks) {
		off += inner[d] * s
	}
	return off
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

// each calls fn with every coordinate within extents in row-major order. fn
// must not retain the coordinate slice.
func each(extents []int, fn func([]int)) {
	for _, e := range extents {
		if e == 0 {
			return
		}
	}
	coord := make([]int, len(extents))
	for {
		fn(coord)
		d := len(extents) - 1
		for ; d >= 0; d-- {
			coord[d]++
			if coord[d] < extents[d] {
				break
			}
			coord[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
