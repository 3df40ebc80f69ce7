package rrepr

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/qri-io/rrepr/zarr"
)

// SampleIndices draws size distinct positions along every dimension of sizes.
//
// Dimension i draws from its own generator seeded with seed+i, using a partial
// Fisher-Yates shuffle, so equal seeds and extents always give equal indices
// and one dimension's draws never depend on another's extent. A nil seed
// picks a base seed from the clock. Positions come back in draw order, not
// sorted.
func SampleIndices(sizes zarr.Sizes, size int, seed *int64) (zarr.Indexers, error) {
	for _, d := range sizes {
		if size < 1 || size > d.Size {
			return nil, errors.Wrapf(ErrInvalidSampleSize, "dimension %q has extent %d, cannot draw %d", d.Name, d.Size, size)
		}
	}

	base := time.Now().UnixNano()
	if seed != nil {
		base = *seed
	}

	ix := make(zarr.Indexers, len(sizes))
	for i, d := range sizes {
		r := rand.New(rand.NewSource(base + int64(i)))
		ix[d.Name] = drawDistinct(r, d.Size, size)
	}
	return ix, nil
}

// drawDistinct runs the first n steps of a Fisher-Yates shuffle of
// [0, extent), tracking only the swapped positions
func drawDistinct(r *rand.Rand, extent, n int) []int {
	swapped := map[int]int{}
	at := func(k int) int {
		if v, ok := swapped[k]; ok {
			return v
		}
		return k
	}

	out := make([]int, n)
	for j := range out {
		k := j + int(r.Int63n(int64(extent-j)))
		out[j] = at(k)
		swapped[k] = at(j)
	}
	return out
}

// Sample shrinks every dimension of obj to size randomly chosen positions.
// obj is left unmodified.
func Sample(obj zarr.Object, size int, seed *int64) (zarr.Object, error) {
	ix, err := SampleIndices(obj.Sizes(), size, seed)
	if err != nil {
		return nil, err
	}
	return obj.Isel(ix)
}
