package filter

import (
	"math"

	"github.com/gogpu/euclase/internal/cache"
)

// GaussianKernel returns a normalized 1D Gaussian kernel with sigma equal
// to radius and 2*ceil(3*radius)+1 taps. radius <= 0 yields the identity
// kernel [1].
func GaussianKernel(radius float64) []float32 {
	if radius <= 0 {
		return []float32{1}
	}
	half := int(math.Ceil(radius * 3))
	kernel := make([]float32, half*2+1)

	twoSigmaSq := 2 * radius * radius
	var sum float64
	for i := range kernel {
		x := float64(i - half)
		v := math.Exp(-(x * x) / twoSigmaSq)
		kernel[i] = float32(v)
		sum += v
	}
	inv := float32(1 / sum)
	for i := range kernel {
		kernel[i] *= inv
	}
	return kernel
}

// kernels caches Gaussian kernels by radius in hundredths of a pixel.
var kernels = cache.New[int, []float32](64, nil)

// CachedGaussianKernel is GaussianKernel through a small LRU cache.
func CachedGaussianKernel(radius float64) []float32 {
	key := int(math.Round(radius * 100))
	if k, ok := kernels.Get(key); ok {
		return k
	}
	k := GaussianKernel(float64(key) / 100)
	kernels.Set(key, k)
	return k
}
