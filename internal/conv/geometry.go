package conv

import (
	"math"

	"github.com/pkg/errors"
)

// Layer geometry. All functions are pure over the static configuration.
//
//	LayerWidth(i, false) = floor(InputsAcross / r^i)   (repeated floor division)
//	LayerWidth(i, true)  = floor(LayerWidth(i, false) / PoolingFactor)
//	PatchRadius(i)       = r^i
//	InputWidth(i)        = InputsAcross, or LayerWidth(i-1, true) for i > 0
//	UnitsAcross(i)       = min(2*PatchRadius(i), InputWidth(i))
//
// where r is the reduction factor. Heights follow the same rules.
//
// Map size depends on r alone while each layer convolves the pooled map
// below it. When r < PoolingFactor a layer's map is therefore larger than
// its input: patch centres repeat input positions and the input is
// upsampled. With r == 1 the map never shrinks with depth.

func (c Config) checkIndex(i int) error {
	if i < 0 || i >= c.Layers {
		return errors.Wrapf(ErrIndexOutOfRange, "layer %d of %d", i, c.Layers)
	}
	if c.ReductionFactor < 1 || c.PoolingFactor < 1 {
		return errors.Wrapf(ErrConfiguration, "reduction %d pooling %d", c.ReductionFactor, c.PoolingFactor)
	}
	return nil
}

func (c Config) reduce(size, i int, afterPooling bool) int {
	for j := 0; j < i; j++ {
		size /= c.ReductionFactor
	}
	if afterPooling {
		size /= c.PoolingFactor
	}
	return size
}

// LayerWidth returns the width of layer i's feature map.
func (c Config) LayerWidth(i int, afterPooling bool) (int, error) {
	if err := c.checkIndex(i); err != nil {
		return 0, err
	}
	return c.reduce(c.InputsAcross, i, afterPooling), nil
}

// LayerHeight returns the height of layer i's feature map.
func (c Config) LayerHeight(i int, afterPooling bool) (int, error) {
	if err := c.checkIndex(i); err != nil {
		return 0, err
	}
	return c.reduce(c.InputsDown, i, afterPooling), nil
}

// PatchRadius returns the receptive field half-width of layer i.
func (c Config) PatchRadius(i int) (int, error) {
	if err := c.checkIndex(i); err != nil {
		return 0, err
	}
	radius := 1
	for j := 0; j < i; j++ {
		if radius > math.MaxInt32/c.ReductionFactor {
			return math.MaxInt32, nil
		}
		radius *= c.ReductionFactor
	}
	return radius, nil
}

// InputWidth returns the width of the map layer i convolves.
func (c Config) InputWidth(i int) (int, error) {
	if err := c.checkIndex(i); err != nil {
		return 0, err
	}
	if i == 0 {
		return c.InputsAcross, nil
	}
	return c.reduce(c.InputsAcross, i-1, true), nil
}

// InputHeight returns the height of the map layer i convolves.
func (c Config) InputHeight(i int) (int, error) {
	if err := c.checkIndex(i); err != nil {
		return 0, err
	}
	if i == 0 {
		return c.InputsDown, nil
	}
	return c.reduce(c.InputsDown, i-1, true), nil
}

// InputDepth returns the number of channels of the map layer i convolves.
func (c Config) InputDepth(i int) (int, error) {
	if err := c.checkIndex(i); err != nil {
		return 0, err
	}
	if i == 0 {
		return c.InputsDepth, nil
	}
	return c.MaxFeatures, nil
}

// UnitsAcross returns the patch width of layer i.
func (c Config) UnitsAcross(i int) (int, error) {
	radius, err := c.PatchRadius(i)
	if err != nil {
		return 0, err
	}
	w, _ := c.InputWidth(i)
	return patchExtent(radius, w), nil
}

// UnitsDown returns the patch height of layer i.
func (c Config) UnitsDown(i int) (int, error) {
	radius, err := c.PatchRadius(i)
	if err != nil {
		return 0, err
	}
	h, _ := c.InputHeight(i)
	return patchExtent(radius, h), nil
}

func patchExtent(radius, input int) int {
	if radius > input/2 {
		return max(input, 1)
	}
	return 2 * radius
}

// LayerUnits returns the pre-pool unit count of layer i:
// width * height * MaxFeatures.
func (c Config) LayerUnits(i int) (int, error) {
	w, err := c.LayerWidth(i, false)
	if err != nil {
		return 0, err
	}
	h, _ := c.LayerHeight(i, false)
	return w * h * c.MaxFeatures, nil
}

// PooledUnits returns the post-pool unit count of layer i.
func (c Config) PooledUnits(i int) (int, error) {
	w, err := c.LayerWidth(i, true)
	if err != nil {
		return 0, err
	}
	h, _ := c.LayerHeight(i, true)
	return w * h * c.MaxFeatures, nil
}
