package conv

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/vecf32"

	"github.com/FlavioCFOliveira/deepconv/internal/parallel"
)

// Deconv reconstructs an image from the pooled map of startLayer, as left
// by the last Conv, and writes it into img. startLayer may be any layer up
// to and including State().Layer. Conv does not fill the map of a layer
// that is still training, so while training runs a reconstruction that
// reflects the input starts at State().Layer-1. Feature maps are not
// modified.
func (n *Network) Deconv(startLayer int, img []byte) error {
	if err := n.checkLive(); err != nil {
		return err
	}
	top := min(n.state.Layer, n.conf.Layers-1)
	if startLayer < 0 || startLayer > top {
		return errors.Wrapf(ErrIndexOutOfRange, "deconv from layer %d, want 0..%d", startLayer, top)
	}
	if err := n.checkImage(img); err != nil {
		return err
	}

	current := n.layers[startLayer].Pooling
	for i := startLayer; i >= 0; i-- {
		current = n.deconvolveLayer(i, current)
	}

	for i, v := range current {
		img[i] = byte(math32.Min(math32.Max(v*255, 0), 255) + 0.5)
	}
	return nil
}

// deconvolveLayer maps the pooled map of layer i back onto its input.
// Overlapping patches are averaged; cells no patch covers are zero.
func (n *Network) deconvolveLayer(i int, pooled []float32) []float32 {
	l := n.layers[i]
	f := l.features
	inputs := l.Autocoder.Inputs()
	positions := l.width * l.height

	unpooled := make([]float32, len(l.Convolution))
	parallel.For(l.height, n.workers, func(start, end int) {
		l.pool.UnpoolRows(pooled, unpooled, start, end)
	})

	patches := make([]float32, positions*inputs)
	parallel.For(positions, n.workers, func(start, end int) {
		for pos := start; pos < end; pos++ {
			l.Autocoder.Decode(unpooled[pos*f:(pos+1)*f], patches[pos*inputs:(pos+1)*inputs])
		}
	})

	size := l.inputWidth * l.inputHeight * l.inputDepth
	sum := make([]float32, size)
	count := make([]float32, size)
	for pos := 0; pos < positions; pos++ {
		l.scatterPatch(patches[pos*inputs:(pos+1)*inputs], pos%l.width, pos/l.width, sum, count)
	}
	for j, c := range count {
		if c == 0 {
			count[j] = 1
		}
	}
	vecf32.Div(sum, count)
	return sum
}
