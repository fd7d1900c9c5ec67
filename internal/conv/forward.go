package conv

import (
	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/deepconv/internal/layer"
	"github.com/FlavioCFOliveira/deepconv/internal/parallel"
)

func (n *Network) checkImage(img []byte) error {
	if len(img) != len(n.input) {
		return errors.Wrapf(ErrDimensionMismatch, "image has %d bytes, want %d", len(img), len(n.input))
	}
	return nil
}

func (n *Network) loadImage(img []byte) {
	for i, b := range img {
		n.input[i] = float32(b) / 255
	}
}

// activeLayers returns the number of layers a forward pass runs: all of
// them once trained, otherwise the frozen ones.
func (n *Network) activeLayers() int {
	if n.trainingComplete {
		return n.conf.Layers
	}
	return min(n.state.Layer, n.conf.Layers)
}

// Conv runs img through the network and returns the number of outputs.
// While learning is enabled and training is incomplete one training step
// is taken first. Only trained layers are run; until the first layer is
// trained the outputs are left untouched.
func (n *Network) Conv(img []byte, useDropouts bool) (int, error) {
	if err := n.checkLive(); err != nil {
		return 0, err
	}
	if err := n.checkImage(img); err != nil {
		return 0, err
	}
	if n.enableLearning && !n.trainingComplete {
		n.learn(img)
	}

	n.loadImage(img)
	var seed uint64
	useDropouts = useDropouts && n.dropout.Percent() > 0
	if useDropouts {
		n.dropoutCtr++
		seed = layer.Mix(uint64(n.conf.RandomSeed), n.dropoutCtr)
	}
	in := n.input
	for i := 0; i < n.activeLayers(); i++ {
		n.convolveLayer(i, in, useDropouts, seed)
		in = n.layers[i].Pooling
	}
	return n.Outputs(), nil
}

// convolveLayer encodes every position of layer i from in and pools the
// result. Every position is written by exactly one goroutine.
func (n *Network) convolveLayer(i int, in []float32, useDropouts bool, seed uint64) {
	l := n.layers[i]
	f := l.features
	inputs := l.Autocoder.Inputs()

	parallel.For(l.width*l.height, n.workers, func(start, end int) {
		patch := make([]float32, inputs)
		for pos := start; pos < end; pos++ {
			l.extractPatch(in, pos%l.width, pos/l.width, patch)
			out := l.Convolution[pos*f : (pos+1)*f]
			l.Autocoder.Encode(patch, out)
			if useDropouts {
				n.dropout.Apply(out, layer.NewRNG(layer.Mix(seed, uint64(i), uint64(pos))))
			}
		}
	})

	_, rows := l.pool.OutputSize()
	parallel.For(rows, n.workers, func(start, end int) {
		l.pool.ForwardRows(l.Convolution, l.Pooling, start, end)
	})
}
