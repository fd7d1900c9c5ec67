package conv

import (
	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/deepconv/internal/activations"
	"github.com/FlavioCFOliveira/deepconv/internal/autocoder"
)

// MaxLayers is the largest number of layers a network may have.
const MaxLayers = 100

// MaxLayerUnits bounds the length of any single feature map buffer.
const MaxLayerUnits = 1 << 28

// Config configures a convolution network. It is immutable once the
// network has been created.
type Config struct {
	Layers int // number of convolution layers

	// dimensions of the input image; depth is 3 for rgb
	InputsAcross int
	InputsDown   int
	InputsDepth  int

	MaxFeatures int // features learned at each layer

	ReductionFactor int // receptive field growth and map shrink per layer
	PoolingFactor   int // max-pooling window at each layer

	ErrorThresholds []float32 // training error at which each layer is done
	MaxIterations   uint      // training steps after which a layer is done regardless

	Activation      string // hidden unit activation: Sigmoid, Tanh, ReLU, Linear or LeakyReLU:<alpha>
	LearningRate    float32
	DropoutPercent  float32
	TrainingSamples int // patches per training step, 0 = every position
	HistoryStep     int // training steps per history sample

	RandomSeed uint32
}

// DefaultConfig returns a three layer configuration for images of the
// given size.
func DefaultConfig(across, down, depth int) Config {
	return Config{
		Layers:          3,
		InputsAcross:    across,
		InputsDown:      down,
		InputsDepth:     depth,
		MaxFeatures:     16,
		ReductionFactor: 2,
		PoolingFactor:   2,
		ErrorThresholds: []float32{0.01, 0.01, 0.01},
		MaxIterations:   10000,
		Activation:      "Sigmoid",
		LearningRate:    autocoder.DefaultLearningRate,
		HistoryStep:     1,
		RandomSeed:      7919,
	}
}

// Validate checks the configuration, including that every layer's pooled
// map is at least one unit across and down.
func (c Config) Validate() error {
	switch {
	case c.Layers < 1 || c.Layers > MaxLayers:
		return errors.Wrapf(ErrConfiguration, "%d layers, want 1..%d", c.Layers, MaxLayers)
	case c.InputsAcross < 1 || c.InputsDown < 1 || c.InputsDepth < 1:
		return errors.Wrapf(ErrConfiguration, "input %dx%dx%d", c.InputsAcross, c.InputsDown, c.InputsDepth)
	case c.MaxFeatures < 1:
		return errors.Wrapf(ErrConfiguration, "%d features", c.MaxFeatures)
	case c.ReductionFactor < 1 || c.PoolingFactor < 1:
		return errors.Wrapf(ErrConfiguration, "reduction %d pooling %d", c.ReductionFactor, c.PoolingFactor)
	case len(c.ErrorThresholds) != c.Layers:
		return errors.Wrapf(ErrConfiguration, "%d error thresholds for %d layers", len(c.ErrorThresholds), c.Layers)
	case c.MaxIterations == 0:
		return errors.Wrap(ErrConfiguration, "iteration cap must be positive")
	case !validActivation(c.Activation):
		return errors.Wrapf(ErrConfiguration, "activation %q", c.Activation)
	case c.LearningRate <= 0:
		return errors.Wrapf(ErrConfiguration, "learning rate %v", c.LearningRate)
	case c.DropoutPercent < 0 || c.DropoutPercent > 100:
		return errors.Wrapf(ErrConfiguration, "dropout %v%%", c.DropoutPercent)
	case c.TrainingSamples < 0:
		return errors.Wrapf(ErrConfiguration, "%d training samples", c.TrainingSamples)
	case c.HistoryStep < 1:
		return errors.Wrapf(ErrConfiguration, "history step %d", c.HistoryStep)
	}

	for i := 0; i < c.Layers; i++ {
		w, _ := c.LayerWidth(i, true)
		h, _ := c.LayerHeight(i, true)
		if w < 1 || h < 1 {
			return errors.Wrapf(ErrConfiguration, "layer %d pools to %dx%d", i, w, h)
		}
	}
	return nil
}

func validActivation(name string) bool {
	_, err := activations.ByName(name)
	return err == nil
}

func (c Config) clone() Config {
	c.ErrorThresholds = append([]float32(nil), c.ErrorThresholds...)
	return c
}
