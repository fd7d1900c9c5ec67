package conv

import (
	"encoding"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/deepconv/internal/activations"
	"github.com/FlavioCFOliveira/deepconv/internal/autocoder"
	"github.com/FlavioCFOliveira/deepconv/internal/layer"
)

// Autocoder learns the features of one layer. Encode and Decode must be
// safe for concurrent use while no training step runs.
type Autocoder interface {
	Inputs() int
	Features() int
	Encode(patch, features []float32)
	Decode(features, patch []float32)
	TrainStep(patch []float32) float32
	SetLearningRate(rate float32)
	SetDropouts(percent float32)
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// AutocoderFactory builds the autocoder of a layer. activation names the
// hidden unit activation, as in Config.Activation.
type AutocoderFactory func(inputs, features int, activation string, seed uint64) (Autocoder, error)

// NewAutocoder is the default AutocoderFactory.
func NewAutocoder(inputs, features int, activation string, seed uint64) (Autocoder, error) {
	act, err := activations.ByName(activation)
	if err != nil {
		return nil, err
	}
	return autocoder.New(inputs, features, seed, autocoder.WithActivation(act))
}

// Layer is one convolution stage. It owns its autocoder and both feature
// maps; buffers are sized once by New and never resized.
type Layer struct {
	Autocoder Autocoder

	// receptive field dimensions
	UnitsAcross int
	UnitsDown   int

	Convolution []float32 // pre-pool map, HWC

	PoolingFactor int
	Pooling       []float32 // pooled map, HWC

	width, height int

	inputWidth  int
	inputHeight int
	inputDepth  int

	features int
	pool     *layer.MaxPool2D
	patch    []float32 // training scratch
}

func newLayer(c Config, i int, seed uint64, factory AutocoderFactory) (*Layer, error) {
	w, err := c.LayerWidth(i, false)
	if err != nil {
		return nil, err
	}
	h, _ := c.LayerHeight(i, false)
	inW, _ := c.InputWidth(i)
	inH, _ := c.InputHeight(i)
	inD, _ := c.InputDepth(i)
	ua, _ := c.UnitsAcross(i)
	ud, _ := c.UnitsDown(i)

	units, ok := product(w, h, c.MaxFeatures)
	if !ok {
		return nil, errors.Wrapf(ErrAllocation, "layer %d: %dx%dx%d map too large", i, w, h, c.MaxFeatures)
	}
	pooled, _ := c.PooledUnits(i)
	inputs, ok := product(ua, ud, inD)
	if !ok {
		return nil, errors.Wrapf(ErrAllocation, "layer %d: %dx%dx%d patch too large", i, ua, ud, inD)
	}

	ac, err := factory(inputs, c.MaxFeatures, c.Activation, seed)
	if err != nil {
		return nil, errors.Wrapf(ErrAllocation, "layer %d autocoder: %v", i, err)
	}
	if ac.Inputs() != inputs || ac.Features() != c.MaxFeatures {
		if r, ok := ac.(releaser); ok {
			r.Release()
		}
		return nil, errors.Wrapf(ErrAllocation, "layer %d autocoder is %d -> %d, want %d -> %d",
			i, ac.Inputs(), ac.Features(), inputs, c.MaxFeatures)
	}
	ac.SetLearningRate(c.LearningRate)
	ac.SetDropouts(c.DropoutPercent)

	return &Layer{
		Autocoder:     ac,
		UnitsAcross:   ua,
		UnitsDown:     ud,
		Convolution:   make([]float32, units),
		PoolingFactor: c.PoolingFactor,
		Pooling:       make([]float32, pooled),
		width:         w,
		height:        h,
		inputWidth:    inW,
		inputHeight:   inH,
		inputDepth:    inD,
		features:      c.MaxFeatures,
		pool:          layer.NewMaxPool2D(w, h, c.MaxFeatures, c.PoolingFactor),
		patch:         make([]float32, inputs),
	}, nil
}

// product multiplies sizes, reporting false when the result exceeds
// MaxLayerUnits.
func product(sizes ...int) (int, bool) {
	p := 1
	for _, s := range sizes {
		if s < 0 || (s > 0 && p > MaxLayerUnits/s) {
			return 0, false
		}
		p *= s
	}
	return p, p <= MaxLayerUnits
}

// releaser is implemented by autocoders holding resources beyond memory.
type releaser interface {
	Release()
}

// release drops the buffers and the autocoder. It reports whether anything
// was released.
func (l *Layer) release() bool {
	if l.Autocoder == nil {
		return false
	}
	if r, ok := l.Autocoder.(releaser); ok {
		r.Release()
	}
	l.Autocoder = nil
	l.Convolution = nil
	l.Pooling = nil
	l.patch = nil
	l.pool = nil
	return true
}

// Width returns the pre-pool map width.
func (l *Layer) Width() int { return l.width }

// Height returns the pre-pool map height.
func (l *Layer) Height() int { return l.height }

// patchOrigin returns the top-left input coordinate of the patch sampled
// at grid position (x, y). Patches are centred on evenly spaced points.
func (l *Layer) patchOrigin(x, y int) (int, int) {
	cx := (x*l.inputWidth + l.inputWidth/2) / l.width
	cy := (y*l.inputHeight + l.inputHeight/2) / l.height
	return cx - l.UnitsAcross/2, cy - l.UnitsDown/2
}

// extractPatch copies the patch at (x, y) of in into patch. Coordinates
// outside the input are clamped to the nearest edge.
func (l *Layer) extractPatch(in []float32, x, y int, patch []float32) {
	x0, y0 := l.patchOrigin(x, y)
	d := l.inputDepth
	n := 0
	for py := 0; py < l.UnitsDown; py++ {
		iy := clamp(y0+py, 0, l.inputHeight-1)
		for px := 0; px < l.UnitsAcross; px++ {
			ix := clamp(x0+px, 0, l.inputWidth-1)
			src := (iy*l.inputWidth + ix) * d
			copy(patch[n:n+d], in[src:src+d])
			n += d
		}
	}
}

// scatterPatch adds patch into sum at the position (x, y) was sampled
// from and counts every contribution.
func (l *Layer) scatterPatch(patch []float32, x, y int, sum, count []float32) {
	x0, y0 := l.patchOrigin(x, y)
	d := l.inputDepth
	n := 0
	for py := 0; py < l.UnitsDown; py++ {
		iy := clamp(y0+py, 0, l.inputHeight-1)
		for px := 0; px < l.UnitsAcross; px++ {
			ix := clamp(x0+px, 0, l.inputWidth-1)
			dst := (iy*l.inputWidth + ix) * d
			for c := 0; c < d; c++ {
				sum[dst+c] += patch[n+c]
				count[dst+c]++
			}
			n += d
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
