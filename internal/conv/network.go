package conv

import (
	"io"
	"log"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/deepconv/internal/layer"
	"github.com/FlavioCFOliveira/deepconv/internal/parallel"
)

// Network is a stack of convolution layers trained greedily, one layer at
// a time. A Network is not safe for concurrent use; its passes parallelise
// internally.
type Network struct {
	conf   Config
	layers []*Layer

	state            TrainingState
	trainingComplete bool
	enableLearning   bool
	trainingCtr      uint64
	dropoutCtr       uint64
	rng              *layer.RNG

	history   *History
	callbacks []Callback
	logger    *log.Logger
	workers   int

	input   []float32 // scaled image
	dropout *layer.Dropout

	newAutocoder AutocoderFactory
	freed        bool
}

// Option customises a Network at creation.
type Option func(*Network)

// WithAutocoderFactory replaces the autocoder built for every layer.
func WithAutocoderFactory(f AutocoderFactory) Option {
	return func(n *Network) { n.newAutocoder = f }
}

// WithLogger installs a logger before any layer is built.
func WithLogger(l *log.Logger) Option {
	return func(n *Network) { n.SetLogger(l) }
}

// WithWorkers bounds the goroutines used by a pass.
func WithWorkers(workers int) Option {
	return func(n *Network) { n.SetWorkers(workers) }
}

// WithCallbacks registers training callbacks.
func WithCallbacks(cbs ...Callback) Option {
	return func(n *Network) { n.callbacks = append(n.callbacks, cbs...) }
}

// New validates conf and builds every layer. Autocoder seeds are drawn in
// layer order from a generator seeded with conf.RandomSeed. If any layer
// cannot be built the layers built so far are released.
func New(conf Config, opts ...Option) (*Network, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	n := &Network{
		conf:           conf.clone(),
		enableLearning: true,
		rng:            layer.NewRNG(uint64(conf.RandomSeed)),
		history:        NewHistory(conf.HistoryStep),
		logger:         log.New(io.Discard, "", 0),
		workers:        parallel.Workers(),
		dropout:        layer.NewDropout(conf.DropoutPercent, 0),
		newAutocoder:   NewAutocoder,
	}
	for _, opt := range opts {
		opt(n)
	}

	inputs, ok := product(conf.InputsAcross, conf.InputsDown, conf.InputsDepth)
	if !ok {
		return nil, errors.Wrapf(ErrAllocation, "input %dx%dx%d too large", conf.InputsAcross, conf.InputsDown, conf.InputsDepth)
	}
	n.input = make([]float32, inputs)

	n.layers = make([]*Layer, 0, conf.Layers)
	for i := 0; i < conf.Layers; i++ {
		l, err := newLayer(n.conf, i, n.rng.RandUint64(), n.newAutocoder)
		if err != nil {
			n.releaseLayers()
			return nil, err
		}
		n.layers = append(n.layers, l)
	}

	n.logger.Printf("conv: %d layers, %dx%dx%d input, %d outputs, %s",
		conf.Layers, conf.InputsAcross, conf.InputsDown, conf.InputsDepth,
		n.Outputs(), n.Footprint().HumanReadable())
	return n, nil
}

func (n *Network) releaseLayers() int {
	released := 0
	for _, l := range n.layers {
		if l.release() {
			released++
		}
	}
	n.layers = nil
	return released
}

// Free releases every layer and buffer. Calling it again does nothing.
func (n *Network) Free() {
	if n.freed {
		return
	}
	n.freed = true
	n.releaseLayers()
	n.input = nil
	n.history = NewHistory(n.conf.HistoryStep)
}

func (n *Network) checkLive() error {
	if n.freed {
		return errors.Wrap(ErrConfiguration, "network has been freed")
	}
	return nil
}

// Config returns a copy of the configuration.
func (n *Network) Config() Config { return n.conf.clone() }

// State returns the training state.
func (n *Network) State() TrainingState { return n.state }

// TrainingComplete reports whether every layer has been trained.
func (n *Network) TrainingComplete() bool { return n.trainingComplete }

// BPError returns the error of the last training step.
func (n *Network) BPError() float32 { return n.state.Error }

// TrainingSteps returns the number of training steps taken.
func (n *Network) TrainingSteps() uint64 { return n.trainingCtr }

// History returns the training error history.
func (n *Network) History() *History { return n.history }

// RandomSeed returns the current state of the network generator, truncated
// to 32 bits.
func (n *Network) RandomSeed() uint32 { return uint32(n.rng.State()) }

// SetLearning enables or disables the training step that Conv performs.
func (n *Network) SetLearning(enable bool) { n.enableLearning = enable }

// LearningEnabled reports whether Conv trains.
func (n *Network) LearningEnabled() bool { return n.enableLearning }

// SetLogger installs a logger. A nil logger discards output.
func (n *Network) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	n.logger = l
}

// AddCallback registers a training callback.
func (n *Network) AddCallback(cb Callback) { n.callbacks = append(n.callbacks, cb) }

// SetWorkers bounds the goroutines used by a pass. Values below one use a
// single goroutine.
func (n *Network) SetWorkers(workers int) { n.workers = max(workers, 1) }

// Workers returns the goroutine bound.
func (n *Network) Workers() int { return n.workers }

// SetLearningRate sets the learning rate of every layer.
func (n *Network) SetLearningRate(rate float32) error {
	if err := n.checkLive(); err != nil {
		return err
	}
	if rate <= 0 {
		return errors.Wrapf(ErrConfiguration, "learning rate %v", rate)
	}
	n.conf.LearningRate = rate
	for _, l := range n.layers {
		l.Autocoder.SetLearningRate(rate)
	}
	return nil
}

// SetDropouts sets the dropout percentage of every layer.
func (n *Network) SetDropouts(percent float32) error {
	if err := n.checkLive(); err != nil {
		return err
	}
	if percent < 0 || percent > 100 {
		return errors.Wrapf(ErrConfiguration, "dropout %v%%", percent)
	}
	n.conf.DropoutPercent = percent
	n.dropout.SetPercent(percent)
	for _, l := range n.layers {
		l.Autocoder.SetDropouts(percent)
	}
	return nil
}

// Layer returns layer i.
func (n *Network) Layer(i int) (*Layer, error) {
	if err := n.checkLive(); err != nil {
		return nil, err
	}
	if err := n.conf.checkIndex(i); err != nil {
		return nil, err
	}
	return n.layers[i], nil
}

// Layers returns the number of layers.
func (n *Network) Layers() int { return n.conf.Layers }

// LayerFeatures returns the number of features learned by layer i.
func (n *Network) LayerFeatures(i int) (int, error) {
	if err := n.conf.checkIndex(i); err != nil {
		return 0, err
	}
	return n.conf.MaxFeatures, nil
}

// LayerWidth is Config.LayerWidth.
func (n *Network) LayerWidth(i int, afterPooling bool) (int, error) {
	return n.conf.LayerWidth(i, afterPooling)
}

// LayerHeight is Config.LayerHeight.
func (n *Network) LayerHeight(i int, afterPooling bool) (int, error) {
	return n.conf.LayerHeight(i, afterPooling)
}

// PatchRadius is Config.PatchRadius.
func (n *Network) PatchRadius(i int) (int, error) { return n.conf.PatchRadius(i) }

// LayerUnits is Config.LayerUnits.
func (n *Network) LayerUnits(i int) (int, error) { return n.conf.LayerUnits(i) }

// OutputWidth returns the width of the final pooled map.
func (n *Network) OutputWidth() int {
	w, _ := n.conf.LayerWidth(n.conf.Layers-1, true)
	return w
}

// OutputHeight returns the height of the final pooled map.
func (n *Network) OutputHeight() int {
	h, _ := n.conf.LayerHeight(n.conf.Layers-1, true)
	return h
}

// Outputs returns the length of the final pooled map.
func (n *Network) Outputs() int {
	u, _ := n.conf.PooledUnits(n.conf.Layers - 1)
	return u
}

// Output returns value i of the final pooled map.
func (n *Network) Output(i int) (float32, error) {
	if err := n.checkLive(); err != nil {
		return 0, err
	}
	if i < 0 || i >= n.Outputs() {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "output %d of %d", i, n.Outputs())
	}
	return n.layers[n.conf.Layers-1].Pooling[i], nil
}

// Footprint estimates the memory held by feature maps and autocoder
// weights.
func (n *Network) Footprint() datasize.ByteSize {
	const f32 = 4
	var total uint64
	total += uint64(len(n.input)) * f32
	for _, l := range n.layers {
		total += uint64(len(l.Convolution)+len(l.Pooling)+len(l.patch)) * f32
		if l.Autocoder != nil {
			in, out := uint64(l.Autocoder.Inputs()), uint64(l.Autocoder.Features())
			// encoder and decoder weights and biases
			total += (2*in*out + in + out) * f32
		}
	}
	return datasize.ByteSize(total)
}
