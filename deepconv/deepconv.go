// Package deepconv learns visual features without labels: a stack of
// convolution layers, each an autoencoder over local patches followed by
// max-pooling, trained greedily one layer at a time.
//
//	seed := uint32(1234)
//	n, err := deepconv.Init(3, 64, 64, 3, 16, 2, 2, []float32{0.01, 0.01, 0.01}, &seed)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer n.Free()
//	for !n.TrainingComplete() {
//		n.Conv(img, false)
//	}
package deepconv

import (
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/deepconv/internal/conv"
)

// Re-export common types and functions for easier access
type (
	Network          = conv.Network
	Config           = conv.Config
	Layer            = conv.Layer
	Option           = conv.Option
	TrainingState    = conv.TrainingState
	History          = conv.History
	HistorySummary   = conv.HistorySummary
	Autocoder        = conv.Autocoder
	AutocoderFactory = conv.AutocoderFactory
	Callback         = conv.Callback
	BaseCallback     = conv.BaseCallback
)

// Limits
const (
	MaxLayers   = conv.MaxLayers
	HistorySize = conv.HistorySize
)

// Error kinds
var (
	ErrConfiguration     = conv.ErrConfiguration
	ErrAllocation        = conv.ErrAllocation
	ErrDimensionMismatch = conv.ErrDimensionMismatch
	ErrIndexOutOfRange   = conv.ErrIndexOutOfRange
	ErrSerialization     = conv.ErrSerialization
)

// IsKind reports whether err was caused by kind.
func IsKind(err, kind error) bool { return conv.IsKind(err, kind) }

// DefaultConfig returns a three layer configuration for images of the given
// size.
func DefaultConfig(across, down, depth int) Config {
	return conv.DefaultConfig(across, down, depth)
}

// New builds a network from a full configuration.
func New(conf Config, opts ...Option) (*Network, error) {
	return conv.New(conf, opts...)
}

// Init builds a network with default training settings. The network is
// seeded from *seed, which is then advanced so that successive calls build
// different networks.
func Init(layers, across, down, depth, maxFeatures, reductionFactor, poolingFactor int,
	errorThresholds []float32, seed *uint32, opts ...Option) (*Network, error) {
	if seed == nil {
		return nil, errors.Wrap(conv.ErrConfiguration, "nil seed")
	}
	conf := conv.DefaultConfig(across, down, depth)
	conf.Layers = layers
	conf.MaxFeatures = maxFeatures
	conf.ReductionFactor = reductionFactor
	conf.PoolingFactor = poolingFactor
	conf.ErrorThresholds = errorThresholds
	conf.RandomSeed = *seed

	n, err := conv.New(conf, opts...)
	if err != nil {
		return nil, err
	}
	*seed = n.RandomSeed()
	return n, nil
}

// Load reads a network written by Network.Save.
func Load(r io.Reader, opts ...Option) (*Network, error) {
	return conv.Load(r, opts...)
}

// LoadFile reads a network written by Network.SaveFile.
func LoadFile(filename string, opts ...Option) (*Network, error) {
	return conv.LoadFile(filename, opts...)
}

// Options
func WithAutocoderFactory(f AutocoderFactory) Option { return conv.WithAutocoderFactory(f) }
func WithWorkers(workers int) Option { return conv.WithWorkers(workers) }
func WithLogger(l *log.Logger) Option { return conv.WithLogger(l) }
func WithCallbacks(cbs ...Callback) Option { return conv.WithCallbacks(cbs...) }

// Callbacks
func Logger(interval int) conv.Logger {
	return conv.Logger{Interval: interval}
}

func CSVLogger(filename string, append bool) *conv.CSVLogger {
	return conv.NewCSVLogger(filename, append)
}

func ModelCheckpoint(filename string) *conv.ModelCheckpoint {
	return conv.NewModelCheckpoint(filename)
}

func HistoryPlotter(filename, title string, interval int) *conv.HistoryPlotter {
	return conv.NewHistoryPlotter(filename, title, interval)
}
