// Package autocoder implements the single-layer autoencoder that each
// convolution layer uses to learn its features.
//
// An Autocoder maps a patch of Inputs values onto Features values through
// an encoder (sigmoid unless WithActivation says otherwise) and
// reconstructs the patch through a sigmoid decoder.
// Training minimises the mean squared reconstruction error, one patch at a
// time.
package autocoder

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/FlavioCFOliveira/deepconv/internal/activations"
	"github.com/FlavioCFOliveira/deepconv/internal/layer"
	"github.com/FlavioCFOliveira/deepconv/internal/loss"
	"github.com/FlavioCFOliveira/deepconv/internal/opt"
)

// DefaultLearningRate is the SGD step size of a new Autocoder.
const DefaultLearningRate = 0.5

// Autocoder is an encoder/decoder pair trained to reproduce its input.
// Encode and Decode are safe for concurrent use as long as no TrainStep,
// SetParams or UnmarshalBinary runs at the same time.
type Autocoder struct {
	inputs   int
	features int

	encoder *layer.Dense
	decoder *layer.Dense
	opt     *opt.SGD
	loss    loss.MSE
	dropout *layer.Dropout
	rng     *layer.RNG

	gradBuf []float32

	itterations uint64
	bpError     float32
}

// Option configures a new Autocoder.
type Option func(*options)

type options struct {
	hidden activations.Activation
}

// WithActivation sets the activation of the hidden units.
func WithActivation(act activations.Activation) Option {
	return func(o *options) {
		if act != nil {
			o.hidden = act
		}
	}
}

// New creates an autocoder for patches of inputs values and features hidden
// units. Weights are initialised from seed.
func New(inputs, features int, seed uint64, opts ...Option) (*Autocoder, error) {
	if inputs <= 0 || features <= 0 {
		return nil, errors.Errorf("autocoder: invalid size %d -> %d", inputs, features)
	}
	o := options{hidden: activations.Sigmoid{}}
	for _, apply := range opts {
		apply(&o)
	}
	if _, err := activations.Name(o.hidden); err != nil {
		return nil, errors.Wrap(err, "autocoder")
	}

	rng := layer.NewRNG(seed)
	return &Autocoder{
		inputs:   inputs,
		features: features,
		encoder:  layer.NewDense(inputs, features, o.hidden, rng),
		decoder:  layer.NewDense(features, inputs, activations.Sigmoid{}, rng),
		opt:      opt.NewSGD(DefaultLearningRate),
		dropout:  layer.NewDropout(0, features),
		rng:      rng,
		gradBuf:  make([]float32, inputs),
	}, nil
}

// Inputs returns the patch length.
func (a *Autocoder) Inputs() int { return a.inputs }

// Features returns the encoded length.
func (a *Autocoder) Features() int { return a.features }

// Encode writes the feature vector of patch into features.
func (a *Autocoder) Encode(patch, features []float32) {
	a.encoder.Apply(patch, features)
}

// Decode writes the reconstruction of features into patch.
func (a *Autocoder) Decode(features, patch []float32) {
	a.decoder.Apply(features, patch)
}

// TrainStep runs one backprop update on patch and returns the
// reconstruction error measured before the update.
func (a *Autocoder) TrainStep(patch []float32) float32 {
	hidden := a.encoder.Forward(patch)
	if a.dropout.Percent() > 0 {
		a.dropout.Forward(hidden, a.rng)
	}
	out := a.decoder.Forward(hidden)

	err := a.loss.Forward(out, patch)
	a.loss.BackwardInPlace(out, patch, a.gradBuf)

	gradHidden := a.decoder.Backward(a.gradBuf)
	if a.dropout.Percent() > 0 {
		a.dropout.Backward(gradHidden)
	}
	a.encoder.Backward(gradHidden)

	a.decoder.Update(a.opt)
	a.encoder.Update(a.opt)

	a.itterations++
	a.bpError = err
	return err
}

// Error returns the error of the last TrainStep.
func (a *Autocoder) Error() float32 { return a.bpError }

// Iterations returns the number of training steps taken.
func (a *Autocoder) Iterations() uint64 { return a.itterations }

// SetLearningRate changes the step size without resetting state.
func (a *Autocoder) SetLearningRate(rate float32) { a.opt.SetLearningRate(rate) }

// LearningRate returns the step size.
func (a *Autocoder) LearningRate() float32 { return a.opt.LearningRate() }

// SetDropouts sets the percentage of hidden units dropped while training.
func (a *Autocoder) SetDropouts(percent float32) { a.dropout.SetPercent(percent) }

// Dropouts returns the dropout percentage.
func (a *Autocoder) Dropouts() float32 { return a.dropout.Percent() }

// record is the persisted form of an Autocoder.
type record struct {
	Inputs       int
	Features     int
	Encoder      []float32
	Decoder      []float32
	EncoderAct   string
	DecoderAct   string
	LearningRate float32
	Dropouts     float32
	RNGState     uint64
	Iterations   uint64
	Error        float32
}

// Activation returns the activation of the hidden units.
func (a *Autocoder) Activation() activations.Activation { return a.encoder.Activation() }

// MarshalBinary encodes the autocoder as an opaque blob.
func (a *Autocoder) MarshalBinary() ([]byte, error) {
	encAct, err := activations.Name(a.encoder.Activation())
	if err != nil {
		return nil, errors.Wrap(err, "autocoder: encoder activation")
	}
	decAct, err := activations.Name(a.decoder.Activation())
	if err != nil {
		return nil, errors.Wrap(err, "autocoder: decoder activation")
	}
	rec := record{
		Inputs:       a.inputs,
		Features:     a.features,
		Encoder:      a.encoder.Params(),
		Decoder:      a.decoder.Params(),
		EncoderAct:   encAct,
		DecoderAct:   decAct,
		LearningRate: a.opt.LearningRate(),
		Dropouts:     a.dropout.Percent(),
		RNGState:     a.rng.State(),
		Iterations:   a.itterations,
		Error:        a.bpError,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, errors.Wrap(err, "autocoder: encode")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores a blob written by MarshalBinary. The blob must
// describe an autocoder of the same shape; on error a is left unchanged.
func (a *Autocoder) UnmarshalBinary(p []byte) error {
	var rec record
	if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&rec); err != nil {
		return errors.Wrap(err, "autocoder: decode")
	}
	if rec.Inputs != a.inputs || rec.Features != a.features {
		return errors.Errorf("autocoder: shape %dx%d does not match %dx%d",
			rec.Inputs, rec.Features, a.inputs, a.features)
	}
	if len(rec.Encoder) != len(a.encoder.Params()) || len(rec.Decoder) != len(a.decoder.Params()) {
		return errors.New("autocoder: truncated parameters")
	}
	encAct, err := activations.ByName(rec.EncoderAct)
	if err != nil {
		return errors.Wrap(err, "autocoder: encoder activation")
	}
	decAct, err := activations.ByName(rec.DecoderAct)
	if err != nil {
		return errors.Wrap(err, "autocoder: decoder activation")
	}

	encoder := layer.NewDense(a.inputs, a.features, encAct, a.rng)
	decoder := layer.NewDense(a.features, a.inputs, decAct, a.rng)
	encoder.SetParams(rec.Encoder)
	decoder.SetParams(rec.Decoder)

	a.encoder = encoder
	a.decoder = decoder
	a.opt.SetLearningRate(rec.LearningRate)
	a.dropout.SetPercent(rec.Dropouts)
	a.rng.SetState(rec.RNGState)
	a.itterations = rec.Iterations
	a.bpError = rec.Error
	return nil
}
