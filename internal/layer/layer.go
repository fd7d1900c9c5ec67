// Package layer provides the dense, pooling and dropout primitives used by
// the autocoder and the convolution stack.
package layer

import (
	"github.com/chewxy/math32"

	"github.com/FlavioCFOliveira/deepconv/internal/activations"
	"github.com/FlavioCFOliveira/deepconv/internal/opt"
)

// Dense is a fully connected layer.
// Uses contiguous memory layout with pre-allocated buffers for minimal allocations.
type Dense struct {
	// Shape: [out * in] where weight for output i, input j is at weights[i*in + j]
	weights []float32
	biases  []float32
	act     activations.Activation
	outSize int
	inSize  int

	// Reusable buffers for the training path. Apply does not touch them.
	inputBuf  []float32
	outputBuf []float32
	preActBuf []float32
	gradWBuf  []float32
	gradBBuf  []float32
	gradInBuf []float32
	dzBuf     []float32
}

// NewDense creates a new dense layer with weights drawn from rng.
func NewDense(in, out int, act activations.Activation, rng *RNG) *Dense {
	weights := make([]float32, out*in)
	biases := make([]float32, out)

	// Xavier/Glorot initialization
	scale := math32.Sqrt(2 / (float32(in) + float32(out)))
	for i := range weights {
		weights[i] = rng.RandFloat()*2*scale - scale
	}
	for i := range biases {
		biases[i] = rng.RandFloat()*0.2 - 0.1
	}

	return &Dense{
		weights:   weights,
		biases:    biases,
		act:       act,
		outSize:   out,
		inSize:    in,
		inputBuf:  make([]float32, in),
		outputBuf: make([]float32, out),
		preActBuf: make([]float32, out),
		gradWBuf:  make([]float32, out*in),
		gradBBuf:  make([]float32, out),
		gradInBuf: make([]float32, in),
		dzBuf:     make([]float32, out),
	}
}

// Apply computes act(Wx + b) into out without touching any layer buffer,
// so it may be called from many goroutines while no training is running.
func (d *Dense) Apply(x, out []float32) {
	inSize := d.inSize
	weights := d.weights
	for o := 0; o < d.outSize; o++ {
		sum := d.biases[o]
		row := weights[o*inSize : (o+1)*inSize]
		for i, w := range row {
			sum += w * x[i]
		}
		out[o] = d.act.Activate(sum)
	}
}

// Forward performs a forward pass and keeps what Backward needs.
func (d *Dense) Forward(x []float32) []float32 {
	copy(d.inputBuf, x)

	outSize := d.outSize
	inSize := d.inSize
	weights := d.weights
	input := d.inputBuf
	preAct := d.preActBuf
	output := d.outputBuf

	for o := 0; o < outSize; o++ {
		sum := d.biases[o]
		wBase := o * inSize
		for i := 0; i < inSize; i++ {
			sum += weights[wBase+i] * input[i]
		}
		preAct[o] = sum
		output[o] = d.act.Activate(sum)
	}

	return output[:outSize]
}

// Backward performs backpropagation through the dense layer.
// Computes gradients for weights, biases, and input.
func (d *Dense) Backward(grad []float32) []float32 {
	outSize := d.outSize
	inSize := d.inSize
	weights := d.weights
	input := d.inputBuf
	dz := d.dzBuf
	gradW := d.gradWBuf
	gradIn := d.gradInBuf

	// dz = dL/d(output) * activation'(z)
	for o := 0; o < outSize; o++ {
		dz[o] = grad[o] * d.act.Derivative(d.preActBuf[o])
		d.gradBBuf[o] = dz[o]
	}

	// dL/dW[o, i] = dz[o] * input[i]
	for o := 0; o < outSize; o++ {
		dzo := dz[o]
		wBase := o * inSize
		for i := 0; i < inSize; i++ {
			gradW[wBase+i] = dzo * input[i]
		}
	}

	// dL/dx[i] = sum_o(dz[o] * W[o, i])
	for i := 0; i < inSize; i++ {
		var sum float32
		for o := 0; o < outSize; o++ {
			sum += dz[o] * weights[o*inSize+i]
		}
		gradIn[i] = sum
	}

	return gradIn[:inSize]
}

// Update applies the gradients of the last Backward call.
func (d *Dense) Update(o opt.Optimizer) {
	o.StepInPlace(d.weights, d.gradWBuf)
	o.StepInPlace(d.biases, d.gradBBuf)
}

// Params returns all dense layer parameters flattened.
func (d *Dense) Params() []float32 {
	params := make([]float32, 0, len(d.weights)+len(d.biases))
	params = append(params, d.weights...)
	params = append(params, d.biases...)
	return params
}

// SetParams updates weights and biases from a flattened slice (in-place).
func (d *Dense) SetParams(params []float32) {
	copy(d.weights, params[:len(d.weights)])
	copy(d.biases, params[len(d.weights):])
}

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation {
	return d.act
}
