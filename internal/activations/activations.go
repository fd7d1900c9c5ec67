// Package activations provides activation functions used by the autocoder layers.
package activations

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float32) float32

	// Derivative computes f'(x) from the pre-activation value
	Derivative(x float32) float32
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (r ReLU) Activate(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (r ReLU) Derivative(x float32) float32 {
	if x > 0 {
		return 1
	}
	return 0
}

// Sigmoid activation function.
type Sigmoid struct{}

func sigmoid(x float32) float32 {
	return 1 / (1 + math32.Exp(-x))
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float32) float32 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float32) float32 {
	sigma := sigmoid(x)
	return sigma * (1 - sigma)
}

// LeakyReLU activation function to prevent dying neurons.
type LeakyReLU struct {
	Alpha float32 // Slope for x <= 0
}

// NewLeakyReLU creates a LeakyReLU with the given alpha value.
func NewLeakyReLU(alpha float32) *LeakyReLU {
	return &LeakyReLU{Alpha: alpha}
}

// Activate computes x if x > 0, else alpha*x
func (l *LeakyReLU) Activate(x float32) float32 {
	if x > 0 {
		return x
	}
	return l.Alpha * x
}

// Derivative returns 1 if x > 0, else alpha
func (l *LeakyReLU) Derivative(x float32) float32 {
	if x > 0 {
		return 1
	}
	return l.Alpha
}

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (t Tanh) Activate(x float32) float32 {
	return math32.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (t Tanh) Derivative(x float32) float32 {
	tanhX := math32.Tanh(x)
	return 1 - tanhX*tanhX
}

// Linear is the identity activation.
type Linear struct{}

// Activate returns x unchanged.
func (l Linear) Activate(x float32) float32 { return x }

// Derivative is always 1.
func (l Linear) Derivative(x float32) float32 { return 1 }

// Name returns the serialisable name of an activation. Activations this
// package cannot restore with ByName are an error.
func Name(act Activation) (string, error) {
	switch a := act.(type) {
	case ReLU:
		return "ReLU", nil
	case Sigmoid:
		return "Sigmoid", nil
	case Tanh:
		return "Tanh", nil
	case Linear:
		return "Linear", nil
	case *LeakyReLU:
		return fmt.Sprintf("LeakyReLU:%g", a.Alpha), nil
	}
	return "", fmt.Errorf("activation %T has no name", act)
}

// ByName is the inverse of Name.
func ByName(name string) (Activation, error) {
	switch name {
	case "ReLU":
		return ReLU{}, nil
	case "Sigmoid":
		return Sigmoid{}, nil
	case "Tanh":
		return Tanh{}, nil
	case "Linear":
		return Linear{}, nil
	}
	var alpha float32
	if _, err := fmt.Sscanf(name, "LeakyReLU:%g", &alpha); err == nil {
		return NewLeakyReLU(alpha), nil
	}
	return nil, fmt.Errorf("unknown activation %q", name)
}
