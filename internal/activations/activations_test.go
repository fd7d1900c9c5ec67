// Package activations provides unit tests for activation functions.
package activations

import (
	"math"
	"testing"
)

// TestReLU tests ReLU activation.
func TestReLU(t *testing.T) {
	relu := ReLU{}

	tests := []struct {
		input    float32
		expected float32
	}{
		{-1.0, 0.0},
		{0.0, 0.0},
		{1.0, 1.0},
		{2.5, 2.5},
		{-0.1, 0.0},
	}

	for _, tt := range tests {
		output := relu.Activate(tt.input)
		if float32(math.Abs(float64(output-tt.expected))) > 1e-6 {
			t.Errorf("ReLU(%v) = %v, want %v", tt.input, output, tt.expected)
		}
	}
}

// TestReLUDerivative tests ReLU derivative.
func TestReLUDerivative(t *testing.T) {
	relu := ReLU{}

	tests := []struct {
		input    float32
		expected float32
	}{
		{-1.0, 0.0},
		{0.0, 0.0}, // x must be > 0
		{1.0, 1.0},
		{2.5, 1.0},
	}

	for _, tt := range tests {
		output := relu.Derivative(tt.input)
		if output != tt.expected {
			t.Errorf("ReLU.Derivative(%v) = %v, want %v", tt.input, output, tt.expected)
		}
	}
}

// TestSigmoid tests Sigmoid activation.
func TestSigmoid(t *testing.T) {
	sigmoid := Sigmoid{}

	tests := []struct {
		input    float32
		expected float32
	}{
		{-2.0, float32(1 / (1 + math.Exp(2)))},
		{-1.0, float32(1 / (1 + math.Exp(1)))},
		{0.0, 0.5},
		{1.0, float32(1 / (1 + math.Exp(-1)))},
		{2.0, float32(1 / (1 + math.Exp(-2)))},
	}

	for _, tt := range tests {
		output := sigmoid.Activate(tt.input)
		if float32(math.Abs(float64(output-tt.expected))) > 1e-6 {
			t.Errorf("Sigmoid(%v) = %v, want %v", tt.input, output, tt.expected)
		}
	}
}

// TestSigmoidDerivative checks the derivative against finite differences.
func TestSigmoidDerivative(t *testing.T) {
	s := Sigmoid{}
	const h = 1e-3
	for _, x := range []float32{-3, -1, 0, 0.5, 2} {
		numeric := (s.Activate(x+h) - s.Activate(x-h)) / (2 * h)
		got := s.Derivative(x)
		if math.Abs(float64(numeric-got)) > 1e-3 {
			t.Errorf("Sigmoid.Derivative(%v) = %v, numeric %v", x, got, numeric)
		}
	}
}

// TestTanh tests Tanh activation and derivative.
func TestTanh(t *testing.T) {
	tanh := Tanh{}
	for _, x := range []float32{-2, -0.5, 0, 0.5, 2} {
		want := float32(math.Tanh(float64(x)))
		if got := tanh.Activate(x); math.Abs(float64(got-want)) > 1e-6 {
			t.Errorf("Tanh(%v) = %v, want %v", x, got, want)
		}
		wantD := 1 - want*want
		if got := tanh.Derivative(x); math.Abs(float64(got-wantD)) > 1e-5 {
			t.Errorf("Tanh.Derivative(%v) = %v, want %v", x, got, wantD)
		}
	}
}

// TestLeakyReLU tests LeakyReLU activation.
func TestLeakyReLU(t *testing.T) {
	l := NewLeakyReLU(0.01)
	if got := l.Activate(-2); math.Abs(float64(got+0.02)) > 1e-7 {
		t.Errorf("LeakyReLU(-2) = %v, want -0.02", got)
	}
	if got := l.Activate(3); got != 3 {
		t.Errorf("LeakyReLU(3) = %v, want 3", got)
	}
	if got := l.Derivative(-1); got != 0.01 {
		t.Errorf("LeakyReLU.Derivative(-1) = %v, want 0.01", got)
	}
}

// TestNameRoundTrip checks that every named activation can be rebuilt.
func TestNameRoundTrip(t *testing.T) {
	acts := []Activation{ReLU{}, Sigmoid{}, Tanh{}, Linear{}, NewLeakyReLU(0.2)}
	for _, a := range acts {
		name, err := Name(a)
		if err != nil {
			t.Fatalf("Name(%T): %v", a, err)
		}
		b, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if got, _ := Name(b); got != name {
			t.Errorf("round trip %q -> %q", name, got)
		}
	}

	if _, err := ByName("Softmax"); err == nil {
		t.Error("expected error for unknown activation")
	}
}

type softsign struct{}

func (softsign) Activate(x float32) float32   { return x / (1 + x*x) }
func (softsign) Derivative(x float32) float32 { return 1 }

// TestNameUnknown checks that an activation without a name is not
// persisted as another one.
func TestNameUnknown(t *testing.T) {
	name, err := Name(softsign{})
	if err == nil {
		t.Fatalf("Name(softsign) = %q, want error", name)
	}
	if name != "" {
		t.Errorf("Name(softsign) = %q, want empty", name)
	}
}
