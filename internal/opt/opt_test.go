// Package opt provides unit tests for optimizers.
package opt

import (
	"math"
	"testing"
)

// TestSGDStepInPlace tests in-place SGD update.
func TestSGDStepInPlace(t *testing.T) {
	sgd := NewSGD(0.1)

	params := []float32{1.0, 2.0, 3.0}
	gradients := []float32{0.1, 0.2, 0.3}

	sgd.StepInPlace(params, gradients)

	expected := []float32{0.99, 1.98, 2.97}
	for i := range params {
		if math.Abs(float64(params[i]-expected[i])) > 1e-6 {
			t.Errorf("params[%d] = %v, want %v", i, params[i], expected[i])
		}
	}
}

// TestSGDSetLearningRate tests that the rate can be changed between steps.
func TestSGDSetLearningRate(t *testing.T) {
	var o Optimizer = NewSGD(0.1)
	o.SetLearningRate(0.5)
	if o.LearningRate() != 0.5 {
		t.Fatalf("LearningRate() = %v, want 0.5", o.LearningRate())
	}

	params := []float32{1}
	o.StepInPlace(params, []float32{1})
	if params[0] != 0.5 {
		t.Errorf("params[0] = %v, want 0.5", params[0])
	}
}
