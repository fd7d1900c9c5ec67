// Package opt provides optimization algorithms.
package opt

// Optimizer updates network parameters based on gradients.
type Optimizer interface {
	// StepInPlace updates params in-place: params = params - lr * gradients
	StepInPlace(params, gradients []float32)

	// LearningRate returns the current step size.
	LearningRate() float32

	// SetLearningRate changes the step size without resetting any state.
	SetLearningRate(rate float32)
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	Rate float32
}

// NewSGD returns an SGD optimizer with the given learning rate.
func NewSGD(rate float32) *SGD {
	return &SGD{Rate: rate}
}

// StepInPlace updates params in-place.
func (s *SGD) StepInPlace(params, gradients []float32) {
	lr := s.Rate
	for i := range params {
		params[i] -= lr * gradients[i]
	}
}

// LearningRate implements Optimizer.
func (s *SGD) LearningRate() float32 { return s.Rate }

// SetLearningRate implements Optimizer.
func (s *SGD) SetLearningRate(rate float32) { s.Rate = rate }
