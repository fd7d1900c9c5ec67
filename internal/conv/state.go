package conv

// TrainingState tracks greedy layer-wise training. Layers below Layer are
// trained and frozen; Layer is being trained; layers above are untouched.
type TrainingState struct {
	Layer      int
	Iterations uint
	Error      float32
}

// Advance records one training step with the measured error. The layer is
// complete when the error falls below threshold or the iteration cap is
// reached; the next layer then starts from zero iterations.
func (s TrainingState) Advance(measured, threshold float32, maxIterations uint) TrainingState {
	s.Iterations++
	s.Error = measured
	if measured < threshold || s.Iterations >= maxIterations {
		s.Layer++
		s.Iterations = 0
	}
	return s
}
