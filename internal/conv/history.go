package conv

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HistorySize is the capacity of the training history ring.
const HistorySize = 1024

// History is a fixed-capacity ring of training error samples. Once full the
// oldest samples are overwritten.
type History struct {
	samples []float32
	index   int // next slot to write
	count   int // samples recorded since reset
	ctr     int // steps since the last sample
	step    int // steps per sample
}

// NewHistory returns an empty ring that samples every step training steps.
func NewHistory(step int) *History {
	if step < 1 {
		step = 1
	}
	return &History{
		samples: make([]float32, HistorySize),
		step:    step,
	}
}

// Record counts one training step and stores v if the step interval has
// elapsed. It reports whether v was stored.
func (h *History) Record(v float32) bool {
	h.ctr++
	if h.ctr < h.step {
		return false
	}
	h.ctr = 0
	h.samples[h.index] = v
	h.index = (h.index + 1) % HistorySize
	h.count++
	return true
}

// Len returns the number of samples held.
func (h *History) Len() int { return min(h.count, HistorySize) }

// Count returns the number of samples recorded, including overwritten ones.
func (h *History) Count() int { return h.count }

// Step returns the sampling interval.
func (h *History) Step() int { return h.step }

// Samples returns the held samples, oldest first.
func (h *History) Samples() []float32 {
	n := h.Len()
	out := make([]float32, 0, n)
	if h.count > HistorySize {
		out = append(out, h.samples[h.index:]...)
		out = append(out, h.samples[:h.index]...)
		return out
	}
	return append(out, h.samples[:n]...)
}

// Reset clears all samples.
func (h *History) Reset() {
	for i := range h.samples {
		h.samples[i] = 0
	}
	h.index, h.count, h.ctr = 0, 0, 0
}

// HistorySummary describes the held samples.
type HistorySummary struct {
	Samples int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
}

// Summary computes statistics over the held samples.
func (h *History) Summary() HistorySummary {
	xs := h.float64s()
	if len(xs) == 0 {
		return HistorySummary{}
	}
	s := HistorySummary{
		Samples: len(xs),
		Mean:    stat.Mean(xs, nil),
		Min:     floats.Min(xs),
		Max:     floats.Max(xs),
	}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	return s
}

func (h *History) float64s() []float64 {
	samples := h.Samples()
	xs := make([]float64, len(samples))
	for i, v := range samples {
		xs[i] = float64(v)
	}
	return xs
}
