package layer

// Dropout zeroes values with probability percent/100.
// Kept values are not rescaled: the autocoder is trained with the same
// masking, so features stay in the range the next layer expects.
type Dropout struct {
	// Probability of dropping a value, in [0, 1]
	p float32

	// Mask of the last Mask call, 1 = kept
	mask []float32
}

// NewDropout creates a dropout helper for vectors of length size.
func NewDropout(percent float32, size int) *Dropout {
	d := &Dropout{mask: make([]float32, size)}
	d.SetPercent(percent)
	return d
}

// SetPercent changes the dropout rate.
func (d *Dropout) SetPercent(percent float32) {
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}
	d.p = percent / 100
}

// Percent returns the dropout rate in percent.
func (d *Dropout) Percent() float32 { return d.p * 100 }

// Forward draws a fresh mask from rng and applies it to x in place.
func (d *Dropout) Forward(x []float32, rng *RNG) []float32 {
	mask := d.mask[:len(x)]
	for i := range x {
		if d.p > 0 && rng.RandFloat() < d.p {
			mask[i] = 0
			x[i] = 0
		} else {
			mask[i] = 1
		}
	}
	return x
}

// Backward zeroes the gradient of the values dropped by the last Forward.
func (d *Dropout) Backward(grad []float32) []float32 {
	for i := range grad {
		grad[i] *= d.mask[i]
	}
	return grad
}

// Apply zeroes values of x in place using rng without recording a mask.
// Safe for concurrent use with distinct rng and x.
func (d *Dropout) Apply(x []float32, rng *RNG) {
	if d.p <= 0 {
		return
	}
	for i := range x {
		if rng.RandFloat() < d.p {
			x[i] = 0
		}
	}
}
