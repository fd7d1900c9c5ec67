package conv

import "github.com/pkg/errors"

// fakeAutocoder encodes a patch as its mean on every feature and decodes
// by repeating the first feature. TrainStep reports a fixed error.
type fakeAutocoder struct {
	inputs, features int
	err              float32
	steps            int
	released         *int
}

func (f *fakeAutocoder) Inputs() int   { return f.inputs }
func (f *fakeAutocoder) Features() int { return f.features }

func (f *fakeAutocoder) Encode(patch, features []float32) {
	var mean float32
	for _, v := range patch {
		mean += v
	}
	mean /= float32(len(patch))
	for i := range features {
		features[i] = mean
	}
}

func (f *fakeAutocoder) Decode(features, patch []float32) {
	for i := range patch {
		patch[i] = features[0]
	}
}

func (f *fakeAutocoder) TrainStep(patch []float32) float32 {
	f.steps++
	return f.err
}

func (f *fakeAutocoder) SetLearningRate(rate float32) {}
func (f *fakeAutocoder) SetDropouts(percent float32)  {}
func (f *fakeAutocoder) MarshalBinary() ([]byte, error) {
	return []byte{byte(f.inputs)}, nil
}
func (f *fakeAutocoder) UnmarshalBinary(p []byte) error { return nil }

func (f *fakeAutocoder) Release() {
	if f.released != nil {
		*f.released++
	}
}

// fakeFactory builds fake autocoders reporting err, counting releases.
// Building fails from the failAt'th autocoder on when failAt > 0.
type fakeFactory struct {
	err      float32
	built    int
	released int
	failAt   int
	coders   []*fakeAutocoder
}

func (ff *fakeFactory) New(inputs, features int, activation string, seed uint64) (Autocoder, error) {
	ff.built++
	if ff.failAt > 0 && ff.built >= ff.failAt {
		return nil, errors.New("out of memory")
	}
	f := &fakeAutocoder{inputs: inputs, features: features, err: ff.err, released: &ff.released}
	ff.coders = append(ff.coders, f)
	return f, nil
}

func filledImage(n int, v byte) []byte {
	img := make([]byte, n)
	for i := range img {
		img[i] = v
	}
	return img
}

// gradientImage is a w x h x d image whose values rise left to right and
// top to bottom between 64 and 192.
func gradientImage(w, h, d int) []byte {
	img := make([]byte, w*h*d)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < d; c++ {
				img[(y*w+x)*d+c] = byte(64 + 128*(x+y)/(w+h-2))
			}
		}
	}
	return img
}
