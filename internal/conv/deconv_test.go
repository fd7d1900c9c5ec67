package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeconvRange(t *testing.T) {
	n, err := New(smallConfig())
	require.NoError(t, err)
	img := make([]byte, 64)

	assert.NoError(t, n.Deconv(0, img))
	err = n.Deconv(1, img)
	assert.True(t, IsKind(err, ErrIndexOutOfRange), "got %v", err)
	err = n.Deconv(-1, img)
	assert.True(t, IsKind(err, ErrIndexOutOfRange), "got %v", err)
	err = n.Deconv(0, make([]byte, 10))
	assert.True(t, IsKind(err, ErrDimensionMismatch), "got %v", err)
}

func TestDeconvReconstructsFlatImage(t *testing.T) {
	ff := &fakeFactory{}
	c := smallConfig()
	n, err := New(c, WithAutocoderFactory(ff.New))
	require.NoError(t, err)

	img := filledImage(64, 200)
	for !n.TrainingComplete() {
		_, err := n.Learn(img)
		require.NoError(t, err)
	}
	_, err = n.Conv(img, false)
	require.NoError(t, err)

	for start := 0; start < n.Layers(); start++ {
		out := make([]byte, 64)
		require.NoError(t, n.Deconv(start, out))
		assert.Equal(t, img, out, "from layer %d", start)
	}
}

func TestDeconvLeavesMapsUntouched(t *testing.T) {
	n := trainedNetwork(t)
	n.SetLearning(false)
	img := gradientImage(8, 8, 1)
	_, err := n.Conv(img, false)
	require.NoError(t, err)

	var before [][]float32
	for _, l := range n.layers {
		before = append(before, append([]float32(nil), l.Convolution...), append([]float32(nil), l.Pooling...))
	}

	out := make([]byte, 64)
	require.NoError(t, n.Deconv(1, out))

	var after [][]float32
	for _, l := range n.layers {
		after = append(after, l.Convolution, l.Pooling)
	}
	assert.Equal(t, before, after)
	assert.NotEqual(t, make([]byte, 64), out)
}

func TestScatterPatchCoversInput(t *testing.T) {
	n, err := New(smallConfig())
	require.NoError(t, err)

	for _, l := range n.layers {
		size := l.inputWidth * l.inputHeight * l.inputDepth
		sum := make([]float32, size)
		count := make([]float32, size)
		patch := make([]float32, l.Autocoder.Inputs())
		for pos := 0; pos < l.width*l.height; pos++ {
			l.scatterPatch(patch, pos%l.width, pos/l.width, sum, count)
		}
		for i, c := range count {
			assert.Positive(t, c, "cell %d", i)
		}
	}
}

func TestExtractPatchClampsToEdge(t *testing.T) {
	n, err := New(smallConfig())
	require.NoError(t, err)
	l := n.layers[0]

	in := make([]float32, 64)
	for i := range in {
		in[i] = float32(i)
	}
	patch := make([]float32, 4)

	// top-left patch starts one pixel outside the image
	l.extractPatch(in, 0, 0, patch)
	assert.Equal(t, []float32{0, 0, 0, 0}, patch)

	l.extractPatch(in, 3, 2, patch)
	assert.Equal(t, []float32{10, 11, 18, 19}, patch)
}

func TestDeconvPartlyTrained(t *testing.T) {
	ff := &fakeFactory{}
	c := smallConfig()
	c.MaxIterations = 1
	n, err := New(c, WithAutocoderFactory(ff.New))
	require.NoError(t, err)

	_, err = n.Learn(gradientImage(8, 8, 1))
	require.NoError(t, err)
	require.Equal(t, 1, n.State().Layer)
	require.False(t, n.TrainingComplete())
	n.SetLearning(false)

	reconstruct := func(img []byte) []byte {
		_, err := n.Conv(img, false)
		require.NoError(t, err)
		out := make([]byte, 64)
		require.NoError(t, n.Deconv(n.State().Layer-1, out))
		return out
	}

	flat := filledImage(64, 250)
	gradient := reconstruct(gradientImage(8, 8, 1))
	assert.Equal(t, flat, reconstruct(flat))
	assert.NotEqual(t, flat, gradient)
	assert.NotEqual(t, make([]byte, 64), gradient)

	// the layer in training is within range but has no map yet
	assert.NoError(t, n.Deconv(n.State().Layer, make([]byte, 64)))
	err = n.Deconv(n.State().Layer+1, make([]byte, 64))
	assert.True(t, IsKind(err, ErrIndexOutOfRange), "got %v", err)
}
