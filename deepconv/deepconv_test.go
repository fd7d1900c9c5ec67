package deepconv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/deepconv/internal/imageset"
)

func TestInitSmallNetwork(t *testing.T) {
	seed := uint32(99)
	n, err := Init(2, 8, 8, 1, 4, 2, 2, []float32{0.05, 0.05}, &seed)
	require.NoError(t, err)
	defer n.Free()

	w, err := n.LayerWidth(0, false)
	require.NoError(t, err)
	assert.Equal(t, 8, w)
	assert.Equal(t, 16, n.Outputs())
	assert.NotEqual(t, uint32(99), seed)

	again := uint32(99)
	m, err := Init(2, 8, 8, 1, 4, 2, 2, []float32{0.05, 0.05}, &again)
	require.NoError(t, err)
	assert.Equal(t, seed, again)
	m.Free()
}

func TestInitErrors(t *testing.T) {
	_, err := Init(2, 8, 8, 1, 4, 2, 2, []float32{0.05, 0.05}, nil)
	assert.True(t, IsKind(err, ErrConfiguration))

	seed := uint32(1)
	_, err = Init(0, 8, 8, 1, 4, 2, 2, nil, &seed)
	assert.True(t, IsKind(err, ErrConfiguration))
	assert.Equal(t, uint32(1), seed)

	_, err = Init(2, 8, 8, 1, 4, 2, 2, []float32{0.05}, &seed)
	assert.True(t, IsKind(err, ErrConfiguration))
}

func TestTrainSaveLoad(t *testing.T) {
	seed := uint32(7)
	n, err := Init(2, 16, 16, 3, 4, 2, 2, []float32{0.05, 0.05}, &seed)
	require.NoError(t, err)

	images := imageset.Synthetic(4, 16, 16, 3, 11)
	for i := 0; i < 200 && !n.TrainingComplete(); i++ {
		_, err := n.Conv(images[i%len(images)], false)
		require.NoError(t, err)
	}
	n.SetLearning(false)
	_, err = n.Conv(images[0], false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, n.Save(&buf))
	m, err := Load(&buf)
	require.NoError(t, err)
	_, err = m.Conv(images[0], false)
	require.NoError(t, err)

	for i := 0; i < n.Outputs(); i++ {
		a, _ := n.Output(i)
		b, _ := m.Output(i)
		assert.Equal(t, a, b)
	}
}
