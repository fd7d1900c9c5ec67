package conv

import (
	"bytes"
	"encoding/gob"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	n := trainedNetwork(t)
	n.SetLearning(false)
	img := gradientImage(8, 8, 1)
	_, err := n.Conv(img, false)
	require.NoError(t, err)
	want := outputs(t, n)

	var buf bytes.Buffer
	require.NoError(t, n.Save(&buf))

	m, err := Load(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(n.Config(), m.Config()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, n.State(), m.State())
	assert.True(t, m.TrainingComplete())
	assert.False(t, m.LearningEnabled())
	assert.Equal(t, n.TrainingSteps(), m.TrainingSteps())
	assert.Equal(t, n.RandomSeed(), m.RandomSeed())
	assert.Equal(t, n.History().Samples(), m.History().Samples())
	assert.Equal(t, n.History().Count(), m.History().Count())

	_, err = m.Conv(img, false)
	require.NoError(t, err)
	assert.Equal(t, want, outputs(t, m))
}

func TestSaveLoadKeepsDropoutSequence(t *testing.T) {
	n := trainedNetwork(t)
	n.SetLearning(false)
	require.NoError(t, n.SetDropouts(30))
	img := gradientImage(8, 8, 1)
	_, err := n.Conv(img, true)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, n.Save(&buf))
	m, err := Load(&buf)
	require.NoError(t, err)

	_, err = n.Conv(img, true)
	require.NoError(t, err)
	_, err = m.Conv(img, true)
	require.NoError(t, err)
	assert.Equal(t, outputs(t, n), outputs(t, m))
}

func TestSaveLoadMidTraining(t *testing.T) {
	c := smallConfig()
	c.ErrorThresholds = []float32{0, 0}
	c.MaxIterations = 10
	n, err := New(c)
	require.NoError(t, err)
	img := gradientImage(8, 8, 1)
	for i := 0; i < 13; i++ {
		_, err := n.Learn(img)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, n.Save(&buf))
	m, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, TrainingState{Layer: 1, Iterations: 3, Error: n.BPError()}, m.State())

	// both continue identically
	a, err := n.Learn(img)
	require.NoError(t, err)
	b, err := m.Learn(img)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSaveLoadFile(t *testing.T) {
	n := trainedNetwork(t)
	filename := filepath.Join(t.TempDir(), "net.gob")
	require.NoError(t, n.SaveFile(filename))

	m, err := LoadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, n.State(), m.State())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	n := trainedNetwork(t)
	var buf bytes.Buffer
	require.NoError(t, n.Save(&buf))
	full := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not a network at all")},
		{"truncated", full[:len(full)/2]},
		{"no history", full[:len(full)-10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(bytes.NewReader(tt.data))
			assert.True(t, IsKind(err, ErrSerialization), "got %v", err)
		})
	}
}

func encodeStream(t *testing.T, values ...interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, v := range values {
		require.NoError(t, enc.Encode(v))
	}
	return &buf
}

func TestLoadRejectsHeader(t *testing.T) {
	_, err := Load(encodeStream(t, header{Magic: "other", Version: streamVersion}))
	assert.True(t, IsKind(err, ErrSerialization), "got %v", err)

	_, err = Load(encodeStream(t, header{Magic: streamMagic, Version: streamVersion + 1}))
	assert.True(t, IsKind(err, ErrSerialization), "got %v", err)
}

func TestLoadRejectsLayerCount(t *testing.T) {
	hdr := header{Magic: streamMagic, Version: streamVersion}
	for _, count := range []int{0, 3, MaxLayers + 1} {
		_, err := Load(encodeStream(t, hdr, smallConfig(), count))
		assert.True(t, IsKind(err, ErrSerialization), "count %d: %v", count, err)
	}

	bad := smallConfig()
	bad.MaxFeatures = 0
	_, err := Load(encodeStream(t, hdr, bad, 2))
	assert.True(t, IsKind(err, ErrSerialization), "got %v", err)
}

func TestLoadRejectsState(t *testing.T) {
	n, err := New(smallConfig())
	require.NoError(t, err)
	hdr := header{Magic: streamMagic, Version: streamVersion}
	var blobs []interface{}
	for _, l := range n.layers {
		blob, err := l.Autocoder.MarshalBinary()
		require.NoError(t, err)
		blobs = append(blobs, blob)
	}

	values := append([]interface{}{hdr, smallConfig(), 2}, blobs...)
	values = append(values, stateRecord{State: TrainingState{Layer: 3}, Complete: true})
	_, err = Load(encodeStream(t, values...))
	assert.True(t, IsKind(err, ErrSerialization), "got %v", err)

	values = append([]interface{}{hdr, smallConfig(), 2}, blobs...)
	values = append(values,
		stateRecord{State: TrainingState{Layer: 1}, Learning: true},
		historyRecord{Samples: make([]float32, 3), Step: 1})
	_, err = Load(encodeStream(t, values...))
	assert.True(t, IsKind(err, ErrSerialization), "got %v", err)
}

func TestLoadChecksStreamBeforeBuilding(t *testing.T) {
	hdr := header{Magic: streamMagic, Version: streamVersion}
	large := DefaultConfig(16384, 16384, 1)
	require.NoError(t, large.Validate())

	tests := []struct {
		name   string
		values []interface{}
	}{
		{"no layers", []interface{}{hdr, large, large.Layers}},
		{"missing blobs", []interface{}{hdr, large, large.Layers, []byte{1}}},
		{"no state", []interface{}{hdr, smallConfig(), 2, []byte{1}, []byte{2}}},
		{"bad state", []interface{}{hdr, smallConfig(), 2, []byte{1}, []byte{2},
			stateRecord{State: TrainingState{Layer: 2}}}},
		{"no history", []interface{}{hdr, smallConfig(), 2, []byte{1}, []byte{2},
			stateRecord{State: TrainingState{Layer: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ff := &fakeFactory{}
			_, err := Load(encodeStream(t, tt.values...), WithAutocoderFactory(ff.New))
			assert.True(t, IsKind(err, ErrSerialization), "got %v", err)
			assert.Zero(t, ff.built, "layers built before the stream was read")
		})
	}
}

func TestRestoreRejectsBadBlob(t *testing.T) {
	n, err := New(smallConfig())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, n.Save(&buf))

	s, err := decodeStream(gob.NewDecoder(&buf))
	require.NoError(t, err)
	s.blobs[1] = []byte("not a blob")

	m, err := New(s.conf)
	require.NoError(t, err)
	err = m.restore(s)
	assert.True(t, IsKind(err, ErrSerialization), "got %v", err)
}
