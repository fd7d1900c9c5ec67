package conv

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/pkg/errors"
)

const (
	streamMagic   = "deepconv"
	streamVersion = 1
)

// A saved network is a sequence of gob values in this order: header,
// Config, layer count, one autocoder blob per layer, stateRecord,
// historyRecord.
type header struct {
	Magic   string
	Version int
}

type stateRecord struct {
	State       TrainingState
	Complete    bool
	Learning    bool
	TrainingCtr uint64
	DropoutCtr  uint64
	RNGState    uint64
}

type historyRecord struct {
	Samples []float32
	Index   int
	Count   int
	Ctr     int
	Step    int
}

// Save writes the network to w.
func (n *Network) Save(w io.Writer) error {
	if err := n.checkLive(); err != nil {
		return err
	}
	enc := gob.NewEncoder(w)

	if err := enc.Encode(header{Magic: streamMagic, Version: streamVersion}); err != nil {
		return errors.Wrap(err, "failed to encode header")
	}
	if err := enc.Encode(n.conf); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := enc.Encode(len(n.layers)); err != nil {
		return errors.Wrap(err, "failed to encode layer count")
	}
	for i, l := range n.layers {
		blob, err := l.Autocoder.MarshalBinary()
		if err != nil {
			return errors.Wrapf(err, "failed to marshal layer %d", i)
		}
		if err := enc.Encode(blob); err != nil {
			return errors.Wrapf(err, "failed to encode layer %d", i)
		}
	}
	st := stateRecord{
		State:       n.state,
		Complete:    n.trainingComplete,
		Learning:    n.enableLearning,
		TrainingCtr: n.trainingCtr,
		DropoutCtr:  n.dropoutCtr,
		RNGState:    n.rng.State(),
	}
	if err := enc.Encode(st); err != nil {
		return errors.Wrap(err, "failed to encode training state")
	}
	h := n.history
	hr := historyRecord{
		Samples: h.samples,
		Index:   h.index,
		Count:   h.count,
		Ctr:     h.ctr,
		Step:    h.step,
	}
	if err := enc.Encode(hr); err != nil {
		return errors.Wrap(err, "failed to encode history")
	}
	return nil
}

// SaveFile writes the network to filename.
func (n *Network) SaveFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	if err := n.Save(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Load reads a network written by Save. The whole stream is decoded and
// checked before any layer is allocated. Every decoding or validation
// failure wraps ErrSerialization.
func Load(r io.Reader, opts ...Option) (*Network, error) {
	s, err := decodeStream(gob.NewDecoder(r))
	if err != nil {
		return nil, err
	}

	n, err := New(s.conf, opts...)
	if err != nil {
		return nil, err
	}
	if err := n.restore(s); err != nil {
		n.Free()
		return nil, err
	}
	return n, nil
}

// stream is a decoded and validated network.
type stream struct {
	conf    Config
	blobs   [][]byte
	state   stateRecord
	history historyRecord
}

func decodeStream(dec *gob.Decoder) (*stream, error) {
	var hdr header
	if err := dec.Decode(&hdr); err != nil {
		return nil, errors.Wrapf(ErrSerialization, "header: %v", err)
	}
	if hdr.Magic != streamMagic || hdr.Version != streamVersion {
		return nil, errors.Wrapf(ErrSerialization, "unknown format %q version %d", hdr.Magic, hdr.Version)
	}

	s := &stream{}
	if err := dec.Decode(&s.conf); err != nil {
		return nil, errors.Wrapf(ErrSerialization, "config: %v", err)
	}
	if err := s.conf.Validate(); err != nil {
		return nil, errors.Wrapf(ErrSerialization, "config: %v", err)
	}

	var count int
	if err := dec.Decode(&count); err != nil {
		return nil, errors.Wrapf(ErrSerialization, "layer count: %v", err)
	}
	if count < 1 || count > MaxLayers || count != s.conf.Layers {
		return nil, errors.Wrapf(ErrSerialization, "%d layers, config has %d", count, s.conf.Layers)
	}

	s.blobs = make([][]byte, count)
	for i := range s.blobs {
		if err := dec.Decode(&s.blobs[i]); err != nil {
			return nil, errors.Wrapf(ErrSerialization, "layer %d: %v", i, err)
		}
	}

	st := &s.state
	if err := dec.Decode(st); err != nil {
		return nil, errors.Wrapf(ErrSerialization, "training state: %v", err)
	}
	if st.State.Layer < 0 || st.State.Layer > s.conf.Layers || st.Complete != (st.State.Layer == s.conf.Layers) {
		return nil, errors.Wrapf(ErrSerialization, "training state at layer %d, complete %v", st.State.Layer, st.Complete)
	}

	hr := &s.history
	if err := dec.Decode(hr); err != nil {
		return nil, errors.Wrapf(ErrSerialization, "history: %v", err)
	}
	if len(hr.Samples) != HistorySize || hr.Step < 1 || hr.Count < 0 ||
		hr.Ctr < 0 || hr.Ctr >= hr.Step || hr.Index != hr.Count%HistorySize {
		return nil, errors.Wrapf(ErrSerialization, "history of %d samples at %d", len(hr.Samples), hr.Index)
	}
	return s, nil
}

// restore loads the autocoder blobs and training state of s into n.
func (n *Network) restore(s *stream) error {
	for i, l := range n.layers {
		if err := l.Autocoder.UnmarshalBinary(s.blobs[i]); err != nil {
			return errors.Wrapf(ErrSerialization, "layer %d: %v", i, err)
		}
	}

	st, hr := s.state, s.history
	n.state = st.State
	n.trainingComplete = st.Complete
	n.enableLearning = st.Learning
	n.trainingCtr = st.TrainingCtr
	n.dropoutCtr = st.DropoutCtr
	n.rng.SetState(st.RNGState)
	n.history = &History{
		samples: hr.Samples,
		index:   hr.Index,
		count:   hr.Count,
		ctr:     hr.Ctr,
		step:    hr.Step,
	}
	return nil
}

// LoadFile reads a network from filename.
func LoadFile(filename string, opts ...Option) (*Network, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer file.Close()

	return Load(file, opts...)
}
