package conv

// Learn takes one training step on the layer currently being trained and
// returns the mean reconstruction error of its patches. When learning is
// disabled or every layer is trained it returns the last error without
// changing anything.
func (n *Network) Learn(img []byte) (float32, error) {
	if err := n.checkLive(); err != nil {
		return 0, err
	}
	if err := n.checkImage(img); err != nil {
		return 0, err
	}
	if !n.enableLearning || n.trainingComplete {
		return n.state.Error, nil
	}
	return n.learn(img), nil
}

func (n *Network) learn(img []byte) float32 {
	current := n.state.Layer

	n.loadImage(img)
	in := n.input
	for i := 0; i < current; i++ {
		n.convolveLayer(i, in, false, 0)
		in = n.layers[i].Pooling
	}

	l := n.layers[current]
	positions := l.width * l.height
	samples := n.conf.TrainingSamples
	if samples == 0 {
		samples = positions
	}

	var total float32
	for s := 0; s < samples; s++ {
		pos := s
		if n.conf.TrainingSamples > 0 {
			pos = n.rng.Intn(positions)
		}
		l.extractPatch(in, pos%l.width, pos/l.width, l.patch)
		total += l.Autocoder.TrainStep(l.patch)
	}
	bpError := total / float32(samples)

	n.state = n.state.Advance(bpError, n.conf.ErrorThresholds[current], n.conf.MaxIterations)
	n.trainingCtr++

	for _, cb := range n.callbacks {
		cb.OnTrainStep(n, current, bpError)
	}
	if n.history.Record(bpError) {
		for _, cb := range n.callbacks {
			cb.OnHistorySample(n, bpError)
		}
	}

	if n.state.Layer >= n.conf.Layers {
		n.trainingComplete = true
	}

	if n.state.Layer != current {
		n.logger.Printf("conv: layer %d trained after %d steps, error %.6f", current, n.trainingCtr, bpError)
		for _, cb := range n.callbacks {
			cb.OnLayerComplete(n, current)
		}
	}
	if n.trainingComplete {
		n.logger.Printf("conv: training complete after %d steps", n.trainingCtr)
		for _, cb := range n.callbacks {
			cb.OnTrainingComplete(n)
		}
	}
	return bpError
}
