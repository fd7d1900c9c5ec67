// Command convtrain trains a convolution network on a directory of images,
// or on synthetic stripes, and saves it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/FlavioCFOliveira/deepconv/deepconv"
	"github.com/FlavioCFOliveira/deepconv/internal/imageset"
)

func main() {
	var (
		width      = flag.Int("width", 32, "image width")
		height     = flag.Int("height", 32, "image height")
		depth      = flag.Int("depth", 3, "image depth, 1 or 3")
		layers     = flag.Int("layers", 3, "convolution layers")
		features   = flag.Int("features", 16, "features per layer")
		reduction  = flag.Int("reduction", 2, "reduction factor")
		pooling    = flag.Int("pooling", 2, "pooling factor")
		threshold  = flag.Float64("threshold", 0.01, "training error at which a layer is done")
		iterations = flag.Uint("iterations", 10000, "training steps after which a layer is done")
		samples    = flag.Int("samples", 0, "patches per training step, 0 for every position")
		rate       = flag.Float64("rate", 0.5, "learning rate")
		dropouts   = flag.Float64("dropouts", 0, "dropout percent")
		seed       = flag.Uint("seed", 7919, "random seed")
		activation = flag.String("activation", "Sigmoid", "hidden unit activation: Sigmoid, Tanh, ReLU, Linear or LeakyReLU:<alpha>")
		imagesDir  = flag.String("images", "", "directory of png or jpeg images, synthetic stripes if empty")
		synthetic  = flag.Int("synthetic", 64, "number of synthetic images")
		workers    = flag.Int("workers", 0, "goroutines per pass, 0 for one per core")
		maxSteps   = flag.Int("max-steps", 100000, "give up after this many steps")
		out        = flag.String("out", "convnet.gob", "model file")
		plot       = flag.String("plot", "", "history plot png")
		csvFile    = flag.String("csv", "", "training log csv")
		interval   = flag.Int("log-interval", 100, "steps between progress lines")
		checkpoint = flag.Bool("checkpoint", false, "save the model after each layer")
	)
	flag.Parse()

	images, err := loadImages(*imagesDir, *synthetic, *width, *height, *depth, uint64(*seed))
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%d training images of %dx%dx%d", len(images), *width, *height, *depth)

	conf := deepconv.DefaultConfig(*width, *height, *depth)
	conf.Layers = *layers
	conf.MaxFeatures = *features
	conf.ReductionFactor = *reduction
	conf.PoolingFactor = *pooling
	conf.ErrorThresholds = make([]float32, *layers)
	for i := range conf.ErrorThresholds {
		conf.ErrorThresholds[i] = float32(*threshold)
	}
	conf.MaxIterations = *iterations
	conf.TrainingSamples = *samples
	conf.LearningRate = float32(*rate)
	conf.DropoutPercent = float32(*dropouts)
	conf.Activation = *activation
	conf.RandomSeed = uint32(*seed)

	opts := []deepconv.Option{
		deepconv.WithLogger(log.New(os.Stderr, "", log.LstdFlags)),
		deepconv.WithCallbacks(deepconv.Logger(*interval)),
	}
	if *workers > 0 {
		opts = append(opts, deepconv.WithWorkers(*workers))
	}
	if *csvFile != "" {
		opts = append(opts, deepconv.WithCallbacks(deepconv.CSVLogger(*csvFile, false)))
	}
	if *plot != "" {
		opts = append(opts, deepconv.WithCallbacks(deepconv.HistoryPlotter(*plot, "Training error", 50)))
	}
	if *checkpoint {
		opts = append(opts, deepconv.WithCallbacks(deepconv.ModelCheckpoint(*out)))
	}

	n, err := deepconv.New(conf, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer n.Free()

	start := time.Now()
	for step := 0; !n.TrainingComplete() && step < *maxSteps; step++ {
		if _, err := n.Learn(images[step%len(images)]); err != nil {
			log.Fatal(err)
		}
	}
	if !n.TrainingComplete() {
		log.Printf("stopped after %d steps at layer %d", *maxSteps, n.State().Layer)
	}

	s := n.History().Summary()
	fmt.Printf("trained %d steps in %v\n", n.TrainingSteps(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("error: last %.6f, mean %.6f, stddev %.6f, min %.6f, max %.6f over %d samples\n",
		n.BPError(), s.Mean, s.StdDev, s.Min, s.Max, s.Samples)

	if err := n.SaveFile(*out); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("saved %s (%s in memory)\n", *out, n.Footprint().HumanReadable())
}

func loadImages(dir string, count, width, height, depth int, seed uint64) ([][]byte, error) {
	if dir != "" {
		return imageset.LoadDir(dir, width, height, depth)
	}
	if count < 1 {
		return nil, fmt.Errorf("need at least one synthetic image, got %d", count)
	}
	return imageset.Synthetic(count, width, height, depth, seed), nil
}
