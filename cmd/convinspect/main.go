// Command convinspect prints the geometry and training state of a saved
// network and renders its features and a reconstruction.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/FlavioCFOliveira/deepconv/deepconv"
	"github.com/FlavioCFOliveira/deepconv/internal/imageset"
)

func main() {
	var (
		model    = flag.String("model", "convnet.gob", "model file")
		image    = flag.String("image", "", "image to reconstruct, synthetic stripes if empty")
		outDir   = flag.String("out", "", "directory for feature and reconstruction images")
		cellSize = flag.Int("cell", 32, "pixels per feature cell")
		history  = flag.String("history", "", "write the training history as csv")
		dot      = flag.String("dot", "", "write the layer stack as a graphviz file")
	)
	flag.Parse()

	n, err := deepconv.LoadFile(*model)
	if err != nil {
		log.Fatal(err)
	}
	defer n.Free()
	conf := n.Config()

	fmt.Printf("input %dx%dx%d, %d outputs (%dx%dx%d), %s\n",
		conf.InputsAcross, conf.InputsDown, conf.InputsDepth,
		n.Outputs(), n.OutputWidth(), n.OutputHeight(), conf.MaxFeatures,
		n.Footprint().HumanReadable())
	for i := 0; i < n.Layers(); i++ {
		l, err := n.Layer(i)
		if err != nil {
			log.Fatal(err)
		}
		pw, _ := n.LayerWidth(i, true)
		ph, _ := n.LayerHeight(i, true)
		r, _ := n.PatchRadius(i)
		fmt.Printf("layer %d: %dx%d -> %dx%d, radius %d, patch %dx%d, %d autocoder inputs\n",
			i, l.Width(), l.Height(), pw, ph, r, l.UnitsAcross, l.UnitsDown, l.Autocoder.Inputs())
	}
	st := n.State()
	fmt.Printf("state: layer %d, %d iterations, error %.6f, complete %v, %d steps\n",
		st.Layer, st.Iterations, st.Error, n.TrainingComplete(), n.TrainingSteps())

	if *history != "" {
		if err := writeHistory(n, *history); err != nil {
			log.Fatal(err)
		}
	}
	if *dot != "" {
		graph, err := n.ToDot()
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*dot, []byte(graph), 0644); err != nil {
			log.Fatal(err)
		}
	}
	if *outDir == "" {
		return
	}

	img, err := input(*image, conf)
	if err != nil {
		log.Fatal(err)
	}
	n.SetLearning(false)
	if _, err := n.Conv(img, false); err != nil {
		log.Fatal(err)
	}

	if err := imageset.Save(filepath.Join(*outDir, "input.png"), img, conf.InputsAcross, conf.InputsDown, conf.InputsDepth); err != nil {
		log.Fatal(err)
	}
	// the layer in training has no map to reconstruct from
	if top := st.Layer - 1; top >= 0 {
		recon := make([]byte, len(img))
		if err := n.Deconv(top, recon); err != nil {
			log.Fatal(err)
		}
		if err := imageset.Save(filepath.Join(*outDir, "reconstruction.png"), recon, conf.InputsAcross, conf.InputsDown, conf.InputsDepth); err != nil {
			log.Fatal(err)
		}
	} else {
		log.Print("no trained layer, skipping reconstruction")
	}

	cols := 1
	for cols*cols < conf.MaxFeatures {
		cols++
	}
	rows := (conf.MaxFeatures + cols - 1) / cols
	w, h := cols**cellSize, rows**cellSize
	for i := 0; i < n.Layers(); i++ {
		plot := make([]byte, w*h*3)
		if err := n.PlotFeatures(i, plot, w, h); err != nil {
			log.Fatal(err)
		}
		name := filepath.Join(*outDir, fmt.Sprintf("features_%d.png", i))
		if err := imageset.Save(name, plot, w, h, 3); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Printf("wrote images to %s\n", *outDir)
}

func input(filename string, conf deepconv.Config) ([]byte, error) {
	if filename == "" {
		return imageset.Synthetic(1, conf.InputsAcross, conf.InputsDown, conf.InputsDepth, uint64(conf.RandomSeed))[0], nil
	}
	return imageset.Load(filename, conf.InputsAcross, conf.InputsDown, conf.InputsDepth)
}

func writeHistory(n *deepconv.Network, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := n.WriteHistoryCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
