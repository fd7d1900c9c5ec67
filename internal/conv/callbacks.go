package conv

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
)

// Callback observes training.
type Callback interface {
	OnTrainStep(n *Network, layer int, bpError float32)
	OnHistorySample(n *Network, sample float32)
	OnLayerComplete(n *Network, layer int)
	OnTrainingComplete(n *Network)
}

// BaseCallback provides empty implementations for Callback.
type BaseCallback struct{}

func (BaseCallback) OnTrainStep(n *Network, layer int, bpError float32) {}
func (BaseCallback) OnHistorySample(n *Network, sample float32)         {}
func (BaseCallback) OnLayerComplete(n *Network, layer int)              {}
func (BaseCallback) OnTrainingComplete(n *Network)                      {}

// Logger logs training progress every Interval steps.
type Logger struct {
	BaseCallback
	Interval int
	Out      *log.Logger // nil uses the standard logger
}

func (c Logger) out() *log.Logger {
	if c.Out == nil {
		return log.Default()
	}
	return c.Out
}

func (c Logger) OnTrainStep(n *Network, layer int, bpError float32) {
	steps := n.TrainingSteps()
	if c.Interval > 0 && steps%uint64(c.Interval) == 0 {
		c.out().Printf("step %d: layer %d error = %.6f", steps, layer, bpError)
	}
}

func (c Logger) OnLayerComplete(n *Network, layer int) {
	c.out().Printf("layer %d trained", layer)
}

// CSVLogger writes one row per training step: step, layer, iterations and
// error. The file is opened on the first step and closed when training
// completes.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	failed bool
}

// NewCSVLogger creates a CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) open(n *Network) bool {
	if c.writer != nil {
		return true
	}
	if c.failed {
		return false
	}
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}
	file, err := os.OpenFile(c.Filename, mode, 0644)
	if err != nil {
		n.logger.Printf("CSVLogger: failed to open file %s: %v", c.Filename, err)
		c.failed = true
		return false
	}
	c.file = file
	c.writer = csv.NewWriter(file)

	// header only for a fresh file
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.writer.Write([]string{"step", "layer", "iterations", "error"})
		c.writer.Flush()
		err = c.writer.Error()
	}
	if err != nil {
		n.logger.Printf("CSVLogger: failed to write header to %s: %v", c.Filename, err)
		c.Close()
		c.failed = true
		return false
	}
	return true
}

func (c *CSVLogger) OnTrainStep(n *Network, layer int, bpError float32) {
	if !c.open(n) {
		return
	}
	s := n.State()
	record := []string{
		strconv.FormatUint(n.TrainingSteps(), 10),
		strconv.Itoa(layer),
		strconv.FormatUint(uint64(s.Iterations), 10),
		fmt.Sprintf("%.6f", bpError),
	}
	c.writer.Write(record)
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		n.logger.Printf("CSVLogger: failed to write record: %v", err)
	}
}

func (c *CSVLogger) OnTrainingComplete(n *Network) {
	c.Close()
}

// Close flushes and closes the file.
func (c *CSVLogger) Close() error {
	if c.file == nil {
		return nil
	}
	c.writer.Flush()
	err := c.file.Close()
	c.file = nil
	c.writer = nil
	return err
}

// ModelCheckpoint saves the network each time a layer finishes training.
type ModelCheckpoint struct {
	BaseCallback
	Filename string
}

// NewModelCheckpoint creates a ModelCheckpoint.
func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{Filename: filename}
}

func (c *ModelCheckpoint) OnLayerComplete(n *Network, layer int) {
	if err := n.SaveFile(c.Filename); err != nil {
		n.logger.Printf("ModelCheckpoint: %v", err)
		return
	}
	n.logger.Printf("ModelCheckpoint: saved after layer %d", layer)
}

// HistoryPlotter redraws the history plot every Interval history samples
// and once more when training completes.
type HistoryPlotter struct {
	BaseCallback
	Filename      string
	Title         string
	Width, Height int
	Interval      int

	samples int
}

// NewHistoryPlotter creates a HistoryPlotter drawing a 640x480 image.
func NewHistoryPlotter(filename, title string, interval int) *HistoryPlotter {
	return &HistoryPlotter{
		Filename: filename,
		Title:    title,
		Width:    640,
		Height:   480,
		Interval: interval,
	}
}

func (c *HistoryPlotter) OnHistorySample(n *Network, sample float32) {
	c.samples++
	if c.Interval > 0 && c.samples%c.Interval == 0 {
		c.plot(n)
	}
}

func (c *HistoryPlotter) OnTrainingComplete(n *Network) {
	c.plot(n)
}

func (c *HistoryPlotter) plot(n *Network) {
	if err := n.PlotHistory(c.Filename, c.Title, c.Width, c.Height); err != nil {
		n.logger.Printf("HistoryPlotter: %v", err)
	}
}
