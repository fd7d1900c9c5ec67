package conv

import (
	"encoding/csv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/floats"
)

var regular *truetype.Font

const (
	dpi      = 72.0
	fontsize = 12.0
	plotPad  = 8
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

var (
	plotBackground = color.RGBA{255, 255, 255, 255}
	plotAxis       = color.RGBA{0, 0, 0, 255}
	plotLine       = color.RGBA{200, 30, 30, 255}
)

// RenderHistory draws the training error history as a line chart with
// title above it.
func (n *Network) RenderHistory(title string, width, height int) (*image.RGBA, error) {
	if width < 4*plotPad || height < 4*plotPad {
		return nil, errors.Wrapf(ErrDimensionMismatch, "plot %dx%d too small", width, height)
	}
	im := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(im, im.Bounds(), image.NewUniform(plotBackground), image.Point{}, draw.Src)

	face := truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	defer face.Close()
	dy := face.Metrics().Height.Ceil()
	d := font.Drawer{
		Dst:  im,
		Src:  image.NewUniform(plotAxis),
		Face: face,
		Dot:  fixed.P(plotPad, plotPad+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(title)

	// plot area
	left, right := plotPad, width-plotPad
	top, bottom := 2*plotPad+dy, height-plotPad
	if bottom-top < plotPad {
		top = bottom - plotPad
	}
	for x := left; x <= right; x++ {
		im.Set(x, bottom, plotAxis)
	}
	for y := top; y <= bottom; y++ {
		im.Set(left, y, plotAxis)
	}

	xs := n.history.float64s()
	if len(xs) == 0 {
		return im, nil
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if lo > 0 {
		lo = 0
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	plotX := func(i int) int {
		if len(xs) == 1 {
			return left
		}
		return left + i*(right-left)/(len(xs)-1)
	}
	plotY := func(v float64) int {
		return bottom - int((v-lo)/span*float64(bottom-top))
	}
	px, py := plotX(0), plotY(xs[0])
	for i := 1; i < len(xs); i++ {
		x, y := plotX(i), plotY(xs[i])
		drawLine(im, px, py, x, y, plotLine)
		px, py = x, y
	}
	im.Set(px, py, plotLine)
	return im, nil
}

// drawLine rasterises a line with Bresenham's algorithm.
func drawLine(im draw.Image, x0, y0, x1, y1 int, c color.Color) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		im.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		if e2 := 2 * e; e2 >= dy {
			e += dy
			x0 += sx
		} else {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PlotHistory renders the history and writes it as a PNG file.
func (n *Network) PlotHistory(filename, title string, width, height int) error {
	im, err := n.RenderHistory(title, width, height)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create plot")
	}
	if err := png.Encode(file, im); err != nil {
		file.Close()
		return errors.Wrap(err, "failed to encode plot")
	}
	return file.Close()
}

// WriteHistoryCSV writes the history samples, oldest first, as
// sample,error rows.
func (n *Network) WriteHistoryCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sample", "error"}); err != nil {
		return err
	}
	step := n.history.Step()
	first := n.history.Count() - n.history.Len()
	for i, v := range n.history.Samples() {
		record := []string{
			strconv.Itoa((first + i + 1) * step),
			strconv.FormatFloat(float64(v), 'f', 6, 32),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// PlotFeatures draws the features learned by layer i into img, an RGB
// buffer of imgWidth x imgHeight pixels. Each feature occupies one cell of
// a square grid and shows the patch its autocoder decodes when only that
// feature is active, normalised to full contrast. Layers with three input
// channels are drawn in colour, others as the mean of their channels.
func (n *Network) PlotFeatures(i int, img []byte, imgWidth, imgHeight int) error {
	l, err := n.Layer(i)
	if err != nil {
		return err
	}
	features := l.features
	cols := 1
	for cols*cols < features {
		cols++
	}
	rows := (features + cols - 1) / cols
	if imgWidth < cols || imgHeight < rows || len(img) != imgWidth*imgHeight*3 {
		return errors.Wrapf(ErrDimensionMismatch, "%dx%d rgb image of %d bytes for %dx%d features",
			imgWidth, imgHeight, len(img), cols, rows)
	}
	for j := range img {
		img[j] = 0
	}

	cellW, cellH := imgWidth/cols, imgHeight/rows
	depth := l.inputDepth
	hot := make([]float32, features)
	patch := make([]float32, l.Autocoder.Inputs())

	for f := 0; f < features; f++ {
		for j := range hot {
			hot[j] = 0
		}
		hot[f] = 1
		l.Autocoder.Decode(hot, patch)

		lo, hi := patch[0], patch[0]
		for _, v := range patch {
			lo, hi = math32.Min(lo, v), math32.Max(hi, v)
		}
		span := hi - lo
		if span == 0 {
			span = 1
		}

		ox, oy := (f%cols)*cellW, (f/cols)*cellH
		for y := 0; y < cellH; y++ {
			py := y * l.UnitsDown / cellH
			for x := 0; x < cellW; x++ {
				px := x * l.UnitsAcross / cellW
				unit := patch[(py*l.UnitsAcross+px)*depth : (py*l.UnitsAcross+px+1)*depth]
				dst := ((oy+y)*imgWidth + ox + x) * 3
				if depth == 3 {
					for c := 0; c < 3; c++ {
						img[dst+c] = byte((unit[c] - lo) / span * 255)
					}
					continue
				}
				var mean float32
				for _, v := range unit {
					mean += v
				}
				mean /= float32(depth)
				g := byte((mean - lo) / span * 255)
				img[dst], img[dst+1], img[dst+2] = g, g, g
			}
		}
	}
	return nil
}
