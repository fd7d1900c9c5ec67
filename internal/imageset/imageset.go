// Package imageset loads, generates and saves the flat byte images a
// network consumes: row-major pixels with interleaved channels, depth 1
// for grey and 3 for rgb.
package imageset

import (
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"

	"github.com/FlavioCFOliveira/deepconv/internal/layer"
)

func checkDepth(depth int) error {
	if depth != 1 && depth != 3 {
		return errors.Errorf("imageset: depth %d, want 1 or 3", depth)
	}
	return nil
}

// FromImage scales src to width x height and flattens it.
func FromImage(src image.Image, width, height, depth int) ([]byte, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	img := make([]byte, width*height*depth)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := dst.RGBAAt(x, y)
			i := (y*width + x) * depth
			if depth == 3 {
				img[i], img[i+1], img[i+2] = c.R, c.G, c.B
				continue
			}
			img[i] = byte((uint(c.R) + uint(c.G) + uint(c.B)) / 3)
		}
	}
	return img, nil
}

// ToImage converts a flat image back into an image.Image.
func ToImage(img []byte, width, height, depth int) (image.Image, error) {
	if err := checkDepth(depth); err != nil {
		return nil, err
	}
	if len(img) != width*height*depth {
		return nil, errors.Errorf("imageset: %d bytes for %dx%dx%d", len(img), width, height, depth)
	}
	if depth == 1 {
		g := image.NewGray(image.Rect(0, 0, width, height))
		copy(g.Pix, img)
		return g, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		rgba.SetRGBA(i%width, i/width, color.RGBA{img[i*3], img[i*3+1], img[i*3+2], 255})
	}
	return rgba, nil
}

// Load decodes a png or jpeg file and flattens it to width x height.
func Load(filename string, width, height, depth int) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "imageset")
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "imageset: decode %s", filename)
	}
	return FromImage(src, width, height, depth)
}

// LoadDir loads every png and jpeg file in dir, sorted by name.
func LoadDir(dir string, width, height, depth int) ([][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "imageset")
	}
	var names []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)

	images := make([][]byte, 0, len(names))
	for _, name := range names {
		img, err := Load(filepath.Join(dir, name), width, height, depth)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, errors.Errorf("imageset: no images in %s", dir)
	}
	return images, nil
}

// Save writes a flat image as a png file.
func Save(filename string, img []byte, width, height, depth int) error {
	im, err := ToImage(img, width, height, depth)
	if err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "imageset")
	}
	if err := png.Encode(file, im); err != nil {
		file.Close()
		return errors.Wrapf(err, "imageset: encode %s", filename)
	}
	return file.Close()
}

// Synthetic generates n images of oriented sinusoidal stripes with random
// angle, frequency and phase. The same seed gives the same images.
func Synthetic(n, width, height, depth int, seed uint64) [][]byte {
	rng := layer.NewRNG(seed)
	images := make([][]byte, n)
	for k := range images {
		angle := rng.RandFloat() * math32.Pi
		freq := 1 + rng.RandFloat()*3
		phase := rng.RandFloat() * 2 * math32.Pi
		tint := [3]float32{1, 1, 1}
		if depth == 3 {
			for c := range tint {
				tint[c] = 0.5 + rng.RandFloat()*0.5
			}
		}
		dx, dy := math32.Cos(angle), math32.Sin(angle)

		img := make([]byte, width*height*depth)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				u := (float32(x)*dx/float32(width) + float32(y)*dy/float32(height)) * 2 * math32.Pi * freq
				v := 0.5 + 0.5*math32.Sin(u+phase)
				for c := 0; c < depth; c++ {
					img[(y*width+x)*depth+c] = byte(v * tint[c%3] * 255)
				}
			}
		}
		images[k] = img
	}
	return images
}
