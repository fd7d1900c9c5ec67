package layer

import "github.com/chewxy/math32"

// MaxPool2D max-pools an HWC feature map with a square window whose size
// equals its stride. Output size is the floor of input/factor: remainder
// columns and rows are discarded, never padded.
type MaxPool2D struct {
	factor   int
	channels int

	inputWidth  int
	inputHeight int

	outputWidth  int
	outputHeight int
}

// NewMaxPool2D creates a pooling stage for a width x height x channels map.
func NewMaxPool2D(width, height, channels, factor int) *MaxPool2D {
	return &MaxPool2D{
		factor:       factor,
		channels:     channels,
		inputWidth:   width,
		inputHeight:  height,
		outputWidth:  width / factor,
		outputHeight: height / factor,
	}
}

// OutputSize returns the pooled width and height.
func (m *MaxPool2D) OutputSize() (int, int) {
	return m.outputWidth, m.outputHeight
}

// Forward pools the whole map.
func (m *MaxPool2D) Forward(input, output []float32) {
	m.ForwardRows(input, output, 0, m.outputHeight)
}

// ForwardRows pools output rows [start, end). Distinct row ranges write
// disjoint parts of output.
func (m *MaxPool2D) ForwardRows(input, output []float32, start, end int) {
	factor := m.factor
	channels := m.channels
	inW := m.inputWidth
	outW := m.outputWidth

	for oy := start; oy < end; oy++ {
		for ox := 0; ox < outW; ox++ {
			dst := output[(oy*outW+ox)*channels : (oy*outW+ox+1)*channels]
			for c := range dst {
				dst[c] = math32.Inf(-1)
			}
			for ky := 0; ky < factor; ky++ {
				iy := oy*factor + ky
				for kx := 0; kx < factor; kx++ {
					ix := ox*factor + kx
					src := input[(iy*inW+ix)*channels : (iy*inW+ix+1)*channels]
					for c, v := range src {
						if v > dst[c] {
							dst[c] = v
						}
					}
				}
			}
		}
	}
}

// Unpool broadcasts every pooled value back over its window.
func (m *MaxPool2D) Unpool(pooled, output []float32) {
	m.UnpoolRows(pooled, output, 0, m.inputHeight)
}

// UnpoolRows fills rows [start, end) of the unpooled map. Remainder rows and
// columns that no window covered replicate the last pooled row or column.
func (m *MaxPool2D) UnpoolRows(pooled, output []float32, start, end int) {
	channels := m.channels
	for y := start; y < end; y++ {
		py := min(y/m.factor, m.outputHeight-1)
		for x := 0; x < m.inputWidth; x++ {
			px := min(x/m.factor, m.outputWidth-1)
			src := pooled[(py*m.outputWidth+px)*channels : (py*m.outputWidth+px+1)*channels]
			copy(output[(y*m.inputWidth+x)*channels:], src)
		}
	}
}
