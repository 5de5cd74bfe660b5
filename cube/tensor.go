package cube

import "fmt"

// Tensor is a dense (band, row, col) array stored band-major, then
// row-major within a band.
type Tensor struct {
	Bands int
	Rows  int
	Cols  int
	Data  []float64
}

func NewTensor(bands, rows, cols int) *Tensor {
	return &Tensor{Bands: bands, Rows: rows, Cols: cols, Data: make([]float64, bands*rows*cols)}
}

// Shape returns (bands, rows, cols).
func (t *Tensor) Shape() (int, int, int) {
	return t.Bands, t.Rows, t.Cols
}

func (t *Tensor) At(band, row, col int) float64 {
	return t.Data[t.offset(band, row, col)]
}

func (t *Tensor) Set(band, row, col int, v float64) {
	t.Data[t.offset(band, row, col)] = v
}

// Band returns the pixels of one band. The slice shares the tensor's storage.
func (t *Tensor) Band(band int) []float64 {
	n := t.Rows * t.Cols
	return t.Data[band*n : (band+1)*n]
}

func (t *Tensor) check() error {
	if t.Bands <= 0 || t.Rows <= 0 || t.Cols <= 0 {
		return fmt.Errorf("tensor: %w: shape (%d, %d, %d)", ErrShape, t.Bands, t.Rows, t.Cols)
	}
	if len(t.Data) != t.Bands*t.Rows*t.Cols {
		return fmt.Errorf("tensor: %w: %d elements for shape (%d, %d, %d)", ErrShape, len(t.Data), t.Bands, t.Rows, t.Cols)
	}
	return nil
}

func (t *Tensor) offset(band, row, col int) int {
	return (band*t.Rows+row)*t.Cols + col
}
