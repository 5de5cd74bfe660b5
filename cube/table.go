package cube

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

const pixelLabelPrefix = "pix_"

// Table is the flattened form of a cube: one row per band or time step,
// one column per pixel in row-major order.
type Table struct {
	dense *mat.Dense
}

// NewTable wraps data (rows*cols values, row-major). The table owns data
// afterwards.
func NewTable(rows, cols int, data []float64) (*Table, error) {
	if rows <= 0 || cols <= 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("table: %w: %d values for %dx%d", ErrShape, len(data), rows, cols)
	}
	return &Table{dense: mat.NewDense(rows, cols, data)}, nil
}

func (t *Table) Rows() int {
	r, _ := t.dense.Dims()
	return r
}

func (t *Table) Cols() int {
	_, c := t.dense.Dims()
	return c
}

func (t *Table) At(row, col int) float64 {
	return t.dense.At(row, col)
}

func (t *Table) Set(row, col int, v float64) {
	t.dense.Set(row, col, v)
}

// Row returns one band. The slice shares the table's storage.
func (t *Table) Row(row int) []float64 {
	return t.dense.RawRowView(row)
}

// Column copies the time series of one pixel.
func (t *Table) Column(col int) []float64 {
	return mat.Col(nil, col, t.dense)
}

// Label is the synthetic name of column col. Labels carry position only.
func (t *Table) Label(col int) string {
	return pixelLabelPrefix + strconv.Itoa(col)
}

func (t *Table) Labels() []string {
	labels := make([]string, t.Cols())
	for i := range labels {
		labels[i] = t.Label(i)
	}
	return labels
}

func (t *Table) Clone() *Table {
	return &Table{dense: mat.DenseCopyOf(t.dense)}
}

// Equal compares element-wise; NaN equals NaN.
func (t *Table) Equal(other *Table) bool {
	if t.Rows() != other.Rows() || t.Cols() != other.Cols() {
		return false
	}
	for i := 0; i < t.Rows(); i++ {
		a, b := t.Row(i), other.Row(i)
		for j := range a {
			if a[j] != b[j] && !(math.IsNaN(a[j]) && math.IsNaN(b[j])) {
				return false
			}
		}
	}
	return true
}

// TensorToTable flattens the spatial axes of t. m must describe the same
// band count and spatial size.
func TensorToTable(t *Tensor, m Metadata) (*Table, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	if m.Pixels() != t.Rows*t.Cols {
		return nil, fmt.Errorf("tensor to table: %w: metadata %dx%d, tensor %dx%d", ErrShape, m.Height, m.Width, t.Rows, t.Cols)
	}
	if m.Count != t.Bands {
		return nil, fmt.Errorf("tensor to table: %w: metadata count %d, tensor bands %d", ErrShape, m.Count, t.Bands)
	}
	data := make([]float64, len(t.Data))
	copy(data, t.Data)
	return NewTable(t.Bands, t.Rows*t.Cols, data)
}

// TableToTensor reshapes tbl to (count, height, width) and casts every
// value to m.DataType. The cast follows DataType.Cast: values outside the
// destination range are undefined rather than clamped.
func TableToTensor(tbl *Table, m Metadata) (*Tensor, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if tbl.Rows() != m.Count || tbl.Cols() != m.Pixels() {
		return nil, fmt.Errorf("table to tensor: %w: table %dx%d, metadata (%d, %d, %d)", ErrShape, tbl.Rows(), tbl.Cols(), m.Count, m.Height, m.Width)
	}
	t := NewTensor(m.Count, m.Height, m.Width)
	for b := 0; b < m.Count; b++ {
		dst := t.Band(b)
		copy(dst, tbl.Row(b))
		m.DataType.CastSlice(dst)
	}
	return t, nil
}
