package cube

import (
	"fmt"
	"image"
)

// Window selects a rectangular, band-limited part of a raster. All ranges
// are zero-based and half-open.
type Window struct {
	RowStart, RowStop   int
	ColStart, ColStop   int
	BandStart, BandStop int
}

// Shape returns (bands, rows, cols) of the cropped tensor.
func (w Window) Shape() (int, int, int) {
	return w.BandStop - w.BandStart, w.RowStop - w.RowStart, w.ColStop - w.ColStart
}

// Bands lists the selected bands using 1-based storage indexing.
func (w Window) Bands() []int {
	bands := make([]int, 0, w.BandStop-w.BandStart)
	for b := w.BandStart + 1; b <= w.BandStop; b++ {
		bands = append(bands, b)
	}
	return bands
}

// Rect is the spatial part of the window in pixel space.
func (w Window) Rect() image.Rectangle {
	return image.Rect(w.ColStart, w.RowStart, w.ColStop, w.RowStop)
}

// Check validates w against the extent of m and returns a *BoundsError
// naming the first offending bound.
func (w Window) Check(m Metadata) error {
	bounds := []struct {
		name        string
		start, stop int
		limit       int
	}{
		{"row", w.RowStart, w.RowStop, m.Height},
		{"col", w.ColStart, w.ColStop, m.Width},
		{"band", w.BandStart, w.BandStop, m.Count},
	}
	for _, b := range bounds {
		if b.start < 0 {
			return &BoundsError{Bound: b.name + "_start", Value: b.start, Limit: 0}
		}
		if b.stop <= b.start {
			return &BoundsError{Bound: b.name + "_stop", Value: b.stop, Limit: b.start + 1}
		}
		if b.stop > b.limit {
			return &BoundsError{Bound: b.name + "_stop", Value: b.stop, Limit: b.limit}
		}
	}
	return nil
}

// WindowMetadata derives the metadata of the cropped raster. The new origin
// is the upper-left corner of pixel (RowStart, ColStart) under the source
// transform; the pixel size is the source x-scale, reused for y.
func WindowMetadata(src Metadata, w Window) (Metadata, error) {
	if err := w.Check(src); err != nil {
		return Metadata{}, err
	}
	x, y := src.Transform.Apply(float64(w.ColStart), float64(w.RowStart))
	size := src.Transform.PixelSize()

	bands, rows, cols := w.Shape()
	return src.
		WithShape(bands, rows, cols).
		WithTransform(TransformFromOrigin(x, y, size, size)), nil
}

func (w Window) String() string {
	return fmt.Sprintf("rows [%d, %d) cols [%d, %d) bands [%d, %d)", w.RowStart, w.RowStop, w.ColStart, w.ColStop, w.BandStart, w.BandStop)
}
