package cube

import (
	"fmt"
)

// ReadFull reads every band of the raster at path.
func (e *Engine) ReadFull(path string) (c *Cube, err error) {
	mc := e.collector("read", path)
	defer func() { mc.Finish(err) }()

	ds, err := e.backend.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	defer closeDataset(ds, &err)

	m := ds.Metadata()
	if err = m.Validate(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	w := Window{RowStop: m.Height, ColStop: m.Width, BandStop: m.Count}

	c, err = e.read(ds, w, m)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	mc.Info.Bands = m.Count
	mc.Info.BytesRead = int64(m.Count*m.Pixels()) * int64(m.DataType.Size())
	return c, nil
}

// ReadWindow reads the bands and pixels selected by w, and nothing else.
// The returned metadata carries the cropped shape and a transform anchored
// at the window's upper-left corner.
func (e *Engine) ReadWindow(path string, w Window) (c *Cube, err error) {
	mc := e.collector("read_window", path)
	defer func() { mc.Finish(err) }()

	ds, err := e.backend.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read window: %w", err)
	}
	defer closeDataset(ds, &err)

	m := ds.Metadata()
	wm, err := WindowMetadata(m, w)
	if err != nil {
		return nil, fmt.Errorf("read window %s: %w", path, err)
	}
	e.log.Debugf("read window: %s %v", path, w)

	c, err = e.read(ds, w, wm)
	if err != nil {
		return nil, fmt.Errorf("read window %s: %w", path, err)
	}
	mc.Info.Bands = wm.Count
	mc.Info.BytesRead = int64(wm.Count*wm.Pixels()) * int64(wm.DataType.Size())
	return c, nil
}

func (e *Engine) read(ds Dataset, w Window, out Metadata) (*Cube, error) {
	bands, rows, cols := w.Shape()
	t := NewTensor(bands, rows, cols)
	rect := w.Rect()
	for i, b := range w.Bands() {
		if err := ds.ReadBand(b, rect, t.Band(i)); err != nil {
			return nil, fmt.Errorf("band %d: %w", b, err)
		}
	}

	tbl, err := TensorToTable(t, out)
	if err != nil {
		return nil, err
	}
	return &Cube{Tensor: t, Table: tbl, Metadata: out}, nil
}
