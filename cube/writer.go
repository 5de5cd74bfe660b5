package cube

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"
)

// StackResult describes a cube assembled by Stack.
type StackResult struct {
	Path string
	// Dates is aligned with the cube bands; nil when the sources were not
	// sorted.
	Dates       []time.Time
	SidecarPath string
	Metadata    Metadata
}

// Stack writes the single-band rasters in paths as the bands of a new cube
// destDir/destName.tif with element type dtype. The first source is the
// metadata template. When sortByDate is set the sources are ordered by
// ExtractDate and the dates are written to destDir/destName.txt.
//
// Sources are opened one at a time and only one band buffer is held, so
// memory does not grow with len(paths). The cube and its sidecar are
// assembled under temporary names and only renamed into place once both are
// complete. An unsorted stack removes any sidecar left by an earlier cube of
// the same name.
func (e *Engine) Stack(paths []string, destDir, destName string, dtype DataType, sortByDate bool) (res *StackResult, err error) {
	cubePath := CubePath(destDir, destName)
	mc := e.collector("stack", cubePath)
	defer func() { mc.Finish(err) }()

	if len(paths) == 0 {
		return nil, fmt.Errorf("stack: %w: no source rasters", ErrEmptyInput)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("stack: %w: %v", ErrUnsupported, dtype)
	}

	template, err := e.metadataOf(paths[0])
	if err != nil {
		return nil, fmt.Errorf("stack: template: %w", err)
	}

	ordered := paths
	var dates []time.Time
	if sortByDate {
		ordered, dates, err = SortByDate(paths)
		if err != nil {
			return nil, fmt.Errorf("stack: %w", err)
		}
	}

	out := template.
		WithDataType(dtype).
		WithCount(len(ordered)).
		WithDriver(OutputDriver)

	tmp := tempPath(destDir, destName)
	dst, err := e.backend.Create(tmp, out)
	if err != nil {
		return nil, fmt.Errorf("stack: create %s: %w", tmp, err)
	}
	defer func() {
		if dst != nil {
			dst.Close()
		}
		if err != nil {
			e.backend.Remove(tmp)
		}
	}()

	buf := make([]float64, out.Pixels())
	for i, p := range ordered {
		if err = e.stackBand(p, template, dst, i+1, dtype, buf); err != nil {
			return nil, fmt.Errorf("stack: %w", err)
		}
		if dates != nil {
			e.log.WithField("band", i+1).Infof("stack: band %d %s", i+1, dates[i].Format(sidecarLayout))
		} else {
			e.log.WithField("band", i+1).Infof("stack: band %d", i+1)
		}
	}

	err = dst.Close()
	dst = nil
	if err != nil {
		return nil, fmt.Errorf("stack: close %s: %w", tmp, err)
	}

	res = &StackResult{Path: cubePath, Dates: dates, Metadata: out}
	sidecar := SidecarPath(destDir, destName)
	var sidecarTmp string
	if sortByDate {
		res.SidecarPath = sidecar
		if sidecarTmp, err = stageDateSidecar(sidecar, dates); err != nil {
			return nil, fmt.Errorf("stack: %w", err)
		}
	}

	if err = e.backend.Rename(tmp, cubePath); err != nil {
		if sidecarTmp != "" {
			os.Remove(sidecarTmp)
		}
		return nil, fmt.Errorf("stack: %w", err)
	}
	if sidecarTmp != "" {
		if rerr := os.Rename(sidecarTmp, sidecar); rerr != nil {
			os.Remove(sidecarTmp)
			e.backend.Remove(cubePath)
			return nil, fmt.Errorf("stack: date sidecar: %v", rerr)
		}
	} else if rerr := os.Remove(sidecar); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
		e.log.Warnf("stack: removing stale %s: %v", sidecar, rerr)
	}

	e.log.WithFields(map[string]interface{}{
		"path":   cubePath,
		"dtype":  out.DataType.String(),
		"count":  out.Count,
		"height": out.Height,
		"width":  out.Width,
	}).Info("stack: cube written")

	mc.Info.Bands = out.Count
	mc.Info.BytesWritten = int64(out.Count*out.Pixels()) * int64(dtype.Size())
	return res, nil
}

func (e *Engine) metadataOf(path string) (m Metadata, err error) {
	ds, err := e.backend.Open(path)
	if err != nil {
		return Metadata{}, err
	}
	defer closeDataset(ds, &err)

	m = ds.Metadata()
	if err = m.Validate(); err != nil {
		return Metadata{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (e *Engine) stackBand(path string, template Metadata, dst Dataset, band int, dtype DataType, buf []float64) (err error) {
	src, err := e.backend.Open(path)
	if err != nil {
		return err
	}
	defer closeDataset(src, &err)

	m := src.Metadata()
	if !m.SameGrid(template) {
		return fmt.Errorf("%w: %s is %dx%d, cube is %dx%d", ErrShape, path, m.Height, m.Width, template.Height, template.Width)
	}
	if m.Transform != template.Transform {
		e.log.Warnf("stack: %s has a different geotransform than the template", path)
	}

	if err = src.ReadBand(1, image.Rect(0, 0, m.Width, m.Height), buf); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	dtype.CastSlice(buf)
	return dst.WriteBand(band, buf)
}

// Materialize reshapes tbl with m and writes it as a new raster
// destDir/destName.tif. Every band is cast to m.DataType before writing.
// It returns the written path.
func (e *Engine) Materialize(tbl *Table, m Metadata, destName, destDir string) (path string, err error) {
	path = CubePath(destDir, destName)
	mc := e.collector("materialize", path)
	defer func() { mc.Finish(err) }()

	t, err := TableToTensor(tbl, m)
	if err != nil {
		return "", fmt.Errorf("materialize: %w", err)
	}
	m = m.WithDriver(OutputDriver)

	tmp := tempPath(destDir, destName)
	dst, err := e.backend.Create(tmp, m)
	if err != nil {
		return "", fmt.Errorf("materialize: create %s: %w", tmp, err)
	}
	defer func() {
		if dst != nil {
			dst.Close()
		}
		if err != nil {
			e.backend.Remove(tmp)
		}
	}()

	if m.Count == 1 {
		err = dst.WriteBand(1, t.Data)
	} else {
		for b := 0; b < m.Count && err == nil; b++ {
			err = dst.WriteBand(b+1, t.Band(b))
			e.log.Debugf("materialize: band %d", b+1)
		}
	}
	if err != nil {
		return "", fmt.Errorf("materialize: %w", err)
	}

	err = dst.Close()
	dst = nil
	if err != nil {
		return "", fmt.Errorf("materialize: close %s: %w", tmp, err)
	}
	if err = e.backend.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("materialize: %w", err)
	}

	mc.Info.Bands = m.Count
	mc.Info.BytesWritten = int64(m.Count*m.Pixels()) * int64(m.DataType.Size())
	return path, nil
}
