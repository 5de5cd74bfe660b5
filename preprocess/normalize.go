// Package preprocess prepares single-band scene rasters before they are
// stacked into cubes.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nci/gcube/cube"
	"github.com/sirupsen/logrus"
)

var ErrConstantInput = errors.New("preprocess: constant input")

type Normalizer struct {
	backend cube.Backend
	log     logrus.FieldLogger
}

func NewNormalizer(backend cube.Backend, log logrus.FieldLogger) *Normalizer {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	return &Normalizer{backend: backend, log: log}
}

// NormalizeCommonLayers rescales the first band of every raster in paths
// to the full range of dtype, using the minimum and maximum over all of
// them so the layers stay comparable across dates. Unless overwrite is set
// each result goes next to its input as <name>_norm_<dtype><ext>. The
// written paths are returned in input order.
//
// Nodata and NaN pixels are left out of the minimum and maximum. When any
// input has them, the outputs declare a nodata value the rescaled data
// cannot take: the top of an integer range, which is then left out of the
// rescale, or NaN for float types.
func (n *Normalizer) NormalizeCommonLayers(paths []string, dtype cube.DataType, overwrite bool) ([]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("normalize: %w", cube.ErrEmptyInput)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("normalize: %w: %v", cube.ErrUnsupported, dtype)
	}

	globMin, globMax := math.Inf(1), math.Inf(-1)
	masked := false
	for _, p := range paths {
		mn, mx, skipped, err := n.minMax(p)
		if err != nil {
			return nil, fmt.Errorf("normalize: %w", err)
		}
		globMin = math.Min(globMin, mn)
		globMax = math.Max(globMax, mx)
		masked = masked || skipped
	}
	if globMax == globMin || math.IsInf(globMin, 0) {
		return nil, fmt.Errorf("normalize: %w: min %v, max %v", ErrConstantInput, globMin, globMax)
	}
	n.log.Debugf("normalize: global min %v, max %v", globMin, globMax)

	lo, hi := dtype.Range()
	nodata := math.NaN()
	if masked && !isFloat(dtype) {
		nodata = hi
		hi--
	}

	written := make([]string, 0, len(paths))
	for _, p := range paths {
		out := p
		if !overwrite {
			out = normalizedName(p, dtype)
		}
		if err := n.rescale(p, out, dtype, masked, nodata, func(v float64) float64 {
			// hi-lo overflows for Float64
			t := (v - globMin) / (globMax - globMin)
			return lo*(1-t) + hi*t
		}); err != nil {
			return nil, fmt.Errorf("normalize: %w", err)
		}
		written = append(written, out)
		n.log.Infof("normalize: %s", out)
	}
	return written, nil
}

func isFloat(dtype cube.DataType) bool {
	return dtype == cube.Float32 || dtype == cube.Float64
}

func isNoData(m cube.Metadata, v float64) bool {
	return math.IsNaN(v) || (m.HasNoData && v == m.NoData)
}

func normalizedName(path string, dtype cube.DataType) string {
	dir, file := filepath.Split(path)
	ext := filepath.Ext(file)
	return filepath.Join(dir, strings.TrimSuffix(file, ext)+"_norm_"+strings.ToLower(dtype.String())+ext)
}

func (n *Normalizer) minMax(path string) (mn, mx float64, masked bool, err error) {
	ds, err := n.backend.Open(path)
	if err != nil {
		return 0, 0, false, err
	}
	defer ds.Close()

	m := ds.Metadata()
	buf := make([]float64, m.Pixels())
	if err := ds.ReadBand(1, image.Rect(0, 0, m.Width, m.Height), buf); err != nil {
		return 0, 0, false, err
	}

	mn, mx = math.Inf(1), math.Inf(-1)
	for _, v := range buf {
		if isNoData(m, v) {
			masked = true
			continue
		}
		mn = math.Min(mn, v)
		mx = math.Max(mx, v)
	}
	return mn, mx, masked, nil
}

func (n *Normalizer) rescale(src, dst string, dtype cube.DataType, masked bool, nodata float64, f func(float64) float64) (err error) {
	in, err := n.backend.Open(src)
	if err != nil {
		return err
	}
	m := in.Metadata()
	buf := make([]float64, m.Pixels())
	err = in.ReadBand(1, image.Rect(0, 0, m.Width, m.Height), buf)
	in.Close()
	if err != nil {
		return err
	}

	for i, v := range buf {
		if isNoData(m, v) {
			buf[i] = nodata
			continue
		}
		buf[i] = dtype.Cast(f(v))
	}

	om := m.WithCount(1).WithDataType(dtype).WithDriver(cube.OutputDriver)
	om.NoData, om.HasNoData = 0, false
	if masked {
		om = om.WithNoData(nodata)
	}

	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+"-"+uuid.NewString())
	out, err := n.backend.Create(tmp, om)
	if err != nil {
		return err
	}
	if err = out.WriteBand(1, buf); err != nil {
		out.Close()
		n.backend.Remove(tmp)
		return err
	}
	if err = out.Close(); err != nil {
		n.backend.Remove(tmp)
		return err
	}
	if err = n.backend.Rename(tmp, dst); err != nil {
		n.backend.Remove(tmp)
		return err
	}
	return nil
}
