package gdalraster

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
	"github.com/nci/gcube/cube"
)

// Resample writes a copy of the one-band raster at src with pixel size
// after, interpolated bilinearly from pixel size before. The output keeps
// the source's top-left origin and goes next to src as outName.tif, or
// <base><after>m.tif when outName is empty. Nothing is done when the output
// already exists and is not empty.
func (b *Backend) Resample(src string, before, after float64, outName string) (string, error) {
	dir, file := filepath.Split(src)
	if outName == "" {
		outName = strings.SplitN(file, ".", 2)[0] + strconv.FormatFloat(after, 'f', -1, 64) + "m"
	}
	out := filepath.Join(dir, outName+cube.CubeExt)
	if fi, err := os.Stat(out); err == nil && fi.Size() != 0 {
		return out, nil
	}

	in, err := b.Open(src)
	if err != nil {
		return "", fmt.Errorf("resample: %w", err)
	}
	m := in.Metadata()
	in.Close()
	if err := m.CheckPixelSize(before); err != nil {
		return "", fmt.Errorf("resample %s: %w", src, err)
	}

	ds, err := godal.Open(src, godal.RasterOnly())
	if err != nil {
		return "", fmt.Errorf("resample %s: %w: %v", src, cube.ErrFormat, err)
	}
	defer ds.Close()

	size := strconv.FormatFloat(after, 'f', -1, 64)
	tmp := filepath.Join(dir, "."+outName+"-"+uuid.NewString()+cube.CubeExt)
	res, err := ds.Translate(tmp, []string{
		"-of", string(godal.GTiff),
		"-tr", size, size,
		"-r", "bilinear",
		"-co", "TILED=YES",
	})
	if err != nil {
		return "", fmt.Errorf("resample %s: %v", src, err)
	}
	resMeta, err := readMetadata(res)
	res.Close()
	if err == nil {
		err = resMeta.CheckPixelSize(after)
	}
	if err != nil {
		b.Remove(tmp)
		return "", fmt.Errorf("resample %s: %w", src, err)
	}

	if err := b.Rename(tmp, out); err != nil {
		b.Remove(tmp)
		return "", fmt.Errorf("resample %s: %v", src, err)
	}
	return out, nil
}
