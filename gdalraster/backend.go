package gdalraster

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/nci/gcube/cube"
)

const defaultBlockSize = 256

var gdalTypes = map[cube.DataType]godal.DataType{
	cube.Byte:    godal.Byte,
	cube.Int8:    godal.Int8,
	cube.UInt16:  godal.UInt16,
	cube.Int16:   godal.Int16,
	cube.UInt32:  godal.UInt32,
	cube.Int32:   godal.Int32,
	cube.Float32: godal.Float32,
	cube.Float64: godal.Float64,
}

func toCubeType(dt godal.DataType) cube.DataType {
	for k, v := range gdalTypes {
		if v == dt {
			return k
		}
	}
	return cube.Unknown
}

// Backend opens rasters with any GDAL driver and creates tiled GeoTIFFs.
type Backend struct {
	BlockSize int
	Compress  string
}

func New() *Backend {
	InitGdal()
	return &Backend{BlockSize: defaultBlockSize, Compress: "DEFLATE"}
}

func (b *Backend) Open(path string) (cube.Dataset, error) {
	if err := exists(path); err != nil {
		return nil, err
	}

	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, cube.ErrFormat, err)
	}

	m, err := readMetadata(ds)
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Dataset{ds: ds, path: path, meta: m}, nil
}

// exists reports a missing source as cube.ErrNotFound. GDAL virtual paths
// (/vsizip/, /vsis3/, /vsicurl/, ...) are probed through GDAL itself.
func exists(path string) error {
	if strings.HasPrefix(path, "/vsi") {
		f, err := godal.VSIOpen(path)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", path, cube.ErrNotFound, err)
		}
		f.Close()
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, cube.ErrNotFound)
		}
		return fmt.Errorf("%s: %w: %v", path, cube.ErrNotFound, err)
	}
	return nil
}

func (b *Backend) Create(path string, m cube.Metadata) (cube.Dataset, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	dt, ok := gdalTypes[m.DataType]
	if !ok {
		return nil, fmt.Errorf("%w: %v", cube.ErrUnsupported, m.DataType)
	}

	blockSize := b.BlockSize
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	opts := []string{
		"TILED=YES",
		fmt.Sprintf("BLOCKXSIZE=%d", blockSize),
		fmt.Sprintf("BLOCKYSIZE=%d", blockSize),
		"INTERLEAVE=BAND",
		"BIGTIFF=IF_SAFER",
	}
	if b.Compress != "" {
		opts = append(opts, "COMPRESS="+b.Compress)
	}

	ds, err := godal.Create(godal.GTiff, path, m.Count, dt, m.Width, m.Height, godal.CreationOption(opts...))
	if err != nil {
		return nil, fmt.Errorf("create %s: %v", path, err)
	}

	if err := writeMetadata(ds, m); err != nil {
		ds.Close()
		os.Remove(path)
		return nil, fmt.Errorf("create %s: %v", path, err)
	}
	return &Dataset{ds: ds, path: path, meta: m.WithDriver(string(godal.GTiff))}, nil
}

func (b *Backend) Rename(from, to string) error {
	return os.Rename(from, to)
}

func (b *Backend) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func readMetadata(ds *godal.Dataset) (cube.Metadata, error) {
	st := ds.Structure()
	dt := toCubeType(st.DataType)
	if dt == cube.Unknown {
		return cube.Metadata{}, fmt.Errorf("%w: GDAL type %v", cube.ErrUnsupported, st.DataType)
	}

	m := cube.Metadata{
		Driver:    ds.Driver().ShortName(),
		DataType:  dt,
		Count:     st.NBands,
		Height:    st.SizeY,
		Width:     st.SizeX,
		Transform: cube.GeoTransform{0, 1, 0, 0, 0, 1},
		CRS:       ds.Projection(),
	}
	if gt, err := ds.GeoTransform(); err == nil {
		m.Transform = cube.GeoTransform(gt)
	}
	if bands := ds.Bands(); len(bands) > 0 {
		if nd, ok := bands[0].NoData(); ok {
			m = m.WithNoData(nd)
		}
	}
	return m, nil
}

func writeMetadata(ds *godal.Dataset, m cube.Metadata) error {
	if err := ds.SetGeoTransform([6]float64(m.Transform)); err != nil {
		return err
	}
	if m.CRS != "" {
		// accepts WKT as well as "EPSG:nnnn"
		sr, err := godal.NewSpatialRef(m.CRS)
		if err != nil {
			return err
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			return err
		}
	}
	if m.HasNoData {
		for _, band := range ds.Bands() {
			if err := band.SetNoData(m.NoData); err != nil {
				return err
			}
		}
	}
	return nil
}

// Dataset is an open GDAL raster.
type Dataset struct {
	ds   *godal.Dataset
	path string
	meta cube.Metadata
}

func (d *Dataset) Metadata() cube.Metadata {
	return d.meta
}

func (d *Dataset) ReadBand(band int, win image.Rectangle, buf []float64) error {
	b, err := d.band(band)
	if err != nil {
		return err
	}
	if len(buf) != win.Dx()*win.Dy() {
		return fmt.Errorf("%s: %w: buffer of %d for %dx%d window", d.path, cube.ErrShape, len(buf), win.Dx(), win.Dy())
	}
	if err := b.Read(win.Min.X, win.Min.Y, buf, win.Dx(), win.Dy()); err != nil {
		return fmt.Errorf("%s: read band %d: %v", d.path, band, err)
	}
	return nil
}

func (d *Dataset) WriteBand(band int, data []float64) error {
	b, err := d.band(band)
	if err != nil {
		return err
	}
	if len(data) != d.meta.Pixels() {
		return fmt.Errorf("%s: %w: %d values for %dx%d band", d.path, cube.ErrShape, len(data), d.meta.Height, d.meta.Width)
	}
	if err := b.Write(0, 0, data, d.meta.Width, d.meta.Height); err != nil {
		return fmt.Errorf("%s: write band %d: %v", d.path, band, err)
	}
	return nil
}

func (d *Dataset) Close() error {
	if d.ds == nil {
		return nil
	}
	err := d.ds.Close()
	d.ds = nil
	if err != nil {
		return fmt.Errorf("%s: close: %v", d.path, err)
	}
	return nil
}

func (d *Dataset) band(band int) (godal.Band, error) {
	if d.ds == nil {
		return godal.Band{}, fmt.Errorf("%s: dataset closed", d.path)
	}
	bands := d.ds.Bands()
	if band < 1 || band > len(bands) {
		return godal.Band{}, &cube.BoundsError{Bound: "band", Value: band, Limit: len(bands)}
	}
	return bands[band-1], nil
}
