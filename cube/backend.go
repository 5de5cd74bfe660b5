package cube

import "image"

// Dataset is an open raster. Bands are numbered from 1.
type Dataset interface {
	Metadata() Metadata
	// ReadBand fills buf (win.Dx()*win.Dy() values, row-major) with the
	// pixels of band inside win.
	ReadBand(band int, win image.Rectangle, buf []float64) error
	// WriteBand writes a full band. data holds Height*Width values.
	WriteBand(band int, data []float64) error
	Close() error
}

// Backend opens and creates rasters by path. Implementations return errors
// wrapping ErrNotFound for missing paths and ErrFormat for files they
// cannot decode.
type Backend interface {
	Open(path string) (Dataset, error)
	Create(path string, m Metadata) (Dataset, error)
	Rename(from, to string) error
	Remove(path string) error
}
