// Package cubetest provides an in-memory cube.Backend for tests.
package cubetest

import (
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/nci/gcube/cube"
)

type raster struct {
	meta  cube.Metadata
	bands [][]float64
}

// Backend keeps rasters in a map keyed by path. Written values are cast to
// the raster's data type the way a file format would store them.
type Backend struct {
	mu      sync.Mutex
	files   map[string]*raster
	open    int
	maxOpen int
	reads   map[string]map[int]int
	// FailWrite makes WriteBand fail for that band number when > 0.
	FailWrite int
}

func NewBackend() *Backend {
	return &Backend{files: make(map[string]*raster), reads: make(map[string]map[int]int)}
}

// Put stores a raster. bands must hold m.Count slices of m.Pixels() values.
func (b *Backend) Put(path string, m cube.Metadata, bands ...[]float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := &raster{meta: m, bands: make([][]float64, m.Count)}
	for i := range r.bands {
		r.bands[i] = make([]float64, m.Pixels())
		if i < len(bands) {
			copy(r.bands[i], bands[i])
		}
	}
	b.files[path] = r
}

// Get returns a copy of the raster stored at path.
func (b *Backend) Get(path string) (cube.Metadata, [][]float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.files[path]
	if !ok {
		return cube.Metadata{}, nil, false
	}
	bands := make([][]float64, len(r.bands))
	for i, band := range r.bands {
		bands[i] = append([]float64(nil), band...)
	}
	return r.meta, bands, true
}

// Paths lists the stored rasters in lexical order.
func (b *Backend) Paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	paths := make([]string, 0, len(b.files))
	for p := range b.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// MaxOpen is the largest number of datasets that were open at once.
func (b *Backend) MaxOpen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxOpen
}

// OpenCount returns the number of datasets currently open.
func (b *Backend) OpenCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Reads returns how many times each band of path was read, keyed by the
// one-based band number.
func (b *Backend) Reads(path string) map[int]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	counts := make(map[int]int, len(b.reads[path]))
	for band, n := range b.reads[path] {
		counts[band] = n
	}
	return counts
}

func (b *Backend) acquire(path string, r *raster) *Dataset {
	b.open++
	if b.open > b.maxOpen {
		b.maxOpen = b.open
	}
	return &Dataset{backend: b, path: path, r: r}
}

func (b *Backend) Open(path string) (cube.Dataset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, cube.ErrNotFound)
	}
	return b.acquire(path, r), nil
}

func (b *Backend) Create(path string, m cube.Metadata) (cube.Dataset, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	r := &raster{meta: m, bands: make([][]float64, m.Count)}
	for i := range r.bands {
		r.bands[i] = make([]float64, m.Pixels())
	}
	b.files[path] = r
	return b.acquire(path, r), nil
}

func (b *Backend) Rename(from, to string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.files[from]
	if !ok {
		return fmt.Errorf("%s: %w", from, cube.ErrNotFound)
	}
	delete(b.files, from)
	b.files[to] = r
	return nil
}

func (b *Backend) Remove(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.files, path)
	return nil
}

type Dataset struct {
	backend *Backend
	path    string
	r       *raster
	closed  bool
}

func (d *Dataset) Metadata() cube.Metadata {
	return d.r.meta
}

func (d *Dataset) band(band int) ([]float64, error) {
	if band < 1 || band > len(d.r.bands) {
		return nil, &cube.BoundsError{Bound: "band", Value: band, Limit: len(d.r.bands)}
	}
	return d.r.bands[band-1], nil
}

func (d *Dataset) ReadBand(band int, win image.Rectangle, buf []float64) error {
	src, err := d.band(band)
	if err != nil {
		return err
	}
	m := d.r.meta
	if !win.In(image.Rect(0, 0, m.Width, m.Height)) || win.Empty() {
		return fmt.Errorf("%s: %w: window %v", d.path, cube.ErrBounds, win)
	}
	if len(buf) != win.Dx()*win.Dy() {
		return fmt.Errorf("%s: %w: buffer %d for window %v", d.path, cube.ErrShape, len(buf), win)
	}
	d.backend.countRead(d.path, band)
	i := 0
	for row := win.Min.Y; row < win.Max.Y; row++ {
		i += copy(buf[i:], src[row*m.Width+win.Min.X:row*m.Width+win.Max.X])
	}
	return nil
}

func (b *Backend) countRead(path string, band int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reads[path] == nil {
		b.reads[path] = make(map[int]int)
	}
	b.reads[path][band]++
}

func (d *Dataset) WriteBand(band int, data []float64) error {
	if d.backend.FailWrite > 0 && band == d.backend.FailWrite {
		return fmt.Errorf("%s: band %d: write failed", d.path, band)
	}
	dst, err := d.band(band)
	if err != nil {
		return err
	}
	if len(data) != len(dst) {
		return fmt.Errorf("%s: %w: %d values for %d pixels", d.path, cube.ErrShape, len(data), len(dst))
	}
	for i, v := range data {
		dst[i] = d.r.meta.DataType.Cast(v)
	}
	return nil
}

func (d *Dataset) Close() error {
	d.backend.mu.Lock()
	defer d.backend.mu.Unlock()
	if !d.closed {
		d.closed = true
		d.backend.open--
	}
	return nil
}
