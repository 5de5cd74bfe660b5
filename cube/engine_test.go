package cube_test

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/nci/gcube/cube"
	"github.com/nci/gcube/cube/cubetest"
	"github.com/nci/gcube/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	infos []metrics.MetricsInfo
}

func (r *recordingMetrics) Log(info *metrics.MetricsInfo) {
	r.infos = append(r.infos, *info)
}

// putScene stores a one-band 2x3 scene filled with value.
func putScene(b *cubetest.Backend, path string, value float64) {
	m := gridMetadata(1, 2, 3)
	band := make([]float64, m.Pixels())
	for i := range band {
		band[i] = value + float64(i)/10
	}
	b.Put(path, m, band)
}

func TestStackSortsAndWritesSidecar(t *testing.T) {
	backend := cubetest.NewBackend()
	rec := &recordingMetrics{}
	engine := cube.New(backend, cube.WithMetrics(rec))

	dir := t.TempDir()
	paths := []string{
		"/in/S2A_20200305T000000.SAFE/b.tif",
		"/in/S2A_20200110T000000.SAFE/b.tif",
		"/in/S2A_20200220T000000.SAFE/b.tif",
	}
	putScene(backend, paths[0], 30)
	putScene(backend, paths[1], 10)
	putScene(backend, paths[2], 20)

	res, err := engine.Stack(paths, dir, "cube", cube.Float32, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cube.tif"), res.Path)
	assert.Equal(t, filepath.Join(dir, "cube.txt"), res.SidecarPath)

	m, bands, ok := backend.Get(res.Path)
	require.True(t, ok)
	assert.Equal(t, 3, m.Count)
	assert.Equal(t, cube.Float32, m.DataType)
	assert.Equal(t, cube.OutputDriver, m.Driver)
	assert.Equal(t, float64(float32(10.0)), bands[0][0])
	assert.Equal(t, float64(float32(20.0)), bands[1][0])
	assert.Equal(t, float64(float32(30.5)), bands[2][5])

	dates, err := cube.ReadDateSidecar(res.SidecarPath)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2020, 1, 10), date(2020, 2, 20), date(2020, 3, 5)}, dates)
	assert.Equal(t, dates, res.Dates)

	assert.Equal(t, 2, backend.MaxOpen(), "one source open next to the destination")
	assert.Equal(t, 0, backend.OpenCount())
	assert.Len(t, backend.Paths(), 4, "no temporary rasters left")

	require.Len(t, rec.infos, 1)
	assert.Equal(t, "stack", rec.infos[0].Op)
	assert.Equal(t, 3, rec.infos[0].Bands)
	assert.Empty(t, rec.infos[0].Error)
}

func TestStackMemoryDoesNotGrowWithSources(t *testing.T) {
	backend := cubetest.NewBackend()
	engine := cube.New(backend)

	var paths []string
	for i := 0; i < 50; i++ {
		p := fmt.Sprintf("/in/scene_%02d.tif", i)
		putScene(backend, p, float64(i))
		paths = append(paths, p)
	}
	res, err := engine.Stack(paths, t.TempDir(), "many", cube.Float64, false)
	require.NoError(t, err)
	assert.Empty(t, res.SidecarPath)
	assert.Nil(t, res.Dates)
	assert.Equal(t, 2, backend.MaxOpen())

	_, bands, ok := backend.Get(res.Path)
	require.True(t, ok)
	require.Len(t, bands, 50)
	assert.Equal(t, 49.0, bands[49][0], "unsorted input keeps its order")
}

func TestStackEmptyInput(t *testing.T) {
	backend := cubetest.NewBackend()
	_, err := cube.New(backend).Stack(nil, t.TempDir(), "cube", cube.Float32, false)
	assert.ErrorIs(t, err, cube.ErrEmptyInput)
	assert.Empty(t, backend.Paths())
}

func TestStackShapeMismatchLeavesNothing(t *testing.T) {
	backend := cubetest.NewBackend()
	putScene(backend, "/in/a.tif", 1)
	backend.Put("/in/b.tif", gridMetadata(1, 4, 4), make([]float64, 16))

	dir := t.TempDir()
	_, err := cube.New(backend).Stack([]string{"/in/a.tif", "/in/b.tif"}, dir, "cube", cube.Float32, false)
	assert.ErrorIs(t, err, cube.ErrShape)
	assert.Equal(t, []string{"/in/a.tif", "/in/b.tif"}, backend.Paths())
	assert.Equal(t, 0, backend.OpenCount())
}

func TestStackMissingSource(t *testing.T) {
	backend := cubetest.NewBackend()
	putScene(backend, "/in/a.tif", 1)

	_, err := cube.New(backend).Stack([]string{"/in/a.tif", "/in/gone.tif"}, t.TempDir(), "cube", cube.Float32, false)
	assert.ErrorIs(t, err, cube.ErrNotFound)
	assert.Equal(t, []string{"/in/a.tif"}, backend.Paths())
}

func TestStackWriteFailureRemovesPartialCube(t *testing.T) {
	backend := cubetest.NewBackend()
	backend.FailWrite = 2
	putScene(backend, "/in/a.tif", 1)
	putScene(backend, "/in/b.tif", 2)

	rec := &recordingMetrics{}
	_, err := cube.New(backend, cube.WithMetrics(rec)).Stack([]string{"/in/a.tif", "/in/b.tif"}, t.TempDir(), "cube", cube.Float32, false)
	require.Error(t, err)
	assert.Equal(t, []string{"/in/a.tif", "/in/b.tif"}, backend.Paths())
	require.Len(t, rec.infos, 1)
	assert.NotEmpty(t, rec.infos[0].Error)
}

func TestStackSidecarFailureKeepsPreviousCube(t *testing.T) {
	backend := cubetest.NewBackend()
	paths := []string{"/in/S2A_20200305T000000.SAFE/b.tif", "/in/S2A_20200110T000000.SAFE/b.tif"}
	putScene(backend, paths[0], 30)
	putScene(backend, paths[1], 10)

	// the date list cannot be written into a directory that does not exist
	dir := filepath.Join(t.TempDir(), "missing")
	previous := cube.CubePath(dir, "cube")
	putScene(backend, previous, 7)

	_, err := cube.New(backend).Stack(paths, dir, "cube", cube.Float32, true)
	require.Error(t, err)

	_, bands, ok := backend.Get(previous)
	require.True(t, ok, "earlier cube survives")
	assert.Equal(t, 7.0, bands[0][0])
	assert.Len(t, backend.Paths(), 3, "no temporary rasters left")
}

func TestStackUnsortedRemovesStaleSidecar(t *testing.T) {
	backend := cubetest.NewBackend()
	putScene(backend, "/in/a.tif", 1)

	dir := t.TempDir()
	stale := cube.SidecarPath(dir, "cube")
	require.NoError(t, cube.WriteDateSidecar(stale, []time.Time{date(2019, 1, 1)}))

	res, err := cube.New(backend).Stack([]string{"/in/a.tif"}, dir, "cube", cube.Float32, false)
	require.NoError(t, err)
	assert.Empty(t, res.SidecarPath)
	assert.NoFileExists(t, stale)
}

func TestStackUnsortableNames(t *testing.T) {
	backend := cubetest.NewBackend()
	putScene(backend, "/in/a.tif", 1)
	_, err := cube.New(backend).Stack([]string{"/in/a.tif"}, t.TempDir(), "cube", cube.Float32, true)
	assert.ErrorIs(t, err, cube.ErrFormat)
}

func TestReadFullAndWindow(t *testing.T) {
	backend := cubetest.NewBackend()
	m := gridMetadata(2, 3, 4).WithDataType(cube.Float64)
	b1 := make([]float64, 12)
	b2 := make([]float64, 12)
	for i := range b1 {
		b1[i] = float64(i)
		b2[i] = float64(100 + i)
	}
	backend.Put("/c.tif", m, b1, b2)
	engine := cube.New(backend)

	full, err := engine.ReadFull("/c.tif")
	require.NoError(t, err)
	assert.Equal(t, m, full.Metadata)
	assert.Equal(t, 2, full.Table.Rows())
	assert.Equal(t, 12, full.Table.Cols())
	assert.Equal(t, 107.0, full.Tensor.At(1, 1, 3))

	w := cube.Window{RowStart: 1, RowStop: 3, ColStart: 1, ColStop: 3, BandStart: 1, BandStop: 2}
	win, err := engine.ReadWindow("/c.tif", w)
	require.NoError(t, err)
	assert.Equal(t, 1, win.Metadata.Count)
	assert.Equal(t, 2, win.Metadata.Height)
	assert.Equal(t, 2, win.Metadata.Width)
	assert.Equal(t, cube.GeoTransform{110, 10, 0, 190, 0, -10}, win.Metadata.Transform)
	assert.Equal(t, []float64{105, 106, 109, 110}, win.Table.Row(0))

	_, err = engine.ReadWindow("/c.tif", cube.Window{RowStop: 4, ColStop: 4, BandStop: 1})
	assert.ErrorIs(t, err, cube.ErrBounds)
	assert.Equal(t, 0, backend.OpenCount())

	_, err = engine.ReadFull("/missing.tif")
	assert.ErrorIs(t, err, cube.ErrNotFound)
}

func TestReadWindowOnlyReadsRequestedBands(t *testing.T) {
	backend := cubetest.NewBackend()
	m := gridMetadata(4, 2, 2).WithDataType(cube.Float64)
	bands := make([][]float64, m.Count)
	for b := range bands {
		bands[b] = []float64{float64(b), float64(b), float64(b), float64(b)}
	}
	backend.Put("/c.tif", m, bands...)

	win, err := cube.New(backend).ReadWindow("/c.tif", cube.Window{RowStop: 2, ColStop: 1, BandStart: 1, BandStop: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, win.Metadata.Count)
	assert.Equal(t, []float64{1, 1}, win.Table.Row(0))
	assert.Equal(t, []float64{2, 2}, win.Table.Row(1))
	assert.Equal(t, map[int]int{2: 1, 3: 1}, backend.Reads("/c.tif"))
}

func TestMaterializeRoundTrip(t *testing.T) {
	backend := cubetest.NewBackend()
	engine := cube.New(backend)
	dir := t.TempDir()

	m := gridMetadata(2, 2, 2).WithDataType(cube.Int16)
	tbl, err := cube.NewTable(2, 4, []float64{1, -2, 3, 4.6, 5, 6, 7, 8})
	require.NoError(t, err)

	path, err := engine.Materialize(tbl, m, "out", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.tif"), path)

	c, err := engine.ReadFull(path)
	require.NoError(t, err)
	assert.Equal(t, cube.Int16, c.Metadata.DataType)
	assert.Equal(t, []float64{1, -2, 3, 4}, c.Table.Row(0))
	assert.Equal(t, []float64{5, 6, 7, 8}, c.Table.Row(1))

	_, err = engine.Materialize(tbl, gridMetadata(3, 2, 2), "bad", dir)
	assert.ErrorIs(t, err, cube.ErrShape)
	assert.Equal(t, []string{path}, backend.Paths())
}

func TestMaterializeSingleBandDOY(t *testing.T) {
	backend := cubetest.NewBackend()
	engine := cube.New(backend)

	doy := []float64{153, math.NaN(), 1, 366}
	tbl, err := cube.NewTable(1, 4, doy)
	require.NoError(t, err)
	m := gridMetadata(7, 2, 2).WithCount(1).WithNoData(math.NaN())

	path, err := engine.Materialize(tbl, m, "doy", t.TempDir())
	require.NoError(t, err)
	_, bands, ok := backend.Get(path)
	require.True(t, ok)
	assert.Equal(t, 153.0, bands[0][0])
	assert.True(t, math.IsNaN(bands[0][1]))
}
