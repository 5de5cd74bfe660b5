package preprocess

import (
	"math"
	"testing"

	"github.com/nci/gcube/cube"
	"github.com/nci/gcube/cube/cubetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layer() cube.Metadata {
	return cube.Metadata{
		Driver:    "GTiff",
		DataType:  cube.Float32,
		Count:     1,
		Height:    1,
		Width:     2,
		Transform: cube.TransformFromOrigin(0, 0, 10, 10),
	}
}

func TestNormalizeCommonLayers(t *testing.T) {
	backend := cubetest.NewBackend()
	backend.Put("/in/a.tif", layer(), []float64{0, 10})
	backend.Put("/in/b.tif", layer(), []float64{5, 20})

	written, err := NewNormalizer(backend, nil).NormalizeCommonLayers([]string{"/in/a.tif", "/in/b.tif"}, cube.UInt16, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"/in/a_norm_uint16.tif", "/in/b_norm_uint16.tif"}, written)

	m, bands, ok := backend.Get("/in/a_norm_uint16.tif")
	require.True(t, ok)
	assert.Equal(t, cube.UInt16, m.DataType)
	assert.Equal(t, []float64{0, 32767}, bands[0])

	_, bands, ok = backend.Get("/in/b_norm_uint16.tif")
	require.True(t, ok)
	assert.Equal(t, []float64{16383, 65535}, bands[0])

	_, bands, _ = backend.Get("/in/a.tif")
	assert.Equal(t, []float64{0, 10}, bands[0], "inputs are kept")
	assert.Len(t, backend.Paths(), 4)
	assert.Equal(t, 0, backend.OpenCount())
}

func TestNormalizeOverwrite(t *testing.T) {
	backend := cubetest.NewBackend()
	backend.Put("/in/a.tif", layer(), []float64{0, 10})

	written, err := NewNormalizer(backend, nil).NormalizeCommonLayers([]string{"/in/a.tif"}, cube.Byte, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"/in/a.tif"}, written)

	m, bands, _ := backend.Get("/in/a.tif")
	assert.Equal(t, cube.Byte, m.DataType)
	assert.Equal(t, []float64{0, 255}, bands[0])
	assert.Equal(t, []string{"/in/a.tif"}, backend.Paths())
}

func TestNormalizeKeepsNoData(t *testing.T) {
	backend := cubetest.NewBackend()
	m := layer().WithShape(1, 1, 3).WithNoData(0)
	backend.Put("/in/a.tif", m, []float64{0, 100, 200})

	_, err := NewNormalizer(backend, nil).NormalizeCommonLayers([]string{"/in/a.tif"}, cube.Byte, false)
	require.NoError(t, err)

	out, bands, ok := backend.Get("/in/a_norm_byte.tif")
	require.True(t, ok)
	require.True(t, out.HasNoData)
	assert.Equal(t, 255.0, out.NoData)
	assert.Equal(t, []float64{255, 0, 254}, bands[0], "valid pixels never take the nodata value")
}

func TestNormalizeFloatNoDataIsNaN(t *testing.T) {
	backend := cubetest.NewBackend()
	m := layer().WithShape(1, 1, 3).WithNoData(-9999)
	backend.Put("/in/a.tif", m, []float64{-9999, 1, math.NaN()})
	backend.Put("/in/b.tif", layer(), []float64{3, 2})

	_, err := NewNormalizer(backend, nil).NormalizeCommonLayers([]string{"/in/a.tif", "/in/b.tif"}, cube.Float64, false)
	require.NoError(t, err)

	out, bands, ok := backend.Get("/in/a_norm_float64.tif")
	require.True(t, ok)
	require.True(t, out.HasNoData)
	assert.True(t, math.IsNaN(out.NoData))
	assert.True(t, math.IsNaN(bands[0][0]))
	assert.True(t, math.IsNaN(bands[0][2]))
	assert.Equal(t, -math.MaxFloat64, bands[0][1])

	out, bands, _ = backend.Get("/in/b_norm_float64.tif")
	assert.True(t, out.HasNoData, "layers share one nodata convention")
	assert.Equal(t, math.MaxFloat64, bands[0][0])
}

func TestNormalizeErrors(t *testing.T) {
	backend := cubetest.NewBackend()
	backend.Put("/in/flat.tif", layer(), []float64{3, 3})
	n := NewNormalizer(backend, nil)

	_, err := n.NormalizeCommonLayers([]string{"/in/flat.tif"}, cube.UInt16, false)
	assert.ErrorIs(t, err, ErrConstantInput)

	_, err = n.NormalizeCommonLayers(nil, cube.UInt16, false)
	assert.ErrorIs(t, err, cube.ErrEmptyInput)

	_, err = n.NormalizeCommonLayers([]string{"/in/missing.tif"}, cube.UInt16, false)
	assert.ErrorIs(t, err, cube.ErrNotFound)

	_, err = n.NormalizeCommonLayers([]string{"/in/flat.tif"}, cube.Unknown, false)
	assert.ErrorIs(t, err, cube.ErrUnsupported)
	assert.Equal(t, []string{"/in/flat.tif"}, backend.Paths())
}
