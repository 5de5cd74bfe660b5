package cube_test

import (
	"errors"
	"testing"

	"github.com/nci/gcube/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridMetadata(count, height, width int) cube.Metadata {
	return cube.Metadata{
		Driver:    "GTiff",
		DataType:  cube.Float32,
		Count:     count,
		Height:    height,
		Width:     width,
		Transform: cube.TransformFromOrigin(100, 200, 10, 10),
		CRS:       "EPSG:32633",
	}
}

func TestWindowMetadata(t *testing.T) {
	src := gridMetadata(3, 10, 20)
	w := cube.Window{RowStart: 2, RowStop: 5, ColStart: 4, ColStop: 9, BandStart: 1, BandStop: 3}

	m, err := cube.WindowMetadata(src, w)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count)
	assert.Equal(t, 3, m.Height)
	assert.Equal(t, 5, m.Width)
	assert.Equal(t, cube.GeoTransform{140, 10, 0, 180, 0, -10}, m.Transform)
	assert.Equal(t, src.CRS, m.CRS)
	assert.Equal(t, src.DataType, m.DataType)
	assert.Equal(t, 20, src.Width, "source metadata must not change")

	assert.Equal(t, []int{2, 3}, w.Bands())
}

func TestWindowFullExtentKeepsTransform(t *testing.T) {
	src := gridMetadata(2, 4, 4)
	m, err := cube.WindowMetadata(src, cube.Window{RowStop: 4, ColStop: 4, BandStop: 2})
	require.NoError(t, err)
	assert.Equal(t, src, m)
}

func TestWindowBounds(t *testing.T) {
	src := gridMetadata(3, 10, 20)
	cases := []struct {
		w     cube.Window
		bound string
		value int
	}{
		{cube.Window{RowStart: -1, RowStop: 5, ColStop: 5, BandStop: 1}, "row_start", -1},
		{cube.Window{RowStop: 11, ColStop: 5, BandStop: 1}, "row_stop", 11},
		{cube.Window{RowStart: 3, RowStop: 3, ColStop: 5, BandStop: 1}, "row_stop", 3},
		{cube.Window{RowStart: 5, RowStop: 2, ColStop: 5, BandStop: 1}, "row_stop", 2},
		{cube.Window{RowStop: 5, ColStop: 21, BandStop: 1}, "col_stop", 21},
		{cube.Window{RowStop: 5, ColStop: 5, BandStop: 4}, "band_stop", 4},
		{cube.Window{RowStop: 5, ColStop: 5, BandStart: 1, BandStop: 1}, "band_stop", 1},
	}
	for _, c := range cases {
		_, err := cube.WindowMetadata(src, c.w)
		require.Error(t, err, c.w.String())
		assert.ErrorIs(t, err, cube.ErrBounds)

		var be *cube.BoundsError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, c.bound, be.Bound, c.w.String())
		assert.Equal(t, c.value, be.Value, c.w.String())
	}
}
