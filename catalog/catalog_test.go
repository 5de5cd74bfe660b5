package catalog

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nci/gcube/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata() cube.Metadata {
	return cube.Metadata{
		Driver:    cube.OutputDriver,
		DataType:  cube.Float32,
		Count:     2,
		Height:    10,
		Width:     20,
		Transform: cube.TransformFromOrigin(500000, 6000000, 10, 10),
		CRS:       "EPSG:32633",
	}
}

func openCatalogs(t *testing.T) map[string]*Catalog {
	ctx := context.Background()
	cats := map[string]*Catalog{}

	lite, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })
	cats[DriverSQLite] = lite

	if dsn := os.Getenv("GCUBE_TEST_PG_DSN"); dsn != "" {
		pg, err := Open(ctx, DriverPostgres, dsn)
		require.NoError(t, err)
		_, err = pg.db.ExecContext(ctx, `delete from cubes`)
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })
		cats[DriverPostgres] = pg
	}
	return cats
}

func TestRegisterAndGet(t *testing.T) {
	for driver, cat := range openCatalogs(t) {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			dates := []time.Time{
				time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC),
				time.Date(2020, 2, 4, 0, 0, 0, 0, time.UTC),
			}
			e, err := NewEntry("ndvi_2020", "/cubes/ndvi_2020.tif", testMetadata().WithNoData(math.NaN()), dates)
			require.NoError(t, err)
			assert.Contains(t, e.Footprint, "Polygon")
			require.NoError(t, cat.Register(ctx, e))

			got, err := cat.Get(ctx, "ndvi_2020")
			require.NoError(t, err)
			assert.Equal(t, "/cubes/ndvi_2020.tif", got.Path)
			assert.Equal(t, dates, got.Dates)
			assert.Equal(t, testMetadata().Transform, got.Metadata.Transform)
			assert.Equal(t, cube.Float32, got.Metadata.DataType)
			assert.Equal(t, 20, got.Metadata.Width)
			assert.True(t, got.Metadata.HasNoData)
			assert.True(t, math.IsNaN(got.Metadata.NoData))
			assert.Equal(t, e.Footprint, got.Footprint)
			assert.False(t, got.Created.IsZero())
		})
	}
}

func TestRegisterReplaces(t *testing.T) {
	for driver, cat := range openCatalogs(t) {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			first, err := NewEntry("c", "/old.tif", testMetadata(), []time.Time{time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
			require.NoError(t, err)
			require.NoError(t, cat.Register(ctx, first))

			second, err := NewEntry("c", "/new.tif", testMetadata().WithCount(1), nil)
			require.NoError(t, err)
			require.NoError(t, cat.Register(ctx, second))

			got, err := cat.Get(ctx, "c")
			require.NoError(t, err)
			assert.Equal(t, "/new.tif", got.Path)
			assert.Equal(t, 1, got.Metadata.Count)
			assert.Empty(t, got.Dates)
			assert.False(t, got.Metadata.HasNoData)
		})
	}
}

func TestListAndNotFound(t *testing.T) {
	for driver, cat := range openCatalogs(t) {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			for _, name := range []string{"zeta", "alpha"} {
				e, err := NewEntry(name, "/"+name+".tif", testMetadata(), nil)
				require.NoError(t, err)
				require.NoError(t, cat.Register(ctx, e))
			}

			entries, err := cat.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "alpha", entries[0].Name)
			assert.Equal(t, "zeta", entries[1].Name)

			_, err = cat.Get(ctx, "missing")
			assert.ErrorIs(t, err, cube.ErrNotFound)

			assert.ErrorIs(t, cat.Register(ctx, Entry{}), cube.ErrFormat)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.ErrorIs(t, err, cube.ErrUnsupported)
}

func TestBindPlaceholders(t *testing.T) {
	pg := &Catalog{driver: DriverPostgres}
	assert.Equal(t, "select $1, $2", pg.bind("select ?, ?"))
	lite := &Catalog{driver: DriverSQLite}
	assert.Equal(t, "select ?, ?", lite.bind("select ?, ?"))
}
