// Package cube assembles single-band rasters into time-ordered multi-band
// cubes and gives windowed access to them.
//
// A cube is held in three forms: a Tensor (band, row, col), a Table with one
// row per band and one column per pixel, and the on-disk raster described by
// a Metadata record. The package only talks to storage through the Backend
// interface; gdalraster provides the GDAL implementation.
package cube
