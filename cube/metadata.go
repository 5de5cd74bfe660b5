package cube

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// GeoTransform holds the six affine coefficients in GDAL order:
// originX, pixel width, row rotation, originY, column rotation, pixel height.
type GeoTransform [6]float64

// TransformFromOrigin builds a north-up transform anchored at the top-left
// corner (x, y) with the given pixel sizes.
func TransformFromOrigin(x, y, xSize, ySize float64) GeoTransform {
	return GeoTransform{x, xSize, 0, y, 0, -ySize}
}

// Apply maps a pixel corner (col, row) to world coordinates.
func (g GeoTransform) Apply(col, row float64) (float64, float64) {
	x := g[0] + col*g[1] + row*g[2]
	y := g[3] + col*g[4] + row*g[5]
	return x, y
}

// PixelSize is the x-scale term. Pixels are assumed square.
func (g GeoTransform) PixelSize() float64 {
	return g[1]
}

// Metadata describes a raster on disk. It is a value type: every With*
// method returns an updated copy and never touches the receiver, so the
// record read from a source can be handed around without aliasing.
type Metadata struct {
	Driver    string       `json:"driver"`
	DataType  DataType     `json:"dtype"`
	Count     int          `json:"count"`
	Height    int          `json:"height"`
	Width     int          `json:"width"`
	Transform GeoTransform `json:"transform"`
	CRS       string       `json:"crs"`
	NoData    float64      `json:"nodata,omitempty"`
	HasNoData bool         `json:"has_nodata"`
}

func (m Metadata) Validate() error {
	if !m.DataType.Valid() {
		return fmt.Errorf("metadata: %w: %v", ErrUnsupported, m.DataType)
	}
	if m.Count <= 0 || m.Height <= 0 || m.Width <= 0 {
		return fmt.Errorf("metadata: %w: count=%d height=%d width=%d", ErrShape, m.Count, m.Height, m.Width)
	}
	return nil
}

// Pixels is the number of pixels in one band.
func (m Metadata) Pixels() int {
	return m.Height * m.Width
}

func (m Metadata) WithShape(count, height, width int) Metadata {
	m.Count = count
	m.Height = height
	m.Width = width
	return m
}

func (m Metadata) WithCount(count int) Metadata {
	m.Count = count
	return m
}

func (m Metadata) WithDataType(dt DataType) Metadata {
	m.DataType = dt
	return m
}

func (m Metadata) WithDriver(driver string) Metadata {
	m.Driver = driver
	return m
}

func (m Metadata) WithTransform(g GeoTransform) Metadata {
	m.Transform = g
	return m
}

func (m Metadata) WithNoData(nodata float64) Metadata {
	m.NoData = nodata
	m.HasNoData = true
	return m
}

// CheckPixelSize fails with ErrShape unless both pixel-size terms of the
// transform match size.
func (m Metadata) CheckPixelSize(size float64) error {
	const eps = 1e-9
	if math.Abs(math.Abs(m.Transform[1])-size) > eps || math.Abs(math.Abs(m.Transform[5])-size) > eps {
		return fmt.Errorf("%w: pixel size (%v, %v), expected %v", ErrShape, m.Transform[1], m.Transform[5], size)
	}
	return nil
}

// SameGrid reports whether other has the same spatial dimensions.
func (m Metadata) SameGrid(other Metadata) bool {
	return m.Height == other.Height && m.Width == other.Width
}

type plainMetadata Metadata

// MarshalJSON writes a non-finite nodata value as a string such as "NaN",
// which encoding/json cannot represent as a number.
func (m Metadata) MarshalJSON() ([]byte, error) {
	aux := struct {
		plainMetadata
		NoData interface{} `json:"nodata,omitempty"`
	}{plainMetadata: plainMetadata(m)}
	if m.HasNoData {
		if math.IsNaN(m.NoData) || math.IsInf(m.NoData, 0) {
			aux.NoData = strconv.FormatFloat(m.NoData, 'g', -1, 64)
		} else {
			aux.NoData = m.NoData
		}
	}
	return json.Marshal(aux)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	aux := struct {
		*plainMetadata
		NoData interface{} `json:"nodata,omitempty"`
	}{plainMetadata: (*plainMetadata)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch v := aux.NoData.(type) {
	case nil:
		m.NoData = 0
	case float64:
		m.NoData = v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: nodata %q", ErrFormat, v)
		}
		m.NoData = f
	default:
		return fmt.Errorf("%w: nodata %v", ErrFormat, v)
	}
	return nil
}
