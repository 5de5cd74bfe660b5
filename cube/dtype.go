package cube

import (
	"fmt"
	"math"
	"strings"
)

// DataType is the element type shared by every band of a raster.
type DataType int

const (
	Unknown DataType = iota
	Byte
	Int8
	UInt16
	Int16
	UInt32
	Int32
	Float32
	Float64
)

var dataTypeNames = map[DataType]string{
	Unknown: "Unknown",
	Byte:    "Byte",
	Int8:    "Int8",
	UInt16:  "UInt16",
	Int16:   "Int16",
	UInt32:  "UInt32",
	Int32:   "Int32",
	Float32: "Float32",
	Float64: "Float64",
}

var dataTypeAliases = map[string]DataType{
	"byte":    Byte,
	"uint8":   Byte,
	"int8":    Int8,
	"uint16":  UInt16,
	"int16":   Int16,
	"uint32":  UInt32,
	"int32":   Int32,
	"float32": Float32,
	"float64": Float64,
}

// ParseDataType accepts GDAL names ("UInt16") as well as numpy style names
// ("uint16", "uint8").
func ParseDataType(name string) (DataType, error) {
	if dt, ok := dataTypeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return dt, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnsupported, name)
}

func (dt DataType) String() string {
	if name, ok := dataTypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

func (dt DataType) Valid() bool {
	return dt > Unknown && dt <= Float64
}

// Size is the element size in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Byte, Int8:
		return 1
	case UInt16, Int16:
		return 2
	case UInt32, Int32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

// Range returns the representable minimum and maximum of the type.
func (dt DataType) Range() (float64, float64) {
	switch dt {
	case Byte:
		return 0, math.MaxUint8
	case Int8:
		return math.MinInt8, math.MaxInt8
	case UInt16:
		return 0, math.MaxUint16
	case Int16:
		return math.MinInt16, math.MaxInt16
	case UInt32:
		return 0, math.MaxUint32
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	case Float64:
		return -math.MaxFloat64, math.MaxFloat64
	}
	return 0, 0
}

// Cast converts v to the type and back to float64. Integer types truncate
// toward zero. Values outside the type's range are not clamped: the result
// is whatever Go's conversion yields for the platform and must be treated
// as undefined.
func (dt DataType) Cast(v float64) float64 {
	switch dt {
	case Byte:
		return float64(uint8(v))
	case Int8:
		return float64(int8(v))
	case UInt16:
		return float64(uint16(v))
	case Int16:
		return float64(int16(v))
	case UInt32:
		return float64(uint32(v))
	case Int32:
		return float64(int32(v))
	case Float32:
		return float64(float32(v))
	}
	return v
}

// CastSlice casts every element of buf in place.
func (dt DataType) CastSlice(buf []float64) {
	if dt == Float64 {
		return
	}
	for i, v := range buf {
		buf[i] = dt.Cast(v)
	}
}

func (dt DataType) MarshalText() ([]byte, error) {
	return []byte(dt.String()), nil
}

func (dt *DataType) UnmarshalText(text []byte) error {
	v, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*dt = v
	return nil
}
