package cube_test

import (
	"testing"

	"github.com/nci/gcube/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	for name, want := range map[string]cube.DataType{
		"uint8":    cube.Byte,
		"Byte":     cube.Byte,
		"int8":     cube.Int8,
		"Int8":     cube.Int8,
		"UInt16":   cube.UInt16,
		"int16":    cube.Int16,
		"float32":  cube.Float32,
		" Float64": cube.Float64,
	} {
		got, err := cube.ParseDataType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := cube.ParseDataType("complex64")
	assert.ErrorIs(t, err, cube.ErrUnsupported)
}

func TestDataTypeRangeAndCast(t *testing.T) {
	lo, hi := cube.UInt16.Range()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 65535.0, hi)

	lo, hi = cube.Int16.Range()
	assert.Equal(t, -32768.0, lo)
	assert.Equal(t, 32767.0, hi)

	lo, hi = cube.Int8.Range()
	assert.Equal(t, -128.0, lo)
	assert.Equal(t, 127.0, hi)
	assert.Equal(t, 1, cube.Int8.Size())
	assert.True(t, cube.Int8.Valid())
	assert.Equal(t, -7.0, cube.Int8.Cast(-7.6))
	assert.Equal(t, "Int8", cube.Int8.String())

	assert.Equal(t, 3.0, cube.Byte.Cast(3.9))
	assert.Equal(t, -3.0, cube.Int32.Cast(-3.9))
	assert.Equal(t, float64(float32(0.1)), cube.Float32.Cast(0.1))
	assert.Equal(t, 0.1, cube.Float64.Cast(0.1))

	buf := []float64{1.5, 2.5}
	cube.UInt16.CastSlice(buf)
	assert.Equal(t, []float64{1, 2}, buf)
}

func TestDataTypeText(t *testing.T) {
	var dt cube.DataType
	require.NoError(t, dt.UnmarshalText([]byte("uint16")))
	assert.Equal(t, cube.UInt16, dt)

	raw, err := cube.Float32.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Float32", string(raw))
	assert.Equal(t, 4, cube.Float32.Size())
	assert.False(t, cube.Unknown.Valid())
}
