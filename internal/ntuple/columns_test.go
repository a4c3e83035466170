package ntuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatAt(t *testing.T) {
	f32 := []float32{1.5, 2.5}
	f64 := []float64{3, 4}
	arr := [3]float32{7, 8, 9}
	i16 := []int16{5}
	scalar := float32(6)

	assert.Equal(t, 2.5, floatAt(&f32, 1))
	assert.Equal(t, 0.0, floatAt(&f32, 5))
	assert.Equal(t, 4.0, floatAt(&f64, 1))
	assert.Equal(t, 9.0, floatAt(&arr, 2))
	assert.Equal(t, 5.0, floatAt(&i16, 0))
	assert.Equal(t, 6.0, floatAt(&scalar, 3))
}

func TestSetFloatAtGrows(t *testing.T) {
	var f32 []float32
	setFloatAt(&f32, 2, 1.25)
	assert.Equal(t, []float32{0, 0, 1.25}, f32)

	var f64 []float64
	setFloatAt(&f64, 0, 2)
	assert.Equal(t, []float64{2}, f64)

	arr := [2]float64{}
	setFloatAt(&arr, 1, 3)
	setFloatAt(&arr, 4, 3)
	assert.Equal(t, [2]float64{0, 3}, arr)
}

func TestResize(t *testing.T) {
	v := []float32{1, 2, 3}
	resize(&v, 1)
	assert.Equal(t, []float32{1}, v)
	resize(&v, 4)
	assert.Len(t, v, 4)
	assert.Equal(t, float32(1), v[0])
}

func TestCount(t *testing.T) {
	i32 := int32(4)
	u8 := uint8(2)
	n, err := count(&i32)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = count(&u8)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f := float32(1)
	_, err = count(&f)
	assert.Error(t, err)
	_, err = count(3)
	assert.Error(t, err)
}
