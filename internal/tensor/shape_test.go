package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b    Shape
		want    Shape
		needs   bool
		wantErr bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{Shape{5}, Shape{2, 5}, Shape{2, 5}, true, false},
		{Shape{}, Shape{2}, Shape{2}, true, false},
		{Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		got, needs, err := BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			if err == nil {
				t.Errorf("BroadcastShapes(%v, %v) expected error", tt.a, tt.b)
			}
			continue
		}
		if err != nil {
			t.Errorf("BroadcastShapes(%v, %v) unexpected error: %v", tt.a, tt.b, err)
			continue
		}
		if !got.Equal(tt.want) || needs != tt.needs {
			t.Errorf("BroadcastShapes(%v, %v) = %v, %v; want %v, %v", tt.a, tt.b, got, needs, tt.want, tt.needs)
		}
	}
}

func TestNormalizeAxis(t *testing.T) {
	assert.Equal(t, 2, NormalizeAxis(-1, 3))
	assert.Equal(t, 0, NormalizeAxis(0, 3))
	assert.Panics(t, func() { NormalizeAxis(3, 3) })
	assert.Panics(t, func() { NormalizeAxis(-4, 3) })
}

func TestShape_Strides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Empty(t, Shape{}.ComputeStrides())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Error(t, Shape{2, 0}.Validate())
}

func TestDataTypeOf(t *testing.T) {
	assert.Equal(t, Float32, DataTypeOf[float32]())
	assert.Equal(t, Float64, DataTypeOf[float64]())
	assert.Equal(t, Int32, DataTypeOf[int32]())
	assert.False(t, Int32.IsFloat())
	assert.Equal(t, 8, Float64.Size())
}

func TestWithShape_Copies(t *testing.T) {
	r := MustNewRaw(Shape{2, 3}, Float32, CPU)
	r.AsFloat32()[0] = 1

	v := r.WithShape(Shape{3, 2})
	v.AsFloat32()[0] = 5

	assert.Equal(t, float32(1), r.AsFloat32()[0])
	assert.Equal(t, []int{2, 1}, v.Strides())
	assert.Panics(t, func() { r.WithShape(Shape{4}) })
}
