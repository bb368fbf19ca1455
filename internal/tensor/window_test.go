package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPooledSize(t *testing.T) {
	tests := []struct {
		size, k, s, p int
		coverAll      bool
		want          int
	}{
		{4, 2, 2, 0, false, 2},
		{5, 2, 2, 0, false, 2},
		{5, 2, 2, 0, true, 3},
		{5, 3, 2, 1, false, 3},
		{5, 3, 2, 1, true, 3},
		{7, 3, 1, 0, false, 5},
	}

	for _, tt := range tests {
		if got := PooledSize(tt.size, tt.k, tt.s, tt.p, tt.coverAll); got != tt.want {
			t.Errorf("PooledSize(%d, k=%d, s=%d, p=%d, coverAll=%v) = %d, want %d",
				tt.size, tt.k, tt.s, tt.p, tt.coverAll, got, tt.want)
		}
	}
}

func TestUnpooledSize_InvertsPooledSize(t *testing.T) {
	for _, coverAll := range []bool{false, true} {
		for size := 1; size < 6; size++ {
			out := UnpooledSize(size, 2, 2, 0, coverAll)
			if got := PooledSize(out, 2, 2, 0, coverAll); got != size {
				t.Errorf("coverAll=%v: pooled(unpooled(%d)=%d) = %d", coverAll, size, out, got)
			}
		}
	}
}

func TestNewWindow_Defaults(t *testing.T) {
	w := NewWindow([]int{3, 2}, nil, nil, false)

	assert.Equal(t, []int{3, 2}, w.Stride)
	assert.Equal(t, []int{0, 0}, w.Pad)
	assert.Equal(t, 2, w.Dims())
	assert.Equal(t, 6, w.Volume())
	assert.Panics(t, func() { NewWindow([]int{2, 2}, []int{1}, nil, false) })
}

func TestWindow_Shapes(t *testing.T) {
	w := NewWindow([]int{2, 2}, nil, nil, false)

	assert.Equal(t, Shape{1, 3, 2, 2}, w.PooledShape(Shape{1, 3, 4, 5}))
	assert.Equal(t, Shape{1, 3, 4, 4}, w.UnpooledShape(Shape{1, 3, 2, 2}))
	assert.Panics(t, func() { w.PooledShape(Shape{3, 4, 5}) }, "rank mismatch")
	assert.Panics(t, func() { w.PooledShape(Shape{1, 1, 1, 1}) }, "window larger than input")
	assert.Panics(t, func() { NewWindow([]int{0, 2}, nil, nil, false).PooledShape(Shape{1, 1, 4, 4}) })
}
