package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfgs := map[string]Config{
		"default":    DefaultConfig(),
		"coarse":     DefaultConfig().Coarse(),
		"sequential": Sequential(),
		"disabled":   {Enabled: false},
		"four":       {Enabled: true, NumWorkers: 4, MinChunkSize: 1},
	}

	for name, cfg := range cfgs {
		for _, n := range []int{0, 1, 3, 1000} {
			hits := make([]int32, n)
			For(n, func(i int) {
				atomic.AddInt32(&hits[i], 1)
			}, cfg)

			for i, h := range hits {
				if h != 1 {
					t.Errorf("%s n=%d: index %d visited %d times", name, n, i, h)
				}
			}
		}
	}
}

func TestCoarse(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}
	c := cfg.Coarse()

	if c.MinChunkSize != 1 {
		t.Errorf("Coarse MinChunkSize = %d, want 1", c.MinChunkSize)
	}
	if cfg.MinChunkSize != 64 {
		t.Errorf("Coarse must not modify the receiver, got %d", cfg.MinChunkSize)
	}
}

func TestForBatch(t *testing.T) {
	batch, channels := 4, 8
	results := make([][]bool, batch)
	for b := range results {
		results[b] = make([]bool, channels)
	}

	ForBatch(batch, channels, func(b, c int) {
		results[b][c] = true
	}, DefaultConfig().Coarse())

	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			if !results[b][c] {
				t.Errorf("Missing result at [%d][%d]", b, c)
			}
		}
	}
}

func BenchmarkFor(b *testing.B) {
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		cfg := DefaultConfig()
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfg := Sequential()
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})
}
