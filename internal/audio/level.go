package audio

import (
	"math"

	"github.com/discohub/disco-monitor/internal/types"
)

// RMS computes the root-mean-square energy of normalized samples.
// Returns 0.0 for empty input or when the result is not a finite number.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if math.IsNaN(rms) || math.IsInf(rms, 0) {
		return 0.0
	}
	return rms
}

// LevelMeter smooths per-chunk RMS readings over a fixed-size FIFO window.
// It is not safe for concurrent use; the sampling loop is its only writer.
type LevelMeter struct {
	size   int
	values []float64
}

// NewLevelMeter creates a meter with the given window size.
// Sizes below 1 fall back to the default window.
func NewLevelMeter(size int) *LevelMeter {
	if size < 1 {
		size = types.DefaultLevelBufferSize
	}
	return &LevelMeter{
		size:   size,
		values: make([]float64, 0, size),
	}
}

// Push appends one RMS reading, evicting the oldest when the window is full,
// and returns the new smoothed level.
func (m *LevelMeter) Push(rms float64) float64 {
	if len(m.values) == m.size {
		copy(m.values, m.values[1:])
		m.values = m.values[:m.size-1]
	}
	m.values = append(m.values, rms)
	return m.Level()
}

// Level returns the arithmetic mean of the buffered readings,
// or 0.0 when nothing has been pushed yet.
func (m *LevelMeter) Level() float64 {
	if len(m.values) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range m.values {
		sum += v
	}
	return sum / float64(len(m.values))
}

// Len returns the number of buffered readings.
func (m *LevelMeter) Len() int {
	return len(m.values)
}

// Reset discards all buffered readings.
func (m *LevelMeter) Reset() {
	m.values = m.values[:0]
}
