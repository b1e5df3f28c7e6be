package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil), "empty input is zero")
	assert.Equal(t, 0.0, RMS([]float64{}))
	assert.InDelta(t, 0.5, RMS([]float64{0.5, -0.5, 0.5, -0.5}), 1e-9)
	assert.InDelta(t, 0.0, RMS([]float64{0, 0, 0}), 1e-9)
}

func TestRMSNonFiniteInputIsZero(t *testing.T) {
	assert.Equal(t, 0.0, RMS([]float64{math.NaN(), 0.5}))
	assert.Equal(t, 0.0, RMS([]float64{math.Inf(1)}))
}

func TestLevelMeterWindow(t *testing.T) {
	m := NewLevelMeter(3)
	assert.Equal(t, 0.0, m.Level(), "empty meter reads zero")

	assert.InDelta(t, 0.3, m.Push(0.3), 1e-9, "single reading is its own mean")
	assert.InDelta(t, 0.45, m.Push(0.6), 1e-9)
	m.Push(0.9)
	assert.Equal(t, 3, m.Len())

	// Fourth reading evicts the oldest (0.3).
	level := m.Push(0.3)
	assert.Equal(t, 3, m.Len(), "window never exceeds its size")
	assert.InDelta(t, (0.6+0.9+0.3)/3, level, 1e-9)
}

func TestLevelMeterReset(t *testing.T) {
	m := NewLevelMeter(5)
	m.Push(0.4)
	m.Push(0.8)
	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0.0, m.Level())
}

func TestLevelMeterInvalidSizeFallsBack(t *testing.T) {
	m := NewLevelMeter(0)
	for i := 0; i < 20; i++ {
		m.Push(0.1)
	}
	assert.Equal(t, 10, m.Len())
}

func TestDecodeSamplesInt16(t *testing.T) {
	chunk := make([]byte, 8)
	binary.LittleEndian.PutUint16(chunk[0:], uint16(int16(0)))
	binary.LittleEndian.PutUint16(chunk[2:], uint16(int16(16384)))
	binary.LittleEndian.PutUint16(chunk[4:], uint16(int16(-16384)))
	binary.LittleEndian.PutUint16(chunk[6:], uint16(int16(-32768)))

	samples := DecodeSamples(FormatInt16, chunk)
	require.Len(t, samples, 4)
	assert.InDelta(t, 0.0, samples[0], 1e-9)
	assert.InDelta(t, 0.5, samples[1], 1e-9)
	assert.InDelta(t, -0.5, samples[2], 1e-9)
	assert.InDelta(t, -1.0, samples[3], 1e-9)
}

func TestDecodeSamplesFloat32(t *testing.T) {
	chunk := make([]byte, 8)
	binary.LittleEndian.PutUint32(chunk[0:], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(chunk[4:], math.Float32bits(-1.0))

	samples := DecodeSamples(FormatFloat32, chunk)
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.25, samples[0], 1e-6)
	assert.InDelta(t, -1.0, samples[1], 1e-6)
}

func TestDecodeSamplesIgnoresTrailingBytes(t *testing.T) {
	samples := DecodeSamples(FormatInt16, []byte{0, 0, 7})
	assert.Len(t, samples, 1)
}
