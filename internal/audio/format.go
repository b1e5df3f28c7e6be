package audio

import (
	"encoding/binary"
	"math"
)

// SampleFormat identifies the on-wire sample encoding of a capture stream.
// All streams are mono little-endian.
type SampleFormat int

const (
	// FormatInt16 is signed 16-bit PCM, normalized by dividing by 32768.
	FormatInt16 SampleFormat = iota
	// FormatFloat32 is IEEE 754 32-bit float, already in the -1..1 range.
	FormatFloat32
)

// String returns the format name used in logs and reports.
func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32:
		return "float32"
	default:
		return "int16"
	}
}

// BytesPerSample returns the size of one sample in bytes.
func (f SampleFormat) BytesPerSample() int {
	if f == FormatFloat32 {
		return 4
	}
	return 2
}

// DecodeSamples converts a raw little-endian chunk into normalized float64
// samples. Trailing bytes that do not form a whole sample are ignored.
func DecodeSamples(f SampleFormat, chunk []byte) []float64 {
	width := f.BytesPerSample()
	n := len(chunk) / width
	samples := make([]float64, n)

	switch f {
	case FormatFloat32:
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(chunk[i*4:])
			samples[i] = float64(math.Float32frombits(bits))
		}
	default:
		for i := 0; i < n; i++ {
			s := int16(binary.LittleEndian.Uint16(chunk[i*2:]))
			samples[i] = float64(s) / 32768.0
		}
	}
	return samples
}
