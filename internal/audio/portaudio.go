package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/discohub/disco-monitor/internal/util"
)

// PortAudioHost is the production Host backed by the PortAudio library.
// Create it with NewPortAudioHost and Close it on shutdown so the
// underlying library is terminated exactly once.
type PortAudioHost struct{}

// NewPortAudioHost initializes the PortAudio library.
func NewPortAudioHost() (*PortAudioHost, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, util.WrapError("initialize audio subsystem", err)
	}
	return &PortAudioHost{}, nil
}

// Close terminates the PortAudio library. No streams may be used after.
func (h *PortAudioHost) Close() error {
	return portaudio.Terminate()
}

// Devices lists the available capture devices.
func (h *PortAudioHost) Devices() ([]DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, util.WrapError("list audio devices", err)
	}
	out := make([]DeviceInfo, 0, len(devs))
	for i, d := range devs {
		out = append(out, DeviceInfo{
			Index:         i,
			Name:          d.Name,
			InputChannels: d.MaxInputChannels,
			DefaultRate:   d.DefaultSampleRate,
		})
	}
	return out, nil
}

// Supported asks PortAudio whether the configuration is usable.
func (h *PortAudioHost) Supported(cfg StreamConfig) (bool, error) {
	params, err := h.params(cfg)
	if err != nil {
		return false, err
	}
	probe := probeBuffer(cfg)
	if err := portaudio.IsFormatSupported(params, probe); err != nil {
		if _, ok := err.(portaudio.Error); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Open opens a mono capture stream for the configuration. Unavailability
// errors are wrapped with ErrDeviceBusy so negotiation can fall back to
// another device.
func (h *PortAudioHost) Open(cfg StreamConfig) (Stream, error) {
	params, err := h.params(cfg)
	if err != nil {
		return nil, err
	}

	s := &paStream{format: cfg.Format}
	var buffer any
	switch cfg.Format {
	case FormatFloat32:
		s.f32Buf = make([]float32, cfg.ChunkFrames)
		buffer = s.f32Buf
	default:
		s.i16Buf = make([]int16, cfg.ChunkFrames)
		buffer = s.i16Buf
	}
	s.raw = make([]byte, cfg.ChunkFrames*cfg.Format.BytesPerSample())

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, classifyOpenError(err)
	}
	s.stream = stream
	return s, nil
}

// params resolves the device index and builds the stream parameters.
func (h *PortAudioHost) params(cfg StreamConfig) (portaudio.StreamParameters, error) {
	var dev *portaudio.DeviceInfo
	var err error
	if cfg.Device == DeviceDefault {
		dev, err = portaudio.DefaultInputDevice()
		if err != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("%w: no default input: %v", ErrDeviceBusy, err)
		}
	} else {
		devs, err := portaudio.Devices()
		if err != nil {
			return portaudio.StreamParameters{}, util.WrapError("list audio devices", err)
		}
		if cfg.Device < 0 || cfg.Device >= len(devs) {
			return portaudio.StreamParameters{}, fmt.Errorf("%w: device index %d out of range", ErrDeviceBusy, cfg.Device)
		}
		dev = devs[cfg.Device]
	}

	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.ChunkFrames
	return params, nil
}

// classifyOpenError tags errors that are worth retrying on another
// device. PortAudio reports a busy ALSA device as DeviceUnavailable and
// a bad index as InvalidDevice.
func classifyOpenError(err error) error {
	if pe, ok := err.(portaudio.Error); ok {
		switch pe {
		case portaudio.DeviceUnavailable, portaudio.InvalidDevice:
			return fmt.Errorf("%w: %v", ErrDeviceBusy, err)
		}
	}
	return err
}

// probeBuffer returns a zero-length typed buffer used only to tell
// PortAudio which sample format a capability check is about.
func probeBuffer(cfg StreamConfig) any {
	if cfg.Format == FormatFloat32 {
		return []float32{}
	}
	return []int16{}
}

// paStream adapts *portaudio.Stream to the Stream interface, encoding
// each chunk into little-endian bytes.
type paStream struct {
	stream *portaudio.Stream
	format SampleFormat
	i16Buf []int16
	f32Buf []float32
	raw    []byte

	mu     sync.Mutex
	active bool
}

func (s *paStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil
	}
	if err := s.stream.Start(); err != nil {
		return util.WrapError("start audio stream", err)
	}
	s.active = true
	return nil
}

func (s *paStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	s.active = false
	if err := s.stream.Stop(); err != nil {
		return util.WrapError("stop audio stream", err)
	}
	return nil
}

func (s *paStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	return s.stream.Close()
}

func (s *paStream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ReadChunk blocks for one chunk and returns its raw little-endian
// bytes. The returned slice is reused by the next call.
func (s *paStream) ReadChunk() ([]byte, error) {
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	switch s.format {
	case FormatFloat32:
		for i, v := range s.f32Buf {
			binary.LittleEndian.PutUint32(s.raw[i*4:], math.Float32bits(v))
		}
	default:
		for i, v := range s.i16Buf {
			binary.LittleEndian.PutUint16(s.raw[i*2:], uint16(v))
		}
	}
	return s.raw, nil
}
