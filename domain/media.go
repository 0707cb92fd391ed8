package domain

import "time"

type MediaKind string

const (
	Video MediaKind = "video"
	Audio MediaKind = "audio"
)

// Devices is what the client reported about its local capture hardware.
type Devices struct {
	HasCamera     bool
	HasMicrophone bool
}

func (d Devices) Has(kind MediaKind) bool {
	switch kind {
	case Video:
		return d.HasCamera
	case Audio:
		return d.HasMicrophone
	default:
		return false
	}
}

// MediaConstraints are the flags handed to the external media transport.
type MediaConstraints struct {
	Video bool
	Audio bool
}

func (c MediaConstraints) Any() bool {
	return c.Video || c.Audio
}

// MediaState tracks per-kind toggles of one session.
// A kind can only be enabled when its device exists.
type MediaState struct {
	Devices      Devices
	VideoEnabled bool
	AudioEnabled bool
	Streaming    bool
}

func NewMediaState(devices Devices) MediaState {
	return MediaState{
		Devices:      devices,
		VideoEnabled: devices.HasCamera,
		AudioEnabled: devices.HasMicrophone,
	}
}

// Toggle flips one kind. Unavailable devices stay disabled.
func (m MediaState) Toggle(kind MediaKind) MediaState {
	if !m.Devices.Has(kind) {
		return m
	}
	switch kind {
	case Video:
		m.VideoEnabled = !m.VideoEnabled
	case Audio:
		m.AudioEnabled = !m.AudioEnabled
	}
	return m
}

// Reset restores the toggles to device availability, as after leaving a room.
func (m MediaState) Reset() MediaState {
	return NewMediaState(m.Devices)
}

func (m MediaState) Constraints() MediaConstraints {
	return MediaConstraints{
		Video: m.VideoEnabled && m.Devices.HasCamera,
		Audio: m.AudioEnabled && m.Devices.HasMicrophone,
	}
}

// MediaConfig is handed to the external transport alongside the constraints.
type MediaConfig struct {
	ICEServers []string
}

// Frame is an opaque media frame travelling through the external transport.
type Frame struct {
	Kind MediaKind
	Data []byte
	PTS  time.Duration
}

// FrameProcessor is the per-frame hook of the media transport.
// The coordination core never calls it.
type FrameProcessor interface {
	Process(frame Frame) Frame
}

type FrameProcessorFunc func(frame Frame) Frame

func (f FrameProcessorFunc) Process(frame Frame) Frame {
	return f(frame)
}

// PassThrough returns frames untouched.
var PassThrough FrameProcessor = FrameProcessorFunc(func(frame Frame) Frame { return frame })
