// Package vad trims leading and trailing non-speech from mono PCM using
// the WebRTC voice activity detector.
package vad

import (
	"errors"
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// ErrInvalidRate is returned for sample rates the detector does not support.
var ErrInvalidRate = errors.New("vad: sample rate must be 8000, 16000, 32000 or 48000")

// FrameMillis is the analysis frame length.
const FrameMillis = 30

// Config controls a Trimmer.
type Config struct {
	SampleRate int
	// Mode is the detector aggressiveness, 0 (least) to 3 (most).
	Mode int
	// PadFrames keeps this many extra frames around the voiced span.
	PadFrames int
}

// Trimmer cuts the audio down to the span between the first and the last
// voiced frame. A Trimmer is not safe for concurrent use.
type Trimmer struct {
	vad   *webrtcvad.VAD
	rate  int
	frame int
	pad   int
}

// NewTrimmer creates a Trimmer.
func NewTrimmer(cfg Config) (*Trimmer, error) {
	switch cfg.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRate, cfg.SampleRate)
	}
	if cfg.Mode < 0 || cfg.Mode > 3 {
		return nil, fmt.Errorf("vad: mode %d out of range 0..3", cfg.Mode)
	}
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("vad: create detector: %w", err)
	}
	if err := v.SetMode(cfg.Mode); err != nil {
		return nil, fmt.Errorf("vad: set mode: %w", err)
	}
	return &Trimmer{
		vad:   v,
		rate:  cfg.SampleRate,
		frame: cfg.SampleRate * FrameMillis / 1000,
		pad:   max(cfg.PadFrames, 0),
	}, nil
}

// Trim returns the voiced span of samples. The result is empty when no
// frame is classified as speech. A trailing partial frame is zero padded
// for classification.
func (t *Trimmer) Trim(samples []float32) ([]float32, error) {
	flags, err := t.classify(samples)
	if err != nil {
		return nil, err
	}
	lo, hi := voicedSpan(flags, t.frame, t.pad, len(samples))
	if lo >= hi {
		return nil, nil
	}
	out := make([]float32, hi-lo)
	copy(out, samples[lo:hi])
	return out, nil
}

func (t *Trimmer) classify(samples []float32) ([]bool, error) {
	buf := make([]byte, t.frame*2)
	flags := make([]bool, 0, (len(samples)+t.frame-1)/t.frame)
	for start := 0; start < len(samples); start += t.frame {
		for i := 0; i < t.frame; i++ {
			var v int16
			if start+i < len(samples) {
				v = toInt16(samples[start+i])
			}
			buf[2*i] = byte(v)
			buf[2*i+1] = byte(v >> 8)
		}
		active, err := t.vad.Process(t.rate, buf)
		if err != nil {
			return nil, fmt.Errorf("vad: process frame at %d: %w", start, err)
		}
		flags = append(flags, active)
	}
	return flags, nil
}

// voicedSpan maps per-frame decisions to a sample range [lo, hi).
func voicedSpan(flags []bool, frame, pad, n int) (int, int) {
	first, last := -1, -1
	for i, f := range flags {
		if !f {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return 0, 0
	}
	lo := max(first-pad, 0) * frame
	hi := min((last+1+pad)*frame, n)
	return lo, hi
}

func toInt16(s float32) int16 {
	switch {
	case s > 1:
		s = 1
	case s < -1:
		s = -1
	}
	return int16(s * 32767)
}
