// Package preprocess turns decoded audio into the normalized 16 kHz
// waveform and mel-spectrogram stored in aligner training records.
package preprocess

import (
	"errors"
	"fmt"

	"github.com/haivivi/aligner/pkg/audio/fbank"
	"github.com/haivivi/aligner/pkg/audio/loudness"
	"github.com/haivivi/aligner/pkg/audio/resampler"
	"github.com/haivivi/aligner/pkg/audio/vad"
)

// ErrEmptyAudio is returned when normalization leaves no samples.
var ErrEmptyAudio = errors.New("preprocess: empty audio")

// Config controls a Preprocessor.
type Config struct {
	OutputRate int
	// LoudNorm normalizes to TargetLUFS and then to unit peak.
	LoudNorm   bool
	TargetLUFS float64
	// CutSilence trims leading and trailing non-speech with a VAD.
	CutSilence bool
	VADMode    int
}

// DefaultConfig returns the configuration used for aligner datasets.
func DefaultConfig() Config {
	return Config{
		OutputRate: 16000,
		LoudNorm:   true,
		TargetLUFS: -30,
		CutSilence: false,
		VADMode:    2,
	}
}

// Preprocessor normalizes waveforms and computes mel-spectrograms.
// It owns an FFT plan and a VAD instance and is not safe for concurrent use;
// create one per goroutine.
type Preprocessor struct {
	cfg     Config
	mel     *fbank.Extractor
	trimmer *vad.Trimmer
}

// New creates a Preprocessor.
func New(cfg Config) (*Preprocessor, error) {
	if cfg.OutputRate == 0 {
		cfg.OutputRate = 16000
	}
	melCfg := fbank.MelSpectrogramConfig()
	melCfg.SampleRate = cfg.OutputRate
	melCfg.HighFreq = float64(cfg.OutputRate) / 2
	p := &Preprocessor{
		cfg: cfg,
		mel: fbank.New(melCfg),
	}
	if cfg.CutSilence {
		t, err := vad.NewTrimmer(vad.Config{SampleRate: cfg.OutputRate, Mode: cfg.VADMode})
		if err != nil {
			return nil, fmt.Errorf("preprocess: %w", err)
		}
		p.trimmer = t
	}
	return p, nil
}

// Config returns the preprocessor configuration.
func (p *Preprocessor) Config() Config {
	return p.cfg
}

// Normalize loudness-normalizes wave at its input rate, resamples it to the
// output rate and optionally cuts leading and trailing silence.
func (p *Preprocessor) Normalize(wave []float32, inputRate int) ([]float32, error) {
	if len(wave) == 0 {
		return nil, ErrEmptyAudio
	}
	out := wave
	if p.cfg.LoudNorm {
		out = loudness.Normalize(out, inputRate, p.cfg.TargetLUFS)
		loudness.PeakNormalize(out)
	}
	out, err := resampler.Resample(out, inputRate, p.cfg.OutputRate)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	if p.trimmer != nil {
		out, err = p.trimmer.Trim(out)
		if err != nil {
			return nil, fmt.Errorf("preprocess: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyAudio
	}
	return out, nil
}

// TrimZeros strips leading and trailing zero-valued samples.
func (p *Preprocessor) TrimZeros(wave []float32) []float32 {
	return TrimZeros(wave)
}

// MelSpectrogram returns the time-major [frames][80] log10 mel-spectrogram
// of a wave at the output rate.
func (p *Preprocessor) MelSpectrogram(wave []float32) [][]float32 {
	return p.mel.Extract(wave)
}

// TrimZeros strips leading and trailing zero-valued samples. The result
// shares memory with wave.
func TrimZeros(wave []float32) []float32 {
	lo, hi := 0, len(wave)
	for lo < hi && wave[lo] == 0 {
		lo++
	}
	for hi > lo && wave[hi-1] == 0 {
		hi--
	}
	return wave[lo:hi]
}
