// Package fbank computes log mel filterbank features from PCM audio.
//
// Two presets cover the feature front ends used in this module:
//
//	DefaultConfig          Kaldi-style speaker features (25 ms Hamming,
//	                       10 ms hop, 512-point FFT, pre-emphasis 0.97)
//	MelSpectrogramConfig   aligner targets (1024-point Hann, hop 256,
//	                       80 buckets, centered frames, log10 amplitude)
//
// The output is always time-major: [T][NumMels].
package fbank

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Window selects the analysis window shape.
type Window int

const (
	// WindowHamming is the Hamming window (Kaldi default).
	WindowHamming Window = iota
	// WindowHann is the periodic-free Hann window (librosa default).
	WindowHann
)

// Config controls mel filterbank extraction parameters.
type Config struct {
	SampleRate  int     // audio sample rate in Hz
	WindowSize  int     // window length in samples
	HopSize     int     // hop length in samples
	FFTSize     int     // FFT size, >= WindowSize
	NumMels     int     // number of mel bins
	LowFreq     float64 // lowest mel frequency
	HighFreq    float64 // highest mel frequency
	PreEmphasis float64 // pre-emphasis coefficient, 0 disables
	Window      Window

	// Center pads the signal by reflection so that frame t is centered
	// on sample t*HopSize. Frame count is then len/HopSize + 1.
	Center bool

	// Magnitude uses the amplitude spectrum instead of the power spectrum.
	Magnitude bool

	// Log10 takes log10 instead of the natural logarithm.
	Log10 bool

	// Floor is the lower clamp applied before the logarithm.
	Floor float64
}

// DefaultConfig returns the standard config for speaker embedding models.
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		WindowSize:  400,
		HopSize:     160,
		FFTSize:     512,
		NumMels:     80,
		LowFreq:     20,
		HighFreq:    7600,
		PreEmphasis: 0.97,
		Window:      WindowHamming,
		Floor:       1e-10,
	}
}

// MelSpectrogramConfig returns the config used for aligner training targets.
func MelSpectrogramConfig() Config {
	return Config{
		SampleRate: 16000,
		WindowSize: 1024,
		HopSize:    256,
		FFTSize:    1024,
		NumMels:    80,
		LowFreq:    40,
		HighFreq:   8000,
		Window:     WindowHann,
		Center:     true,
		Magnitude:  true,
		Log10:      true,
		Floor:      1e-10,
	}
}

// Extractor computes mel filterbank features from PCM samples.
// An Extractor reuses FFT work buffers and is not safe for concurrent use.
type Extractor struct {
	cfg     Config
	window  []float64
	melBank [][]float64
	fft     *fourier.FFT
	frame   []float64
	coeffs  []complex128
}

// New creates a new fbank Extractor with the given config.
func New(cfg Config) *Extractor {
	if cfg.FFTSize < cfg.WindowSize {
		cfg.FFTSize = cfg.WindowSize
	}
	if cfg.Floor <= 0 {
		cfg.Floor = 1e-10
	}
	e := &Extractor{cfg: cfg}
	switch cfg.Window {
	case WindowHann:
		e.window = hannWindow(cfg.WindowSize)
	default:
		e.window = hammingWindow(cfg.WindowSize)
	}
	e.melBank = melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
	e.fft = fourier.NewFFT(cfg.FFTSize)
	e.frame = make([]float64, cfg.FFTSize)
	e.coeffs = make([]complex128, cfg.FFTSize/2+1)
	return e
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config {
	return e.cfg
}

// NumFrames returns the number of frames Extract produces for n samples.
func (e *Extractor) NumFrames(n int) int {
	cfg := e.cfg
	if n <= 0 {
		return 0
	}
	if cfg.Center {
		return n/cfg.HopSize + 1
	}
	if n < cfg.WindowSize {
		return 0
	}
	return (n-cfg.WindowSize)/cfg.HopSize + 1
}

// Extract computes log mel filterbank features from PCM float32 samples.
// Input: pcm is normalized float32 audio samples (range [-1, 1]).
// Output: [T][NumMels] float32 matrix with T = NumFrames(len(pcm)).
func (e *Extractor) Extract(pcm []float32) [][]float32 {
	cfg := e.cfg
	numFrames := e.NumFrames(len(pcm))
	if numFrames == 0 {
		return nil
	}

	samples := pcm
	if cfg.PreEmphasis != 0 {
		samples = preEmphasize(pcm, cfg.PreEmphasis)
	}

	nfft := cfg.FFTSize
	halfFFT := nfft/2 + 1
	power := make([]float64, halfFFT)
	features := make([][]float32, numFrames)

	// In centered mode the window sits in the middle of the FFT frame.
	winOffset := 0
	if cfg.Center {
		winOffset = (nfft - cfg.WindowSize) / 2
	}

	for t := 0; t < numFrames; t++ {
		for i := range e.frame {
			e.frame[i] = 0
		}
		if cfg.Center {
			start := t*cfg.HopSize - nfft/2
			for i := 0; i < cfg.WindowSize; i++ {
				idx := reflect(start+winOffset+i, len(samples))
				e.frame[winOffset+i] = float64(samples[idx]) * e.window[i]
			}
		} else {
			start := t * cfg.HopSize
			for i := 0; i < cfg.WindowSize; i++ {
				e.frame[i] = float64(samples[start+i]) * e.window[i]
			}
		}

		e.coeffs = e.fft.Coefficients(e.coeffs, e.frame)
		for k := 0; k < halfFFT; k++ {
			re, im := real(e.coeffs[k]), imag(e.coeffs[k])
			p := re*re + im*im
			if cfg.Magnitude {
				p = math.Sqrt(p)
			}
			power[k] = p
		}

		mel := make([]float32, cfg.NumMels)
		for m := 0; m < cfg.NumMels; m++ {
			sum := 0.0
			for k, w := range e.melBank[m] {
				if w != 0 {
					sum += w * power[k]
				}
			}
			if sum < cfg.Floor {
				sum = cfg.Floor
			}
			if cfg.Log10 {
				mel[m] = float32(math.Log10(sum))
			} else {
				mel[m] = float32(math.Log(sum))
			}
		}
		features[t] = mel
	}

	return features
}

// CMVN applies Cepstral Mean and Variance Normalization in-place.
// For each mel dimension, subtracts the mean and divides by the standard
// deviation across all frames.
func CMVN(features [][]float32) {
	if len(features) == 0 {
		return
	}
	numMels := len(features[0])
	T := float64(len(features))

	for m := 0; m < numMels; m++ {
		sum := float64(0)
		for _, f := range features {
			sum += float64(f[m])
		}
		mean := sum / T

		varSum := float64(0)
		for _, f := range features {
			d := float64(f[m]) - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / T)
		if std < 1e-10 {
			std = 1e-10
		}

		for _, f := range features {
			f[m] = float32((float64(f[m]) - mean) / std)
		}
	}
}

// Flatten converts [T][numMels] to a flat row-major [T*numMels] slice.
func Flatten(features [][]float32) []float32 {
	if len(features) == 0 {
		return nil
	}
	cols := len(features[0])
	flat := make([]float32, len(features)*cols)
	for t, row := range features {
		copy(flat[t*cols:], row)
	}
	return flat
}

func preEmphasize(pcm []float32, coef float64) []float32 {
	out := make([]float32, len(pcm))
	if len(pcm) == 0 {
		return out
	}
	out[0] = pcm[0]
	for i := 1; i < len(pcm); i++ {
		out[i] = float32(float64(pcm[i]) - coef*float64(pcm[i-1]))
	}
	return out
}

// reflect maps an out-of-range index into [0, n) by mirror reflection
// without repeating the edge sample (numpy "reflect" padding).
func reflect(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
