package resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// tailPadding is the amount of trailing silence fed through the filter so
// that its group delay does not swallow the end of the signal.
const tailPadding = 0.05 // seconds

// Resample converts mono samples from srcRate to dstRate. The returned slice
// has round(len(samples) * dstRate / srcRate) samples. When the rates are
// equal a copy of the input is returned.
func Resample(samples []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out, nil
	}
	if len(samples) == 0 {
		return nil, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}

	pad := int(tailPadding * float64(srcRate))
	input := make([]float64, len(samples)+pad)
	for i, s := range samples {
		input[i] = float64(s)
	}
	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}

	want := int(float64(len(samples))*float64(dstRate)/float64(srcRate) + 0.5)
	out := make([]float32, want)
	for i := 0; i < want && i < len(output); i++ {
		out[i] = clamp(output[i])
	}
	return out, nil
}

// Downmix averages interleaved multi-channel samples into mono.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

func clamp(s float64) float32 {
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return float32(s)
}
