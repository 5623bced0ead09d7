// Package loudness measures integrated loudness (ITU-R BS.1770-4) and
// normalizes PCM to a target level.
//
// The meter applies the two-stage K-weighting filter, splits the signal
// into 400 ms blocks with 75% overlap, and averages the blocks that pass
// the absolute (-70 LUFS) and relative (-10 LU) gates.
package loudness

import "math"

const (
	blockSeconds  = 0.4
	overlap       = 0.75
	absoluteGate  = -70.0
	relativeGate  = -10.0
	loudnessShift = -0.691
)

// Integrated returns the gated loudness of mono samples in LUFS.
// It returns -Inf when the signal is shorter than one block or fully gated.
func Integrated(samples []float32, rate int) float64 {
	blockLen := int(blockSeconds * float64(rate))
	if rate <= 0 || len(samples) < blockLen || blockLen == 0 {
		return math.Inf(-1)
	}

	weighted := kWeight(samples, rate)
	step := int(float64(blockLen) * (1 - overlap))
	if step < 1 {
		step = 1
	}

	var powers []float64
	for start := 0; start+blockLen <= len(weighted); start += step {
		var sum float64
		for _, v := range weighted[start : start+blockLen] {
			sum += v * v
		}
		powers = append(powers, sum/float64(blockLen))
	}

	gated := gate(powers, absoluteGate)
	if len(gated) == 0 {
		return math.Inf(-1)
	}
	threshold := blockLoudness(mean(gated)) + relativeGate
	gated = gate(gated, threshold)
	if len(gated) == 0 {
		return math.Inf(-1)
	}
	return blockLoudness(mean(gated))
}

// Normalize scales samples so that their integrated loudness equals
// target LUFS. Signals whose loudness cannot be measured are returned
// unchanged (as a copy).
func Normalize(samples []float32, rate int, target float64) []float32 {
	out := make([]float32, len(samples))
	copy(out, samples)
	current := Integrated(samples, rate)
	if math.IsInf(current, 0) || math.IsNaN(current) {
		return out
	}
	gain := float32(math.Pow(10, (target-current)/20))
	for i := range out {
		out[i] *= gain
	}
	return out
}

// PeakNormalize scales samples in place so the largest absolute value is 1.
func PeakNormalize(samples []float32) {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak == 0 {
		return
	}
	for i := range samples {
		samples[i] /= peak
	}
}

func gate(powers []float64, threshold float64) []float64 {
	var out []float64
	for _, p := range powers {
		if blockLoudness(p) > threshold {
			out = append(out, p)
		}
	}
	return out
}

func blockLoudness(power float64) float64 {
	if power <= 0 {
		return math.Inf(-1)
	}
	return loudnessShift + 10*math.Log10(power)
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
