// Package voiceprint computes fixed-size speaker embeddings from 16 kHz
// mono waveforms.
//
// Two implementations of [Model] are provided:
//
//   - [ONNXModel] runs a pretrained speaker verification network
//     (ECAPA-TDNN, ResNet) through ONNX Runtime on CPU or CUDA.
//   - [StatsModel] pools per-bin statistics of log mel features. It needs
//     no model file and is deterministic, which makes it suitable for tests
//     and for environments without ONNX Runtime.
//
// Embeddings are L2-normalised so that [CosineSimilarity] reduces to a dot
// product. A [Hasher] projects embeddings to short locality-sensitive
// labels for display.
package voiceprint

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// SampleRate is the waveform rate every Model expects.
const SampleRate = 16000

// Model maps a waveform to a speaker embedding.
type Model interface {
	// Embed computes the embedding of a single 16 kHz mono waveform with
	// samples in [-1, 1]. The result has length Dimension().
	Embed(ctx context.Context, wave []float32) ([]float32, error)

	// Dimension returns the embedding size.
	Dimension() int

	// Close releases resources held by the model.
	Close() error
}

// Open returns the Model named by identifier: "stats" selects the
// statistics pooling model, a path ending in ".onnx" loads that network.
// device is "cpu" or "cuda" and only affects ONNX models.
func Open(identifier, device string) (Model, error) {
	switch {
	case identifier == "" || identifier == "stats":
		return NewStatsModel(), nil
	case strings.HasSuffix(strings.ToLower(identifier), ".onnx"):
		return NewONNXModel(ONNXConfig{Path: identifier, Device: device})
	default:
		return nil, fmt.Errorf("voiceprint: unknown model %q", identifier)
	}
}

// L2Normalize scales v in place to unit length. Near-zero vectors are left
// unchanged.
func L2Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm < 1e-12 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either is a zero vector or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
