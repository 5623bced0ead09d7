package voiceprint

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/haivivi/aligner/pkg/audio/fbank"
)

// ErrTooShort is returned when a waveform yields no analysis frames.
var ErrTooShort = errors.New("voiceprint: audio too short")

// StatsModel embeds a waveform as the per-bin mean and standard deviation
// of its log mel filterbank, L2-normalised. The dimension is twice the
// number of mel bins.
type StatsModel struct {
	mu sync.Mutex
	fb *fbank.Extractor
}

// NewStatsModel creates a StatsModel over fbank.DefaultConfig features.
func NewStatsModel() *StatsModel {
	return &StatsModel{fb: fbank.New(fbank.DefaultConfig())}
}

// Embed implements [Model].
func (m *StatsModel) Embed(ctx context.Context, wave []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	feats := m.fb.Extract(wave)
	m.mu.Unlock()
	if len(feats) == 0 {
		return nil, ErrTooShort
	}

	bins := len(feats[0])
	emb := make([]float32, 2*bins)
	n := float64(len(feats))
	for b := 0; b < bins; b++ {
		var sum, sq float64
		for _, f := range feats {
			x := float64(f[b])
			sum += x
			sq += x * x
		}
		mean := sum / n
		emb[b] = float32(mean)
		emb[bins+b] = float32(math.Sqrt(math.Max(sq/n-mean*mean, 0)))
	}
	L2Normalize(emb)
	return emb, nil
}

// Dimension implements [Model].
func (m *StatsModel) Dimension() int {
	return 2 * m.fb.Config().NumMels
}

// Close implements [Model].
func (m *StatsModel) Close() error { return nil }
