package preprocess

import (
	"errors"
	"math"
	"testing"
)

func sine(n, rate int, freq float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.3 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestTrimZeros(t *testing.T) {
	tests := []struct {
		in   []float32
		want int
	}{
		{nil, 0},
		{[]float32{0, 0, 0}, 0},
		{[]float32{0, 1, 0, 2, 0}, 3},
		{[]float32{1, 2}, 2},
	}
	for _, tt := range tests {
		if got := TrimZeros(tt.in); len(got) != tt.want {
			t.Errorf("TrimZeros(%v) len = %d, want %d", tt.in, len(got), tt.want)
		}
	}
}

func TestNormalizeResamples(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := p.Normalize(sine(22050*2, 22050, 220), 22050)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(out) != 32000 {
		t.Errorf("len = %d, want 32000", len(out))
	}
	var peak float32
	for _, s := range out {
		peak = max(peak, s, -s)
	}
	if peak < 0.9 || peak > 1 {
		t.Errorf("peak = %f, want close to 1", peak)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Normalize(nil, 16000); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestNormalizeCutSilenceOnSilence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CutSilence = true
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Normalize(make([]float32, 16000), 16000); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestMelSpectrogramShape(t *testing.T) {
	p, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mel := p.MelSpectrogram(sine(16000, 16000, 440))
	if len(mel) != 16000/256+1 {
		t.Fatalf("frames = %d, want %d", len(mel), 16000/256+1)
	}
	for i, row := range mel {
		if len(row) != 80 {
			t.Fatalf("row %d width = %d, want 80", i, len(row))
		}
	}
}
