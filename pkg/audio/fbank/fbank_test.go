package fbank

import (
	"math"
	"testing"
)

func sine(n, rate int, freq float64) []float32 {
	pcm := make([]float32, n)
	for i := range pcm {
		pcm[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return pcm
}

func TestHammingWindow(t *testing.T) {
	w := hammingWindow(400)
	if len(w) != 400 {
		t.Fatalf("expected 400, got %d", len(w))
	}
	if math.Abs(w[0]-0.08) > 0.01 {
		t.Errorf("w[0] = %f, want ~0.08", w[0])
	}
	if math.Abs(w[199]-1.0) > 0.02 {
		t.Errorf("w[199] = %f, want ~1.0", w[199])
	}
}

func TestHannWindow(t *testing.T) {
	w := hannWindow(1024)
	if w[0] != 0 {
		t.Errorf("w[0] = %f, want 0", w[0])
	}
	if math.Abs(w[512]-1.0) > 1e-9 {
		t.Errorf("w[512] = %f, want 1", w[512])
	}
}

func TestMelConversion(t *testing.T) {
	mel := hzToMel(1000)
	if math.Abs(mel-1000.45) > 1.0 {
		t.Errorf("hzToMel(1000) = %f, want ~1000.45", mel)
	}
	hz := melToHz(mel)
	if math.Abs(hz-1000) > 0.1 {
		t.Errorf("melToHz(hzToMel(1000)) = %f, want 1000", hz)
	}
}

func TestMelFilterBank(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), MelSpectrogramConfig()} {
		bank := melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)
		if len(bank) != cfg.NumMels {
			t.Fatalf("expected %d filters, got %d", cfg.NumMels, len(bank))
		}
		for i, f := range bank {
			if len(f) != cfg.FFTSize/2+1 {
				t.Fatalf("filter %d: expected %d bins, got %d", i, cfg.FFTSize/2+1, len(f))
			}
			hasNonZero := false
			for _, v := range f {
				if v > 0 {
					hasNonZero = true
					break
				}
			}
			if !hasNonZero {
				t.Errorf("fft=%d filter %d is all zeros", cfg.FFTSize, i)
			}
		}
	}
}

func TestReflect(t *testing.T) {
	tests := []struct {
		i, n, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 1},
		{-2, 5, 2},
		{5, 5, 3},
		{6, 5, 2},
		{-3, 1, 0},
	}
	for _, tt := range tests {
		if got := reflect(tt.i, tt.n); got != tt.want {
			t.Errorf("reflect(%d, %d) = %d, want %d", tt.i, tt.n, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	cfg := DefaultConfig()
	ext := New(cfg)

	n := 16000
	features := ext.Extract(sine(n, 16000, 440))
	expectedFrames := (n-cfg.WindowSize)/cfg.HopSize + 1
	if len(features) != expectedFrames {
		t.Fatalf("expected %d frames, got %d", expectedFrames, len(features))
	}
	if len(features[0]) != 80 {
		t.Fatalf("expected 80 mels, got %d", len(features[0]))
	}
	for i, f := range features {
		for j, v := range f {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("features[%d][%d] = %f (not finite)", i, j, v)
			}
		}
	}
}

func TestExtractTooShort(t *testing.T) {
	ext := New(DefaultConfig())
	if got := ext.Extract(make([]float32, 100)); got != nil {
		t.Fatalf("expected nil for short input, got %d frames", len(got))
	}
}

func TestMelSpectrogramFrames(t *testing.T) {
	ext := New(MelSpectrogramConfig())
	for _, n := range []int{1, 255, 256, 16000, 48000} {
		features := ext.Extract(sine(n, 16000, 220))
		want := n/256 + 1
		if len(features) != want {
			t.Errorf("n=%d: got %d frames, want %d", n, len(features), want)
		}
		if ext.NumFrames(n) != want {
			t.Errorf("NumFrames(%d) = %d, want %d", n, ext.NumFrames(n), want)
		}
		for _, row := range features {
			if len(row) != 80 {
				t.Fatalf("row width %d, want 80", len(row))
			}
		}
	}
	if ext.Extract(nil) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestMelSpectrogramPeak(t *testing.T) {
	cfg := MelSpectrogramConfig()
	ext := New(cfg)
	bank := melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq)

	features := ext.Extract(sine(16000, 16000, 1000))
	row := features[len(features)/2]
	best := 0
	for m := range row {
		if row[m] > row[best] {
			best = m
		}
	}
	// The loudest bucket must be one whose filter covers 1 kHz.
	bin := int(math.Round(1000 * float64(cfg.FFTSize) / float64(cfg.SampleRate)))
	if bank[best][bin] == 0 {
		t.Errorf("peak bucket %d does not cover 1 kHz", best)
	}
}

func TestCMVN(t *testing.T) {
	features := [][]float32{{1, 10}, {2, 20}, {3, 30}}
	CMVN(features)
	for m := 0; m < 2; m++ {
		var sum float64
		for _, f := range features {
			sum += float64(f[m])
		}
		if math.Abs(sum) > 1e-5 {
			t.Errorf("dim %d mean = %f, want 0", m, sum/3)
		}
	}
}

func TestFlatten(t *testing.T) {
	flat := Flatten([][]float32{{1, 2}, {3, 4}, {5, 6}})
	want := []float32{1, 2, 3, 4, 5, 6}
	if len(flat) != len(want) {
		t.Fatalf("len = %d, want %d", len(flat), len(want))
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Errorf("flat[%d] = %f, want %f", i, flat[i], want[i])
		}
	}
	if Flatten(nil) != nil {
		t.Error("Flatten(nil) should be nil")
	}
}
