package resampler

import (
	"math"
	"testing"
)

func TestResampleLength(t *testing.T) {
	tests := []struct {
		n, src, dst, want int
	}{
		{48000, 48000, 16000, 16000},
		{44100, 44100, 16000, 16000},
		{8000, 8000, 16000, 16000},
		{22050, 22050, 16000, 16000},
	}
	for _, tt := range tests {
		in := make([]float32, tt.n)
		for i := range in {
			in[i] = float32(0.3 * math.Sin(2*math.Pi*200*float64(i)/float64(tt.src)))
		}
		out, err := Resample(in, tt.src, tt.dst)
		if err != nil {
			t.Fatalf("Resample(%d->%d): %v", tt.src, tt.dst, err)
		}
		if len(out) != tt.want {
			t.Errorf("Resample(%d->%d) len = %d, want %d", tt.src, tt.dst, len(out), tt.want)
		}
	}
}

func TestResampleSameRate(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3}
	out, err := Resample(in, 16000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	out[0] = 9
	if in[0] != 0.1 {
		t.Fatal("Resample must copy when rates match")
	}
}

func TestResampleInvalidRate(t *testing.T) {
	if _, err := Resample([]float32{1}, 0, 16000); err == nil {
		t.Fatal("expected error for zero source rate")
	}
}

func TestDownmix(t *testing.T) {
	got := Downmix([]float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	want := []float32{0.5, 0.5, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	mono := []float32{1, 2}
	if out := Downmix(mono, 1); &out[0] != &mono[0] {
		t.Error("mono input should pass through")
	}
}
