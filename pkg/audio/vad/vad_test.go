package vad

import (
	"errors"
	"testing"
)

func TestVoicedSpan(t *testing.T) {
	tests := []struct {
		name   string
		flags  []bool
		pad    int
		n      int
		lo, hi int
	}{
		{"none", []bool{false, false}, 0, 20, 0, 0},
		{"middle", []bool{false, true, true, false}, 0, 40, 10, 30},
		{"padded", []bool{false, false, true, false, false}, 1, 50, 10, 40},
		{"pad clamps", []bool{true, false}, 3, 20, 0, 20},
		{"partial tail", []bool{false, true}, 0, 15, 10, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := voicedSpan(tt.flags, 10, tt.pad, tt.n)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("voicedSpan = [%d,%d), want [%d,%d)", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestNewTrimmerValidation(t *testing.T) {
	if _, err := NewTrimmer(Config{SampleRate: 22050}); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("err = %v, want ErrInvalidRate", err)
	}
	if _, err := NewTrimmer(Config{SampleRate: 16000, Mode: 4}); err == nil {
		t.Error("expected error for mode 4")
	}
}

func TestTrimSilence(t *testing.T) {
	tr, err := NewTrimmer(Config{SampleRate: 16000, Mode: 3})
	if err != nil {
		t.Fatalf("NewTrimmer: %v", err)
	}
	out, err := tr.Trim(make([]float32, 16000))
	if err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d, want 0 for digital silence", len(out))
	}
}

func TestToInt16Clamps(t *testing.T) {
	if got := toInt16(2); got != 32767 {
		t.Errorf("toInt16(2) = %d", got)
	}
	if got := toInt16(-2); got != -32767 {
		t.Errorf("toInt16(-2) = %d", got)
	}
}
