package audiofile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: rate, NumChannels: channels},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadWAVMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	data := make([]int, 22050)
	for i := range data {
		data[i] = int(16000 * math.Sin(2*math.Pi*300*float64(i)/22050))
	}
	writeWAV(t, path, 22050, 1, data)

	a, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.SampleRate != 22050 {
		t.Errorf("SampleRate = %d, want 22050", a.SampleRate)
	}
	if len(a.Samples) != len(data) {
		t.Fatalf("len = %d, want %d", len(a.Samples), len(data))
	}
	if math.Abs(a.Duration()-1.0) > 1e-9 {
		t.Errorf("Duration = %f, want 1", a.Duration())
	}
	for i := 0; i < 100; i++ {
		want := float32(data[i]) / 32768
		if math.Abs(float64(a.Samples[i]-want)) > 1e-6 {
			t.Fatalf("sample %d = %f, want %f", i, a.Samples[i], want)
		}
	}
}

func TestLoadWAVStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, path, 16000, 2, []int{16384, 0, -16384, -16384, 0, 8192})

	a, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []float32{0.25, -0.5, 0.125}
	if len(a.Samples) != len(want) {
		t.Fatalf("len = %d, want %d", len(a.Samples), len(want))
	}
	for i := range want {
		if math.Abs(float64(a.Samples[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, a.Samples[i], want[i])
		}
	}
}

func TestLoadUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadInvalidWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid wav")
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.wav")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
