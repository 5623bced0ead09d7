package aligndata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/haivivi/aligner/pkg/audio/audiofile"
	"github.com/haivivi/aligner/pkg/audio/preprocess"
	"github.com/haivivi/aligner/pkg/storage"
	"github.com/haivivi/aligner/pkg/textfrontend"
)

func mustFrontend(t *testing.T) *textfrontend.Frontend {
	t.Helper()
	f, err := textfrontend.New("en")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func mustLocal(t *testing.T) *storage.Local {
	t.Helper()
	s, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// tone returns seconds of a 220 Hz sine at rate.
func tone(seconds float64, rate int) []float32 {
	n := int(seconds * float64(rate))
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.3 * math.Sin(2*math.Pi*220*float64(i)/float64(rate)))
	}
	return out
}

// memAudio serves audio from memory instead of decoding files.
type memAudio struct {
	mu    sync.Mutex
	files map[string]*audiofile.Audio
	panic string // path whose load panics
}

func newMemAudio() *memAudio {
	return &memAudio{files: make(map[string]*audiofile.Audio)}
}

func (m *memAudio) add(path string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &audiofile.Audio{Samples: tone(seconds, SampleRate), SampleRate: SampleRate}
}

// addSilence registers seconds of digital silence with burst non-zero
// samples in the middle.
func (m *memAudio) addSilence(path string, seconds float64, burst int) {
	samples := make([]float32, int(seconds*SampleRate))
	mid := len(samples) / 2
	copy(samples[mid:], tone(float64(burst)/SampleRate, SampleRate))
	for i := mid; i < mid+burst; i++ {
		samples[i] += 0.1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &audiofile.Audio{Samples: samples, SampleRate: SampleRate}
}

func (m *memAudio) load(path string) (*audiofile.Audio, error) {
	if path == m.panic {
		panic("decoder exploded on " + path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return a, nil
}

// fakePre passes waveforms through and produces a mel frame per 256
// samples.
type fakePre struct {
	err error
}

func (p *fakePre) Normalize(wave []float32, _ int) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	return append([]float32(nil), wave...), nil
}

func (p *fakePre) TrimZeros(wave []float32) []float32 {
	return preprocess.TrimZeros(wave)
}

func (p *fakePre) MelSpectrogram(wave []float32) [][]float32 {
	frames := make([][]float32, len(wave)/256+1)
	for i := range frames {
		frames[i] = make([]float32, 80)
	}
	return frames
}

func newFakePre() (Preprocessor, error) {
	return &fakePre{}, nil
}

// fakeModel embeds a waveform as its length and mean.
type fakeModel struct {
	calls int
	err   error
}

func (m *fakeModel) Embed(_ context.Context, wave []float32) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var sum float32
	for _, x := range wave {
		sum += x
	}
	return []float32{float32(len(wave)), sum / float32(max(len(wave), 1))}, nil
}

func (m *fakeModel) Dimension() int { return 2 }
func (m *fakeModel) Close() error   { return nil }

// frontendFunc overrides Features of a real frontend.
type frontendFunc struct {
	Frontend
	features func(text string) ([][]float32, error)
}

func (f frontendFunc) Features(text string, _, _ bool) ([][]float32, error) {
	return f.features(text)
}

var errBoom = errors.New("boom")

// writeWAV writes a 16-bit mono tone to dir/name.
func writeWAV(t *testing.T, dir, name string, seconds float64, rate int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	samples := tone(seconds, rate)
	data := make([]int, len(samples))
	for i, x := range samples {
		data[i] = int(x * math.MaxInt16)
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: rate, NumChannels: 1},
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
	return p
}
