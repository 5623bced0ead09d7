package aligndata

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/haivivi/aligner/pkg/audio/audiofile"
	"github.com/haivivi/aligner/pkg/textfrontend"
)

// Frontend converts transcripts into articulatory feature vectors and back
// into token ids. Implementations must be safe for concurrent use;
// *textfrontend.Frontend is.
type Frontend interface {
	Features(text string, handleMissing, inputIsPhones bool) ([][]float32, error)
	Decoder
}

// Decoder maps feature vectors to token ids.
type Decoder interface {
	Decode(vectors [][]float32) []int64
}

// Preprocessor normalizes waveforms and computes mel-spectrograms.
// A Preprocessor is used by one worker at a time; *preprocess.Preprocessor
// satisfies it.
type Preprocessor interface {
	// Normalize returns the waveform resampled to SampleRate, optionally
	// loudness-normalized and silence-cut.
	Normalize(wave []float32, inputRate int) ([]float32, error)
	TrimZeros(wave []float32) []float32
	// MelSpectrogram returns a time-major [frames][80] array.
	MelSpectrogram(wave []float32) [][]float32
}

// AudioLoader decodes an audio file to mono PCM.
type AudioLoader func(path string) (*audiofile.Audio, error)

// MinVoicedSamples is the least number of samples, one mel analysis window
// at SampleRate, that must remain once zero padding is trimmed.
const MinVoicedSamples = 1024

// ExtractConfig controls utterance validation.
type ExtractConfig struct {
	MinSeconds float64
	MaxSeconds float64

	// CutSilence and LoudNorm configure the default preprocessor.
	CutSilence bool
	LoudNorm   bool

	// PhoneInput treats transcripts as IPA phone strings.
	PhoneInput bool

	// AllowUnknownSymbols retries transcripts with unknown symbols in
	// lenient mode, where each unknown symbol becomes a placeholder token.
	AllowUnknownSymbols bool

	// Verbose logs duration rejections at Info instead of Debug.
	Verbose bool
}

// DefaultExtractConfig returns the standard validation settings.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{
		MinSeconds: 1,
		MaxSeconds: 20,
		CutSilence: true,
		LoudNorm:   true,
	}
}

// Extractor validates one utterance at a time and produces its Record.
// An Extractor is bound to one Preprocessor and is not safe for concurrent
// use.
type Extractor struct {
	cfg      ExtractConfig
	frontend Frontend
	pre      Preprocessor
	load     AudioLoader
	log      *slog.Logger
}

// NewExtractor creates an Extractor. A nil load uses audiofile.Load and a
// nil logger uses slog.Default().
func NewExtractor(cfg ExtractConfig, frontend Frontend, pre Preprocessor, load AudioLoader, logger *slog.Logger) *Extractor {
	if load == nil {
		load = audiofile.Load
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, frontend: frontend, pre: pre, load: load, log: logger}
}

// Extract validates the utterance at path with its transcript. Skipped
// utterances return a *Rejection; Extract returns no other errors.
func (e *Extractor) Extract(path, transcript string) (*Record, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, e.reject(path, RejectEmptyTranscript, 0, nil)
	}

	audio, err := e.load(path)
	if err != nil {
		return nil, e.reject(path, RejectLoadFailed, 0, err)
	}
	if d := audio.Duration(); !e.durationOK(d) {
		return nil, e.reject(path, RejectDuration, d, nil)
	}

	wave, err := e.pre.Normalize(audio.Samples, audio.SampleRate)
	if err != nil {
		return nil, e.reject(path, RejectNormalizeFailed, 0, err)
	}
	// Silence cutting can shrink the utterance below the minimum.
	if d := float64(len(wave)) / SampleRate; !e.durationOK(d) {
		return nil, e.reject(path, RejectNormalizedDuration, d, nil)
	}
	wave = e.pre.TrimZeros(wave)
	if len(wave) < MinVoicedSamples {
		return nil, e.reject(path, RejectSilent, float64(len(wave))/SampleRate, nil)
	}

	features, err := e.textFeatures(transcript)
	if err != nil {
		return nil, e.frontendRejection(path, err)
	}
	if err := checkWidth(features); err != nil {
		return nil, e.reject(path, RejectMalformedFeatures, 0, err)
	}

	mel := e.pre.MelSpectrogram(wave)
	if len(mel) == 0 {
		return nil, e.reject(path, RejectSilent, float64(len(wave))/SampleRate, errors.New("no mel frames"))
	}
	return &Record{
		TextFeatures:   features,
		TextLength:     len(features),
		MelSpectrogram: mel,
		MelLength:      len(mel),
		Waveform:       wave,
		SourcePath:     path,
	}, nil
}

func (e *Extractor) durationOK(d float64) bool {
	return d >= e.cfg.MinSeconds && d <= e.cfg.MaxSeconds
}

func (e *Extractor) textFeatures(transcript string) ([][]float32, error) {
	features, err := e.frontend.Features(transcript, false, e.cfg.PhoneInput)
	if err != nil && e.cfg.AllowUnknownSymbols && errors.Is(err, textfrontend.ErrUnknownSymbol) {
		return e.frontend.Features(transcript, true, e.cfg.PhoneInput)
	}
	return features, err
}

func (e *Extractor) frontendRejection(path string, err error) *Rejection {
	switch {
	case errors.Is(err, textfrontend.ErrUnknownSymbol):
		return e.reject(path, RejectUnknownSymbol, 0, err)
	case errors.Is(err, textfrontend.ErrSyllabification):
		return e.reject(path, RejectSyllabification, 0, err)
	default:
		return e.reject(path, RejectFrontend, 0, err)
	}
}

func checkWidth(features [][]float32) error {
	if len(features) == 0 {
		return errors.New("transcript produced no tokens")
	}
	for _, v := range features {
		if len(v) != FeatureWidth {
			return errors.New("feature vector width is not 66")
		}
	}
	return nil
}

func (e *Extractor) reject(path string, reason RejectReason, duration float64, err error) *Rejection {
	r := &Rejection{Path: path, Reason: reason, Duration: duration, Err: err}
	switch reason {
	case RejectDuration, RejectNormalizedDuration, RejectSilent:
		level := slog.LevelDebug
		if e.cfg.Verbose {
			level = slog.LevelInfo
		}
		e.log.Log(context.Background(), level, "excluding utterance because of its duration",
			"path", path, "duration", roundSeconds(duration), "reason", reason)
	case RejectMalformedFeatures:
		e.log.Warn("problem with transcription", "path", path, "reason", reason, "error", err)
	default:
		e.log.Debug("excluding utterance", "path", path, "reason", reason, "error", err)
	}
	return r
}

func roundSeconds(d float64) float64 {
	return float64(int(d*100+0.5)) / 100
}
