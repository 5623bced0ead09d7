package aligndata

import (
	"fmt"
	"time"
)

// SampleRate is the rate of every normalized waveform in the cache.
const SampleRate = 16000

// FeatureWidth is the number of articulatory features per text token.
const FeatureWidth = 66

// Record is the validated output of the Extractor for one utterance.
type Record struct {
	TextFeatures   [][]float32 `msgpack:"text_features"`
	TextLength     int         `msgpack:"text_length"`
	MelSpectrogram [][]float32 `msgpack:"mel_spectrogram"` // [frames][80]
	MelLength      int         `msgpack:"mel_length"`
	Waveform       []float32   `msgpack:"normalized_waveform"`
	SourcePath     string      `msgpack:"source_path"`
}

// Validate reports whether r satisfies the invariants of a persisted record.
func (r *Record) Validate() error {
	switch {
	case len(r.TextFeatures) == 0:
		return fmt.Errorf("aligndata: %s: no text features", r.SourcePath)
	case r.TextLength != len(r.TextFeatures):
		return fmt.Errorf("aligndata: %s: text_length %d != %d features", r.SourcePath, r.TextLength, len(r.TextFeatures))
	case r.MelLength != len(r.MelSpectrogram):
		return fmt.Errorf("aligndata: %s: mel_length %d != %d frames", r.SourcePath, r.MelLength, len(r.MelSpectrogram))
	}
	for i, v := range r.TextFeatures {
		if len(v) != FeatureWidth {
			return fmt.Errorf("aligndata: %s: feature %d has width %d", r.SourcePath, i, len(v))
		}
	}
	return nil
}

// Datapoint is the persisted unit: a record, its speaker embedding and the
// path it was extracted from.
type Datapoint struct {
	Record           Record    `msgpack:"record"`
	SpeakerEmbedding []float32 `msgpack:"speaker_embedding"`
	SourcePath       string    `msgpack:"source_path"`
}

// Manifest lists datapoint locations, relative to the cache root, in build
// order.
type Manifest []string

// Sample is what the Dataset returns for one index.
type Sample struct {
	TokenIDs         []int64
	TokenCount       int // len(TokenIDs)
	MelSpectrogram   [][]float32
	MelLength        int
	SpeakerEmbedding []float32
}

// BuildStats summarises a Build call.
type BuildStats struct {
	BuildID       string         `json:"build_id" yaml:"build_id"`
	Reused        bool           `json:"reused" yaml:"reused"`
	Inputs        int            `json:"inputs" yaml:"inputs"`
	Accepted      int            `json:"accepted" yaml:"accepted"`
	Rejected      map[string]int `json:"rejected,omitempty" yaml:"rejected,omitempty"` // by RejectReason name
	Malformed     int            `json:"malformed,omitempty" yaml:"malformed,omitempty"`
	Workers       int            `json:"workers" yaml:"workers"`
	FailedWorkers int            `json:"failed_workers,omitempty" yaml:"failed_workers,omitempty"`
	Elapsed       time.Duration  `json:"elapsed" yaml:"elapsed"`
}

// TotalRejected returns the number of inputs rejected for any reason.
func (s *BuildStats) TotalRejected() int {
	n := s.Malformed
	for _, c := range s.Rejected {
		n += c
	}
	return n
}
