// Package config defines the build profile of the aligncache CLI.
//
// A profile is a YAML (or JSON) file:
//
//	transcripts: data/transcripts.yaml
//	cache_dir: caches/en
//	workers: 8
//	min_seconds: 1
//	max_seconds: 20
//	cut_silence: true
//	loudnorm: true
//	language: en
//	speaker_model: models/ecapa.onnx
//	device: cuda
//
// Every field can be overridden by the flag of the same name.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/haivivi/aligner/pkg/aligndata"
	"github.com/haivivi/aligner/pkg/cli"
)

// journalSubdir is where a local cache keeps its build journal.
const journalSubdir = ".journal"

// Profile holds the settings of one build.
type Profile struct {
	Transcripts string `yaml:"transcripts"`
	CacheDir    string `yaml:"cache_dir"`
	JournalDir  string `yaml:"journal_dir,omitempty"`
	Workers     int    `yaml:"workers,omitempty"`

	MinSeconds          float64 `yaml:"min_seconds"`
	MaxSeconds          float64 `yaml:"max_seconds"`
	CutSilence          bool    `yaml:"cut_silence"`
	LoudNorm            bool    `yaml:"loudnorm"`
	PhoneInput          bool    `yaml:"phone_input"`
	AllowUnknownSymbols bool    `yaml:"allow_unknown_symbols"`

	Language     string `yaml:"language"`
	SpeakerModel string `yaml:"speaker_model"`
	Device       string `yaml:"device"`

	Rebuild       bool   `yaml:"rebuild"`
	Verbose       bool   `yaml:"verbose"`
	ShuffleSeed   uint64 `yaml:"shuffle_seed,omitempty"`
	StrictWorkers bool   `yaml:"strict_workers"`
}

// Default returns the profile used when no file is given.
func Default() *Profile {
	ex := aligndata.DefaultExtractConfig()
	return &Profile{
		MinSeconds:   ex.MinSeconds,
		MaxSeconds:   ex.MaxSeconds,
		CutSilence:   ex.CutSilence,
		LoudNorm:     ex.LoudNorm,
		Language:     "en",
		SpeakerModel: "stats",
		Device:       "cpu",
	}
}

// Load reads a profile file on top of the defaults. Relative paths in the
// profile are resolved against the profile's directory.
func Load(path string) (*Profile, error) {
	p := Default()
	if err := cli.LoadFile(path, p); err != nil {
		return nil, err
	}
	base := filepath.Dir(path)
	p.Transcripts = resolve(base, p.Transcripts)
	p.CacheDir = resolve(base, p.CacheDir)
	p.JournalDir = resolve(base, p.JournalDir)
	if strings.HasSuffix(strings.ToLower(p.SpeakerModel), ".onnx") {
		p.SpeakerModel = resolve(base, p.SpeakerModel)
	}
	return p, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) || IsRemote(p) {
		return p
	}
	return filepath.Join(base, p)
}

// IsRemote reports whether dir names an object store location.
func IsRemote(dir string) bool {
	return strings.HasPrefix(dir, "s3://")
}

// Journal returns the journal directory of a cache: JournalDir if set,
// otherwise a subdirectory of a local cache. Remote caches without an
// explicit JournalDir have no journal.
func (p *Profile) Journal() string {
	return JournalFor(p.CacheDir, p.JournalDir)
}

// JournalFor returns the journal directory of cacheDir, honoring an
// explicit override.
func JournalFor(cacheDir, override string) string {
	if override != "" {
		return override
	}
	if cacheDir == "" || IsRemote(cacheDir) {
		return ""
	}
	return filepath.Join(cacheDir, journalSubdir)
}

// Validate checks that the profile describes a runnable build.
func (p *Profile) Validate() error {
	var errs []error
	if p.CacheDir == "" {
		errs = append(errs, errors.New("cache_dir is required"))
	}
	if p.MinSeconds < 0 || p.MaxSeconds <= p.MinSeconds {
		errs = append(errs, fmt.Errorf("invalid duration range [%g, %g]", p.MinSeconds, p.MaxSeconds))
	}
	if p.Workers < 0 {
		errs = append(errs, fmt.Errorf("invalid worker count %d", p.Workers))
	}
	switch p.Device {
	case "cpu", "cuda":
	default:
		errs = append(errs, fmt.Errorf("unknown device %q", p.Device))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ExtractConfig returns the extractor settings of the profile.
func (p *Profile) ExtractConfig() aligndata.ExtractConfig {
	return aligndata.ExtractConfig{
		MinSeconds:          p.MinSeconds,
		MaxSeconds:          p.MaxSeconds,
		CutSilence:          p.CutSilence,
		LoudNorm:            p.LoudNorm,
		PhoneInput:          p.PhoneInput,
		AllowUnknownSymbols: p.AllowUnknownSymbols,
		Verbose:             p.Verbose,
	}
}
