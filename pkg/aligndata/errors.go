package aligndata

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecords is returned when a build accepts no utterance at all.
	// Nothing is written to the cache in that case.
	ErrNoRecords = errors.New("aligndata: no records produced")

	// ErrIndexOutOfRange is returned by Dataset.Get for an invalid index.
	ErrIndexOutOfRange = errors.New("aligndata: index out of range")

	// ErrCacheMissing is returned when a cache has no (or an empty) manifest.
	ErrCacheMissing = errors.New("aligndata: cache manifest missing")

	// ErrIncompleteBuild is returned in strict mode when a worker did not
	// finish its partition.
	ErrIncompleteBuild = errors.New("aligndata: incomplete build")
)

// RejectReason classifies why an utterance was skipped.
type RejectReason int

const (
	RejectEmptyTranscript RejectReason = iota + 1
	RejectLoadFailed
	RejectDuration
	RejectNormalizedDuration
	RejectNormalizeFailed
	RejectUnknownSymbol
	RejectSyllabification
	RejectFrontend
	RejectMalformedFeatures
	RejectSilent
)

var reasonNames = map[RejectReason]string{
	RejectEmptyTranscript:    "empty_transcript",
	RejectLoadFailed:         "load_failed",
	RejectDuration:           "duration",
	RejectNormalizedDuration: "normalized_duration",
	RejectNormalizeFailed:    "normalize_failed",
	RejectUnknownSymbol:      "unknown_symbol",
	RejectSyllabification:    "syllabification",
	RejectFrontend:           "frontend",
	RejectMalformedFeatures:  "malformed_features",
	RejectSilent:             "silent",
}

func (r RejectReason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("RejectReason(%d)", int(r))
}

func (r RejectReason) isDuration() bool {
	return r == RejectDuration || r == RejectNormalizedDuration || r == RejectSilent
}

// ParseRejectReason is the inverse of RejectReason.String.
func ParseRejectReason(s string) (RejectReason, error) {
	for k, v := range reasonNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("aligndata: unknown reject reason %q", s)
}

// Rejection is the error returned by the Extractor for a skipped utterance.
type Rejection struct {
	Path     string
	Reason   RejectReason
	Duration float64 // seconds, for duration rejections
	Err      error
}

func (r *Rejection) Error() string {
	msg := fmt.Sprintf("aligndata: reject %s: %s", r.Path, r.Reason)
	if r.Reason.isDuration() {
		msg += fmt.Sprintf(" (%.2fs)", r.Duration)
	}
	if r.Err != nil {
		msg += ": " + r.Err.Error()
	}
	return msg
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// IsRejection reports whether err is a *Rejection and returns it.
func IsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
