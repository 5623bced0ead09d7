package aligndata

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/aligner/pkg/kv"
)

// Journal records build progress in a kv.Store: one completion marker per
// worker and one entry per rejected utterance. It lets a build verify that
// every worker finished its partition and lets tools list rejections after
// the fact.
//
// Key layout:
//
//	latest                              -> build id
//	builds/<id>/info                    -> BuildInfo
//	builds/<id>/workers/<w>             -> WorkerMarker
//	builds/<id>/rejections/<seq>        -> RejectionEntry
type Journal struct {
	store kv.Store
	id    string
	seq   atomic.Int64
}

// BuildInfo describes a journaled build.
type BuildInfo struct {
	ID      string    `msgpack:"id" json:"id" yaml:"id"`
	Started time.Time `msgpack:"started" json:"started" yaml:"started"`
	Inputs  int       `msgpack:"inputs" json:"inputs" yaml:"inputs"`
	Workers int       `msgpack:"workers" json:"workers" yaml:"workers"`
}

// WorkerMarker is written when a worker has processed its whole partition.
type WorkerMarker struct {
	Worker   int       `msgpack:"worker" json:"worker" yaml:"worker"`
	Inputs   int       `msgpack:"inputs" json:"inputs" yaml:"inputs"`
	Accepted int       `msgpack:"accepted" json:"accepted" yaml:"accepted"`
	Finished time.Time `msgpack:"finished" json:"finished" yaml:"finished"`
}

// RejectionEntry is a journaled Rejection.
type RejectionEntry struct {
	Path     string  `msgpack:"path" json:"path" yaml:"path"`
	Reason   string  `msgpack:"reason" json:"reason" yaml:"reason"`
	Duration float64 `msgpack:"duration,omitempty" json:"duration,omitempty" yaml:"duration,omitempty"`
	Message  string  `msgpack:"message,omitempty" json:"message,omitempty" yaml:"message,omitempty"`
}

var keyLatest = kv.Key{"latest"}

// NewJournal starts a new build journal with a fresh build id.
func NewJournal(store kv.Store) *Journal {
	return &Journal{store: store, id: uuid.NewString()}
}

// OpenJournal returns the journal of an existing build.
func OpenJournal(store kv.Store, buildID string) *Journal {
	return &Journal{store: store, id: buildID}
}

// ID returns the build id.
func (j *Journal) ID() string {
	return j.id
}

func (j *Journal) key(parts ...string) kv.Key {
	return append(kv.Key{"builds", j.id}, parts...)
}

// Begin records the build parameters and marks this build as the latest.
func (j *Journal) Begin(ctx context.Context, inputs, workers int) error {
	info, err := msgpack.Marshal(&BuildInfo{ID: j.id, Started: time.Now(), Inputs: inputs, Workers: workers})
	if err != nil {
		return fmt.Errorf("aligndata: encode build info: %w", err)
	}
	err = j.store.BatchSet(ctx, []kv.Entry{
		{Key: j.key("info"), Value: info},
		{Key: keyLatest, Value: []byte(j.id)},
	})
	if err != nil {
		return fmt.Errorf("aligndata: journal begin: %w", err)
	}
	return nil
}

// Info returns the recorded build parameters.
func (j *Journal) Info(ctx context.Context) (*BuildInfo, error) {
	b, err := j.store.Get(ctx, j.key("info"))
	if err != nil {
		return nil, fmt.Errorf("aligndata: build %s: %w", j.id, err)
	}
	var info BuildInfo
	if err := msgpack.Unmarshal(b, &info); err != nil {
		return nil, fmt.Errorf("aligndata: decode build info: %w", err)
	}
	return &info, nil
}

// MarkWorkerDone writes the completion marker of worker m.Worker.
func (j *Journal) MarkWorkerDone(ctx context.Context, m WorkerMarker) error {
	b, err := msgpack.Marshal(&m)
	if err != nil {
		return fmt.Errorf("aligndata: encode worker marker: %w", err)
	}
	if err := j.store.Set(ctx, j.key("workers", workerKey(m.Worker)), b); err != nil {
		return fmt.Errorf("aligndata: mark worker %d: %w", m.Worker, err)
	}
	return nil
}

// MissingWorkers returns the ids in [0, workers) that have no completion
// marker.
func (j *Journal) MissingWorkers(ctx context.Context, workers int) ([]int, error) {
	var missing []int
	for w := range workers {
		_, err := j.store.Get(ctx, j.key("workers", workerKey(w)))
		if errors.Is(err, kv.ErrNotFound) {
			missing = append(missing, w)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("aligndata: read worker marker: %w", err)
		}
	}
	return missing, nil
}

// RecordRejection appends a rejection entry. Safe for concurrent use.
func (j *Journal) RecordRejection(ctx context.Context, r *Rejection) error {
	e := RejectionEntry{Path: r.Path, Reason: r.Reason.String(), Duration: r.Duration}
	if r.Err != nil {
		e.Message = r.Err.Error()
	}
	b, err := msgpack.Marshal(&e)
	if err != nil {
		return fmt.Errorf("aligndata: encode rejection: %w", err)
	}
	seq := j.seq.Add(1)
	if err := j.store.Set(ctx, j.key("rejections", fmt.Sprintf("%010d", seq)), b); err != nil {
		return fmt.Errorf("aligndata: record rejection: %w", err)
	}
	return nil
}

// Rejections returns the journaled rejections in recording order.
func (j *Journal) Rejections(ctx context.Context) ([]RejectionEntry, error) {
	entries, err := kv.Collect(ctx, j.store, j.key("rejections"))
	if err != nil {
		return nil, fmt.Errorf("aligndata: list rejections: %w", err)
	}
	out := make([]RejectionEntry, 0, len(entries))
	for _, e := range entries {
		var r RejectionEntry
		if err := msgpack.Unmarshal(e.Value, &r); err != nil {
			return nil, fmt.Errorf("aligndata: decode rejection %s: %w", e.Key, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// LatestBuild returns the id of the most recently started build.
func LatestBuild(ctx context.Context, store kv.Store) (string, error) {
	b, err := store.Get(ctx, keyLatest)
	if err != nil {
		return "", fmt.Errorf("aligndata: latest build: %w", err)
	}
	return string(b), nil
}

func workerKey(w int) string {
	return fmt.Sprintf("%04d", w)
}
