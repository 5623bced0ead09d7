package aligndata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/haivivi/aligner/pkg/audio/preprocess"
	"github.com/haivivi/aligner/pkg/storage"
	"github.com/haivivi/aligner/pkg/voiceprint"
)

// Options configures Build.
type Options struct {
	// Workers is the number of extraction goroutines. Defaults to
	// runtime.GOMAXPROCS(0).
	Workers int

	Extract ExtractConfig

	// ShuffleSeed seeds the input shuffle before partitioning. Zero picks a
	// random seed.
	ShuffleSeed uint64

	// Rebuild ignores an existing cache.
	Rebuild bool

	// StrictWorkers fails the build with ErrIncompleteBuild when a worker
	// did not finish its partition. Otherwise the loss is logged and the
	// build continues with the remaining records.
	StrictWorkers bool

	// Frontend is shared by all workers. Required.
	Frontend Frontend

	// Model computes speaker embeddings. Required for a fresh build.
	Model voiceprint.Model

	// NewPreprocessor creates the preprocessor of one worker. Defaults to
	// preprocess.New with the Extract settings.
	NewPreprocessor func() (Preprocessor, error)

	// LoadAudio defaults to audiofile.Load.
	LoadAudio AudioLoader

	// Journal, if set, receives worker markers and rejections.
	Journal *Journal

	Progress Progress
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Progress == nil {
		o.Progress = noProgress{}
	}
	if o.NewPreprocessor == nil {
		cfg := preprocess.DefaultConfig()
		cfg.CutSilence = o.Extract.CutSilence
		cfg.LoudNorm = o.Extract.LoudNorm
		o.NewPreprocessor = func() (Preprocessor, error) {
			return preprocess.New(cfg)
		}
	}
}

// workerResult is owned by one worker until the join.
type workerResult struct {
	records  []*Record
	rejected map[string]int
	done     bool
}

// Build creates the cache in store from transcripts (audio path ->
// transcript), or reuses it when a non-empty manifest already exists and
// opts.Rebuild is false. It returns the dataset view of the cache.
//
// Build fails with ErrNoRecords if every input is rejected; nothing is
// written in that case besides files_used.txt.
func Build(ctx context.Context, store storage.FileStore, transcripts map[string]string, opts Options) (*Dataset, *BuildStats, error) {
	start := time.Now()
	opts.defaults()
	log := opts.Logger
	if opts.Frontend == nil {
		return nil, nil, errors.New("aligndata: Options.Frontend is required")
	}

	if !opts.Rebuild {
		ds, err := OpenDataset(ctx, store, opts.Frontend)
		if err == nil {
			log.Info("reusing dataset cache", "samples", ds.Len())
			return ds, &BuildStats{Reused: true, Accepted: ds.Len(), Elapsed: time.Since(start)}, nil
		}
		if !errors.Is(err, ErrCacheMissing) {
			return nil, nil, err
		}
	}
	if opts.Model == nil {
		return nil, nil, errors.New("aligndata: Options.Model is required")
	}

	keys := make([]string, 0, len(transcripts))
	for k := range transcripts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if err := WriteFilesUsed(ctx, store, keys); err != nil {
		return nil, nil, err
	}
	shuffle(keys, opts.ShuffleSeed)

	stats := &BuildStats{Inputs: len(keys), Workers: opts.Workers, Rejected: make(map[string]int)}
	if opts.Journal != nil {
		stats.BuildID = opts.Journal.ID()
		if err := opts.Journal.Begin(ctx, len(keys), opts.Workers); err != nil {
			return nil, nil, err
		}
	}
	log.Info("building dataset cache", "inputs", len(keys), "workers", opts.Workers, "build", stats.BuildID)

	records, err := extractAll(ctx, keys, transcripts, &opts, stats)
	if err != nil {
		return nil, nil, err
	}

	// Guard against malformed records surviving extraction.
	records = slices.DeleteFunc(records, func(r *Record) bool {
		if err := r.Validate(); err != nil {
			log.Warn("problem with transcription, deleting datapoint", "path", r.SourcePath, "error", err)
			stats.Malformed++
			return true
		}
		return false
	})
	if len(records) == 0 {
		return nil, nil, ErrNoRecords
	}
	stats.Accepted = len(records)

	embeddings, err := Enrich(ctx, opts.Model, records, opts.Progress)
	if err != nil {
		return nil, nil, err
	}
	if _, err := Materialize(ctx, store, records, embeddings, opts.Progress); err != nil {
		return nil, nil, err
	}

	ds, err := OpenDataset(ctx, store, opts.Frontend)
	if err != nil {
		return nil, nil, err
	}
	stats.Elapsed = time.Since(start)
	log.Info("prepared dataset cache", "samples", ds.Len(), "rejected", stats.TotalRejected(), "elapsed", stats.Elapsed.Round(time.Millisecond))
	return ds, stats, nil
}

// extractAll fans the keys out to the workers and merges their records in
// worker order after all of them have returned.
func extractAll(ctx context.Context, keys []string, transcripts map[string]string, opts *Options, stats *BuildStats) ([]*Record, error) {
	parts := Partition(keys, opts.Workers)
	results := make([]workerResult, len(parts))

	opts.Progress.Start(PhaseExtract, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for w, part := range parts {
		g.Go(func() error {
			return runWorker(gctx, w, part, transcripts, opts, &results[w])
		})
	}
	err := g.Wait()
	opts.Progress.Done(PhaseExtract)
	if err != nil {
		return nil, err
	}

	var records []*Record
	for w, res := range results {
		if !res.done {
			stats.FailedWorkers++
			opts.Logger.Error("worker did not finish, its partition is lost", "worker", w, "inputs", len(parts[w]))
			continue
		}
		records = append(records, res.records...)
		for reason, n := range res.rejected {
			stats.Rejected[reason] += n
		}
	}

	if opts.Journal != nil {
		missing, err := opts.Journal.MissingWorkers(ctx, len(parts))
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			opts.Logger.Error("workers without completion marker", "workers", missing)
		}
		if len(missing) > stats.FailedWorkers {
			stats.FailedWorkers = len(missing)
		}
	}
	if stats.FailedWorkers > 0 && opts.StrictWorkers {
		return nil, fmt.Errorf("%w: %d of %d workers failed", ErrIncompleteBuild, stats.FailedWorkers, len(parts))
	}
	return records, nil
}

// runWorker processes one partition into res. A panic inside the worker
// loses the partition: it is logged and res.done stays false.
func runWorker(ctx context.Context, w int, paths []string, transcripts map[string]string, opts *Options, res *workerResult) (err error) {
	log := opts.Logger.With("worker", w)
	defer func() {
		if p := recover(); p != nil {
			log.Error("worker panicked", "panic", p, "stack", string(debug.Stack()))
			*res = workerResult{}
		}
	}()
	if len(paths) == 0 {
		res.done = true
		return opts.markDone(ctx, w, 0, 0)
	}

	pre, err := opts.NewPreprocessor()
	if err != nil {
		return fmt.Errorf("aligndata: worker %d: create preprocessor: %w", w, err)
	}
	ex := NewExtractor(opts.Extract, opts.Frontend, pre, opts.LoadAudio, log)

	local := workerResult{rejected: make(map[string]int)}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := ex.Extract(p, transcripts[p])
		opts.Progress.Increment(PhaseExtract)
		if err != nil {
			rej, ok := IsRejection(err)
			if !ok {
				return err
			}
			local.rejected[rej.Reason.String()]++
			if opts.Journal != nil {
				if err := opts.Journal.RecordRejection(ctx, rej); err != nil {
					log.Warn("journal rejection", "error", err)
				}
			}
			continue
		}
		local.records = append(local.records, rec)
	}

	local.done = true
	*res = local
	return opts.markDone(ctx, w, len(paths), len(local.records))
}

func (o *Options) markDone(ctx context.Context, w, inputs, accepted int) error {
	if o.Journal == nil {
		return nil
	}
	return o.Journal.MarkWorkerDone(ctx, WorkerMarker{
		Worker:   w,
		Inputs:   inputs,
		Accepted: accepted,
		Finished: time.Now(),
	})
}

func shuffle(keys []string, seed uint64) {
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
}
