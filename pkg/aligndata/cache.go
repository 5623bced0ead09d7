package aligndata

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/aligner/pkg/storage"
)

// Cache layout, relative to the cache root.
const (
	ManifestPath  = "aligner_train_cache.msgpack"
	DatapointDir  = "aligner_datapoints"
	FilesUsedPath = "files_used.txt"
)

// DatapointPath returns the location of datapoint i.
func DatapointPath(i int) string {
	return path.Join(DatapointDir, fmt.Sprintf("aligner_datapoint_%d.msgpack", i))
}

// CacheExists reports whether store holds a manifest with at least one
// entry.
func CacheExists(ctx context.Context, store storage.FileStore) (bool, error) {
	m, err := ReadManifest(ctx, store)
	if errors.Is(err, ErrCacheMissing) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(m) > 0, nil
}

// ReadManifest loads the manifest. It returns ErrCacheMissing when there is
// none or it is empty.
func ReadManifest(ctx context.Context, store storage.FileStore) (Manifest, error) {
	b, err := storage.ReadFile(ctx, store, ManifestPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMissing
	}
	if err != nil {
		return nil, fmt.Errorf("aligndata: read manifest: %w", err)
	}
	var m Manifest
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("aligndata: decode manifest: %w", err)
	}
	if len(m) == 0 {
		return nil, ErrCacheMissing
	}
	return m, nil
}

// WriteFilesUsed records the build inputs, one path per line.
func WriteFilesUsed(ctx context.Context, store storage.FileStore, paths []string) error {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)
	var sb strings.Builder
	for _, p := range sorted {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	if err := storage.WriteFile(ctx, store, FilesUsedPath, []byte(sb.String())); err != nil {
		return fmt.Errorf("aligndata: write %s: %w", FilesUsedPath, err)
	}
	return nil
}

// Materialize writes one datapoint file per record and then the manifest.
// records and embeddings must be index-aligned. A previous manifest is
// removed first so that an interrupted run never leaves a manifest that
// points at a mix of old and new datapoints; datapoint files of a previous,
// larger build are removed after the new manifest is in place.
func Materialize(ctx context.Context, store storage.FileStore, records []*Record, embeddings [][]float32, progress Progress) (Manifest, error) {
	if len(records) != len(embeddings) {
		return nil, fmt.Errorf("aligndata: %d records but %d embeddings", len(records), len(embeddings))
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	if progress == nil {
		progress = noProgress{}
	}
	if err := store.Delete(ctx, ManifestPath); err != nil {
		return nil, fmt.Errorf("aligndata: remove old manifest: %w", err)
	}

	progress.Start(PhaseWrite, len(records))
	defer progress.Done(PhaseWrite)

	manifest := make(Manifest, len(records))
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dp := &Datapoint{Record: *r, SpeakerEmbedding: embeddings[i], SourcePath: r.SourcePath}
		b, err := msgpack.Marshal(dp)
		if err != nil {
			return nil, fmt.Errorf("aligndata: encode datapoint %d: %w", i, err)
		}
		p := DatapointPath(i)
		if err := storage.WriteFile(ctx, store, p, b); err != nil {
			return nil, fmt.Errorf("aligndata: write datapoint %d: %w", i, err)
		}
		manifest[i] = p
		progress.Increment(PhaseWrite)
	}

	b, err := msgpack.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("aligndata: encode manifest: %w", err)
	}
	if err := storage.WriteFile(ctx, store, ManifestPath, b); err != nil {
		return nil, fmt.Errorf("aligndata: write manifest: %w", err)
	}

	if err := removeStale(ctx, store, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func removeStale(ctx context.Context, store storage.FileStore, manifest Manifest) error {
	existing, err := store.List(ctx, DatapointDir)
	if err != nil {
		return fmt.Errorf("aligndata: list datapoints: %w", err)
	}
	keep := make(map[string]bool, len(manifest))
	for _, p := range manifest {
		keep[p] = true
	}
	for _, p := range existing {
		if keep[p] {
			continue
		}
		if err := store.Delete(ctx, p); err != nil {
			return fmt.Errorf("aligndata: remove stale %s: %w", p, err)
		}
	}
	return nil
}

// ReadDatapoint loads and decodes the datapoint at p.
func ReadDatapoint(ctx context.Context, store storage.FileStore, p string) (*Datapoint, error) {
	b, err := storage.ReadFile(ctx, store, p)
	if err != nil {
		return nil, fmt.Errorf("aligndata: read %s: %w", p, err)
	}
	var dp Datapoint
	if err := msgpack.Unmarshal(b, &dp); err != nil {
		return nil, fmt.Errorf("aligndata: decode %s: %w", p, err)
	}
	return &dp, nil
}
