package aligndata

import (
	"context"
	"fmt"

	"github.com/haivivi/aligner/pkg/storage"
)

// Dataset is a read-only, index-addressable view of a materialized cache.
// Each Get loads exactly one datapoint; nothing is cached in memory besides
// the manifest. A Dataset is safe for concurrent use if its Decoder is.
type Dataset struct {
	store    storage.FileStore
	manifest Manifest
	decoder  Decoder
}

// OpenDataset reads the manifest of the cache in store. It returns
// ErrCacheMissing if the cache has not been built.
func OpenDataset(ctx context.Context, store storage.FileStore, decoder Decoder) (*Dataset, error) {
	m, err := ReadManifest(ctx, store)
	if err != nil {
		return nil, err
	}
	return &Dataset{store: store, manifest: m, decoder: decoder}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.manifest)
}

// Manifest returns a copy of the datapoint locations.
func (d *Dataset) Manifest() Manifest {
	return append(Manifest(nil), d.manifest...)
}

// Datapoint loads the raw datapoint at index i.
func (d *Dataset) Datapoint(ctx context.Context, i int) (*Datapoint, error) {
	if i < 0 || i >= len(d.manifest) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(d.manifest))
	}
	return ReadDatapoint(ctx, d.store, d.manifest[i])
}

// Get loads sample i and decodes its text features to token ids. The
// token count is the number of decoded ids, which may differ from the
// stored text length if some vectors match no known token.
func (d *Dataset) Get(ctx context.Context, i int) (*Sample, error) {
	dp, err := d.Datapoint(ctx, i)
	if err != nil {
		return nil, err
	}
	ids := d.decoder.Decode(dp.Record.TextFeatures)
	return &Sample{
		TokenIDs:         ids,
		TokenCount:       len(ids),
		MelSpectrogram:   dp.Record.MelSpectrogram,
		MelLength:        dp.Record.MelLength,
		SpeakerEmbedding: dp.SpeakerEmbedding,
	}, nil
}
