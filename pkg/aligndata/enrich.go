package aligndata

import (
	"context"
	"fmt"

	"github.com/haivivi/aligner/pkg/voiceprint"
)

// Enrich computes one speaker embedding per record, in record order, by
// presenting each normalized waveform to model on its own. The result is
// index-aligned with records.
func Enrich(ctx context.Context, model voiceprint.Model, records []*Record, progress Progress) ([][]float32, error) {
	if progress == nil {
		progress = noProgress{}
	}
	progress.Start(PhaseEmbed, len(records))
	defer progress.Done(PhaseEmbed)

	embeddings := make([][]float32, len(records))
	for i, r := range records {
		emb, err := model.Embed(ctx, r.Waveform)
		if err != nil {
			return nil, fmt.Errorf("aligndata: embed %s: %w", r.SourcePath, err)
		}
		embeddings[i] = emb
		progress.Increment(PhaseEmbed)
	}
	return embeddings, nil
}
