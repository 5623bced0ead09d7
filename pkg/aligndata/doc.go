// Package aligndata builds and reads the on-disk training cache of the
// aligner: per-utterance articulatory text features, mel-spectrograms,
// normalized waveforms and speaker embeddings.
//
// # Build pipeline
//
//	transcripts ─► Partition ─► N extraction workers ─► join ─► Enrich ─► Materialize
//
// Every worker owns a contiguous slice of the (shuffled) input paths and
// its own [Preprocessor]. Workers validate each utterance with an
// [Extractor] and keep accepted records in a worker-local slice; the slices
// are merged in worker order after all workers returned. Rejected
// utterances never leave their worker; they are counted, logged and, when
// a [Journal] is configured, recorded there.
//
// Speaker embeddings are computed afterwards in a single sequential pass, so
// the embedding model (and the accelerator it may use) is never shared
// between goroutines.
//
// # Cache layout
//
//	<cache>/files_used.txt
//	<cache>/aligner_datapoints/aligner_datapoint_<i>.msgpack
//	<cache>/aligner_train_cache.msgpack
//
// Each datapoint file holds one msgpack-encoded [Datapoint]. The manifest
// lists the datapoint paths in build order and is written last; its
// presence with at least one entry is what marks a cache as complete.
//
// # Reading
//
// [Dataset] loads one datapoint per Get call and decodes its feature
// vectors to token ids through the text frontend.
package aligndata
