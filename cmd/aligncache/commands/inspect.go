package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/aligner/pkg/aligndata"
	"github.com/haivivi/aligner/pkg/cli"
	"github.com/haivivi/aligner/pkg/storage"
	"github.com/haivivi/aligner/pkg/textfrontend"
	"github.com/haivivi/aligner/pkg/voiceprint"
)

var inspectFlags struct {
	index    int
	output   string
	language string
	hashBits int
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <cache>",
	Short: "Show a dataset cache or one of its samples",
	Example: `  aligncache inspect caches/en
  aligncache inspect s3://bucket/caches/en --index 0 -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.IntVar(&inspectFlags.index, "index", -1, "sample to decode")
	f.StringVarP(&inspectFlags.output, "output", "o", "", "output format (yaml, json)")
	f.StringVar(&inspectFlags.language, "language", "en", "frontend used to decode token ids")
	f.IntVar(&inspectFlags.hashBits, "voice-bits", 16, "bits of the speaker label")
	rootCmd.AddCommand(inspectCmd)
}

// CacheInfo is the overview printed by inspect.
type CacheInfo struct {
	Cache   string   `json:"cache" yaml:"cache"`
	Samples int      `json:"samples" yaml:"samples"`
	First   []string `json:"first,omitempty" yaml:"first,omitempty"`
}

// SampleInfo describes one decoded sample.
type SampleInfo struct {
	Index        int      `json:"index" yaml:"index"`
	Source       string   `json:"source" yaml:"source"`
	TokenCount   int      `json:"token_count" yaml:"token_count"`
	Tokens       []string `json:"tokens" yaml:"tokens"`
	MelLength    int      `json:"mel_length" yaml:"mel_length"`
	Seconds      float64  `json:"seconds" yaml:"seconds"`
	EmbeddingDim int      `json:"embedding_dim" yaml:"embedding_dim"`
	Voice        string   `json:"voice,omitempty" yaml:"voice,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectFlags.output != "" {
		if _, err := cli.ParseFormat(inspectFlags.output); err != nil {
			return err
		}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := storage.Open(args[0])
	if err != nil {
		return err
	}
	frontend, err := textfrontend.New(inspectFlags.language)
	if err != nil {
		return err
	}
	ds, err := aligndata.OpenDataset(ctx, store, frontend)
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}

	var result any
	var summary cli.Summary
	if inspectFlags.index < 0 {
		info := cacheInfo(args[0], ds)
		result, summary = info, infoSummary(info)
	} else {
		info, err := sampleInfo(ctx, ds, frontend, inspectFlags.index)
		if err != nil {
			return err
		}
		result, summary = info, sampleSummary(info)
	}

	if inspectFlags.output != "" {
		return cli.Output(result, cli.OutputOptions{Format: cli.OutputFormat(inspectFlags.output), Writer: cmd.OutOrStdout()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.Render())
	return nil
}

func cacheInfo(cache string, ds *aligndata.Dataset) *CacheInfo {
	m := ds.Manifest()
	return &CacheInfo{Cache: cache, Samples: ds.Len(), First: m[:min(len(m), 3)]}
}

func sampleInfo(ctx context.Context, ds *aligndata.Dataset, frontend *textfrontend.Frontend, i int) (*SampleInfo, error) {
	dp, err := ds.Datapoint(ctx, i)
	if err != nil {
		return nil, err
	}
	s, err := ds.Get(ctx, i)
	if err != nil {
		return nil, err
	}
	names := frontend.Inventory()
	tokens := make([]string, len(s.TokenIDs))
	for j, id := range s.TokenIDs {
		tokens[j] = names[id]
	}
	info := &SampleInfo{
		Index:        i,
		Source:       dp.SourcePath,
		TokenCount:   s.TokenCount,
		Tokens:       tokens,
		MelLength:    s.MelLength,
		Seconds:      float64(len(dp.Record.Waveform)) / aligndata.SampleRate,
		EmbeddingDim: len(s.SpeakerEmbedding),
	}
	if len(s.SpeakerEmbedding) > 0 {
		h, err := voiceprint.NewHasher(len(s.SpeakerEmbedding), inspectFlags.hashBits, 0)
		if err != nil {
			return nil, err
		}
		if info.Voice, err = h.Label(s.SpeakerEmbedding); err != nil {
			return nil, err
		}
	}
	return info, nil
}

func infoSummary(info *CacheInfo) cli.Summary {
	rows := []cli.Row{
		{Label: "cache", Value: info.Cache},
		{Label: "samples", Value: strconv.Itoa(info.Samples)},
	}
	for i, p := range info.First {
		rows = append(rows, cli.Row{Label: fmt.Sprintf("[%d]", i), Value: p})
	}
	return cli.Summary{Styles: cli.NewStyles(cli.DefaultTheme), Title: "dataset cache", Rows: rows}
}

func sampleSummary(info *SampleInfo) cli.Summary {
	return cli.Summary{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  fmt.Sprintf("sample %d", info.Index),
		Rows: []cli.Row{
			{Label: "source", Value: info.Source},
			{Label: "tokens", Value: fmt.Sprintf("%d  %s", info.TokenCount, strings.Join(info.Tokens, " "))},
			{Label: "mel frames", Value: strconv.Itoa(info.MelLength)},
			{Label: "duration", Value: fmt.Sprintf("%.2fs", info.Seconds)},
			{Label: "embedding", Value: fmt.Sprintf("%d dims", info.EmbeddingDim)},
			{Label: "voice", Value: info.Voice},
		},
	}
}
