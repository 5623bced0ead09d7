package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/aligner/cmd/aligncache/internal/config"
	"github.com/haivivi/aligner/pkg/aligndata"
	"github.com/haivivi/aligner/pkg/cli"
	"github.com/haivivi/aligner/pkg/kv"
	"github.com/haivivi/aligner/pkg/storage"
	"github.com/haivivi/aligner/pkg/textfrontend"
	"github.com/haivivi/aligner/pkg/voiceprint"
)

var buildFlags struct {
	profile    string
	noProgress bool
	output     string
	p          *config.Profile
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build (or reuse) a dataset cache",
	Long: `Build a dataset cache from a transcript mapping.

If the cache directory already holds a non-empty manifest the cache is
reused unless --rebuild is given. Settings come from the profile given
with -f; flags override profile values.`,
	Example: `  aligncache build -f build.yaml
  aligncache build --transcripts map.tsv --cache-dir /data/cache --workers 8 --allow-unknown-symbols`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	p := config.Default()
	buildFlags.p = p
	f := buildCmd.Flags()
	f.StringVarP(&buildFlags.profile, "file", "f", "", "build profile (YAML or JSON)")
	f.BoolVar(&buildFlags.noProgress, "no-progress", false, "disable progress bars")
	f.StringVarP(&buildFlags.output, "output", "o", "", "print build stats as yaml or json instead of a summary")

	f.StringVar(&p.Transcripts, "transcripts", p.Transcripts, "transcript mapping file (.yaml, .json, .csv, .tsv, .txt)")
	f.StringVar(&p.CacheDir, "cache-dir", p.CacheDir, "cache directory or s3://bucket/prefix")
	f.StringVar(&p.JournalDir, "journal-dir", p.JournalDir, "build journal directory (default <cache-dir>/.journal)")
	f.IntVar(&p.Workers, "workers", p.Workers, "extraction workers (default: number of CPUs)")
	f.Float64Var(&p.MinSeconds, "min-seconds", p.MinSeconds, "minimum utterance duration")
	f.Float64Var(&p.MaxSeconds, "max-seconds", p.MaxSeconds, "maximum utterance duration")
	f.BoolVar(&p.CutSilence, "cut-silence", p.CutSilence, "cut leading and trailing silence")
	f.BoolVar(&p.LoudNorm, "loudnorm", p.LoudNorm, "normalize loudness")
	f.BoolVar(&p.PhoneInput, "phone-input", p.PhoneInput, "transcripts are IPA phone strings")
	f.BoolVar(&p.AllowUnknownSymbols, "allow-unknown-symbols", p.AllowUnknownSymbols, "replace unknown symbols with a placeholder token")
	f.StringVar(&p.Language, "language", p.Language, "transcript language (en, de)")
	f.StringVar(&p.SpeakerModel, "speaker-model", p.SpeakerModel, `speaker embedding model: "stats" or a .onnx file`)
	f.StringVar(&p.Device, "device", p.Device, "embedding device (cpu, cuda)")
	f.BoolVar(&p.Rebuild, "rebuild", p.Rebuild, "rebuild even if the cache exists")
	f.Uint64Var(&p.ShuffleSeed, "shuffle-seed", p.ShuffleSeed, "seed of the input shuffle (0: random)")
	f.BoolVar(&p.StrictWorkers, "strict-workers", p.StrictWorkers, "fail the build if a worker does not finish")

	rootCmd.AddCommand(buildCmd)
}

// loadProfile merges the profile file with the flags that were set.
func loadProfile(cmd *cobra.Command) (*config.Profile, error) {
	flags := buildFlags.p
	p := flags
	if buildFlags.profile != "" {
		var err error
		if p, err = config.Load(buildFlags.profile); err != nil {
			return nil, err
		}
		cmd.Flags().Visit(func(f *pflag.Flag) {
			overrideProfile(p, flags, f.Name)
		})
	}
	if IsVerbose() {
		p.Verbose = true
	}
	return p, p.Validate()
}

// overrideProfile copies the field bound to flag name from src to dst.
func overrideProfile(dst, src *config.Profile, name string) {
	switch name {
	case "transcripts":
		dst.Transcripts = src.Transcripts
	case "cache-dir":
		dst.CacheDir = src.CacheDir
	case "journal-dir":
		dst.JournalDir = src.JournalDir
	case "workers":
		dst.Workers = src.Workers
	case "min-seconds":
		dst.MinSeconds = src.MinSeconds
	case "max-seconds":
		dst.MaxSeconds = src.MaxSeconds
	case "cut-silence":
		dst.CutSilence = src.CutSilence
	case "loudnorm":
		dst.LoudNorm = src.LoudNorm
	case "phone-input":
		dst.PhoneInput = src.PhoneInput
	case "allow-unknown-symbols":
		dst.AllowUnknownSymbols = src.AllowUnknownSymbols
	case "language":
		dst.Language = src.Language
	case "speaker-model":
		dst.SpeakerModel = src.SpeakerModel
	case "device":
		dst.Device = src.Device
	case "rebuild":
		dst.Rebuild = src.Rebuild
	case "shuffle-seed":
		dst.ShuffleSeed = src.ShuffleSeed
	case "strict-workers":
		dst.StrictWorkers = src.StrictWorkers
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(buildFlags.output)
	if err != nil {
		return err
	}
	p, err := loadProfile(cmd)
	if err != nil {
		return err
	}
	if p.Transcripts == "" {
		return fmt.Errorf("no transcripts given (use --transcripts or the profile)")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := slog.Default()

	transcripts, err := aligndata.LoadTranscripts(p.Transcripts)
	if err != nil {
		return err
	}
	store, err := storage.Open(p.CacheDir)
	if err != nil {
		return err
	}
	frontend, err := textfrontend.New(p.Language)
	if err != nil {
		return err
	}
	model, err := voiceprint.Open(p.SpeakerModel, p.Device)
	if err != nil {
		return err
	}
	defer model.Close()

	opts := aligndata.Options{
		Workers:       p.Workers,
		Extract:       p.ExtractConfig(),
		ShuffleSeed:   p.ShuffleSeed,
		Rebuild:       p.Rebuild,
		StrictWorkers: p.StrictWorkers,
		Frontend:      frontend,
		Model:         model,
		Logger:        log,
	}

	if dir := p.Journal(); dir != "" {
		db, err := kv.OpenBadger(kv.BadgerOptions{Dir: dir, Logger: log})
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Journal = aligndata.NewJournal(db)
	}

	var bars *barProgress
	if !buildFlags.noProgress && buildFlags.output == "" {
		bars = newBarProgress(cmd.ErrOrStderr())
		opts.Progress = bars
	}
	_, stats, err := aligndata.Build(ctx, store, transcripts, opts)
	if bars != nil {
		bars.Wait()
	}
	if err != nil {
		return err
	}

	if buildFlags.output != "" {
		return cli.Output(stats, cli.OutputOptions{Format: format, Writer: cmd.OutOrStdout()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), buildSummary(p.CacheDir, stats).Render())
	if stats.FailedWorkers > 0 {
		cli.PrintWarning(cmd.ErrOrStderr(), "%d worker(s) failed, their inputs are missing from the cache", stats.FailedWorkers)
	}
	return nil
}

func buildSummary(cacheDir string, s *aligndata.BuildStats) cli.Summary {
	sum := cli.Summary{Styles: cli.NewStyles(cli.DefaultTheme), Title: "dataset cache"}
	add := func(label, value string, warn bool) {
		sum.Rows = append(sum.Rows, cli.Row{Label: label, Value: value, Warn: warn})
	}
	add("cache", cacheDir, false)
	if s.Reused {
		add("samples", strconv.Itoa(s.Accepted)+" (reused)", false)
		return sum
	}
	add("build", s.BuildID, false)
	add("inputs", strconv.Itoa(s.Inputs), false)
	add("samples", strconv.Itoa(s.Accepted), false)
	reasons := make([]string, 0, len(s.Rejected))
	for r := range s.Rejected {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		add("rejected "+r, strconv.Itoa(s.Rejected[r]), false)
	}
	if s.Malformed > 0 {
		add("malformed", strconv.Itoa(s.Malformed), true)
	}
	add("workers", strconv.Itoa(s.Workers), false)
	if s.FailedWorkers > 0 {
		add("failed workers", strconv.Itoa(s.FailedWorkers), true)
	}
	add("elapsed", cli.FormatDuration(s.Elapsed), false)
	return sum
}
