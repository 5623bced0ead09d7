package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "aligncache",
	Short: "Build and inspect aligner training caches",
	Long: `aligncache - prepares the training data of a speech/text aligner.

A build reads a mapping of audio files to transcripts, validates every
utterance, extracts articulatory text features, mel-spectrograms and
speaker embeddings, and writes one datapoint file per utterance plus a
manifest into the cache directory (a local path or s3://bucket/prefix).

Examples:
  # Build from a profile, overriding the worker count
  aligncache build -f build.yaml --workers 16

  # Build without a profile
  aligncache build --transcripts data/map.yaml --cache-dir caches/en

  # Look at the result
  aligncache inspect caches/en
  aligncache inspect caches/en --index 3 -o json
  aligncache rejections caches/en`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(cmd.ErrOrStderr(), verbose))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
