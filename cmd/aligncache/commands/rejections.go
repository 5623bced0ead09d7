package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/aligner/cmd/aligncache/internal/config"
	"github.com/haivivi/aligner/pkg/aligndata"
	"github.com/haivivi/aligner/pkg/cli"
	"github.com/haivivi/aligner/pkg/kv"
)

var rejectionsFlags struct {
	journalDir string
	build      string
	reason     string
	output     string
}

var rejectionsCmd = &cobra.Command{
	Use:   "rejections <cache>",
	Short: "List utterances rejected by a build",
	Long: `List the utterances a build skipped, with the reason, from the build
journal. By default the latest build is shown.`,
	Example: `  aligncache rejections caches/en
  aligncache rejections caches/en --reason duration -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRejections,
}

func init() {
	f := rejectionsCmd.Flags()
	f.StringVar(&rejectionsFlags.journalDir, "journal-dir", "", "build journal directory (default <cache>/.journal)")
	f.StringVar(&rejectionsFlags.build, "build", "", "build id (default: latest)")
	f.StringVar(&rejectionsFlags.reason, "reason", "", "only show this reject reason")
	f.StringVarP(&rejectionsFlags.output, "output", "o", "", "output format (yaml, json)")
	rootCmd.AddCommand(rejectionsCmd)
}

// RejectionReport is the output of the rejections command.
type RejectionReport struct {
	Build      string                     `json:"build" yaml:"build"`
	Rejections []aligndata.RejectionEntry `json:"rejections" yaml:"rejections"`
}

func runRejections(cmd *cobra.Command, args []string) error {
	if rejectionsFlags.reason != "" {
		if _, err := aligndata.ParseRejectReason(rejectionsFlags.reason); err != nil {
			return err
		}
	}
	dir := config.JournalFor(args[0], rejectionsFlags.journalDir)
	if dir == "" {
		return fmt.Errorf("%s has no local journal, use --journal-dir", args[0])
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := kv.OpenBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := loadRejections(ctx, db, rejectionsFlags.build, rejectionsFlags.reason)
	if err != nil {
		return err
	}

	if rejectionsFlags.output != "" {
		format, err := cli.ParseFormat(rejectionsFlags.output)
		if err != nil {
			return err
		}
		return cli.Output(report, cli.OutputOptions{Format: format, Writer: cmd.OutOrStdout()})
	}

	out := cmd.OutOrStdout()
	if len(report.Rejections) == 0 {
		cli.PrintSuccess(out, "build %s: nothing rejected", report.Build)
		return nil
	}
	fmt.Fprintf(out, "build %s: %d rejected\n", report.Build, len(report.Rejections))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range report.Rejections {
		detail := r.Message
		if r.Duration > 0 {
			detail = fmt.Sprintf("%.2fs", r.Duration)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Reason, r.Path, detail)
	}
	return tw.Flush()
}

func loadRejections(ctx context.Context, store kv.Store, build, reason string) (*RejectionReport, error) {
	if build == "" {
		var err error
		if build, err = aligndata.LatestBuild(ctx, store); err != nil {
			return nil, err
		}
	}
	entries, err := aligndata.OpenJournal(store, build).Rejections(ctx)
	if err != nil {
		return nil, err
	}
	report := &RejectionReport{Build: build, Rejections: []aligndata.RejectionEntry{}}
	for _, e := range entries {
		if reason == "" || e.Reason == reason {
			report.Rejections = append(report.Rejections, e)
		}
	}
	return report, nil
}
