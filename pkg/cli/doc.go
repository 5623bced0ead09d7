// Package cli provides common helpers for the aligncache command-line tool.
//
// This package includes:
//   - Output formatting (YAML, JSON)
//   - YAML/JSON file loading
//   - Human readable durations
//   - lipgloss-rendered summaries
//
// Example usage:
//
//	var profile Profile
//	if err := cli.LoadFile("build.yaml", &profile); err != nil {
//	    return err
//	}
//
//	cli.Output(stats, cli.OutputOptions{Format: cli.FormatJSON})
package cli
