package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func resetFlags(cmd *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	resetFlags(rootCmd)
	buildFlags.p.Verbose = false

	var outBuf, errBuf bytes.Buffer
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(&errBuf, "Error: %v\n", err)
		exitCode = 1
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func writeTone(t *testing.T, path string, seconds float64) {
	t.Helper()
	const rate = 16000
	data := make([]int, int(seconds*rate))
	for i := range data {
		data[i] = int(8000 * math.Sin(2*math.Pi*180*float64(i)/rate))
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{Format: &audio.Format{SampleRate: rate, NumChannels: 1}, Data: data, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

// setupCorpus writes three usable utterances and one that is too short.
func setupCorpus(t *testing.T) (transcripts, cache string) {
	t.Helper()
	dir := t.TempDir()
	var lines []string
	for i, secs := range []float64{2, 2.5, 3, 0.2} {
		name := fmt.Sprintf("utt%d.wav", i)
		writeTone(t, filepath.Join(dir, name), secs)
		lines = append(lines, name+"|sing song")
	}
	transcripts = filepath.Join(dir, "map.txt")
	if err := os.WriteFile(transcripts, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	return transcripts, filepath.Join(dir, "cache")
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "aligncache") {
		t.Fatalf("expected 'aligncache', got: %s", stdout)
	}
}

func TestBuildInspectRejections(t *testing.T) {
	transcripts, cache := setupCorpus(t)

	stdout, stderr, code := runCmd(t, "build",
		"--transcripts", transcripts,
		"--cache-dir", cache,
		"--workers", "2",
		"--cut-silence=false",
		"--shuffle-seed", "3",
		"-o", "json",
	)
	if code != 0 {
		t.Fatalf("build exit %d: %s", code, stderr)
	}
	var stats struct {
		Inputs   int            `json:"inputs"`
		Accepted int            `json:"accepted"`
		Rejected map[string]int `json:"rejected"`
	}
	if err := json.Unmarshal([]byte(stdout), &stats); err != nil {
		t.Fatalf("stats: %v\n%s", err, stdout)
	}
	if stats.Inputs != 4 || stats.Accepted != 3 || stats.Rejected["duration"] != 1 {
		t.Errorf("stats = %+v", stats)
	}

	stdout, stderr, code = runCmd(t, "inspect", cache, "-o", "yaml")
	if code != 0 {
		t.Fatalf("inspect exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "samples: 3") {
		t.Errorf("inspect output: %s", stdout)
	}

	stdout, stderr, code = runCmd(t, "inspect", cache, "--index", "1", "-o", "json")
	if code != 0 {
		t.Fatalf("inspect --index exit %d: %s", code, stderr)
	}
	var sample SampleInfo
	if err := json.Unmarshal([]byte(stdout), &sample); err != nil {
		t.Fatalf("sample: %v\n%s", err, stdout)
	}
	if sample.TokenCount != 7 || !strings.HasPrefix(sample.Voice, "voice:") || sample.MelLength == 0 {
		t.Errorf("sample = %+v", sample)
	}

	stdout, stderr, code = runCmd(t, "rejections", cache)
	if code != 0 {
		t.Fatalf("rejections exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "1 rejected") || !strings.Contains(stdout, "utt3.wav") {
		t.Errorf("rejections output: %s", stdout)
	}

	// A second build reuses the cache.
	stdout, stderr, code = runCmd(t, "build", "--transcripts", transcripts, "--cache-dir", cache, "--no-progress")
	if code != 0 {
		t.Fatalf("rebuild exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "reused") {
		t.Errorf("second build did not reuse the cache: %s", stdout)
	}
}

func TestBuildProfileOverride(t *testing.T) {
	transcripts, cache := setupCorpus(t)
	profile := filepath.Join(t.TempDir(), "build.yaml")
	content := fmt.Sprintf("transcripts: %s\ncache_dir: %s\ncut_silence: false\nmin_seconds: 2.2\n", transcripts, cache)
	if err := os.WriteFile(profile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCmd(t, "build", "-f", profile, "--min-seconds", "1", "-o", "yaml")
	if code != 0 {
		t.Fatalf("build exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "accepted: 3") {
		t.Errorf("flag did not override the profile: %s", stdout)
	}
}

func TestInspectMissingCache(t *testing.T) {
	_, stderr, code := runCmd(t, "inspect", t.TempDir())
	if code == 0 {
		t.Fatal("inspect of an empty directory succeeded")
	}
	if !strings.Contains(stderr, "manifest missing") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestBuildInvalidFlags(t *testing.T) {
	for _, args := range [][]string{
		{"build", "--cache-dir", t.TempDir()},
		{"build", "--transcripts", "x.txt"},
		{"build", "--transcripts", "x.txt", "--cache-dir", t.TempDir(), "--device", "tpu"},
		{"build", "-o", "xml"},
	} {
		if _, _, code := runCmd(t, args...); code == 0 {
			t.Errorf("%v succeeded", args)
		}
	}
}
