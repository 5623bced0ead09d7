package aligndata

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// LoadTranscripts reads a path -> transcript mapping from file. The format
// is chosen by extension:
//
//	.yaml .yml .json    a map of audio path to transcript
//	.csv .txt .list     one "path|transcript" per line
//	.tsv                one "path<TAB>transcript" per line
//
// Blank lines and lines starting with '#' are ignored in line formats.
// Relative audio paths are resolved against the directory of file.
func LoadTranscripts(file string) (map[string]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("aligndata: read transcripts: %w", err)
	}

	var raw map[string]string
	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("aligndata: parse %s: %w", file, err)
		}
	case ".csv", ".txt", ".list":
		raw, err = parseTranscriptLines(data, "|")
	case ".tsv":
		raw, err = parseTranscriptLines(data, "\t")
	default:
		return nil, fmt.Errorf("aligndata: unsupported transcript file %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("aligndata: parse %s: %w", file, err)
	}

	base := filepath.Dir(file)
	out := make(map[string]string, len(raw))
	for p, text := range raw {
		if !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		out[p] = text
	}
	return out, nil
}

func parseTranscriptLines(data []byte, sep string) (map[string]string, error) {
	out := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, text, ok := strings.Cut(line, sep)
		if !ok {
			return nil, fmt.Errorf("line %d: missing %q separator", n, sep)
		}
		out[strings.TrimSpace(p)] = strings.TrimSpace(text)
	}
	return out, sc.Err()
}
