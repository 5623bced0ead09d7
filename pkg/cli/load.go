package cli

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadFile decodes a YAML or JSON file into v. Unknown fields are errors.
func LoadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
