package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Parse decodes a Homepage bookmarks.yaml document.
// Template variables ({{HOMEPAGE_VAR_...}}) are blanked out first since their
// values only exist inside Homepage.
func Parse(data []byte) (Config, error) {
	data = templateVar.ReplaceAll(data, []byte(`""`))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}
	return cfg, nil
}

// LoadFile reads and parses the bookmarks file at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}
	return Parse(data)
}
