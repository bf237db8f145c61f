package fixtures

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads a fixtures YAML file
type Loader struct {
	filePath string
}

// NewLoader creates a new fixtures loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the fixtures file
func (l *Loader) Load() (*Seed, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}

	data = expandVariables(data)

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures yaml: %w", err)
	}

	return &seed, nil
}

var variablePattern = regexp.MustCompile(`\{\{\s*(INKPAD_VAR_[A-Z0-9_]+)\s*\}\}`)

// expandVariables replaces {{INKPAD_VAR_...}} with the environment value,
// so seed passwords can stay out of the file.
// Example: password: "{{INKPAD_VAR_ADA_PASSWORD}}"
func expandVariables(data []byte) []byte {
	return variablePattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := variablePattern.FindSubmatch(match)[1]
		return []byte(strings.TrimSpace(os.Getenv(string(name))))
	})
}
