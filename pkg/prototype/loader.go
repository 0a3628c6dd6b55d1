package prototype

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const fileScheme = "file://"

// FileLoader loads templates from YAML or JSON files.
// Relative locators are resolved against Dir.
type FileLoader struct {
	Dir string
}

// Load implements ports.SourceLoader.
func (l *FileLoader) Load(ctx context.Context, locator string) (*domain.State, error) {
	path, ok := l.path(locator)
	if !ok {
		return nil, fmt.Errorf("unsupported locator %q", locator)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Decode(data, filepath.Ext(path))
}

// path maps a locator to a filesystem path. Locators with a scheme other than
// file:// are not files.
func (l *FileLoader) path(locator string) (string, bool) {
	switch {
	case strings.HasPrefix(locator, fileScheme):
		locator = strings.TrimPrefix(locator, fileScheme)
	case strings.Contains(locator, "://"):
		return "", false
	}
	if !filepath.IsAbs(locator) && l.Dir != "" {
		locator = filepath.Join(l.Dir, locator)
	}
	return filepath.Clean(locator), true
}

// Decode parses a template document. ext selects JSON (".json"); anything else is
// read as YAML.
func Decode(data []byte, ext string) (*domain.State, error) {
	var raw map[string]any
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse json template: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml template: %w", err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("empty template")
	}

	var state domain.State
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &state,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if state.Name == "" {
		return nil, fmt.Errorf("template has no name")
	}
	return &state, nil
}
