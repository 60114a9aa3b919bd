package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/katharsis/internal/model"
	"github.com/ppiankov/katharsis/internal/traversal"
)

// LoadBundle reads a source bundle from a YAML or JSON file. YAML parses
// both, so no format sniffing is needed.
func LoadBundle(path string) (*model.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b model.Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", path, err)
	}
	if len(b.Sources) == 0 {
		return nil, fmt.Errorf("bundle %s has no sources", path)
	}
	return &b, nil
}

// LoadAnalysis reads a previously rendered analysis file.
func LoadAnalysis(path string) (*model.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis: %w", err)
	}
	var a model.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse analysis %s: %w", path, err)
	}
	return &a, nil
}

// LoadGraph reads an external claim graph and normalizes it.
func LoadGraph(path string) (*traversal.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read claim graph: %w", err)
	}
	var ext traversal.ExternalGraph
	if err := json.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("parse claim graph %s: %w", path, err)
	}
	return traversal.Normalize(ext), nil
}

// resolutionsFile supports both the bare-array and wrapped forms.
type resolutionsFile struct {
	Resolutions []traversal.Resolution `json:"resolutions"`
}

// LoadResolutions reads resolutions from a JSON file, either a bare array or
// an object with a "resolutions" key.
func LoadResolutions(path string) ([]traversal.Resolution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resolutions: %w", err)
	}
	var list []traversal.Resolution
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped resolutionsFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse resolutions %s: %w", path, err)
	}
	return wrapped.Resolutions, nil
}
