package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/complyon/aiact-engine/internal/core/domain"
)

//go:embed aiact.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Version      string                     `yaml:"version"`
	Requirements []domain.RequirementRecord `yaml:"requirements"`
}

// LoadDefault parses the catalog compiled into the binary. The engine
// always has a usable catalog even with no external file configured.
func LoadDefault() (*domain.CatalogSnapshot, error) {
	return parseYAML(defaultCatalogYAML)
}

// LoadYAML reads a requirement catalog from a YAML file on disk.
func LoadYAML(path string) (*domain.CatalogSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (*domain.CatalogSnapshot, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("catalog yaml: missing version")
	}
	snapshot, err := domain.NewCatalogSnapshot(file.Version, time.Now().UTC(), file.Requirements)
	if err != nil {
		return nil, fmt.Errorf("build catalog snapshot: %w", err)
	}
	return snapshot, nil
}
