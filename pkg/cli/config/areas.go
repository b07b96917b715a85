package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/devmon-lab/chreos/pkg/domain/model"
)

// Areas holds the product area catalog configuration
type Areas struct {
	Path string
}

// Flags returns CLI flags for the catalog configuration
func (a *Areas) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "areas-file",
			Usage:       "Path to the product area catalog YAML file",
			Category:    "Catalog",
			Sources:     cli.EnvVars("CHREOS_AREAS_FILE"),
			Destination: &a.Path,
		},
	}
}

// LoadOptional loads the catalog when a path is configured, returns nil
// when not. Areas can also be registered through the API, so the file
// is optional.
func (a *Areas) LoadOptional(logger *slog.Logger) (*model.AreasConfig, error) {
	if !a.IsConfigured() {
		logger.Info("No product area catalog file configured")
		return nil, nil
	}

	catalog, err := LoadAreasFromFile(a.Path)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded product area catalog",
		slog.String("path", a.Path),
		slog.Int("organizations", len(catalog.Organizations)),
	)
	return catalog, nil
}

// IsConfigured checks if a catalog file is configured
func (a *Areas) IsConfigured() bool {
	return a.Path != ""
}

// LogValue returns structured log value
func (a Areas) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", a.Path),
	)
}

// LoadAreasFromFile loads the product area catalog from a YAML file
func LoadAreasFromFile(path string) (*model.AreasConfig, error) {
	if path == "" {
		return nil, goerr.New("catalog file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(err, "catalog file not found",
				goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read catalog file",
			goerr.V("path", path))
	}

	var catalog model.AreasConfig
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, goerr.Wrap(err, "failed to parse YAML catalog",
			goerr.V("path", path))
	}

	if err := catalog.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid catalog",
			goerr.V("path", path))
	}

	return &catalog, nil
}
