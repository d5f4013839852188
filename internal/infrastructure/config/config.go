package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/poisonbench/internal/adapters/otel"
	"github.com/emiliopalmerini/poisonbench/internal/util"
)

// Prefix namespaces every environment variable.
const Prefix = "POISONBENCH"

// Tracking holds tracking store and artifact storage configuration.
type Tracking struct {
	URI          string `envconfig:"TRACKING_URI"`
	AuthToken    string `envconfig:"TRACKING_AUTH_TOKEN"`
	ArtifactRoot string `envconfig:"ARTIFACT_ROOT"`
}

// Log holds logger configuration.
type Log struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// Serve holds inference endpoint configuration.
type Serve struct {
	Port      int    `envconfig:"SERVE_PORT" default:"8080"`
	ModelPath string `envconfig:"MODEL_PATH" default:"models/model.json"`
}

// Config is the full process configuration.
type Config struct {
	Tracking Tracking
	Log      Log
	Serve    Serve
	OTEL     otel.Config
}

// Load reads POISONBENCH_* variables and fills XDG defaults for the
// tracking store and artifact root when unset.
func Load() (*Config, error) {
	var cfg Config
	for _, section := range []any{&cfg.Tracking, &cfg.Log, &cfg.Serve, &cfg.OTEL} {
		if err := envconfig.Process(Prefix, section); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	if cfg.Tracking.URI == "" {
		uri, err := util.DefaultTrackingURI()
		if err != nil {
			return nil, err
		}
		cfg.Tracking.URI = uri
	}
	if cfg.Tracking.ArtifactRoot == "" {
		root, err := util.DefaultArtifactRoot()
		if err != nil {
			return nil, err
		}
		cfg.Tracking.ArtifactRoot = root
	}
	return &cfg, nil
}
