package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

// Load reads the configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
//
// If path is empty, the CONFIG_PATH environment variable is used, falling back to "./bitext.yaml".
// If that file doesn't exist and no path was given explicitly, the configuration comes from ENV and defaults only.
func Load(path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = os.Getenv("CONFIG_PATH")
		explicitPath = path != ""
	}
	if !explicitPath {
		path = "./bitext.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
	} else if explicitPath {
		return nil, errors.Wrapf(err, "config: file %s", path)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.Wrap(err, "config: read env")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "config: validate")
	}
	return &cfg, nil
}
