package config

import (
	"github.com/pkg/errors"
)

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Dataset.validate(); err != nil {
		return errors.WithMessage(err, "dataset")
	}
	if c.Run.Epochs < 1 {
		return errors.Errorf("run.epochs must be >= 1 (got %d)", c.Run.Epochs)
	}
	return nil
}

func (d *DatasetConfig) validate() error {
	for _, f := range []struct{ name, value string }{
		{"source", d.Source}, {"target", d.Target},
		{"pseudo_source", d.PseudoSource}, {"pseudo_target", d.PseudoTarget},
		{"target_dict", d.TargetDict},
	} {
		if f.value == "" {
			return errors.Errorf("%s is required", f.name)
		}
	}
	if len(d.SourceDicts) == 0 {
		return errors.New("source_dicts requires at least one dictionary")
	}
	for i, dict := range d.SourceDicts {
		if dict == "" {
			return errors.Errorf("source_dicts[%d] is empty", i)
		}
	}
	if d.BatchSize < 1 {
		return errors.Errorf("batch_size must be >= 1 (got %d)", d.BatchSize)
	}
	if d.MaxiBatchSize < 1 {
		return errors.Errorf("maxibatch_size must be >= 1 (got %d)", d.MaxiBatchSize)
	}
	if d.MaxLen < 1 {
		return errors.Errorf("max_len must be >= 1 (got %d)", d.MaxLen)
	}
	return nil
}
