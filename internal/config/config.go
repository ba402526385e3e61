// Package config holds the configuration of the bitext-batches command line tool,
// read from a YAML file and environment variables.
package config

import (
	"github.com/gomlx/go-bitext/dataset"
)

// Config is the root configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Run     RunConfig     `yaml:"run"`
}

// DatasetConfig describes the corpora, dictionaries and batching parameters.
// Corpora and dictionaries are locations: local paths or http(s) URLs.
//
// Boolean options must default to false: cleanenv replaces zero values read from YAML with env-default.
type DatasetConfig struct {
	Source       string   `yaml:"source"        env:"BITEXT_SOURCE"`
	Target       string   `yaml:"target"        env:"BITEXT_TARGET"`
	PseudoSource string   `yaml:"pseudo_source" env:"BITEXT_PSEUDO_SOURCE"`
	PseudoTarget string   `yaml:"pseudo_target" env:"BITEXT_PSEUDO_TARGET"`
	SourceDicts  []string `yaml:"source_dicts"  env:"BITEXT_SOURCE_DICTS" env-separator:","`
	TargetDict   string   `yaml:"target_dict"   env:"BITEXT_TARGET_DICT"`

	BatchSize        int    `yaml:"batch_size"         env:"BITEXT_BATCH_SIZE"         env-default:"128"`
	MaxiBatchSize    int    `yaml:"maxibatch_size"     env:"BITEXT_MAXIBATCH_SIZE"     env-default:"20"`
	MaxLen           int    `yaml:"max_len"            env:"BITEXT_MAX_LEN"            env-default:"100"`
	NWordsSource     int    `yaml:"n_words_source"     env:"BITEXT_N_WORDS_SOURCE"     env-default:"-1"`
	NWordsTarget     int    `yaml:"n_words_target"     env:"BITEXT_N_WORDS_TARGET"     env-default:"-1"`
	SkipEmpty        bool   `yaml:"skip_empty"         env:"BITEXT_SKIP_EMPTY"         env-default:"false"`
	ShuffleEachEpoch bool   `yaml:"shuffle_each_epoch" env:"BITEXT_SHUFFLE_EACH_EPOCH" env-default:"false"`
	KeepOrder        bool   `yaml:"keep_order"         env:"BITEXT_KEEP_ORDER"         env-default:"false"`
	UseFactor        bool   `yaml:"use_factor"         env:"BITEXT_USE_FACTOR"         env-default:"false"`
	Noise            bool   `yaml:"noise"              env:"BITEXT_NOISE"              env-default:"false"`
	Seed             uint64 `yaml:"seed"               env:"BITEXT_SEED"               env-default:"0"`
	ShuffleDir       string `yaml:"shuffle_dir"        env:"BITEXT_SHUFFLE_DIR"`
}

// FetchConfig controls how remote corpora and dictionaries are downloaded.
type FetchConfig struct {
	CacheDir      string `yaml:"cache_dir"      env:"BITEXT_CACHE_DIR"`
	AuthToken     string `yaml:"auth_token"     env:"BITEXT_AUTH_TOKEN"`
	MaxParallel   int    `yaml:"max_parallel"   env:"BITEXT_FETCH_MAX_PARALLEL" env-default:"20"`
	ForceDownload bool   `yaml:"force_download" env:"BITEXT_FORCE_DOWNLOAD"     env-default:"false"`
}

// RunConfig controls the command line tool itself.
type RunConfig struct {
	Epochs int `yaml:"epochs" env:"BITEXT_EPOCHS" env-default:"1"`

	// Quiet disables the progress spinner.
	Quiet bool `yaml:"quiet" env:"BITEXT_QUIET" env-default:"false"`
}

// Locations returns all corpus and dictionary locations, in the order expected by Build:
// source, target, pseudo source, pseudo target, target dictionary, then the source dictionaries.
func (d *DatasetConfig) Locations() []string {
	locations := []string{d.Source, d.Target, d.PseudoSource, d.PseudoTarget, d.TargetDict}
	return append(locations, d.SourceDicts...)
}

// Build the dataset.Config from the resolved local paths, given in the order returned by Locations.
func (d *DatasetConfig) Build(resolved []string) *dataset.Config {
	cfg := dataset.NewConfig(resolved[0], resolved[1], resolved[2], resolved[3], resolved[5:], resolved[4]).
		WithBatchSize(d.BatchSize).
		WithMaxiBatchSize(d.MaxiBatchSize).
		WithMaxLen(d.MaxLen).
		WithVocabularySizes(d.NWordsSource, d.NWordsTarget).
		WithSkipEmpty(d.SkipEmpty).
		WithShuffleEachEpoch(d.ShuffleEachEpoch).
		WithSortByLength(!d.KeepOrder).
		WithFactors(d.UseFactor).
		WithNoise(d.Noise).
		WithSeed(d.Seed)
	if d.ShuffleDir != "" {
		cfg = cfg.WithShuffleDir(d.ShuffleDir)
	}
	return cfg
}
