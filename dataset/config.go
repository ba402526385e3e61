package dataset

import (
	"math/rand/v2"

	"github.com/gomlx/go-bitext/corpus"
	"github.com/gomlx/go-bitext/vocab"
	"github.com/pkg/errors"
)

// Config of an Iterator. Create it with NewConfig, adjust it with the With* methods and pass it to New.
type Config struct {
	// Corpora: real parallel data and pseudo-parallel data, each a pair of line-aligned files.
	source, target             string
	pseudoSource, pseudoTarget string

	// Dictionary paths: one per source factor, and one for the target.
	sourceDictPaths []string
	targetDictPath  string

	// Preloaded dictionaries, used instead of the paths if set.
	sourceDicts []*vocab.Dictionary
	targetDict  *vocab.Dictionary

	batchSize, maxiBatchSize   int
	maxLen                     int
	nWordsSource, nWordsTarget int
	skipEmpty                  bool
	shuffleEachEpoch           bool
	sortByLength               bool
	useFactor                  bool
	noise                      bool

	seed       uint64
	rng        *rand.Rand
	shuffler   corpus.Shuffler
	shuffleDir string
}

// NewConfig creates a configuration for the given corpora and dictionary files, with default values for everything else:
//
//   - batch size 128 (half real, half pseudo data), maxi-batch size 20;
//   - maximum length 100 tokens;
//   - no vocabulary size caps;
//   - empty lines are kept;
//   - no shuffling, buffers sorted by target length;
//   - no source factors, no noise.
func NewConfig(source, target, pseudoSource, pseudoTarget string, sourceDicts []string, targetDict string) *Config {
	return &Config{
		source:          source,
		target:          target,
		pseudoSource:    pseudoSource,
		pseudoTarget:    pseudoTarget,
		sourceDictPaths: sourceDicts,
		targetDictPath:  targetDict,
		batchSize:       128,
		maxiBatchSize:   20,
		maxLen:          100,
		nWordsSource:    -1,
		nWordsTarget:    -1,
		sortByLength:    true,
	}
}

// WithDictionaries sets already loaded dictionaries, used instead of the dictionary paths.
// The Iterator truncates copies of them, the given dictionaries are not modified.
func (c *Config) WithDictionaries(sourceDicts []*vocab.Dictionary, targetDict *vocab.Dictionary) *Config {
	c.sourceDicts = sourceDicts
	c.targetDict = targetDict
	return c
}

// WithBatchSize sets the total number of sentence pairs per batch. Half of it is used for the real parallel data,
// the other half for the pseudo-parallel data.
func (c *Config) WithBatchSize(batchSize int) *Config {
	c.batchSize = batchSize
	return c
}

// WithMaxiBatchSize sets how many batches worth of sentence pairs are read ahead and sorted together.
func (c *Config) WithMaxiBatchSize(maxiBatchSize int) *Config {
	c.maxiBatchSize = maxiBatchSize
	return c
}

// WithMaxLen sets the maximum number of tokens of a sentence: pairs with a longer side are skipped.
func (c *Config) WithMaxLen(maxLen int) *Config {
	c.maxLen = maxLen
	return c
}

// WithVocabularySizes caps the source and target vocabularies: indices at or beyond the cap become vocab.UnknownIndex.
// Values <= 0 disable the cap.
func (c *Config) WithVocabularySizes(nWordsSource, nWordsTarget int) *Config {
	c.nWordsSource = nWordsSource
	c.nWordsTarget = nWordsTarget
	return c
}

// WithSkipEmpty sets whether pairs with an empty side are skipped.
func (c *Config) WithSkipEmpty(skipEmpty bool) *Config {
	c.skipEmpty = skipEmpty
	return c
}

// WithShuffleEachEpoch sets whether the corpora are shuffled at the start of every epoch.
func (c *Config) WithShuffleEachEpoch(shuffle bool) *Config {
	c.shuffleEachEpoch = shuffle
	return c
}

// WithSortByLength sets whether each read-ahead buffer is sorted by target length. If false, the corpus order
// is kept.
func (c *Config) WithSortByLength(sortByLength bool) *Config {
	c.sortByLength = sortByLength
	return c
}

// WithFactors sets whether source tokens hold "|" separated factors, one per source dictionary.
func (c *Config) WithFactors(useFactor bool) *Config {
	c.useFactor = useFactor
	return c
}

// WithNoise sets whether pseudo-source sentences are corrupted with word dropout and local permutations.
func (c *Config) WithNoise(noise bool) *Config {
	c.noise = noise
	return c
}

// WithSeed sets the seed of the random number generators used for noise and shuffling. Default is 0.
func (c *Config) WithSeed(seed uint64) *Config {
	c.seed = seed
	return c
}

// WithRand sets the random number generator used for noise, instead of one seeded with the configured seed.
func (c *Config) WithRand(rng *rand.Rand) *Config {
	c.rng = rng
	return c
}

// WithShuffler sets the Shuffler used when shuffling each epoch.
// The default is a corpus.FileShuffler writing temporary files to the directory set with WithShuffleDir.
func (c *Config) WithShuffler(shuffler corpus.Shuffler) *Config {
	c.shuffler = shuffler
	return c
}

// WithShuffleDir sets the directory for the shuffled copies written by the default shuffler. Default is os.TempDir().
func (c *Config) WithShuffleDir(dir string) *Config {
	c.shuffleDir = dir
	return c
}

// HalfBatch is the number of real (and of pseudo) sentence pairs in a full batch.
func (c *Config) HalfBatch() int {
	return c.batchSize / 2
}

// BufferSize is the number of sentence pairs read ahead and sorted together, for each of real and pseudo data.
func (c *Config) BufferSize() int {
	return c.batchSize * c.maxiBatchSize
}

// Validate the configuration. New calls it automatically.
func (c *Config) Validate() error {
	for _, p := range []struct{ name, value string }{
		{"source", c.source}, {"target", c.target},
		{"pseudo source", c.pseudoSource}, {"pseudo target", c.pseudoTarget},
	} {
		if p.value == "" {
			return errors.Errorf("dataset: %s corpus path is required", p.name)
		}
	}
	if c.batchSize < 1 {
		return errors.Errorf("dataset: batch size must be >= 1, got %d", c.batchSize)
	}
	if c.maxiBatchSize < 1 {
		return errors.Errorf("dataset: maxi-batch size must be >= 1, got %d", c.maxiBatchSize)
	}
	if c.maxLen < 1 {
		return errors.Errorf("dataset: maximum length must be >= 1, got %d", c.maxLen)
	}
	if c.sourceDicts != nil || c.targetDict != nil {
		if len(c.sourceDicts) == 0 || c.targetDict == nil {
			return errors.New("dataset: preloaded dictionaries need at least one source and one target dictionary")
		}
		for i, d := range c.sourceDicts {
			if d == nil {
				return errors.Errorf("dataset: preloaded source dictionary #%d is nil", i)
			}
		}
	} else {
		if len(c.sourceDictPaths) == 0 {
			return errors.New("dataset: at least one source dictionary is required")
		}
		if c.targetDictPath == "" {
			return errors.New("dataset: target dictionary is required")
		}
	}
	return nil
}
