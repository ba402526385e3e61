// Package dataset streams batches for sequence-to-sequence training, mixing real parallel data with
// pseudo-parallel data (e.g. back-translations or synthetic copies).
//
// Each batch holds the same number of real and pseudo sentence pairs, up to half the configured batch size
// each. Sentence pairs are read ahead into buffers of batch size × maxi-batch size pairs, sorted by target
// length and consumed longest first, so sentences of similar length end up in the same batch.
//
// Example:
//
//	cfg := dataset.NewConfig("train.de", "train.en", "mono.en.copy", "mono.en",
//		[]string{"vocab.de.json"}, "vocab.en.json").
//		WithBatchSize(80).WithMaxLen(50).WithNoise(true)
//	it, err := dataset.New(cfg)
//	if err != nil { ... }
//	defer it.Close()
//	for batch, err := range it.Epoch() {
//		...
//	}
package dataset

import (
	"io"
	"iter"
	"math/rand/v2"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/go-bitext/corpus"
	"github.com/gomlx/go-bitext/noise"
	"github.com/gomlx/go-bitext/vocab"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	// Blank import: SentencePiece ".model" files can be used as dictionaries.
	_ "github.com/gomlx/go-bitext/vocab/sentencepiece"
)

// Streams of random numbers derived from the configured seed.
const (
	noiseStream   = 0x6e6f697365
	shuffleStream = 0x73687566
)

// Batch of mapped sentences. All four slices have the same length.
type Batch struct {
	// Source holds, for each real source sentence, one tuple of indices per token: one index per factor.
	Source [][][]int

	// Target holds the real target sentences.
	Target [][]int

	// PseudoSource holds the pseudo-source sentences, after noise if enabled.
	PseudoSource [][]int

	// PseudoTarget holds the pseudo-target sentences.
	PseudoTarget [][]int
}

// Len returns the number of real sentence pairs, which is also the number of pseudo sentence pairs.
func (b *Batch) Len() int {
	return len(b.Source)
}

// Iterator yields batches of real and pseudo-parallel data. Create it with New.
//
// It is not safe for concurrent use: it owns its corpus streams and buffers.
type Iterator struct {
	cfg Config

	sourceDicts []*vocab.Dictionary
	targetDict  *vocab.Dictionary

	real, pseudo             streamPair
	realBuffer, pseudoBuffer alignedBuffer

	// shuffler is nil if not shuffling each epoch.
	shuffler corpus.Shuffler

	// injector is nil if noise is disabled.
	injector *noise.Injector

	// err is set if the iterator could not start a new epoch; it is returned by every following call.
	err error

	epochs int
}

// New creates an Iterator: it loads and truncates the dictionaries and opens (or shuffles) the corpora.
func New(cfg *Config) (*Iterator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	it := &Iterator{
		cfg:    *cfg,
		real:   streamPair{name: "real", sourcePath: cfg.source, targetPath: cfg.target},
		pseudo: streamPair{name: "pseudo", sourcePath: cfg.pseudoSource, targetPath: cfg.pseudoTarget},
	}
	if err := it.loadDictionaries(); err != nil {
		return nil, err
	}

	if cfg.noise {
		rng := cfg.rng
		if rng == nil {
			rng = rand.New(rand.NewPCG(cfg.seed, noiseStream))
		}
		it.injector = noise.NewInjector(rng)
	}
	if cfg.shuffleEachEpoch {
		it.shuffler = cfg.shuffler
		if it.shuffler == nil {
			fs := corpus.NewShuffler(rand.New(rand.NewPCG(cfg.seed, shuffleStream)))
			if cfg.shuffleDir != "" {
				fs = fs.WithDir(cfg.shuffleDir)
			}
			it.shuffler = fs
		}
	}

	if err := it.real.open(it.shuffler); err != nil {
		return nil, err
	}
	if err := it.pseudo.open(it.shuffler); err != nil {
		_ = it.real.close()
		return nil, err
	}
	return it, nil
}

// loadDictionaries loads (or copies the preloaded) dictionaries and truncates them to the vocabulary sizes.
func (it *Iterator) loadDictionaries() error {
	cfg := &it.cfg
	if cfg.sourceDicts != nil {
		for _, d := range cfg.sourceDicts {
			it.sourceDicts = append(it.sourceDicts, d.Clone())
		}
		it.targetDict = cfg.targetDict.Clone()
	} else {
		for _, p := range cfg.sourceDictPaths {
			d, err := vocab.Load(p)
			if err != nil {
				return errors.WithMessagef(err, "while loading source dictionary")
			}
			it.sourceDicts = append(it.sourceDicts, d)
		}
		d, err := vocab.Load(cfg.targetDictPath)
		if err != nil {
			return errors.WithMessagef(err, "while loading target dictionary")
		}
		it.targetDict = d
	}
	for ii, d := range it.sourceDicts {
		if removed := d.Truncate(cfg.nWordsSource); removed > 0 {
			klog.V(1).Infof("source dictionary #%d truncated to %d words: %s entries removed",
				ii, cfg.nWordsSource, humanize.Comma(int64(removed)))
		}
	}
	if removed := it.targetDict.Truncate(cfg.nWordsTarget); removed > 0 {
		klog.V(1).Infof("target dictionary truncated to %d words: %s entries removed",
			cfg.nWordsTarget, humanize.Comma(int64(removed)))
	}
	return nil
}

// Next returns the next batch.
//
// At the end of an epoch it returns io.EOF and the iterator is reset, so the following call starts the next
// epoch. The last batch of an epoch may be partial: it holds the pairs left in the buffers.
//
// Read failures in the middle of an epoch are logged and end the epoch early.
// Any error other than io.EOF means a new epoch could not be started (e.g. the shuffling failed), and it is
// returned on every following call.
func (it *Iterator) Next() (*Batch, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.realBuffer.len() == 0 {
		it.fill(&it.realBuffer, &it.real)
		if it.realBuffer.len() == 0 {
			return nil, it.endEpoch()
		}
	}
	if it.pseudoBuffer.len() == 0 {
		it.fill(&it.pseudoBuffer, &it.pseudo)
		if it.pseudoBuffer.len() == 0 {
			return nil, it.endEpoch()
		}
	}

	halfBatch := it.cfg.HalfBatch()
	batch := &Batch{}
	for it.realBuffer.len() > 0 && it.pseudoBuffer.len() > 0 {
		ss, tt, _ := it.realBuffer.pop()
		pss, ptt, _ := it.pseudoBuffer.pop()
		if it.injector != nil {
			pss = it.injector.Apply(pss)
		}
		batch.Source = append(batch.Source, vocab.MapFactored(it.sourceDicts, ss, it.cfg.useFactor, it.cfg.nWordsSource))
		batch.Target = append(batch.Target, vocab.MapTokens(it.targetDict, tt, it.cfg.nWordsTarget))
		batch.PseudoSource = append(batch.PseudoSource, vocab.MapTokens(it.sourceDicts[0], pss, it.cfg.nWordsSource))
		batch.PseudoTarget = append(batch.PseudoTarget, vocab.MapTokens(it.targetDict, ptt, it.cfg.nWordsTarget))
		if batch.Len() >= halfBatch {
			break
		}
	}
	klog.V(2).Infof("batch with %d real and pseudo pairs (buffered: %d real, %d pseudo)",
		batch.Len(), it.realBuffer.len(), it.pseudoBuffer.len())
	return batch, nil
}

// fill reads up to BufferSize pairs into buf, skipping empty (if configured) and too long pairs, and sorts them.
func (it *Iterator) fill(buf *alignedBuffer, pair *streamPair) {
	k := it.cfg.BufferSize()
	var read, empty, tooLong int
	for buf.len() < k && !pair.endOfData {
		ss, tt, err := pair.next()
		if err != nil {
			if err != io.EOF {
				klog.Warningf("ending epoch early, failed reading %s corpora: %v", pair.name, err)
			}
			pair.endOfData = true
			break
		}
		read++
		if it.cfg.skipEmpty && (len(ss) == 0 || len(tt) == 0) {
			empty++
			continue
		}
		if len(ss) > it.cfg.maxLen || len(tt) > it.cfg.maxLen {
			tooLong++
			continue
		}
		buf.push(ss, tt)
	}
	if buf.len() == 0 {
		return
	}
	if it.cfg.sortByLength {
		buf.sortByTarget()
	} else {
		buf.reverse()
	}
	klog.V(1).Infof("%s buffer filled: %s pairs read, %s kept, %s empty and %s too long skipped",
		pair.name, humanize.Comma(int64(read)), humanize.Comma(int64(buf.len())),
		humanize.Comma(int64(empty)), humanize.Comma(int64(tooLong)))
}

// endEpoch resets the iterator and returns io.EOF, or the error if the reset failed.
func (it *Iterator) endEpoch() error {
	it.epochs++
	if err := it.Reset(); err != nil {
		it.err = err
		return err
	}
	klog.V(1).Infof("end of epoch %d", it.epochs)
	return io.EOF
}

// Reset clears the buffers and restarts the corpora from the beginning: freshly shuffled copies of the
// original corpora if shuffling each epoch, otherwise the current streams are rewound.
//
// Next calls it automatically at the end of each epoch.
func (it *Iterator) Reset() error {
	it.realBuffer.clear()
	it.pseudoBuffer.clear()
	if err := it.real.reset(it.shuffler); err != nil {
		return err
	}
	if err := it.pseudo.reset(it.shuffler); err != nil {
		return err
	}
	return nil
}

// Epoch iterates over the batches until the end of the current epoch.
//
// If the loop is interrupted, the following batches of the epoch are still returned by the next call to Next or
// Epoch. An error other than the end of the epoch is yielded once, with a nil batch, and ends the iteration.
func (it *Iterator) Epoch() iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		for {
			batch, err := it.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(batch, nil) {
				return
			}
		}
	}
}

// CountBatches consumes the rest of the current epoch and returns how many batches it had.
func (it *Iterator) CountBatches() (int, error) {
	var count int
	for _, err := range it.Epoch() {
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Epochs returns the number of epochs completed.
func (it *Iterator) Epochs() int {
	return it.epochs
}

// SourceDictionaries used to map source tokens, after truncation.
func (it *Iterator) SourceDictionaries() []*vocab.Dictionary {
	return it.sourceDicts
}

// TargetDictionary used to map target tokens, after truncation.
func (it *Iterator) TargetDictionary() *vocab.Dictionary {
	return it.targetDict
}

// Close the corpus streams, removing temporary shuffled copies.
// The iterator can no longer be used afterwards.
func (it *Iterator) Close() error {
	if it.err == nil {
		it.err = errors.New("dataset iterator is closed")
	}
	err := it.real.close()
	if pErr := it.pseudo.close(); err == nil {
		err = pErr
	}
	return err
}
