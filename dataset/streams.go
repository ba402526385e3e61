package dataset

import (
	"io"

	"github.com/gomlx/go-bitext/corpus"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// streamPair reads aligned sentence pairs from two corpora.
type streamPair struct {
	name string

	// sourcePath and targetPath are the original corpora: shuffling always starts from them.
	sourcePath, targetPath string

	source, target *corpus.Stream

	// endOfData is set once the streams are exhausted, or failed reading, until the next reset.
	endOfData bool
}

// open the streams, shuffled if shuffler is not nil.
func (p *streamPair) open(shuffler corpus.Shuffler) error {
	if shuffler != nil {
		streams, err := shuffler.Shuffle(p.sourcePath, p.targetPath)
		if err != nil {
			return errors.WithMessagef(err, "while shuffling %s corpora", p.name)
		}
		if len(streams) != 2 {
			_ = corpus.CloseAll(streams...)
			return errors.Errorf("shuffler returned %d streams for the 2 %s corpora", len(streams), p.name)
		}
		p.source, p.target = streams[0], streams[1]
		return nil
	}
	source, err := corpus.Open(p.sourcePath)
	if err != nil {
		return errors.WithMessagef(err, "while opening %s source corpus", p.name)
	}
	target, err := corpus.Open(p.targetPath)
	if err != nil {
		_ = source.Close()
		return errors.WithMessagef(err, "while opening %s target corpus", p.name)
	}
	p.source, p.target = source, target
	return nil
}

// reset prepares the streams for a new epoch: fresh shuffled copies if shuffler is not nil, otherwise the current
// streams are rewound.
func (p *streamPair) reset(shuffler corpus.Shuffler) error {
	p.endOfData = false
	if shuffler != nil {
		if err := p.close(); err != nil {
			klog.Warningf("failed closing %s corpora of previous epoch: %v", p.name, err)
		}
		return p.open(shuffler)
	}
	if err := p.source.Rewind(); err != nil {
		return errors.WithMessagef(err, "while rewinding %s source corpus", p.name)
	}
	if err := p.target.Rewind(); err != nil {
		return errors.WithMessagef(err, "while rewinding %s target corpus", p.name)
	}
	return nil
}

// next returns the next tokenized pair, or io.EOF when the source is exhausted.
//
// If the target has fewer lines than the source, it returns an error.
func (p *streamPair) next() (source, target []string, err error) {
	source, err = p.source.ReadTokens()
	if err != nil {
		return nil, nil, err
	}
	target, err = p.target.ReadTokens()
	if err == io.EOF {
		return nil, nil, errors.Errorf("%s corpora are misaligned: %q has more lines than %q",
			p.name, p.source.Path(), p.target.Path())
	}
	if err != nil {
		return nil, nil, err
	}
	return source, target, nil
}

func (p *streamPair) close() error {
	err := corpus.CloseAll(p.source, p.target)
	p.source, p.target = nil, nil
	return err
}
