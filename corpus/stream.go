// Package corpus reads line-aligned text corpora, one sentence per line, optionally compressed.
//
// Corpora come in aligned sets (e.g. source and target of a parallel corpus): line i of every file
// in the set belongs to the same example. Shuffling keeps the alignment, see Shuffler.
package corpus

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/gomlx/go-bitext/internal/compressed"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Stream of lines from a corpus file. Create it with Open or OpenTemporary.
//
// It is not safe for concurrent use.
type Stream struct {
	path string

	// temporary files are removed when the Stream is closed.
	temporary bool

	rc     io.ReadCloser
	reader *bufio.Reader

	linesRead int
}

// Open the corpus file for sequential reading.
// Files with a compression extension (".gz", ".zst", ".lz4", ".bz2", ".br") are decompressed on the fly.
func Open(filePath string) (*Stream, error) {
	s := &Stream{path: filePath}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenTemporary is like Open, but the file is removed when the Stream is closed.
// Used for the shuffled copies of a corpus.
func OpenTemporary(filePath string) (*Stream, error) {
	s, err := Open(filePath)
	if err != nil {
		return nil, err
	}
	s.temporary = true
	return s, nil
}

func (s *Stream) open() error {
	rc, err := compressed.Open(s.path)
	if err != nil {
		return errors.WithMessage(err, "corpus stream")
	}
	s.rc = rc
	s.reader = bufio.NewReaderSize(rc, 64*1024)
	s.linesRead = 0
	return nil
}

// Path of the file backing the stream.
func (s *Stream) Path() string {
	return s.path
}

// IsTemporary returns whether the file is removed on Close.
func (s *Stream) IsTemporary() bool {
	return s.temporary
}

// LinesRead since the stream was opened or last rewound.
func (s *Stream) LinesRead() int {
	return s.linesRead
}

// ReadLine returns the next line, without the trailing end-of-line.
//
// It returns io.EOF when there are no more lines. A last line not terminated by "\n" is still returned.
func (s *Stream) ReadLine() (string, error) {
	if s.reader == nil {
		return "", errors.Errorf("corpus stream %q is closed", s.path)
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if line == "" {
				return "", io.EOF
			}
		} else {
			return "", errors.Wrapf(err, "failed reading line %d of %q", s.linesRead+1, s.path)
		}
	}
	s.linesRead++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// ReadTokens reads the next line and splits it into whitespace separated tokens.
// An empty line returns an empty (non-nil) slice.
func (s *Stream) ReadTokens() ([]string, error) {
	line, err := s.ReadLine()
	if err != nil {
		return nil, err
	}
	tokens := strings.Fields(line)
	if tokens == nil {
		tokens = []string{}
	}
	return tokens, nil
}

// Rewind the stream to its first line.
//
// Plain files are seeked back to the start, compressed files are reopened.
func (s *Stream) Rewind() error {
	if f, ok := s.rc.(*os.File); ok {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return errors.Wrapf(err, "failed to rewind %q", s.path)
		}
		s.reader.Reset(f)
		s.linesRead = 0
		return nil
	}
	if s.rc != nil {
		if err := s.rc.Close(); err != nil {
			klog.Warningf("failed closing %q before reopening: %v", s.path, err)
		}
	}
	if err := s.open(); err != nil {
		s.rc, s.reader = nil, nil
		return errors.WithMessagef(err, "while rewinding")
	}
	return nil
}

// Close the stream. If it was opened with OpenTemporary, the file is also removed.
// It is safe to call Close more than once.
func (s *Stream) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc, s.reader = nil, nil
	if err != nil {
		err = errors.Wrapf(err, "failed to close %q", s.path)
	}
	if s.temporary {
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			klog.Warningf("failed removing temporary corpus file %q: %v", s.path, rmErr)
		}
	}
	return err
}

// CloseAll closes all streams, returning the first error.
func CloseAll(streams ...*Stream) error {
	var firstErr error
	for _, s := range streams {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
