package corpus

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/go-bitext/internal/compressed"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Shuffler creates row-shuffled copies of a set of aligned corpus files.
//
// The returned streams are in the same order as paths, and line i of each of them comes from the same
// line of the original files. Callers own the returned streams and must close them.
type Shuffler interface {
	Shuffle(paths ...string) ([]*Stream, error)
}

// FileShuffler implements Shuffler by loading the files in memory, permuting the lines and writing
// the shuffled copies to disk. Create it with NewShuffler.
type FileShuffler struct {
	rng       *rand.Rand
	dir       string
	temporary bool
}

// Compile time assert that FileShuffler implements Shuffler.
var _ Shuffler = &FileShuffler{}

// NewShuffler returns a FileShuffler using rng to draw the permutations.
//
// By default, the shuffled copies are written to os.TempDir() and are temporary: they are removed
// when the returned streams are closed. See WithDir and WithTemporary.
func NewShuffler(rng *rand.Rand) *FileShuffler {
	return &FileShuffler{
		rng:       rng,
		dir:       os.TempDir(),
		temporary: true,
	}
}

// WithDir sets the directory where shuffled copies are written.
func (fs *FileShuffler) WithDir(dir string) *FileShuffler {
	fs.dir = dir
	return fs
}

// WithTemporary sets whether shuffled copies are removed when their streams are closed. Default is true.
func (fs *FileShuffler) WithTemporary(temporary bool) *FileShuffler {
	fs.temporary = temporary
	return fs
}

// Shuffle implements Shuffler.
//
// All files must have the same number of lines.
func (fs *FileShuffler) Shuffle(paths ...string) ([]*Stream, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	columns := make([][]string, len(paths))
	for ii, p := range paths {
		lines, err := readAllLines(p)
		if err != nil {
			return nil, errors.WithMessagef(err, "while shuffling")
		}
		if ii > 0 && len(lines) != len(columns[0]) {
			return nil, errors.Errorf("cannot shuffle misaligned corpora: %q has %d lines, %q has %d lines",
				paths[0], len(columns[0]), p, len(lines))
		}
		columns[ii] = lines
	}
	perm := fs.rng.Perm(len(columns[0]))

	if err := os.MkdirAll(fs.dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory %q for shuffled corpora", fs.dir)
	}
	outPaths := make([]string, len(paths))
	for ii, p := range paths {
		base := filepath.Base(compressed.TrimExt(p))
		outPaths[ii] = filepath.Join(fs.dir, fmt.Sprintf("%s.%s.shuf", base, uuid.NewString()))
	}

	var g errgroup.Group
	for ii := range paths {
		g.Go(func() error {
			return writeLines(outPaths[ii], columns[ii], perm)
		})
	}
	if err := g.Wait(); err != nil {
		removeAll(outPaths)
		return nil, err
	}

	streams := make([]*Stream, 0, len(outPaths))
	for _, p := range outPaths {
		var s *Stream
		var err error
		if fs.temporary {
			s, err = OpenTemporary(p)
		} else {
			s, err = Open(p)
		}
		if err != nil {
			_ = CloseAll(streams...)
			removeAll(outPaths)
			return nil, err
		}
		streams = append(streams, s)
	}
	return streams, nil
}

// readAllLines of filePath, decompressing it if needed.
func readAllLines(filePath string) ([]string, error) {
	s, err := Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.Close() }()
	var lines []string
	for {
		line, err := s.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// writeLines writes lines[perm[i]] for each i, one per line.
func writeLines(filePath string, lines []string, perm []int) error {
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create shuffled corpus %q", filePath)
	}
	w := bufio.NewWriter(f)
	var size uint64
	for _, idx := range perm {
		n, err := w.WriteString(lines[idx])
		if err == nil {
			err = w.WriteByte('\n')
		}
		if err != nil {
			_ = f.Close()
			return errors.Wrapf(err, "failed writing shuffled corpus %q", filePath)
		}
		size += uint64(n) + 1
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed writing shuffled corpus %q", filePath)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close shuffled corpus %q", filePath)
	}
	klog.V(1).Infof("shuffled %s lines (%s) into %q", humanize.Comma(int64(len(perm))), humanize.Bytes(size), filePath)
	return nil
}

func removeAll(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			klog.Warningf("failed removing %q: %v", p, err)
		}
	}
}
