// Package sentencepiece loads vocab.Dictionary objects from SentencePiece model files.
//
// Importing it registers the loader for the ".model" extension with vocab.RegisterLoader:
//
//	import _ "github.com/gomlx/go-bitext/vocab/sentencepiece"
package sentencepiece

import (
	"strings"
	"unicode"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/gomlx/go-bitext/vocab"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

func init() {
	vocab.RegisterLoader(".model", Load)
}

// Load creates a dictionary from the "*.model" file, which must be a SentencePiece Model proto.
//
// Each piece id is decoded to its surface form, and the surface form is mapped to the id. Special pieces
// (unknown, padding, beginning and end of sentence), pieces that decode to nothing and pieces containing
// whitespace are skipped. If two ids decode to the same surface form, the lowest id is kept.
//
// It implements a vocab.LoaderFunc function signature.
func Load(filePath string) (*vocab.Dictionary, error) {
	proc, err := esentencepiece.NewProcessorFromPath(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece processor from %q", filePath)
	}
	info := proc.ModelInfo()
	special := map[int]bool{
		info.UnknownID:             true,
		info.PadID:                 true,
		info.BeginningOfSentenceID: true,
		info.EndOfSentenceID:       true,
	}
	index := make(map[string]int, info.VocabularySize)
	var skipped int
	for id := 0; id < info.VocabularySize; id++ {
		if special[id] {
			continue
		}
		piece := strings.TrimSpace(proc.Decode([]int{id}))
		if piece == "" || strings.IndexFunc(piece, unicode.IsSpace) != -1 {
			skipped++
			continue
		}
		if _, found := index[piece]; found {
			skipped++
			continue
		}
		index[piece] = id
	}
	if len(index) == 0 {
		return nil, errors.Errorf("sentencepiece model %q has no usable pieces", filePath)
	}
	klog.V(1).Infof("sentencepiece dictionary %q: %d entries, %d pieces skipped", filePath, len(index), skipped)
	return vocab.New(index), nil
}
