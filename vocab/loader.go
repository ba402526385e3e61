package vocab

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/gomlx/go-bitext/internal/compressed"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoaderFunc creates a Dictionary from the file in filePath.
// Implementations don't need to set the Dictionary path, Load does it.
type LoaderFunc func(filePath string) (*Dictionary, error)

// RegisterLoader registers the loader for files with the given extension (e.g.: ".json").
//
// Loaders for other formats, like the SentencePiece one in the sentencepiece sub-package, register
// themselves on import.
func RegisterLoader(ext string, loader LoaderFunc) {
	registerOfLoaders[strings.ToLower(ext)] = loader
}

var (
	registerOfLoaders = make(map[string]LoaderFunc)
)

func init() {
	RegisterLoader(".json", loadJSON)
	RegisterLoader(".yaml", loadYAML)
	RegisterLoader(".yml", loadYAML)
}

// Load a dictionary from filePath, using the loader registered for its extension.
//
// A compression extension is ignored when choosing the loader, so "vocab.json.gz" is read as a gzip
// compressed ".json" file.
func Load(filePath string) (*Dictionary, error) {
	ext := strings.ToLower(filepath.Ext(compressed.TrimExt(filePath)))
	loader, found := registerOfLoaders[ext]
	if !found {
		return nil, errors.Errorf("unknown dictionary format %q for %q", ext, filePath)
	}
	d, err := loader(filePath)
	if err != nil {
		return nil, err
	}
	d.path = filePath
	return d, nil
}

// readFile reads the whole content of filePath, decompressing it if needed.
func readFile(filePath string) ([]byte, error) {
	rc, err := compressed.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %q", filePath)
	}
	return content, nil
}

// loadJSON reads a JSON object mapping tokens to indices, e.g. `{"eos": 0, "UNK": 1, "the": 2}`.
func loadJSON(filePath string) (*Dictionary, error) {
	content, err := readFile(filePath)
	if err != nil {
		return nil, err
	}
	d, err := ParseJSON(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	return d, nil
}

// ParseJSON parses the given json content (an object mapping tokens to indices) into a Dictionary.
func ParseJSON(jsonContent []byte) (*Dictionary, error) {
	index := make(map[string]int)
	if err := json.Unmarshal(jsonContent, &index); err != nil {
		return nil, errors.Wrapf(err, "failed to parse dictionary json content")
	}
	return fromIndex(index)
}

// loadYAML reads a YAML mapping of tokens to indices.
func loadYAML(filePath string) (*Dictionary, error) {
	content, err := readFile(filePath)
	if err != nil {
		return nil, err
	}
	d, err := ParseYAML(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	return d, nil
}

// ParseYAML parses the given yaml content (a mapping of tokens to indices) into a Dictionary.
func ParseYAML(yamlContent []byte) (*Dictionary, error) {
	index := make(map[string]int)
	if err := yaml.Unmarshal(yamlContent, &index); err != nil {
		return nil, errors.Wrapf(err, "failed to parse dictionary yaml content")
	}
	return fromIndex(index)
}

func fromIndex(index map[string]int) (*Dictionary, error) {
	for token, idx := range index {
		if idx < 0 {
			return nil, errors.Errorf("dictionary token %q has negative index %d", token, idx)
		}
	}
	return &Dictionary{index: index}, nil
}
