// Package bitext only holds the version of the set of tools to stream parallel corpora into training batches.
//
// There are 4 main sub-packages:
//
//   - dataset: the batch iterator mixing real parallel data with pseudo-parallel data.
//   - corpus: line-aligned text streams (plain or compressed) and the on-disk shuffler.
//   - vocab: vocabulary dictionaries and the mapping of tokens to indices.
//   - noise: word dropout and local permutation used to corrupt pseudo-source sentences.
//
// Remote corpora and dictionaries can be downloaded into a local cache with the fetch package.
package bitext

// Version of the library.
// Manually kept in sync with project releases.
var Version = "v0.0.0-dev"
