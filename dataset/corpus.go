package dataset

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/gomlx/go-imdb/sequence"
	"github.com/gomlx/go-imdb/vocab"
)

// Example is one labeled review: its token codes (already shifted to the
// vocabulary convention) and its sentiment label, 0 for negative, 1 for
// positive. Labels come from the corpus and are never altered by this library.
type Example struct {
	Codes []int `json:"codes"`
	Label int   `json:"label"`
}

// Data holds the loaded corpus: the train and test shards plus the built
// vocabulary index. Create it with Corpus.Load.
type Data struct {
	Train, Test []Example
	Index       *vocab.Index
}

// WordIndex downloads (if needed) and parses the raw word->code table.
//
// The returned codes are raw, unshifted. Most users want Corpus.Load instead,
// which builds the shifted vocab.Index from this table.
func (c *Corpus) WordIndex(ctx context.Context) (map[string]int, error) {
	filePath, err := c.downloadIfNeeded(ctx, WordIndexFileName, false)
	if err != nil {
		return nil, err
	}
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read word index from %q -- remove the file if you want to have it re-downloaded", filePath)
	}
	var wordIndex map[string]int
	if err = json.Unmarshal(contents, &wordIndex); err != nil {
		return nil, errors.Wrapf(err, "failed to parse word index in %q (downloaded from %q)",
			filePath, c.fileURL(WordIndexFileName))
	}
	return wordIndex, nil
}

// readExamples downloads (if needed) and parses one review shard.
func (c *Corpus) readExamples(ctx context.Context, fileName string) ([]Example, error) {
	filePath, err := c.downloadIfNeeded(ctx, fileName, false)
	if err != nil {
		return nil, err
	}
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read review shard from %q -- remove the file if you want to have it re-downloaded", filePath)
	}
	var examples []Example
	if err = json.Unmarshal(contents, &examples); err != nil {
		return nil, errors.Wrapf(err, "failed to parse review shard in %q (downloaded from %q)",
			filePath, c.fileURL(fileName))
	}
	for ii, example := range examples {
		if example.Label != 0 && example.Label != 1 {
			return nil, errors.Errorf("review #%d of %q has label %d, expected 0 (negative) or 1 (positive)",
				ii, fileName, example.Label)
		}
	}
	return examples, nil
}

// Load downloads the corpus files (if needed), builds the vocabulary index
// from the word-index table and parses the train and test shards.
func (c *Corpus) Load(ctx context.Context) (*Data, error) {
	if err := c.Download(ctx); err != nil {
		return nil, err
	}
	wordIndex, err := c.WordIndex(ctx)
	if err != nil {
		return nil, err
	}
	index, err := vocab.New(wordIndex)
	if err != nil {
		return nil, errors.WithMessagef(err, "while building vocabulary index from %q", WordIndexFileName)
	}
	train, err := c.readExamples(ctx, TrainFileName)
	if err != nil {
		return nil, err
	}
	test, err := c.readExamples(ctx, TestFileName)
	if err != nil {
		return nil, err
	}
	if c.Verbosity >= 1 {
		log.Printf("Loaded IMDB corpus: %d train / %d test reviews, vocabulary of %d tokens",
			len(train), len(test), index.Len())
	}
	return &Data{Train: train, Test: test, Index: index}, nil
}

// Batch is a rectangular batch ready for a training framework: every sequence
// has the same length, and Labels[i] is the label of Sequences[i].
type Batch struct {
	Sequences [][]int
	Labels    []int
}

// MakeBatch normalizes every example to length maxLen (truncating or padding
// with the <PAD> code) and pairs each normalized sequence with its label,
// preserving the order of the examples.
func MakeBatch(examples []Example, maxLen int) (*Batch, error) {
	seqs := make([][]int, len(examples))
	labels := make([]int, len(examples))
	for ii, example := range examples {
		seqs[ii] = example.Codes
		labels[ii] = example.Label
	}
	normalized, err := sequence.NormalizeBatch(seqs, maxLen, vocab.PadCode)
	if err != nil {
		return nil, err
	}
	return &Batch{Sequences: normalized, Labels: labels}, nil
}

// TrainBatch is a shortcut for MakeBatch over the train shard.
func (d *Data) TrainBatch(maxLen int) (*Batch, error) {
	return MakeBatch(d.Train, maxLen)
}

// TestBatch is a shortcut for MakeBatch over the test shard.
func (d *Data) TestBatch(maxLen int) (*Batch, error) {
	return MakeBatch(d.Test, maxLen)
}

// Sample returns the decoded text of the i-th train review, for inspection.
// The text is diagnostics only, it is never fed back into training.
func (d *Data) Sample(i int) (string, error) {
	if i < 0 || i >= len(d.Train) {
		return "", errors.Errorf("sample index %d out of range, corpus has %d train reviews", i, len(d.Train))
	}
	return d.Index.Decode(d.Train[i].Codes), nil
}
