// Package sequence normalizes variable-length review sequences to a fixed length.
//
// Training frameworks consume rectangular batches, so every sequence is forced
// to exactly the configured target length: longer sequences are truncated from
// the tail, shorter ones padded at the tail with the <PAD> code. The policy is
// fixed (pad right, truncate right) to match how the corpus was prepared
// originally; callers pick only the target length and the pad code.
package sequence

import (
	"strconv"
	"sync"

	"github.com/gomlx/go-imdb/internal/xsync"
	"github.com/pkg/errors"
)

// InvalidLengthError is returned when the target length is not positive.
// It is a configuration error: no sequence is processed when it is returned.
type InvalidLengthError struct {
	Length int
}

func (e *InvalidLengthError) Error() string {
	return "sequence: target length must be > 0, got " + strconv.Itoa(e.Length)
}

// Normalize returns a copy of seq forced to exactly length l.
//
// If seq is longer than l, the tail is dropped; if shorter, padCode is
// appended until the length is l. The input is never aliased nor modified, so
// the result can be handed to a training framework while the caller keeps the
// original. Normalize is deterministic and has no error conditions other than
// a non-positive l.
func Normalize(seq []int, l int, padCode int) ([]int, error) {
	if l <= 0 {
		return nil, errors.WithStack(&InvalidLengthError{Length: l})
	}
	normalized := make([]int, l)
	n := copy(normalized, seq)
	for ii := n; ii < l; ii++ {
		normalized[ii] = padCode
	}
	return normalized, nil
}

// DefaultMaxParallelism bounds the number of goroutines NormalizeBatch uses.
var DefaultMaxParallelism = 16

// NormalizeBatch applies Normalize to every sequence of the batch, preserving
// the order of the sequences.
//
// Sequences are independent, so they are normalized in parallel (bounded by
// DefaultMaxParallelism); each result is written to its own slot of the
// pre-allocated output, so the result is identical to a sequential loop.
func NormalizeBatch(seqs [][]int, l int, padCode int) ([][]int, error) {
	if l <= 0 {
		return nil, errors.WithStack(&InvalidLengthError{Length: l})
	}
	normalized := make([][]int, len(seqs))
	sema := xsync.NewSemaphore(DefaultMaxParallelism)
	var wg sync.WaitGroup
	for ii, seq := range seqs {
		wg.Add(1)
		sema.Acquire()
		go func(ii int, seq []int) {
			defer wg.Done()
			defer sema.Release()
			normalized[ii], _ = Normalize(seq, l, padCode) // l already validated.
		}(ii, seq)
	}
	wg.Wait()
	return normalized, nil
}
