// Package api defines the Classifier API.
// It's just a hack to break the cyclic dependency, and allow the users to import `classifier` and get the
// default implementations.
package api

import (
	"context"

	"github.com/gomlx/go-imdb/dataset"
)

// Classifier is the narrow contract with the training/evaluation collaborator.
//
// Implementations own everything about the model: architecture, optimizer,
// loss, training loop. This library only hands them rectangular batches (see
// dataset.Batch) and reads back metrics, so any ML framework can sit behind
// this interface.
type Classifier interface {
	// Train fits the classifier on the given batch. The tail of the batch,
	// sized by Config.ValidationSplit, should be held out for validation.
	Train(ctx context.Context, batch *dataset.Batch) error

	// Evaluate returns the loss and accuracy of the trained classifier on the
	// given batch.
	Evaluate(ctx context.Context, batch *dataset.Batch) (Metrics, error)
}

// Metrics reported by Classifier.Evaluate.
type Metrics struct {
	Loss     float64
	Accuracy float64
}

// Config holds the training knobs shared by all classifier classes.
// Specific classes are free to implement additional options as they see fit.
type Config struct {
	// MaxLen is the normalized sequence length of the batches fed to the classifier.
	MaxLen int

	// Epochs to train for.
	Epochs int

	// BatchSize used by the training loop.
	BatchSize int

	// ValidationSplit is the fraction (0 to 1) of the training batch held out for validation.
	ValidationSplit float64
}
