// Package baseline implements a classifier.Classifier that always predicts the
// majority class of its training data.
//
// It involves no gradients and no ML framework: it exists as a sanity floor
// for real models (a sentiment model that cannot beat it learned nothing) and
// as the reference implementation of the classifier registry.
package baseline

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/gomlx/go-imdb/classifier/api"
	"github.com/gomlx/go-imdb/dataset"
)

// New creates a majority-class baseline classifier.
//
// It implements a classifier.Constructor function signature.
func New(config *api.Config) (api.Classifier, error) {
	if config.ValidationSplit < 0 || config.ValidationSplit >= 1 {
		return nil, errors.Errorf("validation split must be in [0, 1), got %g", config.ValidationSplit)
	}
	return &Classifier{config: config}, nil
}

// Classifier predicts the positive class with a constant probability: the
// frequency of positive labels seen during Train.
type Classifier struct {
	config *api.Config

	trained bool

	// positiveRate is the fraction of positive labels in the training split.
	positiveRate float64
}

// Compile time assert that baseline.Classifier implements classifier.Classifier interface.
var _ api.Classifier = &Classifier{}

// Train records the positive-label frequency of the batch, minus the
// validation tail.
func (c *Classifier) Train(ctx context.Context, batch *dataset.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n := len(batch.Labels)
	validation := int(float64(n) * c.config.ValidationSplit)
	n -= validation
	if n <= 0 {
		return errors.Errorf("no training examples left: batch of %d with validation split %g",
			len(batch.Labels), c.config.ValidationSplit)
	}
	positives := 0
	for _, label := range batch.Labels[:n] {
		positives += label
	}
	c.positiveRate = float64(positives) / float64(n)
	c.trained = true
	return nil
}

// Evaluate returns the binary cross-entropy loss and the accuracy of the
// constant predictor over the batch.
func (c *Classifier) Evaluate(ctx context.Context, batch *dataset.Batch) (api.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return api.Metrics{}, err
	}
	if !c.trained {
		return api.Metrics{}, errors.New("baseline classifier must be trained before evaluation")
	}
	if len(batch.Labels) == 0 {
		return api.Metrics{}, errors.New("cannot evaluate on an empty batch")
	}

	// Clamp the constant probability away from 0 and 1 so the log-loss stays finite.
	const epsilon = 1e-7
	p := math.Min(math.Max(c.positiveRate, epsilon), 1-epsilon)
	predicted := 0
	if c.positiveRate >= 0.5 {
		predicted = 1
	}

	var loss float64
	correct := 0
	for _, label := range batch.Labels {
		if label == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
		if label == predicted {
			correct++
		}
	}
	n := float64(len(batch.Labels))
	return api.Metrics{
		Loss:     loss / n,
		Accuracy: float64(correct) / n,
	}, nil
}
