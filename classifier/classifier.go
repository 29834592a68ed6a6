// Package classifier connects the prepared IMDB batches to a pluggable
// training/evaluation collaborator.
//
// Classifier classes register themselves by name; New resolves a name to an
// instance. The library ships only the "majority" baseline -- real models
// (GoMLX, bindings to other frameworks, ...) plug in through the same
// registry without this package knowing about them.
package classifier

import (
	"github.com/pkg/errors"

	"github.com/gomlx/go-imdb/classifier/api"
	"github.com/gomlx/go-imdb/classifier/baseline"
)

// Classifier is the narrow contract with the training/evaluation collaborator.
//
// Implementations own everything about the model: architecture, optimizer,
// loss, training loop. This library only hands them rectangular batches and
// reads back metrics.
type Classifier = api.Classifier

// Metrics reported by Classifier.Evaluate.
type Metrics = api.Metrics

// Config holds the training knobs shared by all classifier classes.
type Config = api.Config

// New creates a classifier of the given registered class.
//
// It returns an error if the class name was never registered.
func New(class string, config *Config) (Classifier, error) {
	constructor, found := registerOfClasses[class]
	if !found {
		return nil, errors.Errorf("unknown classifier class %q", class)
	}
	return constructor(config)
}

// Constructor is used by Classifier implementations to provide implementations for different
// classifier classes.
type Constructor func(config *api.Config) (api.Classifier, error)

// Register used by Classifier implementations.
func Register(class string, constructor Constructor) {
	registerOfClasses[class] = constructor
}

var (
	registerOfClasses = make(map[string]Constructor)
)

func init() {
	// Initialize the baseline classifier class, always included.
	Register("majority", baseline.New)
}
