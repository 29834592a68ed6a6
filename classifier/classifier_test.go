package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/go-imdb/dataset"
)

func TestRegistry(t *testing.T) {
	c, err := New("majority", &Config{MaxLen: 256, Epochs: 40, BatchSize: 512, ValidationSplit: 0.4})
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = New("nonexistent", &Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown classifier class")
}

func TestEndToEndWithBaseline(t *testing.T) {
	// The whole pipeline minus the network: normalized batches in, metrics out.
	examples := []dataset.Example{
		{Codes: []int{1, 4, 5, 6, 7}, Label: 1},
		{Codes: []int{1, 4, 5}, Label: 1},
		{Codes: []int{1, 4, 5, 6, 8, 9, 10}, Label: 1},
		{Codes: []int{1, 8}, Label: 0},
	}
	trainBatch, err := dataset.MakeBatch(examples, 4)
	require.NoError(t, err)

	c, err := New("majority", &Config{MaxLen: 4, ValidationSplit: 0})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Train(ctx, trainBatch))

	testBatch, err := dataset.MakeBatch([]dataset.Example{
		{Codes: []int{1, 7}, Label: 1},
		{Codes: []int{1, 8}, Label: 0},
	}, 4)
	require.NoError(t, err)

	metrics, err := c.Evaluate(ctx, testBatch)
	require.NoError(t, err)
	assert.Equal(t, 0.5, metrics.Accuracy)
	assert.Greater(t, metrics.Loss, 0.0)
}
