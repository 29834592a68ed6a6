package dataset

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// corpusServer serves the three fixture files over HTTP and counts requests.
func corpusServer(t *testing.T, fixtures map[string]any, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		value, found := fixtures[path.Base(r.URL.Path)]
		if !found {
			http.NotFound(w, r)
			return
		}
		contents, err := json.Marshal(value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(contents)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDownload(t *testing.T) {
	wordIndex := testWordIndex()
	train := []Example{{Codes: []int{1, 4, 5, 6, 7}, Label: 1}}
	test := []Example{{Codes: []int{1, 8}, Label: 0}}
	fixtures := map[string]any{
		WordIndexFileName: wordIndex,
		TrainFileName:     train,
		TestFileName:      test,
	}

	var requests atomic.Int64
	server := corpusServer(t, fixtures, &requests)

	// Empty cache: Download must fetch all three files from the server.
	cacheDir := t.TempDir()
	c := New().WithBaseURL(server.URL).WithCacheDir(cacheDir).WithProgressBar(false)
	c.Verbosity = 0

	ctx := context.Background()
	require.NoError(t, c.Download(ctx))
	fetched := requests.Load()
	assert.GreaterOrEqual(t, fetched, int64(len(fixtures)))

	for fileName := range fixtures {
		filePath := path.Join(cacheDir, fileName)
		assert.FileExists(t, filePath)
		// Locks and partial downloads are cleaned up once the file landed.
		assert.NoFileExists(t, filePath+".lock")
		assert.NoFileExists(t, filePath+".downloading")
	}

	// The cached word index is byte-parseable back to the fixture.
	contents, err := os.ReadFile(path.Join(cacheDir, WordIndexFileName))
	require.NoError(t, err)
	var gotIndex map[string]int
	require.NoError(t, json.Unmarshal(contents, &gotIndex))
	assert.Equal(t, wordIndex, gotIndex)

	// A second Download finds everything cached and never hits the server.
	require.NoError(t, c.Download(ctx))
	assert.Equal(t, fetched, requests.Load())

	// Load now runs entirely off the cache too.
	data, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, train, data.Train)
	assert.Equal(t, test, data.Test)
	assert.Equal(t, fetched, requests.Load())
}

func TestDownloadMissingFile(t *testing.T) {
	// Server only knows the word index: Download must surface the 404s.
	var requests atomic.Int64
	server := corpusServer(t, map[string]any{WordIndexFileName: testWordIndex()}, &requests)

	c := New().WithBaseURL(server.URL).WithCacheDir(t.TempDir()).WithProgressBar(false)
	c.Verbosity = 0
	err := c.Download(context.Background())
	require.Error(t, err)

	// Nothing half-written stays behind for the missing shards.
	for _, fileName := range []string{TrainFileName, TestFileName} {
		assert.NoFileExists(t, path.Join(c.cacheDir, fileName))
		assert.NoFileExists(t, path.Join(c.cacheDir, fileName+".downloading"))
	}
}
