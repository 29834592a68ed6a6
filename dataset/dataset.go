// Package dataset downloads, caches and parses the raw IMDB movie-review corpus.
//
// The corpus is three files served from a fixed base URL:
//
//   - "imdb_word_index.json": the raw (unshifted) word->code table.
//   - "imdb_train.json" and "imdb_test.json": review shards, each a JSON array
//     of objects `{"codes": [...], "label": 0|1}` with the codes already
//     shifted to the vocabulary convention (see package vocab).
//
// Files are cached on disk (usually under "~/.cache/go-imdb") and downloads
// are coordinated with file locks, so multiple programs or processes can
// share the same cache.
package dataset

import (
	"fmt"
	"log"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/gomlx/gomlx/ml/data/downloader"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	imdb "github.com/gomlx/go-imdb"
	"github.com/gomlx/go-imdb/internal/files"
)

// SessionId is unique and always created anew at the start of the program, and used during the life of the program.
var SessionId string

// panicf generates an error message and panics with it, in one function.
func panicf(format string, args ...any) {
	err := errors.Errorf(format, args...)
	panic(err)
}

func init() {
	sessionUUID, err := uuid.NewRandom()
	if err != nil {
		panicf("failed generating UUID for SessionId: %v", err)
	}
	SessionId = strings.Replace(sessionUUID.String(), "-", "", -1)
}

var (
	// DefaultDirCreationPerm is used when creating new cache subdirectories.
	DefaultDirCreationPerm = os.FileMode(0755)

	// DefaultFileCreationPerm is used when creating files inside the cache subdirectories.
	DefaultFileCreationPerm = os.FileMode(0644)
)

// Corpus file names, relative to the base URL and to the cache directory.
const (
	WordIndexFileName = "imdb_word_index.json"
	TrainFileName     = "imdb_train.json"
	TestFileName      = "imdb_test.json"
)

// DefaultBaseURL serves the corpus files.
const DefaultBaseURL = "https://storage.googleapis.com/tensorflow/tf-keras-datasets"

func getEnvOr(key, defaultValue string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v
}

// DefaultCacheDir for the corpus files.
//
// Its prefix is either `${XDG_CACHE_HOME}` if set, or `~/.cache` otherwise. Followed by `/go-imdb/`.
// So typically: `~/.cache/go-imdb/`.
func DefaultCacheDir() string {
	cacheDir := getEnvOr("XDG_CACHE_HOME", path.Join(os.Getenv("HOME"), ".cache"))
	return path.Join(cacheDir, "go-imdb")
}

// DefaultHttpUserAgent returns a user agent to use when downloading the corpus.
func DefaultHttpUserAgent() string {
	return fmt.Sprintf("go-imdb/%v; golang/%s; session_id/%s",
		imdb.Version, runtime.Version(), SessionId)
}

// Corpus from which one wants to download and load the review files. Create it with New.
type Corpus struct {
	// baseURL serving the corpus files, defaults to DefaultBaseURL.
	baseURL string

	// authToken sent as a bearer token when downloading the files, if set.
	authToken string

	// Verbosity: 0 for quiet operation; 1 for information about progress; 2 and higher for debugging.
	Verbosity int

	// MaxParallelDownload indicates how many files to download at the same time. Default is 3 (one
	// per corpus file). Set to 1 to make downloads sequential.
	MaxParallelDownload int

	// cacheDir is where to store the downloaded files.
	cacheDir string

	downloadManager *downloader.Manager

	useProgressBar bool
}

// New creates a reference to the IMDB review corpus.
//
// It uses the default cache directory in ${XDG_CACHE_HOME} (if set) or `~/.cache`, under "go-imdb".
// The cache is shared across programs using this library.
// Use Corpus.WithCacheDir to change it.
//
// The files are fetched from DefaultBaseURL, overridable with the IMDB_BASE_URL environment
// variable or Corpus.WithBaseURL -- useful to point at a mirror.
func New() *Corpus {
	baseURL := os.Getenv("IMDB_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	} else {
		baseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &Corpus{
		baseURL:             baseURL,
		cacheDir:            DefaultCacheDir(),
		Verbosity:           1,
		MaxParallelDownload: 3,
		useProgressBar:      true,
	}
}

// WithAuth sets the authentication token to use during downloads.
//
// Setting it to empty ("") is the same as resetting and not using authentication.
func (c *Corpus) WithAuth(authToken string) *Corpus {
	c.authToken = authToken
	return c
}

// WithBaseURL sets the base URL from which the corpus files are downloaded.
func (c *Corpus) WithBaseURL(baseURL string) *Corpus {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// WithCacheDir sets the cacheDir to the given directory.
//
// The default is given by DefaultCacheDir: `${XDG_CACHE_HOME}/go-imdb` if set, or `~/.cache/go-imdb` otherwise.
func (c *Corpus) WithCacheDir(cacheDir string) *Corpus {
	newCacheDir, err := files.ReplaceTildeInDir(cacheDir)
	if err == nil {
		c.cacheDir = path.Clean(newCacheDir)
	} else {
		log.Printf("Failed to resolve directory for %q: %+v", cacheDir, err)
	}
	return c
}

// WithDownloadManager sets the downloader.Manager to use for download.
// This is not needed, one will be created automatically if one is not set.
// This is useful when downloading multiple corpora simultaneously, to coordinate limits by sharing
// the download manager.
func (c *Corpus) WithDownloadManager(manager *downloader.Manager) *Corpus {
	c.downloadManager = manager
	return c
}

// WithProgressBar configures the usage of progress bar during download. Defaults to true.
func (c *Corpus) WithProgressBar(useProgressBar bool) *Corpus {
	c.useProgressBar = useProgressBar
	return c
}

// fileURL returns the URL from which to download the given corpus file.
func (c *Corpus) fileURL(fileName string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, fileName)
}

// localPath returns the path of the given corpus file in the cache directory.
// It also creates the cache directory, and returns an error if creation failed.
func (c *Corpus) localPath(fileName string) (string, error) {
	if err := os.MkdirAll(c.cacheDir, DefaultDirCreationPerm); err != nil {
		return "", errors.Wrapf(err, "while creating cache directory %q", c.cacheDir)
	}
	return path.Join(c.cacheDir, fileName), nil
}

// String implements fmt.Stringer.
func (c *Corpus) String() string {
	return fmt.Sprintf("IMDB corpus @ %s", c.baseURL)
}
