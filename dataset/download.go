package dataset

import (
	"context"
	"log"
	"math/rand"
	"os"
	"path"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/gomlx/ml/data/downloader"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/gomlx/go-imdb/internal/files"
	"github.com/gomlx/go-imdb/internal/xsync"
)

// Generic download utilities.

// getDownloadManager returns current downloader.Manager, or creates a new one for this Corpus.
func (c *Corpus) getDownloadManager() *downloader.Manager {
	if c.downloadManager == nil {
		c.downloadManager = downloader.New().MaxParallel(c.MaxParallelDownload).WithAuthToken(c.authToken)
	}
	return c.downloadManager
}

// Download fetches all corpus files that are not yet in the cache directory.
//
// Files are downloaded in parallel, bounded by MaxParallelDownload. It is safe
// to call from multiple processes sharing the same cache: per-file locks make
// sure each file is downloaded once.
func (c *Corpus) Download(ctx context.Context) error {
	fileNames := []string{WordIndexFileName, TrainFileName, TestFileName}
	sema := xsync.NewSemaphore(c.MaxParallelDownload)
	var wg sync.WaitGroup
	var muErr sync.Mutex
	var firstErr error
	for _, fileName := range fileNames {
		wg.Add(1)
		sema.Acquire()
		go func(fileName string) {
			defer wg.Done()
			defer sema.Release()
			_, err := c.downloadIfNeeded(ctx, fileName, false)
			if err != nil {
				muErr.Lock()
				if firstErr == nil {
					firstErr = err
				}
				muErr.Unlock()
			}
		}(fileName)
	}
	wg.Wait()
	return firstErr
}

// downloadIfNeeded returns the local path of the given corpus file, downloading it first
// if it is not in the cache. The returned path can be read, but shouldn't be modified, since
// other programs may share the same cache.
func (c *Corpus) downloadIfNeeded(ctx context.Context, fileName string, forceDownload bool) (string, error) {
	filePath, err := c.localPath(fileName)
	if err != nil {
		return "", err
	}
	if files.Exists(filePath) && !forceDownload {
		return filePath, nil
	}

	var progressCallback downloader.ProgressCallback
	if c.useProgressBar {
		progressCallback = newProgressBarCallback(fileName)
	}
	err = c.lockedDownload(ctx, c.fileURL(fileName), filePath, forceDownload, progressCallback)
	if err != nil {
		return "", errors.WithMessagef(err, "failed to download corpus file %q", fileName)
	}
	if c.Verbosity >= 1 {
		if stat, statErr := os.Stat(filePath); statErr == nil {
			log.Printf("Downloaded %s (%s)", fileName, humanize.Bytes(uint64(stat.Size())))
		}
	}
	return filePath, nil
}

// newProgressBarCallback returns a downloader.ProgressCallback that renders a byte-level
// progress bar for the file being downloaded.
func newProgressBarCallback(fileName string) downloader.ProgressCallback {
	var bar *progressbar.ProgressBar
	return func(downloadedBytes, totalBytes int64) {
		if bar == nil {
			bar = progressbar.DefaultBytes(totalBytes, fileName)
		}
		_ = bar.Set64(downloadedBytes)
	}
}

// lockedDownload url to the given filePath.
//
// If filePath exists and forceDownload is false, it is assumed to already have been correctly downloaded, and it will return immediately.
//
// It downloads the file to filePath+".downloading" and then atomically moves it to filePath.
//
// It uses a temporary filePath+".lock" to coordinate multiple processes/programs trying to download the same file at the same time.
func (c *Corpus) lockedDownload(ctx context.Context, url, filePath string, forceDownload bool, progressCallback downloader.ProgressCallback) error {
	if files.Exists(filePath) {
		if !forceDownload {
			return nil
		}
		err := os.Remove(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to remove %q while force-downloading %q", filePath, url)
		}
	}

	// Checks whether context has already been cancelled, and exit immediately.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Create directory for file.
	if err := os.MkdirAll(path.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}

	// Lock file to avoid parallel downloads.
	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		if files.Exists(filePath) {
			// Some concurrent other process (or goroutine) already downloaded the file.
			return
		}

		// Create tmpFile where to download.
		var tmpFileClosed bool
		tmpPath := filePath + ".downloading"
		tmpFile, err := os.Create(tmpPath)
		if err != nil {
			mainErr = errors.Wrapf(err, "creating temporary file for download in %q", tmpPath)
			return
		}
		defer func() {
			// If we exit with an error, make sure to close and remove unfinished temporary file.
			if !tmpFileClosed {
				err := tmpFile.Close()
				if err != nil {
					log.Printf("Failed closing temporary file %q: %v", tmpPath, err)
				}
				err = os.Remove(tmpPath)
				if err != nil {
					log.Printf("Failed removing temporary file %q: %v", tmpPath, err)
				}
			}
		}()

		downloadManager := c.getDownloadManager()
		mainErr = downloadManager.Download(ctx, url, tmpPath, progressCallback)
		if mainErr != nil {
			mainErr = errors.WithMessagef(mainErr, "while downloading %q to %q", url, tmpPath)
			return
		}

		// Download succeeded, move to our target location.
		tmpFileClosed = true
		if err := tmpFile.Close(); err != nil {
			mainErr = errors.Wrapf(err, "failed to close temporary download file %q", tmpPath)
			return
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, filePath)
			return
		}

		// File already exists, so we no longer need the lock file.
		err = os.Remove(lockPath)
		if err != nil {
			log.Printf("Warning: error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to download %q", lockPath, url)
	}
	return nil
}

// execOnFileLock opens the lockPath file (or creates if it doesn't yet exist), locks it, and executes the function.
// If the lockPath is already locked, it polls with a 1 to 2 seconds period (randomly), until it acquires the lock.
//
// The lockPath is not removed. It's safe to remove it from the given fn, if one knows that no new calls to
// execOnFileLock with the same lockPath is going to be made.
func execOnFileLock(lockPath string, fn func()) (err error) {
	var f *os.File
	f, err = os.OpenFile(lockPath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, DefaultFileCreationPerm)
	if err != nil {
		err = errors.Wrapf(err, "while locking %q", lockPath)
		return
	}
	defer func() {
		err := f.Close()
		if err != nil {
			log.Printf("failed to close lock file %q", lockPath)
		}
	}()

	// Acquire lock, polling while some other process holds it.
	for {
		err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, syscall.EAGAIN) {
			err = errors.Wrapf(err, "while locking %q", lockPath)
			return err
		}

		// Wait from 1 to 2 seconds.
		time.Sleep(time.Millisecond * time.Duration(1000+rand.Intn(1000)))
	}

	// Setup clean up in a deferred function, so it happens even if `fn()` panics.
	defer func() {
		unlockErr := syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		if err == nil && unlockErr != nil {
			err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
		}
	}()

	// We got the lock, run the function.
	fn()

	return
}
