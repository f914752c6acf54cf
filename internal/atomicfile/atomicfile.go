// Package atomicfile replaces files so readers never observe partial content.
package atomicfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"vault-planning/internal/apperr"
)

// replaceFile is swapped in tests to simulate rename failures.
var replaceFile = atomic.ReplaceFile

// WriteFile writes data to a temporary sibling of path and renames it over
// path. If the rename reports that the target exists, the target is removed
// and the rename retried. On failure the temporary file is removed.
func WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return apperr.Wrap(apperr.FileWriteError, err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return apperr.Wrap(apperr.FileWriteError, err, "write %s", tmpName)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return apperr.Wrap(apperr.FileWriteError, err, "sync %s", tmpName)
	}
	if err = tmp.Close(); err != nil {
		return apperr.Wrap(apperr.FileWriteError, err, "close %s", tmpName)
	}

	err = replaceFile(tmpName, path)
	if err != nil && errors.Is(err, fs.ErrExist) {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return apperr.Wrap(apperr.FileWriteError, rmErr, "remove %s before replace", path)
		}
		err = replaceFile(tmpName, path)
	}
	if err != nil {
		return apperr.Wrap(apperr.FileWriteError, err, "replace %s", path)
	}
	return nil
}
