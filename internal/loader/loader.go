// Package loader parses many bibtex files at once.
package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/drgo/bibtex"
	"go.uber.org/zap"
)

var desiredExtensions = map[string]bool{
	".bib":    true,
	".bibtex": true,
}

func hasDesiredExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)]
}

// Error ties a failure to the file it came from.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Collect expands paths: files are kept as given, directories are walked
// for .bib and .bibtex files.
func Collect(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		err = filepath.WalkDir(path, func(filePath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && hasDesiredExtension(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking directory %s: %w", path, err)
		}
	}
	return files, nil
}

// LoadFiles parses every file named by paths with at most NumCPU parses in
// flight. Files come back in the order of paths. When parses fail the
// error of the earliest failing file is returned, as an *Error.
func LoadFiles(ctx context.Context, logger *zap.Logger, paths []string, opts bibtex.Options) ([]*bibtex.File, error) {
	files, err := Collect(paths)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]*bibtex.File, len(files))
	errs := make([]error, len(files))

	// limit the number of workers
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

loop:
	for i, path := range files {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			f, err := bibtex.ParseReader(nil, path, opts)
			if err != nil {
				logger.Error("Error parsing file", zap.String("file", path), zap.Error(err))
				errs[i] = &Error{Path: path, Err: err}
				return
			}
			logger.Debug("Parsed file", zap.String("file", path), zap.Int("entries", f.EntryCount()))
			results[i] = f
		}(i, path)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
