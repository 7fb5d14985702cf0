package nester

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/emirpasic/gods/sets/treeset"

	"aspect.build/usenest/internal/logger"
	"aspect.build/usenest/nester/common/treesitter"
	"aspect.build/usenest/nester/rust/rustconfig"
)

const (
	MaxWorkerCount = 12
)

// FileResult is the outcome of normalizing one file.
type FileResult struct {
	Path string

	// Whether the file's use declarations were not normalized yet. In write
	// mode the file has been rewritten.
	Changed bool

	// The normalized contents. Not set in write mode.
	Output []byte

	Err error
}

// Runner normalizes files on disk, each with the configuration of its
// directory.
type Runner struct {
	Parser  *treesitter.Parser
	Configs *rustconfig.Loader

	// Rewrite changed files instead of returning their output.
	Write bool
}

// CollectSourceFiles expands args into the sorted set of Rust files to
// process. An argument is a file, a directory searched recursively, or a
// doublestar glob pattern. Files matching an exclude pattern of their
// directory's configuration are dropped, unless named explicitly.
func (r *Runner) CollectSourceFiles(args []string) (*treeset.Set, error) {
	sourceFiles := treeset.NewWithStringComparator()

	add := func(f string, explicit bool) error {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		if !explicit {
			excluded, err := r.isExcluded(abs)
			if err != nil {
				return err
			}
			if excluded {
				logger.Tracef("excluded: %s", abs)
				return nil
			}
		}
		logger.Tracef("SourceFile: %s", abs)
		sourceFiles.Add(abs)
		return nil
	}

	for _, arg := range args {
		info, statErr := os.Stat(arg)
		switch {
		case statErr == nil && info.IsDir():
			matches, err := doublestar.Glob(os.DirFS(arg), "**/*.rs")
			if err != nil {
				return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
			}
			for _, m := range matches {
				if err := add(filepath.Join(arg, filepath.FromSlash(m)), false); err != nil {
					return nil, err
				}
			}
		case statErr == nil:
			if err := add(arg, true); err != nil {
				return nil, err
			}
		default:
			matches, err := doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no such file or matching files: %s", arg)
			}
			for _, m := range matches {
				if isSourceFileType(m) {
					if err := add(m, false); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	return sourceFiles, nil
}

func (r *Runner) isExcluded(abs string) (bool, error) {
	cfg, err := r.Configs.ForFile(abs)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(r.Configs.Root(), abs)
	if err != nil {
		return false, nil
	}
	return cfg.IsExcluded(rel), nil
}

// FormatFiles normalizes every file of sources on a pool of workers and
// streams one result per file. The channel is closed when all files are
// done.
func (r *Runner) FormatFiles(ctx context.Context, sources *treeset.Set) chan *FileResult {
	// The channel of all files to format.
	sourcePathChannel := make(chan string)

	// The channel of results.
	resultsChannel := make(chan *FileResult)

	// The number of workers. Don't create more workers than necessary.
	workerCount := int(math.Min(MaxWorkerCount, float64(1+sources.Size()/2)))

	// Start the worker goroutines.
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sourcePath := range sourcePathChannel {
				resultsChannel <- r.formatFile(ctx, sourcePath)
			}
		}()
	}

	// Send files to the workers.
	go func() {
		sourceFileChannelIt := sources.Iterator()
		for sourceFileChannelIt.Next() {
			sourcePathChannel <- sourceFileChannelIt.Value().(string)
		}

		close(sourcePathChannel)
	}()

	// Wait for all workers to finish.
	go func() {
		wg.Wait()
		close(resultsChannel)
	}()

	return resultsChannel
}

func (r *Runner) formatFile(ctx context.Context, filePath string) *FileResult {
	logger.Tracef("Format(%s): %s", LanguageName, filePath)

	result := &FileResult{Path: filePath}

	cfg, err := r.Configs.ForFile(filePath)
	if err != nil {
		result.Err = err
		return result
	}
	n := New(r.Parser, ConfigFrom(cfg))

	if r.Write {
		result.Changed, result.Err = n.NormalizeDocument(ctx, &FileDocument{Path: filePath})
		return result
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		result.Err = err
		return result
	}
	result.Output, result.Err = n.Format(ctx, filePath, content)
	result.Changed = result.Err == nil && !bytes.Equal(result.Output, content)
	return result
}

func isSourceFileType(f string) bool {
	return filepath.Ext(f) == ".rs"
}
