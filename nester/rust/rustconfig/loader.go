package rustconfig

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"aspect.build/usenest/internal/logger"
)

// Loader resolves the configuration of every directory below a root by
// reading FileName in the root and in each directory on the way down.
// Overrides (environment, flags) are applied last, on top of whatever the
// files say. A Loader is safe for concurrent use.
type Loader struct {
	root      string
	overrides []*File

	mu        sync.Mutex
	configs   Configs
	effective Configs
}

// NewLoader returns a Loader for the directory tree at root.
func NewLoader(root string, overrides ...*File) *Loader {
	return &Loader{
		root:      root,
		overrides: overrides,
		configs:   Configs{},
		effective: Configs{},
	}
}

// Root returns the directory configuration is resolved from.
func (l *Loader) Root() string {
	return l.root
}

// ForFile returns the configuration in effect for the file at path.
func (l *Loader) ForFile(path string) (*RustConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return l.ForDir(filepath.Dir(abs))
}

// ForDir returns the configuration in effect for dir. Directories outside
// the root get the root configuration.
func (l *Loader) ForDir(dir string) (*RustConfig, error) {
	rel, err := filepath.Rel(l.root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = ""
	}
	if rel == "." {
		rel = ""
	}
	rel = filepath.ToSlash(rel)

	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.effective[rel]; ok {
		return c, nil
	}

	base, err := l.load(rel)
	if err != nil {
		return nil, err
	}

	c := base.NewChild(rel)
	for _, o := range l.overrides {
		if err := c.Apply(o); err != nil {
			return nil, err
		}
	}
	l.effective[rel] = c

	logger.Tracef("config for %q: %s", rel, c)
	return c, nil
}

// load returns the file-derived configuration for rel, loading its parents
// first. l.mu must be held.
func (l *Loader) load(rel string) (*RustConfig, error) {
	if c, ok := l.configs[rel]; ok {
		return c, nil
	}

	var c *RustConfig
	if rel == "" {
		c = New()
	} else {
		parentRel := filepath.ToSlash(filepath.Dir(rel))
		if parentRel == "." {
			parentRel = ""
		}
		if _, err := l.load(parentRel); err != nil {
			return nil, err
		}
		c = ParentForPackage(l.configs, rel).NewChild(rel)
	}

	configPath := filepath.Join(l.root, filepath.FromSlash(rel), FileName)
	f, err := ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		logger.Debugf("read %s", configPath)
		if err := c.Apply(f); err != nil {
			return nil, err
		}
	}

	l.configs[rel] = c
	return c, nil
}
