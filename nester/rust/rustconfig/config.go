package rustconfig

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/language"

	"aspect.build/usenest/nester/rust/render"
)

// RustConfig is the formatting configuration in effect for one directory.
// Children start as a copy of their parent and override what their own
// configuration file sets.
type RustConfig struct {
	parent *RustConfig
	rel    string

	render render.Config
	locale language.Tag

	organizeCommand []string
	excludes        []string
}

type Configs = map[string]*RustConfig

// New returns the root configuration with built-in defaults. Cargo build
// directories are excluded.
func New() *RustConfig {
	return &RustConfig{
		render:   render.DefaultConfig(),
		locale:   language.Und,
		parent:   nil,
		excludes: []string{"**/target/**"},
	}
}

func (c *RustConfig) NewChild(childPath string) *RustConfig {
	cCopy := *c
	cCopy.rel = childPath
	cCopy.parent = c
	cCopy.organizeCommand = append([]string(nil), c.organizeCommand...)
	cCopy.excludes = append([]string(nil), c.excludes...)
	return &cCopy
}

// Rel returns the directory of this configuration relative to the root.
func (c *RustConfig) Rel() string {
	return c.rel
}

// Parent returns the configuration this one was derived from, or nil.
func (c *RustConfig) Parent() *RustConfig {
	return c.parent
}

// RenderConfig returns the settings used to print use statements.
func (c *RustConfig) RenderConfig() render.Config {
	return c.render
}

func (c *RustConfig) SetTrailingComma(enabled bool) {
	c.render.TrailingComma = enabled
}

func (c *RustConfig) SetSingleLineThreshold(threshold int) error {
	if threshold < 0 {
		return fmt.Errorf("single line threshold must not be negative, got %d", threshold)
	}
	c.render.SingleLineThreshold = threshold
	return nil
}

func (c *RustConfig) SetIndentUnit(indent string) error {
	if strings.TrimSpace(indent) != "" {
		return fmt.Errorf("indent must only contain whitespace, got %q", indent)
	}
	c.render.IndentUnit = indent
	return nil
}

// SetIndentWidth sets the indent unit to width spaces.
func (c *RustConfig) SetIndentWidth(width int) error {
	if width < 0 {
		return fmt.Errorf("indent width must not be negative, got %d", width)
	}
	c.render.IndentUnit = strings.Repeat(" ", width)
	return nil
}

// Locale returns the collation locale used to order segments.
func (c *RustConfig) Locale() language.Tag {
	return c.locale
}

func (c *RustConfig) SetLocale(locale string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	c.locale = tag
	return nil
}

// OrganizeCommand returns the argv of the organize-imports pre-pass, or nil
// when there is none.
func (c *RustConfig) OrganizeCommand() []string {
	return c.organizeCommand
}

func (c *RustConfig) SetOrganizeCommand(argv []string) {
	c.organizeCommand = append([]string(nil), argv...)
}

// AddExcludes appends glob patterns, relative to the root, of files that are
// never formatted.
func (c *RustConfig) AddExcludes(patterns ...string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	c.excludes = append(c.excludes, patterns...)
	return nil
}

// IsExcluded reports whether the root-relative path rel matches an exclude
// pattern.
func (c *RustConfig) IsExcluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range c.excludes {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func (c *RustConfig) String() string {
	return fmt.Sprintf("{rel: %q, trailing_comma: %v, single_line_threshold: %d, indent: %q, locale: %s}",
		c.rel, c.render.TrailingComma, c.render.SingleLineThreshold, c.render.IndentUnit, c.locale)
}

// ParentForPackage returns the parent Config for the given directory.
func ParentForPackage(c Configs, pkg string) *RustConfig {
	dir := filepath.Dir(pkg)
	if dir == "." {
		dir = ""
	}
	parent := (map[string]*RustConfig)(c)[dir]
	return parent
}
