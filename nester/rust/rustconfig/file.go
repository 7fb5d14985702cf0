package rustconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the per-directory configuration file.
const FileName = ".usenest.yaml"

// File is the contents of a configuration file. Unset fields keep the value
// inherited from the parent directory.
type File struct {
	TrailingComma       *bool    `yaml:"trailing_comma"`
	SingleLineThreshold *int     `yaml:"single_line_threshold"`
	Indent              *string  `yaml:"indent"`
	IndentWidth         *int     `yaml:"indent_width"`
	Locale              *string  `yaml:"locale"`
	OrganizeCommand     []string `yaml:"organize_command"`
	Exclude             []string `yaml:"exclude"`
}

// ReadFile reads a configuration file. Unknown keys are an error.
func ReadFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ParseFile(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

// ParseFile decodes the YAML configuration in content.
func ParseFile(content []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return f, nil
}

// Apply overrides c with every field set in f.
func (c *RustConfig) Apply(f *File) error {
	if f.Indent != nil && f.IndentWidth != nil {
		return fmt.Errorf("indent and indent_width are mutually exclusive")
	}
	if f.TrailingComma != nil {
		c.SetTrailingComma(*f.TrailingComma)
	}
	if f.SingleLineThreshold != nil {
		if err := c.SetSingleLineThreshold(*f.SingleLineThreshold); err != nil {
			return err
		}
	}
	if f.Indent != nil {
		if err := c.SetIndentUnit(*f.Indent); err != nil {
			return err
		}
	}
	if f.IndentWidth != nil {
		if err := c.SetIndentWidth(*f.IndentWidth); err != nil {
			return err
		}
	}
	if f.Locale != nil {
		if err := c.SetLocale(*f.Locale); err != nil {
			return err
		}
	}
	if f.OrganizeCommand != nil {
		c.SetOrganizeCommand(f.OrganizeCommand)
	}
	return c.AddExcludes(f.Exclude...)
}

// Environment variables overriding configuration files.
const (
	EnvTrailingComma       = "USENEST_TRAILING_COMMA"
	EnvSingleLineThreshold = "USENEST_SINGLE_LINE_THRESHOLD"
	EnvIndent              = "USENEST_INDENT"
)

// FileFromEnv reads the USENEST_* variables through lookup, usually
// os.LookupEnv.
func FileFromEnv(lookup func(string) (string, bool)) (*File, error) {
	f := &File{}
	if v, ok := lookup(EnvTrailingComma); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTrailingComma, err)
		}
		f.TrailingComma = &b
	}
	if v, ok := lookup(EnvSingleLineThreshold); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSingleLineThreshold, err)
		}
		f.SingleLineThreshold = &n
	}
	if v, ok := lookup(EnvIndent); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.IndentWidth = &n
		} else {
			f.Indent = &v
		}
	}
	return f, nil
}
