// Package config handles jolt.toml run configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/dhamidi/jolt/classfile"
)

const FileName = "jolt.toml"

// Config is the contents of a jolt.toml file.
type Config struct {
	Entry             string            `toml:"entry"`
	Classpath         []string          `toml:"classpath"`
	MaxAttributeDepth int               `toml:"max-attribute-depth"`
	Properties        map[string]string `toml:"properties"`

	// Dir is the directory containing the file, or "." for the defaults.
	Dir string `toml:"-"`
}

func Default() *Config {
	return &Config{
		Entry:             "Main.class",
		Classpath:         []string{"."},
		MaxAttributeDepth: classfile.DefaultMaxAttributeDepth,
		Properties:        map[string]string{},
		Dir:               ".",
	}
}

// Load reads jolt.toml from dir. A missing file yields the defaults rooted
// at dir.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFile(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.Dir = dir
		return cfg, nil
	}
	return cfg, err
}

// LoadFile reads the file at path. Keys left out keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}
	cfg.Dir = filepath.Dir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Entry == "" {
		return errors.New("entry must not be empty")
	}
	if c.MaxAttributeDepth < 1 {
		return fmt.Errorf("max-attribute-depth must be at least 1, got %d", c.MaxAttributeDepth)
	}
	if len(c.Classpath) == 0 {
		c.Classpath = []string{"."}
	}
	return nil
}

// EntryPath resolves the entry file against the config directory.
func (c *Config) EntryPath() string {
	if filepath.IsAbs(c.Entry) {
		return c.Entry
	}
	return filepath.Join(c.Dir, c.Entry)
}

// ClasspathDirs resolves each classpath entry against the config directory.
func (c *Config) ClasspathDirs() []string {
	dirs := make([]string, 0, len(c.Classpath))
	for _, d := range c.Classpath {
		if filepath.IsAbs(d) {
			dirs = append(dirs, d)
			continue
		}
		dirs = append(dirs, filepath.Join(c.Dir, d))
	}
	return dirs
}

// PropertyList returns the properties as key=value pairs sorted by key.
func (c *Config) PropertyList() []string {
	keys := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]string, len(keys))
	for i, k := range keys {
		list[i] = k + "=" + c.Properties[k]
	}
	return list
}

// DecodeOptions returns the classfile options implied by the config.
func (c *Config) DecodeOptions() []classfile.Option {
	return []classfile.Option{classfile.WithMaxAttributeDepth(c.MaxAttributeDepth)}
}
