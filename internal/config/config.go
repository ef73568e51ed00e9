// Package config loads apigen settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/goatx/apigen/internal/format"
	"github.com/goatx/apigen/internal/tsgen"
)

// DefaultFile is read when no config file is named explicitly.
const DefaultFile = "apigen.yaml"

type Config struct {
	Input      string   `yaml:"input"`
	Output     string   `yaml:"output"`
	Extensions []string `yaml:"extensions"`
	Naming     Naming   `yaml:"naming"`
	Types      Types    `yaml:"types"`
	Client     Client   `yaml:"client"`
	Format     Format   `yaml:"format"`
}

type Naming struct {
	// Fallback is "method-path" or "unnamed".
	Fallback tsgen.NamingFallback `yaml:"fallback"`
}

type Types struct {
	// AliasComponents emits aliases for components that produce no interface.
	AliasComponents bool `yaml:"aliasComponents"`
}

type Client struct {
	HTTPModule string `yaml:"httpModule"`
	// Template replaces the built-in client template.
	Template string `yaml:"template"`
}

type Format struct {
	Enabled  bool       `yaml:"enabled"`
	Commands [][]string `yaml:"commands"`
}

func Default() *Config {
	commands := make([][]string, 0, len(format.DefaultCommands))
	for _, c := range format.DefaultCommands {
		commands = append(commands, slices.Clone(c))
	}
	return &Config{
		Input:      "openapi",
		Output:     "generated",
		Extensions: []string{".json"},
		Naming:     Naming{Fallback: tsgen.FallbackMethodPath},
		Client:     Client{HTTPModule: "../http"},
		Format:     Format{Enabled: true, Commands: commands},
	}
}

// Load reads the file at path over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	// #nosec G304 - the path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional behaves like Load but returns the defaults when path does not exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) Validate() error {
	if c.Input == "" {
		return errors.New("input directory must not be empty")
	}
	if c.Output == "" {
		return errors.New("output directory must not be empty")
	}
	if len(c.Extensions) == 0 {
		return errors.New("at least one input extension is required")
	}
	switch c.Naming.Fallback {
	case tsgen.FallbackMethodPath, tsgen.FallbackUnnamed:
	default:
		return fmt.Errorf("unknown naming fallback %q", c.Naming.Fallback)
	}
	return nil
}

// GenerateOptions converts the configuration into generator options. formatter is used
// only when formatting is enabled.
func (c *Config) GenerateOptions(formatter tsgen.Formatter) *tsgen.GenerateOptions {
	opts := &tsgen.GenerateOptions{
		InputDir:        c.Input,
		OutputDir:       c.Output,
		Extensions:      slices.Clone(c.Extensions),
		NamingFallback:  c.Naming.Fallback,
		HTTPModule:      c.Client.HTTPModule,
		Template:        c.Client.Template,
		AliasComponents: c.Types.AliasComponents,
	}
	if c.Format.Enabled && len(c.Format.Commands) > 0 {
		opts.Formatter = formatter
	}
	return opts
}
