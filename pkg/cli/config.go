package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/wombscape/pkg/storage"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".wombscape"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// ErrContextNotFound is returned when a named context does not exist.
var ErrContextNotFound = errors.New("cli: context not found")

// Config is the on-disk configuration of a CLI app. It holds named
// contexts, one of which may be current.
type Config struct {
	// AppName is the application name
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is a named set of defaults for rendering and streaming.
// Command-line flags override every field.
type Context struct {
	Name string `yaml:"name" json:"name"`

	// Preset is the default preset ID.
	Preset string `yaml:"preset,omitempty" json:"preset,omitempty"`

	// PresetsFile is a YAML file of extra presets.
	PresetsFile string `yaml:"presets_file,omitempty" json:"presets_file,omitempty"`

	// SampleRate is the synthesis rate in Hz.
	SampleRate int `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`

	// OutputDir is where renders land when the target is a bare file name.
	// It may be an s3:// URL.
	OutputDir string `yaml:"output_dir,omitempty" json:"output_dir,omitempty"`

	// CatalogDir overrides the badger directory of the render catalog.
	CatalogDir string `yaml:"catalog_dir,omitempty" json:"catalog_dir,omitempty"`

	// StreamAddr is the listen address of the stream server.
	StreamAddr string `yaml:"stream_addr,omitempty" json:"stream_addr,omitempty"`

	// S3 configures s3:// targets.
	S3 *storage.S3Config `yaml:"s3,omitempty" json:"s3,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path. A missing file
// is created empty.
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		if ctx == nil {
			cfg.Contexts[name] = &Context{Name: name}
			continue
		}
		ctx.Name = name
	}

	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk. The file may hold S3 secrets and is
// written 0600.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds or replaces a context
func (c *Config) AddContext(name string, ctx *Context) error {
	if name == "" {
		return fmt.Errorf("cli: context name is required")
	}
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context. Deleting the current context unsets it.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrContextNotFound, name)
	}
	return ctx, nil
}

// ResolveContext returns the named context, or the current one if name is
// empty. With neither it returns an empty context so that commands run on
// built-in defaults.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	if name == "" {
		return &Context{}, nil
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Redacted returns a copy of the context safe to print.
func (ctx *Context) Redacted() *Context {
	out := *ctx
	if ctx.S3 != nil {
		s3 := *ctx.S3
		s3.AccessKeyID = MaskSecret(s3.AccessKeyID)
		s3.SecretAccessKey = MaskSecret(s3.SecretAccessKey)
		s3.SessionToken = MaskSecret(s3.SessionToken)
		out.S3 = &s3
	}
	return &out
}

// MaskSecret masks a credential for display, keeping four characters at
// each end of long values.
func MaskSecret(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
