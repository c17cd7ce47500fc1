// Package cli carries the plumbing shared by the inkstream command line:
// context-based configuration, result output and terminal styles.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the configuration directory under $HOME.
	DefaultBaseDir = ".inkstream"
	// DefaultConfigFile is the configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Config is the CLI configuration: named backend contexts plus the one
// currently in use.
type Config struct {
	// CurrentContext is the name of the active context.
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts maps context name to backend configuration.
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one backend configuration.
type Context struct {
	// Name is the context name.
	Name string `yaml:"name"`

	// APIKey authenticates REST and stream requests.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL is the backend REST base URL.
	BaseURL string `yaml:"base_url,omitempty"`

	// StreamURL overrides the stream endpoint base; empty uses BaseURL.
	StreamURL string `yaml:"stream_url,omitempty"`

	// Model is the default generation model selector.
	Model string `yaml:"model,omitempty"`

	// DataDir holds local state (the draft cache). Empty uses
	// ~/.inkstream/data.
	DataDir string `yaml:"data_dir,omitempty"`
}

// StreamBase returns the base URL used for stream connections.
func (c *Context) StreamBase() string {
	if c.StreamURL != "" {
		return c.StreamURL
	}
	return c.BaseURL
}

// LoadConfig loads (or creates) the configuration at the default path.
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath("")
}

// LoadConfigWithPath loads configuration from a custom path. An empty path
// uses ~/.inkstream/config.yaml.
func LoadConfigWithPath(customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, DefaultConfigFile)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	cfg := &Config{
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	return cfg, nil
}

// Save writes the configuration back to its path.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Current returns the active context.
func (c *Config) Current() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context; run 'inkstream config use-context <name>'")
	}
	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}
	return ctx, nil
}

// SetContext adds or replaces a named context. The first context added
// becomes current.
func (c *Config) SetContext(ctx *Context) {
	c.Contexts[ctx.Name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = ctx.Name
	}
}

// UseContext switches the current context.
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return nil
}

// DeleteContext removes a context; the current pointer is cleared if it
// pointed at the removed one.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return nil
}

// DataDir resolves the local state directory for a context.
func (c *Context) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, "data"), nil
}
