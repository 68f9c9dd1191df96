package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/realtime/pkg/realtime"
)

const (
	// DefaultBaseDir is the base configuration directory under $HOME.
	DefaultBaseDir = ".giztoy"
	// AppName names the application directory under DefaultBaseDir.
	AppName = "realtime"
	// DefaultConfigFile is the configuration filename.
	DefaultConfigFile = "config.yaml"
)

// ErrNoContext is returned when no context is named and none is current.
var ErrNoContext = errors.New("no current context set")

// Config holds the named connection contexts of the CLI, kubectl style.
type Config struct {
	// CurrentContext is the context used when none is named.
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts maps context names to their settings.
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	path string
}

// Context is one set of connection settings.
type Context struct {
	Name string `yaml:"name"`

	// APIKey authenticates against the realtime endpoint.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the WebSocket endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// HTTPURL overrides the HTTP endpoint used by WebRTC session setup.
	HTTPURL string `yaml:"http_url,omitempty"`

	Organization string `yaml:"organization,omitempty"`
	Project      string `yaml:"project,omitempty"`

	// Model and Voice default the dial options.
	Model string `yaml:"model,omitempty"`
	Voice string `yaml:"voice,omitempty"`

	// Extra stores free-form settings.
	Extra map[string]string `yaml:"extra,omitempty"`
}

// DefaultConfigPath returns ~/.giztoy/realtime/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, AppName, DefaultConfigFile), nil
}

// LoadConfig reads the configuration at path, or at DefaultConfigPath when
// path is empty. A missing file yields an empty configuration that is
// written on the first Save.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{Contexts: make(map[string]*Context), path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
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
	cfg.path = path
	return cfg, nil
}

// Path returns the file the configuration is read from and saved to.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration, creating its directory if needed. The file
// holds credentials and is only readable by the owner.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// SetContext adds or replaces the named context and saves.
func (c *Config) SetContext(name string, ctx *Context) error {
	if name == "" {
		return errors.New("context name is required")
	}
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes the named context and saves. Deleting the current
// context clears CurrentContext.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext makes the named context current and saves.
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// ResolveContext returns the named context, or the current one when name is
// empty.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	if name == "" {
		return nil, ErrNoContext
	}
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ContextNames returns the context names in sorted order.
func (c *Config) ContextNames() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GetExtra returns an extra setting, or "" when unset.
func (ctx *Context) GetExtra(key string) string {
	return ctx.Extra[key]
}

// SetExtra records an extra setting.
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// DialOptions converts the context into dial options.
func (ctx *Context) DialOptions() []realtime.DialOption {
	return []realtime.DialOption{
		realtime.WithAPIKey(ctx.APIKey),
		realtime.WithWebSocketURL(ctx.BaseURL),
		realtime.WithHTTPURL(ctx.HTTPURL),
		realtime.WithOrganization(ctx.Organization),
		realtime.WithProject(ctx.Project),
		realtime.WithModel(ctx.Model),
		realtime.WithVoice(ctx.Voice),
	}
}

// MaskAPIKey hides all but the first and last four characters of key.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
