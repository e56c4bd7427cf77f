package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dropd/pkg/types"

	"github.com/adrg/xdg"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration structure.
// It defines the destination directory, ingestion behavior, network and
// resolution deadlines, and watch parameters.
type Config struct {
	Directories struct {
		Default string `yaml:"default"` // Destination directory ("" = ~/Drops)
		Staging string `yaml:"staging"` // Temporary materialization directory ("" = system temp)
	} `yaml:"directories"`
	Ingest struct {
		TextExtension string `yaml:"text_extension"` // Extension for dropped plain text
	} `yaml:"ingest"`
	Network struct {
		Timeout   int    `yaml:"timeout"`    // Seconds per remote fetch; 0 = unbounded
		UserAgent string `yaml:"user_agent"` // User-Agent header sent with fetches
	} `yaml:"network"`
	Resolve struct {
		Timeout int `yaml:"timeout"` // Seconds per provider load call; 0 = unbounded
	} `yaml:"resolve"`
	Watch struct {
		Debounce int `yaml:"debounce"` // Milliseconds to coalesce filesystem events
	} `yaml:"watch"`
	Icons struct {
		Thumbnails bool   `yaml:"thumbnails"` // Render thumbnails for image entries
		CacheDir   string `yaml:"cache_dir"`  // Thumbnail cache directory ("" = XDG cache)
	} `yaml:"icons"`
	Classify struct {
		Rules []types.ClassifyRule `yaml:"rules"` // User rules checked ahead of the built-in table
	} `yaml:"classify"`
	Log struct {
		Debug bool   `yaml:"debug"` // Enable debug output
		JSON  bool   `yaml:"json"`  // Emit JSON log lines
		File  string `yaml:"file"`  // Tee log output to this file
	} `yaml:"log"`
}

// DefaultConfigPath returns the standard location of the configuration file.
func DefaultConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("dropd", "config.yaml"))
}

// LoadConfig loads configuration from the default location
// ($XDG_CONFIG_HOME/dropd/config.yaml).
func LoadConfig() (*Config, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(configPath)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	// Start with default configuration
	cfg := defaultConfig()

	// Try to read the config file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if file doesn't exist
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal over the defaults so keys absent from the file keep their
	// default values and explicit zeros (timeout: 0) stick.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	// Destination and staging directories resolve lazily, see DestinationDir
	// and StagingDir.
	cfg.Directories.Default = ""
	cfg.Directories.Staging = ""

	cfg.Ingest.TextExtension = ".txt"

	cfg.Network.Timeout = 30
	cfg.Network.UserAgent = "dropd"

	cfg.Resolve.Timeout = 10

	cfg.Watch.Debounce = 100

	cfg.Icons.Thumbnails = true
	cfg.Icons.CacheDir = ""

	cfg.Classify.Rules = []types.ClassifyRule{}

	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directories if they don't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal the config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write the data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns error if any settings are invalid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	// Validate deadlines and debounce
	if c.Network.Timeout < 0 {
		return fmt.Errorf("network timeout must be >= 0 seconds")
	}
	if c.Resolve.Timeout < 0 {
		return fmt.Errorf("resolve timeout must be >= 0 seconds")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch debounce must be >= 0 milliseconds")
	}

	// Validate text extension
	if c.Ingest.TextExtension != "" && !strings.HasPrefix(c.Ingest.TextExtension, ".") {
		return fmt.Errorf("text extension must start with a dot: %s", c.Ingest.TextExtension)
	}

	// Validate classification rules
	for i, rule := range c.Classify.Rules {
		if rule.Pattern == "" {
			return fmt.Errorf("classify rule %d: pattern is required", i)
		}
		if _, err := glob.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("classify rule %d: invalid pattern %q: %w", i, rule.Pattern, err)
		}
		switch rule.Category {
		case "", string(types.CategoryImage), string(types.CategoryGeneric):
		default:
			return fmt.Errorf("classify rule %d: unknown category %q", i, rule.Category)
		}
		if rule.Extension != "" && !strings.HasPrefix(rule.Extension, ".") {
			return fmt.Errorf("classify rule %d: extension must start with a dot: %s", i, rule.Extension)
		}
	}

	return nil
}

// DestinationDir resolves the directory drops land in.
func (c *Config) DestinationDir() string {
	if c.Directories.Default != "" {
		return c.Directories.Default
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "Drops"
	}
	return filepath.Join(home, "Drops")
}

// StagingDir resolves the directory temporary materializations land in.
func (c *Config) StagingDir() string {
	if c.Directories.Staging != "" {
		return c.Directories.Staging
	}
	return filepath.Join(os.TempDir(), "dropd")
}

// ThumbnailCacheDir resolves the thumbnail cache directory.
func (c *Config) ThumbnailCacheDir() string {
	if c.Icons.CacheDir != "" {
		return c.Icons.CacheDir
	}
	return filepath.Join(xdg.CacheHome, "dropd", "thumbs")
}

// NetworkTimeout returns the fetch deadline, 0 meaning unbounded.
func (c *Config) NetworkTimeout() time.Duration {
	return time.Duration(c.Network.Timeout) * time.Second
}

// ResolveTimeout returns the per-load deadline, 0 meaning unbounded.
func (c *Config) ResolveTimeout() time.Duration {
	return time.Duration(c.Resolve.Timeout) * time.Second
}

// DebounceInterval returns the event coalescing window.
func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.Watch.Debounce) * time.Millisecond
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Network.Timeout = 5
	cfg.Resolve.Timeout = 5
	cfg.Watch.Debounce = 10
	cfg.Icons.Thumbnails = false
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
