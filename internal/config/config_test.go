package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dropd/internal/config"
	"dropd/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	require.NoError(t, err)
	_, err = tmpFile.WriteString(content)
	require.NoError(t, err)
	err = tmpFile.Close()
	require.NoError(t, err)
	return tmpFile.Name()
}

const (
	validYAML = `
directories:
  default: "/home/test/Drops"
  staging: "/tmp/dropd-staging"
ingest:
  text_extension: ".md"
network:
  timeout: 5
  user_agent: "dropd-test"
resolve:
  timeout: 3
watch:
  debounce: 50
icons:
  thumbnails: false
classify:
  rules:
    - pattern: "image/*"
      category: "image"
      extension: ".img"
log:
  debug: true
`
	invalidSyntaxYAML = `
network:
  timeout: "thirty # Missing closing quote and not a number
  user_agent: [
`
	invalidValueYAML = `
network:
  timeout: -1
`
	invalidRuleYAML = `
classify:
  rules:
    - pattern: "["
      category: "image"
`
	zeroTimeoutYAML = `
network:
  timeout: 0
resolve:
  timeout: 0
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		configFile := createTestYAML(t, validYAML)
		cfg, err := config.LoadConfigFile(configFile)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Assert specific loaded values
		assert.Equal(t, "/home/test/Drops", cfg.Directories.Default)
		assert.Equal(t, "/tmp/dropd-staging", cfg.Directories.Staging)
		assert.Equal(t, ".md", cfg.Ingest.TextExtension)
		assert.Equal(t, 5, cfg.Network.Timeout)
		assert.Equal(t, "dropd-test", cfg.Network.UserAgent)
		assert.Equal(t, 3, cfg.Resolve.Timeout)
		assert.Equal(t, 50, cfg.Watch.Debounce)
		assert.False(t, cfg.Icons.Thumbnails)
		require.Len(t, cfg.Classify.Rules, 1)
		assert.Equal(t, "image/*", cfg.Classify.Rules[0].Pattern)
		assert.Equal(t, "image", cfg.Classify.Rules[0].Category)
		assert.Equal(t, ".img", cfg.Classify.Rules[0].Extension)
		assert.True(t, cfg.Log.Debug)
	})

	t.Run("load non-existent file", func(t *testing.T) {
		nonExistentPath := filepath.Join(t.TempDir(), "does_not_exist.yaml")
		cfg, err := config.LoadConfigFile(nonExistentPath)

		require.NoError(t, err, "Loading non-existent file should return default config, not an error")
		require.NotNil(t, cfg)

		// Check a few default values
		defaultCfg := config.New() // Get expected defaults
		assert.Equal(t, defaultCfg.Ingest.TextExtension, cfg.Ingest.TextExtension)
		assert.Equal(t, defaultCfg.Network.Timeout, cfg.Network.Timeout)
		assert.Equal(t, defaultCfg.Watch.Debounce, cfg.Watch.Debounce)
		assert.Equal(t, defaultCfg.Icons.Thumbnails, cfg.Icons.Thumbnails)
	})

	t.Run("partial file keeps defaults for unset keys", func(t *testing.T) {
		configFile := createTestYAML(t, "directories:\n  default: \"/somewhere\"\n")
		cfg, err := config.LoadConfigFile(configFile)

		require.NoError(t, err)
		assert.Equal(t, "/somewhere", cfg.Directories.Default)
		assert.Equal(t, 30, cfg.Network.Timeout, "unset network timeout should keep its default")
		assert.Equal(t, ".txt", cfg.Ingest.TextExtension)
		assert.True(t, cfg.Icons.Thumbnails)
	})

	t.Run("explicit zero timeouts stick", func(t *testing.T) {
		configFile := createTestYAML(t, zeroTimeoutYAML)
		cfg, err := config.LoadConfigFile(configFile)

		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Network.Timeout)
		assert.Equal(t, 0, cfg.Resolve.Timeout)
		assert.Equal(t, time.Duration(0), cfg.NetworkTimeout())
		assert.Equal(t, time.Duration(0), cfg.ResolveTimeout())
	})

	t.Run("load file with invalid YAML syntax", func(t *testing.T) {
		configFile := createTestYAML(t, invalidSyntaxYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err, "Loading invalid YAML should return an error")
		assert.Contains(t, err.Error(), "error parsing config file", "Error message should indicate parsing failure")
	})

	t.Run("load file with invalid config value (timeout)", func(t *testing.T) {
		configFile := createTestYAML(t, invalidValueYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err, "Loading config with invalid value should return an error")
		assert.Contains(t, err.Error(), "invalid configuration", "Error message should indicate validation failure")
		assert.Contains(t, err.Error(), "network timeout", "Error message should specify the validation issue")
	})

	t.Run("load file with invalid classify rule", func(t *testing.T) {
		configFile := createTestYAML(t, invalidRuleYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err, "Loading config with a bad glob should return an error")
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "invalid pattern")
	})
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "negative network timeout",
			mutate:  func(c *config.Config) { c.Network.Timeout = -1 },
			wantErr: "network timeout",
		},
		{
			name:    "negative resolve timeout",
			mutate:  func(c *config.Config) { c.Resolve.Timeout = -2 },
			wantErr: "resolve timeout",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *config.Config) { c.Watch.Debounce = -5 },
			wantErr: "debounce",
		},
		{
			name:    "text extension without dot",
			mutate:  func(c *config.Config) { c.Ingest.TextExtension = "txt" },
			wantErr: "text extension",
		},
		{
			name: "classify rule missing pattern",
			mutate: func(c *config.Config) {
				c.Classify.Rules = []types.ClassifyRule{{Category: "image"}}
			},
			wantErr: "pattern is required",
		},
		{
			name: "classify rule bad glob",
			mutate: func(c *config.Config) {
				c.Classify.Rules = []types.ClassifyRule{{Pattern: "["}}
			},
			wantErr: "invalid pattern",
		},
		{
			name: "classify rule unknown category",
			mutate: func(c *config.Config) {
				c.Classify.Rules = []types.ClassifyRule{{Pattern: "*", Category: "video"}}
			},
			wantErr: "unknown category",
		},
		{
			name: "classify rule extension without dot",
			mutate: func(c *config.Config) {
				c.Classify.Rules = []types.ClassifyRule{{Pattern: "*", Extension: "png"}}
			},
			wantErr: "extension must start with a dot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveConfig(t *testing.T) {
	cfg := config.New()
	cfg.Directories.Default = "/saved/drops"
	cfg.Network.Timeout = 12

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/saved/drops", loaded.Directories.Default)
	assert.Equal(t, 12, loaded.Network.Timeout)
}

func TestDirectoryResolution(t *testing.T) {
	cfg := config.New()

	// Defaults resolve lazily
	assert.True(t, strings.HasSuffix(cfg.DestinationDir(), "Drops"))
	assert.Contains(t, cfg.StagingDir(), "dropd")
	assert.Contains(t, cfg.ThumbnailCacheDir(), filepath.Join("dropd", "thumbs"))

	// Explicit settings win
	cfg.Directories.Default = "/data/inbox"
	cfg.Directories.Staging = "/data/staging"
	cfg.Icons.CacheDir = "/data/thumbs"
	assert.Equal(t, "/data/inbox", cfg.DestinationDir())
	assert.Equal(t, "/data/staging", cfg.StagingDir())
	assert.Equal(t, "/data/thumbs", cfg.ThumbnailCacheDir())
}

func TestDurationHelpers(t *testing.T) {
	cfg := config.NewTestConfig()
	assert.Equal(t, 5*time.Second, cfg.NetworkTimeout())
	assert.Equal(t, 5*time.Second, cfg.ResolveTimeout())
	assert.Equal(t, 10*time.Millisecond, cfg.DebounceInterval())
}
