package classify_test

import (
	"testing"

	"dropd/internal/classify"
	"dropd/internal/config"
	"dropd/internal/errors"
	"dropd/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyImageTable(t *testing.T) {
	engine := classify.New()

	tests := []struct {
		identifier string
		extension  string
	}{
		{"image/png", ".png"},
		{"public.png", ".png"},
		{"image/jpeg", ".jpg"},
		{"public.jpeg", ".jpg"},
		{"image/gif", ".gif"},
		{"com.compuserve.gif", ".gif"},
		{"image/tiff", ".tiff"},
		{"image/webp", ".webp"},
		{"org.webmproject.webp", ".webp"},
		{"image/heic", ".heic"},
		{"public.heic", ".heic"},
		// Lookup is case-insensitive
		{"Image/PNG", ".png"},
		{"PUBLIC.JPEG", ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			info, err := engine.Classify(tt.identifier)
			require.NoError(t, err)
			assert.Equal(t, types.CategoryImage, info.Category)
			assert.Equal(t, tt.extension, info.Extension)
		})
	}
}

func TestClassifyMimeFallback(t *testing.T) {
	engine := classify.New()

	t.Run("known generic type", func(t *testing.T) {
		info, err := engine.Classify("application/pdf")
		require.NoError(t, err)
		assert.Equal(t, types.CategoryGeneric, info.Category)
		assert.Equal(t, ".pdf", info.Extension)
	})

	t.Run("media type parameters are stripped", func(t *testing.T) {
		info, err := engine.Classify("text/plain; charset=utf-8")
		require.NoError(t, err)
		assert.Equal(t, types.CategoryGeneric, info.Category)
		assert.Equal(t, ".txt", info.Extension)
	})

	t.Run("unlisted image subtype keeps image category", func(t *testing.T) {
		info, err := engine.Classify("image/bmp")
		require.NoError(t, err)
		assert.Equal(t, types.CategoryImage, info.Category)
	})

	t.Run("octet stream is generic with no extension", func(t *testing.T) {
		info, err := engine.Classify("application/octet-stream")
		require.NoError(t, err)
		assert.Equal(t, types.CategoryGeneric, info.Category)
		assert.Equal(t, "", info.Extension)
	})
}

func TestClassifyUnknown(t *testing.T) {
	engine := classify.New()

	// Unrecognized identifiers default to generic binary handling
	info, err := engine.Classify("com.example.mystery")
	require.Error(t, err)
	assert.True(t, errors.IsClassificationUnknown(err))
	assert.Equal(t, types.CategoryGeneric, info.Category)
	assert.Equal(t, "", info.Extension)

	// Empty identifier behaves the same
	info, err = engine.Classify("")
	require.Error(t, err)
	assert.True(t, errors.IsClassificationUnknown(err))
	assert.Equal(t, types.CategoryGeneric, info.Category)
}

func TestClassifyUserRules(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Classify.Rules = []types.ClassifyRule{
		{Pattern: "com.example.*", Category: "image", Extension: ".img"},
		{Pattern: "image/png", Category: "generic"},
	}
	engine := classify.NewWithConfig(cfg)

	// Rule assigns category and extension ahead of the built-in handling
	info, err := engine.Classify("com.example.raw")
	require.NoError(t, err)
	assert.Equal(t, types.CategoryImage, info.Category)
	assert.Equal(t, ".img", info.Extension)

	// Rule without an extension falls back to the built-in extension
	info, err = engine.Classify("image/png")
	require.NoError(t, err)
	assert.Equal(t, types.CategoryGeneric, info.Category)
	assert.Equal(t, ".png", info.Extension)

	// Identifiers no rule matches take the normal path
	info, err = engine.Classify("image/gif")
	require.NoError(t, err)
	assert.Equal(t, types.CategoryImage, info.Category)
	assert.Equal(t, ".gif", info.Extension)
}

func TestSniffData(t *testing.T) {
	engine := classify.New()

	// PNG magic bytes sniff as an image
	png := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
	info := engine.SniffData(png)
	assert.Equal(t, types.CategoryImage, info.Category)
	assert.Equal(t, ".png", info.Extension)

	// Plain text sniffs as generic text
	info = engine.SniffData([]byte("hello, this is plain text content"))
	assert.Equal(t, types.CategoryGeneric, info.Category)
	assert.Equal(t, ".txt", info.Extension)
}
