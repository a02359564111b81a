package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434", cfg.Host)
	assert.Equal(t, "oscardp96/medcpt-article", cfg.Model)
	assert.Equal(t, 768, cfg.Dimensions)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434", cfg.Host)
		assert.Equal(t, 768, cfg.Dimensions)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080"))

		assert.Equal(t, "http://custom:8080", cfg.Host)
	})

	t.Run("with custom model", func(t *testing.T) {
		cfg := NewConfig(WithModel("nomic-embed-text"))

		assert.Equal(t, "nomic-embed-text", cfg.Model)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080"),
			WithModel("custom-embed"),
			WithDimensions(1024),
			WithTimeout(5*time.Second),
		)

		assert.Equal(t, "http://custom:8080", cfg.Host)
		assert.Equal(t, "custom-embed", cfg.Model)
		assert.Equal(t, 1024, cfg.Dimensions)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})
}

func TestConfig_Normalize(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()

	assert.Equal(t, "http://localhost:11434", cfg.Host)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "empty host",
			mutate:  func(c *Config) { c.Host = "" },
			wantErr: true,
		},
		{
			name:    "empty model",
			mutate:  func(c *Config) { c.Model = "" },
			wantErr: true,
		},
		{
			name:    "zero dimensions",
			mutate:  func(c *Config) { c.Dimensions = 0 },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Timeout = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
