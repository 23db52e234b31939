package config_test

import (
	"errors"
	"testing"

	"chemtutor/internal/config"

	"github.com/stretchr/testify/assert"
)

func validConfig() config.Config {
	return config.Config{
		DBHost:        "localhost",
		DBUser:        "user",
		DBName:        "db",
		GeminiAPIKey:  "key",
		ChunkSize:     10000,
		ChunkOverlap:  1000,
		RetrievalTopK: 4,
		IndexBackend:  config.IndexBackendChromem,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
		errIs   error
	}{
		{
			name:   "Valid Config",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "Missing DBHost",
			mutate:  func(c *config.Config) { c.DBHost = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Missing DBUser",
			mutate:  func(c *config.Config) { c.DBUser = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Missing API key",
			mutate:  func(c *config.Config) { c.GeminiAPIKey = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Overlap equals size",
			mutate:  func(c *config.Config) { c.ChunkOverlap = c.ChunkSize },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "Negative overlap",
			mutate:  func(c *config.Config) { c.ChunkOverlap = -1 },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "Zero top-k",
			mutate:  func(c *config.Config) { c.RetrievalTopK = 0 },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:    "Unknown backend",
			mutate:  func(c *config.Config) { c.IndexBackend = "faiss" },
			wantErr: true,
			errIs:   config.ErrInvalidValue,
		},
		{
			name:   "Weaviate backend",
			mutate: func(c *config.Config) { c.IndexBackend = config.IndexBackendWeaviate },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.True(t, errors.Is(err, tt.errIs))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
