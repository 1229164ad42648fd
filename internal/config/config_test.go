package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TMDB_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Catalog.MaxPages)
	assert.Equal(t, 300*time.Millisecond, cfg.Catalog.SearchDebounce)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.Equal(t, "en-US", cfg.TMDB.Language)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresCredential(t *testing.T) {
	t.Setenv("TMDB_KEY", "")
	t.Setenv("TMDB_READ_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TMDB_READ_TOKEN", "token")
	t.Setenv("CATALOG_MAX_PAGES", "50")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")
	t.Setenv("STORAGE_BACKEND", "Memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Catalog.MaxPages)
	assert.Equal(t, 150*time.Millisecond, cfg.Catalog.SearchDebounce)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric pages", map[string]string{"CATALOG_MAX_PAGES": "many"}},
		{"zero pages", map[string]string{"CATALOG_MAX_PAGES": "0"}},
		{"bad duration", map[string]string{"SEARCH_DEBOUNCE": "soon"}},
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "etcd"}},
		{"redis backend without redis", map[string]string{"STORAGE_BACKEND": "redis"}},
		{"postgres backend without url", map[string]string{"STORAGE_BACKEND": "postgres"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TMDB_KEY", "key")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
