package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/kinocatalog/internal/config"
	"github.com/liamwears/kinocatalog/internal/models"
	"github.com/liamwears/kinocatalog/internal/store"
)

func TestFileBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	require.NoError(t, b.Health(ctx))

	var movies []models.Movie
	found, err := b.Load(ctx, "favorites-storage:abc", &movies)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Save(ctx, "favorites-storage:abc", []models.Movie{{ID: 1, Title: "Ran"}}))
	require.NoError(t, b.Save(ctx, "favorites-storage:abc", []models.Movie{{ID: 2, Title: "Ikiru"}}))

	found, err = b.Load(ctx, "favorites-storage:abc", &movies)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []models.Movie{{ID: 2, Title: "Ikiru"}}, movies)

	entries, err := os.ReadDir(b.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileBackendCorruptFile(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(b.path("theme-storage:x"), []byte("{"), 0o644))

	var theme models.Theme
	_, err = b.Load(context.Background(), "theme-storage:x", &theme)
	assert.ErrorIs(t, err, store.ErrCorrupt)
}

func TestFileBackendWithBind(t *testing.T) {
	ctx := context.Background()
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	logger := logrus.New()
	th := store.NewThemeStore()
	_, err = store.Bind(ctx, th.Cell(), b, store.ThemeKey, logger)
	require.NoError(t, err)
	th.Toggle()

	restored := store.NewThemeStore()
	_, err = store.Bind(ctx, restored.Cell(), b, store.ThemeKey, logger)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, restored.Theme())
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger := logrus.New()

	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.StorageMemory}}
	b, closeFn, err := OpenBackend(ctx, cfg, nil, logger)
	require.NoError(t, err)
	defer closeFn()
	assert.NoError(t, b.Health(ctx))

	cfg.Storage = config.StorageConfig{Backend: config.StorageFile, Dir: t.TempDir()}
	b, _, err = OpenBackend(ctx, cfg, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, b)

	cfg.Storage.Backend = config.StorageRedis
	_, _, err = OpenBackend(ctx, cfg, nil, logger)
	assert.Error(t, err)

	cfg.Storage.Backend = "floppy"
	_, _, err = OpenBackend(ctx, cfg, nil, logger)
	assert.Error(t, err)
}

func TestLoadMigrationsPairsFiles(t *testing.T) {
	files := fstest.MapFS{
		"002_add_index.up.sql":             {Data: []byte("CREATE INDEX")},
		"001_create_client_state.up.sql":   {Data: []byte("CREATE TABLE")},
		"001_create_client_state.down.sql": {Data: []byte("DROP TABLE")},
		"README.md":                        {Data: []byte("ignored")},
	}

	migrations, err := loadMigrations(files)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, migration{version: "001", up: "001_create_client_state.up.sql", down: "001_create_client_state.down.sql"}, migrations[0])
	assert.Equal(t, "002", migrations[1].version)
	assert.Empty(t, migrations[1].down)
}

func TestEmbeddedMigrations(t *testing.T) {
	m := NewMigrator(nil, logrus.New())
	migrations, err := m.load()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "001", migrations[0].version)
	assert.NotEmpty(t, migrations[0].down)
}
