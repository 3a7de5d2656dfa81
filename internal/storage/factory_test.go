package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	sp, err := NewProvider(ctx, Config{LocalRoot: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "localfs", sp.Provider())

	_, err = NewProvider(ctx, Config{Provider: "localfs"})
	assert.ErrorContains(t, err, "STORAGE_LOCAL_ROOT")

	_, err = NewProvider(ctx, Config{Provider: "s3"})
	assert.ErrorContains(t, err, "unknown storage provider")

	_, err = NewProvider(ctx, Config{Provider: "gdrive", GDriveClientID: "id"})
	assert.ErrorContains(t, err, "GDRIVE_REFRESH_TOKEN")

	sp, err = NewProvider(ctx, Config{
		Provider:           "gdrive",
		GDriveClientID:     "id",
		GDriveClientSecret: "secret",
		GDriveRefreshToken: "token",
	})
	require.NoError(t, err)
	assert.Equal(t, "gdrive", sp.Provider())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "gdrive")
	t.Setenv("STORAGE_LOCAL_ROOT", " /data ")
	t.Setenv("GDRIVE_FOLDER_ID", "folder_1")

	cfg := ConfigFromEnv()
	assert.Equal(t, "gdrive", cfg.Provider)
	assert.Equal(t, "/data", cfg.LocalRoot)
	assert.Equal(t, "folder_1", cfg.GDriveFolderID)
}
