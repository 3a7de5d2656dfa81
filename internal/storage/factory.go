package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"subburn/internal/adapters/storage/gdrive"
	"subburn/internal/adapters/storage/localfs"
)

// Config selects and configures a storage backend.
type Config struct {
	// Provider is localfs (default) or gdrive.
	Provider  string
	LocalRoot string

	GDriveClientID     string
	GDriveClientSecret string
	GDriveRefreshToken string
	GDriveFolderID     string
}

// ConfigFromEnv reads STORAGE_PROVIDER, STORAGE_LOCAL_ROOT and the GDRIVE_*
// variables.
func ConfigFromEnv() Config {
	return Config{
		Provider:           env("STORAGE_PROVIDER"),
		LocalRoot:          env("STORAGE_LOCAL_ROOT"),
		GDriveClientID:     env("GDRIVE_CLIENT_ID"),
		GDriveClientSecret: env("GDRIVE_CLIENT_SECRET"),
		GDriveRefreshToken: env("GDRIVE_REFRESH_TOKEN"),
		GDriveFolderID:     env("GDRIVE_FOLDER_ID"),
	}
}

func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "localfs":
		if cfg.LocalRoot == "" {
			return nil, fmt.Errorf("localfs storage: STORAGE_LOCAL_ROOT is required")
		}
		return localfs.New(cfg.LocalRoot), nil
	case "gdrive":
		return newGDriveProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

// DriveOAuthConfig is shared by the provider and the gdrive-auth command
// that mints the refresh token.
func DriveOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
		RedirectURL:  redirectURL,
	}
}

func newGDriveProvider(ctx context.Context, cfg Config) (Provider, error) {
	var missing []string
	for k, v := range map[string]string{
		"GDRIVE_CLIENT_ID":     cfg.GDriveClientID,
		"GDRIVE_CLIENT_SECRET": cfg.GDriveClientSecret,
		"GDRIVE_REFRESH_TOKEN": cfg.GDriveRefreshToken,
	} {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("gdrive storage: missing %s", strings.Join(missing, ", "))
	}

	conf := DriveOAuthConfig(cfg.GDriveClientID, cfg.GDriveClientSecret, "")
	httpClient := conf.Client(ctx, &oauth2.Token{RefreshToken: cfg.GDriveRefreshToken})

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("gdrive storage: %w", err)
	}
	return gdrive.NewClient(srv, cfg.GDriveFolderID), nil
}

func env(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}
