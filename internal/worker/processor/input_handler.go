package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"subburn/internal/models"
	"subburn/internal/pkg/errors"
	"subburn/internal/ports"
)

type InputHandler struct {
	pool     *pgxpool.Pool
	sp       ports.StorageProvider
	workRoot string
}

func NewInputHandler(pool *pgxpool.Pool, sp ports.StorageProvider, workRoot string) *InputHandler {
	return &InputHandler{
		pool:     pool,
		sp:       sp,
		workRoot: workRoot,
	}
}

// Materialize descarga los tres assets del job al directorio local del job
func (ih *InputHandler) Materialize(ctx context.Context, jobID string, inputs map[string]string) (map[string]string, error) {
	baseDir := filepath.Join(ih.workRoot, "jobs", jobID, "inputs")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.DestinationUnwritable(err, "processor.inputs", baseDir)
	}

	materializedPaths := make(map[string]string, len(models.InputNames))
	for _, inputName := range models.InputNames {
		assetID := inputs[inputName]
		if assetID == "" {
			return nil, errors.MissingInput(inputName)
		}

		localPath, err := ih.materializeInput(ctx, baseDir, inputName, assetID)
		if err != nil {
			return nil, err
		}
		materializedPaths[inputName] = localPath
	}

	return materializedPaths, nil
}

func (ih *InputHandler) materializeInput(ctx context.Context, baseDir, inputName, assetID string) (string, error) {
	asset, err := ih.fetchAsset(ctx, assetID)
	if err != nil {
		return "", errors.MissingInput(inputName).
			WithField("asset_id", assetID)
	}
	if asset.Kind != inputName {
		return "", errors.ValidationField("inputs."+inputName,
			fmt.Sprintf("asset %s has kind %q", assetID, asset.Kind))
	}

	// Descargar del storage
	rc, _, _, err := ih.sp.GetObject(ctx, asset.ObjectKey)
	if err != nil {
		return "", errors.SourceUnreadable(err, "processor.inputs", asset.ObjectKey).
			WithField("asset_id", assetID)
	}
	defer rc.Close()

	// Guardar localmente
	localPath := filepath.Join(baseDir, SanitizeFilename(inputName)+ExtFromMime(asset.Mime))
	if err := saveToLocal(localPath, rc); err != nil {
		return "", errors.DestinationUnwritable(err, "processor.inputs", localPath)
	}

	return localPath, nil
}

type assetMetadata struct {
	Kind      string
	ObjectKey string
	Mime      string
}

func (ih *InputHandler) fetchAsset(ctx context.Context, assetID string) (*assetMetadata, error) {
	var a assetMetadata
	err := ih.pool.QueryRow(ctx,
		`SELECT kind, object_key, mime FROM assets WHERE id=$1`,
		assetID,
	).Scan(&a.Kind, &a.ObjectKey, &a.Mime)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func saveToLocal(localPath string, rc io.Reader) error {
	f, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
