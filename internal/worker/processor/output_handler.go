package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"subburn/internal/pkg/errors"
	"subburn/internal/ports"
	"subburn/internal/worker/util"
)

type OutputHandler struct {
	pool *pgxpool.Pool
	sp   ports.StorageProvider
}

func NewOutputHandler(pool *pgxpool.Pool, sp ports.StorageProvider) *OutputHandler {
	return &OutputHandler{
		pool: pool,
		sp:   sp,
	}
}

// RegisterOutputs sube el video y el documento ASS y los registra como assets
func (oh *OutputHandler) RegisterOutputs(ctx context.Context, req RegisterOutputsRequest) (*OutputResult, error) {
	result := &OutputResult{
		OutputID:   util.NewID("out"),
		DurationMS: req.Rendered.Render.Duration.Milliseconds(),
	}

	videoAssetID, err := oh.registerAsset(ctx, "render_output", "video/mp4", req.Rendered.VideoPath, req.OutputKeys.Video)
	if err != nil {
		return nil, fmt.Errorf("failed to register video: %w", err)
	}
	result.VideoAssetID = videoAssetID

	// El ASS queda disponible para re-renders con otro fondo
	captionsAssetID, err := oh.registerAsset(ctx, "styled_captions", "text/x-ssa", req.Rendered.CaptionsPath, req.OutputKeys.Captions)
	if err != nil {
		return nil, fmt.Errorf("failed to register captions: %w", err)
	}
	result.CaptionsAssetID = captionsAssetID

	return result, nil
}

func (oh *OutputHandler) registerAsset(ctx context.Context, kind, mime, localPath, objectKey string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.SourceUnreadable(err, "processor.outputs", localPath)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", errors.SourceUnreadable(err, "processor.outputs", localPath)
	}

	// Subir a storage
	uploadResult, err := oh.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   objectKey,
		ContentType: mime,
		Reader:      f,
		Size:        st.Size(),
	})
	if err != nil {
		return "", errors.DestinationUnwritable(err, "processor.outputs", objectKey)
	}

	// Registrar en DB
	assetID := util.NewID("ast")
	_, err = oh.pool.Exec(ctx,
		`INSERT INTO assets (id, kind, provider, object_key, mime, size_bytes)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		assetID, kind, oh.sp.Provider(), uploadResult.ObjectKey, mime, uploadResult.Size,
	)
	if err != nil {
		return "", fmt.Errorf("failed to register asset in DB: %w", err)
	}

	return assetID, nil
}
