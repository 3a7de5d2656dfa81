package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"subburn/internal/httpkit"
	"subburn/internal/mediatype"
	"subburn/internal/models"
	"subburn/internal/pkg/errors"
	"subburn/internal/ports"
	"subburn/internal/worker/util"
)

func (h *Handler) PostAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid multipart form", nil)
		return
	}

	kind := strings.TrimSpace(r.FormValue("kind"))
	if !mediatype.ValidKind(kind) {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "kind must be captions, background or audio", map[string]any{"field": "kind"})
		return
	}
	label := strings.TrimSpace(r.FormValue("label"))

	file, header, err := r.FormFile("file")
	if err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "file is required", map[string]any{"field": "file"})
		return
	}
	defer file.Close()

	asset, err := h.storeAsset(ctx, kind, label, file, header)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{"asset": asset})
}

// storeAsset validates an upload against kind, writes it to storage and
// records it in the assets table.
func (h *Handler) storeAsset(ctx context.Context, kind, label string, file multipart.File, header *multipart.FileHeader) (*models.Asset, error) {
	info, body, err := mediatype.Check(kind, file)
	if err != nil {
		return nil, err
	}

	assetID := util.NewID("ast")
	objectKey := fmt.Sprintf("assets/%s/original%s", assetID, info.Ext)

	out, err := h.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   objectKey,
		ContentType: info.Mime,
		Reader:      body,
		Size:        header.Size,
	})
	if err != nil {
		return nil, errors.Wrap(err, "assets.put", "storage put failed")
	}

	asset := &models.Asset{
		ID:        assetID,
		Kind:      kind,
		Provider:  h.sp.Provider(),
		ObjectKey: out.ObjectKey,
		Mime:      info.Mime,
		SizeBytes: out.Size,
		CreatedAt: time.Now().UTC(),
	}
	_, err = h.pool.Exec(ctx,
		`INSERT INTO assets (id, kind, provider, object_key, mime, size_bytes, label, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		asset.ID, asset.Kind, asset.Provider, asset.ObjectKey, asset.Mime, asset.SizeBytes, nullIfEmpty(label), asset.CreatedAt,
	)
	if err != nil {
		// Orphaned object; nothing references it yet.
		_ = h.sp.DeleteObject(context.WithoutCancel(ctx), out.ObjectKey)
		return nil, errors.Wrap(err, "assets.insert", "db insert asset failed")
	}

	h.log.FromContext(ctx).Info("asset stored",
		"asset_id", asset.ID,
		"kind", kind,
		"mime", info.Mime,
		"size_bytes", asset.SizeBytes,
		"filename", header.Filename,
	)
	return asset, nil
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID := chi.URLParam(r, "assetId")

	var (
		a     models.Asset
		label sql.NullString
	)
	err := h.pool.QueryRow(ctx,
		`SELECT id, kind, provider, object_key, mime, size_bytes, label, created_at
		 FROM assets WHERE id=$1`, assetID,
	).Scan(&a.ID, &a.Kind, &a.Provider, &a.ObjectKey, &a.Mime, &a.SizeBytes, &label, &a.CreatedAt)
	if err != nil {
		httpkit.WriteErr(w, 404, "ASSET_NOT_FOUND", "asset not found", map[string]any{"asset_id": assetID})
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"asset": a,
		"label": label.String,
	})
}

func (h *Handler) StreamAsset(w http.ResponseWriter, r *http.Request) {
	h.streamAsset(w, r, chi.URLParam(r, "assetId"), "")
}

// streamAsset copies an asset's content to w. A non-empty downloadName adds
// an attachment Content-Disposition.
func (h *Handler) streamAsset(w http.ResponseWriter, r *http.Request, assetID, downloadName string) {
	ctx := r.Context()

	var objectKey, mimeType string
	var sizeBytes int64

	err := h.pool.QueryRow(ctx,
		`SELECT object_key, mime, size_bytes FROM assets WHERE id=$1`, assetID,
	).Scan(&objectKey, &mimeType, &sizeBytes)
	if err != nil {
		httpkit.WriteErr(w, 404, "ASSET_NOT_FOUND", "asset not found", map[string]any{"asset_id": assetID})
		return
	}

	rc, ct, _, err := h.sp.GetObject(ctx, objectKey)
	if err != nil {
		httpkit.WriteErr(w, 404, "ASSET_FILE_MISSING", "asset file missing", map[string]any{"object_key": objectKey})
		return
	}
	defer rc.Close()

	if ct == "" {
		ct = mimeType
	}
	w.Header().Set("Content-Type", ct)
	if sizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(sizeBytes, 10))
	}
	if downloadName != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.log.FromContext(ctx).Warn("asset stream interrupted", "asset_id", assetID, "error", err.Error())
	}
}

func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID := chi.URLParam(r, "assetId")

	var objectKey string
	err := h.pool.QueryRow(ctx, `SELECT object_key FROM assets WHERE id=$1`, assetID).Scan(&objectKey)
	if err != nil {
		httpkit.WriteErr(w, 404, "ASSET_NOT_FOUND", "asset not found", map[string]any{"asset_id": assetID})
		return
	}

	// job_outputs references assets by foreign key, so the row goes first
	// and the object only once nothing points at it.
	if _, err := h.pool.Exec(ctx, `DELETE FROM assets WHERE id=$1`, assetID); err != nil {
		if httpkit.IsForeignKeyViolation(err) {
			httpkit.WriteErr(w, 409, "ASSET_IN_USE", "asset is referenced by a job", map[string]any{"asset_id": assetID})
			return
		}
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db delete failed", nil)
		return
	}

	if err := h.sp.DeleteObject(ctx, objectKey); err != nil {
		h.log.FromContext(ctx).Warn("asset object not deleted", "asset_id", assetID, "object_key", objectKey, "error", err.Error())
	}

	w.WriteHeader(204)
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
