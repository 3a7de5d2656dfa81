package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"subburn/internal/httpkit"
	"subburn/internal/models"
	"subburn/internal/repositories"
	"subburn/internal/subtitle"
	"subburn/internal/worker/util"
)

type CreatePresetRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Style       map[string]any `json:"style"`
}

func (h *Handler) PostPreset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePresetRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "name is required", map[string]any{"field": "name"})
		return
	}
	if req.Style == nil {
		req.Style = map[string]any{}
	}

	// A preset stores only its overrides, but they must produce a valid style.
	style, err := subtitle.MergeStyle(subtitle.DefaultStyle(), req.Style)
	if err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", err.Error(), map[string]any{"field": "style"})
		return
	}
	if err := style.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}

	p := &models.Preset{
		ID:          util.NewID("pst"),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Style:       req.Style,
	}
	if err := h.presets.Create(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrPresetNameExists) {
			httpkit.WriteErr(w, 409, "PRESET_NAME_EXISTS", "preset name already exists", map[string]any{"field": "name"})
			return
		}
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db insert failed", nil)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{
		"preset":          p,
		"effective_style": style,
	})
}

func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.presets.List(r.Context())
	if err != nil {
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"presets": presets})
}

func (h *Handler) GetPreset(w http.ResponseWriter, r *http.Request) {
	presetID := chi.URLParam(r, "presetId")

	p, err := h.presets.Get(r.Context(), presetID)
	if err != nil {
		if errors.Is(err, repositories.ErrPresetNotFound) {
			httpkit.WriteErr(w, 404, "PRESET_NOT_FOUND", "preset not found", map[string]any{"preset_id": presetID})
			return
		}
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}

	resp := map[string]any{"preset": p}
	if style, err := subtitle.MergeStyle(subtitle.DefaultStyle(), p.Style); err == nil {
		resp["effective_style"] = style
	}
	httpkit.WriteJSON(w, 200, resp)
}

func (h *Handler) DeletePreset(w http.ResponseWriter, r *http.Request) {
	presetID := chi.URLParam(r, "presetId")

	if err := h.presets.Delete(r.Context(), presetID); err != nil {
		if errors.Is(err, repositories.ErrPresetNotFound) {
			httpkit.WriteErr(w, 404, "PRESET_NOT_FOUND", "preset not found", map[string]any{"preset_id": presetID})
			return
		}
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db delete failed", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
