package handlers

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"subburn/internal/httpkit"
	"subburn/internal/metrics"
	"subburn/internal/models"
	"subburn/internal/pkg/errors"
	"subburn/internal/worker/processor"
	"subburn/internal/worker/util"
)

func (h *Handler) PostJob(w http.ResponseWriter, r *http.Request) {
	var req models.JobParams
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	job, err := h.createJob(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 201, map[string]any{"job": job})
}

// PostJobUpload takes the three input files and the style as one multipart
// form, stores the assets and queues the job.
func (h *Handler) PostJobUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid multipart form", nil)
		return
	}

	style, err := styleFromForm(r.MultipartForm.Value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	params := models.JobParams{
		Name:       strings.TrimSpace(r.FormValue("name")),
		PresetID:   strings.TrimSpace(r.FormValue("preset_id")),
		OutputName: strings.TrimSpace(r.FormValue("output_name")),
		Style:      style,
		Inputs:     map[string]string{},
	}
	if v := strings.TrimSpace(r.FormValue("duration_seconds")); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			h.fail(w, r, errors.ValidationField("duration_seconds", "must be a number"))
			return
		}
		params.DurationSeconds = secs
	}

	type upload struct {
		file   multipart.File
		header *multipart.FileHeader
	}
	uploads := map[string]upload{}
	var missing []string
	for _, name := range models.InputNames {
		f, hdr, err := r.FormFile(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		defer f.Close()
		uploads[name] = upload{file: f, header: hdr}
	}
	if len(missing) > 0 {
		h.fail(w, r, errors.MissingInput(missing...))
		return
	}

	// Validate the style before storing anything.
	probe := params
	probe.Inputs = map[string]string{}
	for _, name := range models.InputNames {
		probe.Inputs[name] = "pending"
	}
	if _, err := h.parseParams(ctx, probe); err != nil {
		h.fail(w, r, err)
		return
	}

	for _, name := range models.InputNames {
		u := uploads[name]
		asset, err := h.storeAsset(ctx, name, u.header.Filename, u.file, u.header)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		params.Inputs[name] = asset.ID
	}

	job, err := h.createJob(ctx, params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 201, map[string]any{"job": job})
}

func (h *Handler) parseParams(ctx context.Context, params models.JobParams) (*processor.ParsedJob, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "jobs.encode", "failed to encode params")
	}
	return h.jobParser.Parse(ctx, string(raw))
}

func (h *Handler) createJob(ctx context.Context, params models.JobParams) (*models.Job, error) {
	parsed, err := h.parseParams(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := h.checkInputAssets(ctx, parsed.Inputs); err != nil {
		return nil, err
	}

	params.Inputs = parsed.Inputs
	params.OutputName = parsed.OutputName
	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "jobs.encode", "failed to encode params")
	}

	job := &models.Job{
		ID:        util.NewID("job"),
		Status:    models.JobQueued,
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}
	_, err = h.pool.Exec(ctx,
		`INSERT INTO jobs (id, name, status, params_json, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		job.ID, nullIfEmpty(params.Name), job.Status, string(paramsBytes), job.CreatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "jobs.insert", "db insert failed")
	}

	if err := h.queue.Push(ctx, job.ID); err != nil {
		_, _ = h.pool.Exec(context.WithoutCancel(ctx),
			`UPDATE jobs SET status='FAILED', finished_at=NOW(), error_code=$2, error_text=$3 WHERE id=$1`,
			job.ID, string(errors.CodeUnavailable), "queue push failed: "+err.Error(),
		)
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "jobs.enqueue", "queue push failed")
	}
	metrics.JobsEnqueuedTotal.Inc()

	h.log.FromContext(ctx).Info("job queued", "job_id", job.ID, "inputs", parsed.DescribeInputs())
	return job, nil
}

// checkInputAssets confirms every input names an existing asset of its kind.
func (h *Handler) checkInputAssets(ctx context.Context, inputs map[string]string) error {
	var missing []string
	for _, name := range models.InputNames {
		var kind string
		err := h.pool.QueryRow(ctx, `SELECT kind FROM assets WHERE id=$1`, inputs[name]).Scan(&kind)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		if kind != name {
			return errors.ValidationField("inputs."+name, "asset "+inputs[name]+" is a "+kind+" asset")
		}
	}
	if len(missing) > 0 {
		return errors.MissingInput(missing...)
	}
	return nil
}

// styleFromForm reads StyleConfig fields from form values. Absent fields
// are left to the preset and defaults.
func styleFromForm(form map[string][]string) (map[string]any, error) {
	get := func(k string) (string, bool) {
		v, ok := form[k]
		if !ok || len(v) == 0 || strings.TrimSpace(v[0]) == "" {
			return "", false
		}
		return strings.TrimSpace(v[0]), true
	}

	style := map[string]any{}
	for _, k := range []string{"font_name", "primary_color", "secondary_color", "outline_color", "back_color", "alignment"} {
		if v, ok := get(k); ok {
			style[k] = v
		}
	}
	for _, k := range []string{"font_size", "margin_l", "margin_r", "margin_v"} {
		if v, ok := get(k); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, errors.ValidationField(k, "must be an integer")
			}
			style[k] = n
		}
	}
	for _, k := range []string{"bold", "italic"} {
		if v, ok := get(k); ok {
			if strings.EqualFold(v, "on") {
				v = "true"
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, errors.ValidationField(k, "must be true or false")
			}
			style[k] = b
		}
	}
	return style, nil
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	limit := 50
	if v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit"))); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	rows, err := h.pool.Query(ctx,
		`SELECT id, COALESCE(name,''), status, COALESCE(error_code,''), created_at
		 FROM jobs
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2`,
		status, limit,
	)
	if err != nil {
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}
	defer rows.Close()

	type item struct {
		ID        string    `json:"id"`
		Name      string    `json:"name,omitempty"`
		Status    string    `json:"status"`
		ErrorCode string    `json:"error_code,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	out := make([]item, 0, limit)
	for rows.Next() {
		var it item
		if err := rows.Scan(&it.ID, &it.Name, &it.Status, &it.ErrorCode, &it.CreatedAt); err != nil {
			httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "row scan failed", nil)
			return
		}
		out = append(out, it)
	}

	httpkit.WriteJSON(w, 200, map[string]any{"jobs": out})
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	job, err := h.loadJob(ctx, jobID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpkit.WriteJSON(w, 200, map[string]any{"job": job})
}

// GetJobVideo downloads the rendered video of a finished job.
func (h *Handler) GetJobVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	job, err := h.loadJob(ctx, jobID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if job.Status != models.JobDone || job.Output == nil {
		httpkit.WriteErr(w, 409, "JOB_NOT_DONE", "job has no video yet", map[string]any{"job_id": jobID, "status": job.Status})
		return
	}

	h.streamAsset(w, r, job.Output.VideoAssetID, processor.OutputFilename(job.Params.OutputName))
}

func (h *Handler) loadJob(ctx context.Context, jobID string) (*models.Job, error) {
	var (
		job        models.Job
		paramsJSON string
	)
	err := h.pool.QueryRow(ctx,
		`SELECT id, status, params_json, COALESCE(error_code,''), COALESCE(failed_stage,''), COALESCE(error_text,''),
		        created_at, started_at, finished_at
		 FROM jobs WHERE id=$1`,
		jobID,
	).Scan(&job.ID, &job.Status, &paramsJSON, &job.ErrorCode, &job.FailedStage, &job.ErrorText,
		&job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if err != nil {
		return nil, errors.NotFound("job", jobID)
	}
	_ = json.Unmarshal([]byte(paramsJSON), &job.Params)

	var out models.JobOutput
	err = h.pool.QueryRow(ctx,
		`SELECT id, video_asset_id, COALESCE(captions_asset_id,''), COALESCE(duration_ms,0)
		 FROM job_outputs WHERE job_id=$1
		 ORDER BY id LIMIT 1`,
		jobID,
	).Scan(&out.ID, &out.VideoAssetID, &out.CaptionsAssetID, &out.DurationMS)
	if err == nil {
		job.Output = &out
	} else if httpkit.IsUndefinedTable(err) {
		h.log.FromContext(ctx).Warn("job_outputs table missing")
	}

	return &job, nil
}
