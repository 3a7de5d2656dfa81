package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subburn/internal/adapters/storage/localfs"
	"subburn/internal/pkg/logger"
)

// The handlers below fail validation before touching postgres or redis, so
// a Handler without a pool is enough.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return New(Deps{
		SP:      localfs.New(t.TempDir()),
		Log:     logger.New(logger.Config{Level: "error", Format: "json", Output: &bytes.Buffer{}}),
		Version: "test",
	})
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "subburn-api", body["service"])
	assert.Equal(t, "test", body["version"])
}

func TestPostJobValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "invalid json",
			body:   `{"inputs":`,
			status: 400,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "unknown field",
			body:   `{"template_id":"x"}`,
			status: 400,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "missing inputs",
			body:   `{"inputs":{"captions":"ast_1"}}`,
			status: 400,
			code:   "MISSING_INPUT",
		},
		{
			name:   "bad color",
			body:   `{"inputs":{"captions":"a","background":"b","audio":"c"},"style":{"primary_color":"#GGHHII"}}`,
			status: 422,
			code:   "INVALID_COLOR_FORMAT",
		},
		{
			name:   "bad alignment",
			body:   `{"inputs":{"captions":"a","background":"b","audio":"c"},"style":{"alignment":12}}`,
			status: 400,
			code:   "VALIDATION_ERROR",
		},
	}

	h := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(tt.body))
			h.PostJob(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeError(t, rec).Error.Code)
		})
	}
}

func TestPostJobMissingInputsListed(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.PostJob(rec, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(`{"inputs":{}}`)))

	require.Equal(t, 400, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "captions,background,audio", body.Error.Details["input"])
	assert.Equal(t, "missing input: captions, background, audio", body.Error.Message)
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPostAssetValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string][]byte
		field  string
	}{
		{
			name:   "unknown kind",
			fields: map[string]string{"kind": "thumbnail"},
			files:  map[string][]byte{"file": []byte("x")},
			field:  "kind",
		},
		{
			name:   "no file",
			fields: map[string]string{"kind": "audio"},
			field:  "file",
		},
		{
			name:   "png posted as audio",
			fields: map[string]string{"kind": "audio"},
			files:  map[string][]byte{"file": []byte("\x89PNG\r\n\x1a\n0000")},
			field:  "file",
		},
		{
			name:   "srt posted as captions",
			fields: map[string]string{"kind": "captions"},
			files:  map[string][]byte{"file": []byte("1\n00:00:01,000 -> 00:00:02,000\nhi\n")},
			field:  "file",
		},
	}

	h := newTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fields, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/assets", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			h.PostAsset(rec, req)

			assert.Equal(t, 400, rec.Code, rec.Body.String())
			resp := decodeError(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			assert.Equal(t, tt.field, resp.Error.Details["field"])
		})
	}
}

func TestPostJobUploadValidation(t *testing.T) {
	h := newTestHandler(t)

	t.Run("missing files", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"font_size": "40"}, map[string][]byte{
			"captions": []byte("WEBVTT\n"),
		})
		req := httptest.NewRequest(http.MethodPost, "/jobs/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		h.PostJobUpload(rec, req)

		assert.Equal(t, 400, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "MISSING_INPUT", resp.Error.Code)
		assert.Equal(t, "background,audio", resp.Error.Details["input"])
		assert.Equal(t, "missing input: background, audio", resp.Error.Message)
	})

	t.Run("non numeric font size", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"font_size": "big"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/jobs/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		h.PostJobUpload(rec, req)

		assert.Equal(t, 400, rec.Code)
		assert.Equal(t, "font_size", decodeError(t, rec).Error.Details["field"])
	})

	t.Run("invalid color rejected before storing", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"back_color": "#1234"}, map[string][]byte{
			"captions":   []byte("WEBVTT\n"),
			"background": []byte("not checked yet"),
			"audio":      []byte("ID3"),
		})
		req := httptest.NewRequest(http.MethodPost, "/jobs/upload", body)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()

		h.PostJobUpload(rec, req)

		assert.Equal(t, 422, rec.Code)
		assert.Equal(t, "INVALID_COLOR_FORMAT", decodeError(t, rec).Error.Code)
	})
}

func TestStyleFromForm(t *testing.T) {
	style, err := styleFromForm(map[string][]string{
		"font_name": {" Roboto "},
		"font_size": {"48"},
		"bold":      {"on"},
		"italic":    {"false"},
		"alignment": {"top-center"},
		"margin_v":  {""},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"font_name": "Roboto",
		"font_size": 48,
		"bold":      true,
		"italic":    false,
		"alignment": "top-center",
	}, style)

	_, err = styleFromForm(map[string][]string{"italic": {"sometimes"}})
	require.Error(t, err)
}
