package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "font size must be positive")

	if err.Code != CodeValidation {
		t.Errorf("expected code=%s, got %s", CodeValidation, err.Code)
	}
	if len(err.Stack) == 0 {
		t.Error("expected stack trace to be captured")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name:     "simple error",
			err:      New(CodeValidation, "invalid"),
			contains: []string{"[VALIDATION_ERROR] invalid"},
		},
		{
			name:     "with op and cause",
			err:      SourceUnreadable(fs.ErrPermission, "subtitle.read", "/in/talk.vtt"),
			contains: []string{"subtitle.read: ", "[SOURCE_UNREADABLE]", "permission denied"},
		},
		{
			name:     "stage failure",
			err:      ExternalTool(fmt.Errorf("exit status 1"), "mux_audio", "ffmpeg exited with error"),
			contains: []string{"render.mux_audio", "EXTERNAL_TOOL_FAILURE", "exit status 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			str := tt.err.Error()
			for _, c := range tt.contains {
				if !strings.Contains(str, c) {
					t.Errorf("expected error string to contain %q, got: %s", c, str)
				}
			}
		})
	}
}

func TestWrap(t *testing.T) {
	original := fmt.Errorf("connection refused")
	wrapped := Wrap(original, "jobs.insert", "db insert failed")

	if wrapped.Code != CodeInternal {
		t.Errorf("expected code=%s, got %s", CodeInternal, wrapped.Code)
	}
	if errors.Unwrap(wrapped) != original {
		t.Error("Unwrap should return original error")
	}
	if Wrap(nil, "op", "message") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapPreservesCodeAndFields(t *testing.T) {
	original := MissingInput("audio")
	wrapped := Wrap(original, "processor.parse", "job rejected")

	if wrapped.Code != CodeMissingInput {
		t.Errorf("expected code to be preserved as %s, got %s", CodeMissingInput, wrapped.Code)
	}
	if GetFields(wrapped)["input"] != "audio" {
		t.Errorf("expected input field to survive wrapping, got %v", GetFields(wrapped))
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     Code
		expected int
	}{
		{CodeValidation, 400},
		{CodeMissingInput, 400},
		{CodeNotFound, 404},
		{CodeConflict, 409},
		{CodeMalformedTimestamp, 422},
		{CodeInvalidColorFormat, 422},
		{CodeSourceUnreadable, 500},
		{CodeDestinationUnwritable, 500},
		{CodeExternalTool, 502},
		{CodeUnavailable, 503},
		{CodeInternal, 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "x").HTTPStatus(); got != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestDomainConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		code   Code
		fields map[string]any
	}{
		{
			name:   "missing input lists every name",
			err:    MissingInput("captions", "audio"),
			code:   CodeMissingInput,
			fields: map[string]any{"input": "captions,audio"},
		},
		{
			name:   "malformed timestamp",
			err:    MalformedTimestamp("00:01.000"),
			code:   CodeMalformedTimestamp,
			fields: map[string]any{"timestamp": "00:01.000"},
		},
		{
			name:   "invalid color",
			err:    InvalidColorFormat("#FFF"),
			code:   CodeInvalidColorFormat,
			fields: map[string]any{"color": "#FFF"},
		},
		{
			name:   "destination unwritable",
			err:    DestinationUnwritable(fs.ErrPermission, "render.publish", "/out/video.mp4"),
			code:   CodeDestinationUnwritable,
			fields: map[string]any{"path": "/out/video.mp4"},
		},
		{
			name:   "external tool without cause",
			err:    ExternalTool(nil, "preflight", "ffmpeg not found"),
			code:   CodeExternalTool,
			fields: map[string]any{"stage": "preflight"},
		},
		{
			name:   "validation field",
			err:    ValidationField("alignment", "alignment must be 1-9"),
			code:   CodeValidation,
			fields: map[string]any{"field": "alignment"},
		},
		{
			name:   "not found",
			err:    NotFound("preset", "pst_1"),
			code:   CodeNotFound,
			fields: map[string]any{"resource": "preset", "id": "pst_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			for k, v := range tt.fields {
				if tt.err.Fields[k] != v {
					t.Errorf("field %s = %v, want %v", k, tt.err.Fields[k], v)
				}
			}
		})
	}
}

func TestCauseSurvivesDomainWrap(t *testing.T) {
	err := SourceUnreadable(fs.ErrNotExist, "render.captions", "/tmp/captions.ass")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected the filesystem cause to stay reachable")
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(InvalidColorFormat("#12")) != CodeInvalidColorFormat {
		t.Error("expected code from *Error")
	}
	if GetCode(fmt.Errorf("plain")) != CodeInternal {
		t.Error("expected INTERNAL_ERROR for a plain error")
	}
	wrapped := fmt.Errorf("render: %w", ExternalTool(nil, "burn_captions", "ffmpeg exited with error"))
	if !IsExternalTool(wrapped) {
		t.Error("expected code through fmt wrapping")
	}
	if GetHTTPStatus(wrapped) != 502 {
		t.Errorf("expected 502, got %d", GetHTTPStatus(wrapped))
	}
	if GetFields(fmt.Errorf("plain")) != nil {
		t.Error("expected nil fields for a plain error")
	}
}

func TestPredicates(t *testing.T) {
	if !IsMissingInput(MissingInput("background")) {
		t.Error("IsMissingInput")
	}
	if !IsValidation(ValidationField("font_size", "must be positive")) {
		t.Error("IsValidation")
	}
	if IsValidation(MissingInput("background")) {
		t.Error("missing input is not a validation error")
	}
	if !IsCode(Internal("boom"), CodeInternal) {
		t.Error("IsCode")
	}
}

func TestStackTrace(t *testing.T) {
	stack := New(CodeInternal, "test error").StackTrace()
	if !strings.Contains(stack, ".go:") {
		t.Errorf("expected stack trace to contain file references, got: %s", stack)
	}
}

func TestErrorIsMatchesCode(t *testing.T) {
	a := MissingInput("audio")
	b := MissingInput("captions")

	if !errors.Is(a, b) {
		t.Error("expected errors with same code to match with Is")
	}
	if errors.Is(a, InvalidColorFormat("#1")) {
		t.Error("expected errors with different codes to not match")
	}

	var target *Error
	if !As(fmt.Errorf("wrapped: %w", a), &target) || target.Code != CodeMissingInput {
		t.Error("expected As to find Error in chain")
	}
}
