// Package errors provides coded errors for subburn.
// Errors carry an operation, structured fields and a captured stack so the
// API can map them to HTTP statuses and the worker can record why a job
// failed.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code is the machine-readable category clients and job rows see.
type Code string

// General codes.
const (
	CodeInternal    Code = "INTERNAL_ERROR"
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeNotFound    Code = "NOT_FOUND"
	CodeConflict    Code = "CONFLICT"
	CodeUnavailable Code = "UNAVAILABLE"
)

// Render job failure codes.
const (
	CodeMissingInput          Code = "MISSING_INPUT"
	CodeMalformedTimestamp    Code = "MALFORMED_TIMESTAMP"
	CodeInvalidColorFormat    Code = "INVALID_COLOR_FORMAT"
	CodeSourceUnreadable      Code = "SOURCE_UNREADABLE"
	CodeDestinationUnwritable Code = "DESTINATION_UNWRITABLE"
	CodeExternalTool          Code = "EXTERNAL_TOOL_FAILURE"
)

type Error struct {
	Code    Code
	Message string
	// Op names the failing operation, e.g. "render.mux_audio".
	Op     string
	Err    error
	Fields map[string]any
	Stack  []Frame
}

type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

// Error renders "op: [CODE] message: cause".
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	if e.Code != "" {
		b.WriteString("[")
		b.WriteString(string(e.Code))
		b.WriteString("] ")
	}

	b.WriteString(e.Message)

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithField sets a field in place and returns e for chaining.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

var httpStatus = map[Code]int{
	CodeValidation:            400,
	CodeMissingInput:          400,
	CodeNotFound:              404,
	CodeConflict:              409,
	CodeMalformedTimestamp:    422,
	CodeInvalidColorFormat:    422,
	CodeSourceUnreadable:      500,
	CodeDestinationUnwritable: 500,
	CodeExternalTool:          502,
	CodeUnavailable:           503,
}

// HTTPStatus maps the code to a response status; unknown codes are 500.
func (e *Error) HTTPStatus() int {
	if st, ok := httpStatus[e.Code]; ok {
		return st
	}
	return 500
}

// StackTrace returns the stack trace as a formatted string.
func (e *Error) StackTrace() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	for _, f := range e.Stack {
		fmt.Fprintf(&b, "  %s:%d %s\n", f.File, f.Line, f.Function)
	}
	return b.String()
}

// New creates a new error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, op string, message string) *Error {
	if err == nil {
		return nil
	}

	// Code and fields survive rewrapping.
	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Code:    e.Code,
			Message: message,
			Op:      op,
			Err:     err,
			Fields:  e.Fields,
			Stack:   captureStack(2),
		}
	}

	return &Error{
		Code:    CodeInternal,
		Message: message,
		Op:      op,
		Err:     err,
		Stack:   captureStack(2),
	}
}

// WrapWithCode wraps an error with a specific code.
func WrapWithCode(err error, code Code, op string, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
		Stack:   captureStack(2),
	}
}

func Internal(message string) *Error {
	return New(CodeInternal, message)
}

func NotFound(resource string, id string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id)).
		WithField("resource", resource).
		WithField("id", id)
}

// ValidationField creates a validation error for a specific field.
func ValidationField(field string, message string) *Error {
	return New(CodeValidation, message).WithField("field", field)
}

// MissingInput reports required job inputs that were not supplied.
func MissingInput(names ...string) *Error {
	return New(CodeMissingInput, "missing input: "+strings.Join(names, ", ")).
		WithField("input", strings.Join(names, ","))
}

// MalformedTimestamp reports a caption timestamp that cannot be reformatted.
func MalformedTimestamp(value string) *Error {
	return New(CodeMalformedTimestamp, fmt.Sprintf("malformed timestamp %q", value)).
		WithField("timestamp", value)
}

// InvalidColorFormat reports a color that is not #RRGGBB or #AARRGGBB.
func InvalidColorFormat(value string) *Error {
	return New(CodeInvalidColorFormat, fmt.Sprintf("invalid color %q: want #RRGGBB or #AARRGGBB", value)).
		WithField("color", value)
}

// SourceUnreadable wraps a failure to open or read a source file.
func SourceUnreadable(err error, op string, path string) *Error {
	return WrapWithCode(err, CodeSourceUnreadable, op, "cannot read source file").
		WithField("path", path)
}

// DestinationUnwritable wraps a failure to create or write a destination file.
func DestinationUnwritable(err error, op string, path string) *Error {
	return WrapWithCode(err, CodeDestinationUnwritable, op, "cannot write destination file").
		WithField("path", path)
}

// ExternalTool wraps a failed external encoder invocation for a stage.
func ExternalTool(err error, stage string, message string) *Error {
	if err == nil {
		err = New(CodeExternalTool, message)
	}
	return WrapWithCode(err, CodeExternalTool, "render."+stage, message).
		WithField("stage", stage)
}

// GetCode returns CodeInternal for errors outside this package.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// GetHTTPStatus is 500 for errors outside this package.
func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return 500
}

func GetFields(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) && e.Fields != nil {
		return e.Fields
	}
	return nil
}

func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

func IsValidation(err error) bool {
	return IsCode(err, CodeValidation)
}

// IsMissingInput checks if an error reports missing job inputs.
func IsMissingInput(err error) bool {
	return IsCode(err, CodeMissingInput)
}

// IsExternalTool checks if an error comes from a failed encoder stage.
func IsExternalTool(err error) bool {
	return IsCode(err, CodeExternalTool)
}

// captureStack keeps at most ten non-runtime frames above skip.
func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+1, pcs[:])

	frames := make([]Frame, 0, n)
	callersFrames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := callersFrames.Next()

		if strings.Contains(frame.File, "runtime/") {
			if !more {
				break
			}
			continue
		}

		frames = append(frames, Frame{
			File:     frame.File,
			Line:     frame.Line,
			Function: frame.Function,
		})

		if !more || len(frames) >= 10 {
			break
		}
	}

	return frames
}

// As and Is forward to the standard library so callers need one import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}
