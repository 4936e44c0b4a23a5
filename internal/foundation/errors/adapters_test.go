package errors

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: http.StatusOK},
		{name: "validation", err: ValidationError("bad form").Build(), expected: http.StatusBadRequest},
		{name: "already exists", err: AlreadyExistsError("dup").Build(), expected: http.StatusConflict},
		{name: "content", err: ContentError("no body").Build(), expected: http.StatusUnprocessableEntity},
		{name: "filesystem", err: FileSystemError("io").Build(), expected: http.StatusInternalServerError},
		{name: "unclassified", err: stderrors.New("boom"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.StatusCodeFor(tt.err))
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/editor/save", nil)

	adapter.WriteErrorResponse(rec, req, ValidationError("missing title").WithContext("field", "title").Build())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.False(t, payload.Success)
	require.Equal(t, "missing title", payload.Error)
	require.Equal(t, "validation", payload.Code)
	require.Equal(t, "title", payload.Details["field"])
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	require.Equal(t, 0, adapter.ExitCodeFor(nil))
	require.Equal(t, 1, adapter.ExitCodeFor(stderrors.New("plain")))
	require.Equal(t, 2, adapter.ExitCodeFor(ValidationError("x").Build()))
	require.Equal(t, 7, adapter.ExitCodeFor(ConfigError("x").Build()))
	require.Equal(t, 11, adapter.ExitCodeFor(BuildError("x").Build()))
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())
	err := WrapError(stderrors.New("no such file"), CategoryConfig, "load config").Build()

	require.Equal(t, "Error: load config: no such file", quiet.FormatError(err))
	require.Equal(t, err.Error(), verbose.FormatError(err))
	require.Equal(t, "Error: plain", quiet.FormatError(stderrors.New("plain")))
	require.Empty(t, quiet.FormatError(nil))
}
