package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorBuilder_Defaults(t *testing.T) {
	err := NewError(CategoryBuild, "stage failed").Build()

	require.Equal(t, CategoryBuild, err.Category())
	require.Equal(t, SeverityError, err.Severity())
	require.Equal(t, "build: stage failed", err.Error())
	require.False(t, err.CanRetry())
	require.Empty(t, err.Context())
}

func TestErrorBuilder_WrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := WrapError(cause, CategoryFileSystem, "write page").
		WithContext("file", "a.html").
		Build()

	require.ErrorIs(t, err, cause)
	require.Equal(t, "filesystem: write page: disk full", err.Error())
	v, ok := err.Context().Get("file")
	require.True(t, ok)
	require.Equal(t, "a.html", v)
}

func TestErrorBuilder_BuildCopiesContext(t *testing.T) {
	b := ContentError("skip").WithContext("file", "a.html")
	first := b.Build()
	second := b.WithContext("file", "b.html").Build()

	v, _ := first.Context().Get("file")
	require.Equal(t, "a.html", v)
	v, _ = second.Context().Get("file")
	require.Equal(t, "b.html", v)
}

func TestConvenienceConstructors(t *testing.T) {
	require.True(t, HasCategory(ContentError("x").Build(), CategoryContent))
	require.Equal(t, SeverityWarning, ContentError("x").Build().Severity())
	require.Equal(t, SeverityError, ConfigError("x").Build().Severity())
	require.False(t, AlreadyExistsError("x").Build().CanRetry())
	require.Equal(t, CategoryEventStore, EventStoreError("x").Build().Category())
	require.Equal(t, CategoryInternal, InternalError("x").Build().Category())
}

func TestIsRetryable(t *testing.T) {
	retryable := NewError(CategoryNetwork, "publish").Retryable().Build()

	require.True(t, IsRetryable(retryable))
	require.True(t, IsRetryable(fmt.Errorf("notify: %w", retryable)))
	require.False(t, IsRetryable(NewError(CategoryNetwork, "listen").Build()))
	require.False(t, IsRetryable(stderrors.New("plain")))
}

func TestAsClassified_FindsWrappedError(t *testing.T) {
	inner := AlreadyExistsError("post exists").Build()
	wrapped := fmt.Errorf("save: %w", inner)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	require.Equal(t, inner, got)
	require.True(t, HasCategory(wrapped, CategoryAlreadyExists))
	require.False(t, HasCategory(stderrors.New("plain"), CategoryAlreadyExists))
	require.Equal(t, CategoryAlreadyExists, GetCategory(wrapped))
	require.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	require.Equal(t, SeverityError, GetSeverity(stderrors.New("plain")))
}

func TestClassifiedError_WithContextDoesNotMutateOriginal(t *testing.T) {
	base := NewError(CategoryContent, "skip").Build()
	derived := base.WithContext("file", "b.html")

	_, ok := base.Context().Get("file")
	require.False(t, ok)
	_, ok = derived.Context().Get("file")
	require.True(t, ok)
	require.ErrorIs(t, derived, base)
}
