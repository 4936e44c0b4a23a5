package scripts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestBundler_Build(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "js")
	writeScript(t, src, "b.js", "var second = 2;\n")
	writeScript(t, src, "a.js", "var tpl = `[POSTLOOP]`;\nvar again = '[POSTLOOP]';\n")
	writeScript(t, src, "vendor.min.js", "var skipped = true;")
	writeScript(t, src, "notes.txt", "ignored")

	b := &Bundler{SourceDir: src, OutputDir: out}
	files, err := b.Sources()
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(src, "a.js"), filepath.Join(src, "b.js")}, files)

	target, err := b.Build(t.Context(), `<div class="card"></div>`)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, BundleFile), target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	bundle := string(data)
	require.Contains(t, bundle, `<div class="card"></div>`)
	require.Contains(t, bundle, "[POSTLOOP]")
	require.NotContains(t, bundle, "skipped")
	require.Less(t, strings.Index(bundle, "tpl"), strings.Index(bundle, "second"))
}

func TestBundler_MissingSourceDir(t *testing.T) {
	b := &Bundler{SourceDir: filepath.Join(t.TempDir(), "nope"), OutputDir: t.TempDir()}
	_, err := b.Build(t.Context(), "")
	require.NoError(t, err)
}

func TestTask(t *testing.T) {
	release := make(chan struct{})
	task := Go(t.Context(), func(context.Context) error {
		<-release
		return errors.New("boom")
	})
	require.False(t, task.Finished())
	require.Zero(t, task.Duration())

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, task.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.EqualError(t, task.Wait(t.Context()), "boom")
	require.True(t, task.Finished())

	require.NoError(t, Done(nil).Wait(t.Context()))
}
