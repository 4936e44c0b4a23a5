package css

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// ErrSassNotFound is returned when SCSS must be compiled but no sass binary is on PATH.
var ErrSassNotFound = errors.New("sass binary not found on PATH")

// entryNames are the accepted stylesheet entry points, in lookup order.
var entryNames = []string{"style.scss", "style.css"}

// Compiler turns the stylesheet entry point into plain CSS.
type Compiler interface {
	Compile(ctx context.Context, entry string) ([]byte, error)
}

// NewCompiler returns the compiler for mode.
func NewCompiler(mode config.CompilerMode) Compiler {
	switch mode {
	case config.CompilerSass:
		return &SassCompiler{}
	case config.CompilerPlain:
		return &PlainCompiler{}
	default:
		return &AutoCompiler{Sass: &SassCompiler{}, Plain: &PlainCompiler{}}
	}
}

// FindEntry locates the stylesheet entry point inside dir.
func FindEntry(dir string) (string, error) {
	for _, name := range entryNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ferrors.NotFoundError("no stylesheet entry point").
		WithContext("dir", dir).
		WithContext("candidates", strings.Join(entryNames, ",")).
		Build()
}

// PlainCompiler reads the entry point as-is.
type PlainCompiler struct{}

func (PlainCompiler) Compile(_ context.Context, entry string) ([]byte, error) {
	data, err := os.ReadFile(entry)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read stylesheet").
			WithContext("path", entry).
			Build()
	}
	return data, nil
}

// SassCompiler invokes the sass binary.
type SassCompiler struct {
	// Binary overrides the executable name; defaults to "sass".
	Binary string
}

func (s *SassCompiler) Compile(ctx context.Context, entry string) ([]byte, error) {
	binary := s.Binary
	if binary == "" {
		binary = "sass"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, ferrors.WrapError(fmt.Errorf("%w: %w", ErrSassNotFound, err), ferrors.CategoryCompiler, "compile stylesheet").
			WithContext("binary", binary).
			Build()
	}

	cmd := exec.CommandContext(ctx, binary, "--no-source-map", "--style=expanded", entry)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking sass", "entry", entry)

	if err := cmd.Run(); err != nil {
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryCompiler, "sass failed").
			WithContext("entry", entry).
			WithContext("output", output).
			Build()
	}
	if errStr := stderr.String(); errStr != "" {
		slog.Warn("sass stderr", "error_output", errStr)
	}
	return stdout.Bytes(), nil
}

// AutoCompiler picks a compiler from the entry point's extension.
type AutoCompiler struct {
	Sass  Compiler
	Plain Compiler
}

func (a *AutoCompiler) Compile(ctx context.Context, entry string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(entry), ".scss") {
		return a.Sass.Compile(ctx, entry)
	}
	return a.Plain.Compile(ctx, entry)
}
