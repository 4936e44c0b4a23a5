package config

import "git.home.luguber.info/inful/blogbuilder/internal/foundation/normalization"

// CompilerMode selects how the stylesheet entry point is compiled.
type CompilerMode string

const (
	CompilerAuto  CompilerMode = "auto"
	CompilerSass  CompilerMode = "sass"
	CompilerPlain CompilerMode = "plain"
)

var compilerModes = normalization.NewNormalizer(map[string]CompilerMode{
	"auto":  CompilerAuto,
	"sass":  CompilerSass,
	"scss":  CompilerSass,
	"plain": CompilerPlain,
	"css":   CompilerPlain,
}, CompilerAuto)

// NormalizeCompilerMode maps free-form input to a CompilerMode, defaulting to auto.
func NormalizeCompilerMode(raw string) CompilerMode {
	return compilerModes.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = normalization.NewNormalizer(map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

// NormalizeLogFormat maps free-form input to a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	return logFormats.Normalize(raw)
}
