package config

import (
	"log/slog"
	"strings"
	"time"
)

const (
	defaultSource       = "src"
	defaultOutputMain   = "build"
	defaultOutputPosts  = "posts"
	defaultPort         = 8080
	defaultDebounce     = time.Second
	defaultStaging      = "img_temp"
	defaultEditorAssets = "editor"
	defaultNotifySubj   = "blogbuilder.builds"
)

func applyDefaults(cfg *Config) {
	if cfg.Source == "" {
		cfg.Source = defaultSource
	}
	if cfg.Output.Main == "" {
		cfg.Output.Main = defaultOutputMain
	}
	if cfg.Output.Posts == "" {
		cfg.Output.Posts = defaultOutputPosts
	}
	cfg.Site.Root = strings.TrimRight(cfg.Site.Root, "/")
	cfg.Site.Subfolder = strings.Trim(cfg.Site.Subfolder, "/")
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.ServeFrom == "" {
		cfg.Server.ServeFrom = cfg.Output.Main
	}
	if cfg.CSS.Compiler != "" {
		if _, err := compilerModes.NormalizeWithError(string(cfg.CSS.Compiler)); err != nil {
			slog.Warn("Unknown css.compiler, using auto", "error", err)
		}
	}
	cfg.CSS.Compiler = NormalizeCompilerMode(string(cfg.CSS.Compiler))
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = Duration(defaultDebounce)
	}
	if cfg.Editor.Staging == "" {
		cfg.Editor.Staging = defaultStaging
	}
	if cfg.Editor.Assets == "" {
		cfg.Editor.Assets = defaultEditorAssets
	}
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultNotifySubj
	}
	cfg.Log.Format = NormalizeLogFormat(string(cfg.Log.Format))
}
