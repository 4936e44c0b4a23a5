package config

import (
	"net/url"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Validate checks the configuration for values the build cannot work with.
func (c *Config) Validate() error {
	if c.Site.Root == "" {
		return ferrors.ConfigError("site.root is required").Build()
	}
	u, err := url.Parse(c.Site.Root)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ferrors.ConfigError("site.root must be an absolute URL").WithContext("root", c.Site.Root).Build()
	}
	if strings.Contains(c.Output.Posts, "..") || filepath.IsAbs(c.Output.Posts) {
		return ferrors.ConfigError("output.posts must be a relative path inside output.main").
			WithContext("posts", c.Output.Posts).
			Build()
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return ferrors.ConfigError("server.port out of range").WithContext("port", c.Server.Port).Build()
	}
	if c.Watch.RebuildEvery < 0 {
		return ferrors.ConfigError("watch.rebuildEvery must not be negative").Build()
	}
	return nil
}
