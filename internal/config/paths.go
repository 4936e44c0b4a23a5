package config

import "path/filepath"

// PartialsDir is the directory holding content fragments.
func (c *Config) PartialsDir() string { return filepath.Join(c.Source, "partials") }

// TemplatesDir is the directory holding page templates.
func (c *Config) TemplatesDir() string { return filepath.Join(c.Source, "templates") }

// StylesDir is the directory holding stylesheet sources.
func (c *Config) StylesDir() string { return filepath.Join(c.Source, "styles") }

// ScriptsDir is the directory holding script sources.
func (c *Config) ScriptsDir() string { return filepath.Join(c.Source, "js") }

// CopyDir is the directory mirrored verbatim into the output root.
func (c *Config) CopyDir() string { return filepath.Join(c.Source, "copy") }

// OutputDir is the output root.
func (c *Config) OutputDir() string { return c.Output.Main }

// PostsOutputDir is where assembled post pages are written.
func (c *Config) PostsOutputDir() string { return filepath.Join(c.Output.Main, c.Output.Posts) }

// ImagesOutputDir is where post images are stored.
func (c *Config) ImagesOutputDir() string { return filepath.Join(c.Output.Main, "img") }

// SubfolderPrefix is the subfolder with a trailing slash, or "" when unset.
func (c *Config) SubfolderPrefix() string {
	if c.Site.Subfolder == "" {
		return ""
	}
	return c.Site.Subfolder + "/"
}

// BaseURL is the absolute site URL including the subfolder, always ending in "/".
func (c *Config) BaseURL() string {
	return c.Site.Root + "/" + c.SubfolderPrefix()
}

// SitePath is the root-relative site path including the subfolder, always ending in "/".
func (c *Config) SitePath() string {
	return "/" + c.SubfolderPrefix()
}

// PostURL is the absolute URL of a generated post page.
func (c *Config) PostURL(file string) string {
	return c.BaseURL() + c.Output.Posts + "/" + file
}

// PostPath is the root-relative path of a generated post page.
func (c *Config) PostPath(file string) string {
	return c.SitePath() + c.Output.Posts + "/" + file
}
