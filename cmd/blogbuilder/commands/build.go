package commands

import (
	"os"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Override output.main from the configuration"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Main = b.Output
	}
	return runKind(cfg, build.KindFull)
}

// CSSCmd implements the 'css' command.
type CSSCmd struct{}

func (c *CSSCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	return runKind(cfg, build.KindCSS)
}

// ScriptsCmd implements the 'scripts' command.
type ScriptsCmd struct{}

func (s *ScriptsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	return runKind(cfg, build.KindScripts)
}

func runKind(cfg *config.Config, kind build.Kind) error {
	ctx, cancel := signalContext()
	defer cancel()

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	_, err = runOnce(ctx, os.Stdout, b.builder(cfg, nil), kind)
	return err
}
