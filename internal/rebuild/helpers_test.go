package rebuild

import (
	"context"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/scripts"
)

type serviceFunc func(ctx context.Context, req build.Request) (*build.Report, error)

func (f serviceFunc) Run(ctx context.Context, req build.Request) (*build.Report, error) {
	return f(ctx, req)
}

func scriptsTask(ctx context.Context, fn func()) *scripts.Task {
	return scripts.Go(ctx, func(context.Context) error {
		fn()
		return nil
	})
}
