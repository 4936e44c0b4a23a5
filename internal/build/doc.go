// Package build runs every operation that writes to the output tree: the
// full site build and the narrower rebuilds the watch loop dispatches
// (posts, stylesheet, scripts, 404 page, single static files).
//
// All operations go through Builder.Run, which serialises them on one lock so
// no two of them mutate the build state or the output directory at the same
// time. A full build returns before its script bundle is written; the bundle
// is exposed as an awaitable task on the report.
package build
