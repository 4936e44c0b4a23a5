// Package rebuild turns filesystem changes under the source tree into build
// requests, runs them with at most one instance of each kind in flight and
// signals connected browsers to reload once a burst of work settles.
package rebuild
