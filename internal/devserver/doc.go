// Package devserver serves the generated site during development. It adds a
// live-reload channel, the editor endpoints and a Prometheus endpoint on top
// of plain static serving.
package devserver
