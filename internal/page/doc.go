// Package page composes complete HTML documents from the site templates.
//
// Templates are read once and kept as strings; every page starts from a fresh
// parse of the cached markup so no mutation leaks between pages. The post
// template is composed into the shell when the templates are loaded.
package page
