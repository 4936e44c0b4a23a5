// Package editor implements the authoring endpoints: staging uploaded images
// and saving a block document as a new content fragment.
//
// A save is a transaction over the filesystem. It either leaves a new
// fragment plus its image directory behind, or nothing at all.
package editor
