// Package tools implements the outline-processing subcommands.
//
// Every tool reads an outline through the pipe its Env carries and writes
// the result back through it, so each one works on standard input, a single
// file or a whole collection directory.
package tools

import (
	"github.com/starford/idmkit/internal/tool"
)

// All returns every tool in this package.
func All() []*tool.Tool {
	return []*tool.Tool{
		Cat(),
		Columnize(),
		Expand(),
		Faves(),
		FindDupes(),
		Glob(),
		ImportRaindrop(),
		ListTags(),
		RemoveExisting(),
		RenameTag(),
		ReplaceTags(),
		SortBy(),
		Table(),
		Tagged(),
		Tree(),
		Weave(),
	}
}

// Register adds every tool to r.
func Register(r *tool.Registry) error {
	for _, t := range All() {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
