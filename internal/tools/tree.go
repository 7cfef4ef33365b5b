package tools

import (
	"bytes"
	"context"
	"strings"

	"github.com/ddddddO/gtree"

	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/tool"
)

// Tree draws the headline hierarchy of the input.
func Tree() *tool.Tool {
	return &tool.Tool{
		Name:  "tree",
		Usage: "Print the headline hierarchy as a tree diagram",
		IO:    true,
		Run: func(_ context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			text, err := RenderTree(env.Pipe.Source(), o)
			if err != nil {
				return err
			}
			return env.Pipe.WriteText(text)
		},
	}
}

// RenderTree draws o under a root node labeled name. Blank headlines are
// left out, and siblings with the same headline share one node.
func RenderTree(name string, o *outline.Outline) (string, error) {
	root := gtree.NewRoot(name)
	addNodes(root, o)
	var buf bytes.Buffer
	if err := gtree.OutputFromRoot(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func addNodes(parent *gtree.Node, o *outline.Outline) {
	for i := range o.Sections {
		s := &o.Sections[i]
		if strings.TrimSpace(s.Head) == "" {
			continue
		}
		addNodes(parent.Add(s.Head), &s.Body)
	}
}
