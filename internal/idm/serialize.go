package idm

import (
	"strings"

	"github.com/starford/idmkit/internal/outline"
)

// Serialize writes o as IDM text. Attributes come first, then sections, each
// level indented by one style unit. Sections with an empty headline become
// blank lines. Blank lines at the end of the text are dropped, as Parse
// drops them.
func Serialize(o *outline.Outline, style Style) string {
	var b strings.Builder
	write(&b, o, 0, style)
	text := strings.TrimRight(b.String(), "\n")
	if text == "" {
		return ""
	}
	return text + "\n"
}

func write(b *strings.Builder, o *outline.Outline, depth int, style Style) {
	pad := style.indent(depth)
	for k, v := range o.Attrs.All() {
		b.WriteString(pad)
		b.WriteByte(':')
		b.WriteString(k)
		switch {
		case v == "":
			b.WriteByte('\n')
		case !strings.Contains(v, "\n"):
			b.WriteByte(' ')
			b.WriteString(v)
			b.WriteByte('\n')
		default:
			b.WriteByte('\n')
			inner := style.indent(depth + 1)
			for _, line := range strings.Split(v, "\n") {
				if line != "" {
					b.WriteString(inner)
					b.WriteString(line)
				}
				b.WriteByte('\n')
			}
		}
	}
	for i := range o.Sections {
		s := &o.Sections[i]
		if s.Head == "" && !s.Body.IsEmpty() {
			// A blank line cannot own a body, so the body continues at
			// this level.
			b.WriteByte('\n')
			write(b, &s.Body, depth, style)
			continue
		}
		if s.Head != "" {
			b.WriteString(pad)
			b.WriteString(s.Head)
		}
		b.WriteByte('\n')
		write(b, &s.Body, depth+1, style)
	}
}
