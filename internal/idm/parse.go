// Package idm reads and writes the indented outline notation.
//
// A document is a block of lines. Lines starting with ':' at the top of a
// block are attributes, either inline (":key value") or with an indented
// multi-line value below a bare ":key". Every other line is a section
// headline, and the more indented lines below it form its body. Blank lines
// are sections with an empty headline.
package idm

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/starford/idmkit/internal/apperr"
	"github.com/starford/idmkit/internal/outline"
)

// ParseError reports malformed outline text.
type ParseError struct {
	Source string
	Line   int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Msg)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return apperr.ErrParse }

// Parse reads an outline from text.
func Parse(text string) (*outline.Outline, error) {
	return ParseSource("", text)
}

// ParseSource is Parse with a source name, usually a file path, recorded in
// errors.
func ParseSource(source, text string) (*outline.Outline, error) {
	text, err := Normalize(text)
	if err != nil {
		return nil, &ParseError{Source: source, Line: 1, Msg: err.Error()}
	}
	p := &parser{source: source, lines: splitLines(text)}
	o := &outline.Outline{}
	if err := p.block(0, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Normalize strips a byte order mark and converts CRLF line endings.
func Normalize(text string) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.String(dec, text)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return strings.ReplaceAll(out, "\r\n", "\n"), nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

type parser struct {
	source string
	lines  []string
	pos    int
	indent byte
}

func (p *parser) errorf(idx int, format string, args ...any) error {
	return &ParseError{Source: p.source, Line: idx + 1, Msg: fmt.Sprintf(format, args...)}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func leading(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

// width returns the indentation of structural line idx and checks that the
// document sticks to one indentation character.
func (p *parser) width(idx int) (int, error) {
	s := p.lines[idx]
	n := leading(s)
	if n == 0 {
		return 0, nil
	}
	c := s[0]
	if strings.Trim(s[:n], string(c)) != "" {
		return 0, p.errorf(idx, "mixed tabs and spaces in indentation")
	}
	if p.indent == 0 {
		p.indent = c
	} else if p.indent != c {
		return 0, p.errorf(idx, "indentation does not match the rest of the document")
	}
	return n, nil
}

func (p *parser) nextNonBlank() int {
	for i := p.pos; i < len(p.lines); i++ {
		if !isBlank(p.lines[i]) {
			return i
		}
	}
	return -1
}

// peekWidth returns the width of the next non-blank line, or -1 at the end
// of input.
func (p *parser) peekWidth() (int, int, error) {
	next := p.nextNonBlank()
	if next < 0 {
		return -1, -1, nil
	}
	w, err := p.width(next)
	return next, w, err
}

// block parses the lines indented by exactly width into o. It returns at the
// first line indented less.
func (p *parser) block(width int, o *outline.Outline) error {
	attrs := true
	for p.pos < len(p.lines) {
		next, w, err := p.peekWidth()
		if err != nil {
			return err
		}
		if next < 0 {
			// Trailing blank lines.
			p.pos = len(p.lines)
			return nil
		}
		if w < width {
			return nil
		}
		if w > width {
			return p.errorf(next, "unexpected indentation")
		}

		for ; p.pos < next; p.pos++ {
			o.Sections = append(o.Sections, outline.Section{})
			attrs = false
		}

		text := p.lines[next][w:]
		p.pos = next + 1

		if attrs && strings.HasPrefix(text, ":") {
			if err := p.attr(width, next, text[1:], o); err != nil {
				return err
			}
			continue
		}
		attrs = false

		s := outline.Section{Head: text}
		child, cw, err := p.peekWidth()
		if err != nil {
			return err
		}
		if child >= 0 && cw > width {
			if err := p.block(cw, &s.Body); err != nil {
				return err
			}
			after, aw, err := p.peekWidth()
			if err != nil {
				return err
			}
			if after >= 0 && aw > width {
				return p.errorf(after, "unindent does not match any outer indentation level")
			}
		}
		o.Sections = append(o.Sections, s)
	}
	return nil
}

func (p *parser) attr(width, idx int, text string, o *outline.Outline) error {
	key, value, inline := strings.Cut(text, " ")
	if key == "" {
		return p.errorf(idx, "empty attribute name")
	}
	if o.Attrs.Has(key) {
		return p.errorf(idx, "duplicate attribute %q", key)
	}

	if inline {
		o.Attrs.Set(key, value)
		next, w, err := p.peekWidth()
		if err != nil {
			return err
		}
		if next >= 0 && w > width {
			return p.errorf(next, "unexpected indentation after attribute %q", key)
		}
		return nil
	}

	// Multi-line value: every following line indented past the attribute.
	end := p.pos
	for i := p.pos; i < len(p.lines); i++ {
		if isBlank(p.lines[i]) {
			continue
		}
		if leading(p.lines[i]) <= width {
			break
		}
		end = i + 1
	}
	raw := p.lines[p.pos:end]
	p.pos = end

	// Dedent by the shallowest line so relative indentation survives.
	base := -1
	for _, line := range raw {
		if isBlank(line) {
			continue
		}
		if n := leading(line); base < 0 || n < base {
			base = n
		}
	}
	out := make([]string, len(raw))
	for i, line := range raw {
		if !isBlank(line) {
			out[i] = line[base:]
		}
	}
	o.Attrs.Set(key, strings.Join(out, "\n"))
	return nil
}
