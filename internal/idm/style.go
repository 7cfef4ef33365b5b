package idm

import (
	"fmt"
	"strconv"
	"strings"
)

// Style is the indentation used when serializing.
type Style struct {
	Tabs   bool
	Spaces int
}

// DefaultStyle indents with two spaces.
var DefaultStyle = Style{Spaces: 2}

func (s Style) unit() string {
	if s.Tabs {
		return "\t"
	}
	n := s.Spaces
	if n <= 0 {
		n = DefaultStyle.Spaces
	}
	return strings.Repeat(" ", n)
}

func (s Style) indent(depth int) string {
	return strings.Repeat(s.unit(), depth)
}

func (s Style) String() string {
	if s.Tabs {
		return "tabs"
	}
	return strconv.Itoa(s.Spaces)
}

// InferStyle returns the style of the first indented line in text, or
// DefaultStyle when nothing is indented.
func InferStyle(text string) Style {
	if s, ok := DetectStyle(text); ok {
		return s
	}
	return DefaultStyle
}

// DetectStyle is InferStyle that reports whether text had any indentation.
func DetectStyle(text string) (Style, bool) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch line[0] {
		case '\t':
			return Style{Tabs: true}, true
		case ' ':
			return Style{Spaces: len(line) - len(strings.TrimLeft(line, " "))}, true
		}
	}
	return Style{}, false
}

// ParseStyle reads a configured style: "tabs" or a space count. ok is false
// for "auto" and the empty string, meaning the style should be inferred.
func ParseStyle(v string) (style Style, ok bool, err error) {
	switch v {
	case "", "auto":
		return Style{}, false, nil
	case "tabs", "tab":
		return Style{Tabs: true}, true, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return Style{}, false, fmt.Errorf("idm: invalid indent style %q", v)
	}
	return Style{Spaces: n}, true, nil
}
