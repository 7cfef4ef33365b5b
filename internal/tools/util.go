package tools

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/starford/idmkit/internal/apperr"
)

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperr.IO("read", path, err)
	}
	return string(data), nil
}

func splitNonEmpty(s string) []string {
	var lines []string
	for line := range strings.SplitSeq(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return lines
}

type tagSet map[string]struct{}

func newTagSet(tags ...string) tagSet {
	s := make(tagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s tagSet) with(tags ...string) tagSet {
	c := maps.Clone(s)
	if c == nil {
		c = make(tagSet, len(tags))
	}
	for _, t := range tags {
		c[t] = struct{}{}
	}
	return c
}

func (s tagSet) hasAll(tags []string) bool {
	for _, t := range tags {
		if _, ok := s[t]; !ok {
			return false
		}
	}
	return true
}

func (s tagSet) sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
