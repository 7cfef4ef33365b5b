package outline

import (
	"github.com/starford/idmkit/internal/parser"
)

// IsImportant reports whether the headline carries the " *" marker.
func (s *Section) IsImportant() bool {
	_, ok := parser.Important(s.Head)
	return ok
}

// WikiTitle returns the headline, without importance marker, when it is a
// WikiWord.
func (s *Section) WikiTitle() (string, bool) {
	head := s.Head
	if h, ok := parser.Important(head); ok {
		head = h
	}
	if !parser.WikiWord(head) {
		return "", false
	}
	return head, true
}

// Tags returns the section's own tags attribute.
func (s *Section) Tags() []string {
	return s.Body.Attrs.Fields("tags")
}

// URIs returns the uri attribute followed by the sequence list. A section
// without a uri has no URIs even if it has a sequence.
func (o *Outline) URIs() []string {
	uri, ok := o.Attrs.Get("uri")
	if !ok {
		return nil
	}
	return append([]string{uri}, o.Attrs.Fields("sequence")...)
}
