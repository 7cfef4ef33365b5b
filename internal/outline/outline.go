// Package outline defines the recursive outline document model and the
// depth-first traversals used by every idmkit tool.
//
// An Outline is an ordered attribute map plus an ordered list of sections.
// Each Section has a one-line headline and a body that is itself a full
// Outline. Sections are stored by value, so a parent exclusively owns its
// children and no operation can make an outline its own descendant.
package outline

import (
	"fmt"
	"strings"
)

// Outline is a block of named attributes followed by child sections.
type Outline struct {
	Attrs    Attrs
	Sections []Section
}

// Section is one element of an outline: a headline and the indented block
// under it.
type Section struct {
	Head string
	Body Outline
}

// New builds an outline from sections. The sections are copied.
func New(sections ...Section) *Outline {
	o := &Outline{}
	for _, s := range sections {
		o.Push(s)
	}
	return o
}

// NewSection builds a section. Head must be a single line.
func NewSection(head string, body *Outline) Section {
	if strings.ContainsRune(head, '\n') {
		panic(fmt.Sprintf("outline: multi-line headline %q", head))
	}
	s := Section{Head: head}
	if body != nil {
		s.Body = body.Clone()
	}
	return s
}

// Line is a section without a body.
func Line(head string) Section {
	return NewSection(head, nil)
}

// Len returns the number of direct child sections.
func (o *Outline) Len() int {
	return len(o.Sections)
}

// IsEmpty reports whether the outline has neither attributes nor sections.
func (o *Outline) IsEmpty() bool {
	return o.Attrs.Len() == 0 && len(o.Sections) == 0
}

// Push appends a copy of s.
func (o *Outline) Push(s Section) {
	o.Sections = append(o.Sections, s.Clone())
}

// PushLine appends a body-less section.
func (o *Outline) PushLine(head string) {
	o.Push(Line(head))
}

// Insert places a copy of s at position i, shifting later sections.
func (o *Outline) Insert(i int, s Section) {
	o.Sections = append(o.Sections, Section{})
	copy(o.Sections[i+1:], o.Sections[i:])
	o.Sections[i] = s.Clone()
}

// Replace overwrites the section at position i with a copy of s.
func (o *Outline) Replace(i int, s Section) {
	o.Sections[i] = s.Clone()
}

// Remove deletes the section at position i and returns it. The returned
// section is detached and owned by the caller.
func (o *Outline) Remove(i int) Section {
	s := o.Sections[i]
	copy(o.Sections[i:], o.Sections[i+1:])
	o.Sections[len(o.Sections)-1] = Section{}
	o.Sections = o.Sections[:len(o.Sections)-1]
	return s
}

// Clone returns a deep copy sharing no storage with o.
func (o *Outline) Clone() Outline {
	c := Outline{Attrs: o.Attrs.Clone()}
	if o.Sections != nil {
		c.Sections = make([]Section, len(o.Sections))
		for i := range o.Sections {
			c.Sections[i] = o.Sections[i].Clone()
		}
	}
	return c
}

// Equal reports structural equality: equal attribute maps and element-wise
// equal sections, recursively.
func (o *Outline) Equal(other *Outline) bool {
	if !o.Attrs.Equal(&other.Attrs) || len(o.Sections) != len(other.Sections) {
		return false
	}
	for i := range o.Sections {
		if !o.Sections[i].Equal(&other.Sections[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() Section {
	return Section{Head: s.Head, Body: s.Body.Clone()}
}

// Equal compares headline and body.
func (s *Section) Equal(other *Section) bool {
	return s.Head == other.Head && s.Body.Equal(&other.Body)
}

// String renders the outline with two-space indentation. It is meant for
// debugging and test failure output; use the idm package to serialize.
func (o *Outline) String() string {
	var b strings.Builder
	o.debug(&b, 0)
	return b.String()
}

func (o *Outline) debug(b *strings.Builder, depth int) {
	pad := strings.Repeat("  ", depth)
	for k, v := range o.Attrs.All() {
		fmt.Fprintf(b, "%s:%s %q\n", pad, k, v)
	}
	for i := range o.Sections {
		fmt.Fprintf(b, "%s%s\n", pad, o.Sections[i].Head)
		o.Sections[i].Body.debug(b, depth+1)
	}
}
