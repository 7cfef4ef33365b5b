package outline

import (
	"iter"
	"strconv"
	"strings"
)

// Path locates a section by its index at every level, starting from the
// root outline.
type Path []int

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, n := range p {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Parent returns the path of the enclosing section. The root's children have
// an empty parent path.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// At resolves a path. It returns nil when the path does not exist.
func (o *Outline) At(p Path) *Section {
	cur := o
	var s *Section
	for _, i := range p {
		if i < 0 || i >= len(cur.Sections) {
			return nil
		}
		s = &cur.Sections[i]
		cur = &s.Body
	}
	return s
}

// Iter visits every section depth-first in pre-order. A section comes before
// its body, and its next sibling after all of its descendants.
func (o *Outline) Iter() iter.Seq2[Path, *Section] {
	return func(yield func(Path, *Section) bool) {
		type frame struct {
			sections []Section
			next     int
		}
		stack := []frame{{sections: o.Sections}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(top.sections) {
				stack = stack[:len(stack)-1]
				continue
			}
			s := &top.sections[top.next]
			top.next++

			path := make(Path, len(stack))
			for i := range stack {
				path[i] = stack[i].next - 1
			}
			if !yield(path, s) {
				return
			}
			stack = append(stack, frame{sections: s.Body.Sections})
		}
	}
}

// ContextIter is Iter with a context value threaded down each branch. The
// context yielded with a section is descend folded along the path from the
// root, starting at c0, and is what the section's children are descended
// from. Siblings never see each other's context.
func ContextIter[C any](o *Outline, c0 C, descend func(C, *Section) C) iter.Seq2[C, *Section] {
	return func(yield func(C, *Section) bool) {
		type frame struct {
			sections []Section
			next     int
			ctx      C
		}
		stack := []frame{{sections: o.Sections, ctx: c0}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(top.sections) {
				stack = stack[:len(stack)-1]
				continue
			}
			s := &top.sections[top.next]
			top.next++

			ctx := descend(top.ctx, s)
			if !yield(ctx, s) {
				return
			}
			stack = append(stack, frame{sections: s.Body.Sections, ctx: ctx})
		}
	}
}

// IterMut is the mutable form of Iter. The yielded cursor may edit the
// current section, replace it or remove it from its parent.
func (o *Outline) IterMut() iter.Seq[*Cursor] {
	return func(yield func(*Cursor) bool) {
		walkMut(o, struct{}{}, func(c struct{}, _ *Section) struct{} { return c },
			func(_ struct{}, cur *Cursor) bool { return yield(cur) })
	}
}

// ContextIterMut is the mutable form of ContextIter.
func ContextIterMut[C any](o *Outline, c0 C, descend func(C, *Section) C) iter.Seq2[C, *Cursor] {
	return func(yield func(C, *Cursor) bool) {
		walkMut(o, c0, descend, yield)
	}
}

type frame struct {
	next int // one past the current section
	end  int // sibling count when the frame was entered
}

// Cursor is the position of a mutable traversal. It holds indices only and
// resolves the current section from the root on every call, so removing or
// replacing sections never leaves it pointing at stale memory. A cursor is
// only valid inside the loop body that received it.
type Cursor struct {
	root    *Outline
	stack   []frame
	removed  bool
	replaced bool
	skip     bool
}

func walkMut[C any](o *Outline, c0 C, descend func(C, *Section) C, yield func(C, *Cursor) bool) {
	cur := &Cursor{root: o, stack: []frame{{end: len(o.Sections)}}}
	ctxs := []C{c0}
	for len(cur.stack) > 0 {
		top := &cur.stack[len(cur.stack)-1]
		if top.next >= top.end {
			cur.stack = cur.stack[:len(cur.stack)-1]
			ctxs = ctxs[:len(ctxs)-1]
			continue
		}
		top.next++

		cur.removed, cur.replaced, cur.skip = false, false, false
		ctx := descend(ctxs[len(ctxs)-1], cur.Section())
		if !yield(ctx, cur) {
			return
		}
		if cur.removed || cur.skip {
			continue
		}
		if cur.replaced {
			ctx = descend(ctxs[len(ctxs)-1], cur.Section())
		}
		cur.stack = append(cur.stack, frame{end: len(cur.Section().Body.Sections)})
		ctxs = append(ctxs, ctx)
	}
}

func (c *Cursor) parent() *Outline {
	o := c.root
	for _, f := range c.stack[:len(c.stack)-1] {
		o = &o.Sections[f.next-1].Body
	}
	return o
}

func (c *Cursor) index() int {
	return c.stack[len(c.stack)-1].next - 1
}

// Section returns the current section. It panics after Remove.
func (c *Cursor) Section() *Section {
	if c.removed {
		panic("outline: cursor section accessed after Remove")
	}
	return &c.parent().Sections[c.index()]
}

// Path returns the position of the current section.
func (c *Cursor) Path() Path {
	p := make(Path, len(c.stack))
	for i, f := range c.stack {
		p[i] = f.next - 1
	}
	return p
}

// Depth is 0 for sections of the root outline.
func (c *Cursor) Depth() int {
	return len(c.stack) - 1
}

// Remove detaches the current section from its parent and returns it. The
// traversal continues with the next sibling; the removed body is not
// visited. *Section pointers obtained before the call now alias the
// following sibling.
func (c *Cursor) Remove() Section {
	if c.removed {
		panic("outline: section removed twice")
	}
	s := c.parent().Remove(c.index())
	top := &c.stack[len(c.stack)-1]
	top.next--
	top.end--
	c.removed = true
	return s
}

// Replace swaps the current section for a copy of s. The new body is
// traversed unless SkipChildren is called, with a context derived from the
// new section.
func (c *Cursor) Replace(s Section) {
	c.parent().Replace(c.index(), s)
	c.replaced = true
}

// SkipChildren stops the traversal from descending into the current
// section's body.
func (c *Cursor) SkipChildren() {
	c.skip = true
}
