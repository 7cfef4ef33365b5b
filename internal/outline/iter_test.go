package outline

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIter_PreOrder(t *testing.T) {
	var got []string
	var paths []string
	for p, s := range sample().Iter() {
		got = append(got, s.Head)
		paths = append(paths, p.String())
	}
	assert.Equal(t, []string{"A", "A1", "A1a", "A2", "B", "B1"}, got)
	assert.Equal(t, []string{"0", "0.0", "0.0.0", "0.1", "1", "1.0"}, paths)
}

func TestIter_EarlyBreak(t *testing.T) {
	n := 0
	for range sample().Iter() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestIter_Empty(t *testing.T) {
	for range New().Iter() {
		t.Fatal("empty outline yielded a section")
	}
}

func TestAt(t *testing.T) {
	o := sample()
	assert.Equal(t, "A1a", o.At(Path{0, 0, 0}).Head)
	assert.Nil(t, o.At(Path{5}))
	assert.Nil(t, o.At(nil))
	assert.Equal(t, Path{0, 0}, Path{0, 0, 0}.Parent())
}

func appendHead(ctx []string, s *Section) []string {
	return append(slices.Clone(ctx), s.Head)
}

func TestContextIter_FoldsAlongPath(t *testing.T) {
	got := map[string][]string{}
	for ctx, s := range ContextIter(sample(), []string{"root"}, appendHead) {
		got[s.Head] = ctx
	}
	assert.Equal(t, []string{"root", "A"}, got["A"])
	assert.Equal(t, []string{"root", "A", "A1", "A1a"}, got["A1a"])
	assert.Equal(t, []string{"root", "A", "A2"}, got["A2"], "A1's subtree must not leak into its sibling")
	assert.Equal(t, []string{"root", "B", "B1"}, got["B1"])
}

func TestContextIter_SiblingIsolation(t *testing.T) {
	descend := func(n int, s *Section) int { return n + len(s.Body.Sections) }
	got := map[string]int{}
	for ctx, s := range ContextIter(sample(), 0, descend) {
		got[s.Head] = ctx
	}
	assert.Equal(t, 2, got["A"])
	assert.Equal(t, 3, got["A1"])
	assert.Equal(t, 2, got["A2"])
	assert.Equal(t, 1, got["B"])
}

func TestIterMut_EditInPlace(t *testing.T) {
	o := sample()
	for cur := range o.IterMut() {
		cur.Section().Head += "!"
	}
	var got []string
	for _, s := range o.Iter() {
		got = append(got, s.Head)
	}
	assert.Equal(t, []string{"A!", "A1!", "A1a!", "A2!", "B!", "B1!"}, got)
}

func TestIterMut_RemoveVisitsNextSiblingOnce(t *testing.T) {
	o := New(Line("a"), NewSection("b", New(Line("b1"))), Line("c"), Line("d"))
	var visited []string
	for cur := range o.IterMut() {
		head := cur.Section().Head
		visited = append(visited, head)
		if head == "b" || head == "c" {
			removed := cur.Remove()
			assert.Equal(t, head, removed.Head)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, visited, "removed body must not be visited")
	assert.Equal(t, []string{"a", "d"}, heads(o))
}

func TestIterMut_RemoveNested(t *testing.T) {
	o := sample()
	var visited []string
	for cur := range o.IterMut() {
		visited = append(visited, cur.Section().Head)
		if cur.Depth() == 1 && cur.Section().Head == "A1" {
			cur.Remove()
		}
	}
	assert.Equal(t, []string{"A", "A1", "A2", "B", "B1"}, visited)
	assert.Equal(t, []string{"A2"}, heads(&o.Sections[0].Body))
}

func TestIterMut_RemoveAll(t *testing.T) {
	o := sample()
	for cur := range o.IterMut() {
		cur.Remove()
	}
	assert.True(t, o.IsEmpty())
}

func TestIterMut_InsertedSiblingsNotVisited(t *testing.T) {
	o := New(Line("a"), Line("b"))
	var visited []string
	for cur := range o.IterMut() {
		visited = append(visited, cur.Section().Head)
		if cur.Section().Head == "a" {
			o.Push(Line("late"))
		}
	}
	assert.Equal(t, []string{"a", "b"}, visited)
	assert.Len(t, o.Sections, 3)
}

func TestIterMut_ReplaceAndSkip(t *testing.T) {
	o := sample()
	var visited []string
	for cur := range o.IterMut() {
		visited = append(visited, cur.Section().Head)
		switch cur.Section().Head {
		case "A":
			cur.Replace(NewSection("X", New(Line("X1"))))
		case "B":
			cur.SkipChildren()
		}
	}
	assert.Equal(t, []string{"A", "X1", "B"}, visited)
	assert.Equal(t, []string{"X", "B"}, heads(o))
}

func TestIterMut_PanicsAfterRemove(t *testing.T) {
	o := New(Line("a"))
	for cur := range o.IterMut() {
		cur.Remove()
		assert.Panics(t, func() { cur.Section() })
		assert.Panics(t, func() { cur.Remove() })
	}
}

func TestContextIterMut_PruneByContext(t *testing.T) {
	o := sample()
	depth := func(d int, _ *Section) int { return d + 1 }
	var visited []string
	for d, cur := range ContextIterMut(o, 0, depth) {
		require.Equal(t, cur.Depth()+1, d)
		visited = append(visited, cur.Section().Head)
		if d == 2 {
			cur.Remove()
		}
	}
	assert.Equal(t, []string{"A", "A1", "A2", "B", "B1"}, visited)
	assert.Equal(t, "A\nB\n", o.String())
}

func TestContextIterMut_ReplaceRecomputesChildContext(t *testing.T) {
	o := sample()
	got := map[string][]string{}
	for ctx, cur := range ContextIterMut(o, nil, appendHead) {
		got[cur.Section().Head] = ctx
		if cur.Section().Head == "A" {
			cur.Replace(NewSection("X", New(Line("X1"))))
		}
	}
	assert.Equal(t, []string{"X", "X1"}, got["X1"])
	assert.Equal(t, []string{"B", "B1"}, got["B1"])
}
