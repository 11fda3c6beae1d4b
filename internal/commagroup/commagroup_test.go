package commagroup

import (
	"testing"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
	"github.com/AssassinTee/caide-cpp-inliner/internal/reach"
	"github.com/AssassinTee/caide-cpp-inliner/internal/rewrite"
)

func TestPruneKeepsOnlyReferencedMember(t *testing.T) {
	src := []byte("int a,b,c; int main(){return b;}")
	// Each member's extent begins at the shared type specifier, as libclang
	// reports for comma groups; the name locations are a=4, b=6, c=8.
	a := decl.ID("a")
	b := decl.ID("b")
	c := decl.ID("c")

	info := &depgraph.SourceInfo{
		Uses: map[decl.ID][]decl.ID{},
		Nodes: map[decl.ID]*decl.Node{
			a: {ID: a, Range: decl.Range{Begin: 0, End: 5}, NameLoc: 4},
			b: {ID: b, Range: decl.Range{Begin: 0, End: 7}, NameLoc: 6},
			c: {ID: c, Range: decl.Range{Begin: 0, End: 9}, NameLoc: 8},
		},
		StaticVariables: map[int][]decl.ID{
			0: {a, b, c},
		},
	}

	info.Nodes[b].IsMainFile = true
	usage := reach.Solve(&depgraph.SourceInfo{
		Uses:        map[decl.ID][]decl.ID{},
		Nodes:       info.Nodes,
		DeclsToKeep: map[decl.ID]bool{b: true},
	})

	r := rewrite.New(src)
	Prune(src, info, usage, r)
	r.ApplyChanges()

	got := string(r.RewrittenBuffer())
	if got != "int b; int main(){return b;}" {
		t.Fatalf("got %q", got)
	}
}

func TestPruneRemovesWholeGroupWhenAllUnused(t *testing.T) {
	src := []byte("int a,b; int main(){return 0;}")
	a := decl.ID("a")
	b := decl.ID("b")

	info := &depgraph.SourceInfo{
		Nodes: map[decl.ID]*decl.Node{
			a: {ID: a, Range: decl.Range{Begin: 0, End: 5}, NameLoc: 4},
			b: {ID: b, Range: decl.Range{Begin: 0, End: 7}, NameLoc: 6},
		},
		StaticVariables: map[int][]decl.ID{0: {a, b}},
	}
	usage := &reach.UsageInfo{}
	usage = reach.Solve(&depgraph.SourceInfo{Nodes: info.Nodes, Uses: map[decl.ID][]decl.ID{}, DeclsToKeep: map[decl.ID]bool{}})

	r := rewrite.New(src)
	Prune(src, info, usage, r)
	r.ApplyChanges()

	got := string(r.RewrittenBuffer())
	want := " int main(){return 0;}"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
