package reach

import (
	"testing"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
)

func TestSolveFollowsUsesFromRoot(t *testing.T) {
	main := decl.ID("c:@F@main#")
	helper := decl.ID("c:@F@helper#")
	unused := decl.ID("c:@F@unused#")

	info := &depgraph.SourceInfo{
		Uses: map[decl.ID][]decl.ID{
			main: {helper},
		},
		Nodes: map[decl.ID]*decl.Node{
			main:    {ID: main, Kind: decl.KindFunction, IsMainFile: true, Range: decl.Range{Begin: 30, End: 53}},
			helper:  {ID: helper, Kind: decl.KindFunction, IsMainFile: true, Range: decl.Range{Begin: 0, End: 22}},
			unused:  {ID: unused, Kind: decl.KindFunction, IsMainFile: true, Range: decl.Range{Begin: 60, End: 82}},
		},
		DeclsToKeep: map[decl.ID]bool{main: true},
	}

	usage := Solve(info)

	if !usage.IsUsed(main) {
		t.Fatalf("expected root to be used")
	}
	if !usage.IsUsed(helper) {
		t.Fatalf("expected helper reachable via uses edge to be used")
	}
	if usage.IsUsed(unused) {
		t.Fatalf("expected unreferenced decl to be unused")
	}
	if !usage.IsRangeUsed(info.Nodes[helper].Range) {
		t.Fatalf("expected helper's range to be registered as used")
	}
}

func TestSolveEnqueuesClassDestructor(t *testing.T) {
	class := decl.ID("c:@S@A")
	dtor := decl.ID("c:@S@A@F@~A#")

	info := &depgraph.SourceInfo{
		Uses: map[decl.ID][]decl.ID{},
		Nodes: map[decl.ID]*decl.Node{
			class: {ID: class, Kind: decl.KindClass, IsMainFile: true, DestructorID: dtor, Range: decl.Range{Begin: 0, End: 10}},
			dtor:  {ID: dtor, Kind: decl.KindFunction, IsMainFile: true, Range: decl.Range{Begin: 11, End: 20}},
		},
		DeclsToKeep: map[decl.ID]bool{class: true},
	}

	usage := Solve(info)

	if !usage.IsUsed(dtor) {
		t.Fatalf("expected destructor of a used class to be marked used even without a uses edge")
	}
}
