package diagnostics

import (
	"testing"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
	"github.com/AssassinTee/caide-cpp-inliner/internal/reach"
)

func TestReportIsSortedAndRecordsFate(t *testing.T) {
	main := decl.ID("c:@F@main#")
	helper := decl.ID("c:@F@helper#")
	unused := decl.ID("c:@F@unused#")

	info := &depgraph.SourceInfo{
		Uses: map[decl.ID][]decl.ID{main: {helper}},
		Nodes: map[decl.ID]*decl.Node{
			helper: {ID: helper, Kind: decl.KindFunction, Name: "helper", IsMainFile: true, Range: decl.Range{Begin: 0, End: 22}},
			main:   {ID: main, Kind: decl.KindFunction, Name: "main", IsMainFile: true, Range: decl.Range{Begin: 50, End: 72}},
			unused: {ID: unused, Kind: decl.KindFunction, Name: "unused", IsMainFile: true, Range: decl.Range{Begin: 24, End: 48}},
		},
		DeclsToKeep: map[decl.ID]bool{main: true},
	}
	usage := reach.Solve(info)

	decisions := Report(info, usage)
	if len(decisions) != 3 {
		t.Fatalf("expected 3 decisions, got %d", len(decisions))
	}

	wantOrder := []string{"helper", "unused", "main"}
	for i, name := range wantOrder {
		if decisions[i].Name != name {
			t.Fatalf("expected decisions sorted by source position %v, got %v at %d", wantOrder, decisions[i].Name, i)
		}
	}

	byName := make(map[string]Decision)
	for _, d := range decisions {
		byName[d.Name] = d
	}
	if !byName["main"].Kept || !byName["main"].IsRoot {
		t.Fatalf("expected main to be a kept root, got %+v", byName["main"])
	}
	if !byName["helper"].Kept || byName["helper"].IsRoot {
		t.Fatalf("expected helper to be kept but not a root, got %+v", byName["helper"])
	}
	if byName["unused"].Kept {
		t.Fatalf("expected unused to be deleted, got %+v", byName["unused"])
	}
}
