package lateparse

import (
	"testing"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
)

func TestForceSkipsUnresolvedIDs(t *testing.T) {
	info := &depgraph.SourceInfo{
		Nodes:                  map[decl.ID]*decl.Node{},
		DelayedParsedFunctions: []decl.ID{"missing"},
	}

	// Nothing in info.Nodes for "missing"; Force must not panic and must
	// leave info untouched.
	Force(nil, info)

	if len(info.Nodes) != 0 {
		t.Fatalf("Force mutated info.Nodes: %v", info.Nodes)
	}
}

func TestForceLeavesDelayedFunctionNodesIntact(t *testing.T) {
	fn := decl.ID("c:@F@delayed#")
	info := &depgraph.SourceInfo{
		Nodes: map[decl.ID]*decl.Node{
			fn: {ID: fn, Kind: decl.KindFunction},
		},
		DelayedParsedFunctions: []decl.ID{fn, fn},
	}

	Force(nil, info)

	if got := info.Nodes[fn]; got == nil || got.ID != fn {
		t.Fatalf("expected node for %q to survive untouched, got %v", fn, got)
	}
}
