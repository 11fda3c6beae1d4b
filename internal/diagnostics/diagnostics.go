// Package diagnostics writes the optional -dump-decisions report: for every
// declaration the engine saw, whether it survived and why. The engine
// deletes silently whenever information is missing, which is hard to debug
// without seeing the reachability decision for each declaration.
package diagnostics

import (
	"sort"

	"github.com/mewkiz/pkg/jsonutil"

	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
	"github.com/AssassinTee/caide-cpp-inliner/internal/reach"
)

// Decision records one declaration's fate.
type Decision struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Begin  int    `json:"begin"`
	End    int    `json:"end"`
	Kept   bool   `json:"kept"`
	IsRoot bool   `json:"isRoot"`
}

// Report builds the full decision list, sorted by source position: Go map
// iteration order makes no such promise on its own, and a report that
// reorders itself run to run is useless for diffing two runs.
func Report(info *depgraph.SourceInfo, usage *reach.UsageInfo) []Decision {
	decisions := make([]Decision, 0, len(info.Nodes))
	for id, n := range info.Nodes {
		decisions = append(decisions, Decision{
			Name:   n.Name,
			Kind:   n.Kind.String(),
			Begin:  n.Range.Begin,
			End:    n.Range.End,
			Kept:   usage.IsUsed(id) || usage.IsRangeUsed(n.Range),
			IsRoot: info.DeclsToKeep[id],
		})
	}
	sort.Slice(decisions, func(i, j int) bool {
		if decisions[i].Begin != decisions[j].Begin {
			return decisions[i].Begin < decisions[j].Begin
		}
		return decisions[i].End < decisions[j].End
	})
	return decisions
}

// WriteFile writes decisions to path as JSON.
func WriteFile(path string, decisions []Decision) error {
	return jsonutil.WriteFile(path, decisions)
}
