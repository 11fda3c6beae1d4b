// Package reach implements the reachability solver: a worklist walk of the
// dependency graph internal/depgraph produces, starting from the roots
// (main, "caide keep" declarations) and marking every declaration those
// roots transitively use.
package reach

import (
	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
)

// UsageInfo answers "is this declaration reachable" two ways: by identity
// (its canonical ID) and by source range, since the optimizer visitor looks
// a declaration up by whichever it has on hand. The comma-group pruner
// checks IDs only.
type UsageInfo struct {
	used       map[decl.ID]struct{}
	usedRanges map[decl.Range]struct{}
}

// IsUsed reports whether id was reached from a root.
func (u *UsageInfo) IsUsed(id decl.ID) bool {
	_, ok := u.used[id]
	return ok
}

// IsRangeUsed reports whether some reachable declaration occupies exactly
// this source range, the fallback internal/optimizer and internal/diagnostics
// use when the caller has a range but not the canonical ID (e.g. a bare
// forward declaration whose canonical ID belongs to a definition elsewhere).
func (u *UsageInfo) IsRangeUsed(r decl.Range) bool {
	_, ok := u.usedRanges[r]
	return ok
}

// Solve runs the worklist and returns the reachable set. Roots are seeded
// canonicalized already (internal/depgraph.SourceInfo.DeclsToKeep keys are
// namespace-aware IDs, matching "namespaces inserted verbatim, others
// canonicalized").
func Solve(info *depgraph.SourceInfo) *UsageInfo {
	u := &UsageInfo{
		used:       make(map[decl.ID]struct{}),
		usedRanges: make(map[decl.Range]struct{}),
	}

	work := make([]decl.ID, 0, len(info.DeclsToKeep))
	for id := range info.DeclsToKeep {
		work = append(work, id)
	}

	for len(work) > 0 {
		last := len(work) - 1
		id := work[last]
		work = work[:last]

		if _, already := u.used[id]; already {
			continue
		}
		u.used[id] = struct{}{}

		work = append(work, info.Uses[id]...)

		if n, ok := info.Nodes[id]; ok {
			if n.IsMainFile {
				u.usedRanges[n.Range] = struct{}{}
			}
			// A live class's destructor is used implicitly: there is no
			// visible AST reference to it, so it never appears in `uses`.
			// The collector records it on class and class-template nodes
			// alike.
			if n.DestructorID != "" {
				work = append(work, n.DestructorID)
			}
		}
	}

	return u
}
