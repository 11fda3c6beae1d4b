// Package commagroup prunes unused global and static variables. Variables
// are pruned as groups sharing one declarator ("int a, b, c;"), since a
// single VarDecl's range cannot express "delete b but keep a and c" on its
// own.
package commagroup

import (
	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
	"github.com/AssassinTee/caide-cpp-inliner/internal/reach"
	"github.com/AssassinTee/caide-cpp-inliner/internal/rewrite"
)

// Prune walks every declarator group in info.StaticVariables and submits
// the minimal set of ranges needed to drop the unused members of each
// group, preserving commas correctly for the members that survive.
func Prune(buf []byte, info *depgraph.SourceInfo, usage *reach.UsageInfo, rewriter *rewrite.SmartRewriter) {
	for startOfType, ids := range info.StaticVariables {
		pruneGroup(buf, startOfType, ids, info.Nodes, usage, rewriter)
	}
}

func pruneGroup(buf []byte, startOfType int, ids []decl.ID, nodes map[decl.ID]*decl.Node, usage *reach.UsageInfo, rewriter *rewrite.SmartRewriter) {
	n := len(ids)
	isUsed := make([]bool, n)
	lastUsed := n
	for i, id := range ids {
		isUsed[i] = usage.IsUsed(id)
		if isUsed[i] {
			lastUsed = i
		}
	}

	endOfLastVar := nodes[ids[n-1]].Range.End
	opts := rewrite.Options{RemoveLineIfEmpty: true}

	if lastUsed == n {
		// All variables in the group are unused: drop the whole declaration,
		// type included, through the trailing semicolon.
		semi := findSemiAfter(buf, endOfLastVar)
		rewriter.RemoveRange(decl.Range{Begin: startOfType, End: semi}, opts)
		return
	}

	for i := 0; i < lastUsed; i++ {
		if isUsed[i] {
			continue
		}
		v := nodes[ids[i]]
		// Start at the variable's name, not its extent: the extent of every
		// member of a comma group begins at the shared type specifier, which
		// the surviving members still need.
		begin := v.NameLoc
		end := v.Range.End
		if i+1 < n {
			end = findCommaAfter(buf, end)
		}
		if begin >= 0 && end > begin {
			rewriter.RemoveRange(decl.Range{Begin: begin, End: end}, opts)
		}
	}

	if lastUsed+1 != n {
		// Every remaining variable after the last used one is unused: clear
		// them as a single tail, starting at (and including) the comma
		// right after lastUsed.
		end := nodes[ids[lastUsed]].Range.End
		comma := findCommaIndexAfter(buf, end)
		rewriter.RemoveRange(decl.Range{Begin: comma, End: endOfLastVar}, opts)
	}
}

func findSemiAfter(buf []byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == ';' {
			return i + 1
		}
	}
	return len(buf)
}

// findCommaAfter returns the offset just past the next comma at or after
// from, so a caller deleting up to it also deletes that comma.
func findCommaAfter(buf []byte, from int) int {
	return findCommaIndexAfter(buf, from) + 1
}

// findCommaIndexAfter returns the offset of the next comma at or after
// from, so a caller deleting from it also deletes that comma.
func findCommaIndexAfter(buf []byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == ',' {
			return i
		}
	}
	return len(buf)
}
