// Package rewrite implements SmartRewriter: a deduplicating text-edit buffer
// layered over the original source. It is shared between internal/optimizer,
// internal/commagroup and internal/ppblocks so that the three independent
// edit streams compose without invalidating each other's ranges.
package rewrite

import (
	"sort"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
)

// Options mirrors clang::Rewriter::RewriteOptions's one flag this engine
// uses: collapsing the line a deletion leaves empty.
type Options struct {
	RemoveLineIfEmpty bool
}

type item struct {
	r    decl.Range
	opts Options
}

// SmartRewriter accepts remove-range requests, rejecting any that overlap a
// previously accepted range, and applies the accepted set as a single sweep
// over the original buffer.
type SmartRewriter struct {
	original []byte
	accepted []item
	applied  bool
	result   []byte
}

// New wraps the original main-file buffer. The buffer is not copied; callers
// must not mutate it until after ApplyChanges.
func New(original []byte) *SmartRewriter {
	return &SmartRewriter{original: original}
}

// CanRemoveRange reports whether r overlaps no range already accepted.
func (s *SmartRewriter) CanRemoveRange(r decl.Range) bool {
	for _, it := range s.accepted {
		if it.r.Overlaps(r) {
			return false
		}
	}
	return true
}

// RemoveRange records (r, opts) if it does not overlap an already accepted
// range, returning whether it was accepted. A rejected range is silently
// dropped, never an error: overlapping edit streams are expected to race
// for the same text and the first claim wins.
func (s *SmartRewriter) RemoveRange(r decl.Range, opts Options) bool {
	if r.Empty() {
		return false
	}
	if !s.CanRemoveRange(r) {
		return false
	}
	s.accepted = append(s.accepted, item{r: r, opts: opts})
	return true
}

// ApplyChanges executes every accepted deletion in a single deterministic
// sweep (sorted by (Begin, End), never by acceptance or map-iteration order)
// and caches the result. Calling it more than once is a no-op.
func (s *SmartRewriter) ApplyChanges() {
	if s.applied {
		return
	}
	s.applied = true

	sorted := make([]item, len(s.accepted))
	copy(sorted, s.accepted)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].r.Less(sorted[j].r) })

	if len(sorted) == 0 {
		s.result = s.original
		return
	}

	out := make([]byte, 0, len(s.original))
	cursor := 0
	for _, it := range sorted {
		begin, end := it.r.Begin, it.r.End
		if begin < cursor {
			// Overlap slipped through CanRemoveRange due to a caller bug;
			// never double-delete or go backwards.
			continue
		}
		out = append(out, s.original[cursor:begin]...)
		cursor = end
		if it.opts.RemoveLineIfEmpty {
			cursor = skipTrailingBlankLine(s.original, out, cursor)
		}
	}
	out = append(out, s.original[cursor:]...)
	s.result = out
}

// skipTrailingBlankLine implements "remove empty lines": if the deletion
// left the current output ending in only whitespace since the last newline,
// and the remaining source immediately continues with a newline, consume
// through that newline too so no blank line is left behind.
func skipTrailingBlankLine(original []byte, outSoFar []byte, cursor int) int {
	i := len(outSoFar) - 1
	for i >= 0 && (outSoFar[i] == ' ' || outSoFar[i] == '\t') {
		i--
	}
	if i < 0 || outSoFar[i] != '\n' {
		return cursor
	}
	j := cursor
	for j < len(original) && (original[j] == ' ' || original[j] == '\t') {
		j++
	}
	if j < len(original) && original[j] == '\n' {
		return j + 1
	}
	return cursor
}

// RewrittenBuffer returns the edited buffer, or the original if ApplyChanges
// has not been called or made no edits.
func (s *SmartRewriter) RewrittenBuffer() []byte {
	if !s.applied {
		return s.original
	}
	return s.result
}

// AcceptedCount reports how many ranges were accepted, for diagnostics.
func (s *SmartRewriter) AcceptedCount() int { return len(s.accepted) }
