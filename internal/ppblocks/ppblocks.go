// Package ppblocks implements the inactive preprocessor block remover: a
// textual scan of conditional-compilation directives (#if/#ifdef/#ifndef/
// #elif/#else/#endif) that submits the ranges of branches the preprocessor
// would skip to the same SmartRewriter the optimizer writes through, so the
// two edit streams deconflict automatically.
//
// Unlike internal/depgraph, this pass never touches the AST: the parser
// never sees code inside an inactive region at all, so the only way to find
// (and delete) it is a standalone directive scan over the raw source text.
package ppblocks

import (
	"strconv"
	"strings"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/rewrite"
)

type branch struct {
	directiveKind string // "if", "ifdef", "ifndef", "elif", "else"
	condition     string
	directiveLine decl.Range // the "#if ..." line itself, including its newline
	body          decl.Range // from end of this directive line to start of next
}

type group struct {
	branches  []branch
	endif     decl.Range // the "#endif" line, including its newline
	activeIdx int        // index of the taken branch, or -1 if none
}

// activeBranch reports whether g's most recently opened branch is the one
// the preprocessor takes, which is what decides whether a nested #define is
// really seen.
func (g *group) activeBranch() bool {
	return g.activeIdx == len(g.branches)-1
}

// Scan walks buf line by line, building the nested group structure and
// evaluating each branch condition at the point the directive appears,
// against env seeded from the compile options' -D defines and mutated by
// #define/#undef lines in active regions. Lines are scanned, never reparsed
// as C++ tokens: this pass runs independently of the AST.
func Scan(buf []byte, defines map[string]bool) []group {
	env := make(map[string]bool, len(defines))
	for name, defined := range defines {
		if defined {
			env[name] = true
		}
	}

	var stack []*group
	var all []group

	// A directive only takes effect when every enclosing branch is taken.
	// depth bounds the check so a group's own #elif does not consult the
	// branch it is about to replace.
	enclosingActiveUpTo := func(depth int) bool {
		for _, g := range stack[:depth] {
			if !g.activeBranch() {
				return false
			}
		}
		return true
	}
	enclosingActive := func() bool { return enclosingActiveUpTo(len(stack)) }

	lineStart := 0
	for lineStart <= len(buf) {
		lineEnd := indexByteFrom(buf, '\n', lineStart)
		if lineEnd == -1 {
			lineEnd = len(buf)
		} else {
			lineEnd++ // include the newline in the line's range
		}
		if lineEnd == lineStart {
			break
		}
		line := buf[lineStart:lineEnd]
		trimmed := strings.TrimSpace(string(line))

		switch {
		case strings.HasPrefix(trimmed, "#if"):
			kind, cond := splitDirective(trimmed)
			g := &group{
				branches:  []branch{{directiveKind: kind, condition: cond, directiveLine: decl.Range{Begin: lineStart, End: lineEnd}}},
				activeIdx: -1,
			}
			if enclosingActive() && evaluate(kind, cond, env) {
				g.activeIdx = 0
			}
			stack = append(stack, g)

		case strings.HasPrefix(trimmed, "#elif") || strings.HasPrefix(trimmed, "#else"):
			if len(stack) > 0 {
				g := stack[len(stack)-1]
				closeCurrentBranch(g, lineStart)
				kind, cond := splitDirective(trimmed)
				g.branches = append(g.branches, branch{directiveKind: kind, condition: cond, directiveLine: decl.Range{Begin: lineStart, End: lineEnd}})
				if g.activeIdx == -1 && enclosingActiveUpTo(len(stack)-1) && evaluate(kind, cond, env) {
					g.activeIdx = len(g.branches) - 1
				}
			}

		case strings.HasPrefix(trimmed, "#endif"):
			if len(stack) > 0 {
				g := stack[len(stack)-1]
				closeCurrentBranch(g, lineStart)
				g.endif = decl.Range{Begin: lineStart, End: lineEnd}
				stack = stack[:len(stack)-1]
				// Every group is returned, nested or not: if an outer group
				// turns out inactive its range swallows this one's, and the
				// redundant submission is simply rejected by the rewriter's
				// non-overlap rule.
				all = append(all, *g)
			}

		case strings.HasPrefix(trimmed, "#define"):
			if enclosingActive() {
				if name := directiveName(trimmed, "#define"); name != "" {
					env[name] = true
				}
			}

		case strings.HasPrefix(trimmed, "#undef"):
			if enclosingActive() {
				if name := directiveName(trimmed, "#undef"); name != "" {
					delete(env, name)
				}
			}
		}

		lineStart = lineEnd
	}

	return all
}

func closeCurrentBranch(g *group, bodyEnd int) {
	last := &g.branches[len(g.branches)-1]
	last.body = decl.Range{Begin: last.directiveLine.End, End: bodyEnd}
}

// Submit removes, for every group Scan found, each branch the preprocessor
// did not take (directive line and body) plus the directive lines of the
// taken branch, unless some branch's condition names a macro in
// macrosToKeep, in which case the whole group is preserved verbatim.
func Submit(buf []byte, defines map[string]bool, macrosToKeep map[string]bool, rewriter *rewrite.SmartRewriter) {
	groups := Scan(buf, defines)
	// Scan records a group when its #endif closes, so inner groups precede
	// the group enclosing them. Submit outermost first: an inactive outer
	// branch then claims its whole body in one range, and the inner groups'
	// redundant submissions are the ones the non-overlap rule rejects.
	for i := len(groups) - 1; i >= 0; i-- {
		submitGroup(groups[i], macrosToKeep, rewriter)
	}
}

func submitGroup(g group, macrosToKeep map[string]bool, rewriter *rewrite.SmartRewriter) {
	for _, b := range g.branches {
		if referencesKeptMacro(b.condition, macrosToKeep) {
			return
		}
	}

	opts := rewrite.Options{RemoveLineIfEmpty: true}
	for i, b := range g.branches {
		if i == g.activeIdx {
			// The taken branch's own directive line is still inactive syntax
			// (the preprocessor consumes it) but its body must stay.
			rewriter.RemoveRange(b.directiveLine, opts)
			continue
		}
		rewriter.RemoveRange(b.directiveLine, opts)
		if !b.body.Empty() {
			rewriter.RemoveRange(b.body, opts)
		}
	}
	rewriter.RemoveRange(g.endif, opts)
}

// DefinesFromCompileOptions extracts the macro names defined by -D driver
// tokens ("-DNAME", "-DNAME=value", or "-D NAME" as two tokens), seeding the
// environment Scan evaluates conditions against.
func DefinesFromCompileOptions(compileOptions []string) map[string]bool {
	defines := make(map[string]bool)
	expectName := false
	for _, opt := range compileOptions {
		switch {
		case expectName:
			expectName = false
			defines[macroName(opt)] = true
		case opt == "-D":
			expectName = true
		case strings.HasPrefix(opt, "-D"):
			defines[macroName(strings.TrimPrefix(opt, "-D"))] = true
		}
	}
	delete(defines, "")
	return defines
}

func macroName(tok string) string {
	tok = strings.TrimSpace(tok)
	if i := strings.IndexByte(tok, '='); i != -1 {
		tok = tok[:i]
	}
	return tok
}

func directiveName(trimmed, directive string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, directive))
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	// "#define MAX(a, b) ..." defines MAX.
	name := fields[0]
	if i := strings.IndexByte(name, '('); i != -1 {
		name = name[:i]
	}
	return name
}

func referencesKeptMacro(condition string, macrosToKeep map[string]bool) bool {
	for _, tok := range identifiers(condition) {
		if macrosToKeep[tok] {
			return true
		}
	}
	return false
}

func identifiers(condition string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range condition {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	var filtered []string
	for _, id := range out {
		if id != "defined" {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// evaluate decides whether a branch is taken, supporting only the literal
// forms this engine needs to reason about (#ifdef/#ifndef by name, #if with
// an integer literal, a defined(X) test, or a bare identifier, #else). A
// condition referencing anything richer is treated as false, biasing
// unknown conditional regions toward deletion, same as a missing `uses`
// edge does for declarations.
func evaluate(kind, condition string, env map[string]bool) bool {
	switch kind {
	case "else":
		return true
	case "ifdef":
		return env[strings.TrimSpace(condition)]
	case "ifndef":
		return !env[strings.TrimSpace(condition)]
	default: // "if", "elif"
		cond := strings.TrimSpace(condition)
		if n, err := strconv.Atoi(cond); err == nil {
			return n != 0
		}
		if strings.HasPrefix(cond, "defined") {
			inner := strings.TrimSpace(strings.TrimPrefix(cond, "defined"))
			inner = strings.Trim(inner, "()")
			return env[strings.TrimSpace(inner)]
		}
		return env[cond]
	}
}

func splitDirective(trimmed string) (kind, condition string) {
	trimmed = strings.TrimPrefix(trimmed, "#")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return "", ""
	}
	kind = fields[0]
	condition = strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0]))
	return kind, condition
}

func indexByteFrom(buf []byte, b byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == b {
			return i
		}
	}
	return -1
}
