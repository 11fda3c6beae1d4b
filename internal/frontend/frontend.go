// Package frontend binds the engine to its compiler front end: libclang,
// via github.com/go-clang/clang-v3.9/clang and the thin Node/Walk/Location
// convenience layer of github.com/mewspring/cc.
//
// Everything downstream (internal/depgraph, internal/optimizer) consumes
// only the Node/TranslationUnit shapes defined here, never go-clang types
// directly. clang.Cursor is a concrete cgo-backed value with no synthetic
// substitute, so those packages are exercised by integration runs against a
// real libclang rather than by unit tests; internal/reach and
// internal/commagroup take the graph and buffer these packages would
// produce as plain values instead, which is what their tests construct by
// hand.
package frontend

import (
	"os"

	"github.com/mewspring/cc"
	"github.com/pkg/errors"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
)

// alwaysInjectedFlags are appended to every compile-options list. libclang
// parses template bodies eagerly, so the late-template forcer never has
// real work to do, and without -fparse-all-comments a "/// caide keep"
// comment above a declaration that isn't already Doxygen-documented would
// never reach the AST at all.
var alwaysInjectedFlags = []string{
	"-fno-delayed-template-parsing",
	"-fparse-all-comments",
}

// CompileError signals that the front end failed to produce a usable AST:
// a run error, never a rewritten source.
type CompileError struct {
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return "compiling " + e.Path + ": " + e.Err.Error()
}

func (e *CompileError) Unwrap() error { return e.Err }

// TranslationUnit is a parsed main file plus the AST root needed to walk it.
type TranslationUnit struct {
	Path   string
	Buffer []byte
	Root   *cc.Node

	file *cc.File
}

// Close releases the underlying libclang translation unit.
func (tu *TranslationUnit) Close() {
	if tu.file != nil {
		tu.file.Close()
	}
}

// Parse invokes the front end on path with compileOptions (include paths,
// language standard, defines).
func Parse(path string, compileOptions []string) (*TranslationUnit, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	args := make([]string, 0, len(compileOptions)+len(alwaysInjectedFlags))
	args = append(args, compileOptions...)
	args = append(args, alwaysInjectedFlags...)

	file, err := cc.ParseFile(path, args...)
	if err != nil {
		return nil, &CompileError{Path: path, Err: err}
	}

	return &TranslationUnit{
		Path:   path,
		Buffer: buf,
		Root:   file.Root,
		file:   file,
	}, nil
}

// WalkExplicitOnly visits every node in the tree rooted at root, depth
// first, skipping implicit declarations and template instantiations — the
// traversal mode internal/optimizer needs. Under libclang the cursor tree
// already contains only explicit source (implicit members and
// instantiations are never materialized as child cursors), so no filtering
// is required beyond what the front end does itself; what implicit-code
// traversal would otherwise find, the collector recovers with explicit
// edges instead (destructor recording, SpecializedCursorTemplate links).
func WalkExplicitOnly(root *cc.Node, visit func(n *cc.Node)) {
	cc.Walk(root, visit)
}

// USR returns the front end's Unified Symbol Resolution string for n, the
// stable identity shared by every redeclaration of one logical entity.
func USR(n *cc.Node) string {
	return n.Body.USR()
}

// Extent returns n's expansion range as byte offsets into the main file's
// buffer, the Go-level equivalent of getExpansionRange(sourceManager, decl).
func Extent(n *cc.Node) decl.Range {
	extent := n.Body.Extent()
	begin := cc.NewLocation(extent.Start())
	end := cc.NewLocation(extent.End())
	return decl.Range{Begin: begin.Offset, End: end.Offset}
}

// IsInMainFile reports whether loc lies in the file the engine was asked to
// optimize, the Go-level equivalent of SourceManager::isInMainFile.
func IsInMainFile(mainPath string, loc cc.Location) bool {
	return loc.File == mainPath
}

// RawComment returns the raw text of n's attached comment and its range, or
// ok==false if n has none. libclang only attaches a comment when
// -fparse-all-comments was passed (see alwaysInjectedFlags).
func RawComment(n *cc.Node) (text string, r decl.Range, ok bool) {
	text = n.Body.RawCommentText()
	if text == "" {
		return "", decl.Range{}, false
	}
	extent := n.Body.CommentRange()
	begin := cc.NewLocation(extent.Start())
	end := cc.NewLocation(extent.End())
	return text, decl.Range{Begin: begin.Offset, End: end.Offset}, true
}
