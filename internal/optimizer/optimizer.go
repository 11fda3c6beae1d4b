// Package optimizer implements the second traversal: given the reachable
// set from internal/reach, decide per declaration in the main file whether
// it survives, and if not, submit its range (extended through a trailing
// semicolon and any attached comment) to the shared rewriter.
package optimizer

import (
	"github.com/go-clang/clang-v3.9/clang"
	"github.com/mewspring/cc"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
	"github.com/AssassinTee/caide-cpp-inliner/internal/frontend"
	"github.com/AssassinTee/caide-cpp-inliner/internal/reach"
	"github.com/AssassinTee/caide-cpp-inliner/internal/rewrite"
)

type visitor struct {
	tu       *frontend.TranslationUnit
	info     *depgraph.SourceInfo
	usage    *reach.UsageInfo
	rewriter *rewrite.SmartRewriter

	declared       map[decl.ID]bool
	usedNamespaces map[decl.ID]bool
}

// Run walks tu.Root skipping implicit code and template instantiations,
// submitting a RemoveRange for every declaration in the main file that its
// kind-specific visit decides against keeping.
func Run(tu *frontend.TranslationUnit, info *depgraph.SourceInfo, usage *reach.UsageInfo, rewriter *rewrite.SmartRewriter) {
	v := &visitor{
		tu:             tu,
		info:           info,
		usage:          usage,
		rewriter:       rewriter,
		declared:       make(map[decl.ID]bool),
		usedNamespaces: make(map[decl.ID]bool),
	}
	frontend.WalkExplicitOnly(tu.Root, v.visit)
}

func (v *visitor) visit(n *cc.Node) {
	if !frontend.IsInMainFile(v.tu.Path, n.Loc) {
		return
	}

	switch n.Body.Kind() {
	case clang.Cursor_UnexposedDecl:
		if isEmptyDecl(n) {
			v.removeDecl(n)
		}
	case clang.Cursor_Namespace:
		if !v.isUsed(n) {
			v.removeDecl(n)
		}
	case clang.Cursor_FunctionDecl, clang.Cursor_CXXMethod, clang.Cursor_Constructor, clang.Cursor_Destructor, clang.Cursor_ConversionFunction:
		v.visitFunctionDecl(n)
	case clang.Cursor_FunctionTemplate:
		v.visitFunctionTemplate(n)
	case clang.Cursor_ClassDecl, clang.Cursor_StructDecl, clang.Cursor_ClassTemplatePartialSpecialization:
		v.visitRecordDecl(n)
	case clang.Cursor_ClassTemplate:
		v.visitClassTemplate(n)
	case clang.Cursor_TypedefDecl:
		if !v.isUsed(n) {
			v.removeDecl(n)
		}
	case clang.Cursor_TypeAliasDecl:
		if hasDescribedAliasTemplate(n) {
			// Processed as TypeAliasTemplateDecl instead.
			return
		}
		if !v.isUsed(n) {
			v.removeDecl(n)
		}
	case clang.Cursor_TypeAliasTemplateDecl:
		if !v.isUsed(n) {
			v.removeDecl(n)
		}
	case clang.Cursor_UsingDirective:
		v.visitUsingDirective(n)
	}
}

func (v *visitor) isUsed(n *cc.Node) bool {
	id := depgraph.CanonicalID(n)
	return v.usage.IsUsed(id) || v.usage.IsRangeUsed(frontend.Extent(n))
}

func (v *visitor) needToRemoveFunction(n *cc.Node) bool {
	if isExplicitlyDefaultedOrDeleted(n) {
		return false
	}
	id := depgraph.CanonicalID(n)
	funcIsUnused := !v.usage.IsUsed(id)
	thisIsRedeclaration := !hasBody(n) && v.declared[id]
	return funcIsUnused || thisIsRedeclaration
}

func (v *visitor) visitFunctionDecl(n *cc.Node) {
	id := depgraph.CanonicalID(n)
	if v.needToRemoveFunction(n) {
		v.removeDecl(n)
	}
	v.declared[id] = true
}

func (v *visitor) visitFunctionTemplate(n *cc.Node) {
	// A function template and its templated function are one cursor under
	// libclang (the body hangs off the template directly), so the template
	// is judged like any other function, under its own canonical ID.
	if v.needToRemoveFunction(n) {
		v.removeDecl(n)
	}
	v.declared[depgraph.CanonicalID(n)] = true
}

func (v *visitor) visitRecordDecl(n *cc.Node) {
	id := depgraph.CanonicalID(n)
	classIsUnused := !v.usage.IsUsed(id) && !v.usage.IsRangeUsed(frontend.Extent(n))
	thisIsRedeclaration := !isCompleteDefinition(n) && v.declared[id]
	if classIsUnused || thisIsRedeclaration {
		v.removeDecl(n)
	}
	v.declared[id] = true
}

func (v *visitor) visitClassTemplate(n *cc.Node) {
	id := depgraph.CanonicalID(n)
	classIsUnused := !v.usage.IsUsed(id)
	thisIsRedeclaration := !isCompleteDefinition(n) && v.declared[id]
	if classIsUnused || thisIsRedeclaration {
		v.removeDecl(n)
	}
	v.declared[id] = true
}

func (v *visitor) visitUsingDirective(n *cc.Node) {
	ns := nominatedNamespace(n)
	if ns == nil {
		return
	}
	nsID := depgraph.CanonicalID(ns)
	if v.usedNamespaces[nsID] {
		v.removeDecl(n)
		return
	}
	v.usedNamespaces[nsID] = true
}

// removeDecl submits n's range, extended through a trailing semicolon, and
// its attached comment range, to the shared rewriter.
func (v *visitor) removeDecl(n *cc.Node) {
	r := frontend.Extent(n)
	r = extendThroughTrailingSemicolon(v.tu.Buffer, r)
	v.rewriter.RemoveRange(r, rewrite.Options{RemoveLineIfEmpty: true})

	if _, cr, ok := frontend.RawComment(n); ok {
		v.rewriter.RemoveRange(cr, rewrite.Options{RemoveLineIfEmpty: true})
	}
}

// extendThroughTrailingSemicolon pushes a removal past the terminating ';':
// a declaration's expansion range does not include it, and a removal that
// stops short would leave a dangling semicolon behind.
func extendThroughTrailingSemicolon(buf []byte, r decl.Range) decl.Range {
	i := r.End
	for i < len(buf) && (buf[i] == ' ' || buf[i] == '\t') {
		i++
	}
	if i < len(buf) && buf[i] == ';' {
		return decl.Range{Begin: r.Begin, End: i + 1}
	}
	return r
}

func isEmptyDecl(n *cc.Node) bool {
	return n.Body.Spelling() == "" && len(n.Children) == 0
}

// isExplicitlyDefaultedOrDeleted approximates
// isExplicitlyDefaulted()||isDeleted(): libclang exposes only
// CXXMethod_IsDefaulted as a direct cursor accessor, so "= delete" is not
// separately detectable here. A deleted function has no callers (calling it
// is ill-formed) and so is already unreachable and removed via the ordinary
// needToRemoveFunction path; this only needs to protect the defaulted case.
func isExplicitlyDefaultedOrDeleted(n *cc.Node) bool {
	return n.Body.CXXMethod_IsDefaulted()
}

func hasBody(n *cc.Node) bool {
	for _, child := range n.Children {
		if child.Body.Kind() == clang.Cursor_CompoundStmt {
			return true
		}
	}
	return false
}

func isCompleteDefinition(n *cc.Node) bool {
	return n.Body.IsCursorDefinition()
}

func hasDescribedAliasTemplate(n *cc.Node) bool {
	return n.Body.SemanticParent().Kind() == clang.Cursor_TypeAliasTemplateDecl
}

func nominatedNamespace(n *cc.Node) *cc.Node {
	for _, child := range n.Children {
		if child.Body.Kind() == clang.Cursor_NamespaceRef {
			return &cc.Node{Body: child.Body.Referenced(), Loc: cc.NewLocation(child.Body.Referenced().Location())}
		}
	}
	return nil
}
