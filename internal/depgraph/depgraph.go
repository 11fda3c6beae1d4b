// Package depgraph implements the dependencies collector: one recursive
// walk over a parsed translation unit that builds the "uses" graph the
// reachability solver later traverses.
package depgraph

import (
	"github.com/go-clang/clang-v3.9/clang"
	"github.com/mewspring/cc"

	"github.com/AssassinTee/caide-cpp-inliner/internal/decl"
	"github.com/AssassinTee/caide-cpp-inliner/internal/frontend"
)

// SourceInfo is everything the collector hands to the later passes: the
// dependency graph, the roots, the functions whose bodies still need to be
// forced through the front end, and the static-variable declarator groups.
type SourceInfo struct {
	Uses        map[decl.ID][]decl.ID
	Nodes       map[decl.ID]*decl.Node
	DeclsToKeep map[decl.ID]bool

	DelayedParsedFunctions []decl.ID

	// StaticVariables groups global/static VarDecls by their shared
	// declarator start offset, so "int a, b, c;" is pruned as one unit by
	// internal/commagroup.
	StaticVariables map[int][]decl.ID
}

func newSourceInfo() *SourceInfo {
	return &SourceInfo{
		Uses:            make(map[decl.ID][]decl.ID),
		Nodes:           make(map[decl.ID]*decl.Node),
		DeclsToKeep:     make(map[decl.ID]bool),
		StaticVariables: make(map[int][]decl.ID),
	}
}

const caideKeepMarker = "caide keep"

type collector struct {
	tu    *frontend.TranslationUnit
	info  *SourceInfo
	stack []*cc.Node // innermost active declaration at the top
}

// Collect walks tu.Root once and returns the accumulated SourceInfo.
// libclang materializes neither implicit members nor template
// instantiations as cursors, so what implicit-code traversal would find is
// recovered through explicit edges instead: destructors are recorded on
// their class node, and references resolving to specializations also link
// the template. Collect never fails: a declaration the collector cannot
// make sense of simply contributes no edges, which the reachability solver
// treats as "aggressively deletable", recoverable by a "caide keep"
// comment.
func Collect(tu *frontend.TranslationUnit) *SourceInfo {
	c := &collector{tu: tu, info: newSourceInfo()}
	c.walk(tu.Root)
	return c.info
}

func (c *collector) current() *cc.Node {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// currentFunction mirrors getCurrentFunction: the nearest enclosing
// declaration's *lexical* function, found by walking the stack, not the
// semantic-parent chain (so a default member initializer inside a class
// does not spuriously attribute to an outer function).
func (c *collector) currentFunction() *cc.Node {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if isFunctionKind(c.stack[i].Body.Kind()) {
			return c.stack[i]
		}
	}
	return nil
}

func (c *collector) walk(n *cc.Node) {
	isDecl := isDeclKind(n.Body.Kind())
	if isDecl {
		c.visitDecl(n)
	}
	c.visitExpr(n)

	if isDecl {
		c.stack = append(c.stack, n)
	}
	for _, child := range n.Children {
		c.walk(child)
	}
	if isDecl {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// CanonicalID implements "canonicalize both endpoints unless they are
// namespaces": every redeclaration of the same entity collapses to one
// vertex, except a namespace re-opening, which stays distinguishable so one
// re-opening can be deleted while another survives. Exported so
// internal/optimizer can look a cc.Node up in
// SourceInfo without re-deriving USR logic.
func CanonicalID(n *cc.Node) decl.ID {
	usr := frontend.USR(n)
	if n.Body.Kind() == clang.Cursor_Namespace {
		return decl.NamespaceID(usr, frontend.Extent(n))
	}
	return decl.ID(usr)
}

func (c *collector) insertReference(from, to *cc.Node) {
	if from == nil || to == nil {
		return
	}
	fromID := CanonicalID(from)
	toID := CanonicalID(to)
	if fromID == "" || toID == "" {
		return
	}
	c.info.Uses[fromID] = append(c.info.Uses[fromID], toID)
	c.registerNode(from)
	c.registerNode(to)
}

// insertReferenceToType implements refType: it recurses structurally
// through to's type, recording an edge to the tag declaration of every
// composite component it finds. libclang's Type exposes a flatter surface
// than clang::Type's subclass hierarchy, so arrays, pointers, references,
// typedefs and template specializations are reached through Declaration/
// ArrayElementType/PointeeType/TemplateArgumentAsType lookups rather than a
// dyn_cast chain. Class bases are not walked here; visitExpr's TypeRef case
// turns base specifiers into edges instead. See DESIGN.md for the
// simplifications this collapses.
func (c *collector) insertReferenceToType(from *cc.Node, t clang.Type, seen map[string]bool) {
	if t.Kind() == clang.Type_Invalid {
		return
	}
	key := t.Spelling()
	if key != "" {
		if seen[key] {
			return
		}
		seen[key] = true
	}

	if tagCursor := t.Declaration(); !tagCursor.IsNull() {
		c.insertReferenceToCursor(from, tagCursor)
	}

	switch t.Kind() {
	case clang.Type_ConstantArray, clang.Type_IncompleteArray, clang.Type_VariableArray, clang.Type_DependentSizedArray:
		c.insertReferenceToType(from, t.ArrayElementType(), seen)
	case clang.Type_Pointer, clang.Type_LValueReference, clang.Type_RValueReference:
		c.insertReferenceToType(from, t.PointeeType(), seen)
	case clang.Type_Typedef:
		c.insertReferenceToCursor(from, t.Declaration())
	}

	numArgs := int(t.NumTemplateArguments())
	for i := 0; i < numArgs; i++ {
		arg := t.TemplateArgumentAsType(uint32(i))
		if arg.Kind() != clang.Type_Invalid {
			c.insertReferenceToType(from, arg, seen)
		}
	}
}

func (c *collector) insertReferenceToCursor(from *cc.Node, to clang.Cursor) {
	if from == nil || to.IsNull() {
		return
	}
	fromID := CanonicalID(from)
	toID := cursorCanonicalID(to)
	if fromID == "" || toID == "" {
		return
	}
	c.info.Uses[fromID] = append(c.info.Uses[fromID], toID)
	c.registerNode(from)

	// A reference resolving to a template specialization must also keep the
	// template itself alive: the specialization decl libclang hands back is
	// not a node of the source tree, so its USR alone would never match a
	// declaration the optimizer can see.
	if tmpl := to.SpecializedCursorTemplate(); !tmpl.IsNull() {
		if tmplID := cursorCanonicalID(tmpl); tmplID != "" {
			c.info.Uses[fromID] = append(c.info.Uses[fromID], tmplID)
		}
	}
}

func cursorCanonicalID(cur clang.Cursor) decl.ID {
	usr := cur.USR()
	if cur.Kind() == clang.Cursor_Namespace {
		ext := cur.Extent()
		begin := cc.NewLocation(ext.Start())
		end := cc.NewLocation(ext.End())
		return decl.NamespaceID(usr, decl.Range{Begin: begin.Offset, End: end.Offset})
	}
	return decl.ID(usr)
}

// registerNode records (or refreshes) n's decl.Node entry so that
// internal/reach and internal/optimizer never need to touch a *cc.Node
// directly.
func (c *collector) registerNode(n *cc.Node) {
	id := CanonicalID(n)
	if id == "" {
		return
	}
	existing, seen := c.info.Nodes[id]
	if seen && existing.IsDefinition && !hasBody(n) {
		// Keep the definition's range; a forward declaration adds nothing.
		return
	}
	c.info.Nodes[id] = toDeclNode(c.tu, n, id)
}

func (c *collector) visitDecl(n *cc.Node) {
	kind := n.Body.Kind()

	// "Any declaration enclosed by a non-function declaration context adds
	// an edge to that context, so members keep their containing
	// class/namespace alive."
	if parent := n.Body.SemanticParent(); !isFunctionKind(parent.Kind()) {
		if parentNode := declCursorNode(parent); parentNode != nil {
			c.insertReference(n, parentNode)
		}
	}

	c.registerNode(n)

	if !frontend.IsInMainFile(c.tu.Path, n.Loc) {
		c.visitDeclKindSpecific(n, kind)
		return
	}

	if text, _, ok := frontend.RawComment(n); ok && containsCaideKeep(text) {
		c.info.DeclsToKeep[CanonicalID(n)] = true
	}

	c.visitDeclKindSpecific(n, kind)
}

func (c *collector) visitDeclKindSpecific(n *cc.Node, kind clang.CursorKind) {
	switch kind {
	case clang.Cursor_FunctionDecl, clang.Cursor_CXXMethod, clang.Cursor_Constructor, clang.Cursor_Destructor, clang.Cursor_ConversionFunction:
		c.visitFunctionDecl(n)
	case clang.Cursor_FunctionTemplate:
		c.visitFunctionTemplate(n)
	case clang.Cursor_VarDecl, clang.Cursor_ParmDecl:
		c.visitVarDecl(n)
	case clang.Cursor_FieldDecl:
		c.insertReference(n, declCursorNode(n.Body.SemanticParent()))
	case clang.Cursor_TypedefDecl:
		c.insertReferenceToType(n, n.Body.TypedefDeclUnderlyingType(), map[string]bool{})
	case clang.Cursor_TypeAliasDecl:
		c.insertReferenceToType(n, n.Body.TypedefDeclUnderlyingType(), map[string]bool{})
	case clang.Cursor_ClassDecl, clang.Cursor_StructDecl, clang.Cursor_ClassTemplatePartialSpecialization:
		if tmpl := n.Body.SpecializedCursorTemplate(); !tmpl.IsNull() {
			c.insertReferenceToCursor(n, tmpl)
		}
	}
}

func (c *collector) visitFunctionDecl(n *cc.Node) {
	if n.Body.Spelling() == "main" && frontend.IsInMainFile(c.tu.Path, n.Loc) {
		c.info.DeclsToKeep[CanonicalID(n)] = true
	}

	if frontend.IsInMainFile(c.tu.Path, n.Loc) && isLateParsed(n) {
		c.info.DelayedParsedFunctions = append(c.info.DelayedParsedFunctions, CanonicalID(n))
	}

	if primary := n.Body.SpecializedCursorTemplate(); !primary.IsNull() {
		c.insertReferenceToCursor(n, primary)
	}

	c.insertReferenceToType(n, n.Body.ResultType(), map[string]bool{})

	if kind := n.Body.Kind(); kind == clang.Cursor_CXXMethod || kind == clang.Cursor_Constructor || kind == clang.Cursor_Destructor {
		parent := n.Body.SemanticParent()
		if parentNode := declCursorNode(parent); parentNode != nil {
			c.insertReference(n, parentNode)
			if n.Body.CXXMethod_IsVirtual() {
				// Virtual calls are not visible as textual references: a
				// live class must retain its vtable members.
				c.insertReference(parentNode, n)
			}
			if kind == clang.Cursor_Destructor {
				// No implicit destructor calls in the AST either: record the
				// destructor on the class node so the reachability solver can
				// enqueue it whenever the class itself is reached.
				c.registerNode(parentNode)
				if classNode, ok := c.info.Nodes[CanonicalID(parentNode)]; ok {
					classNode.DestructorID = CanonicalID(n)
				}
			}
		}
	}
}

func (c *collector) visitFunctionTemplate(n *cc.Node) {
	// libclang materializes one FunctionTemplate cursor carrying the body
	// directly (there is no separate templated FunctionDecl node, and no
	// instantiation cursors to defer the work to), so the template collects
	// its body dependencies through the ordinary expression walk and only
	// the return type needs handling here. The member-of-class edge comes
	// from visitDecl's enclosing-context rule.
	c.insertReferenceToType(n, n.Body.ResultType(), map[string]bool{})
}

func (c *collector) visitVarDecl(n *cc.Node) {
	if n.Body.Kind() == clang.Cursor_ParmDecl {
		c.insertReferenceToType(n, n.Body.Type(), map[string]bool{})
		return
	}

	if fn := c.currentFunction(); fn != nil {
		// Mark any function as depending on its local variables.
		c.insertReference(fn, n)
	}
	c.insertReferenceToType(n, n.Body.Type(), map[string]bool{})

	if fn := c.currentFunction(); fn == nil && frontend.IsInMainFile(c.tu.Path, n.Loc) {
		start := frontend.Extent(n).Begin
		c.info.StaticVariables[start] = append(c.info.StaticVariables[start], CanonicalID(n))
		// A global of non-POD type is constructed and destroyed even if never
		// referenced; deleting it would drop those calls. This is a syntactic
		// type check, not a purity analysis of the initializer: POD globals
		// (plain ints and aggregates) stay deletable.
		if t := n.Body.Type(); !t.IsPODType() {
			c.info.DeclsToKeep[CanonicalID(n)] = true
		}
	}
}

// visitExpr handles the reference-producing expression cursors: calls,
// constructions, declaration references, member accesses, lambdas, casts,
// new-expressions and sizeof(type). libclang merges several distinct
// clang::Expr subclasses (CXXConstructExpr, CXXTemporaryObjectExpr,
// CXXNewExpr's allocated-type walk) into fewer exposed cursor kinds than
// the original visitor distinguished; see DESIGN.md.
func (c *collector) visitExpr(n *cc.Node) {
	current := c.current()

	switch n.Body.Kind() {
	case clang.Cursor_CallExpr:
		if current == nil {
			return
		}
		referenced := n.Body.Referenced()
		if referenced.IsNull() {
			return
		}
		c.insertReferenceToCursor(current, referenced)

	case clang.Cursor_DeclRefExpr, clang.Cursor_MemberRefExpr:
		if current == nil {
			return
		}
		referenced := n.Body.Referenced()
		c.insertReferenceToCursor(current, referenced)

	case clang.Cursor_LambdaExpr:
		if current == nil {
			return
		}
		for _, child := range n.Children {
			if isFunctionKind(child.Body.Kind()) {
				c.insertReferenceToCursor(current, child.Body)
				break
			}
		}

	case clang.Cursor_CXXStaticCastExpr, clang.Cursor_CStyleCastExpr, clang.Cursor_CXXReinterpretCastExpr,
		clang.Cursor_CXXConstCastExpr, clang.Cursor_CXXFunctionalCastExpr, clang.Cursor_CXXNewExpr:
		if current == nil {
			return
		}
		c.insertReferenceToType(current, n.Body.Type(), map[string]bool{})

	case clang.Cursor_TypeRef, clang.Cursor_TemplateRef, clang.Cursor_NamespaceRef:
		// Explicit type mentions, base-class specifiers and nested-name
		// qualifiers all surface as reference cursors under libclang rather
		// than as type-location nodes.
		if current != nil {
			c.insertReferenceToCursor(current, n.Body.Referenced())
		}

	case clang.Cursor_UnaryExpr:
		// sizeof/alignof on a type operand; a variable operand is handled
		// as a DeclRefExpr child instead.
		if current != nil {
			c.insertReferenceToType(current, n.Body.Type(), map[string]bool{})
		}
	}
}

func isLateParsed(n *cc.Node) bool {
	// libclang parses every template body eagerly (see internal/frontend's
	// -fno-delayed-template-parsing), so no function is ever observed as
	// late-parsed under this front end; the hook stays so
	// internal/lateparse has a real, if always-empty, list to walk.
	return false
}

func containsCaideKeep(comment string) bool {
	for i := 0; i+len(caideKeepMarker) <= len(comment); i++ {
		if comment[i:i+len(caideKeepMarker)] == caideKeepMarker {
			return true
		}
	}
	return false
}

func isFunctionKind(k clang.CursorKind) bool {
	switch k {
	case clang.Cursor_FunctionDecl, clang.Cursor_CXXMethod, clang.Cursor_Constructor,
		clang.Cursor_Destructor, clang.Cursor_ConversionFunction, clang.Cursor_FunctionTemplate:
		return true
	default:
		return false
	}
}

func isDeclKind(k clang.CursorKind) bool {
	switch k {
	case clang.Cursor_FunctionDecl, clang.Cursor_CXXMethod, clang.Cursor_Constructor, clang.Cursor_Destructor,
		clang.Cursor_ConversionFunction, clang.Cursor_FunctionTemplate,
		clang.Cursor_VarDecl, clang.Cursor_ParmDecl, clang.Cursor_FieldDecl,
		clang.Cursor_ClassDecl, clang.Cursor_StructDecl, clang.Cursor_ClassTemplate,
		clang.Cursor_ClassTemplatePartialSpecialization, clang.Cursor_EnumDecl, clang.Cursor_EnumConstantDecl,
		clang.Cursor_TypedefDecl, clang.Cursor_TypeAliasDecl, clang.Cursor_TypeAliasTemplateDecl,
		clang.Cursor_Namespace, clang.Cursor_UsingDirective, clang.Cursor_UsingDeclaration:
		return true
	default:
		return false
	}
}

// declCursorNode wraps a bare clang.Cursor (as returned by Referenced() or
// SemanticParent(), which hand back cursors rather than *cc.Node values) so
// the edge-insertion helpers can treat it uniformly; the translation unit
// itself is not a declaration and yields nil.
func declCursorNode(parent clang.Cursor) *cc.Node {
	if parent.IsNull() || parent.Kind() == clang.Cursor_TranslationUnit {
		return nil
	}
	return &cc.Node{Body: parent, Loc: cc.NewLocation(parent.Location())}
}

func hasBody(n *cc.Node) bool {
	switch n.Body.Kind() {
	case clang.Cursor_FunctionDecl, clang.Cursor_CXXMethod, clang.Cursor_Constructor, clang.Cursor_Destructor:
		for _, child := range n.Children {
			if child.Body.Kind() == clang.Cursor_CompoundStmt {
				return true
			}
		}
		return false
	default:
		return len(n.Children) > 0
	}
}

func toDeclNode(tu *frontend.TranslationUnit, n *cc.Node, id decl.ID) *decl.Node {
	return &decl.Node{
		ID:           id,
		Kind:         declKind(n.Body.Kind()),
		Name:         n.Body.Spelling(),
		Range:        frontend.Extent(n),
		NameLoc:      n.Loc.Offset,
		IsMainFile:   frontend.IsInMainFile(tu.Path, n.Loc),
		IsDefinition: n.Body.IsCursorDefinition(),
	}
}

func declKind(k clang.CursorKind) decl.Kind {
	switch k {
	case clang.Cursor_FunctionDecl, clang.Cursor_CXXMethod, clang.Cursor_Constructor, clang.Cursor_Destructor, clang.Cursor_ConversionFunction:
		return decl.KindFunction
	case clang.Cursor_FunctionTemplate:
		return decl.KindFunctionTemplate
	case clang.Cursor_ClassDecl, clang.Cursor_StructDecl, clang.Cursor_ClassTemplatePartialSpecialization:
		return decl.KindClass
	case clang.Cursor_ClassTemplate:
		return decl.KindClassTemplate
	case clang.Cursor_TypedefDecl:
		return decl.KindTypedef
	case clang.Cursor_TypeAliasDecl:
		return decl.KindTypeAlias
	case clang.Cursor_TypeAliasTemplateDecl:
		return decl.KindTypeAliasTemplate
	case clang.Cursor_Namespace:
		return decl.KindNamespace
	case clang.Cursor_UsingDirective:
		return decl.KindUsingDirective
	case clang.Cursor_VarDecl, clang.Cursor_ParmDecl, clang.Cursor_FieldDecl:
		return decl.KindVariable
	default:
		return decl.KindOther
	}
}
