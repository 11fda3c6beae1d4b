// Package decl holds the vocabulary shared by every pass of the optimizer:
// the vertex identity, source range, and declaration-kind types that
// internal/depgraph, internal/reach, internal/optimizer and
// internal/commagroup all operate over. Keeping this vocabulary independent
// of the front end lets those passes be driven by synthetic graphs in tests.
package decl

import "fmt"

// ID identifies a canonical declaration. For every declaration kind except
// namespaces this is the front end's USR (Unified Symbol Resolution string),
// which is already stable across redeclarations. Namespace re-openings are
// intentionally not canonicalized (see NamespaceID), so their ID also
// encodes the occurrence's range.
type ID string

// NamespaceID builds a per-occurrence ID for a namespace re-opening: unlike
// every other declaration kind, each textual re-opening of a namespace is
// its own graph vertex, so two occurrences sharing a USR must still compare
// unequal.
func NamespaceID(usr string, r Range) ID {
	return ID(fmt.Sprintf("%s@%d:%d", usr, r.Begin, r.End))
}

// Range is a half-open byte range [Begin, End) into the main file's buffer.
type Range struct {
	Begin, End int
}

// Empty reports whether r denotes no text.
func (r Range) Empty() bool { return r.Begin >= r.End }

// Overlaps reports whether r and o share any byte.
func (r Range) Overlaps(o Range) bool {
	return r.Begin < o.End && o.Begin < r.End
}

// Less orders ranges by (Begin, End), the order SmartRewriter applies edits
// in so that results are independent of map iteration order.
func (r Range) Less(o Range) bool {
	if r.Begin != o.Begin {
		return r.Begin < o.Begin
	}
	return r.End < o.End
}

// Kind distinguishes the declaration shapes the optimizer visitor must
// decide about individually.
type Kind int

const (
	KindOther Kind = iota
	KindFunction
	KindFunctionTemplate
	KindClass
	KindClassTemplate
	KindTypedef
	KindTypeAlias
	KindTypeAliasTemplate
	KindNamespace
	KindUsingDirective
	KindEmpty
	KindVariable
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindFunctionTemplate:
		return "function-template"
	case KindClass:
		return "class"
	case KindClassTemplate:
		return "class-template"
	case KindTypedef:
		return "typedef"
	case KindTypeAlias:
		return "type-alias"
	case KindTypeAliasTemplate:
		return "type-alias-template"
	case KindNamespace:
		return "namespace"
	case KindUsingDirective:
		return "using-directive"
	case KindEmpty:
		return "empty"
	case KindVariable:
		return "variable"
	default:
		return "other"
	}
}

// Node is one declaration as seen by the engine: either a genuine AST
// cursor summarized by the collector, or a synthetic node built by a test.
type Node struct {
	ID      ID
	Kind    Kind
	Name    string // for diagnostics only, never used to decide reachability
	Range   Range  // expansion range, in main-file byte offsets
	NameLoc int    // byte offset of the declarator's name, for partial comma-group removal

	IsMainFile   bool
	IsDefinition bool

	// DestructorID links a class or class template to its user-declared
	// destructor; destruction is invisible in the AST, so reachability
	// enqueues it whenever the class itself is reached.
	DestructorID ID
}
