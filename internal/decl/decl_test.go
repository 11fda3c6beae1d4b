package decl

import "testing"

func TestRangeEmpty(t *testing.T) {
	cases := []struct {
		r    Range
		want bool
	}{
		{Range{Begin: 4, End: 9}, false},
		{Range{Begin: 4, End: 4}, true},
		{Range{Begin: 9, End: 4}, true},
	}
	for _, c := range cases {
		if got := c.r.Empty(); got != c.want {
			t.Fatalf("Range(%d,%d).Empty() = %v, want %v", c.r.Begin, c.r.End, got, c.want)
		}
	}
}

func TestRangeOverlaps(t *testing.T) {
	cases := []struct {
		a, b Range
		want bool
	}{
		{Range{0, 5}, Range{5, 10}, false},
		{Range{0, 5}, Range{4, 10}, true},
		{Range{4, 10}, Range{0, 5}, true},
		{Range{0, 10}, Range{3, 4}, true},
	}
	for _, c := range cases {
		if got := c.a.Overlaps(c.b); got != c.want {
			t.Fatalf("Range(%v).Overlaps(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestRangeLess(t *testing.T) {
	if !(Range{Begin: 0, End: 5}).Less(Range{Begin: 1, End: 2}) {
		t.Fatalf("expected earlier Begin to sort first")
	}
	if !(Range{Begin: 0, End: 5}).Less(Range{Begin: 0, End: 9}) {
		t.Fatalf("expected equal Begin to break ties on End")
	}
	if (Range{Begin: 1, End: 2}).Less(Range{Begin: 0, End: 5}) {
		t.Fatalf("expected later Begin to not sort first")
	}
}

func TestNamespaceIDDistinguishesReopenings(t *testing.T) {
	first := NamespaceID("c:@N@foo", Range{Begin: 0, End: 20})
	second := NamespaceID("c:@N@foo", Range{Begin: 40, End: 60})
	if first == second {
		t.Fatalf("two distinct re-openings of the same namespace produced the same ID")
	}

	again := NamespaceID("c:@N@foo", Range{Begin: 0, End: 20})
	if first != again {
		t.Fatalf("same re-opening produced different IDs across calls")
	}
}

func TestKindString(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{KindFunction, "function"},
		{KindFunctionTemplate, "function-template"},
		{KindClass, "class"},
		{KindClassTemplate, "class-template"},
		{KindTypedef, "typedef"},
		{KindTypeAlias, "type-alias"},
		{KindTypeAliasTemplate, "type-alias-template"},
		{KindNamespace, "namespace"},
		{KindUsingDirective, "using-directive"},
		{KindEmpty, "empty"},
		{KindVariable, "variable"},
		{KindOther, "other"},
		{Kind(999), "other"},
	}
	for _, c := range cases {
		if got := c.k.String(); got != c.want {
			t.Fatalf("Kind(%d).String() = %q, want %q", c.k, got, c.want)
		}
	}
}
