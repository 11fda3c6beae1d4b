package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// The scenarios drive the full pipeline over literal translation units,
// through a real libclang parse: the graph construction in internal/depgraph
// and the deletion decisions in internal/optimizer are exercised here rather
// than against synthetic cursors, which cgo-backed clang.Cursor values cannot
// fake (see the internal/frontend package comment).
func TestOptimizeScenarios(t *testing.T) {
	cases := []struct {
		name         string
		src          string
		macrosToKeep map[string]bool
		wantContains []string
		wantAbsent   []string
	}{
		{
			name:         "unused function removed",
			src:          "int unused(){return 1;} int main(){return 0;}\n",
			wantContains: []string{"int main(){return 0;}"},
			wantAbsent:   []string{"unused"},
		},
		{
			name:         "caide keep pins helper",
			src:          "/// caide keep\nint helper(){return 7;} int main(){return 0;}\n",
			wantContains: []string{"helper", "caide keep", "int main(){return 0;}"},
		},
		{
			name:         "virtual methods of live class survive",
			src:          "struct A{virtual ~A(){} virtual void f(){}}; A a; int main(){return 0;}\n",
			wantContains: []string{"struct A", "~A", "void f()"},
		},
		{
			name:         "comma group keeps only referenced member",
			src:          "int a,b,c; int main(){return b;}\n",
			wantContains: []string{"int b;", "int main(){return b;}"},
			wantAbsent:   []string{"a,", ",c"},
		},
		{
			name:         "inactive if-zero block removed",
			src:          "#if 0\nint dead(){return 0;}\n#endif\nint main(){return 0;}\n",
			wantContains: []string{"int main(){return 0;}"},
			wantAbsent:   []string{"dead", "#if", "#endif"},
		},
		{
			name:         "kept macro preserves inactive block",
			src:          "#ifdef FEATURE\nint feat(){return 0;}\n#endif\nint main(){return 0;}\n",
			macrosToKeep: map[string]bool{"FEATURE": true},
			wantContains: []string{"#ifdef FEATURE", "feat", "#endif", "int main(){return 0;}"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tu.cpp")
			if err := os.WriteFile(path, []byte(c.src), 0644); err != nil {
				t.Fatal(err)
			}

			result, err := Optimize(path, []string{"-std=c++11"}, c.macrosToKeep)
			if err != nil {
				t.Fatalf("Optimize: %+v", err)
			}

			for _, want := range c.wantContains {
				if !strings.Contains(result.Source, want) {
					t.Errorf("output missing %q:\n%s", want, result.Source)
				}
			}
			for _, absent := range c.wantAbsent {
				if strings.Contains(result.Source, absent) {
					t.Errorf("output still contains %q:\n%s", absent, result.Source)
				}
			}
		})
	}
}

// Re-feeding the optimized output must be a fixed point: everything that
// survives the first run is reachable from a root, so a second run has
// nothing left to delete.
func TestOptimizeIsIdempotent(t *testing.T) {
	src := "int unused(){return 1;}\nint helper(){return 7;}\nint main(){return helper();}\n"

	dir := t.TempDir()
	path := filepath.Join(dir, "tu.cpp")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	first, err := Optimize(path, []string{"-std=c++11"}, nil)
	if err != nil {
		t.Fatalf("first Optimize: %+v", err)
	}

	path2 := filepath.Join(dir, "tu2.cpp")
	if err := os.WriteFile(path2, []byte(first.Source), 0644); err != nil {
		t.Fatal(err)
	}
	second, err := Optimize(path2, []string{"-std=c++11"}, nil)
	if err != nil {
		t.Fatalf("second Optimize: %+v", err)
	}

	if second.Source != first.Source {
		t.Fatalf("output is not a fixed point:\nfirst:\n%s\nsecond:\n%s", first.Source, second.Source)
	}
}

func TestOptimizeReportsCompileFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.cpp")
	if _, err := Optimize(path, nil, nil); err == nil {
		t.Fatal("expected an error for a nonexistent translation unit")
	}
}
