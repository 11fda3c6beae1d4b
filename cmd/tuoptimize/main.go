// Command tuoptimize deletes declarations unreachable from main or a
// "/// caide keep" root from a single C++ translation unit, and writes the
// rewritten source to standard output (or -o).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/kr/pretty"
	"github.com/mewkiz/pkg/pathutil"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"

	"github.com/AssassinTee/caide-cpp-inliner/internal/diagnostics"
	"github.com/AssassinTee/caide-cpp-inliner/internal/engine"
)

var (
	// dbg is a logger with the "tuoptimize:" prefix which logs debug
	// messages to standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("tuoptimize:")+" ", 0)
	// warn is a logger with the "tuoptimize:" prefix which logs warning
	// messages to standard error.
	warn = log.New(os.Stderr, term.RedBold("tuoptimize:")+" ", 0)
)

type stringSet map[string]bool

func (s stringSet) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func (s stringSet) Set(value string) error {
	for _, name := range strings.Split(value, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			s[name] = true
		}
	}
	return nil
}

type compileOptions []string

func (c *compileOptions) String() string { return strings.Join(*c, " ") }

func (c *compileOptions) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func main() {
	macrosToKeep := make(stringSet)
	flag.Var(macrosToKeep, "keep-macro", "macro name whose inactive #if/#ifdef blocks must be preserved (comma-separated, repeatable)")

	var opts compileOptions
	flag.Var(&opts, "compile-opt", "compile-driver token (include path, define, standard); repeatable")

	output := flag.String("o", "", "output path (default: standard output)")
	dumpDecisions := flag.Bool("dump-decisions", false, "write a JSON report of every declaration's keep/delete decision next to the input")
	debugGraph := flag.Bool("debug-graph", false, "pretty-print the collected dependency graph to standard output")

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tuoptimize [flags] <translation-unit.cpp>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	srcPath := flag.Arg(0)

	dbg.Printf("optimizing %q\n", srcPath)
	result, err := engine.Optimize(srcPath, []string(opts), macrosToKeep)
	if err != nil {
		log.Fatalf("%+v", errors.WithStack(err))
	}

	if *debugGraph {
		pretty.Println(result.Info.Uses)
	}

	if *dumpDecisions {
		jsonPath := pathutil.TrimExt(srcPath) + "_decisions.json"
		dbg.Printf("writing decisions to %q\n", jsonPath)
		decisions := diagnostics.Report(result.Info, result.Usage)
		if err := diagnostics.WriteFile(jsonPath, decisions); err != nil {
			warn.Printf("%+v", err)
		}
	}

	if *output == "" {
		fmt.Print(result.Source)
		return
	}
	if err := os.WriteFile(*output, []byte(result.Source), 0644); err != nil {
		log.Fatalf("%+v", errors.WithStack(err))
	}
}
