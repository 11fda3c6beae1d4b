// Package engine wires the pipeline stages into the single entry point,
// Optimize. The stages run strictly in order: the collector finishes before
// reachability, reachability before the optimizer visitor, the optimizer
// visitor before the comma-group pruner, and all edits before ApplyChanges.
package engine

import (
	"github.com/AssassinTee/caide-cpp-inliner/internal/commagroup"
	"github.com/AssassinTee/caide-cpp-inliner/internal/depgraph"
	"github.com/AssassinTee/caide-cpp-inliner/internal/frontend"
	"github.com/AssassinTee/caide-cpp-inliner/internal/lateparse"
	"github.com/AssassinTee/caide-cpp-inliner/internal/optimizer"
	"github.com/AssassinTee/caide-cpp-inliner/internal/ppblocks"
	"github.com/AssassinTee/caide-cpp-inliner/internal/reach"
	"github.com/AssassinTee/caide-cpp-inliner/internal/rewrite"
)

// Result carries the rewritten source plus the bookkeeping internal/diagnostics
// needs to produce a -dump-decisions report, without forcing every caller of
// Optimize to pay for a report it didn't ask for.
type Result struct {
	Source string

	Info  *depgraph.SourceInfo
	Usage *reach.UsageInfo
}

// Optimize parses sourcePath with compileOptions, deletes every declaration
// and inactive preprocessor block unreachable from main or a "caide keep"
// root (other than those whose condition names a macro in macrosToKeep),
// and returns the rewritten translation unit text.
func Optimize(sourcePath string, compileOptions []string, macrosToKeep map[string]bool) (*Result, error) {
	tu, err := frontend.Parse(sourcePath, compileOptions)
	if err != nil {
		return nil, err
	}
	defer tu.Close()

	info := depgraph.Collect(tu)

	lateparse.Force(tu, info)

	usage := reach.Solve(info)

	rewriter := rewrite.New(tu.Buffer)

	optimizer.Run(tu, info, usage, rewriter)
	commagroup.Prune(tu.Buffer, info, usage, rewriter)
	ppblocks.Submit(tu.Buffer, ppblocks.DefinesFromCompileOptions(compileOptions), macrosToKeep, rewriter)

	rewriter.ApplyChanges()

	return &Result{
		Source: string(rewriter.RewrittenBuffer()),
		Info:   info,
		Usage:  usage,
	}, nil
}
