// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package optimize cleans up decompiled statement trees: it flattens
// nested sequences, drops jumps that restate the normal exit of their own
// scope and unwraps blocks whose label nothing references.  The pass is
// idempotent, so running it twice yields the same tree.
package optimize

import (
	"reflect"

	"github.com/AnthonyKot/teavm/ast"
	"github.com/AnthonyKot/teavm/decompiler"
	"github.com/AnthonyKot/teavm/ir"
)

// Optimizer implements decompiler.Optimizer.
type Optimizer struct{}

func (Optimizer) Optimize(node decompiler.MethodNode, _ *ir.Program, _ bool) error {
	switch n := node.(type) {
	case *decompiler.RegularMethodNode:
		n.Body = optimizeStatement(n.Body)
	case *decompiler.AsyncMethodNode:
		for i := range n.Parts {
			n.Parts[i].Statement = optimizeStatement(n.Parts[i].Statement)
		}
	}
	return nil
}

func optimizeStatement(s ast.Statement) ast.Statement {
	for {
		out := rewrite(s)
		referenced := map[string]bool{}
		collectLabels(out, referenced)
		out = prune(out, referenced)
		if equalTree(out, s) {
			return out
		}
		s = out
	}
}

func equalTree(a, b ast.Statement) bool {
	return reflect.DeepEqual(a, b)
}

// rewrite flattens sequences and removes redundant trailing jumps.
func rewrite(s ast.Statement) ast.Statement {
	switch t := s.(type) {
	case *ast.Sequential:
		return &ast.Sequential{Sequence: rewriteList(t.Sequence, "", "")}
	case *ast.Block:
		return &ast.Block{ID: t.ID, Body: rewriteList(t.Body, t.ID, "")}
	case *ast.While:
		return &ast.While{ID: t.ID, Condition: t.Condition, Body: rewriteList(t.Body, "", t.ID)}
	case *ast.TryCatch:
		return &ast.TryCatch{
			Protected:         rewriteList(t.Protected, "", ""),
			ExceptionType:     t.ExceptionType,
			ExceptionVariable: t.ExceptionVariable,
			Handler:           t.Handler,
		}
	case *ast.Switch:
		out := &ast.Switch{Value: t.Value, Default: rewriteList(t.Default, "", "")}
		for _, c := range t.Clauses {
			out.Clauses = append(out.Clauses, ast.SwitchClause{Value: c.Value, Body: rewriteList(c.Body, "", "")})
		}
		return out
	case *ast.If:
		return &ast.If{
			Condition:   t.Condition,
			Consequent:  rewriteList(t.Consequent, "", ""),
			Alternative: rewriteList(t.Alternative, "", ""),
		}
	}
	return s
}

// rewriteList rewrites children, splices nested sequences and drops a
// trailing break of breakLabel or continue of continueLabel: both restate
// what the enclosing scope does anyway.
func rewriteList(stmts []ast.Statement, breakLabel, continueLabel string) []ast.Statement {
	var out []ast.Statement
	for _, s := range stmts {
		s = rewrite(s)
		if seq, ok := s.(*ast.Sequential); ok {
			out = append(out, seq.Sequence...)
			continue
		}
		out = append(out, s)
	}
	for len(out) > 0 {
		switch last := out[len(out)-1].(type) {
		case *ast.Break:
			if breakLabel != "" && last.Label == breakLabel {
				out = out[:len(out)-1]
				continue
			}
		case *ast.Continue:
			if continueLabel != "" && last.Label == continueLabel {
				out = out[:len(out)-1]
				continue
			}
		}
		break
	}
	return out
}

func collectLabels(s ast.Statement, refs map[string]bool) {
	switch t := s.(type) {
	case *ast.Break:
		refs[t.Label] = true
	case *ast.Continue:
		refs[t.Label] = true
	case *ast.Sequential:
		for _, c := range t.Sequence {
			collectLabels(c, refs)
		}
	case *ast.Block:
		for _, c := range t.Body {
			collectLabels(c, refs)
		}
	case *ast.While:
		for _, c := range t.Body {
			collectLabels(c, refs)
		}
	case *ast.TryCatch:
		for _, c := range t.Protected {
			collectLabels(c, refs)
		}
		if t.Handler != nil {
			collectLabels(t.Handler, refs)
		}
	case *ast.Switch:
		for _, c := range t.Clauses {
			for _, b := range c.Body {
				collectLabels(b, refs)
			}
		}
		for _, c := range t.Default {
			collectLabels(c, refs)
		}
	case *ast.If:
		for _, c := range t.Consequent {
			collectLabels(c, refs)
		}
		for _, c := range t.Alternative {
			collectLabels(c, refs)
		}
	}
}

// prune unwraps plain blocks whose label nothing references.  Loops keep
// their shape regardless: the loop itself is semantics, not scaffolding.
func prune(s ast.Statement, refs map[string]bool) ast.Statement {
	switch t := s.(type) {
	case *ast.Sequential:
		return &ast.Sequential{Sequence: pruneList(t.Sequence, refs)}
	case *ast.Block:
		body := pruneList(t.Body, refs)
		if !refs[t.ID] {
			return &ast.Sequential{Sequence: body}
		}
		return &ast.Block{ID: t.ID, Body: body}
	case *ast.While:
		return &ast.While{ID: t.ID, Condition: t.Condition, Body: pruneList(t.Body, refs)}
	case *ast.TryCatch:
		return &ast.TryCatch{
			Protected:         pruneList(t.Protected, refs),
			ExceptionType:     t.ExceptionType,
			ExceptionVariable: t.ExceptionVariable,
			Handler:           t.Handler,
		}
	case *ast.Switch:
		out := &ast.Switch{Value: t.Value, Default: pruneList(t.Default, refs)}
		for _, c := range t.Clauses {
			out.Clauses = append(out.Clauses, ast.SwitchClause{Value: c.Value, Body: pruneList(c.Body, refs)})
		}
		return out
	case *ast.If:
		return &ast.If{
			Condition:   t.Condition,
			Consequent:  pruneList(t.Consequent, refs),
			Alternative: pruneList(t.Alternative, refs),
		}
	}
	return s
}

func pruneList(stmts []ast.Statement, refs map[string]bool) []ast.Statement {
	var out []ast.Statement
	for _, s := range stmts {
		s = prune(s, refs)
		if seq, ok := s.(*ast.Sequential); ok {
			out = append(out, seq.Sequence...)
			continue
		}
		out = append(out, s)
	}
	return out
}
