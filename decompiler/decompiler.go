// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package decompiler converts per-method control-flow programs into
// structured statement trees: labelled blocks and loops, try-catch
// scopes, and part transfers for suspending methods.  It is a pure
// transformation; one Decompiler may serve many goroutines as long as
// each method is decompiled by a single call.
package decompiler

import (
	stderrors "errors"

	"github.com/AnthonyKot/teavm/ast"
	"github.com/AnthonyKot/teavm/graph"
	"github.com/AnthonyKot/teavm/ir"
	"github.com/AnthonyKot/teavm/regalloc"
	"github.com/AnthonyKot/teavm/split"
	"github.com/AnthonyKot/teavm/typeinf"
)

// Decompiler transforms methods.  The zero value works; fields customise
// collaborators and flags.
type Decompiler struct {
	// ClassSource resolves exception handler types.  When nil, names are
	// kept as written; when set, unresolved names become catch-all.
	ClassSource ClassSource
	// Splitter partitions suspending methods.  Nil selects the built-in
	// splitter over SplitMethods.
	Splitter AsyncSplitter
	// Optimizer, when set, post-processes every decompiled node.
	Optimizer Optimizer
	// SplitMethods are the methods that may suspend.  A method in the set
	// decompiles to parts; invocations of members are the split points.
	SplitMethods map[ir.MethodReference]bool
	// FriendlyToDebugger is passed through to the optimizer.
	FriendlyToDebugger bool
}

// Decompile transforms one method into a RegularMethodNode or, when the
// method may suspend, an AsyncMethodNode.  Failures of the transformation
// carry the method reference, an error kind and the program listing; an
// error from the Optimizer is returned unchanged.  Nothing is partially
// emitted.
func (d *Decompiler) Decompile(m *ir.Method) (MethodNode, error) {
	kinds, err := typeinf.Infer(m.Program)
	if err != nil {
		return nil, d.fail(m, TypeInference, err)
	}
	var node MethodNode
	if d.SplitMethods[m.Reference] {
		node, err = d.decompileAsync(m, kinds)
	} else {
		node, err = d.decompileRegular(m, kinds)
	}
	if err != nil {
		return nil, err
	}
	AllocateRegisters(node, m.Program)
	if d.Optimizer != nil {
		if err := d.Optimizer.Optimize(node, m.Program, d.FriendlyToDebugger); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (d *Decompiler) decompileRegular(m *ir.Method, kinds []typeinf.Kind) (MethodNode, error) {
	body, err := d.decompileBody(m, m.Program, nil)
	if err != nil {
		return nil, err
	}
	return &RegularMethodNode{
		Method:    m.Reference,
		Modifiers: m.Modifiers,
		Body:      body,
		Variables: methodVariables(m.Program, kinds),
	}, nil
}

func (d *Decompiler) decompileAsync(m *ir.Method, kinds []typeinf.Kind) (MethodNode, error) {
	splitter := d.Splitter
	if splitter == nil {
		splitter = split.NewSplitter(d.SplitMethods)
	}
	subs, err := splitter.Split(m.Program)
	if err != nil {
		return nil, d.fail(m, AsyncSplit, err)
	}
	parts := make([]MethodPart, len(subs))
	for i, sub := range subs {
		body, err := d.decompileBody(m, sub.Program(), sub.BlockSuccessors())
		if err != nil {
			return nil, err
		}
		parts[i] = MethodPart{Statement: body}
	}
	return &AsyncMethodNode{
		Method:    m.Reference,
		Modifiers: m.Modifiers,
		Parts:     parts,
		Variables: methodVariables(m.Program, kinds),
	}, nil
}

// decompileBody runs the structural pipeline over one program: index,
// find loops, build ranges, generate statements.
func (d *Decompiler) decompileBody(m *ir.Method, p *ir.Program, partTargets []int) (ast.Statement, error) {
	cfg := graph.ProgramGraph(p)
	weights := make([]int, p.BlockCount())
	for i := range weights {
		weights[i] = len(p.Block(i).Instructions)
	}
	indexer, err := graph.IndexGraph(cfg, weights, nil)
	if err != nil {
		if stderrors.Is(err, graph.ErrIrreducible) {
			return nil, d.fail(m, IrreducibleControlFlow, err)
		}
		return nil, d.fail(m, InstructionLowering, err)
	}
	loops := graph.FindLoops(indexer.Graph())
	ranges, err := buildRanges(indexer.Graph(), loops)
	if err != nil {
		return nil, d.fail(m, InstructionLowering, err)
	}
	g := newGenerator(p, indexer, ranges, partTargets, d.ClassSource)
	stmts, err := g.run()
	if err != nil {
		if stderrors.Is(err, errMalformedScope) {
			return nil, d.fail(m, MalformedExceptionScope, err)
		}
		return nil, d.fail(m, InstructionLowering, err)
	}
	return &ast.Sequential{Sequence: stmts}, nil
}

// methodVariables builds the variable table.  Registers stay -1 until the
// allocator has run; AllocateRegisters fills them in.
func methodVariables(p *ir.Program, kinds []typeinf.Kind) []VariableNode {
	vars := make([]VariableNode, p.VariableCount())
	for i := range vars {
		vars[i] = VariableNode{
			Index:     i,
			Register:  -1,
			Type:      kinds[i],
			DebugName: p.Variable(i).DebugName,
		}
	}
	return vars
}

// AllocateRegisters colours the variables of the original program and
// writes the result into the node's variable table.  It runs after
// decompilation, on the original program, for both regular and async
// nodes.
func AllocateRegisters(node MethodNode, p *ir.Program) []int {
	var vars []VariableNode
	var kinds []typeinf.Kind
	switch n := node.(type) {
	case *RegularMethodNode:
		vars = n.Variables
	case *AsyncMethodNode:
		vars = n.Variables
	}
	kinds = make([]typeinf.Kind, len(vars))
	for i, v := range vars {
		kinds[i] = v.Type
	}
	colours := regalloc.Allocate(p, kinds)
	for i := range vars {
		vars[i].Register = colours[i]
	}
	return colours
}
