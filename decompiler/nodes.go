// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decompiler

import (
	"github.com/AnthonyKot/teavm/ast"
	"github.com/AnthonyKot/teavm/ir"
	"github.com/AnthonyKot/teavm/split"
	"github.com/AnthonyKot/teavm/typeinf"
)

// VariableNode describes one variable of a decompiled method.  Register
// is -1 until the allocator has run.
type VariableNode struct {
	Index     int
	Register  int
	Type      typeinf.Kind
	DebugName string
}

// MethodNode is either a RegularMethodNode or an AsyncMethodNode.
type MethodNode interface {
	Reference() ir.MethodReference
	methodNode()
}

// RegularMethodNode is the decompilation of a method with a single part.
type RegularMethodNode struct {
	Method    ir.MethodReference
	Modifiers ir.Modifiers
	Body      ast.Statement
	Variables []VariableNode
}

// MethodPart is one fragment of an asynchronous method; parts are joined
// at runtime via GotoPart statements.
type MethodPart struct {
	Statement ast.Statement
}

// AsyncMethodNode is the decompilation of a suspending method: ordered
// parts, part 0 containing the entry.
type AsyncMethodNode struct {
	Method    ir.MethodReference
	Modifiers ir.Modifiers
	Parts     []MethodPart
	Variables []VariableNode
}

func (n *RegularMethodNode) Reference() ir.MethodReference { return n.Method }
func (n *AsyncMethodNode) Reference() ir.MethodReference   { return n.Method }
func (*RegularMethodNode) methodNode()                     {}
func (*AsyncMethodNode) methodNode()                       {}

// ClassDescriptor is the slice of class metadata the core needs: enough
// to resolve exception handler types.
type ClassDescriptor struct {
	Name   string
	Parent string
}

// ClassSource resolves class names.  Get returns nil for unknown names.
type ClassSource interface {
	Get(name string) *ClassDescriptor
}

// AsyncSplitter partitions a program into ordered parts at designated
// split points.
type AsyncSplitter interface {
	Split(p *ir.Program) ([]*split.SubProgram, error)
}

// Optimizer is the post-pass applied to a decompiled node before it is
// returned.
type Optimizer interface {
	Optimize(node MethodNode, program *ir.Program, friendlyToDebugger bool) error
}
