// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ir defines the register-based program model the decompiler
// consumes: a method body is an ordered sequence of basic blocks, each
// holding a list of instructions and the exception handlers active while
// the block executes.  Block 0 is the entry.
package ir

// Variable is a virtual register identified by its dense Index.  The
// physical register chosen by the allocator is recorded on
// decompiler.VariableNode, not here.
type Variable struct {
	Index     int
	DebugName string
}

// TryCatchRange describes one handler active during a block's body.
// An empty ExceptionType catches everything.  Order is significant:
// earlier entries catch first.
type TryCatchRange struct {
	ExceptionType     string
	Handler           int
	ExceptionVariable *Variable
}

// BasicBlock is a maximal instruction sequence with a single entry and a
// single exit terminator.  ExceptionVariable is non-nil iff the block is
// an exception handler entry.
type BasicBlock struct {
	Index             int
	Instructions      []Instruction
	ExceptionVariable *Variable
	TryCatch          []TryCatchRange
}

// Program is an ordered sequence of basic blocks plus the variable pool
// they refer to.
type Program struct {
	blocks []*BasicBlock
	vars   []*Variable
}

func NewProgram() *Program {
	return &Program{}
}

// CreateBlock appends a new empty block and returns it.
func (p *Program) CreateBlock() *BasicBlock {
	b := &BasicBlock{Index: len(p.blocks)}
	p.blocks = append(p.blocks, b)
	return b
}

func (p *Program) Block(i int) *BasicBlock {
	return p.blocks[i]
}

func (p *Program) BlockCount() int {
	return len(p.blocks)
}

// CreateVariable allocates the next virtual register.
func (p *Program) CreateVariable() *Variable {
	v := &Variable{Index: len(p.vars)}
	p.vars = append(p.vars, v)
	return v
}

func (p *Program) Variable(i int) *Variable {
	return p.vars[i]
}

func (p *Program) VariableCount() int {
	return len(p.vars)
}

// AdoptVariable registers a variable created for another program, keeping
// its index.  The async splitter uses this to share the variable pool
// across part programs.
func (p *Program) AdoptVariable(v *Variable) {
	for len(p.vars) <= v.Index {
		p.vars = append(p.vars, nil)
	}
	p.vars[v.Index] = v
}
