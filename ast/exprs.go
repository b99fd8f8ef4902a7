// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ast

import "github.com/AnthonyKot/teavm/ir"

// Expr is the sum over expression kinds.
type Expr interface {
	astExpr()
}

type Var struct {
	Index int
}

type IntConst struct {
	Value int32
}

type LongConst struct {
	Value int64
}

type FloatConst struct {
	Value float32
}

type DoubleConst struct {
	Value float64
}

type NullConst struct{}

type Binary struct {
	Op   ir.BinaryOp
	A, B Expr
}

type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
)

type Unary struct {
	Op      UnaryOp
	Operand Expr
}

type Invocation struct {
	Method    ir.MethodReference
	Instance  Expr // nil for static calls
	Arguments []Expr
}

type New struct {
	Type string
}

// CaughtException reads the exception bound on handler entry.
type CaughtException struct{}

// RestoreState is the opaque resume expression at the start of an async
// part.
type RestoreState struct{}

func (*Var) astExpr()             {}
func (*IntConst) astExpr()        {}
func (*LongConst) astExpr()       {}
func (*FloatConst) astExpr()      {}
func (*DoubleConst) astExpr()     {}
func (*NullConst) astExpr()       {}
func (*Binary) astExpr()          {}
func (*Unary) astExpr()           {}
func (*Invocation) astExpr()      {}
func (*New) astExpr()             {}
func (*CaughtException) astExpr() {}
func (*RestoreState) astExpr()    {}

// Not returns the logical negation of e, folding double negation and
// comparison operators.
func Not(e Expr) Expr {
	switch x := e.(type) {
	case *Unary:
		if x.Op == OpNot {
			return x.Operand
		}
	case *Binary:
		if x.Op.IsComparison() {
			return &Binary{Op: x.Op.Negate(), A: x.A, B: x.B}
		}
	}
	return &Unary{Op: OpNot, Operand: e}
}
