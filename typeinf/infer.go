// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package typeinf assigns a value kind to every variable of a program by
// a forward unification pass.  Conflicts are errors; defaults are never
// fabricated.
package typeinf

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/AnthonyKot/teavm/ir"
)

// Kind is the inferred value kind of a variable.
type Kind int

const (
	Unknown Kind = iota
	Int
	Long
	Float
	Double
	Ref
	Addr
)

var kindNames = [...]string{"unknown", "i32", "i64", "f32", "f64", "reference", "address"}

func (k Kind) String() string { return kindNames[k] }

// Error reports two irreconcilable kinds met on one variable.
type Error struct {
	Variable int
	Got      Kind
	Want     Kind
}

func (e *Error) Error() string {
	return fmt.Sprintf("variable @%d inferred both %s and %s", e.Variable, e.Want, e.Got)
}

// Infer runs the unification pass and returns per-variable kinds indexed
// by variable number.  Variables never written stay Unknown.
func Infer(p *ir.Program) ([]Kind, error) {
	kinds := make([]Kind, p.VariableCount())
	unify := func(v *ir.Variable, k Kind) error {
		if v == nil || k == Unknown {
			return nil
		}
		cur := kinds[v.Index]
		if cur == Unknown {
			kinds[v.Index] = k
			return nil
		}
		if cur != k {
			return &Error{Variable: v.Index, Got: k, Want: cur}
		}
		return nil
	}

	// Assignments copy whatever kind the source settles on, which may be
	// discovered in a later block; iterate to a fixed point.
	for changed := true; changed; {
		changed = false
		snapshot := append([]Kind(nil), kinds...)
		for i := 0; i < p.BlockCount(); i++ {
			b := p.Block(i)
			if err := unify(b.ExceptionVariable, Ref); err != nil {
				return nil, err
			}
			for _, tc := range b.TryCatch {
				if err := unify(tc.ExceptionVariable, Ref); err != nil {
					return nil, err
				}
			}
			for _, insn := range b.Instructions {
				if err := inferInstruction(insn, kinds, unify); err != nil {
					return nil, err
				}
			}
		}
		for j := range kinds {
			if kinds[j] != snapshot[j] {
				changed = true
				break
			}
		}
	}
	return kinds, nil
}

func inferInstruction(insn ir.Instruction, kinds []Kind, unify func(*ir.Variable, Kind) error) error {
	switch i := insn.(type) {
	case *ir.IntConst:
		return unify(i.Receiver, Int)
	case *ir.LongConst:
		return unify(i.Receiver, Long)
	case *ir.FloatConst:
		return unify(i.Receiver, Float)
	case *ir.DoubleConst:
		return unify(i.Receiver, Double)
	case *ir.NullConst:
		return unify(i.Receiver, Ref)
	case *ir.Assign:
		return unify(i.Receiver, kinds[i.Assignee.Index])
	case *ir.Binary:
		if i.Op.IsComparison() {
			return unify(i.Receiver, Int)
		}
		k := kinds[i.A.Index]
		if k == Unknown {
			k = kinds[i.B.Index]
		}
		return unify(i.Receiver, k)
	case *ir.Negate:
		return unify(i.Receiver, kinds[i.Operand.Index])
	case *ir.Invoke:
		return unify(i.Receiver, returnKind(i.Method.Descriptor))
	case *ir.Construct:
		return unify(i.Receiver, Ref)
	case *ir.RestoreState:
		// The resumed value's kind comes from the suspended call; the
		// splitter reuses its receiver, so nothing new to learn here.
		return nil
	}
	return nil
}

// returnKind reads the return kind off a class-file method descriptor.
func returnKind(descriptor string) Kind {
	for i := 0; i < len(descriptor); i++ {
		if descriptor[i] != ')' || i+1 >= len(descriptor) {
			continue
		}
		switch descriptor[i+1] {
		case 'Z', 'B', 'C', 'S', 'I':
			return Int
		case 'J':
			return Long
		case 'F':
			return Float
		case 'D':
			return Double
		case 'L', '[':
			return Ref
		}
		return Unknown
	}
	return Unknown
}

// Must is a test helper wrapping Infer.
func Must(p *ir.Program) []Kind {
	kinds, err := Infer(p)
	if err != nil {
		panic(errors.Wrap(err, "typeinf"))
	}
	return kinds
}
