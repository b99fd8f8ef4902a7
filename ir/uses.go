// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

// Uses returns the variables an instruction reads.
func Uses(insn Instruction) []*Variable {
	switch i := insn.(type) {
	case *Assign:
		return []*Variable{i.Assignee}
	case *Binary:
		return []*Variable{i.A, i.B}
	case *Negate:
		return []*Variable{i.Operand}
	case *Branch:
		return []*Variable{i.Condition}
	case *BinaryBranch:
		return []*Variable{i.A, i.B}
	case *Switch:
		return []*Variable{i.Condition}
	case *Exit:
		if i.Value != nil {
			return []*Variable{i.Value}
		}
	case *Raise:
		return []*Variable{i.Exception}
	case *Invoke:
		var vs []*Variable
		if i.Instance != nil {
			vs = append(vs, i.Instance)
		}
		return append(vs, i.Arguments...)
	}
	return nil
}

// Def returns the variable an instruction writes, or nil.
func Def(insn Instruction) *Variable {
	switch i := insn.(type) {
	case *IntConst:
		return i.Receiver
	case *LongConst:
		return i.Receiver
	case *FloatConst:
		return i.Receiver
	case *DoubleConst:
		return i.Receiver
	case *NullConst:
		return i.Receiver
	case *Assign:
		return i.Receiver
	case *Binary:
		return i.Receiver
	case *Negate:
		return i.Receiver
	case *Invoke:
		return i.Receiver
	case *Construct:
		return i.Receiver
	case *RestoreState:
		return i.Receiver
	}
	return nil
}
