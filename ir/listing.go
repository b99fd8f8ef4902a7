// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ir

import (
	"fmt"
	"strings"
)

// Listing renders a program in a stable textual form for error reports.
func Listing(p *Program) string {
	var sb strings.Builder
	for i := 0; i < p.BlockCount(); i++ {
		b := p.Block(i)
		fmt.Fprintf(&sb, "$%d:\n", i)
		if b.ExceptionVariable != nil {
			fmt.Fprintf(&sb, "    @%d := caught exception\n", b.ExceptionVariable.Index)
		}
		for _, insn := range b.Instructions {
			fmt.Fprintf(&sb, "    %s\n", formatInstruction(insn))
		}
		for _, tc := range b.TryCatch {
			t := tc.ExceptionType
			if t == "" {
				t = "*"
			}
			if tc.ExceptionVariable != nil {
				fmt.Fprintf(&sb, "    catch %s -> $%d @%d\n", t, tc.Handler, tc.ExceptionVariable.Index)
			} else {
				fmt.Fprintf(&sb, "    catch %s -> $%d\n", t, tc.Handler)
			}
		}
	}
	return sb.String()
}

func formatInstruction(insn Instruction) string {
	switch i := insn.(type) {
	case *IntConst:
		return fmt.Sprintf("@%d := %d", i.Receiver.Index, i.Value)
	case *LongConst:
		return fmt.Sprintf("@%d := %dL", i.Receiver.Index, i.Value)
	case *FloatConst:
		return fmt.Sprintf("@%d := %gF", i.Receiver.Index, i.Value)
	case *DoubleConst:
		return fmt.Sprintf("@%d := %g", i.Receiver.Index, i.Value)
	case *NullConst:
		return fmt.Sprintf("@%d := null", i.Receiver.Index)
	case *Assign:
		return fmt.Sprintf("@%d := @%d", i.Receiver.Index, i.Assignee.Index)
	case *Binary:
		return fmt.Sprintf("@%d := %s @%d @%d", i.Receiver.Index, i.Op, i.A.Index, i.B.Index)
	case *Negate:
		return fmt.Sprintf("@%d := neg @%d", i.Receiver.Index, i.Operand.Index)
	case *Jump:
		return fmt.Sprintf("goto $%d", i.Target)
	case *Branch:
		return fmt.Sprintf("if @%d goto $%d else $%d", i.Condition.Index, i.Consequent, i.Alternative)
	case *BinaryBranch:
		return fmt.Sprintf("if @%d %s @%d goto $%d else $%d", i.A.Index, i.Op, i.B.Index, i.Consequent, i.Alternative)
	case *Switch:
		var sb strings.Builder
		fmt.Fprintf(&sb, "switch @%d", i.Condition.Index)
		for _, e := range i.Entries {
			fmt.Fprintf(&sb, " %d:$%d", e.Value, e.Target)
		}
		fmt.Fprintf(&sb, " default:$%d", i.Default)
		return sb.String()
	case *Exit:
		if i.Value != nil {
			return fmt.Sprintf("return @%d", i.Value.Index)
		}
		return "return"
	case *Raise:
		return fmt.Sprintf("throw @%d", i.Exception.Index)
	case *Invoke:
		var sb strings.Builder
		if i.Receiver != nil {
			fmt.Fprintf(&sb, "@%d := ", i.Receiver.Index)
		}
		fmt.Fprintf(&sb, "invoke %s", i.Method)
		if i.Instance != nil {
			fmt.Fprintf(&sb, " on @%d", i.Instance.Index)
		}
		for _, a := range i.Arguments {
			fmt.Fprintf(&sb, " @%d", a.Index)
		}
		return sb.String()
	case *Construct:
		return fmt.Sprintf("@%d := new %s", i.Receiver.Index, i.Type)
	case *RestoreState:
		if i.Receiver != nil {
			return fmt.Sprintf("@%d := restore", i.Receiver.Index)
		}
		return "restore"
	}
	return fmt.Sprintf("?%T", insn)
}
