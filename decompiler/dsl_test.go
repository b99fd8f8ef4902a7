// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file contains utility functions to define programs for testing.
// As an example, the program
//
//   $0:
//       @0 := 0
//       goto $1
//   $1:
//       if @0 lt @1 goto $1 else $2
//   $2:
//       return
//
// can be defined as
//
//   p := Prog(
//       Bloc("entry", SetInt("i", 0), Goto("loop")),
//       Bloc("loop", IfCmp(ir.OpLess, "i", "n", "loop", "exit")),
//       Bloc("exit", Ret()))
//
// Blocks are created in the order given; variables are created on first
// mention.  Targets and operands are resolved in a second pass, so blocks
// and variables can be referenced before they are defined.

package decompiler

import (
	"log"

	"github.com/AnthonyKot/teavm/ir"
)

type testProg struct {
	p      *ir.Program
	blocks map[string]int
	vars   map[string]*ir.Variable
}

type bloc struct {
	name    string
	entries []interface{}
}

type insn struct {
	build func(tp *testProg) ir.Instruction
}

type catchRange struct {
	exceptionType string
	handler       string
	variable      string
}

type handlerEntry struct {
	variable string
}

// Prog composes a program from Bloc definitions.
func Prog(blocs ...bloc) *testProg {
	tp := &testProg{
		p:      ir.NewProgram(),
		blocks: map[string]int{},
		vars:   map[string]*ir.Variable{},
	}
	for _, b := range blocs {
		if _, ok := tp.blocks[b.name]; ok {
			log.Panicf("duplicate block %s", b.name)
		}
		tp.blocks[b.name] = tp.p.CreateBlock().Index
	}
	for _, b := range blocs {
		blk := tp.p.Block(tp.blocks[b.name])
		for _, e := range b.entries {
			switch v := e.(type) {
			case insn:
				blk.Instructions = append(blk.Instructions, v.build(tp))
			case catchRange:
				blk.TryCatch = append(blk.TryCatch, ir.TryCatchRange{
					ExceptionType:     v.exceptionType,
					Handler:           tp.block(v.handler),
					ExceptionVariable: tp.variable(v.variable),
				})
			case handlerEntry:
				blk.ExceptionVariable = tp.variable(v.variable)
			default:
				log.Panicf("unexpected entry %T in block %s", e, b.name)
			}
		}
	}
	return tp
}

func (tp *testProg) block(name string) int {
	i, ok := tp.blocks[name]
	if !ok {
		log.Panicf("unknown block %s", name)
	}
	return i
}

func (tp *testProg) variable(name string) *ir.Variable {
	if name == "" {
		return nil
	}
	v, ok := tp.vars[name]
	if !ok {
		v = tp.p.CreateVariable()
		v.DebugName = name
		tp.vars[name] = v
	}
	return v
}

func Bloc(name string, entries ...interface{}) bloc {
	return bloc{name: name, entries: entries}
}

// Catch registers a handler active during the block's body.
func Catch(exceptionType, handler, variable string) catchRange {
	return catchRange{exceptionType: exceptionType, handler: handler, variable: variable}
}

// Handler marks the block as a handler entry binding variable.
func Handler(variable string) handlerEntry {
	return handlerEntry{variable: variable}
}

func SetInt(dst string, c int32) insn {
	return insn{func(tp *testProg) ir.Instruction {
		return &ir.IntConst{Receiver: tp.variable(dst), Value: c}
	}}
}

func SetNull(dst string) insn {
	return insn{func(tp *testProg) ir.Instruction {
		return &ir.NullConst{Receiver: tp.variable(dst)}
	}}
}

func Copy(dst, src string) insn {
	return insn{func(tp *testProg) ir.Instruction {
		return &ir.Assign{Receiver: tp.variable(dst), Assignee: tp.variable(src)}
	}}
}

func BinOp(dst string, op ir.BinaryOp, a, b string) insn {
	return insn{func(tp *testProg) ir.Instruction {
		return &ir.Binary{Receiver: tp.variable(dst), Op: op, A: tp.variable(a), B: tp.variable(b)}
	}}
}

// Call invokes a static method; dst "" discards the result.
func Call(dst string, method ir.MethodReference, args ...string) insn {
	return insn{func(tp *testProg) ir.Instruction {
		call := &ir.Invoke{Receiver: tp.variable(dst), Method: method}
		for _, a := range args {
			call.Arguments = append(call.Arguments, tp.variable(a))
		}
		return call
	}}
}

func Goto(target string) insn {
	return insn{func(tp *testProg) ir.Instruction {
		return &ir.Jump{Target: tp.block(target)}
	}}
}

func If(cond, then, els string) insn {
	return insn{func(tp *testProg) ir.Instruction {
		return &ir.Branch{Condition: tp.variable(cond), Consequent: tp.block(then), Alternative: tp.block(els)}
	}}
}

func IfCmp(op ir.BinaryOp, a, b, then, els string) insn {
	return insn{func(tp *testProg) ir.Instruction {
		return &ir.BinaryBranch{Op: op, A: tp.variable(a), B: tp.variable(b),
			Consequent: tp.block(then), Alternative: tp.block(els)}
	}}
}

// Table builds a switch; pairs alternate between int case values and
// block names.
func Table(cond, def string, pairs ...interface{}) insn {
	return insn{func(tp *testProg) ir.Instruction {
		sw := &ir.Switch{Condition: tp.variable(cond), Default: tp.block(def)}
		for i := 0; i < len(pairs); i += 2 {
			sw.Entries = append(sw.Entries, ir.SwitchEntry{
				Value:  int32(pairs[i].(int)),
				Target: tp.block(pairs[i+1].(string)),
			})
		}
		return sw
	}}
}

func Ret() insn {
	return insn{func(tp *testProg) ir.Instruction { return &ir.Exit{} }}
}

func RetVal(v string) insn {
	return insn{func(tp *testProg) ir.Instruction { return &ir.Exit{Value: tp.variable(v)} }}
}

func Throw(v string) insn {
	return insn{func(tp *testProg) ir.Instruction { return &ir.Raise{Exception: tp.variable(v)} }}
}

func (tp *testProg) method(name string) *ir.Method {
	return &ir.Method{
		Reference: ir.MethodReference{ClassName: "Test", Name: name, Descriptor: "()V"},
		Program:   tp.p,
	}
}
