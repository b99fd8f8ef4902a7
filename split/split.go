// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package split partitions a program into ordered parts at suspending
// calls.  Part 0 keeps the original entry; every later part begins with a
// fresh entry block that restores the resume state and continues after
// the suspension point.  Parts share the original variable pool, so
// dataflow across parts needs no extra plumbing here.
package split

import (
	"github.com/pkg/errors"

	"github.com/AnthonyKot/teavm/ir"
)

// SubProgram is one part of a split method.
type SubProgram struct {
	program    *ir.Program
	successors []int
}

// Program is the part's control-flow program.
func (s *SubProgram) Program() *ir.Program { return s.program }

// BlockSuccessors maps each block of the part to the part it transfers
// to, -1 when the block stays within this part.
func (s *SubProgram) BlockSuccessors() []int { return s.successors }

// Splitter finds suspension points by matching invoked methods against
// Methods.
type Splitter struct {
	Methods map[ir.MethodReference]bool
}

func NewSplitter(methods map[ir.MethodReference]bool) *Splitter {
	return &Splitter{Methods: methods}
}

type splitPoint struct {
	block int
	insn  int
	call  *ir.Invoke
}

// Split produces the ordered parts of p.  A program without suspension
// points yields a single part.
func (s *Splitter) Split(p *ir.Program) ([]*SubProgram, error) {
	if p.BlockCount() == 0 {
		return nil, errors.New("cannot split program without blocks")
	}

	var points []splitPoint
	for i := 0; i < p.BlockCount(); i++ {
		for j, insn := range p.Block(i).Instructions {
			call, ok := insn.(*ir.Invoke)
			if !ok || !s.Methods[call.Method] {
				continue
			}
			points = append(points, splitPoint{block: i, insn: j, call: call})
		}
	}

	parts := make([]*SubProgram, len(points)+1)
	for k := range parts {
		parts[k] = s.buildPart(p, points, k)
	}
	return parts, nil
}

// buildPart assembles part k.  Parts after the first prepend a new entry
// block, shifting every original block index up by one.
func (s *Splitter) buildPart(p *ir.Program, points []splitPoint, k int) *SubProgram {
	offset := 0
	if k > 0 {
		offset = 1
	}
	out := ir.NewProgram()
	for i := 0; i < p.VariableCount(); i++ {
		out.AdoptVariable(p.Variable(i))
	}

	successors := make([]int, offset+p.BlockCount())
	for i := range successors {
		successors[i] = -1
	}

	if k > 0 {
		// The entry resumes after split point k-1 and runs to the next
		// suspension in the same source block, if any.
		pt := points[k-1]
		src := p.Block(pt.block)
		entry := out.CreateBlock()
		entry.Instructions = append(entry.Instructions, &ir.RestoreState{Receiver: pt.call.Receiver})
		stop := len(src.Instructions)
		for j := k; j < len(points); j++ {
			if points[j].block == pt.block {
				stop = points[j].insn + 1
				successors[0] = j + 1
				break
			}
		}
		for _, insn := range src.Instructions[pt.insn+1 : stop] {
			entry.Instructions = append(entry.Instructions, copyInstruction(insn, offset))
		}
		entry.TryCatch = copyTryCatch(src.TryCatch, offset)
	}

	for i := 0; i < p.BlockCount(); i++ {
		src := p.Block(i)
		dst := out.CreateBlock()
		dst.ExceptionVariable = src.ExceptionVariable
		dst.TryCatch = copyTryCatch(src.TryCatch, offset)
		cut := len(src.Instructions)
		for j, pt := range points {
			if pt.block == i {
				// The copy is truncated at the block's first suspension;
				// later points in the block are only reachable through
				// their part's entry.
				cut = pt.insn + 1
				successors[offset+i] = j + 1
				break
			}
		}
		for _, insn := range src.Instructions[:cut] {
			dst.Instructions = append(dst.Instructions, copyInstruction(insn, offset))
		}
	}
	return &SubProgram{program: out, successors: successors}
}

func copyTryCatch(ranges []ir.TryCatchRange, offset int) []ir.TryCatchRange {
	out := make([]ir.TryCatchRange, len(ranges))
	for i, tc := range ranges {
		out[i] = ir.TryCatchRange{
			ExceptionType:     tc.ExceptionType,
			Handler:           tc.Handler + offset,
			ExceptionVariable: tc.ExceptionVariable,
		}
	}
	return out
}

// copyInstruction clones an instruction, shifting jump targets by offset.
// Instructions without targets are shared: they are immutable once built.
func copyInstruction(insn ir.Instruction, offset int) ir.Instruction {
	if offset == 0 {
		return insn
	}
	switch i := insn.(type) {
	case *ir.Jump:
		return &ir.Jump{Target: i.Target + offset}
	case *ir.Branch:
		return &ir.Branch{
			Condition:   i.Condition,
			Consequent:  i.Consequent + offset,
			Alternative: i.Alternative + offset,
		}
	case *ir.BinaryBranch:
		return &ir.BinaryBranch{
			Op:          i.Op,
			A:           i.A,
			B:           i.B,
			Consequent:  i.Consequent + offset,
			Alternative: i.Alternative + offset,
		}
	case *ir.Switch:
		entries := make([]ir.SwitchEntry, len(i.Entries))
		for j, e := range i.Entries {
			entries[j] = ir.SwitchEntry{Value: e.Value, Target: e.Target + offset}
		}
		return &ir.Switch{Condition: i.Condition, Entries: entries, Default: i.Default + offset}
	}
	return insn
}
