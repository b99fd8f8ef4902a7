// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regalloc colours the variables of a program with physical
// register indices.  Liveness runs backwards over the control-flow graph
// including exception edges; interference is restricted to variables of
// the same kind class.
package regalloc

import (
	"golang.org/x/tools/container/intsets"

	"github.com/AnthonyKot/teavm/ir"
)

// Liveness holds per-block live-variable sets.
type Liveness struct {
	in  []intsets.Sparse
	out []intsets.Sparse
}

// BlockIn is the set of variables live on entry to block b.  Callers must
// not mutate it.
func (l *Liveness) BlockIn(b int) *intsets.Sparse { return &l.in[b] }

// BlockOut is the set of variables live on exit from block b.
func (l *Liveness) BlockOut(b int) *intsets.Sparse { return &l.out[b] }

// Analyze computes live-in and live-out per block by backwards dataflow.
// An instruction that may throw conservatively keeps the handler's
// live-in alive across it, so handler entries count as successors.
func Analyze(p *ir.Program) *Liveness {
	n := p.BlockCount()
	l := &Liveness{in: make([]intsets.Sparse, n), out: make([]intsets.Sparse, n)}

	succs := make([][]int, n)
	for i := 0; i < n; i++ {
		b := p.Block(i)
		if cnt := len(b.Instructions); cnt > 0 {
			succs[i] = append(succs[i], ir.Targets(b.Instructions[cnt-1])...)
		}
		for _, tc := range b.TryCatch {
			succs[i] = append(succs[i], tc.Handler)
		}
	}

	var tmp intsets.Sparse
	for changed := true; changed; {
		changed = false
		// Liveness flows backwards; visiting blocks in reverse order
		// stabilises quickly for forward-laid-out programs.
		for i := n - 1; i >= 0; i-- {
			b := p.Block(i)
			out := &l.out[i]
			for _, s := range succs[i] {
				out.UnionWith(&l.in[s])
			}
			tmp.Copy(out)
			transferBlock(b, &tmp, l)
			if !tmp.Equals(&l.in[i]) {
				l.in[i].Copy(&tmp)
				changed = true
			}
		}
	}
	return l
}

// transferBlock rewinds live from the end of b to its start.  Before an
// instruction that may throw, the live-in sets of b's handlers join live.
func transferBlock(b *ir.BasicBlock, live *intsets.Sparse, l *Liveness) {
	for i := len(b.Instructions) - 1; i >= 0; i-- {
		insn := b.Instructions[i]
		if d := ir.Def(insn); d != nil {
			live.Remove(d.Index)
		}
		for _, u := range ir.Uses(insn) {
			live.Insert(u.Index)
		}
		if ir.MayThrow(insn) {
			for _, tc := range b.TryCatch {
				live.UnionWith(l.BlockIn(tc.Handler))
			}
		}
	}
	if b.ExceptionVariable != nil {
		live.Remove(b.ExceptionVariable.Index)
	}
}
