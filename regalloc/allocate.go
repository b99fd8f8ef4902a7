// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regalloc

import (
	"golang.org/x/tools/container/intsets"

	"github.com/AnthonyKot/teavm/ir"
	"github.com/AnthonyKot/teavm/typeinf"
)

// kindClass partitions value kinds into register files: integer-like,
// floating, wide (two-slot) and reference.  Only variables of the same
// class can interfere.
func kindClass(k typeinf.Kind) int {
	switch k {
	case typeinf.Float:
		return 1
	case typeinf.Long, typeinf.Double:
		return 2
	case typeinf.Ref:
		return 3
	}
	return 0
}

// Allocate colours every variable of p with a physical register index so
// that no two simultaneously-live variables of the same kind class share
// a colour.  kinds may be nil, which puts everything in one class.
// The returned slice is indexed by variable number.
func Allocate(p *ir.Program, kinds []typeinf.Kind) []int {
	live := Analyze(p)
	n := p.VariableCount()
	class := func(v int) int {
		if kinds == nil {
			return 0
		}
		return kindClass(kinds[v])
	}

	// Build the interference graph with a backward live-set walk per
	// block, adding edges between each definition and everything live
	// across it.
	adjacent := make([]intsets.Sparse, n)
	interfere := func(a, b int) {
		if a != b && class(a) == class(b) {
			adjacent[a].Insert(b)
			adjacent[b].Insert(a)
		}
	}
	var s intsets.Sparse
	var handlerLive []*intsets.Sparse
	for i := 0; i < p.BlockCount(); i++ {
		b := p.Block(i)

		handlerLive = handlerLive[:0]
		for _, tc := range b.TryCatch {
			handlerLive = append(handlerLive, live.BlockIn(tc.Handler))
		}

		s.Copy(live.BlockOut(i))
		for j := len(b.Instructions) - 1; j >= 0; j-- {
			insn := b.Instructions[j]
			if ir.MayThrow(insn) {
				// The handler's entry state is live at every point the
				// block can throw from.
				for _, h := range handlerLive {
					s.UnionWith(h)
				}
			}
			if d := ir.Def(insn); d != nil {
				s.Remove(d.Index)
				for _, x := range s.AppendTo(nil) {
					interfere(d.Index, x)
				}
			}
			for _, u := range ir.Uses(insn) {
				s.Insert(u.Index)
			}
		}
		if v := b.ExceptionVariable; v != nil {
			s.Remove(v.Index)
			for _, x := range s.AppendTo(nil) {
				interfere(v.Index, x)
			}
		}
	}

	return colour(adjacent)
}

// colour assigns register indices by greedy colouring over a
// simplification order: repeatedly remove the node with fewest remaining
// neighbours, then colour in reverse removal order with the smallest
// index unused among coloured neighbours.
func colour(adjacent []intsets.Sparse) []int {
	n := len(adjacent)
	degree := make([]int, n)
	for v := range adjacent {
		degree[v] = adjacent[v].Len()
	}
	removed := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		best := -1
		for v := 0; v < n; v++ {
			if removed[v] {
				continue
			}
			// Ties go to the higher index, so earlier-created variables
			// are coloured first and keep the low registers.
			if best < 0 || degree[v] < degree[best] || degree[v] == degree[best] && v > best {
				best = v
			}
		}
		removed[best] = true
		order = append(order, best)
		for _, w := range adjacent[best].AppendTo(nil) {
			if !removed[w] {
				degree[w]--
			}
		}
	}

	colours := make([]int, n)
	for i := range colours {
		colours[i] = -1
	}
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		var used intsets.Sparse
		for _, w := range adjacent[v].AppendTo(nil) {
			if colours[w] >= 0 {
				used.Insert(colours[w])
			}
		}
		c := 0
		for used.Has(c) {
			c++
		}
		colours[v] = c
	}
	return colours
}
