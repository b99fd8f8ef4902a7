// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"sort"

	"github.com/willf/bitset"
)

// Loop is a natural loop over an indexed graph.  Head is the loop header
// position; Parent the innermost enclosing loop.
type Loop struct {
	Head   int
	Parent *Loop
	blocks *bitset.BitSet
}

// Blocks is the loop's member set.  Callers must not mutate it.
func (l *Loop) Blocks() *bitset.BitSet { return l.blocks }

// Contains reports whether position n belongs to the loop.
func (l *Loop) Contains(n int) bool { return l.blocks.Test(uint(n)) }

// Successor is the smallest position strictly greater than every member.
func (l *Loop) Successor() int {
	succ := l.Head
	for i, ok := l.blocks.NextSet(0); ok; i, ok = l.blocks.NextSet(i + 1) {
		succ = int(i) + 1
	}
	return succ
}

// LoopForest maps each position of an indexed graph to its innermost
// natural loop.
type LoopForest struct {
	loops     []*Loop
	innermost []*Loop
}

// FindLoops identifies natural loops over an indexed graph: for each
// back-edge u -> h with h <= u, the body is every node that reaches u
// without crossing h.  Loops with the same header merge.
func FindLoops(g Graph) *LoopForest {
	sz := g.Size()
	byHead := map[int]*Loop{}
	for u := 0; u < sz; u++ {
		for _, h := range g.OutgoingEdges(u) {
			if h > u {
				continue
			}
			l := byHead[h]
			if l == nil {
				l = &Loop{Head: h, blocks: bitset.New(uint(sz))}
				l.blocks.Set(uint(h))
				byHead[h] = l
			}
			collectBody(g, l, u)
		}
	}

	f := &LoopForest{innermost: make([]*Loop, sz)}
	for _, l := range byHead {
		f.loops = append(f.loops, l)
	}
	// Smaller loops nest inside bigger ones; resolving innermost and
	// parents in size order makes both a single scan.
	sort.Slice(f.loops, func(i, j int) bool {
		ci, cj := f.loops[i].blocks.Count(), f.loops[j].blocks.Count()
		if ci != cj {
			return ci < cj
		}
		return f.loops[i].Head < f.loops[j].Head
	})
	for _, l := range f.loops {
		for i, ok := l.blocks.NextSet(0); ok; i, ok = l.blocks.NextSet(i + 1) {
			if f.innermost[i] == nil {
				f.innermost[i] = l
			}
		}
	}
	for _, l := range f.loops {
		for _, outer := range f.loops {
			if outer != l && outer.Contains(l.Head) && outer.blocks.Count() > l.blocks.Count() {
				l.Parent = outer
				break
			}
		}
	}
	return f
}

// collectBody grows l with every node that reaches tail backwards without
// crossing the header.
func collectBody(g Graph, l *Loop, tail int) {
	if l.blocks.Test(uint(tail)) {
		return
	}
	stack := []int{tail}
	l.blocks.Set(uint(tail))
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.IncomingEdges(n) {
			if !l.blocks.Test(uint(p)) {
				l.blocks.Set(uint(p))
				stack = append(stack, p)
			}
		}
	}
}

// LoopAt returns the innermost loop containing position n, or nil.
func (f *LoopForest) LoopAt(n int) *Loop {
	if n < 0 || n >= len(f.innermost) {
		return nil
	}
	return f.innermost[n]
}

// Loops lists every loop, innermost first.
func (f *LoopForest) Loops() []*Loop { return f.loops }
