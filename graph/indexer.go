// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrIrreducible reports a control-flow graph whose cycles cannot be
// expressed as natural loops.  The indexer refuses rather than emitting a
// wrong order; callers must duplicate blocks or insert dispatchers.
var ErrIrreducible = errors.New("irreducible control flow graph")

// Index is a bijection between original node indices and a linearisation
// 0..n-1 where every forward edge goes forwards and back-edges target
// loop headers.  Unreachable nodes are dropped from the linearisation.
type Index struct {
	forward []int // original node -> position, -1 if unreachable
	inverse []int // position -> original node
	indexed Graph
}

// IndexGraph linearises g starting from node 0.  Among a node's
// successors, the child with higher (priority, weight) is visited first
// so it lands later in the final order, shortening forward-jump spans.
// Either slice may be nil.
func IndexGraph(g Graph, weight, priority []int) (*Index, error) {
	sz := g.Size()
	if sz == 0 {
		return &Index{indexed: (&Builder{}).Build()}, nil
	}
	rank := func(n int) (int, int) {
		p, w := 0, 0
		if priority != nil {
			p = priority[n]
		}
		if weight != nil {
			w = weight[n]
		}
		return p, w
	}

	// Iterative DFS computing a postorder.
	visited := make([]bool, sz)
	post := make([]int, 0, sz)
	type frame struct {
		node  int
		succs []int
		next  int
	}
	orderedSuccs := func(n int) []int {
		succs := append([]int(nil), g.OutgoingEdges(n)...)
		sort.SliceStable(succs, func(i, j int) bool {
			pi, wi := rank(succs[i])
			pj, wj := rank(succs[j])
			if pi != pj {
				return pi > pj
			}
			return wi > wj
		})
		return succs
	}
	stack := []frame{{node: 0, succs: orderedSuccs(0)}}
	visited[0] = true
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.next < len(f.succs) {
			s := f.succs[f.next]
			f.next++
			if !visited[s] {
				visited[s] = true
				stack = append(stack, frame{node: s, succs: orderedSuccs(s)})
			}
			continue
		}
		post = append(post, f.node)
		stack = stack[:len(stack)-1]
	}

	// Reverse postorder positions.
	forward := make([]int, sz)
	for i := range forward {
		forward[i] = -1
	}
	inverse := make([]int, len(post))
	for i, n := range post {
		pos := len(post) - 1 - i
		forward[n] = pos
		inverse[pos] = n
	}

	// Reindexed graph over positions.
	var b Builder
	b.SetSize(len(post))
	for pos, n := range inverse {
		for _, s := range g.OutgoingEdges(n) {
			if forward[s] >= 0 {
				b.AddEdge(pos, forward[s])
			}
		}
	}
	indexed := b.Build()

	// Reducibility: every retreating edge must target a dominator of its
	// source.
	idom := immediateDominators(indexed)
	for u := 0; u < indexed.Size(); u++ {
		for _, v := range indexed.OutgoingEdges(u) {
			if v <= u && !dominates(idom, v, u) {
				return nil, ErrIrreducible
			}
		}
	}

	return &Index{forward: forward, inverse: inverse, indexed: indexed}, nil
}

// Size is the number of reachable nodes.
func (x *Index) Size() int { return len(x.inverse) }

// IndexOf maps an original node to its position, -1 if unreachable.
func (x *Index) IndexOf(node int) int { return x.forward[node] }

// NodeAt maps a position back to the original node.
func (x *Index) NodeAt(pos int) int { return x.inverse[pos] }

// Graph returns the reindexed graph whose node ids are positions.
func (x *Index) Graph() Graph { return x.indexed }

// immediateDominators computes idoms over a graph whose node numbering is
// already a reverse postorder (the entry is 0 and every node has a
// numerically smaller predecessor).
func immediateDominators(g Graph) []int {
	sz := g.Size()
	idom := make([]int, sz)
	for i := range idom {
		idom[i] = -1
	}
	if sz == 0 {
		return idom
	}
	idom[0] = 0
	intersect := func(a, b int) int {
		for a != b {
			for a > b {
				a = idom[a]
			}
			for b > a {
				b = idom[b]
			}
		}
		return a
	}
	for changed := true; changed; {
		changed = false
		for v := 1; v < sz; v++ {
			newIdom := -1
			for _, u := range g.IncomingEdges(v) {
				if idom[u] < 0 {
					continue
				}
				if newIdom < 0 {
					newIdom = u
				} else {
					newIdom = intersect(newIdom, u)
				}
			}
			if newIdom >= 0 && idom[v] != newIdom {
				idom[v] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func dominates(idom []int, v, u int) bool {
	for u > v {
		u = idom[u]
		if u < 0 {
			return false
		}
	}
	return u == v
}
