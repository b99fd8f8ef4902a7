// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package graph provides the control-flow-graph analyses behind the
// decompiler: graph construction from a program, the linearising indexer
// and natural-loop identification.
package graph

import "github.com/AnthonyKot/teavm/ir"

// Graph is a directed graph over dense integer nodes.
type Graph interface {
	Size() int
	OutgoingEdges(node int) []int
	IncomingEdges(node int) []int
}

type graph struct {
	out [][]int
	in  [][]int
}

func (g *graph) Size() int                  { return len(g.out) }
func (g *graph) OutgoingEdges(node int) []int { return g.out[node] }
func (g *graph) IncomingEdges(node int) []int { return g.in[node] }

// Builder accumulates edges and produces an immutable Graph.  Duplicate
// edges collapse.
type Builder struct {
	out  [][]int
	size int
}

// AddEdge records from -> to, growing the node range as needed.
func (b *Builder) AddEdge(from, to int) {
	n := from
	if to > n {
		n = to
	}
	if n+1 > b.size {
		b.size = n + 1
	}
	for len(b.out) <= from {
		b.out = append(b.out, nil)
	}
	for _, t := range b.out[from] {
		if t == to {
			return
		}
	}
	b.out[from] = append(b.out[from], to)
}

// SetSize ensures the graph spans at least n nodes even if trailing nodes
// have no edges.
func (b *Builder) SetSize(n int) {
	if n > b.size {
		b.size = n
	}
}

func (b *Builder) Build() Graph {
	g := &graph{
		out: make([][]int, b.size),
		in:  make([][]int, b.size),
	}
	for from, ts := range b.out {
		g.out[from] = ts
		for _, to := range ts {
			g.in[to] = append(g.in[to], from)
		}
	}
	return g
}

// ProgramGraph derives the control-flow graph of a program: terminator
// targets plus an edge to every reachable handler.
func ProgramGraph(p *ir.Program) Graph {
	var b Builder
	b.SetSize(p.BlockCount())
	for i := 0; i < p.BlockCount(); i++ {
		blk := p.Block(i)
		if n := len(blk.Instructions); n > 0 {
			for _, t := range ir.Targets(blk.Instructions[n-1]) {
				b.AddEdge(i, t)
			}
		}
		for _, tc := range blk.TryCatch {
			b.AddEdge(i, tc.Handler)
		}
	}
	return b.Build()
}
