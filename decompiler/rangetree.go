// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decompiler

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/AnthonyKot/teavm/graph"
)

// blockRange is one candidate lexical scope over indexed positions:
// either a loop (header to loop successor, or a self-loop) or the span of
// a forward jump.  Ranges nest; each seeds one lexical block.
type blockRange struct {
	start, end int
	loop       bool
}

// buildRanges computes the range set of an indexed graph per the two
// sources: natural loops and forward-jump spans not already adjacent.
// The result is sorted by start ascending, end descending, so pushing
// ranges in order opens outer scopes first.
func buildRanges(g graph.Graph, loops *graph.LoopForest) ([]blockRange, error) {
	var ranges []blockRange
	for _, l := range loops.Loops() {
		ranges = append(ranges, blockRange{start: l.Head, end: l.Successor(), loop: true})
	}
	sz := g.Size()
	for v := 0; v < sz; v++ {
		predStart := -1
		for _, u := range g.IncomingEdges(v) {
			if predStart < 0 || u < predStart {
				predStart = u
			}
		}
		if predStart >= 0 && predStart < v-1 {
			ranges = append(ranges, blockRange{start: predStart, end: v})
		}
	}

	normalizeRanges(ranges)
	ranges = dedupRanges(ranges)
	if err := validateRanges(ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

func sortRanges(ranges []blockRange) {
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].start != ranges[j].start {
			return ranges[i].start < ranges[j].start
		}
		if ranges[i].end != ranges[j].end {
			return ranges[i].end > ranges[j].end
		}
		// A loop and a plain span over the same interval collapse into
		// the loop.
		return ranges[i].loop && !ranges[j].loop
	})
}

// normalizeRanges widens jump spans that cross a loop or another span
// until all ranges nest.  A jump from inside a scope to beyond its end
// can only be expressed by breaking out of a block that encloses the
// whole scope, so the crossing range's start moves up to the scope start.
func normalizeRanges(ranges []blockRange) {
	for again := true; again; {
		again = false
		sortRanges(ranges)
		var stack []blockRange
		for i := range ranges {
			r := &ranges[i]
			for len(stack) > 0 && stack[len(stack)-1].end <= r.start {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 && r.end > stack[len(stack)-1].end {
				r.start = stack[len(stack)-1].start
				again = true
				break
			}
			stack = append(stack, *r)
		}
	}
}

func dedupRanges(ranges []blockRange) []blockRange {
	sortRanges(ranges)
	out := ranges[:0]
	for _, r := range ranges {
		if n := len(out); n > 0 && out[n-1].start == r.start && out[n-1].end == r.end {
			out[n-1].loop = out[n-1].loop || r.loop
			continue
		}
		out = append(out, r)
	}
	return out
}

// validateRanges checks the nesting invariant: siblings do not overlap
// and children lie strictly inside their parent.
func validateRanges(ranges []blockRange) error {
	var stack []blockRange
	for _, r := range ranges {
		if r.start >= r.end {
			return errors.Errorf("empty lexical range %d..%d", r.start, r.end)
		}
		for len(stack) > 0 && stack[len(stack)-1].end <= r.start {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 && r.end > stack[len(stack)-1].end {
			return errors.Errorf("lexical ranges cross: %d..%d and %d..%d",
				stack[len(stack)-1].start, stack[len(stack)-1].end, r.start, r.end)
		}
		stack = append(stack, r)
	}
	return nil
}
