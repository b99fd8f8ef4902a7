// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decompiler

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/AnthonyKot/teavm/ast"
	"github.com/AnthonyKot/teavm/graph"
	"github.com/AnthonyKot/teavm/ir"
)

// errMalformedScope marks try-catch structure the bookmarker cannot
// close, e.g. an owner block that is not an ancestor of the current one.
var errMalformedScope = errors.New("malformed exception scope")

// block is one open lexical scope: a labelled plain block or loop under
// construction.  Blocks form a stack through parent pointers; no
// recursion on graph depth happens anywhere in the generator.
type block struct {
	parent   *block
	id       string
	start    int
	end      int
	isLoop   bool
	headNode int // original node of the loop header, -1 for plain blocks
	body     []ast.Statement
	saved    []savedEntry
}

// savedEntry remembers a block-map slot this block overwrote, restored
// when the block closes.
type savedEntry struct {
	node int
	prev *block
}

// tryCatchBookmark is an open try-catch scope: the block owning its
// protected region and the offset in that block's body where the region
// begins.  Bookmarks form a stack; the one opened first closes last.
type tryCatchBookmark struct {
	block         *block
	offset        int
	exceptionType string
	variable      int // -1 when the handler discards the exception
	handler       int // handler block index in the source program
}

type generator struct {
	program     *ir.Program
	indexer     *graph.Index
	partTargets []int // per original block, -1 keeps control in this part
	classSource ClassSource
	ranges      []blockRange

	root      *block
	current   *block
	blockMap  []*block // indexed by original node
	bookmarks []*tryCatchBookmark
	pos       int
	seq       int
	usedIDs   map[string]bool
}

func newGenerator(p *ir.Program, indexer *graph.Index, ranges []blockRange,
	partTargets []int, classSource ClassSource) *generator {
	root := &block{start: 0, end: indexer.Size() + 1, headNode: -1}
	return &generator{
		program:     p,
		indexer:     indexer,
		partTargets: partTargets,
		classSource: classSource,
		ranges:      ranges,
		root:        root,
		current:     root,
		blockMap:    make([]*block, p.BlockCount()),
		usedIDs:     map[string]bool{},
	}
}

// run drives the main loop over indexed positions, opening and closing
// lexical blocks and lowering each source block in turn.
func (g *generator) run() ([]ast.Statement, error) {
	sz := g.indexer.Size()
	ri := 0
	for i := 0; i <= sz; i++ {
		g.pos = i
		// Closing precedes opening at the same index.
		for g.current != g.root && g.current.end == i {
			if err := g.popBlock(); err != nil {
				return nil, err
			}
		}
		if i == sz {
			break
		}
		for ri < len(g.ranges) && g.ranges[ri].start == i {
			g.pushBlock(g.ranges[ri])
			ri++
		}
		node := g.indexer.NodeAt(i)
		b := g.program.Block(node)
		if err := g.updateBookmarks(b); err != nil {
			return nil, err
		}
		if err := g.lowerBlock(node, b); err != nil {
			return nil, err
		}
		if g.partTargets != nil && g.partTargets[node] >= 0 {
			g.emit(&ast.GotoPart{Part: g.partTargets[node]})
		}
	}
	for i := len(g.bookmarks) - 1; i >= 0; i-- {
		if err := g.closeBookmark(g.bookmarks[i]); err != nil {
			return nil, err
		}
	}
	g.bookmarks = g.bookmarks[:0]
	return g.root.body, nil
}

func (g *generator) emit(s ast.Statement) {
	g.current.body = append(g.current.body, s)
}

func (g *generator) makeID(start int) string {
	id := fmt.Sprintf("block%d", start)
	for g.usedIDs[id] {
		id = fmt.Sprintf("block%d", g.indexer.Size()+g.seq)
		g.seq++
	}
	g.usedIDs[id] = true
	return id
}

// pushBlock opens the lexical scope for a range.  The block registers
// itself at the range end, so a jump there becomes its break; loops also
// register at their header, so a jump there becomes their continue.  The
// header entry is installed after same-index closes, which is what makes
// the loop label win over a forward span ending at the header.
func (g *generator) pushBlock(r blockRange) {
	blk := &block{
		parent:   g.current,
		id:       g.makeID(r.start),
		start:    r.start,
		end:      r.end,
		isLoop:   r.loop,
		headNode: -1,
	}
	if r.end < g.indexer.Size() {
		node := g.indexer.NodeAt(r.end)
		blk.saved = append(blk.saved, savedEntry{node, g.blockMap[node]})
		g.blockMap[node] = blk
	}
	if r.loop {
		blk.headNode = g.indexer.NodeAt(r.start)
		blk.saved = append(blk.saved, savedEntry{blk.headNode, g.blockMap[blk.headNode]})
		g.blockMap[blk.headNode] = blk
	}
	g.current = blk
}

// popBlock closes the innermost scope: still-open bookmarks it owns wrap
// the tail of its body and migrate to the parent, block-map entries it
// installed are restored, and the finished statement lands in the parent
// body.
func (g *generator) popBlock() error {
	blk := g.current
	g.current = blk.parent
	for i := len(g.bookmarks) - 1; i >= 0; i-- {
		bm := g.bookmarks[i]
		if bm.block != blk {
			continue
		}
		if len(blk.body) > bm.offset {
			tc, err := g.wrapTryCatch(bm, blk.body[bm.offset:])
			if err != nil {
				return err
			}
			blk.body = append(blk.body[:bm.offset], tc)
		}
		bm.block = g.current
		bm.offset = len(g.current.body)
	}
	for _, s := range blk.saved {
		g.blockMap[s.node] = s.prev
	}
	if blk.isLoop {
		g.emit(&ast.While{ID: blk.id, Body: blk.body})
	} else {
		g.emit(&ast.Block{ID: blk.id, Body: blk.body})
	}
	return nil
}

func variableIndex(v *ir.Variable) int {
	if v == nil {
		return -1
	}
	return v.Index
}

// resolveException resolves a handler's class name through the class
// source.  Unresolvable names become the catch-all type.
func (g *generator) resolveException(name string) string {
	if name == "" || g.classSource == nil {
		return name
	}
	if g.classSource.Get(name) == nil {
		return ""
	}
	return name
}

// updateBookmarks reconciles the open bookmarks with the handlers active
// on the next source block.  A matching prefix stays open; the rest close
// in reverse order of opening; new handlers open at the current offset.
func (g *generator) updateBookmarks(b *ir.BasicBlock) error {
	keep := 0
	for keep < len(g.bookmarks) && keep < len(b.TryCatch) {
		bm := g.bookmarks[keep]
		tc := b.TryCatch[keep]
		if bm.handler != tc.Handler ||
			bm.exceptionType != g.resolveException(tc.ExceptionType) ||
			bm.variable != variableIndex(tc.ExceptionVariable) {
			break
		}
		keep++
	}
	for i := len(g.bookmarks) - 1; i >= keep; i-- {
		if err := g.closeBookmark(g.bookmarks[i]); err != nil {
			return err
		}
	}
	g.bookmarks = g.bookmarks[:keep]
	for _, tc := range b.TryCatch[keep:] {
		g.bookmarks = append(g.bookmarks, &tryCatchBookmark{
			block:         g.current,
			offset:        len(g.current.body),
			exceptionType: g.resolveException(tc.ExceptionType),
			variable:      variableIndex(tc.ExceptionVariable),
			handler:       tc.Handler,
		})
	}
	return nil
}

// closeBookmark ends a protected region.  Walking from the innermost open
// block up to the owner, every intervening block wraps its body except
// the trailing terminator jump; the owner wraps from the bookmark offset.
// Empty protected bodies collapse to nothing.
func (g *generator) closeBookmark(bm *tryCatchBookmark) error {
	for b := g.current; b != bm.block; b = b.parent {
		if b == nil {
			return errors.Wrap(errMalformedScope, "owner of protected region is not an ancestor")
		}
		if len(b.body) > 1 {
			tc, err := g.wrapTryCatch(bm, b.body[:len(b.body)-1])
			if err != nil {
				return err
			}
			b.body = append([]ast.Statement{tc}, b.body[len(b.body)-1])
		}
	}
	owner := bm.block
	if len(owner.body) > bm.offset {
		tc, err := g.wrapTryCatch(bm, owner.body[bm.offset:])
		if err != nil {
			return err
		}
		owner.body = append(owner.body[:bm.offset], tc)
	}
	return nil
}

func (g *generator) wrapTryCatch(bm *tryCatchBookmark, protected []ast.Statement) (*ast.TryCatch, error) {
	handler, err := g.jumpStatementAt(bm.handler, g.pos)
	if err != nil {
		return nil, errors.Wrap(errMalformedScope, err.Error())
	}
	body := make([]ast.Statement, len(protected))
	copy(body, protected)
	return &ast.TryCatch{
		Protected:         body,
		ExceptionType:     bm.exceptionType,
		ExceptionVariable: bm.variable,
		Handler:           handler,
	}, nil
}

// jumpStatementAt resolves a jump to a source block when the next emitted
// position is next.  A target with no enclosing lexical block is a plain
// fall-through when adjacent and an error otherwise.
func (g *generator) jumpStatementAt(target, next int) (ast.Statement, error) {
	blk := g.blockMap[target]
	if blk == nil {
		if g.indexer.IndexOf(target) == next {
			return nil, nil
		}
		return nil, errors.Errorf("jump target $%d has no enclosing block", target)
	}
	if blk.isLoop && blk.headNode == target {
		return &ast.Continue{Label: blk.id}, nil
	}
	return &ast.Break{Label: blk.id}, nil
}

// lowerBlock translates one source block.  A handler entry first binds
// its exception variable; a block whose last instruction is a terminator
// ends with the lowered terminator, otherwise control passes to another
// part and the caller appends the transfer.
func (g *generator) lowerBlock(node int, b *ir.BasicBlock) error {
	if b.ExceptionVariable != nil {
		g.emit(&ast.Assign{Variable: b.ExceptionVariable.Index, Value: &ast.CaughtException{}})
	}
	n := len(b.Instructions)
	for j, insn := range b.Instructions {
		if j == n-1 && ir.IsTerminator(insn) {
			return g.lowerTerminator(insn)
		}
		if err := g.lowerInstruction(insn); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) lowerInstruction(insn ir.Instruction) error {
	assign := func(v *ir.Variable, e ast.Expr) {
		g.emit(&ast.Assign{Variable: v.Index, Value: e})
	}
	switch i := insn.(type) {
	case *ir.IntConst:
		assign(i.Receiver, &ast.IntConst{Value: i.Value})
	case *ir.LongConst:
		assign(i.Receiver, &ast.LongConst{Value: i.Value})
	case *ir.FloatConst:
		assign(i.Receiver, &ast.FloatConst{Value: i.Value})
	case *ir.DoubleConst:
		assign(i.Receiver, &ast.DoubleConst{Value: i.Value})
	case *ir.NullConst:
		assign(i.Receiver, &ast.NullConst{})
	case *ir.Assign:
		assign(i.Receiver, &ast.Var{Index: i.Assignee.Index})
	case *ir.Binary:
		assign(i.Receiver, &ast.Binary{
			Op: i.Op,
			A:  &ast.Var{Index: i.A.Index},
			B:  &ast.Var{Index: i.B.Index},
		})
	case *ir.Negate:
		assign(i.Receiver, &ast.Unary{Op: ast.OpNeg, Operand: &ast.Var{Index: i.Operand.Index}})
	case *ir.Invoke:
		call := &ast.Invocation{Method: i.Method}
		if i.Instance != nil {
			call.Instance = &ast.Var{Index: i.Instance.Index}
		}
		for _, a := range i.Arguments {
			call.Arguments = append(call.Arguments, &ast.Var{Index: a.Index})
		}
		if i.Receiver != nil {
			assign(i.Receiver, call)
		} else {
			g.emit(&ast.ExprStatement{Expr: call})
		}
	case *ir.Construct:
		assign(i.Receiver, &ast.New{Type: i.Type})
	case *ir.RestoreState:
		if i.Receiver != nil {
			assign(i.Receiver, &ast.RestoreState{})
		} else {
			g.emit(&ast.ExprStatement{Expr: &ast.RestoreState{}})
		}
	default:
		return errors.Errorf("cannot lower %T", insn)
	}
	return nil
}

func (g *generator) lowerTerminator(insn ir.Instruction) error {
	switch t := insn.(type) {
	case *ir.Jump:
		s, err := g.jumpStatementAt(t.Target, g.pos+1)
		if err != nil {
			return err
		}
		if s != nil {
			g.emit(s)
		}
	case *ir.Branch:
		return g.lowerBranch(&ast.Var{Index: t.Condition.Index}, t.Consequent, t.Alternative)
	case *ir.BinaryBranch:
		cond := &ast.Binary{
			Op: t.Op,
			A:  &ast.Var{Index: t.A.Index},
			B:  &ast.Var{Index: t.B.Index},
		}
		return g.lowerBranch(cond, t.Consequent, t.Alternative)
	case *ir.Switch:
		stmt := &ast.Switch{Value: &ast.Var{Index: t.Condition.Index}}
		for _, e := range t.Entries {
			s, err := g.jumpStatementAt(e.Target, g.pos+1)
			if err != nil {
				return err
			}
			clause := ast.SwitchClause{Value: e.Value}
			if s != nil {
				clause.Body = []ast.Statement{s}
			}
			stmt.Clauses = append(stmt.Clauses, clause)
		}
		s, err := g.jumpStatementAt(t.Default, g.pos+1)
		if err != nil {
			return err
		}
		if s != nil {
			stmt.Default = []ast.Statement{s}
		}
		g.emit(stmt)
	case *ir.Exit:
		ret := &ast.Return{}
		if t.Value != nil {
			ret.Value = &ast.Var{Index: t.Value.Index}
		}
		g.emit(ret)
	case *ir.Raise:
		g.emit(&ast.Throw{Exception: &ast.Var{Index: t.Exception.Index}})
	default:
		return errors.Errorf("cannot lower terminator %T", insn)
	}
	return nil
}

// lowerBranch emits a conditional.  When the consequent falls through,
// the arms swap and the condition inverts instead of leaving an empty
// branch.
func (g *generator) lowerBranch(cond ast.Expr, consequent, alternative int) error {
	cs, err := g.jumpStatementAt(consequent, g.pos+1)
	if err != nil {
		return err
	}
	as, err := g.jumpStatementAt(alternative, g.pos+1)
	if err != nil {
		return err
	}
	if cs == nil && as == nil {
		return nil
	}
	if cs == nil {
		cond = ast.Not(cond)
		cs, as = as, nil
	}
	stmt := &ast.If{Condition: cond, Consequent: []ast.Statement{cs}}
	if as != nil {
		stmt.Alternative = []ast.Statement{as}
	}
	g.emit(stmt)
	return nil
}
