// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decompiler

import (
	"testing"

	"github.com/AnthonyKot/teavm/ast"
	"github.com/AnthonyKot/teavm/ir"
)

func decompileBody(t *testing.T, tp *testProg) []ast.Statement {
	t.Helper()
	var d Decompiler
	node, err := d.Decompile(tp.method("m"))
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}
	body := node.(*RegularMethodNode).Body.(*ast.Sequential)
	return body.Sequence
}

func TestStraightLineRoundTrip(t *testing.T) {
	tp := Prog(
		Bloc("one",
			SetInt("a", 1),
			SetInt("b", 2),
			BinOp("sum", ir.OpAdd, "a", "b"),
			RetVal("sum")))
	stmts := decompileBody(t, tp)
	// One statement per instruction, no Block or While wrappers.
	if got, want := fmtStmts(stmts), "@0 := 1;@1 := 2;@2 := (@0 add @1);return @2"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(stmts) != 4 {
		t.Errorf("got %d statements, want 4", len(stmts))
	}
}

func TestSimpleLoop(t *testing.T) {
	tp := Prog(
		Bloc("entry",
			SetInt("i", 0),
			SetInt("step", 1),
			SetInt("n", 10),
			Goto("loop")),
		Bloc("loop",
			BinOp("i", ir.OpAdd, "i", "step"),
			IfCmp(ir.OpLess, "i", "n", "loop", "exit")),
		Bloc("exit", Ret()))
	got := fmtStmts(decompileBody(t, tp))
	want := "@0 := 0;@1 := 1;@2 := 10;" +
		"block1:while{@0 := (@0 add @1);if (@0 lt @2) {continue block1} else {break block1}};" +
		"return"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNestedLoopWithBreak(t *testing.T) {
	tp := Prog(
		Bloc("entry", SetInt("c1", 1), SetInt("c2", 1), Goto("outer")),
		Bloc("outer", If("c1", "inner", "exit")),
		Bloc("inner", Goto("latch")),
		Bloc("latch", If("c2", "inner", "step")),
		Bloc("step", Goto("outer")),
		Bloc("exit", SetInt("r", 0), Ret()))
	got := fmtStmts(decompileBody(t, tp))
	// The step -> outer edge continues the outer loop; latch -> inner
	// continues the inner one.
	want := "@0 := 1;@1 := 1;" +
		"block1:while{" +
		"if (not @0) {break block1};" +
		"block2:while{if @1 {continue block2} else {break block2}};" +
		"continue block1};" +
		"@2 := 0;return"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTryCatch(t *testing.T) {
	foo := ir.MethodReference{ClassName: "Lib", Name: "foo", Descriptor: "()V"}
	tp := Prog(
		Bloc("entry", Goto("guarded")),
		Bloc("guarded",
			Call("", foo),
			Goto("after"),
			Catch("E", "handler", "e")),
		Bloc("handler", Handler("e"), Ret()),
		Bloc("after", Ret()))
	got := fmtStmts(decompileBody(t, tp))
	want := "block1:{" +
		"try{call Lib.foo()V();break block1}catch(E @0){};" +
		"@0 := $exception;return};" +
		"return"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSelfLoop(t *testing.T) {
	tp := Prog(
		Bloc("spin", If("c", "spin", "exit")),
		Bloc("exit", Ret()))
	got := fmtStmts(decompileBody(t, tp))
	want := "block0:while{if @0 {continue block0} else {break block0}};return"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSwitch(t *testing.T) {
	tp := Prog(
		Bloc("entry",
			SetInt("x", 5),
			Table("x", "dflt", 0, "a", 1, "b")),
		Bloc("a", Ret()),
		Bloc("b", Ret()),
		Bloc("dflt", Ret()))
	got := fmtStmts(decompileBody(t, tp))
	want := "block0:{block4:{@0 := 5;" +
		"switch @0{case 0:{break block0}case 1:{break block4}default:{}};" +
		"return};return};return"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// checkJumpLabels verifies that every break and continue names a label of
// an enclosing block or loop.
func checkJumpLabels(t *testing.T, stmts []ast.Statement, open map[string]bool) {
	t.Helper()
	for _, s := range stmts {
		switch x := s.(type) {
		case *ast.Break:
			if !open[x.Label] {
				t.Errorf("break %s has no enclosing block", x.Label)
			}
		case *ast.Continue:
			if !open[x.Label] {
				t.Errorf("continue %s has no enclosing loop", x.Label)
			}
		case *ast.Sequential:
			checkJumpLabels(t, x.Sequence, open)
		case *ast.Block:
			open[x.ID] = true
			checkJumpLabels(t, x.Body, open)
			delete(open, x.ID)
		case *ast.While:
			open[x.ID] = true
			checkJumpLabels(t, x.Body, open)
			delete(open, x.ID)
		case *ast.TryCatch:
			checkJumpLabels(t, x.Protected, open)
			if x.Handler != nil {
				checkJumpLabels(t, []ast.Statement{x.Handler}, open)
			}
		case *ast.Switch:
			for _, c := range x.Clauses {
				checkJumpLabels(t, c.Body, open)
			}
			checkJumpLabels(t, x.Default, open)
		case *ast.If:
			checkJumpLabels(t, x.Consequent, open)
			checkJumpLabels(t, x.Alternative, open)
		}
	}
}

// TestJumpTargetsAlwaysEnclosing runs the structural invariant over every
// reducible program in this file's scenarios.
func TestJumpTargetsAlwaysEnclosing(t *testing.T) {
	progs := []*testProg{
		Prog(
			Bloc("one", SetInt("a", 1), RetVal("a"))),
		Prog(
			Bloc("entry", SetInt("i", 0), Goto("loop")),
			Bloc("loop", BinOp("i", ir.OpAdd, "i", "i"), IfCmp(ir.OpLess, "i", "i", "loop", "exit")),
			Bloc("exit", Ret())),
		Prog(
			Bloc("entry", SetInt("c1", 1), SetInt("c2", 1), Goto("outer")),
			Bloc("outer", If("c1", "inner", "exit")),
			Bloc("inner", Goto("latch")),
			Bloc("latch", If("c2", "inner", "step")),
			Bloc("step", Goto("outer")),
			Bloc("exit", Ret())),
		Prog(
			Bloc("entry", SetInt("x", 0), Table("x", "dflt", 0, "a", 1, "b")),
			Bloc("a", Ret()),
			Bloc("b", Goto("a")),
			Bloc("dflt", Ret())),
		Prog(
			Bloc("spin", If("c", "spin", "exit")),
			Bloc("exit", Ret())),
	}
	for _, tp := range progs {
		checkJumpLabels(t, decompileBody(t, tp), map[string]bool{})
	}
}

// TestCatchAllResolution: with a class source installed, unresolved
// handler types degrade to catch-all.
func TestCatchAllResolution(t *testing.T) {
	foo := ir.MethodReference{ClassName: "Lib", Name: "foo", Descriptor: "()V"}
	tp := Prog(
		Bloc("entry", Goto("guarded")),
		Bloc("guarded", Call("", foo), Goto("after"), Catch("Unknown", "handler", "e")),
		Bloc("handler", Handler("e"), Ret()),
		Bloc("after", Ret()))
	d := Decompiler{ClassSource: classMap{"E": {Name: "E"}}}
	node, err := d.Decompile(tp.method("m"))
	if err != nil {
		t.Fatalf("decompile: %v", err)
	}
	got := fmtStmts(node.(*RegularMethodNode).Body.(*ast.Sequential).Sequence)
	want := "block1:{" +
		"try{call Lib.foo()V();break block1}catch(* @0){};" +
		"@0 := $exception;return};" +
		"return"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

type classMap map[string]*ClassDescriptor

func (m classMap) Get(name string) *ClassDescriptor { return m[name] }
