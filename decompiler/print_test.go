// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decompiler

import (
	"fmt"
	"strings"

	"github.com/AnthonyKot/teavm/ast"
)

// fmtStmts renders a statement list in a compact single-line form used by
// the tests in this package.
func fmtStmts(stmts []ast.Statement) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = fmtStmt(s)
	}
	return strings.Join(parts, ";")
}

func fmtStmt(s ast.Statement) string {
	switch t := s.(type) {
	case *ast.Sequential:
		return fmtStmts(t.Sequence)
	case *ast.Block:
		return fmt.Sprintf("%s:{%s}", t.ID, fmtStmts(t.Body))
	case *ast.While:
		if t.Condition != nil {
			return fmt.Sprintf("%s:while(%s){%s}", t.ID, fmtExpr(t.Condition), fmtStmts(t.Body))
		}
		return fmt.Sprintf("%s:while{%s}", t.ID, fmtStmts(t.Body))
	case *ast.TryCatch:
		typ := t.ExceptionType
		if typ == "" {
			typ = "*"
		}
		handler := ""
		if t.Handler != nil {
			handler = fmtStmt(t.Handler)
		}
		return fmt.Sprintf("try{%s}catch(%s @%d){%s}", fmtStmts(t.Protected), typ, t.ExceptionVariable, handler)
	case *ast.GotoPart:
		return fmt.Sprintf("goto part %d", t.Part)
	case *ast.Break:
		return "break " + t.Label
	case *ast.Continue:
		return "continue " + t.Label
	case *ast.Return:
		if t.Value != nil {
			return "return " + fmtExpr(t.Value)
		}
		return "return"
	case *ast.Throw:
		return "throw " + fmtExpr(t.Exception)
	case *ast.Assign:
		return fmt.Sprintf("@%d := %s", t.Variable, fmtExpr(t.Value))
	case *ast.ExprStatement:
		return fmtExpr(t.Expr)
	case *ast.Switch:
		var sb strings.Builder
		fmt.Fprintf(&sb, "switch %s{", fmtExpr(t.Value))
		for _, c := range t.Clauses {
			fmt.Fprintf(&sb, "case %d:{%s}", c.Value, fmtStmts(c.Body))
		}
		fmt.Fprintf(&sb, "default:{%s}}", fmtStmts(t.Default))
		return sb.String()
	case *ast.If:
		if len(t.Alternative) > 0 {
			return fmt.Sprintf("if %s {%s} else {%s}", fmtExpr(t.Condition), fmtStmts(t.Consequent), fmtStmts(t.Alternative))
		}
		return fmt.Sprintf("if %s {%s}", fmtExpr(t.Condition), fmtStmts(t.Consequent))
	}
	return fmt.Sprintf("?%T", s)
}

func fmtExpr(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Var:
		return fmt.Sprintf("@%d", t.Index)
	case *ast.IntConst:
		return fmt.Sprintf("%d", t.Value)
	case *ast.LongConst:
		return fmt.Sprintf("%dL", t.Value)
	case *ast.FloatConst:
		return fmt.Sprintf("%gF", t.Value)
	case *ast.DoubleConst:
		return fmt.Sprintf("%g", t.Value)
	case *ast.NullConst:
		return "null"
	case *ast.Binary:
		return fmt.Sprintf("(%s %s %s)", fmtExpr(t.A), t.Op, fmtExpr(t.B))
	case *ast.Unary:
		if t.Op == ast.OpNot {
			return fmt.Sprintf("(not %s)", fmtExpr(t.Operand))
		}
		return fmt.Sprintf("(neg %s)", fmtExpr(t.Operand))
	case *ast.Invocation:
		args := make([]string, len(t.Arguments))
		for i, a := range t.Arguments {
			args[i] = fmtExpr(a)
		}
		return fmt.Sprintf("call %s(%s)", t.Method, strings.Join(args, ","))
	case *ast.New:
		return "new " + t.Type
	case *ast.CaughtException:
		return "$exception"
	case *ast.RestoreState:
		return "$restore"
	}
	return fmt.Sprintf("?%T", e)
}
