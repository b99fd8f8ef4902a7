// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decompiler

import (
	"fmt"

	"github.com/AnthonyKot/teavm/ir"
)

// ErrorKind classifies decompilation failures.  The core never attempts
// partial recovery: a failed method is rejected with a diagnostic bundle
// and the caller decides whether to continue the batch.
type ErrorKind int

const (
	IrreducibleControlFlow ErrorKind = iota
	MalformedExceptionScope
	InstructionLowering
	TypeInference
	AsyncSplit
)

var errorKindNames = [...]string{
	IrreducibleControlFlow:  "irreducible control flow",
	MalformedExceptionScope: "malformed exception scope",
	InstructionLowering:     "instruction lowering failed",
	TypeInference:           "type inference failed",
	AsyncSplit:              "async split failed",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// Error is the diagnostic bundle for a rejected method.
type Error struct {
	Method  ir.MethodReference
	Kind    ErrorKind
	Listing string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("decompiling %s: %s", e.Method, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Listing != "" {
		msg += "\n" + e.Listing
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func (d *Decompiler) fail(m *ir.Method, kind ErrorKind, cause error) error {
	return &Error{
		Method:  m.Reference,
		Kind:    kind,
		Listing: ir.Listing(m.Program),
		Cause:   cause,
	}
}
