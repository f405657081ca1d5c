// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sandbox evaluates detection programs written in Go with the yaegi
// interpreter.
//
// A detection program is Go source declaring
//
//	func checkSourceCode(input T) R
//
// where T is string for RAW programs or *detection.Node for AST programs,
// and R is a slice, optionally followed by an error result. The package
// clause is optional and must be "package main" when present. Imports are
// limited to DefaultAllowedPackages plus the host package:
//
//	import "packmind/detection"
//
//	func checkSourceCode(root *detection.Node) []detection.Marker {
//	    var out []detection.Marker
//	    for _, n := range root.FindAll("interface_declaration") {
//	        out = append(out, detection.Marker{Line: n.StartLine, Character: n.StartColumn})
//	    }
//	    return out
//	}
package sandbox

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"reflect"
	"strconv"

	"github.com/traefik/yaegi/interp"
)

const (
	// EntryPoint is the function every detection program must declare.
	EntryPoint = "checkSourceCode"

	// entryAlias exposes EntryPoint under an exported name so it can be
	// looked up from outside the interpreted package.
	entryAlias = "PackmindCheckSourceCode"
)

// CheckFunc is a compiled checkSourceCode function.
//
// It returns the raw value produced by the program. A returned error wraps
// ErrExecution, ErrTimeout or ErrInvalidInput.
type CheckFunc func(ctx context.Context, input any) (any, error)

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithAllowedPackages replaces the import allow-list.
func WithAllowedPackages(pkgs ...string) CompilerOption {
	return func(c *Compiler) {
		c.allowed = make(map[string]bool, len(pkgs))
		for _, p := range pkgs {
			c.allowed[p] = true
		}
	}
}

// Compiler turns detection program source into CheckFuncs.
//
// Description:
//
//	Every Compile call builds a fresh interpreter, so programs never share
//	globals with each other or with previous calls.
//
// Thread Safety: Safe for concurrent use.
type Compiler struct {
	allowed map[string]bool
	symbols interp.Exports
}

// NewCompiler creates a compiler with DefaultAllowedPackages.
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{}
	WithAllowedPackages(DefaultAllowedPackages...)(c)
	for _, opt := range opts {
		opt(c)
	}
	c.symbols = restrictedStdlib(c.allowed)
	return c
}

// AllowedPackages returns the import allow-list, sorted.
func (c *Compiler) AllowedPackages() []string {
	return sortedKeys(c.allowed)
}

// Compile evaluates code and returns its checkSourceCode function.
//
// Description:
//
//	Validates the package clause and imports with go/parser, evaluates the
//	source in a new interpreter and checks the entry point signature.
//	Evaluation runs on its own goroutine so that a program whose
//	initialisation never terminates is abandoned when ctx is done.
//
// Inputs:
//
//	ctx - Bounds evaluation time.
//	code - The program source.
//
// Outputs:
//
//	CheckFunc - The callable entry point.
//	error - Wraps ErrCompilation (and ErrForbiddenImport) or ErrTimeout.
//
// Limitations:
//
//	An abandoned goroutine keeps running until the interpreted code
//	returns; yaegi offers no way to stop it.
func (c *Compiler) Compile(ctx context.Context, code string) (CheckFunc, error) {
	src, err := c.prepare(code)
	if err != nil {
		return nil, err
	}

	type evalResult struct {
		fn  reflect.Value
		err error
	}
	done := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- evalResult{err: fmt.Errorf("%w: panic during evaluation: %v", ErrCompilation, r)}
			}
		}()
		fn, err := c.evaluate(src)
		done <- evalResult{fn: fn, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return makeCheckFunc(res.fn), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: compilation: %v", ErrTimeout, ctx.Err())
	}
}

// prepare validates the source and returns it ready for evaluation.
func (c *Compiler) prepare(code string) (string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "program.go", code, parser.ImportsOnly)
	if err != nil {
		wrapped := "package main\n\n" + code
		var wrapErr error
		file, wrapErr = parser.ParseFile(token.NewFileSet(), "program.go", wrapped, parser.ImportsOnly)
		if wrapErr != nil {
			return "", fmt.Errorf("%w: %v", ErrCompilation, err)
		}
		code = wrapped
	}

	if file.Name.Name != "main" {
		return "", fmt.Errorf("%w: package %q, detection programs must use package main",
			ErrCompilation, file.Name.Name)
	}

	var forbidden []string
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return "", fmt.Errorf("%w: malformed import %s", ErrCompilation, imp.Path.Value)
		}
		if p == HostPackage || c.allowed[p] {
			continue
		}
		forbidden = append(forbidden, p)
	}
	if len(forbidden) > 0 {
		return "", fmt.Errorf("%w: %w: %v (allowed: %v)",
			ErrCompilation, ErrForbiddenImport, forbidden, c.AllowedPackages())
	}

	return code + "\n\nvar " + entryAlias + " = " + EntryPoint + "\n", nil
}

// evaluate runs src in a fresh interpreter and resolves the entry point.
func (c *Compiler) evaluate(src string) (reflect.Value, error) {
	i := interp.New(interp.Options{
		Stdout: io.Discard,
		Stderr: io.Discard,
	})

	if err := i.Use(c.symbols); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: load stdlib symbols: %v", ErrCompilation, err)
	}
	if err := i.Use(hostExports()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: load host symbols: %v", ErrCompilation, err)
	}

	if _, err := i.Eval(src); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrCompilation, err)
	}

	fn, err := i.Eval("main." + entryAlias)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s not found: %v", ErrCompilation, EntryPoint, err)
	}

	if fn.Kind() == reflect.Interface && !fn.IsNil() {
		fn = fn.Elem()
	}
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %s is not a function", ErrCompilation, EntryPoint)
	}
	if err := checkSignature(fn.Type()); err != nil {
		return reflect.Value{}, err
	}
	return fn, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// checkSignature requires exactly one parameter and either one result or
// a result followed by an error.
func checkSignature(t reflect.Type) error {
	if t.NumIn() != 1 || t.IsVariadic() {
		return fmt.Errorf("%w: %s must take exactly one argument, got %d",
			ErrCompilation, EntryPoint, t.NumIn())
	}
	switch t.NumOut() {
	case 1:
		return nil
	case 2:
		if t.Out(1).Implements(errorType) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must return a list, optionally followed by an error", ErrCompilation, EntryPoint)
}

// makeCheckFunc wraps a resolved entry point.
func makeCheckFunc(fn reflect.Value) CheckFunc {
	paramType := fn.Type().In(0)

	return func(ctx context.Context, input any) (any, error) {
		arg := reflect.ValueOf(input)
		switch {
		case !arg.IsValid():
			arg = reflect.Zero(paramType)
		case !arg.Type().AssignableTo(paramType):
			return nil, fmt.Errorf("%w: have %s, want %s", ErrInvalidInput, arg.Type(), paramType)
		}

		type callResult struct {
			value any
			err   error
		}
		done := make(chan callResult, 1)

		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- callResult{err: fmt.Errorf("%w: panic: %v", ErrExecution, r)}
				}
			}()

			out := fn.Call([]reflect.Value{arg})
			if len(out) == 2 && !out[1].IsNil() {
				done <- callResult{err: fmt.Errorf("%w: %v", ErrExecution, out[1].Interface())}
				return
			}
			done <- callResult{value: out[0].Interface()}
		}()

		select {
		case res := <-done:
			return res.value, res.err
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: execution: %v", ErrTimeout, ctx.Err())
		}
	}
}
