// Package vm runs the WebAssembly text modules produced by the compiler on wasmtime. A module is translated to the
// binary format and validated before anything runs, so a module the compiler gets wrong is rejected up front.
package vm

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go/v25"
)

// Module is a validated module, compiled for its own engine.
type Module struct {
	engine *wasmtime.Engine
	module *wasmtime.Module
}

// Parse reads a module in text format. Text that does not parse is a SyntaxError, a module that parses but is not
// well typed is a ValidationError.
func Parse(src string) (*Module, error) {
	wasm, err := wasmtime.Wat2Wasm(src)
	if err != nil {
		return nil, fmt.Errorf("SyntaxError: %w", err)
	}
	engine := wasmtime.NewEngine()
	err = wasmtime.ModuleValidate(engine, wasm)
	if err != nil {
		return nil, fmt.Errorf("ValidationError: %w", err)
	}
	module, err := wasmtime.NewModule(engine, wasm)
	if err != nil {
		return nil, fmt.Errorf("compile module: %w", err)
	}
	return &Module{engine: engine, module: module}, nil
}

// Import describes one import of a module.
type Import struct {
	Module string
	Name   string
	// Params and HasResult are only set for functions.
	Params    int
	HasResult bool
	IsMemory  bool
}

// Imports lists the imports of m in declaration order.
func (m *Module) Imports() []Import {
	var imports []Import
	for _, imp := range m.module.Imports() {
		entry := Import{Module: imp.Module()}
		if imp.Name() != nil {
			entry.Name = *imp.Name()
		}
		externType := imp.Type()
		if fnType := externType.FuncType(); fnType != nil {
			entry.Params = len(fnType.Params())
			entry.HasResult = len(fnType.Results()) > 0
		}
		entry.IsMemory = externType.MemoryType() != nil
		imports = append(imports, entry)
	}
	return imports
}

// Exports lists the names of the exported functions of m.
func (m *Module) Exports() []string {
	var names []string
	for _, exp := range m.module.Exports() {
		if exp.Type().FuncType() != nil {
			names = append(names, exp.Name())
		}
	}
	return names
}
