package internal

import (
	"bytes"
	"fmt"
	"io"
	"log"
)

type options struct {
	logger *log.Logger
}

type Option func(*options)

// WithLogger makes Compile log the start of every stage to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Result is what a successful compilation leaves behind besides the module text.
type Result struct {
	Program *BodyAst
	Layouts LayoutTable
}

// Compile checks program and writes its module text to w. The first error stops compilation, in which case nothing
// is written.
func Compile(program *BodyAst, w io.Writer, opts ...Option) (*Result, error) {
	o := &options{logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger
	logger.Println("compiler: start building symbol table and type checker")
	checked, _, err := typeCheckProgram(program)
	if err != nil {
		return nil, err
	}
	logger.Println("compiler: start field layout")
	layouts := NewLayoutTable(checked)
	logger.Println("compiler: start generate codes")
	buf := &bytes.Buffer{}
	err = generateCode(checked, layouts, buf)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	_, err = buf.WriteTo(w)
	if err != nil {
		return nil, fmt.Errorf("write module: %w", err)
	}
	logger.Printf("compiler: wrote %d functions", countFuncs(checked))
	return &Result{Program: checked, Layouts: layouts}, nil
}

// CompileJSON decodes a program tree from r and compiles it.
func CompileJSON(r io.Reader, w io.Writer, opts ...Option) (*Result, error) {
	program, err := DecodeJSON(r)
	if err != nil {
		return nil, err
	}
	return Compile(program, w, opts...)
}

func countFuncs(checked *BodyAst) int {
	count := len(checked.FuncDefs)
	for _, classDef := range checked.ClassDefs {
		count += len(classDef.ClassBody.FuncDefs)
	}
	return count
}
