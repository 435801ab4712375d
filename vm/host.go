package vm

import (
	"fmt"
	"io"
)

// HostFunc implements an imported function. A returned error aborts the running invocation.
type HostFunc func(args []int32) (int32, error)

// Host supplies the imported functions of a module.
type Host interface {
	Resolve(module, name string) (HostFunc, bool)
}

// Codes taken by runtime_error.
const (
	OperationOnNone int32 = 0
	InvalidArgument int32 = 1
)

// RuntimeError is raised by a program through runtime_error.
type RuntimeError struct {
	Code int32
}

func (err *RuntimeError) Error() string {
	switch err.Code {
	case OperationOnNone:
		return "RUNTIME ERROR: Operation on None"
	case InvalidArgument:
		return "RUNTIME ERROR: Invalid argument"
	}
	return fmt.Sprintf("RUNTIME ERROR: code %d", err.Code)
}

// StdHost provides the imports the compiler emits. Print functions write one line each to w and return their
// argument.
type StdHost struct {
	w     io.Writer
	funcs map[string]HostFunc
}

const importModule = "imports"

func NewStdHost(w io.Writer) *StdHost {
	host := &StdHost{w: w}
	host.funcs = map[string]HostFunc{
		"print_num":  host.printLine(func(v int32) string { return fmt.Sprintf("%d", v) }),
		"print_bool": host.printLine(formatBool),
		"print_none": host.printLine(func(int32) string { return "None" }),
		"abs": func(args []int32) (int32, error) {
			if args[0] < 0 {
				return -args[0], nil
			}
			return args[0], nil
		},
		"max": func(args []int32) (int32, error) {
			if args[0] > args[1] {
				return args[0], nil
			}
			return args[1], nil
		},
		"min": func(args []int32) (int32, error) {
			if args[0] < args[1] {
				return args[0], nil
			}
			return args[1], nil
		},
		"pow": pow,
		"runtime_error": func(args []int32) (int32, error) {
			err := &RuntimeError{Code: args[0]}
			_, _ = fmt.Fprintln(host.w, err.Error())
			return 0, err
		},
	}
	return host
}

func (host *StdHost) Resolve(module, name string) (HostFunc, bool) {
	if module != importModule {
		return nil, false
	}
	fn, ok := host.funcs[name]
	return fn, ok
}

func (host *StdHost) printLine(format func(int32) string) HostFunc {
	return func(args []int32) (int32, error) {
		_, err := fmt.Fprintln(host.w, format(args[0]))
		if err != nil {
			return 0, err
		}
		return args[0], nil
	}
}

func formatBool(v int32) string {
	if v != 0 {
		return "True"
	}
	return "False"
}

// pow wraps around like every other i32 operation. Negative exponents have no integer result.
func pow(args []int32) (int32, error) {
	base, exp := args[0], args[1]
	if exp < 0 {
		return 0, &RuntimeError{Code: InvalidArgument}
	}
	result := int32(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result, nil
}
