package internal

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileToString(t *testing.T, program *BodyAst) string {
	buf := &bytes.Buffer{}
	_, err := Compile(program, buf)
	require.NoError(t, err)
	return buf.String()
}

func TestGenerateCode_Module(t *testing.T) {
	module := compileToString(t, &BodyAst{
		VarInits: []*VarInitAst{
			VarInit("x", IntType, NumberLiteral(5)),
			VarInit("b", BoolType, BoolLiteral(true)),
		},
		ClassDefs: []*ClassDefAst{counterClass()},
		Statements: []*StatementAst{
			AssignStatement(IdentifierExpr("x"), BinaryExpr(AddOpAst, IdentifierExpr("x"), NumberExpr(1))),
			ExpressionStatement(IdentifierExpr("x")),
		},
	})
	assert.True(t, strings.HasPrefix(module, "(module\n"), module)
	assert.True(t, strings.HasSuffix(module, ")\n"), module)
	for _, line := range []string{
		`  (func $print_num (import "imports" "print_num") (param i32) (result i32))`,
		`  (func $print_bool (import "imports" "print_bool") (param i32) (result i32))`,
		`  (func $print_none (import "imports" "print_none") (param i32) (result i32))`,
		`  (func $abs (import "imports" "abs") (param i32) (result i32))`,
		`  (func $max (import "imports" "max") (param i32) (param i32) (result i32))`,
		`  (func $pow (import "imports" "pow") (param i32) (param i32) (result i32))`,
		`  (func $runtime_error (import "imports" "runtime_error") (param i32))`,
		`  (import "js" "mem" (memory 1))`,
		`  (global $$none (mut i32) (i32.const 0))`,
		`  (global $$heap (mut i32) (i32.const 4))`,
		`  (global $x (mut i32) (i32.const 5))`,
		`  (global $b (mut i32) (i32.const 1))`,
		`  (func $Counter$$add (param $self i32) (param $by i32) (result i32)`,
		`  (func $Counter$$__init__ (param $self i32) (result i32)`,
		`  (func (export "_start") (result i32)`,
		`    (global.set $x)`,
		`    (local.get $scratch)`,
	} {
		assert.Contains(t, module, line+"\n")
	}
	// The store into self.n takes the address first, then the value.
	assert.Contains(t, module, "(i32.store offset=0)")
	assert.Contains(t, module, "(i32.load offset=0)")
	assert.True(t, strings.Index(module, "$Counter$$add") < strings.Index(module, "_start"))
}

func TestGenerateCode_Locals(t *testing.T) {
	module := compileToString(t, &BodyAst{
		VarInits: []*VarInitAst{VarInit("g", IntType, NumberLiteral(0))},
		FuncDefs: []*FuncDefAst{FuncDef("f", []*FuncParamAst{Param("a", IntType)}, IntType, &BodyAst{
			VarInits: []*VarInitAst{VarInit("y", IntType, NumberLiteral(3))},
			Statements: []*StatementAst{
				AssignStatement(IdentifierExpr("y"), IdentifierExpr("g")),
				ReturnStatement(BinaryExpr(AddOpAst, IdentifierExpr("a"), IdentifierExpr("y"))),
			},
		})},
		Statements: []*StatementAst{AssignStatement(IdentifierExpr("g"), NumberExpr(1))},
	})
	expected := strings.Join([]string{
		"  (func $f (param $a i32) (result i32)",
		"    (local $scratch i32)",
		"    (local $y i32)",
		"    (i32.const 3)",
		"    (local.set $y)",
		"    (global.get $g)",
		"    (local.set $y)",
		"    (local.get $a)",
		"    (local.get $y)",
		"    (i32.add)",
		"    (return)",
		"    (i32.const 0)",
		"  )",
	}, "\n") + "\n"
	assert.Contains(t, module, expected)
	// A program ending in a statement has no result.
	start := strings.Join([]string{
		`  (func (export "_start")`,
		"    (local $scratch i32)",
		"    (i32.const 1)",
		"    (global.set $g)",
		"  )",
	}, "\n") + "\n"
	assert.Contains(t, module, start)
}

func TestGenerateCode_Statements(t *testing.T) {
	module := compileToString(t, &BodyAst{
		VarInits: []*VarInitAst{VarInit("i", IntType, NumberLiteral(0))},
		Statements: []*StatementAst{
			WhileStatement(BinaryExpr(LessOpAst, IdentifierExpr("i"), NumberExpr(3)), []*StatementAst{
				AssignStatement(IdentifierExpr("i"), BinaryExpr(AddOpAst, IdentifierExpr("i"), NumberExpr(1))),
			}),
			IfStatement(UnaryExpr(BooleanNegationOp, BoolExpr(false)),
				[]*StatementAst{ExpressionStatement(UnaryExpr(NegationOpAst, IdentifierExpr("i")))},
				[]*StatementAst{PassStatement()}),
		},
	})
	loop := strings.Join([]string{
		"    (block",
		"      (loop",
		"        (global.get $i)",
		"        (i32.const 3)",
		"        (i32.lt_s)",
		"        (i32.eqz)",
		"        (br_if 1)",
		"        (global.get $i)",
		"        (i32.const 1)",
		"        (i32.add)",
		"        (global.set $i)",
		"        (br 0)",
		"      )",
		"    )",
	}, "\n") + "\n"
	assert.Contains(t, module, loop)
	branch := strings.Join([]string{
		"    (i32.const 0)",
		"    (i32.eqz)",
		"    (if",
		"      (then",
		"        (i32.const 0)",
		"        (global.get $i)",
		"        (i32.sub)",
		"        (local.set $scratch)",
		"      )",
		"      (else",
		"      )",
		"    )",
	}, "\n") + "\n"
	assert.Contains(t, module, branch)
}

func TestGenerateCode_Objects(t *testing.T) {
	module := compileToString(t, &BodyAst{
		VarInits: []*VarInitAst{VarInit("c", ClassType("Counter"), NoneLiteral())},
		ClassDefs: []*ClassDefAst{ClassDef("Counter", ObjectClassName, &BodyAst{VarInits: []*VarInitAst{
			VarInit("n", IntType, NumberLiteral(0)),
			VarInit("on", BoolType, BoolLiteral(true)),
		}})},
		Statements: []*StatementAst{
			AssignStatement(IdentifierExpr("c"), CallExpr("Counter")),
			AssignStatement(MemberExpr(IdentifierExpr("c"), "on"), BoolExpr(false)),
			ExpressionStatement(CallExpr("print", IdentifierExpr("c"))),
		},
	})
	constructor := strings.Join([]string{
		"    (global.get $$heap)",
		"    (i32.const 0)",
		"    (i32.store offset=0)",
		"    (global.get $$heap)",
		"    (i32.const 1)",
		"    (i32.store offset=4)",
		"    (global.get $$heap)",
		"    (global.get $$heap)",
		"    (global.get $$heap)",
		"    (i32.const 8)",
		"    (i32.add)",
		"    (global.set $$heap)",
		"    (call $Counter$$__init__)",
		"    (drop)",
		"    (global.set $c)",
	}, "\n") + "\n"
	assert.Contains(t, module, constructor)
	store := strings.Join([]string{
		"    (global.get $c)",
		"    (local.set $scratch)",
		"    (local.get $scratch)",
		"    (i32.eqz)",
		"    (if",
		"      (then",
		"        (i32.const 0)",
		"        (call $runtime_error)",
		"      )",
		"    )",
		"    (local.get $scratch)",
		"    (i32.const 0)",
		"    (i32.store offset=4)",
	}, "\n") + "\n"
	assert.Contains(t, module, store)
	printObject := strings.Join([]string{
		"    (global.get $c)",
		"    (local.set $scratch)",
		"    (local.get $scratch)",
		"    (if",
		"      (then",
		"        (i32.const 1)",
		"        (call $runtime_error)",
		"      )",
		"    )",
		"    (local.get $scratch)",
		"    (call $print_none)",
		"    (local.set $scratch)",
	}, "\n") + "\n"
	assert.Contains(t, module, printObject)
}

func TestGenerateCode_PrintValue(t *testing.T) {
	module := compileToString(t, &BodyAst{
		VarInits:  []*VarInitAst{VarInit("c", ClassType("C"), NoneLiteral())},
		ClassDefs: []*ClassDefAst{ClassDef("C", ObjectClassName, nil)},
		Statements: []*StatementAst{
			AssignStatement(IdentifierExpr("c"), CallExpr("print", NumberExpr(5))),
			ExpressionStatement(CallExpr("print", NumberExpr(6))),
		},
	})
	assigned := strings.Join([]string{
		"    (i32.const 5)",
		"    (call $print_num)",
		"    (drop)",
		"    (i32.const 0)",
		"    (global.set $c)",
	}, "\n") + "\n"
	assert.Contains(t, module, assigned)
	statement := strings.Join([]string{
		"    (i32.const 6)",
		"    (call $print_num)",
		"    (local.set $scratch)",
	}, "\n") + "\n"
	assert.Contains(t, module, statement)
}

func TestGenerateCode_FuncNames(t *testing.T) {
	module := compileToString(t, &BodyAst{
		ClassDefs: []*ClassDefAst{counterClass()},
		FuncDefs: []*FuncDefAst{FuncDef("add", []*FuncParamAst{Param("by", IntType)}, IntType, &BodyAst{
			Statements: []*StatementAst{ReturnStatement(IdentifierExpr("by"))},
		})},
		Statements: []*StatementAst{ExpressionStatement(CallExpr("add", NumberExpr(1)))},
	})
	// A free function and a method of the same name do not collide.
	assert.Contains(t, module, "  (func $add (param $by i32) (result i32)\n")
	assert.Contains(t, module, "  (func $Counter$$add (param $self i32) (param $by i32) (result i32)\n")
	assert.Contains(t, module, "    (call $add)\n")
}

func TestCompile_NothingWrittenOnError(t *testing.T) {
	buf := &bytes.Buffer{}
	_, err := Compile(program(ExpressionStatement(IdentifierExpr("missing"))), buf)
	require.Error(t, err)
	assert.True(t, IsKind(err, UndefinedVariable))
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestCompile_WriteError(t *testing.T) {
	_, err := Compile(program(PassStatement()), failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCompile_Logger(t *testing.T) {
	logs := &bytes.Buffer{}
	result, err := Compile(program(ExpressionStatement(NumberExpr(1))), &bytes.Buffer{},
		WithLogger(log.New(logs, "", 0)))
	require.NoError(t, err)
	assert.Equal(t, IntType, *result.Program.TP)
	assert.Contains(t, logs.String(), "compiler: start building symbol table and type checker\n")
	assert.Contains(t, logs.String(), "compiler: start generate codes\n")
	assert.Contains(t, logs.String(), "compiler: wrote 0 functions\n")
}
