package internal

import (
	"fmt"
	"io"
	"strings"
)

// The code generator lowers a checked program to a WebAssembly text module. Every value is one i32 word. The
// module is written as flat instruction lists: the only nested forms are if, block and loop.

const (
	scratchLocal       = "scratch"
	runtimeErrorImport = "runtime_error"
	startExport        = "_start"
)

// Codes passed to runtime_error.
const (
	OperationOnNoneCode = 0
	InvalidArgumentCode = 1
)

type hostImport struct {
	name   string
	params int
	result bool
}

var hostImports = []hostImport{
	{name: PrintIntImport, params: 1, result: true},
	{name: PrintBoolImport, params: 1, result: true},
	{name: PrintNoneImport, params: 1, result: true},
	{name: "abs", params: 1, result: true},
	{name: "max", params: 2, result: true},
	{name: "min", params: 2, result: true},
	{name: "pow", params: 2, result: true},
	{name: runtimeErrorImport, params: 1},
}

// localEnv holds the names bound to locals of the function being generated. Every other name is a global.
type localEnv map[string]bool

type codeGenerator struct {
	layouts LayoutTable
	writer  io.Writer
	indent  int
	// The first write error. Once set, nothing more is written.
	err error
}

func generateCode(checked *BodyAst, layouts LayoutTable, w io.Writer) error {
	gen := &codeGenerator{layouts: layouts, writer: w}
	gen.generateModule(checked)
	return gen.err
}

func (gen *codeGenerator) arena() heapArena {
	return heapArena{gen: gen}
}

func (gen *codeGenerator) generateModule(checked *BodyAst) {
	gen.open("(module")
	gen.generateImports()
	gen.arena().declare()
	for _, varInit := range checked.VarInits {
		gen.writeOutput(fmt.Sprintf("(global $%s (mut i32) (i32.const %d))", varInit.VarName, varInit.Init.Word()))
	}
	for _, funcDef := range checked.FuncDefs {
		gen.generateFuncCode(funcDef)
	}
	for _, classDef := range checked.ClassDefs {
		for _, method := range classDef.ClassBody.FuncDefs {
			gen.generateFuncCode(method)
		}
	}
	gen.generateStartCode(checked.Statements)
	gen.close()
}

func (gen *codeGenerator) generateImports() {
	for _, imp := range hostImports {
		sig := strings.Repeat(" (param i32)", imp.params)
		if imp.result {
			sig += " (result i32)"
		}
		gen.writeOutput(fmt.Sprintf(`(func $%s (import "imports" "%s")%s)`, imp.name, imp.name, sig))
	}
	gen.writeOutput(`(import "js" "mem" (memory 1))`)
}

// Generate function code: the header with one param per parameter, the scratch local and the other locals,
// their initializers, the statements, then (i32.const 0). The trailing zero is only reached when the body falls
// through, which the type checker rules out.
func (gen *codeGenerator) generateFuncCode(funcDef *FuncDefAst) {
	name := funcDef.FuncName
	if funcDef.IsMethod() {
		name = MangleMethodName(funcDef.ClassName, funcDef.FuncName)
	}
	env := localEnv{}
	header := "(func $" + name
	for _, param := range funcDef.Params {
		header += fmt.Sprintf(" (param $%s i32)", param.ParamName)
		env[param.ParamName] = true
	}
	gen.open(header + " (result i32)")
	gen.generateLocalsCode(funcDef.FuncBody.VarInits, env)
	gen.generateStatementsCode(env, funcDef.FuncBody.Statements)
	gen.writeOutput("(i32.const 0)")
	gen.close()
}

// All locals are declared before the first instruction.
func (gen *codeGenerator) generateLocalsCode(varInits []*VarInitAst, env localEnv) {
	gen.writeOutput(fmt.Sprintf("(local $%s i32)", scratchLocal))
	for _, varInit := range varInits {
		gen.writeOutput(fmt.Sprintf("(local $%s i32)", varInit.VarName))
		env[varInit.VarName] = true
	}
	for _, varInit := range varInits {
		gen.writeOutput(fmt.Sprintf("(i32.const %d)", varInit.Init.Word()))
		gen.writeOutput(fmt.Sprintf("(local.set $%s)", varInit.VarName))
	}
}

// The entry point returns the value of the last statement if that statement is an expression.
func (gen *codeGenerator) generateStartCode(statements []*StatementAst) {
	hasResult := len(statements) > 0 && statements[len(statements)-1].StatementTP == ExpressionStatementTP
	header := fmt.Sprintf(`(func (export "%s")`, startExport)
	if hasResult {
		header += " (result i32)"
	}
	gen.open(header)
	env := localEnv{}
	gen.generateLocalsCode(nil, env)
	gen.generateStatementsCode(env, statements)
	if hasResult {
		gen.writeOutput(fmt.Sprintf("(local.get $%s)", scratchLocal))
	}
	gen.close()
}

func (gen *codeGenerator) generateStatementsCode(env localEnv, statements []*StatementAst) {
	for _, stm := range statements {
		gen.generateStatementCode(env, stm)
	}
}

func (gen *codeGenerator) generateStatementCode(env localEnv, statement *StatementAst) {
	switch statement.StatementTP {
	case AssignStatementTP:
		gen.generateAssignStatementCode(env, statement.Statement.(*AssignStatementAst))
	case IfStatementTP:
		gen.generateIfStatementCode(env, statement.Statement.(*IfStatementAst))
	case WhileStatementTP:
		gen.generateWhileStatementCode(env, statement.Statement.(*WhileStatementAst))
	case PassStatementTP:
	case ReturnStatementTP:
		gen.generateExpressionCode(env, statement.Statement.(*ReturnStatementAst).Return)
		gen.writeOutput("(return)")
	case ExpressionStatementTP:
		expr := statement.Statement.(*ExpressionStatementAst).Expression
		if isPrintCall(expr) {
			gen.generateCallCode(env, expr.Call)
		} else {
			gen.generateExpressionCode(env, expr)
		}
		gen.writeOutput(fmt.Sprintf("(local.set $%s)", scratchLocal))
	default:
		panic("unknown statement tp")
	}
}

func (gen *codeGenerator) generateAssignStatementCode(env localEnv, assign *AssignStatementAst) {
	target := assign.Target
	if target.Object != nil {
		// The address is pushed before the value is computed, so the value may use $scratch freely.
		field := gen.fieldOf(target)
		gen.generateObjectCode(env, target.Object)
		gen.generateExpressionCode(env, assign.Value)
		gen.writeOutput(fmt.Sprintf("(i32.store offset=%d)", field.Offset()))
		return
	}
	gen.generateExpressionCode(env, assign.Value)
	if env[target.Name] {
		gen.writeOutput(fmt.Sprintf("(local.set $%s)", target.Name))
		return
	}
	gen.writeOutput(fmt.Sprintf("(global.set $%s)", target.Name))
}

// Condition code, then (if (then ...) (else ...)).
func (gen *codeGenerator) generateIfStatementCode(env localEnv, ifStatement *IfStatementAst) {
	gen.generateExpressionCode(env, ifStatement.Condition)
	gen.open("(if")
	gen.open("(then")
	gen.generateStatementsCode(env, ifStatement.IfTrueStatements)
	gen.close()
	gen.open("(else")
	gen.generateStatementsCode(env, ifStatement.ElseStatements)
	gen.close()
	gen.close()
}

// A loop inside a block. Each iteration evaluates the condition, leaves the block with br_if 1 when it is false,
// runs the statements and jumps back with br 0.
func (gen *codeGenerator) generateWhileStatementCode(env localEnv, whileStatement *WhileStatementAst) {
	gen.open("(block")
	gen.open("(loop")
	gen.generateExpressionCode(env, whileStatement.Condition)
	gen.writeOutput("(i32.eqz)")
	gen.writeOutput("(br_if 1)")
	gen.generateStatementsCode(env, whileStatement.Statements)
	gen.writeOutput("(br 0)")
	gen.close()
	gen.close()
}

// generateExpressionCode leaves exactly one word on the stack. Operands are generated in post order.
func (gen *codeGenerator) generateExpressionCode(env localEnv, expr *ExpressionAst) {
	switch expr.ExpressionTP {
	case LiteralExpressionTP:
		gen.writeOutput(fmt.Sprintf("(i32.const %d)", expr.Literal.Word()))
	case IdentifierExpressionTP:
		gen.generateIdentifierCode(env, expr)
	case UnaryExpressionTP:
		gen.generateUnaryExpressionCode(env, expr)
	case BinaryExpressionTP:
		gen.generateExpressionCode(env, expr.Left)
		gen.generateExpressionCode(env, expr.Right)
		gen.generateOpCode(expr.Op)
	case CallExpressionTP:
		gen.generateCallCode(env, expr.Call)
		if isPrintCall(expr) {
			// The print imports return their argument, a print used as a value is None.
			gen.writeOutput("(drop)")
			gen.writeOutput("(i32.const 0)")
		}
	case ConstructorExpressionTP:
		gen.generateConstructorCode(expr)
	default:
		panic("unknown expression tp")
	}
}

func isPrintCall(expr *ExpressionAst) bool {
	return expr.ExpressionTP == CallExpressionTP && expr.Call.CallTP == BuiltinCallTP && expr.Call.FuncName == printFuncName
}

func (gen *codeGenerator) generateIdentifierCode(env localEnv, expr *ExpressionAst) {
	if expr.Object != nil {
		field := gen.fieldOf(expr)
		gen.generateObjectCode(env, expr.Object)
		gen.writeOutput(fmt.Sprintf("(i32.load offset=%d)", field.Offset()))
		return
	}
	if env[expr.Name] {
		gen.writeOutput(fmt.Sprintf("(local.get $%s)", expr.Name))
		return
	}
	gen.writeOutput(fmt.Sprintf("(global.get $%s)", expr.Name))
}

func (gen *codeGenerator) fieldOf(member *ExpressionAst) FieldLayout {
	field, ok := gen.layouts.Field(member.Object.TP.Name, member.Name)
	if !ok {
		panic(fmt.Sprintf("no layout for field %s of %s", member.Name, member.Object.TP))
	}
	return field
}

// generateObjectCode pushes the address of an object, aborting with OperationOnNoneCode when it is None.
func (gen *codeGenerator) generateObjectCode(env localEnv, obj *ExpressionAst) {
	gen.generateExpressionCode(env, obj)
	gen.writeOutput(fmt.Sprintf("(local.set $%s)", scratchLocal))
	gen.writeOutput(fmt.Sprintf("(local.get $%s)", scratchLocal))
	gen.writeOutput("(i32.eqz)")
	gen.generateAbortCode(OperationOnNoneCode)
	gen.writeOutput(fmt.Sprintf("(local.get $%s)", scratchLocal))
}

// generateAbortCode consumes a condition and calls runtime_error with code when it is not zero.
func (gen *codeGenerator) generateAbortCode(code int) {
	gen.open("(if")
	gen.open("(then")
	gen.writeOutput(fmt.Sprintf("(i32.const %d)", code))
	gen.writeOutput(fmt.Sprintf("(call $%s)", runtimeErrorImport))
	gen.close()
	gen.close()
}

func (gen *codeGenerator) generateUnaryExpressionCode(env localEnv, expr *ExpressionAst) {
	switch expr.Op.Op {
	case NegationOpTP:
		gen.writeOutput("(i32.const 0)")
		gen.generateExpressionCode(env, expr.Left)
		gen.writeOutput("(i32.sub)")
	case BooleanNegationOpTP:
		gen.generateExpressionCode(env, expr.Left)
		gen.writeOutput("(i32.eqz)")
	default:
		panic("unknown unary op " + expr.Op.Name)
	}
}

var binaryInstructions = map[OpCode]string{
	AddOpTP:          "i32.add",
	MinusOpTP:        "i32.sub",
	MultipleOpTP:     "i32.mul",
	DivideOpTP:       "i32.div_s",
	ModOpTP:          "i32.rem_s",
	EqualOpTP:        "i32.eq",
	NotEqualOpTP:     "i32.ne",
	LessOpTP:         "i32.lt_s",
	LessEqualOpTP:    "i32.le_s",
	GreaterOpTP:      "i32.gt_s",
	GreaterEqualOpTP: "i32.ge_s",
	// References are addresses and None is 0, so identity is word equality.
	IsOpTP: "i32.eq",
}

func (gen *codeGenerator) generateOpCode(op *OpAst) {
	instr, ok := binaryInstructions[op.Op]
	if !ok {
		panic("unknown binary op " + op.Name)
	}
	gen.writeOutput("(" + instr + ")")
}

func (gen *codeGenerator) generateCallCode(env localEnv, call *CallAst) {
	if call.CallTP == MethodCallTP {
		gen.generateObjectCode(env, call.FuncProvider)
	}
	for _, param := range call.Params {
		gen.generateExpressionCode(env, param)
	}
	if call.Target == PrintNoneImport {
		// Every object is printed through print_none, which only knows how to print None.
		gen.writeOutput(fmt.Sprintf("(local.set $%s)", scratchLocal))
		gen.writeOutput(fmt.Sprintf("(local.get $%s)", scratchLocal))
		gen.generateAbortCode(InvalidArgumentCode)
		gen.writeOutput(fmt.Sprintf("(local.get $%s)", scratchLocal))
	}
	gen.writeOutput(fmt.Sprintf("(call $%s)", call.Target))
}

// Constructor code. The field initializers are stored at heap + index * WordSize, then the base is pushed twice:
// once as the value of the expression and once as the receiver of __init__, whose result is dropped. The heap is
// moved past the object before __init__ runs.
func (gen *codeGenerator) generateConstructorCode(expr *ExpressionAst) {
	className := expr.Call.FuncName
	arena := gen.arena()
	for _, field := range gen.layouts.Fields(className) {
		arena.storeWord(field.Offset(), field.Init.Word())
	}
	arena.base()
	arena.allocate(gen.layouts.Size(className))
	gen.writeOutput(fmt.Sprintf("(call $%s)", expr.Call.Target))
	gen.writeOutput("(drop)")
}

func (gen *codeGenerator) open(output string) {
	gen.writeOutput(output)
	gen.indent++
}

func (gen *codeGenerator) close() {
	gen.indent--
	gen.writeOutput(")")
}

func (gen *codeGenerator) writeOutput(output string) {
	if gen.err != nil {
		return
	}
	_, gen.err = io.WriteString(gen.writer, strings.Repeat("  ", gen.indent)+output+"\n")
}
