package internal

import "fmt"

// In this file, we defined the program tree shared by the type checker and the code generator. The tree is produced
// by an external converter from the python syntax tree. A program is a BodyAst, and so are the bodies of functions
// and classes.

type BodyAst struct {
	VarInits   []*VarInitAst
	ClassDefs  []*ClassDefAst
	FuncDefs   []*FuncDefAst
	Statements []*StatementAst
	// Set by type checker. For the top level body it is the type of the last expression statement, or None.
	TP *VariableType `json:",omitempty"`
}

type VariableType struct {
	TP   VarType
	Name string `json:",omitempty"`
}

type VarType int

const (
	IntVariableType VarType = iota
	BooleanVariableType
	// Also used for None, which is the object type named NoneClassName.
	ClassVariableType
)

const (
	NoneClassName   = "None"
	ObjectClassName = "object"
	SelfParamName   = "self"
	ConstructorName = "__init__"
)

var (
	IntType  = VariableType{TP: IntVariableType}
	BoolType = VariableType{TP: BooleanVariableType}
	NoneType = VariableType{TP: ClassVariableType, Name: NoneClassName}
)

func ClassType(className string) VariableType {
	return VariableType{TP: ClassVariableType, Name: className}
}

func (t VariableType) String() string {
	switch t.TP {
	case IntVariableType:
		return "int"
	case BooleanVariableType:
		return "bool"
	case ClassVariableType:
		return t.Name
	}
	return ""
}

func (t VariableType) IsObject() bool {
	return t.TP == ClassVariableType
}

func (t VariableType) IsNone() bool {
	return t.TP == ClassVariableType && t.Name == NoneClassName
}

func (t VariableType) Equal(other VariableType) bool {
	return t.TP == other.TP && t.Name == other.Name
}

// AssignableFrom reports whether a value of type src can be stored into a destination of type t.
// None is accepted by every object destination.
func (t VariableType) AssignableFrom(src VariableType) bool {
	if t.Equal(src) {
		return true
	}
	return t.IsObject() && src.IsNone()
}

type VarInitAst struct {
	VarName string
	VarType VariableType
	Init    *LiteralAst
}

type LiteralAst struct {
	TP     LiteralType
	Number int32 `json:",omitempty"`
	Bool   bool  `json:",omitempty"`
}

type LiteralType int

const (
	NumberLiteralTP LiteralType = iota
	BoolLiteralTP
	NoneLiteralTP
)

// Type returns the intrinsic type of a literal.
func (lit *LiteralAst) Type() VariableType {
	switch lit.TP {
	case NumberLiteralTP:
		return IntType
	case BoolLiteralTP:
		return BoolType
	}
	return NoneType
}

// Word returns the 32-bit representation of the literal. false and None are both zero.
func (lit *LiteralAst) Word() int32 {
	switch lit.TP {
	case NumberLiteralTP:
		return lit.Number
	case BoolLiteralTP:
		if lit.Bool {
			return 1
		}
	}
	return 0
}

func (lit *LiteralAst) String() string {
	switch lit.TP {
	case NumberLiteralTP:
		return fmt.Sprintf("%d", lit.Number)
	case BoolLiteralTP:
		if lit.Bool {
			return "True"
		}
		return "False"
	}
	return NoneClassName
}

type FuncDefAst struct {
	FuncName string
	// Empty for free functions.
	ClassName string `json:",omitempty"`
	Params    []*FuncParamAst
	ReturnTP  VariableType
	FuncBody  *BodyAst
}

func (fn *FuncDefAst) IsMethod() bool {
	return fn.ClassName != ""
}

type FuncParamAst struct {
	ParamName string
	ParamTP   VariableType
}

type ClassDefAst struct {
	ClassName      string
	SuperClassName string
	// Only var initializers and method definitions are allowed.
	ClassBody *BodyAst
}

type StatementAst struct {
	StatementTP StatementType
	Statement   interface{} `json:",omitempty"`
}

type StatementType int

const (
	AssignStatementTP StatementType = iota
	IfStatementTP
	WhileStatementTP
	PassStatementTP
	ReturnStatementTP
	ExpressionStatementTP
	// Placeholders left by the converter where a var initializer, function or class was lifted out of the body.
	// They carry no payload and never appear in a checked tree.
	VarInitStatementTP
	FuncDefStatementTP
	ClassDefStatementTP
)

func (tp StatementType) String() string {
	switch tp {
	case AssignStatementTP:
		return "assign"
	case IfStatementTP:
		return "if"
	case WhileStatementTP:
		return "while"
	case PassStatementTP:
		return "pass"
	case ReturnStatementTP:
		return "return"
	case ExpressionStatementTP:
		return "expr"
	case VarInitStatementTP:
		return "varInit"
	case FuncDefStatementTP:
		return "funcDef"
	case ClassDefStatementTP:
		return "classDef"
	}
	return "unknown"
}

func (tp StatementType) isPlaceholder() bool {
	return tp == VarInitStatementTP || tp == FuncDefStatementTP || tp == ClassDefStatementTP
}

type AssignStatementAst struct {
	// Must be an identifier expression, optionally qualified by an object.
	Target *ExpressionAst
	Value  *ExpressionAst
}

type IfStatementAst struct {
	Condition        *ExpressionAst
	IfTrueStatements []*StatementAst
	ElseStatements   []*StatementAst
}

type WhileStatementAst struct {
	Condition  *ExpressionAst
	Statements []*StatementAst
}

type ReturnStatementAst struct {
	Return *ExpressionAst
}

type ExpressionStatementAst struct {
	Expression *ExpressionAst
}

type ExpressionAst struct {
	ExpressionTP ExpressionType
	// For LiteralExpressionTP.
	Literal *LiteralAst `json:",omitempty"`
	// For IdentifierExpressionTP: the variable or field name, and the object for member access.
	Name   string         `json:",omitempty"`
	Object *ExpressionAst `json:",omitempty"`
	// For UnaryExpressionTP (Left only) and BinaryExpressionTP.
	Op    *OpAst         `json:",omitempty"`
	Left  *ExpressionAst `json:",omitempty"`
	Right *ExpressionAst `json:",omitempty"`
	// For CallExpressionTP and ConstructorExpressionTP.
	Call *CallAst `json:",omitempty"`
	// Set by type checker.
	TP *VariableType `json:",omitempty"`
}

type ExpressionType int

const (
	LiteralExpressionTP ExpressionType = iota
	IdentifierExpressionTP
	UnaryExpressionTP
	BinaryExpressionTP
	CallExpressionTP
	// A call whose name is a class. The type checker rewrites such calls to this type.
	ConstructorExpressionTP
)

func (tp ExpressionType) String() string {
	switch tp {
	case LiteralExpressionTP:
		return "literal"
	case IdentifierExpressionTP:
		return "id"
	case UnaryExpressionTP:
		return "uniexpr"
	case BinaryExpressionTP:
		return "binexpr"
	case CallExpressionTP:
		return "call"
	case ConstructorExpressionTP:
		return "constructor"
	}
	return "unknown"
}

type CallAst struct {
	// We allow call like: obj.m(), where obj is any expression typed to a class. For f() FuncProvider is nil.
	FuncProvider *ExpressionAst `json:",omitempty"`
	FuncName     string
	Params       []*ExpressionAst

	// Set by type checker: how the call is dispatched and the name of the function to call.
	CallTP CallType `json:",omitempty"`
	Target string   `json:",omitempty"`
}

type CallType int

const (
	UnresolvedCallTP CallType = iota
	FuncCallTP
	MethodCallTP
	ConstructorCallTP
	// Calls to imported host functions: print variants, abs, max, min, pow.
	BuiltinCallTP
)

type OpAst struct {
	OpTP OpType
	Op   OpCode
	Name string
}

type OpType int

const (
	UnaryOPTP OpType = iota
	BinaryOPTP
)

type OpCode int

const (
	AddOpTP OpCode = iota
	MinusOpTP
	MultipleOpTP
	DivideOpTP
	ModOpTP
	EqualOpTP
	NotEqualOpTP
	LessOpTP
	LessEqualOpTP
	GreaterOpTP
	GreaterEqualOpTP
	IsOpTP

	// Unary Op
	NegationOpTP
	BooleanNegationOpTP
)

var (
	AddOpAst          = OpAst{OpTP: BinaryOPTP, Op: AddOpTP, Name: "+"}
	MinusOpAst        = OpAst{OpTP: BinaryOPTP, Op: MinusOpTP, Name: "-"}
	MultipleOpAst     = OpAst{OpTP: BinaryOPTP, Op: MultipleOpTP, Name: "*"}
	DivideOpAst       = OpAst{OpTP: BinaryOPTP, Op: DivideOpTP, Name: "//"}
	ModOpAst          = OpAst{OpTP: BinaryOPTP, Op: ModOpTP, Name: "%"}
	EqualOpAst        = OpAst{OpTP: BinaryOPTP, Op: EqualOpTP, Name: "=="}
	NotEqualOpAst     = OpAst{OpTP: BinaryOPTP, Op: NotEqualOpTP, Name: "!="}
	LessOpAst         = OpAst{OpTP: BinaryOPTP, Op: LessOpTP, Name: "<"}
	LessEqualOpAst    = OpAst{OpTP: BinaryOPTP, Op: LessEqualOpTP, Name: "<="}
	GreatOpAst        = OpAst{OpTP: BinaryOPTP, Op: GreaterOpTP, Name: ">"}
	GreatEqualOpAst   = OpAst{OpTP: BinaryOPTP, Op: GreaterEqualOpTP, Name: ">="}
	IsOpAst           = OpAst{OpTP: BinaryOPTP, Op: IsOpTP, Name: "is"}
	NegationOpAst     = OpAst{OpTP: UnaryOPTP, Op: NegationOpTP, Name: "-"}
	BooleanNegationOp = OpAst{OpTP: UnaryOPTP, Op: BooleanNegationOpTP, Name: "not"}
)

var binaryOps = map[string]OpAst{
	"+": AddOpAst, "-": MinusOpAst, "*": MultipleOpAst, "//": DivideOpAst, "%": ModOpAst,
	"==": EqualOpAst, "!=": NotEqualOpAst, "<": LessOpAst, "<=": LessEqualOpAst, ">": GreatOpAst,
	">=": GreatEqualOpAst, "is": IsOpAst,
}

var unaryOps = map[string]OpAst{
	"-": NegationOpAst, "not": BooleanNegationOp,
}

// LookUpBinaryOp returns the binary operator spelled name.
func LookUpBinaryOp(name string) (*OpAst, bool) {
	op, ok := binaryOps[name]
	if !ok {
		return nil, false
	}
	return &op, true
}

// LookUpUnaryOp returns the unary operator spelled name.
func LookUpUnaryOp(name string) (*OpAst, bool) {
	op, ok := unaryOps[name]
	if !ok {
		return nil, false
	}
	return &op, true
}

func (op OpAst) String() string {
	return op.Name
}
