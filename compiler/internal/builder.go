package internal

// Helpers to build untyped program trees. The JSON decoder and the tests both construct trees through them.

func NumberLiteral(value int32) *LiteralAst {
	return &LiteralAst{TP: NumberLiteralTP, Number: value}
}

func BoolLiteral(value bool) *LiteralAst {
	return &LiteralAst{TP: BoolLiteralTP, Bool: value}
}

func NoneLiteral() *LiteralAst {
	return &LiteralAst{TP: NoneLiteralTP}
}

func LiteralExpr(lit *LiteralAst) *ExpressionAst {
	return &ExpressionAst{ExpressionTP: LiteralExpressionTP, Literal: lit}
}

func NumberExpr(value int32) *ExpressionAst {
	return LiteralExpr(NumberLiteral(value))
}

func BoolExpr(value bool) *ExpressionAst {
	return LiteralExpr(BoolLiteral(value))
}

func NoneExpr() *ExpressionAst {
	return LiteralExpr(NoneLiteral())
}

func IdentifierExpr(name string) *ExpressionAst {
	return &ExpressionAst{ExpressionTP: IdentifierExpressionTP, Name: name}
}

// MemberExpr is obj.name.
func MemberExpr(obj *ExpressionAst, name string) *ExpressionAst {
	return &ExpressionAst{ExpressionTP: IdentifierExpressionTP, Name: name, Object: obj}
}

func UnaryExpr(op OpAst, operand *ExpressionAst) *ExpressionAst {
	return &ExpressionAst{ExpressionTP: UnaryExpressionTP, Op: &op, Left: operand}
}

func BinaryExpr(op OpAst, left, right *ExpressionAst) *ExpressionAst {
	return &ExpressionAst{ExpressionTP: BinaryExpressionTP, Op: &op, Left: left, Right: right}
}

func CallExpr(funcName string, params ...*ExpressionAst) *ExpressionAst {
	return &ExpressionAst{ExpressionTP: CallExpressionTP, Call: &CallAst{FuncName: funcName, Params: params}}
}

// MethodCallExpr is obj.funcName(params...).
func MethodCallExpr(obj *ExpressionAst, funcName string, params ...*ExpressionAst) *ExpressionAst {
	return &ExpressionAst{
		ExpressionTP: CallExpressionTP,
		Call:         &CallAst{FuncProvider: obj, FuncName: funcName, Params: params},
	}
}

func ConstructorExpr(className string) *ExpressionAst {
	return &ExpressionAst{ExpressionTP: ConstructorExpressionTP, Call: &CallAst{FuncName: className}}
}

func AssignStatement(target, value *ExpressionAst) *StatementAst {
	return &StatementAst{StatementTP: AssignStatementTP, Statement: &AssignStatementAst{Target: target, Value: value}}
}

func IfStatement(cond *ExpressionAst, then, els []*StatementAst) *StatementAst {
	return &StatementAst{StatementTP: IfStatementTP, Statement: &IfStatementAst{
		Condition:        cond,
		IfTrueStatements: then,
		ElseStatements:   els,
	}}
}

func WhileStatement(cond *ExpressionAst, loop []*StatementAst) *StatementAst {
	return &StatementAst{StatementTP: WhileStatementTP, Statement: &WhileStatementAst{Condition: cond, Statements: loop}}
}

func PassStatement() *StatementAst {
	return &StatementAst{StatementTP: PassStatementTP}
}

func ReturnStatement(value *ExpressionAst) *StatementAst {
	return &StatementAst{StatementTP: ReturnStatementTP, Statement: &ReturnStatementAst{Return: value}}
}

func ExpressionStatement(expr *ExpressionAst) *StatementAst {
	return &StatementAst{StatementTP: ExpressionStatementTP, Statement: &ExpressionStatementAst{Expression: expr}}
}

func PlaceholderStatement(tp StatementType) *StatementAst {
	return &StatementAst{StatementTP: tp}
}

func VarInit(name string, tp VariableType, init *LiteralAst) *VarInitAst {
	return &VarInitAst{VarName: name, VarType: tp, Init: init}
}

func Param(name string, tp VariableType) *FuncParamAst {
	return &FuncParamAst{ParamName: name, ParamTP: tp}
}

func FuncDef(name string, params []*FuncParamAst, ret VariableType, body *BodyAst) *FuncDefAst {
	if body == nil {
		body = &BodyAst{}
	}
	return &FuncDefAst{FuncName: name, Params: params, ReturnTP: ret, FuncBody: body}
}

func ClassDef(name, super string, body *BodyAst) *ClassDefAst {
	if body == nil {
		body = &BodyAst{}
	}
	return &ClassDefAst{ClassName: name, SuperClassName: super, ClassBody: body}
}
