package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/xiaobogaga/chocopy/util"
)

// The program tree is exchanged as JSON in the shape the converter produces: every statement, expression,
// literal and type is an object tagged by "tag". A checked tree is written in the same shape with the type of
// each node under "a".

type jsonBody struct {
	A         *jsonType       `json:"a,omitempty"`
	VarInits  []*jsonVarInit  `json:"varinits"`
	ClassDefs []*jsonClassDef `json:"classdefs"`
	FuncDefs  []*jsonFuncDef  `json:"funcdefs"`
	Stmts     []*jsonStmt     `json:"stmts"`
}

type jsonType struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type jsonLiteral struct {
	Tag   string          `json:"tag"`
	Value json.RawMessage `json:"value,omitempty"`
}

type jsonVarInit struct {
	Name string       `json:"name"`
	Type jsonType     `json:"type"`
	Init *jsonLiteral `json:"init"`
}

type jsonTypedVar struct {
	Name string   `json:"name"`
	Type jsonType `json:"type"`
}

type jsonFuncDef struct {
	Name   string          `json:"name"`
	Params []*jsonTypedVar `json:"params"`
	Ret    jsonType        `json:"ret"`
	Body   *jsonBody       `json:"body"`
}

type jsonClassDef struct {
	Name  string    `json:"name"`
	Super string    `json:"super"`
	Body  *jsonBody `json:"body"`
}

type jsonStmt struct {
	Tag    string      `json:"tag"`
	Target *jsonExpr   `json:"target,omitempty"`
	Value  *jsonExpr   `json:"value,omitempty"`
	Cond   *jsonExpr   `json:"cond,omitempty"`
	Then   []*jsonStmt `json:"then,omitempty"`
	Else   []*jsonStmt `json:"else,omitempty"`
	Loop   []*jsonStmt `json:"loop,omitempty"`
	Ret    *jsonExpr   `json:"ret,omitempty"`
	Expr   *jsonExpr   `json:"expr,omitempty"`
}

type jsonExpr struct {
	A     *jsonType    `json:"a,omitempty"`
	Tag   string       `json:"tag"`
	Value *jsonLiteral `json:"value,omitempty"`
	Name  string       `json:"name,omitempty"`
	Obj   *jsonExpr    `json:"obj,omitempty"`
	Op    string       `json:"op,omitempty"`
	Expr  *jsonExpr    `json:"expr,omitempty"`
	Lhs   *jsonExpr    `json:"lhs,omitempty"`
	Rhs   *jsonExpr    `json:"rhs,omitempty"`
	// A call names its callee either through func, an id expression, or directly with name and obj.
	Func *jsonExpr   `json:"func,omitempty"`
	Args []*jsonExpr `json:"args,omitempty"`
}

// DecodeJSON reads a program tree. Unknown tags and malformed nodes are errors.
func DecodeJSON(r io.Reader) (*BodyAst, error) {
	body := &jsonBody{}
	err := json.NewDecoder(r).Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode program tree: %w", err)
	}
	return body.decode()
}

func (body *jsonBody) decode() (*BodyAst, error) {
	if body == nil {
		return &BodyAst{}, nil
	}
	ast := &BodyAst{}
	for _, varInit := range body.VarInits {
		decoded, err := varInit.decode()
		if err != nil {
			return nil, err
		}
		ast.VarInits = append(ast.VarInits, decoded)
	}
	for _, classDef := range body.ClassDefs {
		err := checkIdentifier(classDef.Name)
		if err != nil {
			return nil, fmt.Errorf("class: %w", err)
		}
		classBody, err := classDef.Body.decode()
		if err != nil {
			return nil, err
		}
		ast.ClassDefs = append(ast.ClassDefs, ClassDef(classDef.Name, classDef.Super, classBody))
	}
	for _, funcDef := range body.FuncDefs {
		decoded, err := funcDef.decode()
		if err != nil {
			return nil, err
		}
		ast.FuncDefs = append(ast.FuncDefs, decoded)
	}
	statements, err := decodeStatements(body.Stmts)
	if err != nil {
		return nil, err
	}
	ast.Statements = statements
	return ast, nil
}

func (tp jsonType) decode() (VariableType, error) {
	switch tp.Tag {
	case "primitive":
		switch tp.Name {
		case "int":
			return IntType, nil
		case "bool":
			return BoolType, nil
		}
		return VariableType{}, fmt.Errorf("unknown primitive type %q", tp.Name)
	case "object":
		if tp.Name == "" {
			return VariableType{}, fmt.Errorf("object type without a name")
		}
		err := checkIdentifier(tp.Name)
		if err != nil {
			return VariableType{}, err
		}
		return ClassType(tp.Name), nil
	}
	return VariableType{}, fmt.Errorf("unknown type tag %q", tp.Tag)
}

func (lit *jsonLiteral) decode() (*LiteralAst, error) {
	if lit == nil {
		return nil, fmt.Errorf("missing literal")
	}
	switch lit.Tag {
	case "number":
		var value int64
		err := json.Unmarshal(lit.Value, &value)
		if err != nil {
			return nil, fmt.Errorf("number literal: %w", err)
		}
		if value > math.MaxInt32 || value < math.MinInt32 {
			return nil, fmt.Errorf("number literal %d does not fit in 32 bits", value)
		}
		return NumberLiteral(int32(value)), nil
	case "bool":
		var value bool
		err := json.Unmarshal(lit.Value, &value)
		if err != nil {
			return nil, fmt.Errorf("bool literal: %w", err)
		}
		return BoolLiteral(value), nil
	case "none":
		return NoneLiteral(), nil
	}
	return nil, fmt.Errorf("unknown literal tag %q", lit.Tag)
}

func (varInit *jsonVarInit) decode() (*VarInitAst, error) {
	err := checkIdentifier(varInit.Name)
	if err != nil {
		return nil, fmt.Errorf("variable: %w", err)
	}
	tp, err := varInit.Type.decode()
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", varInit.Name, err)
	}
	init, err := varInit.Init.decode()
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", varInit.Name, err)
	}
	return VarInit(varInit.Name, tp, init), nil
}

func (funcDef *jsonFuncDef) decode() (*FuncDefAst, error) {
	err := checkIdentifier(funcDef.Name)
	if err != nil {
		return nil, fmt.Errorf("function: %w", err)
	}
	var params []*FuncParamAst
	for _, param := range funcDef.Params {
		err := checkIdentifier(param.Name)
		if err != nil {
			return nil, fmt.Errorf("param of %s: %w", funcDef.Name, err)
		}
		tp, err := param.Type.decode()
		if err != nil {
			return nil, fmt.Errorf("param %s of %s: %w", param.Name, funcDef.Name, err)
		}
		params = append(params, Param(param.Name, tp))
	}
	ret, err := funcDef.Ret.decode()
	if err != nil {
		return nil, fmt.Errorf("return type of %s: %w", funcDef.Name, err)
	}
	body, err := funcDef.Body.decode()
	if err != nil {
		return nil, err
	}
	return FuncDef(funcDef.Name, params, ret, body), nil
}

// checkIdentifier accepts the names that can be written as an identifier of the program and, prefixed with $, of
// the generated module.
func checkIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if util.IsNumber(name[0]) {
		return fmt.Errorf("name %q starts with a digit", name)
	}
	for i := 0; i < len(name); i++ {
		if !util.IsLetterOrUnderscoreOrNumber(name[i]) {
			return fmt.Errorf("invalid character %q in name %q", name[i], name)
		}
	}
	return nil
}

func decodeStatements(statements []*jsonStmt) ([]*StatementAst, error) {
	decoded := make([]*StatementAst, 0, len(statements))
	for _, stm := range statements {
		ast, err := stm.decode()
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, ast)
	}
	return decoded, nil
}

func (stm *jsonStmt) decode() (*StatementAst, error) {
	switch stm.Tag {
	case "assign":
		target, err := stm.Target.decode()
		if err != nil {
			return nil, err
		}
		value, err := stm.Value.decode()
		if err != nil {
			return nil, err
		}
		return AssignStatement(target, value), nil
	case "if":
		cond, err := stm.Cond.decode()
		if err != nil {
			return nil, err
		}
		then, err := decodeStatements(stm.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeStatements(stm.Else)
		if err != nil {
			return nil, err
		}
		return IfStatement(cond, then, els), nil
	case "while":
		cond, err := stm.Cond.decode()
		if err != nil {
			return nil, err
		}
		loop, err := decodeStatements(stm.Loop)
		if err != nil {
			return nil, err
		}
		return WhileStatement(cond, loop), nil
	case "pass":
		return PassStatement(), nil
	case "return":
		// A bare return has no ret.
		if stm.Ret == nil {
			return ReturnStatement(nil), nil
		}
		ret, err := stm.Ret.decode()
		if err != nil {
			return nil, err
		}
		return ReturnStatement(ret), nil
	case "expr":
		expr, err := stm.Expr.decode()
		if err != nil {
			return nil, err
		}
		return ExpressionStatement(expr), nil
	case "varInit":
		return PlaceholderStatement(VarInitStatementTP), nil
	case "funcDef":
		return PlaceholderStatement(FuncDefStatementTP), nil
	case "classDef":
		return PlaceholderStatement(ClassDefStatementTP), nil
	}
	return nil, fmt.Errorf("unknown statement tag %q", stm.Tag)
}

func (expr *jsonExpr) decode() (*ExpressionAst, error) {
	if expr == nil {
		return nil, fmt.Errorf("missing expression")
	}
	switch expr.Tag {
	case "literal":
		lit, err := expr.Value.decode()
		if err != nil {
			return nil, err
		}
		return LiteralExpr(lit), nil
	case "id":
		err := checkIdentifier(expr.Name)
		if err != nil {
			return nil, err
		}
		if expr.Obj == nil {
			return IdentifierExpr(expr.Name), nil
		}
		obj, err := expr.Obj.decode()
		if err != nil {
			return nil, err
		}
		return MemberExpr(obj, expr.Name), nil
	case "uniexpr":
		op, ok := LookUpUnaryOp(expr.Op)
		if !ok {
			return nil, fmt.Errorf("unknown unary operator %q", expr.Op)
		}
		operand, err := expr.Expr.decode()
		if err != nil {
			return nil, err
		}
		return UnaryExpr(*op, operand), nil
	case "binexpr":
		op, ok := LookUpBinaryOp(expr.Op)
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %q", expr.Op)
		}
		left, err := expr.Lhs.decode()
		if err != nil {
			return nil, err
		}
		right, err := expr.Rhs.decode()
		if err != nil {
			return nil, err
		}
		return BinaryExpr(*op, left, right), nil
	case "call":
		return expr.decodeCall()
	case "constructor":
		err := checkIdentifier(expr.Name)
		if err != nil {
			return nil, err
		}
		return ConstructorExpr(expr.Name), nil
	}
	return nil, fmt.Errorf("unknown expression tag %q", expr.Tag)
}

func (expr *jsonExpr) decodeCall() (*ExpressionAst, error) {
	name, obj := expr.Name, expr.Obj
	if expr.Func != nil {
		if expr.Func.Tag != "id" {
			return nil, fmt.Errorf("cannot call a %q expression", expr.Func.Tag)
		}
		name, obj = expr.Func.Name, expr.Func.Obj
	}
	err := checkIdentifier(name)
	if err != nil {
		return nil, err
	}
	args := make([]*ExpressionAst, 0, len(expr.Args))
	for _, arg := range expr.Args {
		decoded, err := arg.decode()
		if err != nil {
			return nil, err
		}
		args = append(args, decoded)
	}
	if obj == nil {
		return CallExpr(name, args...), nil
	}
	receiver, err := obj.decode()
	if err != nil {
		return nil, err
	}
	return MethodCallExpr(receiver, name, args...), nil
}

// EncodeJSON writes a program tree, checked or not, in the shape DecodeJSON reads.
func EncodeJSON(w io.Writer, program *BodyAst) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(encodeBody(program))
}

func encodeType(tp VariableType) jsonType {
	if tp.IsObject() {
		return jsonType{Tag: "object", Name: tp.Name}
	}
	return jsonType{Tag: "primitive", Name: tp.String()}
}

func encodeAnnotation(tp *VariableType) *jsonType {
	if tp == nil {
		return nil
	}
	encoded := encodeType(*tp)
	return &encoded
}

func encodeLiteral(lit *LiteralAst) *jsonLiteral {
	switch lit.TP {
	case NumberLiteralTP:
		return &jsonLiteral{Tag: "number", Value: json.RawMessage(fmt.Sprintf("%d", lit.Number))}
	case BoolLiteralTP:
		return &jsonLiteral{Tag: "bool", Value: json.RawMessage(fmt.Sprintf("%t", lit.Bool))}
	}
	return &jsonLiteral{Tag: "none"}
}

func encodeBody(body *BodyAst) *jsonBody {
	encoded := &jsonBody{
		A:         encodeAnnotation(body.TP),
		VarInits:  []*jsonVarInit{},
		ClassDefs: []*jsonClassDef{},
		FuncDefs:  []*jsonFuncDef{},
		Stmts:     encodeStatements(body.Statements),
	}
	for _, varInit := range body.VarInits {
		encoded.VarInits = append(encoded.VarInits, &jsonVarInit{
			Name: varInit.VarName,
			Type: encodeType(varInit.VarType),
			Init: encodeLiteral(varInit.Init),
		})
	}
	for _, classDef := range body.ClassDefs {
		encoded.ClassDefs = append(encoded.ClassDefs, &jsonClassDef{
			Name:  classDef.ClassName,
			Super: classDef.SuperClassName,
			Body:  encodeBody(classDef.ClassBody),
		})
	}
	for _, funcDef := range body.FuncDefs {
		fn := &jsonFuncDef{Name: funcDef.FuncName, Ret: encodeType(funcDef.ReturnTP), Body: encodeBody(funcDef.FuncBody)}
		for _, param := range funcDef.Params {
			fn.Params = append(fn.Params, &jsonTypedVar{Name: param.ParamName, Type: encodeType(param.ParamTP)})
		}
		encoded.FuncDefs = append(encoded.FuncDefs, fn)
	}
	return encoded
}

func encodeStatements(statements []*StatementAst) []*jsonStmt {
	encoded := make([]*jsonStmt, 0, len(statements))
	for _, stm := range statements {
		encoded = append(encoded, encodeStatement(stm))
	}
	return encoded
}

func encodeStatement(stm *StatementAst) *jsonStmt {
	switch stm.StatementTP {
	case AssignStatementTP:
		assign := stm.Statement.(*AssignStatementAst)
		return &jsonStmt{Tag: "assign", Target: encodeExpression(assign.Target), Value: encodeExpression(assign.Value)}
	case IfStatementTP:
		ifStm := stm.Statement.(*IfStatementAst)
		return &jsonStmt{
			Tag:  "if",
			Cond: encodeExpression(ifStm.Condition),
			Then: encodeStatements(ifStm.IfTrueStatements),
			Else: encodeStatements(ifStm.ElseStatements),
		}
	case WhileStatementTP:
		whileStm := stm.Statement.(*WhileStatementAst)
		return &jsonStmt{Tag: "while", Cond: encodeExpression(whileStm.Condition), Loop: encodeStatements(whileStm.Statements)}
	case ReturnStatementTP:
		ret := stm.Statement.(*ReturnStatementAst).Return
		if ret == nil {
			return &jsonStmt{Tag: "return"}
		}
		return &jsonStmt{Tag: "return", Ret: encodeExpression(ret)}
	case ExpressionStatementTP:
		return &jsonStmt{Tag: "expr", Expr: encodeExpression(stm.Statement.(*ExpressionStatementAst).Expression)}
	}
	return &jsonStmt{Tag: stm.StatementTP.String()}
}

func encodeExpression(expr *ExpressionAst) *jsonExpr {
	if expr == nil {
		return nil
	}
	encoded := &jsonExpr{A: encodeAnnotation(expr.TP), Tag: expr.ExpressionTP.String()}
	switch expr.ExpressionTP {
	case LiteralExpressionTP:
		encoded.Value = encodeLiteral(expr.Literal)
	case IdentifierExpressionTP:
		encoded.Name = expr.Name
		encoded.Obj = encodeExpression(expr.Object)
	case UnaryExpressionTP:
		encoded.Op = expr.Op.Name
		encoded.Expr = encodeExpression(expr.Left)
	case BinaryExpressionTP:
		encoded.Op = expr.Op.Name
		encoded.Lhs = encodeExpression(expr.Left)
		encoded.Rhs = encodeExpression(expr.Right)
	case CallExpressionTP:
		encoded.Name = expr.Call.FuncName
		encoded.Obj = encodeExpression(expr.Call.FuncProvider)
		encoded.Args = make([]*jsonExpr, 0, len(expr.Call.Params))
		for _, param := range expr.Call.Params {
			encoded.Args = append(encoded.Args, encodeExpression(param))
		}
	case ConstructorExpressionTP:
		encoded.Name = expr.Call.FuncName
	}
	return encoded
}
