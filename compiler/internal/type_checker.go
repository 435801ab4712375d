package internal

// The type checker never changes the tree it is given. Every check returns a new, annotated node, so a checked tree
// can be checked again and must come out the same.

type typeEnv map[string]VariableType

// scopeEnv is the two level environment of the statements being checked. Lookups see both levels with local
// winning; assignments may only target local. It is passed by value and never extended by blocks.
type scopeEnv struct {
	local    typeEnv
	nonLocal typeEnv
	// nil at the top level.
	returnTP *VariableType
	where    string
}

func (env scopeEnv) lookUp(name string) (VariableType, bool) {
	tp, ok := env.local[name]
	if ok {
		return tp, true
	}
	tp, ok = env.nonLocal[name]
	return tp, ok
}

type typeChecker struct {
	table *SymbolTable
}

// TypeCheck checks program and returns the annotated copy of it.
func TypeCheck(program *BodyAst) (*BodyAst, error) {
	checked, _, err := typeCheckProgram(program)
	return checked, err
}

func typeCheckProgram(program *BodyAst) (*BodyAst, *SymbolTable, error) {
	table, err := buildSymbolTable(program)
	if err != nil {
		return nil, nil, err
	}
	checker := &typeChecker{table: table}
	checked, err := checker.typeCheckTopLevel(program)
	if err != nil {
		return nil, nil, err
	}
	return checked, table, nil
}

func (checker *typeChecker) typeCheckTopLevel(program *BodyAst) (*BodyAst, error) {
	checked := &BodyAst{}
	varInits, err := typeCheckVarInits(program.VarInits)
	if err != nil {
		return nil, err
	}
	checked.VarInits = varInits
	for _, funcDef := range program.FuncDefs {
		fn, err := checker.typeCheckFuncDef(funcDef, "")
		if err != nil {
			return nil, err
		}
		checked.FuncDefs = append(checked.FuncDefs, fn)
	}
	for _, classDef := range program.ClassDefs {
		class, err := checker.typeCheckClassDef(classDef)
		if err != nil {
			return nil, err
		}
		checked.ClassDefs = append(checked.ClassDefs, class)
	}
	// At the top level the globals are the local scope, so they can be assigned.
	env := scopeEnv{local: typeEnv(checker.table.Variables), nonLocal: typeEnv{}, where: "top level"}
	statements, err := checker.typeCheckStatements(program.Statements, env, true)
	if err != nil {
		return nil, err
	}
	checked.Statements = statements
	programTP := NoneType
	if len(statements) > 0 && statements[len(statements)-1].StatementTP == ExpressionStatementTP {
		programTP = *statements[len(statements)-1].Statement.(*ExpressionStatementAst).Expression.TP
	}
	checked.TP = &programTP
	return checked, nil
}

func typeCheckVarInits(inits []*VarInitAst) ([]*VarInitAst, error) {
	checked := make([]*VarInitAst, 0, len(inits))
	for _, init := range inits {
		if init.Init == nil {
			return nil, makeSemanticError(InitializerMismatch, "Variable %s has no initializer", init.VarName)
		}
		litTP := init.Init.Type()
		if init.VarType.IsObject() != litTP.IsObject() {
			return nil, makeSemanticError(InitializerMismatch, "Cannot initialize variable %s of type %s with value "+
				"of type %s", init.VarName, init.VarType, litTP)
		}
		if !init.VarType.IsObject() && !init.VarType.Equal(litTP) {
			return nil, makeSemanticError(InitializerMismatch, "Cannot initialize variable %s of type %s with value "+
				"of type %s", init.VarName, init.VarType, litTP)
		}
		if init.VarType.IsObject() && !litTP.IsNone() {
			return nil, makeSemanticError(InitializerMismatch, "Object %s could only be initialized with None",
				init.VarName)
		}
		lit := *init.Init
		checked = append(checked, &VarInitAst{VarName: init.VarName, VarType: init.VarType, Init: &lit})
	}
	return checked, nil
}

func (checker *typeChecker) typeCheckClassDef(classDef *ClassDefAst) (*ClassDefAst, error) {
	body := classDef.ClassBody
	if len(body.ClassDefs) > 0 {
		return nil, makeSemanticError(InvalidBody, "Nested class %s in class %s is not supported",
			body.ClassDefs[0].ClassName, classDef.ClassName)
	}
	sawPass := false
	for _, stm := range body.Statements {
		switch {
		case stm.StatementTP == PassStatementTP:
			sawPass = true
		case !stm.StatementTP.isPlaceholder():
			return nil, makeSemanticError(InvalidBody, "Class %s body can only hold fields and methods, got %s "+
				"statement", classDef.ClassName, stm.StatementTP)
		case sawPass:
			return nil, makeSemanticError(InvalidBody, "Definition placeholder %s after statements in class %s",
				stm.StatementTP, classDef.ClassName)
		}
	}
	fields, err := typeCheckVarInits(body.VarInits)
	if err != nil {
		return nil, err
	}
	checked := &ClassDefAst{
		ClassName:      classDef.ClassName,
		SuperClassName: classDef.SuperClassName,
		ClassBody:      &BodyAst{VarInits: fields},
	}
	for _, method := range methodsWithConstructor(classDef) {
		fn, err := checker.typeCheckFuncDef(method, classDef.ClassName)
		if err != nil {
			return nil, err
		}
		checked.ClassBody.FuncDefs = append(checked.ClassBody.FuncDefs, fn)
	}
	return checked, nil
}

func (checker *typeChecker) typeCheckFuncDef(funcDef *FuncDefAst, className string) (*FuncDefAst, error) {
	where := funcDef.FuncName
	if className != "" {
		where = className + "." + funcDef.FuncName
	}
	body := funcDef.FuncBody
	if len(body.FuncDefs) > 0 || len(body.ClassDefs) > 0 {
		return nil, makeSemanticError(Unsupported, "Nested definitions in %s are not supported", where)
	}
	locals, err := buildLocalTable(funcDef)
	if err != nil {
		return nil, err
	}
	for _, varInit := range body.VarInits {
		err = checker.table.checkTypeExist(varInit.VarType, "variable "+varInit.VarName+" of "+where)
		if err != nil {
			return nil, err
		}
	}
	varInits, err := typeCheckVarInits(body.VarInits)
	if err != nil {
		return nil, err
	}
	returnTP := funcDef.ReturnTP
	env := scopeEnv{
		local:    locals,
		nonLocal: typeEnv(checker.table.Variables),
		returnTP: &returnTP,
		where:    where,
	}
	statements, err := checker.typeCheckStatements(body.Statements, env, true)
	if err != nil {
		return nil, err
	}
	if !returnsOnAllPaths(statements) {
		if !returnTP.IsNone() {
			return nil, makeSemanticError(MissingReturn, "All paths in this method / function must have a return "+
				"value: %s", where)
		}
		statements = append(statements, implicitReturn())
	}
	params := make([]*FuncParamAst, 0, len(funcDef.Params))
	for _, param := range funcDef.Params {
		params = append(params, Param(param.ParamName, param.ParamTP))
	}
	return &FuncDefAst{
		FuncName:  funcDef.FuncName,
		ClassName: className,
		Params:    params,
		ReturnTP:  returnTP,
		FuncBody:  &BodyAst{VarInits: varInits, Statements: statements},
	}, nil
}

func implicitReturn() *StatementAst {
	none := NoneExpr()
	tp := NoneType
	none.TP = &tp
	return ReturnStatement(none)
}

// typeCheckStatements checks one statement list. Only the list of a whole body may start with the placeholders
// of lifted definitions, and a return must be the last statement of any list.
func (checker *typeChecker) typeCheckStatements(statements []*StatementAst, env scopeEnv, isBody bool) ([]*StatementAst, error) {
	checked := make([]*StatementAst, 0, len(statements))
	for i, stm := range statements {
		if stm.StatementTP.isPlaceholder() {
			if !isBody || len(checked) > 0 {
				return nil, makeSemanticError(InvalidBody, "Definition placeholder %s after statements in %s",
					stm.StatementTP, env.where)
			}
			continue
		}
		if stm.StatementTP == ReturnStatementTP && i != len(statements)-1 {
			return nil, makeSemanticError(InvalidBody, "Unreachable code after return in %s", env.where)
		}
		typed, err := checker.typeCheckStatement(stm, env)
		if err != nil {
			return nil, err
		}
		checked = append(checked, typed)
	}
	return checked, nil
}

func (checker *typeChecker) typeCheckStatement(stm *StatementAst, env scopeEnv) (*StatementAst, error) {
	switch stm.StatementTP {
	case AssignStatementTP:
		return checker.typeCheckAssignStatement(stm.Statement.(*AssignStatementAst), env)
	case IfStatementTP:
		return checker.typeCheckIfStatement(stm.Statement.(*IfStatementAst), env)
	case WhileStatementTP:
		return checker.typeCheckWhileStatement(stm.Statement.(*WhileStatementAst), env)
	case PassStatementTP:
		return PassStatement(), nil
	case ReturnStatementTP:
		return checker.typeCheckReturnStatement(stm.Statement.(*ReturnStatementAst), env)
	case ExpressionStatementTP:
		expr, err := checker.typeCheckExpression(stm.Statement.(*ExpressionStatementAst).Expression, env)
		if err != nil {
			return nil, err
		}
		return ExpressionStatement(expr), nil
	}
	return nil, makeSemanticError(InvalidBody, "Unknown statement %s in %s", stm.StatementTP, env.where)
}

func (checker *typeChecker) typeCheckAssignStatement(ast *AssignStatementAst, env scopeEnv) (*StatementAst, error) {
	target := ast.Target
	if target == nil || target.ExpressionTP != IdentifierExpressionTP {
		return nil, makeSemanticError(InvalidAssignTarget, "Invalid target for assignment in %s", env.where)
	}
	if target.Object != nil {
		return checker.typeCheckMemberAssign(ast, env)
	}
	if _, ok := env.lookUp(target.Name); !ok {
		return nil, makeSemanticError(UndefinedVariable, "Undefined variable: %s", target.Name)
	}
	varTP, ok := env.local[target.Name]
	if !ok {
		return nil, makeSemanticError(NonLocalAssignment, "Cannot assign to non-local variable %s in %s",
			target.Name, env.where)
	}
	value, err := checker.typeCheckExpression(ast.Value, env)
	if err != nil {
		return nil, err
	}
	if !varTP.AssignableFrom(*value.TP) {
		return nil, makeSemanticError(TypeMismatch, "Cannot assign value of type %s to variable %s of type %s",
			value.TP, target.Name, varTP)
	}
	typedTarget := IdentifierExpr(target.Name)
	typedTarget.TP = &varTP
	return AssignStatement(typedTarget, value), nil
}

func (checker *typeChecker) typeCheckMemberAssign(ast *AssignStatementAst, env scopeEnv) (*StatementAst, error) {
	obj, err := checker.typeCheckExpression(ast.Target.Object, env)
	if err != nil {
		return nil, err
	}
	fieldTP, err := checker.fieldType(*obj.TP, ast.Target.Name)
	if err != nil {
		return nil, err
	}
	value, err := checker.typeCheckExpression(ast.Value, env)
	if err != nil {
		return nil, err
	}
	if !fieldTP.AssignableFrom(*value.TP) {
		return nil, makeSemanticError(TypeMismatch, "Cannot assign value of type %s to member %s of type %s",
			value.TP, ast.Target.Name, fieldTP)
	}
	typedTarget := MemberExpr(obj, ast.Target.Name)
	typedTarget.TP = &fieldTP
	return AssignStatement(typedTarget, value), nil
}

func (checker *typeChecker) fieldType(objTP VariableType, fieldName string) (VariableType, error) {
	if !objTP.IsObject() || checker.table.lookUpClass(objTP.Name) == nil {
		return VariableType{}, makeSemanticError(MemberError, "Cannot access property %s of non-class: %s",
			fieldName, objTP)
	}
	fieldTP, ok := checker.table.lookUpField(objTP.Name, fieldName)
	if !ok {
		return VariableType{}, makeSemanticError(MemberError, "Class %s has no property %s", objTP.Name, fieldName)
	}
	return fieldTP, nil
}

func (checker *typeChecker) typeCheckCondition(cond *ExpressionAst, env scopeEnv) (*ExpressionAst, error) {
	typed, err := checker.typeCheckExpression(cond, env)
	if err != nil {
		return nil, err
	}
	if !typed.TP.Equal(BoolType) {
		return nil, makeSemanticError(ConditionNotBool, "Cannot use value of type %s as condition", typed.TP)
	}
	return typed, nil
}

func (checker *typeChecker) typeCheckIfStatement(ast *IfStatementAst, env scopeEnv) (*StatementAst, error) {
	cond, err := checker.typeCheckCondition(ast.Condition, env)
	if err != nil {
		return nil, err
	}
	then, err := checker.typeCheckStatements(ast.IfTrueStatements, env, false)
	if err != nil {
		return nil, err
	}
	els, err := checker.typeCheckStatements(ast.ElseStatements, env, false)
	if err != nil {
		return nil, err
	}
	return IfStatement(cond, then, els), nil
}

func (checker *typeChecker) typeCheckWhileStatement(ast *WhileStatementAst, env scopeEnv) (*StatementAst, error) {
	cond, err := checker.typeCheckCondition(ast.Condition, env)
	if err != nil {
		return nil, err
	}
	loop, err := checker.typeCheckStatements(ast.Statements, env, false)
	if err != nil {
		return nil, err
	}
	return WhileStatement(cond, loop), nil
}

func (checker *typeChecker) typeCheckReturnStatement(ast *ReturnStatementAst, env scopeEnv) (*StatementAst, error) {
	if env.returnTP == nil {
		return nil, makeSemanticError(TopLevelReturn, "Return Statement cannot appear at the top level")
	}
	// A bare return returns None.
	value := ast.Return
	if value == nil {
		value = NoneExpr()
	}
	typed, err := checker.typeCheckExpression(value, env)
	if err != nil {
		return nil, err
	}
	if !env.returnTP.AssignableFrom(*typed.TP) {
		return nil, makeSemanticError(TypeMismatch, "Cannot return value of type %s from %s with return type %s",
			typed.TP, env.where, env.returnTP)
	}
	return ReturnStatement(typed), nil
}

// typeCheckExpression checks expr and returns a copy with the type of every node set.
func (checker *typeChecker) typeCheckExpression(expr *ExpressionAst, env scopeEnv) (*ExpressionAst, error) {
	if expr == nil {
		return nil, makeSemanticError(InvalidBody, "Missing expression in %s", env.where)
	}
	switch expr.ExpressionTP {
	case LiteralExpressionTP:
		lit := *expr.Literal
		typed := LiteralExpr(&lit)
		return withType(typed, lit.Type()), nil
	case IdentifierExpressionTP:
		return checker.typeCheckIdentifier(expr, env)
	case UnaryExpressionTP:
		return checker.typeCheckUnaryExpression(expr, env)
	case BinaryExpressionTP:
		return checker.typeCheckBinaryExpression(expr, env)
	case CallExpressionTP:
		if expr.Call.FuncProvider != nil {
			return checker.typeCheckMethodCall(expr.Call, env)
		}
		return checker.typeCheckCall(expr.Call, env)
	case ConstructorExpressionTP:
		return checker.typeCheckConstructor(expr.Call)
	}
	return nil, makeSemanticError(InvalidBody, "Unknown expression %s in %s", expr.ExpressionTP, env.where)
}

func withType(expr *ExpressionAst, tp VariableType) *ExpressionAst {
	expr.TP = &tp
	return expr
}

func (checker *typeChecker) typeCheckIdentifier(expr *ExpressionAst, env scopeEnv) (*ExpressionAst, error) {
	if expr.Object == nil {
		tp, ok := env.lookUp(expr.Name)
		if !ok {
			return nil, makeSemanticError(UndefinedVariable, "Undefined variable %s", expr.Name)
		}
		return withType(IdentifierExpr(expr.Name), tp), nil
	}
	obj, err := checker.typeCheckExpression(expr.Object, env)
	if err != nil {
		return nil, err
	}
	fieldTP, err := checker.fieldType(*obj.TP, expr.Name)
	if err != nil {
		return nil, err
	}
	return withType(MemberExpr(obj, expr.Name), fieldTP), nil
}

func (checker *typeChecker) typeCheckUnaryExpression(expr *ExpressionAst, env scopeEnv) (*ExpressionAst, error) {
	operand, err := checker.typeCheckExpression(expr.Left, env)
	if err != nil {
		return nil, err
	}
	typed := UnaryExpr(*expr.Op, operand)
	switch expr.Op.Op {
	case NegationOpTP:
		if !operand.TP.Equal(IntType) {
			return nil, makeSemanticError(OperatorMismatch, "Cannot apply operator %s to type %s", expr.Op, operand.TP)
		}
		return withType(typed, IntType), nil
	case BooleanNegationOpTP:
		return withType(typed, BoolType), nil
	}
	return nil, makeSemanticError(OperatorMismatch, "Unknown unary operator %s", expr.Op)
}

func (checker *typeChecker) typeCheckBinaryExpression(expr *ExpressionAst, env scopeEnv) (*ExpressionAst, error) {
	left, err := checker.typeCheckExpression(expr.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := checker.typeCheckExpression(expr.Right, env)
	if err != nil {
		return nil, err
	}
	typed := BinaryExpr(*expr.Op, left, right)
	l, r := *left.TP, *right.TP
	mismatch := makeSemanticError(OperatorMismatch, "Cannot operate %s type and %s type with operator %s", l, r, expr.Op)
	// is compares references, so any two object types can meet, including None.
	if expr.Op.Op == IsOpTP {
		if !l.IsObject() || !r.IsObject() {
			return nil, mismatch
		}
		return withType(typed, BoolType), nil
	}
	// false and None share the zero word. Requiring equal types keeps them from ever being compared.
	if !l.Equal(r) {
		return nil, mismatch
	}
	switch expr.Op.Op {
	case EqualOpTP, NotEqualOpTP:
		if l.Equal(IntType) || l.Equal(BoolType) {
			return withType(typed, BoolType), nil
		}
	case LessOpTP, LessEqualOpTP, GreaterOpTP, GreaterEqualOpTP:
		if l.Equal(IntType) {
			return withType(typed, BoolType), nil
		}
	case AddOpTP, MinusOpTP, MultipleOpTP, DivideOpTP, ModOpTP:
		if l.Equal(IntType) {
			return withType(typed, IntType), nil
		}
	}
	return nil, mismatch
}

func (checker *typeChecker) typeCheckArguments(params []*ExpressionAst, env scopeEnv) ([]*ExpressionAst, error) {
	typed := make([]*ExpressionAst, 0, len(params))
	for _, param := range params {
		arg, err := checker.typeCheckExpression(param, env)
		if err != nil {
			return nil, err
		}
		typed = append(typed, arg)
	}
	return typed, nil
}

// checkArgumentTypes matches args against paramTypes. Every arg must be assignable to its param, equality is not
// required.
func checkArgumentTypes(funcName string, paramTypes []VariableType, args []*ExpressionAst) error {
	if len(paramTypes) != len(args) {
		return makeSemanticError(ArityError, "Function %s expects %d arguments but %d given", funcName,
			len(paramTypes), len(args))
	}
	for i, arg := range args {
		if !paramTypes[i].AssignableFrom(*arg.TP) {
			return makeSemanticError(TypeMismatch, "Function %s expects argument %d to be %s, but %s given",
				funcName, i, paramTypes[i], arg.TP)
		}
	}
	return nil
}

func (checker *typeChecker) typeCheckCall(call *CallAst, env scopeEnv) (*ExpressionAst, error) {
	callTP, fn := checker.table.resolveCall(call.FuncName)
	switch callTP {
	case ConstructorCallTP:
		return checker.typeCheckConstructor(call)
	case UnresolvedCallTP:
		return nil, makeSemanticError(UndefinedFunction, "Undefined function %s", call.FuncName)
	}
	args, err := checker.typeCheckArguments(call.Params, env)
	if err != nil {
		return nil, err
	}
	typed := &CallAst{FuncName: call.FuncName, Params: args, CallTP: callTP}
	if fn == nil {
		// print: the argument type picks the host function.
		if len(args) != 1 {
			return nil, makeSemanticError(ArityError, "Function %s expects 1 argument but %d given",
				printFuncName, len(args))
		}
		typed.Target = printTarget(*args[0].TP)
		return withType(&ExpressionAst{ExpressionTP: CallExpressionTP, Call: typed}, NoneType), nil
	}
	err = checkArgumentTypes(call.FuncName, fn.ParamTypes, args)
	if err != nil {
		return nil, err
	}
	typed.Target = fn.Name
	return withType(&ExpressionAst{ExpressionTP: CallExpressionTP, Call: typed}, fn.ReturnType), nil
}

func (checker *typeChecker) typeCheckConstructor(call *CallAst) (*ExpressionAst, error) {
	className := call.FuncName
	if checker.table.lookUpClass(className) == nil {
		return nil, makeSemanticError(UndefinedFunction, "Undefined class %s", className)
	}
	if len(call.Params) != 0 {
		return nil, makeSemanticError(ArityError, "Constructor of %s takes no arguments but %d given", className,
			len(call.Params))
	}
	typed := &CallAst{
		FuncName: className,
		CallTP:   ConstructorCallTP,
		Target:   MangleMethodName(className, ConstructorName),
	}
	return withType(&ExpressionAst{ExpressionTP: ConstructorExpressionTP, Call: typed}, ClassType(className)), nil
}

func (checker *typeChecker) typeCheckMethodCall(call *CallAst, env scopeEnv) (*ExpressionAst, error) {
	obj, err := checker.typeCheckExpression(call.FuncProvider, env)
	if err != nil {
		return nil, err
	}
	objTP := *obj.TP
	if !objTP.IsObject() || checker.table.lookUpClass(objTP.Name) == nil {
		return nil, makeSemanticError(MemberError, "Cannot call method %s on non-object: %s", call.FuncName, objTP)
	}
	fn := checker.table.lookUpMethod(objTP.Name, call.FuncName)
	if fn == nil {
		return nil, makeSemanticError(UndefinedMethod, "Undefined method %s on class %s", call.FuncName, objTP.Name)
	}
	args, err := checker.typeCheckArguments(call.Params, env)
	if err != nil {
		return nil, err
	}
	// The receiver is the implicit first argument, it was checked against self when the table was built.
	err = checkArgumentTypes(objTP.Name+"."+call.FuncName, fn.ParamTypes[1:], args)
	if err != nil {
		return nil, err
	}
	typed := &CallAst{
		FuncProvider: obj,
		FuncName:     call.FuncName,
		Params:       args,
		CallTP:       MethodCallTP,
		Target:       fn.Name,
	}
	return withType(&ExpressionAst{ExpressionTP: CallExpressionTP, Call: typed}, fn.ReturnType), nil
}
