package internal

// SymbolTable holds every top level name of a program. It is built once, before any statement is checked, so
// functions and classes can be referred to before they are defined.
type SymbolTable struct {
	Variables map[string]VariableType
	// Free functions, builtins and every method under its mangled name.
	Functions map[string]*FuncSymbol
	Classes   map[string]*ClassSymbolTable
}

type FuncSymbol struct {
	// The name the code generator calls: plain for free functions, mangled for methods.
	Name string
	// Empty for free functions and builtins.
	ClassName  string
	ParamTypes []VariableType
	ReturnType VariableType
	Builtin    bool
}

type ClassSymbolTable struct {
	ClassName string
	Fields    map[string]VariableType
	// Field names in declaration order.
	FieldNames []string
	// Methods by their unmangled name.
	Methods map[string]*FuncSymbol
}

// Imported host functions callable by name. print is handled by the type checker separately.
var builtinFuncs = []*FuncSymbol{
	{Name: "abs", ParamTypes: []VariableType{IntType}, ReturnType: IntType, Builtin: true},
	{Name: "max", ParamTypes: []VariableType{IntType, IntType}, ReturnType: IntType, Builtin: true},
	{Name: "min", ParamTypes: []VariableType{IntType, IntType}, ReturnType: IntType, Builtin: true},
	{Name: "pow", ParamTypes: []VariableType{IntType, IntType}, ReturnType: IntType, Builtin: true},
}

const printFuncName = "print"

// Names a program cannot declare.
var reservedNames = map[string]bool{
	printFuncName:   true,
	"abs":           true,
	"max":           true,
	"min":           true,
	"pow":           true,
	NoneClassName:   true,
	ObjectClassName: true,
	// Host imports share the function namespace of the module.
	PrintIntImport:     true,
	PrintBoolImport:    true,
	PrintNoneImport:    true,
	runtimeErrorImport: true,
}

func newSymbolTable() *SymbolTable {
	table := &SymbolTable{
		Variables: map[string]VariableType{},
		Functions: map[string]*FuncSymbol{},
		Classes:   map[string]*ClassSymbolTable{},
	}
	for _, fn := range builtinFuncs {
		table.Functions[fn.Name] = fn
	}
	return table
}

// If we encounter some variables, some declaration declared twice, then will return err.
func buildSymbolTable(program *BodyAst) (*SymbolTable, error) {
	table := newSymbolTable()
	for _, varInit := range program.VarInits {
		err := table.checkTopLevelName(varInit.VarName)
		if err != nil {
			return nil, err
		}
		table.Variables[varInit.VarName] = varInit.VarType
	}
	// Class names go in first: field, param and return types may refer to any class.
	for _, classDef := range program.ClassDefs {
		err := table.checkTopLevelName(classDef.ClassName)
		if err != nil {
			return nil, err
		}
		table.Classes[classDef.ClassName] = &ClassSymbolTable{
			ClassName: classDef.ClassName,
			Fields:    map[string]VariableType{},
			Methods:   map[string]*FuncSymbol{},
		}
	}
	for _, funcDef := range program.FuncDefs {
		err := table.checkTopLevelName(funcDef.FuncName)
		if err != nil {
			return nil, err
		}
		fn, err := table.buildFuncSymbol(funcDef, "")
		if err != nil {
			return nil, err
		}
		table.Functions[funcDef.FuncName] = fn
	}
	for _, varInit := range program.VarInits {
		err := table.checkTypeExist(varInit.VarType, "variable "+varInit.VarName)
		if err != nil {
			return nil, err
		}
	}
	for _, classDef := range program.ClassDefs {
		err := table.buildClassSymbolTable(classDef)
		if err != nil {
			return nil, err
		}
	}
	return table, nil
}

func (table *SymbolTable) checkTopLevelName(name string) error {
	if reservedNames[name] {
		return makeSemanticError(DuplicateIdentifier, "Duplicate declaration of identifier in same scope: %s "+
			"is a builtin name", name)
	}
	_, isVar := table.Variables[name]
	_, isFunc := table.Functions[name]
	_, isClass := table.Classes[name]
	if isVar || isFunc || isClass {
		return makeSemanticError(DuplicateIdentifier, "Duplicate declaration of identifier in same scope: %s", name)
	}
	return nil
}

func (table *SymbolTable) checkTypeExist(tp VariableType, where string) error {
	if !tp.IsObject() || tp.IsNone() {
		return nil
	}
	if table.Classes[tp.Name] == nil {
		return makeSemanticError(UnknownType, "Unknown class %s used as type of %s", tp.Name, where)
	}
	return nil
}

func (table *SymbolTable) buildFuncSymbol(funcDef *FuncDefAst, className string) (*FuncSymbol, error) {
	where := funcDef.FuncName
	if className != "" {
		where = className + "." + funcDef.FuncName
	}
	fn := &FuncSymbol{Name: funcDef.FuncName, ClassName: className, ReturnType: funcDef.ReturnTP}
	for _, param := range funcDef.Params {
		err := table.checkTypeExist(param.ParamTP, "param "+param.ParamName+" of "+where)
		if err != nil {
			return nil, err
		}
		fn.ParamTypes = append(fn.ParamTypes, param.ParamTP)
	}
	err := table.checkTypeExist(funcDef.ReturnTP, "return value of "+where)
	if err != nil {
		return nil, err
	}
	if className != "" {
		fn.Name = MangleMethodName(className, funcDef.FuncName)
	}
	return fn, nil
}

func (table *SymbolTable) buildClassSymbolTable(classDef *ClassDefAst) error {
	if classDef.SuperClassName != ObjectClassName {
		return makeSemanticError(InvalidSuperclass, "Superclass of %s must be %s, got %s", classDef.ClassName,
			ObjectClassName, classDef.SuperClassName)
	}
	classSymbolTable := table.Classes[classDef.ClassName]
	for _, field := range classDef.ClassBody.VarInits {
		err := classSymbolTable.buildField(field)
		if err != nil {
			return err
		}
		err = table.checkTypeExist(field.VarType, "field "+classDef.ClassName+"."+field.VarName)
		if err != nil {
			return err
		}
	}
	for _, method := range methodsWithConstructor(classDef) {
		err := table.buildMethod(classSymbolTable, method)
		if err != nil {
			return err
		}
	}
	return nil
}

func (classSymbolTable *ClassSymbolTable) buildField(field *VarInitAst) error {
	_, ok := classSymbolTable.Fields[field.VarName]
	if ok {
		return makeSemanticError(DuplicateIdentifier, "Duplicate declaration of identifier in same scope: %s on class %s",
			field.VarName, classSymbolTable.ClassName)
	}
	classSymbolTable.Fields[field.VarName] = field.VarType
	classSymbolTable.FieldNames = append(classSymbolTable.FieldNames, field.VarName)
	return nil
}

// In python, the constructor is an ordinary method named __init__. Here it can only take self, since a constructor
// call passes no arguments.
func (table *SymbolTable) buildMethod(classSymbolTable *ClassSymbolTable, method *FuncDefAst) error {
	className := classSymbolTable.ClassName
	_, isField := classSymbolTable.Fields[method.FuncName]
	_, isMethod := classSymbolTable.Methods[method.FuncName]
	if isField || isMethod {
		return makeSemanticError(DuplicateIdentifier, "Duplicate declaration of identifier in same scope: %s on class %s",
			method.FuncName, className)
	}
	if len(method.Params) == 0 || !method.Params[0].ParamTP.Equal(ClassType(className)) {
		return makeSemanticError(InvalidReceiver, "First parameter of method %s.%s must be of type %s",
			className, method.FuncName, className)
	}
	if method.FuncName == ConstructorName && len(method.Params) != 1 {
		return makeSemanticError(InvalidConstructor, "Constructor of %s must take only %s, got %d parameters",
			className, SelfParamName, len(method.Params))
	}
	fn, err := table.buildFuncSymbol(method, className)
	if err != nil {
		return err
	}
	classSymbolTable.Methods[method.FuncName] = fn
	table.Functions[fn.Name] = fn
	return nil
}

// methodsWithConstructor returns the methods of a class, plus an empty __init__ when the class declares none.
func methodsWithConstructor(classDef *ClassDefAst) []*FuncDefAst {
	methods := make([]*FuncDefAst, 0, len(classDef.ClassBody.FuncDefs)+1)
	hasConstructor := false
	for _, method := range classDef.ClassBody.FuncDefs {
		if method.FuncName == ConstructorName {
			hasConstructor = true
		}
		methods = append(methods, method)
	}
	if !hasConstructor {
		methods = append(methods, defaultConstructor(classDef.ClassName))
	}
	return methods
}

func defaultConstructor(className string) *FuncDefAst {
	return &FuncDefAst{
		FuncName:  ConstructorName,
		ClassName: className,
		Params:    []*FuncParamAst{Param(SelfParamName, ClassType(className))},
		ReturnTP:  NoneType,
		FuncBody:  &BodyAst{},
	}
}

// buildLocalTable collects the params and local var initializers of a function. Locals cannot shadow params, and
// no local can take the name of the generated scratch local.
func buildLocalTable(funcDef *FuncDefAst) (map[string]VariableType, error) {
	locals := map[string]VariableType{}
	for _, param := range funcDef.Params {
		_, ok := locals[param.ParamName]
		if ok || param.ParamName == scratchLocal {
			return nil, makeSemanticError(DuplicateIdentifier, "Duplicate declaration of identifier in same scope: "+
				"param %s of %s", param.ParamName, funcDef.FuncName)
		}
		locals[param.ParamName] = param.ParamTP
	}
	for _, varInit := range funcDef.FuncBody.VarInits {
		_, ok := locals[varInit.VarName]
		if ok || varInit.VarName == scratchLocal {
			return nil, makeSemanticError(DuplicateIdentifier, "Duplicate declaration of identifier in same scope: "+
				"%s in %s", varInit.VarName, funcDef.FuncName)
		}
		locals[varInit.VarName] = varInit.VarType
	}
	return locals, nil
}
