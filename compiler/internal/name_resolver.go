package internal

// Methods are resolved statically: there is a single root superclass and no overriding, so obj.m() always names
// exactly one function, ClassName$$m.

const mangleSeparator = "$$"

// MangleMethodName returns the global function name of method on class className.
func MangleMethodName(className, method string) string {
	return className + mangleSeparator + method
}

// Names of the imported print functions.
const (
	PrintIntImport  = "print_num"
	PrintBoolImport = "print_bool"
	PrintNoneImport = "print_none"
)

// printTarget picks the print import for an argument type.
func printTarget(argType VariableType) string {
	switch argType.TP {
	case IntVariableType:
		return PrintIntImport
	case BooleanVariableType:
		return PrintBoolImport
	}
	return PrintNoneImport
}

func (table *SymbolTable) lookUpClass(className string) *ClassSymbolTable {
	return table.Classes[className]
}

func (table *SymbolTable) lookUpFunc(funcName string) *FuncSymbol {
	return table.Functions[funcName]
}

// lookUpMethod finds method funcName on class className. It returns nil if either doesn't exist.
func (table *SymbolTable) lookUpMethod(className, funcName string) *FuncSymbol {
	classSymbolTable := table.lookUpClass(className)
	if classSymbolTable == nil {
		return nil
	}
	return classSymbolTable.Methods[funcName]
}

func (table *SymbolTable) lookUpField(className, fieldName string) (VariableType, bool) {
	classSymbolTable := table.lookUpClass(className)
	if classSymbolTable == nil {
		return VariableType{}, false
	}
	tp, ok := classSymbolTable.Fields[fieldName]
	return tp, ok
}

// resolveCall decides what an unqualified call f(...) refers to. A class name means a constructor, print is the
// special builtin, everything else must be in the function table.
func (table *SymbolTable) resolveCall(funcName string) (CallType, *FuncSymbol) {
	if table.lookUpClass(funcName) != nil {
		return ConstructorCallTP, table.lookUpMethod(funcName, ConstructorName)
	}
	if funcName == printFuncName {
		return BuiltinCallTP, nil
	}
	fn := table.lookUpFunc(funcName)
	if fn == nil {
		return UnresolvedCallTP, nil
	}
	if fn.Builtin {
		return BuiltinCallTP, fn
	}
	return FuncCallTP, fn
}
