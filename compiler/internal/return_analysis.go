package internal

// returnsOnAllPaths reports whether every path through statements ends in a return. The analysis is purely
// syntactic: conditions are never evaluated, so `while True:` only counts when its body itself returns.
func returnsOnAllPaths(statements []*StatementAst) bool {
	if len(statements) == 0 {
		return false
	}
	last := statements[len(statements)-1]
	switch last.StatementTP {
	case ReturnStatementTP:
		return true
	case IfStatementTP:
		ifStm := last.Statement.(*IfStatementAst)
		return returnsOnAllPaths(ifStm.IfTrueStatements) && returnsOnAllPaths(ifStm.ElseStatements)
	case WhileStatementTP:
		return returnsOnAllPaths(last.Statement.(*WhileStatementAst).Statements)
	}
	return false
}
