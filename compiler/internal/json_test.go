package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const incrementTree = `{
  "varinits": [{"name": "x", "type": {"tag": "primitive", "name": "int"}, "init": {"tag": "number", "value": 1}}],
  "classdefs": [],
  "funcdefs": [],
  "stmts": [
    {"tag": "varInit"},
    {"tag": "assign", "target": {"tag": "id", "name": "x"},
     "value": {"tag": "binexpr", "op": "+", "lhs": {"tag": "id", "name": "x"},
               "rhs": {"tag": "literal", "value": {"tag": "number", "value": 1}}}},
    {"tag": "expr", "expr": {"tag": "id", "name": "x"}}
  ]
}`

const counterTree = `{
  "varinits": [{"name": "c", "type": {"tag": "object", "name": "Counter"}, "init": {"tag": "none"}}],
  "classdefs": [{"name": "Counter", "super": "object", "body": {
    "varinits": [{"name": "n", "type": {"tag": "primitive", "name": "int"}, "init": {"tag": "number", "value": 0}}],
    "classdefs": [],
    "funcdefs": [{"name": "add",
      "params": [{"name": "self", "type": {"tag": "object", "name": "Counter"}},
                 {"name": "by", "type": {"tag": "primitive", "name": "int"}}],
      "ret": {"tag": "primitive", "name": "int"},
      "body": {"varinits": [], "classdefs": [], "funcdefs": [], "stmts": [
        {"tag": "assign",
         "target": {"tag": "id", "name": "n", "obj": {"tag": "id", "name": "self"}},
         "value": {"tag": "binexpr", "op": "+",
                   "lhs": {"tag": "id", "name": "n", "obj": {"tag": "id", "name": "self"}},
                   "rhs": {"tag": "id", "name": "by"}}},
        {"tag": "return", "ret": {"tag": "id", "name": "n", "obj": {"tag": "id", "name": "self"}}}
      ]}}],
    "stmts": [{"tag": "varInit"}, {"tag": "funcDef"}]}}],
  "funcdefs": [],
  "stmts": [
    {"tag": "varInit"},
    {"tag": "classDef"},
    {"tag": "assign", "target": {"tag": "id", "name": "c"}, "value": {"tag": "call", "name": "Counter", "args": []}},
    {"tag": "expr", "expr": {"tag": "call", "func": {"tag": "id", "name": "add", "obj": {"tag": "id", "name": "c"}},
                             "args": [{"tag": "literal", "value": {"tag": "number", "value": 4}}]}},
    {"tag": "expr", "expr": {"tag": "call", "name": "print",
                             "args": [{"tag": "uniexpr", "op": "not", "expr": {"tag": "literal", "value": {"tag": "bool", "value": false}}}]}},
    {"tag": "expr", "expr": {"tag": "call", "name": "add", "obj": {"tag": "id", "name": "c"},
                             "args": [{"tag": "literal", "value": {"tag": "number", "value": 3}}]}}
  ]
}`

func TestDecodeJSON(t *testing.T) {
	program, err := DecodeJSON(strings.NewReader(incrementTree))
	require.NoError(t, err)
	require.Len(t, program.VarInits, 1)
	assert.Equal(t, IntType, program.VarInits[0].VarType)
	require.Len(t, program.Statements, 3)
	assert.Equal(t, VarInitStatementTP, program.Statements[0].StatementTP)

	result := mustRun(t, program)
	assert.Equal(t, int32(2), result.value)
}

func TestDecodeJSON_Calls(t *testing.T) {
	program, err := DecodeJSON(strings.NewReader(counterTree))
	require.NoError(t, err)
	// Both spellings of a method call decode to the same tree.
	viaFunc := expressionOf(program.Statements[3])
	viaName := expressionOf(program.Statements[5])
	assert.Equal(t, "add", viaFunc.Call.FuncName)
	assert.Equal(t, "c", viaFunc.Call.FuncProvider.Name)
	assert.Equal(t, viaFunc.Call.FuncProvider, viaName.Call.FuncProvider)

	result := mustRun(t, program)
	assert.Equal(t, "True\n", result.output)
	assert.Equal(t, int32(7), result.value)
}

func TestDecodeJSON_Errors(t *testing.T) {
	testData := []struct {
		name string
		tree string
	}{
		{name: "not json", tree: `{"stmts": [`},
		{name: "unknown statement", tree: `{"stmts": [{"tag": "for"}]}`},
		{name: "unknown expression", tree: `{"stmts": [{"tag": "expr", "expr": {"tag": "lambda"}}]}`},
		{name: "missing expression", tree: `{"stmts": [{"tag": "expr"}]}`},
		{name: "unknown operator", tree: `{"stmts": [{"tag": "expr", "expr": {"tag": "uniexpr", "op": "~",
			"expr": {"tag": "literal", "value": {"tag": "number", "value": 1}}}}]}`},
		{name: "number too large", tree: `{"stmts": [{"tag": "expr", "expr": {"tag": "literal",
			"value": {"tag": "number", "value": 2147483648}}}]}`},
		{name: "unknown type", tree: `{"varinits": [{"name": "x", "type": {"tag": "primitive", "name": "str"},
			"init": {"tag": "none"}}]}`},
		{name: "missing initializer", tree: `{"varinits": [{"name": "x", "type": {"tag": "primitive", "name": "int"}}]}`},
		{name: "call of a literal", tree: `{"stmts": [{"tag": "expr", "expr": {"tag": "call",
			"func": {"tag": "literal", "value": {"tag": "none"}}}}]}`},
		{name: "space in a variable", tree: `{"varinits": [{"name": "x y", "type": {"tag": "primitive", "name": "int"},
			"init": {"tag": "number", "value": 1}}]}`},
		{name: "digit first", tree: `{"stmts": [{"tag": "expr", "expr": {"tag": "id", "name": "1x"}}]}`},
		{name: "paren in a function", tree: `{"funcdefs": [{"name": "f)", "params": [],
			"ret": {"tag": "primitive", "name": "int"}, "body": {}}]}`},
		{name: "quote in a param", tree: `{"funcdefs": [{"name": "f", "params": [{"name": "a\"", "type": {"tag": "primitive", "name": "int"}}],
			"ret": {"tag": "primitive", "name": "int"}, "body": {}}]}`},
		{name: "dot in a class", tree: `{"classdefs": [{"name": "A.B", "super": "object", "body": {}}]}`},
		{name: "empty member", tree: `{"stmts": [{"tag": "expr", "expr": {"tag": "id", "name": "",
			"obj": {"tag": "id", "name": "c"}}}]}`},
		{name: "call of a bad name", tree: `{"stmts": [{"tag": "expr", "expr": {"tag": "call", "name": "f g", "args": []}}]}`},
		{name: "bad object type", tree: `{"varinits": [{"name": "c", "type": {"tag": "object", "name": "C$"},
			"init": {"tag": "none"}}]}`},
	}
	for _, data := range testData {
		_, err := DecodeJSON(strings.NewReader(data.tree))
		assert.Error(t, err, data.name)
	}

	// Underscores and digits after the first character are names.
	program, err := DecodeJSON(strings.NewReader(`{"varinits": [{"name": "_x1", "type": {"tag": "primitive", "name": "int"},
		"init": {"tag": "number", "value": 1}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "_x1", program.VarInits[0].VarName)

	// The smallest int still fits.
	program, err = DecodeJSON(strings.NewReader(`{"stmts": [{"tag": "expr", "expr": {"tag": "literal",
		"value": {"tag": "number", "value": -2147483648}}}]}`))
	require.NoError(t, err)
	assert.Equal(t, int32(-2147483648), expressionOf(program.Statements[0]).Literal.Number)
}

func TestEncodeJSON(t *testing.T) {
	program, err := DecodeJSON(strings.NewReader(counterTree))
	require.NoError(t, err)
	checked, err := TypeCheck(program)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, EncodeJSON(buf, checked))
	assert.Contains(t, buf.String(), `"a": {`)
	assert.Contains(t, buf.String(), `"tag": "constructor"`)

	decoded, err := DecodeJSON(buf)
	require.NoError(t, err)
	again, err := TypeCheck(decoded)
	require.NoError(t, err)
	assert.Equal(t, checked, again)
}
