package ast

import (
	"context"
	"testing"

	"github.com/evmts/dev/pkg/solc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelectorSpecialKinds(t *testing.T) {
	fake := &fakeCompiler{}
	for _, raw := range []string{"fallback", "Fallback", "RECEIVE", "constructor"} {
		sel, err := ParseSelector(context.Background(), fake, raw, solc.Settings{})
		require.NoError(t, err)
		assert.NotEqual(t, selectorName, sel.Kind)
	}
	assert.Empty(t, fake.calls, "special-kind selectors never need a compiler round trip")
}

// TestParseSelectorParsesCanonicalSignature mirrors instrumenter.rs's
// same-named test: a canonical selector's parameter types must come
// back as the compiler-resolved canonical keys (parameterTypeKey),
// not the literal text the caller wrote, since that's what
// selectorMatches compares against a resolved function's parameters.
func TestParseSelectorParsesCanonicalSignature(t *testing.T) {
	fragment := map[string]interface{}{
		"nodeType": "ContractDefinition",
		"id":       float64(1),
		"name":     fragmentName,
		"nodes": []interface{}{
			map[string]interface{}{
				"nodeType": kindFunction,
				"id":       float64(2),
				"name":     "transfer",
				"parameters": map[string]interface{}{
					"parameters": []interface{}{
						map[string]interface{}{
							"name":             "__selectorArg0",
							"typeDescriptions": map[string]interface{}{"typeIdentifier": "t_address"},
						},
						map[string]interface{}{
							"name":             "__selectorArg1",
							"typeDescriptions": map[string]interface{}{"typeIdentifier": "t_uint256"},
						},
					},
				},
			},
		},
	}
	fake := &fakeCompiler{
		output: solc.Output{
			Sources: map[string]solc.SourceOutput{
				fragmentSourcePath: {AST: contractUnitWith(fragment)},
			},
		},
	}

	sel, err := ParseSelector(context.Background(), fake, "transfer(address, uint256)", solc.Settings{})
	require.NoError(t, err)
	assert.Equal(t, selectorCanonical, sel.Kind)
	assert.Equal(t, "transfer", sel.Name)
	assert.Equal(t, []string{"t_address", "t_uint256"}, sel.ParamTypes)
	require.Len(t, fake.calls, 1)
}

func TestParseSelectorBareName(t *testing.T) {
	fake := &fakeCompiler{}
	sel, err := ParseSelector(context.Background(), fake, "increment", solc.Settings{})
	require.NoError(t, err)
	assert.Equal(t, selectorName, sel.Kind)
	assert.Equal(t, "increment", sel.Name)
	assert.Empty(t, fake.calls, "bare-name selectors never need a compiler round trip")
}

func functionDef(name string, kind string, body map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"nodeType": kindFunction,
		"id":       float64(10),
		"name":     name,
		"kind":     kind,
		"parameters": map[string]interface{}{
			"parameters": []interface{}{},
		},
		"body": body,
	}
}

func blockWithStatements(stmts ...interface{}) map[string]interface{} {
	return map[string]interface{}{
		"nodeType":   "Block",
		"id":         float64(11),
		"statements": stmts,
	}
}

func TestResolveFunctionAmbiguous(t *testing.T) {
	contract := map[string]interface{}{
		"nodes": []interface{}{
			functionDef("transfer", "function", blockWithStatements()),
			functionDef("transfer", "function", blockWithStatements()),
		},
	}
	sel, _ := ParseSelector(context.Background(), &fakeCompiler{}, "transfer", solc.Settings{})
	_, err := ResolveFunction(contract, sel)
	require.Error(t, err)
	assert.True(t, Is(err, Ambiguous))
}

func TestResolveFunctionNotFound(t *testing.T) {
	contract := map[string]interface{}{"nodes": []interface{}{}}
	sel, _ := ParseSelector(context.Background(), &fakeCompiler{}, "missing", solc.Settings{})
	_, err := ResolveFunction(contract, sel)
	require.Error(t, err)
	assert.True(t, Is(err, TargetNotFound))
}

func TestEnsureNoInlineAssemblyDetectsAssemblyNodes(t *testing.T) {
	body := blockWithStatements(
		map[string]interface{}{
			"nodeType": "IfStatement",
			"trueBody": blockWithStatements(
				map[string]interface{}{"nodeType": "InlineAssembly"},
			),
		},
	)
	err := ensureNoInlineAssembly(body)
	require.Error(t, err)
	assert.True(t, Is(err, AssemblyUnsupported))
}

func TestEnsureNoInlineAssemblyAcceptsCleanBody(t *testing.T) {
	body := blockWithStatements(
		map[string]interface{}{"nodeType": "ExpressionStatement"},
	)
	assert.NoError(t, ensureNoInlineAssembly(body))
}

func TestEnsureBlockWrapsExpressionStatements(t *testing.T) {
	stmt := map[string]interface{}{"nodeType": "ExpressionStatement", "id": float64(5), "src": "10:5:0"}
	next := int64(100)
	wrapped := ensureBlock(stmt, &next)

	assert.Equal(t, "Block", wrapped[nodeTypeKey])
	assert.Equal(t, "10:5:0", wrapped["src"])
	assert.EqualValues(t, 100, mustID(t, wrapped))
	assert.EqualValues(t, 101, next)
	assert.Equal(t, []interface{}{stmt}, wrapped["statements"])
}

func TestInjectAfterInsertsTemplateBeforeReturns(t *testing.T) {
	ret := map[string]interface{}{"nodeType": "Return", "id": float64(1)}
	stmts := []interface{}{ret}
	template := []interface{}{
		map[string]interface{}{"nodeType": "ExpressionStatement", "id": float64(999)},
	}
	next := int64(1000)

	out := injectAfter(stmts, template, &next)
	require.Len(t, out, 2)
	assert.Equal(t, "ExpressionStatement", out[0].(map[string]interface{})[nodeTypeKey])
	assert.Equal(t, ret, out[1])
	assert.EqualValues(t, 1001, next)
}

func TestInjectEdgesRejectsEmptySnippets(t *testing.T) {
	fn := functionDef("foo", "function", blockWithStatements())
	err := InjectEdges(fn, nil, nil)
	require.Error(t, err)
	assert.True(t, Is(err, EmptySnippets))
}

func TestInjectEdgesRejectsNotImplementable(t *testing.T) {
	fn := functionDef("foo", "function", nil)
	delete(fn, "body")
	before := []interface{}{map[string]interface{}{"nodeType": "ExpressionStatement", "id": float64(1)}}
	err := InjectEdges(fn, before, nil)
	require.Error(t, err)
	assert.True(t, Is(err, NotImplementable))
}

func TestInjectEdgesPrologueAndEpilogue(t *testing.T) {
	original := map[string]interface{}{"nodeType": "ExpressionStatement", "id": float64(2)}
	fn := functionDef("foo", "function", blockWithStatements(original))

	before := []interface{}{map[string]interface{}{"nodeType": "ExpressionStatement", "id": float64(50)}}
	after := []interface{}{map[string]interface{}{"nodeType": "ExpressionStatement", "id": float64(60)}}

	err := InjectEdges(fn, before, after)
	require.NoError(t, err)

	body := fn["body"].(map[string]interface{})
	stmts := body["statements"].([]interface{})
	require.Len(t, stmts, 3)
	assert.Equal(t, original, stmts[1])
}

func TestParseSnippetsEmptyReturnsNil(t *testing.T) {
	fake := &fakeCompiler{}
	out, err := ParseSnippets(context.Background(), fake, []string{"", "  "}, solc.Settings{})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, fake.calls)
}

func mustID(t *testing.T, n map[string]interface{}) int64 {
	t.Helper()
	id, ok := nodeID(n)
	require.True(t, ok)
	return id
}
