// Package solsummary extracts human-readable contract summaries from
// the engine's generic AST nodes, adapted from the teacher's typed
// ABI/AST extraction model: the teacher re-unmarshaled JSON into its
// own ASTNode struct tree before walking it, this package walks
// pkg/ast.Node maps directly since the engine already decoded the
// tree generically.
package solsummary

import (
	"fmt"
	"strings"

	"github.com/evmts/dev/pkg/ast"
)

// Contract is a display-oriented summary of one ContractDefinition.
type Contract struct {
	Name      string
	Inherits  []string
	Variables []Variable
	Functions []Function
	Events    []Event
	Modifiers []Modifier
	Structs   []Struct
	Enums     []Enum
}

// Variable summarizes a VariableDeclaration.
type Variable struct {
	Name       string
	Type       string
	Visibility string
	Mutability string
	Value      string
}

// Function summarizes a FunctionDefinition.
type Function struct {
	Name             string
	Kind             string
	Visibility       string
	StateMutability  string
	Parameters       []Parameter
	ReturnParameters []Parameter
	Modifiers        []string
}

// Event summarizes an EventDefinition.
type Event struct {
	Name       string
	Parameters []Parameter
}

// Modifier summarizes a ModifierDefinition.
type Modifier struct {
	Name       string
	Parameters []Parameter
}

// Struct summarizes a StructDefinition.
type Struct struct {
	Name    string
	Members []Variable
}

// Enum summarizes an EnumDefinition.
type Enum struct {
	Name   string
	Values []string
}

// Parameter summarizes one entry of a ParameterList.
type Parameter struct {
	Name    string
	Type    string
	Indexed bool
}

// ExtractContracts summarizes every ContractDefinition found directly
// under unit's SourceUnit.nodes.
func ExtractContracts(unit interface{}) []Contract {
	root, ok := unit.(map[string]interface{})
	if !ok {
		return nil
	}
	nodes, _ := root["nodes"].([]interface{})

	var contracts []Contract
	for _, raw := range nodes {
		def, ok := raw.(ast.Node)
		if !ok || def["nodeType"] != "ContractDefinition" {
			continue
		}
		contracts = append(contracts, ExtractContract(def))
	}
	return contracts
}

// ExtractContract summarizes a single ContractDefinition node.
func ExtractContract(node ast.Node) Contract {
	contract := Contract{Name: asString(node["name"])}

	if bases, ok := node["baseContracts"].([]interface{}); ok {
		for _, raw := range bases {
			base, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			if baseName, ok := base["baseName"].(map[string]interface{}); ok {
				contract.Inherits = append(contract.Inherits, asString(baseName["name"]))
			}
		}
	}

	members, _ := node["nodes"].([]interface{})
	for _, raw := range members {
		member, ok := raw.(ast.Node)
		if !ok {
			continue
		}
		switch member["nodeType"] {
		case "VariableDeclaration":
			contract.Variables = append(contract.Variables, ExtractVariable(member))
		case "FunctionDefinition":
			contract.Functions = append(contract.Functions, ExtractFunction(member))
		case "EventDefinition":
			contract.Events = append(contract.Events, ExtractEvent(member))
		case "ModifierDefinition":
			contract.Modifiers = append(contract.Modifiers, ExtractModifier(member))
		case "StructDefinition":
			contract.Structs = append(contract.Structs, ExtractStruct(member))
		case "EnumDefinition":
			contract.Enums = append(contract.Enums, ExtractEnum(member))
		}
	}
	return contract
}

// ExtractVariable summarizes a VariableDeclaration node.
func ExtractVariable(node ast.Node) Variable {
	v := Variable{
		Name:       asString(node["name"]),
		Type:       extractTypeName(node["typeName"]),
		Visibility: asString(node["visibility"]),
		Mutability: asString(node["mutability"]),
	}
	if value, ok := node["value"]; ok && value != nil {
		v.Value = extractValue(value)
	}
	return v
}

// ExtractFunction summarizes a FunctionDefinition node.
func ExtractFunction(node ast.Node) Function {
	f := Function{
		Name:            asString(node["name"]),
		Kind:            asString(node["kind"]),
		Visibility:      asString(node["visibility"]),
		StateMutability: asString(node["stateMutability"]),
		Modifiers:       extractModifierNames(node),
	}
	if params, ok := node["parameters"].(map[string]interface{}); ok {
		f.Parameters = extractParameterList(params)
	}
	if rets, ok := node["returnParameters"].(map[string]interface{}); ok {
		f.ReturnParameters = extractParameterList(rets)
	}
	return f
}

// ExtractEvent summarizes an EventDefinition node.
func ExtractEvent(node ast.Node) Event {
	e := Event{Name: asString(node["name"])}
	if params, ok := node["parameters"].(map[string]interface{}); ok {
		e.Parameters = extractParameterList(params)
	}
	return e
}

// ExtractModifier summarizes a ModifierDefinition node.
func ExtractModifier(node ast.Node) Modifier {
	m := Modifier{Name: asString(node["name"])}
	if params, ok := node["parameters"].(map[string]interface{}); ok {
		m.Parameters = extractParameterList(params)
	}
	return m
}

// ExtractStruct summarizes a StructDefinition node.
func ExtractStruct(node ast.Node) Struct {
	s := Struct{Name: asString(node["name"])}
	members, _ := node["members"].([]interface{})
	for _, raw := range members {
		member, ok := raw.(ast.Node)
		if !ok {
			continue
		}
		s.Members = append(s.Members, ExtractVariable(member))
	}
	return s
}

// ExtractEnum summarizes an EnumDefinition node.
func ExtractEnum(node ast.Node) Enum {
	e := Enum{Name: asString(node["name"])}
	members, _ := node["members"].([]interface{})
	for _, raw := range members {
		member, ok := raw.(ast.Node)
		if !ok || member["nodeType"] != "EnumValue" {
			continue
		}
		e.Values = append(e.Values, asString(member["name"]))
	}
	return e
}

func extractParameterList(params map[string]interface{}) []Parameter {
	list, _ := params["parameters"].([]interface{})
	out := make([]Parameter, 0, len(list))
	for _, raw := range list {
		param, ok := raw.(ast.Node)
		if !ok {
			continue
		}
		p := Parameter{
			Name: asString(param["name"]),
			Type: extractTypeName(param["typeName"]),
		}
		if indexed, ok := param["indexed"].(bool); ok {
			p.Indexed = indexed
		}
		out = append(out, p)
	}
	return out
}

func extractModifierNames(fn ast.Node) []string {
	invocations, _ := fn["modifiers"].([]interface{})
	var names []string
	for _, raw := range invocations {
		inv, ok := raw.(ast.Node)
		if !ok {
			continue
		}
		if modName, ok := inv["modifierName"].(map[string]interface{}); ok {
			names = append(names, asString(modName["name"]))
		}
	}
	return names
}

// extractTypeName prefers typeDescriptions.typeString when present
// (solc always supplies it for resolved types) and falls back to the
// structural ElementaryTypeName/Mapping/ArrayTypeName shape otherwise.
func extractTypeName(raw interface{}) string {
	typeName, ok := raw.(map[string]interface{})
	if !ok {
		return ""
	}

	if desc, ok := typeName["typeDescriptions"].(map[string]interface{}); ok {
		if str := asString(desc["typeString"]); str != "" {
			return str
		}
	}

	switch typeName["nodeType"] {
	case "ElementaryTypeName":
		return asString(typeName["name"])
	case "UserDefinedTypeName":
		if name := asString(typeName["name"]); name != "" {
			return name
		}
		if path, ok := typeName["pathNode"].(map[string]interface{}); ok {
			return asString(path["name"])
		}
		return ""
	case "Mapping":
		key := extractTypeName(typeName["keyType"])
		value := extractTypeName(typeName["valueType"])
		return fmt.Sprintf("mapping(%s => %s)", key, value)
	case "ArrayTypeName":
		base := extractTypeName(typeName["baseType"])
		if length, ok := typeName["length"]; ok && length != nil {
			return fmt.Sprintf("%s[%v]", base, length)
		}
		return base + "[]"
	default:
		return ""
	}
}

// extractValue renders a literal/identifier/call/operation expression
// node as a source-like string for display.
func extractValue(raw interface{}) string {
	node, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("%v", raw)
	}

	switch node["nodeType"] {
	case "Literal":
		if value, ok := node["value"]; ok && value != nil {
			return fmt.Sprintf("%v", value)
		}
		return asString(node["hexValue"])
	case "Identifier":
		return asString(node["name"])
	case "UnaryOperation":
		return asString(node["operator"]) + extractValue(node["subExpression"])
	case "BinaryOperation":
		left := extractValue(node["leftExpression"])
		right := extractValue(node["rightExpression"])
		return fmt.Sprintf("(%s %s %s)", left, asString(node["operator"]), right)
	case "FunctionCall":
		return extractFunctionCall(node)
	default:
		return ""
	}
}

func extractFunctionCall(node map[string]interface{}) string {
	name := ""
	if expr, ok := node["expression"].(map[string]interface{}); ok {
		if expr["nodeType"] == "Identifier" {
			name = asString(expr["name"])
		} else {
			name = extractValue(expr)
		}
	}

	args, _ := node["arguments"].([]interface{})
	rendered := make([]string, len(args))
	for i, arg := range args {
		rendered[i] = extractValue(arg)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(rendered, ", "))
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
