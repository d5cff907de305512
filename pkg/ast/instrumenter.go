package ast

import (
	"context"
	"fmt"
	"strings"

	"github.com/evmts/dev/pkg/solc"
)

// SelectorKind distinguishes the special-kind selectors from
// name-based ones, mirroring instrumenter.rs's FunctionSelectorKind.
type SelectorKind int

const (
	selectorCanonical SelectorKind = iota
	selectorName
	selectorFallback
	selectorReceive
	selectorConstructor
)

// Selector is a parsed function selector (spec §4.4.1).
type Selector struct {
	Kind       SelectorKind
	Name       string
	ParamTypes []string // only populated for selectorCanonical
}

// ParseSelector parses a selector string per the grammar in spec
// §4.4.1: the literal fallback/receive/constructor (case-insensitive),
// a bare identifier, or a parenthesized name(type1, type2, ...) form.
//
// A canonical signature's parameter types are spelled however the
// caller wrote them ("uint", "uint256", a user-defined type's short
// name, ...), but selectorMatches compares against a resolved
// function's compiler-canonical type keys (parameterTypeKey -
// typeIdentifier-first, e.g. "t_uint256"). To make the two sides
// comparable, ParseSelector parses a synthetic function declaration
// carrying the raw parameter types through the same compiler every
// other parser-driver entry point in this file uses, then reads back
// the resolved keys (instrumenter.rs's parse_selector resolves a
// function_signature() the same way, through a real compile, rather
// than canonicalizing the written text itself).
func ParseSelector(ctx context.Context, c solc.Compiler, raw string, settings solc.Settings) (Selector, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Selector{}, newErr(TargetNotFound, "empty selector")
	}

	switch strings.ToLower(trimmed) {
	case "fallback":
		return Selector{Kind: selectorFallback}, nil
	case "receive":
		return Selector{Kind: selectorReceive}, nil
	case "constructor":
		return Selector{Kind: selectorConstructor}, nil
	}

	open := strings.IndexByte(trimmed, '(')
	if open == -1 {
		return Selector{Kind: selectorName, Name: trimmed}, nil
	}
	if !strings.HasSuffix(trimmed, ")") {
		return Selector{}, newErr(TargetNotFound, "malformed selector: \""+raw+"\"")
	}

	name := strings.TrimSpace(trimmed[:open])
	inner := trimmed[open+1 : len(trimmed)-1]

	var rawTypes []string
	if strings.TrimSpace(inner) != "" {
		for _, p := range strings.Split(inner, ",") {
			rawTypes = append(rawTypes, strings.TrimSpace(p))
		}
	}

	paramTypes, err := canonicalParamTypes(ctx, c, name, rawTypes, settings)
	if err != nil {
		return Selector{}, err
	}
	return Selector{Kind: selectorCanonical, Name: name, ParamTypes: paramTypes}, nil
}

// canonicalParamTypes resolves rawTypes (as written in a canonical
// selector) to their compiler-canonical parameterTypeKey form by
// declaring a throwaway external function with those parameter types,
// parsing it through the fragment parser, and reading the resolved
// parameters back off the matching FunctionDefinition. A nullary
// selector has nothing to canonicalize and skips the compiler round
// trip entirely.
func canonicalParamTypes(ctx context.Context, c solc.Compiler, name string, rawTypes []string, settings solc.Settings) ([]string, error) {
	if len(rawTypes) == 0 {
		return nil, nil
	}

	declParams := make([]string, len(rawTypes))
	for i, t := range rawTypes {
		declParams[i] = fmt.Sprintf("%s __selectorArg%d", t, i)
	}
	text := fmt.Sprintf("function %s(%s) external {}", name, strings.Join(declParams, ", "))

	fragment, err := WrapAndParseFragment(ctx, c, text, settings)
	if err != nil {
		return nil, err
	}

	members, _ := fragment["nodes"].([]interface{})
	for _, raw := range members {
		fn, ok := raw.(map[string]interface{})
		if !ok || fn[nodeTypeKey] != kindFunction || fn["name"] != name {
			continue
		}
		params, _ := fn["parameters"].(map[string]interface{})
		list, _ := params["parameters"].([]interface{})
		if len(list) != len(rawTypes) {
			continue
		}
		keys := make([]string, len(list))
		for i, raw := range list {
			param, _ := raw.(map[string]interface{})
			keys[i] = parameterTypeKey(param, i)
		}
		return keys, nil
	}
	return nil, newErr(ParseFailed, "canonical selector function not found in parsed selector fragment")
}

// selectorMatches tests fn against sel per spec §4.4.2's resolution
// rules.
func selectorMatches(sel Selector, fn map[string]interface{}) bool {
	name, _ := fn["name"].(string)
	kind, _ := fn["kind"].(string)

	switch sel.Kind {
	case selectorFallback:
		return kind == "fallback"
	case selectorReceive:
		return kind == "receive"
	case selectorConstructor:
		return kind == "constructor"
	case selectorName:
		return name == sel.Name
	case selectorCanonical:
		if name != sel.Name {
			return false
		}
		params, _ := fn["parameters"].(map[string]interface{})
		list, _ := params["parameters"].([]interface{})
		if len(list) != len(sel.ParamTypes) {
			return false
		}
		for i, raw := range list {
			param, _ := raw.(map[string]interface{})
			if parameterTypeKey(param, i) != sel.ParamTypes[i] {
				return false
			}
		}
		return true
	}
	return false
}

// ResolveFunction scans contract's members for the unique
// FunctionDefinition matching sel (spec §4.4.2).
func ResolveFunction(contract map[string]interface{}, sel Selector) (map[string]interface{}, error) {
	members, _ := contract["nodes"].([]interface{})

	var matches []map[string]interface{}
	for _, raw := range members {
		fn, ok := raw.(map[string]interface{})
		if !ok || fn[nodeTypeKey] != kindFunction {
			continue
		}
		if selectorMatches(sel, fn) {
			matches = append(matches, fn)
		}
	}

	switch len(matches) {
	case 0:
		return nil, newErr(TargetNotFound, "no function matches the given selector")
	case 1:
		return matches[0], nil
	default:
		return nil, newErr(Ambiguous, "selector matches more than one function; disambiguate with a full signature")
	}
}

// ensureImplementable verifies fn has a non-null body (spec §4.4.3).
func ensureImplementable(fn map[string]interface{}) (map[string]interface{}, error) {
	body, ok := fn["body"].(map[string]interface{})
	if !ok || body == nil {
		return nil, newErr(NotImplementable, "function has no implementation body")
	}
	return body, nil
}

// ensureNoInlineAssembly recursively rejects a function body
// containing InlineAssembly, descending into the same structural
// positions as instrumenter.rs's ensure_no_inline_assembly_in_statement
// (spec §4.4.3).
func ensureNoInlineAssembly(body map[string]interface{}) error {
	var err error
	var visit func(v interface{})
	visit = func(v interface{}) {
		if err != nil {
			return
		}
		stmt, ok := v.(map[string]interface{})
		if !ok {
			return
		}
		switch stmt[nodeTypeKey] {
		case "InlineAssembly":
			err = newErr(AssemblyUnsupported, "function body contains inline assembly")
		case "Block", "UncheckedBlock":
			for _, s := range statementsOf(stmt) {
				visit(s)
			}
		case "IfStatement":
			if tb, ok := stmt["trueBody"]; ok {
				visit(tb)
			}
			if fb, ok := stmt["falseBody"]; ok {
				visit(fb)
			}
		case "WhileStatement", "ForStatement":
			if b, ok := stmt["body"]; ok {
				visit(b)
			}
		case "DoWhileStatement":
			if b, ok := stmt["body"]; ok {
				visit(b)
			}
		case "TryStatement":
			clauses, _ := stmt["clauses"].([]interface{})
			for _, c := range clauses {
				clause, ok := c.(map[string]interface{})
				if !ok {
					continue
				}
				if block, ok := clause["block"].(map[string]interface{}); ok {
					visit(block)
				}
			}
		}
	}
	visit(body)
	return err
}

func statementsOf(block map[string]interface{}) []interface{} {
	stmts, _ := block["statements"].([]interface{})
	return stmts
}

// ParseSnippets turns non-empty Solidity statement strings into a
// parsed statement template list by joining them into a synthetic
// internal function body (__TevmShadow) inside a fragment contract and
// parsing it through the parser driver (spec §4.4.4).
func ParseSnippets(ctx context.Context, c solc.Compiler, statements []string, settings solc.Settings) ([]interface{}, error) {
	nonEmpty := nonEmptyStatements(statements)
	if len(nonEmpty) == 0 {
		return nil, nil
	}

	text := "function __TevmShadow() internal {\n    " + strings.Join(nonEmpty, "\n    ") + "\n}"
	fragment, err := WrapAndParseFragment(ctx, c, text, settings)
	if err != nil {
		return nil, err
	}

	members, _ := fragment["nodes"].([]interface{})
	for _, raw := range members {
		fn, ok := raw.(map[string]interface{})
		if !ok || fn[nodeTypeKey] != kindFunction {
			continue
		}
		if fn["name"] != "__TevmShadow" {
			continue
		}
		body, ok := fn["body"].(map[string]interface{})
		if !ok {
			continue
		}
		return statementsOf(body), nil
	}
	return nil, newErr(ParseFailed, "__TevmShadow function not found in parsed snippet fragment")
}

func nonEmptyStatements(statements []string) []string {
	var out []string
	for _, s := range statements {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// cloneTemplate deep-clone-renumbers every statement in template as a
// unit, drawing fresh ids from next (a shared running counter pointer).
func cloneTemplate(template []interface{}, next *int64) []interface{} {
	out := make([]interface{}, len(template))
	for i, stmt := range template {
		out[i] = cloneRenumber(stmt, next)
	}
	return out
}

// InjectEdges splices before/after templates into fn's body: before at
// the prologue, after before every return and at the epilogue (spec
// §4.4.5). fn is mutated in place.
func InjectEdges(fn map[string]interface{}, before, after []interface{}) error {
	if len(before) == 0 && len(after) == 0 {
		return newErr(EmptySnippets, "both before and after snippet lists are empty")
	}

	body, err := ensureImplementable(fn)
	if err != nil {
		return err
	}
	if err := ensureNoInlineAssembly(body); err != nil {
		return err
	}

	next := MaxID(fn) + 1

	stmts := statementsOf(body)

	prologue := cloneTemplate(before, &next)
	stmts = append(append([]interface{}{}, prologue...), stmts...)

	stmts = injectAfter(stmts, after, &next)

	epilogue := cloneTemplate(after, &next)
	stmts = append(stmts, epilogue...)

	body["statements"] = stmts
	return nil
}

// injectAfter recursively descends the statement list, inserting a
// fresh clone of the after-template before every Return (spec §4.4.5
// step 2).
func injectAfter(stmts []interface{}, after []interface{}, next *int64) []interface{} {
	if len(after) == 0 {
		return stmts
	}

	out := make([]interface{}, 0, len(stmts))
	for _, raw := range stmts {
		stmt, ok := raw.(map[string]interface{})
		if !ok {
			out = append(out, raw)
			continue
		}

		switch stmt[nodeTypeKey] {
		case "Return":
			out = append(out, cloneTemplate(after, next)...)
			out = append(out, stmt)
			continue
		case "Block", "UncheckedBlock":
			stmt["statements"] = injectAfter(statementsOf(stmt), after, next)
		case "IfStatement":
			if tb, ok := stmt["trueBody"]; ok && tb != nil {
				stmt["trueBody"] = injectIntoBlockOrStatement(tb, after, next)
			}
			if fb, ok := stmt["falseBody"]; ok && fb != nil {
				stmt["falseBody"] = injectIntoBlockOrStatement(fb, after, next)
			}
		case "WhileStatement", "ForStatement":
			if b, ok := stmt["body"]; ok && b != nil {
				stmt["body"] = injectIntoBlockOrStatement(b, after, next)
			}
		case "DoWhileStatement":
			if b, ok := stmt["body"].(map[string]interface{}); ok {
				b["statements"] = injectAfter(statementsOf(b), after, next)
			}
		case "TryStatement":
			clauses, _ := stmt["clauses"].([]interface{})
			for _, c := range clauses {
				clause, ok := c.(map[string]interface{})
				if !ok {
					continue
				}
				if block, ok := clause["block"].(map[string]interface{}); ok {
					block["statements"] = injectAfter(statementsOf(block), after, next)
				}
			}
		}
		out = append(out, stmt)
	}
	return out
}

// injectIntoBlockOrStatement implements the block-or-statement
// insertion helper from spec §4.4.5: recurse into a Block/
// UncheckedBlock's statements directly, or wrap a bare statement in a
// synthetic Block first.
func injectIntoBlockOrStatement(v interface{}, after []interface{}, next *int64) interface{} {
	stmt, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	if stmt[nodeTypeKey] == "Block" || stmt[nodeTypeKey] == "UncheckedBlock" {
		stmt["statements"] = injectAfter(statementsOf(stmt), after, next)
		return stmt
	}
	wrapped := ensureBlock(stmt, next)
	wrapped["statements"] = injectAfter(statementsOf(wrapped), after, next)
	return wrapped
}

// ensureBlock wraps a bare statement in a synthetic Block carrying a
// fresh id and the original statement's src (spec §4.4.5).
func ensureBlock(stmt map[string]interface{}, next *int64) map[string]interface{} {
	id := *next
	*next++
	src, _ := stmt["src"].(string)
	return map[string]interface{}{
		"nodeType":   "Block",
		"id":         idAsNumber(id),
		"src":        src,
		"statements": []interface{}{stmt},
	}
}
