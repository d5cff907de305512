package ast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/evmts/dev/internal/astlog"
	"github.com/evmts/dev/pkg/solc"
)

const (
	virtualSourcePath  = "__VIRTUAL__.sol"
	fragmentSourcePath = "__AstFragment.sol"
	fragmentName       = "__AstFragment"
)

var parserLog = astlog.New("ast.parser")

// ParseSource compiles text-mode source through solc and returns the
// decoded SourceUnit AST, the parser driver's primary entry point
// (parser.rs's parse_source_ast).
func ParseSource(ctx context.Context, c solc.Compiler, source string, settings solc.Settings) (interface{}, error) {
	input := solc.NewTextInput(virtualSourcePath, source, settings)
	return compileAndExtractAST(ctx, c, input, virtualSourcePath, "failed to parse source")
}

// wrapFragmentSource wraps fragment text in the fixed skeleton from
// spec §6.3, byte-for-byte (wrap_fragment_source in parser.rs).
func wrapFragmentSource(text string) string {
	return fmt.Sprintf(
		"// SPDX-License-Identifier: UNLICENSED\npragma solidity ^0.8.0;\n\ncontract %s {\n    %s\n}\n",
		fragmentName, text,
	)
}

// WrapAndParseFragment wraps text in the synthetic __AstFragment
// skeleton, parses it, and returns the __AstFragment contract node.
func WrapAndParseFragment(ctx context.Context, c solc.Compiler, text string, settings solc.Settings) (Node, error) {
	wrapped := wrapFragmentSource(text)
	input := solc.NewTextInput(fragmentSourcePath, wrapped, settings)
	unit, err := compileAndExtractAST(ctx, c, input, fragmentSourcePath, "failed to parse fragment")
	if err != nil {
		return nil, err
	}
	return ExtractFragmentContract(unit)
}

// ExtractFragmentContract locates the ContractDefinition named
// __AstFragment within an already-produced AST (parser.rs's
// extract_fragment_contract), for callers who parsed the wrapper
// themselves or received an AST from elsewhere.
func ExtractFragmentContract(unit interface{}) (Node, error) {
	root, ok := isNode(unit)
	if !ok {
		if m, isMap := unit.(map[string]interface{}); isMap {
			root = m
		} else {
			return nil, newErr(ParseFailed, "fragment source unit is not an object")
		}
	}

	var found Node
	walk(root, func(n Node) {
		if found != nil {
			return
		}
		if n[nodeTypeKey] != "ContractDefinition" {
			return
		}
		if name, _ := n["name"].(string); name == fragmentName {
			found = n
		}
	})
	if found == nil {
		return nil, newErr(ParseFailed, "wrapper contract __AstFragment not found in parsed fragment")
	}
	return found, nil
}

// compileAndExtractAST invokes the compiler with input already
// sanitized by the solc package's Input constructors, inspects
// diagnostics, and decodes the AST at path using json.Number so large
// node ids survive the round trip.
func compileAndExtractAST(ctx context.Context, c solc.Compiler, input solc.Input, path, failMsg string) (interface{}, error) {
	parserLog.Debug("invoking compiler", "path", path)

	output, err := c.Compile(ctx, input)
	if err != nil {
		return nil, newErrf(ParseFailed, err, failMsg)
	}

	if errs := output.ErrorDiagnostics(); len(errs) > 0 {
		return nil, newErr(ParseFailed, failMsg+": "+concatDiagnostics(errs))
	}

	raw, ok := output.AST(path)
	if !ok {
		return nil, newErr(ParseFailed, failMsg+": compiler output missing AST for "+path)
	}

	return renumberThroughJSON(raw), nil
}

// renumberThroughJSON re-decodes a decoded-as-float64 AST (the solc
// package's Output uses interface{} with the standard decoder) using
// json.Number, so downstream id arithmetic never loses precision.
func renumberThroughJSON(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return v
	}
	return out
}

func concatDiagnostics(diags []solc.Diagnostic) string {
	msg := ""
	for i, d := range diags {
		if i > 0 {
			msg += "; "
		}
		msg += d.FormattedOrMessage()
	}
	return msg
}
