package ast

import (
	"context"

	"github.com/evmts/dev/internal/astlog"
	"github.com/evmts/dev/pkg/solc"
)

var validatorLog = astlog.New("ast.validator")

// Validate recompiles unit through the external compiler in AST mode
// and returns the refreshed AST on success (spec §4.7). It never
// mutates unit itself; callers (the engine) decide whether to replace
// their held state with the returned value, so a failed validation
// cannot corrupt anything the caller already has.
func Validate(ctx context.Context, c solc.Compiler, unit interface{}, settings solc.Settings) (interface{}, error) {
	validatorLog.Debug("validating AST")

	input := solc.NewASTInput(virtualSourcePath, unit, settings)
	output, err := c.Compile(ctx, input)
	if err != nil {
		return nil, newErrf(ValidationFailed, err, "failed to invoke compiler for validation")
	}

	if errs := output.ErrorDiagnostics(); len(errs) > 0 {
		return nil, newErr(ValidationFailed, concatDiagnostics(errs))
	}

	refreshed, ok := output.AST(virtualSourcePath)
	if !ok {
		return nil, newErr(ValidationFailed, "compiler output missing refreshed AST")
	}
	return renumberThroughJSON(refreshed), nil
}
