package ast

import (
	"context"

	"github.com/evmts/dev/internal/astlog"
	"github.com/evmts/dev/pkg/solc"
)

var engineLog = astlog.New("ast.engine")

// Engine holds the current AST, a sanitized compiler-settings
// snapshot, the targeted contract, a conflict-resolution strategy, and
// a cached validated-compile-output (spec §3's Engine State). It
// exclusively owns the current AST; callers may read SourceUnit but
// must mutate only through Engine methods.
//
// Control flow is strictly linear: every public method resolves
// effective configuration, delegates to the package-level
// parser/stitcher/instrumenter/mutator functions, updates the AST, and
// invalidates the cached validation output. The engine is not safe for
// concurrent mutation from multiple goroutines.
type Engine struct {
	compiler            solc.Compiler
	config              Config
	unit                interface{}
	cached              interface{}  // AST adopted by the last successful Validate, or nil
	cachedCompileOutput *solc.Output // cached Engine.Compile result, or nil
}

// Init builds a fresh Engine, rejecting a non-Solidity language
// request with ConfigError (spec §4.6).
func Init(compiler solc.Compiler, options Options) (*Engine, error) {
	config := DefaultConfig().Merge(options)
	if config.Language != LanguageSolidity {
		return nil, newErr(ConfigError, "unsupported language: "+string(config.Language))
	}
	return &Engine{compiler: compiler, config: config}, nil
}

func (e *Engine) effective(overrides Options) Config {
	return e.config.Merge(overrides)
}

func (e *Engine) invalidateCache() {
	e.cached = nil
	e.cachedCompileOutput = nil
}

// FromSource parses Solidity source text and adopts the result as the
// current AST, resetting the cached compile output (spec §4.6).
func (e *Engine) FromSource(ctx context.Context, source string, overrides Options) error {
	cfg := e.effective(overrides)
	unit, err := ParseSource(ctx, e.compiler, source, cfg.Solc)
	if err != nil {
		return err
	}
	e.unit = unit
	e.invalidateCache()
	return nil
}

// LoadAST adopts an already-parsed AST as the current AST. When a
// default target contract is configured, the orchestrator verifies
// the selector still resolves against the loaded tree before
// committing to it (spec §4.6).
func (e *Engine) LoadAST(unit interface{}, overrides Options) error {
	cfg := e.effective(overrides)
	if name, ok := cfg.TargetContract(); ok {
		if _, err := FindTargetContract(unit, name); err != nil {
			return err
		}
	}
	e.unit = unit
	e.invalidateCache()
	return nil
}

// InjectShadow parses fragment source text and stitches its members
// into the resolved target contract (spec §4.6).
func (e *Engine) InjectShadow(ctx context.Context, fragmentSource string, overrides Options) error {
	cfg := e.effective(overrides)
	if e.unit == nil {
		return newErr(NoSource, "no AST loaded")
	}

	fragment, err := WrapAndParseFragment(ctx, e.compiler, fragmentSource, cfg.Solc)
	if err != nil {
		return err
	}
	return e.stitchFragment(fragment, cfg)
}

// InjectShadowAST extracts the __AstFragment contract from an
// already-parsed fragment AST and stitches it in (spec §4.6's
// "inject-shadow(text|ast, ...)").
func (e *Engine) InjectShadowAST(fragmentUnit interface{}, overrides Options) error {
	cfg := e.effective(overrides)
	if e.unit == nil {
		return newErr(NoSource, "no AST loaded")
	}

	fragment, err := ExtractFragmentContract(fragmentUnit)
	if err != nil {
		return err
	}
	return e.stitchFragment(fragment, cfg)
}

func (e *Engine) stitchFragment(fragment Node, cfg Config) error {
	name, _ := cfg.TargetContract()
	idx, err := FindTargetContract(e.unit, name)
	if err != nil {
		return err
	}

	mutated, err := Stitch(e.unit, idx, fragment, cfg.ResolveConflict)
	if err != nil {
		return err
	}
	e.unit = mutated
	e.invalidateCache()
	return nil
}

// InjectShadowAtEdges resolves the function matching selector and
// splices before/after statement-snippet templates around it (spec
// §4.6).
func (e *Engine) InjectShadowAtEdges(ctx context.Context, selector string, before, after []string, overrides Options) error {
	if len(nonEmptyStatements(before)) == 0 && len(nonEmptyStatements(after)) == 0 {
		return newErr(EmptySnippets, "both before and after snippet lists are empty")
	}
	if e.unit == nil {
		return newErr(NoSource, "no AST loaded")
	}
	cfg := e.effective(overrides)

	name, _ := cfg.TargetContract()
	idx, err := FindTargetContract(e.unit, name)
	if err != nil {
		return err
	}
	root, _ := isNode(e.unit)
	nodes, _ := root["nodes"].([]interface{})
	contract, _ := nodes[idx].(map[string]interface{})

	sel, err := ParseSelector(ctx, e.compiler, selector, cfg.Solc)
	if err != nil {
		return err
	}
	fn, err := ResolveFunction(contract, sel)
	if err != nil {
		return err
	}
	body, err := ensureImplementable(fn)
	if err != nil {
		return err
	}
	if err := ensureNoInlineAssembly(body); err != nil {
		return err
	}

	beforeTemplate, err := ParseSnippets(ctx, e.compiler, before, cfg.Solc)
	if err != nil {
		return err
	}
	afterTemplate, err := ParseSnippets(ctx, e.compiler, after, cfg.Solc)
	if err != nil {
		return err
	}

	if err := InjectEdges(fn, beforeTemplate, afterTemplate); err != nil {
		return err
	}
	e.invalidateCache()
	return nil
}

// ExposeInternalVariables promotes every VariableDeclaration member's
// visibility to public, across the resolved contract scope (spec
// §4.6).
func (e *Engine) ExposeInternalVariables(overrides Options) error {
	return e.exposeMembers(kindVariable, overrides)
}

// ExposeInternalFunctions promotes every FunctionDefinition member's
// visibility to public, across the resolved contract scope (spec
// §4.6).
func (e *Engine) ExposeInternalFunctions(overrides Options) error {
	return e.exposeMembers(kindFunction, overrides)
}

func (e *Engine) exposeMembers(memberKind string, overrides Options) error {
	if e.unit == nil {
		return newErr(NoSource, "no AST loaded")
	}
	cfg := e.effective(overrides)

	targetIdx := -1
	if name, ok := cfg.TargetContract(); ok {
		idx, err := FindTargetContract(e.unit, name)
		if err != nil {
			return err
		}
		targetIdx = idx
	}

	contracts := contractsForMutation(e.unit, targetIdx)
	mutateMembers(contracts, memberKind)
	e.invalidateCache()
	return nil
}

// Validate recompiles the current AST; on success the in-memory AST is
// replaced with the compiler-refreshed version. On failure, state is
// left untouched and the diagnostics are returned as ValidationFailed
// (spec §4.7).
func (e *Engine) Validate(ctx context.Context, overrides Options) error {
	if e.unit == nil {
		return newErr(NoSource, "no AST loaded")
	}
	cfg := e.effective(overrides)

	refreshed, err := Validate(ctx, e.compiler, e.unit, cfg.Solc)
	if err != nil {
		return err
	}
	e.unit = refreshed
	e.cached = refreshed
	engineLog.Debug("validation succeeded, AST refreshed")
	return nil
}

// Compile runs the current AST through the compiler collaborator and
// returns the full compile output (ABI, bytecode, diagnostics),
// without touching e.unit — unlike Validate, which additionally
// adopts the compiler-refreshed AST. The result is cached until the
// next mutating call (core.rs's compile_output / cachedCompileOutput).
func (e *Engine) Compile(ctx context.Context, overrides Options) (solc.Output, error) {
	if e.unit == nil {
		return solc.Output{}, newErr(NoSource, "no AST loaded")
	}
	if e.cachedCompileOutput != nil {
		return *e.cachedCompileOutput, nil
	}
	cfg := e.effective(overrides)

	input := solc.NewASTInput(virtualSourcePath, e.unit, cfg.Solc)
	output, err := e.compiler.Compile(ctx, input)
	if err != nil {
		return solc.Output{}, newErrf(ValidationFailed, err, "failed to invoke compiler")
	}
	if errs := output.ErrorDiagnostics(); len(errs) > 0 {
		return solc.Output{}, newErr(ValidationFailed, concatDiagnostics(errs))
	}

	e.cachedCompileOutput = &output
	return output, nil
}

// SourceUnit returns the current AST, failing with NoSource if none
// has been loaded yet (spec §4.6).
func (e *Engine) SourceUnit() (interface{}, error) {
	if e.unit == nil {
		return nil, newErr(NoSource, "no AST loaded")
	}
	return e.unit, nil
}

// SourceUnitMut returns the current AST for in-place mutation by a
// caller operating outside the engine's own operations. Because Node
// trees are Go maps, the returned value aliases the engine's state;
// any mutation through it bypasses cache invalidation, so callers that
// mutate directly should call Engine.Invalidate afterward.
func (e *Engine) SourceUnitMut() (interface{}, error) {
	return e.SourceUnit()
}

// Invalidate drops the cached validated-compile-output, for callers
// that mutated the tree returned by SourceUnitMut directly.
func (e *Engine) Invalidate() {
	e.invalidateCache()
}
