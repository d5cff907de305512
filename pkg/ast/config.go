package ast

import "github.com/evmts/dev/pkg/solc"

// Language selects the source language the engine instruments. Only
// Solidity is implementable by this engine; Yul and Vyper are named so
// Init can reject them with a clear ConfigError rather than silently
// misbehaving (internal/config.rs's CompilerLanguage enum).
type Language string

const (
	LanguageSolidity Language = "Solidity"
	LanguageYul      Language = "Yul"
	LanguageVyper    Language = "Vyper"
)

// ConflictStrategy selects how Stitch resolves a fragment member whose
// conflict key already exists on the target contract (spec §4.3).
type ConflictStrategy int

const (
	// Safe appends a fresh-id clone of every fragment member and leaves
	// the existing members untouched, even where a conflict key
	// collides; it is the default, mirroring Rust's
	// `#[default] ResolveConflictStrategy::Safe`.
	Safe ConflictStrategy = iota
	// Replace overlays the fragment member onto the existing one,
	// preserving the original's id per the id-snapshot rule.
	Replace
)

// Options is the per-call override layer: every field is optional, and
// a populated Options merges on top of a base Config (AstConfigOptions
// in internal/config.rs).
type Options struct {
	Language             *Language
	InstrumentedContract *string
	ResolveConflict      *ConflictStrategy
	Solc                 solc.Settings
}

// Config is the engine's resolved, immutable configuration. It never
// mutates in place; Merge returns a new value.
type Config struct {
	Language             Language
	InstrumentedContract string
	ResolveConflict      ConflictStrategy
	Solc                 solc.Settings
}

// DefaultConfig mirrors AstConfig::default(): Solidity language, Safe
// strategy, no pinned contract name (fall back to FindTargetContract's
// last-contract rule), empty solc settings.
func DefaultConfig() Config {
	return Config{
		Language:        LanguageSolidity,
		ResolveConflict: Safe,
		Solc:            solc.Settings{},
	}
}

// Merge returns a copy of c with every non-nil field of opts overlaid,
// the same one-shot override semantics as AstConfig::merged.
func (c Config) Merge(opts Options) Config {
	merged := c
	if opts.Language != nil {
		merged.Language = *opts.Language
	}
	if opts.InstrumentedContract != nil {
		merged.InstrumentedContract = *opts.InstrumentedContract
	}
	if opts.ResolveConflict != nil {
		merged.ResolveConflict = *opts.ResolveConflict
	}
	if opts.Solc != nil {
		settings := c.Solc.Clone()
		for k, v := range opts.Solc {
			settings[k] = v
		}
		merged.Solc = settings
	}
	return merged
}

// TargetContract returns the pinned contract name and whether one was
// configured, matching AstConfig::instrumented_contract().
func (c Config) TargetContract() (string, bool) {
	if c.InstrumentedContract == "" {
		return "", false
	}
	return c.InstrumentedContract, true
}
