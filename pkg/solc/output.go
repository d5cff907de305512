package solc

import "strings"

// Severity mirrors foundry_compilers' Severity / the Rust crate's
// SeverityLevel: only the distinction between error-severity and
// everything else is load-bearing for the engine (spec §7).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is one entry of the Standard-JSON output "errors" array
// (the field is named "errors" by the compiler even for warnings).
type Diagnostic struct {
	Severity         Severity `json:"severity"`
	Message          string   `json:"message"`
	FormattedMessage string   `json:"formattedMessage,omitempty"`
	ErrorCode        string   `json:"errorCode,omitempty"`
}

// IsError reports whether this diagnostic constitutes a compile
// failure. Warning/info diagnostics are never treated as failures.
func (d Diagnostic) IsError() bool {
	return strings.EqualFold(string(d.Severity), string(SeverityError))
}

// FormattedOrMessage prefers the compiler's pre-formatted message and
// falls back to the plain message, per spec §4.7.
func (d Diagnostic) FormattedOrMessage() string {
	if d.FormattedMessage != "" {
		return d.FormattedMessage
	}
	return d.Message
}

// SourceOutput is one entry of the Standard-JSON output "sources" map.
type SourceOutput struct {
	AST interface{} `json:"ast,omitempty"`
}

// ContractOutput is one entry of the Standard-JSON output
// "contracts"[path][name] map: the default output bundle beyond AST.
type ContractOutput struct {
	ABI interface{} `json:"abi,omitempty"`
	EVM struct {
		Bytecode struct {
			Object string `json:"object,omitempty"`
		} `json:"bytecode,omitempty"`
		DeployedBytecode struct {
			Object string `json:"object,omitempty"`
		} `json:"deployedBytecode,omitempty"`
	} `json:"evm,omitempty"`
}

// Output is the Standard-JSON compiler output object.
type Output struct {
	Errors    []Diagnostic                         `json:"errors,omitempty"`
	Sources   map[string]SourceOutput               `json:"sources,omitempty"`
	Contracts map[string]map[string]ContractOutput  `json:"contracts,omitempty"`
}

// ErrorDiagnostics returns only the error-severity diagnostics.
func (o Output) ErrorDiagnostics() []Diagnostic {
	var errs []Diagnostic
	for _, d := range o.Errors {
		if d.IsError() {
			errs = append(errs, d)
		}
	}
	return errs
}

// AST returns the parsed AST for the given virtual path, if present.
func (o Output) AST(path string) (interface{}, bool) {
	entry, ok := o.Sources[path]
	if !ok || entry.AST == nil {
		return nil, false
	}
	return entry.AST, true
}
