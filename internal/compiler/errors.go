package compiler

import "fmt"

// Kind classifies why Compile rejected a module.
type Kind int

const (
	// Parse means the bytes are not a valid WASM module.
	Parse Kind = iota
	// MissingExport means a required export (process, on_error) is absent.
	MissingExport
	// FeatureDisallowed means the module requires a WASM feature the
	// engine was configured to reject.
	FeatureDisallowed
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse"
	case MissingExport:
		return "missing_export"
	case FeatureDisallowed:
		return "feature_disallowed"
	default:
		return "unknown"
	}
}

// CompileError describes why a module was rejected.
type CompileError struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *CompileError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("compile: %s: %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("compile: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("compile: %s", e.Kind)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
