// Package codegen generates wasm entry points for annotated Go functions.
//
// A function marked with a //space:export directive is exported from the
// guest module under its own name, or under the name given after the
// directive:
//
//	//space:export
//	func Double(n uint64) uint64 { return n * 2 }
//
//	//space:export swap_quote
//	func Quote(req QuoteRequest) (Quote, error) { ... }
//
// Exported functions take zero or one argument and return either a single
// value or a value and an error. Generate writes a wrapper per function that
// delegates to the export package.
package codegen

import (
	"fmt"
	"regexp"
	"strings"
)

// Param is a function parameter.
type Param struct {
	Name string
	Type string
}

// Signature describes an annotated function.
type Signature struct {
	// Name is the Go function name.
	Name string
	// Export is the wasm export name.
	Export string
	// Receiver is the receiver type of a method, empty for functions.
	Receiver string
	// TypeParams lists the names of type parameters.
	TypeParams []string
	Params     []Param
	// Results are the result types as written in source.
	Results []string
	// BodyLen is the number of statements in the body; -1 for a function
	// declared without one.
	BodyLen int
	// Pos is the source position, for error messages.
	Pos string
}

// SignatureError reports a function that cannot be exported.
type SignatureError struct {
	Func   string
	Pos    string
	Reason string
}

func (e *SignatureError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: cannot export %s: %s", e.Pos, e.Func, e.Reason)
	}
	return fmt.Sprintf("cannot export %s: %s", e.Func, e.Reason)
}

var exportName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]*$`)

// Names the guest runtime already exports.
var reservedExports = map[string]bool{
	"allocate":    true,
	"deallocate":  true,
	"_initialize": true,
	"_start":      true,
	"memory":      true,
}

// Validate checks that s can be wrapped as an entry point.
func (s Signature) Validate() error {
	fail := func(format string, args ...any) error {
		return &SignatureError{Func: s.Name, Pos: s.Pos, Reason: fmt.Sprintf(format, args...)}
	}

	switch {
	case s.Name == "":
		return fail("function has no name")
	case s.Receiver != "":
		return fail("methods cannot be exported (receiver %s)", s.Receiver)
	case len(s.TypeParams) > 0:
		return fail("generic functions cannot be exported")
	case len(s.Params) > 1:
		return fail("takes %d parameters, at most one is supported; wrap them in a struct", len(s.Params))
	case s.BodyLen <= 0:
		return fail("function body is empty")
	case s.HasInput() && strings.HasPrefix(s.Params[0].Type, "..."):
		return fail("variadic parameter %s cannot be decoded; use a slice", s.Params[0].Type)
	}

	switch len(s.Results) {
	case 1:
		if s.Results[0] == "error" {
			return fail("must return a value, not only an error")
		}
	case 2:
		if s.Results[0] == "error" || s.Results[1] != "error" {
			return fail("two results must be (T, error), got (%s)", strings.Join(s.Results, ", "))
		}
	default:
		return fail("must return T or (T, error), got %d results", len(s.Results))
	}

	name := s.ExportName()
	if !exportName.MatchString(name) {
		return fail("invalid export name %q", name)
	}
	if reservedExports[name] {
		return fail("export name %q is reserved", name)
	}
	return nil
}

// ExportName returns the wasm export name, defaulting to the function name.
func (s Signature) ExportName() string {
	if s.Export != "" {
		return s.Export
	}
	return s.Name
}

// Fallible reports whether the function returns an error.
func (s Signature) Fallible() bool {
	return len(s.Results) == 2
}

// HasInput reports whether the function takes an argument.
func (s Signature) HasInput() bool {
	return len(s.Params) == 1
}

// Handler returns the export package function that runs s.
func (s Signature) Handler() string {
	switch {
	case s.HasInput() && s.Fallible():
		return "HandleResult"
	case s.HasInput():
		return "Handle"
	case s.Fallible():
		return "HandleResultNoInput"
	default:
		return "HandleNoInput"
	}
}
