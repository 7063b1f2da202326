// Package diag accumulates coded warnings and errors produced while
// validating, merging and importing cluster configuration.
package diag

import "fmt"

// Code identifies one class of warning or error with a stable symbol
// that operators can grep reports for.
type Code struct {
	Symbol string
	Desc   string
}

// Warning codes.
var (
	WarnAlreadyExists        = Code{"W01", "already exists in cluster"}
	WarnMissingDef           = Code{"W02", "missing def"}
	WarnMissingDefInclRemote = Code{"W04", "missing def incl. remote"}
)

// Error codes.
var (
	ErrDuplicateInclude   = Code{"E01", "item included multiple times"}
	ErrIncludeParse       = Code{"E03", "include parsing error"}
	ErrTypeMissing        = Code{"E04", "type missing"}
	ErrInvalidInput       = Code{"E05", "invalid input"}
	ErrNameMissing        = Code{"E07", "name missing"}
	ErrKeysMissing        = Code{"E08", "missing keys"}
	ErrInvalidSecDefType  = Code{"E09", "invalid sec def type"}
	ErrInvalidKey         = Code{"E10", "invalid key"}
	ErrServiceNameMissing = Code{"E11", "service name missing"}
	ErrServiceMissing     = Code{"E12", "service missing"}
	ErrCouldNotImport     = Code{"E13", "could not import object"}
)

// Notice is a single diagnostic: a code, a rendered human message and
// the raw context it was derived from. Raw is kept so later phases can
// cross-reference a notice without reparsing its message.
type Notice struct {
	Raw     any
	Message string
	Code    Code
}

func (n Notice) String() string {
	return fmt.Sprintf("%s %s: %s", n.Code.Symbol, n.Code.Desc, n.Message)
}

// Result collects the warnings and errors of one processing phase.
// The zero value is ready to use.
type Result struct {
	Warnings []Notice
	Errors   []Notice
}

// AddWarning appends a warning notice built from format and args.
func (r *Result) AddWarning(raw any, code Code, format string, args ...any) {
	r.Warnings = append(r.Warnings, Notice{Raw: raw, Message: fmt.Sprintf(format, args...), Code: code})
}

// AddError appends an error notice built from format and args.
func (r *Result) AddError(raw any, code Code, format string, args ...any) {
	r.Errors = append(r.Errors, Notice{Raw: raw, Message: fmt.Sprintf(format, args...), Code: code})
}

// OK reports whether the result carries neither warnings nor errors.
func (r *Result) OK() bool {
	return len(r.Warnings) == 0 && len(r.Errors) == 0
}

// HasErrors reports whether at least one error was recorded. Warnings
// alone never fail a run.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}
