package parser

import "fmt"

// Severity classifies a diagnostic. Warnings never fail a compile;
// errors do once the compile finishes.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a non-fatal problem recorded during a compile, pinned to
// the file and line it was detected on.
type Diagnostic struct {
	File     string
	Line     int
	Severity Severity
	Message  string
}

// Error returns the formatted diagnostic.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message)
}

// ErrorList is a list of errors presented as a single error.
type ErrorList []error

// Error returns the string representation of the error list.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "(0 errors)"
	case 1:
		return l[0].Error()
	case 2:
		return l[0].Error() + " (and 1 more error)"
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// errorf records an error-severity diagnostic and keeps parsing.
func (p *Parser) errorf(line int, format string, args ...interface{}) {
	d := &Diagnostic{File: p.target, Line: line, Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
	p.diags = append(p.diags, d)
	if p.verbose {
		p.logger.Error().Str("file", d.File).Int("line", d.Line).Msg(d.Message)
	}
}

// warnf records a warning-severity diagnostic.
func (p *Parser) warnf(line int, format string, args ...interface{}) {
	d := &Diagnostic{File: p.target, Line: line, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
	p.diags = append(p.diags, d)
	if p.verbose {
		p.logger.Warn().Str("file", d.File).Int("line", d.Line).Msg(d.Message)
	}
}
