package resolver

import (
	"fmt"
	"strings"
)

// NotFoundError reports that a single strategy could not find a version.
// The orchestrator catches these for chaining; any other error type aborts
// the chain immediately.
type NotFoundError struct {
	// Source is the strategy that failed.
	Source Source
	// Msg is the human-readable reason, possibly multi-line.
	Msg string
}

// Error renders "no version found via <source>: <reason>". Multi-line
// reasons start on their own line.
func (e *NotFoundError) Error() string {
	delim := " "
	if strings.Contains(e.Msg, "\n") {
		delim = "\n"
	}

	return fmt.Sprintf("no version found via %s:%s%s", e.Source, delim, e.Msg)
}

// notFound builds a NotFoundError with a formatted message.
func notFound(source Source, format string, args ...any) *NotFoundError {
	return &NotFoundError{Source: source, Msg: fmt.Sprintf(format, args...)}
}

// ResolutionError aggregates the failures of every strategy in execution
// order, raised when the whole chain is exhausted.
type ResolutionError struct {
	// Failures holds one entry per strategy, in the order they ran.
	Failures []*NotFoundError
}

// Error lists every strategy's reason on its own "- <source>:" line,
// indenting multi-line reasons for readability.
func (e *ResolutionError) Error() string {
	var b strings.Builder

	b.WriteString("no version found:")

	for _, failure := range e.Failures {
		b.WriteString("\n- ")
		b.WriteString(failure.Source.String())
		b.WriteString(":")
		b.WriteString(maybeIndent(failure.Msg))
	}

	return b.String()
}

// InvalidReferenceError reports a package reference that is neither a bare
// distribution name nor a path to a .py file. It is a plain input-validation
// failure and is never caught by the strategy chain.
type InvalidReferenceError struct {
	// Ref is the offending package reference.
	Ref string
	// Suffix is the unrecognized file extension, empty when there was none.
	Suffix string
}

func (e *InvalidReferenceError) Error() string {
	msg := fmt.Sprintf("%q is neither the name of an installed distribution nor the path to a .py file", e.Ref)
	if e.Suffix != "" {
		msg += fmt.Sprintf(" (unknown file suffix %q)", e.Suffix)
	}

	return msg
}

// maybeIndent keeps one-line messages inline and pushes multi-line messages
// onto indented lines of their own.
func maybeIndent(msg string) string {
	if !strings.Contains(msg, "\n") {
		return " " + msg
	}

	return "\n  " + strings.ReplaceAll(msg, "\n", "\n  ")
}
