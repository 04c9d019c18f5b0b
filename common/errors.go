package common

import (
	"fmt"
	"fir-lowering/ast"
	"runtime"
	"slices"
	"strings"
)

// Error is a source-anchored diagnostic. Extra locations point at the other
// places that participate in the problem (e.g. every redundant case of a
// match).
type Error struct {
	Location ast.Location
	Extra    []ast.Location
	Message  string
}

func (e Error) Error() string {
	sb := strings.Builder{}
	cursorString := e.Location.CursorString()
	if cursorString != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", cursorString, e.Message))
	}

	var uniqueExtra []ast.Location
	for _, x := range e.Extra {
		if !slices.ContainsFunc(uniqueExtra, func(u ast.Location) bool {
			return u.EqualsTo(x)
		}) {
			uniqueExtra = append(uniqueExtra, x)
		}
	}

	for _, extra := range uniqueExtra {
		sb.WriteString(fmt.Sprintf("+ %s\n", extra.CursorString()))
	}

	if e.Location.IsEmpty() {
		sb.WriteString(fmt.Sprintf("%s\n", e.Message))
	}
	return sb.String()
}

func NewErrorOf(loc ast.Location, format string, args ...any) Error {
	return Error{Location: loc, Message: fmt.Sprintf(format, args...)}
}

// SystemError marks a defect in the compiler itself, never a user mistake.
// Passes panic with it when an internal invariant breaks.
type SystemError struct {
	Message string
}

func (e SystemError) Error() string {
	return fmt.Sprintf("system error: %s", e.Message)
}

func NewSystemError(err error) error {
	return SystemError{Message: err.Error()}
}

func NewCompilerError(message string) error {
	_, file, line, _ := runtime.Caller(1)
	return compilerError{message: message, file: file, line: line}
}

type compilerError struct {
	message string
	file    string
	line    int
}

func (e compilerError) Error() string {
	return fmt.Sprintf("%s at %s:%d", e.message, e.file, e.line)
}
