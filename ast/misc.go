package ast

import (
	"strings"
)

type Identifier string

type QualifiedIdentifier string

type FullIdentifier string

func (f FullIdentifier) String() string {
	return string(f)
}

func (f FullIdentifier) Module() QualifiedIdentifier {
	i := strings.LastIndex(string(f), ".")
	if i < 0 {
		return ""
	}
	return QualifiedIdentifier(f[:i])
}

type DataOptionIdentifier string

// Coder renders a node back to source syntax, shortening identifiers that
// belong to currentModule.
type Coder interface {
	Code(currentModule QualifiedIdentifier) string
}
