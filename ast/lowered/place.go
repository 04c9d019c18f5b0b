package lowered

import (
	"fmt"
	"fir-lowering/ast"
	"strings"
)

// Local identifies a storage slot owned by the surrounding body, counted
// from zero. Every match subject is rooted at one.
type Local uint32

func (l Local) String() string {
	return fmt.Sprintf("_%d", uint32(l))
}

// Projection is one step from a storage slot toward a component of the value
// held there. All projections are comparable value structs.
type Projection interface {
	fmt.Stringer
	_projection()
}

type ProjField struct {
	Index int
}

func (ProjField) _projection() {}

func (p ProjField) String() string {
	return fmt.Sprintf(".%d", p.Index)
}

type ProjDowncast struct {
	Data   ast.FullIdentifier
	Option ast.Identifier
	Index  int
}

func (ProjDowncast) _projection() {}

func (p ProjDowncast) String() string {
	return fmt.Sprintf("@%s", p.Option)
}

type ProjDeref struct{}

func (ProjDeref) _projection() {}

func (p ProjDeref) String() string {
	return ".*"
}

// ProjIndex selects one element. FromEnd counts Offset back from the run
// time length, so the element is len-Offset.
type ProjIndex struct {
	Offset  int64
	FromEnd bool
}

func (ProjIndex) _projection() {}

func (p ProjIndex) String() string {
	if p.FromEnd {
		return fmt.Sprintf("[len-%d]", p.Offset)
	}
	return fmt.Sprintf("[%d]", p.Offset)
}

// ProjSubseq selects the elements From..To, To counted back from the run
// time length when FromEnd is set.
type ProjSubseq struct {
	From    int64
	To      int64
	FromEnd bool
}

func (ProjSubseq) _projection() {}

func (p ProjSubseq) String() string {
	if p.FromEnd {
		return fmt.Sprintf("[%d..len-%d]", p.From, p.To)
	}
	return fmt.Sprintf("[%d..%d]", p.From, p.To)
}

// Place is a concrete storage location: a base slot plus a projection path.
// Places are never merged; projection is the only way to derive one from
// another.
type Place struct {
	Base Local
	Path []Projection
}

func (p Place) String() string {
	sb := strings.Builder{}
	sb.WriteString(p.Base.String())
	for _, step := range p.Path {
		sb.WriteString(step.String())
	}
	return sb.String()
}

func (p Place) EqualsTo(o Place) bool {
	if p.Base != o.Base || len(p.Path) != len(o.Path) {
		return false
	}
	for i, step := range p.Path {
		if step != o.Path[i] {
			return false
		}
	}
	return true
}

// PlaceBuilder accumulates projections from a base slot. Builders are
// values: deriving a child never mutates the parent. A projection whose
// offset is counted from a length known only at run time marks the builder
// unresolved; unresolved locations still guide destructuring but yield no
// Place.
type PlaceBuilder struct {
	base       Local
	path       []Projection
	unresolved bool
}

func BuildPlace(base Local) PlaceBuilder {
	return PlaceBuilder{base: base}
}

func (b PlaceBuilder) Field(index int) PlaceBuilder {
	return b.extend(ProjField{Index: index}, false)
}

func (b PlaceBuilder) Downcast(data ast.FullIdentifier, option ast.Identifier, index int) PlaceBuilder {
	return b.extend(ProjDowncast{Data: data, Option: option, Index: index}, false)
}

func (b PlaceBuilder) Deref() PlaceBuilder {
	return b.extend(ProjDeref{}, false)
}

func (b PlaceBuilder) Index(offset int64, fromEnd bool) PlaceBuilder {
	return b.extend(ProjIndex{Offset: offset, FromEnd: fromEnd}, fromEnd)
}

func (b PlaceBuilder) Subseq(from, to int64, fromEnd bool) PlaceBuilder {
	return b.extend(ProjSubseq{From: from, To: to, FromEnd: fromEnd}, fromEnd)
}

// TryPlace yields the built place, or reports that some projection depends
// on a run time length. Callers skip the obligations of unresolved places.
func (b PlaceBuilder) TryPlace() (Place, bool) {
	if b.unresolved {
		return Place{}, false
	}
	return Place{Base: b.base, Path: b.path}, true
}

func (b PlaceBuilder) String() string {
	s := Place{Base: b.base, Path: b.path}.String()
	if b.unresolved {
		s += "?"
	}
	return s
}

func (b PlaceBuilder) extend(step Projection, runtimeLength bool) PlaceBuilder {
	path := make([]Projection, len(b.path), len(b.path)+1)
	copy(path, b.path)
	return PlaceBuilder{
		base:       b.base,
		path:       append(path, step),
		unresolved: b.unresolved || runtimeLength,
	}
}
