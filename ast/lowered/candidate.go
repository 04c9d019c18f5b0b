package lowered

import (
	"fmt"
	"fir-lowering/ast"
	"fir-lowering/ast/typed"
	"fir-lowering/common"
	"strings"
)

// MatchPair is one outstanding obligation: test or destructure Pattern
// against the value at Place.
type MatchPair struct {
	Place   PlaceBuilder
	Pattern typed.Pattern
}

func (p MatchPair) String() string {
	return fmt.Sprintf("%s <- %s", p.Place, p.Pattern.Code(""))
}

// Binding materializes a declared name once its candidate is selected. The
// order of bindings within a candidate is observable: a later pass moves or
// borrows strictly in sequence.
type Binding struct {
	ast.Location
	Source Place
	Name   ast.Identifier
	Mode   typed.BindMode
}

func (b Binding) String() string {
	switch b.Mode {
	case typed.BindByRef, typed.BindByRefMut:
		return fmt.Sprintf("%s %s=%s", b.Mode, b.Name, b.Source)
	}
	return fmt.Sprintf("%s=%s", b.Name, b.Source)
}

// Ascription is a deferred type consistency obligation on a location,
// produced by explicit annotations and shared constants inside a pattern.
type Ascription struct {
	Source   Place
	Ascribed typed.Type
	Variance typed.Variance
}

func (a Ascription) String() string {
	return fmt.Sprintf("%s: %s", a.Source, a.Ascribed.Code(""))
}

// Candidate is one in-progress match arm hypothesis being reduced toward
// concrete runtime tests. A candidate with sub candidates is a disjunction:
// exactly one alternative must match for the candidate to match, and its own
// pair list must be empty by then.
type Candidate struct {
	MatchPairs    []MatchPair
	Bindings      []Binding
	Ascriptions   []Ascription
	HasGuard      bool
	SubCandidates []*Candidate
}

func NewCandidate(place PlaceBuilder, pattern typed.Pattern, hasGuard bool) *Candidate {
	return &Candidate{
		MatchPairs: []MatchPair{{Place: place, Pattern: pattern}},
		HasGuard:   hasGuard,
	}
}

// Validate reports the defect where a candidate still carries match pairs
// after growing sub candidates. Only one of the two may be populated.
func (c *Candidate) Validate() error {
	if len(c.MatchPairs) > 0 && len(c.SubCandidates) > 0 {
		return common.NewCompilerError("candidate mixes outstanding match pairs with expanded alternatives")
	}
	for _, sub := range c.SubCandidates {
		if err := sub.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Candidate) String() string {
	sb := strings.Builder{}
	sb.WriteString("Candidate([")
	sb.WriteString(common.Join(c.MatchPairs, ", "))
	sb.WriteString("]")
	if len(c.Bindings) > 0 {
		sb.WriteString(", bind [")
		sb.WriteString(common.Join(c.Bindings, ", "))
		sb.WriteString("]")
	}
	if len(c.Ascriptions) > 0 {
		sb.WriteString(", ascribe [")
		sb.WriteString(common.Join(c.Ascriptions, ", "))
		sb.WriteString("]")
	}
	if c.HasGuard {
		sb.WriteString(", guarded")
	}
	if len(c.SubCandidates) > 0 {
		sb.WriteString(", alts [")
		sb.WriteString(common.Join(c.SubCandidates, ", "))
		sb.WriteString("]")
	}
	sb.WriteString(")")
	return sb.String()
}
