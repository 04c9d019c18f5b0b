package processors

import (
	"fir-lowering/ast"
	"fir-lowering/ast/lowered"
	"fir-lowering/ast/typed"
	"fir-lowering/common"
	"fir-lowering/pkg/logger"

	set "github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/slices"
)

// VariantOracle answers whether testing a data option can ever fail at run
// time.
type VariantOracle interface {
	// IsVariantIrrefutable reports whether option is the only inhabited
	// option of data, counting extensibility.
	IsVariantIrrefutable(data *typed.TData, option ast.Identifier) bool
}

// SharedConstResolver supplies the declared type of an interned shared
// constant. The constant itself is evaluated by a later pass; lowering only
// records the type obligation.
type SharedConstResolver interface {
	SharedConstType(id uint64) (typed.Type, bool)
}

// Lowerer reduces match arm candidates until only real runtime tests
// remain. The decision builder consumes the result.
type Lowerer struct {
	oracle VariantOracle
	consts SharedConstResolver
	log    *logger.LogWriter
}

func NewLowerer(oracle VariantOracle, consts SharedConstResolver, log *logger.LogWriter) *Lowerer {
	if oracle == nil {
		oracle = dataVariantOracle{}
	}
	if log == nil {
		log = &logger.LogWriter{}
	}
	return &Lowerer{oracle: oracle, consts: consts, log: log}
}

// Arm is one source match arm: its pattern and whether a guard follows.
type Arm struct {
	Pattern  typed.Pattern
	HasGuard bool
}

// LowerMatch builds and fully simplifies one candidate per arm against the
// subject place. Arm order is preserved.
func (l *Lowerer) LowerMatch(subject lowered.PlaceBuilder, arms []Arm) []*lowered.Candidate {
	candidates := make([]*lowered.Candidate, 0, len(arms))
	for _, arm := range arms {
		c := lowered.NewCandidate(subject, arm.Pattern, arm.HasGuard)
		l.SimplifyCandidate(c)
		candidates = append(candidates, c)
	}
	return candidates
}

// SimplifyCandidate reduces the candidate's match pairs until none can be
// reduced further, or until the candidate is a lone or pattern, which is
// expanded into sub candidates instead. Reports whether it expanded.
//
// Bindings surface in a deliberate order: a binding produced one nesting
// level deeper than a `name @ pattern` site must run before the binding of
// name itself, while bindings at the same level keep their left to right
// source order. Each round's fresh bindings are therefore prepended to the
// batch pending from the rounds before, and the whole batch is appended to
// the candidate only at the end.
func (l *Lowerer) SimplifyCandidate(c *lowered.Candidate) bool {
	existingBindings := c.Bindings
	c.Bindings = nil
	var newBindings []lowered.Binding
	for round := 1; ; round++ {
		matchPairs := c.MatchPairs
		c.MatchPairs = nil

		if len(matchPairs) == 1 {
			if or, ok := matchPairs[0].Pattern.(*typed.POr); ok {
				existingBindings = append(existingBindings, newBindings...)
				c.Bindings = existingBindings
				if err := CheckOrBindings(or); err != nil {
					l.log.Err(err)
				}
				l.expandOrCandidates(c, matchPairs[0].Place, or.Items)
				l.log.Trace("candidate expanded", "alternatives", len(or.Items), "rounds", round)
				return true
			}
		}

		changed := false
		for _, pair := range matchPairs {
			if l.simplifyMatchPair(pair, c) {
				changed = true
			} else {
				c.MatchPairs = append(c.MatchPairs, pair)
			}
		}

		newBindings = append(c.Bindings, newBindings...)
		c.Bindings = nil

		if !changed {
			c.Bindings = append(existingBindings, newBindings...)
			// or pairs fan out into sub candidates, so test them as late as
			// possible; ties keep their original order
			slices.SortStableFunc(c.MatchPairs, func(a, b lowered.MatchPair) int {
				return orKey(a) - orKey(b)
			})
			l.log.Trace("candidate simplified", "rounds", round, "pairs", len(c.MatchPairs))
			return false
		}
	}
}

func orKey(pair lowered.MatchPair) int {
	if _, ok := pair.Pattern.(*typed.POr); ok {
		return 1
	}
	return 0
}

// simplifyMatchPair attempts one reduction step on pair. On success its
// obligations have been transferred to c as new pairs, bindings and
// ascriptions, and it reports true. An irreducible pair leaves c untouched.
func (l *Lowerer) simplifyMatchPair(pair lowered.MatchPair, c *lowered.Candidate) bool {
	switch p := pair.Pattern.(type) {
	case *typed.PAny:
		return true

	case *typed.PError:
		return true

	case *typed.PNever:
		// reads the location and asserts no value can occupy it; downstream
		// reachability reacts, not this pass
		return true

	case *typed.PNamed:
		l.bind(c, pair.Place, p.Name, p.Mode, p.Location)
		return true

	case *typed.PAlias:
		l.bind(c, pair.Place, p.Alias, p.Mode, p.Location)
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: pair.Place, Pattern: p.Nested})
		return true

	case *typed.PAscription:
		l.ascribe(c, pair.Place, p.Ascribed, p.Variance)
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: pair.Place, Pattern: p.Nested})
		return true

	case *typed.PShared:
		if t, ok := l.sharedConstType(p); ok {
			l.ascribe(c, pair.Place, t, typed.VarianceContravariant)
		}
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: pair.Place, Pattern: p.Nested})
		return true

	case *typed.PRange:
		return p.IsFull()

	case *typed.PSeq:
		seq, ok := p.GetType().(*typed.TSeq)
		if !ok {
			panic(common.SystemError{Message: "compiler bug! sequence pattern must carry a sequence type"})
		}
		wholeCapture := len(p.Prefix) == 0 && len(p.Suffix) == 0 && p.Middle != nil
		if seq.Fixed || wholeCapture {
			l.seqPairs(c, pair.Place, p, seq)
			return true
		}
		// length dispatch belongs to the decision builder
		return false

	case *typed.PDataOption:
		data, ok := p.GetType().(*typed.TData)
		if !ok {
			panic(common.SystemError{Message: "compiler bug! data option pattern must carry a data type"})
		}
		if !l.oracle.IsVariantIrrefutable(data, p.OptionName) {
			return false
		}
		l.optionPairs(c, pair.Place, data, p)
		return true

	case *typed.PTuple:
		l.fieldPairs(c, pair.Place, p.Items)
		return true

	case *typed.PRecord:
		l.recordPairs(c, pair.Place, p)
		return true

	case *typed.PDeref:
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: pair.Place.Deref(), Pattern: p.Nested})
		return true

	case *typed.PConst:
		return false

	case *typed.POr:
		// a lone or pattern expands at the candidate level; one that sits
		// next to other pairs stays put until they are dealt with
		return false
	}
	panic(common.SystemError{Message: "invalid case"})
}

// DecomposeSeq pushes the per element obligations of a sequence pattern
// onto c. The decision builder calls this once its length test has pinned
// the pattern's shape; a SimplifyCandidate call then reduces the new pairs.
// Element places of a runtime length sequence count from the end and stay
// unresolved, so bindings on them are skipped per the place contract.
func (l *Lowerer) DecomposeSeq(c *lowered.Candidate, place lowered.PlaceBuilder, p *typed.PSeq) {
	seq, ok := p.GetType().(*typed.TSeq)
	if !ok {
		panic(common.SystemError{Message: "compiler bug! sequence pattern must carry a sequence type"})
	}
	l.seqPairs(c, place, p, seq)
}

// expandOrCandidates grows one sub candidate per alternative, all rooted at
// the same place, each inheriting the guard flag and fully simplified.
// Bindings and ascriptions accumulated before expansion stay on the parent
// and apply before any alternative is tried.
func (l *Lowerer) expandOrCandidates(c *lowered.Candidate, place lowered.PlaceBuilder, items []typed.Pattern) {
	c.SubCandidates = make([]*lowered.Candidate, 0, len(items))
	for _, alt := range items {
		sub := lowered.NewCandidate(place, alt, c.HasGuard)
		l.SimplifyCandidate(sub)
		c.SubCandidates = append(c.SubCandidates, sub)
	}
}

func (l *Lowerer) fieldPairs(c *lowered.Candidate, place lowered.PlaceBuilder, items []typed.Pattern) {
	for i, sub := range items {
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: place.Field(i), Pattern: sub})
	}
}

func (l *Lowerer) recordPairs(c *lowered.Candidate, place lowered.PlaceBuilder, p *typed.PRecord) {
	rec, ok := p.GetType().(*typed.TRecord)
	if !ok {
		panic(common.SystemError{Message: "compiler bug! record pattern must carry a record type"})
	}
	for _, f := range p.Fields {
		index, found := rec.FieldIndex(f.Name)
		if !found {
			panic(common.SystemError{Message: "compiler bug! record pattern names a missing field"})
		}
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: place.Field(index), Pattern: f.Pattern})
	}
}

func (l *Lowerer) optionPairs(c *lowered.Candidate, place lowered.PlaceBuilder, data *typed.TData, p *typed.PDataOption) {
	opt, index, found := data.Option(p.OptionName)
	if !found {
		panic(common.SystemError{Message: "compiler bug! data option pattern names a missing option"})
	}
	down := place.Downcast(data.Name, opt.Name, index)
	for i, arg := range p.Args {
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: down.Field(i), Pattern: arg})
	}
}

// seqPairs decomposes a sequence pattern into per element obligations.
// Prefix elements index from the front. When the sequence length is part of
// the type, middle and suffix use absolute offsets too; otherwise they
// count back from the run time length and their places come out unresolved.
// A middle that captures the whole sequence reuses the sequence's own place.
func (l *Lowerer) seqPairs(c *lowered.Candidate, place lowered.PlaceBuilder, p *typed.PSeq, seq *typed.TSeq) {
	for i, sub := range p.Prefix {
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: place.Index(int64(i), false), Pattern: sub})
	}

	if p.Middle != nil {
		from := int64(len(p.Prefix))
		to := int64(len(p.Suffix))
		var middle lowered.PlaceBuilder
		switch {
		case from == 0 && to == 0:
			middle = place
		case seq.Fixed:
			middle = place.Subseq(from, seq.Len-to, false)
		default:
			middle = place.Subseq(from, to, true)
		}
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: middle, Pattern: p.Middle})
	}

	for i, sub := range p.Suffix {
		back := int64(len(p.Suffix) - i)
		var elem lowered.PlaceBuilder
		if seq.Fixed {
			elem = place.Index(seq.Len-back, false)
		} else {
			elem = place.Index(back, true)
		}
		c.MatchPairs = append(c.MatchPairs, lowered.MatchPair{Place: elem, Pattern: sub})
	}
}

// bind appends a binding for the place unless some projection of it depends
// on a run time length, in which case the obligation is dropped and the
// eventual consumer works from the decomposed pairs instead.
func (l *Lowerer) bind(c *lowered.Candidate, place lowered.PlaceBuilder, name ast.Identifier, mode typed.BindMode, loc ast.Location) {
	source, ok := place.TryPlace()
	if !ok {
		l.log.Trace("binding skipped, unresolved place", "name", string(name))
		return
	}
	c.Bindings = append(c.Bindings, lowered.Binding{Location: loc, Source: source, Name: name, Mode: mode})
}

func (l *Lowerer) ascribe(c *lowered.Candidate, place lowered.PlaceBuilder, t typed.Type, v typed.Variance) {
	source, ok := place.TryPlace()
	if !ok {
		return
	}
	c.Ascriptions = append(c.Ascriptions, lowered.Ascription{Source: source, Ascribed: t, Variance: v})
}

func (l *Lowerer) sharedConstType(p *typed.PShared) (typed.Type, bool) {
	if l.consts == nil {
		return nil, false
	}
	t, ok := l.consts.SharedConstType(p.ConstId)
	if !ok {
		l.log.Trace("shared constant type unavailable", "id", p.ConstId)
	}
	return t, ok
}

// dataVariantOracle decides irrefutability from the type alone: an option
// is irrefutable when every sibling is uninhabited and the data type is
// closed to downstream extension.
type dataVariantOracle struct{}

func (dataVariantOracle) IsVariantIrrefutable(data *typed.TData, option ast.Identifier) bool {
	if data.Extensible {
		return false
	}
	found := false
	for _, o := range data.Options {
		if o.Name == option {
			found = true
			continue
		}
		if !common.Any(typed.Uninhabited, o.Values) {
			return false
		}
	}
	return found
}

// CheckOrBindings verifies every alternative of an or pattern binds the
// same names with the same modes. Expansion treats alternatives as
// interchangeable for scope purposes, which only holds when they agree.
func CheckOrBindings(p *typed.POr) error {
	if len(p.Items) < 2 {
		return nil
	}
	first := set.From(orBindings(p.Items[0], nil))
	for _, alt := range p.Items[1:] {
		bindings := orBindings(alt, nil)
		same := first.Size() == len(bindings)
		for _, b := range bindings {
			if !same {
				break
			}
			same = first.Contains(b)
		}
		if !same {
			return common.NewErrorOf(alt.GetLocation(), "or pattern alternative binds different names than the first alternative")
		}
	}
	return nil
}

type orBinding struct {
	name ast.Identifier
	mode typed.BindMode
}

func orBindings(pattern typed.Pattern, acc []orBinding) []orBinding {
	switch e := pattern.(type) {
	case *typed.PNamed:
		return append(acc, orBinding{name: e.Name, mode: e.Mode})
	case *typed.PAlias:
		acc = append(acc, orBinding{name: e.Alias, mode: e.Mode})
		return orBindings(e.Nested, acc)
	case *typed.PTuple:
		for _, x := range e.Items {
			acc = orBindings(x, acc)
		}
		return acc
	case *typed.PRecord:
		for _, f := range e.Fields {
			acc = orBindings(f.Pattern, acc)
		}
		return acc
	case *typed.PSeq:
		for _, x := range e.Prefix {
			acc = orBindings(x, acc)
		}
		if e.Middle != nil {
			acc = orBindings(e.Middle, acc)
		}
		for _, x := range e.Suffix {
			acc = orBindings(x, acc)
		}
		return acc
	case *typed.PDataOption:
		for _, x := range e.Args {
			acc = orBindings(x, acc)
		}
		return acc
	case *typed.PDeref:
		return orBindings(e.Nested, acc)
	case *typed.PAscription:
		return orBindings(e.Nested, acc)
	case *typed.PShared:
		return orBindings(e.Nested, acc)
	case *typed.POr:
		if len(e.Items) > 0 {
			return orBindings(e.Items[0], acc)
		}
		return acc
	}
	return acc
}
