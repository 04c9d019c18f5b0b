package processors

import (
	"fmt"
	"fir-lowering/ast"
	"fir-lowering/ast/typed"
	"fir-lowering/common"
	"strings"
)

// CheckCases verifies the cases of one match: every case must be reachable
// and together they must cover the subject. Works over the same pattern
// trees that lowering consumes, independently of it.
//
// Ranges other than full ones count as opaque literals and sequence
// patterns count as length classes, so a case set built purely from those
// never proves coverage without a wildcard-shaped case.
func CheckCases(patterns []typed.Pattern) error {
	if len(patterns) == 0 {
		return nil
	}
	matrix, redundant := toNonRedundantRows(patterns)
	if len(redundant) > 0 {
		return common.Error{
			Location: redundant[0].GetLocation(),
			Extra:    common.Map(func(p typed.Pattern) ast.Location { return p.GetLocation() }, redundant[1:]),
			Message:  "pattern matching is redundant",
		}
	}
	if missingPatterns := isExhaustive(matrix, 1); len(missingPatterns) > 0 {
		return common.Error{
			Location: patterns[len(patterns)-1].GetLocation(),
			Message: "pattern matching is not exhaustive, missing patterns: \n\t" +
				strings.Join(
					common.Map(func(r []simplePattern) string { return common.Join(r, ", ") }, missingPatterns),
					"\n\t"),
		}
	}
	return nil
}

func toNonRedundantRows(patterns []typed.Pattern) ([][]simplePattern, []typed.Pattern) {
	var matrix [][]simplePattern
	var redundant []typed.Pattern
	for _, pattern := range patterns {
		useful := false
		for _, alt := range simplifyAlternatives(pattern) {
			row := []simplePattern{alt}
			if isUseful(matrix, row) {
				matrix = append(matrix, row)
				useful = true
			}
		}
		if !useful {
			redundant = append(redundant, pattern)
		}
	}
	return matrix, redundant
}

func isUseful(matrix [][]simplePattern, vector []simplePattern) bool {
	if len(matrix) == 0 {
		return true
	}
	if len(vector) == 0 {
		return false
	}
	switch e := vector[0].(type) {
	case simpleConstructor:
		return isUseful(
			common.MapIf(specializeRowByCtor(e.Union, e.Option()), matrix),
			append(e.Args, vector[1:]...))
	case simpleAnything:
		if union, ok := isComplete(matrix); ok {
			isUsefulAlt := func(c typed.DataOption) bool {
				return isUseful(
					common.MapIf(specializeRowByCtor(union, c), matrix),
					append(common.Repeat(simplePattern(simpleAnything{}), len(c.Values)), vector[1:]...))
			}
			return common.Any(isUsefulAlt, union.Options)
		}
		return isUseful(
			common.MapIf(specializeRowByAnything, matrix),
			vector[1:])
	case simpleLiteral:
		return isUseful(
			common.MapIf(specializeRowByLiteral(e), matrix),
			vector[1:])
	}
	panic(common.SystemError{Message: "invalid case"})
}

func specializeRowByCtor(union *typed.TData, ctor typed.DataOption) func(row []simplePattern) ([]simplePattern, bool) {
	name := common.MakeDataOptionIdentifier(union.Name, ctor.Name)
	return func(row []simplePattern) ([]simplePattern, bool) {
		if len(row) == 0 {
			panic(common.SystemError{Message: "compiler bug! empty rows should not get specialized"})
		}
		switch e := row[0].(type) {
		case simpleConstructor:
			if e.Name == name {
				return append(e.Args, row[1:]...), true
			}
			return nil, false
		case simpleAnything:
			return append(common.Repeat(simplePattern(simpleAnything{}), len(ctor.Values)), row[1:]...), true
		case simpleLiteral:
			panic(common.SystemError{Message: "compiler bug! constructors and literals should never align after type checking"})
		}
		panic(common.SystemError{Message: "invalid case"})
	}
}

func specializeRowByAnything(row []simplePattern) ([]simplePattern, bool) {
	if len(row) == 0 {
		return nil, false
	}
	switch row[0].(type) {
	case simpleConstructor:
		return nil, false
	case simpleAnything:
		return row[1:], true
	case simpleLiteral:
		return nil, false
	}
	panic(common.SystemError{Message: "invalid case"})
}

func specializeRowByLiteral(literal simpleLiteral) func(row []simplePattern) ([]simplePattern, bool) {
	return func(row []simplePattern) ([]simplePattern, bool) {
		if len(row) == 0 {
			panic(common.SystemError{Message: "compiler bug! empty rows should not get specialized"})
		}
		switch e := row[0].(type) {
		case simpleConstructor:
			panic(common.SystemError{Message: "compiler bug! constructors and literals should never align after type checking"})
		case simpleAnything:
			return row[1:], true
		case simpleLiteral:
			if e.equalsTo(literal) {
				return row[1:], true
			}
			return nil, false
		}
		panic(common.SystemError{Message: "invalid case"})
	}
}

func isComplete(matrix [][]simplePattern) (*typed.TData, bool) {
	ctors := collectCtors(matrix)
	t := firstCtor(ctors)
	if t == nil || t.Extensible {
		return nil, false
	}
	if len(t.Options) == len(ctors) {
		return t, true
	}
	return nil, false
}

func firstCtor(ctors map[ast.DataOptionIdentifier]*typed.TData) *typed.TData {
	var minKey ast.DataOptionIdentifier
	for key := range ctors {
		if key < minKey || minKey == "" {
			minKey = key
		}
	}
	if minKey == "" {
		return nil
	}
	return ctors[minKey]
}

func collectCtors(matrix [][]simplePattern) map[ast.DataOptionIdentifier]*typed.TData {
	ctors := map[ast.DataOptionIdentifier]*typed.TData{}
	for _, row := range matrix {
		if c, ok := row[0].(simpleConstructor); ok {
			ctors[c.Name] = c.Union
		}
	}
	return ctors
}

func isExhaustive(matrix [][]simplePattern, n int) [][]simplePattern {
	if len(matrix) == 0 {
		return [][]simplePattern{common.Repeat(simplePattern(simpleAnything{}), n)}
	}
	if n == 0 {
		return nil
	}
	ctors := collectCtors(matrix)
	numSeen := len(ctors)
	if numSeen == 0 {
		return common.Map(
			func(row []simplePattern) []simplePattern {
				return append([]simplePattern{simpleAnything{}}, row...)
			},
			isExhaustive(common.MapIf(specializeRowByAnything, matrix), n-1))
	}
	union := firstCtor(ctors)
	altList := union.Options
	numAlts := len(altList)
	if union.Extensible && numSeen >= numAlts {
		// every listed option appears, but the union stays open
		return common.Map(
			func(row []simplePattern) []simplePattern {
				return append([]simplePattern{simpleAnything{}}, row...)
			},
			isExhaustive(common.MapIf(specializeRowByAnything, matrix), n-1))
	}
	if numSeen < numAlts {
		matrix = isExhaustive(common.MapIf(specializeRowByAnything, matrix), n-1)
		rest := common.MapIf(isMissing(union, ctors), altList)
		for i, row := range matrix {
			if i < len(rest) {
				matrix[i] = append([]simplePattern{rest[i]}, row...)
			}
		}
		n = len(rest)
		if len(matrix) < n {
			n = len(matrix)
		}
		return matrix[:n]
	}
	isAltExhaustive := func(alt typed.DataOption) [][]simplePattern {
		mx := isExhaustive(
			common.MapIf(specializeRowByCtor(union, alt), matrix),
			len(alt.Values)+n-1)
		for i, row := range mx {
			mx[i] = recoverCtor(union, alt, row)
		}
		return mx
	}
	return common.ConcatMap(isAltExhaustive, altList)
}

func isMissing(union *typed.TData, ctors map[ast.DataOptionIdentifier]*typed.TData) func(alt typed.DataOption) (simplePattern, bool) {
	return func(alt typed.DataOption) (simplePattern, bool) {
		name := common.MakeDataOptionIdentifier(union.Name, alt.Name)
		if _, ok := ctors[name]; ok {
			return nil, false
		}
		return simpleConstructor{
			Union: union,
			Name:  name,
			Args:  common.Repeat(simplePattern(simpleAnything{}), len(alt.Values)),
		}, true
	}
}

func recoverCtor(union *typed.TData, alt typed.DataOption, patterns []simplePattern) []simplePattern {
	args := patterns[:len(alt.Values)]
	rest := patterns[len(alt.Values):]
	return append([]simplePattern{
		simpleConstructor{
			Union: union,
			Name:  common.MakeDataOptionIdentifier(union.Name, alt.Name),
			Args:  args,
		},
	}, rest...)
}

// simplifyAlternatives reduces a pattern to matrix rows: anything, opaque
// literal or constructor. Or alternatives multiply rows, including nested
// ones, which expand as a cartesian product through their parent.
func simplifyAlternatives(pattern typed.Pattern) []simplePattern {
	switch e := pattern.(type) {
	case *typed.PAny:
		return []simplePattern{simpleAnything{}}
	case *typed.PError:
		return []simplePattern{simpleAnything{}}
	case *typed.PNamed:
		return []simplePattern{simpleAnything{}}
	case *typed.PNever:
		// a never pattern only type checks against an uninhabited subject,
		// which it then covers entirely
		return []simplePattern{simpleAnything{}}
	case *typed.PAlias:
		return simplifyAlternatives(e.Nested)
	case *typed.PAscription:
		return simplifyAlternatives(e.Nested)
	case *typed.PShared:
		return simplifyAlternatives(e.Nested)
	case *typed.PDeref:
		return simplifyAlternatives(e.Nested)
	case *typed.POr:
		return common.ConcatMap(simplifyAlternatives, e.Items)
	case *typed.PConst:
		return []simplePattern{simplifyConst(e)}
	case *typed.PRange:
		if e.IsFull() {
			return []simplePattern{simpleAnything{}}
		}
		return []simplePattern{simpleLiteral{Lo: e.Lo, Hi: e.Hi, Inclusive: e.Inclusive}}
	case *typed.PTuple:
		union := &typed.TData{
			Location: e.GetLocation(),
			Name:     ast.FullIdentifier(fmt.Sprintf("!!%d", len(e.Items))),
			Options: []typed.DataOption{{
				Name:   "Only",
				Values: common.Map(func(i typed.Pattern) typed.Type { return i.GetType() }, e.Items),
			}},
		}
		return ctorRows(union, "Only", common.Map(simplifyAlternatives, e.Items))
	case *typed.PRecord:
		rec, ok := e.GetType().(*typed.TRecord)
		if !ok {
			panic(common.SystemError{Message: "compiler bug! record pattern must carry a record type"})
		}
		union := &typed.TData{
			Location: e.GetLocation(),
			Name:     "!!record",
			Options: []typed.DataOption{{
				Name:   "Only",
				Values: common.Map(func(f typed.RecordField) typed.Type { return f.Type }, rec.Fields),
			}},
		}
		alternatives := make([][]simplePattern, len(rec.Fields))
		for i := range alternatives {
			alternatives[i] = []simplePattern{simpleAnything{}}
		}
		for _, f := range e.Fields {
			if i, found := rec.FieldIndex(f.Name); found {
				alternatives[i] = simplifyAlternatives(f.Pattern)
			}
		}
		return ctorRows(union, "Only", alternatives)
	case *typed.PDataOption:
		data, ok := e.GetType().(*typed.TData)
		if !ok {
			panic(common.SystemError{Message: "compiler bug! data option pattern must carry a data type"})
		}
		return ctorRows(data, e.OptionName, common.Map(simplifyAlternatives, e.Args))
	case *typed.PSeq:
		return simplifySeq(e)
	}
	panic(common.SystemError{Message: "invalid case"})
}

func simplifyConst(p *typed.PConst) simplePattern {
	switch v := p.Value.(type) {
	case ast.CUnit:
		union := &typed.TData{
			Location: p.Location,
			Name:     "!!Unit",
			Options:  []typed.DataOption{{Name: "Only"}},
		}
		return simpleConstructor{Union: union, Name: common.MakeDataOptionIdentifier(union.Name, "Only")}
	case ast.CBool:
		union := &typed.TData{
			Location: p.Location,
			Name:     "!!Bool",
			Options:  []typed.DataOption{{Name: "False"}, {Name: "True"}},
		}
		name := ast.Identifier("False")
		if v.Value {
			name = "True"
		}
		return simpleConstructor{Union: union, Name: common.MakeDataOptionIdentifier(union.Name, name)}
	}
	return simpleLiteral{Lo: p.Value}
}

// simplifySeq turns a sequence pattern into a length class constructor: an
// exact class when every element is pinned, an open one when a middle may
// absorb extra elements. The middle itself never constrains coverage. Only
// a statically sized sequence without a middle forms a closed union.
func simplifySeq(p *typed.PSeq) []simplePattern {
	seq, ok := p.GetType().(*typed.TSeq)
	if !ok {
		panic(common.SystemError{Message: "compiler bug! sequence pattern must carry a sequence type"})
	}
	if len(p.Prefix) == 0 && len(p.Suffix) == 0 && p.Middle != nil {
		return simplifyAlternatives(p.Middle)
	}
	elems := append(append([]typed.Pattern{}, p.Prefix...), p.Suffix...)
	name := ast.Identifier(fmt.Sprintf("Len%d", len(elems)))
	if p.Middle != nil {
		name = ast.Identifier(fmt.Sprintf("Len%d+", len(elems)))
	}
	option := typed.DataOption{Name: name, Values: common.Repeat(seq.Item, len(elems))}
	union := &typed.TData{
		Location:   p.GetLocation(),
		Name:       "!!seq",
		Options:    []typed.DataOption{option},
		Extensible: !seq.Fixed || p.Middle != nil,
	}
	return ctorRows(union, option.Name, common.Map(simplifyAlternatives, elems))
}

func ctorRows(union *typed.TData, option ast.Identifier, alternatives [][]simplePattern) []simplePattern {
	name := common.MakeDataOptionIdentifier(union.Name, option)
	return common.Map(func(args []simplePattern) simplePattern {
		return simpleConstructor{Union: union, Name: name, Args: args}
	}, cartesian(alternatives))
}

func cartesian(lists [][]simplePattern) [][]simplePattern {
	rows := [][]simplePattern{nil}
	for _, alts := range lists {
		var next [][]simplePattern
		for _, row := range rows {
			for _, alt := range alts {
				grown := make([]simplePattern, len(row), len(row)+1)
				copy(grown, row)
				next = append(next, append(grown, alt))
			}
		}
		rows = next
	}
	return rows
}

type simplePattern interface {
	fmt.Stringer
	_simplePattern()
}

type simpleAnything struct{}

func (simpleAnything) _simplePattern() {}

func (simpleAnything) String() string {
	return "_"
}

// simpleLiteral is an opaque point or range of a scalar domain. Hi is nil
// for a point. Overlap between distinct literals is not modeled.
type simpleLiteral struct {
	Lo        ast.ConstValue
	Hi        ast.ConstValue
	Inclusive bool
}

func (simpleLiteral) _simplePattern() {}

func (p simpleLiteral) String() string {
	if p.Hi == nil {
		return p.Lo.Code("")
	}
	op := ".."
	if p.Inclusive {
		op = "..="
	}
	return p.Lo.Code("") + op + p.Hi.Code("")
}

func (p simpleLiteral) equalsTo(o simpleLiteral) bool {
	if (p.Hi == nil) != (o.Hi == nil) {
		return false
	}
	if !p.Lo.EqualsTo(o.Lo) {
		return false
	}
	if p.Hi == nil {
		return true
	}
	return p.Inclusive == o.Inclusive && p.Hi.EqualsTo(o.Hi)
}

type simpleConstructor struct {
	Union *typed.TData
	Name  ast.DataOptionIdentifier
	Args  []simplePattern
}

func (simpleConstructor) _simplePattern() {}

func (c simpleConstructor) String() string {
	params := common.Join(c.Args, ", ")
	if params != "" {
		params = fmt.Sprintf("(%s)", params)
	}
	return fmt.Sprintf("%s%s", c.Name, params)
}

func (c simpleConstructor) Option() typed.DataOption {
	for _, o := range c.Union.Options {
		if common.MakeDataOptionIdentifier(c.Union.Name, o.Name) == c.Name {
			return o
		}
	}
	panic(common.SystemError{Message: "compiler bug! constructor option not found"})
}
