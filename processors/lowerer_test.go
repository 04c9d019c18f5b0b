package processors

import (
	"strings"
	"testing"

	"fir-lowering/ast"
	"fir-lowering/ast/lowered"
	"fir-lowering/ast/typed"
	"fir-lowering/common"
	"fir-lowering/pkg/logger"
)

var testLoc = ast.NewLocation("match.fir", []rune("match x"), 0, 5)

func u8() *typed.TNative {
	return &typed.TNative{Location: testLoc, Name: common.FirCoreU8}
}

func intT() *typed.TNative {
	return &typed.TNative{Location: testLoc, Name: common.FirCoreInt}
}

func charT() *typed.TNative {
	return &typed.TNative{Location: testLoc, Name: common.FirCoreChar}
}

func neverT() *typed.TNative {
	return &typed.TNative{Location: testLoc, Name: common.FirCoreNever}
}

// Shade = Light | Dark(U8); both options inhabited, so naming one is a real
// runtime test.
func shade() *typed.TData {
	return &typed.TData{
		Location: testLoc,
		Name:     "Palette.Shade",
		Options: []typed.DataOption{
			{Name: "Light"},
			{Name: "Dark", Values: []typed.Type{u8()}},
		},
	}
}

func box(item typed.Type) *typed.TData {
	return &typed.TData{
		Location: testLoc,
		Name:     "Palette.Box",
		Options:  []typed.DataOption{{Name: "Box", Values: []typed.Type{item}}},
	}
}

func namedOf(name string, t typed.Type) *typed.PNamed {
	return &typed.PNamed{Location: testLoc, Type: t, Name: ast.Identifier(name), Mode: typed.BindByValue}
}

func named(name string) *typed.PNamed {
	return namedOf(name, u8())
}

func wild() *typed.PAny {
	return &typed.PAny{Location: testLoc, Type: u8()}
}

func alias(name string, nested typed.Pattern) *typed.PAlias {
	return &typed.PAlias{Location: testLoc, Type: nested.GetType(), Alias: ast.Identifier(name), Mode: typed.BindByValue, Nested: nested}
}

func boxed(nested typed.Pattern) *typed.PDataOption {
	data := box(nested.GetType())
	return &typed.PDataOption{Location: testLoc, Type: data, DataName: data.Name, OptionName: "Box", Args: []typed.Pattern{nested}}
}

func shadeOf(option string, args ...typed.Pattern) *typed.PDataOption {
	data := shade()
	return &typed.PDataOption{Location: testLoc, Type: data, DataName: data.Name, OptionName: ast.Identifier(option), Args: args}
}

func tuple(items ...typed.Pattern) *typed.PTuple {
	types := common.Map(func(p typed.Pattern) typed.Type { return p.GetType() }, items)
	return &typed.PTuple{Location: testLoc, Type: &typed.TTuple{Location: testLoc, Items: types}, Items: items}
}

func orPat(items ...typed.Pattern) *typed.POr {
	return &typed.POr{Location: testLoc, Type: items[0].GetType(), Items: items}
}

func constPat(v int64) *typed.PConst {
	return &typed.PConst{Location: testLoc, Type: u8(), Value: ast.CInt{Value: v}}
}

func rangePat(t typed.Type, lo, hi int64, inclusive bool) *typed.PRange {
	return &typed.PRange{Location: testLoc, Type: t, Lo: ast.CInt{Value: lo}, Hi: ast.CInt{Value: hi}, Inclusive: inclusive}
}

func seqPat(t *typed.TSeq, prefix []typed.Pattern, middle typed.Pattern, suffix []typed.Pattern) *typed.PSeq {
	return &typed.PSeq{Location: testLoc, Type: t, Prefix: prefix, Middle: middle, Suffix: suffix}
}

func fixedSeq(n int64) *typed.TSeq {
	return &typed.TSeq{Location: testLoc, Item: u8(), Len: n, Fixed: true}
}

func runtimeSeq() *typed.TSeq {
	return &typed.TSeq{Location: testLoc, Item: u8()}
}

func simplified(t *testing.T, pattern typed.Pattern) (*lowered.Candidate, bool) {
	t.Helper()
	l := NewLowerer(nil, nil, nil)
	c := lowered.NewCandidate(lowered.BuildPlace(0), pattern, false)
	expanded := l.SimplifyCandidate(c)
	if err := c.Validate(); err != nil {
		t.Fatalf("invalid candidate after simplification: %s", err)
	}
	return c, expanded
}

func bindingNames(c *lowered.Candidate) string {
	return strings.Join(common.Map(func(b lowered.Binding) string { return string(b.Name) }, c.Bindings), " ")
}

func TestTrivialPatternsResolve(t *testing.T) {
	for _, pattern := range []typed.Pattern{
		wild(),
		&typed.PError{Location: testLoc, Type: u8()},
		&typed.PNever{Location: testLoc, Type: neverT()},
	} {
		c, expanded := simplified(t, pattern)
		if expanded {
			t.Errorf("%T: expected no expansion", pattern)
		}
		if len(c.MatchPairs) != 0 || len(c.Bindings) != 0 || len(c.Ascriptions) != 0 {
			t.Errorf("%T: expected empty candidate, got %s", pattern, c)
		}
	}
}

func TestBindingAtSubject(t *testing.T) {
	c, _ := simplified(t, named("x"))
	if len(c.MatchPairs) != 0 {
		t.Fatalf("expected 0 pairs, got %d", len(c.MatchPairs))
	}
	if len(c.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(c.Bindings))
	}
	b := c.Bindings[0]
	if b.Name != "x" {
		t.Errorf("expected binding name 'x', got %q", b.Name)
	}
	if b.Source.String() != "_0" {
		t.Errorf("expected source _0, got %s", b.Source)
	}
	if b.Mode != typed.BindByValue {
		t.Errorf("expected by-value mode, got %s", b.Mode)
	}
}

func TestLeafDecomposition(t *testing.T) {
	// irreducible leaves keep the two projected pairs observable
	c, _ := simplified(t, tuple(constPat(1), constPat(2)))
	if len(c.MatchPairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(c.MatchPairs))
	}
	if len(c.Bindings) != 0 || len(c.Ascriptions) != 0 {
		t.Errorf("expected no bindings or ascriptions, got %s", c)
	}
	if got := c.MatchPairs[0].Place.String(); got != "_0.0" {
		t.Errorf("expected first pair at _0.0, got %s", got)
	}
	if got := c.MatchPairs[1].Place.String(); got != "_0.1" {
		t.Errorf("expected second pair at _0.1, got %s", got)
	}
}

func TestRecordFieldProjection(t *testing.T) {
	rec := &typed.TRecord{Location: testLoc, Fields: []typed.RecordField{
		{Name: "code", Type: u8()},
		{Name: "flag", Type: u8()},
	}}
	// pattern names the fields out of declaration order
	pattern := &typed.PRecord{Location: testLoc, Type: rec, Fields: []typed.PRecordField{
		{Location: testLoc, Name: "flag", Pattern: constPat(1)},
		{Location: testLoc, Name: "code", Pattern: constPat(2)},
	}}
	c, _ := simplified(t, pattern)
	if len(c.MatchPairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(c.MatchPairs))
	}
	if got := c.MatchPairs[0].Place.String(); got != "_0.1" {
		t.Errorf("expected flag pair at _0.1, got %s", got)
	}
	if got := c.MatchPairs[1].Place.String(); got != "_0.0" {
		t.Errorf("expected code pair at _0.0, got %s", got)
	}
}

func TestAliasBindsInnerFirst(t *testing.T) {
	// y @ (Box(a), Box(b)) must bind a, b before y
	c, expanded := simplified(t, alias("y", tuple(boxed(named("a")), boxed(named("b")))))
	if expanded {
		t.Fatal("expected no expansion")
	}
	if len(c.MatchPairs) != 0 {
		t.Fatalf("expected 0 pairs, got %d", len(c.MatchPairs))
	}
	if got := bindingNames(c); got != "a b y" {
		t.Fatalf("expected binding order 'a b y', got %q", got)
	}
	if got := c.Bindings[0].Source.String(); got != "_0.0@Box.0" {
		t.Errorf("expected a bound at _0.0@Box.0, got %s", got)
	}
	if got := c.Bindings[2].Source.String(); got != "_0" {
		t.Errorf("expected y bound at _0, got %s", got)
	}
}

func TestAliasChainBindsDeepestFirst(t *testing.T) {
	c, _ := simplified(t, alias("outer", boxed(alias("inner", boxed(named("x"))))))
	if got := bindingNames(c); got != "x inner outer" {
		t.Fatalf("expected binding order 'x inner outer', got %q", got)
	}
}

func TestSameLevelBindingsKeepSourceOrder(t *testing.T) {
	c, _ := simplified(t, tuple(named("a"), named("b"), named("c")))
	if got := bindingNames(c); got != "a b c" {
		t.Fatalf("expected binding order 'a b c', got %q", got)
	}
}

func TestOrExpansionCount(t *testing.T) {
	c, expanded := simplified(t, orPat(constPat(1), constPat(2), constPat(3)))
	if !expanded {
		t.Fatal("expected expansion")
	}
	if len(c.MatchPairs) != 0 {
		t.Fatalf("expected 0 pairs on parent, got %d", len(c.MatchPairs))
	}
	if len(c.SubCandidates) != 3 {
		t.Fatalf("expected 3 sub candidates, got %d", len(c.SubCandidates))
	}
	for i, sub := range c.SubCandidates {
		if len(sub.MatchPairs) != 1 {
			t.Fatalf("sub %d: expected 1 pair, got %d", i, len(sub.MatchPairs))
		}
		pc, ok := sub.MatchPairs[0].Pattern.(*typed.PConst)
		if !ok {
			t.Fatalf("sub %d: expected PConst, got %T", i, sub.MatchPairs[0].Pattern)
		}
		if v := pc.Value.(ast.CInt).Value; v != int64(i+1) {
			t.Errorf("sub %d: expected literal %d, got %d", i, i+1, v)
		}
	}
}

func TestOrDeferredWhileOtherPairsRemain(t *testing.T) {
	subject := lowered.BuildPlace(0)
	c := &lowered.Candidate{MatchPairs: []lowered.MatchPair{
		{Place: subject, Pattern: wild()},
		{Place: subject.Field(1), Pattern: orPat(constPat(1), constPat(2))},
	}}
	l := NewLowerer(nil, nil, nil)
	expanded := l.SimplifyCandidate(c)
	if !expanded {
		t.Fatal("expected expansion once the wildcard resolved")
	}
	if len(c.SubCandidates) != 2 {
		t.Fatalf("expected 2 sub candidates, got %d", len(c.SubCandidates))
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("invalid candidate: %s", err)
	}
}

func TestOrAfterSiblingsResolved(t *testing.T) {
	c, expanded := simplified(t, tuple(orPat(shadeOf("Light"), shadeOf("Dark", wild())), named("n")))
	if !expanded {
		t.Fatal("expected expansion")
	}
	// the sibling binding stays on the parent and applies before any
	// alternative is tried
	if got := bindingNames(c); got != "n" {
		t.Fatalf("expected parent binding 'n', got %q", got)
	}
	if len(c.SubCandidates) != 2 {
		t.Fatalf("expected 2 sub candidates, got %d", len(c.SubCandidates))
	}
	for i, sub := range c.SubCandidates {
		if len(sub.MatchPairs) != 1 {
			t.Fatalf("sub %d: expected 1 irreducible pair, got %d", i, len(sub.MatchPairs))
		}
		if _, ok := sub.MatchPairs[0].Pattern.(*typed.PDataOption); !ok {
			t.Errorf("sub %d: expected PDataOption, got %T", i, sub.MatchPairs[0].Pattern)
		}
	}
}

func TestGuardInheritedByAlternatives(t *testing.T) {
	l := NewLowerer(nil, nil, nil)
	c := lowered.NewCandidate(lowered.BuildPlace(0), orPat(constPat(1), constPat(2)), true)
	l.SimplifyCandidate(c)
	if len(c.SubCandidates) != 2 {
		t.Fatalf("expected 2 sub candidates, got %d", len(c.SubCandidates))
	}
	for i, sub := range c.SubCandidates {
		if !sub.HasGuard {
			t.Errorf("sub %d: expected inherited guard flag", i)
		}
	}
}

func TestNestedOrExpandsRecursively(t *testing.T) {
	c, _ := simplified(t, orPat(orPat(constPat(1), constPat(2)), constPat(3)))
	if len(c.SubCandidates) != 2 {
		t.Fatalf("expected 2 sub candidates, got %d", len(c.SubCandidates))
	}
	inner := c.SubCandidates[0]
	if len(inner.SubCandidates) != 2 {
		t.Fatalf("expected nested or to expand into 2 alternatives, got %d", len(inner.SubCandidates))
	}
	if len(inner.MatchPairs) != 0 {
		t.Errorf("expected no pairs on the nested parent, got %d", len(inner.MatchPairs))
	}
	if len(c.SubCandidates[1].MatchPairs) != 1 {
		t.Errorf("expected 1 pair on the literal alternative, got %d", len(c.SubCandidates[1].MatchPairs))
	}
}

func TestSimplifyIdempotentOnFixedPoint(t *testing.T) {
	l := NewLowerer(nil, nil, nil)
	c := lowered.NewCandidate(lowered.BuildPlace(0), tuple(constPat(1), shadeOf("Dark", wild())), false)
	l.SimplifyCandidate(c)
	before := c.String()
	if expanded := l.SimplifyCandidate(c); expanded {
		t.Fatal("expected re-run not to expand")
	}
	if got := c.String(); got != before {
		t.Fatalf("expected re-run to be a no-op\nbefore: %s\nafter:  %s", before, got)
	}
}

func TestSimplifyIdempotentOnExpanded(t *testing.T) {
	l := NewLowerer(nil, nil, nil)
	c := lowered.NewCandidate(lowered.BuildPlace(0), tuple(orPat(constPat(1), constPat(2)), named("n")), false)
	l.SimplifyCandidate(c)
	before := c.String()
	if expanded := l.SimplifyCandidate(c); expanded {
		t.Fatal("expected re-run not to expand again")
	}
	if got := c.String(); got != before {
		t.Fatalf("expected re-run to be a no-op\nbefore: %s\nafter:  %s", before, got)
	}
}

func TestFullRangeResolves(t *testing.T) {
	for _, pattern := range []typed.Pattern{
		rangePat(u8(), 0, 255, true),
		rangePat(u8(), 0, 256, false),
		&typed.PRange{Location: testLoc, Type: charT(), Lo: ast.CChar{Value: 0}, Hi: ast.CChar{Value: 0x10FFFF}, Inclusive: true},
	} {
		c, _ := simplified(t, pattern)
		if len(c.MatchPairs) != 0 {
			t.Errorf("%s: expected full range to resolve, %d pairs remain", pattern.Code(""), len(c.MatchPairs))
		}
	}
}

func TestPartialRangeIrreducible(t *testing.T) {
	for _, pattern := range []typed.Pattern{
		rangePat(u8(), 0, 10, true),
		rangePat(u8(), 0, 255, false),
		// Int has no finite domain, so no range over it is ever full
		rangePat(intT(), 0, 255, true),
	} {
		c, _ := simplified(t, pattern)
		if len(c.MatchPairs) != 1 {
			t.Fatalf("%s: expected 1 irreducible pair, got %d", pattern.Code(""), len(c.MatchPairs))
		}
		if _, ok := c.MatchPairs[0].Pattern.(*typed.PRange); !ok {
			t.Errorf("expected PRange pair, got %T", c.MatchPairs[0].Pattern)
		}
	}
}

func TestIrrefutableVariantDecomposes(t *testing.T) {
	c, _ := simplified(t, boxed(named("x")))
	if len(c.MatchPairs) != 0 {
		t.Fatalf("expected 0 pairs, got %d", len(c.MatchPairs))
	}
	if len(c.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(c.Bindings))
	}
	if got := c.Bindings[0].Source.String(); got != "_0@Box.0" {
		t.Errorf("expected x bound at _0@Box.0, got %s", got)
	}
}

func TestUninhabitedSiblingMakesVariantIrrefutable(t *testing.T) {
	result := &typed.TData{
		Location: testLoc,
		Name:     "Palette.Result",
		Options: []typed.DataOption{
			{Name: "Ok", Values: []typed.Type{u8()}},
			{Name: "Err", Values: []typed.Type{neverT()}},
		},
	}
	pattern := &typed.PDataOption{Location: testLoc, Type: result, DataName: result.Name, OptionName: "Ok", Args: []typed.Pattern{named("v")}}
	c, _ := simplified(t, pattern)
	if len(c.MatchPairs) != 0 {
		t.Fatalf("expected Ok to be irrefutable, %d pairs remain", len(c.MatchPairs))
	}
	if got := bindingNames(c); got != "v" {
		t.Errorf("expected binding 'v', got %q", got)
	}
}

func TestRefutableVariantStays(t *testing.T) {
	c, _ := simplified(t, shadeOf("Dark", wild()))
	if len(c.MatchPairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(c.MatchPairs))
	}
	if _, ok := c.MatchPairs[0].Pattern.(*typed.PDataOption); !ok {
		t.Errorf("expected PDataOption pair, got %T", c.MatchPairs[0].Pattern)
	}
}

func TestExtensibleDataNeverIrrefutable(t *testing.T) {
	tag := &typed.TData{
		Location:   testLoc,
		Name:       "Palette.Tag",
		Options:    []typed.DataOption{{Name: "Only"}},
		Extensible: true,
	}
	pattern := &typed.PDataOption{Location: testLoc, Type: tag, DataName: tag.Name, OptionName: "Only"}
	c, _ := simplified(t, pattern)
	if len(c.MatchPairs) != 1 {
		t.Fatalf("expected the sole option of an extensible data to stay refutable, got %d pairs", len(c.MatchPairs))
	}
}

func TestWildcardAscriptionErases(t *testing.T) {
	pattern := &typed.PAscription{Location: testLoc, Type: u8(), Nested: wild(), Ascribed: u8(), Variance: typed.VarianceCovariant}
	c, _ := simplified(t, pattern)
	if len(c.MatchPairs) != 0 || len(c.Bindings) != 0 {
		t.Fatalf("expected only an ascription to remain, got %s", c)
	}
	if len(c.Ascriptions) != 1 {
		t.Fatalf("expected 1 ascription, got %d", len(c.Ascriptions))
	}
	a := c.Ascriptions[0]
	if a.Source.String() != "_0" {
		t.Errorf("expected ascription at _0, got %s", a.Source)
	}
	if !a.Ascribed.EqualsTo(u8()) {
		t.Errorf("expected ascribed type U8, got %s", a.Ascribed)
	}
	if a.Variance != typed.VarianceCovariant {
		t.Errorf("expected covariant ascription, got %v", a.Variance)
	}
}

type constTable map[uint64]typed.Type

func (m constTable) SharedConstType(id uint64) (typed.Type, bool) {
	t, ok := m[id]
	return t, ok
}

func TestSharedConstAscribes(t *testing.T) {
	pattern := &typed.PShared{Location: testLoc, Type: u8(), Nested: named("k"), ConstId: 7}
	l := NewLowerer(nil, constTable{7: u8()}, nil)
	c := lowered.NewCandidate(lowered.BuildPlace(0), pattern, false)
	l.SimplifyCandidate(c)
	if len(c.Ascriptions) != 1 {
		t.Fatalf("expected 1 ascription, got %d", len(c.Ascriptions))
	}
	if c.Ascriptions[0].Variance != typed.VarianceContravariant {
		t.Errorf("expected contravariant ascription, got %v", c.Ascriptions[0].Variance)
	}
	if got := bindingNames(c); got != "k" {
		t.Errorf("expected binding 'k', got %q", got)
	}
}

func TestSharedConstWithoutResolver(t *testing.T) {
	pattern := &typed.PShared{Location: testLoc, Type: u8(), Nested: named("k"), ConstId: 7}
	c, _ := simplified(t, pattern)
	if len(c.Ascriptions) != 0 {
		t.Fatalf("expected no ascription without a resolver, got %d", len(c.Ascriptions))
	}
	if got := bindingNames(c); got != "k" {
		t.Errorf("expected binding 'k', got %q", got)
	}
}

func TestDerefFollowsTarget(t *testing.T) {
	ref := &typed.TRef{Location: testLoc, Nested: u8()}
	pattern := &typed.PDeref{Location: testLoc, Type: ref, Nested: named("p")}
	c, _ := simplified(t, pattern)
	if len(c.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(c.Bindings))
	}
	if got := c.Bindings[0].Source.String(); got != "_0.*" {
		t.Errorf("expected p bound at _0.*, got %s", got)
	}
}

func TestFixedSeqDecomposes(t *testing.T) {
	seq := fixedSeq(4)
	pattern := seqPat(seq,
		[]typed.Pattern{named("first")},
		namedOf("rest", runtimeSeq()),
		[]typed.Pattern{named("last")})
	c, _ := simplified(t, pattern)
	if len(c.MatchPairs) != 0 {
		t.Fatalf("expected fixed length sequence to decompose fully, %d pairs remain", len(c.MatchPairs))
	}
	if got := bindingNames(c); got != "first rest last" {
		t.Fatalf("expected bindings 'first rest last', got %q", got)
	}
	if got := c.Bindings[0].Source.String(); got != "_0[0]" {
		t.Errorf("expected first at _0[0], got %s", got)
	}
	if got := c.Bindings[1].Source.String(); got != "_0[1..3]" {
		t.Errorf("expected rest at _0[1..3], got %s", got)
	}
	if got := c.Bindings[2].Source.String(); got != "_0[3]" {
		t.Errorf("expected last at _0[3], got %s", got)
	}
}

func TestRuntimeSeqIrreducible(t *testing.T) {
	pattern := seqPat(runtimeSeq(), []typed.Pattern{named("first")}, wild(), []typed.Pattern{named("last")})
	c, _ := simplified(t, pattern)
	if len(c.MatchPairs) != 1 {
		t.Fatalf("expected 1 irreducible pair, got %d", len(c.MatchPairs))
	}
	if _, ok := c.MatchPairs[0].Pattern.(*typed.PSeq); !ok {
		t.Errorf("expected PSeq pair, got %T", c.MatchPairs[0].Pattern)
	}
}

func TestRuntimeSeqWholeCapture(t *testing.T) {
	pattern := seqPat(runtimeSeq(), nil, namedOf("xs", runtimeSeq()), nil)
	c, _ := simplified(t, pattern)
	if len(c.MatchPairs) != 0 {
		t.Fatalf("expected whole capture to resolve, %d pairs remain", len(c.MatchPairs))
	}
	if len(c.Bindings) != 1 || c.Bindings[0].Source.String() != "_0" {
		t.Fatalf("expected xs bound at the sequence's own place, got %s", c)
	}
}

func TestDecomposeSeqAfterLengthTest(t *testing.T) {
	pattern := seqPat(runtimeSeq(), []typed.Pattern{named("first")}, wild(), []typed.Pattern{named("last")})
	l := NewLowerer(nil, nil, nil)
	subject := lowered.BuildPlace(0)
	c := lowered.NewCandidate(subject, pattern, false)
	l.SimplifyCandidate(c)
	if len(c.MatchPairs) != 1 {
		t.Fatalf("expected the sequence pair to survive until the length test, got %d pairs", len(c.MatchPairs))
	}

	// the decision builder has now tested the length; decompose and reduce
	c.MatchPairs = nil
	l.DecomposeSeq(c, subject, pattern)
	l.SimplifyCandidate(c)

	if len(c.MatchPairs) != 0 {
		t.Fatalf("expected element pairs to resolve, %d remain", len(c.MatchPairs))
	}
	// the suffix element counts from the runtime length, so its binding is
	// skipped rather than emitted at an unresolved place
	if got := bindingNames(c); got != "first" {
		t.Fatalf("expected only 'first' to bind, got %q", got)
	}
	if got := c.Bindings[0].Source.String(); got != "_0[0]" {
		t.Errorf("expected first at _0[0], got %s", got)
	}
}

func TestOrPairsSortedLast(t *testing.T) {
	c, expanded := simplified(t, tuple(
		orPat(constPat(1), constPat(2)),
		constPat(7),
		orPat(constPat(3), constPat(4)),
		constPat(8),
	))
	if expanded {
		t.Fatal("expected no expansion while several or pairs remain")
	}
	if len(c.MatchPairs) != 4 {
		t.Fatalf("expected 4 pairs, got %d", len(c.MatchPairs))
	}
	lit := func(i int) int64 {
		pc, ok := c.MatchPairs[i].Pattern.(*typed.PConst)
		if !ok {
			t.Fatalf("pair %d: expected PConst, got %T", i, c.MatchPairs[i].Pattern)
		}
		return pc.Value.(ast.CInt).Value
	}
	if lit(0) != 7 || lit(1) != 8 {
		t.Errorf("expected literal pairs first in source order, got %s", c)
	}
	first, ok := c.MatchPairs[2].Pattern.(*typed.POr)
	if !ok {
		t.Fatalf("pair 2: expected POr, got %T", c.MatchPairs[2].Pattern)
	}
	if v := first.Items[0].(*typed.PConst).Value.(ast.CInt).Value; v != 1 {
		t.Errorf("expected or pairs to keep source order, got %s", c)
	}
	if _, ok := c.MatchPairs[3].Pattern.(*typed.POr); !ok {
		t.Errorf("pair 3: expected POr, got %T", c.MatchPairs[3].Pattern)
	}
}

func TestExistingBindingsPrecedeNew(t *testing.T) {
	l := NewLowerer(nil, nil, nil)
	c := lowered.NewCandidate(lowered.BuildPlace(0), named("x"), false)
	c.Bindings = append(c.Bindings, lowered.Binding{Location: testLoc, Source: lowered.Place{Base: 9}, Name: "outer", Mode: typed.BindByValue})
	l.SimplifyCandidate(c)
	if got := bindingNames(c); got != "outer x" {
		t.Fatalf("expected 'outer x', got %q", got)
	}
}

func TestLowerMatchPreservesArmOrder(t *testing.T) {
	l := NewLowerer(nil, nil, nil)
	candidates := l.LowerMatch(lowered.BuildPlace(3), []Arm{
		{Pattern: named("v")},
		{Pattern: constPat(1), HasGuard: true},
	})
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if got := bindingNames(candidates[0]); got != "v" {
		t.Errorf("arm 0: expected binding 'v', got %q", got)
	}
	if got := candidates[0].Bindings[0].Source.String(); got != "_3" {
		t.Errorf("arm 0: expected subject _3, got %s", got)
	}
	if candidates[0].HasGuard {
		t.Error("arm 0: unexpected guard flag")
	}
	if !candidates[1].HasGuard {
		t.Error("arm 1: expected guard flag")
	}
	if len(candidates[1].MatchPairs) != 1 {
		t.Errorf("arm 1: expected 1 irreducible pair, got %d", len(candidates[1].MatchPairs))
	}
}

func TestCheckOrBindingsAgreement(t *testing.T) {
	if err := CheckOrBindings(orPat(named("x"), named("x"))); err != nil {
		t.Errorf("expected agreeing alternatives to pass, got %s", err)
	}
	agree := orPat(
		tuple(named("a"), named("b")),
		tuple(named("b"), named("a")),
	)
	if err := CheckOrBindings(agree); err != nil {
		t.Errorf("expected order-insensitive agreement, got %s", err)
	}
}

func TestCheckOrBindingsMismatch(t *testing.T) {
	if err := CheckOrBindings(orPat(named("x"), wild())); err == nil {
		t.Error("expected missing binding to be reported")
	}
	if err := CheckOrBindings(orPat(wild(), named("x"))); err == nil {
		t.Error("expected extra binding to be reported")
	}
	refMode := &typed.PNamed{Location: testLoc, Type: u8(), Name: "x", Mode: typed.BindByRef}
	if err := CheckOrBindings(orPat(named("x"), refMode)); err == nil {
		t.Error("expected mode mismatch to be reported")
	}
}

func TestOrBindingMismatchLogged(t *testing.T) {
	log := &logger.LogWriter{}
	l := NewLowerer(nil, nil, log)
	c := lowered.NewCandidate(lowered.BuildPlace(0), orPat(named("x"), wild()), false)
	if expanded := l.SimplifyCandidate(c); !expanded {
		t.Fatal("expected expansion despite the mismatch")
	}
	if !log.HasErrors() {
		t.Error("expected the mismatch to be collected")
	}
}
