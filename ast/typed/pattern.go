package typed

import (
	"fmt"
	"fir-lowering/ast"
	"fir-lowering/common"
	"strings"
)

type BindMode uint8

const (
	bindModeNone BindMode = iota
	BindByValue
	BindByRef
	BindByRefMut
)

func (m BindMode) String() string {
	switch m {
	case BindByValue:
		return "value"
	case BindByRef:
		return "ref"
	case BindByRefMut:
		return "ref mut"
	}
	return "?"
}

type Variance uint8

const (
	varianceNone Variance = iota
	VarianceCovariant
	VarianceContravariant
	VarianceInvariant
)

// Pattern is a type-checked pattern tree node. Lowering never mutates a
// pattern, it only traverses one.
type Pattern interface {
	fmt.Stringer
	_pattern()
	GetType() Type
	GetLocation() ast.Location
	Code(currentModule ast.QualifiedIdentifier) string
}

type PAlias struct {
	ast.Location
	Type
	Alias  ast.Identifier
	Mode   BindMode
	Nested Pattern
}

func (*PAlias) _pattern() {}

func (p *PAlias) String() string {
	return fmt.Sprintf("PAlias(%s,%v){%s}", p.Alias, p.Nested, p.Type)
}

func (p *PAlias) GetLocation() ast.Location {
	return p.Location
}

func (p *PAlias) GetType() Type {
	return p.Type
}

func (p *PAlias) Code(currentModule ast.QualifiedIdentifier) string {
	return bindModePrefix(p.Mode) + string(p.Alias) + " @ " + p.Nested.Code(currentModule)
}

type PAny struct {
	ast.Location
	Type
}

func (*PAny) _pattern() {}

func (p *PAny) String() string {
	return fmt.Sprintf("PAny(){%s}", p.Type)
}

func (p *PAny) GetLocation() ast.Location {
	return p.Location
}

func (p *PAny) GetType() Type {
	return p.Type
}

func (p *PAny) Code(currentModule ast.QualifiedIdentifier) string {
	return "_"
}

type PAscription struct {
	ast.Location
	Type
	Nested   Pattern
	Ascribed Type
	Variance Variance
}

func (*PAscription) _pattern() {}

func (p *PAscription) String() string {
	return fmt.Sprintf("PAscription(%v,%s){%s}", p.Nested, p.Ascribed, p.Type)
}

func (p *PAscription) GetLocation() ast.Location {
	return p.Location
}

func (p *PAscription) GetType() Type {
	return p.Type
}

func (p *PAscription) Code(currentModule ast.QualifiedIdentifier) string {
	return p.Nested.Code(currentModule) + ": " + p.Ascribed.Code(currentModule)
}

type PConst struct {
	ast.Location
	Type
	Value ast.ConstValue
}

func (*PConst) _pattern() {}

func (p *PConst) String() string {
	return fmt.Sprintf("PConst(%v){%s}", p.Value, p.Type)
}

func (p *PConst) GetLocation() ast.Location {
	return p.Location
}

func (p *PConst) GetType() Type {
	return p.Type
}

func (p *PConst) Code(currentModule ast.QualifiedIdentifier) string {
	return p.Value.Code(currentModule)
}

type PDataOption struct {
	ast.Location
	Type
	DataName   ast.FullIdentifier
	OptionName ast.Identifier
	Args       []Pattern
}

func (*PDataOption) _pattern() {}

func (p *PDataOption) String() string {
	return fmt.Sprintf(
		"PDataOption(%s,%v){%s}",
		common.MakeDataOptionIdentifier(p.DataName, p.OptionName),
		p.Args, p.Type)
}

func (p *PDataOption) GetLocation() ast.Location {
	return p.Location
}

func (p *PDataOption) GetType() Type {
	return p.Type
}

func (p *PDataOption) Code(currentModule ast.QualifiedIdentifier) string {
	s := shortenName(string(common.MakeDataOptionIdentifier(p.DataName, p.OptionName)), currentModule)
	if len(p.Args) > 0 {
		s += "(" + strings.Join(common.Map(func(x Pattern) string { return x.Code(currentModule) }, p.Args), ", ") + ")"
	}
	return s
}

type PDeref struct {
	ast.Location
	Type
	Nested Pattern
}

func (*PDeref) _pattern() {}

func (p *PDeref) String() string {
	return fmt.Sprintf("PDeref(%v){%s}", p.Nested, p.Type)
}

func (p *PDeref) GetLocation() ast.Location {
	return p.Location
}

func (p *PDeref) GetType() Type {
	return p.Type
}

func (p *PDeref) Code(currentModule ast.QualifiedIdentifier) string {
	return "&" + p.Nested.Code(currentModule)
}

type PError struct {
	ast.Location
	Type
}

func (*PError) _pattern() {}

func (p *PError) String() string {
	return fmt.Sprintf("PError(){%s}", p.Type)
}

func (p *PError) GetLocation() ast.Location {
	return p.Location
}

func (p *PError) GetType() Type {
	return p.Type
}

func (p *PError) Code(currentModule ast.QualifiedIdentifier) string {
	return "<error>"
}

type PNamed struct {
	ast.Location
	Type
	Name ast.Identifier
	Mode BindMode
}

func (*PNamed) _pattern() {}

func (p *PNamed) String() string {
	return fmt.Sprintf("PNamed(%s){%s}", p.Name, p.Type)
}

func (p *PNamed) GetLocation() ast.Location {
	return p.Location
}

func (p *PNamed) GetType() Type {
	return p.Type
}

func (p *PNamed) Code(currentModule ast.QualifiedIdentifier) string {
	return bindModePrefix(p.Mode) + string(p.Name)
}

type PNever struct {
	ast.Location
	Type
}

func (*PNever) _pattern() {}

func (p *PNever) String() string {
	return fmt.Sprintf("PNever(){%s}", p.Type)
}

func (p *PNever) GetLocation() ast.Location {
	return p.Location
}

func (p *PNever) GetType() Type {
	return p.Type
}

func (p *PNever) Code(currentModule ast.QualifiedIdentifier) string {
	return "!"
}

type POr struct {
	ast.Location
	Type
	Items []Pattern
}

func (*POr) _pattern() {}

func (p *POr) String() string {
	return fmt.Sprintf("POr(%v){%s}", p.Items, p.Type)
}

func (p *POr) GetLocation() ast.Location {
	return p.Location
}

func (p *POr) GetType() Type {
	return p.Type
}

func (p *POr) Code(currentModule ast.QualifiedIdentifier) string {
	return strings.Join(common.Map(func(x Pattern) string { return x.Code(currentModule) }, p.Items), " | ")
}

type PRange struct {
	ast.Location
	Type
	Lo, Hi    ast.ConstValue
	Inclusive bool
}

func (*PRange) _pattern() {}

func (p *PRange) String() string {
	return fmt.Sprintf("PRange(%v,%v,%t){%s}", p.Lo, p.Hi, p.Inclusive, p.Type)
}

func (p *PRange) GetLocation() ast.Location {
	return p.Location
}

func (p *PRange) GetType() Type {
	return p.Type
}

func (p *PRange) Code(currentModule ast.QualifiedIdentifier) string {
	op := ".."
	if p.Inclusive {
		op = "..="
	}
	return p.Lo.Code(currentModule) + op + p.Hi.Code(currentModule)
}

// IsFull reports whether the range covers the entire domain of its type, in
// which case it matches unconditionally. Only the sized integral core types
// and Char have a known domain.
func (p *PRange) IsFull() bool {
	lo, hi, ok := NumericDomain(p.Type)
	if !ok {
		return false
	}
	a, okLo := constOrdinal(p.Lo)
	b, okHi := constOrdinal(p.Hi)
	if !okLo || !okHi {
		return false
	}
	if !p.Inclusive {
		b--
	}
	return a <= lo && b >= hi
}

type PRecordField struct {
	ast.Location
	Name    ast.Identifier
	Pattern Pattern
}

type PRecord struct {
	ast.Location
	Type
	Fields []PRecordField
}

func (*PRecord) _pattern() {}

func (p *PRecord) String() string {
	return fmt.Sprintf("PRecord(%+v){%s}", p.Fields, p.Type)
}

func (p *PRecord) GetLocation() ast.Location {
	return p.Location
}

func (p *PRecord) GetType() Type {
	return p.Type
}

func (p *PRecord) Code(currentModule ast.QualifiedIdentifier) string {
	sb := strings.Builder{}
	sb.WriteString("{")
	for i, f := range p.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", f.Name, f.Pattern.Code(currentModule)))
	}
	sb.WriteString("}")
	return sb.String()
}

type PSeq struct {
	ast.Location
	Type
	Prefix []Pattern
	Middle Pattern
	Suffix []Pattern
}

func (*PSeq) _pattern() {}

func (p *PSeq) String() string {
	return fmt.Sprintf("PSeq(%v,%v,%v){%s}", p.Prefix, p.Middle, p.Suffix, p.Type)
}

func (p *PSeq) GetLocation() ast.Location {
	return p.Location
}

func (p *PSeq) GetType() Type {
	return p.Type
}

func (p *PSeq) Code(currentModule ast.QualifiedIdentifier) string {
	var parts []string
	for _, x := range p.Prefix {
		parts = append(parts, x.Code(currentModule))
	}
	if p.Middle != nil {
		if _, isAny := p.Middle.(*PAny); isAny {
			parts = append(parts, "..")
		} else {
			parts = append(parts, ".."+p.Middle.Code(currentModule))
		}
	}
	for _, x := range p.Suffix {
		parts = append(parts, x.Code(currentModule))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type PShared struct {
	ast.Location
	Type
	Nested  Pattern
	ConstId uint64
}

func (*PShared) _pattern() {}

func (p *PShared) String() string {
	return fmt.Sprintf("PShared(%d,%v){%s}", p.ConstId, p.Nested, p.Type)
}

func (p *PShared) GetLocation() ast.Location {
	return p.Location
}

func (p *PShared) GetType() Type {
	return p.Type
}

func (p *PShared) Code(currentModule ast.QualifiedIdentifier) string {
	return p.Nested.Code(currentModule)
}

type PTuple struct {
	ast.Location
	Type
	Items []Pattern
}

func (*PTuple) _pattern() {}

func (p *PTuple) String() string {
	return fmt.Sprintf("PTuple(%v){%s}", p.Items, p.Type)
}

func (p *PTuple) GetLocation() ast.Location {
	return p.Location
}

func (p *PTuple) GetType() Type {
	return p.Type
}

func (p *PTuple) Code(currentModule ast.QualifiedIdentifier) string {
	return "( " + strings.Join(common.Map(func(x Pattern) string { return x.Code(currentModule) }, p.Items), ", ") + " )"
}

// BoundNames collects every name the pattern introduces, in source order.
// Alternatives of an or pattern must bind identical name sets, so only the
// first alternative is walked.
func BoundNames(pattern Pattern) []ast.Identifier {
	return boundNames(pattern, nil)
}

func boundNames(pattern Pattern, acc []ast.Identifier) []ast.Identifier {
	switch e := pattern.(type) {
	case *PAlias:
		acc = append(acc, e.Alias)
		return boundNames(e.Nested, acc)
	case *PNamed:
		return append(acc, e.Name)
	case *PTuple:
		for _, x := range e.Items {
			acc = boundNames(x, acc)
		}
		return acc
	case *PRecord:
		for _, f := range e.Fields {
			acc = boundNames(f.Pattern, acc)
		}
		return acc
	case *PSeq:
		for _, x := range e.Prefix {
			acc = boundNames(x, acc)
		}
		if e.Middle != nil {
			acc = boundNames(e.Middle, acc)
		}
		for _, x := range e.Suffix {
			acc = boundNames(x, acc)
		}
		return acc
	case *PDataOption:
		for _, x := range e.Args {
			acc = boundNames(x, acc)
		}
		return acc
	case *PDeref:
		return boundNames(e.Nested, acc)
	case *PAscription:
		return boundNames(e.Nested, acc)
	case *PShared:
		return boundNames(e.Nested, acc)
	case *POr:
		if len(e.Items) > 0 {
			return boundNames(e.Items[0], acc)
		}
		return acc
	}
	return acc
}

func bindModePrefix(m BindMode) string {
	switch m {
	case BindByRef:
		return "ref "
	case BindByRefMut:
		return "ref mut "
	}
	return ""
}

func constOrdinal(v ast.ConstValue) (int64, bool) {
	switch c := v.(type) {
	case ast.CInt:
		return c.Value, true
	case ast.CChar:
		return int64(c.Value), true
	}
	return 0, false
}
