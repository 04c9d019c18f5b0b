package typed

import (
	"fmt"
	"fir-lowering/ast"
	"fir-lowering/common"
	"math"
	"strings"

	set "github.com/hashicorp/go-set/v3"
)

// Type is a fully solved type attached to a pattern by the frontend. No
// unbound variables remain by the time lowering sees one.
type Type interface {
	fmt.Stringer
	_type()
	EqualsTo(o Type) bool
	GetLocation() ast.Location
	Code(currentModule ast.QualifiedIdentifier) string
}

type TNative struct {
	ast.Location
	Name ast.FullIdentifier
	Args []Type
}

func (*TNative) _type() {}

func (t *TNative) GetLocation() ast.Location {
	return t.Location
}

func (t *TNative) String() string {
	return fmt.Sprintf("TNative(%s,%v)", t.Name, t.Args)
}

func (t *TNative) EqualsTo(o Type) bool {
	y, ok := o.(*TNative)
	if !ok || t.Name != y.Name || len(t.Args) != len(y.Args) {
		return false
	}
	for i, a := range t.Args {
		if !a.EqualsTo(y.Args[i]) {
			return false
		}
	}
	return true
}

func (t *TNative) Code(currentModule ast.QualifiedIdentifier) string {
	return shortenName(string(t.Name), currentModule) + typeArgsCode(t.Args, currentModule)
}

type DataOption struct {
	Name   ast.Identifier
	Values []Type
}

func (d DataOption) String() string {
	return fmt.Sprintf("%s(%d)", d.Name, len(d.Values))
}

type TData struct {
	ast.Location
	Name    ast.FullIdentifier
	Args    []Type
	Options []DataOption

	// Extensible marks a data type open to downstream additions: matching can
	// never treat its option list as complete.
	Extensible bool
}

func (*TData) _type() {}

func (t *TData) GetLocation() ast.Location {
	return t.Location
}

func (t *TData) String() string {
	return fmt.Sprintf("TData(%s,%v)", t.Name, t.Options)
}

func (t *TData) EqualsTo(o Type) bool {
	y, ok := o.(*TData)
	return ok && t.Name == y.Name
}

func (t *TData) Code(currentModule ast.QualifiedIdentifier) string {
	return shortenName(string(t.Name), currentModule) + typeArgsCode(t.Args, currentModule)
}

func (t *TData) Option(name ast.Identifier) (DataOption, int, bool) {
	for i, o := range t.Options {
		if o.Name == name {
			return o, i, true
		}
	}
	return DataOption{}, 0, false
}

type TTuple struct {
	ast.Location
	Items []Type
}

func (*TTuple) _type() {}

func (t *TTuple) GetLocation() ast.Location {
	return t.Location
}

func (t *TTuple) String() string {
	return fmt.Sprintf("TTuple(%v)", t.Items)
}

func (t *TTuple) EqualsTo(o Type) bool {
	y, ok := o.(*TTuple)
	if !ok || len(t.Items) != len(y.Items) {
		return false
	}
	for i, a := range t.Items {
		if !a.EqualsTo(y.Items[i]) {
			return false
		}
	}
	return true
}

func (t *TTuple) Code(currentModule ast.QualifiedIdentifier) string {
	return "( " + strings.Join(common.Map(func(x Type) string { return x.Code(currentModule) }, t.Items), ", ") + " )"
}

type RecordField struct {
	Name ast.Identifier
	Type Type
}

// TRecord keeps fields in declaration order: the field index doubles as the
// storage projection index during lowering.
type TRecord struct {
	ast.Location
	Fields []RecordField
}

func (*TRecord) _type() {}

func (t *TRecord) GetLocation() ast.Location {
	return t.Location
}

func (t *TRecord) String() string {
	return fmt.Sprintf("TRecord(%v)", common.Map(func(f RecordField) string { return string(f.Name) }, t.Fields))
}

func (t *TRecord) EqualsTo(o Type) bool {
	y, ok := o.(*TRecord)
	if !ok || len(t.Fields) != len(y.Fields) {
		return false
	}
	for i, f := range t.Fields {
		if f.Name != y.Fields[i].Name || !f.Type.EqualsTo(y.Fields[i].Type) {
			return false
		}
	}
	return true
}

func (t *TRecord) Code(currentModule ast.QualifiedIdentifier) string {
	sb := strings.Builder{}
	sb.WriteString("{")
	for i, f := range t.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", f.Name, f.Type.Code(currentModule)))
	}
	sb.WriteString("}")
	return sb.String()
}

func (t *TRecord) FieldIndex(name ast.Identifier) (int, bool) {
	for i, f := range t.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

type TRef struct {
	ast.Location
	Nested Type
}

func (*TRef) _type() {}

func (t *TRef) GetLocation() ast.Location {
	return t.Location
}

func (t *TRef) String() string {
	return fmt.Sprintf("TRef(%v)", t.Nested)
}

func (t *TRef) EqualsTo(o Type) bool {
	y, ok := o.(*TRef)
	return ok && t.Nested.EqualsTo(y.Nested)
}

func (t *TRef) Code(currentModule ast.QualifiedIdentifier) string {
	return "&" + t.Nested.Code(currentModule)
}

// TSeq is a homogeneous sequence. Fixed means the length is part of the type
// (array flavor); otherwise the length exists only at run time (slice flavor).
type TSeq struct {
	ast.Location
	Item  Type
	Len   int64
	Fixed bool
}

func (*TSeq) _type() {}

func (t *TSeq) GetLocation() ast.Location {
	return t.Location
}

func (t *TSeq) String() string {
	if t.Fixed {
		return fmt.Sprintf("TSeq(%v,%d)", t.Item, t.Len)
	}
	return fmt.Sprintf("TSeq(%v)", t.Item)
}

func (t *TSeq) EqualsTo(o Type) bool {
	y, ok := o.(*TSeq)
	return ok && t.Fixed == y.Fixed && (!t.Fixed || t.Len == y.Len) && t.Item.EqualsTo(y.Item)
}

func (t *TSeq) Code(currentModule ast.QualifiedIdentifier) string {
	if t.Fixed {
		return fmt.Sprintf("[%s; %d]", t.Item.Code(currentModule), t.Len)
	}
	return fmt.Sprintf("[%s]", t.Item.Code(currentModule))
}

func shortenName(s string, currentModule ast.QualifiedIdentifier) string {
	if currentModule != "" && strings.HasPrefix(s, string(currentModule)+".") {
		return s[len(currentModule)+1:]
	}
	return s
}

func typeArgsCode(args []Type, currentModule ast.QualifiedIdentifier) string {
	if len(args) == 0 {
		return ""
	}
	return "[" + strings.Join(common.Map(func(x Type) string { return x.Code(currentModule) }, args), ", ") + "]"
}

// Uninhabited reports whether no value of t can exist. Recursive data counts
// as inhabited: eliminating a variant is only sound when uninhabitedness is
// certain.
func Uninhabited(t Type) bool {
	return uninhabited(t, set.New[ast.FullIdentifier](0))
}

func uninhabited(t Type, visiting *set.Set[ast.FullIdentifier]) bool {
	switch e := t.(type) {
	case *TNative:
		return e.Name == common.FirCoreNever
	case *TRef:
		return uninhabited(e.Nested, visiting)
	case *TTuple:
		return common.Any(func(i Type) bool { return uninhabited(i, visiting) }, e.Items)
	case *TRecord:
		return common.Any(func(f RecordField) bool { return uninhabited(f.Type, visiting) }, e.Fields)
	case *TSeq:
		// a sequence over an uninhabited item still has the empty value unless
		// the type demands at least one element
		return e.Fixed && e.Len > 0 && uninhabited(e.Item, visiting)
	case *TData:
		if e.Extensible {
			return false
		}
		if visiting.Contains(e.Name) {
			return false
		}
		visiting.Insert(e.Name)
		defer visiting.Remove(e.Name)
		return common.All(func(o DataOption) bool {
			return common.Any(func(v Type) bool { return uninhabited(v, visiting) }, o.Values)
		}, e.Options)
	}
	return false
}

var numericDomains = map[ast.FullIdentifier][2]int64{
	common.FirCoreI8:   {math.MinInt8, math.MaxInt8},
	common.FirCoreI16:  {math.MinInt16, math.MaxInt16},
	common.FirCoreI32:  {math.MinInt32, math.MaxInt32},
	common.FirCoreU8:   {0, math.MaxUint8},
	common.FirCoreU16:  {0, math.MaxUint16},
	common.FirCoreU32:  {0, math.MaxUint32},
	common.FirCoreChar: {0, 0x10FFFF},
}

// NumericDomain yields the closed value domain of the sized integral core
// types (and Char). Fir.Core.Int is unbounded for matching purposes: ranges
// over it are never full.
func NumericDomain(t Type) (lo int64, hi int64, ok bool) {
	n, isNative := t.(*TNative)
	if !isNative {
		return 0, 0, false
	}
	d, found := numericDomains[n.Name]
	if !found {
		return 0, 0, false
	}
	return d[0], d[1], true
}
