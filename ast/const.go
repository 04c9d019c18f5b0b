package ast

import (
	"fmt"
	"strconv"
)

type ConstValue interface {
	Coder
	EqualsTo(o ConstValue) bool
}

type CChar struct {
	Value rune
}

func (c CChar) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CChar); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CChar) Code(currentModule QualifiedIdentifier) string {
	return fmt.Sprintf("'%c'", c.Value)
}

type CInt struct {
	Value int64
}

func (c CInt) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CInt); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CInt) Code(currentModule QualifiedIdentifier) string {
	return strconv.FormatInt(c.Value, 10)
}

type CFloat struct {
	Value float64
}

func (c CFloat) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CFloat); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CFloat) Code(currentModule QualifiedIdentifier) string {
	return strconv.FormatFloat(c.Value, 'g', -1, 64)
}

type CString struct {
	Value string
}

func (c CString) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CString); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CString) Code(currentModule QualifiedIdentifier) string {
	return strconv.Quote(c.Value)
}

type CBool struct {
	Value bool
}

func (c CBool) EqualsTo(o ConstValue) bool {
	if y, ok := o.(CBool); ok {
		return c.Value == y.Value
	}
	return false
}

func (c CBool) Code(currentModule QualifiedIdentifier) string {
	if c.Value {
		return "True"
	}
	return "False"
}

type CUnit struct {
}

func (c CUnit) EqualsTo(o ConstValue) bool {
	_, ok := o.(CUnit)
	return ok
}

func (c CUnit) Code(currentModule QualifiedIdentifier) string {
	return "()"
}
