package common

import (
	"fmt"
	"fir-lowering/ast"
)

var (
	FirCoreName = ast.QualifiedIdentifier("Fir.Core")

	FirCoreInt    = MakeFullIdentifier(FirCoreName, "Int")
	FirCoreI8     = MakeFullIdentifier(FirCoreName, "I8")
	FirCoreI16    = MakeFullIdentifier(FirCoreName, "I16")
	FirCoreI32    = MakeFullIdentifier(FirCoreName, "I32")
	FirCoreU8     = MakeFullIdentifier(FirCoreName, "U8")
	FirCoreU16    = MakeFullIdentifier(FirCoreName, "U16")
	FirCoreU32    = MakeFullIdentifier(FirCoreName, "U32")
	FirCoreChar   = MakeFullIdentifier(FirCoreName, "Char")
	FirCoreFloat  = MakeFullIdentifier(FirCoreName, "Float")
	FirCoreString = MakeFullIdentifier(FirCoreName, "String")
	FirCoreBool   = MakeFullIdentifier(FirCoreName, "Bool")
	FirCoreUnit   = MakeFullIdentifier(FirCoreName, "Unit")
	FirCoreNever  = MakeFullIdentifier(FirCoreName, "Never")
)

func MakeFullIdentifier(moduleName ast.QualifiedIdentifier, name ast.Identifier) ast.FullIdentifier {
	return ast.FullIdentifier(fmt.Sprintf("%s.%s", moduleName, name))
}

func MakeDataOptionIdentifier(dataName ast.FullIdentifier, optionName ast.Identifier) ast.DataOptionIdentifier {
	return ast.DataOptionIdentifier(fmt.Sprintf("%s#%s", dataName, optionName))
}
