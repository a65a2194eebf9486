// Package ir defines the typed virtual-register intermediate representation
// produced by lowering: types, operands, instructions and the visitor used to
// traverse them.
package ir

import (
	"fmt"
	"strings"
)

// Type represents a type that can be used in IR.  IR types are immutable and
// compared structurally with TypeEqual.
type Type interface {
	// Repr returns the string representation of the IR type.
	Repr() string

	// Size returns the size of the type in bytes.
	Size() uint

	Align() uint
}

// -----------------------------------------------------------------------------

// PrimType represents an IR primitive type: a number, boolean or void.  It must
// be one of the enumerated IR primitive types.
type PrimType int

// Enumeration of IR PrimTypes
const (
	PrimU8 PrimType = iota
	PrimU16
	PrimU32
	PrimU64
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimF32
	PrimF64
	PrimBool
	PrimVoid
)

var primTypeNames = []string{
	"u8", "u16", "u32", "u64",
	"i8", "i16", "i32", "i64",
	"f32", "f64",
	"bool", "void",
}

func (pt PrimType) Repr() string {
	return primTypeNames[pt]
}

func (pt PrimType) Size() uint {
	switch pt {
	case PrimVoid:
		return 0
	case PrimU8, PrimBool, PrimI8:
		return 1
	case PrimI16, PrimU16:
		return 2
	case PrimU32, PrimI32, PrimF32:
		return 4
	default: // u64, f64, i64
		return 8
	}
}

func (pt PrimType) Align() uint {
	return pt.Size()
}

// IsInteger returns whether the type is a signed or unsigned integer.
func (pt PrimType) IsInteger() bool {
	return pt <= PrimI64
}

// IsSigned returns whether the type is a signed integer.
func (pt PrimType) IsSigned() bool {
	return PrimI8 <= pt && pt <= PrimI64
}

// IsFloat returns whether the type is a floating-point type.
func (pt PrimType) IsFloat() bool {
	return pt == PrimF32 || pt == PrimF64
}

// PrimTypeFromName converts the name of a builtin type into a PrimType.
func PrimTypeFromName(name string) (PrimType, bool) {
	for i, n := range primTypeNames {
		if n == name {
			return PrimType(i), true
		}
	}

	return PrimVoid, false
}

// -----------------------------------------------------------------------------

// PointerType is a pointer to a piece of memory of some type.
type PointerType struct {
	ElemType Type
}

func (pt PointerType) Repr() string {
	return "ptr[" + pt.ElemType.Repr() + "]"
}

func (pt PointerType) Size() uint {
	// we are only targeting 64-bit platforms => ptr size = 8
	return 8
}

func (pt PointerType) Align() uint {
	return pt.Size()
}

// -----------------------------------------------------------------------------

// StructType represents any type that it is made of multiple associated fields
// placed contiguously in memory.
type StructType struct {
	Fields      []StructField
	size, align uint
}

type StructField struct {
	Typ    Type
	Offset uint
}

// NewStruct creates a new struct based on the field types.
func NewStruct(fields []Type) *StructType {
	// the alignment of a struct is the largest alignment of its fields
	var maxAlign uint = 1

	var offset uint
	var sfields []StructField
	for _, field := range fields {
		// fields are placed at an offset that is a multiple of their alignment
		if align := field.Align(); align > 0 {
			if alignMod := offset % align; alignMod != 0 {
				offset += align - alignMod
			}

			if align > maxAlign {
				maxAlign = align
			}
		}

		sfields = append(sfields, StructField{Typ: field, Offset: offset})
		offset += field.Size()
	}

	// the size of a struct is padded to a multiple of its alignment
	size := offset
	if mod := size % maxAlign; mod != 0 {
		size += maxAlign - mod
	}

	return &StructType{
		Fields: sfields,
		align:  maxAlign,
		size:   size,
	}
}

func (st *StructType) Repr() string {
	sb := strings.Builder{}
	sb.WriteString("struct[")

	for i, field := range st.Fields {
		sb.WriteString(field.Typ.Repr())

		if i < len(st.Fields)-1 {
			sb.WriteString(", ")
		}
	}

	sb.WriteString("]")
	return sb.String()
}

func (st *StructType) Size() uint {
	return st.size
}

func (st *StructType) Align() uint {
	return st.align
}

// -----------------------------------------------------------------------------

// ArrayType represents a contiguous block of memory of the same type with a
// fixed length.
type ArrayType struct {
	ElemType Type
	Len      uint
}

func (at *ArrayType) Repr() string {
	return fmt.Sprintf("[%s * %d]", at.ElemType.Repr(), at.Len)
}

func (at *ArrayType) Size() uint {
	return at.ElemType.Size() * at.Len
}

func (at *ArrayType) Align() uint {
	// arrays need only be aligned based on their element type alignment
	return at.ElemType.Align()
}

// -----------------------------------------------------------------------------

// NamedType is a reference to an object type by its full name.  Objects are
// always manipulated by reference so a named type has the size of a pointer.
type NamedType struct {
	Name string
}

func (nt NamedType) Repr() string {
	return "%" + nt.Name
}

func (nt NamedType) Size() uint {
	return 8
}

func (nt NamedType) Align() uint {
	return 8
}

// -----------------------------------------------------------------------------

// TypeEqual returns whether two IR types are structurally equal.
func TypeEqual(a, b Type) bool {
	switch v := a.(type) {
	case PrimType:
		if w, ok := b.(PrimType); ok {
			return v == w
		}
	case PointerType:
		if w, ok := b.(PointerType); ok {
			return TypeEqual(v.ElemType, w.ElemType)
		}
	case *StructType:
		if w, ok := b.(*StructType); ok && len(v.Fields) == len(w.Fields) {
			for i, field := range v.Fields {
				if !TypeEqual(field.Typ, w.Fields[i].Typ) {
					return false
				}
			}

			return true
		}
	case *ArrayType:
		if w, ok := b.(*ArrayType); ok {
			return v.Len == w.Len && TypeEqual(v.ElemType, w.ElemType)
		}
	case NamedType:
		if w, ok := b.(NamedType); ok {
			return v.Name == w.Name
		}
	}

	return false
}

// IsIntegral returns whether typ is an integer type.
func IsIntegral(typ Type) bool {
	pt, ok := typ.(PrimType)
	return ok && pt.IsInteger()
}

// IsFloating returns whether typ is a floating-point type.
func IsFloating(typ Type) bool {
	pt, ok := typ.(PrimType)
	return ok && pt.IsFloat()
}

// IsNumeric returns whether typ is an integer or floating-point type.
func IsNumeric(typ Type) bool {
	return IsIntegral(typ) || IsFloating(typ)
}

// IsBool returns whether typ is the boolean type.
func IsBool(typ Type) bool {
	return TypeEqual(typ, PrimBool)
}

// IsVoid returns whether typ is the void type.
func IsVoid(typ Type) bool {
	return TypeEqual(typ, PrimVoid)
}
