package generate

import (
	"github.com/llir/llvm/ir/types"

	"lc/ir"
)

// convType converts an IR type into its LLVM equivalent.  Object references
// are pointers to the struct laid out for the object or opaque byte pointers if
// the bundle has no layout for it.
func (g *Generator) convType(typ ir.Type) types.Type {
	switch v := typ.(type) {
	case ir.PrimType:
		return convPrimType(v)
	case ir.PointerType:
		return types.NewPointer(g.convType(v.ElemType))
	case *ir.StructType:
		fields := make([]types.Type, len(v.Fields))
		for i, field := range v.Fields {
			fields[i] = g.convType(field.Typ)
		}

		return types.NewStruct(fields...)
	case *ir.ArrayType:
		return types.NewArray(uint64(v.Len), g.convType(v.ElemType))
	case ir.NamedType:
		if st, ok := g.structs[v.Name]; ok {
			return types.NewPointer(st)
		}

		return types.I8Ptr
	}

	// unreachable
	return nil
}

func convPrimType(pt ir.PrimType) types.Type {
	switch pt {
	case ir.PrimI8, ir.PrimU8:
		return types.I8
	case ir.PrimI16, ir.PrimU16:
		return types.I16
	case ir.PrimI32, ir.PrimU32:
		return types.I32
	case ir.PrimI64, ir.PrimU64:
		return types.I64
	case ir.PrimF32:
		return types.Float
	case ir.PrimF64:
		return types.Double
	case ir.PrimBool:
		return types.I1
	default:
		return types.Void
	}
}

// primOf returns the primitive type of typ.  Non-primitive types are treated as
// unsigned values.
func primOf(typ ir.Type) ir.PrimType {
	if pt, ok := typ.(ir.PrimType); ok {
		return pt
	}

	return ir.PrimU64
}
