package depm

// primitiveTypeNames lists the builtin types visible in every file.
var primitiveTypeNames = []string{
	"i8", "i16", "i32", "i64",
	"u8", "u16", "u32", "u64",
	"f32", "f64",
	"bool", "void",
}

// universe is the shared outermost scope.  It is never mutated after package
// initialization so it may be read from any number of goroutines.
var universe = newUniverse()

func newUniverse() *Scope {
	u := NewScope(UniverseScope, nil)

	for _, name := range primitiveTypeNames {
		// Names are unique: this can't fail.
		_ = u.Bind(&Symbol{Name: name, Kind: SymType})
	}

	return u
}

// Universe returns the scope holding the builtin symbols.  It is the parent of
// every file scope and must not be bound into.
func Universe() *Scope {
	return universe
}

// IsPrimitiveType returns whether name names a builtin type.
func IsPrimitiveType(name string) bool {
	sym, ok := universe.LookupLocal(name)
	return ok && sym.Kind == SymType
}
