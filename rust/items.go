package rust

// ItemKind identifies the category of a generated Rust item.
type ItemKind int

const (
	ItemModule ItemKind = iota
	ItemStruct
	ItemEnumValue
	ItemFFIFunction
	ItemFunction
)

// String returns the string representation of the item kind.
func (k ItemKind) String() string {
	switch k {
	case ItemModule:
		return "Module"
	case ItemStruct:
		return "Struct"
	case ItemEnumValue:
		return "EnumValue"
	case ItemFFIFunction:
		return "FFIFunction"
	case ItemFunction:
		return "Function"
	default:
		return "Unknown"
	}
}

// Item is the base interface for all generated Rust items.
type Item interface {
	ItemKind() ItemKind
	ItemPath() Path
	sealed()
}

// Module is a nested namespace containing its children by path.
type Module struct {
	Path Path
	Doc  string
}

func (*Module) ItemKind() ItemKind { return ItemModule }
func (m *Module) ItemPath() Path   { return m.Path }
func (*Module) sealed()            {}

// StructKind identifies the wrapper flavor of a generated struct.
type StructKind int

const (
	// EnumWrapper is a transparent newtype over the native enum integer.
	EnumWrapper StructKind = iota

	// MovableClassWrapper holds the instance inline with value semantics.
	MovableClassWrapper

	// ImmovableClassWrapper is an opaque type only ever used behind a
	// pointer or owning handle.
	ImmovableClassWrapper
)

// String returns the string representation of the struct kind.
func (k StructKind) String() string {
	switch k {
	case EnumWrapper:
		return "EnumWrapper"
	case MovableClassWrapper:
		return "MovableClassWrapper"
	case ImmovableClassWrapper:
		return "ImmovableClassWrapper"
	default:
		return "Unknown"
	}
}

// Struct is a generated wrapper type.
type Struct struct {
	Path       Path
	StructKind StructKind
	IsPublic   bool
	Doc        string
}

func (*Struct) ItemKind() ItemKind { return ItemStruct }
func (s *Struct) ItemPath() Path   { return s.Path }
func (*Struct) sealed()            {}

// EnumValue is a named constant bound to its integer literal. Its parent
// path is the enum wrapper struct.
type EnumValue struct {
	Path  Path
	Value int64
	Doc   string
}

func (*EnumValue) ItemKind() ItemKind { return ItemEnumValue }
func (v *EnumValue) ItemPath() Path   { return v.Path }
func (*EnumValue) sealed()            {}

// FFIArgument is one named argument of an FFI declaration.
type FFIArgument struct {
	Name string
	Type Type
}

// FFIFunction declares the foreign symbol a wrapper calls through. Its name
// and signature must match the native symbol byte for byte; a mismatch is a
// linkage-time failure the generator cannot detect.
type FFIFunction struct {
	Path      Path
	Return    Type
	Arguments []FFIArgument
}

func (*FFIFunction) ItemKind() ItemKind { return ItemFFIFunction }
func (f *FFIFunction) ItemPath() Path   { return f.Path }
func (*FFIFunction) sealed()            {}

// FunctionArgument is one argument of a wrapper function. The receiver, if
// any, is the argument named "self"; its API type decides the generated
// receiver syntax.
type FunctionArgument struct {
	Name string
	Type FinalType

	// FFIIndex is the position of the corresponding FFI argument slot.
	FFIIndex int
}

// Function is a generated wrapper function. Its body converts arguments out
// of API form, performs the FFI call inside an unsafe region, and converts
// the result back.
type Function struct {
	Path     Path
	IsPublic bool

	// IsUnsafe marks functions whose whole body is an unchecked boundary;
	// the FFI call then needs no inner unsafe block.
	IsUnsafe bool

	Arguments []FunctionArgument
	Return    FinalType

	// ReturnFFIIndex designates the FFI argument slot used as the return
	// out-location, nil when the value returns normally.
	ReturnFFIIndex *int

	// FFIPath is the declaration the body calls.
	FFIPath Path

	Doc string
}

func (*Function) ItemKind() ItemKind { return ItemFunction }
func (f *Function) ItemPath() Path   { return f.Path }
func (*Function) sealed()            {}

// Database is the append-only store of generated Rust items. Cross-item
// references are path lookups, never stored pointers, so items can be added
// freely without invalidating each other.
type Database struct {
	Items []Item
}

// Add appends an item.
func (db *Database) Add(items ...Item) {
	db.Items = append(db.Items, items...)
}

// Find returns the first item at path, or nil.
func (db *Database) Find(path Path) Item {
	key := path.Key()
	for _, item := range db.Items {
		if item.ItemPath().Key() == key {
			return item
		}
	}
	return nil
}

// Children returns the items directly under parent, in insertion order.
func (db *Database) Children(parent Path) []Item {
	var out []Item
	for _, item := range db.Items {
		if item.ItemPath().IsChildOf(parent) {
			out = append(out, item)
		}
	}
	return out
}

// FFIFunctions returns every FFI declaration in insertion order.
func (db *Database) FFIFunctions() []*FFIFunction {
	var out []*FFIFunction
	for _, item := range db.Items {
		if f, ok := item.(*FFIFunction); ok {
			out = append(out, f)
		}
	}
	return out
}
