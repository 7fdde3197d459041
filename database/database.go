// Package database holds the shared item store the passes operate on: one
// item per source declaration, carrying the original description and, once
// later passes attach them, the derived FFI declarations and the generated
// Rust item. Items are appended and mutated in place, never deleted; an item
// a pass declines to process is simply left partially populated.
package database

import (
	"github.com/csnover/ritual/cpp"
	"github.com/csnover/ritual/rust"
)

// DeclKind identifies the category of a source declaration.
type DeclKind int

const (
	DeclType DeclKind = iota
	DeclFunction
	DeclEnumValue
)

// String returns the string representation of the declaration kind.
func (k DeclKind) String() string {
	switch k {
	case DeclType:
		return "Type"
	case DeclFunction:
		return "Function"
	case DeclEnumValue:
		return "EnumValue"
	default:
		return "Unknown"
	}
}

// Declaration is the base interface for source declarations.
type Declaration interface {
	DeclKind() DeclKind
	DeclPath() cpp.Path

	// AllInvolvedTypes returns every type the declaration mentions, without
	// recursing into composite shapes; callers walk those themselves.
	AllInvolvedTypes() []cpp.Type

	sealed()
}

// TypeDeclKind distinguishes class and enum declarations.
type TypeDeclKind int

const (
	TypeClass TypeDeclKind = iota
	TypeEnum
)

// TypeDecl declares a class or enum.
type TypeDecl struct {
	Path cpp.Path
	Kind TypeDeclKind

	// IsMovable is the authoritative allocation-place flag for classes.
	// Only the explicit configuration pass sets it; the advisor never does.
	IsMovable bool
}

func (*TypeDecl) DeclKind() DeclKind             { return DeclType }
func (d *TypeDecl) DeclPath() cpp.Path           { return d.Path }
func (d *TypeDecl) AllInvolvedTypes() []cpp.Type { return nil }
func (*TypeDecl) sealed()                        {}

// FunctionArgument is one declared argument of a source function.
type FunctionArgument struct {
	Name            string
	Type            cpp.Type
	HasDefaultValue bool
}

// ReceiverKind is the declared form of a method receiver.
type ReceiverKind int

const (
	ReceiverNone ReceiverKind = iota
	ReceiverConstRef
	ReceiverMutRef
	ReceiverValue
)

// MemberInfo describes a function's relationship to its class.
type MemberInfo struct {
	ClassPath cpp.Path
	Receiver  ReceiverKind
	IsVirtual bool
	IsConst   bool
	IsStatic  bool
}

// Function declares a free function or method.
type Function struct {
	Path      cpp.Path
	Return    cpp.Type
	Arguments []FunctionArgument
	Variadic  bool

	// Member is nil for free functions.
	Member *MemberInfo

	IsConstructor bool
}

func (*Function) DeclKind() DeclKind   { return DeclFunction }
func (d *Function) DeclPath() cpp.Path { return d.Path }

// AllInvolvedTypes returns the return type, every argument type, and the
// receiver class reference for methods.
func (d *Function) AllInvolvedTypes() []cpp.Type {
	out := make([]cpp.Type, 0, len(d.Arguments)+2)
	out = append(out, d.Return)
	for _, arg := range d.Arguments {
		out = append(out, arg.Type)
	}
	if d.Member != nil {
		out = append(out, cpp.Class(d.Member.ClassPath))
	}
	return out
}

func (*Function) sealed() {}

// EnumValue declares one named enum constant.
type EnumValue struct {
	Path  cpp.Path
	Value int64
}

func (*EnumValue) DeclKind() DeclKind   { return DeclEnumValue }
func (d *EnumValue) DeclPath() cpp.Path { return d.Path }

// AllInvolvedTypes returns the owning enum reference.
func (d *EnumValue) AllInvolvedTypes() []cpp.Type {
	if parent, ok := d.Path.Parent(); ok {
		return []cpp.Type{cpp.Enum(parent)}
	}
	return nil
}

func (*EnumValue) sealed() {}

// FFIArgument is one argument of a derived FFI function declaration.
type FFIArgument struct {
	Name string
	Type cpp.FFIType
}

// FFIFunction is the FFI-safe form of a source function. Its name and
// signature must match the native symbol exactly.
type FFIFunction struct {
	Name      string
	Return    cpp.FFIType
	Arguments []FFIArgument

	// ReturnSlotIndex designates the argument slot used as the return
	// out-location, nil when the value returns normally.
	ReturnSlotIndex *int
}

// Item is one database entry. The front end creates it with only the
// declaration populated; later passes attach FFI declarations and the
// generated Rust item.
type Item struct {
	Declaration  Declaration
	FFIFunctions []FFIFunction
	Rust         rust.Item
}

// Processed reports whether binding generation already handled this item.
func (i *Item) Processed() bool { return i.Rust != nil }

// Database is the shared store of items for one generation run. It is owned
// exclusively by whichever pass is executing; cross-item references are
// late-bound path lookups.
type Database struct {
	Items []*Item
}

// Add appends a declaration and returns its new item.
func (db *Database) Add(d Declaration) *Item {
	item := &Item{Declaration: d}
	db.Items = append(db.Items, item)
	return item
}

// FindType returns the type declaration at path, or nil.
func (db *Database) FindType(path cpp.Path) *TypeDecl {
	key := path.Key()
	for _, item := range db.Items {
		if t, ok := item.Declaration.(*TypeDecl); ok && t.Path.Key() == key {
			return t
		}
	}
	return nil
}

// Types returns every type declaration in insertion order.
func (db *Database) Types() []*TypeDecl {
	var out []*TypeDecl
	for _, item := range db.Items {
		if t, ok := item.Declaration.(*TypeDecl); ok {
			out = append(out, t)
		}
	}
	return out
}

// Functions returns every function declaration in insertion order.
func (db *Database) Functions() []*Function {
	var out []*Function
	for _, item := range db.Items {
		if f, ok := item.Declaration.(*Function); ok {
			out = append(out, f)
		}
	}
	return out
}
