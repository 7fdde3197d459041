// Package cpp defines the source-side type model: a closed representation of
// every C++ type shape the generator understands, together with the rules that
// reshape each shape into its FFI-safe counterpart. Expression trees built
// from these types are immutable once constructed; all transformations return
// new values.
package cpp

import "strings"

// TypeKind identifies the category of a type expression.
type TypeKind int

const (
	KindVoid TypeKind = iota
	KindBuiltIn
	KindSpecificNumeric
	KindPointerSizedInt
	KindEnum
	KindClass
	KindPointerLike
	KindFunctionPointer
	KindTemplateParam
)

// String returns the string representation of the type kind.
func (k TypeKind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindBuiltIn:
		return "BuiltIn"
	case KindSpecificNumeric:
		return "SpecificNumeric"
	case KindPointerSizedInt:
		return "PointerSizedInt"
	case KindEnum:
		return "Enum"
	case KindClass:
		return "Class"
	case KindPointerLike:
		return "PointerLike"
	case KindFunctionPointer:
		return "FunctionPointer"
	case KindTemplateParam:
		return "TemplateParam"
	default:
		return "Unknown"
	}
}

// Type is the base interface for all C++ type expressions.
type Type interface {
	// Kind returns the type kind for type switching.
	Kind() TypeKind

	// Ensure only types in this package can implement Type.
	sealed()
}

// BuiltInKind identifies a fundamental C++ type.
type BuiltInKind int

const (
	BuiltInBool BuiltInKind = iota
	BuiltInChar
	BuiltInInt
	BuiltInUInt
	BuiltInFloat
	BuiltInDouble
)

// String returns the C++ spelling of the built-in type.
func (k BuiltInKind) String() string {
	switch k {
	case BuiltInBool:
		return "bool"
	case BuiltInChar:
		return "char"
	case BuiltInInt:
		return "int"
	case BuiltInUInt:
		return "unsigned int"
	case BuiltInFloat:
		return "float"
	case BuiltInDouble:
		return "double"
	default:
		return "unknown"
	}
}

// NumericKind classifies a SpecificNumericType.
type NumericKind int

const (
	NumericSigned NumericKind = iota
	NumericUnsigned
	NumericFloat
)

// PointerKind distinguishes pointers from references in PointerLikeType.
type PointerKind int

const (
	Pointer PointerKind = iota
	Reference
)

// VoidType is the C++ void type.
type VoidType struct{}

func (*VoidType) Kind() TypeKind { return KindVoid }
func (*VoidType) sealed()        {}

// BuiltInType is a fundamental numeric or character type.
type BuiltInType struct {
	BuiltIn BuiltInKind
}

func (*BuiltInType) Kind() TypeKind { return KindBuiltIn }
func (*BuiltInType) sealed()        {}

// SpecificNumericType is a numeric typedef with a known bit width,
// such as qint64 or uint32_t.
type SpecificNumericType struct {
	// Name is the exact spelling used in source and generated code.
	Name string

	// Bits is the width of the type.
	Bits int

	// Numeric classifies signedness or floating point.
	Numeric NumericKind
}

func (*SpecificNumericType) Kind() TypeKind { return KindSpecificNumeric }
func (*SpecificNumericType) sealed()        {}

// PointerSizedIntType is an integer typedef whose width matches a pointer,
// such as quintptr or uintptr_t.
type PointerSizedIntType struct {
	Name     string
	IsSigned bool
}

func (*PointerSizedIntType) Kind() TypeKind { return KindPointerSizedInt }
func (*PointerSizedIntType) sealed()        {}

// EnumType references an enum declaration by path.
type EnumType struct {
	Path Path
}

func (*EnumType) Kind() TypeKind { return KindEnum }
func (*EnumType) sealed()        {}

// ClassType references a class declaration by path. Template arguments,
// if any, live on the final path item.
type ClassType struct {
	Path Path
}

func (*ClassType) Kind() TypeKind { return KindClass }
func (*ClassType) sealed()        {}

// PointerLikeType is a pointer or reference to a target type.
type PointerLikeType struct {
	PointerKind PointerKind
	IsConst     bool
	Target      Type
}

func (*PointerLikeType) Kind() TypeKind { return KindPointerLike }
func (*PointerLikeType) sealed()        {}

// FunctionPointerType is a pointer to a free function.
type FunctionPointerType struct {
	Return    Type
	Arguments []Type
	Variadic  bool
}

func (*FunctionPointerType) Kind() TypeKind { return KindFunctionPointer }
func (*FunctionPointerType) sealed()        {}

// TemplateParamType is an unsubstituted template parameter. Types containing
// one are not concrete and cannot cross the FFI boundary; they must be
// instantiated first.
type TemplateParamType struct {
	// NestedLevel is the depth of the template declaration this parameter
	// belongs to. Zero for a parameter of the directly enclosing template.
	NestedLevel int

	// Index is the position within that declaration's parameter list.
	Index int

	Name string
}

func (*TemplateParamType) Kind() TypeKind { return KindTemplateParam }
func (*TemplateParamType) sealed()        {}

// Convenience constructors.

// Void returns the void type.
func Void() *VoidType { return &VoidType{} }

// BuiltIn returns a fundamental type.
func BuiltIn(k BuiltInKind) *BuiltInType { return &BuiltInType{BuiltIn: k} }

// SpecificNumeric returns a fixed-width numeric typedef.
func SpecificNumeric(name string, bits int, kind NumericKind) *SpecificNumericType {
	return &SpecificNumericType{Name: name, Bits: bits, Numeric: kind}
}

// Enum returns an enum reference for the given path.
func Enum(path Path) *EnumType { return &EnumType{Path: path} }

// Class returns a class reference for the given path.
func Class(path Path) *ClassType { return &ClassType{Path: path} }

// Ptr returns a mutable pointer to target.
func Ptr(target Type) *PointerLikeType {
	return &PointerLikeType{PointerKind: Pointer, Target: target}
}

// ConstPtr returns a const pointer to target.
func ConstPtr(target Type) *PointerLikeType {
	return &PointerLikeType{PointerKind: Pointer, IsConst: true, Target: target}
}

// Ref returns a mutable reference to target.
func Ref(target Type) *PointerLikeType {
	return &PointerLikeType{PointerKind: Reference, Target: target}
}

// ConstRef returns a const reference to target.
func ConstRef(target Type) *PointerLikeType {
	return &PointerLikeType{PointerKind: Reference, IsConst: true, Target: target}
}

// TemplateParam returns a template parameter placeholder.
func TemplateParam(nestedLevel, index int, name string) *TemplateParamType {
	return &TemplateParamType{NestedLevel: nestedLevel, Index: index, Name: name}
}

// PathItem is one segment of a C++ path, optionally carrying template
// arguments (e.g. the "QFlags<AlignmentFlag>" segment).
type PathItem struct {
	Name              string
	TemplateArguments []Type
}

// Path is a sequence of identifiers addressing a declaration in the source
// namespace hierarchy. Paths are used as database keys and compared by Key.
type Path struct {
	Items []PathItem
}

// ParsePath splits a "::"-separated string into a path without template
// arguments.
func ParsePath(s string) Path {
	parts := strings.Split(s, "::")
	items := make([]PathItem, len(parts))
	for i, p := range parts {
		items[i] = PathItem{Name: p}
	}
	return Path{Items: items}
}

// Join returns a new path with name appended.
func (p Path) Join(name string) Path {
	items := make([]PathItem, 0, len(p.Items)+1)
	items = append(items, p.Items...)
	items = append(items, PathItem{Name: name})
	return Path{Items: items}
}

// Last returns the final path item. Panics on an empty path; paths are
// constructed non-empty by ParsePath and Join.
func (p Path) Last() PathItem {
	return p.Items[len(p.Items)-1]
}

// Parent returns the path without its final item, and false if there is no
// parent.
func (p Path) Parent() (Path, bool) {
	if len(p.Items) < 2 {
		return Path{}, false
	}
	return Path{Items: p.Items[:len(p.Items)-1]}, true
}

// Key returns a stable string form usable as a map key. Template arguments
// are included so distinct instantiations key separately.
func (p Path) Key() string {
	var b strings.Builder
	for i, item := range p.Items {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(item.Name)
		if len(item.TemplateArguments) > 0 {
			b.WriteString("<")
			for j, arg := range item.TemplateArguments {
				if j > 0 {
					b.WriteString(",")
				}
				code, err := ToCode(arg)
				if err != nil {
					// Non-renderable arguments (template parameters) still
					// need a distinct key.
					code = "?"
				}
				b.WriteString(code)
			}
			b.WriteString(">")
		}
	}
	return b.String()
}

// String renders the path as C++ pseudo-code.
func (p Path) String() string { return p.Key() }

// IsConcrete reports whether t contains no template parameter anywhere.
func IsConcrete(t Type) bool {
	switch v := t.(type) {
	case *TemplateParamType:
		return false
	case *PointerLikeType:
		return IsConcrete(v.Target)
	case *ClassType:
		for _, arg := range v.Path.Last().TemplateArguments {
			if !IsConcrete(arg) {
				return false
			}
		}
		return true
	case *FunctionPointerType:
		if !IsConcrete(v.Return) {
			return false
		}
		for _, arg := range v.Arguments {
			if !IsConcrete(arg) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
