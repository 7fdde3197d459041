// Package rust defines the target-side type model, the bidirectional
// conversion descriptors between API-facing types and their FFI
// representation, and the code emitter that renders database items as Rust
// source.
package rust

import (
	"fmt"
	"strings"
)

// TypeKind identifies the category of a Rust type expression.
type TypeKind int

const (
	KindUnit TypeKind = iota
	KindCommon
	KindPointerLike
	KindFunctionPointer
)

// String returns the string representation of the type kind.
func (k TypeKind) String() string {
	switch k {
	case KindUnit:
		return "Unit"
	case KindCommon:
		return "Common"
	case KindPointerLike:
		return "PointerLike"
	case KindFunctionPointer:
		return "FunctionPointer"
	default:
		return "Unknown"
	}
}

// Type is the base interface for all Rust type expressions.
type Type interface {
	Kind() TypeKind
	sealed()
}

// UnitType is the empty tuple ().
type UnitType struct{}

func (*UnitType) Kind() TypeKind { return KindUnit }
func (*UnitType) sealed()        {}

// CommonType is a named type, optionally with generic arguments.
type CommonType struct {
	Path             Path
	GenericArguments []Type
}

func (*CommonType) Kind() TypeKind { return KindCommon }
func (*CommonType) sealed()        {}

// PointerKind distinguishes raw pointers from references.
type PointerKind int

const (
	Pointer PointerKind = iota
	Reference
)

// PointerLikeType is a raw pointer or a reference.
type PointerLikeType struct {
	PointerKind PointerKind
	IsConst     bool

	// Lifetime is the reference lifetime name without the leading quote,
	// empty for raw pointers and elided lifetimes.
	Lifetime string

	Target Type
}

func (*PointerLikeType) Kind() TypeKind { return KindPointerLike }
func (*PointerLikeType) sealed()        {}

// FunctionPointerType is an extern "C" function pointer.
type FunctionPointerType struct {
	Return    Type
	Arguments []Type
}

func (*FunctionPointerType) Kind() TypeKind { return KindFunctionPointer }
func (*FunctionPointerType) sealed()        {}

// Unit returns the empty tuple type.
func Unit() *UnitType { return &UnitType{} }

// Common returns a named type.
func Common(path Path, args ...Type) *CommonType {
	return &CommonType{Path: path, GenericArguments: args}
}

// Path is a "::"-separated address of a Rust item. The first segment is a
// crate name.
type Path []string

// ParsePath splits a "::"-separated string into a path.
func ParsePath(s string) Path { return strings.Split(s, "::") }

// Join returns a new path with name appended.
func (p Path) Join(name string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, p...)
	return append(out, name)
}

// Last returns the final segment.
func (p Path) Last() string { return p[len(p)-1] }

// Parent returns the path without its final segment, and false when the path
// is a bare crate root.
func (p Path) Parent() (Path, bool) {
	if len(p) < 2 {
		return nil, false
	}
	return p[:len(p)-1], true
}

// IsChildOf reports whether p is a direct child of parent.
func (p Path) IsChildOf(parent Path) bool {
	if len(p) != len(parent)+1 {
		return false
	}
	for i := range parent {
		if p[i] != parent[i] {
			return false
		}
	}
	return true
}

// Key returns a stable map key.
func (p Path) Key() string { return strings.Join(p, "::") }

// String renders the path fully qualified.
func (p Path) String() string { return p.Key() }

// FullName renders the path for use inside currentCrate: items of the
// current crate are addressed crate-relatively, everything else gets a
// leading "::".
func (p Path) FullName(currentCrate string) string {
	if currentCrate != "" && len(p) > 0 && p[0] == currentCrate {
		if len(p) == 1 {
			return "crate"
		}
		return "crate::" + strings.Join(p[1:], "::")
	}
	// Primitive names have no crate to qualify.
	if len(p) == 1 {
		return p[0]
	}
	return "::" + strings.Join(p, "::")
}

// ToCode renders a type expression as Rust source within currentCrate.
func ToCode(t Type, currentCrate string) string {
	switch v := t.(type) {
	case *UnitType:
		return "()"
	case *PointerLikeType:
		target := ToCode(v.Target, currentCrate)
		if v.PointerKind == Pointer {
			if v.IsConst {
				return "*const " + target
			}
			return "*mut " + target
		}
		lifetime := ""
		if v.Lifetime != "" {
			lifetime = "'" + v.Lifetime + " "
		}
		if v.IsConst {
			return "&" + lifetime + target
		}
		return "&" + lifetime + "mut " + target
	case *CommonType:
		code := v.Path.FullName(currentCrate)
		if len(v.GenericArguments) > 0 {
			args := make([]string, len(v.GenericArguments))
			for i, arg := range v.GenericArguments {
				args[i] = ToCode(arg, currentCrate)
			}
			code += "<" + strings.Join(args, ", ") + ">"
		}
		return code
	case *FunctionPointerType:
		args := make([]string, len(v.Arguments))
		for i, arg := range v.Arguments {
			args[i] = ToCode(arg, currentCrate)
		}
		ret := ""
		if _, isUnit := v.Return.(*UnitType); !isUnit {
			ret = " -> " + ToCode(v.Return, currentCrate)
		}
		return fmt.Sprintf("extern \"C\" fn(%s)%s", strings.Join(args, ", "), ret)
	default:
		return "()"
	}
}

// lastIsConst reports the constness of the outermost pointer-like layer.
func lastIsConst(t Type) bool {
	if v, ok := t.(*PointerLikeType); ok {
		return v.IsConst
	}
	return false
}

// withConst returns a copy of a pointer-like type with constness forced.
func withConst(t Type, isConst bool) Type {
	if v, ok := t.(*PointerLikeType); ok {
		return &PointerLikeType{
			PointerKind: v.PointerKind,
			IsConst:     isConst,
			Lifetime:    v.Lifetime,
			Target:      v.Target,
		}
	}
	return t
}

// collectLifetimes appends the named lifetimes reachable from t.
func collectLifetimes(t Type, seen map[string]bool, out *[]string) {
	switch v := t.(type) {
	case *PointerLikeType:
		if v.Lifetime != "" && !seen[v.Lifetime] {
			seen[v.Lifetime] = true
			*out = append(*out, v.Lifetime)
		}
		collectLifetimes(v.Target, seen, out)
	case *CommonType:
		for _, arg := range v.GenericArguments {
			collectLifetimes(arg, seen, out)
		}
	case *FunctionPointerType:
		collectLifetimes(v.Return, seen, out)
		for _, arg := range v.Arguments {
			collectLifetimes(arg, seen, out)
		}
	}
}
