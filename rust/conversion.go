package rust

import (
	"fmt"

	"github.com/csnover/ritual/cpp"
)

// APIConversion records how an API-facing value crosses to and from its FFI
// representation.
type APIConversion int

const (
	// ConvNone is the identity crossing.
	ConvNone APIConversion = iota

	// ConvRefToPtr dereferences a pointer into a borrowed reference. A null
	// pointer is a contract violation and aborts with a diagnostic.
	ConvRefToPtr

	// ConvOptionRefToPtr dereferences a pointer into an optional borrowed
	// reference; null maps to None without aborting.
	ConvOptionRefToPtr

	// ConvValueToPtr reads through a pointer to obtain an owned value.
	ConvValueToPtr

	// ConvBoxToPtr wraps a raw pointer into an owning handle that releases
	// the underlying resource on drop.
	ConvBoxToPtr

	// ConvFlagsToUInt reinterprets an unsigned integer as the flags wrapper
	// via its bit-preserving constructor.
	ConvFlagsToUInt
)

// String returns the string representation of the conversion.
func (c APIConversion) String() string {
	switch c {
	case ConvNone:
		return "None"
	case ConvRefToPtr:
		return "RefToPtr"
	case ConvOptionRefToPtr:
		return "OptionRefToPtr"
	case ConvValueToPtr:
		return "ValueToPtr"
	case ConvBoxToPtr:
		return "BoxToPtr"
	case ConvFlagsToUInt:
		return "FlagsToUInt"
	default:
		return "Unknown"
	}
}

// FinalType carries a value's ergonomic API type, its raw FFI type, and the
// conversion between them.
type FinalType struct {
	API        Type
	FFI        Type
	Conversion APIConversion
}

// cppBoxPath is the owning handle for immovable class instances.
var cppBoxPath = Path{"cpp_utils", "CppBox"}

// qFlagsPath is the runtime flags wrapper; flag values cross the boundary
// as plain unsigned ints and are rewrapped on this type.
var qFlagsPath = Path{"qflags", "QFlags"}

// PathResolver maps a source declaration path to its Rust item path. The
// lookup is late-bound against the shared database so items can be added
// without invalidating references.
type PathResolver func(cpp.Path) (Path, error)

// TypeMapper derives Rust types from source-side FFI conversion results.
type TypeMapper struct {
	Crate   string
	Resolve PathResolver
}

// MapType structurally maps an FFI-safe source type to its Rust spelling.
func (m *TypeMapper) MapType(t cpp.Type) (Type, error) {
	switch v := t.(type) {
	case *cpp.VoidType:
		return Unit(), nil

	case *cpp.BuiltInType:
		return Common(builtInPath(v.BuiltIn)), nil

	case *cpp.SpecificNumericType:
		return Common(Path{specificNumericName(v)}), nil

	case *cpp.PointerSizedIntType:
		if v.IsSigned {
			return Common(Path{"isize"}), nil
		}
		return Common(Path{"usize"}), nil

	case *cpp.EnumType:
		path, err := m.Resolve(v.Path)
		if err != nil {
			return nil, err
		}
		return Common(path), nil

	case *cpp.ClassType:
		path, err := m.Resolve(v.Path)
		if err != nil {
			return nil, err
		}
		args := v.Path.Last().TemplateArguments
		generic := make([]Type, len(args))
		for i, arg := range args {
			sub, err := m.MapType(arg)
			if err != nil {
				return nil, err
			}
			generic[i] = sub
		}
		return &CommonType{Path: path, GenericArguments: generic}, nil

	case *cpp.PointerLikeType:
		target, err := m.MapType(v.Target)
		if err != nil {
			return nil, err
		}
		// Void targets cross as c_void, not the unit type.
		if _, isVoid := v.Target.(*cpp.VoidType); isVoid {
			target = Common(Path{"std", "os", "raw", "c_void"})
		}
		return &PointerLikeType{
			PointerKind: Pointer,
			IsConst:     v.IsConst,
			Target:      target,
		}, nil

	case *cpp.FunctionPointerType:
		ret, err := m.MapType(v.Return)
		if err != nil {
			return nil, err
		}
		args := make([]Type, len(v.Arguments))
		for i, arg := range v.Arguments {
			args[i], err = m.MapType(arg)
			if err != nil {
				return nil, err
			}
		}
		return &FunctionPointerType{Return: ret, Arguments: args}, nil

	default:
		return nil, fmt.Errorf("%w: cannot map %s to a Rust type", cpp.ErrUnsupportedType, t.Kind())
	}
}

// MapFinal pairs the FFI type of a converted source value with its API-facing
// Rust type and crossing descriptor. movable is the authoritative
// allocation-place flag of the class involved, if any.
func (m *TypeMapper) MapFinal(ffi cpp.FFIType, role cpp.Role, movable bool) (FinalType, error) {
	ffiType, err := m.MapType(ffi.FFI)
	if err != nil {
		return FinalType{}, err
	}

	switch ffi.Conversion {
	case cpp.NoChange:
		return FinalType{API: ffiType, FFI: ffiType, Conversion: ConvNone}, nil

	case cpp.ReferenceToPointer:
		ptr, ok := ffiType.(*PointerLikeType)
		if !ok {
			return FinalType{}, fmt.Errorf("%w: reference conversion did not produce a pointer", ErrMalformedInput)
		}
		api := &PointerLikeType{
			PointerKind: Reference,
			IsConst:     ptr.IsConst,
			Target:      ptr.Target,
		}
		return FinalType{API: api, FFI: ffiType, Conversion: ConvRefToPtr}, nil

	case cpp.ValueToPointer:
		ptr, ok := ffiType.(*PointerLikeType)
		if !ok {
			return FinalType{}, fmt.Errorf("%w: value conversion did not produce a pointer", ErrMalformedInput)
		}
		if movable {
			return FinalType{API: ptr.Target, FFI: ffiType, Conversion: ConvValueToPtr}, nil
		}
		if role == cpp.RoleReturnType {
			// Immovable instances live behind an owning handle.
			api := Common(cppBoxPath, ptr.Target)
			return FinalType{API: api, FFI: ffiType, Conversion: ConvBoxToPtr}, nil
		}
		// Immovable by-value arguments borrow the caller's instance.
		api := &PointerLikeType{PointerKind: Reference, IsConst: true, Target: ptr.Target}
		return FinalType{API: api, FFI: ffiType, Conversion: ConvRefToPtr}, nil

	case cpp.QFlagsToUInt:
		class, ok := ffi.Original.(*cpp.ClassType)
		if !ok || len(class.Path.Last().TemplateArguments) != 1 {
			return FinalType{}, fmt.Errorf("%w: flags conversion needs a single-argument template", ErrMalformedInput)
		}
		arg, err := m.MapType(class.Path.Last().TemplateArguments[0])
		if err != nil {
			return FinalType{}, err
		}
		api := Common(qFlagsPath, arg)
		return FinalType{API: api, FFI: ffiType, Conversion: ConvFlagsToUInt}, nil

	default:
		return FinalType{}, fmt.Errorf("%w: conversion %s", cpp.ErrUnsupportedType, ffi.Conversion)
	}
}

func builtInPath(k cpp.BuiltInKind) Path {
	raw := Path{"std", "os", "raw"}
	switch k {
	case cpp.BuiltInBool:
		return Path{"bool"}
	case cpp.BuiltInChar:
		return raw.Join("c_char")
	case cpp.BuiltInInt:
		return raw.Join("c_int")
	case cpp.BuiltInUInt:
		return raw.Join("c_uint")
	case cpp.BuiltInFloat:
		return raw.Join("c_float")
	case cpp.BuiltInDouble:
		return raw.Join("c_double")
	default:
		return Path{"()"}
	}
}

func specificNumericName(t *cpp.SpecificNumericType) string {
	switch t.Numeric {
	case cpp.NumericFloat:
		return fmt.Sprintf("f%d", t.Bits)
	case cpp.NumericUnsigned:
		return fmt.Sprintf("u%d", t.Bits)
	default:
		return fmt.Sprintf("i%d", t.Bits)
	}
}
