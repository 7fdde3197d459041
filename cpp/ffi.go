package cpp

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Role is the position a type occupies in an FFI signature. The role changes
// constness and pointer-vs-value decisions for by-value class types.
type Role int

const (
	// RoleNotReturnType is an argument or any other non-return position.
	RoleNotReturnType Role = iota

	// RoleReturnType is the return position, which needs a writable
	// out-location for by-value class types.
	RoleReturnType
)

// String returns the string representation of the role.
func (r Role) String() string {
	if r == RoleReturnType {
		return "ReturnType"
	}
	return "NotReturnType"
}

// Conversion records how an FFI type relates back to its original type.
type Conversion int

const (
	// NoChange means the type crossed the boundary untouched.
	NoChange Conversion = iota

	// ValueToPointer means a by-value class became a pointer to it.
	ValueToPointer

	// ReferenceToPointer means a reference became a pointer of the same
	// constness.
	ReferenceToPointer

	// QFlagsToUInt means a flags wrapper became the platform unsigned int.
	QFlagsToUInt
)

// String returns the string representation of the conversion.
func (c Conversion) String() string {
	switch c {
	case NoChange:
		return "NoChange"
	case ValueToPointer:
		return "ValueToPointer"
	case ReferenceToPointer:
		return "ReferenceToPointer"
	case QFlagsToUInt:
		return "QFlagsToUInt"
	default:
		return "Unknown"
	}
}

// FFIType pairs an original type with its FFI-safe counterpart and the
// conversion that produced it.
type FFIType struct {
	Original   Type
	FFI        Type
	Conversion Conversion

	// NeedsOwningVariant marks a by-value class conversion whose wrapper
	// must also be offered through an owning handle, because the class is
	// not known to be movable. This is a call-site capability, not a
	// distinct conversion.
	NeedsOwningVariant bool
}

// Mapper holds the configuration consumed by FFI conversion: the rule that
// recognizes flags-wrapper templates and the authoritative set of movable
// class paths.
type Mapper struct {
	flagsGlob    glob.Glob
	movableTypes map[string]bool
}

// NewMapper compiles the flags-wrapper name pattern and records the movable
// set. An empty pattern defaults to "QFlags".
func NewMapper(flagsPattern string, movableTypes []string) (*Mapper, error) {
	if flagsPattern == "" {
		flagsPattern = "QFlags"
	}
	g, err := glob.Compile(flagsPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid flags pattern %q: %w", flagsPattern, err)
	}
	movable := make(map[string]bool, len(movableTypes))
	for _, p := range movableTypes {
		movable[p] = true
	}
	return &Mapper{flagsGlob: g, movableTypes: movable}, nil
}

// IsMovable reports whether the class at path is configured movable.
func (m *Mapper) IsMovable(path Path) bool {
	return m.movableTypes[path.Key()]
}

// IsFlagsWrapper reports whether t is a recognized flags-wrapper
// instantiation: the final path item matches the configured pattern and
// carries exactly one template argument.
func (m *Mapper) IsFlagsWrapper(t *ClassType) bool {
	last := t.Path.Last()
	return len(last.TemplateArguments) == 1 && m.flagsGlob.Match(last.Name)
}

// ToFFI converts t into its FFI-safe counterpart for the given role. It is
// total over concrete types and returns ErrUnsupportedType for any type
// reachable from a template parameter. First matching rule wins.
func (m *Mapper) ToFFI(t Type, role Role) (FFIType, error) {
	switch v := t.(type) {
	case *VoidType, *BuiltInType, *SpecificNumericType, *PointerSizedIntType, *EnumType:
		return FFIType{Original: t, FFI: t, Conversion: NoChange}, nil

	case *PointerLikeType:
		if !IsConcrete(v.Target) {
			return FFIType{}, fmt.Errorf("%w: pointer target contains a template parameter", ErrUnsupportedType)
		}
		if v.PointerKind == Reference {
			// A reference flattens to a pointer of matching constness.
			// The role does not flip constness here.
			return FFIType{
				Original: t,
				FFI: &PointerLikeType{
					PointerKind: Pointer,
					IsConst:     v.IsConst,
					Target:      v.Target,
				},
				Conversion: ReferenceToPointer,
			}, nil
		}
		return FFIType{Original: t, FFI: t, Conversion: NoChange}, nil

	case *FunctionPointerType:
		ret, err := m.ToFFI(v.Return, RoleReturnType)
		if err != nil {
			return FFIType{}, fmt.Errorf("function pointer return type: %w", err)
		}
		if ret.Conversion != NoChange {
			return FFIType{}, fmt.Errorf("%w: function pointer return type requires conversion", ErrUnsupportedType)
		}
		for i, arg := range v.Arguments {
			a, err := m.ToFFI(arg, RoleNotReturnType)
			if err != nil {
				return FFIType{}, fmt.Errorf("function pointer argument %d: %w", i, err)
			}
			if a.Conversion != NoChange {
				return FFIType{}, fmt.Errorf("%w: function pointer argument %d requires conversion", ErrUnsupportedType, i)
			}
		}
		return FFIType{Original: t, FFI: t, Conversion: NoChange}, nil

	case *ClassType:
		if !IsConcrete(v) {
			return FFIType{}, fmt.Errorf("%w: class %s has unresolved template arguments", ErrUnsupportedType, v.Path)
		}
		if m.IsFlagsWrapper(v) {
			return FFIType{
				Original:   t,
				FFI:        BuiltIn(BuiltInUInt),
				Conversion: QFlagsToUInt,
			}, nil
		}
		// A class passed by value crosses as a pointer. The return slot must
		// be writable so the callee can construct into it.
		return FFIType{
			Original: t,
			FFI: &PointerLikeType{
				PointerKind: Pointer,
				IsConst:     role == RoleNotReturnType,
				Target:      v,
			},
			Conversion:         ValueToPointer,
			NeedsOwningVariant: !m.IsMovable(v.Path),
		}, nil

	case *TemplateParamType:
		return FFIType{}, fmt.Errorf("%w: template parameter %s must be instantiated first", ErrUnsupportedType, v.Name)

	default:
		return FFIType{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t.Kind())
	}
}
