package cpp

import (
	"fmt"
	"strings"
)

// ToCode renders t as C++ source with no declarator. Function pointer types
// cannot be spelled without a declarator and return ErrMissingName.
func ToCode(t Type) (string, error) {
	return toCode(t, "")
}

// ToCodeWithDeclarator renders t as a C++ declaration of name. Void cannot
// declare a variable and returns ErrUnexpectedName.
func ToCodeWithDeclarator(t Type, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty declarator for %s", ErrMissingName, t.Kind())
	}
	if _, ok := t.(*VoidType); ok {
		return "", fmt.Errorf("%w: void cannot declare %q", ErrUnexpectedName, name)
	}
	return toCode(t, name)
}

func toCode(t Type, name string) (string, error) {
	var base string
	switch v := t.(type) {
	case *VoidType:
		base = "void"
	case *BuiltInType:
		base = v.BuiltIn.String()
	case *SpecificNumericType:
		base = v.Name
	case *PointerSizedIntType:
		base = v.Name
	case *EnumType:
		s, err := pathToCode(v.Path)
		if err != nil {
			return "", err
		}
		base = s
	case *ClassType:
		s, err := pathToCode(v.Path)
		if err != nil {
			return "", err
		}
		base = s
	case *PointerLikeType:
		target, err := toCode(v.Target, "")
		if err != nil {
			return "", err
		}
		base = target
		if v.IsConst {
			base = "const " + base
		}
		if v.PointerKind == Pointer {
			base += "*"
		} else {
			base += "&"
		}
	case *FunctionPointerType:
		return functionPointerToCode(v, name)
	case *TemplateParamType:
		return "", fmt.Errorf("%w: cannot render template parameter %s", ErrUnsupportedType, v.Name)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, t.Kind())
	}

	if name != "" {
		return base + " " + name, nil
	}
	return base, nil
}

func functionPointerToCode(t *FunctionPointerType, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: function pointer type requires a declarator", ErrMissingName)
	}
	ret, err := toCode(t.Return, "")
	if err != nil {
		return "", err
	}
	args := make([]string, 0, len(t.Arguments)+1)
	for _, arg := range t.Arguments {
		s, err := toCode(arg, "")
		if err != nil {
			return "", err
		}
		args = append(args, s)
	}
	if t.Variadic {
		args = append(args, "...")
	}
	return fmt.Sprintf("%s (*%s)(%s)", ret, name, strings.Join(args, ", ")), nil
}

func pathToCode(p Path) (string, error) {
	var b strings.Builder
	for i, item := range p.Items {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(item.Name)
		if len(item.TemplateArguments) > 0 {
			args := make([]string, len(item.TemplateArguments))
			for j, arg := range item.TemplateArguments {
				s, err := toCode(arg, "")
				if err != nil {
					return "", err
				}
				args[j] = s
			}
			joined := strings.Join(args, ", ")
			b.WriteString("<")
			b.WriteString(joined)
			// A closing angle bracket directly after another would lex as a
			// shift token in older C++ dialects.
			if strings.HasSuffix(joined, ">") {
				b.WriteString(" ")
			}
			b.WriteString(">")
		}
	}
	return b.String(), nil
}
