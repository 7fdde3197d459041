package cpp

import "fmt"

// Instantiate substitutes template parameters at the given nesting level with
// the corresponding replacement types. Parameters at other nesting levels and
// non-parameter leaves pass through unchanged; composite shapes recurse.
// Apply this before ToFFI whenever a generic declaration is specialized.
func Instantiate(t Type, nestedLevel int, args []Type) (Type, error) {
	switch v := t.(type) {
	case *TemplateParamType:
		if v.NestedLevel != nestedLevel {
			return t, nil
		}
		if v.Index < 0 || v.Index >= len(args) {
			return nil, fmt.Errorf("%w: template parameter %s has index %d but only %d arguments were supplied",
				ErrUnsupportedType, v.Name, v.Index, len(args))
		}
		return args[v.Index], nil

	case *PointerLikeType:
		target, err := Instantiate(v.Target, nestedLevel, args)
		if err != nil {
			return nil, err
		}
		return &PointerLikeType{PointerKind: v.PointerKind, IsConst: v.IsConst, Target: target}, nil

	case *ClassType:
		path, err := instantiatePath(v.Path, nestedLevel, args)
		if err != nil {
			return nil, err
		}
		return &ClassType{Path: path}, nil

	case *FunctionPointerType:
		ret, err := Instantiate(v.Return, nestedLevel, args)
		if err != nil {
			return nil, err
		}
		fnArgs := make([]Type, len(v.Arguments))
		for i, arg := range v.Arguments {
			fnArgs[i], err = Instantiate(arg, nestedLevel, args)
			if err != nil {
				return nil, err
			}
		}
		return &FunctionPointerType{Return: ret, Arguments: fnArgs, Variadic: v.Variadic}, nil

	default:
		return t, nil
	}
}

func instantiatePath(p Path, nestedLevel int, args []Type) (Path, error) {
	items := make([]PathItem, len(p.Items))
	for i, item := range p.Items {
		next := PathItem{Name: item.Name}
		if len(item.TemplateArguments) > 0 {
			next.TemplateArguments = make([]Type, len(item.TemplateArguments))
			for j, arg := range item.TemplateArguments {
				sub, err := Instantiate(arg, nestedLevel, args)
				if err != nil {
					return Path{}, err
				}
				next.TemplateArguments[j] = sub
			}
		}
		items[i] = next
	}
	return Path{Items: items}, nil
}
