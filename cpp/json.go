package cpp

import (
	"encoding/json"
	"fmt"
)

// JSON serialization support for the type sum. All variants include a "kind"
// field for type discrimination so front ends written in any language can
// produce declaration manifests.

// MarshalJSON implements json.Marshaler for VoidType.
func (t *VoidType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind string `json:"kind"`
	}{
		Kind: "void",
	})
}

// MarshalJSON implements json.Marshaler for BuiltInType.
func (t *BuiltInType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind    string `json:"kind"`
		BuiltIn string `json:"builtIn"`
	}{
		Kind:    "builtIn",
		BuiltIn: t.BuiltIn.String(),
	})
}

// MarshalJSON implements json.Marshaler for SpecificNumericType.
func (t *SpecificNumericType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind    string `json:"kind"`
		Name    string `json:"name"`
		Bits    int    `json:"bits"`
		Numeric string `json:"numeric"`
	}{
		Kind:    "specificNumeric",
		Name:    t.Name,
		Bits:    t.Bits,
		Numeric: numericKindName(t.Numeric),
	})
}

// MarshalJSON implements json.Marshaler for PointerSizedIntType.
func (t *PointerSizedIntType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind     string `json:"kind"`
		Name     string `json:"name"`
		IsSigned bool   `json:"isSigned"`
	}{
		Kind:     "pointerSizedInt",
		Name:     t.Name,
		IsSigned: t.IsSigned,
	})
}

// MarshalJSON implements json.Marshaler for EnumType.
func (t *EnumType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind string `json:"kind"`
		Path Path   `json:"path"`
	}{
		Kind: "enum",
		Path: t.Path,
	})
}

// MarshalJSON implements json.Marshaler for ClassType.
func (t *ClassType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind string `json:"kind"`
		Path Path   `json:"path"`
	}{
		Kind: "class",
		Path: t.Path,
	})
}

// MarshalJSON implements json.Marshaler for PointerLikeType. Pointers and
// references use distinct kinds.
func (t *PointerLikeType) MarshalJSON() ([]byte, error) {
	kind := "pointer"
	if t.PointerKind == Reference {
		kind = "reference"
	}
	return json.Marshal(&struct {
		Kind    string `json:"kind"`
		IsConst bool   `json:"isConst,omitempty"`
		Target  Type   `json:"target"`
	}{
		Kind:    kind,
		IsConst: t.IsConst,
		Target:  t.Target,
	})
}

// MarshalJSON implements json.Marshaler for FunctionPointerType.
func (t *FunctionPointerType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind      string `json:"kind"`
		Return    Type   `json:"return"`
		Arguments []Type `json:"arguments"`
		Variadic  bool   `json:"variadic,omitempty"`
	}{
		Kind:      "functionPointer",
		Return:    t.Return,
		Arguments: t.Arguments,
		Variadic:  t.Variadic,
	})
}

// MarshalJSON implements json.Marshaler for TemplateParamType.
func (t *TemplateParamType) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind        string `json:"kind"`
		NestedLevel int    `json:"nestedLevel"`
		Index       int    `json:"index"`
		Name        string `json:"name,omitempty"`
	}{
		Kind:        "templateParam",
		NestedLevel: t.NestedLevel,
		Index:       t.Index,
		Name:        t.Name,
	})
}

// MarshalJSON implements json.Marshaler for PathItem.
func (i PathItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Name              string `json:"name"`
		TemplateArguments []Type `json:"templateArguments,omitempty"`
	}{
		Name:              i.Name,
		TemplateArguments: i.TemplateArguments,
	})
}

// UnmarshalJSON implements json.Unmarshaler for PathItem.
func (i *PathItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name              string            `json:"name"`
		TemplateArguments []json.RawMessage `json:"templateArguments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Name = raw.Name
	i.TemplateArguments = nil
	for _, arg := range raw.TemplateArguments {
		t, err := UnmarshalType(arg)
		if err != nil {
			return err
		}
		i.TemplateArguments = append(i.TemplateArguments, t)
	}
	return nil
}

// MarshalJSON implements json.Marshaler for Path: a bare array of items.
func (p Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Items)
}

// UnmarshalJSON implements json.Unmarshaler for Path.
func (p *Path) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &p.Items)
}

// UnmarshalType decodes one type value from its tagged JSON form.
func UnmarshalType(data []byte) (Type, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Kind {
	case "void":
		return Void(), nil

	case "builtIn":
		var raw struct {
			BuiltIn string `json:"builtIn"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		k, ok := builtInKindByName(raw.BuiltIn)
		if !ok {
			return nil, fmt.Errorf("unknown built-in type %q", raw.BuiltIn)
		}
		return BuiltIn(k), nil

	case "specificNumeric":
		var raw struct {
			Name    string `json:"name"`
			Bits    int    `json:"bits"`
			Numeric string `json:"numeric"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		k, ok := numericKindByName(raw.Numeric)
		if !ok {
			return nil, fmt.Errorf("unknown numeric kind %q", raw.Numeric)
		}
		return SpecificNumeric(raw.Name, raw.Bits, k), nil

	case "pointerSizedInt":
		var raw struct {
			Name     string `json:"name"`
			IsSigned bool   `json:"isSigned"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return &PointerSizedIntType{Name: raw.Name, IsSigned: raw.IsSigned}, nil

	case "enum", "class":
		var raw struct {
			Path Path `json:"path"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		if head.Kind == "enum" {
			return Enum(raw.Path), nil
		}
		return Class(raw.Path), nil

	case "pointer", "reference":
		var raw struct {
			IsConst bool            `json:"isConst"`
			Target  json.RawMessage `json:"target"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		target, err := UnmarshalType(raw.Target)
		if err != nil {
			return nil, err
		}
		pk := Pointer
		if head.Kind == "reference" {
			pk = Reference
		}
		return &PointerLikeType{PointerKind: pk, IsConst: raw.IsConst, Target: target}, nil

	case "functionPointer":
		var raw struct {
			Return    json.RawMessage   `json:"return"`
			Arguments []json.RawMessage `json:"arguments"`
			Variadic  bool              `json:"variadic"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		ret, err := UnmarshalType(raw.Return)
		if err != nil {
			return nil, err
		}
		fp := &FunctionPointerType{Return: ret, Variadic: raw.Variadic}
		for _, arg := range raw.Arguments {
			t, err := UnmarshalType(arg)
			if err != nil {
				return nil, err
			}
			fp.Arguments = append(fp.Arguments, t)
		}
		return fp, nil

	case "templateParam":
		var raw struct {
			NestedLevel int    `json:"nestedLevel"`
			Index       int    `json:"index"`
			Name        string `json:"name"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return TemplateParam(raw.NestedLevel, raw.Index, raw.Name), nil

	default:
		return nil, fmt.Errorf("unknown type kind %q", head.Kind)
	}
}

func numericKindName(k NumericKind) string {
	switch k {
	case NumericUnsigned:
		return "unsigned"
	case NumericFloat:
		return "float"
	default:
		return "signed"
	}
}

func numericKindByName(name string) (NumericKind, bool) {
	switch name {
	case "signed":
		return NumericSigned, true
	case "unsigned":
		return NumericUnsigned, true
	case "float":
		return NumericFloat, true
	}
	return 0, false
}

func builtInKindByName(name string) (BuiltInKind, bool) {
	for _, k := range []BuiltInKind{BuiltInBool, BuiltInChar, BuiltInInt, BuiltInUInt, BuiltInFloat, BuiltInDouble} {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}
