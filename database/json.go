package database

import (
	"encoding/json"
	"fmt"

	"github.com/csnover/ritual/cpp"
)

// JSON serialization for declarations. A declaration manifest is the wire
// format between the parsing front end and this generator: an ordered list
// of tagged declarations, consumed in order and never reordered.

// Manifest is a parsed declaration manifest.
type Manifest struct {
	Declarations []Declaration
}

// MarshalJSON implements json.Marshaler for Manifest.
func (m Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Declarations []Declaration `json:"declarations"`
	}{
		Declarations: m.Declarations,
	})
}

// UnmarshalJSON implements json.Unmarshaler for Manifest.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Declarations []json.RawMessage `json:"declarations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Declarations = nil
	for i, d := range raw.Declarations {
		decl, err := UnmarshalDeclaration(d)
		if err != nil {
			return fmt.Errorf("declaration %d: %w", i, err)
		}
		m.Declarations = append(m.Declarations, decl)
	}
	return nil
}

// MarshalJSON implements json.Marshaler for TypeDecl.
func (d *TypeDecl) MarshalJSON() ([]byte, error) {
	kind := "class"
	if d.Kind == TypeEnum {
		kind = "enum"
	}
	return json.Marshal(&struct {
		Kind      string   `json:"kind"`
		Path      cpp.Path `json:"path"`
		IsMovable bool     `json:"isMovable,omitempty"`
	}{
		Kind:      kind,
		Path:      d.Path,
		IsMovable: d.IsMovable,
	})
}

type jsonFunctionArgument struct {
	Name            string   `json:"name"`
	Type            cpp.Type `json:"type"`
	HasDefaultValue bool     `json:"hasDefaultValue,omitempty"`
}

type jsonMemberInfo struct {
	ClassPath cpp.Path     `json:"classPath"`
	Receiver  ReceiverKind `json:"receiver"`
	IsVirtual bool         `json:"isVirtual,omitempty"`
	IsConst   bool         `json:"isConst,omitempty"`
	IsStatic  bool         `json:"isStatic,omitempty"`
}

// MarshalJSON implements json.Marshaler for Function.
func (d *Function) MarshalJSON() ([]byte, error) {
	args := make([]jsonFunctionArgument, len(d.Arguments))
	for i, a := range d.Arguments {
		args[i] = jsonFunctionArgument{Name: a.Name, Type: a.Type, HasDefaultValue: a.HasDefaultValue}
	}
	var member *jsonMemberInfo
	if d.Member != nil {
		member = &jsonMemberInfo{
			ClassPath: d.Member.ClassPath,
			Receiver:  d.Member.Receiver,
			IsVirtual: d.Member.IsVirtual,
			IsConst:   d.Member.IsConst,
			IsStatic:  d.Member.IsStatic,
		}
	}
	return json.Marshal(&struct {
		Kind          string                 `json:"kind"`
		Path          cpp.Path               `json:"path"`
		Return        cpp.Type               `json:"return"`
		Arguments     []jsonFunctionArgument `json:"arguments"`
		Variadic      bool                   `json:"variadic,omitempty"`
		Member        *jsonMemberInfo        `json:"member,omitempty"`
		IsConstructor bool                   `json:"isConstructor,omitempty"`
	}{
		Kind:          "function",
		Path:          d.Path,
		Return:        d.Return,
		Arguments:     args,
		Variadic:      d.Variadic,
		Member:        member,
		IsConstructor: d.IsConstructor,
	})
}

// MarshalJSON implements json.Marshaler for EnumValue.
func (d *EnumValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Kind  string   `json:"kind"`
		Path  cpp.Path `json:"path"`
		Value int64    `json:"value"`
	}{
		Kind:  "enumValue",
		Path:  d.Path,
		Value: d.Value,
	})
}

// receiverKindNames maps the manifest spelling of a receiver form.
var receiverKindNames = map[string]ReceiverKind{
	"none":     ReceiverNone,
	"constRef": ReceiverConstRef,
	"mutRef":   ReceiverMutRef,
	"value":    ReceiverValue,
}

// MarshalJSON implements json.Marshaler for ReceiverKind.
func (k ReceiverKind) MarshalJSON() ([]byte, error) {
	for name, v := range receiverKindNames {
		if v == k {
			return json.Marshal(name)
		}
	}
	return nil, fmt.Errorf("unknown receiver kind %d", int(k))
}

// UnmarshalJSON implements json.Unmarshaler for ReceiverKind.
func (k *ReceiverKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	v, ok := receiverKindNames[name]
	if !ok {
		return fmt.Errorf("unknown receiver kind %q", name)
	}
	*k = v
	return nil
}

// UnmarshalDeclaration decodes one declaration from its tagged JSON form.
func UnmarshalDeclaration(data []byte) (Declaration, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.Kind {
	case "class", "enum":
		var raw struct {
			Path      cpp.Path `json:"path"`
			IsMovable bool     `json:"isMovable"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		kind := TypeClass
		if head.Kind == "enum" {
			kind = TypeEnum
		}
		return &TypeDecl{Path: raw.Path, Kind: kind, IsMovable: raw.IsMovable}, nil

	case "function":
		var raw struct {
			Path      cpp.Path        `json:"path"`
			Return    json.RawMessage `json:"return"`
			Arguments []struct {
				Name            string          `json:"name"`
				Type            json.RawMessage `json:"type"`
				HasDefaultValue bool            `json:"hasDefaultValue"`
			} `json:"arguments"`
			Variadic bool `json:"variadic"`
			Member   *struct {
				ClassPath cpp.Path     `json:"classPath"`
				Receiver  ReceiverKind `json:"receiver"`
				IsVirtual bool         `json:"isVirtual"`
				IsConst   bool         `json:"isConst"`
				IsStatic  bool         `json:"isStatic"`
			} `json:"member"`
			IsConstructor bool `json:"isConstructor"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		f := &Function{Path: raw.Path, Variadic: raw.Variadic, IsConstructor: raw.IsConstructor}
		if raw.Return != nil && string(raw.Return) != "null" {
			ret, err := cpp.UnmarshalType(raw.Return)
			if err != nil {
				return nil, fmt.Errorf("return type: %w", err)
			}
			f.Return = ret
		} else {
			f.Return = cpp.Void()
		}
		for i, arg := range raw.Arguments {
			t, err := cpp.UnmarshalType(arg.Type)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			f.Arguments = append(f.Arguments, FunctionArgument{
				Name:            arg.Name,
				Type:            t,
				HasDefaultValue: arg.HasDefaultValue,
			})
		}
		if raw.Member != nil {
			f.Member = &MemberInfo{
				ClassPath: raw.Member.ClassPath,
				Receiver:  raw.Member.Receiver,
				IsVirtual: raw.Member.IsVirtual,
				IsConst:   raw.Member.IsConst,
				IsStatic:  raw.Member.IsStatic,
			}
		}
		return f, nil

	case "enumValue":
		var raw struct {
			Path  cpp.Path `json:"path"`
			Value int64    `json:"value"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		return &EnumValue{Path: raw.Path, Value: raw.Value}, nil

	default:
		return nil, fmt.Errorf("unknown declaration kind %q", head.Kind)
	}
}
