package cpp

import (
	"errors"
	"strings"
	"testing"
)

func TestToCode(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want string
	}{
		{"void", Void(), "void"},
		{"built-in", BuiltIn(BuiltInUInt), "unsigned int"},
		{"specific numeric", SpecificNumeric("qint64", 64, NumericSigned), "qint64"},
		{"class", Class(ParsePath("QString")), "QString"},
		{"namespaced enum", Enum(ParsePath("Qt::AlignmentFlag")), "Qt::AlignmentFlag"},
		{"pointer", Ptr(Class(ParsePath("QWidget"))), "QWidget*"},
		{"const pointer", ConstPtr(BuiltIn(BuiltInChar)), "const char*"},
		{"reference", Ref(Class(ParsePath("QString"))), "QString&"},
		{"const reference", ConstRef(Class(ParsePath("QString"))), "const QString&"},
		{"pointer to pointer", Ptr(Ptr(BuiltIn(BuiltInInt))), "int**"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToCode(tt.typ)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ToCode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToCode_NestedTemplates(t *testing.T) {
	inner := &ClassType{Path: Path{Items: []PathItem{{
		Name:              "QList",
		TemplateArguments: []Type{BuiltIn(BuiltInInt)},
	}}}}
	outer := &ClassType{Path: Path{Items: []PathItem{{
		Name:              "QVector",
		TemplateArguments: []Type{inner},
	}}}}

	got, err := ToCode(outer)
	if err != nil {
		t.Fatal(err)
	}
	if got != "QVector<QList<int> >" {
		t.Errorf("ToCode = %q, want %q", got, "QVector<QList<int> >")
	}
	if strings.Contains(got, ">>") {
		t.Errorf("nested template rendering %q contains the shift token", got)
	}
}

func TestToCodeWithDeclarator(t *testing.T) {
	got, err := ToCodeWithDeclarator(ConstPtr(BuiltIn(BuiltInChar)), "name")
	if err != nil {
		t.Fatal(err)
	}
	if got != "const char* name" {
		t.Errorf("ToCodeWithDeclarator = %q", got)
	}

	if _, err := ToCodeWithDeclarator(BuiltIn(BuiltInInt), ""); !errors.Is(err, ErrMissingName) {
		t.Errorf("empty declarator: err = %v, want ErrMissingName", err)
	}
	if _, err := ToCodeWithDeclarator(Void(), "x"); !errors.Is(err, ErrUnexpectedName) {
		t.Errorf("void with declarator: err = %v, want ErrUnexpectedName", err)
	}
}

func TestToCode_FunctionPointer(t *testing.T) {
	fp := &FunctionPointerType{
		Return:    BuiltIn(BuiltInInt),
		Arguments: []Type{BuiltIn(BuiltInBool), ConstPtr(BuiltIn(BuiltInChar))},
	}

	got, err := ToCodeWithDeclarator(fp, "callback")
	if err != nil {
		t.Fatal(err)
	}
	if got != "int (*callback)(bool, const char*)" {
		t.Errorf("ToCodeWithDeclarator = %q", got)
	}

	if _, err := ToCode(fp); !errors.Is(err, ErrMissingName) {
		t.Errorf("function pointer without declarator: err = %v, want ErrMissingName", err)
	}
}
