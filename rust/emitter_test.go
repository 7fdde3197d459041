package rust

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/csnover/ritual/sink"
)

func classType(name string) *CommonType {
	return Common(Path{"my_crate", SnakeCase(name), name})
}

func refTo(t Type, isConst bool) *PointerLikeType {
	return &PointerLikeType{PointerKind: Reference, IsConst: isConst, Target: t}
}

func ptrTo(t Type, isConst bool) *PointerLikeType {
	return &PointerLikeType{PointerKind: Pointer, IsConst: isConst, Target: t}
}

func cInt() *CommonType { return Common(Path{"std", "os", "raw", "c_int"}) }

func TestEmitStruct(t *testing.T) {
	tests := []struct {
		name string
		s    *Struct
		want []string
	}{
		{
			name: "enum wrapper",
			s:    &Struct{Path: Path{"my_crate", "e", "E"}, StructKind: EnumWrapper, IsPublic: true},
			want: []string{
				"#[derive(Debug, Clone, Copy, PartialEq, Eq)]",
				"#[repr(transparent)]",
				"pub struct E(pub ::std::os::raw::c_int);",
			},
		},
		{
			name: "movable class wrapper",
			s:    &Struct{Path: Path{"my_crate", "c", "C"}, StructKind: MovableClassWrapper, IsPublic: true},
			want: []string{"#[repr(C)]", "pub struct C {", "_data: [u8; 0],"},
		},
		{
			name: "immovable class wrapper",
			s:    &Struct{Path: Path{"my_crate", "c", "C"}, StructKind: ImmovableClassWrapper, IsPublic: true},
			want: []string{"#[repr(C)]", "pub struct C {", "_private: [u8; 0],"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Emitter{Crate: "my_crate"}
			var buf bytes.Buffer
			if err := e.EmitItem(&buf, tt.s, &Database{}); err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestEmitStruct_EnumValuesInImpl(t *testing.T) {
	db := &Database{}
	s := &Struct{Path: Path{"my_crate", "e", "E"}, StructKind: EnumWrapper, IsPublic: true}
	db.Add(
		s,
		&EnumValue{Path: Path{"my_crate", "e", "E", "FIRST"}, Value: 0},
		&EnumValue{Path: Path{"my_crate", "e", "E", "SECOND"}, Value: 2},
	)

	e := &Emitter{Crate: "my_crate"}
	var buf bytes.Buffer
	if err := e.EmitItem(&buf, s, db); err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{
		"impl E {",
		"pub const FIRST: crate::e::E = crate::e::E(0);",
		"pub const SECOND: crate::e::E = crate::e::E(2);",
	} {
		if !strings.Contains(buf.String(), w) {
			t.Errorf("output missing %q:\n%s", w, buf.String())
		}
	}
}

func TestEmitFunction(t *testing.T) {
	qstring := classType("QString")
	qpoint := classType("QPoint")
	returnSlot := 1

	tests := []struct {
		name    string
		f       *Function
		want    []string
		notWant []string
	}{
		{
			name: "const method returning bool",
			f: &Function{
				Path:     Path{"my_crate", "q_string", "QString", "is_empty"},
				IsPublic: true,
				Arguments: []FunctionArgument{{
					Name:     "self",
					Type:     FinalType{API: refTo(qstring, true), FFI: ptrTo(qstring, true), Conversion: ConvRefToPtr},
					FFIIndex: 0,
				}},
				Return:  FinalType{API: Common(Path{"bool"}), FFI: Common(Path{"bool"}), Conversion: ConvNone},
				FFIPath: Path{"my_crate", "ffi", "my_crate_QString_isEmpty"},
			},
			want: []string{
				"pub fn is_empty(&self) -> bool {",
				"unsafe { crate::ffi::my_crate_QString_isEmpty(self as *const crate::q_string::QString) }",
			},
		},
		{
			name: "mutable method with int argument",
			f: &Function{
				Path:     Path{"my_crate", "q_string", "QString", "truncate"},
				IsPublic: true,
				Arguments: []FunctionArgument{
					{
						Name:     "self",
						Type:     FinalType{API: refTo(qstring, false), FFI: ptrTo(qstring, false), Conversion: ConvRefToPtr},
						FFIIndex: 0,
					},
					{
						Name:     "pos",
						Type:     FinalType{API: cInt(), FFI: cInt(), Conversion: ConvNone},
						FFIIndex: 1,
					},
				},
				Return:  FinalType{API: Unit(), FFI: Unit(), Conversion: ConvNone},
				FFIPath: Path{"my_crate", "ffi", "my_crate_QString_truncate"},
			},
			want: []string{
				"pub fn truncate(&mut self, pos: ::std::os::raw::c_int) {",
				"self as *mut crate::q_string::QString, pos",
			},
		},
		{
			name: "movable value return through out-location",
			f: &Function{
				Path:     Path{"my_crate", "q_rect", "QRect", "center"},
				IsPublic: true,
				Arguments: []FunctionArgument{{
					Name:     "self",
					Type:     FinalType{API: refTo(classType("QRect"), true), FFI: ptrTo(classType("QRect"), true), Conversion: ConvRefToPtr},
					FFIIndex: 0,
				}},
				Return:         FinalType{API: qpoint, FFI: ptrTo(qpoint, false), Conversion: ConvValueToPtr},
				ReturnFFIIndex: &returnSlot,
				FFIPath:        Path{"my_crate", "ffi", "my_crate_QRect_center"},
			},
			want: []string{
				"-> crate::q_point::QPoint {",
				"let mut object: crate::q_point::QPoint = unsafe { ::cpp_utils::new_uninitialized::NewUninitialized::new_uninitialized() };",
				"&mut object",
				"object\n}",
			},
		},
		{
			name: "immovable constructor returns owning handle",
			f: &Function{
				Path:     Path{"my_crate", "q_string", "QString", "new"},
				IsPublic: true,
				Return:   FinalType{API: Common(Path{"cpp_utils", "CppBox"}, qstring), FFI: ptrTo(qstring, false), Conversion: ConvBoxToPtr},
				FFIPath:  Path{"my_crate", "ffi", "my_crate_QString_QString"},
			},
			want: []string{
				"-> ::cpp_utils::CppBox<crate::q_string::QString> {",
				"let ffi_result = unsafe { crate::ffi::my_crate_QString_QString() };",
				"unsafe { ::cpp_utils::CppBox::new(ffi_result) }",
			},
		},
		{
			name: "flags return rewraps from int",
			f: &Function{
				Path:     Path{"my_crate", "q_widget", "QWidget", "alignment"},
				IsPublic: true,
				Arguments: []FunctionArgument{{
					Name:     "self",
					Type:     FinalType{API: refTo(classType("QWidget"), true), FFI: ptrTo(classType("QWidget"), true), Conversion: ConvRefToPtr},
					FFIIndex: 0,
				}},
				Return: FinalType{
					API:        Common(Path{"qflags", "QFlags"}, classType("AlignmentFlag")),
					FFI:        Common(Path{"std", "os", "raw", "c_uint"}),
					Conversion: ConvFlagsToUInt,
				},
				FFIPath: Path{"my_crate", "ffi", "my_crate_QWidget_alignment"},
			},
			want: []string{
				"::qflags::QFlags::from_int(ffi_result as i32)",
			},
		},
		{
			name: "unsafe function with raw pointer is one unsafe region",
			f: &Function{
				Path:     Path{"my_crate", "q_object", "QObject", "set_parent"},
				IsPublic: true,
				IsUnsafe: true,
				Arguments: []FunctionArgument{
					{
						Name:     "self",
						Type:     FinalType{API: refTo(classType("QObject"), false), FFI: ptrTo(classType("QObject"), false), Conversion: ConvRefToPtr},
						FFIIndex: 0,
					},
					{
						Name:     "parent",
						Type:     FinalType{API: ptrTo(classType("QObject"), false), FFI: ptrTo(classType("QObject"), false), Conversion: ConvNone},
						FFIIndex: 1,
					},
				},
				Return:  FinalType{API: Unit(), FFI: Unit(), Conversion: ConvNone},
				FFIPath: Path{"my_crate", "ffi", "my_crate_QObject_setParent"},
			},
			want:    []string{"pub unsafe fn set_parent(&mut self, parent: *mut crate::q_object::QObject) {"},
			notWant: []string{"unsafe {"},
		},
		{
			name: "reference return aborts on null",
			f: &Function{
				Path:     Path{"my_crate", "q_list", "QList", "first"},
				IsPublic: true,
				Arguments: []FunctionArgument{{
					Name:     "self",
					Type:     FinalType{API: refTo(classType("QList"), true), FFI: ptrTo(classType("QList"), true), Conversion: ConvRefToPtr},
					FFIIndex: 0,
				}},
				Return:  FinalType{API: refTo(cInt(), true), FFI: ptrTo(cInt(), true), Conversion: ConvRefToPtr},
				FFIPath: Path{"my_crate", "ffi", "my_crate_QList_first"},
			},
			want: []string{
				`.expect("Attempted to convert null pointer to reference")`,
				".as_ref()",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Emitter{Crate: "my_crate"}
			var buf bytes.Buffer
			if err := e.EmitItem(&buf, tt.f, &Database{}); err != nil {
				t.Fatal(err)
			}
			got := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(got, nw) {
					t.Errorf("output should not contain %q:\n%s", nw, got)
				}
			}
		})
	}
}

func TestEmitFunction_SelfPointerIsMalformed(t *testing.T) {
	qstring := classType("QString")
	f := &Function{
		Path: Path{"my_crate", "q_string", "QString", "broken"},
		Arguments: []FunctionArgument{{
			Name:     "self",
			Type:     FinalType{API: ptrTo(qstring, false), FFI: ptrTo(qstring, false), Conversion: ConvNone},
			FFIIndex: 0,
		}},
		Return:  FinalType{API: Unit(), FFI: Unit(), Conversion: ConvNone},
		FFIPath: Path{"my_crate", "ffi", "x"},
	}
	e := &Emitter{Crate: "my_crate"}
	var buf bytes.Buffer
	if err := e.EmitItem(&buf, f, &Database{}); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("err = %v, want ErrMalformedInput", err)
	}
}

func TestEmitFunction_OptionalReferenceReturn(t *testing.T) {
	qlist := classType("QList")
	f := &Function{
		Path:     Path{"my_crate", "q_list", "QList", "first"},
		IsPublic: true,
		Arguments: []FunctionArgument{{
			Name:     "self",
			Type:     FinalType{API: refTo(qlist, true), FFI: ptrTo(qlist, true), Conversion: ConvRefToPtr},
			FFIIndex: 0,
		}},
		Return: FinalType{
			API:        Common(Path{"std", "option", "Option"}, refTo(cInt(), true)),
			FFI:        ptrTo(cInt(), true),
			Conversion: ConvOptionRefToPtr,
		},
		FFIPath: Path{"my_crate", "ffi", "my_crate_QList_first"},
	}
	e := &Emitter{Crate: "my_crate"}
	var buf bytes.Buffer
	if err := e.EmitItem(&buf, f, &Database{}); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, w := range []string{
		"-> ::std::option::Option<&::std::os::raw::c_int> {",
		"let ffi_result = ",
		"unsafe { ffi_result.as_ref() }",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
	// A null pointer maps to None; it never aborts.
	if strings.Contains(got, ".expect(") {
		t.Errorf("optional reference return should not abort on null:\n%s", got)
	}
}

func TestEmitFunction_OptionalReferenceArgumentRejected(t *testing.T) {
	f := &Function{
		Path:     Path{"my_crate", "functions", "find"},
		IsPublic: true,
		Arguments: []FunctionArgument{{
			Name: "needle",
			Type: FinalType{
				API:        Common(Path{"std", "option", "Option"}, refTo(cInt(), true)),
				FFI:        ptrTo(cInt(), true),
				Conversion: ConvOptionRefToPtr,
			},
			FFIIndex: 0,
		}},
		Return:  FinalType{API: Unit(), FFI: Unit(), Conversion: ConvNone},
		FFIPath: Path{"my_crate", "ffi", "my_crate_find"},
	}
	e := &Emitter{Crate: "my_crate"}
	var buf bytes.Buffer
	if err := e.EmitItem(&buf, f, &Database{}); !errors.Is(err, ErrMalformedInput) {
		t.Errorf("err = %v, want ErrMalformedInput", err)
	}
}

func TestEmitFunction_SelfOfUnexpectedKindNamesKind(t *testing.T) {
	f := &Function{
		Path: Path{"my_crate", "q_string", "QString", "broken"},
		Arguments: []FunctionArgument{{
			Name:     "self",
			Type:     FinalType{API: Unit(), FFI: Unit(), Conversion: ConvNone},
			FFIIndex: 0,
		}},
		Return:  FinalType{API: Unit(), FFI: Unit(), Conversion: ConvNone},
		FFIPath: Path{"my_crate", "ffi", "x"},
	}
	e := &Emitter{Crate: "my_crate"}
	var buf bytes.Buffer
	err := e.EmitItem(&buf, f, &Database{})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("err = %v, want ErrMalformedInput", err)
	}
	if !strings.Contains(err.Error(), "Unit") {
		t.Errorf("error %q should name the offending type kind", err)
	}
}

func TestGenerate_FileLayout(t *testing.T) {
	db := &Database{}
	db.Add(
		&Module{Path: Path{"my_crate", "e"}},
		&Struct{Path: Path{"my_crate", "e", "E"}, StructKind: EnumWrapper, IsPublic: true},
		&FFIFunction{
			Path:   Path{"my_crate", "ffi", "my_crate_E_probe"},
			Return: cInt(),
			Arguments: []FFIArgument{
				{Name: "value", Type: cInt()},
			},
		},
	)

	out := sink.NewMemorySink()
	e := &Emitter{Crate: "my_crate"}
	if err := e.Generate(context.Background(), db, out); err != nil {
		t.Fatal(err)
	}

	lib := string(out.Get("lib.rs"))
	for _, w := range []string{"pub mod ffi;", "pub mod e;"} {
		if !strings.Contains(lib, w) {
			t.Errorf("lib.rs missing %q:\n%s", w, lib)
		}
	}
	if mod := string(out.Get("e.rs")); !strings.Contains(mod, "pub struct E") {
		t.Errorf("e.rs missing wrapper struct:\n%s", mod)
	}
	ffi := string(out.Get("ffi.rs"))
	for _, w := range []string{
		`extern "C" {`,
		"pub fn my_crate_E_probe(value: ::std::os::raw::c_int) -> ::std::os::raw::c_int;",
	} {
		if !strings.Contains(ffi, w) {
			t.Errorf("ffi.rs missing %q:\n%s", w, ffi)
		}
	}
}
