package rust

import (
	"testing"
)

func TestToCode(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want string
	}{
		{"unit", Unit(), "()"},
		{"own crate type", Common(Path{"my_crate", "types", "QString"}), "crate::types::QString"},
		{"foreign type", Common(Path{"std", "os", "raw", "c_int"}), "::std::os::raw::c_int"},
		{"const pointer", &PointerLikeType{PointerKind: Pointer, IsConst: true, Target: Common(Path{"my_crate", "t", "T"})}, "*const crate::t::T"},
		{"mutable pointer", &PointerLikeType{PointerKind: Pointer, Target: Common(Path{"my_crate", "t", "T"})}, "*mut crate::t::T"},
		{"shared reference", &PointerLikeType{PointerKind: Reference, IsConst: true, Target: Common(Path{"my_crate", "t", "T"})}, "&crate::t::T"},
		{"mutable reference with lifetime", &PointerLikeType{PointerKind: Reference, Lifetime: "a", Target: Common(Path{"my_crate", "t", "T"})}, "&'a mut crate::t::T"},
		{"generic type", Common(Path{"cpp_utils", "CppBox"}, Common(Path{"my_crate", "t", "T"})), "::cpp_utils::CppBox<crate::t::T>"},
		{"function pointer", &FunctionPointerType{
			Return:    Common(Path{"std", "os", "raw", "c_int"}),
			Arguments: []Type{Common(Path{"std", "os", "raw", "c_char"})},
		}, `extern "C" fn(::std::os::raw::c_char) -> ::std::os::raw::c_int`},
		{"function pointer returning unit", &FunctionPointerType{Return: Unit()}, `extern "C" fn()`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToCode(tt.typ, "my_crate"); got != tt.want {
				t.Errorf("ToCode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPathFullName(t *testing.T) {
	tests := []struct {
		name  string
		path  Path
		crate string
		want  string
	}{
		{"own crate", Path{"my_crate", "m", "T"}, "my_crate", "crate::m::T"},
		{"crate root", Path{"my_crate"}, "my_crate", "crate"},
		{"other crate", Path{"other", "T"}, "my_crate", "::other::T"},
		{"no current crate", Path{"other", "T"}, "", "::other::T"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.FullName(tt.crate); got != tt.want {
				t.Errorf("FullName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{SnakeCase, "setAlignment", "set_alignment"},
		{SnakeCase, "QPainterPath", "q_painter_path"},
		{SnakeCase, "loop", "loop_"},
		{ScreamingSnakeCase, "AlignLeft", "ALIGN_LEFT"},
		{SanitizeIdent, "self", "self_"},
		{SanitizeIdent, "operator==", "operator__"},
		{SanitizeIdent, "2d", "_2d"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("%q -> %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDatabaseChildren(t *testing.T) {
	db := &Database{}
	db.Add(
		&Module{Path: Path{"c", "m"}},
		&Struct{Path: Path{"c", "m", "T"}, StructKind: EnumWrapper},
		&EnumValue{Path: Path{"c", "m", "T", "A"}, Value: 1},
		&EnumValue{Path: Path{"c", "m", "T", "B"}, Value: 2},
		&Module{Path: Path{"c", "n"}},
	)

	kids := db.Children(Path{"c", "m", "T"})
	if len(kids) != 2 {
		t.Fatalf("Children = %d items, want 2", len(kids))
	}
	if kids[0].ItemPath().Last() != "A" || kids[1].ItemPath().Last() != "B" {
		t.Errorf("children out of insertion order: %v, %v", kids[0].ItemPath(), kids[1].ItemPath())
	}
	if got := db.Children(Path{"c"}); len(got) != 2 {
		t.Errorf("crate root children = %d, want 2 modules", len(got))
	}
}
