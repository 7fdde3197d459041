package rust

import "testing"

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"QPoint", "q_point"},
		{"QString", "q_string"},
		{"isNull", "is_null"},
		{"AlignmentFlag", "alignment_flag"},
		{"HTTPServer", "http_server"},
		{"already_snake", "already_snake"},
		{"value2D", "value2_d"},
		{"x", "x"},
	}
	for _, tt := range tests {
		if got := SnakeCase(tt.in); got != tt.want {
			t.Errorf("SnakeCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScreamingSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"First", "FIRST"},
		{"AlignLeft", "ALIGN_LEFT"},
		{"WA_DeleteOnClose", "WA_DELETE_ON_CLOSE"},
	}
	for _, tt := range tests {
		if got := ScreamingSnakeCase(tt.in); got != tt.want {
			t.Errorf("ScreamingSnakeCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeIdent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"type", "type_"},
		{"fn", "fn_"},
		{"3d", "_3d"},
		{"has space", "has_space"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := SanitizeIdent(tt.in); got != tt.want {
			t.Errorf("SanitizeIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
