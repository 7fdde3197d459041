package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "simple file", path: "lib.rs"},
		{name: "nested file", path: "src/ffi.rs"},
		{name: "empty", path: "", wantErr: true},
		{name: "absolute", path: "/etc/passwd", wantErr: true},
		{name: "drive letter", path: `C:\out\lib.rs`, wantErr: true},
		{name: "traversal", path: "../outside.rs", wantErr: true},
		{name: "embedded traversal", path: "src/../lib.rs", wantErr: true},
		{name: "not clean", path: "src//lib.rs", wantErr: true},
		{name: "trailing slash", path: "src/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestFilesystemSinkWriteFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFilesystemSink(dir)
	ctx := context.Background()

	if err := s.WriteFile(ctx, "src/lib.rs", []byte("pub mod ffi;\n")); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "src", "lib.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "pub mod ffi;\n" {
		t.Errorf("content = %q", got)
	}

	// Overwrite replaces the previous content.
	if err := s.WriteFile(ctx, "src/lib.rs", []byte("pub mod types;\n")); err != nil {
		t.Fatal(err)
	}
	got, err = os.ReadFile(filepath.Join(dir, "src", "lib.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "pub mod types;\n" {
		t.Errorf("content after overwrite = %q", got)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "src"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "lib.rs" {
			t.Errorf("unexpected leftover file %s", e.Name())
		}
	}
}

func TestFilesystemSinkRejectsEscape(t *testing.T) {
	s := NewFilesystemSink(t.TempDir())

	if err := s.WriteFile(context.Background(), "../escape.rs", []byte("x")); err == nil {
		t.Error("expected error for path escaping root")
	}
}

func TestFilesystemSinkCancelledContext(t *testing.T) {
	s := NewFilesystemSink(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.WriteFile(ctx, "lib.rs", []byte("x")); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestMemorySink(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	if got := s.Get("lib.rs"); got != nil {
		t.Errorf("Get before write = %q, want nil", got)
	}

	content := []byte("pub struct QString(u8);\n")
	if err := s.WriteFile(ctx, "lib.rs", content); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(ctx, "src/ffi.rs", []byte("extern \"C\" {}\n")); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's slice must not alter the stored copy.
	content[0] = '!'
	if got := string(s.Get("lib.rs")); got != "pub struct QString(u8);\n" {
		t.Errorf("stored content = %q", got)
	}

	paths := s.Paths()
	if len(paths) != 2 {
		t.Fatalf("Paths() = %v, want 2 entries", paths)
	}

	if err := s.WriteFile(ctx, "../nope.rs", nil); err == nil {
		t.Error("expected error for invalid path")
	}
}
