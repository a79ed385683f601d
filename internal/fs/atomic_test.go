package fs

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomic_Basic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	fs := NewRealFS()

	data := []byte("[subcommands.scripts]\nfmt = \"/usr/bin/true\"\n")
	if err := WriteFileAtomic(fs, path, data, 0644); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	got, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("content = %q, want %q", string(got), string(data))
	}

	assertNoTempFiles(t, dir)
}

func TestWriteFileAtomic_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	fs := NewRealFS()

	if err := WriteFileAtomic(fs, path, []byte("old = true\n"), 0644); err != nil {
		t.Fatalf("initial write failed: %v", err)
	}

	updated := []byte("new = true\n")
	if err := WriteFileAtomic(fs, path, updated, 0644); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(updated) {
		t.Errorf("content = %q, want %q", string(got), string(updated))
	}

	assertNoTempFiles(t, dir)
}

func TestWriteFileAtomic_Permissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	fs := NewRealFS()

	if err := WriteFileAtomic(fs, path, []byte("test"), 0600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	got := info.Mode().Perm()
	if got != 0600 {
		t.Errorf("permissions = %o, want %o", got, 0600)
	}
}

func TestWriteFileAtomic_RenameFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	realFS := NewRealFS()
	initial := []byte("initial = true\n")
	if err := realFS.WriteFile(path, initial, 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	stubFS := &failingRenameFS{FS: realFS}

	err := WriteFileAtomic(stubFS, path, []byte("new = true\n"), 0644)
	if !stderrors.Is(err, os.ErrPermission) {
		t.Fatalf("err = %v, want wrapped rename failure", err)
	}

	got, err := realFS.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != string(initial) {
		t.Errorf("original content changed: got %q, want %q", string(got), string(initial))
	}

	assertNoTempFiles(t, dir)
}

func TestWriteFileAtomic_ParentDirMustExist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent", "config.toml")

	if err := WriteFileAtomic(NewRealFS(), path, []byte("x"), 0o644); err == nil {
		t.Error("WriteFileAtomic should fail when parent dir doesn't exist")
	}
}

func TestDirState(t *testing.T) {
	root := t.TempDir()
	fs := NewRealFS()

	emptyDir := filepath.Join(root, "empty")
	if err := os.Mkdir(emptyDir, 0o755); err != nil {
		t.Fatal(err)
	}
	fullDir := filepath.Join(root, "full")
	if err := os.Mkdir(fullDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(fullDir, "README"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(root, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		path       string
		wantExists bool
		wantEmpty  bool
	}{
		{"missing", filepath.Join(root, "missing"), false, false},
		{"empty dir", emptyDir, true, true},
		{"non-empty dir", fullDir, true, false},
		{"regular file", file, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exists, empty, err := DirState(fs, tt.path)
			if err != nil {
				t.Fatalf("DirState failed: %v", err)
			}
			if exists != tt.wantExists || empty != tt.wantEmpty {
				t.Errorf("DirState = (%v, %v), want (%v, %v)", exists, empty, tt.wantExists, tt.wantEmpty)
			}
		})
	}
}

func TestWriteFileAtomic_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	err := WriteFileAtomic(&failingWriteFS{FS: NewRealFS()}, path, []byte("x"), 0o644)
	if !stderrors.Is(err, errDiskFull) {
		t.Fatalf("err = %v, want wrapped errDiskFull", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("target should not exist after a failed write: %v", statErr)
	}
	assertNoTempFiles(t, dir)
}

var errDiskFull = stderrors.New("disk full")

// failingWriteFS hands out temp files whose writes fail.
type failingWriteFS struct {
	FS
}

func (f *failingWriteFS) CreateTemp(dir, pattern string) (string, io.WriteCloser, error) {
	name, w, err := f.FS.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	return name, failingWriter{w}, nil
}

type failingWriter struct {
	io.WriteCloser
}

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

type failingRenameFS struct {
	FS
}

func (f *failingRenameFS) Rename(oldpath, newpath string) error {
	return os.ErrPermission
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
