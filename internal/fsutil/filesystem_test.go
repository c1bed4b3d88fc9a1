package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	osfs := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "points.json")

	if err := osfs.WriteFile(path, []byte(`[]`), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := osfs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != `[]` {
		t.Errorf("got %q, want []", data)
	}

	info, err := osfs.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 2 {
		t.Errorf("size = %d, want 2", info.Size())
	}

	w, err := osfs.Create(filepath.Join(t.TempDir(), "plan.html"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.WriteFile("/out/./plan.json", []byte("hello"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := mfs.ReadFile("/out/plan.json")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q, want hello", data)
	}

	// Returned data is a copy.
	data[0] = 'j'
	again, _ := mfs.ReadFile("/out/plan.json")
	if string(again) != "hello" {
		t.Errorf("stored data mutated: %q", again)
	}

	info, err := mfs.Stat("/out/plan.json")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "plan.json" || info.Size() != 5 || info.Mode() != 0600 || info.IsDir() {
		t.Errorf("unexpected info: %s %d %v %v", info.Name(), info.Size(), info.Mode(), info.IsDir())
	}
}

func TestMemoryFileSystem_Create(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/plan.html")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("<html>")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := mfs.ReadFile("/plan.html")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "<html>" {
		t.Errorf("got %q", data)
	}
	if names := mfs.Names(); len(names) != 1 || names[0] != "/plan.html" {
		t.Errorf("Names() = %v", names)
	}
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if _, err := mfs.ReadFile("/missing.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile err = %v, want fs.ErrNotExist", err)
	}
	if _, err := mfs.Stat("/missing.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat err = %v, want fs.ErrNotExist", err)
	}
}
