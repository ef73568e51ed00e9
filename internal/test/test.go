package test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/txtar"
)

// FixtureDir returns the repository testdata directory.
func FixtureDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata")
}

// ReadArchive parses testdata/<name> as a txtar archive.
func ReadArchive(t *testing.T, name string) *txtar.Archive {
	t.Helper()
	path := filepath.Join(FixtureDir(t), name)
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("failed to read archive %s: %v", path, err)
	}
	return ar
}

// ArchiveFile returns the contents of the named file in ar.
func ArchiveFile(t *testing.T, ar *txtar.Archive, name string) string {
	t.Helper()
	for _, f := range ar.Files {
		if f.Name == name {
			return string(f.Data)
		}
	}
	t.Fatalf("archive has no file %s", name)
	return ""
}

// ExtractArchive writes the files of ar whose names match pattern into dir and returns dir.
func ExtractArchive(t *testing.T, ar *txtar.Archive, dir, pattern string) string {
	t.Helper()
	for _, f := range ar.Files {
		ok, err := filepath.Match(pattern, f.Name)
		if err != nil {
			t.Fatalf("bad pattern %s: %v", pattern, err)
		}
		if !ok {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, f.Data, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
