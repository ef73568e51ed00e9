package format

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExpand(t *testing.T) {
	t.Parallel()

	got := expand([]string{"--write", "{dir}/**/*.ts", "x"}, "out/Petstore")
	want := []string{"--write", "out/Petstore/**/*.ts", "x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expand() mismatch (-want +got):\n%s", diff)
	}
}

func TestRunnerFormat(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	t.Run("commands run with the directory substituted", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		r := &Runner{Commands: [][]string{
			{"sh", "-c", `echo formatted > "$1"/marker`, "sh", DirPlaceholder},
		}}
		if err := r.Format(context.Background(), dir); err != nil {
			t.Fatalf("Format() error = %v", err)
		}

		got, err := os.ReadFile(filepath.Join(dir, "marker"))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff("formatted\n", string(got)); diff != "" {
			t.Errorf("marker mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failures are joined and later commands still run", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		r := &Runner{Commands: [][]string{
			{"sh", "-c", "exit 3"},
			{},
			{"sh", "-c", `touch "$1"/after`, "sh", DirPlaceholder},
		}}
		err := r.Format(context.Background(), dir)
		if err == nil {
			t.Fatal("Format() error = nil, want failure")
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Errorf("Format() error = %v, want *exec.ExitError", err)
		}
		if _, statErr := os.Stat(filepath.Join(dir, "after")); statErr != nil {
			t.Errorf("second command did not run: %v", statErr)
		}
	})

	t.Run("missing binary is reported", func(t *testing.T) {
		t.Parallel()

		r := &Runner{Commands: [][]string{{"apigen-no-such-formatter"}}}
		if err := r.Format(context.Background(), t.TempDir()); err == nil {
			t.Fatal("Format() error = nil, want failure")
		}
	})
}
