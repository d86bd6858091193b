package compile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecToolchainSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "artifact.wgsl")

	tc := ExecToolchain{
		Command: "/bin/sh",
		Args:    []string{"-c", `echo "building scene"; printf '@fragment fn fs_main() {}' > {out}`},
	}

	var progress bytes.Buffer
	if err := tc.Compile(context.Background(), dir, out, &progress); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(progress.String(), "building scene") {
		t.Errorf("progress = %q, want stdout forwarded", progress.String())
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestExecToolchainFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "artifact.wgsl")

	tc := ExecToolchain{
		Command: "/bin/sh",
		Args:    []string{"-c", `echo "scene.wgsl:3:1: unknown identifier" >&2; exit 1`},
	}

	err := tc.Compile(context.Background(), dir, out, &bytes.Buffer{})
	var diag *DiagnosticError
	if !errors.As(err, &diag) {
		t.Fatalf("err = %v, want *DiagnosticError", err)
	}
	if !strings.Contains(diag.Output, "unknown identifier") {
		t.Errorf("Output = %q, want captured stderr", diag.Output)
	}
}

func TestExecToolchainNoArtifact(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "artifact.wgsl")

	tc := ExecToolchain{Command: "/bin/true"}

	err := tc.Compile(context.Background(), dir, out, &bytes.Buffer{})
	var diag *DiagnosticError
	if !errors.As(err, &diag) {
		t.Fatalf("err = %v, want *DiagnosticError for missing artifact", err)
	}
}

func TestExecToolchainCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tc := ExecToolchain{
		Command: "/bin/sh",
		Args:    []string{"-c", "sleep 30"},
	}
	err := tc.Compile(ctx, t.TempDir(), "unused", &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestNagaToolchainFindMain(t *testing.T) {
	write := func(t *testing.T, dir, name string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte("// wgsl"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("explicit main file", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "viewer.wgsl")
		write(t, dir, "scene.wgsl")
		main, err := NagaToolchain{MainFile: "viewer.wgsl"}.findMain(dir)
		if err != nil {
			t.Fatal(err)
		}
		if main != filepath.Join(dir, "viewer.wgsl") {
			t.Errorf("main = %s, want viewer.wgsl", main)
		}
	})

	t.Run("scene.wgsl preferred", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "scene.wgsl")
		write(t, dir, "helpers.wgsl")
		main, err := NagaToolchain{}.findMain(dir)
		if err != nil {
			t.Fatal(err)
		}
		if main != filepath.Join(dir, "scene.wgsl") {
			t.Errorf("main = %s, want scene.wgsl", main)
		}
	})

	t.Run("single file", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "ocean.wgsl")
		main, err := NagaToolchain{}.findMain(dir)
		if err != nil {
			t.Fatal(err)
		}
		if main != filepath.Join(dir, "ocean.wgsl") {
			t.Errorf("main = %s, want ocean.wgsl", main)
		}
	})

	t.Run("none", func(t *testing.T) {
		if _, err := (NagaToolchain{}).findMain(t.TempDir()); err == nil {
			t.Fatal("expected error with no wgsl files")
		}
	})

	t.Run("ambiguous", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "a.wgsl")
		write(t, dir, "b.wgsl")
		_, err := NagaToolchain{}.findMain(dir)
		if err == nil || !strings.Contains(err.Error(), "MainFile") {
			t.Fatalf("err = %v, want ambiguity error", err)
		}
	})
}

func TestExecToolchainLongProgressLine(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "artifact.wgsl")

	tc := ExecToolchain{
		Command: "/bin/sh",
		Args:    []string{"-c", `head -c 70000 /dev/zero | tr '\0' 'x'; printf '@fragment fn fs_main() {}' > {out}`},
	}

	var progress bytes.Buffer
	if err := tc.Compile(context.Background(), dir, out, &progress); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := progress.Len(); got != 70000 {
		t.Errorf("forwarded %d progress bytes, want 70000", got)
	}
}
