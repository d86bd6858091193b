package compile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/sdfview"
)

// Toolchain turns a shader source tree into a compiled artifact file.
//
// Contract: on success the artifact exists at outPath and the returned error
// is nil; on failure the error carries whatever diagnostics the toolchain
// produced. Progress text (build log lines) is streamed to progress as it
// appears; it is informational only.
type Toolchain interface {
	Compile(ctx context.Context, srcRoot, outPath string, progress io.Writer) error
}

// ToolchainFunc adapts a function to the Toolchain interface.
type ToolchainFunc func(ctx context.Context, srcRoot, outPath string, progress io.Writer) error

// Compile calls f.
func (f ToolchainFunc) Compile(ctx context.Context, srcRoot, outPath string, progress io.Writer) error {
	return f(ctx, srcRoot, outPath, progress)
}

// ExecToolchain invokes an external compiler process.
//
// The command is run with {src} and {out} placeholders in Args replaced by
// the source root and output path. Exit code 0 plus an artifact at the
// output path is success; a non-zero exit is a compile failure whose stderr
// becomes the diagnostic. Stdout is forwarded line by line to the progress
// writer.
type ExecToolchain struct {
	// Command is the compiler executable.
	Command string

	// Args are the arguments, with {src} and {out} substituted per job.
	// When empty, {src} {out} is used.
	Args []string
}

// Compile runs the external compiler. The process inherits ctx: cancelling
// it kills the process, which is how shutdown bounds a stuck compiler.
func (t ExecToolchain) Compile(ctx context.Context, srcRoot, outPath string, progress io.Writer) error {
	args := t.Args
	if len(args) == 0 {
		args = []string{"{src}", "{out}"}
	}
	expanded := make([]string, len(args))
	for i, a := range args {
		a = strings.ReplaceAll(a, "{src}", srcRoot)
		a = strings.ReplaceAll(a, "{out}", outPath)
		expanded[i] = a
	}

	cmd := exec.CommandContext(ctx, t.Command, expanded...) //nolint:gosec // operator-configured compiler
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", t.Command, err)
	}

	// Forward progress verbatim while the compiler runs. No line framing;
	// arbitrarily long output must not be truncated or stall the pipe.
	if _, err := io.Copy(progress, stdout); err != nil && ctx.Err() == nil {
		sdfview.Logger().Warn("compile: progress forwarding interrupted", "err", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("compiler canceled: %w", ctx.Err())
		}
		return &DiagnosticError{
			Stage:  "external compiler",
			Output: stderr.String(),
			Err:    err,
		}
	}

	if _, err := os.Stat(outPath); err != nil {
		return &DiagnosticError{
			Stage:  "external compiler",
			Output: stderr.String(),
			Err:    fmt.Errorf("exit 0 but no artifact at %s: %w", outPath, err),
		}
	}
	return nil
}

// NagaToolchain is the built-in WGSL toolchain: it locates the main WGSL
// file in the source tree, compiles it to SPIR-V with gogpu/naga, and writes
// the bytecode to the output path. Used when no external compiler command is
// configured, and handy in tests because it needs no other tooling.
type NagaToolchain struct {
	// MainFile names the shader file relative to the source root.
	// Empty means: scene.wgsl if present, otherwise the only *.wgsl file.
	MainFile string
}

// Compile compiles the main WGSL file to SPIR-V.
func (t NagaToolchain) Compile(ctx context.Context, srcRoot, outPath string, progress io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	main, err := t.findMain(srcRoot)
	if err != nil {
		return err
	}
	fmt.Fprintf(progress, "naga: compiling %s\n", main)

	src, err := os.ReadFile(main) //nolint:gosec // path found under the source root
	if err != nil {
		return fmt.Errorf("read %s: %w", main, err)
	}

	spirv, err := naga.Compile(string(src))
	if err != nil {
		return &DiagnosticError{
			Stage:  "naga",
			Output: err.Error(),
			Err:    err,
		}
	}
	fmt.Fprintf(progress, "naga: %d bytes of SPIR-V\n", len(spirv))

	if err := os.WriteFile(outPath, spirv, 0o644); err != nil { //nolint:gosec // build output
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// findMain resolves which WGSL file is the shader entry file.
func (t NagaToolchain) findMain(srcRoot string) (string, error) {
	if t.MainFile != "" {
		return filepath.Join(srcRoot, t.MainFile), nil
	}

	preferred := filepath.Join(srcRoot, "scene.wgsl")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}

	var candidates []string
	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".wgsl") {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", srcRoot, err)
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no .wgsl file under %s", srcRoot)
	case 1:
		return candidates[0], nil
	default:
		sort.Strings(candidates)
		return "", fmt.Errorf("multiple .wgsl files under %s (%s); set MainFile",
			srcRoot, strings.Join(candidates, ", "))
	}
}
