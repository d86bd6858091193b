package compile

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// spirvMagic is the first word of a little-endian SPIR-V module.
const spirvMagic = 0x07230203

// Default entry point names emitted by the scene generator and expected
// from external toolchains that don't preserve names.
const (
	DefaultVertexEntry   = "vs_main"
	DefaultFragmentEntry = "fs_main"
)

// Artifact is the immutable output of one successful compilation: GPU-loadable
// shader code plus the entry points it exposes, tagged with the source
// generation it was built from. Exactly one of WGSL or SPIRV is set.
type Artifact struct {
	// Generation is the source generation this artifact was built from.
	Generation uint64

	// Fingerprint is the source fingerprint the compile job targeted.
	Fingerprint uint64

	// WGSL holds shader source for toolchains that emit (or validate)
	// WGSL text.
	WGSL string

	// SPIRV holds compiled bytecode as little-endian 32-bit words.
	SPIRV []uint32

	// VertexEntry and FragmentEntry name the entry points. VertexEntry
	// may be empty when the pipeline supplies its own full-screen vertex
	// stage; FragmentEntry is always set.
	VertexEntry   string
	FragmentEntry string
}

var (
	fragmentEntryRe = regexp.MustCompile(`@fragment\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)
	vertexEntryRe   = regexp.MustCompile(`@vertex\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// LoadArtifact reads a compiled artifact from path. The format is detected
// from content: a SPIR-V magic number means bytecode, anything else is
// treated as WGSL text whose entry points are discovered by scanning for
// @vertex/@fragment attributes.
func LoadArtifact(path string, generation, fingerprint uint64) (*Artifact, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from our own job
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	a := &Artifact{
		Generation:    generation,
		Fingerprint:   fingerprint,
		VertexEntry:   DefaultVertexEntry,
		FragmentEntry: DefaultFragmentEntry,
	}

	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == spirvMagic {
		if len(data)%4 != 0 {
			return nil, fmt.Errorf("artifact %s: SPIR-V length %d not word-aligned", path, len(data))
		}
		words := make([]uint32, len(data)/4)
		for i := range words {
			words[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
		a.SPIRV = words
		return a, nil
	}

	src := string(data)
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("artifact %s: empty", path)
	}

	m := fragmentEntryRe.FindStringSubmatch(src)
	if m == nil {
		return nil, fmt.Errorf("artifact %s: no @fragment entry point", path)
	}
	a.FragmentEntry = m[1]

	if m := vertexEntryRe.FindStringSubmatch(src); m != nil {
		a.VertexEntry = m[1]
	} else {
		a.VertexEntry = ""
	}

	a.WGSL = src
	return a, nil
}

// artifactPath places the output for one generation inside outDir. Each
// generation gets its own file so a slow reader never sees a partially
// written newer build.
func artifactPath(outDir string, generation uint64) string {
	return filepath.Join(outDir, fmt.Sprintf("scene-gen%d.out", generation))
}
