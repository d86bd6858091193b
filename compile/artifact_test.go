package compile

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeArtifact(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadArtifactWGSL(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantVertex string
		wantFrag   string
	}{
		{
			name:       "both entries",
			src:        "@vertex fn vs_main() {}\n@fragment fn fs_main() {}\n",
			wantVertex: "vs_main",
			wantFrag:   "fs_main",
		},
		{
			name:       "custom names",
			src:        "@vertex fn fullscreen() {}\n@fragment fn shade_scene() {}\n",
			wantVertex: "fullscreen",
			wantFrag:   "shade_scene",
		},
		{
			name:       "fragment only",
			src:        "@fragment fn fs_main() {}\n",
			wantVertex: "",
			wantFrag:   "fs_main",
		},
		{
			name:       "attribute on its own line",
			src:        "@fragment\nfn paint() {}\n",
			wantVertex: "",
			wantFrag:   "paint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArtifact(t, "scene.wgsl", []byte(tt.src))
			a, err := LoadArtifact(path, 3, 0xbeef)
			if err != nil {
				t.Fatalf("LoadArtifact: %v", err)
			}
			if a.Generation != 3 || a.Fingerprint != 0xbeef {
				t.Errorf("tags = (%d, %#x), want (3, 0xbeef)", a.Generation, a.Fingerprint)
			}
			if a.WGSL != tt.src {
				t.Errorf("WGSL not preserved")
			}
			if a.SPIRV != nil {
				t.Errorf("SPIRV set for WGSL artifact")
			}
			if a.VertexEntry != tt.wantVertex {
				t.Errorf("VertexEntry = %q, want %q", a.VertexEntry, tt.wantVertex)
			}
			if a.FragmentEntry != tt.wantFrag {
				t.Errorf("FragmentEntry = %q, want %q", a.FragmentEntry, tt.wantFrag)
			}
		})
	}
}

func TestLoadArtifactSPIRV(t *testing.T) {
	words := []uint32{spirvMagic, 0x00010300, 0, 1, 0}
	data := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}

	path := writeArtifact(t, "scene.spv", data)
	a, err := LoadArtifact(path, 7, 1)
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if a.WGSL != "" {
		t.Errorf("WGSL set for SPIR-V artifact")
	}
	if len(a.SPIRV) != len(words) {
		t.Fatalf("len(SPIRV) = %d, want %d", len(a.SPIRV), len(words))
	}
	for i, w := range words {
		if a.SPIRV[i] != w {
			t.Errorf("SPIRV[%d] = %#x, want %#x", i, a.SPIRV[i], w)
		}
	}
	if a.VertexEntry != DefaultVertexEntry || a.FragmentEntry != DefaultFragmentEntry {
		t.Errorf("entries = (%q, %q), want defaults", a.VertexEntry, a.FragmentEntry)
	}
}

func TestLoadArtifactErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadArtifact(filepath.Join(t.TempDir(), "nope"), 1, 0); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("empty", func(t *testing.T) {
		path := writeArtifact(t, "empty.wgsl", []byte("  \n\t"))
		if _, err := LoadArtifact(path, 1, 0); err == nil {
			t.Fatal("expected error for empty artifact")
		}
	})

	t.Run("no fragment entry", func(t *testing.T) {
		path := writeArtifact(t, "vertex-only.wgsl", []byte("@vertex fn vs_main() {}\n"))
		_, err := LoadArtifact(path, 1, 0)
		if err == nil || !strings.Contains(err.Error(), "@fragment") {
			t.Fatalf("err = %v, want fragment entry error", err)
		}
	})

	t.Run("unaligned spirv", func(t *testing.T) {
		data := make([]byte, 7)
		binary.LittleEndian.PutUint32(data, spirvMagic)
		path := writeArtifact(t, "bad.spv", data)
		_, err := LoadArtifact(path, 1, 0)
		if err == nil || !strings.Contains(err.Error(), "word-aligned") {
			t.Fatalf("err = %v, want alignment error", err)
		}
	})
}

func TestArtifactPathPerGeneration(t *testing.T) {
	a := artifactPath("/tmp/out", 1)
	b := artifactPath("/tmp/out", 2)
	if a == b {
		t.Fatalf("generations share artifact path %s", a)
	}
	if filepath.Dir(a) != "/tmp/out" {
		t.Errorf("artifact outside outDir: %s", a)
	}
}
