package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ChunkTerrain/chunk"
	"ChunkTerrain/mesh"
	"ChunkTerrain/noise"

	"github.com/go-gl/mathgl/mgl32"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terrain.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	s := Defaults()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if s.MeshKind() != mesh.Heightmap || s.NoiseBasis() != noise.BasisSimplex {
		t.Fatalf("kind %v basis %v", s.MeshKind(), s.NoiseBasis())
	}
	if s.Dims() != 2 {
		t.Fatalf("Dims = %d, want 2", s.Dims())
	}
	if s.RetentionPolicy() != chunk.Retain {
		t.Fatalf("retention = %v, want retain", s.RetentionPolicy())
	}
}

func TestLoadEmptyPath(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Octaves != 5 || s.Width != 32 {
		t.Fatalf("settings = %+v, want defaults", s)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
mesh: marching_cubes
basis: perlin
seed: 7
width: 16
height: 8
depth: 12
view_distance: 3
octaves: 3
retention: evict
curve:
  - {in: 0, out: 0}
  - {in: 1, out: 1}
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MeshKind() != mesh.MarchingCubes || s.NoiseBasis() != noise.BasisPerlin {
		t.Fatalf("kind %v basis %v", s.MeshKind(), s.NoiseBasis())
	}
	if s.Seed != 7 || s.Octaves != 3 || s.ViewDistance != 3 {
		t.Fatalf("settings = %+v", s)
	}
	// Keys absent from the file keep their defaults.
	if s.Lacunarity != 2 || s.Persistence != 0.5 {
		t.Fatalf("lacunarity %v persistence %v", s.Lacunarity, s.Persistence)
	}
	if got := s.CellSize(); got != (mgl32.Vec3{16, 8, 12}) {
		t.Fatalf("CellSize = %v", got)
	}
	if got := s.Curve().Points(); len(got) != 2 {
		t.Fatalf("curve points = %v", got)
	}
	if s.RetentionPolicy() != chunk.Evict {
		t.Fatalf("retention = %v, want evict", s.RetentionPolicy())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "octaves: 3\nmesh: voxel_cubes\n")
	t.Setenv("TERRAIN_OCTAVES", "6")
	t.Setenv("TERRAIN_SCALE", "0.25")
	t.Setenv("TERRAIN_VSYNC", "false")
	t.Setenv("TERRAIN_WIDTH", "not-a-number")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Octaves != 6 || s.Scale != 0.25 || s.Vsync {
		t.Fatalf("octaves %d scale %v vsync %t", s.Octaves, s.Scale, s.Vsync)
	}
	if s.Width != 32 {
		t.Fatalf("Width = %d, want default after bad env value", s.Width)
	}
	if s.MeshKind() != mesh.VoxelCubes {
		t.Fatalf("kind = %v", s.MeshKind())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown mesh", "mesh: sphere\n", "Mesh"},
		{"unknown basis", "basis: worley\n", "Basis"},
		{"negative view distance", "view_distance: -1\n", "ViewDistance"},
		{"zero width", "width: 0\n", "Width"},
		{"threshold above one", "solidity_threshold: 1.5\n", "SolidityThreshold"},
		{"bad retention", "retention: forever\n", "Retention"},
		{"decreasing curve", "curve:\n  - {in: 0, out: 1}\n  - {in: 1, out: 0}\n", "Curve"},
		{"malformed yaml", "width: [1, 2\n", "terrain.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if err == nil {
				t.Fatalf("Load succeeded, want error mentioning %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not exist", err)
	}
}

func TestChunkSettings(t *testing.T) {
	s := Defaults()
	s.Mesh = "marching_cubes"
	s.Width, s.Height, s.Depth = 8, 4, 6

	cs := s.ChunkSettings()
	if err := cs.Validate(); err != nil {
		t.Fatalf("chunk settings invalid: %v", err)
	}
	if cs.Dims != 3 || cs.ViewDistance != 2 {
		t.Fatalf("dims %d view distance %d", cs.Dims, cs.ViewDistance)
	}

	p := cs.Params(chunk.Coord{X: 1, Y: -1, Z: 2})
	if p.Offset != (mgl32.Vec3{8, -4, 12}) {
		t.Fatalf("Offset = %v", p.Offset)
	}
	if p.Kind != mesh.MarchingCubes || p.Width != 8 || p.Noise.Octaves != 5 {
		t.Fatalf("params = %+v", p)
	}
	if !p.Noise.Dropoff || p.Noise.DropoffSpan != 16 {
		t.Fatalf("noise = %+v", p.Noise)
	}
}

func TestChunkSettingsHeightmap(t *testing.T) {
	s := Defaults()
	cs := s.ChunkSettings()
	if err := cs.Validate(); err != nil {
		t.Fatalf("chunk settings invalid: %v", err)
	}
	p := cs.Params(chunk.Coord{X: -1, Z: 3})
	if p.Offset != (mgl32.Vec3{-32, 0, 96}) {
		t.Fatalf("Offset = %v", p.Offset)
	}
}
