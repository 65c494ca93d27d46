package mesh

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestValidate(t *testing.T) {
	tri := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}
	up := []mgl32.Vec3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}}
	tests := []struct {
		name    string
		mesh    Mesh
		wantErr bool
	}{
		{"empty", Mesh{}, false},
		{"triangle", Mesh{Positions: tri, Normals: up, Indices: []uint32{0, 2, 1}}, false},
		{"missing normals", Mesh{Positions: tri, Normals: up[:2], Indices: []uint32{0, 2, 1}}, true},
		{"partial triangle", Mesh{Positions: tri, Normals: up, Indices: []uint32{0, 2}}, true},
		{"index out of range", Mesh{Positions: tri, Normals: up, Indices: []uint32{0, 2, 3}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMesh) {
				t.Fatalf("err = %v, want ErrInvalidMesh", err)
			}
		})
	}
}

func TestBoundsAndCounts(t *testing.T) {
	m := &Mesh{
		Positions: []mgl32.Vec3{{-1, 2, 3}, {4, -5, 6}, {0, 0, -7}},
		Normals:   make([]mgl32.Vec3, 3),
		Indices:   []uint32{0, 1, 2},
	}
	lo, hi, ok := m.Bounds()
	if !ok {
		t.Fatal("Bounds() not ok")
	}
	if lo != (mgl32.Vec3{-1, -5, -7}) || hi != (mgl32.Vec3{4, 2, 6}) {
		t.Fatalf("Bounds() = %v, %v", lo, hi)
	}
	if m.VertexCount() != 3 || m.TriangleCount() != 1 || m.IsEmpty() {
		t.Fatalf("counts = %d vertices, %d triangles, empty %v", m.VertexCount(), m.TriangleCount(), m.IsEmpty())
	}
	if _, _, ok := (&Mesh{}).Bounds(); ok {
		t.Fatal("Bounds() ok on empty mesh")
	}
}

func TestFaceNormal(t *testing.T) {
	n := faceNormal(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0})
	if !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("faceNormal = %v, want +Y", n)
	}
	degenerate := faceNormal(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 2, 2})
	if degenerate != (mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("degenerate faceNormal = %v, want +Y", degenerate)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"heightmap", Heightmap, false},
		{"marching_cubes", MarchingCubes, false},
		{"marching-cubes", MarchingCubes, false},
		{"voxel_cubes", VoxelCubes, false},
		{"Voxels", VoxelCubes, false},
		{"dual_contouring", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseKind(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if err == nil {
			if back, _ := ParseKind(got.String()); back != got {
				t.Fatalf("%v does not round trip through String", got)
			}
		}
	}
}

// checkMesh fails the test unless m is valid with unit normals.
func checkMesh(t *testing.T, m *Mesh) {
	t.Helper()
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for i, n := range m.Normals {
		if l := n.Len(); l < 0.999 || l > 1.001 {
			t.Fatalf("normal %d = %v has length %v", i, n, l)
		}
	}
}
