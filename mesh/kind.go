package mesh

import (
	"fmt"
	"strings"
)

// Kind selects the surface extraction strategy.
type Kind int

const (
	Heightmap Kind = iota
	MarchingCubes
	VoxelCubes
)

func (k Kind) String() string {
	switch k {
	case Heightmap:
		return "heightmap"
	case MarchingCubes:
		return "marching_cubes"
	case VoxelCubes:
		return "voxel_cubes"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Volumetric reports whether the strategy samples a 3D field.
func (k Kind) Volumetric() bool {
	return k != Heightmap
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "heightmap":
		return Heightmap, nil
	case "marching_cubes", "marchingcubes":
		return MarchingCubes, nil
	case "voxel_cubes", "voxelcubes", "voxels":
		return VoxelCubes, nil
	}
	return 0, fmt.Errorf("mesh: unknown kind %q", s)
}
