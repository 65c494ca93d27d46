package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"ChunkTerrain/chunk"
	"ChunkTerrain/mesh"
	"ChunkTerrain/noise"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings holds every knob of the terrain demo.
type Settings struct {
	Mesh    string `yaml:"mesh" validate:"oneof=heightmap marching_cubes voxel_cubes"`
	Basis   string `yaml:"basis" validate:"oneof=simplex perlin"`
	Backend string `yaml:"backend" validate:"oneof=cpu gl"`
	Seed    int64  `yaml:"seed"`

	Width        int `yaml:"width" validate:"gt=0,lte=1024"`
	Height       int `yaml:"height" validate:"gt=0,lte=1024"`
	Depth        int `yaml:"depth" validate:"gt=0,lte=1024"`
	ViewDistance int `yaml:"view_distance" validate:"gte=0,lte=16"`

	Scale       float32 `yaml:"scale" validate:"gt=0"`
	Amplitude   float32 `yaml:"amplitude" validate:"gt=0"`
	Frequency   float32 `yaml:"frequency" validate:"gt=0"`
	Octaves     int     `yaml:"octaves" validate:"gte=0,lte=16"`
	Persistence float32 `yaml:"persistence" validate:"gt=0"`
	Lacunarity  float32 `yaml:"lacunarity" validate:"gt=0"`

	IsoLevel          float32       `yaml:"iso_level"`
	SolidityThreshold float32       `yaml:"solidity_threshold" validate:"gte=0,lte=1"`
	UseDropoff        bool          `yaml:"use_dropoff"`
	DropoffPlane      float32       `yaml:"dropoff_plane"`
	DropoffSpan       float32       `yaml:"dropoff_span" validate:"gt=0"`
	CurvePoints       []noise.Point `yaml:"curve"`

	Retention             string `yaml:"retention" validate:"oneof=retain evict"`
	MaxGenerationsPerTick int    `yaml:"max_generations_per_tick" validate:"gte=0"`

	Vsync        bool `yaml:"vsync"`
	WindowWidth  int  `yaml:"window_width" validate:"gt=0"`
	WindowHeight int  `yaml:"window_height" validate:"gt=0"`
}

func Defaults() *Settings {
	return &Settings{
		Mesh:    "heightmap",
		Basis:   "simplex",
		Backend: "gl",
		Seed:    12,

		Width:        32,
		Height:       32,
		Depth:        32,
		ViewDistance: 2,

		Scale:       0.1,
		Amplitude:   1,
		Frequency:   1,
		Octaves:     5,
		Persistence: 0.5,
		Lacunarity:  2,

		IsoLevel:          0,
		SolidityThreshold: 0.5,
		UseDropoff:        true,
		DropoffPlane:      16,
		DropoffSpan:       16,

		Retention:             "retain",
		MaxGenerationsPerTick: 3,

		Vsync:        true,
		WindowWidth:  1600,
		WindowHeight: 900,
	}
}

// Load starts from Defaults, applies the YAML file at path (if path is not
// empty), then .env and TERRAIN_* environment overrides, and validates the
// result.
func Load(path string) (*Settings, error) {
	s := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, s); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Config] ignoring .env: %v", err)
	}
	s.applyEnv()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

func (s *Settings) applyEnv() {
	s.Mesh = getEnv("TERRAIN_MESH", s.Mesh)
	s.Basis = getEnv("TERRAIN_BASIS", s.Basis)
	s.Backend = getEnv("TERRAIN_BACKEND", s.Backend)
	s.Seed = int64(getIntEnv("TERRAIN_SEED", int(s.Seed)))
	s.Width = getIntEnv("TERRAIN_WIDTH", s.Width)
	s.Height = getIntEnv("TERRAIN_HEIGHT", s.Height)
	s.Depth = getIntEnv("TERRAIN_DEPTH", s.Depth)
	s.ViewDistance = getIntEnv("TERRAIN_VIEW_DISTANCE", s.ViewDistance)
	s.Scale = getFloatEnv("TERRAIN_SCALE", s.Scale)
	s.Amplitude = getFloatEnv("TERRAIN_AMPLITUDE", s.Amplitude)
	s.Frequency = getFloatEnv("TERRAIN_FREQUENCY", s.Frequency)
	s.Octaves = getIntEnv("TERRAIN_OCTAVES", s.Octaves)
	s.Persistence = getFloatEnv("TERRAIN_PERSISTENCE", s.Persistence)
	s.Lacunarity = getFloatEnv("TERRAIN_LACUNARITY", s.Lacunarity)
	s.IsoLevel = getFloatEnv("TERRAIN_ISO_LEVEL", s.IsoLevel)
	s.SolidityThreshold = getFloatEnv("TERRAIN_SOLIDITY_THRESHOLD", s.SolidityThreshold)
	s.UseDropoff = getBoolEnv("TERRAIN_USE_DROPOFF", s.UseDropoff)
	s.DropoffPlane = getFloatEnv("TERRAIN_DROPOFF_PLANE", s.DropoffPlane)
	s.DropoffSpan = getFloatEnv("TERRAIN_DROPOFF_SPAN", s.DropoffSpan)
	s.Retention = getEnv("TERRAIN_RETENTION", s.Retention)
	s.MaxGenerationsPerTick = getIntEnv("TERRAIN_MAX_GENERATIONS_PER_TICK", s.MaxGenerationsPerTick)
	s.Vsync = getBoolEnv("TERRAIN_VSYNC", s.Vsync)
	s.WindowWidth = getIntEnv("TERRAIN_WINDOW_WIDTH", s.WindowWidth)
	s.WindowHeight = getIntEnv("TERRAIN_WINDOW_HEIGHT", s.WindowHeight)
}

var validate = validator.New()

// Validate checks field ranges and that the curve is monotonic.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), validationMessage(fe)))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	if len(s.CurvePoints) > 0 {
		if _, err := noise.NewCurve(s.CurvePoints...); err != nil {
			return fmt.Errorf("Curve: %w", err)
		}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}

func (s *Settings) MeshKind() mesh.Kind {
	k, _ := mesh.ParseKind(s.Mesh)
	return k
}

func (s *Settings) NoiseBasis() noise.Basis {
	b, _ := noise.ParseBasis(s.Basis)
	return b
}

// Curve returns the configured voxel curve, or DefaultCurve when none is set.
func (s *Settings) Curve() noise.Curve {
	if len(s.CurvePoints) == 0 {
		return noise.DefaultCurve()
	}
	c, _ := noise.NewCurve(s.CurvePoints...)
	return c
}

func (s *Settings) NoiseParams() noise.Params {
	return noise.Params{
		Amplitude:    s.Amplitude,
		Frequency:    s.Frequency,
		Octaves:      s.Octaves,
		Persistence:  s.Persistence,
		Lacunarity:   s.Lacunarity,
		Dropoff:      s.UseDropoff,
		DropoffPlane: s.DropoffPlane,
		DropoffSpan:  s.DropoffSpan,
	}
}

// Dims is 2 for heightmaps and 3 for volumetric meshes.
func (s *Settings) Dims() int {
	if s.MeshKind().Volumetric() {
		return 3
	}
	return 2
}

// CellSize is the world extent of one chunk. Heightmaps span Width along X
// and Height along Z.
func (s *Settings) CellSize() mgl32.Vec3 {
	if s.Dims() == 2 {
		return mgl32.Vec3{float32(s.Width), 0, float32(s.Height)}
	}
	return mgl32.Vec3{float32(s.Width), float32(s.Height), float32(s.Depth)}
}

func (s *Settings) RetentionPolicy() chunk.Retention {
	if s.Retention == "evict" {
		return chunk.Evict
	}
	return chunk.Retain
}

// ChunkSettings derives streaming settings whose Params place each chunk's
// mesh at the world origin of its cell.
func (s *Settings) ChunkSettings() chunk.Settings {
	cell := s.CellSize()
	base := mesh.Params{
		Kind:      s.MeshKind(),
		Width:     s.Width,
		Height:    s.Height,
		Depth:     s.Depth,
		Noise:     s.NoiseParams(),
		Scale:     s.Scale,
		IsoLevel:  s.IsoLevel,
		Curve:     s.Curve(),
		Threshold: s.SolidityThreshold,
	}
	return chunk.Settings{
		Dims:                  s.Dims(),
		CellSize:              cell,
		ViewDistance:          s.ViewDistance,
		Retention:             s.RetentionPolicy(),
		MaxGenerationsPerTick: s.MaxGenerationsPerTick,
		Params: func(c chunk.Coord) mesh.Params {
			p := base
			p.Offset = c.Origin(cell)
			return p
		},
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[Config] invalid integer value for %s: %s, using %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}

func getFloatEnv(key string, defaultValue float32) float32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		log.Printf("[Config] invalid float value for %s: %s, using %v", key, value, defaultValue)
		return defaultValue
	}
	return float32(f)
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("[Config] invalid boolean value for %s: %s, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}
