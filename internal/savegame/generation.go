// Map generation using layered simplex noise. Elevation and moisture maps are
// sampled per tile and folded into terrain keys.
package savegame

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Size        int     // Tiles per side
	Seed        int64   // Noise seed (0 = random)
	WaterLevel  float64 // Elevation threshold for water (0.0–1.0)
	HillsLevel  float64 // Elevation threshold for hills
	MountainLvl float64 // Elevation threshold for mountains
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig(size int, seed int64) GenConfig {
	return GenConfig{
		Size:        size,
		Seed:        seed,
		WaterLevel:  0.22,
		HillsLevel:  0.68,
		MountainLvl: 0.82,
	}
}

// GenerateMap creates the tile grid for a new savegame. The centre of the map
// is flattened so every city has buildable ground to start from.
func GenerateMap(savegameID int64, cfg GenConfig) []Tile {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	centre := float64(cfg.Size-1) / 2
	tiles := make([]Tile, 0, cfg.Size*cfg.Size)

	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			fx, fy := float64(x), float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.09, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.07, 0.5)

			// Pull the centre towards mid elevation: cities start on flat land.
			dist := math.Hypot(fx-centre, fy-centre) / math.Max(centre, 1)
			if dist < 0.35 {
				blend := dist / 0.35
				elev = elev*blend + 0.45*(1-blend)
			}

			tiles = append(tiles, Tile{
				SavegameID: savegameID,
				X:          x,
				Y:          y,
				Terrain:    deriveTerrain(elev, moist, cfg),
			})
		}
	}

	return tiles
}

// deriveTerrain determines the terrain key from elevation and moisture.
func deriveTerrain(elev, moist float64, cfg GenConfig) string {
	switch {
	case elev < cfg.WaterLevel:
		return TerrainWater
	case elev > cfg.MountainLvl:
		return TerrainMountain
	case elev > cfg.HillsLevel:
		return TerrainHills
	case moist > 0.6:
		return TerrainForest
	default:
		return TerrainPlains
	}
}

// octaveNoise samples layered noise normalised back into [0, 1].
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	total := 0.0
	amp := 1.0
	maxAmp := 0.0
	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amp
		maxAmp += amp
		amp *= persistence
		freq *= 2
	}
	return total / maxAmp
}
