package savegame

import "fmt"

// Terrain keys produced by map generation. The catalog must define a tile
// type for each of them.
const (
	TerrainWater    = "water"
	TerrainPlains   = "plains"
	TerrainForest   = "forest"
	TerrainHills    = "hills"
	TerrainMountain = "mountain"
)

// Terrains lists every terrain key GenerateMap can emit.
var Terrains = []string{TerrainWater, TerrainPlains, TerrainForest, TerrainHills, TerrainMountain}

// Coord is a position on the square city grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Neighbors returns the four orthogonally adjacent coordinates.
func (c Coord) Neighbors() [4]Coord {
	return [4]Coord{
		{X: c.X + 1, Y: c.Y},
		{X: c.X - 1, Y: c.Y},
		{X: c.X, Y: c.Y + 1},
		{X: c.X, Y: c.Y - 1},
	}
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Tile is one cell of a savegame's grid. Its effective content is the
// building when one is placed, otherwise the terrain.
type Tile struct {
	ID         int64  `db:"id" json:"id"`
	SavegameID int64  `db:"savegame_id" json:"-"`
	X          int    `db:"x" json:"x"`
	Y          int    `db:"y" json:"y"`
	Terrain    string `db:"terrain" json:"terrain"`             // Catalog tile type key
	Building   string `db:"building" json:"building,omitempty"` // Catalog building key, empty when unbuilt
}

// Coord returns the tile's grid position.
func (t Tile) Coord() Coord {
	return Coord{X: t.X, Y: t.Y}
}

// HasBuilding reports whether a building is placed on the tile.
func (t Tile) HasBuilding() bool {
	return t.Building != ""
}
