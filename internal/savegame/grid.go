package savegame

// Grid indexes a savegame's tiles by coordinate.
type Grid struct {
	Size  int
	Tiles map[Coord]*Tile
}

// NewGrid builds a grid of the given size from a tile list. Tiles outside the
// bounds are ignored.
func NewGrid(size int, tiles []Tile) *Grid {
	g := &Grid{
		Size:  size,
		Tiles: make(map[Coord]*Tile, len(tiles)),
	}
	for i := range tiles {
		t := &tiles[i]
		if g.InBounds(t.Coord()) {
			g.Tiles[t.Coord()] = t
		}
	}
	return g
}

// Get returns the tile at c, or nil if there is none.
func (g *Grid) Get(c Coord) *Tile {
	return g.Tiles[c]
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Size && c.Y < g.Size
}

// OnBorder reports whether c is on the outermost ring of the grid.
func (g *Grid) OnBorder(c Coord) bool {
	return c.X == 0 || c.Y == 0 || c.X == g.Size-1 || c.Y == g.Size-1
}

// IsEnclosed reports whether the city walls close off every non-wall
// building from the map border. A city with no walls, or with nothing but
// walls, is not enclosed.
func (g *Grid) IsEnclosed(isWall func(building string) bool) bool {
	walls, inner := 0, 0
	for _, t := range g.Tiles {
		switch {
		case !t.HasBuilding():
		case isWall(t.Building):
			walls++
		default:
			inner++
		}
	}
	if walls == 0 || inner == 0 {
		return false
	}

	// Flood fill from the border across every non-wall tile. Reaching a
	// building means it lies outside the walls.
	visited := make(map[Coord]bool, len(g.Tiles))
	var queue []Coord
	for c, t := range g.Tiles {
		if g.OnBorder(c) && !(t.HasBuilding() && isWall(t.Building)) {
			visited[c] = true
			queue = append(queue, c)
		}
	}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		if t := g.Tiles[c]; t.HasBuilding() {
			return false
		}
		for _, n := range c.Neighbors() {
			if visited[n] {
				continue
			}
			t := g.Tiles[n]
			if t == nil || (t.HasBuilding() && isWall(t.Building)) {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	return true
}
