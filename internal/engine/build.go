package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// BuildResult is the outcome of a placement or demolition attempt.
type BuildResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BuildService places and removes buildings on a savegame's tiles. Callers
// hold the savegame's lock.
type BuildService struct {
	store Store
	cat   *catalog.Catalog
	sg    *savegame.Savegame
}

// NewBuildService creates a build service for sg.
func NewBuildService(store Store, cat *catalog.Catalog, sg *savegame.Savegame) *BuildService {
	return &BuildService{store: store, cat: cat, sg: sg}
}

// Build places b at c when the tile is empty, its terrain takes the
// building and the treasury covers the cost.
func (s *BuildService) Build(ctx context.Context, c savegame.Coord, b catalog.Building) (BuildResult, error) {
	tiles, err := s.store.Tiles(ctx, s.sg.ID)
	if err != nil {
		return BuildResult{}, fmt.Errorf("load tiles: %w", err)
	}
	grid := savegame.NewGrid(s.sg.MapSize, tiles)

	tile := grid.Get(c)
	if tile == nil {
		return BuildResult{Message: fmt.Sprintf("There is no land at %s.", c)}, nil
	}
	if tile.HasBuilding() {
		return BuildResult{Message: fmt.Sprintf("The tile at %s is already built on.", c)}, nil
	}
	terrain, ok := s.cat.TileType(tile.Terrain)
	if !ok || !terrain.IsBuildable {
		return BuildResult{Message: fmt.Sprintf("Nothing can be built on %s.", terrainName(terrain, tile.Terrain))}, nil
	}
	if !b.AllowedOn(tile.Terrain) {
		return BuildResult{Message: fmt.Sprintf("A %s cannot be built on %s.", b.Name, terrain.Name)}, nil
	}
	if s.sg.Coins < b.BuildingCosts {
		return BuildResult{Message: fmt.Sprintf("Not enough coins (need %s, have %s).",
			humanize.Comma(int64(b.BuildingCosts)), humanize.Comma(int64(s.sg.Coins)))}, nil
	}

	updated := *s.sg
	updated.AddCoins(-b.BuildingCosts)
	tile.Building = b.Key
	updated.IsEnclosed = grid.IsEnclosed(s.cat.IsWall)

	if err := s.store.SaveBuilding(ctx, &updated, *tile); err != nil {
		return BuildResult{}, fmt.Errorf("build %q at %s: %w", b.Key, c, err)
	}
	wasEnclosed := s.sg.IsEnclosed
	*s.sg = updated

	slog.Info("building placed", "savegame", s.sg.ID, "building", b.Key, "tile", c.String(), "enclosed", s.sg.IsEnclosed)

	chron := newChronicle(s.sg)
	chron.Emit(CategoryBuilding, "A %s has been raised at %s.", b.Name, c)
	if s.sg.IsEnclosed && !wasEnclosed {
		chron.Emit(CategoryBuilding, "The walls of %s are closed.", s.sg.CityName)
	}
	if err := chron.flush(ctx, s.store); err != nil {
		slog.Error("chronicle write failed", "savegame", s.sg.ID, "error", err)
	}

	return BuildResult{Success: true, Message: fmt.Sprintf("%s built at %s.", b.Name, c)}, nil
}

// Demolish clears the building at c. Nothing is refunded.
func (s *BuildService) Demolish(ctx context.Context, c savegame.Coord) (BuildResult, error) {
	tiles, err := s.store.Tiles(ctx, s.sg.ID)
	if err != nil {
		return BuildResult{}, fmt.Errorf("load tiles: %w", err)
	}
	grid := savegame.NewGrid(s.sg.MapSize, tiles)

	tile := grid.Get(c)
	if tile == nil {
		return BuildResult{Message: fmt.Sprintf("There is no land at %s.", c)}, nil
	}
	if !tile.HasBuilding() {
		return BuildResult{Message: fmt.Sprintf("There is nothing to demolish at %s.", c)}, nil
	}

	name := tile.Building
	if b, ok := s.cat.Building(tile.Building); ok {
		name = b.Name
	}

	updated := *s.sg
	tile.Building = ""
	updated.IsEnclosed = grid.IsEnclosed(s.cat.IsWall)

	if err := s.store.SaveBuilding(ctx, &updated, *tile); err != nil {
		return BuildResult{}, fmt.Errorf("demolish at %s: %w", c, err)
	}
	wasEnclosed := s.sg.IsEnclosed
	*s.sg = updated

	slog.Info("building demolished", "savegame", s.sg.ID, "tile", c.String(), "enclosed", s.sg.IsEnclosed)

	chron := newChronicle(s.sg)
	chron.Emit(CategoryBuilding, "The %s at %s has been torn down.", name, c)
	if wasEnclosed && !s.sg.IsEnclosed {
		chron.Emit(CategoryBuilding, "The walls of %s have been breached.", s.sg.CityName)
	}
	if err := chron.flush(ctx, s.store); err != nil {
		slog.Error("chronicle write failed", "savegame", s.sg.ID, "error", err)
	}

	return BuildResult{Success: true, Message: fmt.Sprintf("%s demolished.", name)}, nil
}

func terrainName(t catalog.TileType, key string) string {
	if t.Name != "" {
		return t.Name
	}
	return key
}
