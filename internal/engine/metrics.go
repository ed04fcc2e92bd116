package engine

import (
	"context"
	"fmt"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/condition"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// BaseHousing is the shelter a city offers before any house is built.
const BaseHousing = 50

// Metrics are the building-derived aggregates of a savegame.
type Metrics struct {
	Prestige        int `json:"prestige"`
	Defense         int `json:"defense"`
	HousingCapacity int `json:"housing_capacity"`
	Taxes           int `json:"taxes"`
	Maintenance     int `json:"maintenance"`
}

// Income is the yearly coin balance from buildings.
func (m Metrics) Income() int {
	return m.Taxes - m.Maintenance
}

// Prestige sums the prestige of every building on the tiles.
func Prestige(cat *catalog.Catalog, tiles []savegame.Tile) int {
	total := 0
	for _, b := range buildingsOn(cat, tiles) {
		total += b.Prestige
	}
	return total
}

// Defense sums the defense value of every building on the tiles. A city
// without closed walls has no defense.
func Defense(cat *catalog.Catalog, sg *savegame.Savegame, tiles []savegame.Tile) int {
	if !sg.IsEnclosed {
		return 0
	}
	total := 0
	for _, b := range buildingsOn(cat, tiles) {
		total += b.DefenseValue
	}
	return total
}

// Measure computes every building-derived aggregate in one pass.
func Measure(cat *catalog.Catalog, sg *savegame.Savegame, tiles []savegame.Tile) Metrics {
	m := Metrics{HousingCapacity: BaseHousing}
	for _, b := range buildingsOn(cat, tiles) {
		m.Prestige += b.Prestige
		m.Defense += b.DefenseValue
		m.HousingCapacity += b.HousingSpace
		m.Taxes += b.Taxes
		m.Maintenance += b.MaintenanceCosts
	}
	if !sg.IsEnclosed {
		m.Defense = 0
	}
	return m
}

// CalculatePrestige loads the savegame's tiles and sums their prestige.
func CalculatePrestige(ctx context.Context, store Store, cat *catalog.Catalog, sg *savegame.Savegame) (int, error) {
	tiles, err := store.Tiles(ctx, sg.ID)
	if err != nil {
		return 0, fmt.Errorf("load tiles: %w", err)
	}
	return Prestige(cat, tiles), nil
}

// CalculateDefense loads the savegame's tiles and sums their defense.
func CalculateDefense(ctx context.Context, store Store, cat *catalog.Catalog, sg *savegame.Savegame) (int, error) {
	tiles, err := store.Tiles(ctx, sg.ID)
	if err != nil {
		return 0, fmt.Errorf("load tiles: %w", err)
	}
	return Defense(cat, sg, tiles), nil
}

// loadState builds the condition view of a savegame.
func loadState(ctx context.Context, store Store, cat *catalog.Catalog, sg *savegame.Savegame) (condition.State, error) {
	tiles, err := store.Tiles(ctx, sg.ID)
	if err != nil {
		return condition.State{}, fmt.Errorf("load tiles: %w", err)
	}
	m := Measure(cat, sg, tiles)
	return condition.State{
		Savegame:        sg,
		Prestige:        m.Prestige,
		Defense:         m.Defense,
		HousingCapacity: m.HousingCapacity,
	}, nil
}

// buildingsOn resolves the buildings placed on tiles. Keys the catalog no
// longer knows contribute nothing.
func buildingsOn(cat *catalog.Catalog, tiles []savegame.Tile) []catalog.Building {
	var out []catalog.Building
	for _, t := range tiles {
		if !t.HasBuilding() {
			continue
		}
		if b, ok := cat.Building(t.Building); ok {
			out = append(out, b)
		}
	}
	return out
}
