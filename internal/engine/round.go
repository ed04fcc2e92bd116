package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// Yearly unrest drift.
const (
	unrestOvercrowded = 5
	unrestSettled     = -2
)

// RoundResult summarizes one year advance.
type RoundResult struct {
	Year             int                     `json:"year"`
	Income           int                     `json:"income"`
	PopulationChange int                     `json:"population_change"`
	UnrestChange     int                     `json:"unrest_change"`
	Milestones       []catalog.Milestone     `json:"milestones"`
	Threads          []savegame.ActiveThread `json:"threads"`
}

// RoundService advances a savegame by one year. Callers hold the
// savegame's lock.
type RoundService struct {
	store Store
	cat   *catalog.Catalog
	sg    *savegame.Savegame
}

// NewRoundService creates a year advance for sg.
func NewRoundService(store Store, cat *catalog.Catalog, sg *savegame.Savegame) *RoundService {
	return &RoundService{store: store, cat: cat, sg: sg}
}

// Process collects taxes, pays maintenance, grows or shrinks the population
// toward housing capacity and drifts unrest, then runs the milestone and
// thread checks against the new year.
func (r *RoundService) Process(ctx context.Context) (RoundResult, error) {
	tiles, err := r.store.Tiles(ctx, r.sg.ID)
	if err != nil {
		return RoundResult{}, fmt.Errorf("load tiles: %w", err)
	}
	m := Measure(r.cat, r.sg, tiles)

	updated := *r.sg
	updated.CurrentYear++
	updated.AddCoins(m.Income())

	overcrowded := updated.Population > m.HousingCapacity
	updated.AddPopulation(populationDelta(updated.Population, m.HousingCapacity))
	if overcrowded {
		updated.AddUnrest(unrestOvercrowded)
	} else {
		updated.AddUnrest(unrestSettled)
	}

	if err := r.store.UpdateSavegame(ctx, &updated); err != nil {
		return RoundResult{}, fmt.Errorf("advance year: %w", err)
	}

	result := RoundResult{
		Year:             updated.CurrentYear,
		Income:           m.Income(),
		PopulationChange: updated.Population - r.sg.Population,
		UnrestChange:     updated.Unrest - r.sg.Unrest,
	}
	*r.sg = updated

	slog.Info("year advanced",
		"savegame", r.sg.ID,
		"year", r.sg.CurrentYear,
		"coins", r.sg.Coins,
		"population", r.sg.Population,
		"unrest", r.sg.Unrest,
	)

	chron := newChronicle(r.sg)
	chron.Emit(CategoryRound, "The year %d begins in %s. The treasury holds %s coins.",
		r.sg.CurrentYear, r.sg.CityName, humanize.Comma(int64(r.sg.Coins)))
	if err := chron.flush(ctx, r.store); err != nil {
		return result, err
	}

	result.Milestones, err = NewMilestoneChecker(r.store, r.cat, r.sg).Process(ctx)
	if err != nil {
		return result, fmt.Errorf("check milestones: %w", err)
	}
	result.Threads, err = NewThreadChecker(r.store, r.cat, r.sg).Process(ctx)
	if err != nil {
		return result, fmt.Errorf("check threads: %w", err)
	}
	return result, nil
}

// populationDelta moves population a tenth of the way toward capacity, at
// least one soul per year, never overshooting.
func populationDelta(population, capacity int) int {
	switch {
	case population < capacity:
		return min(max(population/10, 1), capacity-population)
	case population > capacity:
		return -max((population-capacity)/10, 1)
	default:
		return 0
	}
}
