package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// ErrInvalidGame is returned by NewGame for unusable options.
var ErrInvalidGame = errors.New("invalid new game")

// StartingYear is the current year of a freshly founded city.
const StartingYear = 1050

// NewGameOptions configures a new savegame.
type NewGameOptions struct {
	Coins      int
	Population int
	MapSize    int
	Seed       int64 // 0 picks a random map
}

// NewGame founds a city for userID, generates its map and makes it the
// user's only active savegame.
func NewGame(ctx context.Context, store Store, userID int64, cityName string, opts NewGameOptions) (*savegame.Savegame, error) {
	cityName = strings.TrimSpace(cityName)
	if cityName == "" {
		return nil, fmt.Errorf("%w: city name is required", ErrInvalidGame)
	}
	if opts.MapSize <= 0 {
		return nil, fmt.Errorf("%w: map size must be positive, got %d", ErrInvalidGame, opts.MapSize)
	}

	sg := &savegame.Savegame{
		UserID:      userID,
		CityName:    cityName,
		Coins:       opts.Coins,
		Population:  max(opts.Population, 0),
		CurrentYear: StartingYear,
		MapSize:     opts.MapSize,
		IsActive:    true,
	}
	tiles := savegame.GenerateMap(0, savegame.DefaultGenConfig(opts.MapSize, opts.Seed))

	if err := store.CreateSavegame(ctx, sg, tiles); err != nil {
		return nil, fmt.Errorf("create savegame: %w", err)
	}

	slog.Info("city founded", "savegame", sg.ID, "user", userID, "city", sg.CityName, "map_size", sg.MapSize)

	chron := newChronicle(sg)
	chron.Emit(CategoryRound, "%s is founded in the year %d.", sg.CityName, sg.CurrentYear)
	if err := chron.flush(ctx, store); err != nil {
		slog.Error("chronicle write failed", "savegame", sg.ID, "error", err)
	}
	return sg, nil
}
