// Package engine holds the rules core: derived metrics, availability
// selectors, milestone and thread checks, edict activation, year advance
// and building placement. Every service reads and writes through Store.
package engine

import (
	"context"
	"errors"

	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// ErrNotFound is returned by Store lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence capability the rules core relies on. Single-row
// writes are atomic; methods documented as transactional write several rows
// at once.
type Store interface {
	Savegame(ctx context.Context, id int64) (*savegame.Savegame, error)
	ActiveSavegame(ctx context.Context, userID int64) (*savegame.Savegame, error)
	// CreateSavegame inserts the savegame and its tiles and deactivates the
	// user's other savegames, in one transaction. It sets sg.ID.
	CreateSavegame(ctx context.Context, sg *savegame.Savegame, tiles []savegame.Tile) error
	UpdateSavegame(ctx context.Context, sg *savegame.Savegame) error

	Tiles(ctx context.Context, savegameID int64) ([]savegame.Tile, error)
	// SaveBuilding writes a tile's building and the savegame in one transaction.
	SaveBuilding(ctx context.Context, sg *savegame.Savegame, tile savegame.Tile) error

	MilestoneLogs(ctx context.Context, savegameID int64) ([]savegame.MilestoneLog, error)
	InsertMilestoneLog(ctx context.Context, log *savegame.MilestoneLog) error

	// EdictLogs returns activations newest first.
	EdictLogs(ctx context.Context, savegameID int64) ([]savegame.EdictLog, error)
	// ApplyActivation writes the savegame and appends the log in one transaction.
	ApplyActivation(ctx context.Context, sg *savegame.Savegame, log *savegame.EdictLog) error

	ActiveThreads(ctx context.Context, savegameID int64) ([]savegame.ActiveThread, error)
	// SaveActiveThread inserts the thread when ID is zero, otherwise updates
	// its intensity.
	SaveActiveThread(ctx context.Context, t *savegame.ActiveThread) error
	DeleteActiveThread(ctx context.Context, savegameID int64, threadType string) error

	InsertEvents(ctx context.Context, events []savegame.Event) error
	RecentEvents(ctx context.Context, savegameID int64, limit int) ([]savegame.Event, error)
}
