package engine

import (
	"context"
	"fmt"

	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// Chronicle categories.
const (
	CategoryMilestone = "milestone"
	CategoryThread    = "thread"
	CategoryEdict     = "edict"
	CategoryRound     = "round"
	CategoryBuilding  = "building"
)

// chronicle collects player-facing events during one service call and
// writes them in a single batch.
type chronicle struct {
	sg     *savegame.Savegame
	events []savegame.Event
}

func newChronicle(sg *savegame.Savegame) *chronicle {
	return &chronicle{sg: sg}
}

// Emit records an event dated to the savegame's current year.
func (c *chronicle) Emit(category, format string, args ...any) {
	c.events = append(c.events, savegame.Event{
		SavegameID:  c.sg.ID,
		Year:        c.sg.CurrentYear,
		Category:    category,
		Description: fmt.Sprintf(format, args...),
	})
}

func (c *chronicle) flush(ctx context.Context, store Store) error {
	if len(c.events) == 0 {
		return nil
	}
	if err := store.InsertEvents(ctx, c.events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	c.events = nil
	return nil
}
