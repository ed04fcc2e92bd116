package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/condition"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// MilestoneChecker advances milestone completion for one savegame by one
// pass.
type MilestoneChecker struct {
	store Store
	cat   *catalog.Catalog
	sg    *savegame.Savegame
}

// NewMilestoneChecker creates a checker for sg.
func NewMilestoneChecker(store Store, cat *catalog.Catalog, sg *savegame.Savegame) *MilestoneChecker {
	return &MilestoneChecker{store: store, cat: cat, sg: sg}
}

// Process evaluates every available milestone and logs the ones whose
// conditions all hold. Availability is taken from the completion snapshot at
// the start of the pass, so a child of a milestone completed now becomes
// available only on the next pass.
//
// A condition with a malformed parameter aborts the pass with
// condition.ErrTypeMismatch; milestones completed before it stay logged.
func (m *MilestoneChecker) Process(ctx context.Context) ([]catalog.Milestone, error) {
	completed, err := CompletedMilestones(ctx, m.store, m.sg.ID)
	if err != nil {
		return nil, err
	}
	available := AvailableMilestones(m.cat, completed)
	if len(available) == 0 {
		return nil, nil
	}

	st, err := loadState(ctx, m.store, m.cat, m.sg)
	if err != nil {
		return nil, err
	}

	chron := newChronicle(m.sg)
	var done []catalog.Milestone
	for _, ms := range available {
		ok, err := m.isCompletable(ms, st)
		if err != nil {
			return done, fmt.Errorf("milestone %q: %w", ms.Key, err)
		}
		if !ok {
			continue
		}

		entry := &savegame.MilestoneLog{
			SavegameID:     m.sg.ID,
			Milestone:      ms.Key,
			AccomplishedAt: m.sg.CurrentYear,
		}
		if err := m.store.InsertMilestoneLog(ctx, entry); err != nil {
			return done, fmt.Errorf("log milestone %q: %w", ms.Key, err)
		}
		done = append(done, ms)

		slog.Info("milestone completed", "savegame", m.sg.ID, "milestone", ms.Key, "year", m.sg.CurrentYear)
		chron.Emit(CategoryMilestone, "%s reaches a new milestone: %s.", m.sg.CityName, ms.Name)
	}

	if err := chron.flush(ctx, m.store); err != nil {
		return done, err
	}
	return done, nil
}

// isCompletable reports whether a milestone has at least one condition and
// all of them hold. Unresolved conditions never hold.
func (m *MilestoneChecker) isCompletable(ms catalog.Milestone, st condition.State) (bool, error) {
	if len(ms.Conditions) == 0 {
		return false, nil
	}
	for _, mc := range ms.Conditions {
		c := mc.Resolved()
		if !c.Resolved() {
			slog.Warn("unresolved milestone condition", "milestone", ms.Key, "condition", mc.Condition)
			return false, nil
		}
		ok, err := c.IsValid(st)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
