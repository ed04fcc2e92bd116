package engine

import (
	"context"
	"fmt"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// CompletedMilestones returns the set of milestone keys a savegame has
// completed.
func CompletedMilestones(ctx context.Context, store Store, savegameID int64) (map[string]bool, error) {
	logs, err := store.MilestoneLogs(ctx, savegameID)
	if err != nil {
		return nil, fmt.Errorf("load milestone logs: %w", err)
	}
	done := make(map[string]bool, len(logs))
	for _, l := range logs {
		done[l.Milestone] = true
	}
	return done, nil
}

// AvailableMilestones returns the milestones that may complete next: roots
// not yet completed, and milestones whose parent is completed but which are
// not completed themselves. Roots come first, then each deeper level, in
// sibling order.
func AvailableMilestones(cat *catalog.Catalog, completed map[string]bool) []catalog.Milestone {
	var out []catalog.Milestone
	for _, m := range cat.MilestonesByLevel() {
		if completed[m.Key] {
			continue
		}
		if m.Parent == "" || completed[m.Parent] {
			out = append(out, m)
		}
	}
	return out
}

// EdictAvailability describes whether a savegame may activate an edict now.
type EdictAvailability struct {
	Edict             catalog.Edict `json:"edict"`
	IsAvailable       bool          `json:"is_available"`
	UnavailableReason string        `json:"unavailable_reason,omitempty"`
	CanAfford         bool          `json:"can_afford"`
}

// AvailableEdicts lists every active edict, ordered by name, with whether it
// passes the gating checks and whether the savegame can pay for it.
func AvailableEdicts(ctx context.Context, store Store, cat *catalog.Catalog, sg *savegame.Savegame) ([]EdictAvailability, error) {
	g, err := loadGate(ctx, store, cat, sg)
	if err != nil {
		return nil, err
	}

	edicts := cat.ActiveEdicts()
	out := make([]EdictAvailability, 0, len(edicts))
	for _, e := range edicts {
		reason := g.checkGates(e)
		out = append(out, EdictAvailability{
			Edict:             e,
			IsAvailable:       reason == "",
			UnavailableReason: reason,
			CanAfford:         g.checkAffordable(e) == "",
		})
	}
	return out, nil
}
