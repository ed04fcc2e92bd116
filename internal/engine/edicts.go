package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// ActivationResult is the outcome of an edict activation attempt. A failed
// validation is a result, not an error.
type ActivationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EdictActivation validates and applies one edict against one savegame.
type EdictActivation struct {
	store Store
	cat   *catalog.Catalog
	sg    *savegame.Savegame
	edict catalog.Edict
}

// NewEdictActivation prepares an activation. The edict must come from the
// catalog; unknown keys are a caller concern.
func NewEdictActivation(store Store, cat *catalog.Catalog, sg *savegame.Savegame, edict catalog.Edict) *EdictActivation {
	return &EdictActivation{store: store, cat: cat, sg: sg, edict: edict}
}

// Process runs the validation stages in order and stops at the first
// failure. Only when every stage passes are costs deducted, effects applied
// and the activation logged. On failure, and on a store error, the
// savegame is left untouched.
func (a *EdictActivation) Process(ctx context.Context) (ActivationResult, error) {
	g, err := loadGate(ctx, a.store, a.cat, a.sg)
	if err != nil {
		return ActivationResult{}, err
	}

	for _, stage := range g.stages() {
		if msg := stage(a.edict); msg != "" {
			return ActivationResult{Success: false, Message: msg}, nil
		}
	}

	updated := *a.sg
	applyEdict(&updated, a.edict)

	entry := &savegame.EdictLog{
		SavegameID:      a.sg.ID,
		Edict:           a.edict.Key,
		ActivatedAtYear: a.sg.CurrentYear,
	}
	if err := a.store.ApplyActivation(ctx, &updated, entry); err != nil {
		return ActivationResult{}, fmt.Errorf("apply edict %q: %w", a.edict.Key, err)
	}
	*a.sg = updated

	slog.Info("edict activated",
		"savegame", a.sg.ID,
		"edict", a.edict.Key,
		"year", a.sg.CurrentYear,
		"coins", a.sg.Coins,
		"population", a.sg.Population,
		"unrest", a.sg.Unrest,
	)

	chron := newChronicle(a.sg)
	chron.Emit(CategoryEdict, "The council proclaims the edict %q.", a.edict.Name)
	if err := chron.flush(ctx, a.store); err != nil {
		// The activation is already committed.
		slog.Error("chronicle write failed", "savegame", a.sg.ID, "error", err)
	}

	return ActivationResult{
		Success: true,
		Message: fmt.Sprintf("Edict %q has been activated.", a.edict.Name),
	}, nil
}

// applyEdict deducts the set costs, then applies the set effects. Prestige
// costs are informational and never deducted.
func applyEdict(sg *savegame.Savegame, e catalog.Edict) {
	if e.CostCoins != nil {
		sg.AddCoins(-*e.CostCoins)
	}
	if e.CostPopulation != nil {
		sg.AddPopulation(-*e.CostPopulation)
	}
	if e.EffectUnrest != nil {
		sg.AddUnrest(*e.EffectUnrest)
	}
	if e.EffectCoins != nil {
		sg.AddCoins(*e.EffectCoins)
	}
	if e.EffectPopulation != nil {
		sg.AddPopulation(*e.EffectPopulation)
	}
}

// gate holds the state every edict check reads, fetched once per call.
type gate struct {
	cat            *catalog.Catalog
	sg             *savegame.Savegame
	completed      map[string]bool
	prestige       int
	lastActivation map[string]int // edict key → most recent activation year
}

func loadGate(ctx context.Context, store Store, cat *catalog.Catalog, sg *savegame.Savegame) (*gate, error) {
	completed, err := CompletedMilestones(ctx, store, sg.ID)
	if err != nil {
		return nil, err
	}
	prestige, err := CalculatePrestige(ctx, store, cat, sg)
	if err != nil {
		return nil, err
	}
	logs, err := store.EdictLogs(ctx, sg.ID)
	if err != nil {
		return nil, fmt.Errorf("load edict logs: %w", err)
	}

	last := make(map[string]int, len(logs))
	for _, l := range logs {
		if year, seen := last[l.Edict]; !seen || l.ActivatedAtYear > year {
			last[l.Edict] = l.ActivatedAtYear
		}
	}

	return &gate{
		cat:            cat,
		sg:             sg,
		completed:      completed,
		prestige:       prestige,
		lastActivation: last,
	}, nil
}

// stages returns the activation checks in the order they must run. Each
// returns an empty string on success or the player-facing failure message.
func (g *gate) stages() []func(catalog.Edict) string {
	return []func(catalog.Edict) string{
		g.checkActive,
		g.checkMilestone,
		g.checkPrestige,
		g.checkCooldown,
		g.checkAffordable,
	}
}

// checkGates runs every stage except affordability.
func (g *gate) checkGates(e catalog.Edict) string {
	stages := g.stages()
	for _, stage := range stages[:len(stages)-1] {
		if msg := stage(e); msg != "" {
			return msg
		}
	}
	return ""
}

func (g *gate) checkActive(e catalog.Edict) string {
	if !e.IsActive {
		return "This edict is not currently available."
	}
	return ""
}

func (g *gate) checkMilestone(e catalog.Edict) string {
	if e.UnlockedBy == "" || g.completed[e.UnlockedBy] {
		return ""
	}
	name := e.UnlockedBy
	if m, ok := g.cat.Milestone(e.UnlockedBy); ok {
		name = m.Name
	}
	return fmt.Sprintf("Requires the milestone %q to be completed first.", name)
}

func (g *gate) checkPrestige(e catalog.Edict) string {
	if e.RequiredPrestige == nil || g.prestige >= *e.RequiredPrestige {
		return ""
	}
	return fmt.Sprintf("Requires %s prestige (current: %s).",
		humanize.Comma(int64(*e.RequiredPrestige)), humanize.Comma(int64(g.prestige)))
}

func (g *gate) checkCooldown(e catalog.Edict) string {
	if e.CooldownYears == nil {
		return ""
	}
	last, ok := g.lastActivation[e.Key]
	if !ok {
		return ""
	}
	remaining := cooldownRemaining(g.sg.CurrentYear, last, *e.CooldownYears)
	if remaining <= 0 {
		return ""
	}
	return fmt.Sprintf("This edict is on cooldown for %d more %s.", remaining, plural(remaining, "year", "years"))
}

func (g *gate) checkAffordable(e catalog.Edict) string {
	if e.CostCoins != nil && g.sg.Coins < *e.CostCoins {
		return fmt.Sprintf("Not enough coins (need %s, have %s).",
			humanize.Comma(int64(*e.CostCoins)), humanize.Comma(int64(g.sg.Coins)))
	}
	if e.CostPopulation != nil && g.sg.Population < *e.CostPopulation {
		return fmt.Sprintf("Not enough population (need %s, have %s).",
			humanize.Comma(int64(*e.CostPopulation)), humanize.Comma(int64(g.sg.Population)))
	}
	return ""
}

// cooldownRemaining returns how many years must still pass. Reactivation is
// allowed once years since the last activation reach the cooldown.
func cooldownRemaining(currentYear, lastYear, cooldown int) int {
	return cooldown - (currentYear - lastYear)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
