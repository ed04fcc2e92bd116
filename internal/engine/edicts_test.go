package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

func edict(t *testing.T, cat *catalog.Catalog, key string) catalog.Edict {
	t.Helper()
	e, ok := cat.Edict(key)
	if !ok {
		t.Fatalf("edict %q not in catalog", key)
	}
	return e
}

func activate(t *testing.T, store Store, cat *catalog.Catalog, sg *savegame.Savegame, key string) ActivationResult {
	t.Helper()
	res, err := NewEdictActivation(store, cat, sg, edict(t, cat, key)).Process(context.Background())
	if err != nil {
		t.Fatalf("Process(%s) error: %v", key, err)
	}
	return res
}

func TestActivationAppliesCostsAndEffects(t *testing.T) {
	cat := testCatalog(t)
	store := newMemStore()
	sg := plainsGame(t, store, 3, savegame.Savegame{Coins: 500, Population: 100, Unrest: 50, CurrentYear: 1050})

	res := activate(t, store, cat, sg, "festival")
	if !res.Success {
		t.Fatalf("activation failed: %s", res.Message)
	}
	if sg.Coins != 400 || sg.Population != 50 || sg.Unrest != 40 {
		t.Fatalf("got coins=%d population=%d unrest=%d, want 400/50/40", sg.Coins, sg.Population, sg.Unrest)
	}

	stored, _ := store.Savegame(context.Background(), sg.ID)
	if *stored != *sg {
		t.Fatalf("stored savegame %+v, want %+v", *stored, *sg)
	}
	logs, _ := store.EdictLogs(context.Background(), sg.ID)
	if len(logs) != 1 || logs[0].Edict != "festival" || logs[0].ActivatedAtYear != 1050 {
		t.Fatalf("edict logs = %+v", logs)
	}
}

func TestActivationFailsWithoutMutation(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name  string
		sg    savegame.Savegame
		edict string
		want  string
	}{
		{"inactive", savegame.Savegame{Coins: 500}, "banned", "not currently available"},
		{"missing milestone", savegame.Savegame{Coins: 500}, "levy", `"Town"`},
		{"prestige", savegame.Savegame{Coins: 500}, "decree", "Requires 10 prestige (current: 0)"},
		{"coins", savegame.Savegame{Coins: 50, Population: 100}, "festival", "coins"},
		{"population", savegame.Savegame{Coins: 500, Population: 10}, "festival", "population"},
		{"coins before population", savegame.Savegame{Coins: 50, Population: 10}, "festival", "coins"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			sg := plainsGame(t, store, 3, tt.sg)
			before := *sg

			for range 3 {
				res := activate(t, store, cat, sg, tt.edict)
				if res.Success {
					t.Fatal("activation succeeded")
				}
				if !strings.Contains(res.Message, tt.want) {
					t.Fatalf("message %q does not mention %q", res.Message, tt.want)
				}
			}
			if *sg != before {
				t.Fatalf("savegame mutated: %+v, want %+v", *sg, before)
			}
			stored, _ := store.Savegame(context.Background(), sg.ID)
			if *stored != before {
				t.Fatalf("stored savegame mutated: %+v", *stored)
			}
			if n := store.edictLogCount(sg.ID); n != 0 {
				t.Fatalf("got %d edict logs, want 0", n)
			}
		})
	}
}

func TestActivationPrestigeIsNotSpent(t *testing.T) {
	cat := testCatalog(t)
	store := newMemStore()
	sg := plainsGame(t, store, 3, savegame.Savegame{Coins: 10})
	place(t, store, sg, 1, 1, "church")

	for range 2 {
		if res := activate(t, store, cat, sg, "decree"); !res.Success {
			t.Fatalf("activation failed: %s", res.Message)
		}
	}
	prestige, err := CalculatePrestige(context.Background(), store, cat, sg)
	if err != nil || prestige != 10 {
		t.Fatalf("prestige = %d, %v; want 10", prestige, err)
	}
}

func TestActivationCooldown(t *testing.T) {
	cat := testCatalog(t)
	store := newMemStore()
	sg := plainsGame(t, store, 3, savegame.Savegame{CurrentYear: 1050})

	if res := activate(t, store, cat, sg, "feast"); !res.Success {
		t.Fatalf("first activation failed: %s", res.Message)
	}

	sg.CurrentYear = 1052
	res := activate(t, store, cat, sg, "feast")
	if res.Success {
		t.Fatal("activation inside cooldown succeeded")
	}
	if !strings.Contains(res.Message, "1 more year.") {
		t.Fatalf("message %q does not report 1 remaining year", res.Message)
	}

	sg.CurrentYear = 1053
	if res := activate(t, store, cat, sg, "feast"); !res.Success {
		t.Fatalf("activation at the cooldown boundary failed: %s", res.Message)
	}
	if n := store.edictLogCount(sg.ID); n != 2 {
		t.Fatalf("got %d edict logs, want 2", n)
	}
}

func TestCooldownRemaining(t *testing.T) {
	tests := []struct {
		current, last, cooldown, want int
	}{
		{1053, 1050, 3, 0},
		{1052, 1050, 3, 1},
		{1050, 1050, 3, 3},
		{1060, 1050, 3, -7},
		{1050, 1050, 0, 0},
	}
	for _, tt := range tests {
		if got := cooldownRemaining(tt.current, tt.last, tt.cooldown); got != tt.want {
			t.Errorf("cooldownRemaining(%d, %d, %d) = %d, want %d", tt.current, tt.last, tt.cooldown, got, tt.want)
		}
	}
}

func TestActivationClampsEffects(t *testing.T) {
	cat := testCatalog(t)

	t.Run("upper bounds", func(t *testing.T) {
		store := newMemStore()
		sg := plainsGame(t, store, 3, savegame.Savegame{Coins: 50, Population: 10, Unrest: 95})
		if res := activate(t, store, cat, sg, "upheaval"); !res.Success {
			t.Fatalf("activation failed: %s", res.Message)
		}
		if sg.Unrest != 100 || sg.Population != 0 || sg.Coins != -950 {
			t.Fatalf("got unrest=%d population=%d coins=%d, want 100/0/-950", sg.Unrest, sg.Population, sg.Coins)
		}
	})

	t.Run("unrest floor", func(t *testing.T) {
		store := newMemStore()
		sg := plainsGame(t, store, 3, savegame.Savegame{Unrest: 5})
		if res := activate(t, store, cat, sg, "calm"); !res.Success {
			t.Fatalf("activation failed: %s", res.Message)
		}
		if sg.Unrest != 0 {
			t.Fatalf("unrest = %d, want 0", sg.Unrest)
		}
	})
}

func TestActivationStoreFailureLeavesSavegame(t *testing.T) {
	cat := testCatalog(t)
	store := newMemStore()
	sg := plainsGame(t, store, 3, savegame.Savegame{Coins: 500, Population: 100, Unrest: 50})
	before := *sg
	store.failApply = true

	_, err := NewEdictActivation(store, cat, sg, edict(t, cat, "festival")).Process(context.Background())
	if !errors.Is(err, errApply) {
		t.Fatalf("error = %v, want %v", err, errApply)
	}
	if *sg != before {
		t.Fatalf("savegame mutated: %+v", *sg)
	}
}

func TestAvailableEdicts(t *testing.T) {
	cat := testCatalog(t)
	store := newMemStore()
	sg := plainsGame(t, store, 3, savegame.Savegame{Coins: 50, Population: 100})

	got, err := AvailableEdicts(context.Background(), store, cat, sg)
	if err != nil {
		t.Fatalf("AvailableEdicts() error: %v", err)
	}

	var names []string
	byKey := make(map[string]EdictAvailability)
	for _, a := range got {
		names = append(names, a.Edict.Name)
		byKey[a.Edict.Key] = a
	}
	if want := "Calm,Decree,Feast,Festival,Levy,Upheaval"; strings.Join(names, ",") != want {
		t.Fatalf("edicts = %s, want %s", strings.Join(names, ","), want)
	}

	festival := byKey["festival"]
	if !festival.IsAvailable || festival.CanAfford {
		t.Fatalf("festival = %+v, want available but unaffordable", festival)
	}
	levy := byKey["levy"]
	if levy.IsAvailable || !strings.Contains(levy.UnavailableReason, "Town") {
		t.Fatalf("levy = %+v, want locked behind Town", levy)
	}
	if !byKey["calm"].IsAvailable || !byKey["calm"].CanAfford {
		t.Fatalf("calm = %+v, want available and affordable", byKey["calm"])
	}
}
