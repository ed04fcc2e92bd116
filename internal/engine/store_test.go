package engine

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/GitRon/norimberga-sub001/internal/catalog"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

const testCatalogYAML = `
tile_types:
  - {key: water, name: Water}
  - {key: plains, name: Plains, is_buildable: true}
  - {key: forest, name: Forest, is_buildable: true}
  - {key: hills, name: Hills, is_buildable: true}
  - {key: mountain, name: Mountain}
buildings:
  - {key: house, name: House, type: housing, housing_space: 10, taxes: 5, maintenance_costs: 1, building_costs: 20, allowed_terrains: [plains]}
  - {key: church, name: Church, type: culture, prestige: 10, maintenance_costs: 2, building_costs: 100, allowed_terrains: [plains]}
  - {key: wall, name: Wall, type: defense, is_wall: true, defense_value: 5, building_costs: 10, allowed_terrains: [plains, hills]}
milestones:
  - {key: camp, name: Camp, order: 1, conditions: [{condition: min_population, value: 10}]}
  - {key: town, name: Town, parent: camp, order: 1, conditions: [{condition: min_population, value: 10}]}
  - {key: city, name: City, parent: town, order: 1, conditions: [{condition: min_population, value: 10}]}
  - {key: empty, name: Empty, order: 2}
  - {key: haunted, name: Haunted, order: 3, conditions: [{condition: ghost_count, value: 1}]}
edicts:
  - {key: festival, name: Festival, is_active: true, cost_coins: 100, cost_population: 50, effect_unrest: -10}
  - {key: levy, name: Levy, is_active: true, unlocked_by: town}
  - {key: decree, name: Decree, is_active: true, required_prestige: 10, cost_prestige: 10}
  - {key: feast, name: Feast, is_active: true, cooldown_years: 3}
  - {key: banned, name: Banned, is_active: false}
  - {key: upheaval, name: Upheaval, is_active: true, effect_unrest: 200, effect_population: -500, effect_coins: -1000}
  - {key: calm, name: Calm, is_active: true, effect_unrest: -10}
threads:
  - {key: riots, name: Riots, condition: unrest_above, value: 60, severity: critical, order: 1}
  - {key: bankruptcy, name: Bankruptcy, condition: coins_below, value: 0, severity: medium, order: 2}
  - {key: plague, name: Plague, condition: miasma, severity: high, order: 3}
`

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return parseCatalog(t, testCatalogYAML)
}

func parseCatalog(t *testing.T, doc string) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(doc), catalog.Options{})
	if err != nil {
		t.Fatalf("catalog.Parse() error: %v", err)
	}
	return c
}

// memStore is an in-memory Store.
type memStore struct {
	mu sync.Mutex

	nextID     int64
	savegames  map[int64]savegame.Savegame
	tiles      map[int64][]savegame.Tile
	milestones []savegame.MilestoneLog
	edicts     []savegame.EdictLog
	threads    []savegame.ActiveThread
	events     []savegame.Event

	failApply bool
}

func newMemStore() *memStore {
	return &memStore{
		savegames: make(map[int64]savegame.Savegame),
		tiles:     make(map[int64][]savegame.Tile),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) Savegame(_ context.Context, id int64) (*savegame.Savegame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sg, ok := m.savegames[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sg, nil
}

func (m *memStore) ActiveSavegame(_ context.Context, userID int64) (*savegame.Savegame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sg := range m.savegames {
		if sg.UserID == userID && sg.IsActive {
			return &sg, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) CreateSavegame(_ context.Context, sg *savegame.Savegame, tiles []savegame.Tile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, other := range m.savegames {
		if other.UserID == sg.UserID {
			other.IsActive = false
			m.savegames[id] = other
		}
	}
	sg.ID = m.id()
	m.savegames[sg.ID] = *sg
	stored := make([]savegame.Tile, len(tiles))
	for i, t := range tiles {
		t.ID = m.id()
		t.SavegameID = sg.ID
		stored[i] = t
	}
	m.tiles[sg.ID] = stored
	return nil
}

func (m *memStore) UpdateSavegame(_ context.Context, sg *savegame.Savegame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.savegames[sg.ID]; !ok {
		return ErrNotFound
	}
	m.savegames[sg.ID] = *sg
	return nil
}

func (m *memStore) Tiles(_ context.Context, savegameID int64) ([]savegame.Tile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tiles[savegameID]), nil
}

func (m *memStore) SaveBuilding(_ context.Context, sg *savegame.Savegame, tile savegame.Tile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tiles := m.tiles[sg.ID]
	for i := range tiles {
		if tiles[i].X == tile.X && tiles[i].Y == tile.Y {
			tiles[i].Building = tile.Building
			m.savegames[sg.ID] = *sg
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) MilestoneLogs(_ context.Context, savegameID int64) ([]savegame.MilestoneLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []savegame.MilestoneLog
	for _, l := range m.milestones {
		if l.SavegameID == savegameID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) InsertMilestoneLog(_ context.Context, log *savegame.MilestoneLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = m.id()
	m.milestones = append(m.milestones, *log)
	return nil
}

func (m *memStore) EdictLogs(_ context.Context, savegameID int64) ([]savegame.EdictLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []savegame.EdictLog
	for i := len(m.edicts) - 1; i >= 0; i-- {
		if m.edicts[i].SavegameID == savegameID {
			out = append(out, m.edicts[i])
		}
	}
	return out, nil
}

func (m *memStore) ApplyActivation(_ context.Context, sg *savegame.Savegame, log *savegame.EdictLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failApply {
		return errApply
	}
	log.ID = m.id()
	m.savegames[sg.ID] = *sg
	m.edicts = append(m.edicts, *log)
	return nil
}

func (m *memStore) ActiveThreads(_ context.Context, savegameID int64) ([]savegame.ActiveThread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []savegame.ActiveThread
	for _, t := range m.threads {
		if t.SavegameID == savegameID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) SaveActiveThread(_ context.Context, t *savegame.ActiveThread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
		m.threads = append(m.threads, *t)
		return nil
	}
	for i := range m.threads {
		if m.threads[i].ID == t.ID {
			m.threads[i].Intensity = t.Intensity
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) DeleteActiveThread(_ context.Context, savegameID int64, threadType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = slices.DeleteFunc(m.threads, func(t savegame.ActiveThread) bool {
		return t.SavegameID == savegameID && t.ThreadType == threadType
	})
	return nil
}

func (m *memStore) InsertEvents(_ context.Context, events []savegame.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		e.ID = m.id()
		m.events = append(m.events, e)
	}
	return nil
}

func (m *memStore) RecentEvents(_ context.Context, savegameID int64, limit int) ([]savegame.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []savegame.Event
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].SavegameID == savegameID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *memStore) edictLogCount(savegameID int64) int {
	logs, _ := m.EdictLogs(context.Background(), savegameID)
	return len(logs)
}

// plainsGame stores a size×size all-plains savegame and returns it.
func plainsGame(t *testing.T, store *memStore, size int, sg savegame.Savegame) *savegame.Savegame {
	t.Helper()
	var tiles []savegame.Tile
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			tiles = append(tiles, savegame.Tile{X: x, Y: y, Terrain: savegame.TerrainPlains})
		}
	}
	sg.MapSize = size
	sg.IsActive = true
	if sg.UserID == 0 {
		sg.UserID = 1
	}
	if sg.CityName == "" {
		sg.CityName = "Testburg"
	}
	if err := store.CreateSavegame(context.Background(), &sg, tiles); err != nil {
		t.Fatalf("CreateSavegame() error: %v", err)
	}
	return &sg
}

// place puts a building directly on a stored tile.
func place(t *testing.T, store *memStore, sg *savegame.Savegame, x, y int, building string) {
	t.Helper()
	tile := savegame.Tile{X: x, Y: y, Building: building}
	if err := store.SaveBuilding(context.Background(), sg, tile); err != nil {
		t.Fatalf("SaveBuilding(%d,%d) error: %v", x, y, err)
	}
}

var errApply = errors.New("apply failed")
