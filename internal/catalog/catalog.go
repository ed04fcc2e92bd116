// Package catalog holds the globally shared, admin-curated game definitions:
// terrain, buildings, milestones, edicts and thread types.
package catalog

import (
	"sort"

	"github.com/GitRon/norimberga-sub001/internal/condition"
	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// Catalog is the loaded and cross-checked set of definitions.
type Catalog struct {
	TileTypes  []TileType   `yaml:"tile_types" json:"tile_types"`
	Buildings  []Building   `yaml:"buildings" json:"buildings"`
	Milestones []Milestone  `yaml:"milestones" json:"milestones"`
	Edicts     []Edict      `yaml:"edicts" json:"edicts"`
	Threads    []ThreadType `yaml:"threads" json:"threads"`

	Digest string `yaml:"-" json:"digest"` // sha256 of the source document

	tiles      map[string]int
	buildings  map[string]int
	milestones map[string]int
	edicts     map[string]int
	threads    map[string]int
}

// Content is what a tile shows: its building if one is placed, otherwise its
// terrain. Only TileType and Building implement it.
type Content interface {
	ContentKey() string
	ContentName() string
	isContent()
}

// TileType is a terrain definition.
type TileType struct {
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name" json:"name"`
	IsBuildable bool   `yaml:"is_buildable" json:"is_buildable"`
}

func (t TileType) ContentKey() string  { return t.Key }
func (t TileType) ContentName() string { return t.Name }
func (TileType) isContent()            {}

// Building is a placeable structure template.
type Building struct {
	Key              string   `yaml:"key" json:"key"`
	Name             string   `yaml:"name" json:"name"`
	Type             string   `yaml:"type" json:"type"` // "housing", "economy", "culture", "defense"
	Level            int      `yaml:"level" json:"level"`
	Prestige         int      `yaml:"prestige" json:"prestige"`
	DefenseValue     int      `yaml:"defense_value" json:"defense_value"`
	Taxes            int      `yaml:"taxes" json:"taxes"`                         // Coins per year
	MaintenanceCosts int      `yaml:"maintenance_costs" json:"maintenance_costs"` // Coins per year
	BuildingCosts    int      `yaml:"building_costs" json:"building_costs"`
	HousingSpace     int      `yaml:"housing_space" json:"housing_space"`
	IsWall           bool     `yaml:"is_wall" json:"is_wall"`
	AllowedTerrains  []string `yaml:"allowed_terrains" json:"allowed_terrains"`
}

func (b Building) ContentKey() string  { return b.Key }
func (b Building) ContentName() string { return b.Name }
func (Building) isContent()            {}

// AllowedOn reports whether the building may be placed on the terrain.
func (b Building) AllowedOn(terrain string) bool {
	for _, t := range b.AllowedTerrains {
		if t == terrain {
			return true
		}
	}
	return false
}

// Milestone is a node in the milestone tree.
type Milestone struct {
	Key         string               `yaml:"key" json:"key"`
	Name        string               `yaml:"name" json:"name"`
	Description string               `yaml:"description" json:"description"`
	Parent      string               `yaml:"parent" json:"parent,omitempty"` // Empty for roots
	Order       int                  `yaml:"order" json:"order"`
	Conditions  []MilestoneCondition `yaml:"conditions" json:"conditions"`
}

// MilestoneCondition is one predicate attached to a milestone.
type MilestoneCondition struct {
	Condition string   `yaml:"condition" json:"condition"`
	Value     RawValue `yaml:"value" json:"value"`

	resolved condition.Condition
}

// Resolved returns the condition resolved at load time.
func (mc MilestoneCondition) Resolved() condition.Condition {
	return mc.resolved
}

// Edict is a policy action. Optional numbers are nil when unset.
type Edict struct {
	Key         string `yaml:"key" json:"key"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	IsActive    bool   `yaml:"is_active" json:"is_active"`

	UnlockedBy       string `yaml:"unlocked_by" json:"unlocked_by,omitempty"` // Required milestone key
	RequiredPrestige *int   `yaml:"required_prestige" json:"required_prestige,omitempty"`
	CooldownYears    *int   `yaml:"cooldown_years" json:"cooldown_years,omitempty"`

	CostCoins      *int `yaml:"cost_coins" json:"cost_coins,omitempty"`
	CostPopulation *int `yaml:"cost_population" json:"cost_population,omitempty"`
	CostPrestige   *int `yaml:"cost_prestige" json:"cost_prestige,omitempty"` // Informational; prestige is never spent

	EffectUnrest     *int `yaml:"effect_unrest" json:"effect_unrest,omitempty"`
	EffectCoins      *int `yaml:"effect_coins" json:"effect_coins,omitempty"`
	EffectPopulation *int `yaml:"effect_population" json:"effect_population,omitempty"`
}

// Severity grades how dangerous a thread is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ThreadType is a threat definition.
type ThreadType struct {
	Key         string   `yaml:"key" json:"key"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Condition   string   `yaml:"condition" json:"condition"`
	Value       RawValue `yaml:"value" json:"value"`
	Severity    Severity `yaml:"severity" json:"severity"`
	Order       int      `yaml:"order" json:"order"`

	resolved condition.Condition
}

// Resolved returns the condition resolved at load time.
func (t ThreadType) Resolved() condition.Condition {
	return t.resolved
}

// TileType returns the terrain definition for key.
func (c *Catalog) TileType(key string) (TileType, bool) {
	i, ok := c.tiles[key]
	if !ok {
		return TileType{}, false
	}
	return c.TileTypes[i], true
}

// Building returns the building definition for key.
func (c *Catalog) Building(key string) (Building, bool) {
	i, ok := c.buildings[key]
	if !ok {
		return Building{}, false
	}
	return c.Buildings[i], true
}

// Milestone returns the milestone definition for key.
func (c *Catalog) Milestone(key string) (Milestone, bool) {
	i, ok := c.milestones[key]
	if !ok {
		return Milestone{}, false
	}
	return c.Milestones[i], true
}

// Edict returns the edict definition for key.
func (c *Catalog) Edict(key string) (Edict, bool) {
	i, ok := c.edicts[key]
	if !ok {
		return Edict{}, false
	}
	return c.Edicts[i], true
}

// ThreadType returns the thread definition for key.
func (c *Catalog) ThreadType(key string) (ThreadType, bool) {
	i, ok := c.threads[key]
	if !ok {
		return ThreadType{}, false
	}
	return c.Threads[i], true
}

// ContentOf returns the effective content of a tile. The second result is
// false when the tile references a key the catalog does not know.
func (c *Catalog) ContentOf(t savegame.Tile) (Content, bool) {
	if t.HasBuilding() {
		b, ok := c.Building(t.Building)
		return b, ok
	}
	tt, ok := c.TileType(t.Terrain)
	return tt, ok
}

// IsWall reports whether the building key names a city wall.
func (c *Catalog) IsWall(key string) bool {
	b, ok := c.Building(key)
	return ok && b.IsWall
}

// Children returns the direct children of a milestone in sibling order. An
// empty key returns the roots.
func (c *Catalog) Children(parent string) []Milestone {
	var out []Milestone
	for _, m := range c.Milestones {
		if m.Parent == parent {
			out = append(out, m)
		}
	}
	sortMilestones(out)
	return out
}

// MilestonesByLevel returns every milestone breadth first: roots in sibling
// order, then their children level by level.
func (c *Catalog) MilestonesByLevel() []Milestone {
	out := make([]Milestone, 0, len(c.Milestones))
	level := c.Children("")
	for len(level) > 0 {
		out = append(out, level...)
		var next []Milestone
		for _, m := range level {
			next = append(next, c.Children(m.Key)...)
		}
		level = next
	}
	return out
}

// EdictsUnlockedBy returns the edicts gated on a milestone, ordered by name.
func (c *Catalog) EdictsUnlockedBy(milestone string) []Edict {
	var out []Edict
	for _, e := range c.Edicts {
		if e.UnlockedBy == milestone {
			out = append(out, e)
		}
	}
	sortEdicts(out)
	return out
}

// ActiveEdicts returns the edicts flagged active, ordered by name.
func (c *Catalog) ActiveEdicts() []Edict {
	var out []Edict
	for _, e := range c.Edicts {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sortEdicts(out)
	return out
}

// ThreadsInOrder returns every thread type in display order.
func (c *Catalog) ThreadsInOrder() []ThreadType {
	out := append([]ThreadType(nil), c.Threads...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func sortMilestones(ms []Milestone) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Order != ms[j].Order {
			return ms[i].Order < ms[j].Order
		}
		return ms[i].Key < ms[j].Key
	})
}

func sortEdicts(es []Edict) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].Name != es[j].Name {
			return es[i].Name < es[j].Name
		}
		return es[i].Key < es[j].Key
	})
}
