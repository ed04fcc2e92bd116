// Package savegame holds the persisted state of one player's city: the
// Savegame aggregate, its tile grid, and the per-savegame log records.
package savegame

import "golang.org/x/exp/constraints"

// Unrest bounds. Unrest is a percentage.
const (
	MinUnrest = 0
	MaxUnrest = 100
)

// Savegame is the root mutable state of a city.
type Savegame struct {
	ID       int64  `db:"id" json:"id"`
	UserID   int64  `db:"user_id" json:"user_id"`
	CityName string `db:"city_name" json:"city_name"`

	// Resources
	Coins      int `db:"coins" json:"coins"`
	Population int `db:"population" json:"population"` // Never negative
	Unrest     int `db:"unrest" json:"unrest"`         // 0–100

	CurrentYear int `db:"current_year" json:"current_year"` // Monotonic, never decreases
	MapSize     int `db:"map_size" json:"map_size"`         // Grid is MapSize × MapSize

	IsActive   bool `db:"is_active" json:"is_active"`     // One active savegame per user
	IsEnclosed bool `db:"is_enclosed" json:"is_enclosed"` // City walls close the settlement off
}

// AddCoins applies a coin delta. Coins have no floor here; callers validate
// affordability before spending.
func (s *Savegame) AddCoins(delta int) {
	s.Coins += delta
}

// AddPopulation applies a population delta, flooring the result at zero.
func (s *Savegame) AddPopulation(delta int) {
	s.Population = max(s.Population+delta, 0)
}

// AddUnrest applies an unrest delta, clamping the result to [0, 100].
func (s *Savegame) AddUnrest(delta int) {
	s.Unrest = Clamp(s.Unrest+delta, MinUnrest, MaxUnrest)
}

// Clamp restricts v to [low, high].
func Clamp[T constraints.Integer](v, low, high T) T {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
