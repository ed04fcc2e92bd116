package condition

import (
	"fmt"
	"math"

	"github.com/GitRon/norimberga-sub001/internal/savegame"
)

// State is the derived view of a savegame that conditions read.
type State struct {
	Savegame        *savegame.Savegame
	Prestige        int
	Defense         int
	HousingCapacity int
}

// Condition is a resolved catalog predicate with its parameter.
type Condition struct {
	Ref   string // Reference as written in the catalog
	Kind  Kind
	Value Value
}

// New resolves ref within scope and parses the raw parameter.
func New(ref, raw string, scope Scope) Condition {
	k, _ := Resolve(ref, scope)
	return Condition{Ref: ref, Kind: k, Value: ParseValue(raw)}
}

// Resolved reports whether the reference named a known kind.
func (c Condition) Resolved() bool {
	return c.Kind != KindUnknown
}

// IsValid evaluates a milestone condition.
func (c Condition) IsValid(st State) (bool, error) {
	sg := st.Savegame
	switch c.Kind {
	case KindMinPopulation:
		return atLeast(sg.Population, c.Value)
	case KindMinCoins:
		return atLeast(sg.Coins, c.Value)
	case KindMinPrestige:
		return atLeast(st.Prestige, c.Value)
	case KindMinDefense:
		return atLeast(st.Defense, c.Value)
	case KindMinYear:
		return atLeast(sg.CurrentYear, c.Value)
	case KindMaxUnrest:
		n, err := c.Value.Number()
		if err != nil {
			return false, err
		}
		return float64(sg.Unrest) <= n, nil
	case KindPrestigeOverDefense:
		return st.Prestige > st.Defense, nil
	}
	return false, fmt.Errorf("evaluate %q: %w", c.Ref, ErrUnresolved)
}

// IsActive evaluates a thread condition.
func (c Condition) IsActive(st State) (bool, error) {
	sg := st.Savegame
	switch c.Kind {
	case KindPrestigeOverDefense:
		return st.Prestige > st.Defense, nil
	case KindUnrestAbove:
		return atLeast(sg.Unrest, c.Value)
	case KindCoinsBelow:
		n, err := c.Value.Number()
		if err != nil {
			return false, err
		}
		return float64(sg.Coins) < n, nil
	case KindHousingShortage:
		return sg.Population > st.HousingCapacity, nil
	}
	return false, fmt.Errorf("evaluate %q: %w", c.Ref, ErrUnresolved)
}

// Intensity returns how severe an active thread currently is. It is only
// meaningful while IsActive holds.
func (c Condition) Intensity(st State) (int, error) {
	sg := st.Savegame
	switch c.Kind {
	case KindPrestigeOverDefense:
		return st.Prestige - st.Defense, nil
	case KindUnrestAbove:
		n, err := c.Value.Number()
		if err != nil {
			return 0, err
		}
		return sg.Unrest - int(math.Ceil(n)) + 1, nil
	case KindCoinsBelow:
		n, err := c.Value.Number()
		if err != nil {
			return 0, err
		}
		return int(math.Ceil(n)) - sg.Coins, nil
	case KindHousingShortage:
		return sg.Population - st.HousingCapacity, nil
	}
	return 0, fmt.Errorf("intensity %q: %w", c.Ref, ErrUnresolved)
}

// Label returns the human-readable name, falling back to the raw reference
// when the kind is unknown. It never fails.
func (c Condition) Label() string {
	label, err := c.Kind.Label()
	if err != nil {
		return c.Ref
	}
	return label
}

func atLeast(have int, v Value) (bool, error) {
	n, err := v.Number()
	if err != nil {
		return false, err
	}
	return float64(have) >= n, nil
}
