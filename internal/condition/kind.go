// Package condition resolves the stable condition references stored in the
// catalog to a closed set of predicate kinds, and evaluates them against a
// savegame's derived state.
package condition

import (
	"errors"
	"fmt"
	"sort"
)

// Kind enumerates every predicate the rules engine understands.
type Kind uint8

const (
	KindUnknown             Kind = iota // Unresolvable reference; never holds
	KindMinPopulation                   // population >= value
	KindMinCoins                        // coins >= value
	KindMinPrestige                     // prestige >= value
	KindMinDefense                      // defense >= value
	KindMinYear                         // current_year >= value
	KindMaxUnrest                       // unrest <= value
	KindPrestigeOverDefense             // prestige > defense
	KindUnrestAbove                     // unrest >= value
	KindCoinsBelow                      // coins < value
	KindHousingShortage                 // population > housing capacity
)

// Scope says where a kind may be attached.
type Scope uint8

const (
	ScopeMilestone Scope = 1 << iota
	ScopeThread
)

var (
	// ErrUnresolved is returned when evaluating a KindUnknown condition.
	ErrUnresolved = errors.New("condition: unresolved reference")
	// ErrTypeMismatch is returned when a numeric predicate is given a
	// non-numeric parameter. It signals malformed catalog data.
	ErrTypeMismatch = errors.New("condition: parameter type mismatch")
)

type kindInfo struct {
	ref     string
	label   string
	scope   Scope
	numeric bool // parameter must parse as a number
}

var kinds = map[Kind]kindInfo{
	KindMinPopulation:       {"min_population", "Minimum population", ScopeMilestone, true},
	KindMinCoins:            {"min_coins", "Minimum coins", ScopeMilestone, true},
	KindMinPrestige:         {"min_prestige", "Minimum prestige", ScopeMilestone, true},
	KindMinDefense:          {"min_defense", "Minimum defense", ScopeMilestone, true},
	KindMinYear:             {"min_year", "Reach year", ScopeMilestone, true},
	KindMaxUnrest:           {"max_unrest", "Maximum unrest", ScopeMilestone, true},
	KindPrestigeOverDefense: {"prestige_over_defense", "Prestige exceeds defense", ScopeMilestone | ScopeThread, false},
	KindUnrestAbove:         {"unrest_above", "Unrest at or above", ScopeThread, true},
	KindCoinsBelow:          {"coins_below", "Treasury below", ScopeThread, true},
	KindHousingShortage:     {"housing_shortage", "Housing shortage", ScopeThread, false},
}

var byRef = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k, info := range kinds {
		m[info.ref] = k
	}
	return m
}()

// Resolve maps a catalog reference to a kind valid in the given scope. An
// unknown reference, or one used outside its scope, resolves to KindUnknown.
func Resolve(ref string, scope Scope) (Kind, bool) {
	k, ok := byRef[ref]
	if !ok || kinds[k].scope&scope == 0 {
		return KindUnknown, false
	}
	return k, true
}

// Refs lists every known reference string for a scope, sorted.
func Refs(scope Scope) []string {
	var refs []string
	for _, info := range kinds {
		if info.scope&scope != 0 {
			refs = append(refs, info.ref)
		}
	}
	sort.Strings(refs)
	return refs
}

// String returns the stable reference string.
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.ref
	}
	return "unknown"
}

// Label returns the human-readable name of the kind.
func (k Kind) Label() (string, error) {
	info, ok := kinds[k]
	if !ok {
		return "", fmt.Errorf("label for kind %d: %w", k, ErrUnresolved)
	}
	return info.label, nil
}

// Check validates a parameter against the kind's requirements. Numeric kinds
// reject non-numeric values with ErrTypeMismatch.
func (k Kind) Check(v Value) error {
	info, ok := kinds[k]
	if !ok {
		return ErrUnresolved
	}
	if info.numeric && !v.IsNumber() {
		return fmt.Errorf("%s needs a number, got %q: %w", info.ref, v.Raw, ErrTypeMismatch)
	}
	return nil
}
