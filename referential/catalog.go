package referential

import (
	"errors"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// MatchCutoff is the minimum fuzzy ratio (0-100) for a town match to be
// accepted.
const MatchCutoff = 70

// ErrEmptySelection is returned when no stops matched any requested town.
// It aborts the run before any fetch is attempted.
var ErrEmptySelection = errors.New("no stops found for the requested towns")

// Catalog is the in-memory stop referential. It is read-only after load and
// safe for concurrent use.
type Catalog struct {
	stops []StopPoint
	towns []string
}

// NewCatalog builds a catalog from stop points, preserving row order. The
// distinct town list keeps first-encounter order, which decides fuzzy-match
// ties.
func NewCatalog(stops []StopPoint) *Catalog {
	seen := make(map[string]struct{}, len(stops))
	var towns []string
	for _, s := range stops {
		if _, ok := seen[s.Town]; !ok {
			seen[s.Town] = struct{}{}
			towns = append(towns, s.Town)
		}
	}
	return &Catalog{stops: stops, towns: towns}
}

// Len returns the number of stop points in the catalog.
func (c *Catalog) Len() int { return len(c.stops) }

// Towns returns the distinct town names in catalog order.
func (c *Catalog) Towns() []string { return c.towns }

// ResolveTown fuzzy-matches a requested town name against the distinct towns
// in the catalog. Input is whitespace-trimmed; matching is case-sensitive.
// The best-scoring candidate wins, ties resolving to the first-encountered
// town. A score below MatchCutoff leaves Matched empty, a recoverable state
// handled by the selector's prefix fallback.
func (c *Catalog) ResolveTown(requested string) ResolvedTown {
	requested = strings.TrimSpace(requested)
	resolved := ResolvedTown{Requested: requested}

	for _, town := range c.towns {
		score := fuzzy.Ratio(requested, town)
		if score > resolved.Score {
			resolved.Score = score
			resolved.Matched = town
		}
	}
	if resolved.Score < MatchCutoff {
		resolved.Matched = ""
	}
	return resolved
}

// SelectStops filters the catalog for each requested town: an exact town
// filter when the town resolved, otherwise a case-sensitive prefix filter on
// the raw requested string. Contributions concatenate in request order,
// preserving catalog row order; a stop selected by more than one pass appears
// once per pass. Returns ErrEmptySelection when nothing matched.
func (c *Catalog) SelectStops(requested []string) ([]SelectedStop, error) {
	var selected []SelectedStop

	for _, town := range requested {
		resolved := c.ResolveTown(town)
		for _, s := range c.stops {
			if resolved.Matched != "" {
				if s.Town == resolved.Matched {
					selected = append(selected, SelectedStop{ID: s.ID, Name: s.Name})
				}
			} else if strings.HasPrefix(s.Town, resolved.Requested) {
				selected = append(selected, SelectedStop{ID: s.ID, Name: s.Name})
			}
		}
	}

	if len(selected) == 0 {
		return nil, ErrEmptySelection
	}
	return selected, nil
}
