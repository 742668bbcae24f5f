package referential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return NewCatalog([]StopPoint{
		{ID: "1", Name: "Gare de Lyon", Town: "Paris"},
		{ID: "2", Name: "Chatelet", Town: "Paris"},
		{ID: "3", Name: "Rive Droite", Town: "Versailles"},
		{ID: "4", Name: "Chantiers", Town: "Versailles"},
		{ID: "5", Name: "Centre", Town: "Paray-Vieille-Poste"},
	})
}

func TestCatalog_Towns(t *testing.T) {
	c := testCatalog()
	assert.Equal(t, []string{"Paris", "Versailles", "Paray-Vieille-Poste"}, c.Towns())
}

func TestResolveTown(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name      string
		requested string
		matched   string
	}{
		{
			name:      "exact match",
			requested: "Paris",
			matched:   "Paris",
		},
		{
			name:      "typo within cutoff",
			requested: "Pariss",
			matched:   "Paris",
		},
		{
			name:      "trims whitespace",
			requested: "  Versailles  ",
			matched:   "Versailles",
		},
		{
			name:      "no reasonable match",
			requested: "Nowhereville",
			matched:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := c.ResolveTown(tt.requested)
			assert.Equal(t, tt.matched, resolved.Matched)
			if tt.matched != "" {
				assert.GreaterOrEqual(t, resolved.Score, MatchCutoff)
			}
		})
	}
}

func TestResolveTown_Deterministic(t *testing.T) {
	c := testCatalog()
	first := c.ResolveTown("Pariss")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.ResolveTown("Pariss"))
	}
}

func TestResolveTown_TieBreaksToCatalogOrder(t *testing.T) {
	// Two towns equally distant from the request; the first-encountered
	// candidate must win.
	c := NewCatalog([]StopPoint{
		{ID: "1", Name: "A", Town: "Melun"},
		{ID: "2", Name: "B", Town: "Melon"},
	})
	resolved := c.ResolveTown("Melin")
	assert.Equal(t, "Melun", resolved.Matched)
}

func TestSelectStops_ExactTown(t *testing.T) {
	c := testCatalog()

	stops, err := c.SelectStops([]string{"Paris"})
	require.NoError(t, err)

	assert.Equal(t, []SelectedStop{
		{ID: "1", Name: "Gare de Lyon"},
		{ID: "2", Name: "Chatelet"},
	}, stops)
}

func TestSelectStops_PrefixFallback(t *testing.T) {
	c := NewCatalog([]StopPoint{
		{ID: "1", Name: "Basilique", Town: "Saint-Denis"},
		{ID: "2", Name: "Mairie", Town: "Saint-Ouen"},
		{ID: "3", Name: "Gare", Town: "Creteil"},
	})

	// "Saint" scores below the cutoff against every town but prefixes two.
	resolved := c.ResolveTown("Saint")
	require.Empty(t, resolved.Matched)

	stops, err := c.SelectStops([]string{"Saint"})
	require.NoError(t, err)

	assert.Equal(t, []SelectedStop{
		{ID: "1", Name: "Basilique"},
		{ID: "2", Name: "Mairie"},
	}, stops)
}

func TestSelectStops_DuplicateTownsRepeatStops(t *testing.T) {
	c := testCatalog()

	stops, err := c.SelectStops([]string{"Paris", "Paris"})
	require.NoError(t, err)

	assert.Len(t, stops, 4)
	assert.Equal(t, stops[0], stops[2])
}

func TestSelectStops_RequestOrderPreserved(t *testing.T) {
	c := testCatalog()

	stops, err := c.SelectStops([]string{"Versailles", "Paris"})
	require.NoError(t, err)

	assert.Equal(t, []SelectedStop{
		{ID: "3", Name: "Rive Droite"},
		{ID: "4", Name: "Chantiers"},
		{ID: "1", Name: "Gare de Lyon"},
		{ID: "2", Name: "Chatelet"},
	}, stops)
}

func TestSelectStops_EmptySelection(t *testing.T) {
	c := testCatalog()

	stops, err := c.SelectStops([]string{"Nowhereville"})
	assert.Nil(t, stops)
	assert.ErrorIs(t, err, ErrEmptySelection)
}
