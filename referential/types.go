package referential

// StopPoint is one row of the stop referential: a physical transit stop
// identified by a unique id, with its display name and town.
type StopPoint struct {
	ID   string `json:"arrid"`
	Name string `json:"arrname"`
	Town string `json:"arrtown"`
}

// ResolvedTown is the outcome of matching one requested town name against
// the catalog. An empty Matched signals a failed resolution; the selector
// then falls back to prefix filtering on the raw requested string.
type ResolvedTown struct {
	Requested string
	Matched   string
	Score     int
}

// SelectedStop is a stop retained for retrieval, as an (id, name) pair.
type SelectedStop struct {
	ID   string
	Name string
}
