// Package referential holds the stop-point catalog and resolves user-supplied
// town names to concrete stops.
//
// The catalog is loaded once from the IDFM stop referential export
// (arrid/arrname/arrtown) and is read-only afterwards. Town resolution is a
// fuzzy ratio match with a prefix-filter fallback when no candidate clears
// the cutoff.
package referential
