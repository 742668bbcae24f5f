// Package sink persists flattened stop monitoring rows.
//
// Two tabular writers share one interface: a CSV file and a SQLite table,
// selected by configuration. Both support appending across runs and widen
// their schema to the union of all columns seen, since the upstream API omits
// absent fields. A raw archiver optionally captures unprocessed responses.
package sink
