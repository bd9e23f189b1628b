// Package aggregation implements the attendance summary core: the rules for
// deduplicating people across repeated rows, reconciling inconsistent name
// spellings, and counting attendance for the two supported export shapes.
//
// Two independent pipelines are provided, selected by the caller:
//
//   - GrowthflowAggregator: rows keyed loosely by email, with comma-separated
//     day lists that are split, deduplicated, and counted per email.
//   - WebinarjamAggregator: rows one per registrant with a yes/no flag,
//     summed per (name, email, phone) triple.
//
// Both are pure given their input: no shared state, no I/O, deterministic
// output order (first appearance of each grouping key). Reading uploads into
// RawRecords and serializing SummaryRecords back out belong to the tabular
// and exporter packages.
package aggregation
