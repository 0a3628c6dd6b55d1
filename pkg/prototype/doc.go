// Package prototype keeps the templates that live instances inherit from.
//
// Templates are either seeded directly (a process-local cache) or summoned from
// a source locator that is persisted in a ports.SourceStore and loaded on demand
// through a ports.SourceLoader. Inheritance itself is domain.MergeState.
package prototype
