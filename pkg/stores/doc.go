// Package stores persists kernel scenarios in SQLite: the scenario
// documents, state values, constraint records, region reports with their
// policy outcome, propagation runs and the event log.
//
// The schema is applied with golang-migrate from embedded SQL files. Every
// row recorded for a scenario is deleted with it.
package stores
