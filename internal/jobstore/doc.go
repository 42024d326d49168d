// Package jobstore persists datasets, samples, and smash jobs in SQLite
// and exposes helpers for driving their lifecycle.
//
// The Store manages database connections, schema initialization, and the
// terminal-state writes the pipeline performs at run end. Datasets
// capture the user's aggregation options, delivery address, and outcome;
// smash jobs capture one run of the pipeline over one dataset.
//
// Treat this package as the single source of truth for job semantics;
// when you add new statuses or fields, update schema.sql and bump
// schemaVersion.
package jobstore
