// Package services defines shared utilities consumed by the pipeline
// stages and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp dataset identifiers, job identifiers,
//     and stage names for logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across stage boundaries.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
