// Package logging builds the slog loggers used across the smasher and
// standardizes the structured fields stages attach to their records.
package logging
