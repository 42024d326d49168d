// Package frame holds the in-memory feature matrix type shared by the
// smashing pipeline and the loader that builds one-column matrices from
// per-sample quantified files.
package frame
