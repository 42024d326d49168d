// Package pipeline sequences the smashing run: load per-sample frames,
// merge them per grouping key, normalize and scale, package the output
// tree, and deliver the result. The executor never aborts early on a
// domain failure; every run ends with the requester being told what
// happened.
package pipeline
