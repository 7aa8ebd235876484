// Package frontend runs the complete per-stream feature pipeline: a
// resonator bank followed by the feature extractors and the flux tracker.
//
// A Frontend owns all mutable state of one audio stream. It is not safe for
// concurrent use; give each stream its own instance.
package frontend
