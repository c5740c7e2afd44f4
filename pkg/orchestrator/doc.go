// Package orchestrator wires the load → normalize → resolve → mount → render
// pipeline behind a single entry point. Every stage can be swapped through
// options.
package orchestrator
