// Package ir defines the declarative ruleset representation that the
// compiler loads and builds engines from, plus its canonical JSON encoding
// and content hash.
//
// ir imports nothing internal. Enumerated modes are kept as their
// snake_case names here; the compiler parses them into engine types.
package ir
