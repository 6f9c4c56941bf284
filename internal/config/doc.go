// Package config defines the format-agnostic graph definition model and the
// Loader interface implemented by the format-specific packages (hcl,
// yamlconf).
//
// A definition only names nodes and the edges between them. It is turned
// into a traversable node graph by the builder package, which is also where
// references, duplicates and cycles are checked.
package config
