// Package vector holds helpers shared by the vector index backends.
//
// Backends live in subpackages:
//   - memory: process-local map, used by tests and the memory backend
//   - sqlite: persistent index in its own SQLite file
package vector
