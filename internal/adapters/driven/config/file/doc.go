// Package file provides the TOML-backed ConfigStore.
//
// Keys are flattened to dot notation in memory ("embedding.provider") and
// written back as nested TOML tables, so the file stays hand-editable:
//
//	[embedding]
//	provider = "ollama"
//	model = "nomic-embed-text"
//
//	[indexing]
//	batch_size = 50
package file
