// Package services implements the driving ports.
//
// The index lifecycle lives here: EmbeddingClient and BatchIndexer write
// points, IndexService moves a dataset between indexed fields, and
// DeletionService keeps point deletes in step with record deletes.
// Services talk to infrastructure only through driven ports.
package services
