// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DatasetStore: System of record for datasets and datapoints
//   - ConfigStore: Application configuration
//   - SchedulerStore: Repair task state and history
//   - FileParser: Decodes uploaded files into raw datapoint values
//
// # Index Interfaces
//
// The vector index mirrors the indexed field of every datapoint:
//
//   - EmbeddingService: Generates vector embeddings from text
//   - VectorIndex: Stores embedding points and answers similarity queries
//   - EmbeddingClient: Indexes datapoints and deletes points by payload filter
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
