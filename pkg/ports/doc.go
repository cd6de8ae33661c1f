/*
Package ports defines the driven ports (interfaces) of the parley engine.

These interfaces decouple turn processing from external implementations, so the
same engine runs against memory, files, Redis, DynamoDB or Postgres.

# Key Interfaces

  - StateStore: persists and loads a ConversationState per conversation.
  - DistributedLocker: serializes turns of one conversation across replicas.
*/
package ports
