/*
Package ports defines the driven ports (interfaces) used by the mekforge servers.

These interfaces decouple rendering from external infrastructure, allowing
the HTTP and MCP adapters to share results across replicas.

# Key Interfaces

  - Cache: stores rendered images by content key (e.g., in memory or Redis).
  - DistributedLocker: serializes concurrent renders of the same key.
*/
package ports
