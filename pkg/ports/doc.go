/*
Package ports defines the driven ports of the GUI API client.

# Key Interfaces

  - PageStore: persists page snapshots (document, history) by page id.
  - DistributedLocker: serializes work on one page across processes.

Reusable contract tests for adapters live in pkg/ports/tests.
*/
package ports
