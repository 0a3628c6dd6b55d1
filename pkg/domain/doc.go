/*
Package domain contains the core domain models of the Arbor runtime.

It defines the typed tree vocabulary (Structures and their live Node instances),
the read-only State projection, and the prototype merge. The package is pure:
no I/O, no persistence, following Hexagonal Architecture principles.

# Key Entities

  - Structure: a named node type with a description and a parent type.
  - Node: a materialized Structure carrying a runtime-assigned Ref.
  - State: a point-in-time projection of a Node, its subtree and its relation targets.
  - MergeState: combines a prototype State (base) with a live State (overlay).
*/
package domain
