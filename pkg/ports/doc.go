/*
Package ports defines the driven ports (interfaces) of the Arbor runtime.

These interfaces decouple the core from its backings, allowing the same
operations to run over an in-memory graph, a JSON file or a SQL database.

# Key Interfaces

  - Runtime: create, remove, transform, link, unlink, tag, project and roots over a typed tree.
  - SourceStore: the persisted registry of where prototype templates come from.
  - SourceLoader: loads a template from a locator (file path, URL, ...).
  - Locker: serializes writers across processes.

RunRuntimeContract and RunSourceStoreContract are reusable suites every adapter must pass.
*/
package ports
