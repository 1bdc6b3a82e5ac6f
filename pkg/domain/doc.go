/*
Package domain contains the core data model of the dialogue runtime.

It defines the flow graph entities (Node kinds, Pins, Connections, Scripts),
the identifier types used across the toolchain (ID, Ref), branch results and
the error taxonomy. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Node: a flow graph vertex with a closed Kind and per-kind payload.
  - Pin/Connection: typed, index-addressed edges between nodes.
  - Branch: one fully-explored candidate path to a terminal pausable node.
  - Snapshot: the resumable part of a session (cursor + variable values).
*/
package domain
