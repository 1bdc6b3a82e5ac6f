/*
Package ports defines the driven ports (interfaces) of the dialogue runtime.

These interfaces decouple the flow player from external implementations,
allowing it to work with host-supplied script languages and various
persistence backends.

# Key Interfaces

  - ScriptEvaluator: interprets condition/instruction expressions against a
    VariableAccessor and an opaque method provider.
  - StateStore: persists and loads session Snapshots.
  - DistributedLocker: provides distributed locking for concurrent session
    access across replicas.
*/
package ports
