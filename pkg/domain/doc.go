/*
Package domain contains the core models of the auraflow conversational flow interpreter.

It defines the operator-authored workflow (Nodes, Edges and the immutable
WorkflowGraph), the per-session progress marker (ConversationState), the
append-only Transcript and the GraphVersion fingerprint used to detect a newly
published workflow. The package is pure: no I/O, no persistence, no clocks
beyond the timestamps callers hand in.

# Key Entities

  - Node: one step of a workflow. Its Data is a closed union of per-kind configs.
  - Edge: directed connection, optionally tagged with a branch handle ("output-<n>").
  - WorkflowGraph: nodes plus edges, indexed for outgoing lookups, shared read-only.
  - ConversationState: current node, awaiting-input flag, active options and sale sub-state.
  - Conversation: the persisted record of one session (state, transcript, last-seen version).
*/
package domain
