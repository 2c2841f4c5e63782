/*
Package ports defines the driven ports (interfaces) of the auraflow interpreter.

These interfaces decouple the flow engine from where workflows come from, where
conversations are kept and which services a sale talks to.

# Key Interfaces

  - WorkflowSource: loads the published workflow, or reports NotPublished.
  - VersionWatcher: notifies that the published GraphVersion changed (polling or push).
  - ConversationStore: get/set/clear of a Conversation by session id.
  - DistributedLocker: cross-replica single-writer guarantee per session.
  - InventoryService and SaleRegistrar: the external collaborators of the sale node.
*/
package ports
