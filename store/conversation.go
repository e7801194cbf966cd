package store

// Conversation persists a conversation's state blob between turns so the
// CLI is resumable. The state is opaque JSON owned by the orchestrator.
type Conversation struct {
	UID       string
	State     []byte
	CreatedTs int64
	UpdatedTs int64
}
