package domain

import (
	"slices"
	"time"
)

// SaleStage is the step of an in-progress sale sub-flow.
type SaleStage string

const (
	StageSelection  SaleStage = "selection"
	StageCustomName SaleStage = "customName"
)

// SaleState is owned exclusively by the sale handler.
type SaleState struct {
	Stage  SaleStage       `json:"stage"`
	NodeID string          `json:"node_id"`
	Items  []InventoryItem `json:"items,omitempty"`
}

// AdvanceAction says what a pending auto-advance does when it fires.
type AdvanceAction string

const (
	// AdvanceNext leaves NodeID through the Edge Resolver.
	AdvanceNext AdvanceAction = "advance"
	// AdvanceReset clears the conversation back to Idle.
	AdvanceReset AdvanceAction = "reset"
)

// PendingAdvance is a scheduled auto-advance. It is persisted with the state
// so that a restarted host can still complete it.
type PendingAdvance struct {
	Action AdvanceAction `json:"action"`
	NodeID string        `json:"node_id"`
	Due    time.Time     `json:"due"`
}

// ConversationState is the durable, resumable progress marker of one session.
// The zero value is Idle.
type ConversationState struct {
	CurrentNodeID       string          `json:"current_node_id,omitempty"`
	AwaitingInput       bool            `json:"awaiting_input"`
	ActiveOptions       []Option        `json:"active_options,omitempty"`
	ActiveOptionsPrompt string          `json:"active_options_prompt,omitempty"`
	SubState            *SaleState      `json:"sub_state,omitempty"`
	Pending             *PendingAdvance `json:"pending,omitempty"`
}

// Idle reports whether no run is in progress.
func (s ConversationState) Idle() bool {
	return s.CurrentNodeID == "" && !s.AwaitingInput && s.Pending == nil
}

// Clone returns a deep copy.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.ActiveOptions = slices.Clone(s.ActiveOptions)
	if s.SubState != nil {
		sub := *s.SubState
		sub.Items = slices.Clone(s.SubState.Items)
		out.SubState = &sub
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return out
}

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one transcript line. Entries are never mutated once appended.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is everything persisted for one session identity.
type Conversation struct {
	SessionID  string            `json:"session_id"`
	State      ConversationState `json:"state"`
	Transcript []Entry           `json:"transcript"`
	// LastSeen is the GraphVersion this session last ran against.
	// Nil means the session never saw a published workflow.
	LastSeen  *GraphVersion `json:"last_seen,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewConversation returns an idle conversation with an empty transcript.
func NewConversation(sessionID string) *Conversation {
	return &Conversation{
		SessionID:  sessionID,
		Transcript: []Entry{},
	}
}

// Fresh reports whether the session has never been used.
func (c *Conversation) Fresh() bool {
	return c.State.Idle() && len(c.Transcript) == 0 && c.LastSeen == nil
}

// Clone returns a deep copy.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.State = c.State.Clone()
	out.Transcript = slices.Clone(c.Transcript)
	if out.Transcript == nil {
		out.Transcript = []Entry{}
	}
	if c.LastSeen != nil {
		v := *c.LastSeen
		v.NodeIDs = slices.Clone(c.LastSeen.NodeIDs)
		out.LastSeen = &v
	}
	return &out
}

// Same reports whether two pending advances denote the same scheduled step.
// Due is compared as an instant so that persisted copies still match.
func (p PendingAdvance) Same(o PendingAdvance) bool {
	return p.Action == o.Action && p.NodeID == o.NodeID && p.Due.Equal(o.Due)
}
