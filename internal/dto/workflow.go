package dto

// WorkflowDocument is the editor's persisted workflow: { nodes, edges }.
// Field names follow the flow editor so documents round-trip unchanged.
type WorkflowDocument struct {
	Nodes []NodeDocument `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []EdgeDocument `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// NodeDocument keeps the loosely typed data payload until the compiler
// decodes it for the node's kind.
type NodeDocument struct {
	ID   string         `json:"id" yaml:"id" mapstructure:"id"`
	Type string         `json:"type" yaml:"type" mapstructure:"type"`
	Data map[string]any `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data"`
}

type EdgeDocument struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Source       string `json:"source" yaml:"source" mapstructure:"source"`
	Target       string `json:"target" yaml:"target" mapstructure:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty" mapstructure:"sourceHandle"`
}

// NodeData is the union of every field the editor writes into a node's data.
// Each kind reads the subset it needs.
type NodeData struct {
	Label    string `mapstructure:"label"`
	CustomID string `mapstructure:"customId"`
	Message  string `mapstructure:"message"`

	Options []OptionData `mapstructure:"options"`

	FinalMessage string `mapstructure:"finalMessage"`

	HandoffMessage string `mapstructure:"handoffMessage"`
	NoAgentMessage string `mapstructure:"noAgentMessage"`

	AvailableSlots      []SlotData `mapstructure:"availableSlots"`
	ConfirmationMessage string     `mapstructure:"confirmationMessage"`
	CancellationMessage string     `mapstructure:"cancellationMessage"`
	NoSlotsMessage      string     `mapstructure:"noSlotsMessage"`

	CustomNameMessage string `mapstructure:"customNameMessage"`
}

type OptionData struct {
	ID    string `mapstructure:"id"`
	Text  string `mapstructure:"text"`
	Digit string `mapstructure:"digit"`
}

type SlotData struct {
	ID        string `mapstructure:"id"`
	Time      string `mapstructure:"time"`
	Date      string `mapstructure:"date"`
	Available bool   `mapstructure:"available"`
}
