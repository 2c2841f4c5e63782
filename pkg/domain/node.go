package domain

// NodeKind is the discriminant of a node's configuration.
type NodeKind string

const (
	KindStart     NodeKind = "start"
	KindMessage   NodeKind = "message"
	KindOptions   NodeKind = "options"
	KindSale      NodeKind = "sale"
	KindHandoff   NodeKind = "handoff"
	KindTerminate NodeKind = "terminate"
	KindSchedule  NodeKind = "schedule"

	// KindUnsupported marks a node whose editor type the interpreter cannot run.
	// Loading such a graph succeeds; reaching the node raises MalformedGraph.
	KindUnsupported NodeKind = "unsupported"
)

// Node is one step of a workflow graph. Immutable once loaded.
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`
	// Label is the operator-facing name shown in the editor.
	Label string   `json:"label,omitempty"`
	Data  NodeData `json:"-"`
}

// NodeData is the closed set of per-kind configurations.
// Only types declared in this package implement it.
type NodeData interface {
	Kind() NodeKind
	nodeData()
}

// Option is a user-selectable choice displayed with a 1-based number.
type Option struct {
	ID    string `json:"id,omitempty"`
	Text  string `json:"text"`
	Digit string `json:"digit,omitempty"`
}

// Slot is an appointment slot offered by a schedule node.
type Slot struct {
	ID        string `json:"id"`
	Time      string `json:"time"`
	Date      string `json:"date,omitempty"`
	Available bool   `json:"available"`
}

// Label renders the slot for display.
func (s Slot) Label() string {
	if s.Date == "" {
		return s.Time
	}
	return s.Date + " " + s.Time
}

type StartData struct{}

type MessageData struct {
	Text string
}

type OptionsData struct {
	Prompt  string
	Options []Option
}

// SaleData configures the two-stage sale sub-flow.
// Empty fields fall back to the engine's default messages.
type SaleData struct {
	Prompt           string
	CustomNamePrompt string
	Confirmation     string
}

type HandoffData struct {
	Message        string
	NoAgentMessage string
}

type TerminateData struct {
	Message string
}

type ScheduleData struct {
	Prompt              string
	Slots               []Slot
	ConfirmationMessage string
	CancellationMessage string
	NoSlotsMessage      string
}

// AvailableSlots returns the slots still open for booking, in authoring order.
func (d ScheduleData) AvailableSlots() []Slot {
	var out []Slot
	for _, s := range d.Slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// UnsupportedData keeps the editor type of a node the interpreter cannot run.
type UnsupportedData struct {
	EditorType string
}

func (StartData) Kind() NodeKind       { return KindStart }
func (MessageData) Kind() NodeKind     { return KindMessage }
func (OptionsData) Kind() NodeKind     { return KindOptions }
func (SaleData) Kind() NodeKind        { return KindSale }
func (HandoffData) Kind() NodeKind     { return KindHandoff }
func (TerminateData) Kind() NodeKind   { return KindTerminate }
func (ScheduleData) Kind() NodeKind    { return KindSchedule }
func (UnsupportedData) Kind() NodeKind { return KindUnsupported }

func (StartData) nodeData()       {}
func (MessageData) nodeData()     {}
func (OptionsData) nodeData()     {}
func (SaleData) nodeData()        {}
func (HandoffData) nodeData()     {}
func (TerminateData) nodeData()   {}
func (ScheduleData) nodeData()    {}
func (UnsupportedData) nodeData() {}
