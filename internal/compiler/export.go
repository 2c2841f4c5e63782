package compiler

import (
	"github.com/aretw0/auraflow/internal/dto"
	"github.com/aretw0/auraflow/pkg/domain"
)

// exportKinds is the editor type written back for each kind.
var exportKinds = map[domain.NodeKind]string{
	domain.KindStart:     "start",
	domain.KindMessage:   "sendMessage",
	domain.KindOptions:   "options",
	domain.KindSale:      "venda",
	domain.KindHandoff:   "agentes",
	domain.KindTerminate: "finalizar",
	domain.KindSchedule:  "agendamento",
}

// Document converts a graph back into the editor document shape.
// Parse(Document(g)) yields a graph equal to g.
func Document(g *domain.WorkflowGraph) dto.WorkflowDocument {
	doc := dto.WorkflowDocument{
		Nodes: []dto.NodeDocument{},
		Edges: []dto.EdgeDocument{},
	}
	for _, n := range g.Nodes() {
		nd := dto.NodeDocument{ID: n.ID, Type: exportKinds[n.Kind], Data: map[string]any{}}
		if n.Label != "" {
			nd.Data["label"] = n.Label
		}
		switch d := n.Data.(type) {
		case domain.MessageData:
			nd.Data["message"] = d.Text
		case domain.OptionsData:
			opts := make([]map[string]any, 0, len(d.Options))
			for _, o := range d.Options {
				opts = append(opts, map[string]any{"id": o.ID, "text": o.Text, "digit": o.Digit})
			}
			nd.Data["message"] = d.Prompt
			nd.Data["options"] = opts
		case domain.SaleData:
			nd.Data["message"] = d.Prompt
			nd.Data["customNameMessage"] = d.CustomNamePrompt
			nd.Data["confirmationMessage"] = d.Confirmation
		case domain.HandoffData:
			nd.Data["handoffMessage"] = d.Message
			nd.Data["noAgentMessage"] = d.NoAgentMessage
		case domain.TerminateData:
			nd.Data["finalMessage"] = d.Message
		case domain.ScheduleData:
			slots := make([]map[string]any, 0, len(d.Slots))
			for _, s := range d.Slots {
				slots = append(slots, map[string]any{"id": s.ID, "time": s.Time, "date": s.Date, "available": s.Available})
			}
			nd.Data["message"] = d.Prompt
			nd.Data["availableSlots"] = slots
			nd.Data["confirmationMessage"] = d.ConfirmationMessage
			nd.Data["cancellationMessage"] = d.CancellationMessage
			nd.Data["noSlotsMessage"] = d.NoSlotsMessage
		case domain.UnsupportedData:
			nd.Type = d.EditorType
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, dto.EdgeDocument{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.BranchHandle,
		})
	}
	return doc
}
