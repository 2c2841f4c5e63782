package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/auraflow/internal/dto"
	"github.com/aretw0/auraflow/pkg/domain"
)

// Format of a workflow document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Defaults to JSON.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	return FormatJSON
}

// editorKinds maps the type names written by the flow editor to node kinds.
var editorKinds = map[string]domain.NodeKind{
	"start":       domain.KindStart,
	"sendMessage": domain.KindMessage,
	"message":     domain.KindMessage,
	"options":     domain.KindOptions,
	"venda":       domain.KindSale,
	"vendas":      domain.KindSale,
	"sale":        domain.KindSale,
	"agentes":     domain.KindHandoff,
	"humano":      domain.KindHandoff,
	"handoff":     domain.KindHandoff,
	"finalizar":   domain.KindTerminate,
	"terminate":   domain.KindTerminate,
	"agendamento": domain.KindSchedule,
	"schedule":    domain.KindSchedule,
}

// Parser converts workflow documents into immutable graphs.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a document. Syntax errors and undecodable node data are
// reported as MalformedGraph; structural defects are left to WorkflowGraph.Validate.
func (p *Parser) Parse(data []byte, format Format) (*domain.WorkflowGraph, error) {
	var raw map[string]any
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to parse workflow document", errx.TypeBusiness)
	}

	var doc dto.WorkflowDocument
	if err := decode(raw, &doc); err != nil {
		return nil, errx.Wrap(err, "failed to decode workflow document", errx.TypeBusiness)
	}
	return p.Compile(doc)
}

// Compile turns a decoded document into a graph.
func (p *Parser) Compile(doc dto.WorkflowDocument) (*domain.WorkflowGraph, error) {
	nodes := make([]domain.Node, 0, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		if nd.ID == "" {
			return nil, domain.ErrMalformedGraph("node missing id")
		}
		var fields dto.NodeData
		if err := decode(nd.Data, &fields); err != nil {
			return nil, errx.Wrap(err, "failed to decode node data", errx.TypeBusiness).WithDetail("node_id", nd.ID)
		}
		nodes = append(nodes, compileNode(nd, fields))
	}

	edges := make([]domain.Edge, 0, len(doc.Edges))
	for _, ed := range doc.Edges {
		edges = append(edges, domain.Edge{
			ID:           ed.ID,
			Source:       ed.Source,
			Target:       ed.Target,
			BranchHandle: ed.SourceHandle,
		})
	}
	return domain.NewWorkflowGraph(nodes, edges), nil
}

func compileNode(nd dto.NodeDocument, f dto.NodeData) domain.Node {
	kind, ok := editorKinds[nd.Type]
	if !ok {
		kind = domain.KindUnsupported
	}
	n := domain.Node{ID: nd.ID, Kind: kind, Label: f.Label}

	switch kind {
	case domain.KindStart:
		n.Data = domain.StartData{}
	case domain.KindMessage:
		n.Data = domain.MessageData{Text: f.Message}
	case domain.KindOptions:
		opts := make([]domain.Option, 0, len(f.Options))
		for _, o := range f.Options {
			opts = append(opts, domain.Option{ID: o.ID, Text: o.Text, Digit: o.Digit})
		}
		n.Data = domain.OptionsData{Prompt: f.Message, Options: opts}
	case domain.KindSale:
		n.Data = domain.SaleData{
			Prompt:           f.Message,
			CustomNamePrompt: f.CustomNameMessage,
			Confirmation:     f.ConfirmationMessage,
		}
	case domain.KindHandoff:
		n.Data = domain.HandoffData{
			Message:        firstNonEmpty(f.HandoffMessage, f.Message),
			NoAgentMessage: f.NoAgentMessage,
		}
	case domain.KindTerminate:
		n.Data = domain.TerminateData{Message: firstNonEmpty(f.FinalMessage, f.Message)}
	case domain.KindSchedule:
		slots := make([]domain.Slot, 0, len(f.AvailableSlots))
		for _, s := range f.AvailableSlots {
			slots = append(slots, domain.Slot{ID: s.ID, Time: s.Time, Date: s.Date, Available: s.Available})
		}
		n.Data = domain.ScheduleData{
			Prompt:              f.Message,
			Slots:               slots,
			ConfirmationMessage: f.ConfirmationMessage,
			CancellationMessage: f.CancellationMessage,
			NoSlotsMessage:      f.NoSlotsMessage,
		}
	default:
		n.Data = domain.UnsupportedData{EditorType: nd.Type}
	}
	return n
}

func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	return dec.Decode(input)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
