package validator

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Report is the outcome of validating a published workflow.
type Report struct {
	Version domain.GraphVersion
	Issues  []domain.Issue
}

// Errors returns the issues that make some run fail with MalformedGraph.
func (r *Report) Errors() []domain.Issue { return r.filter(SeverityError) }

// Warnings returns legal but suspicious constructs.
func (r *Report) Warnings() []domain.Issue { return r.filter(SeverityWarning) }

// Valid reports whether no error was found.
func (r *Report) Valid() bool { return len(r.Errors()) == 0 }

func (r *Report) filter(severity string) []domain.Issue {
	var out []domain.Issue
	for _, i := range r.Issues {
		if i.Severity == severity {
			out = append(out, i)
		}
	}
	return out
}

// Write prints one line per issue, errors first.
func (r *Report) Write(w io.Writer) {
	for _, i := range r.Errors() {
		fmt.Fprintln(w, i.String())
	}
	for _, i := range r.Warnings() {
		fmt.Fprintln(w, i.String())
	}
}

// ValidateSource loads the published workflow and checks its structure.
// A document that cannot be compiled is returned as an error, not a report.
func ValidateSource(ctx context.Context, src ports.WorkflowSource) (*Report, error) {
	p, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{Version: p.Version, Issues: ValidateGraph(p.Graph)}, nil
}

// ValidateGraph returns the structural issues of g plus authoring lints the
// interpreter tolerates silently.
func ValidateGraph(g *domain.WorkflowGraph) []domain.Issue {
	issues := g.Validate()
	for _, n := range g.Nodes() {
		out := len(g.Outgoing(n.ID))
		switch d := n.Data.(type) {
		case domain.OptionsData:
			if len(d.Options) == 0 {
				issues = append(issues, warn(n.ID, "options node without options"))
			}
		case domain.ScheduleData:
			if len(d.AvailableSlots()) == 0 {
				issues = append(issues, warn(n.ID, "no available slots"))
			}
		case domain.TerminateData:
			if out > 0 {
				issues = append(issues, warn(n.ID, fmt.Sprintf("%d outgoing edges are never followed", out)))
			}
		case domain.HandoffData:
			if out > 1 {
				issues = append(issues, warn(n.ID, "only the first outgoing edge is followed"))
			}
		case domain.MessageData:
			if d.Text == "" {
				issues = append(issues, warn(n.ID, "empty message"))
			}
		}
	}
	return issues
}

func warn(nodeID, msg string) domain.Issue {
	return domain.Issue{Severity: SeverityWarning, NodeID: nodeID, Message: msg}
}
