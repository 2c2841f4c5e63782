package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/auraflow/internal/compiler"
	"github.com/aretw0/auraflow/internal/presentation/graph"
	"github.com/aretw0/auraflow/internal/validator"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/dsl"
	"github.com/aretw0/auraflow/pkg/ports"
)

// ErrInvalidWorkflow is returned by RunValidate when errors were reported.
var ErrInvalidWorkflow = errors.New("workflow has errors")

// withSource opens only the configured workflow source.
func withSource(ctx context.Context, opts Options, fn func(ports.WorkflowSource) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	h := &Host{Config: cfg, Logger: createLogger(cfg.Log.Level)}
	defer h.Close()

	src, err := h.createSource(ctx)
	if err != nil {
		return err
	}
	return fn(src)
}

// RunValidate prints the validation report of the published workflow.
func RunValidate(ctx context.Context, opts Options, w io.Writer) error {
	return withSource(ctx, opts, func(src ports.WorkflowSource) error {
		report, err := validator.ValidateSource(ctx, src)
		if err != nil {
			return fmt.Errorf("failed to load workflow: %w", err)
		}
		report.Write(w)
		if !report.Valid() {
			return fmt.Errorf("%w: %d error(s)", ErrInvalidWorkflow, len(report.Errors()))
		}
		fmt.Fprintf(w, "Workflow is valid! %d nodes, %d edges (%d warnings)\n",
			report.Version.NodeCount, report.Version.EdgeCount, len(report.Warnings()))
		return nil
	})
}

// RunGraph prints the published workflow as a Mermaid diagram. With a
// session id, the node that session is at is highlighted.
func RunGraph(ctx context.Context, opts Options, sessionID string, w io.Writer) error {
	if sessionID != "" {
		h, err := Setup(ctx, opts)
		if err != nil {
			return err
		}
		defer h.Close()

		p, err := h.Source.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load workflow: %w", err)
		}
		conv, err := h.Store.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}
		fmt.Fprint(w, graph.GenerateMermaid(p.Graph, &graph.GraphOverlay{
			CurrentNode:   conv.State.CurrentNodeID,
			AwaitingInput: conv.State.AwaitingInput,
		}))
		return nil
	}

	return withSource(ctx, opts, func(src ports.WorkflowSource) error {
		p, err := src.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load workflow: %w", err)
		}
		fmt.Fprint(w, graph.GenerateMermaid(p.Graph, nil))
		return nil
	})
}

// RunInit writes a sample workflow document to path (JSON or YAML by extension).
func RunInit(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	doc := compiler.Document(SampleWorkflow())
	var (
		data []byte
		err  error
	)
	if compiler.FormatFromPath(path) == compiler.FormatYAML {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SampleWorkflow is a small workshop flow touching every node kind.
func SampleWorkflow() *domain.WorkflowGraph {
	b := dsl.New()
	b.Start().Label("Início").Go("welcome")
	b.Add("welcome").Label("Boas-vindas").Message("Olá! Bem-vindo à oficina.").Go("menu")
	b.Add("menu").Label("Menu").
		Options("Como posso ajudar?", "Comprar peças", "Agendar serviço", "Falar com atendente").
		Branch(0, "shop").
		Branch(1, "booking").
		Branch(2, "agent")
	b.Add("shop").Label("Venda").Sale().Go("bye")
	b.Add("booking").Label("Agendamento").
		Schedule("Escolha um horário:",
			domain.Slot{ID: "s1", Date: "2026-05-04", Time: "09:00", Available: true},
			domain.Slot{ID: "s2", Date: "2026-05-04", Time: "14:00", Available: true},
		).
		Confirm("Agendado para {slot}!", "Agendamento cancelado.").
		Go("bye")
	b.Add("agent").Label("Atendente").Handoff()
	b.Add("bye").Label("Fim").Terminate("Obrigado pelo contato!")
	return b.Graph()
}
