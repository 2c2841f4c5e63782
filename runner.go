package auraflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/auraflow/pkg/domain"
)

// DefaultPollInterval is how often the Runner looks for delayed entries.
const DefaultPollInterval = 100 * time.Millisecond

// Runner is a line-oriented chat loop over an Engine.
// It allows easy testing and integration with terminal frontends.
type Runner struct {
	Input     io.Reader
	Output    io.Writer
	SessionID string
	Headless  bool
	Renderer  ContentRenderer
	// PollInterval paces the wait for auto-advanced entries.
	PollInterval time.Duration
}

// ContentRenderer transforms assistant content before it is written.
// This allows TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner for one session. Input and Output must be set.
func NewRunner(sessionID string) *Runner {
	return &Runner{SessionID: sessionID, PollInterval: DefaultPollInterval}
}

// Run greets, then forwards each input line until EOF, "exit" or ctx is done.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- auraflow chat ---")
	}

	reply, err := engine.Open(ctx, r.SessionID)
	if err != nil {
		return fmt.Errorf("open error: %w", err)
	}
	r.print(reply.Entries)
	if err := r.follow(ctx, engine, reply); err != nil {
		return err
	}

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || text == "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimRight(text, "\r\n")
		if cmd := strings.TrimSpace(input); cmd == "exit" || cmd == "quit" {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}

		reply, err := engine.HandleMessage(ctx, r.SessionID, input)
		if err != nil {
			return fmt.Errorf("message error: %w", err)
		}
		r.print(reply.Entries)
		if err := r.follow(ctx, engine, reply); err != nil {
			return err
		}
	}
}

// follow waits for the entries of a pending auto-advance and prints them.
func (r *Runner) follow(ctx context.Context, engine *Engine, reply *Reply) error {
	if !reply.Pending {
		return nil
	}
	conv, err := engine.Conversation(ctx, r.SessionID)
	if err != nil {
		return fmt.Errorf("transcript error: %w", err)
	}
	last := ""
	if n := len(reply.Entries); n > 0 {
		last = reply.Entries[n-1].ID
	}
	last = r.printAfter(conv.Transcript, last)

	interval := r.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for conv.State.Pending != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		conv, err = engine.Conversation(ctx, r.SessionID)
		if err != nil {
			return fmt.Errorf("transcript error: %w", err)
		}
		last = r.printAfter(conv.Transcript, last)
	}
	return nil
}

// printAfter prints the entries that follow the one with id last and returns
// the id of the newest entry. When last is no longer in the transcript (it was
// cleared by a version change) everything is new.
func (r *Runner) printAfter(transcript []domain.Entry, last string) string {
	from := 0
	for i, e := range transcript {
		if e.ID == last {
			from = i + 1
		}
	}
	if from < len(transcript) {
		r.print(transcript[from:])
	}
	if n := len(transcript); n > 0 {
		return transcript[n-1].ID
	}
	return last
}

func (r *Runner) print(entries []domain.Entry) {
	for _, e := range entries {
		if e.Role != domain.RoleAssistant {
			continue
		}
		output := e.Content
		if r.Renderer != nil {
			if rendered, err := r.Renderer(e.Content); err == nil {
				output = rendered
			}
		}
		fmt.Fprintln(r.Output, strings.TrimSpace(output))
	}
}
