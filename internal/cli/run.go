package cli

import (
	"context"
	"errors"
	"io"

	"github.com/aretw0/auraflow"
	"github.com/aretw0/auraflow/internal/presentation/tui"
	"github.com/aretw0/auraflow/pkg/domain"
)

// ChatOptions configures an interactive chat in the terminal.
type ChatOptions struct {
	SessionID string
	Fresh     bool
	Headless  bool
	Input     io.Reader
	Output    io.Writer
}

// RunChat talks to the published workflow on the terminal. When a watcher is
// configured, new publications reset the session while chatting.
func RunChat(ctx context.Context, h *Host, opts ChatOptions) error {
	if !opts.Headless {
		tui.PrintBanner(opts.Output, auraflow.Version)
	}

	if opts.Fresh {
		if err := h.Engine.Reset(ctx, opts.SessionID); err != nil {
			return err
		}
	}

	conv, err := h.Engine.Conversation(ctx, opts.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		conv, err = domain.NewConversation(opts.SessionID), nil
	}
	if err != nil {
		return err
	}
	if !opts.Headless {
		if len(conv.Transcript) > 0 {
			printSystemMessage(opts.Output, "Resuming session '%s' at '%s'.", opts.SessionID, conv.State.CurrentNodeID)
		} else {
			printSystemMessage(opts.Output, "Session '%s' active.", opts.SessionID)
		}
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if h.Watcher != nil {
		go func() {
			if err := h.Engine.Watch(watchCtx, h.Watcher); err != nil && !errors.Is(err, context.Canceled) {
				h.Logger.Warn("workflow watch stopped", "err", err)
			}
		}()
	}

	r := auraflow.NewRunner(opts.SessionID)
	r.Input = opts.Input
	r.Output = opts.Output
	r.Headless = opts.Headless
	if !opts.Headless {
		r.Renderer = tui.NewRenderer()
	}

	err = r.Run(ctx, h.Engine)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
