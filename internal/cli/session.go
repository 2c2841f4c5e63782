package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// ListSessions prints the stored session ids.
func ListSessions(ctx context.Context, h *Host, w io.Writer) error {
	ids, err := h.Engine.Sessions().List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	slices.Sort(ids)
	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// InspectSession prints the stored conversation as indented JSON.
func InspectSession(ctx context.Context, h *Host, sessionID string, w io.Writer) error {
	conv, err := h.Store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", sessionID, err)
	}
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSession deletes a conversation and its transcript.
func RemoveSession(ctx context.Context, h *Host, sessionID string) error {
	if err := h.Engine.Close(ctx, sessionID); err != nil {
		return fmt.Errorf("error removing session '%s': %w", sessionID, err)
	}
	return nil
}
