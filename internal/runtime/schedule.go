package runtime

import (
	"strings"

	"github.com/aretw0/auraflow/pkg/domain"
)

// enterSchedule offers the available slots numbered from 1, with 0 to cancel.
// Without available slots it says so and moves on.
func (t *turn) enterSchedule(node domain.Node, d domain.ScheduleData) (*domain.Node, error) {
	slots := d.AvailableSlots()
	if len(slots) == 0 {
		t.say(orDefault(d.NoSlotsMessage, t.e.messages.ScheduleNoSlots))
		return t.autoAdvance(node, domain.AdvanceNext, t.e.delays.Message)
	}

	prompt := orDefault(d.Prompt, t.e.messages.SchedulePrompt)
	t.say(renderSlots(prompt, slots, t.e.messages.ScheduleCancelLabel))
	t.await(node)
	opts := make([]domain.Option, 0, len(slots))
	for _, s := range slots {
		opts = append(opts, domain.Option{ID: s.ID, Text: s.Label()})
	}
	t.conv.State.ActiveOptions = opts
	t.conv.State.ActiveOptionsPrompt = prompt
	return nil, nil
}

func (t *turn) inputSchedule(node domain.Node, d domain.ScheduleData, text string) (*domain.Node, error) {
	if strings.TrimSpace(text) == "0" {
		t.say(orDefault(d.CancellationMessage, t.e.messages.ScheduleCancelled))
		t.clear(domain.ResetCancelled)
		return nil, nil
	}

	slots := d.AvailableSlots()
	n, ok := parseChoice(text, 1, len(slots))
	if !ok {
		t.rejected(node, text)
		prompt := orDefault(d.Prompt, t.e.messages.SchedulePrompt)
		t.say(t.e.messages.InvalidOptionPrefix + renderSlots(prompt, slots, t.e.messages.ScheduleCancelLabel))
		return nil, nil
	}

	t.say(expand(orDefault(d.ConfirmationMessage, t.e.messages.ScheduleConfirmation), "slot", slots[n-1].Label()))
	return t.leave(node, nil)
}
