package runtime

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/aretw0/auraflow/pkg/domain"
)

var pricePrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatPrice renders a unit price as Brazilian reais, e.g. "R$ 1.234,50".
func FormatPrice(v float64) string {
	return pricePrinter.Sprintf("R$ %.2f", v)
}

// renderOptions lays out a prompt with its 1-based choices and the input hint.
// The output depends only on its arguments so re-prompts are content-stable.
func renderOptions(prompt string, options []domain.Option, hint string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n")
	for i, o := range options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, o.Text)
	}
	b.WriteString("\n")
	b.WriteString(hint)
	return b.String()
}

func renderCatalogue(prompt string, items []domain.InventoryItem, unavailable, hint string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, it.Name, FormatPrice(it.UnitPrice))
	}
	fmt.Fprintf(&b, "0. %s\n\n", unavailable)
	b.WriteString(hint)
	return b.String()
}

func renderSlots(prompt string, slots []domain.Slot, cancel string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n")
	for i, s := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Label())
	}
	fmt.Fprintf(&b, "0. %s", cancel)
	return b.String()
}

// parseChoice accepts a plain integer in [lo, hi]. Anything else,
// including signs, spaces inside the number or trailing text, is rejected.
func parseChoice(text string, lo, hi int) (int, bool) {
	s := strings.TrimSpace(text)
	if s == "" || len(s) > 6 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	if n < lo || n > hi {
		return 0, false
	}
	return n, true
}
