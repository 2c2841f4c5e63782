package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const branchHandlePrefix = "output-"

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
	// BranchHandle encodes an ordinal as "output-<n>". Only branching kinds use it.
	BranchHandle string `json:"sourceHandle,omitempty"`
}

// BranchHandle returns the canonical handle for a zero-based branch index.
func BranchHandle(index int) string {
	return fmt.Sprintf("%s%d", branchHandlePrefix, index)
}

// Ordinal parses the branch handle. Edges without a parseable handle sort as 0.
func (e Edge) Ordinal() int {
	raw, ok := strings.CutPrefix(e.BranchHandle, branchHandlePrefix)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
