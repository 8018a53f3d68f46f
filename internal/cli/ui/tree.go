package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/querymodel/internal/orm/loadplan"
)

// WritePlan renders a load plan tree. Join fetches are green, downgraded
// fetches yellow.
func WritePlan(w io.Writer, plan *loadplan.LoadPlan, noColor bool) {
	header := color.New(color.Bold, color.FgCyan)
	joined := color.New(color.FgGreen)
	downgraded := color.New(color.FgYellow)
	if noColor {
		header.DisableColor()
		joined.DisableColor()
		downgraded.DisableColor()
	}

	lines := strings.Split(strings.TrimRight(plan.Describe(), "\n"), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			header.Fprintln(w, line)
		case strings.HasSuffix(line, ")") && strings.Contains(line, ": "):
			downgraded.Fprintln(w, line)
		case strings.Contains(line, "immediate/join"):
			joined.Fprintln(w, line)
		default:
			fmt.Fprintln(w, line)
		}
	}
}

// WritePlanSummary renders the counters of a load plan as key-value rows
func WritePlanSummary(w io.Writer, plan *loadplan.LoadPlan, noColor bool) {
	joins, downgrades := 0, 0
	for _, f := range plan.Fetches() {
		if f.IsJoinFetch() && f.Kind != loadplan.FetchComposite {
			joins++
		}
		if f.Downgraded() {
			downgrades++
		}
	}

	profile := plan.ProfileName()
	if profile == "" {
		profile = "(none)"
	}

	kv := NewKeyValueTable(w, noColor)
	kv.AddRow("Profile", profile)
	kv.AddRow("Max depth", fmt.Sprintf("%d", plan.MaxDepth()))
	kv.AddRow("Query spaces", fmt.Sprintf("%d", plan.Spaces().Len()))
	kv.AddRow("Join fetches", fmt.Sprintf("%d", joins))
	kv.AddRow("Collection joins", fmt.Sprintf("%d", plan.CollectionJoinFetches()))
	kv.AddRow("Downgraded", fmt.Sprintf("%d", downgrades))
	kv.Render()
}
