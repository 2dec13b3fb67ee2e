// Package trace builds the run trace view from flat run records.
package trace

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xiaot623/agentdesk/internal/domain"
)

// Child is one rendered child run.
type Child struct {
	RunID    string  `json:"run_id"`
	Name     string  `json:"name"`
	RunType  string  `json:"run_type"`
	Icon     string  `json:"icon"`
	Duration float64 `json:"-"`
	Seconds  string  `json:"duration"`
	Tokens   int     `json:"total_tokens"`
}

// Entry is a run with children and its rendered output.
type Entry struct {
	RunID           string   `json:"run_id"`
	Name            string   `json:"name"`
	Output          string   `json:"output"`
	Children        []Child  `json:"children"`
	MissingChildren []string `json:"missing_children,omitempty"`
}

// Build keeps the runs that have children, in input order, and resolves
// each child id against the same list. Unknown child ids are skipped and
// listed in MissingChildren.
func Build(runs []domain.AgentRun) []Entry {
	byID := make(map[string]*domain.AgentRun, len(runs))
	for i := range runs {
		byID[runs[i].ID] = &runs[i]
	}

	entries := []Entry{}
	for _, run := range runs {
		if len(run.ChildRunIDs) == 0 {
			continue
		}
		entry := Entry{
			RunID:    run.ID,
			Name:     run.Name,
			Output:   FormatOutput(run.Outputs),
			Children: make([]Child, 0, len(run.ChildRunIDs)),
		}
		for _, childID := range run.ChildRunIDs {
			child, ok := byID[childID]
			if !ok {
				log.Printf("WARN: run %s references unknown child run %s", run.ID, childID)
				entry.MissingChildren = append(entry.MissingChildren, childID)
				continue
			}
			d := Duration(*child)
			entry.Children = append(entry.Children, Child{
				RunID:    child.ID,
				Name:     child.Name,
				RunType:  child.RunType,
				Icon:     Icon(child.RunType),
				Duration: d,
				Seconds:  FormatSeconds(d),
				Tokens:   child.TotalTokens,
			})
		}
		entries = append(entries, entry)
	}
	return entries
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Duration returns end_time - start_time in seconds, or NaN when either
// timestamp does not parse.
func Duration(run domain.AgentRun) float64 {
	start, ok := parseTime(run.StartTime)
	if !ok {
		return math.NaN()
	}
	end, ok := parseTime(run.EndTime)
	if !ok {
		return math.NaN()
	}
	return end.Sub(start).Seconds()
}

// FormatSeconds renders seconds with one decimal; NaN renders as "NaN".
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 1, 64)
}

// Icon maps a run type to its glyph.
func Icon(runType string) string {
	switch runType {
	case domain.RunTypeLLM:
		return "✦"
	case domain.RunTypeTool:
		return "⚒"
	case domain.RunTypeChain:
		return "⛓"
	case domain.RunTypeRetriever:
		return "⌕"
	case domain.RunTypeAgent:
		return "◉"
	default:
		return "•"
	}
}

// FormatOutput prefers the conventional "output" string and falls back to
// compact JSON.
func FormatOutput(outputs map[string]interface{}) string {
	if len(outputs) == 0 {
		return ""
	}
	if s, ok := outputs["output"].(string); ok {
		return s
	}
	data, err := json.Marshal(outputs)
	if err != nil {
		return fmt.Sprint(outputs)
	}
	return string(data)
}

// Render formats entries for a terminal.
func Render(entries []Entry) string {
	if len(entries) == 0 {
		return "No runs with child steps yet.\n"
	}
	var b strings.Builder
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = e.RunID
		}
		fmt.Fprintf(&b, "▸ %s\n", name)
		if e.Output != "" {
			fmt.Fprintf(&b, "  %s\n", e.Output)
		}
		for _, c := range e.Children {
			fmt.Fprintf(&b, "    %s %-28s %6ss %8d tokens\n", c.Icon, c.Name, c.Seconds, c.Tokens)
		}
		for _, id := range e.MissingChildren {
			fmt.Fprintf(&b, "    ? %s (not found)\n", id)
		}
	}
	return b.String()
}
