package mcp

import (
	"context"
	"fmt"
)

// ListChecklistsTool returns a tool that lists the loaded checklists.
func (ts *Toolset) ListChecklistsTool() *Tool {
	return &Tool{
		Name:        "list_checklists",
		Description: "List the available checklists with their sections",
		Execute:     ts.executeListChecklists,
		Schema: ToolSchema{
			Required:   []string{},
			Properties: map[string]Property{},
		},
	}
}

func (ts *Toolset) executeListChecklists(ctx context.Context, args map[string]any) (string, error) {
	ids := ts.checklists.Available()

	entries := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		cl := ts.checklists.Get(id)
		if cl == nil {
			continue
		}
		entries = append(entries, map[string]any{
			"id":       cl.ID,
			"name":     cl.Name,
			"version":  cl.Version,
			"standard": cl.Standard,
			"sections": cl.AllSections(),
		})
	}

	out := map[string]any{"checklists": entries}
	if def := ts.checklists.Default(); def != nil {
		out["default"] = def.ID
	}
	return toJSON(out)
}

// MatchCommentTool returns a tool that dry-runs the comment matcher.
func (ts *Toolset) MatchCommentTool() *Tool {
	return &Tool{
		Name:        "match_comment",
		Description: "Match observation text against the comment library without recording a finding",
		Execute:     ts.executeMatchComment,
		Schema: ToolSchema{
			Required: []string{"text"},
			Properties: map[string]Property{
				"text": {
					Type:        "string",
					Description: "Observation text to match",
				},
				"section": {
					Type:        "string",
					Description: "Section hint searched before the whole library",
				},
			},
		},
	}
}

func (ts *Toolset) executeMatchComment(ctx context.Context, args map[string]any) (string, error) {
	text := stringArg(args, "text")
	if text == "" {
		return "", fmt.Errorf("text cannot be empty")
	}
	return toJSON(ts.library.Match(text, stringArg(args, "section")))
}
