package mcp

import (
	"context"
)

// NavigateSectionTool returns a tool that moves an inspection to a
// section.
func (ts *Toolset) NavigateSectionTool() *Tool {
	return &Tool{
		Name:        "navigate_section",
		Description: "Move an inspection to a checklist section and return that section's prompt and items",
		Execute:     ts.executeNavigateSection,
		Schema: ToolSchema{
			Required: []string{"inspection_id", "section"},
			Properties: map[string]Property{
				"inspection_id": {
					Type:        "string",
					Description: "Id of the inspection to move",
				},
				"section": {
					Type:        "string",
					Description: "Target section id, or subarea address like exterior.roof",
				},
			},
		},
	}
}

func (ts *Toolset) executeNavigateSection(ctx context.Context, args map[string]any) (string, error) {
	result, err := ts.engine.Navigate(ctx, stringArg(args, "inspection_id"), stringArg(args, "section"))
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

// GetStatusTool returns a tool that reports inspection progress.
func (ts *Toolset) GetStatusTool() *Tool {
	return &Tool{
		Name:        "get_status",
		Description: "Report an inspection's progress: per-section visits, completion percentage and whether it can be completed",
		Execute:     ts.executeGetStatus,
		Schema: ToolSchema{
			Required: []string{"inspection_id"},
			Properties: map[string]Property{
				"inspection_id": {
					Type:        "string",
					Description: "Id of the inspection to report on",
				},
			},
		},
	}
}

func (ts *Toolset) executeGetStatus(ctx context.Context, args map[string]any) (string, error) {
	result, err := ts.engine.Status(ctx, stringArg(args, "inspection_id"))
	if err != nil {
		return "", err
	}
	return toJSON(result)
}

// SuggestNextTool returns a tool that proposes the next section to
// visit.
func (ts *Toolset) SuggestNextTool() *Tool {
	return &Tool{
		Name:        "suggest_next",
		Description: "Suggest the next unvisited section after the current one, with the remaining-section list",
		Execute:     ts.executeSuggestNext,
		Schema: ToolSchema{
			Required: []string{"inspection_id"},
			Properties: map[string]Property{
				"inspection_id": {
					Type:        "string",
					Description: "Id of the inspection to advise on",
				},
			},
		},
	}
}

func (ts *Toolset) executeSuggestNext(ctx context.Context, args map[string]any) (string, error) {
	result, err := ts.engine.Suggest(ctx, stringArg(args, "inspection_id"))
	if err != nil {
		return "", err
	}
	return toJSON(result)
}
