package mcp

import (
	"encoding/json"
	"fmt"

	"inspectd/internal/checklist"
	"inspectd/internal/comments"
	"inspectd/internal/inspection"
	"inspectd/internal/navigation"
)

// Toolset binds the inspection services to their MCP tool definitions.
// One instance is built at startup and registered into a Registry; the
// tools share the services through the toolset, never through globals.
type Toolset struct {
	checklists *checklist.Registry
	library    *comments.Library
	engine     *navigation.Engine
	repo       inspection.Repository
}

// NewToolset wires the tool surface to its collaborators.
func NewToolset(checklists *checklist.Registry, library *comments.Library, engine *navigation.Engine, repo inspection.Repository) *Toolset {
	return &Toolset{
		checklists: checklists,
		library:    library,
		engine:     engine,
		repo:       repo,
	}
}

// RegisterAll registers every inspection tool with the given registry.
func (ts *Toolset) RegisterAll(registry *Registry) error {
	allTools := []*Tool{
		// Inspection lifecycle
		ts.StartInspectionTool(),
		ts.AddFindingTool(),
		ts.CompleteInspectionTool(),
		ts.CancelInspectionTool(),

		// Navigation and progress
		ts.NavigateSectionTool(),
		ts.GetStatusTool(),
		ts.SuggestNextTool(),

		// Reference lookups
		ts.ListChecklistsTool(),
		ts.MatchCommentTool(),
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	return nil
}

// stringArg extracts an optional string argument, empty when absent.
func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// toJSON renders a tool payload for the text content block.
func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}
