package mcp

import (
	"context"
	"fmt"
	"strings"

	"inspectd/internal/checklist"
	"inspectd/internal/inspection"
	"inspectd/internal/logging"
)

// StartInspectionTool returns a tool that opens a new inspection.
func (ts *Toolset) StartInspectionTool() *Tool {
	return &Tool{
		Name:        "start_inspection",
		Description: "Start a new inspection, positioned at the first section of its checklist",
		Execute:     ts.executeStartInspection,
		Schema: ToolSchema{
			Required: []string{},
			Properties: map[string]Property{
				"checklist": {
					Type:        "string",
					Description: "Checklist id to inspect against (defaults to the standard residential checklist)",
				},
				"property": {
					Type:        "string",
					Description: "Address or description of the property being inspected",
				},
				"inspector": {
					Type:        "string",
					Description: "Name of the inspector",
				},
			},
		},
	}
}

func (ts *Toolset) executeStartInspection(ctx context.Context, args map[string]any) (string, error) {
	checklistID := stringArg(args, "checklist")

	var cl *checklist.Checklist
	if checklistID == "" {
		cl = ts.checklists.Default()
		if cl == nil {
			return "", fmt.Errorf("no checklists are loaded")
		}
	} else {
		cl = ts.checklists.Get(checklistID)
		if cl == nil {
			available := strings.Join(ts.checklists.Available(), ", ")
			if available == "" {
				available = "none"
			}
			return "", fmt.Errorf("checklist %q not found (available: %s)", checklistID, available)
		}
	}

	property := stringArg(args, "property")
	inspector := stringArg(args, "inspector")

	firstID := ""
	if first := cl.FirstSection(); first != nil {
		firstID = first.ID
	}

	insp := inspection.New(cl.ID, property, inspector, firstID)
	if err := ts.repo.CreateInspection(ctx, insp); err != nil {
		return "", fmt.Errorf("create inspection: %w", err)
	}

	logging.MCP("Started inspection %s on checklist %s", insp.ID, cl.ID)
	logging.Audit().InspectionCreate(insp.ID, cl.ID, property)

	out := map[string]any{
		"inspection_id":   insp.ID,
		"checklist":       cl.ID,
		"checklist_name":  cl.Name,
		"status":          insp.Status,
		"current_section": insp.CurrentSection,
	}
	if detail, ok := cl.Resolve(checklist.ParseSectionID(insp.CurrentSection)); ok {
		out["section"] = detail
	}
	return toJSON(out)
}

// AddFindingTool returns a tool that records a finding and matches it
// against the comment library.
func (ts *Toolset) AddFindingTool() *Tool {
	return &Tool{
		Name:        "add_finding",
		Description: "Record a finding against the current (or a named) section and attach the best matching boilerplate comment",
		Execute:     ts.executeAddFinding,
		Schema: ToolSchema{
			Required: []string{"inspection_id", "text"},
			Properties: map[string]Property{
				"inspection_id": {
					Type:        "string",
					Description: "Id of the inspection to record against",
				},
				"text": {
					Type:        "string",
					Description: "Free-text observation",
				},
				"severity": {
					Type:        "string",
					Description: "Severity of the finding (defaults to info)",
					Enum:        []any{"info", "minor", "major", "urgent"},
				},
				"section": {
					Type:        "string",
					Description: "Section id to record against (defaults to the inspection's current section)",
				},
			},
		},
	}
}

func (ts *Toolset) executeAddFinding(ctx context.Context, args map[string]any) (string, error) {
	id := stringArg(args, "inspection_id")
	text := stringArg(args, "text")
	if text == "" {
		return "", fmt.Errorf("finding text cannot be empty")
	}

	severity := stringArg(args, "severity")
	if severity == "" {
		severity = string(inspection.SeverityInfo)
	}
	if !inspection.ValidSeverity(severity) {
		return "", fmt.Errorf("invalid severity %q (use info, minor, major or urgent)", severity)
	}

	insp, err := ts.repo.GetInspection(ctx, id)
	if err != nil {
		return "", fmt.Errorf("inspection %s: %w", id, err)
	}

	section := stringArg(args, "section")
	if section == "" {
		section = insp.CurrentSection
	}

	match := ts.library.Match(text, section)

	finding := inspection.NewFinding(insp.ID, section, text, inspection.Severity(severity))
	if match.Matched {
		finding.MatchedComment = match.Comment
	}
	if err := ts.repo.AddFinding(ctx, finding); err != nil {
		return "", fmt.Errorf("add finding: %w", err)
	}

	logging.MCP("Finding %s recorded on %s/%s (%s)", finding.ID, insp.ID, section, severity)
	logging.Audit().FindingAdd(insp.ID, section, severity)

	return toJSON(map[string]any{
		"finding_id":    finding.ID,
		"inspection_id": insp.ID,
		"section":       section,
		"severity":      finding.Severity,
		"match":         match,
	})
}

// CompleteInspectionTool returns a tool that closes an inspection once
// enough sections have been visited.
func (ts *Toolset) CompleteInspectionTool() *Tool {
	return &Tool{
		Name:        "complete_inspection",
		Description: "Mark an inspection COMPLETED; refused until at least half the sections have findings",
		Execute:     ts.executeCompleteInspection,
		Schema: ToolSchema{
			Required: []string{"inspection_id"},
			Properties: map[string]Property{
				"inspection_id": {
					Type:        "string",
					Description: "Id of the inspection to complete",
				},
			},
		},
	}
}

func (ts *Toolset) executeCompleteInspection(ctx context.Context, args map[string]any) (string, error) {
	id := stringArg(args, "inspection_id")

	status, err := ts.engine.Status(ctx, id)
	if err != nil {
		return "", err
	}
	if !status.CanComplete {
		return "", fmt.Errorf("inspection %s cannot be completed yet: %d of %d sections visited",
			id, status.Progress.Completed, status.Progress.Total)
	}

	if err := ts.repo.UpdateStatus(ctx, id, inspection.StatusCompleted); err != nil {
		return "", fmt.Errorf("complete inspection: %w", err)
	}

	logging.MCP("Inspection %s completed (%d/%d sections)", id, status.Progress.Completed, status.Progress.Total)
	logging.Audit().InspectionComplete(id, status.Progress.Completed, status.Progress.Total)

	out := map[string]any{
		"inspection_id": id,
		"status":        inspection.StatusCompleted,
		"progress":      status.Progress,
	}
	if findings, err := ts.repo.ListFindings(ctx, id); err == nil {
		bucket := inspection.WorstSeverity(findings)
		out["conclusion"] = bucket
		if text, ok := ts.conclusionText(ctx, id, bucket); ok {
			out["conclusion_text"] = text
		}
	}
	return toJSON(out)
}

// conclusionText resolves the report wording for a conclusion bucket. The
// inspection's checklist takes precedence; the comment library is the
// fallback shared across checklists.
func (ts *Toolset) conclusionText(ctx context.Context, inspectionID, bucket string) (string, bool) {
	if insp, err := ts.repo.GetInspection(ctx, inspectionID); err == nil {
		if cl := ts.checklists.Get(insp.ChecklistID); cl != nil {
			if text, ok := cl.Conclusion(bucket); ok {
				return text, true
			}
		}
	}
	return ts.library.Conclusion(bucket)
}

// CancelInspectionTool returns a tool that abandons an inspection.
func (ts *Toolset) CancelInspectionTool() *Tool {
	return &Tool{
		Name:        "cancel_inspection",
		Description: "Mark an inspection CANCELLED; its findings are kept",
		Execute:     ts.executeCancelInspection,
		Schema: ToolSchema{
			Required: []string{"inspection_id"},
			Properties: map[string]Property{
				"inspection_id": {
					Type:        "string",
					Description: "Id of the inspection to cancel",
				},
			},
		},
	}
}

func (ts *Toolset) executeCancelInspection(ctx context.Context, args map[string]any) (string, error) {
	id := stringArg(args, "inspection_id")

	insp, err := ts.repo.GetInspection(ctx, id)
	if err != nil {
		return "", fmt.Errorf("inspection %s: %w", id, err)
	}
	if insp.Status == inspection.StatusCompleted {
		return "", fmt.Errorf("inspection %s is already completed", id)
	}

	if err := ts.repo.UpdateStatus(ctx, id, inspection.StatusCancelled); err != nil {
		return "", fmt.Errorf("cancel inspection: %w", err)
	}

	logging.MCP("Inspection %s cancelled", id)
	logging.Audit().InspectionCancel(id)

	return toJSON(map[string]any{
		"inspection_id": id,
		"status":        inspection.StatusCancelled,
	})
}
