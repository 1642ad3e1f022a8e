package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inspectd/internal/checklist"
	"inspectd/internal/comments"
	"inspectd/internal/inspection"
	"inspectd/internal/navigation"
)

const residentialYAML = `name: Residential Checklist
version: "1.0"
standard: AS 4349.1
sections:
  - id: exterior
    name: Exterior
    prompt: Inspect the exterior of the building.
    items:
      - Walls
      - Roof line
    subareas:
      - id: roof
        name: Roof
  - id: interior
    name: Interior
    prompt: Inspect the interior rooms.
conclusions:
  good: No significant defects were observed.
`

const poolYAML = `name: Pool Safety Checklist
version: "2.1"
standard: AS 1926.1
sections:
  - id: barrier
    name: Barrier
    prompt: Inspect the pool barrier.
`

const libraryYAML = `conclusions:
  good: The property was found to be in good condition.
  attention: Several defects require attention.
exterior_roof:
  rust:
    text: Surface rust was noted on the roof sheeting.
    match: [rust, corrosion]
interior:
  cracking:
    text: Hairline cracking was noted to internal wall linings.
    match: [crack, cracking]
`

// fixture wires a full toolset onto an in-memory repository.
type fixture struct {
	reg  *Registry
	repo *memRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	checklistDir := filepath.Join(dir, "checklists")
	require.NoError(t, os.MkdirAll(checklistDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(checklistDir, "residential.yaml"), []byte(residentialYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(checklistDir, "pool.yaml"), []byte(poolYAML), 0o644))

	checklists := checklist.NewRegistry(checklistDir)
	require.NoError(t, checklists.Load(context.Background()))

	libraryPath := filepath.Join(dir, "library.yaml")
	require.NoError(t, os.WriteFile(libraryPath, []byte(libraryYAML), 0o644))
	library := comments.NewLibrary(libraryPath, filepath.Join(dir, "custom.yaml"))
	require.NoError(t, library.Load())

	repo := newMemRepo()
	engine := navigation.NewEngine(repo, checklists)

	reg := NewRegistry()
	require.NoError(t, NewToolset(checklists, library, engine, repo).RegisterAll(reg))

	return &fixture{reg: reg, repo: repo}
}

// exec runs a tool and decodes its JSON payload.
func (f *fixture) exec(t *testing.T, name string, args map[string]any) map[string]any {
	t.Helper()
	result, err := f.reg.Execute(context.Background(), name, args)
	require.NoError(t, err, "tool %s", name)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Result), &out), "tool %s payload", name)
	return out
}

// execErr runs a tool expecting a failure.
func (f *fixture) execErr(t *testing.T, name string, args map[string]any) error {
	t.Helper()
	_, err := f.reg.Execute(context.Background(), name, args)
	require.Error(t, err, "tool %s", name)
	return err
}

// start opens an inspection on the default checklist and returns its id.
func (f *fixture) start(t *testing.T) string {
	t.Helper()
	out := f.exec(t, "start_inspection", map[string]any{"property": "12 Oak Lane"})
	id, _ := out["inspection_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestToolsetRegistersAllTools(t *testing.T) {
	f := newFixture(t)
	want := []string{
		"add_finding", "cancel_inspection", "complete_inspection",
		"get_status", "list_checklists", "match_comment",
		"navigate_section", "start_inspection", "suggest_next",
	}
	assert.Equal(t, want, f.reg.Names())
}

func TestStartInspectionDefaultChecklist(t *testing.T) {
	f := newFixture(t)

	out := f.exec(t, "start_inspection", map[string]any{
		"property":  "12 Oak Lane",
		"inspector": "R. Hale",
	})

	id := out["inspection_id"].(string)
	assert.True(t, strings.HasPrefix(id, "insp_"), "id %q", id)
	assert.Equal(t, "residential", out["checklist"])
	assert.Equal(t, "Residential Checklist", out["checklist_name"])
	assert.Equal(t, string(inspection.StatusStarted), out["status"])
	assert.Equal(t, "exterior", out["current_section"])

	section := out["section"].(map[string]any)
	assert.Equal(t, "Exterior", section["name"])
	assert.Equal(t, "Inspect the exterior of the building.", section["prompt"])

	stored := f.repo.inspections[id]
	require.NotNil(t, stored)
	assert.Equal(t, "12 Oak Lane", stored.Property)
	assert.Equal(t, "R. Hale", stored.Inspector)
}

func TestStartInspectionNamedChecklist(t *testing.T) {
	f := newFixture(t)

	out := f.exec(t, "start_inspection", map[string]any{"checklist": "pool"})
	assert.Equal(t, "pool", out["checklist"])
	assert.Equal(t, "barrier", out["current_section"])

	err := f.execErr(t, "start_inspection", map[string]any{"checklist": "marina"})
	assert.Contains(t, err.Error(), `checklist "marina" not found`)
	assert.Contains(t, err.Error(), "pool")
}

func TestAddFindingMatchesComment(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	out := f.exec(t, "add_finding", map[string]any{
		"inspection_id": id,
		"text":          "heavy rust and corrosion on the roof sheets",
		"section":       "exterior.roof",
		"severity":      "major",
	})

	assert.Equal(t, "exterior.roof", out["section"])
	assert.Equal(t, "major", out["severity"])

	match := out["match"].(map[string]any)
	assert.Equal(t, true, match["matched"])
	assert.Equal(t, "Surface rust was noted on the roof sheeting.", match["comment"])
	assert.Equal(t, "exact", match["confidence"])

	findings := f.repo.findings[id]
	require.Len(t, findings, 1)
	assert.Equal(t, "Surface rust was noted on the roof sheeting.", findings[0].MatchedComment)
	assert.Equal(t, inspection.SeverityMajor, findings[0].Severity)
}

func TestAddFindingDefaults(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	out := f.exec(t, "add_finding", map[string]any{
		"inspection_id": id,
		"text":          "downpipe disconnected at rear corner",
	})

	// Defaults: current section, info severity.
	assert.Equal(t, "exterior", out["section"])
	assert.Equal(t, "info", out["severity"])

	match := out["match"].(map[string]any)
	assert.Equal(t, false, match["matched"])

	findings := f.repo.findings[id]
	require.Len(t, findings, 1)
	assert.Empty(t, findings[0].MatchedComment)
}

func TestAddFindingRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	err := f.execErr(t, "add_finding", map[string]any{
		"inspection_id": id,
		"text":          "paint flaking",
		"severity":      "catastrophic",
	})
	assert.Contains(t, err.Error(), "invalid severity")

	err = f.execErr(t, "add_finding", map[string]any{
		"inspection_id": "insp_missing",
		"text":          "paint flaking",
	})
	assert.ErrorIs(t, err, inspection.ErrNotFound)

	err = f.execErr(t, "add_finding", map[string]any{
		"inspection_id": id,
		"text":          "",
	})
	assert.Contains(t, err.Error(), "text cannot be empty")
}

func TestNavigateSectionTool(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	out := f.exec(t, "navigate_section", map[string]any{
		"inspection_id": id,
		"section":       "interior",
	})

	assert.Equal(t, "exterior", out["previous_section"])
	assert.Equal(t, string(inspection.StatusInProgress), out["status"])
	section := out["section"].(map[string]any)
	assert.Equal(t, "Interior", section["name"])

	err := f.execErr(t, "navigate_section", map[string]any{
		"inspection_id": id,
		"section":       "basement",
	})
	var invalid *navigation.InvalidSectionError
	assert.ErrorAs(t, err, &invalid)
}

func TestGetStatusTool(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	f.exec(t, "add_finding", map[string]any{
		"inspection_id": id,
		"text":          "rust on roof",
		"section":       "exterior.roof",
	})

	out := f.exec(t, "get_status", map[string]any{"inspection_id": id})

	progress := out["progress"].(map[string]any)
	// Flattened: exterior, exterior.roof, interior.
	assert.Equal(t, float64(3), progress["total"])
	assert.Equal(t, float64(1), progress["completed"])
	assert.Equal(t, float64(33), progress["percentage"])
	assert.Equal(t, false, out["can_complete"])
	assert.Equal(t, float64(1), out["total_findings"])
}

func TestSuggestNextTool(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	out := f.exec(t, "suggest_next", map[string]any{"inspection_id": id})

	suggested := out["suggested"].(map[string]any)
	assert.Equal(t, "exterior.roof", suggested["id"])
	assert.Contains(t, out["message"], "visit at least")
}

func TestCompleteInspectionGated(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	// 0 of 3 visited: refused.
	err := f.execErr(t, "complete_inspection", map[string]any{"inspection_id": id})
	assert.Contains(t, err.Error(), "cannot be completed yet")
	assert.Contains(t, err.Error(), "0 of 3")
	assert.Equal(t, inspection.StatusStarted, f.repo.inspections[id].Status)

	// 2 of 3 visited clears ceil(3*0.5) = 2.
	f.exec(t, "add_finding", map[string]any{"inspection_id": id, "text": "rust", "section": "exterior"})
	f.exec(t, "add_finding", map[string]any{"inspection_id": id, "text": "cracking", "section": "interior"})

	out := f.exec(t, "complete_inspection", map[string]any{"inspection_id": id})
	assert.Equal(t, string(inspection.StatusCompleted), out["status"])
	assert.Equal(t, inspection.BucketMinor, out["conclusion"])
	assert.Equal(t, inspection.StatusCompleted, f.repo.inspections[id].Status)
}

func TestCompleteInspectionConclusionText(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	f.exec(t, "add_finding", map[string]any{
		"inspection_id": id, "text": "rust", "section": "exterior", "severity": "major",
	})
	f.exec(t, "add_finding", map[string]any{
		"inspection_id": id, "text": "cracking", "section": "interior", "severity": "minor",
	})

	// Worst severity major folds to attention; the library carries that bucket.
	out := f.exec(t, "complete_inspection", map[string]any{"inspection_id": id})
	assert.Equal(t, inspection.BucketAttention, out["conclusion"])
	assert.Contains(t, out["conclusion_text"], "attention")
}

func TestCancelInspection(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	out := f.exec(t, "cancel_inspection", map[string]any{"inspection_id": id})
	assert.Equal(t, string(inspection.StatusCancelled), out["status"])
	assert.Equal(t, inspection.StatusCancelled, f.repo.inspections[id].Status)
}

func TestCancelCompletedInspectionRefused(t *testing.T) {
	f := newFixture(t)
	id := f.start(t)

	f.exec(t, "add_finding", map[string]any{"inspection_id": id, "text": "rust", "section": "exterior"})
	f.exec(t, "add_finding", map[string]any{"inspection_id": id, "text": "cracking", "section": "interior"})
	f.exec(t, "complete_inspection", map[string]any{"inspection_id": id})

	err := f.execErr(t, "cancel_inspection", map[string]any{"inspection_id": id})
	assert.Contains(t, err.Error(), "already completed")
}

func TestListChecklistsTool(t *testing.T) {
	f := newFixture(t)

	out := f.exec(t, "list_checklists", map[string]any{})
	assert.Equal(t, "residential", out["default"])

	entries := out["checklists"].([]any)
	require.Len(t, entries, 2)

	byID := map[string]map[string]any{}
	for _, e := range entries {
		entry := e.(map[string]any)
		byID[entry["id"].(string)] = entry
	}
	require.Contains(t, byID, "residential")
	require.Contains(t, byID, "pool")
	assert.Equal(t, "AS 4349.1", byID["residential"]["standard"])
	assert.Len(t, byID["residential"]["sections"].([]any), 3)
	assert.Len(t, byID["pool"]["sections"].([]any), 1)
}

func TestMatchCommentTool(t *testing.T) {
	f := newFixture(t)

	out := f.exec(t, "match_comment", map[string]any{
		"text":    "minor rust spots forming",
		"section": "exterior.roof",
	})
	assert.Equal(t, true, out["matched"])
	assert.Equal(t, "partial", out["confidence"])
	assert.Equal(t, "Surface rust was noted on the roof sheeting.", out["comment"])

	out = f.exec(t, "match_comment", map[string]any{"text": "everything immaculate"})
	assert.Equal(t, false, out["matched"])
	assert.Equal(t, "none", out["confidence"])

	err := f.execErr(t, "match_comment", map[string]any{"text": ""})
	assert.Contains(t, err.Error(), "text cannot be empty")
}
