// Package navigation implements section transitions, progress computation,
// and next-step suggestions for an inspection in progress. The engine is a
// pure coordinator: checklist structure comes from the checklist registry,
// inspection state and findings come from the injected repository, and every
// operation is a synchronous read-compute-write with no internal state.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"math"

	"inspectd/internal/checklist"
	"inspectd/internal/inspection"
	"inspectd/internal/logging"
)

// completionRatio is the fraction of sections that must be visited before
// an inspection may be completed. Policy constant, not per-checklist.
const completionRatio = 0.5

// InvalidSectionError reports a navigation target that does not exist in
// the inspection's checklist.
type InvalidSectionError struct {
	Section   string
	Checklist string
}

func (e *InvalidSectionError) Error() string {
	return fmt.Sprintf("section %q does not exist in checklist %q", e.Section, e.Checklist)
}

// Engine validates and performs section transitions and computes
// inspection progress.
type Engine struct {
	repo     inspection.Repository
	registry *checklist.Registry
}

// NewEngine creates a navigation engine over the given repository and
// checklist registry.
func NewEngine(repo inspection.Repository, registry *checklist.Registry) *Engine {
	return &Engine{repo: repo, registry: registry}
}

// NavigateResult describes a completed section transition.
type NavigateResult struct {
	InspectionID    string                  `json:"inspection_id"`
	PreviousSection string                  `json:"previous_section"`
	Section         checklist.SectionDetail `json:"section"`
	Status          inspection.Status       `json:"status"`
}

// SectionStatus is one row of the per-section progress list.
type SectionStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Visited  bool   `json:"visited"`
	Findings int    `json:"findings"`
}

// Progress summarizes visited sections against the checklist total.
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// StatusResult is the full progress report for an inspection.
type StatusResult struct {
	InspectionID   string                  `json:"inspection_id"`
	Status         inspection.Status       `json:"status"`
	Progress       Progress                `json:"progress"`
	Sections       []SectionStatus         `json:"sections"`
	CurrentSection checklist.SectionDetail `json:"current_section"`
	TotalFindings  int                     `json:"total_findings"`
	CanComplete    bool                    `json:"can_complete"`
}

// SuggestResult proposes the next section to visit.
type SuggestResult struct {
	InspectionID string                `json:"inspection_id"`
	Suggested    *checklist.SectionRef `json:"suggested,omitempty"`
	Remaining    int                   `json:"remaining"`
	CanComplete  bool                  `json:"can_complete"`
	Message      string                `json:"message"`
}

// Navigate moves an inspection to the target section or composite subarea
// id. The move validates against the inspection's checklist before any
// write: an unknown inspection fails with inspection.ErrNotFound and an
// unknown target fails with InvalidSectionError, leaving the inspection
// untouched. On success the status becomes IN_PROGRESS unconditionally.
func (e *Engine) Navigate(ctx context.Context, inspectionID, sectionID string) (*NavigateResult, error) {
	insp, err := e.repo.GetInspection(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, inspection.ErrNotFound) {
			return nil, fmt.Errorf("inspection %s: %w", inspectionID, inspection.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching inspection %s: %w", inspectionID, err)
	}

	cl := e.registry.Get(insp.ChecklistID)
	if cl == nil {
		return nil, &InvalidSectionError{Section: sectionID, Checklist: insp.ChecklistID}
	}
	detail, ok := cl.Resolve(checklist.ParseSectionID(sectionID))
	if !ok {
		return nil, &InvalidSectionError{Section: sectionID, Checklist: insp.ChecklistID}
	}

	previous := insp.CurrentSection
	if err := e.repo.UpdateSection(ctx, inspectionID, sectionID, inspection.StatusInProgress); err != nil {
		return nil, fmt.Errorf("updating inspection %s: %w", inspectionID, err)
	}

	logging.Navigation("Inspection %s moved %s -> %s", inspectionID, previous, sectionID)
	logging.Audit().InspectionNavigate(inspectionID, sectionID)

	return &NavigateResult{
		InspectionID:    inspectionID,
		PreviousSection: previous,
		Section:         detail,
		Status:          inspection.StatusInProgress,
	}, nil
}

// Status computes the progress report for an inspection. A section counts
// as visited when it has at least one recorded finding; merely viewing a
// section leaves no signal this engine can observe. Sections are counted
// over the flattened checklist order, composite subarea ids included,
// since findings and the current section address that granularity.
func (e *Engine) Status(ctx context.Context, inspectionID string) (*StatusResult, error) {
	insp, findings, err := e.fetch(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	refs := e.registry.AllSections(insp.ChecklistID)
	counts := inspection.CountBySection(findings)

	sections := make([]SectionStatus, 0, len(refs))
	visited := 0
	for _, ref := range refs {
		n := counts[ref.ID]
		if n > 0 {
			visited++
		}
		sections = append(sections, SectionStatus{
			ID:       ref.ID,
			Name:     ref.Name,
			Visited:  n > 0,
			Findings: n,
		})
	}

	total := len(refs)
	// Floor the divisor at 1 so an empty checklist yields 0%, not NaN.
	divisor := total
	if divisor < 1 {
		divisor = 1
	}
	percentage := int(math.Round(float64(visited) / float64(divisor) * 100))

	current, ok := e.registry.ResolveSection(insp.ChecklistID, checklist.ParseSectionID(insp.CurrentSection))
	if !ok {
		current = checklist.SectionDetail{ID: insp.CurrentSection}
	}

	logging.NavigationDebug("Status for %s: %d/%d visited, %d findings", inspectionID, visited, total, len(findings))

	return &StatusResult{
		InspectionID: inspectionID,
		Status:       insp.Status,
		Progress: Progress{
			Completed:  visited,
			Total:      total,
			Percentage: percentage,
		},
		Sections:       sections,
		CurrentSection: current,
		TotalFindings:  len(findings),
		CanComplete:    canComplete(visited, total),
	}, nil
}

// Suggest proposes the first unvisited section after the current one in
// checklist order, wrapping around to the start when everything after the
// current section has been visited.
func (e *Engine) Suggest(ctx context.Context, inspectionID string) (*SuggestResult, error) {
	insp, findings, err := e.fetch(ctx, inspectionID)
	if err != nil {
		return nil, err
	}

	refs := e.registry.AllSections(insp.ChecklistID)
	counts := inspection.CountBySection(findings)

	visited := 0
	remaining := 0
	currentIdx := -1
	for i, ref := range refs {
		if counts[ref.ID] > 0 {
			visited++
		} else {
			remaining++
		}
		if ref.ID == insp.CurrentSection {
			currentIdx = i
		}
	}

	total := len(refs)
	ok := canComplete(visited, total)

	result := &SuggestResult{
		InspectionID: inspectionID,
		Remaining:    remaining,
		CanComplete:  ok,
	}

	switch {
	case remaining == 0:
		result.Message = "All sections have been visited. The inspection can be completed."
	case ok:
		result.Message = fmt.Sprintf("The inspection can be completed now, or continue with the %d remaining section(s).", remaining)
	default:
		need := int(math.Ceil(float64(total)*completionRatio)) - visited
		result.Message = fmt.Sprintf("Continue the inspection: visit at least %d more section(s) before completing.", need)
	}

	if remaining > 0 {
		if next := nextUnvisited(refs, counts, currentIdx); next != nil {
			result.Suggested = next
		}
	}

	return result, nil
}

// fetch loads an inspection and its findings, mapping unknown ids to
// inspection.ErrNotFound.
func (e *Engine) fetch(ctx context.Context, inspectionID string) (*inspection.Inspection, []*inspection.Finding, error) {
	insp, err := e.repo.GetInspection(ctx, inspectionID)
	if err != nil {
		if errors.Is(err, inspection.ErrNotFound) {
			return nil, nil, fmt.Errorf("inspection %s: %w", inspectionID, inspection.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("fetching inspection %s: %w", inspectionID, err)
	}
	findings, err := e.repo.ListFindings(ctx, inspectionID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching findings for %s: %w", inspectionID, err)
	}
	return insp, findings, nil
}

// canComplete applies the completion policy: at least half of the
// checklist's sections must have a recorded finding.
func canComplete(visited, total int) bool {
	return visited >= int(math.Ceil(float64(total)*completionRatio))
}

// nextUnvisited scans forward from the position after current, wrapping
// around to the start and stopping before current again. The current
// section itself is never suggested, even when it is the only unvisited
// one. A current section not present in the list scans from the start.
func nextUnvisited(refs []checklist.SectionRef, counts map[string]int, currentIdx int) *checklist.SectionRef {
	n := len(refs)
	if n == 0 {
		return nil
	}
	start := 0
	if currentIdx >= 0 {
		start = currentIdx + 1
	}
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if currentIdx >= 0 && idx == currentIdx {
			continue
		}
		if counts[refs[idx].ID] == 0 {
			ref := refs[idx]
			return &ref
		}
	}
	return nil
}
