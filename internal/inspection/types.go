// Package inspection provides the shared domain types for building
// inspections: the inspection record, the findings recorded against
// checklist sections, and the persistence interface consumed by the
// navigation engine and the MCP tools. This package exists so that
// navigation, store, and mcp can share these types without import cycles.
package inspection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an inspection.
type Status string

const (
	StatusStarted    Status = "STARTED"     // Created, no navigation recorded yet
	StatusInProgress Status = "IN_PROGRESS" // At least one section change recorded
	StatusCompleted  Status = "COMPLETED"   // Finalized by the inspector
	StatusCancelled  Status = "CANCELLED"   // Abandoned without completion
)

// Severity classifies a single finding.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityMinor  Severity = "minor"
	SeverityMajor  Severity = "major"
	SeverityUrgent Severity = "urgent"
)

// ValidSeverity reports whether s names a recognized finding severity.
func ValidSeverity(s string) bool {
	switch Severity(s) {
	case SeverityInfo, SeverityMinor, SeverityMajor, SeverityUrgent:
		return true
	}
	return false
}

// Conclusion buckets keyed in checklist and comment-library conclusion maps.
const (
	BucketGood      = "good"
	BucketMinor     = "minor"
	BucketAttention = "attention"
	BucketUrgent    = "urgent"
)

// Inspection is one inspection visit to a property. The navigation engine
// reads and writes CurrentSection and Status; everything else is metadata
// captured at creation.
type Inspection struct {
	ID             string     `json:"id"`
	ChecklistID    string     `json:"checklist_id"`
	Property       string     `json:"property"` // Street address of the inspected property
	Inspector      string     `json:"inspector,omitempty"`
	CurrentSection string     `json:"current_section"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Finding is a free-text observation recorded against a section or
// composite subarea id during an inspection.
type Finding struct {
	ID             string    `json:"id"`
	InspectionID   string    `json:"inspection_id"`
	Section        string    `json:"section"`
	Text           string    `json:"text"`
	Severity       Severity  `json:"severity"`
	MatchedComment string    `json:"matched_comment,omitempty"` // Boilerplate attached by the comment matcher
	CreatedAt      time.Time `json:"created_at"`
}

// New creates an inspection positioned at the checklist's first section.
func New(checklistID, property, inspector, firstSection string) *Inspection {
	now := time.Now()
	return &Inspection{
		ID:             fmt.Sprintf("insp_%s", uuid.New().String()[:8]),
		ChecklistID:    checklistID,
		Property:       property,
		Inspector:      inspector,
		CurrentSection: firstSection,
		Status:         StatusStarted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewFinding creates a finding for the given inspection and section.
func NewFinding(inspectionID, section, text string, severity Severity) *Finding {
	return &Finding{
		ID:           uuid.NewString(),
		InspectionID: inspectionID,
		Section:      section,
		Text:         text,
		Severity:     severity,
		CreatedAt:    time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNotFound is returned when an inspection id does not exist.
	ErrNotFound = errors.New("inspection not found")
)

// -----------------------------------------------------------------------------
// Persistence
// -----------------------------------------------------------------------------

// Repository is the persistence collaborator for inspections and findings.
// Lookups for unknown ids return ErrNotFound (possibly wrapped).
type Repository interface {
	CreateInspection(ctx context.Context, insp *Inspection) error
	GetInspection(ctx context.Context, id string) (*Inspection, error)
	ListInspections(ctx context.Context) ([]*Inspection, error)
	// UpdateSection moves an inspection to a new current section,
	// updating the lifecycle status in the same write.
	UpdateSection(ctx context.Context, id, section string, status Status) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	DeleteInspection(ctx context.Context, id string) error

	AddFinding(ctx context.Context, f *Finding) error
	ListFindings(ctx context.Context, inspectionID string) ([]*Finding, error)
}

// -----------------------------------------------------------------------------
// Finding aggregation
// -----------------------------------------------------------------------------

// CountBySection returns the number of findings recorded per section id.
func CountBySection(findings []*Finding) map[string]int {
	counts := make(map[string]int, len(findings))
	for _, f := range findings {
		counts[f.Section]++
	}
	return counts
}

func severityRank(s Severity) int {
	switch s {
	case SeverityInfo:
		return 1
	case SeverityMinor:
		return 2
	case SeverityMajor:
		return 3
	case SeverityUrgent:
		return 4
	}
	return 0
}

// WorstSeverity folds findings into the conclusion bucket for the overall
// report: no findings reads as good, info and minor stay minor, major
// escalates to attention, and any urgent finding makes the whole
// inspection urgent.
func WorstSeverity(findings []*Finding) string {
	worst := 0
	for _, f := range findings {
		if r := severityRank(f.Severity); r > worst {
			worst = r
		}
	}
	switch worst {
	case 4:
		return BucketUrgent
	case 3:
		return BucketAttention
	case 1, 2:
		return BucketMinor
	}
	return BucketGood
}
