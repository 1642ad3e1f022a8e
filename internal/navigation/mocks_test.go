package navigation

import (
	"context"
	"fmt"

	"inspectd/internal/inspection"
)

// --- MockRepository ---

// MockRepository implements inspection.Repository in memory for testing.
type MockRepository struct {
	inspections map[string]*inspection.Inspection
	findings    map[string][]*inspection.Finding
	UpdateError error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		inspections: make(map[string]*inspection.Inspection),
		findings:    make(map[string][]*inspection.Finding),
	}
}

func (m *MockRepository) seed(insp *inspection.Inspection) {
	m.inspections[insp.ID] = insp
}

func (m *MockRepository) addFinding(inspectionID, section string) {
	f := inspection.NewFinding(inspectionID, section, "test finding", inspection.SeverityMinor)
	m.findings[inspectionID] = append(m.findings[inspectionID], f)
}

func (m *MockRepository) CreateInspection(ctx context.Context, insp *inspection.Inspection) error {
	m.inspections[insp.ID] = insp
	return nil
}

func (m *MockRepository) GetInspection(ctx context.Context, id string) (*inspection.Inspection, error) {
	insp, ok := m.inspections[id]
	if !ok {
		return nil, inspection.ErrNotFound
	}
	return insp, nil
}

func (m *MockRepository) ListInspections(ctx context.Context) ([]*inspection.Inspection, error) {
	var out []*inspection.Inspection
	for _, insp := range m.inspections {
		out = append(out, insp)
	}
	return out, nil
}

func (m *MockRepository) UpdateSection(ctx context.Context, id, section string, status inspection.Status) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	insp, ok := m.inspections[id]
	if !ok {
		return inspection.ErrNotFound
	}
	insp.CurrentSection = section
	insp.Status = status
	return nil
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id string, status inspection.Status) error {
	insp, ok := m.inspections[id]
	if !ok {
		return inspection.ErrNotFound
	}
	insp.Status = status
	return nil
}

func (m *MockRepository) DeleteInspection(ctx context.Context, id string) error {
	if _, ok := m.inspections[id]; !ok {
		return inspection.ErrNotFound
	}
	delete(m.inspections, id)
	return nil
}

func (m *MockRepository) AddFinding(ctx context.Context, f *inspection.Finding) error {
	if _, ok := m.inspections[f.InspectionID]; !ok {
		return fmt.Errorf("adding finding: %w", inspection.ErrNotFound)
	}
	m.findings[f.InspectionID] = append(m.findings[f.InspectionID], f)
	return nil
}

func (m *MockRepository) ListFindings(ctx context.Context, inspectionID string) ([]*inspection.Finding, error) {
	return m.findings[inspectionID], nil
}
