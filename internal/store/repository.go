package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inspectd/internal/inspection"
	"inspectd/internal/logging"
)

var _ inspection.Repository = (*Store)(nil)

// CreateInspection persists a new inspection record.
func (s *Store) CreateInspection(ctx context.Context, insp *inspection.Inspection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inspections (id, checklist_id, property, inspector, current_section, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		insp.ID, insp.ChecklistID, insp.Property, insp.Inspector,
		insp.CurrentSection, string(insp.Status), insp.CreatedAt, insp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating inspection %s: %w", insp.ID, err)
	}

	logging.Store("Created inspection %s (checklist=%s, property=%s)", insp.ID, insp.ChecklistID, insp.Property)
	return nil
}

// GetInspection fetches an inspection by id. Soft-deleted records are
// treated as absent.
func (s *Store) GetInspection(ctx context.Context, id string) (*inspection.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, checklist_id, property, inspector, current_section, status, created_at, updated_at, completed_at
		 FROM inspections WHERE id = ? AND deleted_at IS NULL`, id)

	var insp inspection.Inspection
	var status string
	var completedAt sql.NullTime
	err := row.Scan(&insp.ID, &insp.ChecklistID, &insp.Property, &insp.Inspector,
		&insp.CurrentSection, &status, &insp.CreatedAt, &insp.UpdatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching inspection %s: %w", id, err)
	}

	insp.Status = inspection.Status(status)
	if completedAt.Valid {
		t := completedAt.Time
		insp.CompletedAt = &t
	}
	return &insp, nil
}

// ListInspections returns all live inspections, newest first.
func (s *Store) ListInspections(ctx context.Context) ([]*inspection.Inspection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, checklist_id, property, inspector, current_section, status, created_at, updated_at, completed_at
		 FROM inspections WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing inspections: %w", err)
	}
	defer rows.Close()

	var out []*inspection.Inspection
	for rows.Next() {
		var insp inspection.Inspection
		var status string
		var completedAt sql.NullTime
		if err := rows.Scan(&insp.ID, &insp.ChecklistID, &insp.Property, &insp.Inspector,
			&insp.CurrentSection, &status, &insp.CreatedAt, &insp.UpdatedAt, &completedAt); err != nil {
			logging.StoreDebug("Skipping unreadable inspection row: %v", err)
			continue
		}
		insp.Status = inspection.Status(status)
		if completedAt.Valid {
			t := completedAt.Time
			insp.CompletedAt = &t
		}
		out = append(out, &insp)
	}
	return out, nil
}

// UpdateSection moves an inspection to a new current section and status
// in one write.
func (s *Store) UpdateSection(ctx context.Context, id, section string, status inspection.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE inspections SET current_section = ?, status = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		section, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("updating inspection %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inspection.ErrNotFound
	}

	logging.StoreDebug("Inspection %s now at section %s (%s)", id, section, status)
	return nil
}

// UpdateStatus changes an inspection's lifecycle status. Completing an
// inspection also stamps completed_at.
func (s *Store) UpdateStatus(ctx context.Context, id string, status inspection.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var res sql.Result
	var err error
	if status == inspection.StatusCompleted {
		res, err = s.db.ExecContext(ctx,
			`UPDATE inspections SET status = ?, updated_at = ?, completed_at = ?
			 WHERE id = ? AND deleted_at IS NULL`,
			string(status), now, now, id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE inspections SET status = ?, updated_at = ?
			 WHERE id = ? AND deleted_at IS NULL`,
			string(status), now, id)
	}
	if err != nil {
		return fmt.Errorf("updating inspection %s status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inspection.ErrNotFound
	}

	logging.Store("Inspection %s status -> %s", id, status)
	return nil
}

// DeleteInspection soft-deletes an inspection. Its findings are kept for
// any report already generated from them.
func (s *Store) DeleteInspection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE inspections SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("deleting inspection %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return inspection.ErrNotFound
	}

	logging.Store("Soft-deleted inspection %s", id)
	return nil
}

// AddFinding records a finding against a live inspection.
func (s *Store) AddFinding(ctx context.Context, f *inspection.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM inspections WHERE id = ? AND deleted_at IS NULL`,
		f.InspectionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("adding finding: %w", inspection.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("adding finding: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO findings (id, inspection_id, section, text, severity, matched_comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.InspectionID, f.Section, f.Text, string(f.Severity), f.MatchedComment, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("adding finding to %s: %w", f.InspectionID, err)
	}

	logging.StoreDebug("Finding %s recorded for %s section %s", f.ID, f.InspectionID, f.Section)
	return nil
}

// ListFindings returns an inspection's findings in the order they were
// recorded. An unknown inspection id yields an empty list.
func (s *Store) ListFindings(ctx context.Context, inspectionID string) ([]*inspection.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, inspection_id, section, text, severity, matched_comment, created_at
		 FROM findings WHERE inspection_id = ? ORDER BY created_at ASC, id ASC`,
		inspectionID)
	if err != nil {
		return nil, fmt.Errorf("listing findings for %s: %w", inspectionID, err)
	}
	defer rows.Close()

	var out []*inspection.Finding
	for rows.Next() {
		var f inspection.Finding
		var severity string
		var matched sql.NullString
		if err := rows.Scan(&f.ID, &f.InspectionID, &f.Section, &f.Text, &severity, &matched, &f.CreatedAt); err != nil {
			logging.StoreDebug("Skipping unreadable finding row: %v", err)
			continue
		}
		f.Severity = inspection.Severity(severity)
		f.MatchedComment = matched.String
		out = append(out, &f)
	}
	return out, nil
}
