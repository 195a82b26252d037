package academic

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Nurfog/bbbAPIGL/internal/model"
)

// InvitationFor returns the ledger row for one (course, student) pair, or
// nil when none exists. Absence is a signal, not an error: it tells the
// orchestrator to send a calendar invite instead of a reminder.
func (s *Store) InvitationFor(ctx context.Context, courseID int, studentID string) (*model.Invitation, error) {
	const query = `
		SELECT idcursosabiertosbbb, idAlumno, url
		FROM cursosabiertosbbbinvitacion
		WHERE idcursosabiertosbbb = ? AND idAlumno = ?`

	var inv model.Invitation
	err := s.db.QueryRowContext(ctx, query, courseID, studentID).
		Scan(&inv.CourseID, &inv.StudentID, &inv.URL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("academic: invitation for course %d student %s: %w", courseID, studentID, err)
	}
	return &inv, nil
}

// SaveInvitation records that a student has been invited. Update first so a
// re-invite refreshes the stored URL instead of duplicating the row.
func (s *Store) SaveInvitation(ctx context.Context, inv model.Invitation) error {
	const updateQuery = `
		UPDATE cursosabiertosbbbinvitacion
		SET url = ?
		WHERE idcursosabiertosbbb = ? AND idAlumno = ?`

	res, err := s.db.ExecContext(ctx, updateQuery, inv.URL, inv.CourseID, inv.StudentID)
	if err != nil {
		return fmt.Errorf("academic: update invitation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	const insertQuery = `
		INSERT INTO cursosabiertosbbbinvitacion (idcursosabiertosbbb, idAlumno, url)
		VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, insertQuery, inv.CourseID, inv.StudentID, inv.URL); err != nil {
		return fmt.Errorf("academic: insert invitation: %w", err)
	}
	return nil
}

// InvitationsForCourse lists every ledger row for a course.
func (s *Store) InvitationsForCourse(ctx context.Context, courseID int) ([]model.Invitation, error) {
	const query = `
		SELECT idcursosabiertosbbb, idAlumno, url
		FROM cursosabiertosbbbinvitacion
		WHERE idcursosabiertosbbb = ?`

	rows, err := s.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("academic: invitations for course %d: %w", courseID, err)
	}
	defer rows.Close()

	var invitations []model.Invitation
	for rows.Next() {
		var inv model.Invitation
		if err := rows.Scan(&inv.CourseID, &inv.StudentID, &inv.URL); err != nil {
			return nil, fmt.Errorf("academic: scan invitation row: %w", err)
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// DeleteInvitations drops the whole ledger for a course and reports how many
// rows went away.
func (s *Store) DeleteInvitations(ctx context.Context, courseID int) (int64, error) {
	const query = `DELETE FROM cursosabiertosbbbinvitacion WHERE idcursosabiertosbbb = ?`
	res, err := s.db.ExecContext(ctx, query, courseID)
	if err != nil {
		return 0, fmt.Errorf("academic: delete invitations for course %d: %w", courseID, err)
	}
	return res.RowsAffected()
}
