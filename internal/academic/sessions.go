package academic

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nurfog/bbbAPIGL/internal/errs"
	"github.com/Nurfog/bbbAPIGL/internal/model"
)

// ActiveSessions returns the course's live session calendar ordered by date.
// Suspended rows are history and are excluded.
func (s *Store) ActiveSessions(ctx context.Context, courseID int) ([]model.CourseSession, error) {
	const query = `
		SELECT idCursoAbierto, SesionNumero, Fecha, TipoSesion, Activo, FechaNuevaSesion
		FROM cursosabiertossesiones
		WHERE idCursoAbierto = ? AND Activo = 1
		ORDER BY Fecha ASC`
	return s.querySessions(ctx, query, courseID)
}

// Sessions returns every session row for a course, suspended history
// included.
func (s *Store) Sessions(ctx context.Context, courseID int) ([]model.CourseSession, error) {
	const query = `
		SELECT idCursoAbierto, SesionNumero, Fecha, TipoSesion, Activo, FechaNuevaSesion
		FROM cursosabiertossesiones
		WHERE idCursoAbierto = ?`
	return s.querySessions(ctx, query, courseID)
}

func (s *Store) querySessions(ctx context.Context, query string, courseID int) ([]model.CourseSession, error) {
	rows, err := s.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("academic: sessions for course %d: %w", courseID, err)
	}
	defer rows.Close()

	var sessions []model.CourseSession
	for rows.Next() {
		var (
			sess    model.CourseSession
			status  sql.NullString
			movedTo sql.NullTime
		)
		if err := rows.Scan(&sess.CourseID, &sess.Number, &sess.Date, &status, &sess.Active, &movedTo); err != nil {
			return nil, fmt.Errorf("academic: scan session row: %w", err)
		}
		sess.Status = status.String
		if movedTo.Valid {
			sess.MovedTo = &movedTo.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Session loads the active row for one session number.
func (s *Store) Session(ctx context.Context, courseID, number int) (*model.CourseSession, error) {
	const query = `
		SELECT idCursoAbierto, SesionNumero, Fecha, TipoSesion, Activo, FechaNuevaSesion, idCalendario
		FROM cursosabiertossesiones
		WHERE idCursoAbierto = ? AND SesionNumero = ? AND Activo = 1`

	var (
		sess       model.CourseSession
		status     sql.NullString
		movedTo    sql.NullTime
		calendarID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, courseID, number).
		Scan(&sess.CourseID, &sess.Number, &sess.Date, &status, &sess.Active, &movedTo, &calendarID)
	if err == sql.ErrNoRows {
		return nil, errs.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("academic: session %d of course %d: %w", number, courseID, err)
	}
	sess.Status = status.String
	if movedTo.Valid {
		sess.MovedTo = &movedTo.Time
	}
	if calendarID.Valid {
		sess.CalendarEventID = &calendarID.String
	}
	return &sess, nil
}

// RescheduleSession moves a session to a new date without losing history:
// the active row is suspended with a pointer to the new date, then a fresh
// active row is inserted for that date, carrying the standalone event id.
func (s *Store) RescheduleSession(ctx context.Context, courseID, number int, newDate time.Time, calendarEventID *string) error {
	const suspendQuery = `
		UPDATE cursosabiertossesiones
		SET Activo = 0, TipoSesion = ?, FechaNuevaSesion = ?
		WHERE idCursoAbierto = ? AND SesionNumero = ? AND Activo = 1`

	res, err := s.db.ExecContext(ctx, suspendQuery,
		model.SessionSuspended, newDate.Format("2006-01-02"), courseID, number)
	if err != nil {
		return fmt.Errorf("academic: suspend session %d of course %d: %w", number, courseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrSessionNotFound
	}

	const insertQuery = `
		INSERT INTO cursosabiertossesiones
		(idCursoAbierto, SesionNumero, Fecha, TipoSesion, Activo, FechaNuevaSesion, idCalendario)
		VALUES (?, ?, ?, ?, 1, NULL, ?)`

	_, err = s.db.ExecContext(ctx, insertQuery,
		courseID, number, newDate.Format("2006-01-02"), model.SessionNormal, calendarEventID)
	if err != nil {
		return fmt.Errorf("academic: insert rescheduled session %d of course %d: %w", number, courseID, err)
	}
	return nil
}
