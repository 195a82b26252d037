// Package academic is the MySQL-backed store for the academic side of the
// system: the course/room link table, the invitation ledger, the session
// calendar and the enrollment roster. The schema belongs to the academic
// platform, so queries use its table and column names as-is.
package academic

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Nurfog/bbbAPIGL/internal/errs"
	"github.com/Nurfog/bbbAPIGL/internal/model"
)

type Store struct {
	db *sql.DB
}

// Open connects to the academic MySQL database. The DSN must carry
// parseTime=true so DATE and DATETIME columns scan into time.Time.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("academic: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CourseStudents returns the deliverable roster for a course: active
// enrollments only, minus the administrative registration types that must
// never receive invitations.
func (s *Store) CourseStudents(ctx context.Context, courseID int) ([]model.Student, error) {
	const query = `
		SELECT alu.idAlumno, alu.Email
		FROM detallecontrato AS detcon
		INNER JOIN alumnos AS alu ON detcon.idAlumno = alu.idAlumno
		WHERE detcon.Activo = 1
		  AND detcon.idCursoAbierto = ?
		  AND idtiporegistroacademico NOT IN (2, 3, 4, 17)`

	rows, err := s.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("academic: course %d roster: %w", courseID, err)
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.Email); err != nil {
			return nil, fmt.Errorf("academic: scan roster row: %w", err)
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// StudentEmail returns the address of one enrolled student, applying the
// same roster filter as CourseStudents.
func (s *Store) StudentEmail(ctx context.Context, studentID string, courseID int) (string, error) {
	const query = `
		SELECT alu.Email
		FROM detallecontrato AS detcon
		INNER JOIN alumnos AS alu ON detcon.idAlumno = alu.idAlumno
		WHERE detcon.Activo = 1
		  AND detcon.idCursoAbierto = ?
		  AND detcon.idAlumno = ?
		  AND idtiporegistroacademico NOT IN (2, 3, 4, 17)`

	var email string
	err := s.db.QueryRowContext(ctx, query, courseID, studentID).Scan(&email)
	if err == sql.ErrNoRows {
		return "", errs.ErrStudentNotFound
	}
	if err != nil {
		return "", fmt.Errorf("academic: student %s email: %w", studentID, err)
	}
	return email, nil
}

// CourseRoom loads the course/room link row, including the denormalized
// room fields and the weekly schedule.
func (s *Store) CourseRoom(ctx context.Context, courseID int) (*model.CourseRoom, error) {
	const query = `
		SELECT idCursoAbierto, roomId, urlSala, claveModerador, claveEspectador,
		       meetingId, friendlyId, recordId, nombreSala, idCalendario,
		       fechaInicio, fechaTermino, dias, horaInicio, horaTermino
		FROM cursosabiertosbbb
		WHERE idCursoAbierto = ?`

	var (
		cr                   model.CourseRoom
		roomID, calendarID   sql.NullString
		roomURL, modKey      sql.NullString
		viewKey, meetingID   sql.NullString
		friendlyID, recordID sql.NullString
		name, days           sql.NullString
		startDate, endDate   sql.NullTime
		startTime, endTime   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, courseID).Scan(
		&cr.CourseID, &roomID, &roomURL, &modKey, &viewKey,
		&meetingID, &friendlyID, &recordID, &name, &calendarID,
		&startDate, &endDate, &days, &startTime, &endTime,
	)
	if err == sql.ErrNoRows {
		return nil, errs.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("academic: course %d room link: %w", courseID, err)
	}

	if roomID.Valid {
		cr.RoomID = &roomID.String
	}
	if calendarID.Valid {
		cr.CalendarEventID = &calendarID.String
	}
	cr.RoomURL = roomURL.String
	cr.ModeratorKey = modKey.String
	cr.ViewerKey = viewKey.String
	cr.MeetingID = meetingID.String
	cr.FriendlyID = friendlyID.String
	cr.RecordID = recordID.String
	cr.RoomName = name.String
	cr.Days = days.String
	cr.StartDate = startDate.Time
	cr.EndDate = endDate.Time

	// TIME columns arrive as "15:04:05" strings; anchor them on the start
	// date so the event builder has full timestamps to work with.
	if cr.StartTime, err = anchorTime(startTime, cr.StartDate); err != nil {
		return nil, fmt.Errorf("academic: course %d horaInicio: %w", courseID, err)
	}
	if cr.EndTime, err = anchorTime(endTime, cr.StartDate); err != nil {
		return nil, fmt.Errorf("academic: course %d horaTermino: %w", courseID, err)
	}
	return &cr, nil
}

func anchorTime(raw sql.NullString, date time.Time) (time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("15:04:05", raw.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", raw.String, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// UpsertCourseRoom writes the room fields of the link row, creating it when
// the course has never had a room. The calendar event id is only set on
// insert; updates keep whatever event the course already has.
func (s *Store) UpsertCourseRoom(ctx context.Context, cr *model.CourseRoom) error {
	const query = `
		INSERT INTO cursosabiertosbbb
		(idCursoAbierto, roomId, urlSala, claveModerador, claveEspectador,
		 meetingId, friendlyId, recordId, nombreSala, idCalendario)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			roomId = VALUES(roomId),
			urlSala = VALUES(urlSala),
			claveModerador = VALUES(claveModerador),
			claveEspectador = VALUES(claveEspectador),
			meetingId = VALUES(meetingId),
			friendlyId = VALUES(friendlyId),
			recordId = VALUES(recordId),
			nombreSala = VALUES(nombreSala)`

	_, err := s.db.ExecContext(ctx, query,
		cr.CourseID, cr.RoomID, cr.RoomURL, cr.ModeratorKey, cr.ViewerKey,
		cr.MeetingID, cr.FriendlyID, cr.RecordID, cr.RoomName, cr.CalendarEventID,
	)
	if err != nil {
		return fmt.Errorf("academic: upsert course %d room link: %w", cr.CourseID, err)
	}
	return nil
}

// ClearRoomReferences nulls out the room fields on every course linked to
// the room. Used when the room itself is deleted.
func (s *Store) ClearRoomReferences(ctx context.Context, roomID string) error {
	const query = `
		UPDATE cursosabiertosbbb
		SET roomId = NULL, urlSala = NULL, claveModerador = NULL,
		    claveEspectador = NULL, meetingId = NULL, friendlyId = NULL,
		    recordId = NULL, nombreSala = NULL, idCalendario = NULL
		WHERE roomId = ?`

	if _, err := s.db.ExecContext(ctx, query, roomID); err != nil {
		return fmt.Errorf("academic: clear references to room %s: %w", roomID, err)
	}
	return nil
}

// SetCourseCalendarID records the recurring event backing a course.
func (s *Store) SetCourseCalendarID(ctx context.Context, courseID int, calendarEventID string) error {
	const query = `UPDATE cursosabiertosbbb SET idCalendario = ? WHERE idCursoAbierto = ?`
	if _, err := s.db.ExecContext(ctx, query, calendarEventID, courseID); err != nil {
		return fmt.Errorf("academic: set course %d calendar id: %w", courseID, err)
	}
	return nil
}

// CalendarIDForRoom returns the event id of any course linked to the room,
// or "" when none is recorded.
func (s *Store) CalendarIDForRoom(ctx context.Context, roomID string) (string, error) {
	const query = `SELECT idCalendario FROM cursosabiertosbbb WHERE roomId = ? LIMIT 1`

	var id sql.NullString
	err := s.db.QueryRowContext(ctx, query, roomID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("academic: calendar id for room %s: %w", roomID, err)
	}
	return id.String, nil
}

// UpdateSchedule rewrites a course's stored weekly schedule.
func (s *Store) UpdateSchedule(ctx context.Context, courseID int, startDate, endDate time.Time, days string, startTime, endTime time.Time) error {
	const query = `
		UPDATE cursosabiertosbbb
		SET fechaInicio = ?, fechaTermino = ?, dias = ?, horaInicio = ?, horaTermino = ?
		WHERE idCursoAbierto = ?`

	_, err := s.db.ExecContext(ctx, query,
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), days,
		startTime.Format("15:04:05"), endTime.Format("15:04:05"), courseID,
	)
	if err != nil {
		return fmt.Errorf("academic: update course %d schedule: %w", courseID, err)
	}
	return nil
}

// RefreshScheduleFromTimetable pulls the course's current timetable from the
// academic planning tables and copies it onto the link row. Returns false
// when the planning tables have no timetable for the course.
func (s *Store) RefreshScheduleFromTimetable(ctx context.Context, courseID int) (bool, error) {
	const selectQuery = `
		SELECT a.FechaInicio, a.FechaFin, b.nombrecorto, c.Horainicio, c.HoraFin
		FROM cursosabiertos AS a
		INNER JOIN combinaciondias AS b ON a.idCombinacionDias = b.idCombinacionDias
		INNER JOIN bloqueshorario AS c ON a.idBloquesHorario = c.idBloquesHorario
		WHERE a.idCursoAbierto = ?`

	var (
		startDate, endDate time.Time
		days               string
		startRaw, endRaw   string
	)
	err := s.db.QueryRowContext(ctx, selectQuery, courseID).
		Scan(&startDate, &endDate, &days, &startRaw, &endRaw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("academic: course %d timetable: %w", courseID, err)
	}

	const updateQuery = `
		UPDATE cursosabiertosbbb
		SET fechaInicio = ?, fechaTermino = ?, dias = ?, horaInicio = ?, horaTermino = ?
		WHERE idCursoAbierto = ?`

	res, err := s.db.ExecContext(ctx, updateQuery,
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), days,
		startRaw, endRaw, courseID,
	)
	if err != nil {
		return false, fmt.Errorf("academic: refresh course %d schedule: %w", courseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CoursesWithCalendarEvents lists every course that has a recurring event
// recorded, for the periodic reconciliation pass.
func (s *Store) CoursesWithCalendarEvents(ctx context.Context) ([]int, error) {
	const query = `
		SELECT idCursoAbierto FROM cursosabiertosbbb
		WHERE idCalendario IS NOT NULL AND idCalendario <> ''`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("academic: courses with events: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("academic: scan course id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteCourse removes the course/room link row.
func (s *Store) DeleteCourse(ctx context.Context, courseID int) error {
	const query = `DELETE FROM cursosabiertosbbb WHERE idCursoAbierto = ?`
	res, err := s.db.ExecContext(ctx, query, courseID)
	if err != nil {
		return fmt.Errorf("academic: delete course %d: %w", courseID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.ErrCourseNotFound
	}
	return nil
}
