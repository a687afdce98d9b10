package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/m-saqi/aistudio-uafcgpa/internal/domain/transcript"
	"github.com/m-saqi/aistudio-uafcgpa/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// ProfileRepository persists profiles with their semester buckets and
// courses. Loading rebuilds the full aggregate: terms are re-normalized from
// the stored bucket names and the aggregation engine recomputes quality
// points, repeat flags, and totals from the stored facts.
type ProfileRepository struct {
	conn *Connection
	log  *logger.Logger
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(conn *Connection, log *logger.Logger) *ProfileRepository {
	if log == nil {
		log = logger.Default()
	}
	return &ProfileRepository{
		conn: conn,
		log:  log.With(logger.Component("profile-repo")),
	}
}

// Save upserts the full profile, replacing its stored semester and course
// set in one transaction.
func (r *ProfileRepository) Save(ctx context.Context, p *transcript.Profile) error {
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, registration, student_name, track_mode, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				registration = EXCLUDED.registration,
				student_name = EXCLUDED.student_name,
				track_mode = EXCLUDED.track_mode,
				updated_at = EXCLUDED.updated_at
		`, p.ID, p.Registration, p.StudentName, p.TrackMode, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}

		// Full replace keeps the stored set exactly in sync with the
		// aggregate. Course volumes per profile are small.
		if _, err := tx.Exec(ctx, `DELETE FROM courses WHERE profile_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear courses: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM semesters WHERE profile_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear semesters: %w", err)
		}

		for _, name := range transcript.SortedNames(p.Semesters) {
			sem := p.Semesters[name]

			_, err := tx.Exec(ctx, `
				INSERT INTO semesters (profile_id, name, original_name, is_forecast, is_track_forecast)
				VALUES ($1, $2, $3, $4, $5)
			`, p.ID, sem.Name, sem.OriginalName, sem.IsForecast, sem.IsTrackForecast)
			if err != nil {
				return fmt.Errorf("insert semester %s: %w", sem.Name, err)
			}

			for i, c := range sem.Courses {
				_, err := tx.Exec(ctx, `
					INSERT INTO courses (
						profile_id, semester_name, position,
						code, title, teacher,
						credit_hours, credit_hours_display, marks, grade,
						is_deleted, is_custom, source, original_semester,
						mid_marks, assignment_marks, final_marks, practical_marks
					) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
				`, p.ID, sem.Name, i,
					c.Code, c.Title, c.Teacher,
					c.CreditHours, c.CreditHoursDisplay, c.Marks, c.Grade,
					c.IsDeleted, c.IsCustom, string(c.Source), c.OriginalSemester,
					c.Mid, c.Assignment, c.Final, c.Practical)
				if err != nil {
					return fmt.Errorf("insert course %s: %w", c.Code, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", transcript.ErrProfileAlreadyExists, p.Registration)
		}
		return err
	}

	r.log.Debug("profile saved",
		logger.ProfileID(p.ID),
		logger.Registration(p.Registration),
		logger.CourseCount(p.CourseCount()))

	return nil
}

// GetByRegistration loads a profile by registration number.
func (r *ProfileRepository) GetByRegistration(ctx context.Context, registration string) (*transcript.Profile, error) {
	return r.getBy(ctx, `WHERE registration = $1`, registration)
}

// GetByID loads a profile by internal ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*transcript.Profile, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *ProfileRepository) getBy(ctx context.Context, where string, arg any) (*transcript.Profile, error) {
	p := &transcript.Profile{
		Semesters: make(map[string]*transcript.Semester),
	}

	query := `
		SELECT id, registration, student_name, track_mode, created_at, updated_at
		FROM profiles ` + where

	err := r.conn.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Registration, &p.StudentName, &p.TrackMode, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, transcript.ErrProfileNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}

	if err := r.loadSemesters(ctx, p); err != nil {
		return nil, err
	}
	if err := r.loadCourses(ctx, p); err != nil {
		return nil, err
	}

	// Derived state is never trusted from storage.
	p.Recalculate()

	return p, nil
}

func (r *ProfileRepository) loadSemesters(ctx context.Context, p *transcript.Profile) error {
	rows, err := r.conn.Query(ctx, `
		SELECT name, original_name, is_forecast, is_track_forecast
		FROM semesters
		WHERE profile_id = $1
	`, p.ID)
	if err != nil {
		return fmt.Errorf("query semesters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, originalName string
		var isForecast, isTrackForecast bool

		if err := rows.Scan(&name, &originalName, &isForecast, &isTrackForecast); err != nil {
			return fmt.Errorf("scan semester: %w", err)
		}

		sem := transcript.NewSemester(transcript.NormalizeTerm(name), originalName)
		sem.IsForecast = isForecast
		sem.IsTrackForecast = isTrackForecast
		p.Semesters[sem.Name] = sem
	}

	return rows.Err()
}

func (r *ProfileRepository) loadCourses(ctx context.Context, p *transcript.Profile) error {
	rows, err := r.conn.Query(ctx, `
		SELECT semester_name, code, title, teacher,
			credit_hours, credit_hours_display, marks, grade,
			is_deleted, is_custom, source, original_semester,
			mid_marks, assignment_marks, final_marks, practical_marks
		FROM courses
		WHERE profile_id = $1
		ORDER BY semester_name, position
	`, p.ID)
	if err != nil {
		return fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var semesterName, source string
		c := &transcript.Course{}

		err := rows.Scan(&semesterName, &c.Code, &c.Title, &c.Teacher,
			&c.CreditHours, &c.CreditHoursDisplay, &c.Marks, &c.Grade,
			&c.IsDeleted, &c.IsCustom, &source, &c.OriginalSemester,
			&c.Mid, &c.Assignment, &c.Final, &c.Practical)
		if err != nil {
			return fmt.Errorf("scan course: %w", err)
		}

		c.Source = transcript.Source(source)
		c.QualityPoints = transcript.QualityPoints(c.Marks, c.CreditHours, c.Grade)

		sem, ok := p.Semesters[semesterName]
		if !ok {
			// A course without its bucket row. Rebuild the bucket from the
			// stored name rather than dropping the record.
			sem = transcript.NewSemester(transcript.NormalizeTerm(semesterName), semesterName)
			p.Semesters[sem.Name] = sem
		}
		sem.Courses = append(sem.Courses, c)
	}

	return rows.Err()
}

// ListRegistrations returns the registration numbers of all stored profiles,
// oldest refresh first. The background worker walks this list.
func (r *ProfileRepository) ListRegistrations(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT registration FROM profiles ORDER BY updated_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	var registrations []string
	for rows.Next() {
		var registration string
		if err := rows.Scan(&registration); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		registrations = append(registrations, registration)
	}

	return registrations, rows.Err()
}

// Delete removes a profile and all its courses.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return transcript.ErrProfileNotFound
	}

	r.log.Info("profile deleted", logger.ProfileID(id))
	return nil
}

var _ transcript.Repository = (*ProfileRepository)(nil)
