package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create profiles and semesters tables
-- Version: 001

CREATE TABLE IF NOT EXISTS profiles (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    registration VARCHAR(50) NOT NULL UNIQUE,
    student_name VARCHAR(200) NOT NULL DEFAULT '',
    track_mode BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_profiles_registration ON profiles(registration);

-- Semester buckets. A bucket may be empty (forecast buckets start that way),
-- so bucket identity is stored separately from courses.
CREATE TABLE IF NOT EXISTS semesters (
    id SERIAL PRIMARY KEY,
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    name VARCHAR(100) NOT NULL,
    original_name VARCHAR(200) NOT NULL DEFAULT '',
    is_forecast BOOLEAN NOT NULL DEFAULT FALSE,
    is_track_forecast BOOLEAN NOT NULL DEFAULT FALSE,

    UNIQUE(profile_id, name)
);

CREATE INDEX IF NOT EXISTS idx_semesters_profile_id ON semesters(profile_id);
`

const migration001Down = `
DROP TABLE IF EXISTS semesters;
DROP TABLE IF EXISTS profiles;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE COURSES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create courses table
-- Version: 002

-- Stored facts only. Quality points, repeat flags, and all aggregates are
-- derived values recomputed when a profile is loaded.
CREATE TABLE IF NOT EXISTS courses (
    id SERIAL PRIMARY KEY,
    profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    semester_name VARCHAR(100) NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,

    code VARCHAR(50) NOT NULL,
    title VARCHAR(300) NOT NULL DEFAULT '',
    teacher VARCHAR(200) NOT NULL DEFAULT '',
    credit_hours INTEGER NOT NULL DEFAULT 0,
    credit_hours_display VARCHAR(30) NOT NULL DEFAULT '',
    marks DOUBLE PRECISION NOT NULL DEFAULT 0,
    grade VARCHAR(5) NOT NULL DEFAULT '',
    is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
    is_custom BOOLEAN NOT NULL DEFAULT FALSE,
    source VARCHAR(20) NOT NULL DEFAULT 'lms',
    original_semester VARCHAR(100) NOT NULL DEFAULT '',

    mid_marks VARCHAR(20) NOT NULL DEFAULT '',
    assignment_marks VARCHAR(20) NOT NULL DEFAULT '',
    final_marks VARCHAR(20) NOT NULL DEFAULT '',
    practical_marks VARCHAR(20) NOT NULL DEFAULT '',

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_source CHECK (source IN ('lms', 'attendance', 'manual')),
    CONSTRAINT valid_credit_hours CHECK (credit_hours >= 0)
);

CREATE INDEX IF NOT EXISTS idx_courses_profile_id ON courses(profile_id);
CREATE INDEX IF NOT EXISTS idx_courses_profile_semester ON courses(profile_id, semester_name, position);
CREATE INDEX IF NOT EXISTS idx_courses_code ON courses(code);
`

const migration002Down = `
DROP TABLE IF EXISTS courses;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_profiles",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_courses",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}
