// Package demo seeds the bundled university schema used by
// "matilda run --demo perfect_database|imperfect_database", so the tool
// can be exercised without a real database on hand.
package demo

import (
	"database/sql"
	"fmt"
)

// Name identifies which bundled schema variant to build.
type Name string

const (
	PerfectDatabase   Name = "perfect_database"
	ImperfectDatabase Name = "imperfect_database"
)

// Build seeds db with the named demo schema. db must be an empty SQLite
// database (no pre-existing department/professor/student/course/
// enrollment/advisor tables).
func Build(db *sql.DB, name Name) error {
	switch name {
	case PerfectDatabase:
		return buildPerfectDatabase(db)
	case ImperfectDatabase:
		return buildImperfectDatabase(db)
	default:
		return fmt.Errorf("demo: unknown database %q, want %q or %q", name, PerfectDatabase, ImperfectDatabase)
	}
}

const schemaDDL = `
CREATE TABLE department (
	dept_id INTEGER PRIMARY KEY,
	dept_name TEXT NOT NULL
);
CREATE TABLE professor (
	prof_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	dept_id INTEGER
);
CREATE TABLE student (
	student_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	year INTEGER,
	dept_id INTEGER
);
CREATE TABLE course (
	course_id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	dept_id INTEGER
);
CREATE TABLE enrollment (
	enrollment_id INTEGER PRIMARY KEY,
	student_id INTEGER,
	course_id INTEGER
);
CREATE TABLE advisor (
	advisor_id INTEGER PRIMARY KEY,
	prof_id INTEGER,
	student_id INTEGER
);
`

func createSchema(db *sql.DB) error {
	// PRAGMA foreign_keys stays off: the imperfect variant deliberately
	// inserts dangling student_id references to exercise the validator's
	// confidence computation. The schema declares no FOREIGN KEY
	// constraints, so those inserts are accepted either way.
	if _, err := db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("demo: disabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("demo: creating schema: %w", err)
	}
	return nil
}

func insertDepartmentsAndProfessors(db *sql.DB) error {
	depts := []struct {
		id   int
		name string
	}{{1, "CS"}, {2, "Math"}}
	for _, d := range depts {
		if _, err := db.Exec("INSERT INTO department VALUES (?, ?)", d.id, d.name); err != nil {
			return fmt.Errorf("demo: inserting department %d: %w", d.id, err)
		}
	}

	for dept := 1; dept <= 2; dept++ {
		for p := 1; p <= 5; p++ {
			profID := (dept-1)*5 + p
			name := fmt.Sprintf("Prof_Dept%d_%d", dept, p)
			if _, err := db.Exec("INSERT INTO professor VALUES (?, ?, ?)", profID, name, dept); err != nil {
				return fmt.Errorf("demo: inserting professor %d: %w", profID, err)
			}
		}
	}
	return nil
}

func insertStudentsAndCourses(db *sql.DB) error {
	for dept := 1; dept <= 2; dept++ {
		for s := 1; s <= 25; s++ {
			studentID := (dept-1)*25 + s
			name := fmt.Sprintf("Student_%d_%d", dept, s)
			year := 1 + (s % 4)
			if _, err := db.Exec("INSERT INTO student VALUES (?, ?, ?, ?)", studentID, name, year, dept); err != nil {
				return fmt.Errorf("demo: inserting student %d: %w", studentID, err)
			}
		}
	}
	for dept := 1; dept <= 2; dept++ {
		for c := 1; c <= 5; c++ {
			courseID := (dept-1)*5 + c
			title := fmt.Sprintf("Course_Dept%d_%d", dept, c)
			if _, err := db.Exec("INSERT INTO course VALUES (?, ?, ?)", courseID, title, dept); err != nil {
				return fmt.Errorf("demo: inserting course %d: %w", courseID, err)
			}
		}
	}
	return nil
}

// buildPerfectDatabase seeds 50 students, 10 courses, and an enrollment
// and advisor table with no dangling student_id references: every
// discovered rule on this schema should hold with confidence 1.0.
func buildPerfectDatabase(db *sql.DB) error {
	if err := createSchema(db); err != nil {
		return err
	}
	if err := insertDepartmentsAndProfessors(db); err != nil {
		return err
	}
	if err := insertStudentsAndCourses(db); err != nil {
		return err
	}

	enrollmentID := 1
	for studentID := 1; studentID <= 50; studentID++ {
		courses := 1 + (studentID % 4)
		for c := 1; c <= courses; c++ {
			if _, err := db.Exec("INSERT INTO enrollment VALUES (?, ?, ?)", enrollmentID, studentID, c); err != nil {
				return fmt.Errorf("demo: inserting enrollment %d: %w", enrollmentID, err)
			}
			enrollmentID++
		}
	}

	advisorID := 1
	for studentID := 1; studentID <= 50; studentID++ {
		profID := ((studentID - 1) % 10) + 1
		if _, err := db.Exec("INSERT INTO advisor VALUES (?, ?, ?)", advisorID, profID, studentID); err != nil {
			return fmt.Errorf("demo: inserting advisor %d: %w", advisorID, err)
		}
		advisorID++
	}
	return nil
}

// buildImperfectDatabase seeds the same university schema as
// buildPerfectDatabase but injects dangling student_id references into
// enrollment and advisor: "enrollment → student" is discovered with
// support 81 (every enrollment row, 76 of them with a matching student)
// and confidence 76/81, and "advisor → student" with support 48 and
// confidence 45/48 (nb_occurrence=2, max_table=2, max_vars=4,
// confidence_threshold=0.9).
func buildImperfectDatabase(db *sql.DB) error {
	if err := createSchema(db); err != nil {
		return err
	}
	if err := insertDepartmentsAndProfessors(db); err != nil {
		return err
	}
	if err := insertStudentsAndCourses(db); err != nil {
		return err
	}

	const validEnrollmentCount = 76

	enrollmentID := 1
	validEnrollments := 0
outer:
	for studentID := 1; studentID <= 50; studentID++ {
		courses := 1 + (studentID % 4)
		for c := 1; c <= courses; c++ {
			if validEnrollments >= validEnrollmentCount {
				break outer
			}
			if _, err := db.Exec("INSERT INTO enrollment VALUES (?, ?, ?)", enrollmentID, studentID, c); err != nil {
				return fmt.Errorf("demo: inserting enrollment %d: %w", enrollmentID, err)
			}
			enrollmentID++
			validEnrollments++
		}
	}

	// 5 enrollments from students that do not exist in the student table.
	for _, fakeStudentID := range []int{995, 996, 997, 998, 999} {
		if _, err := db.Exec("INSERT INTO enrollment VALUES (?, ?, ?)", enrollmentID, fakeStudentID, 1); err != nil {
			return fmt.Errorf("demo: inserting dangling enrollment %d: %w", enrollmentID, err)
		}
		enrollmentID++
	}

	advisorID := 1
	for studentID := 1; studentID <= 45; studentID++ {
		profID := ((studentID - 1) % 10) + 1
		if _, err := db.Exec("INSERT INTO advisor VALUES (?, ?, ?)", advisorID, profID, studentID); err != nil {
			return fmt.Errorf("demo: inserting advisor %d: %w", advisorID, err)
		}
		advisorID++
	}

	// 3 advisor rows from students that do not exist in the student table.
	for _, fakeStudentID := range []int{997, 998, 999} {
		if _, err := db.Exec("INSERT INTO advisor VALUES (?, ?, ?)", advisorID, 1, fakeStudentID); err != nil {
			return fmt.Errorf("demo: inserting dangling advisor %d: %w", advisorID, err)
		}
		advisorID++
	}

	return nil
}
