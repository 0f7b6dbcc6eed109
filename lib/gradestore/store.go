// Package gradestore persists daily numeric grade snapshots so score
// history survives the portal only ever showing the current value.
package gradestore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

// NewStore wraps an already-opened database. The schema must have been
// applied, the store never migrates on its own.
func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type CourseSnapshot struct {
	Course string
	Value  float64
}

type UserSnapshot struct {
	User    string
	Courses []CourseSnapshot
}

type PushRequest struct {
	Time  time.Time
	Users []UserSnapshot
}

// Push records one snapshot per user course. Earlier snapshots from the
// same calendar day (in req.Time's location) are replaced for the pushed
// users, so repeated scrape runs within a day keep exactly one point.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	if len(req.Users) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	loc := req.Time.Location()
	dayStart := time.Date(req.Time.Year(), req.Time.Month(), req.Time.Day(), 0, 0, 0, 0, loc).Unix()
	dayEnd := time.Date(req.Time.Year(), req.Time.Month(), req.Time.Day()+1, 0, 0, 0, 0, loc).Unix()

	placeholders := make([]string, len(req.Users))
	args := []any{dayStart, dayEnd}
	for i, user := range req.Users {
		placeholders[i] = "?"
		args = append(args, user.User)
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM grade_snapshot
		WHERE time >= ? AND time < ?
		AND user_course_id IN (
			SELECT id FROM user_course WHERE user IN (`+strings.Join(placeholders, ", ")+`)
		)`,
		args...,
	)
	if err != nil {
		return err
	}

	for _, user := range req.Users {
		for _, course := range user.Courses {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO user_course (user, course) VALUES (?, ?)
				ON CONFLICT (user, course) DO NOTHING`,
				user.User, course.Course,
			)
			if err != nil {
				return err
			}

			var userCourseId int64
			err = tx.QueryRowContext(ctx, `
				SELECT id FROM user_course WHERE user = ? AND course = ?`,
				user.User, course.Course,
			).Scan(&userCourseId)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO grade_snapshot (user_course_id, time, value)
				VALUES (?, ?, ?)`,
				userCourseId, req.Time.Unix(), course.Value,
			)
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

type GradeSnapshot struct {
	Time  time.Time
	Value float64
}

type CourseSnapshotSeries struct {
	Course    string
	Snapshots []GradeSnapshot
}

// Pull returns every course series recorded for a user, snapshots in
// chronological order. An unknown user yields an empty result, not an
// error.
func (s Store) Pull(ctx context.Context, user string) ([]CourseSnapshotSeries, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uc.course, gs.time, gs.value
		FROM user_course uc
		JOIN grade_snapshot gs ON gs.user_course_id = uc.id
		WHERE uc.user = ?
		ORDER BY uc.course, gs.time`,
		user,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []CourseSnapshotSeries
	for rows.Next() {
		var course string
		var unix int64
		var value float64
		err := rows.Scan(&course, &unix, &value)
		if err != nil {
			return nil, err
		}

		snapshot := GradeSnapshot{Time: time.Unix(unix, 0), Value: value}
		if len(courses) > 0 && courses[len(courses)-1].Course == course {
			last := &courses[len(courses)-1]
			last.Snapshots = append(last.Snapshots, snapshot)
			continue
		}
		courses = append(courses, CourseSnapshotSeries{
			Course:    course,
			Snapshots: []GradeSnapshot{snapshot},
		})
	}
	return courses, rows.Err()
}
