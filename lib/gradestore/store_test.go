package gradestore

import (
	"context"
	"database/sql"
	"testing"
	"time"
	"scoreportal-backend/lib/telemetry"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) Store {
	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	_, err = sqlite.Exec(Schema)
	require.NoError(t, err)
	return NewStore(sqlite)
}

func TestStore(t *testing.T) {
	defer telemetry.SetupForTesting(t, "gradestore-test")()

	store := testStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	res, err := store.Pull(ctx, "unknown-user")
	require.NoError(t, err)
	require.Len(t, res, 0)

	day1 := time.Date(2025, time.September, 5, 16, 0, 0, 0, time.UTC)
	err = store.Push(ctx, PushRequest{
		Time: day1,
		Users: []UserSnapshot{
			{
				User: "alice",
				Courses: []CourseSnapshot{
					{Course: "physics", Value: 24},
					{Course: "math", Value: 48},
				},
			},
			{
				User: "bob",
				Courses: []CourseSnapshot{
					{Course: "chemistry", Value: 38},
				},
			},
		},
	})
	require.NoError(t, err)

	err = store.Push(ctx, PushRequest{
		Time: day1.Add(time.Hour * 24),
		Users: []UserSnapshot{
			{
				User: "alice",
				Courses: []CourseSnapshot{
					{Course: "physics", Value: 27},
					{Course: "math", Value: 48},
				},
			},
		},
	})
	require.NoError(t, err)

	res, err = store.Pull(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, res, 2)

	var math CourseSnapshotSeries
	var physics CourseSnapshotSeries
	for _, c := range res {
		switch c.Course {
		case "physics":
			physics = c
		case "math":
			math = c
		}
	}
	require.Len(t, physics.Snapshots, 2)
	require.Len(t, math.Snapshots, 2)
	require.Equal(t, 24.0, physics.Snapshots[0].Value)
	require.Equal(t, 27.0, physics.Snapshots[1].Value)

	// bob's series is untouched by alice's pushes
	res, err = store.Pull(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "chemistry", res[0].Course)
}

func TestStoreSameDayReplacement(t *testing.T) {
	defer telemetry.SetupForTesting(t, "gradestore-test")()

	store := testStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	morning := time.Date(2025, time.September, 5, 8, 0, 0, 0, time.UTC)
	evening := morning.Add(time.Hour * 10)

	err := store.Push(ctx, PushRequest{
		Time: morning,
		Users: []UserSnapshot{
			{User: "alice", Courses: []CourseSnapshot{{Course: "physics", Value: 80}}},
		},
	})
	require.NoError(t, err)

	err = store.Push(ctx, PushRequest{
		Time: evening,
		Users: []UserSnapshot{
			{User: "alice", Courses: []CourseSnapshot{{Course: "physics", Value: 85}}},
		},
	})
	require.NoError(t, err)

	// two pushes on one day collapse to the later snapshot
	res, err := store.Pull(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Len(t, res[0].Snapshots, 1)
	require.Equal(t, 85.0, res[0].Snapshots[0].Value)
	require.Equal(t, evening.Unix(), res[0].Snapshots[0].Time.Unix())
}
