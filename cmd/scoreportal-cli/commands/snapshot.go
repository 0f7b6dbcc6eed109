package commands

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"time"
	devenv "scoreportal-backend/dev/env"
	"scoreportal-backend/lib/gradestore"
	"scoreportal-backend/lib/osutil"
	"scoreportal-backend/lib/telemetry"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var (
	snapshotDb       *string
	snapshotInterval *time.Duration
)

func init() {
	snapshotDb = snapshotCmd.Flags().String("db", "grades.db", "The database to write grade snapshots to.")
	snapshotInterval = snapshotCmd.Flags().Duration("interval", 0, "Keep snapshotting at this interval until interrupted.")
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(ctx context.Context, cfg Config, store gradestore.Store) error {
	user := login(ctx, cfg)

	snapshot := gradestore.UserSnapshot{User: cfg.Username}
	for _, course := range user.Courses {
		score, ok := course.Score(course.LatestTerm())
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(score.Score, 64)
		if err != nil {
			slog.Warn(
				"skipping course with non-numeric score",
				"course", course.Name,
				"score", score.Score,
			)
			continue
		}
		snapshot.Courses = append(snapshot.Courses, gradestore.CourseSnapshot{
			Course: course.Name,
			Value:  value,
		})
	}

	err := store.Push(ctx, gradestore.PushRequest{
		Time:  time.Now(),
		Users: []gradestore.UserSnapshot{snapshot},
	})
	if err != nil {
		return err
	}
	slog.Info("recorded snapshots", "courses", len(snapshot.Courses))
	return nil
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [--db <path/to/grades.db>] [--interval <duration>]",
	Short: "Scrapes the latest-term scores of every course into the snapshot database.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		dbPath, err := devenv.ResolvePath(*snapshotDb)
		if err != nil {
			osutil.Fatal("failed to resolve db path", err)
		}
		out, err := sql.Open("sqlite", dbPath)
		if err != nil {
			osutil.Fatal("failed to open db", err)
		}
		defer out.Close()
		_, err = out.ExecContext(cmd.Context(), gradestore.Schema)
		if err != nil {
			osutil.Fatal("failed to apply db schema", err)
		}
		store := gradestore.NewStore(out)

		err = runSnapshot(cmd.Context(), cfg, store)
		if err != nil {
			osutil.Fatal("failed to push grade snapshots", err)
		}
		if *snapshotInterval <= 0 {
			return
		}

		// watch mode runs until interrupted, so it gets the process gauges
		telemetry.InstrumentPerfStats(cmd.Context())
		ticker := time.NewTicker(*snapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				err := runSnapshot(cmd.Context(), cfg, store)
				if err != nil {
					slog.Error("failed to push grade snapshots", "err", err)
				}
			case <-cmd.Context().Done():
				return
			}
		}
	},
}
