package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

//go:embed schema.sql
var schema string

// Fixed width keeps lexical order equal to time order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Recorder stores run history in a local SQLite database
type Recorder struct {
	db *sql.DB
}

var _ interfaces.Reporter = (*Recorder)(nil)

// New opens (and creates if needed) the database at path
func New(ctx context.Context, path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open run history database", goerr.V("path", path))
	}

	// Single connection serializes writes from concurrent webhook runs
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to configure run history database", goerr.V("pragma", pragma))
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to migrate run history database", goerr.V("path", path))
	}

	return &Recorder{db: db}, nil
}

// Report stores report. Re-delivered runs replace the previous record.
func (r *Recorder) Report(ctx context.Context, report *model.RunReport) error {
	rec := report.Record()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE run_id = ?`, rec.RunID); err != nil {
		return goerr.Wrap(err, "failed to delete previous jobs", goerr.V("run_id", rec.RunID))
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO runs
		(run_id, event_kind, branch, head_ref, repository, commit_sha, sender, succeeded, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.EventKind, rec.Branch, rec.HeadRef, rec.Repository, rec.CommitSHA, rec.Sender,
		rec.Succeeded, formatTime(rec.StartedAt), formatTime(rec.FinishedAt),
	); err != nil {
		return goerr.Wrap(err, "failed to insert run", goerr.V("run_id", rec.RunID))
	}

	for i, j := range rec.Jobs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO jobs
			(run_id, job_id, artifact_id, artifact_path, channel, origin_channel, revision, status, error_kind, error, attempts, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, j.JobID, j.ArtifactID, j.ArtifactPath, j.Channel, j.OriginChannel, j.Revision,
			j.Status, j.ErrorKind, j.Error, j.Attempts, i,
		); err != nil {
			return goerr.Wrap(err, "failed to insert job", goerr.V("run_id", rec.RunID), goerr.V("job_id", j.JobID))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit run", goerr.V("run_id", rec.RunID))
	}
	return nil
}

// Get loads a run with its jobs, or nil if not found
func (r *Recorder) Get(ctx context.Context, runID string) (*model.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT run_id, event_kind, branch, head_ref, repository, commit_sha, sender, succeeded, started_at, finished_at
		FROM runs WHERE run_id = ?`, runID)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get run", goerr.V("run_id", runID))
	}

	rows, err := r.db.QueryContext(ctx, `SELECT job_id, artifact_id, artifact_path, channel, origin_channel, revision, status, error_kind, error, attempts
		FROM jobs WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get jobs", goerr.V("run_id", runID))
	}
	defer rows.Close()

	for rows.Next() {
		var j model.JobRecord
		if err := rows.Scan(&j.JobID, &j.ArtifactID, &j.ArtifactPath, &j.Channel, &j.OriginChannel,
			&j.Revision, &j.Status, &j.ErrorKind, &j.Error, &j.Attempts); err != nil {
			return nil, goerr.Wrap(err, "failed to scan job", goerr.V("run_id", runID))
		}
		rec.Jobs = append(rec.Jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate jobs", goerr.V("run_id", runID))
	}

	return rec, nil
}

// List returns the latest runs without their jobs, newest first
func (r *Recorder) List(ctx context.Context, limit int) ([]*model.RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT run_id, event_kind, branch, head_ref, repository, commit_sha, sender, succeeded, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var records []*model.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan run")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate runs")
	}
	return records, nil
}

// Close closes the database
func (r *Recorder) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*model.RunRecord, error) {
	var (
		rec                 model.RunRecord
		startedAt, finished string
	)
	if err := s.Scan(&rec.RunID, &rec.EventKind, &rec.Branch, &rec.HeadRef, &rec.Repository,
		&rec.CommitSHA, &rec.Sender, &rec.Succeeded, &startedAt, &finished); err != nil {
		return nil, err
	}

	var err error
	if rec.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, goerr.Wrap(err, "invalid started_at", goerr.V("value", startedAt))
	}
	if rec.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, goerr.Wrap(err, "invalid finished_at", goerr.V("value", finished))
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
