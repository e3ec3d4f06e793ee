package diary

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/2beens/fitdiary/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// Schema creates the tables used by Repo.
//
//go:embed schema.sql
var Schema string

// Repo is the postgres backed store of diary logs.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Save stores the log of userID. The returned bool reports whether a row was written.
func (r *Repo) Save(ctx context.Context, userID string, log *DiaryLogResult) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diary.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user", userID))

	logDate, err := time.Parse(DateLayout, log.Date)
	if err != nil {
		return false, fmt.Errorf("parse log date [%s]: %w", log.Date, err)
	}
	logData, err := json.Marshal(log)
	if err != nil {
		return false, fmt.Errorf("marshal log: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		INSERT INTO diary_log (user_id, log_date, diary_entry, log_data)
		VALUES ($1, $2, $3, $4)
	`,
		userID,
		logDate,
		log.DiaryEntry,
		logData,
	)
	if err != nil {
		return false, fmt.Errorf("insert diary log: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// LoadRecentEntries returns the latest limit entries of userID, oldest first.
func (r *Repo) LoadRecentEntries(ctx context.Context, userID string, limit int) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diary.recententries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user", userID))
	span.SetAttributes(attribute.Int("limit", limit))

	rows, err := r.db.Query(ctx, `
		SELECT log_date, diary_entry
		FROM diary_log
		WHERE user_id = $1
		ORDER BY log_date DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			logDate time.Time
			entry   Entry
		)
		if err := row.Scan(&logDate, &entry.DiaryEntry); err != nil {
			return Entry{}, err
		}
		entry.Date = logDate.Format(DateLayout)
		return entry, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect recent entries: %w", err)
	}

	slices.Reverse(entries)
	return entries, nil
}

// RecentLogs returns the latest limit saved logs of userID, newest first.
func (r *Repo) RecentLogs(ctx context.Context, userID string, limit int) (_ []*SavedLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diary.recentlogs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user", userID))

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, log_data, created_at
		FROM diary_log
		WHERE user_id = $1
		ORDER BY log_date DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent logs: %w", err)
	}
	defer rows.Close()

	var logs []*SavedLog
	for rows.Next() {
		var (
			saved   SavedLog
			logData []byte
		)
		if err := rows.Scan(&saved.ID, &saved.UserID, &logData, &saved.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan diary log: %w", err)
		}
		saved.Log = &DiaryLogResult{}
		if err := json.Unmarshal(logData, saved.Log); err != nil {
			return nil, fmt.Errorf("unmarshal diary log %d: %w", saved.ID, err)
		}
		logs = append(logs, &saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diary logs: %w", err)
	}

	return logs, nil
}
