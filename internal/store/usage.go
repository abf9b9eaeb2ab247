package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adaptilearn/quizsynth/internal/llm"
)

// UsageEvent is one recorded provider call.
type UsageEvent struct {
	ID           int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	CostUSD      float64
	Success      bool
	ErrorKind    string
	ErrorMessage string
}

// QueryOpts filters usage queries. Zero values mean no filter.
type QueryOpts struct {
	Limit   int
	Purpose string
	From    time.Time // created_at >= From
	To      time.Time // created_at <= To
}

// PurposeUsage aggregates calls for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates calls for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// RecordUsage implements llm.UsageSink.
func (s *Store) RecordUsage(ctx context.Context, rec llm.UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO llm_usage
		(created_at, provider, model, purpose, input_tokens, output_tokens,
		 latency_ms, cost_usd, success, error_kind, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UnixMilli(),
		rec.Provider, rec.Model, rec.Purpose,
		rec.InputTokens, rec.OutputTokens,
		rec.LatencyMs, rec.CostUSD,
		rec.Success, rec.ErrorKind, rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("save llm usage: %w", err)
	}
	return nil
}

const usageColumns = `id, created_at, provider, model, purpose, input_tokens,
	output_tokens, latency_ms, cost_usd, success, error_kind, error_message`

// QueryUsage returns matching events, newest first.
func (s *Store) QueryUsage(ctx context.Context, opts QueryOpts) ([]UsageEvent, error) {
	var (
		where []string
		args  []any
	)
	if opts.Purpose != "" {
		where = append(where, "purpose = ?")
		args = append(args, opts.Purpose)
	}
	if !opts.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, opts.From.UnixMilli())
	}
	if !opts.To.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, opts.To.UnixMilli())
	}

	q := "SELECT " + usageColumns + " FROM llm_usage"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query llm usage: %w", err)
	}
	defer rows.Close()

	var out []UsageEvent
	for rows.Next() {
		e, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetUsage returns the event with id, or nil if it does not exist.
func (s *Store) GetUsage(ctx context.Context, id int64) (*UsageEvent, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+usageColumns+" FROM llm_usage WHERE id = ?", id)
	e, err := scanUsage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUsage(sc scanner) (UsageEvent, error) {
	var (
		e         UsageEvent
		createdAt int64
	)
	err := sc.Scan(&e.ID, &createdAt, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.CostUSD,
		&e.Success, &e.ErrorKind, &e.ErrorMessage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan llm usage: %w", err)
	}
	e.Timestamp = time.UnixMilli(createdAt)
	return e, nil
}

// UsageByPurpose aggregates calls per purpose, ordered by purpose.
func (s *Store) UsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT purpose, COUNT(*),
		SUM(CASE WHEN success THEN 0 ELSE 1 END),
		SUM(input_tokens), SUM(output_tokens), CAST(AVG(latency_ms) AS INTEGER)
		FROM llm_usage GROUP BY purpose ORDER BY purpose`)
	if err != nil {
		return nil, fmt.Errorf("usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var u PurposeUsage
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.Failures, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan purpose usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UsageByModel aggregates tokens and recorded cost per model, most
// expensive first.
func (s *Store) UsageByModel(ctx context.Context) ([]ModelUsage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT model, COUNT(*),
		SUM(input_tokens), SUM(output_tokens), SUM(cost_usd)
		FROM llm_usage GROUP BY model ORDER BY SUM(cost_usd) DESC, model`)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.CostUSD); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
