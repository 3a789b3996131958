// Package storage persists checks and their engine and AI results in
// SQLite or PostgreSQL. The schema is managed with embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	// PostgreSQL driver registered as "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore stores checks in a SQL database
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and applies pending migrations
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var sqlDriver string
	switch driver {
	case DriverSQLite:
		sqlDriver = "sqlite"
	case DriverPostgres:
		sqlDriver = "pgx"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if driver == DriverSQLite {
		// Single connection prevents lock conflicts
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := s.applyPragmas(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrate(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLStore) applyPragmas(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateCheck inserts a check and returns it with its id
func (s *SQLStore) CreateCheck(ctx context.Context, c NewCheck) (*Check, error) {
	return s.insertCheck(ctx, s.db, c)
}

// SaveEngineResult stores the outcome of an engine run
func (s *SQLStore) SaveEngineResult(ctx context.Context, r EngineResult) (*Result, error) {
	return s.insertEngineResult(ctx, s.db, r)
}

// CreateCheckWithResult inserts a check and its engine result in one
// transaction, so a failed result leaves no check behind
func (s *SQLStore) CreateCheckWithResult(ctx context.Context, c NewCheck, r EngineResult) (*Check, *Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	check, err := s.insertCheck(ctx, tx, c)
	if err != nil {
		return nil, nil, err
	}
	r.CheckID = check.ID
	res, err := s.insertEngineResult(ctx, tx, r)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit check %d: %w", check.ID, err)
	}
	return check, res, nil
}

func (s *SQLStore) insertCheck(ctx context.Context, q rowQuerier, c NewCheck) (*Check, error) {
	urls, err := json.Marshal(c.URLs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal urls: %w", err)
	}
	source := c.Source
	if source == "" {
		source = "web"
	}

	check := &Check{Source: source, RawInput: c.RawInput, URLs: c.URLs, CreatedAt: time.Now().UTC()}
	err = q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO checks (source, raw_input, urls, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), source, nullString(c.RawInput), string(urls), check.CreatedAt).Scan(&check.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert check: %w", err)
	}
	return check, nil
}

func (s *SQLStore) insertEngineResult(ctx context.Context, q rowQuerier, r EngineResult) (*Result, error) {
	res := &Result{
		CheckID:       r.CheckID,
		Type:          ResultEngine,
		Status:        statusOrDefault(r.Status),
		OverallStatus: r.OverallStatus,
		Has404:        r.Has404,
		HasDuplicate:  r.HasDuplicate,
		HasSeoIssues:  r.HasSeoIssues,
		Raw:           r.Raw,
		CreatedAt:     time.Now().UTC(),
	}
	err := q.QueryRowContext(ctx, s.rebind(`
		INSERT INTO check_results (
			check_id, result_type, status, overall_status,
			has_404, has_duplicate, has_seo_issues, raw_result_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), res.CheckID, res.Type, res.Status, res.OverallStatus,
		res.Has404, res.HasDuplicate, res.HasSeoIssues, nullString(string(r.Raw)), res.CreatedAt).Scan(&res.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save engine result for check %d: %w", r.CheckID, err)
	}
	return res, nil
}

// SaveAIResult stores a natural-language summary
func (s *SQLStore) SaveAIResult(ctx context.Context, checkID int64, summary, status string) (*Result, error) {
	res := &Result{
		CheckID:   checkID,
		Type:      ResultAI,
		Status:    statusOrDefault(status),
		AISummary: summary,
		CreatedAt: time.Now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO check_results (check_id, result_type, status, ai_summary, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), checkID, res.Type, res.Status, summary, res.CreatedAt).Scan(&res.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to save AI result for check %d: %w", checkID, err)
	}
	return res, nil
}

// GetCheck returns a check with all of its results
func (s *SQLStore) GetCheck(ctx context.Context, id int64) (*CheckRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, source, raw_input, urls, created_at FROM checks WHERE id = ?
	`), id)

	rec := &CheckRecord{Results: []Result{}}
	if err := scanCheck(row, &rec.Check); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get check %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, check_id, result_type, status, overall_status,
		       has_404, has_duplicate, has_seo_issues, raw_result_json, ai_summary, created_at
		FROM check_results
		WHERE check_id = ?
		ORDER BY id ASC
	`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get results for check %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                    Result
			overall, raw, aiText sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.CheckID, &r.Type, &r.Status, &overall,
			&r.Has404, &r.HasDuplicate, &r.HasSeoIssues, &raw, &aiText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.OverallStatus = overall.String
		r.AISummary = aiText.String
		if raw.Valid && raw.String != "" {
			r.Raw = json.RawMessage(raw.String)
		}
		rec.Results = append(rec.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	return rec, nil
}

// ListChecks returns the most recent checks with their latest engine flags
func (s *SQLStore) ListChecks(ctx context.Context, limit, offset int) ([]CheckSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT c.id, c.source, c.raw_input, c.urls, c.created_at,
		       r.overall_status, r.has_404, r.has_duplicate, r.has_seo_issues
		FROM checks c
		LEFT JOIN check_results r ON r.id = (
			SELECT MAX(id) FROM check_results
			WHERE check_id = c.id AND result_type = 'engine'
		)
		ORDER BY c.id DESC
		LIMIT ? OFFSET ?
	`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	defer rows.Close()

	out := []CheckSummary{}
	for rows.Next() {
		var (
			cs                      CheckSummary
			rawInput, urls, overall sql.NullString
			has404, hasDup, hasSeo  sql.NullBool
		)
		if err := rows.Scan(&cs.ID, &cs.Source, &rawInput, &urls, &cs.CreatedAt,
			&overall, &has404, &hasDup, &hasSeo); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		cs.RawInput = rawInput.String
		if err := decodeURLs(urls.String, &cs.Check); err != nil {
			return nil, err
		}
		cs.OverallStatus = overall.String
		cs.Has404 = has404.Bool
		cs.HasDuplicate = hasDup.Bool
		cs.HasSeoIssues = hasSeo.Bool
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checks: %w", err)
	}
	return out, nil
}

func scanCheck(row *sql.Row, c *Check) error {
	var rawInput, urls sql.NullString
	if err := row.Scan(&c.ID, &c.Source, &rawInput, &urls, &c.CreatedAt); err != nil {
		return err
	}
	c.RawInput = rawInput.String
	return decodeURLs(urls.String, c)
}

func decodeURLs(raw string, c *Check) error {
	c.URLs = []string{}
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &c.URLs); err != nil {
		return fmt.Errorf("failed to decode urls of check %d: %w", c.ID, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func statusOrDefault(s string) string {
	if s == "" {
		return StatusSuccess
	}
	return s
}
