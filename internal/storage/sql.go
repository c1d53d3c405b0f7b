package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/bilgisen/factcheck/internal/models"
)

// Times are stored as fixed-width UTC text so they sort lexically on every driver.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		text TEXT NOT NULL,
		submitted_by TEXT NOT NULL REFERENCES users(id),
		submitted_at TEXT NOT NULL,
		ml_prediction TEXT NOT NULL,
		ml_confidence DOUBLE PRECISION NOT NULL,
		reliable_source_json TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		final_verdict TEXT,
		reviewed_by TEXT REFERENCES users(id),
		reviewed_at TEXT,
		needs_admin_review BOOLEAN NOT NULL DEFAULT FALSE,
		admin_verified BOOLEAN NOT NULL DEFAULT FALSE,
		admin_verified_by TEXT REFERENCES users(id),
		admin_verified_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_status ON articles (status)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_submitted_by ON articles (submitted_by)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_reviewed_by ON articles (reviewed_by)`,
}

var articleColumns = []string{
	"id", "title", "text", "submitted_by", "submitted_at",
	"ml_prediction", "ml_confidence", "reliable_source_json",
	"status", "final_verdict", "reviewed_by", "reviewed_at", "needs_admin_review",
	"admin_verified", "admin_verified_by", "admin_verified_at",
}

var userColumns = []string{"id", "name", "email", "password", "role", "created_at"}

// SQLStore persists records through database/sql. Queries are built with
// squirrel so the same code serves sqlite3 and postgres.
type SQLStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ Repository = (*SQLStore)(nil)

// NewSQLStore wraps db and creates the schema if needed. driver selects
// the placeholder style.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	var format sq.PlaceholderFormat = sq.Question
	if driver == "postgres" {
		format = sq.Dollar
	}

	s := &SQLStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(format),
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return s, nil
}

func (s *SQLStore) InsertArticle(ctx context.Context, a *models.Article) error {
	sources, err := json.Marshal(sourcesOrEmpty(a.Sources))
	if err != nil {
		return fmt.Errorf("encode sources: %w", err)
	}

	query, args, err := s.sb.Insert("articles").Columns(articleColumns...).Values(
		a.ID, a.Title, a.Text, a.SubmittedBy, formatTime(a.SubmittedAt),
		string(a.MLPrediction), a.MLConfidence, string(sources),
		string(a.Status), nullVerdict(a.FinalVerdict), nullString(a.ReviewedBy), nullTime(a.ReviewedAt), a.NeedsAdminReview,
		a.AdminVerified, nullString(a.AdminVerifiedBy), nullTime(a.AdminVerifiedAt),
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert article: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (s *SQLStore) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	query, args, err := s.sb.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get article: %w", err)
	}

	a, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLStore) UpdateArticle(ctx context.Context, id string, u ArticleUpdate, match Match) (int64, error) {
	if u.Empty() {
		return 0, nil
	}

	b := s.sb.Update("articles")
	if u.Status != nil {
		b = b.Set("status", string(*u.Status))
	}
	if u.FinalVerdict != nil {
		b = b.Set("final_verdict", nullVerdict(*u.FinalVerdict))
	}
	if u.ReviewedBy != nil {
		b = b.Set("reviewed_by", nullString(*u.ReviewedBy))
	}
	if u.ReviewedAt != nil {
		b = b.Set("reviewed_at", formatTime(*u.ReviewedAt))
	}
	if u.NeedsAdminReview != nil {
		b = b.Set("needs_admin_review", *u.NeedsAdminReview)
	}
	if u.AdminVerified != nil {
		b = b.Set("admin_verified", *u.AdminVerified)
	}
	if u.AdminVerifiedBy != nil {
		b = b.Set("admin_verified_by", nullString(*u.AdminVerifiedBy))
	}
	if u.AdminVerifiedAt != nil {
		b = b.Set("admin_verified_at", formatTime(*u.AdminVerifiedAt))
	}

	where := sq.Eq{"id": id}
	if match.Status != "" {
		where["status"] = string(match.Status)
	}
	if match.ReviewedBy != "" {
		where["reviewed_by"] = match.ReviewedBy
	}

	query, args, err := b.Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update article: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update article %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLStore) ListArticles(ctx context.Context, f ArticleFilter) ([]*models.Article, error) {
	b := s.sb.Select(articleColumns...).From("articles")
	if f.SubmittedBy != "" {
		b = b.Where(sq.Eq{"submitted_by": f.SubmittedBy})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.ReviewedBy != "" {
		b = b.Where(sq.Eq{"reviewed_by": f.ReviewedBy})
	}
	if f.AwaitingAdmin {
		b = b.Where(sq.Eq{"needs_admin_review": true, "admin_verified": false})
	}
	switch f.Sort {
	case SortReviewedDesc:
		b = b.OrderBy("reviewed_at DESC", "submitted_at DESC", "id")
	default:
		b = b.OrderBy("submitted_at DESC", "id")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list articles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (s *SQLStore) InsertUser(ctx context.Context, u *models.User) error {
	query, args, err := s.sb.Insert("users").Columns(userColumns...).Values(
		u.ID, u.Name, models.NormalizeEmail(u.Email), u.PasswordHash, string(u.Role), formatTime(u.CreatedAt),
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert user: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %s: %w", u.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUserWhere(ctx, sq.Eq{"id": id}, id)
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserWhere(ctx, sq.Eq{"email": models.NormalizeEmail(email)}, email)
}

func (s *SQLStore) getUserWhere(ctx context.Context, where sq.Eq, key string) (*models.User, error) {
	query, args, err := s.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", key, err)
	}
	return u, nil
}

func (s *SQLStore) ListUsers(ctx context.Context, f UserFilter) ([]*models.User, error) {
	b := s.sb.Select(userColumns...).From("users").OrderBy("email")
	if f.Role != "" {
		b = b.Where(sq.Eq{"role": string(f.Role)})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (s *SQLStore) CountUsers(ctx context.Context) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count users: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		a                                 models.Article
		submittedAt, prediction, status   string
		sourcesJSON                       string
		finalVerdict, reviewedBy, adminBy sql.NullString
		reviewedAt, adminAt               sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.Title, &a.Text, &a.SubmittedBy, &submittedAt,
		&prediction, &a.MLConfidence, &sourcesJSON,
		&status, &finalVerdict, &reviewedBy, &reviewedAt, &a.NeedsAdminReview,
		&a.AdminVerified, &adminBy, &adminAt,
	)
	if err != nil {
		return nil, err
	}

	if a.SubmittedAt, err = parseTime(submittedAt); err != nil {
		return nil, err
	}
	a.MLPrediction = models.Verdict(prediction)
	a.Status = models.Status(status)
	a.FinalVerdict = models.Verdict(finalVerdict.String)
	a.ReviewedBy = reviewedBy.String
	a.AdminVerifiedBy = adminBy.String

	if a.ReviewedAt, err = parseNullTime(reviewedAt); err != nil {
		return nil, err
	}
	if a.AdminVerifiedAt, err = parseNullTime(adminAt); err != nil {
		return nil, err
	}

	// Rows written by older tools may hold malformed JSON; fall back to no sources.
	if err := json.Unmarshal([]byte(sourcesJSON), &a.Sources); err != nil {
		a.Sources = []models.Source{}
	}
	return &a, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		role      string
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &createdAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)

	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = t
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullVerdict(v models.Verdict) sql.NullString {
	return nullString(string(v))
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func sourcesOrEmpty(s []models.Source) []models.Source {
	if s == nil {
		return []models.Source{}
	}
	return s
}
