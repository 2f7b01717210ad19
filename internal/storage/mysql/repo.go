package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertBusiness(ctx context.Context, b domain.Business) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertBusinessSQL, b.Name, b.DatasetID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*14) // 14 params per row
	for _, rv := range rs {
		// Columns (from insertReviewsPrefix):
		// (business_id, review_url, author, stars, title, `text`, published_at,
		//  response_text, response_at, sentiment, staff, themes, lang, raw)
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			rv.BusinessID,
			valStr(rv.ReviewURL),
			valStr(rv.Author),
			rv.Stars,
			valStr(rv.Title),
			valStr(rv.Text),
			valTime(rv.PublishedAt),
			valStr(rv.ResponseText),
			valTime(rv.ResponseAt),
			valStr(rv.Sentiment),
			valStr(rv.Staff),
			valStr(rv.Themes),
			valStr(rv.Language),
			valJSON(rv.RawJSON),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, businessID int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, businessID, status, reason)
	return err
}

func (r *Repo) GetBusiness(ctx context.Context, id int64) (domain.Business, error) {
	row := r.db.QueryRowContext(ctx, getBusinessSQL, id)
	return scanBusiness(row)
}

func (r *Repo) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	rows, err := r.db.QueryContext(ctx, listBusinessesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) ListReviews(ctx context.Context, businessID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	limit := pg.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, businessID, limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	items, err := scanReviews(rows)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: items}, nil
}

// ListReviewsSince returns reviews published within the last N months,
// oldest first. months <= 0 means the full history. Reviews without a
// publication date are always included so aggregates never silently drop
// them.
func (r *Repo) ListReviewsSince(ctx context.Context, businessID int64, months int) ([]domain.Review, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if months <= 0 {
		rows, err = r.db.QueryContext(ctx, listAllReviewsSQL, businessID)
	} else {
		rows, err = r.db.QueryContext(ctx, listReviewsSinceSQL, businessID, months)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReviews(rows)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanBusiness(row rowScanner) (domain.Business, error) {
	var b domain.Business
	var created sql.NullTime
	if err := row.Scan(&b.ID, &b.Name, &b.DatasetID, &created); err != nil {
		if err == sql.ErrNoRows {
			return domain.Business{}, domain.ErrNotFound
		}
		return domain.Business{}, err
	}
	if created.Valid {
		t := created.Time
		b.CreatedAt = &t
	}
	return b, nil
}

func scanReviews(rows *sql.Rows) ([]domain.Review, error) {
	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var url, author, title, text, respText, sentiment, staff, themes, lang sql.NullString
		var published, respAt sql.NullTime
		var raw []byte
		if err := rows.Scan(
			&rv.ID, &rv.BusinessID,
			&url, &author, &rv.Stars, &title, &text,
			&published, &respText, &respAt,
			&sentiment, &staff, &themes, &lang, &raw,
		); err != nil {
			return nil, err
		}
		rv.ReviewURL = nullStr(url)
		rv.Author = nullStr(author)
		rv.Title = nullStr(title)
		rv.Text = nullStr(text)
		rv.ResponseText = nullStr(respText)
		rv.Sentiment = nullStr(sentiment)
		rv.Staff = nullStr(staff)
		rv.Themes = nullStr(themes)
		rv.Language = nullStr(lang)
		if published.Valid {
			t := published.Time
			rv.PublishedAt = &t
		}
		if respAt.Valid {
			t := respAt.Time
			rv.ResponseAt = &t
		}
		rv.RawJSON = raw
		out = append(out, rv)
	}
	return out, rows.Err()
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
