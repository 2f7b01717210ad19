//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/Arthurkhan/star-gazer-analysis-sub000/internal/domain"
	mysqlrepo "github.com/Arthurkhan/star-gazer-analysis-sub000/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string        { return &s }
func ptime(t time.Time) *time.Time { return &t }

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	// default to the in-repo migrations directory
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("migrations dir %s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- the test ----------
func TestRepo_MySQL_UpsertAndQuery(t *testing.T) {
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=stargazer",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "stargazer")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// Arrange
	id, err := repo.UpsertBusiness(ctx, domain.Business{Name: "Blue Door Cafe", DatasetID: "ds-1"})
	if err != nil {
		t.Fatalf("UpsertBusiness: %v", err)
	}
	if id == 0 {
		t.Fatal("UpsertBusiness returned id 0")
	}

	// Same name again must hit the duplicate path and return the same id.
	id2, err := repo.UpsertBusiness(ctx, domain.Business{Name: "Blue Door Cafe", DatasetID: "ds-1b"})
	if err != nil {
		t.Fatalf("UpsertBusiness (dup): %v", err)
	}
	if id2 != id {
		t.Fatalf("duplicate upsert changed id: %d -> %d", id, id2)
	}

	old := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
	r1 := domain.Review{
		BusinessID:  id,
		ReviewURL:   pstr("https://maps.google.com/r/1"),
		Author:      pstr("Ana"),
		Stars:       5,
		Text:        pstr("Great coffee"),
		PublishedAt: ptime(old),
		Language:    pstr("en"),
		RawJSON:     []byte(`{}`),
	}
	r2 := domain.Review{
		BusinessID:  id,
		ReviewURL:   pstr("https://maps.google.com/r/2"),
		Author:      pstr("Bob"),
		Stars:       3,
		Text:        pstr("Fine"),
		PublishedAt: ptime(recent),
		Language:    pstr("en"),
		RawJSON:     []byte(`{}`),
	}
	if err := repo.UpsertReviews(ctx, []domain.Review{r1, r2}); err != nil {
		t.Fatalf("UpsertReviews: %v", err)
	}

	// Re-scrape the same URL with a sentiment filled in and the text gone NULL.
	r1b := domain.Review{
		BusinessID:  id,
		ReviewURL:   r1.ReviewURL,
		Stars:       4,
		PublishedAt: ptime(old),
		Sentiment:   pstr("positive"),
	}
	if err := repo.UpsertReviews(ctx, []domain.Review{r1b}); err != nil {
		t.Fatalf("UpsertReviews (rescrape): %v", err)
	}

	// Assert: still two rows, newest first, COALESCE kept the original text.
	page, err := repo.ListReviews(ctx, id, domain.PageQuery{Limit: 10, Sort: "-published_at"})
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("want 2 reviews, got %d", len(page.Items))
	}
	if *page.Items[0].ReviewURL != "https://maps.google.com/r/2" {
		t.Fatalf("newest review should come first, got %q", *page.Items[0].ReviewURL)
	}
	got := page.Items[1]
	if got.Stars != 4 {
		t.Fatalf("stars must take the fresh value, got %d", got.Stars)
	}
	if got.Text == nil || *got.Text != "Great coffee" {
		t.Fatalf("NULL re-scrape must keep the old text, got %+v", got.Text)
	}
	if got.Sentiment == nil || *got.Sentiment != "positive" {
		t.Fatalf("sentiment not persisted: %+v", got.Sentiment)
	}

	// Window queries include NULL published_at rows but cut old ones.
	since, err := repo.ListReviewsSince(ctx, id, 3)
	if err != nil {
		t.Fatalf("ListReviewsSince: %v", err)
	}
	for _, r := range since {
		if r.PublishedAt != nil && r.PublishedAt.Before(time.Now().AddDate(0, -3, 0)) {
			t.Fatalf("review outside the 3-month window returned: %v", r.PublishedAt)
		}
	}

	if err := repo.LogMiss(ctx, id, 404, "dataset gone"); err != nil {
		t.Fatalf("LogMiss: %v", err)
	}

	bs, err := repo.ListBusinesses(ctx)
	if err != nil {
		t.Fatalf("ListBusinesses: %v", err)
	}
	if len(bs) != 1 || bs[0].DatasetID != "ds-1b" {
		t.Fatalf("unexpected businesses: %+v", bs)
	}
}
