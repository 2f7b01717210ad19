package mysql

// LAST_INSERT_ID(id) makes the upsert return the existing row id on the
// duplicate path, so UpsertBusiness works for both insert and update.
const upsertBusinessSQL = `
INSERT INTO businesses (name, dataset_id)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  id         = LAST_INSERT_ID(id),
  dataset_id = VALUES(dataset_id)
`

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (business_id, review_url, author, stars, title, `text`, published_at, response_text, response_at, sentiment, staff, themes, lang, raw)\n" +
	"VALUES "

// COALESCE keeps the old value when the re-scraped one is NULL; stars and
// identity columns always take the fresh value.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  author        = COALESCE(VALUES(author), reviews.author),\n" +
	"  stars         = VALUES(stars),\n" +
	"  title         = COALESCE(VALUES(title), reviews.title),\n" +
	"  `text`        = COALESCE(VALUES(`text`), reviews.`text`),\n" +
	"  published_at  = COALESCE(VALUES(published_at), reviews.published_at),\n" +
	"  response_text = COALESCE(VALUES(response_text), reviews.response_text),\n" +
	"  response_at   = COALESCE(VALUES(response_at), reviews.response_at),\n" +
	"  sentiment     = COALESCE(VALUES(sentiment), reviews.sentiment),\n" +
	"  staff         = COALESCE(VALUES(staff), reviews.staff),\n" +
	"  themes        = COALESCE(VALUES(themes), reviews.themes),\n" +
	"  lang          = COALESCE(VALUES(lang), reviews.lang),\n" +
	"  raw           = COALESCE(VALUES(raw), reviews.raw)\n"

const insertMissSQL = `
INSERT INTO ingest_misses (business_id, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getBusinessSQL = `
SELECT id, name, dataset_id, created_at
FROM businesses
WHERE id = ?
`

const listBusinessesSQL = `
SELECT id, name, dataset_id, created_at
FROM businesses
ORDER BY name
`

const reviewColumns = "id, business_id, review_url, author, stars, title, `text`, published_at, response_text, response_at, sentiment, staff, themes, lang, raw"

// Newest first; aligns with the index on (business_id, published_at, id).
const listReviewsSQL = "SELECT " + reviewColumns + `
FROM reviews
WHERE business_id = ?
ORDER BY published_at DESC, id DESC
LIMIT ?
`

const listReviewsSinceSQL = "SELECT " + reviewColumns + `
FROM reviews
WHERE business_id = ?
  AND (published_at IS NULL OR published_at >= DATE_SUB(CURRENT_TIMESTAMP, INTERVAL ? MONTH))
ORDER BY published_at ASC, id ASC
`

const listAllReviewsSQL = "SELECT " + reviewColumns + `
FROM reviews
WHERE business_id = ?
ORDER BY published_at ASC, id ASC
`
