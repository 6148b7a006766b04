package db

import (
	"database/sql"
	_ "embed"
)

//go:embed seeds/publications.sql
var seedPublicationsSQL string

// MigrateUp creates (idempotently) every table, index and extension the
// pipeline needs. It is safe to run on every process start: every statement
// uses IF NOT EXISTS / IF NOT EXISTS-equivalent guards.
func MigrateUp(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			id          SERIAL PRIMARY KEY,
			slug        TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			edition_cron TEXT NOT NULL DEFAULT '0 6 * * 3,6',
			active      BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id                SERIAL PRIMARY KEY,
			publication_id    INTEGER REFERENCES publications(id),
			edition_date      DATE NOT NULL,
			title             TEXT NOT NULL,
			content           TEXT NOT NULL,
			content_hash      CHAR(32) NOT NULL,
			source_type       VARCHAR(10) NOT NULL DEFAULT 'other',
			url               TEXT,
			source_file       TEXT,
			publication       TEXT,
			section           TEXT,
			page_number       INTEGER,
			column_number     INTEGER,
			author            TEXT,
			word_count        INTEGER,
			date_published    TIMESTAMPTZ,
			date_extracted    TIMESTAMPTZ NOT NULL DEFAULT now(),
			raw_html          TEXT,
			location_name     TEXT,
			location_lat      DOUBLE PRECISION,
			location_lon      DOUBLE PRECISION,
			event_dates       JSONB NOT NULL DEFAULT '[]'::jsonb,
			tags              JSONB NOT NULL DEFAULT '{}'::jsonb,
			metadata          JSONB NOT NULL DEFAULT '{}'::jsonb,
			processing_status VARCHAR(12) NOT NULL DEFAULT 'extracted',
			processing_error  TEXT,
			CONSTRAINT chk_source_type CHECK (source_type IN ('pdf','html','fb','other')),
			CONSTRAINT chk_processing_status CHECK (processing_status IN ('extracted','summarized','notified','failed')),
			CONSTRAINT uq_articles_hash_date UNIQUE (content_hash, edition_date)
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			id                 SERIAL PRIMARY KEY,
			article_id         INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			summary_text       TEXT NOT NULL,
			summary_type       VARCHAR(20) NOT NULL DEFAULT 'brief',
			bullets            JSONB NOT NULL DEFAULT '[]'::jsonb,
			tags               JSONB NOT NULL DEFAULT '[]'::jsonb,
			model_used         TEXT,
			tokens_used        INTEGER,
			generation_time_ms INTEGER,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT uq_summaries_article_type UNIQUE (article_id, summary_type)
		)`,
		`CREATE TABLE IF NOT EXISTS article_events (
			id            SERIAL PRIMARY KEY,
			article_id    INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			title         TEXT NOT NULL,
			description   TEXT,
			start_time    TIMESTAMPTZ,
			end_time      TIMESTAMPTZ,
			location_name TEXT,
			location_meta JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
		`CREATE TABLE IF NOT EXISTS processing_history (
			id                SERIAL PRIMARY KEY,
			date_processed    DATE NOT NULL,
			source_type       VARCHAR(10) NOT NULL,
			articles_found    INTEGER NOT NULL DEFAULT 0,
			articles_new      INTEGER NOT NULL DEFAULT 0,
			articles_duplicate INTEGER NOT NULL DEFAULT 0,
			notes             TEXT,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS trending_rollups (
			id         SERIAL PRIMARY KEY,
			kind       VARCHAR(10) NOT NULL,
			key        TEXT NOT NULL,
			as_of_date DATE NOT NULL,
			score      DOUBLE PRECISION NOT NULL DEFAULT 0,
			zscore     DOUBLE PRECISION NOT NULL DEFAULT 0,
			details    JSONB NOT NULL DEFAULT '{}'::jsonb,
			CONSTRAINT chk_trending_kind CHECK (kind IN ('section','tag','entity','topic')),
			CONSTRAINT uq_trending_rollup UNIQUE (kind, key, as_of_date)
		)`,

		// Audit column for failed articles, added after the initial schema
		// shipped; a no-op on fresh databases.
		`ALTER TABLE articles ADD COLUMN IF NOT EXISTS processing_error TEXT`,

		// Performance indexes.
		`CREATE INDEX IF NOT EXISTS idx_articles_edition_date ON articles (edition_date)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_section ON articles (section)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_status ON articles (processing_status)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_feed_order ON articles (edition_date, section, page_number, id)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_article_id ON summaries (article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_article_events_start_time ON article_events (start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_processing_history_date ON processing_history (date_processed)`,
		`CREATE INDEX IF NOT EXISTS idx_trending_rollups_lookup ON trending_rollups (kind, as_of_date, score DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// pg_trgm + tsvector based ranking for /search; ignored if the extension is
	// unavailable on this Postgres instance.
	//
	// search_vector must rank over title + summary + content, but
	// a generated column can only read its own row, and the brief summary
	// lives in the summaries table. summary_text_cache denormalizes the
	// brief summary_text onto articles, kept in sync by a trigger on
	// summaries, so search_vector can fold it in alongside title/content.
	searchStatements := []string{
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		`ALTER TABLE articles ADD COLUMN IF NOT EXISTS summary_text_cache TEXT NOT NULL DEFAULT ''`,
		// Dropped and recreated (not ADD COLUMN IF NOT EXISTS) so that a
		// database migrated before summary/content were folded in picks up
		// the new GENERATED expression instead of keeping the stale one.
		`ALTER TABLE articles DROP COLUMN IF EXISTS search_vector`,
		`ALTER TABLE articles ADD COLUMN search_vector tsvector
			GENERATED ALWAYS AS (
				setweight(to_tsvector('english', coalesce(title, '')), 'A') ||
				setweight(to_tsvector('english', coalesce(summary_text_cache, '')), 'B') ||
				setweight(to_tsvector('english', coalesce(content, '')), 'C') ||
				setweight(to_tsvector('english', coalesce(section, '')), 'D')
			) STORED`,
		`CREATE INDEX IF NOT EXISTS idx_articles_search_vector ON articles USING GIN (search_vector)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_title_trgm ON articles USING GIN (title gin_trgm_ops)`,
		`CREATE OR REPLACE FUNCTION sync_article_summary_cache() RETURNS trigger AS $$
			BEGIN
				IF NEW.summary_type = 'brief' THEN
					UPDATE articles SET summary_text_cache = NEW.summary_text WHERE id = NEW.article_id;
				END IF;
				RETURN NEW;
			END;
			$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS trg_sync_article_summary_cache ON summaries`,
		`CREATE TRIGGER trg_sync_article_summary_cache
			AFTER INSERT OR UPDATE ON summaries
			FOR EACH ROW EXECUTE FUNCTION sync_article_summary_cache()`,
		// Backfills rows summarized before this migration ran; the trigger
		// above only covers summaries written after it exists.
		`UPDATE articles a SET summary_text_cache = s.summary_text
			FROM summaries s
			WHERE s.article_id = a.id AND s.summary_type = 'brief' AND a.summary_text_cache = ''`,
	}
	for _, stmt := range searchStatements {
		_, _ = db.Exec(stmt) // best-effort: extension may not be installed
	}

	// pgvector for /similar. Ignored if unavailable, same tolerance policy.
	vectorStatements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS article_embeddings (
			id          SERIAL PRIMARY KEY,
			article_id  INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			embedding   vector(1536) NOT NULL,
			provider    TEXT NOT NULL DEFAULT 'openai',
			model       TEXT NOT NULL DEFAULT 'text-embedding-3-small',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT uq_article_embeddings UNIQUE (article_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_article_embeddings_vector ON article_embeddings
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range vectorStatements {
		_, _ = db.Exec(stmt)
	}

	if _, err := db.Exec(seedPublicationsSQL); err != nil {
		return err
	}

	return nil
}

// MigrateDown drops every table created by MigrateUp. Intended for test
// fixtures and local resets only.
func MigrateDown(db *sql.DB) error {
	_, err := db.Exec(`DROP TABLE IF EXISTS
		trending_rollups, processing_history, article_events, article_embeddings,
		summaries, articles, publications CASCADE`)
	return err
}
