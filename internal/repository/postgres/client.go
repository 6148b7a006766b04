// Package postgres implements the repository interfaces against the
// schema created by internal/platform/db.MigrateUp: query/scan pairs per
// entity over a shared *sql.DB.
package postgres

import (
	"database/sql"

	"github.com/crb2nu/news-analyzer/internal/resilience/circuitbreaker"
)

// Client bundles the shared *sql.DB and a database circuit breaker; every
// entity repository embeds one. The repositories issue their queries on
// db directly, so those queries do not pass through the breaker.
type Client struct {
	db *sql.DB
	cb *circuitbreaker.DBCircuitBreaker
}

// NewClient pairs db with a resilience-package database circuit breaker
// built on it.
func NewClient(db *sql.DB) *Client {
	return &Client{db: db, cb: circuitbreaker.NewDBCircuitBreaker(db)}
}

// DB exposes the underlying *sql.DB (for transactions, migrations).
func (c *Client) DB() *sql.DB { return c.db }
