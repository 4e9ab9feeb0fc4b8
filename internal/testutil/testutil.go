// Package testutil provides a throwaway in-memory database with the
// application schema plus small seed helpers for tests.
package testutil

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const schema = `
CREATE TABLE users (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    email               TEXT NOT NULL UNIQUE,
    first_name          TEXT,
    role                TEXT NOT NULL DEFAULT 'CLIENT',
    credits             INTEGER NOT NULL DEFAULT 0,
    reminders_enabled   INTEGER NOT NULL DEFAULT 1,
    reminder_lead_hours INTEGER NOT NULL DEFAULT 24,
    is_active           INTEGER NOT NULL DEFAULT 1,
    created_at          TIMESTAMP NOT NULL,
    updated_at          TIMESTAMP NOT NULL
);

CREATE TABLE availability_rules (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id              INTEGER,
    name                  TEXT,
    days_of_week          TEXT NOT NULL DEFAULT '',
    start_time            TEXT NOT NULL,
    end_time              TEXT NOT NULL,
    slot_duration_minutes INTEGER NOT NULL,
    is_recurring          INTEGER NOT NULL DEFAULT 1,
    specific_date         TEXT,
    is_blocked            INTEGER NOT NULL DEFAULT 0,
    created_at            TIMESTAMP NOT NULL
);

CREATE TABLE slot_templates (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL,
    is_active  INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE template_slots (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    template_id      INTEGER NOT NULL,
    day_of_week      INTEGER NOT NULL,
    start_time       TEXT NOT NULL,
    end_time         TEXT NOT NULL,
    duration_minutes INTEGER NOT NULL
);

CREATE TABLE slots (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    slot_date        TEXT NOT NULL,
    start_time       TEXT NOT NULL,
    end_time         TEXT NOT NULL,
    duration_minutes INTEGER NOT NULL,
    status           TEXT NOT NULL DEFAULT 'LOCKED',
    assigned_user_id INTEGER,
    template_id      INTEGER,
    note             TEXT,
    created_at       TIMESTAMP NOT NULL,
    UNIQUE (slot_date, start_time)
);

CREATE TABLE reservations (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id         INTEGER NOT NULL,
    slot_id         INTEGER NOT NULL,
    res_date        TEXT NOT NULL,
    start_time      TEXT NOT NULL,
    end_time        TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'confirmed',
    active          INTEGER DEFAULT 1,
    credits_used    INTEGER NOT NULL DEFAULT 0,
    pricing_item_id INTEGER,
    note            TEXT,
    created_at      TIMESTAMP NOT NULL,
    cancelled_at    TIMESTAMP,
    UNIQUE (slot_id, start_time, active)
);

CREATE TABLE credit_transactions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id      INTEGER NOT NULL,
    amount       INTEGER NOT NULL,
    tx_type      TEXT NOT NULL,
    reference_id INTEGER,
    note         TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMP NOT NULL
);

CREATE TABLE cancellation_policies (
    id                        INTEGER PRIMARY KEY AUTOINCREMENT,
    trainer_id                INTEGER NOT NULL UNIQUE,
    full_refund_hours         INTEGER NOT NULL DEFAULT 24,
    partial_refund_hours      INTEGER,
    partial_refund_percentage INTEGER,
    no_refund_hours           INTEGER NOT NULL DEFAULT 0,
    is_active                 INTEGER NOT NULL DEFAULT 1,
    created_at                TIMESTAMP NOT NULL,
    updated_at                TIMESTAMP NOT NULL
);

CREATE TABLE reminder_sent_records (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    reservation_id INTEGER NOT NULL,
    user_id        INTEGER NOT NULL,
    reminder_type  TEXT NOT NULL,
    sent_at        TIMESTAMP NOT NULL,
    UNIQUE (reservation_id, reminder_type)
);

CREATE TABLE pricing_items (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL,
    credits    INTEGER NOT NULL,
    is_active  INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL
);
`

// NewDB opens a fresh in-memory database with the full schema applied.
// The connection is closed when the test finishes.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	// A single connection keeps every statement on the same in-memory
	// database.
	db.SetMaxOpenConns(1)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

// SeedUser inserts a user and returns its id.
func SeedUser(t *testing.T, db *sql.DB, email, role string, credits int64) uint64 {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	res, err := db.Exec(
		`INSERT INTO users (email, role, credits, reminders_enabled, reminder_lead_hours, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, 1, 24, 1, ?, ?)`,
		email, role, credits, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

// SeedPricingItem inserts an active pricing item and returns its id.
func SeedPricingItem(t *testing.T, db *sql.DB, name string, credits int64) uint64 {
	t.Helper()
	res, err := db.Exec(
		`INSERT INTO pricing_items (name, credits, is_active, created_at) VALUES (?, ?, 1, ?)`,
		name, credits, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}
