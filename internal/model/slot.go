package model

import "time"

// Slot statuses.  A slot is the concrete, addressable bookable unit a
// reservation attaches to, as opposed to the abstract availability rule.
const (
	SlotLocked   = "LOCKED"   // admin-held, not bookable yet
	SlotUnlocked = "UNLOCKED" // open for booking
	SlotReserved = "RESERVED" // occupied by a confirmed reservation
	SlotBlocked  = "BLOCKED"  // explicitly unavailable
)

// Slot mirrors the `slots` table.  At most one live row may exist per
// (slot_date, start_time); the store enforces this with a unique key.
// Dates are stored as "YYYY-MM-DD" and times as "HH:MM" strings so that
// comparisons stay lexicographic and timezone-free.
//
// Fields:
//  ID              – primary key identifier.
//  Date            – calendar date the slot occurs on.
//  StartTime       – start of the slot, "HH:MM".
//  EndTime         – end of the slot, "HH:MM".
//  DurationMinutes – slot length in minutes.
//  Status          – one of LOCKED, UNLOCKED, RESERVED, BLOCKED.
//  AssignedUserID  – user the slot is earmarked for, if any.
//  TemplateID      – template that materialized this slot, for traceability.
//  Note            – free-text admin note.
//  CreatedAt       – creation timestamp.
type Slot struct {
	ID              uint64    // slots.id
	Date            string    // slots.slot_date
	StartTime       string    // slots.start_time
	EndTime         string    // slots.end_time
	DurationMinutes int       // slots.duration_minutes
	Status          string    // slots.status
	AssignedUserID  *uint64   // slots.assigned_user_id (nullable)
	TemplateID      *uint64   // slots.template_id (nullable)
	Note            *string   // slots.note (nullable)
	CreatedAt       time.Time // slots.created_at
}
