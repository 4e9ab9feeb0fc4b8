package model

import "time"

// AvailabilityRule mirrors the `availability_rules` table.  A rule is
// either a recurring weekly pattern (IsRecurring with a non-empty
// DaysOfWeek set) or a one-off override for a specific date.  Rules with
// IsBlocked carve out unavailable sub-ranges instead of adding
// availability.  Rules are created and edited by admins only; the booking
// engine never writes them.
//
// Fields:
//  ID                  – primary key identifier.
//  OwnerID             – trainer the rule belongs to, if any.
//  Name                – optional label shown in the admin UI.
//  DaysOfWeek          – ISO weekdays 1 (Monday) through 7 (Sunday).
//  StartTime           – start of the availability range, "HH:MM".
//  EndTime             – end of the availability range, "HH:MM".
//  SlotDurationMinutes – step used when expanding the range into slots.
//  IsRecurring         – whether the rule repeats weekly.
//  SpecificDate        – concrete date for one-off rules, "YYYY-MM-DD".
//  IsBlocked           – whether the rule removes availability.
//  CreatedAt           – creation timestamp.
type AvailabilityRule struct {
	ID                  uint64    // availability_rules.id
	OwnerID             *uint64   // availability_rules.owner_id (nullable)
	Name                *string   // availability_rules.name (nullable)
	DaysOfWeek          []int     // availability_rules.days_of_week (CSV column)
	StartTime           string    // availability_rules.start_time
	EndTime             string    // availability_rules.end_time
	SlotDurationMinutes int       // availability_rules.slot_duration_minutes
	IsRecurring         bool      // availability_rules.is_recurring
	SpecificDate        *string   // availability_rules.specific_date (nullable)
	IsBlocked           bool      // availability_rules.is_blocked
	CreatedAt           time.Time // availability_rules.created_at
}

// AvailableSlot is a derived, ephemeral candidate produced by expanding
// availability rules for a date.  It is never persisted; client
// self-service booking materializes a real Slot row at reservation time.
type AvailableSlot struct {
	RuleID          uint64 `json:"rule_id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Available       bool   `json:"available"`
}
