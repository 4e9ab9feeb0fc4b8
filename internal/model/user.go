package model

import "time"

// User mirrors the `users` table owned by the authentication subsystem.
// The booking core never creates or edits profile fields; it reads the
// record for e-mail and reminder preferences and performs atomic deltas
// on the denormalized credit balance.
//
// Fields:
//  ID                – primary key identifier of the user.
//  Email             – unique e-mail address, used for reminder delivery.
//  FirstName         – optional display name used in reminder e-mails.
//  Role              – role name (ADMIN or CLIENT), also carried in the JWT.
//  Credits           – denormalized credit balance; the ledger remains the
//                      source of truth, this column exists for fast reads.
//  RemindersEnabled  – whether the user wants appointment reminders at all.
//  ReminderLeadHours – preferred reminder lead time in hours.  Values of
//                      24 or more select the long-lead reminder, values of
//                      1 or less the short-lead reminder.
//  IsActive          – whether the account is active.
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type User struct {
	ID                uint64    // users.id
	Email             string    // users.email
	FirstName         *string   // users.first_name (nullable)
	Role              string    // users.role
	Credits           int64     // users.credits
	RemindersEnabled  bool      // users.reminders_enabled
	ReminderLeadHours int       // users.reminder_lead_hours
	IsActive          bool      // users.is_active
	CreatedAt         time.Time // users.created_at
	UpdatedAt         time.Time // users.updated_at
}

// Role names as stored in users.role and in the JWT "role" claim.
const (
	RoleAdmin  = "ADMIN"
	RoleClient = "CLIENT"
)
