package model

import "time"

// SlotTemplate mirrors the `slot_templates` table.  A template names a
// reusable weekly pattern of slots; applying it to a week materializes
// concrete Slot rows with status LOCKED.
type SlotTemplate struct {
	ID        uint64    // slot_templates.id
	Name      string    // slot_templates.name
	IsActive  bool      // slot_templates.is_active
	CreatedAt time.Time // slot_templates.created_at
}

// TemplateSlot mirrors the `template_slots` table.  Each row describes
// one slot of the weekly pattern: the ISO weekday (1=Monday) plus the
// time range to materialize.
type TemplateSlot struct {
	ID              uint64 // template_slots.id
	TemplateID      uint64 // template_slots.template_id
	DayOfWeek       int    // template_slots.day_of_week (1..7, 1=Monday)
	StartTime       string // template_slots.start_time
	EndTime         string // template_slots.end_time
	DurationMinutes int    // template_slots.duration_minutes
}
