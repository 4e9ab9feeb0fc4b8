package model

import "time"

// PricingItem mirrors the `pricing_items` table, a read model of the
// external pricing catalog.  It defines how many credits a self-service
// reservation costs; when a booking carries no pricing item the engine
// falls back to a cost of one credit.
type PricingItem struct {
	ID        uint64    // pricing_items.id
	Name      string    // pricing_items.name
	Credits   int64     // pricing_items.credits
	IsActive  bool      // pricing_items.is_active
	CreatedAt time.Time // pricing_items.created_at
}
