package service

import (
	"context"
	"sort"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/utils"
)

// AvailabilityService expands availability rules into the bookable
// candidates a client sees for a date. The expansion is a purely derived
// view: it never consults the slots table, and the ephemeral candidates
// only become persisted slot rows when a reservation materializes them.
type AvailabilityService struct {
	Rules        *repository.AvailabilityRepo
	Reservations *repository.ReservationRepo
}

func NewAvailabilityService(rules *repository.AvailabilityRepo, reservations *repository.ReservationRepo) *AvailabilityService {
	return &AvailabilityService{Rules: rules, Reservations: reservations}
}

// blockedRange is a half-open [start, end) minute range carved out of a
// date by a blocked rule.
type blockedRange struct {
	start int
	end   int
}

// GetAvailableSlots returns the candidates for a date sorted by start
// time. Recurring rules for the date's weekday and one-off rules for
// the exact date are unioned (de-duplicated by rule id); blocked one-off
// rules subtract ranges; confirmed reservations mark candidates as
// taken. Zero matching rules yields an empty list, not an error.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, date string) ([]model.AvailableSlot, error) {
	weekday, err := utils.ISOWeekday(date)
	if err != nil {
		return nil, err
	}

	recurring, err := s.Rules.RecurringForWeekday(ctx, weekday)
	if err != nil {
		return nil, err
	}
	specific, err := s.Rules.ForSpecificDate(ctx, date, false)
	if err != nil {
		return nil, err
	}
	blockedRules, err := s.Rules.ForSpecificDate(ctx, date, true)
	if err != nil {
		return nil, err
	}
	taken, err := s.Reservations.ConfirmedStartTimes(ctx, date)
	if err != nil {
		return nil, err
	}

	// Union the two availability sets, de-duplicated by rule id.
	seen := make(map[uint64]bool, len(recurring)+len(specific))
	rules := make([]model.AvailabilityRule, 0, len(recurring)+len(specific))
	for _, r := range append(recurring, specific...) {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		rules = append(rules, r)
	}

	blocked := make([]blockedRange, 0, len(blockedRules))
	for _, b := range blockedRules {
		bs, err := utils.ParseClock(b.StartTime)
		if err != nil {
			continue // skip malformed blocked rules
		}
		be, err := utils.ParseClock(b.EndTime)
		if err != nil {
			continue
		}
		blocked = append(blocked, blockedRange{start: bs, end: be})
	}

	out := make([]model.AvailableSlot, 0)
	for _, rule := range rules {
		out = append(out, expandRule(rule, date, blocked, taken)...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime == out[j].StartTime {
			return out[i].RuleID < out[j].RuleID
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

// expandRule walks a rule's time range in slot-duration steps. Trailing
// time that cannot fit a whole slot is dropped.
func expandRule(rule model.AvailabilityRule, date string, blocked []blockedRange, taken map[string]bool) []model.AvailableSlot {
	start, err := utils.ParseClock(rule.StartTime)
	if err != nil {
		return nil
	}
	end, err := utils.ParseClock(rule.EndTime)
	if err != nil {
		return nil
	}
	step := rule.SlotDurationMinutes
	if step <= 0 || start >= end {
		return nil
	}
	out := make([]model.AvailableSlot, 0, (end-start)/step)
	for cur := start; cur+step <= end; cur += step {
		startStr := utils.FormatClock(cur)
		available := !taken[startStr]
		for _, b := range blocked {
			if b.start <= cur && cur < b.end {
				available = false
				break
			}
		}
		out = append(out, model.AvailableSlot{
			RuleID:          rule.ID,
			Date:            date,
			StartTime:       startStr,
			EndTime:         utils.FormatClock(cur + step),
			DurationMinutes: step,
			Available:       available,
		})
	}
	return out
}
