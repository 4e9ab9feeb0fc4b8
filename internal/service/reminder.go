package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/movsar/trainer-booking/internal/model"
	"github.com/movsar/trainer-booking/internal/queue"
	"github.com/movsar/trainer-booking/internal/repository"
	"github.com/movsar/trainer-booking/internal/utils"
)

// ErrUnknownReminderType is returned for manual sends with a reminder
// type other than 24h or 1h.
var ErrUnknownReminderType = errors.New("unknown reminder type")

// Eligibility windows in hours-until-appointment for the two reminder
// types. Both windows are wider than the scan period so a reservation
// cannot fall between two runs.
const (
	longLeadMin  = 23.0
	longLeadMax  = 26.0
	shortLeadMin = 0.0
	shortLeadMax = 2.0
)

// ReminderScheduler periodically scans upcoming confirmed reservations
// and dispatches at most one reminder per (reservation, lead-time type).
// All dedup state lives in the persisted send-record; the scheduler
// itself is stateless between runs, so overlapping runs and process
// restarts cannot double-send.
type ReminderScheduler struct {
	Reservations *repository.ReservationRepo
	Users        *repository.UserRepo
	Reminders    *repository.ReminderRepo

	// Dispatch hands a reminder e-mail to the transport. It runs after
	// the send-record write; failures are logged, never propagated.
	Dispatch func(ctx context.Context, ev queue.ReminderEmailEvent) error

	// Interval between runs. Defaults to 15 minutes.
	Interval time.Duration

	// Now is the clock used for window computations; tests pin it.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewReminderScheduler(reservations *repository.ReservationRepo, users *repository.UserRepo,
	reminders *repository.ReminderRepo, dispatch func(ctx context.Context, ev queue.ReminderEmailEvent) error) *ReminderScheduler {
	return &ReminderScheduler{
		Reservations: reservations,
		Users:        users,
		Reminders:    reminders,
		Dispatch:     dispatch,
		Interval:     15 * time.Minute,
		Now:          time.Now,
		stop:         make(chan struct{}),
	}
}

// Start launches the periodic loop in its own goroutine.
func (s *ReminderScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)
	go s.loop()
	log.Printf("reminder-scheduler: started, interval=%v", s.Interval)
}

// Stop halts the loop and waits for an in-flight run to finish.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	if s.ticker == nil {
		s.mu.Unlock()
		return
	}
	s.ticker.Stop()
	s.mu.Unlock()
	close(s.stop)
	s.wg.Wait()
	log.Printf("reminder-scheduler: stopped")
}

func (s *ReminderScheduler) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case <-s.ticker.C:
			if err := s.Run(context.Background()); err != nil {
				log.Printf("reminder-scheduler: run failed: %v", err)
			}
		}
	}
}

// Run executes one scan: load today's and tomorrow's confirmed
// reservations, batch-load their users and send whatever reminders fall
// inside an eligibility window and have no send-record yet. Per-
// reservation failures are logged and the scan continues.
func (s *ReminderScheduler) Run(ctx context.Context) error {
	now := s.Now().UTC()
	today := now.Format(utils.DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(utils.DateLayout)

	upcoming, err := s.Reservations.ConfirmedBetweenDates(ctx, today, tomorrow)
	if err != nil {
		return err
	}
	if len(upcoming) == 0 {
		return nil
	}

	ids := make([]uint64, 0, len(upcoming))
	seen := make(map[uint64]bool, len(upcoming))
	for _, res := range upcoming {
		if !seen[res.UserID] {
			seen[res.UserID] = true
			ids = append(ids, res.UserID)
		}
	}
	users, err := s.Users.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, res := range upcoming {
		user, ok := users[res.UserID]
		if !ok || !user.RemindersEnabled {
			continue
		}
		startAt, err := utils.StartDateTime(res.Date, res.StartTime)
		if err != nil {
			log.Printf("reminder-scheduler: reservation %d has bad start: %v", res.ID, err)
			continue
		}
		hours := utils.HoursUntil(now, startAt)
		reminderType, ok := dueReminderType(user.ReminderLeadHours, hours)
		if !ok {
			continue
		}
		s.sendOne(ctx, res, user, reminderType)
	}
	return nil
}

// dueReminderType maps the user's configured lead time and the hours
// remaining to the reminder type due right now, if any.
func dueReminderType(leadHours int, hoursUntil float64) (string, bool) {
	switch {
	case leadHours >= 24 && hoursUntil >= longLeadMin && hoursUntil <= longLeadMax:
		return model.Reminder24h, true
	case leadHours <= 1 && hoursUntil >= shortLeadMin && hoursUntil <= shortLeadMax:
		return model.Reminder1h, true
	}
	return "", false
}

// sendOne records the send before dispatching. Losing the record race
// (ErrConflict) means another run already claimed this reminder; a
// failed dispatch after a successful record is accepted as a missed
// send.
func (s *ReminderScheduler) sendOne(ctx context.Context, res model.Reservation, user model.User, reminderType string) {
	rec := model.ReminderSentRecord{
		ReservationID: res.ID,
		UserID:        user.ID,
		ReminderType:  reminderType,
	}
	if err := s.Reminders.Record(ctx, &rec); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			log.Printf("reminder-scheduler: record for reservation %d failed: %v", res.ID, err)
		}
		return
	}
	ev := queue.ReminderEmailEvent{
		ReservationID: res.ID,
		UserID:        user.ID,
		To:            user.Email,
		FirstName:     user.FirstName,
		Date:          res.Date,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		ReminderType:  reminderType,
	}
	if s.Dispatch == nil {
		return
	}
	if err := s.Dispatch(ctx, ev); err != nil {
		log.Printf("reminder-scheduler: dispatch for reservation %d failed: %v", res.ID, err)
	}
}

// SendManual performs the admin "send reminder now" action with the
// same dedup check the scheduler uses. It returns ErrConflict when a
// reminder of that type was already sent for the reservation.
func (s *ReminderScheduler) SendManual(ctx context.Context, reservationID uint64, reminderType string) error {
	if reminderType != model.Reminder24h && reminderType != model.Reminder1h {
		return ErrUnknownReminderType
	}
	res, err := s.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.Status != model.ReservationConfirmed {
		return repository.ErrConflict
	}
	exists, err := s.Reminders.ExistsByReservationAndType(ctx, reservationID, reminderType)
	if err != nil {
		return err
	}
	if exists {
		return repository.ErrConflict
	}
	user, err := s.Users.GetByID(ctx, res.UserID)
	if err != nil {
		return err
	}
	s.sendOne(ctx, res, user, reminderType)
	return nil
}
