// Package announce drives the daily spot price announcement: it waits
// for the market's publication slot, fetches and formats the next day's
// prices and posts the report to every configured room, retrying on a
// fixed short interval while the prices are not out yet.
package announce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/angas/spotprice-go/config"
	"github.com/angas/spotprice-go/database"
)

const (
	// Hourly clearing prices are announced at 12:45 CET or later, see
	// https://www.nordpoolgroup.com/en/the-power-market/Day-ahead-market/
	announceHour   = 12
	announceMinute = 45

	// Retrying every 5 minutes up to 24 times tolerates roughly two
	// hours of publication delay without retrying forever.
	retryDelay  = 300 * time.Second
	maxAttempts = 24

	dateLayout = "2006-01-02"
	callBudget = time.Minute
)

// The market's publication schedule is defined in CET regardless of
// where the service or its readers are.
var cet *time.Location

func init() {
	var err error
	cet, err = time.LoadLocation("CET")
	if err != nil {
		panic(fmt.Sprintf("failed to load CET location: %v", err))
	}
}

// NextTime returns the next announcement instant after now: today at
// 12:45 CET, or tomorrow at 12:45 CET if that has already passed.
func NextTime(now time.Time) time.Time {
	now = now.In(cet)
	at := time.Date(now.Year(), now.Month(), now.Day(), announceHour, announceMinute, 0, 0, cet)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Reporter produces the formatted report for one delivery date.
type Reporter interface {
	Report(ctx context.Context, date string) (string, error)
}

// Sender delivers a report to one destination room.
type Sender interface {
	Send(ctx context.Context, room string, text string) error
}

// Recorder persists the outcome of a finished cycle.
type Recorder interface {
	SaveAnnouncement(ctx context.Context, row database.AnnouncementRow) error
}

// Status is emitted on every cycle transition, mainly for the live
// status feed on the web socket.
type Status struct {
	State    string    `json:"state"` // "scheduled", "retrying", "delivered", "failed"
	Date     string    `json:"date"`
	Attempts int       `json:"attempts"`
	NextAt   time.Time `json:"nextAt,omitempty"`
	At       time.Time `json:"at"`
}

type Announcer struct {
	logger   *slog.Logger
	store    *config.Store
	reporter Reporter
	sender   Sender
	recorder Recorder

	// OnStatus, when set, is called from the timer goroutine on every
	// cycle transition. Assign before Start.
	OnStatus func(Status)

	// Injectable clock and timer for tests.
	now      func() time.Time
	runLater func(d time.Duration, fn func()) *time.Timer

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func New(logger *slog.Logger, store *config.Store, reporter Reporter, sender Sender, recorder Recorder) *Announcer {
	return &Announcer{
		logger:   logger,
		store:    store,
		reporter: reporter,
		sender:   sender,
		recorder: recorder,
		now:      time.Now,
		runLater: time.AfterFunc,
	}
}

// Start arms the timer for the next publication slot.
func (a *Announcer) Start() {
	a.scheduleNext()
}

// Stop releases the currently armed timer. A callback already running
// is not interrupted.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// NextAt returns the instant the next announcement fires.
func (a *Announcer) NextAt() time.Time {
	return NextTime(a.now())
}

// NextDate is the default date for the on-demand command: the calendar
// date of the next announcement instant.
func (a *Announcer) NextDate() string {
	return a.NextAt().Format(dateLayout)
}

func (a *Announcer) scheduleNext() {
	now := a.now()
	at := NextTime(now)
	// The slot publishes the prices for the following delivery day.
	date := at.AddDate(0, 0, 1).Format(dateLayout)

	a.logger.Debug("scheduling next announcement",
		slog.Time("at", at),
		slog.Duration("in", at.Sub(now)),
		slog.String("date", date))

	a.emit(Status{State: "scheduled", Date: date, NextAt: at, At: now})
	a.arm(at.Sub(now), func() { a.poll(date, 0) })
}

// poll runs one fetch attempt for date. attempts counts the failures so
// far; the counter starts at zero for every new delivery date.
func (a *Announcer) poll(date string, attempts int) {
	ctx, cancel := context.WithTimeout(context.Background(), callBudget)
	defer cancel()

	report, err := a.reporter.Report(ctx, date)
	if err != nil {
		attempts++
		if attempts >= maxAttempts {
			a.logger.Error("failed to fetch spot prices 24 times in a row, giving up",
				slog.String("date", date),
				slog.Any("error", err))
			a.record(ctx, database.AnnouncementRow{
				Date:      date,
				Status:    database.AnnouncementFailed,
				Attempts:  attempts,
				Detail:    err.Error(),
				Timestamp: a.now(),
			})
			a.emit(Status{State: "failed", Date: date, Attempts: attempts, At: a.now()})
			a.scheduleNext()
			return
		}

		a.logger.Warn("failed to fetch spot prices, retrying in 5 minutes",
			slog.String("date", date),
			slog.Int("attempts", attempts),
			slog.Any("error", err))
		a.emit(Status{State: "retrying", Date: date, Attempts: attempts, At: a.now()})
		a.arm(retryDelay, func() { a.poll(date, attempts) })
		return
	}

	delivered := 0
	rooms := a.store.Snapshot().Rooms
	for _, room := range rooms {
		if err := a.sender.Send(ctx, room, report); err != nil {
			a.logger.Error("failed to post report to room",
				slog.String("room", room),
				slog.Any("error", err))
		} else {
			delivered++
		}
	}

	a.logger.Info("spot prices announced",
		slog.String("date", date),
		slog.Int("rooms", delivered))
	a.record(ctx, database.AnnouncementRow{
		Date:      date,
		Status:    database.AnnouncementDelivered,
		Attempts:  attempts,
		Rooms:     delivered,
		Timestamp: a.now(),
	})
	a.emit(Status{State: "delivered", Date: date, Attempts: attempts, At: a.now()})
	a.scheduleNext()
}

func (a *Announcer) arm(d time.Duration, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.timer = a.runLater(d, fn)
}

func (a *Announcer) record(ctx context.Context, row database.AnnouncementRow) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.SaveAnnouncement(ctx, row); err != nil {
		a.logger.Error("failed to record announcement", slog.Any("error", err))
	}
}

func (a *Announcer) emit(s Status) {
	if a.OnStatus != nil {
		a.OnStatus(s)
	}
}
