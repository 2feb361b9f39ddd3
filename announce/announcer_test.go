package announce

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/angas/spotprice-go/config"
	"github.com/angas/spotprice-go/database"
)

func TestNextTime(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "morning announces today",
			now:      time.Date(2024, 1, 15, 9, 0, 0, 0, cet),
			expected: time.Date(2024, 1, 15, 12, 45, 0, 0, cet),
		},
		{
			name:     "one second before the slot announces today",
			now:      time.Date(2024, 1, 15, 12, 44, 59, 0, cet),
			expected: time.Date(2024, 1, 15, 12, 45, 0, 0, cet),
		},
		{
			name:     "exactly at the slot announces tomorrow",
			now:      time.Date(2024, 1, 15, 12, 45, 0, 0, cet),
			expected: time.Date(2024, 1, 16, 12, 45, 0, 0, cet),
		},
		{
			name:     "evening announces tomorrow",
			now:      time.Date(2024, 1, 15, 20, 0, 0, 0, cet),
			expected: time.Date(2024, 1, 16, 12, 45, 0, 0, cet),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextTime(tt.now); !got.Equal(tt.expected) {
				t.Errorf("NextTime(%v) expected %v, got %v", tt.now, tt.expected, got)
			}
		})
	}
}

type fakeReporter struct {
	failures int // number of calls that fail before succeeding
	calls    int
	dates    []string
}

func (r *fakeReporter) Report(ctx context.Context, date string) (string, error) {
	r.calls++
	r.dates = append(r.dates, date)
	if r.calls <= r.failures {
		return "", errors.New("no data available yet")
	}
	return "Monday " + date, nil
}

type fakeSender struct {
	rooms []string
	texts []string
}

func (s *fakeSender) Send(ctx context.Context, room string, text string) error {
	s.rooms = append(s.rooms, room)
	s.texts = append(s.texts, text)
	return nil
}

type fakeRecorder struct {
	rows []database.AnnouncementRow
}

func (r *fakeRecorder) SaveAnnouncement(ctx context.Context, row database.AnnouncementRow) error {
	r.rows = append(r.rows, row)
	return nil
}

type armed struct {
	delay time.Duration
	fn    func()
}

type harness struct {
	ann      *Announcer
	reporter *fakeReporter
	sender   *fakeSender
	recorder *fakeRecorder
	timers   []armed
	now      time.Time
}

func newHarness(t *testing.T, failures int, now time.Time) *harness {
	t.Helper()

	store, err := config.NewStatic(config.AppConfig{Spot: config.AppConfigSpot{
		DeliveryArea: "FI",
		Currency:     "EUR",
		Timezone:     "UTC",
		PostToRooms:  []string{"kitchen", "sauna"},
		DayNames:     []string{"ma", "ti", "ke", "to", "pe", "la", "su"},
		Command:      "spot",
		Vat:          0.255,
	}})
	if err != nil {
		t.Fatalf("building config store: %v", err)
	}

	h := &harness{
		reporter: &fakeReporter{failures: failures},
		sender:   &fakeSender{},
		recorder: &fakeRecorder{},
		now:      now,
	}
	h.ann = New(slog.Default(), store, h.reporter, h.sender, h.recorder)
	h.ann.now = func() time.Time { return h.now }
	h.ann.runLater = func(d time.Duration, fn func()) *time.Timer {
		h.timers = append(h.timers, armed{delay: d, fn: fn})
		return nil
	}
	return h
}

// fire pops the most recently armed timer, advances the fake clock by
// its delay and runs the callback, like a real timer firing would.
func (h *harness) fire(t *testing.T) armed {
	t.Helper()
	if len(h.timers) == 0 {
		t.Fatal("no timer armed")
	}
	last := h.timers[len(h.timers)-1]
	h.timers = h.timers[:len(h.timers)-1]
	h.now = h.now.Add(last.delay)
	last.fn()
	return last
}

func TestAnnounceTargetsDayAheadDate(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, cet)
	h := newHarness(t, 0, now)
	h.ann.Start()

	if len(h.timers) != 1 {
		t.Fatalf("expected 1 armed timer, got %d", len(h.timers))
	}
	if want := 3*time.Hour + 45*time.Minute; h.timers[0].delay != want {
		t.Errorf("expected delay %v until 12:45 CET, got %v", want, h.timers[0].delay)
	}

	h.fire(t)

	// The 12:45 slot publishes the prices for the following day
	if len(h.reporter.dates) != 1 || h.reporter.dates[0] != "2024-01-16" {
		t.Errorf("expected fetch for 2024-01-16, got %v", h.reporter.dates)
	}
}

func TestAnnounceDeliversToAllRooms(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, cet)
	h := newHarness(t, 0, now)
	h.ann.Start()
	h.fire(t)

	if len(h.sender.rooms) != 2 || h.sender.rooms[0] != "kitchen" || h.sender.rooms[1] != "sauna" {
		t.Errorf("expected delivery to both rooms, got %v", h.sender.rooms)
	}
	if len(h.recorder.rows) != 1 {
		t.Fatalf("expected 1 recorded announcement, got %d", len(h.recorder.rows))
	}
	row := h.recorder.rows[0]
	if row.Status != database.AnnouncementDelivered || row.Rooms != 2 || row.Date != "2024-01-16" {
		t.Errorf("unexpected announcement row: %+v", row)
	}

	// A successful cycle re-arms the next day's slot
	if len(h.timers) != 1 {
		t.Fatalf("expected next day's timer armed, got %d timers", len(h.timers))
	}
	if h.timers[0].delay != 24*time.Hour {
		t.Errorf("expected delay to tomorrow 12:45 CET, got %v", h.timers[0].delay)
	}
}

func TestAnnounceRetriesEvery5Minutes(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, cet)
	h := newHarness(t, 3, now)
	h.ann.Start()
	h.fire(t) // daily slot, first failure

	for i := 0; i < 3; i++ {
		if len(h.timers) != 1 {
			t.Fatalf("attempt %d: expected a retry timer, got %d timers", i+1, len(h.timers))
		}
		fired := h.fire(t)
		if i < 3 && fired.delay != 300*time.Second {
			t.Errorf("attempt %d: expected 300s retry delay, got %v", i+1, fired.delay)
		}
	}

	if h.reporter.calls != 4 {
		t.Errorf("expected 4 fetch attempts, got %d", h.reporter.calls)
	}
	if len(h.sender.rooms) != 2 {
		t.Errorf("expected delivery after recovery, got %v", h.sender.rooms)
	}
}

func TestAnnounceGivesUpAfter24Attempts(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, cet)
	h := newHarness(t, 1000, now)
	h.ann.Start()
	h.fire(t) // daily slot, attempt 1

	// 23 retries bring the counter to the cap
	for i := 0; i < 23; i++ {
		h.fire(t)
	}

	if h.reporter.calls != 24 {
		t.Errorf("expected exactly 24 attempts, got %d", h.reporter.calls)
	}
	if len(h.recorder.rows) != 1 {
		t.Fatalf("expected 1 recorded announcement, got %d", len(h.recorder.rows))
	}
	row := h.recorder.rows[0]
	if row.Status != database.AnnouncementFailed || row.Attempts != 24 {
		t.Errorf("unexpected terminal row: %+v", row)
	}

	// The date is abandoned: the only armed timer is the next daily slot,
	// not a 25th retry
	if len(h.timers) != 1 {
		t.Fatalf("expected only the next day's timer, got %d", len(h.timers))
	}
	if h.timers[0].delay == 300*time.Second {
		t.Error("a 25th retry must never be armed")
	}

	// The next slot is tomorrow's, publishing the day after
	h.fire(t)
	if h.reporter.calls != 25 || h.reporter.dates[24] != "2024-01-17" {
		t.Errorf("next firing should start a fresh cycle, calls=%d dates=%v", h.reporter.calls, h.reporter.dates)
	}
}

func TestStopReleasesTimer(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, cet)
	h := newHarness(t, 0, now)
	h.ann.Start()
	h.ann.Stop()

	// A stopped announcer must not arm new timers
	h.fire(t)
	if len(h.timers) != 0 {
		t.Errorf("expected no timer armed after Stop, got %d", len(h.timers))
	}
}
