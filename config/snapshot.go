package config

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

// Snapshot is the immutable view of the spot settings used by one
// fetch-format-deliver cycle. It is replaced wholesale on config reload,
// never mutated field by field, so an in-flight cycle sees either the
// old or the new settings but never a torn mix.
type Snapshot struct {
	DeliveryArea  string
	Currency      string
	Location      *time.Location
	Rooms         []string
	DayNames      [7]string
	VatMultiplier float64
	CommandName   string
}

// Store holds the full parsed config plus the current spot snapshot.
type Store struct {
	viper    *viper.Viper
	app      atomic.Pointer[AppConfig]
	snapshot atomic.Pointer[Snapshot]
}

// App returns the full config as read at the last successful (re)load.
func (s *Store) App() *AppConfig {
	return s.app.Load()
}

// Snapshot returns the current spot settings. The returned value must
// not be modified.
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

func (s *Store) reload() error {
	var c AppConfig
	if err := s.viper.Unmarshal(&c); err != nil {
		return fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	snap, err := deriveSnapshot(c.Spot)
	if err != nil {
		return err
	}

	s.app.Store(&c)
	s.snapshot.Store(snap)
	return nil
}

func deriveSnapshot(spot AppConfigSpot) (*Snapshot, error) {
	if len(spot.DayNames) != 7 {
		return nil, fmt.Errorf("config needs 7 day names, got %d", len(spot.DayNames))
	}

	loc, err := time.LoadLocation(spot.Timezone)
	if err != nil {
		slog.Default().Warn("unknown timezone, using UTC", slog.String("timezone", spot.Timezone))
		loc = time.UTC
	}

	snap := &Snapshot{
		DeliveryArea:  spot.DeliveryArea,
		Currency:      spot.Currency,
		Location:      loc,
		Rooms:         spot.PostToRooms,
		VatMultiplier: 1 + spot.Vat,
		CommandName:   spot.Command,
	}
	copy(snap.DayNames[:], spot.DayNames)
	return snap, nil
}
