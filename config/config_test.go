package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYaml = `
spot:
  delivery_area: "FI"
  currency: "EUR"
  timezone: "Europe/Helsinki"
  post_to_rooms:
    - "kitchen"
    - "sauna"
  day_names: ["maanantai", "tiistai", "keskiviikko", "torstai", "perjantai", "lauantai", "sunnuntai"]
  command: "spot"
  vat: 0.255
mqtt:
  host: "localhost"
  port: 1883
api:
  address: "127.0.0.1"
  port: 8080
database:
  path: "spotprice.db"
logging:
  console_level: "DEBUG"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	store, err := Load(writeConfig(t, testYaml))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	cnfg := store.App()
	if cnfg.Spot.DeliveryArea != "FI" {
		t.Errorf("expected delivery area FI, got %q", cnfg.Spot.DeliveryArea)
	}
	if cnfg.Mqtt.GetTopicPrefix() != "spotprice" {
		t.Errorf("expected default topic prefix, got %q", cnfg.Mqtt.GetTopicPrefix())
	}
	if cnfg.Database.GetHistoryRetentionDays() != 90 {
		t.Errorf("expected default history retention, got %d", cnfg.Database.GetHistoryRetentionDays())
	}

	snap := store.Snapshot()
	if snap.VatMultiplier != 1.255 {
		t.Errorf("expected vat multiplier 1.255, got %f", snap.VatMultiplier)
	}
	if snap.Location.String() != "Europe/Helsinki" {
		t.Errorf("expected Helsinki location, got %v", snap.Location)
	}
	if len(snap.Rooms) != 2 || snap.Rooms[1] != "sauna" {
		t.Errorf("unexpected rooms: %v", snap.Rooms)
	}
	if snap.DayNames[0] != "maanantai" || snap.DayNames[6] != "sunnuntai" {
		t.Errorf("unexpected day names: %v", snap.DayNames)
	}
	if snap.CommandName != "spot" {
		t.Errorf("expected command name spot, got %q", snap.CommandName)
	}
}

func TestSnapshotTimezoneFallback(t *testing.T) {
	snap, err := deriveSnapshot(AppConfigSpot{
		DeliveryArea: "FI",
		Timezone:     "Mars/Olympus_Mons",
		DayNames:     []string{"ma", "ti", "ke", "to", "pe", "la", "su"},
	})
	if err != nil {
		t.Fatalf("deriveSnapshot() error: %v", err)
	}
	if snap.Location.String() != "UTC" {
		t.Errorf("expected UTC fallback for unknown timezone, got %v", snap.Location)
	}
}

func TestSnapshotRequiresSevenDayNames(t *testing.T) {
	_, err := deriveSnapshot(AppConfigSpot{
		DeliveryArea: "FI",
		Timezone:     "UTC",
		DayNames:     []string{"ma", "ti"},
	})
	if err == nil {
		t.Error("expected an error for a short day name list")
	}
}
