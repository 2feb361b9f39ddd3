package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/angas/spotprice-go/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfigSpot struct {
	DeliveryArea string   `mapstructure:"delivery_area"` // Bidding zone code, e.g. "FI", "SE3"
	Currency     string   // ISO currency code the prices are fetched in
	Timezone     string   // IANA zone for displaying hourly lines, falls back to UTC
	PostToRooms  []string `mapstructure:"post_to_rooms"` // Destination room identifiers
	DayNames     []string `mapstructure:"day_names"`     // 7 localized weekday names, Monday first
	Command      string   // Trigger name for the on-demand command
	Vat          float64  // VAT rate, e.g. 0.24 for 24%
}

type AppConfigMqtt struct {
	Host     string
	Port     int16
	Username string
	Password string
	// Prefix for all bridge topics, default "spotprice". Reports go to
	// <prefix>/room/<room>, commands arrive on <prefix>/command/<room>.
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil || *m.TopicPrefix == "" {
		return "spotprice"
	}
	return *m.TopicPrefix
}

type AppConfigApi struct {
	Address string
	Port    int16
}

type AppConfigDatabase struct {
	Path string
	// How many days announcement history is kept before it gets purged
	HistoryRetentionDays *int `mapstructure:"history_retention_days"`
	// How many days daily backup files are kept before they get deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetHistoryRetentionDays() int {
	if d.HistoryRetentionDays == nil {
		return 90
	}
	return *d.HistoryRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 90
	}
	return *d.BackupRetentionDays
}

type AppConfigLogging struct {
	// Min log level for database: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat == nil {
		return logging.LogAttrFormatJSON
	}
	if strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Spot     AppConfigSpot
	Mqtt     AppConfigMqtt
	Api      AppConfigApi
	Database AppConfigDatabase
	Logging  AppConfigLogging
}

// Load reads the config file once and returns a Store that keeps a
// derived snapshot of the spot settings up to date as the file changes
// on disk.
func Load(path string) (*Store, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	s := &Store{viper: v}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStatic builds a store from an already-parsed config, without a
// backing file. Used by tests.
func NewStatic(c AppConfig) (*Store, error) {
	snap, err := deriveSnapshot(c.Spot)
	if err != nil {
		return nil, err
	}
	s := &Store{}
	s.app.Store(&c)
	s.snapshot.Store(snap)
	return s, nil
}

// Watch re-reads the config on every file change. Static sections (mqtt,
// api, database, logging) keep their boot-time values; only the spot
// snapshot is replaced.
func (s *Store) Watch(logger *slog.Logger) {
	if s.viper == nil {
		return
	}
	s.viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed, reloading", slog.String("file", e.Name))
		if err := s.reload(); err != nil {
			logger.Error("config reload failed, keeping previous snapshot", slog.Any("error", err))
		}
	})
	s.viper.WatchConfig()
}
