package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/spotprice-go/config"
	"github.com/angas/spotprice-go/database"
)

func NewMaintenanceTask(logger *slog.Logger, db *database.Database, store *config.Store) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		cnfg := store.App()

		if err := db.PurgeLog(ctx, cnfg.Logging.GetDbMaxEntries()); err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeAnnouncements(ctx, cnfg.Database.GetHistoryRetentionDays()); err != nil {
			logger.Error("announcement maintenance error", slog.Any("error", err))
		}

		if err := db.Backup(ctx); err != nil {
			logger.Error("backup error", slog.Any("error", err))
		}

		if err := db.PurgeBackups(ctx, cnfg.Database.GetBackupRetentionDays()); err != nil {
			logger.Error("backup purge error", slog.Any("error", err))
		}

		logger.Info("maintenance task done")
	}
}
