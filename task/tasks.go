package task

import (
	"context"
	"log/slog"

	"github.com/angas/spotprice-go/config"
	"github.com/angas/spotprice-go/database"
	"github.com/robfig/cron/v3"
)

// Tasks holds the cron-scheduled housekeeping. The announcement cycle
// itself is not cron-driven: its delay is recomputed after every firing
// (daily slot or retry), so it runs on one-shot timers in the announce
// package.
type Tasks struct {
	cron            *cron.Cron
	MaintenanceTask func()
}

func NewTasks(db *database.Database, store *config.Store) *Tasks {
	logger := slog.Default().With("module", "tasks")
	return &Tasks{
		cron:            cron.New(),
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, store),
	}
}

func (t *Tasks) Run() {
	if _, err := t.cron.AddFunc("30 2 * * *", t.MaintenanceTask); err != nil {
		panic(err)
	}
	t.cron.Start()
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
