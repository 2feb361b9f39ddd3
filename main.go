package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angas/spotprice-go/announce"
	"github.com/angas/spotprice-go/bridge"
	"github.com/angas/spotprice-go/config"
	"github.com/angas/spotprice-go/database"
	"github.com/angas/spotprice-go/logging"
	"github.com/angas/spotprice-go/nordpool"
	"github.com/angas/spotprice-go/spot"
	"github.com/angas/spotprice-go/task"
	"github.com/angas/spotprice-go/www"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	store, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	cnfg := store.App()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("spotprice is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	store.Watch(logger.With("module", "config"))

	svc := spot.New(logger.With("module", "spot"), store, nordpool.New())

	nextDate := func() string {
		return announce.NextTime(time.Now()).Format("2006-01-02")
	}
	br := bridge.New(cnfg.Mqtt, store, svc, nextDate)

	announcer := announce.New(
		logger.With("module", "announce"),
		store,
		svc,
		br,
		db)

	if isDevMode() {
		logger.Info("dev mode, skipping mqtt bridge connection")
	} else {
		if err := br.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt bridge connection error: %v", err))
		}
		defer br.Disconnect()
	}

	tasks := task.NewTasks(db, store)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		tasks.Run()
		defer tasks.Stop()
	}

	server := www.StartServer(db, svc, announcer, cnfg.Api)

	announcer.OnStatus = func(s announce.Status) {
		buf, err := json.Marshal(s)
		if err != nil {
			logger.Error("failed to marshal announce status", slog.Any("error", err))
			return
		}
		server.Broadcast(buf)
	}
	announcer.Start()
	defer announcer.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server.Run(ctx)
}

func isDevMode() bool {
	return os.Getenv("APP_ENV") == "development"
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	time.Sleep(2 * time.Second)
	os.Exit(1)
}
