// Package www exposes the service over HTTP: on-demand price queries
// with the same contract as the chat command, a status endpoint, the
// persisted log, and a web socket feeding live announcement status.
package www

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/spotprice-go/announce"
	"github.com/angas/spotprice-go/config"
	"github.com/angas/spotprice-go/database"
	"github.com/angas/spotprice-go/spot"
)

type Server struct {
	logger *slog.Logger
	cnfg   config.AppConfigApi
	db     *database.Database
	svc    *spot.Service
	ann    *announce.Announcer
	hub    *Hub
	mux    *http.ServeMux
}

func StartServer(db *database.Database, svc *spot.Service, ann *announce.Announcer, cnfg config.AppConfigApi) *Server {
	logger := slog.Default().With("module", "www")

	s := &Server{
		logger: logger,
		cnfg:   cnfg,
		db:     db,
		svc:    svc,
		ann:    ann,
		hub:    NewHub(logger),
		mux:    http.NewServeMux(),
	}

	go s.hub.Run()

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("/api/prices", logReqMW(NewPricesHandler(
		logger.With(slog.String("handler", "prices")), svc, ann)))

	s.mux.Handle("/api/report", logReqMW(NewReportHandler(
		logger.With(slog.String("handler", "report")), svc, ann)))

	s.mux.Handle("/api/status", logReqMW(NewStatusHandler(
		logger.With(slog.String("handler", "status")), db, ann)))

	s.mux.Handle("/api/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")), db)))

	s.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		client, err := NewClient(s.hub, w, r, r.RemoteAddr)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register <- client
		go client.WritePump()
	})

	return s
}

// Broadcast pushes a message to all connected web socket clients. Wired
// to the announcer's status callback in main.
func (s *Server) Broadcast(msg []byte) {
	s.hub.Broadcast <- msg
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "address", s.cnfg.Address, "port", s.cnfg.Port)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cnfg.Address, s.cnfg.Port),
		Handler: s.mux,
	}

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	for {
		select {
		case err := <-srvErrors:
			if err != nil && err != http.ErrServerClosed {
				s.logger.Error("server error", slog.Any("error", err))
			}

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("server shutdown failed", slog.Any("error", err))
			}
			return
		}
	}
}
