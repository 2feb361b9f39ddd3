package www

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/angas/spotprice-go/announce"
	"github.com/angas/spotprice-go/nordpool"
	"github.com/angas/spotprice-go/spot"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type pricePointJSON struct {
	Start time.Time `json:"start"`
	Price float64   `json:"price"`
}

type priceSeriesJSON struct {
	Date   string           `json:"date"`
	Unit   string           `json:"unit"`
	Points []pricePointJSON `json:"points"`
}

// NewPricesHandler serves the fetched series as JSON. Without a date
// parameter it falls back to the next announcement's date, same as the
// chat command.
func NewPricesHandler(logger *slog.Logger, svc *spot.Service, ann *announce.Announcer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := requestDate(w, r, ann)
		if !ok {
			return
		}

		series, err := svc.Fetch(r.Context(), date)
		if err != nil {
			writeFetchError(logger, w, err)
			return
		}

		out := priceSeriesJSON{Date: series.Date, Unit: "c/kWh"}
		for _, p := range series.Points {
			out.Points = append(out.Points, pricePointJSON{Start: p.Start, Price: p.Price})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			logger.Error("encoding prices response", slog.Any("error", err))
		}
	}
}

// NewReportHandler serves the formatted text report, the HTTP twin of
// the chat command reply.
func NewReportHandler(logger *slog.Logger, svc *spot.Service, ann *announce.Announcer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := requestDate(w, r, ann)
		if !ok {
			return
		}

		report, err := svc.Report(r.Context(), date)
		if err != nil {
			writeFetchError(logger, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		if _, err := w.Write([]byte(report)); err != nil {
			logger.Error("writing report response", slog.Any("error", err))
		}
	}
}

func requestDate(w http.ResponseWriter, r *http.Request, ann *announce.Announcer) (string, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		return ann.NextDate(), true
	}
	if !datePattern.MatchString(date) {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return "", false
	}
	return date, true
}

func writeFetchError(logger *slog.Logger, w http.ResponseWriter, err error) {
	if errors.Is(err, nordpool.ErrNoData) {
		http.Error(w, "prices not published yet", http.StatusNotFound)
		return
	}
	logger.Error("failed to fetch spot prices", slog.Any("error", err))
	http.Error(w, "failed to fetch prices", http.StatusBadGateway)
}
