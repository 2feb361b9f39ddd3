package www

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/spotprice-go/announce"
	"github.com/angas/spotprice-go/database"
)

type announcementJSON struct {
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Rooms     int       `json:"rooms"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type statusJSON struct {
	NextAnnounceAt time.Time          `json:"nextAnnounceAt"`
	NextDate       string             `json:"nextDate"`
	Recent         []announcementJSON `json:"recent"`
}

func NewStatusHandler(logger *slog.Logger, db *database.Database, ann *announce.Announcer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		recent, err := db.GetRecentAnnouncements(r.Context(), intOrDefault(r.URL, "limit", 10))
		if err != nil {
			logger.Error("fetching recent announcements", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		out := statusJSON{
			NextAnnounceAt: ann.NextAt(),
			NextDate:       ann.NextDate(),
			Recent:         make([]announcementJSON, 0, len(recent)),
		}
		for _, a := range recent {
			out.Recent = append(out.Recent, announcementJSON{
				Date:      a.Date,
				Status:    a.Status,
				Attempts:  a.Attempts,
				Rooms:     a.Rooms,
				Detail:    a.Detail,
				Timestamp: a.Timestamp,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			logger.Error("encoding status response", slog.Any("error", err))
		}
	}
}
