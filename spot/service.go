// Package spot ties the price fetcher and the report formatter to the
// current configuration snapshot. Both the scheduled announcement, the
// chat command and the HTTP API go through it.
package spot

import (
	"context"
	"log/slog"

	"github.com/angas/spotprice-go/config"
	"github.com/angas/spotprice-go/nordpool"
	"github.com/angas/spotprice-go/price"
)

type Service struct {
	logger *slog.Logger
	store  *config.Store
	client *nordpool.Client
}

func New(logger *slog.Logger, store *config.Store, client *nordpool.Client) *Service {
	return &Service{logger: logger, store: store, client: client}
}

// Fetch retrieves the VAT-inclusive hourly prices for one delivery date
// using the spot settings current at call time.
func (s *Service) Fetch(ctx context.Context, date string) (price.Series, error) {
	snap := s.store.Snapshot()
	s.logger.Debug("fetching day-ahead prices",
		slog.String("date", date),
		slog.String("area", snap.DeliveryArea),
		slog.String("currency", snap.Currency))

	return s.client.FetchDayAhead(ctx, nordpool.Query{
		Date:          date,
		Area:          snap.DeliveryArea,
		Currency:      snap.Currency,
		VatMultiplier: snap.VatMultiplier,
	})
}

// Format renders a fetched series with the configured day names and
// display timezone.
func (s *Service) Format(series price.Series) string {
	snap := s.store.Snapshot()
	return price.Format(series, price.FormatOptions{
		DayNames: snap.DayNames,
		Location: snap.Location,
	})
}

// Report is Fetch followed by Format.
func (s *Service) Report(ctx context.Context, date string) (string, error) {
	series, err := s.Fetch(ctx, date)
	if err != nil {
		return "", err
	}
	return s.Format(series), nil
}
