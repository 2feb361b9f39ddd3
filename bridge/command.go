package bridge

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

const fetchFailedReply = "Failed to fetch prices"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// parseCommand matches a command line against the configured trigger
// with an optional YYYY-MM-DD argument. A wrong trigger, a malformed
// date or trailing junk means the line is not for us.
func parseCommand(line, trigger string) (date string, ok bool) {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 0 || fields[0] != trigger:
		return "", false
	case len(fields) == 1:
		return "", true
	case len(fields) == 2 && datePattern.MatchString(fields[1]):
		return fields[1], true
	default:
		return "", false
	}
}

// handleCommand runs one on-demand query and replies to the requesting
// room. Unlike the scheduled announcement there is no retry: a failed
// fetch is reported right back to the requester.
func (b *Bridge) handleCommand(room, line string) {
	date, ok := parseCommand(line, b.store.Snapshot().CommandName)
	if !ok {
		b.logger.Debug("ignoring message on command topic",
			slog.String("room", room),
			slog.String("payload", line))
		return
	}
	if date == "" {
		date = b.defaultDate()
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandBudget)
	defer cancel()

	b.logger.Info("handling price command",
		slog.String("room", room),
		slog.String("date", date))

	report, err := b.reporter.Report(ctx, date)
	if err != nil {
		b.logger.Error("failed to fetch spot prices for command",
			slog.String("date", date),
			slog.Any("error", err))
		report = fetchFailedReply
	}

	if err := b.Send(ctx, room, report); err != nil {
		b.logger.Error("failed to reply to command",
			slog.String("room", room),
			slog.Any("error", err))
	}
}
