package email

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Domenick1991/busbooking/internal/events"
)

type Attachment struct {
	Filename string
	Data     []byte
}

// Sender delivers rider notifications. Delivery is a structured log line;
// attachments are written to outputDir when one is configured.
type Sender struct {
	outputDir string
	logger    *slog.Logger
}

func NewSender(outputDir string, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{outputDir: outputDir, logger: logger}
}

func Subject(event events.BookingEvent) string {
	switch event.Type {
	case events.TypeBookingConfirmed:
		return fmt.Sprintf("Booking %s confirmed", event.BookingID)
	case events.TypeBookingCancelledByAdmin:
		return fmt.Sprintf("Booking %s cancelled by %s", event.BookingID, event.CancelledByName)
	default:
		return fmt.Sprintf("Booking %s cancelled", event.BookingID)
	}
}

func (s *Sender) Send(ctx context.Context, event events.BookingEvent, attachment *Attachment) error {
	attrs := []any{
		"rider_id", event.RiderID,
		"booking_id", event.BookingID,
		"trip_id", event.TripID,
		"subject", Subject(event),
		"seats", event.SeatLabels,
	}

	if attachment != nil && s.outputDir != "" {
		if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
			return fmt.Errorf("create ticket dir: %w", err)
		}
		path := filepath.Join(s.outputDir, filepath.Base(attachment.Filename))
		if err := os.WriteFile(path, attachment.Data, 0o644); err != nil {
			return fmt.Errorf("write attachment: %w", err)
		}
		attrs = append(attrs, "attachment", path)
	}

	s.logger.InfoContext(ctx, "notification sent", attrs...)
	return nil
}
