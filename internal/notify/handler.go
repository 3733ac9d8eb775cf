// Package notify turns booking events into rider notifications. It is the
// message handler of cmd/worker and is transport agnostic.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/busbooking/internal/email"
	"github.com/Domenick1991/busbooking/internal/events"
)

type TicketRenderer interface {
	Render(ev events.BookingEvent) ([]byte, string, error)
}

type Sender interface {
	Send(ctx context.Context, event events.BookingEvent, attachment *email.Attachment) error
}

type Handler struct {
	tickets TicketRenderer
	sender  Sender
	logger  *slog.Logger
}

func NewHandler(tickets TicketRenderer, sender Sender, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{tickets: tickets, sender: sender, logger: logger}
}

// Handle processes one raw message. Malformed messages are logged and
// skipped; a returned error means the message should be retried.
func (h *Handler) Handle(ctx context.Context, data []byte) error {
	ev, err := events.Decode(data)
	if err != nil {
		if errors.Is(err, events.ErrMalformedEvent) {
			h.logger.WarnContext(ctx, "skipping malformed booking event", "error", err)
			return nil
		}
		return err
	}

	var attachment *email.Attachment
	if ev.Type == events.TypeBookingConfirmed && h.tickets != nil {
		pdf, name, err := h.tickets.Render(ev)
		if err != nil {
			// The rider still gets the confirmation, just without the PDF.
			h.logger.ErrorContext(ctx, "ticket render failed", "booking_id", ev.BookingID, "error", err)
		} else {
			attachment = &email.Attachment{Filename: name, Data: pdf}
		}
	}

	if err := h.sender.Send(ctx, ev, attachment); err != nil {
		return fmt.Errorf("send notification for booking %s: %w", ev.BookingID, err)
	}
	return nil
}
