// Package ticket renders the confirmation PDF attached to notifications.
package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Domenick1991/busbooking/internal/events"
	"github.com/phpdave11/gofpdf"
)

type Renderer struct {
	brand string
}

func NewRenderer(brand string) *Renderer {
	if brand == "" {
		brand = "Bus Booking"
	}
	return &Renderer{brand: brand}
}

// Filename is the attachment name for a booking's ticket.
func Filename(bookingID string) string {
	return fmt.Sprintf("TICKET_%s.pdf", safeFilenamePart(bookingID))
}

// Render builds one ticket covering every seat of the booking.
func (r *Renderer) Render(ev events.BookingEvent) ([]byte, string, error) {
	if ev.BookingID == "" {
		return nil, "", fmt.Errorf("render ticket: missing booking id")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+ev.BookingID, false)
	pdf.SetAuthor(r.brand, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, strings.ToUpper(r.brand)+" E-TICKET")
	pdf.Ln(12)

	departure := "-"
	if !ev.DepartureTime.IsZero() {
		departure = ev.DepartureTime.Format("2006-01-02 15:04")
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking      : %s", ev.BookingID),
		fmt.Sprintf("Passenger    : %s", safe(ev.RiderName, ev.RiderID)),
		fmt.Sprintf("Trip         : %s", safe(ev.TripName, ev.TripID)),
		fmt.Sprintf("Route        : %s -> %s", safe(ev.FromCity, "-"), safe(ev.ToCity, "-")),
		fmt.Sprintf("Departure    : %s", departure),
		fmt.Sprintf("Seats        : %s", safe(strings.Join(ev.SeatLabels, ", "), "-")),
		fmt.Sprintf("Passengers   : %d", ev.PassengerCount),
		fmt.Sprintf("Total        : %s", formatCents(ev.TotalPriceCents)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Show this ticket when boarding. Valid only for the seats listed above.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render ticket: %w", err)
	}
	return buf.Bytes(), Filename(ev.BookingID), nil
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func safeFilenamePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
