package domain

import "time"

// Trip is the catalog's view of a scheduled bus run. The core reads only
// ID, OperatorID, TotalSeats and PriceCents; the rest is display data.
type Trip struct {
	ID            string
	OperatorID    string
	OperatorName  string
	Name          string
	BusType       string
	FromCity      string
	ToCity        string
	DepartureTime time.Time
	ArrivalTime   time.Time
	TotalSeats    int
	PriceCents    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
