package repository

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"gopkg.in/yaml.v3"
)

type seedTrip struct {
	ID            string    `yaml:"id"`
	OperatorID    string    `yaml:"operator_id"`
	OperatorName  string    `yaml:"operator_name"`
	Name          string    `yaml:"name"`
	BusType       string    `yaml:"bus_type"`
	FromCity      string    `yaml:"from_city"`
	ToCity        string    `yaml:"to_city"`
	DepartureTime time.Time `yaml:"departure_time"`
	ArrivalTime   time.Time `yaml:"arrival_time"`
	TotalSeats    int       `yaml:"total_seats"`
	PriceCents    int64     `yaml:"price_cents"`
}

// LoadSeed reads a YAML list of catalog trips.
func LoadSeed(path string) ([]domain.Trip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var raw struct {
		Trips []seedTrip `yaml:"trips"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	trips := make([]domain.Trip, 0, len(raw.Trips))
	for i, t := range raw.Trips {
		if t.ID == "" || t.OperatorID == "" {
			return nil, fmt.Errorf("seed trip %d: id and operator_id are required", i)
		}
		if t.TotalSeats <= 0 || t.PriceCents < 0 {
			return nil, fmt.Errorf("seed trip %s: total_seats must be positive and price_cents non-negative", t.ID)
		}
		trips = append(trips, domain.Trip{
			ID:            t.ID,
			OperatorID:    t.OperatorID,
			OperatorName:  t.OperatorName,
			Name:          t.Name,
			BusType:       t.BusType,
			FromCity:      t.FromCity,
			ToCity:        t.ToCity,
			DepartureTime: t.DepartureTime,
			ArrivalTime:   t.ArrivalTime,
			TotalSeats:    t.TotalSeats,
			PriceCents:    t.PriceCents,
		})
	}
	return trips, nil
}

// Seed upserts trips into repo and returns how many were written.
func Seed(ctx context.Context, repo TripRepository, trips []domain.Trip) (int, error) {
	for i := range trips {
		if err := repo.Upsert(ctx, &trips[i]); err != nil {
			return i, fmt.Errorf("seed trip %s: %w", trips[i].ID, err)
		}
	}
	return len(trips), nil
}
