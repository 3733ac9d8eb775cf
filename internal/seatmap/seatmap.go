// Package seatmap derives the seat layout of a trip. Seats are never stored;
// the same input always produces the same ordered seats with the same ids.
package seatmap

import (
	"fmt"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/domain"
)

const (
	DefaultRows    = 3
	DefaultColumns = 6
)

var DefaultDecks = []string{"L", "U"}

type Generator struct {
	decks   []string
	rows    int
	columns int
	derive  bool
}

// New builds a generator from config, falling back to the two-deck 3x6
// layout for anything left unset.
func New(cfg config.SeatMapConfig) *Generator {
	g := &Generator{
		decks:   cfg.Decks,
		rows:    cfg.Rows,
		columns: cfg.Columns,
		derive:  cfg.DeriveFromTotalSeats,
	}
	if len(g.decks) == 0 {
		g.decks = DefaultDecks
	}
	if g.rows <= 0 {
		g.rows = DefaultRows
	}
	if g.columns <= 0 {
		g.columns = DefaultColumns
	}
	return g
}

func Default() *Generator {
	return New(config.SeatMapConfig{})
}

// Generate returns the ordered seats of a trip: deck by deck, row-major.
// Unless the generator derives its size from totalSeats, the fixed layout
// is returned and totalSeats is ignored.
func (g *Generator) Generate(totalSeats int) []domain.Seat {
	counts := g.deckCounts(totalSeats)

	total := 0
	for _, n := range counts {
		total += n
	}
	seats := make([]domain.Seat, 0, total)
	for i, code := range g.decks {
		for k := 0; k < counts[i]; k++ {
			row := k/g.columns + 1
			col := k%g.columns + 1
			seats = append(seats, domain.Seat{
				ID:     SeatID(code, row, col),
				Deck:   deckName(code),
				Row:    row,
				Column: col,
				Label:  fmt.Sprintf("%s%d", code, k+1),
			})
		}
	}
	return seats
}

func (g *Generator) deckCounts(totalSeats int) []int {
	counts := make([]int, len(g.decks))
	if !g.derive || totalSeats <= 0 {
		for i := range counts {
			counts[i] = g.rows * g.columns
		}
		return counts
	}
	base, rem := totalSeats/len(g.decks), totalSeats%len(g.decks)
	for i := range counts {
		counts[i] = base
		if i < rem {
			counts[i]++
		}
	}
	return counts
}

func SeatID(deck string, row, col int) string {
	return fmt.Sprintf("%s-%d-%d", deck, row, col)
}

func deckName(code string) domain.Deck {
	switch code {
	case "L":
		return domain.DeckLower
	case "U":
		return domain.DeckUpper
	default:
		return domain.Deck(code)
	}
}

// Validate checks a requested selection against a generated seat map and
// returns the selected seats in request order.
func Validate(seats []domain.Seat, seatIDs []string) ([]domain.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, &domain.SelectionError{Reason: "no seats selected"}
	}

	index := make(map[string]domain.Seat, len(seats))
	for _, s := range seats {
		index[s.ID] = s
	}

	seen := make(map[string]struct{}, len(seatIDs))
	var duplicates, unknown []string
	selected := make([]domain.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			duplicates = append(duplicates, id)
			continue
		}
		seen[id] = struct{}{}
		s, ok := index[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, s)
	}

	if len(duplicates) > 0 {
		return nil, &domain.SelectionError{Reason: "duplicate seats", SeatIDs: duplicates}
	}
	if len(unknown) > 0 {
		return nil, &domain.SelectionError{Reason: "unknown seats", SeatIDs: unknown}
	}
	return selected, nil
}

// Labels returns the display labels of seats in the given order.
func Labels(seats []domain.Seat) []string {
	labels := make([]string, len(seats))
	for i, s := range seats {
		labels[i] = s.Label
	}
	return labels
}

func IDs(seats []domain.Seat) []string {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}
