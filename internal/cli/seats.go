package cli

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/seatmap"
	"github.com/spf13/cobra"
)

// NewSeatsCommand prints the seat layout generated for a trip size. It reads
// the seatmap section of the config when one is present.
func NewSeatsCommand(rootOpts *RootOptions) *cobra.Command {
	var totalSeats int

	cmd := &cobra.Command{
		Use:   "seats",
		Short: "Print the seat layout for a trip size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var layout config.SeatMapConfig
			if cfg, err := rootOpts.loadConfig(); err == nil {
				layout = cfg.SeatMap
			}
			seats := seatmap.New(layout).Generate(totalSeats)

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), seats)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSeats(seats))
			return nil
		},
	}

	cmd.Flags().IntVar(&totalSeats, "total", 36, "catalog total seats of the trip")
	return cmd
}

// renderSeats prints one line per deck row, labels separated by spaces.
func renderSeats(seats []domain.Seat) string {
	var b strings.Builder
	var deck domain.Deck
	row := 0
	for i, s := range seats {
		if s.Deck != deck {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[%s]\n", s.Deck)
			deck, row = s.Deck, 0
		}
		if s.Row != row {
			if row != 0 {
				b.WriteString("\n")
			}
			row = s.Row
		} else {
			b.WriteString(" ")
		}
		b.WriteString(s.Label)
	}
	if len(seats) > 0 {
		b.WriteString("\n")
	}
	return b.String()
}
