package cli

import (
	"fmt"

	"github.com/Domenick1991/busbooking/internal/cache"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/service/trips"
	"github.com/spf13/cobra"
)

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <trips.yaml>",
		Short: "Upsert catalog trips into Postgres and drop the cached listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := repository.LoadSeed(args[0])
			if err != nil {
				return err
			}
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			var tripCache trips.TripCache
			if cfg.Redis.Enabled() {
				redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.TripsCacheDuration())
				defer redisCache.Close()
				tripCache = redisCache
			}

			service := trips.NewTripService(repository.NewTripRepository(pool), tripCache, nil)
			n, err := service.Import(cmd.Context(), seed)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"seeded": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d trips\n", n)
			return nil
		},
	}
	return cmd
}
