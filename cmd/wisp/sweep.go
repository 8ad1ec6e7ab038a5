package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/wisplink/wisp/internal/config"
	"github.com/wisplink/wisp/internal/db"
	"github.com/wisplink/wisp/internal/shortener"
	"github.com/wisplink/wisp/internal/store"
)

// newSweepCmd runs a single expiry sweep and exits, for cron-style scheduling
// alongside (or instead of) the serve-time sweeper goroutine.
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete all expired links and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			svc := shortener.NewService(store.NewLinkStore(database), &shortener.Classifier{}, shortener.Options{
				StoreTimeout: cfg.StoreTimeout,
			})

			deleted, err := svc.SweepExpired(context.Background())
			if err != nil {
				return err
			}

			log.Printf("sweep removed %d expired links", deleted)
			return nil
		},
	}
}
