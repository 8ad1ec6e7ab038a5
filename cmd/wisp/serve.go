package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/wisplink/wisp/internal/cache"
	"github.com/wisplink/wisp/internal/config"
	"github.com/wisplink/wisp/internal/db"
	"github.com/wisplink/wisp/internal/handler"
	"github.com/wisplink/wisp/internal/metrics"
	"github.com/wisplink/wisp/internal/ratelimit"
	"github.com/wisplink/wisp/internal/shortener"
	"github.com/wisplink/wisp/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
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

			linkStore := store.NewLinkStore(database)

			var resolveCache shortener.ResolveCache
			if cfg.Cache.URL != "" {
				rc, err := cache.NewRedisCache(cfg.Cache.URL)
				if err != nil {
					return err
				}
				defer func() { _ = rc.Close() }()
				resolveCache = rc
				log.Printf("resolve cache enabled at %s", cfg.Cache.URL)
			}

			classifier := &shortener.Classifier{SiteHostname: cfg.Hostname()}
			svc := shortener.NewService(linkStore, classifier, shortener.Options{
				Cache:        resolveCache,
				TTL:          cfg.TTL(),
				SlugLength:   cfg.SlugLength,
				StoreTimeout: cfg.StoreTimeout,
			})

			limiter := ratelimit.NewLimiter(cfg.RateLimit.Window, cfg.RateLimit.Max)

			ctx := context.Background()
			go svc.RunSweeper(ctx, cfg.SweepInterval, func(deleted int64) {
				metrics.SweepDeletedTotal.Add(float64(deleted))
				if deleted > 0 {
					log.Printf("sweep removed %d expired links", deleted)
				}
			})
			go runHousekeeping(ctx, limiter, linkStore)

			router := handler.NewRouter(handler.Deps{
				Service: svc,
				Limiter: limiter,
				DB:      database,
				BaseURL: cfg.BaseURL,
			})

			log.Printf("listening on %s", cfg.HTTP.Addr)
			return http.ListenAndServe(cfg.HTTP.Addr, router)
		},
	}
}

// runHousekeeping prunes idle rate-limiter keys and refreshes the stored-links
// gauge on a fixed cadence.
func runHousekeeping(ctx context.Context, limiter *ratelimit.Limiter, ls *store.LinkStore) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune()
			if n, err := ls.CountLinks(ctx); err == nil {
				metrics.LinksTotal.Set(float64(n))
			}
		}
	}
}
