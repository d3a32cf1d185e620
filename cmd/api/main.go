package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sfc-mobility/campus-rides-api/internal/adapters/httpapi"
	memriderepo "github.com/sfc-mobility/campus-rides-api/internal/adapters/memory/riderepo"
	memuserrepo "github.com/sfc-mobility/campus-rides-api/internal/adapters/memory/userrepo"
	postgres "github.com/sfc-mobility/campus-rides-api/internal/adapters/postgres"
	pgriderepo "github.com/sfc-mobility/campus-rides-api/internal/adapters/postgres/riderepo"
	pguserrepo "github.com/sfc-mobility/campus-rides-api/internal/adapters/postgres/userrepo"
	"github.com/sfc-mobility/campus-rides-api/internal/adapters/rediscache"
	"github.com/sfc-mobility/campus-rides-api/internal/adapters/schoolapi"
	"github.com/sfc-mobility/campus-rides-api/internal/app/dashboard"
	"github.com/sfc-mobility/campus-rides-api/internal/app/rides"
	"github.com/sfc-mobility/campus-rides-api/internal/app/users"
	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	platformclock "github.com/sfc-mobility/campus-rides-api/internal/platform/clock"
	"github.com/sfc-mobility/campus-rides-api/internal/platform/config"
	"github.com/sfc-mobility/campus-rides-api/internal/platform/logging"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/dashcache"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/locverify"
	riderepoport "github.com/sfc-mobility/campus-rides-api/internal/ports/out/riderepo"
	userrepoport "github.com/sfc-mobility/campus-rides-api/internal/ports/out/userrepo"
)

// unknownVerifier stands in when no school API endpoint is configured:
// every check comes back indeterminate instead of failing the request.
type unknownVerifier struct{}

func (unknownVerifier) Verify(context.Context, string, domain.Location) (locverify.Verdict, error) {
	return locverify.Verdict{}, nil
}

func main() {
	cfg, err := config.Load(getenv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.Log.Level)

	clk := platformclock.NewSystemClock()

	var (
		userRepo userrepoport.Repository
		rideRepo riderepoport.Repository
		cleanup  func()
	)
	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.Database.URL, postgres.PoolOptions{})
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		cleanup = pool.Close
		userRepo = pguserrepo.NewRepo(pool)
		rideRepo = pgriderepo.NewRepo(pool)
		log.Info().Msg("storage: postgres")
	default:
		userRepo = memuserrepo.NewRepo()
		rideRepo = memriderepo.NewRepo()
		log.Info().Msg("storage: memory")
	}
	if cleanup != nil {
		defer cleanup()
	}

	var verifier locverify.Verifier = unknownVerifier{}
	if cfg.SchoolAPI.BaseURL != "" {
		verifier = schoolapi.NewClient(cfg.SchoolAPI.BaseURL, cfg.SchoolAPI.Token)
		log.Info().Str("base_url", cfg.SchoolAPI.BaseURL).Msg("location verification enabled")
	}

	var cache dashcache.Store
	if cfg.Redis.Addr != "" {
		store := rediscache.New(rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer store.Close()
		cache = store
		log.Info().Str("addr", cfg.Redis.Addr).Msg("dashboard cache enabled")
	}

	ridesSvc := rides.NewService(rideRepo, userRepo, verifier, clk)
	usersSvc := users.NewService(userRepo, clk)
	dashSvc := dashboard.NewService(rideRepo, cache)

	handler := httpapi.NewRouter(httpapi.NewServer(ridesSvc, usersSvc, dashSvc, clk))

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
