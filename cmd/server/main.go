package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/config"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/handler"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/lock"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/logger"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/service"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	logger.Setup(cfg.Logging, "shg-engine")

	db, err := initDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if cfg.IsProduction() {
			log.Warn().Msg("DATABASE_AUTO_MIGRATE is on in production")
		}
		if err := repository.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("migrate schema")
		}
		log.Info().Msg("schema migrated")
	}

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	services := newServices(cfg, repository.NewStore(db), lock.NewRedisLocker(redisClient, cfg.Business.LockTTL))

	limiter := handler.NewRateLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
	defer limiter.Stop()

	router := handler.NewRouter(services, handler.RouterOptions{
		Health:   handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout),
		Limiter:  limiter,
		Location: cfg.Location(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Server.Env).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited")
}

func newServices(cfg *config.Config, store repository.Store, locker lock.GroupLocker) handler.Services {
	notes := notify.MustNew()
	opts := service.Options{
		Location:     cfg.Location(),
		WitnessCount: cfg.Business.WitnessCount,
	}
	ledger := service.NewLedgerService(store, notes, opts)

	return handler.Services{
		Applications: service.NewApplicationService(store, opts),
		Loans:        service.NewLoanService(store, ledger, locker, notes, opts),
		Installments: service.NewInstallmentService(store, ledger, notes, opts),
		Precloses:    service.NewPrecloseService(store, ledger, notes, opts),
		Savings:      service.NewSavingsService(store, ledger, notes, opts),
		Ledger:       ledger,
	}
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
