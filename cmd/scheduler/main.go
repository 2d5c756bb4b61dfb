package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/config"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/logger"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/repository"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/service"
)

// jobTimeout bounds one run across all groups.
const jobTimeout = 10 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	l := logger.Setup(cfg.Logging, "shg-scheduler")

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("initialize database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	j := newJobs(repository.NewStore(db), service.Options{
		Location:     cfg.Location(),
		WitnessCount: cfg.Business.WitnessCount,
	})

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithChain(cron.Recover(cron.PrintfLogger(&l)), cron.SkipIfStillRunning(cron.PrintfLogger(&l))),
	)
	if err := setupCronJobs(c, cfg.Scheduler, j); err != nil {
		log.Fatal().Err(err).Msg("schedule jobs")
	}

	c.Start()
	log.Info().Str("timezone", cfg.Scheduler.Timezone).Msg("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down scheduler")
	// wait for running jobs
	<-c.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg config.SchedulerConfig, j *jobs) error {
	entries := []struct {
		name string
		spec string
		run  func(ctx context.Context) runStats
	}{
		{"loan_penalties", cfg.LoanPenaltySpec, j.loanPenalties},
		{"savings_penalties", cfg.SavingsPenaltySpec, j.savingsPenalties},
		{"savings_cycle", cfg.SavingsCycleSpec, j.initiateSavings},
	}

	for _, e := range entries {
		e := e
		_, err := c.AddFunc(e.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			start := time.Now()
			stats := e.run(ctx)
			log.Info().
				Str("job", e.name).
				Int("groups", stats.Groups).
				Int("updated", stats.Updated).
				Int("failed", stats.Failed).
				Dur("took", time.Since(start)).
				Msg("job finished")
		})
		if err != nil {
			return err
		}
		log.Info().Str("job", e.name).Str("spec", e.spec).Msg("job scheduled")
	}
	return nil
}

type jobs struct {
	settings     repository.SettingsRepository
	installments *service.InstallmentService
	savings      *service.SavingsService
}

func newJobs(store repository.Store, opts service.Options) *jobs {
	notes := notify.MustNew()
	ledger := service.NewLedgerService(store, notes, opts)
	return &jobs{
		settings:     store.Settings,
		installments: service.NewInstallmentService(store, ledger, notes, opts),
		savings:      service.NewSavingsService(store, ledger, notes, opts),
	}
}

type runStats struct {
	Groups  int
	Updated int
	Failed  int
}

// forEachGroup runs fn for every configured group. One group failing does
// not stop the others.
func (j *jobs) forEachGroup(ctx context.Context, job string, fn func(ctx context.Context, groupID uuid.UUID) (int, error)) runStats {
	var stats runStats
	ids, err := j.settings.ListGroupIDs(ctx)
	if err != nil {
		log.Error().Err(err).Str("job", job).Msg("list groups")
		stats.Failed++
		return stats
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			log.Warn().Str("job", job).Msg("job deadline reached")
			break
		}
		stats.Groups++
		n, err := fn(ctx, id)
		if err != nil {
			stats.Failed++
			log.Error().Err(err).Str("job", job).Str("shg_group_id", id.String()).Msg("group failed")
			continue
		}
		stats.Updated += n
	}
	return stats
}
