package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/punchamoorthee/stakeops/internal/api"
	"github.com/punchamoorthee/stakeops/internal/auth"
	"github.com/punchamoorthee/stakeops/internal/clock"
	"github.com/punchamoorthee/stakeops/internal/config"
	"github.com/punchamoorthee/stakeops/internal/events"
	"github.com/punchamoorthee/stakeops/internal/staking"
	"github.com/punchamoorthee/stakeops/internal/token"
	"github.com/punchamoorthee/stakeops/internal/vesting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dbPool, err := pgxpool.New(context.Background(), cfg.DBSource)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbPool.Close()

	roles := auth.NewStaticRoles()
	for _, admin := range cfg.Admins {
		roles.Grant(admin, auth.RoleAdmin)
	}
	for _, provider := range cfg.RewardProviders {
		roles.Grant(provider, auth.RoleRewardProvider)
	}

	notifier := events.Multi{
		events.NewLogSink(log.Default()),
		events.NewJournal(dbPool),
	}
	clk := clock.System{}

	// Each engine moves funds through its own pool account.
	stakingEngine := staking.NewEngine(
		staking.DefaultCatalog(),
		token.NewPostgresLedger(dbPool, cfg.StakingPoolAccount),
		clk,
		roles,
		notifier,
	)

	vestingDuration, err := cfg.Vesting.ParseDuration()
	if err != nil {
		log.Fatalf("Invalid vesting configuration: %v", err)
	}
	vestingEngine, err := vesting.NewEngine(vesting.Config{
		Owner:         cfg.Vesting.Owner,
		Beneficiary:   cfg.Vesting.Beneficiary,
		PoolAccount:   cfg.VestingPoolAccount,
		Start:         cfg.Vesting.Start,
		Duration:      vestingDuration,
		ReleasesCount: cfg.Vesting.ReleasesCount,
		Revocable:     cfg.Vesting.Revocable,
	}, token.NewPostgresLedger(dbPool, cfg.VestingPoolAccount), clk, notifier)
	if err != nil {
		log.Fatalf("Invalid vesting configuration: %v", err)
	}

	handler := api.NewHandler(stakingEngine, vestingEngine)
	r := handler.Router(auth.NewMiddleware([]byte(cfg.JWTSecret)))
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	log.Printf("Server starting on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
