package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/wimmeldj/gemini-dca/internal/catalog"
	"github.com/wimmeldj/gemini-dca/internal/config"
	"github.com/wimmeldj/gemini-dca/internal/confirm"
	"github.com/wimmeldj/gemini-dca/internal/db"
	"github.com/wimmeldj/gemini-dca/internal/gemini"
	"github.com/wimmeldj/gemini-dca/internal/ledger"
	"github.com/wimmeldj/gemini-dca/internal/notifications"
	"github.com/wimmeldj/gemini-dca/internal/purchase"
	"github.com/wimmeldj/gemini-dca/internal/repository"
	"github.com/wimmeldj/gemini-dca/internal/risk"
	"github.com/wimmeldj/gemini-dca/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║         Gemini DCA Bot v0.3          ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	key, secret, err := cfg.Credentials()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[AUTH] %v\n", err)
		os.Exit(1)
	}

	client := gemini.NewClient(gemini.Config{
		BaseURL: cfg.BaseURL(),
		APIKey:  key,
		Secret:  secret,
	})

	guard := risk.NewGuardian(risk.Limits{
		PinnedTakerFeeBps: cfg.PinnedTakerFeeBps,
		MaxOrderUSD:       decimal.NewFromFloat(cfg.MaxOrderUSD),
	}, cfg.Sandbox)

	var confirmer confirm.Confirmer = confirm.NewPrompt()
	if cfg.AutoConfirm {
		confirmer = confirm.Auto{Accept: true}
	}

	orch := purchase.NewOrchestrator(
		client,
		catalog.Default(),
		guard,
		confirmer,
		ledger.New(cfg.LedgerPath),
		purchase.Options{AllowedDeviation: cfg.AllowedDeviation},
	)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional Postgres mirror of the ledger
	if cfg.DBConfigured() {
		fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
		pool, err := db.Connect(cfg.DSN())
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			pool.Close()
			fmt.Println("[DB] Connection pool closed")
		}()

		repo := repository.NewPurchaseRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "[DB] Schema setup failed: %v\n", err)
			os.Exit(1)
		}
		orch.WithMirror(repo)
	}

	// Notifications
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName)
	if notify.Enabled() {
		orch.WithNotifier(notify)
	}

	if cfg.RunMode == "daemon" {
		runDaemon(ctx, cfg, orch)
		return
	}

	results := orch.RunPlan(ctx, cfg.Plan, cfg.DailyBudget())
	os.Exit(exitCode(results))
}

func runDaemon(ctx context.Context, cfg *config.Config, orch *purchase.Orchestrator) {
	daily := scheduler.NewDaily(cfg.CronSpec, func(ctx context.Context) {
		results := orch.RunPlan(ctx, cfg.Plan, cfg.DailyBudget())
		for _, r := range results {
			if r.Outcome == purchase.OutcomeFailed {
				fmt.Fprintf(os.Stderr, "[CYCLE] %s failed: %v\n", r.Pair, r.Err)
			}
		}
	})

	if err := daily.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[SCHEDULER] Start failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("[SCHEDULER] Running on schedule %q - waiting for shutdown signal\n", cfg.CronSpec)
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")
	daily.Stop()
	fmt.Println("Shutdown complete")
}

// exitCode maps cycle results to the process exit status: any failed
// pair makes the whole run fail so cron and systemd can alert on it.
func exitCode(results []purchase.Result) int {
	code := 0
	for _, r := range results {
		if r.Outcome == purchase.OutcomeFailed {
			fmt.Fprintf(os.Stderr, "[CYCLE] %s failed: %v\n", r.Pair, r.Err)
			code = 1
		}
	}
	return code
}
