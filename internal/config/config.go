package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wimmeldj/gemini-dca/internal/gemini"
	"github.com/wimmeldj/gemini-dca/internal/models"
)

const daysPerYear = 365

type Config struct {
	// Venue
	Sandbox bool

	// Secrets (from .env or key files)
	APIKey        string
	APISecret     string
	APIKeyFile    string
	APISecretFile string

	// Budget & slippage
	AnnualBudgetUSD  float64
	AllowedDeviation decimal.Decimal
	PinnedTakerFeeBps int
	MaxOrderUSD      float64

	// Allocation plan
	PlanFile string
	Plan     []models.Allocation

	// Ledger
	LedgerPath string

	// Database mirror (optional; disabled when DBHost is empty)
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Notifications
	WebhookURL string
	BotName    string

	// Run mode
	RunMode     string // "once" or "daemon"
	CronSpec    string
	AutoConfirm bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Sandbox: envBool("SANDBOX", true),

		APIKey:        envStr("GEMINI_API_KEY", ""),
		APISecret:     envStr("GEMINI_API_SECRET", ""),
		APIKeyFile:    envStr("GEMINI_API_KEY_FILE", ""),
		APISecretFile: envStr("GEMINI_API_SECRET_FILE", ""),

		AnnualBudgetUSD:   envFloat("ANNUAL_BUDGET_USD", 100_000),
		PinnedTakerFeeBps: envInt("PINNED_TAKER_FEE_BPS", 35),
		MaxOrderUSD:       envFloat("MAX_ORDER_USD", 10_000),

		PlanFile: envStr("PLAN_FILE", "plan.yaml"),

		DBHost:     envStr("DB_HOST", ""),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "gemini_dca"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		WebhookURL: envStr("WEBHOOK_URL", ""),
		BotName:    envStr("BOT_NAME", "GeminiDCA"),

		RunMode:     envStr("RUN_MODE", "once"),
		CronSpec:    envStr("CRON_SPEC", "0 14 * * *"),
		AutoConfirm: envBool("AUTO_CONFIRM", false),
	}

	// 1/500 above the last quote by default.
	dev, err := decimal.NewFromString(envStr("ALLOWED_DEVIATION", "0.002"))
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_DEVIATION: %w", err)
	}
	cfg.AllowedDeviation = dev

	defaultLedger := "trade-data.log"
	if cfg.Sandbox {
		defaultLedger = "sandbox-trade-data.log"
	}
	cfg.LedgerPath = envStr("LEDGER_PATH", defaultLedger)

	plan, err := loadPlan(cfg.PlanFile)
	if err != nil {
		return nil, err
	}
	cfg.Plan = plan

	return cfg, nil
}

// loadPlan reads the pair->weight allocation file. A missing file
// falls back to putting the whole budget into BTCUSD.
func loadPlan(path string) ([]models.Allocation, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Printf("[CONFIG] %s not found, defaulting plan to BTCUSD: 1.0\n", path)
		return []models.Allocation{{Pair: "BTCUSD", Weight: 1}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}

	var doc struct {
		Pairs map[string]float64 `yaml:"pairs"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if len(doc.Pairs) == 0 {
		return nil, fmt.Errorf("plan %s has no pairs", path)
	}

	pairs := make([]string, 0, len(doc.Pairs))
	for pair := range doc.Pairs {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)

	plan := make([]models.Allocation, 0, len(pairs))
	for _, pair := range pairs {
		plan = append(plan, models.Allocation{Pair: pair, Weight: doc.Pairs[pair]})
	}
	return plan, nil
}

func (c *Config) Validate() error {
	var errs []string

	if !c.Sandbox && c.APIKey == "" && c.APIKeyFile == "" {
		errs = append(errs, "GEMINI_API_KEY (or GEMINI_API_KEY_FILE) is required for live trading")
	}
	if !c.Sandbox && c.APISecret == "" && c.APISecretFile == "" {
		errs = append(errs, "GEMINI_API_SECRET (or GEMINI_API_SECRET_FILE) is required for live trading")
	}
	if c.AnnualBudgetUSD <= 0 {
		errs = append(errs, "ANNUAL_BUDGET_USD must be positive")
	}
	if c.AllowedDeviation.IsNegative() {
		errs = append(errs, "ALLOWED_DEVIATION must not be negative")
	}
	if c.RunMode != "once" && c.RunMode != "daemon" {
		errs = append(errs, fmt.Sprintf("RUN_MODE must be \"once\" or \"daemon\", got %q", c.RunMode))
	}

	total := 0.0
	for _, alloc := range c.Plan {
		if alloc.Weight < 0 || alloc.Weight > 1 {
			errs = append(errs, fmt.Sprintf("plan weight for %s must be in [0,1], got %g", alloc.Pair, alloc.Weight))
		}
		total += alloc.Weight
	}
	if total > 1+1e-9 || total <= 0 {
		errs = append(errs, fmt.Sprintf("plan weights must sum to 1 (or an intended fraction of it), got %g", total))
	} else if total < 1-1e-9 {
		fmt.Printf("[WARN] plan weights sum to %g - only that fraction of the daily budget will be spent\n", total)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// BaseURL picks the venue endpoint for the configured mode.
func (c *Config) BaseURL() string {
	if c.Sandbox {
		return gemini.SandboxBaseURL
	}
	return gemini.BaseURL
}

// DailyBudget is the annual budget split across the year, in whole
// cents. 100000/365 -> 273.97.
func (c *Config) DailyBudget() decimal.Decimal {
	return decimal.NewFromFloat(c.AnnualBudgetUSD).
		Div(decimal.NewFromInt(daysPerYear)).
		RoundBank(2)
}

// Credentials resolves the API key and secret, reading key files when
// the values are not set directly.
func (c *Config) Credentials() (key string, secret []byte, err error) {
	key = c.APIKey
	if key == "" && c.APIKeyFile != "" {
		key, err = firstLine(c.APIKeyFile)
		if err != nil {
			return "", nil, fmt.Errorf("read API key: %w", err)
		}
	}

	sec := c.APISecret
	if sec == "" && c.APISecretFile != "" {
		sec, err = firstLine(c.APISecretFile)
		if err != nil {
			return "", nil, fmt.Errorf("read API secret: %w", err)
		}
	}
	return key, []byte(sec), nil
}

func (c *Config) DBConfigured() bool {
	return c.DBHost != ""
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) Print() {
	fmt.Println("=== Gemini DCA Configuration ===")

	if c.Sandbox {
		fmt.Println("== running in Sandbox Mode ==")
	} else {
		fmt.Println("== NOT RUNNING IN SANDBOX MODE! ==")
	}

	fmt.Println("--------------------------------")
	fmt.Printf("Venue: %s\n", c.BaseURL())
	fmt.Printf("Annual budget: $%s\n", humanFloat(c.AnnualBudgetUSD))
	fmt.Printf("Daily budget: $%s\n", c.DailyBudget())
	fmt.Printf("Allowed deviation: %s\n", c.AllowedDeviation)
	fmt.Printf("Pinned taker fee: %d bps\n", c.PinnedTakerFeeBps)
	fmt.Println("Plan:")
	for _, alloc := range c.Plan {
		fmt.Printf("  %s: %.4f\n", alloc.Pair, alloc.Weight)
	}
	fmt.Println("--------------------------------")
	fmt.Printf("Ledger: %s\n", c.LedgerPath)
	fmt.Printf("DB mirror: %s\n", boolLabel(c.DBConfigured(), c.DBHost, "disabled"))
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Printf("Run mode: %s", c.RunMode)
	if c.RunMode == "daemon" {
		fmt.Printf(" (cron %q)", c.CronSpec)
	}
	fmt.Println()
	if c.AutoConfirm {
		fmt.Println("AUTO_CONFIRM enabled - orders submit without a prompt")
	}
	fmt.Println("================================")
}

// --- helpers ---

func firstLine(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), nil
}

func humanFloat(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
