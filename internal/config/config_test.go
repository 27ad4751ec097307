package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wimmeldj/gemini-dca/internal/models"
)

func TestDailyBudgetRounding(t *testing.T) {
	c := &Config{AnnualBudgetUSD: 100_000}
	if got := c.DailyBudget(); !got.Equal(decimal.RequireFromString("273.97")) {
		t.Fatalf("daily budget: expected 273.97, got %s", got)
	}
}

func TestBaseURLPerMode(t *testing.T) {
	sandbox := &Config{Sandbox: true}
	if !strings.Contains(sandbox.BaseURL(), "sandbox") {
		t.Fatalf("sandbox base URL: %s", sandbox.BaseURL())
	}
	live := &Config{Sandbox: false}
	if strings.Contains(live.BaseURL(), "sandbox") {
		t.Fatalf("live base URL: %s", live.BaseURL())
	}
}

func TestLoadPlanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	content := "pairs:\n  BTCUSD: 0.7\n  ETHUSD: 0.3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}

	plan, err := loadPlan(path)
	if err != nil {
		t.Fatalf("loadPlan: %v", err)
	}
	if len(plan) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(plan))
	}
	// Pairs come back sorted for deterministic cycle order.
	if plan[0].Pair != "BTCUSD" || plan[0].Weight != 0.7 {
		t.Fatalf("first allocation: %+v", plan[0])
	}
	if plan[1].Pair != "ETHUSD" || plan[1].Weight != 0.3 {
		t.Fatalf("second allocation: %+v", plan[1])
	}
}

func TestLoadPlanMissingFileDefaults(t *testing.T) {
	plan, err := loadPlan(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("loadPlan: %v", err)
	}
	if len(plan) != 1 || plan[0].Pair != "BTCUSD" || plan[0].Weight != 1 {
		t.Fatalf("expected BTCUSD:1 default, got %+v", plan)
	}
}

func validConfig() *Config {
	return &Config{
		Sandbox:         true,
		AnnualBudgetUSD: 100_000,
		RunMode:         "once",
		Plan:            []models.Allocation{{Pair: "BTCUSD", Weight: 1}},
	}
}

func TestValidateWeightSum(t *testing.T) {
	c := validConfig()
	c.Plan = []models.Allocation{
		{Pair: "BTCUSD", Weight: 0.7},
		{Pair: "ETHUSD", Weight: 0.4},
	}
	if err := c.Validate(); err == nil {
		t.Fatal("weights summing past 1 must fail validation")
	}

	c.Plan = []models.Allocation{
		{Pair: "BTCUSD", Weight: 0.5},
		{Pair: "ETHUSD", Weight: 0.5},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("weights summing to 1 should pass, got: %v", err)
	}
}

func TestValidateLiveNeedsCredentials(t *testing.T) {
	c := validConfig()
	c.Sandbox = false
	err := c.Validate()
	if err == nil {
		t.Fatal("live mode without credentials must fail")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("error should name the missing variable: %v", err)
	}

	c.APIKey = "account-xyz"
	c.APISecret = "shh"
	if err := c.Validate(); err != nil {
		t.Fatalf("live mode with credentials should pass, got: %v", err)
	}
}

func TestValidateRunMode(t *testing.T) {
	c := validConfig()
	c.RunMode = "sometimes"
	if err := c.Validate(); err == nil {
		t.Fatal("unknown run mode must fail validation")
	}
}

func TestCredentialsFromFiles(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "gemini-api-key")
	secretPath := filepath.Join(dir, "gemini-api-secret")
	if err := os.WriteFile(keyPath, []byte("account-abc\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := os.WriteFile(secretPath, []byte("topsecret\ntrailing junk"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	c := validConfig()
	c.APIKeyFile = keyPath
	c.APISecretFile = secretPath

	key, secret, err := c.Credentials()
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if key != "account-abc" {
		t.Fatalf("key: %q", key)
	}
	// Only the first line of the secret file counts.
	if string(secret) != "topsecret" {
		t.Fatalf("secret: %q", secret)
	}
}

func TestCredentialsDirectValuesWin(t *testing.T) {
	c := validConfig()
	c.APIKey = "account-direct"
	c.APISecret = "direct-secret"
	c.APIKeyFile = "/does/not/exist"

	key, secret, err := c.Credentials()
	if err != nil {
		t.Fatalf("Credentials: %v", err)
	}
	if key != "account-direct" || string(secret) != "direct-secret" {
		t.Fatalf("got %q / %q", key, secret)
	}
}
