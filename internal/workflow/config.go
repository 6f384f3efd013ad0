package workflow

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golovatskygroup/toolbridge/internal/analyze"
)

// DefaultToolkits is the minimal demo set used when no whitelist is
// configured.
var DefaultToolkits = []string{
	"googlesheets", "googledocs", "gmail", "slack", "serpapi", "alpha_vantage",
}

// Config carries everything the coordinator needs beyond its injected
// collaborators. Credential acquisition happens outside; only account
// handles and routing targets live here.
type Config struct {
	Toolkits    []string
	CachePath   string
	CacheTTL    time.Duration
	CallTimeout time.Duration

	GmailAccountID  string
	GmailRecipients []string
	SlackAccountID  string
	SlackChannel    string

	SpreadsheetID string
	SheetName     string
	SheetShareURL string

	RiskTerms []string
	// RiskRule is optional JavaScript overriding the flat term scan.
	RiskRule string
}

// ConfigFromEnv assembles a Config from the environment, applying the
// demo defaults where nothing is set.
func ConfigFromEnv() Config {
	cfg := Config{
		Toolkits:        splitList(os.Getenv("COMPOSIO_TOOLKIT_WHITELIST")),
		CachePath:       strings.TrimSpace(os.Getenv("COMPOSIO_TOOLKIT_CACHE_PATH")),
		CacheTTL:        time.Hour,
		GmailAccountID:  strings.TrimSpace(os.Getenv("COMPOSIO_GMAIL_ACCOUNT_ID")),
		GmailRecipients: splitList(os.Getenv("GMAIL_RECIPIENTS")),
		SlackAccountID:  strings.TrimSpace(os.Getenv("COMPOSIO_SLACK_ACCOUNT_ID")),
		SlackChannel:    strings.TrimSpace(os.Getenv("SLACK_ALERT_CHANNEL")),
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")),
		SheetName:       strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SHEET_NAME")),
		SheetShareURL:   strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SHARE_URL")),
		RiskTerms:       analyze.ParseTerms(os.Getenv("RISK_TERMS")),
		RiskRule:        os.Getenv("RISK_RULE_JS"),
	}
	if len(cfg.Toolkits) == 0 {
		cfg.Toolkits = append([]string(nil), DefaultToolkits...)
	}
	if cfg.CachePath == "" {
		cfg.CachePath = ".composio_toolkit_cache.json"
	}
	if ttl := strings.TrimSpace(os.Getenv("COMPOSIO_TOOLKIT_CACHE_TTL")); ttl != "" {
		if secs, err := strconv.Atoi(ttl); err == nil && secs >= 0 {
			cfg.CacheTTL = time.Duration(secs) * time.Second
		}
	}
	if ms := strings.TrimSpace(os.Getenv("COMPOSIO_CALL_TIMEOUT_MS")); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			cfg.CallTimeout = time.Duration(v) * time.Millisecond
		}
	}
	if len(cfg.RiskTerms) == 0 {
		cfg.RiskTerms = append([]string(nil), analyze.DefaultRiskTerms...)
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	if cfg.SheetShareURL == "" && cfg.SpreadsheetID != "" {
		cfg.SheetShareURL = "https://docs.google.com/spreadsheets/d/" + cfg.SpreadsheetID
	}
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
