package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/golovatskygroup/toolbridge/internal/composio"
	"github.com/golovatskygroup/toolbridge/internal/discovery"
	"github.com/golovatskygroup/toolbridge/internal/dispatch"
	"github.com/golovatskygroup/toolbridge/internal/workflow"
)

type fileConfig struct {
	Composio struct {
		BaseURL     string `yaml:"base_url"`
		ToolsPath   string `yaml:"tools_path"`
		ActionsPath string `yaml:"actions_path"`
		TimeoutMS   int    `yaml:"timeout_ms"`
	} `yaml:"composio"`
	Workflow struct {
		Toolkits        []string `yaml:"toolkits"`
		CachePath       string   `yaml:"cache_path"`
		CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
		RiskTerms       []string `yaml:"risk_terms"`
		RiskRule        string   `yaml:"risk_rule"`
	} `yaml:"workflow"`
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	subject := flag.String("subject", "", "Research subject (e.g. a ticker symbol)")
	inputPath := flag.String("input", "", "Path to the research text; '-' or empty reads stdin")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logLevel := zerolog.InfoLevel
	if *verbose {
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(logLevel).
		With().Timestamp().Logger()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "Error: -subject is required")
		os.Exit(1)
	}

	// Env config first, file config layered on top.
	composioCfg := composio.ConfigFromEnv()
	workflowCfg := workflow.ConfigFromEnv()

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
			os.Exit(1)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
			os.Exit(1)
		}
		applyFileConfig(fc, &composioCfg, &workflowCfg)
	}

	researchText, err := readInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	clients := composio.NewClients(composioCfg)
	if clients.V3 == nil {
		log.Warn().Msg("no composio credentials configured; discovery and execution will degrade")
	}

	resolver := discovery.NewResolver(
		toolSources(clients),
		discovery.WithCache(workflowCfg.CachePath, workflowCfg.CacheTTL),
		discovery.WithCallTimeout(workflowCfg.CallTimeout),
		discovery.WithLogger(log),
	)
	dispatcher := dispatch.NewDispatcher(
		dispatch.NewStrategies(clients),
		dispatch.WithCallTimeout(workflowCfg.CallTimeout),
		dispatch.WithLogger(log),
	)

	coordinator := workflow.NewCoordinator(workflowCfg, resolver, dispatcher, log)
	report := coordinator.Run(ctx, *subject, researchText)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// toolSources orders the discovery adapters: newest generation first,
// legacy second, raw HTTP last.
func toolSources(clients composio.Clients) []discovery.ToolSource {
	var sources []discovery.ToolSource
	if clients.V3 != nil {
		sources = append(sources, clients.V3)
	}
	if clients.Legacy != nil {
		sources = append(sources, clients.Legacy)
	}
	if clients.Raw != nil {
		sources = append(sources, clients.Raw)
	}
	return sources
}

func applyFileConfig(fc fileConfig, composioCfg *composio.Config, workflowCfg *workflow.Config) {
	if fc.Composio.BaseURL != "" {
		composioCfg.BaseURL = fc.Composio.BaseURL
	}
	if fc.Composio.ToolsPath != "" {
		composioCfg.ToolsPath = fc.Composio.ToolsPath
	}
	if fc.Composio.ActionsPath != "" {
		composioCfg.ActionsPath = fc.Composio.ActionsPath
	}
	if fc.Composio.TimeoutMS > 0 {
		composioCfg.Timeout = time.Duration(fc.Composio.TimeoutMS) * time.Millisecond
	}
	if len(fc.Workflow.Toolkits) > 0 {
		workflowCfg.Toolkits = fc.Workflow.Toolkits
	}
	if fc.Workflow.CachePath != "" {
		workflowCfg.CachePath = fc.Workflow.CachePath
	}
	if fc.Workflow.CacheTTLSeconds > 0 {
		workflowCfg.CacheTTL = time.Duration(fc.Workflow.CacheTTLSeconds) * time.Second
	}
	if len(fc.Workflow.RiskTerms) > 0 {
		workflowCfg.RiskTerms = fc.Workflow.RiskTerms
	}
	if fc.Workflow.RiskRule != "" {
		workflowCfg.RiskRule = fc.Workflow.RiskRule
	}
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
