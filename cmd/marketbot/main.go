// marketbot runs the marketing agent pipelines from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"marketbot/pkg/config"
	"marketbot/pkg/crew"
	"marketbot/pkg/logx"
	"marketbot/pkg/metrics"
	"marketbot/pkg/persistence"
	"marketbot/pkg/version"
)

// resultPreviewLimit caps how much pipeline output is printed.
const resultPreviewLimit = 2000

const usageText = `marketbot - AI-powered marketing automation

Usage:
  marketbot <command> [flags]

Pipelines:
  content    Daily content creation + scheduling   (--niche)
  seo        SEO keyword research + articles       (--topic, --articles)
  email      Email nurture sequence generation     (--product, --value)
  analytics  Daily analytics review
  full       Run the full marketing pipeline       (--niche, --product, --value)

Management:
  secrets    Manage the encrypted credentials file (set, list)
  stats      Query aggregated pipeline metrics     (--prometheus, --pipeline)
  history    Show recent pipeline runs             (--limit)
  version    Show build version

Examples:
  marketbot content --niche "AI tools for developers"
  marketbot seo --topic "best AI marketing tools 2026" --articles 5
  marketbot email --product "MarketBot" --value "AI marketing on autopilot"
  marketbot full --niche "AI tools" --product "MarketBot" --value "AI marketing"
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}

	logger := logx.NewLogger("cli")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	command, rest := args[0], args[1:]
	switch command {
	case "content", "seo", "email", "analytics", "full":
		return runPipeline(ctx, logger, command, rest)
	case "secrets":
		return runSecrets(rest)
	case "stats":
		return runStats(ctx, rest)
	case "history":
		return runHistory(rest)
	case "version":
		fmt.Printf("marketbot %s (commit %s, built %s)\n",
			version.Version, version.Commit, version.Date)
		return 0
	case "help", "-h", "--help":
		fmt.Print(usageText)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", command, usageText)
		return 2
	}
}

// runPipeline dispatches one pipeline entry point and prints its result.
func runPipeline(ctx context.Context, logger *logx.Logger, name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "marketbot.yaml", "Path to config file")
	niche := fs.String("niche", "", "Target niche")
	topic := fs.String("topic", "", "Topic for articles")
	articles := fs.Int("articles", 3, "Number of articles")
	product := fs.String("product", "", "Product name")
	value := fs.String("value", "", "Value proposition")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("configuration error: %v", err)
		return 1
	}

	history, err := persistence.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("run history unavailable: %v", err)
		history = nil
	}
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	pipelines := crew.NewPipelines(cfg, crew.NewRunner(cfg), history)

	var result *crew.Result
	switch name {
	case "content":
		logger.Info("running content pipeline for: %s", *niche)
		result, err = pipelines.Content(ctx, *niche)
	case "seo":
		logger.Info("running SEO pipeline for: %s", *topic)
		result, err = pipelines.SEO(ctx, *topic, *articles)
	case "email":
		logger.Info("creating email sequence for: %s", *product)
		result, err = pipelines.Email(ctx, *product, *value)
	case "analytics":
		logger.Info("running analytics review")
		result, err = pipelines.Analytics(ctx)
	case "full":
		logger.Info("running full pipeline for: %s", *niche)
		result, err = pipelines.Full(ctx, *niche, *product, *value)
	}
	if err != nil {
		logger.Error("%v", err)
		return 1
	}

	preview := result.Output
	if len(preview) > resultPreviewLimit {
		preview = preview[:resultPreviewLimit] + "..."
	}
	fmt.Printf("\n=== Result (run %s, %.1fs) ===\n%s\n", result.RunID,
		result.Duration.Seconds(), preview)
	return 0
}

// loadConfig builds the configuration, decrypting the secrets file first
// when one is present so credential resolution can use it.
func loadConfig(path string) (*config.Config, error) {
	if err := loadSecretsIfPresent("."); err != nil {
		return nil, err
	}
	return config.Load(path)
}

// runStats queries aggregated pipeline metrics from a Prometheus server.
func runStats(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	promURL := fs.String("prometheus", "http://localhost:9090", "Prometheus server URL")
	pipeline := fs.String("pipeline", "", "Pipeline to query (content, seo, email, analytics, full)")
	byAgent := fs.Bool("by-agent", false, "Break down by agent")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *pipeline == "" {
		fmt.Fprintln(os.Stderr, "stats: --pipeline is required")
		return 2
	}

	svc, err := metrics.NewQueryService(*promURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		return 1
	}

	var out any
	if *byAgent {
		out, err = svc.GetPipelineMetricsByAgent(ctx, *pipeline)
	} else {
		out, err = svc.GetPipelineMetrics(ctx, *pipeline)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		return 1
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		return 1
	}
	fmt.Println(string(encoded))
	return 0
}

// runHistory prints recent pipeline runs from the local database.
func runHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "marketbot.yaml", "Path to config file")
	limit := fs.Int("limit", 10, "Number of runs to show")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		return 1
	}

	history, err := persistence.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		return 1
	}
	defer func() { _ = history.Close() }()

	runs, err := history.RecentRuns(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Println("no pipeline runs recorded yet")
		return 0
	}

	for _, run := range runs {
		finished := "-"
		if run.FinishedAt != nil {
			finished = run.FinishedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  %-9s  %-7s  started %s  finished %s\n",
			run.ID[:8], run.Pipeline, run.Status,
			run.StartedAt.Format("2006-01-02 15:04:05"), finished)
	}
	return 0
}
