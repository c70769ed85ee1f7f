// research 在命令行运行一次投资研究并打印最终报告
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/nekouibeam/investment-agent/internal/app"
	"github.com/nekouibeam/investment-agent/internal/config"
	"github.com/nekouibeam/investment-agent/internal/logger"
	"github.com/nekouibeam/investment-agent/internal/models"
	"github.com/nekouibeam/investment-agent/internal/pkg/paths"
)

const rule = "============================================================"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: ./config.yaml or the user config dir)")
	verbose := flag.Bool("v", false, "print every stage and tool event")
	all := flag.Bool("all", false, "also print the intermediate analyses")
	flag.Parse()

	cfg, err := config.Load(paths.FindConfig(*configPath))
	if err != nil {
		var cfgErr *models.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "Error: %s\nSet it in your environment or a .env file.\n", cfgErr.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	level := cfg.Log.Level
	if !*verbose && cfg.Log.File == "" {
		level = "warn"
	}
	if err := logger.Init(level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(rule)
	fmt.Println("   Multi-Agent Investment Research Assistant")
	fmt.Println(rule)

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Print("Enter your research query (e.g. 'Analyze AAPL and MSFT'): ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "\nNo query given.")
			os.Exit(1)
		}
		query = strings.TrimSpace(line)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(ctx, cfg, progressPrinter(*verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nProcessing query: %q (provider %s, model %s)\n", query, a.Info.Provider, a.Info.Model)
	fmt.Println("Running research workflow (this may take a minute)...")

	report, err := a.Service.Research(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nError running research: %v\n", err)
		os.Exit(1)
	}

	if *all {
		printSection("DATA ANALYSIS", report.DataAnalysis)
		printSection("NEWS ANALYSIS", report.NewsAnalysis)
		printSection("RISK ASSESSMENT", report.RiskAssessment)
	}
	printSection("FINAL REPORT", report.FinalReport)
	if fields := report.DegradedFields(); len(fields) > 0 {
		fmt.Printf("Note: %s could not be produced and were replaced by placeholders.\n", strings.Join(fields, ", "))
	}
	fmt.Printf("Research complete (run %s, tickers %s).\n", report.RunID, strings.Join(report.Tickers, ", "))
}

func printSection(title, body string) {
	fmt.Printf("\n%s\n%s\n%s\n\n%s\n", rule, title, rule, body)
}

// progressPrinter 打印阶段进度；verbose 时包括工具调用
func progressPrinter(verbose bool) models.ProgressCallback {
	return func(e models.ProgressEvent) {
		switch e.Type {
		case models.EventResolved:
			fmt.Printf("  tickers: %s\n", e.Detail)
		case models.EventStageStart:
			fmt.Printf("  > %s started\n", e.Stage)
		case models.EventStageDone:
			fmt.Printf("  ✓ %s done (%s)\n", e.Stage, e.Elapsed)
		case models.EventStageError:
			fmt.Printf("  ✗ %s failed (%s): %s\n", e.Stage, e.Elapsed, e.Detail)
		case models.EventToolCall:
			if verbose {
				fmt.Printf("    %s -> %s %s\n", e.Stage, e.Tool, e.Detail)
			}
		}
	}
}
