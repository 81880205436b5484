package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"

	"github.com/fr4nk3nst1ner/salaryspread/internal/client"
	"github.com/fr4nk3nst1ner/salaryspread/internal/config"
	"github.com/fr4nk3nst1ner/salaryspread/internal/metrics"
	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
	"github.com/fr4nk3nst1ner/salaryspread/internal/report"
	"github.com/fr4nk3nst1ner/salaryspread/internal/source"
	"github.com/fr4nk3nst1ner/salaryspread/internal/store"
	"github.com/fr4nk3nst1ner/salaryspread/internal/ui"
)

// rangeWidth is the number of columns of the range lanes.
const rangeWidth = 60

// printExamples displays usage examples for the program
func printExamples() {
	fmt.Println("\n📋 SalarySpread Usage Examples 📋")
	fmt.Println("\n1. Store the offers of a saved job board search under the query \"golang\":")
	fmt.Println("   salaryspread -ingest search-golang.html -query golang")

	fmt.Println("\n2. Fetch a search results page through a proxy and store it:")
	fmt.Println("   salaryspread -ingest \"https://jobs.example.com/search?q=rust\" -query rust -proxy http://localhost:8080")

	fmt.Println("\n3. Compare every stored query, then print the distributions:")
	fmt.Println("   salaryspread")

	fmt.Println("\n4. Show only the overview table for one query, without the banner:")
	fmt.Println("   salaryspread -query golang -table -silence")

	fmt.Println("\n5. Use 2k buckets for the distributions and write Prometheus metrics:")
	fmt.Println("   salaryspread -detail-width 2000 -metrics-file /var/lib/node_exporter/salaryspread.prom")
}

func main() {
	configPath := flag.String("config", "", "Path to the config file (default: ./salaryspread.yaml)")
	dbPath := flag.String("db", "", "SQLite database holding queries and offers")
	ingest := flag.String("ingest", "", "Listing page (file or URL) to store under -query")
	queryName := flag.String("query", "", "Query to ingest into, or the only query to report")
	proxyURL := flag.String("proxy", "", "Proxy URL to use when fetching -ingest")
	overviewWidth := flag.Int64("overview-width", 0, "Bucket width of the overview distributions")
	detailWidth := flag.Int64("detail-width", 0, "Bucket width of the detail distributions")
	concurrency := flag.Int("concurrency", 0, "Maximum number of queries aggregated at once")
	metricsFile := flag.String("metrics-file", "", "Write run metrics to this Prometheus textfile")
	table := flag.Bool("table", false, "Only show the overview table")
	silence := flag.Bool("silence", false, "Silence the banner")
	debug := flag.Bool("debug", false, "Enable debug logging")
	examples := flag.Bool("examples", false, "Show usage examples")

	flag.Parse()

	ui.PrintBanner(*silence)

	if *examples {
		printExamples()
		return
	}

	_ = godotenv.Load(".env.local", ".env")
	cfg, err := config.Load(*configPath)
	if err != nil {
		pterm.Fatal.Printfln("Error loading config: %v", err)
	}
	applyFlags(cfg, *dbPath, *proxyURL, *metricsFile, *overviewWidth, *detailWidth, *concurrency, *debug)
	if err := cfg.Validate(); err != nil {
		pterm.Fatal.Println(err)
	}
	logger := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database, store.WithMkdirAll())
	if err != nil {
		pterm.Fatal.Printfln("Error opening database: %v", err)
	}
	defer st.Close()

	if *ingest != "" {
		if err := runIngest(ctx, st, cfg, logger, *ingest, *queryName); err != nil {
			st.Close()
			pterm.Fatal.Println(err)
		}
		return
	}

	if err := runReport(ctx, st, cfg, logger, *queryName, *table); err != nil {
		st.Close()
		pterm.Fatal.Println(err)
	}
}

// applyFlags overrides configuration values with the flags that were set.
func applyFlags(cfg *config.Config, db, proxy, metricsFile string, overview, detail int64, concurrency int, debug bool) {
	if db != "" {
		cfg.Database = db
	}
	if proxy != "" {
		cfg.Proxy = proxy
	}
	if metricsFile != "" {
		cfg.MetricsFile = metricsFile
	}
	if overview != 0 {
		cfg.OverviewBucketWidth = overview
	}
	if detail != 0 {
		cfg.DetailBucketWidth = detail
	}
	if concurrency != 0 {
		cfg.MaxConcurrency = concurrency
	}
	if debug {
		cfg.LogLevel = "debug"
	}
}

func runIngest(ctx context.Context, st *store.Store, cfg *config.Config, logger *pterm.Logger, location, queryName string) error {
	if queryName == "" {
		return errors.New("-ingest requires -query")
	}

	httpClient, err := client.NewHTTPClient(cfg.Proxy)
	if err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.Start("Loading " + location)
	listings, err := source.Load(ctx, httpClient, location, source.DefaultSelectors)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}

	id, err := st.CreateQuery(ctx, queryName)
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	if err := st.AddListings(ctx, id, listings); err != nil {
		spinner.Fail(err.Error())
		return err
	}

	withSalary := 0
	for _, l := range listings {
		if l.MinSalary > 0 {
			withSalary++
		}
	}
	spinner.Success(fmt.Sprintf("Stored %d listings under %q", len(listings), queryName))
	logger.Info("ingested listings", logger.Args("query", queryName, "listings", len(listings), "with_salary", withSalary))
	return nil
}

func runReport(ctx context.Context, st *store.Store, cfg *config.Config, logger *pterm.Logger, queryName string, tableOnly bool) error {
	var src report.Source = st
	if queryName != "" {
		src = singleQuery{Store: st, name: queryName}
	}

	m := metrics.NewMetrics("salaryspread")
	bar := pb.New(0).SetTemplate(pb.Simple).SetWriter(os.Stderr)
	bar.Start()

	runner, err := report.NewRunner(src, cfg.RunnerOptions(),
		report.WithLogger(logger),
		report.WithMetrics(m),
		report.WithProgressBar(bar),
	)
	if err != nil {
		bar.Finish()
		return err
	}

	rep, err := runner.Run(ctx)
	bar.Finish()
	if err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("could not write metrics", logger.Args("path", cfg.MetricsFile, "error", err))
		}
	}

	if len(rep.Descending) == 0 {
		pterm.Warning.Println("No query has offers with an advertised salary")
		return nil
	}

	overview, err := ui.RenderOverview(rep, cfg.CurrencySymbol)
	if err != nil {
		return err
	}
	fmt.Println(overview)
	if tableOnly {
		return nil
	}

	fmt.Println(ui.RenderRanges(rep, cfg.CurrencySymbol, rangeWidth))

	distributions, err := ui.RenderDistributions(rep, cfg.CurrencySymbol)
	if err != nil {
		return err
	}
	fmt.Println(distributions)

	for _, s := range rep.Skipped {
		logger.Debug("not reported", logger.Args("query", s.Query.Name, "reason", s.Reason))
	}
	return nil
}

// singleQuery narrows a store down to one named query.
type singleQuery struct {
	*store.Store
	name string
}

func (s singleQuery) Queries(ctx context.Context) ([]models.Query, error) {
	q, err := s.QueryByName(ctx, s.name)
	if err != nil {
		return nil, err
	}
	return []models.Query{q}, nil
}
