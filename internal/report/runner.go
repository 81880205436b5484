package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"

	"github.com/fr4nk3nst1ner/salaryspread/internal/metrics"
	"github.com/fr4nk3nst1ner/salaryspread/internal/models"
	"github.com/fr4nk3nst1ner/salaryspread/internal/stats"
)

// DefaultMaxConcurrency bounds the number of queries processed at once.
const DefaultMaxConcurrency = 8

// ErrInvalidConcurrency is returned for a concurrency limit below one.
var ErrInvalidConcurrency = errors.New("max concurrency must be at least 1")

// Source supplies queries and their raw offers. Offers is called from several
// goroutines at once.
type Source interface {
	Queries(ctx context.Context) ([]models.Query, error)
	Offers(ctx context.Context, queryID int64) ([]models.RawOffer, error)
}

// Options configures a Runner.
type Options struct {
	OverviewBucketWidth int64
	DetailBucketWidth   int64
	MaxConcurrency      int
	LivingWage          float64
}

// DefaultOptions returns the widths and limits used by the CLI.
func DefaultOptions() Options {
	return Options{
		OverviewBucketWidth: stats.DefaultOverviewBucketWidth,
		DetailBucketWidth:   stats.DefaultDetailBucketWidth,
		MaxConcurrency:      DefaultMaxConcurrency,
		LivingWage:          DefaultLivingWage,
	}
}

// Runner fans out one task per query and joins them into a Report.
type Runner struct {
	source  Source
	opts    Options
	logger  *pterm.Logger
	metrics *metrics.Metrics
	bar     *pb.ProgressBar
}

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *pterm.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// WithProgressBar advances bar once per finished query.
func WithProgressBar(bar *pb.ProgressBar) Option { return func(r *Runner) { r.bar = bar } }

// NewRunner validates opts and returns a Runner reading from src.
func NewRunner(src Source, opts Options, options ...Option) (*Runner, error) {
	if opts.OverviewBucketWidth <= 0 || opts.DetailBucketWidth <= 0 {
		return nil, stats.ErrInvalidBucketWidth
	}
	if opts.MaxConcurrency < 1 {
		return nil, ErrInvalidConcurrency
	}

	r := &Runner{
		source: src,
		opts:   opts,
		logger: pterm.DefaultLogger.WithWriter(io.Discard),
	}
	for _, o := range options {
		o(r)
	}
	return r, nil
}

type outcome struct {
	entry *Entry
	err   error
}

// Run processes every query. A query that is empty, fails to load or fails to
// aggregate is recorded in Report.Skipped and never stops the others. Run
// only fails when the query list itself cannot be read.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	queries, err := r.source.Queries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	r.logger.Info("aggregating queries", r.logger.Args("queries", len(queries), "workers", r.opts.MaxConcurrency))

	if r.bar != nil {
		r.bar.SetTotal(int64(len(queries)))
	}

	outcomes := make([]outcome, len(queries))
	var g errgroup.Group
	g.SetLimit(r.opts.MaxConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			entry, err := r.processQuery(ctx, q)
			outcomes[i] = outcome{entry: entry, err: err}
			if r.bar != nil {
				r.bar.Increment()
			}
			return nil
		})
	}
	_ = g.Wait()

	entries := make([]Entry, 0, len(queries))
	var skipped []Skip
	for i, o := range outcomes {
		q := queries[i]
		switch {
		case o.err == nil:
			entries = append(entries, *o.entry)
			r.count(metrics.OutcomeReported)
		case errors.Is(o.err, stats.ErrEmptyQuery):
			r.logger.Debug("skipping query without advertised salaries", r.logger.Args("query", q.Name))
			skipped = append(skipped, Skip{Query: q, Reason: o.err})
			r.count(metrics.OutcomeEmpty)
		default:
			r.logger.Warn("skipping query", r.logger.Args("query", q.Name, "error", o.err))
			skipped = append(skipped, Skip{Query: q, Reason: o.err})
			r.count(metrics.OutcomeFailed)
		}
	}

	rep := Assemble(entries)
	rep.Skipped = skipped
	rep.LivingWage = r.opts.LivingWage

	if r.metrics != nil {
		r.metrics.LastRunTimestamp.SetToCurrentTime()
	}
	r.logger.Info("report assembled", r.logger.Args("reported", len(rep.Descending), "skipped", len(skipped)))
	return rep, nil
}

// processQuery fetches and aggregates one query. Panics are turned into
// errors so one bad query cannot take the run down.
func (r *Runner) processQuery(ctx context.Context, q models.Query) (entry *Entry, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("query %q panicked: %v", q.Name, p)
		}
	}()

	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.QueryDuration.Observe(time.Since(start).Seconds())
		}
	}()

	raw, err := r.source.Offers(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch offers for %q: %w", q.Name, err)
	}

	qs, err := stats.Compute(q, raw)
	if err != nil {
		r.countOffers(0, len(raw))
		return nil, err
	}
	r.countOffers(len(qs.Offers), len(raw)-len(qs.Offers))

	overview, err := r.distribute(qs, r.opts.OverviewBucketWidth)
	if err != nil {
		return nil, err
	}
	detail, err := r.distribute(qs, r.opts.DetailBucketWidth)
	if err != nil {
		return nil, err
	}

	return &Entry{Stats: qs, Overview: overview, Detail: detail}, nil
}

func (r *Runner) distribute(qs *models.QueryStats, width int64) (*models.BucketDistribution, error) {
	d, err := stats.Distribute(qs.Offers, width, qs.Max)
	if err != nil {
		return nil, fmt.Errorf("distribute %q at width %d: %w", qs.QueryName, width, err)
	}
	if d.Degenerate > 0 {
		r.logger.Debug("offers narrower than the bucket grid",
			r.logger.Args("query", qs.QueryName, "width", width, "offers", d.Degenerate))
		if r.metrics != nil {
			r.metrics.DegenerateOffers.WithLabelValues(strconv.FormatInt(width, 10)).Add(float64(d.Degenerate))
		}
	}
	return d, nil
}

func (r *Runner) count(outcome string) {
	if r.metrics != nil {
		r.metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	}
}

func (r *Runner) countOffers(kept, dropped int) {
	if r.metrics == nil {
		return
	}
	r.metrics.OffersTotal.WithLabelValues("kept").Add(float64(kept))
	r.metrics.OffersTotal.WithLabelValues("dropped").Add(float64(dropped))
}
