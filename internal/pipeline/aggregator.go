package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/work-order-weather-service/internal/domain"
	"github.com/couchcryptid/work-order-weather-service/internal/observability"
)

// Per-zip outcome labels.
const (
	outcomeAlerts     = "alerts"
	outcomeNoAlerts   = "no_alerts"
	outcomeUnresolved = "unresolved"
	outcomeAlertError = "alert_error"
)

const defaultPublishTimeout = 5 * time.Second

// ResultPublisher receives every non-empty batch result after aggregation.
type ResultPublisher interface {
	PublishResults(ctx context.Context, result domain.BatchResult) error
}

// Aggregator resolves a batch of zip codes to their active weather alerts.
// A zip that cannot be resolved or whose alert lookup fails is left out of
// the result; it never fails the batch.
type Aggregator struct {
	cache       domain.CoordinateCache
	geocoder    domain.Geocoder
	alerts      domain.AlertFetcher
	publisher   ResultPublisher
	pubTimeout  time.Duration
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency sets how many distinct zip codes are processed at once.
// Values below 2 keep processing strictly sequential.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = n }
}

// WithPublisher hands each batch result to p. Publish failures are logged.
func WithPublisher(p ResultPublisher) Option {
	return func(a *Aggregator) { a.publisher = p }
}

// WithPublishTimeout bounds how long a publish may hold up the response.
func WithPublishTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.pubTimeout = d }
}

// New creates an Aggregator over its three collaborators.
func New(cache domain.CoordinateCache, geocoder domain.Geocoder, alerts domain.AlertFetcher, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Aggregator {
	a := &Aggregator{
		cache:       cache,
		geocoder:    geocoder,
		alerts:      alerts,
		pubTimeout:  defaultPublishTimeout,
		concurrency: 1,
		logger:      logger,
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate builds the BatchResult for zips. Duplicate zip codes are each
// processed; the last occurrence that produced an entry wins.
func (a *Aggregator) Aggregate(ctx context.Context, zips []string) domain.BatchResult {
	start := time.Now()
	a.metrics.WeatherBatches.Inc()
	a.metrics.WeatherBatchSize.Observe(float64(len(zips)))

	var result domain.BatchResult
	if a.concurrency > 1 {
		result = a.aggregateConcurrent(ctx, zips)
	} else {
		result = make(domain.BatchResult, len(zips))
		for _, zip := range zips {
			if entry, ok := a.processZip(ctx, zip); ok {
				result[zip] = entry
			}
		}
	}

	a.metrics.WeatherBatchDuration.Observe(time.Since(start).Seconds())
	a.logger.Debug("weather batch aggregated", "requested", len(zips), "resolved", len(result))

	a.publish(ctx, result)
	return result
}

// aggregateConcurrent gives each distinct zip to one worker, which handles
// that zip's occurrences in input order. The same zip is therefore never
// looked up and filled concurrently within a batch.
func (a *Aggregator) aggregateConcurrent(ctx context.Context, zips []string) domain.BatchResult {
	occurrences := make(map[string]int, len(zips))
	distinct := make([]string, 0, len(zips))
	for _, zip := range zips {
		if occurrences[zip] == 0 {
			distinct = append(distinct, zip)
		}
		occurrences[zip]++
	}

	var (
		mu     sync.Mutex
		result = make(domain.BatchResult, len(distinct))
		g      errgroup.Group
	)
	g.SetLimit(a.concurrency)

	for _, zip := range distinct {
		g.Go(func() error {
			var (
				last  []domain.AlertSummary
				found bool
			)
			for range occurrences[zip] {
				if entry, ok := a.processZip(ctx, zip); ok {
					last, found = entry, true
				}
			}
			if found {
				mu.Lock()
				result[zip] = last
				mu.Unlock()
			}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.Warn("weather batch interrupted", "resolved", len(result), "error", err)
	}

	return result
}

// processZip runs the lookup, geocode fallback, cache fill, and alert fetch
// for one zip. The bool is false when the zip gets no entry.
func (a *Aggregator) processZip(ctx context.Context, zip string) ([]domain.AlertSummary, bool) {
	if strings.TrimSpace(zip) == "" {
		a.metrics.ZipOutcomes.WithLabelValues(outcomeUnresolved).Inc()
		return nil, false
	}
	if err := ctx.Err(); err != nil {
		a.logger.Warn("batch canceled, skipping zip", "zip", zip, "error", err)
		a.metrics.ZipOutcomes.WithLabelValues(outcomeUnresolved).Inc()
		return nil, false
	}

	coord, ok := a.resolve(ctx, zip)
	if !ok {
		a.metrics.ZipOutcomes.WithLabelValues(outcomeUnresolved).Inc()
		return nil, false
	}

	resp, err := a.alerts.FetchAlerts(ctx, coord.Latitude, coord.Longitude)
	if err != nil {
		a.logger.Warn("alert lookup failed, skipping zip", "zip", zip, "error", err)
		a.metrics.ZipOutcomes.WithLabelValues(outcomeAlertError).Inc()
		return nil, false
	}

	summaries := resp.Summaries()
	if summaries == nil {
		a.metrics.ZipOutcomes.WithLabelValues(outcomeNoAlerts).Inc()
	} else {
		a.metrics.ZipOutcomes.WithLabelValues(outcomeAlerts).Inc()
	}
	return summaries, true
}

// resolve returns the zip's coordinate from the cache, or geocodes it and
// fills the cache. A failed fill does not stop the resolved coordinate from
// being used for this request.
func (a *Aggregator) resolve(ctx context.Context, zip string) (domain.Coordinate, bool) {
	cached, hit, err := a.cache.Lookup(ctx, zip)
	switch {
	case err != nil:
		a.logger.Warn("coordinate cache lookup failed, geocoding", "zip", zip, "error", err)
		a.metrics.CoordinateCache.WithLabelValues("error").Inc()
	case hit:
		a.metrics.CoordinateCache.WithLabelValues("hit").Inc()
		return cached.Coordinate(), true
	default:
		a.metrics.CoordinateCache.WithLabelValues("miss").Inc()
	}

	coord, err := a.geocoder.Resolve(ctx, zip)
	if err != nil {
		a.logger.Warn("geocoding failed, skipping zip", "zip", zip, "error", err)
		return domain.Coordinate{}, false
	}

	if err := a.cache.Store(ctx, domain.NewZipCoordinate(zip, coord)); err != nil {
		a.logger.Warn("coordinate cache fill failed", "zip", zip, "error", err)
		a.metrics.CoordinateFillError.Inc()
	}
	return coord, true
}

// publish outlives a cancelled request so a client disconnect does not drop
// results that were already aggregated, but never waits past pubTimeout.
func (a *Aggregator) publish(ctx context.Context, result domain.BatchResult) {
	if a.publisher == nil || len(result) == 0 {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.pubTimeout)
	defer cancel()

	if err := a.publisher.PublishResults(pubCtx, result); err != nil {
		a.metrics.PublishErrors.Inc()
		a.logger.Error("publish batch result failed", "zips", len(result), "error", err)
		return
	}
	a.metrics.ResultsPublished.Add(float64(len(result)))
}
