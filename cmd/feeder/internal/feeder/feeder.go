package feeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shubham-shewale/market-feed/cmd/feeder/internal/catalog"
	"github.com/shubham-shewale/market-feed/cmd/feeder/internal/publisher"
	"github.com/shubham-shewale/market-feed/cmd/feeder/internal/quotes"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

const (
	DefaultBatchSize      = 30
	DefaultInterval       = 5 * time.Second
	DefaultFetchTimeout   = 15 * time.Second
	DefaultPublishTimeout = 2 * time.Second
)

type Options struct {
	Catalog  *catalog.Catalog
	Provider quotes.Provider
	Broker   publisher.Broker
	Clock    Clock
	Logger   *zap.Logger

	Channel        string
	BatchSize      int
	Interval       time.Duration
	FetchTimeout   time.Duration
	PublishTimeout time.Duration
	Concurrency    int
	Currency       publisher.CurrencyRule
}

// Feeder polls the provider for every catalog instrument and republishes the
// latest prices, forever, at a fixed delay between cycles.
type Feeder struct {
	logger   *zap.Logger
	provider quotes.Provider
	broker   publisher.Broker
	clock    Clock
	currency publisher.CurrencyRule

	instruments []models.Instrument
	batches     [][]string

	channel        string
	interval       time.Duration
	fetchTimeout   time.Duration
	publishTimeout time.Duration
	concurrency    int

	state State
	// set by Run's startup attempt so the first cycle does not redial immediately
	justAttempted bool
}

func New(opts Options) (*Feeder, error) {
	if opts.Catalog == nil {
		return nil, errors.New("feeder: catalog is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("feeder: provider is required")
	}
	if opts.Broker == nil {
		return nil, errors.New("feeder: broker is required")
	}
	if opts.Channel == "" {
		return nil, errors.New("feeder: channel is required")
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Currency == (publisher.CurrencyRule{}) {
		opts.Currency = publisher.DefaultCurrencyRule
	}

	batchSize := opts.BatchSize
	if limit := opts.Provider.MaxBatch(); limit > 0 && batchSize > limit {
		opts.Logger.Warn("Batch size above provider limit, clamping",
			zap.Int("configured", batchSize),
			zap.Int("limit", limit),
			zap.String("provider", opts.Provider.Name()),
		)
		batchSize = limit
	}

	return &Feeder{
		logger:         opts.Logger,
		provider:       opts.Provider,
		broker:         opts.Broker,
		clock:          opts.Clock,
		currency:       opts.Currency,
		instruments:    opts.Catalog.Instruments(),
		batches:        Partition(opts.Catalog.Tickers(), batchSize),
		channel:        opts.Channel,
		interval:       opts.Interval,
		fetchTimeout:   opts.FetchTimeout,
		publishTimeout: opts.PublishTimeout,
		concurrency:    opts.Concurrency,
		state:          Disconnected,
	}, nil
}

// Run connects to the broker and cycles until ctx is cancelled. A failed
// connection does not stop the loop; fetches continue and publishes resume
// once a later cycle reconnects.
func (f *Feeder) Run(ctx context.Context) error {
	f.logger.Info("Feeder Started",
		zap.Int("instruments", len(f.instruments)),
		zap.Int("batches", len(f.batches)),
		zap.String("provider", f.provider.Name()),
		zap.String("channel", f.channel),
		zap.Duration("interval", f.interval),
	)

	f.connect(ctx, f.logger)
	f.justAttempted = true

	for {
		if ctx.Err() != nil {
			return nil
		}

		f.RunCycle(ctx)

		// fixed delay, no catch-up for slow cycles
		select {
		case <-ctx.Done():
			return nil
		case <-f.clock.After(f.interval):
		}
	}
}

// RunCycle fetches every batch, merges the results and publishes one update per
// priced instrument. It never panics or returns an error; failures are logged
// and reflected in the report.
func (f *Feeder) RunCycle(ctx context.Context) (report CycleReport) {
	start := f.clock.Now()
	report.ID = uuid.NewString()
	report.Batches = len(f.batches)
	log := f.logger.With(zap.String("cycle_id", report.ID))

	defer func() {
		if r := recover(); r != nil {
			report.Panicked = true
			log.Error("Cycle aborted by panic", zap.Any("panic", r), zap.Stack("stack"))
		}
		report.Duration = f.clock.Now().Sub(start)
	}()

	if f.state == Disconnected && !f.justAttempted {
		f.connect(ctx, log)
	}
	f.justAttempted = false
	report.Connected = f.state == Connected

	cache := f.fetchAll(ctx, log, &report)
	f.publishAll(ctx, log, cache, &report)

	log.Info("Cycle complete",
		zap.Int("batches", report.Batches),
		zap.Int("failed_batches", report.FailedBatches),
		zap.Int("priced", report.Priced),
		zap.Int("missing", len(f.instruments)-report.Priced),
		zap.Int("published", report.Published),
		zap.Int("skipped", report.Skipped),
		zap.String("broker", f.state.String()),
		zap.Duration("duration", f.clock.Now().Sub(start)),
	)

	return report
}

func (f *Feeder) State() State { return f.state }

func (f *Feeder) connect(ctx context.Context, log *zap.Logger) {
	cctx, cancel := context.WithTimeout(ctx, f.publishTimeout)
	defer cancel()

	if err := f.broker.Connect(cctx); err != nil {
		f.state = Disconnected
		log.Warn("Broker connection failed, publishes skipped until reconnect", zap.Error(err))
		return
	}
	f.state = Connected
}

// fetchAll runs batches through a bounded errgroup. Each batch writes its own
// slot and slots are merged in batch order, so the result does not depend on
// completion order.
func (f *Feeder) fetchAll(ctx context.Context, log *zap.Logger, report *CycleReport) *PriceCache {
	results := make([]map[string]float64, len(f.batches))
	errs := make([]error, len(f.batches))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, batch := range f.batches {
		i, batch := i, batch
		g.Go(func() error {
			results[i], errs[i] = f.fetchBatch(ctx, batch)
			return nil
		})
	}
	g.Wait()

	cache := NewPriceCache(len(f.instruments))
	for i, batch := range f.batches {
		if errs[i] != nil {
			report.FailedBatches++
			log.Error("Batch fetch error",
				zap.Int("batch", i),
				zap.Int("symbols", len(batch)),
				zap.String("first", batch[0]),
				zap.Error(errs[i]),
			)
			continue
		}
		cache.Merge(results[i])
	}
	return cache
}

func (f *Feeder) fetchBatch(ctx context.Context, batch []string) (prices map[string]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	fctx, cancel := context.WithTimeout(ctx, f.fetchTimeout)
	defer cancel()

	return f.provider.FetchBatch(fctx, batch)
}

func (f *Feeder) publishAll(ctx context.Context, log *zap.Logger, cache *PriceCache, report *CycleReport) {
	for _, inst := range f.instruments {
		price, ok := cache.Get(inst.Ticker)
		if !ok {
			continue
		}
		report.Priced++

		if f.state != Connected {
			report.Skipped++
			continue
		}

		obs := publisher.Observation{
			Instrument: inst,
			Price:      price,
			Currency:   f.currency.Currency(inst.Ticker),
			ObservedAt: f.clock.Now(),
		}

		if err := f.publish(ctx, obs.Update()); err != nil {
			f.state = Disconnected
			report.Skipped++
			log.Error("Publish failed, broker marked disconnected",
				zap.String("ticker", inst.Ticker),
				zap.Error(err),
			)
			continue
		}

		report.Published++
		log.Debug("Sent update", zap.String("ticker", inst.Ticker), zap.Float64("price", price))
	}
}

func (f *Feeder) publish(ctx context.Context, update models.PriceUpdate) error {
	pctx, cancel := context.WithTimeout(ctx, f.publishTimeout)
	defer cancel()
	return f.broker.Publish(pctx, f.channel, update)
}
