package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feeder/internal/catalog"
	"github.com/shubham-shewale/market-feed/cmd/feeder/internal/feeder"
	"github.com/shubham-shewale/market-feed/cmd/feeder/internal/publisher"
	"github.com/shubham-shewale/market-feed/cmd/feeder/internal/quotes"
	"github.com/shubham-shewale/market-feed/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var catalogFile string

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the quote provider and publish prices forever",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeeder(catalogFile)
		},
	}

	root := &cobra.Command{
		Use:   "feeder",
		Short: "Republish market prices onto the pub/sub channel",
		Long: `Polls the configured quote provider for every instrument in the catalog
on a fixed interval and publishes the latest price of each one to the broker.`,
		SilenceUsage: true,
		RunE:         runCmd.RunE,
	}
	root.PersistentFlags().StringVar(&catalogFile, "catalog", "", "catalog YAML file (overrides FEED_CATALOG_FILE)")

	root.AddCommand(runCmd, &cobra.Command{
		Use:   "catalog",
		Short: "Validate and print the instrument catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCatalog(cmd, catalogFile)
		},
	})

	return root
}

func runFeeder(catalogFile string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if catalogFile == "" {
		catalogFile = cfg.Feed.CatalogFile
	}
	cat, err := catalog.Load(catalogFile)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.String("file", catalogFile), zap.Error(err))
	}

	provider, err := quotes.New(cfg.Provider, logger.Named("quotes"))
	if err != nil {
		logger.Fatal("Failed to create quote provider", zap.Error(err))
	}

	broker, err := publisher.New(cfg, logger.Named("broker"))
	if err != nil {
		logger.Fatal("Failed to create broker", zap.Error(err))
	}

	f, err := feeder.New(feeder.Options{
		Catalog:        cat,
		Provider:       provider,
		Broker:         broker,
		Logger:         logger,
		Channel:        cfg.Feed.Channel,
		BatchSize:      cfg.Feed.BatchSize,
		Interval:       cfg.Feed.Interval,
		FetchTimeout:   cfg.Feed.FetchTimeout,
		PublishTimeout: cfg.Feed.PublishTimeout,
		Concurrency:    cfg.Feed.Concurrency,
		Currency: publisher.CurrencyRule{
			DomesticSuffix: cfg.Feed.DomesticSuffix,
			Domestic:       cfg.Feed.DomesticSymbol,
			Fallback:       cfg.Feed.FallbackSymbol,
		},
	})
	if err != nil {
		logger.Fatal("Failed to create feeder", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	f.Run(ctx)

	// flush buffered writes (kafka async writer)
	if err := broker.Close(); err != nil {
		logger.Error("Error closing broker", zap.Error(err))
	} else {
		logger.Info("Broker closed cleanly")
	}
	return nil
}

func printCatalog(cmd *cobra.Command, catalogFile string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if catalogFile == "" {
		catalogFile = cfg.Feed.CatalogFile
	}

	cat, err := catalog.Load(catalogFile)
	if err != nil {
		return err
	}

	rule := publisher.CurrencyRule{
		DomesticSuffix: cfg.Feed.DomesticSuffix,
		Domestic:       cfg.Feed.DomesticSymbol,
		Fallback:       cfg.Feed.FallbackSymbol,
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tNAME\tTYPE\tCURRENCY")
	for _, inst := range cat.Instruments() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", inst.Ticker, inst.Name, inst.Type, rule.Currency(inst.Ticker))
	}
	fmt.Fprintf(w, "\n%d instruments\n", cat.Len())
	return w.Flush()
}
