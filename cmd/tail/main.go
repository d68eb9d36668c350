package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/tail/internal/subscriber"
	"github.com/shubham-shewale/market-feed/pkg/config"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

func main() {
	var channel string

	root := &cobra.Command{
		Use:          "tail",
		Short:        "Print price updates as they arrive on the feed channel",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(channel)
		},
	}
	root.Flags().StringVar(&channel, "channel", "", "channel or topic to follow (defaults to FEED_CHANNEL)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(channel string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	if channel == "" {
		channel = cfg.Feed.Channel
	}

	sub, err := subscriber.New(cfg, channel, logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	logger.Info("Tailing feed", zap.String("broker", cfg.Broker.Kind), zap.String("channel", channel))
	return sub.Run(ctx, func(u models.PriceUpdate, raw []byte) {
		logger.Info("Update",
			zap.String("ticker", u.Ticker),
			zap.Float64("price", u.Price),
			zap.String("currency", u.Currency),
			zap.String("timestamp", u.Timestamp),
		)
	})
}
