package quotes

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/pkg/config"
)

func TestNew_SelectsProvider(t *testing.T) {
	p, err := New(config.ProviderConfig{Kind: config.ProviderSpark, BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	if err != nil {
		t.Fatalf("New(spark) error = %v", err)
	}
	if p.Name() != "spark" || p.MaxBatch() != 30 {
		t.Errorf("Unexpected spark provider %s/%d", p.Name(), p.MaxBatch())
	}

	p, err = New(config.ProviderConfig{Kind: config.ProviderFinanceGo}, zap.NewNop())
	if err != nil {
		t.Fatalf("New(financego) error = %v", err)
	}
	if p.Name() != "financego" {
		t.Errorf("Expected financego, got %s", p.Name())
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(config.ProviderConfig{Kind: "bloomberg"}, zap.NewNop())
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Expected ErrUnknownProvider, got %v", err)
	}
}
