package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shubham-shewale/market-feed/pkg/models"
)

func TestLoad_EmbeddedDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Len() != 94 {
		t.Errorf("Expected 94 instruments, got %d", c.Len())
	}

	first := c.Instruments()[0]
	if first.Ticker != "HDFCBANK.NS" || first.Name != "HDFC Bank" || first.Type != "Banking" {
		t.Errorf("Unexpected first instrument: %+v", first)
	}

	tickers := c.Tickers()
	if tickers[len(tickers)-1] != "ETH-USD" {
		t.Errorf("Expected ETH-USD last, got %s", tickers[len(tickers)-1])
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
instruments:
  - {ticker: AAA, name: Alpha, type: X}
  - {ticker: BBB, name: Beta, type: Y}
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := strings.Join(c.Tickers(), ","); got != "AAA,BBB" {
		t.Errorf("Expected AAA,BBB got %s", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty ticker":   "instruments:\n  - {ticker: '', name: A, type: X}\n",
		"empty name":     "instruments:\n  - {ticker: AAA, name: '', type: X}\n",
		"empty type":     "instruments:\n  - {ticker: AAA, name: A}\n",
		"duplicate":      "instruments:\n  - {ticker: AAA, name: A, type: X}\n  - {ticker: AAA, name: B, type: Y}\n",
		"unknown field":  "instruments:\n  - {ticker: AAA, name: A, type: X, sector: Z}\n",
		"not yaml":       "instruments: [\n",
		"no instruments": "instruments: []\n",
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Errorf("Expected error for %s", name)
			}
		})
	}
}

func TestNew_EmptyIsSentinel(t *testing.T) {
	_, err := New(nil)
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("Expected ErrEmptyCatalog, got %v", err)
	}
}

func TestInstruments_ReturnsCopy(t *testing.T) {
	c, err := New([]models.Instrument{{Ticker: "AAA", Name: "Alpha", Type: "X"}})
	if err != nil {
		t.Fatal(err)
	}

	list := c.Instruments()
	list[0].Ticker = "ZZZ"

	if c.Tickers()[0] != "AAA" {
		t.Error("Catalog was mutated through Instruments()")
	}
}
