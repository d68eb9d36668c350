// Package catalog loads the static list of instruments the feeder polls.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shubham-shewale/market-feed/pkg/models"
)

//go:embed instruments.yaml
var defaultCatalog []byte

var ErrEmptyCatalog = errors.New("catalog has no instruments")

type file struct {
	Instruments []models.Instrument `yaml:"instruments"`
}

// Catalog is an ordered, read-only list of instruments.
type Catalog struct {
	instruments []models.Instrument
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML catalog data. Any malformed entry fails the whole catalog.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	return New(f.Instruments)
}

// New validates instruments and wraps a copy of them.
func New(instruments []models.Instrument) (*Catalog, error) {
	if len(instruments) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]bool, len(instruments))
	list := make([]models.Instrument, 0, len(instruments))

	for i, inst := range instruments {
		inst.Ticker = strings.TrimSpace(inst.Ticker)
		switch {
		case inst.Ticker == "":
			return nil, fmt.Errorf("instrument %d: empty ticker", i)
		case strings.TrimSpace(inst.Name) == "":
			return nil, fmt.Errorf("instrument %d (%s): empty name", i, inst.Ticker)
		case strings.TrimSpace(inst.Type) == "":
			return nil, fmt.Errorf("instrument %d (%s): empty type", i, inst.Ticker)
		case seen[inst.Ticker]:
			return nil, fmt.Errorf("instrument %d: duplicate ticker %s", i, inst.Ticker)
		}
		seen[inst.Ticker] = true
		list = append(list, inst)
	}

	return &Catalog{instruments: list}, nil
}

// Instruments returns a copy of the catalog in load order.
func (c *Catalog) Instruments() []models.Instrument {
	out := make([]models.Instrument, len(c.instruments))
	copy(out, c.instruments)
	return out
}

// Tickers returns the provider symbols in load order.
func (c *Catalog) Tickers() []string {
	out := make([]string, len(c.instruments))
	for i, inst := range c.instruments {
		out[i] = inst.Ticker
	}
	return out
}

func (c *Catalog) Len() int { return len(c.instruments) }
