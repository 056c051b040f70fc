package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Stock is a listed company and its ticker symbol
type Stock struct {
	Name   string `json:"name" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
}

// StockDirectory is the provider's stock list in provider order.
//
// On the wire it is {"stocks": {"Company Name": "SYMBOL", ...}}. Go maps do
// not keep key order, so the directory decodes the object token by token to
// keep the "first N stocks" selection stable.
type StockDirectory struct {
	Stocks []Stock
}

// Symbols returns the ticker symbols in provider order
func (d StockDirectory) Symbols() []string {
	symbols := make([]string, len(d.Stocks))
	for i, s := range d.Stocks {
		symbols[i] = s.Symbol
	}
	return symbols
}

// Top returns the first n symbols in provider order
func (d StockDirectory) Top(n int) []string {
	symbols := d.Symbols()
	if n < 0 || n >= len(symbols) {
		return symbols
	}
	return symbols[:n]
}

// Lookup finds a stock by symbol
func (d StockDirectory) Lookup(symbol string) (Stock, bool) {
	for _, s := range d.Stocks {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return Stock{}, false
}

// MarshalJSON writes the upstream {"stocks": {...}} shape preserving order
func (d StockDirectory) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"stocks":{`)
	for i, s := range d.Stocks {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		symbol, err := json.Marshal(s.Symbol)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(symbol)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the upstream {"stocks": {...}} shape preserving order
func (d *StockDirectory) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	d.Stocks = nil
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read directory key: %w", err)
		}
		if key != "stocks" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return fmt.Errorf("skip directory field %v: %w", key, err)
			}
			continue
		}

		if err := expectDelim(dec, '{'); err != nil {
			return err
		}
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return fmt.Errorf("read stock name: %w", err)
			}
			name, ok := nameTok.(string)
			if !ok {
				return fmt.Errorf("stock name must be a string, got %T", nameTok)
			}
			var symbol string
			if err := dec.Decode(&symbol); err != nil {
				return fmt.Errorf("read symbol for %q: %w", name, err)
			}
			d.Stocks = append(d.Stocks, Stock{Name: name, Symbol: symbol})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
	}

	return expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read stock directory: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("stock directory: expected %q, got %v", want, tok)
	}
	return nil
}

// CorrelationReport is the computed correlation matrix and statistics for a symbol set
type CorrelationReport struct {
	Symbols      []string                     `json:"symbols"`
	Minutes      int                          `json:"minutes"`
	Correlations CorrelationMatrix            `json:"correlations"`
	Statistics   StatisticsTable              `json:"statistics"`
	Strengths    map[string]map[string]string `json:"strengths,omitempty"`
	GeneratedAt  time.Time                    `json:"generatedAt"`
	Source       DataSource                   `json:"source"`
}

// StockAnalysis is the per-stock view: current price, history and derived values
type StockAnalysis struct {
	Symbol       string       `json:"symbol"`
	Name         string       `json:"name,omitempty"`
	Minutes      int          `json:"minutes"`
	Current      *PricePoint  `json:"current,omitempty"`
	History      PriceSeries  `json:"history"`
	Change       *PriceChange `json:"change,omitempty"`
	AveragePrice *float64     `json:"averagePrice,omitempty"`
	Statistics   *Statistics  `json:"statistics,omitempty"`
	Source       DataSource   `json:"source"`
}
