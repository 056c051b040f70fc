package analytics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stockpulse/pkg/contracts/domain"
)

// Kind identifies the original shape of price data
type Kind int

const (
	KindAbsent Kind = iota
	KindReading
	KindSeries
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindReading:
		return "reading"
	case KindSeries:
		return "series"
	default:
		return "absent"
	}
}

// ErrUnrecognizedPayload is returned when a price payload is neither a reading nor a series
var ErrUnrecognizedPayload = errors.New("unrecognized price payload")

// PriceData is either a single reading, a series, or absent.
// The zero value is absent.
type PriceData struct {
	kind    Kind
	reading domain.PricePoint
	series  domain.PriceSeries
}

// Reading wraps a single current price
func Reading(p domain.PricePoint) PriceData {
	return PriceData{kind: KindReading, reading: p}
}

// Series wraps an ordered price series
func Series(s domain.PriceSeries) PriceData {
	return PriceData{kind: KindSeries, series: s}
}

// NoData returns the absent value
func NoData() PriceData {
	return PriceData{}
}

// Kind reports the shape
func (d PriceData) Kind() Kind {
	return d.kind
}

// IsAbsent reports whether there is no data at all
func (d PriceData) IsAbsent() bool {
	return d.kind == KindAbsent
}

// AsReading returns the reading when the data is a single reading
func (d PriceData) AsReading() (domain.PricePoint, bool) {
	return d.reading, d.kind == KindReading
}

// AsSeries returns the series when the data is a series
func (d PriceData) AsSeries() (domain.PriceSeries, bool) {
	return d.series, d.kind == KindSeries
}

// readingEnvelope is the upstream current-price shape
type readingEnvelope struct {
	Stock *domain.PricePoint `json:"stock"`
}

// MarshalJSON writes the upstream shape: {"stock": {...}} for a reading,
// an array for a series, null when absent
func (d PriceData) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case KindReading:
		p := d.reading
		return json.Marshal(readingEnvelope{Stock: &p})
	case KindSeries:
		if d.series == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(d.series)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any shape DecodePriceData accepts
func (d *PriceData) UnmarshalJSON(data []byte) error {
	decoded, err := DecodePriceData(data)
	if err != nil {
		return err
	}
	*d = decoded
	return nil
}

// DecodePriceData turns a raw upstream payload into PriceData.
//
// Accepted shapes: a JSON array of points (series), {"stock": point}
// (reading), or a bare point object (reading). Empty input and null are absent.
func DecodePriceData(raw []byte) (PriceData, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return NoData(), nil
	}

	switch trimmed[0] {
	case '[':
		var series domain.PriceSeries
		if err := json.Unmarshal(trimmed, &series); err != nil {
			return NoData(), fmt.Errorf("decode price series: %w", err)
		}
		if series == nil {
			series = domain.PriceSeries{}
		}
		return Series(series), nil

	case '{':
		var probe struct {
			Stock         *domain.PricePoint `json:"stock"`
			Price         *float64           `json:"price"`
			LastUpdatedAt *time.Time         `json:"lastUpdatedAt"`
		}
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return NoData(), fmt.Errorf("decode price reading: %w", err)
		}
		if probe.Stock != nil {
			return Reading(*probe.Stock), nil
		}
		if probe.Price != nil {
			p := domain.PricePoint{Price: *probe.Price}
			if probe.LastUpdatedAt != nil {
				p.ObservedAt = *probe.LastUpdatedAt
			}
			return Reading(p), nil
		}
		return NoData(), ErrUnrecognizedPayload
	}

	return NoData(), fmt.Errorf("%w: starts with %q", ErrUnrecognizedPayload, trimmed[0])
}

// Normalized is the canonical form of PriceData
type Normalized struct {
	// Kind is the shape before normalization
	Kind       Kind
	Series     domain.PriceSeries
	Current    domain.PricePoint
	HasCurrent bool
}

// Normalize produces the canonical series and, when meaningful, the
// representative current price: the sole reading, or the latest point of
// a series. Absent data yields an empty series and no current price.
func Normalize(d PriceData) Normalized {
	switch d.kind {
	case KindReading:
		return Normalized{
			Kind:       KindReading,
			Series:     domain.PriceSeries{d.reading},
			Current:    d.reading,
			HasCurrent: true,
		}
	case KindSeries:
		n := Normalized{Kind: KindSeries, Series: d.series.Clone()}
		if n.Series == nil {
			n.Series = domain.PriceSeries{}
		}
		if latest, ok := latestPoint(d.series); ok {
			n.Current = latest
			n.HasCurrent = true
		}
		return n
	default:
		return Normalized{Kind: KindAbsent, Series: domain.PriceSeries{}}
	}
}

// latestPoint returns the chronologically last point; ties go to the later position
func latestPoint(s domain.PriceSeries) (domain.PricePoint, bool) {
	if len(s) == 0 {
		return domain.PricePoint{}, false
	}
	latest := s[0]
	for _, p := range s[1:] {
		if !p.ObservedAt.Before(latest.ObservedAt) {
			latest = p
		}
	}
	return latest, true
}
