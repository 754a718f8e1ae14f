// Package rates holds the rate table: raw provider snapshots, fiat/alt symbol
// classification, recalculation against a base currency and nearest-rate matching.
package rates

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Rate is a single raw rate as received from the provider.
type Rate struct {
	Symbol string
	Value  decimal.Decimal
}

// Snapshot is one complete fetch of rates, relative to the provider's base.
// It is immutable and keeps symbols in the order the provider sent them.
type Snapshot struct {
	base  string
	rates []Rate
	index map[string]int
}

// NewSnapshot validates and copies the given rates into an immutable snapshot.
func NewSnapshot(base string, rates []Rate) (*Snapshot, error) {
	if base == "" {
		return nil, &MalformedSnapshotError{Err: errors.New("missing base")}
	}
	s := &Snapshot{
		base:  base,
		rates: make([]Rate, 0, len(rates)),
		index: make(map[string]int, len(rates)),
	}
	for _, r := range rates {
		if r.Symbol == "" {
			return nil, &MalformedSnapshotError{Err: errors.New("empty symbol")}
		}
		if _, dup := s.index[r.Symbol]; dup {
			return nil, &MalformedSnapshotError{Err: fmt.Errorf("duplicate symbol %q", r.Symbol)}
		}
		if r.Value.IsNegative() {
			return nil, &MalformedSnapshotError{Err: fmt.Errorf("negative rate for %q", r.Symbol)}
		}
		s.index[r.Symbol] = len(s.rates)
		s.rates = append(s.rates, r)
	}
	return s, nil
}

// Base returns the currency the provider expressed the rates against.
func (s *Snapshot) Base() string { return s.base }

// Len returns the number of symbols in the snapshot.
func (s *Snapshot) Len() int { return len(s.rates) }

// Rates returns a copy of the raw rates in provider order.
func (s *Snapshot) Rates() []Rate {
	out := make([]Rate, len(s.rates))
	copy(out, s.rates)
	return out
}

// Lookup returns the raw rate for symbol.
func (s *Snapshot) Lookup(symbol string) (decimal.Decimal, bool) {
	i, ok := s.index[symbol]
	if !ok {
		return decimal.Decimal{}, false
	}
	return s.rates[i].Value, true
}
