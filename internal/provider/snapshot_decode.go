package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"ratematch/internal/rates"
)

// snapshotResponse is the wire shape of a rate snapshot. Rate values may be JSON
// numbers or numeric strings.
type snapshotResponse struct {
	Date  string       `json:"date"`
	Base  string       `json:"base"`
	Rates orderedRates `json:"rates"`
}

// orderedRates keeps the object's key order, which decides nearest-match ties.
type orderedRates []rates.Rate

func (o *orderedRates) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("rates must be an object")
	}

	var out []rates.Rate
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		symbol, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("rate for %q: %w", symbol, err)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("rate for %q is null", symbol)
		}
		var value decimal.Decimal
		if err := value.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("rate for %q: %w", symbol, err)
		}
		out = append(out, rates.Rate{Symbol: symbol, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if out == nil {
		out = []rates.Rate{}
	}
	*o = out
	return nil
}

// decodeSnapshot parses a snapshot body. Every failure is a MalformedSnapshotError.
func decodeSnapshot(r io.Reader) (*rates.Snapshot, error) {
	var resp snapshotResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, &rates.MalformedSnapshotError{Err: err}
	}
	if resp.Rates == nil {
		return nil, &rates.MalformedSnapshotError{Err: errors.New("missing rates")}
	}
	return rates.NewSnapshot(resp.Base, resp.Rates)
}
