package rates

import (
	"errors"
	"strings"
)

// Class partitions symbols into fiat currencies and everything else.
type Class string

// Symbol classes.
const (
	ClassFiat Class = "fiat"
	ClassAlt  Class = "alt"
)

// ErrUnknownClass is returned by ParseClass for an unrecognised class name.
var ErrUnknownClass = errors.New("unknown symbol class")

// ParseClass maps a user supplied class name to a Class. An empty name means fiat.
func ParseClass(name string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fiat", "real", "currency":
		return ClassFiat, nil
	case "alt", "crypto":
		return ClassAlt, nil
	default:
		return "", ErrUnknownClass
	}
}

// Classifier decides membership in the fiat class from a static set of codes.
type Classifier struct {
	fiat map[string]struct{}
}

// NewClassifier builds a classifier from fiat currency codes. Codes are matched exactly.
func NewClassifier(fiatCodes ...string) *Classifier {
	c := &Classifier{fiat: make(map[string]struct{}, len(fiatCodes))}
	for _, code := range fiatCodes {
		c.fiat[code] = struct{}{}
	}
	return c
}

// Classify returns the class of symbol.
func (c *Classifier) Classify(symbol string) Class {
	if c.IsFiat(symbol) {
		return ClassFiat
	}
	return ClassAlt
}

// IsFiat reports whether symbol is one of the fiat codes.
func (c *Classifier) IsFiat(symbol string) bool {
	_, ok := c.fiat[symbol]
	return ok
}

// Len returns the number of distinct fiat codes.
func (c *Classifier) Len() int { return len(c.fiat) }
