package rates

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// SymbolRate is a rate expressed relative to the table's current base.
type SymbolRate struct {
	Symbol string  `json:"symbol"`
	Rate   float64 `json:"rate"`
}

// View is a consistent read of the table: both mappings belong to Base.
type View struct {
	Base string
	Fiat []SymbolRate
	Alt  []SymbolRate
}

// Match is the result of a nearest-rate query.
type Match struct {
	Symbol string
	Rate   float64
	Base   string
	Class  Class
}

// state is published as a whole and never modified afterwards.
type state struct {
	snapshot *Snapshot
	base     string
	fiat     []SymbolRate
	alt      []SymbolRate
}

// Table owns the raw snapshot, the current base and the recalculated rates.
// Reads are lock free; writers are serialised and swap in a fully built state.
type Table struct {
	classifier *Classifier

	mu      sync.Mutex
	current atomic.Pointer[state]
}

// New builds a table from the first snapshot. A nil snapshot means no data was ever
// fetched and yields ErrNoData.
func New(classifier *Classifier, base string, snapshot *Snapshot) (*Table, error) {
	if snapshot == nil {
		return nil, ErrNoData
	}
	if classifier == nil {
		classifier = NewClassifier()
	}
	t := &Table{classifier: classifier}
	st, err := t.recalculate(snapshot, base)
	if err != nil {
		return nil, err
	}
	t.current.Store(st)
	return t, nil
}

// Load replaces the raw snapshot and recalculates it against the current base.
// On error the previous snapshot, base and rates stay published.
func (t *Table) Load(snapshot *Snapshot) error {
	if snapshot == nil {
		return ErrNoData
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.recalculate(snapshot, t.current.Load().base)
	if err != nil {
		return err
	}
	t.current.Store(st)
	return nil
}

// SetBase switches the base currency. The code is uppercased and must exist in the
// raw snapshot with a positive rate; otherwise nothing changes.
func (t *Table) SetBase(base string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.recalculate(t.current.Load().snapshot, base)
	if err != nil {
		return err
	}
	t.current.Store(st)
	return nil
}

// Base returns the current base currency.
func (t *Table) Base() string {
	return t.current.Load().base
}

// Snapshot returns the raw snapshot the current rates were derived from.
func (t *Table) Snapshot() *Snapshot {
	return t.current.Load().snapshot
}

// View returns copies of both mappings together with the base they belong to.
func (t *Table) View() View {
	st := t.current.Load()
	return View{
		Base: st.base,
		Fiat: cloneRates(st.fiat),
		Alt:  cloneRates(st.alt),
	}
}

// Rates returns a copy of the recalculated rates of one class, in snapshot order.
func (t *Table) Rates(class Class) ([]SymbolRate, error) {
	set, err := t.current.Load().ratesOf(class)
	if err != nil {
		return nil, err
	}
	return cloneRates(set), nil
}

// Nearest returns the symbol of class whose rate is closest to value. Ties go to the
// symbol that came first in the snapshot.
func (t *Table) Nearest(value float64, class Class) (Match, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Match{}, ErrInvalidValue
	}
	st := t.current.Load()
	set, err := st.ratesOf(class)
	if err != nil {
		return Match{}, err
	}
	if len(set) == 0 {
		return Match{}, fmt.Errorf("%w: no %s rates", ErrNoData, class)
	}

	best := 0
	bestDist := math.Abs(value - set[0].Rate)
	for i := 1; i < len(set); i++ {
		if d := math.Abs(value - set[i].Rate); d < bestDist {
			best, bestDist = i, d
		}
	}
	return Match{
		Symbol: set[best].Symbol,
		Rate:   set[best].Rate,
		Base:   st.base,
		Class:  class,
	}, nil
}

// NearestString is Nearest for a value typed by a user, normalized by ParseValue.
func (t *Table) NearestString(raw string, class Class) (Match, error) {
	v, err := ParseValue(raw)
	if err != nil {
		return Match{}, err
	}
	return t.Nearest(v, class)
}

func (t *Table) recalculate(snapshot *Snapshot, base string) (*state, error) {
	base = strings.ToUpper(base)
	raw, ok := snapshot.Lookup(base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, base)
	}
	if !raw.IsPositive() {
		return nil, fmt.Errorf("%w: %q", ErrNonPositiveBaseRate, base)
	}

	st := &state{snapshot: snapshot, base: base}
	identity := base == snapshot.Base()
	divisor := raw.InexactFloat64()

	for _, r := range snapshot.rates {
		v := r.Value.InexactFloat64()
		if !identity {
			v /= divisor
		}
		sr := SymbolRate{Symbol: r.Symbol, Rate: v}
		if t.classifier.IsFiat(r.Symbol) {
			st.fiat = append(st.fiat, sr)
		} else {
			st.alt = append(st.alt, sr)
		}
	}
	return st, nil
}

func (s *state) ratesOf(class Class) ([]SymbolRate, error) {
	switch class {
	case ClassFiat:
		return s.fiat, nil
	case ClassAlt:
		return s.alt, nil
	default:
		return nil, ErrUnknownClass
	}
}

func cloneRates(in []SymbolRate) []SymbolRate {
	out := make([]SymbolRate, len(in))
	copy(out, in)
	return out
}
