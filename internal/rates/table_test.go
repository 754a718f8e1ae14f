package rates

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClassifier = NewClassifier("USD", "PLN", "EUR", "NZD", "AUD")

func mustSnapshot(t *testing.T, base string, pairs ...string) *Snapshot {
	t.Helper()
	require.Zero(t, len(pairs)%2, "pairs must be symbol/value")
	var rates []Rate
	for i := 0; i < len(pairs); i += 2 {
		rates = append(rates, Rate{Symbol: pairs[i], Value: decimal.RequireFromString(pairs[i+1])})
	}
	snap, err := NewSnapshot(base, rates)
	require.NoError(t, err)
	return snap
}

func scenarioSnapshot(t *testing.T) *Snapshot {
	return mustSnapshot(t, "USD",
		"USD", "1",
		"PLN", "4.0",
		"EUR", "0.9",
		"BTC", "0.00002",
	)
}

func rateOf(t *testing.T, set []SymbolRate, symbol string) (float64, bool) {
	t.Helper()
	for _, r := range set {
		if r.Symbol == symbol {
			return r.Rate, true
		}
	}
	return 0, false
}

func TestNew(t *testing.T) {
	t.Run("nil snapshot is no data", func(t *testing.T) {
		_, err := New(testClassifier, "USD", nil)
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("unknown starting base", func(t *testing.T) {
		_, err := New(testClassifier, "X!X", scenarioSnapshot(t))
		assert.ErrorIs(t, err, ErrUnknownSymbol)
	})

	t.Run("starting base is uppercased", func(t *testing.T) {
		table, err := New(testClassifier, "pln", scenarioSnapshot(t))
		require.NoError(t, err)
		assert.Equal(t, "PLN", table.Base())
	})
}

func TestSetBase_Scenario(t *testing.T) {
	table, err := New(testClassifier, "USD", scenarioSnapshot(t))
	require.NoError(t, err)

	require.NoError(t, table.SetBase("EUR"))
	view := table.View()
	assert.Equal(t, "EUR", view.Base)

	pln, eur, btc := 4.0, 0.9, 0.00002

	got, ok := rateOf(t, view.Fiat, "PLN")
	require.True(t, ok)
	assert.Equal(t, pln/eur, got)

	got, ok = rateOf(t, view.Alt, "BTC")
	require.True(t, ok)
	assert.Equal(t, btc/eur, got)

	_, ok = rateOf(t, view.Fiat, "BTC")
	assert.False(t, ok, "BTC must not be classified as fiat")
}

func TestSetBase_Normalizes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pln", "PLN"},
		{"USD", "USD"},
		{"Eur", "EUR"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			table, err := New(testClassifier, "USD", scenarioSnapshot(t))
			require.NoError(t, err)

			require.NoError(t, table.SetBase(tc.input))
			assert.Equal(t, tc.expected, table.Base())
		})
	}
}

func TestSetBase_RejectsUnknown(t *testing.T) {
	for _, input := range []string{"ZZZ", "", "dupa"} {
		t.Run(input, func(t *testing.T) {
			table, err := New(testClassifier, "USD", scenarioSnapshot(t))
			require.NoError(t, err)
			require.NoError(t, table.SetBase("EUR"))
			before := table.View()

			err = table.SetBase(input)
			assert.ErrorIs(t, err, ErrUnknownSymbol)
			assert.Equal(t, before, table.View())
		})
	}
}

func TestSetBase_RejectsNonPositiveRate(t *testing.T) {
	snap := mustSnapshot(t, "USD", "USD", "1", "PLN", "4", "XYZ", "0")
	table, err := New(testClassifier, "USD", snap)
	require.NoError(t, err)
	before := table.View()

	err = table.SetBase("XYZ")
	assert.ErrorIs(t, err, ErrNonPositiveBaseRate)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
	assert.Equal(t, before, table.View())
}

func TestPartitionInvariant(t *testing.T) {
	snap := scenarioSnapshot(t)
	for _, base := range []string{"USD", "PLN", "EUR", "BTC"} {
		t.Run(base, func(t *testing.T) {
			table, err := New(testClassifier, base, snap)
			require.NoError(t, err)
			view := table.View()

			seen := map[string]int{}
			for _, r := range view.Fiat {
				seen[r.Symbol]++
				assert.True(t, testClassifier.IsFiat(r.Symbol))
			}
			for _, r := range view.Alt {
				seen[r.Symbol]++
				assert.False(t, testClassifier.IsFiat(r.Symbol))
			}

			assert.Len(t, seen, snap.Len())
			for _, r := range snap.Rates() {
				assert.Equal(t, 1, seen[r.Symbol], "symbol %s", r.Symbol)
			}
		})
	}
}

func TestIdentityInvariant(t *testing.T) {
	snap := mustSnapshot(t, "USD",
		"USD", "1",
		"PLN", "4.175038396575023",
		"NZD", "1.7612",
		"FARTCOIN", "1.7581239",
	)
	table, err := New(testClassifier, "PLN", snap)
	require.NoError(t, err)
	require.NoError(t, table.SetBase("usd"))

	view := table.View()
	all := append(view.Fiat, view.Alt...)
	require.Len(t, all, snap.Len())
	for _, r := range all {
		raw, ok := snap.Lookup(r.Symbol)
		require.True(t, ok)
		want, _ := raw.Float64()
		assert.Equal(t, want, r.Rate, "symbol %s", r.Symbol)
	}
}

func TestCrossRateInvariant(t *testing.T) {
	snap := mustSnapshot(t, "USD",
		"USD", "1",
		"PLN", "3.9871",
		"EUR", "0.9213",
		"AUD", "1.5402",
		"BTC", "0.0000157",
		"ETH", "0.00041",
	)

	for _, b1 := range []string{"PLN", "EUR", "BTC"} {
		for _, b2 := range []string{"AUD", "ETH", "USD"} {
			t.Run(b1+"->"+b2, func(t *testing.T) {
				viaB1, err := New(testClassifier, "USD", snap)
				require.NoError(t, err)
				require.NoError(t, viaB1.SetBase(b1))
				require.NoError(t, viaB1.SetBase(b2))

				direct, err := New(testClassifier, b2, snap)
				require.NoError(t, err)

				got, want := viaB1.View(), direct.View()
				require.Equal(t, len(want.Fiat), len(got.Fiat))
				require.Equal(t, len(want.Alt), len(got.Alt))
				for i := range want.Fiat {
					assert.Equal(t, want.Fiat[i].Symbol, got.Fiat[i].Symbol)
					assert.InEpsilon(t, want.Fiat[i].Rate, got.Fiat[i].Rate, 1e-12)
				}
				for i := range want.Alt {
					assert.Equal(t, want.Alt[i].Symbol, got.Alt[i].Symbol)
					assert.InEpsilon(t, want.Alt[i].Rate, got.Alt[i].Rate, 1e-12)
				}
			})
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("recalculates against current base", func(t *testing.T) {
		table, err := New(testClassifier, "EUR", scenarioSnapshot(t))
		require.NoError(t, err)

		next := mustSnapshot(t, "USD", "USD", "1", "PLN", "5", "EUR", "0.5")
		require.NoError(t, table.Load(next))

		assert.Equal(t, "EUR", table.Base())
		assert.Same(t, next, table.Snapshot())
		rates, err := table.Rates(ClassFiat)
		require.NoError(t, err)
		got, ok := rateOf(t, rates, "PLN")
		require.True(t, ok)
		assert.Equal(t, 10.0, got)
	})

	t.Run("snapshot without current base keeps previous state", func(t *testing.T) {
		table, err := New(testClassifier, "EUR", scenarioSnapshot(t))
		require.NoError(t, err)
		before := table.View()
		prev := table.Snapshot()

		err = table.Load(mustSnapshot(t, "USD", "USD", "1", "PLN", "4"))
		assert.ErrorIs(t, err, ErrUnknownSymbol)
		assert.Equal(t, before, table.View())
		assert.Same(t, prev, table.Snapshot())
	})

	t.Run("nil snapshot", func(t *testing.T) {
		table, err := New(testClassifier, "USD", scenarioSnapshot(t))
		require.NoError(t, err)
		assert.ErrorIs(t, table.Load(nil), ErrNoData)
	})
}

func TestNearest_Scenario(t *testing.T) {
	table, err := New(testClassifier, "USD", scenarioSnapshot(t))
	require.NoError(t, err)

	m, err := table.Nearest(4.0, ClassFiat)
	require.NoError(t, err)
	assert.Equal(t, "PLN", m.Symbol)
	assert.Equal(t, "USD", m.Base)
	assert.Equal(t, ClassFiat, m.Class)

	m, err = table.Nearest(1.0, ClassFiat)
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Symbol)

	m, err = table.Nearest(1.0, ClassAlt)
	require.NoError(t, err)
	assert.Equal(t, "BTC", m.Symbol)
}

func TestNearest_TieGoesToFirstSymbol(t *testing.T) {
	snap := mustSnapshot(t, "USD", "USD", "1", "AUD", "2", "NZD", "3")
	table, err := New(testClassifier, "USD", snap)
	require.NoError(t, err)

	m, err := table.Nearest(2.5, ClassFiat)
	require.NoError(t, err)
	assert.Equal(t, "AUD", m.Symbol)

	for i := 0; i < 20; i++ {
		again, err := table.Nearest(2.5, ClassFiat)
		require.NoError(t, err)
		assert.Equal(t, m, again)
	}
}

func TestNearestString(t *testing.T) {
	snap := mustSnapshot(t, "USD",
		"USD", "1",
		"AUD", "1.5402",
		"NZD", "1.7612",
		"PLN", "3.9871",
	)
	table, err := New(testClassifier, "USD", snap)
	require.NoError(t, err)

	want, err := table.Nearest(1.76, ClassFiat)
	require.NoError(t, err)
	require.Equal(t, "NZD", want.Symbol)

	for _, input := range []string{"1,76", "1.76", " 1, 76 ", "\t1.76\n"} {
		t.Run(input, func(t *testing.T) {
			got, err := table.NearestString(input, ClassFiat)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	for _, input := range []string{"", "dupa", "1.7.6", "NaN", "   "} {
		t.Run("invalid "+input, func(t *testing.T) {
			before := table.View()
			_, err := table.NearestString(input, ClassFiat)
			assert.ErrorIs(t, err, ErrInvalidValue)
			assert.Equal(t, before, table.View())
		})
	}
}

func TestNearest_Errors(t *testing.T) {
	snap := mustSnapshot(t, "USD", "USD", "1", "PLN", "4")
	table, err := New(testClassifier, "USD", snap)
	require.NoError(t, err)

	_, err = table.Nearest(1, ClassAlt)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = table.Nearest(1, Class("metal"))
	assert.ErrorIs(t, err, ErrUnknownClass)
}

func TestRates_ReturnsCopies(t *testing.T) {
	table, err := New(testClassifier, "USD", scenarioSnapshot(t))
	require.NoError(t, err)

	rates, err := table.Rates(ClassFiat)
	require.NoError(t, err)
	rates[0].Rate = 42

	again, err := table.Rates(ClassFiat)
	require.NoError(t, err)
	assert.NotEqual(t, 42.0, again[0].Rate)
}

func TestConcurrentReadersSeeConsistentBase(t *testing.T) {
	table, err := New(testClassifier, "USD", scenarioSnapshot(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 8)

	wg.Add(1)
	go func() {
		defer wg.Done()
		bases := []string{"EUR", "PLN", "USD"}
		for i := 0; i < 500; i++ {
			if err := table.SetBase(bases[i%len(bases)]); err != nil {
				errs <- err
				break
			}
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				view := table.View()
				rate, ok := rateOf(t, view.Fiat, view.Base)
				if !ok || rate != 1 {
					errs <- errors.New("base " + view.Base + " does not match its rates")
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
