package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ratematch/internal/api"
	"ratematch/internal/facts"
	"ratematch/internal/rates"
	"ratematch/internal/service"
)

// endlessGenerator emits one fragment and then runs until cancelled.
type endlessGenerator struct{}

func (endlessGenerator) Stream(ctx context.Context, _ string, onFragment func(string)) error {
	onFragment("The zloty")
	<-ctx.Done()
	return ctx.Err()
}

func TestDrainHTTP_EndsOpenFactStreams(t *testing.T) {
	logger := zap.NewNop().Sugar()
	snap, err := rates.NewSnapshot("USD", []rates.Rate{
		{Symbol: "USD", Value: decimal.NewFromInt(1)},
		{Symbol: "PLN", Value: decimal.NewFromInt(4)},
	})
	require.NoError(t, err)
	table, err := rates.New(rates.NewClassifier("USD", "PLN"), "USD", snap)
	require.NoError(t, err)

	manager := facts.NewManager(endlessGenerator{}, nil, facts.Options{}, logger)
	svc := service.NewRateService(service.Deps{Table: table, Facts: manager}, logger)

	r := chi.NewRouter()
	r.Get("/facts/{fact_id}/stream", api.HandleStreamFact(svc))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	app := &App{
		logger:     logger,
		facts:      manager,
		httpServer: &http.Server{Handler: r, ReadHeaderTimeout: time.Second},
	}
	go func() { _ = app.httpServer.Serve(ln) }()

	m, err := svc.Match("4", "fiat")
	require.NoError(t, err)
	require.NotEmpty(t, m.FactID)
	require.Eventually(t, func() bool {
		f, err := svc.GetFact(m.FactID)
		return err == nil && f.Text != ""
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/facts/" + m.FactID + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	start := time.Now()
	errs := app.drainHTTP(ctx)
	assert.Empty(t, errs)
	assert.Less(t, time.Since(start), 2*time.Second)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "The zloty", string(body))
	assert.Equal(t, "CANCELED", resp.Trailer.Get("X-Fact-Status"))
}
